package services_test

import (
	"testing"

	"github.com/jmoiron/sqlx"

	"librarium/internal/apperr"
	"librarium/internal/repos"
	"librarium/internal/services"
)

func newRegistry(db *sqlx.DB) *services.CustomerService {
	audit := services.NewAudit(repos.NewAuditRepo(db))
	return services.NewCustomerService(repos.NewCustomerRepo(db), audit)
}

func TestCustomerService_AddAndDuplicatePhone(t *testing.T) {
	db := memdb(t)
	svc := newRegistry(db)

	alice, err := svc.Add(services.AddCustomerInput{Name: "Alice Johnson", City: "New York", Age: 28, PhoneNumber: "054-6300598"})
	if err != nil {
		t.Fatal(err)
	}
	if alice.ID == 0 || alice.Deactivated {
		t.Fatalf("unexpected new customer: %+v", alice)
	}

	_, err = svc.Add(services.AddCustomerInput{Name: "Impostor", City: "Chicago", Age: 44, PhoneNumber: "054-6300598"})
	e, ok := apperr.From(err)
	if !ok || e.Code != "duplicate_phone" {
		t.Fatalf("want duplicate_phone, got %v", err)
	}
	if e.Meta["customer_id"] != alice.ID {
		t.Fatalf("conflict should echo the existing customer id, got %v", e.Meta)
	}

	// No second row was created.
	all, err := svc.Search(repos.CustomerFilter{}, map[string]string{})
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 1 {
		t.Fatalf("want 1 customer, got %d", len(all))
	}
}

func TestCustomerService_ActivationLifecycle(t *testing.T) {
	db := memdb(t)
	svc := newRegistry(db)

	bob, err := svc.Add(services.AddCustomerInput{Name: "Bob Smith", City: "Los Angeles", Age: 35, PhoneNumber: "054-6200598"})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := svc.Activate(bob.ID); !apperr.IsCode(err, "already_active") {
		t.Fatalf("want already_active, got %v", err)
	}

	deactivated, err := svc.Deactivate(bob.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !deactivated.Deactivated {
		t.Fatalf("customer should be deactivated: %+v", deactivated)
	}
	if _, err := svc.Deactivate(bob.ID); !apperr.IsCode(err, "already_deactivated") {
		t.Fatalf("want already_deactivated, got %v", err)
	}

	activated, err := svc.Activate(bob.ID)
	if err != nil {
		t.Fatal(err)
	}
	if activated.Deactivated {
		t.Fatalf("customer should be active again: %+v", activated)
	}

	if _, err := svc.Deactivate(bob.ID + 99); !apperr.IsCode(err, "customer_not_found") {
		t.Fatalf("want customer_not_found, got %v", err)
	}
}

func TestCustomerService_SearchFilters(t *testing.T) {
	db := memdb(t)
	svc := newRegistry(db)

	seed := []services.AddCustomerInput{
		{Name: "Alice Johnson", City: "New York", Age: 28, PhoneNumber: "054-6300598"},
		{Name: "Bob Smith", City: "Los Angeles", Age: 35, PhoneNumber: "054-6200598"},
		{Name: "Alicia Keys", City: "New York", Age: 40, PhoneNumber: "054-1006598"},
	}
	for _, in := range seed {
		if _, err := svc.Add(in); err != nil {
			t.Fatal(err)
		}
	}

	byName, err := svc.Search(repos.CustomerFilter{Name: "alic"}, map[string]string{"name": "alic"})
	if err != nil {
		t.Fatal(err)
	}
	if len(byName) != 2 {
		t.Fatalf("want 2 matches on 'alic', got %d", len(byName))
	}

	byPhone, err := svc.Search(repos.CustomerFilter{Phone: "6200"}, map[string]string{"phone_number": "6200"})
	if err != nil {
		t.Fatal(err)
	}
	if len(byPhone) != 1 || byPhone[0].Name != "Bob Smith" {
		t.Fatalf("unexpected phone matches: %+v", byPhone)
	}

	deactivated := true
	if _, err := svc.Search(repos.CustomerFilter{Deactivated: &deactivated}, map[string]string{"is_deactivated": "true"}); !apperr.IsCode(err, "no_customers_found") {
		t.Fatalf("want no_customers_found, got %v", err)
	}
}
