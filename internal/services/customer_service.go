package services

import (
	"database/sql"

	"github.com/pkg/errors"

	"librarium/internal/apperr"
	"librarium/internal/domain"
	"librarium/internal/repos"
)

type CustomerService struct {
	Customers *repos.CustomerRepo
	Audit     *Audit
}

func NewCustomerService(customers *repos.CustomerRepo, audit *Audit) *CustomerService {
	return &CustomerService{Customers: customers, Audit: audit}
}

type AddCustomerInput struct {
	Name        string
	City        string
	Age         int
	PhoneNumber string
}

// Add registers a customer. The phone number is the identity key:
// a duplicate is rejected and the conflicting id is returned.
func (s *CustomerService) Add(in AddCustomerInput) (domain.Customer, error) {
	existing, err := s.Customers.GetByPhone(in.PhoneNumber)
	switch {
	case err == nil:
		s.Audit.Record("User tried to add a new customer with a phone number already in use: [%s], belongs to customer ID (%d)",
			in.PhoneNumber, existing.ID)
		return domain.Customer{}, apperr.Conflict("duplicate_phone", "phone number %s is already registered", in.PhoneNumber).
			WithMeta("customer_id", existing.ID)
	case !errors.Is(err, sql.ErrNoRows):
		return domain.Customer{}, err
	}

	customer := domain.Customer{
		Name:        in.Name,
		City:        in.City,
		Age:         in.Age,
		PhoneNumber: in.PhoneNumber,
	}
	id, err := s.Customers.Insert(customer)
	if err != nil {
		return domain.Customer{}, err
	}
	customer.ID = id

	s.Audit.Record("Added new customer: [%s], ID: %d", customer.Name, customer.ID)
	return customer, nil
}

func (s *CustomerService) Activate(id int64) (domain.Customer, error) {
	customer, err := s.Customers.Get(id)
	if errors.Is(err, sql.ErrNoRows) {
		s.Audit.Record("User tried to activate a customer with ID %d; no such customer found", id)
		return domain.Customer{}, apperr.NotFound("customer_not_found", "no customer with id %d", id).WithMeta("customer_id", id)
	}
	if err != nil {
		return domain.Customer{}, err
	}
	if !customer.Deactivated {
		s.Audit.Record("User tried to activate customer [%s] (ID %d); already activated", customer.Name, customer.ID)
		return domain.Customer{}, apperr.Conflict("already_active", "customer %q is already activated", customer.Name).
			WithMeta("customer_id", customer.ID)
	}

	if err := s.Customers.SetDeactivated(id, false); err != nil {
		return domain.Customer{}, err
	}
	customer.Deactivated = false
	s.Audit.Record("User activated customer [%s], ID: %d", customer.Name, customer.ID)
	return customer, nil
}

func (s *CustomerService) Deactivate(id int64) (domain.Customer, error) {
	customer, err := s.Customers.Get(id)
	if errors.Is(err, sql.ErrNoRows) {
		s.Audit.Record("User searched for customer ID (%d) for deactivation; no such customer found", id)
		return domain.Customer{}, apperr.NotFound("customer_not_found", "no customer with id %d", id).WithMeta("customer_id", id)
	}
	if err != nil {
		return domain.Customer{}, err
	}
	if customer.Deactivated {
		s.Audit.Record("User tried to deactivate customer [%s] (ID %d); already deactivated", customer.Name, customer.ID)
		return domain.Customer{}, apperr.Conflict("already_deactivated", "customer %q is already deactivated", customer.Name).
			WithMeta("customer_id", customer.ID)
	}

	if err := s.Customers.SetDeactivated(id, true); err != nil {
		return domain.Customer{}, err
	}
	customer.Deactivated = true
	s.Audit.Record("User deactivated customer [%s], ID: %d", customer.Name, customer.ID)
	return customer, nil
}

func (s *CustomerService) Search(f repos.CustomerFilter, rawFilters map[string]string) ([]domain.Customer, error) {
	customers, err := s.Customers.Search(f)
	if err != nil {
		return nil, err
	}

	s.Audit.Record("User searched customers with filters: id=%s name=%s phone=%s deactivated=%s",
		orQ(rawFilters["id"]), orQ(rawFilters["name"]), orQ(rawFilters["phone_number"]), orQ(rawFilters["is_deactivated"]))

	if len(customers) == 0 {
		e := apperr.NotFound("no_customers_found", "no customers matched the search criteria")
		for k, v := range rawFilters {
			e.WithMeta(k, orQ(v))
		}
		return nil, e
	}
	return customers, nil
}
