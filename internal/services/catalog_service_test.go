package services_test

import (
	"testing"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // pure-Go SQLite driver

	"librarium/internal/apperr"
	"librarium/internal/domain"
	"librarium/internal/repos"
	"librarium/internal/services"
)

func memdb(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := sqlx.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	// One connection: every :memory: connection is its own database.
	db.SetMaxOpenConns(1)
	if err := repos.EnsureSchema(db); err != nil {
		t.Fatal(err)
	}
	return db
}

func newCatalog(db *sqlx.DB) *services.CatalogService {
	audit := services.NewAudit(repos.NewAuditRepo(db))
	return services.NewCatalogService(repos.NewBookRepo(db), audit)
}

func TestCatalogService_AddAndSearchRoundTrip(t *testing.T) {
	db := memdb(t)
	svc := newCatalog(db)

	added, err := svc.AddBook(services.AddBookInput{
		Name: "Dune", Author: "Frank Herbert", YearPublished: 1965, LoanType: 1, Category: "Science Fiction",
	})
	if err != nil {
		t.Fatal(err)
	}
	if added.ID == 0 || added.Quantity != 1 || added.OutOfStock {
		t.Fatalf("unexpected new book: %+v", added)
	}

	found, err := svc.Search(repos.BookFilter{Name: "Dune"}, map[string]string{"name": "Dune"})
	if err != nil {
		t.Fatal(err)
	}
	if len(found) != 1 {
		t.Fatalf("want exactly one match, got %d", len(found))
	}
	if found[0] != added {
		t.Fatalf("round trip mismatch: added %+v, found %+v", added, found[0])
	}
}

func TestCatalogService_AddValidation(t *testing.T) {
	db := memdb(t)
	svc := newCatalog(db)

	if _, err := svc.AddBook(services.AddBookInput{Name: "X", Author: "Y", YearPublished: 2000, LoanType: 4, Category: "Horror"}); !apperr.IsCode(err, "invalid_loan_type") {
		t.Fatalf("want invalid_loan_type, got %v", err)
	}
	if _, err := svc.AddBook(services.AddBookInput{Name: "X", Author: "Y", YearPublished: 2000, LoanType: 1, Category: "Poetry"}); !apperr.IsCode(err, "invalid_category") {
		t.Fatalf("want invalid_category, got %v", err)
	}

	if _, err := svc.AddBook(services.AddBookInput{Name: "Dune", Author: "Frank Herbert", YearPublished: 1965, LoanType: 1, Category: "Science Fiction"}); err != nil {
		t.Fatal(err)
	}
	// Duplicate names are matched case-insensitively.
	_, err := svc.AddBook(services.AddBookInput{Name: "dUNe", Author: "Someone Else", YearPublished: 2001, LoanType: 2, Category: "Horror"})
	e, ok := apperr.From(err)
	if !ok || e.Code != "duplicate_name" {
		t.Fatalf("want duplicate_name, got %v", err)
	}
	if e.Meta["book_name"] != "Dune" {
		t.Fatalf("conflict should echo the existing book, got %v", e.Meta)
	}
}

func TestCatalogService_QuantityAndActivation(t *testing.T) {
	db := memdb(t)
	svc := newCatalog(db)

	book, err := svc.AddBook(services.AddBookInput{Name: "The Hobbit", Author: "J.R.R. Tolkien", YearPublished: 1937, LoanType: 2, Category: "Fantasy"})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := svc.SetQuantity(book.ID, -3); !apperr.IsCode(err, "invalid_quantity") {
		t.Fatalf("want invalid_quantity, got %v", err)
	}
	if _, err := svc.SetQuantity(book.ID+99, 5); !apperr.IsCode(err, "book_not_found") {
		t.Fatalf("want book_not_found, got %v", err)
	}

	// Dropping to zero flags out of stock.
	change, err := svc.SetQuantity(book.ID, 0)
	if err != nil {
		t.Fatal(err)
	}
	if !change.OutOfStock || change.PreviousQuantity != 1 || change.NewQuantity != 0 {
		t.Fatalf("unexpected change: %+v", change)
	}

	// Restocking does NOT reactivate; activation is manual.
	change, err = svc.SetQuantity(book.ID, 5)
	if err != nil {
		t.Fatal(err)
	}
	if !change.OutOfStock {
		t.Fatalf("restock must not auto-activate: %+v", change)
	}

	activated, err := svc.Activate(book.ID)
	if err != nil {
		t.Fatal(err)
	}
	if activated.OutOfStock {
		t.Fatalf("book should be active: %+v", activated)
	}
	if _, err := svc.Activate(book.ID); !apperr.IsCode(err, "already_active") {
		t.Fatalf("want already_active, got %v", err)
	}

	deactivated, err := svc.Deactivate(book.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !deactivated.OutOfStock {
		t.Fatalf("book should be out of stock: %+v", deactivated)
	}
	if _, err := svc.Deactivate(book.ID); !apperr.IsCode(err, "already_deactivated") {
		t.Fatalf("want already_deactivated, got %v", err)
	}

	// A book at quantity zero cannot be activated at all.
	if _, err := svc.SetQuantity(book.ID, 0); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Activate(book.ID); !apperr.IsCode(err, "no_stock") {
		t.Fatalf("want no_stock, got %v", err)
	}
}

func TestCatalogService_SearchFilters(t *testing.T) {
	db := memdb(t)
	svc := newCatalog(db)

	seed := []services.AddBookInput{
		{Name: "Dune", Author: "Frank Herbert", YearPublished: 1965, LoanType: 1, Category: "Science Fiction"},
		{Name: "The Shining", Author: "Stephen King", YearPublished: 1977, LoanType: 2, Category: "Horror"},
		{Name: "Doctor Sleep", Author: "Stephen King", YearPublished: 2013, LoanType: 2, Category: "Horror"},
	}
	for _, in := range seed {
		if _, err := svc.AddBook(in); err != nil {
			t.Fatal(err)
		}
	}

	king, err := svc.Search(repos.BookFilter{Author: "king"}, map[string]string{"author": "king"})
	if err != nil {
		t.Fatal(err)
	}
	if len(king) != 2 {
		t.Fatalf("want 2 King books, got %d", len(king))
	}

	horror := domain.CategoryHorror
	horrors, err := svc.Search(repos.BookFilter{Name: "shin", Category: &horror}, map[string]string{"name": "shin", "category": "Horror"})
	if err != nil {
		t.Fatal(err)
	}
	if len(horrors) != 1 || horrors[0].Name != "The Shining" {
		t.Fatalf("unexpected matches: %+v", horrors)
	}

	if _, err := svc.Search(repos.BookFilter{Name: "nothing here"}, map[string]string{"name": "nothing here"}); !apperr.IsCode(err, "no_books_found") {
		t.Fatalf("want no_books_found, got %v", err)
	}

	// Empty filters return the whole catalog.
	all, err := svc.Search(repos.BookFilter{}, map[string]string{})
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Fatalf("want full catalog, got %d", len(all))
	}
}
