package services

import (
	"database/sql"

	"github.com/pkg/errors"

	"librarium/internal/apperr"
	"librarium/internal/domain"
	"librarium/internal/repos"
)

type CatalogService struct {
	Books *repos.BookRepo
	Audit *Audit
}

func NewCatalogService(books *repos.BookRepo, audit *Audit) *CatalogService {
	return &CatalogService{Books: books, Audit: audit}
}

type AddBookInput struct {
	Name          string
	Author        string
	YearPublished int
	LoanType      int
	Category      string
}

func (s *CatalogService) AddBook(in AddBookInput) (domain.Book, error) {
	loanType, ok := domain.ParseLoanType(in.LoanType)
	if !ok {
		s.Audit.Record("User tried to add book [%s] with invalid loan type (%d)", in.Name, in.LoanType)
		return domain.Book{}, apperr.Validation("invalid_loan_type", "loan type must be 1, 2 or 3, got %d", in.LoanType)
	}
	category, ok := domain.ParseCategory(in.Category)
	if !ok {
		s.Audit.Record("User tried to add book [%s] with invalid category (%s)", in.Name, in.Category)
		return domain.Book{}, apperr.Validation("invalid_category", "unknown category %q", in.Category)
	}

	existing, err := s.Books.GetByNameFold(in.Name)
	switch {
	case err == nil:
		s.Audit.Record("User tried to add a book that already exists: [%s], ID: %d", existing.Name, existing.ID)
		return domain.Book{}, apperr.Conflict("duplicate_name", "book %q already exists", existing.Name).
			WithMeta("book_id", existing.ID).
			WithMeta("book_name", existing.Name)
	case !errors.Is(err, sql.ErrNoRows):
		return domain.Book{}, err
	}

	book := domain.Book{
		Name:          in.Name,
		Author:        in.Author,
		YearPublished: in.YearPublished,
		LoanType:      loanType,
		Category:      category,
		Quantity:      1,
	}
	id, err := s.Books.Insert(book)
	if err != nil {
		return domain.Book{}, err
	}
	book.ID = id

	s.Audit.Record("Added new book: [%s], ID: %d", book.Name, book.ID)
	return book, nil
}

// QuantityChange reports a stock edit, including the quantity before it.
type QuantityChange struct {
	BookID           int64  `json:"book_id"`
	BookName         string `json:"book_name"`
	PreviousQuantity int    `json:"previous_quantity"`
	NewQuantity      int    `json:"new_quantity"`
	OutOfStock       bool   `json:"is_out_of_stock"`
}

// SetQuantity updates the stock count. Dropping to zero flags the book
// out of stock; restocking from zero does NOT reactivate it — staff must
// activate manually. That asymmetry is a deliberate safety gate against
// accidental re-listing.
func (s *CatalogService) SetQuantity(bookID int64, quantity int) (QuantityChange, error) {
	book, err := s.Books.Get(bookID)
	if errors.Is(err, sql.ErrNoRows) {
		s.Audit.Record("User tried to change quantity for book ID (%d); book was not found", bookID)
		return QuantityChange{}, apperr.NotFound("book_not_found", "no book with id %d", bookID).WithMeta("book_id", bookID)
	}
	if err != nil {
		return QuantityChange{}, err
	}
	if quantity < 0 {
		s.Audit.Record("User tried to set invalid quantity (%d) for book [%s]", quantity, book.Name)
		return QuantityChange{}, apperr.Validation("invalid_quantity", "%d is not a valid quantity", quantity)
	}

	previous := book.Quantity
	outOfStock := book.OutOfStock
	if quantity == 0 {
		outOfStock = true
	}
	if err := s.Books.UpdateStock(bookID, quantity, outOfStock); err != nil {
		return QuantityChange{}, err
	}

	switch {
	case quantity == 0:
		s.Audit.Record("User updated book [%s] and marked it out of stock, quantity %d -> 0", book.Name, previous)
	case previous == 0:
		s.Audit.Record("User updated book [%s] (ID %d) back in stock, quantity %d -> %d; it stays inactive until activated manually",
			book.Name, bookID, previous, quantity)
	default:
		s.Audit.Record("User updated book [%s] (ID %d) quantity %d -> %d", book.Name, bookID, previous, quantity)
	}

	return QuantityChange{
		BookID:           bookID,
		BookName:         book.Name,
		PreviousQuantity: previous,
		NewQuantity:      quantity,
		OutOfStock:       outOfStock,
	}, nil
}

// Activate puts a book back in circulation. A book with no copies in
// stock cannot be activated.
func (s *CatalogService) Activate(bookID int64) (domain.Book, error) {
	book, err := s.Books.Get(bookID)
	if errors.Is(err, sql.ErrNoRows) {
		s.Audit.Record("User tried to activate book ID (%d); no book with that ID was found", bookID)
		return domain.Book{}, apperr.NotFound("book_not_found", "no book with id %d", bookID).WithMeta("book_id", bookID)
	}
	if err != nil {
		return domain.Book{}, err
	}
	if book.Quantity == 0 {
		s.Audit.Record("User tried to activate book [%s] (ID %d); it cannot be activated with no copies in stock", book.Name, book.ID)
		return domain.Book{}, apperr.Conflict("no_stock", "book %q has no copies in stock", book.Name).WithMeta("book_id", book.ID)
	}
	if !book.OutOfStock {
		s.Audit.Record("User tried to activate book [%s] (ID %d); it is already active", book.Name, book.ID)
		return domain.Book{}, apperr.Conflict("already_active", "book %q is already active", book.Name).WithMeta("book_id", book.ID)
	}

	if err := s.Books.SetOutOfStock(bookID, false); err != nil {
		return domain.Book{}, err
	}
	book.OutOfStock = false
	s.Audit.Record("User activated book [%s], ID: %d", book.Name, book.ID)
	return book, nil
}

// Deactivate marks a book out of stock regardless of quantity.
func (s *CatalogService) Deactivate(bookID int64) (domain.Book, error) {
	book, err := s.Books.Get(bookID)
	if errors.Is(err, sql.ErrNoRows) {
		s.Audit.Record("User tried to deactivate book ID (%d); no book with that ID was found", bookID)
		return domain.Book{}, apperr.NotFound("book_not_found", "no book with id %d", bookID).WithMeta("book_id", bookID)
	}
	if err != nil {
		return domain.Book{}, err
	}
	if book.OutOfStock {
		s.Audit.Record("User tried to mark book [%s] (ID %d) out of stock; it already is", book.Name, book.ID)
		return domain.Book{}, apperr.Conflict("already_deactivated", "book %q is already out of stock", book.Name).WithMeta("book_id", book.ID)
	}

	if err := s.Books.SetOutOfStock(bookID, true); err != nil {
		return domain.Book{}, err
	}
	book.OutOfStock = true
	s.Audit.Record("User marked book [%s] (ID %d) out of stock", book.Name, book.ID)
	return book, nil
}

func (s *CatalogService) Search(f repos.BookFilter, rawFilters map[string]string) ([]domain.Book, error) {
	books, err := s.Books.Search(f)
	if err != nil {
		return nil, err
	}

	s.Audit.Record("Employee searched for books with filters: name=%s author=%s category=%s out_of_stock=%s",
		orQ(rawFilters["name"]), orQ(rawFilters["author"]), orQ(rawFilters["category"]), orQ(rawFilters["out_of_stock"]))

	if len(books) == 0 {
		e := apperr.NotFound("no_books_found", "no books matched the search criteria")
		for k, v := range rawFilters {
			e.WithMeta(k, orQ(v))
		}
		return nil, e
	}
	return books, nil
}

// orQ echoes an unset filter as "?" in audit text and error context,
// matching what the frontend already renders.
func orQ(s string) string {
	if s == "" {
		return "?"
	}
	return s
}
