package services

import (
	"database/sql"
	"time"

	"github.com/pkg/errors"

	"librarium/internal/apperr"
	"librarium/internal/domain"
	"librarium/internal/repos"
)

// LoanService coordinates the catalog and the registry around the loan
// lifecycle: Available -> Loaned -> Returned (history). It exclusively
// creates and destroys Loan and ReturnedBook rows.
type LoanService struct {
	Loans     *repos.LoanRepo
	Books     *repos.BookRepo
	Customers *repos.CustomerRepo
	Audit     *Audit

	now func() time.Time
}

func NewLoanService(loans *repos.LoanRepo, books *repos.BookRepo, customers *repos.CustomerRepo, audit *Audit) *LoanService {
	return &LoanService{Loans: loans, Books: books, Customers: customers, Audit: audit, now: time.Now}
}

// LoanConfirmation is the create-loan response payload.
type LoanConfirmation struct {
	LoanID       int64     `json:"loan_id"`
	BookID       int64     `json:"book_id"`
	BookName     string    `json:"book_name"`
	CustID       int64     `json:"cust_id"`
	CustName     string    `json:"cust_name"`
	BookQuantity int       `json:"book_quantity"`
	OutOfStock   bool      `json:"is_out_of_stock"`
	DueDate      time.Time `json:"-"`
}

// Create loans one copy of a book to a customer. The borrowing rules run
// in order: both parties must exist, both must be active, and the pair
// must not already have an open loan. The due date comes from the book's
// loan type.
func (s *LoanService) Create(custID, bookID int64) (LoanConfirmation, error) {
	customer, err := s.Customers.Get(custID)
	if errors.Is(err, sql.ErrNoRows) {
		return LoanConfirmation{}, apperr.NotFound("customer_not_found", "no customer with id %d", custID).
			WithMeta("customer_id", custID)
	}
	if err != nil {
		return LoanConfirmation{}, err
	}
	book, err := s.Books.Get(bookID)
	if errors.Is(err, sql.ErrNoRows) {
		return LoanConfirmation{}, apperr.NotFound("book_not_found", "no book with id %d", bookID).
			WithMeta("book_id", bookID)
	}
	if err != nil {
		return LoanConfirmation{}, err
	}

	if customer.Deactivated {
		return LoanConfirmation{}, apperr.Conflict("customer_deactivated", "customer %q is deactivated", customer.Name).
			WithMeta("customer_id", customer.ID)
	}
	if book.OutOfStock {
		return LoanConfirmation{}, apperr.Conflict("book_out_of_stock", "book %q is out of stock", book.Name).
			WithMeta("book_id", book.ID)
	}

	// Idempotence guard: one open loan per (customer, book) pair.
	if _, err := s.Loans.FindOpen(custID, bookID); err == nil {
		s.Audit.Record("User tried to make a loan. [%s] is already loaned to [%s, ID: %d] according to records",
			book.Name, customer.Name, customer.ID)
		return LoanConfirmation{}, apperr.Conflict("already_loaned", "book %q is already loaned to customer %q", book.Name, customer.Name).
			WithMeta("book_id", book.ID).
			WithMeta("customer_id", customer.ID)
	} else if !errors.Is(err, sql.ErrNoRows) {
		return LoanConfirmation{}, err
	}

	now := s.now().UTC()
	loan := domain.Loan{
		CustID:    customer.ID,
		CustName:  customer.Name,
		CustPhone: customer.PhoneNumber,
		BookID:    book.ID,
		BookName:  book.Name,
		LoanDate:  now,
		DueDate:   now.Add(book.LoanType.Duration()),
	}

	loanID, quantity, outOfStock, err := s.Loans.Create(loan)
	if err != nil {
		return LoanConfirmation{}, err
	}

	if quantity == 0 {
		s.Audit.Record("Loaned book [%s] (ID %d) to customer [%s] (ID %d), new loan ID (%d). Book quantity is 0, book out of stock",
			book.Name, book.ID, customer.Name, customer.ID, loanID)
	} else {
		s.Audit.Record("Loaned book [%s] (ID %d) to customer [%s] (ID %d), new loan ID (%d). New book quantity: %d",
			book.Name, book.ID, customer.Name, customer.ID, loanID, quantity)
	}

	return LoanConfirmation{
		LoanID:       loanID,
		BookID:       book.ID,
		BookName:     book.Name,
		CustID:       customer.ID,
		CustName:     customer.Name,
		BookQuantity: quantity,
		OutOfStock:   outOfStock,
		DueDate:      loan.DueDate,
	}, nil
}

// ReturnReceipt is the return-loan response payload. Late only changes
// how the return is reported, never the state transition itself.
type ReturnReceipt struct {
	LoanID           int64     `json:"loan_id"`
	BookID           int64     `json:"book_id"`
	BookName         string    `json:"book_name"`
	CustID           int64     `json:"cust_id"`
	CustName         string    `json:"cust_name"`
	PreviousQuantity int       `json:"previous_quantity"`
	NewQuantity      int       `json:"new_quantity"`
	Late             bool      `json:"late"`
	DueDate          time.Time `json:"-"`
	ReturnedAt       time.Time `json:"-"`
}

// Return closes the most recent open loan for the pair: restock, write
// the history snapshot and delete the loan row in one transaction.
func (s *LoanService) Return(custID, bookID int64) (ReturnReceipt, error) {
	customer, err := s.Customers.Get(custID)
	if errors.Is(err, sql.ErrNoRows) {
		s.Audit.Record("User tried to return a book; customer ID (%d) was not found", custID)
		return ReturnReceipt{}, apperr.NotFound("customer_not_found", "no customer with id %d", custID).
			WithMeta("customer_id", custID)
	}
	if err != nil {
		return ReturnReceipt{}, err
	}
	book, err := s.Books.Get(bookID)
	if errors.Is(err, sql.ErrNoRows) {
		s.Audit.Record("User tried to return a book; book ID (%d) was not found", bookID)
		return ReturnReceipt{}, apperr.NotFound("book_not_found", "no book with id %d", bookID).
			WithMeta("book_id", bookID)
	}
	if err != nil {
		return ReturnReceipt{}, err
	}

	loan, err := s.Loans.FindOpen(custID, bookID)
	if errors.Is(err, sql.ErrNoRows) {
		s.Audit.Record("No active loan found for customer ID (%d), book ID (%d)", custID, bookID)
		return ReturnReceipt{}, apperr.NotFound("no_active_loan", "no active loan for customer %d and book %d", custID, bookID).
			WithMeta("customer_id", custID).
			WithMeta("book_id", bookID)
	}
	if err != nil {
		return ReturnReceipt{}, err
	}

	now := s.now().UTC()
	previousQuantity := book.Quantity
	if err := s.Loans.Close(loan, now); err != nil {
		return ReturnReceipt{}, err
	}

	late := now.After(loan.DueDate)
	restockNote := ""
	if previousQuantity == 0 {
		restockNote = " Book quantity back in stock; it stays inactive for loans until activated"
	}
	if late {
		s.Audit.Record("User returned book [%s, ID %d] from customer (ID %d, %s) on loan (ID %d). Received after(!!) the due date %s, returned on %s. Quantity %d -> %d.%s",
			loan.BookName, loan.BookID, loan.CustID, customer.Name, loan.ID,
			domain.FormatTime(loan.DueDate), domain.FormatTime(now), previousQuantity, previousQuantity+1, restockNote)
	} else {
		s.Audit.Record("Returned book [%s, ID %d] from customer (ID %d, %s) on loan (ID %d) at %s. Quantity %d -> %d.%s",
			loan.BookName, loan.BookID, loan.CustID, customer.Name, loan.ID,
			domain.FormatTime(now), previousQuantity, previousQuantity+1, restockNote)
	}

	return ReturnReceipt{
		LoanID:           loan.ID,
		BookID:           loan.BookID,
		BookName:         loan.BookName,
		CustID:           loan.CustID,
		CustName:         customer.Name,
		PreviousQuantity: previousQuantity,
		NewQuantity:      previousQuantity + 1,
		Late:             late,
		DueDate:          loan.DueDate,
		ReturnedAt:       now,
	}, nil
}

func (s *LoanService) Search(f repos.LoanFilter, rawFilters map[string]string) ([]domain.Loan, error) {
	loans, err := s.Loans.Search(f)
	if err != nil {
		return nil, err
	}

	s.Audit.Record("Employee searched loans with filters: cust_id=%s book_id=%s start_date=%s end_date=%s",
		orQ(rawFilters["cust_id"]), orQ(rawFilters["book_id"]), orQ(rawFilters["start_date"]), orQ(rawFilters["end_date"]))

	if len(loans) == 0 {
		e := apperr.NotFound("no_loans_found", "no loans matched the search criteria")
		for k, v := range rawFilters {
			e.WithMeta(k, orQ(v))
		}
		return nil, e
	}
	return loans, nil
}

// Late returns every overdue open loan. Each hit is also written to the
// audit log so late loans cannot be silently ignored.
func (s *LoanService) Late() ([]domain.Loan, error) {
	now := s.now().UTC()
	late, err := s.Loans.Late(now)
	if err != nil {
		return nil, err
	}
	if len(late) == 0 {
		s.Audit.Record("User searched for late loans. No late loans were found")
		return nil, apperr.NotFound("no_late_loans", "no late loans found")
	}

	for _, loan := range late {
		s.Audit.Record("Employee searched for late loans and late loans were found: loan ID %d, customer ID %d, book ID %d, loaned %s, due %s",
			loan.ID, loan.CustID, loan.BookID, domain.FormatTime(loan.LoanDate), domain.FormatTime(loan.DueDate))
	}
	return late, nil
}

// ReturnedHistory searches the closed-loan snapshots.
func (s *LoanService) ReturnedHistory(name string, custID int64, rawFilters map[string]string) ([]domain.ReturnedBook, error) {
	returned, err := s.Loans.SearchReturned(name, custID)
	if err != nil {
		return nil, err
	}

	s.Audit.Record("User searched returned books for customer name=%s id=%s",
		orQ(rawFilters["name"]), orQ(rawFilters["id"]))

	if len(returned) == 0 {
		e := apperr.NotFound("no_returned_books", "no returned books matched the search criteria")
		for k, v := range rawFilters {
			e.WithMeta(k, orQ(v))
		}
		return nil, e
	}
	return returned, nil
}
