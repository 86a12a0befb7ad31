package repos

import (
	"strings"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"librarium/internal/domain"
)

// LoanRepo owns the loans and returned_books tables. Both multi-row
// transitions (create with stock decrement, close with history swap) run
// inside a single transaction so the store never holds a half-applied
// loan.
type LoanRepo struct{ db *sqlx.DB }

func NewLoanRepo(db *sqlx.DB) *LoanRepo { return &LoanRepo{db: db} }

type loanRow struct {
	ID        int64  `db:"id"`
	CustID    int64  `db:"cust_id"`
	CustName  string `db:"cust_name"`
	CustPhone string `db:"cust_phone"`
	BookID    int64  `db:"book_id"`
	BookName  string `db:"book_name"`
	LoanDate  string `db:"loan_date"`
	DueDate   string `db:"return_due_date"`
}

func (r loanRow) toDomain() domain.Loan {
	return domain.Loan{
		ID:        r.ID,
		CustID:    r.CustID,
		CustName:  r.CustName,
		CustPhone: r.CustPhone,
		BookID:    r.BookID,
		BookName:  r.BookName,
		LoanDate:  parseTS(r.LoanDate),
		DueDate:   parseTS(r.DueDate),
	}
}

type returnedRow struct {
	ID           int64  `db:"id"`
	LoanID       int64  `db:"loan_id"`
	CustID       int64  `db:"cust_id"`
	CustName     string `db:"cust_name"`
	CustPhone    string `db:"cust_phone"`
	BookName     string `db:"book_name"`
	LoanDate     string `db:"loan_date"`
	ReturnedDate string `db:"returned_date"`
}

func (r returnedRow) toDomain() domain.ReturnedBook {
	return domain.ReturnedBook{
		ID:           r.ID,
		LoanID:       r.LoanID,
		CustID:       r.CustID,
		CustName:     r.CustName,
		CustPhone:    r.CustPhone,
		BookName:     r.BookName,
		LoanDate:     parseTS(r.LoanDate),
		ReturnedDate: parseTS(r.ReturnedDate),
	}
}

// LoanFilter narrows an open-loan search. The date range is inclusive of
// the whole end day: callers pass Before as end+1day.
type LoanFilter struct {
	CustID int64
	BookID int64
	From   *time.Time
	Before *time.Time
}

// Create inserts the loan and applies the stock side effect in one
// transaction. The decrement is conditional (quantity > 0 guard) so two
// racing loans of the last copy cannot drive the count negative; if the
// count reaches zero the book is flagged out of stock in the same
// statement batch. Returns the loan id and the book's stock after the
// decrement.
func (r *LoanRepo) Create(l domain.Loan) (int64, int, bool, error) {
	tx, err := r.db.Beginx()
	if err != nil {
		return 0, 0, false, errors.Wrap(err, "begin loan tx")
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`
	  UPDATE books SET quantity = quantity - 1 WHERE id = ? AND quantity > 0
	`, l.BookID); err != nil {
		return 0, 0, false, errors.Wrap(err, "decrement stock")
	}
	if _, err := tx.Exec(`
	  UPDATE books SET is_out_of_stock = 1 WHERE id = ? AND quantity = 0
	`, l.BookID); err != nil {
		return 0, 0, false, errors.Wrap(err, "flag out of stock")
	}

	res, err := tx.Exec(`
	  INSERT INTO loans(cust_id, cust_name, cust_phone, book_id, book_name, loan_date, return_due_date)
	  VALUES(?, ?, ?, ?, ?, ?, ?)
	`, l.CustID, l.CustName, l.CustPhone, l.BookID, l.BookName, formatTS(l.LoanDate), formatTS(l.DueDate))
	if err != nil {
		return 0, 0, false, errors.Wrap(err, "insert loan")
	}
	loanID, err := res.LastInsertId()
	if err != nil {
		return 0, 0, false, errors.Wrap(err, "loan insert id")
	}

	var stock struct {
		Quantity   int  `db:"quantity"`
		OutOfStock bool `db:"is_out_of_stock"`
	}
	if err := tx.Get(&stock, `SELECT quantity, is_out_of_stock FROM books WHERE id = ?`, l.BookID); err != nil {
		return 0, 0, false, errors.Wrap(err, "read stock back")
	}

	if err := tx.Commit(); err != nil {
		return 0, 0, false, errors.Wrap(err, "commit loan tx")
	}
	return loanID, stock.Quantity, stock.OutOfStock, nil
}

// FindOpen returns the most recent open loan for the pair, or
// sql.ErrNoRows. Multiple open rows for one pair are a data anomaly;
// most recent wins.
func (r *LoanRepo) FindOpen(custID, bookID int64) (domain.Loan, error) {
	var row loanRow
	err := r.db.Get(&row, `
	  SELECT id, cust_id, cust_name, cust_phone, book_id, book_name, loan_date, return_due_date
	  FROM loans
	  WHERE cust_id = ? AND book_id = ?
	  ORDER BY loan_date DESC, id DESC
	  LIMIT 1
	`, custID, bookID)
	if err != nil {
		return domain.Loan{}, err
	}
	return row.toDomain(), nil
}

// Close migrates the loan into returned_books, restocks one copy and
// deletes the open row, atomically. Restocking never clears the
// out-of-stock flag; activation stays a manual step.
func (r *LoanRepo) Close(l domain.Loan, returnedAt time.Time) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return errors.Wrap(err, "begin return tx")
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`UPDATE books SET quantity = quantity + 1 WHERE id = ?`, l.BookID); err != nil {
		return errors.Wrap(err, "restock")
	}
	if _, err := tx.Exec(`
	  INSERT INTO returned_books(loan_id, cust_id, cust_name, cust_phone, book_name, loan_date, returned_date)
	  VALUES(?, ?, ?, ?, ?, ?, ?)
	`, l.ID, l.CustID, l.CustName, l.CustPhone, l.BookName, formatTS(l.LoanDate), formatTS(returnedAt)); err != nil {
		return errors.Wrap(err, "insert returned record")
	}
	if _, err := tx.Exec(`DELETE FROM loans WHERE id = ?`, l.ID); err != nil {
		return errors.Wrap(err, "delete open loan")
	}

	return errors.Wrap(tx.Commit(), "commit return tx")
}

func (r *LoanRepo) Search(f LoanFilter) ([]domain.Loan, error) {
	ds := dialect.From("loans").
		Select("id", "cust_id", "cust_name", "cust_phone", "book_id", "book_name", "loan_date", "return_due_date").
		Order(goqu.C("loan_date").Asc(), goqu.C("id").Asc())

	if f.CustID > 0 {
		ds = ds.Where(goqu.C("cust_id").Eq(f.CustID))
	}
	if f.BookID > 0 {
		ds = ds.Where(goqu.C("book_id").Eq(f.BookID))
	}
	if f.From != nil {
		ds = ds.Where(goqu.C("loan_date").Gte(formatTS(*f.From)))
	}
	if f.Before != nil {
		ds = ds.Where(goqu.C("loan_date").Lt(formatTS(*f.Before)))
	}

	query, args, err := ds.Prepared(true).ToSQL()
	if err != nil {
		return nil, errors.Wrap(err, "build loan search")
	}

	var rows []loanRow
	if err := r.db.Select(&rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "search loans")
	}
	out := make([]domain.Loan, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

// Late lists open loans whose due date is strictly before now.
func (r *LoanRepo) Late(now time.Time) ([]domain.Loan, error) {
	var rows []loanRow
	err := r.db.Select(&rows, `
	  SELECT id, cust_id, cust_name, cust_phone, book_id, book_name, loan_date, return_due_date
	  FROM loans
	  WHERE return_due_date < ?
	  ORDER BY return_due_date ASC
	`, formatTS(now))
	if err != nil {
		return nil, errors.Wrap(err, "list late loans")
	}
	out := make([]domain.Loan, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

// SearchReturned filters the history by customer name (substring) and
// customer id (exact).
func (r *LoanRepo) SearchReturned(name string, custID int64) ([]domain.ReturnedBook, error) {
	ds := dialect.From("returned_books").
		Select("id", "loan_id", "cust_id", "cust_name", "cust_phone", "book_name", "loan_date", "returned_date").
		Order(goqu.C("id").Asc())

	if name != "" {
		ds = ds.Where(goqu.L("LOWER(cust_name) LIKE ?", "%"+strings.ToLower(name)+"%"))
	}
	if custID > 0 {
		ds = ds.Where(goqu.C("cust_id").Eq(custID))
	}

	query, args, err := ds.Prepared(true).ToSQL()
	if err != nil {
		return nil, errors.Wrap(err, "build returned search")
	}

	var rows []returnedRow
	if err := r.db.Select(&rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "search returned books")
	}
	out := make([]domain.ReturnedBook, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}
