package repos

import (
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

type StatsRepo struct{ db *sqlx.DB }

func NewStatsRepo(db *sqlx.DB) *StatsRepo { return &StatsRepo{db: db} }

// Stats is the read-only aggregate the dashboard cards consume.
type Stats struct {
	TotalBooks           int `json:"total_different_books"`
	TotalOpenLoans       int `json:"total_loans_and_total_books_loaned"`
	ActivatedCustomers   int `json:"total_activated_customers"`
	DeactivatedCustomers int `json:"total_deactivated_customers"`
	BooksOutOfStock      int `json:"books_out_of_stock"`
	BooksInStock         int `json:"books_on_stock"`
	LateOpenLoans        int `json:"total_loans_late_on_returns"`
	TotalBookQuantity    int `json:"total_book_pieces_in_the_store"`
}

func (r *StatsRepo) Collect(now time.Time) (Stats, error) {
	var s Stats
	counts := []struct {
		dst   *int
		query string
		args  []any
	}{
		{&s.TotalBooks, `SELECT COUNT(*) FROM books`, nil},
		{&s.TotalOpenLoans, `SELECT COUNT(*) FROM loans`, nil},
		{&s.ActivatedCustomers, `SELECT COUNT(*) FROM customers WHERE is_deactivated = 0`, nil},
		{&s.DeactivatedCustomers, `SELECT COUNT(*) FROM customers WHERE is_deactivated = 1`, nil},
		{&s.BooksOutOfStock, `SELECT COUNT(*) FROM books WHERE is_out_of_stock = 1`, nil},
		{&s.BooksInStock, `SELECT COUNT(*) FROM books WHERE is_out_of_stock = 0`, nil},
		{&s.LateOpenLoans, `SELECT COUNT(*) FROM loans WHERE return_due_date < ?`, []any{formatTS(now)}},
		{&s.TotalBookQuantity, `SELECT COALESCE(SUM(quantity), 0) FROM books`, nil},
	}
	for _, c := range counts {
		if err := r.db.Get(c.dst, c.query, c.args...); err != nil {
			return Stats{}, errors.Wrap(err, "collect stats")
		}
	}
	return s, nil
}
