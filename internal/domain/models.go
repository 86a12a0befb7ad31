package domain

import (
	"time"
)

// Storage layout for timestamps (UTC, sorts lexicographically in sqlite).
const TimeLayout = "2006-01-02 15:04:05"

// Display layouts expected by existing consumers of the API.
const (
	DisplayTimeLayout = "02/01/2006, 15:04.05"
	DisplayDateLayout = "02/01/2006"
)

// FormatTime renders a timestamp the way the frontend and the audit
// trail expect it (DD/MM/YYYY, HH:MM.SS).
func FormatTime(t time.Time) string {
	return t.Format(DisplayTimeLayout)
}

type Book struct {
	ID            int64    `db:"id" json:"id"`
	Name          string   `db:"name" json:"name"`
	Author        string   `db:"author" json:"author"`
	YearPublished int      `db:"year_published" json:"year_published"`
	LoanType      LoanType `db:"loan_type" json:"loan_type"`
	Category      Category `db:"category" json:"category"`
	Quantity      int      `db:"quantity" json:"quantity"`
	OutOfStock    bool     `db:"is_out_of_stock" json:"is_out_of_stock"`
}

type Customer struct {
	ID          int64  `db:"id" json:"id"`
	Name        string `db:"name" json:"name"`
	City        string `db:"city" json:"city"`
	Age         int    `db:"age" json:"age"`
	PhoneNumber string `db:"phone_number" json:"phone_number"`
	Deactivated bool   `db:"is_deactivated" json:"is_deactivated"`
}

// Loan is an open borrowing record. Customer and book names are copied in
// on purpose: the audit trail must survive later renames.
type Loan struct {
	ID        int64
	CustID    int64
	CustName  string
	CustPhone string
	BookID    int64
	BookName  string
	LoanDate  time.Time
	DueDate   time.Time
}

// Late reports whether the loan is overdue at the given instant.
func (l Loan) Late(now time.Time) bool {
	return l.DueDate.Before(now)
}

// ReturnedBook is the immutable history row created when a loan closes.
type ReturnedBook struct {
	ID           int64
	LoanID       int64
	CustID       int64
	CustName     string
	CustPhone    string
	BookName     string
	LoanDate     time.Time
	ReturnedDate time.Time
}

// LogEntry is one append-only audit record.
type LogEntry struct {
	ID     int64
	Action string
	At     time.Time
}
