package repos

import (
	"log"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite"

	"librarium/internal/domain"
)

func OpenDB(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "open sqlite")
	}
	// Every :memory: connection is a distinct database, so the pool must
	// stay at a single connection for in-memory DSNs.
	if dsn == ":memory:" {
		db.SetMaxOpenConns(1)
	}
	if err = db.Ping(); err != nil {
		return nil, errors.Wrap(err, "ping sqlite")
	}

	if err := EnsureSchema(db); err != nil {
		return nil, err
	}
	// Seed baseline demo data if the DB is empty (customers/books)
	if err := seedIfEmpty(db); err != nil {
		return nil, err
	}

	return db, nil
}

func EnsureSchema(db *sqlx.DB) error {
	schema := `
PRAGMA foreign_keys = ON;

CREATE TABLE IF NOT EXISTS books(
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  name TEXT NOT NULL,
  author TEXT NOT NULL,
  year_published INTEGER NOT NULL,
  loan_type INTEGER NOT NULL CHECK (loan_type IN (1,2,3)),
  category TEXT NOT NULL,
  quantity INTEGER NOT NULL DEFAULT 1 CHECK (quantity >= 0),
  is_out_of_stock INTEGER NOT NULL DEFAULT 0
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_books_name_nocase ON books(LOWER(name));

CREATE TABLE IF NOT EXISTS customers(
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  name TEXT NOT NULL,
  city TEXT NOT NULL,
  age INTEGER NOT NULL,
  phone_number TEXT NOT NULL,
  is_deactivated INTEGER NOT NULL DEFAULT 0
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_customers_phone ON customers(phone_number);

CREATE TABLE IF NOT EXISTS loans(
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  cust_id INTEGER NOT NULL REFERENCES customers(id),
  cust_name TEXT NOT NULL,
  cust_phone TEXT NOT NULL,
  book_id INTEGER NOT NULL REFERENCES books(id),
  book_name TEXT NOT NULL,
  loan_date TEXT NOT NULL,
  return_due_date TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_loans_cust_book ON loans(cust_id, book_id);
CREATE INDEX IF NOT EXISTS idx_loans_due ON loans(return_due_date);

CREATE TABLE IF NOT EXISTS returned_books(
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  loan_id INTEGER NOT NULL,
  cust_id INTEGER NOT NULL,
  cust_name TEXT NOT NULL,
  cust_phone TEXT NOT NULL,
  book_name TEXT NOT NULL,
  loan_date TEXT NOT NULL,
  returned_date TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_returned_cust ON returned_books(cust_id);

CREATE TABLE IF NOT EXISTS log_entries(
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  action TEXT NOT NULL,
  at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_log_entries_at ON log_entries(at);
`
	_, err := db.Exec(schema)
	return errors.Wrap(err, "ensure schema")
}

// ResetDB drops every table, recreates the schema and reseeds the demo
// data set. Dev/demo only; it also wipes the audit log.
func ResetDB(db *sqlx.DB) error {
	drop := `
DROP TABLE IF EXISTS log_entries;
DROP TABLE IF EXISTS returned_books;
DROP TABLE IF EXISTS loans;
DROP TABLE IF EXISTS customers;
DROP TABLE IF EXISTS books;
`
	if _, err := db.Exec(drop); err != nil {
		return errors.Wrap(err, "drop tables")
	}
	if err := EnsureSchema(db); err != nil {
		return err
	}
	return seed(db)
}

func seedIfEmpty(db *sqlx.DB) error {
	var n int
	if err := db.Get(&n, `SELECT COUNT(*) FROM customers`); err != nil {
		return errors.Wrap(err, "count customers")
	}
	if n > 0 {
		return nil
	}

	log.Println("[seed] inserting demo customers/books")
	return seed(db)
}

func seed(db *sqlx.DB) error {
	tx, err := db.Beginx()
	if err != nil {
		return errors.Wrap(err, "begin seed tx")
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`INSERT INTO customers(name, city, age, phone_number) VALUES
	  ('Alice Johnson','New York',28,'054-6300598'),
	  ('Bob Smith','Los Angeles',35,'054-6200598'),
	  ('Charlie Brown','Chicago',42,'054-1006598'),
	  ('Diana Ross','Houston',31,'054-0006598'),
	  ('Edward Norton','Phoenix',39,'054-6406598')`); err != nil {
		return errors.Wrap(err, "seed customers")
	}

	if _, err := tx.Exec(`INSERT INTO books(name, author, year_published, loan_type, category, quantity) VALUES
	  ('Dune','Frank Herbert',1965,1,'Science Fiction',1),
	  ('The Shining','Stephen King',1977,2,'Horror',1),
	  ('Pride and Prejudice','Jane Austen',1813,3,'Romance',1),
	  ('The Da Vinci Code','Dan Brown',2003,1,'Mystery',1),
	  ('The Hobbit','J.R.R. Tolkien',1937,2,'Fantasy',1)`); err != nil {
		return errors.Wrap(err, "seed books")
	}

	return errors.Wrap(tx.Commit(), "commit seed")
}

// formatTS / parseTS convert between time.Time and the TEXT timestamp
// columns. Everything is stored in UTC so string comparison in SQL
// matches chronological order.
func formatTS(t time.Time) string {
	return t.UTC().Format(domain.TimeLayout)
}

func parseTS(s string) time.Time {
	t, err := time.ParseInLocation(domain.TimeLayout, s, time.UTC)
	if err != nil {
		return time.Time{}
	}
	return t
}
