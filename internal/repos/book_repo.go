package repos

import (
	"strings"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"librarium/internal/domain"
)

var dialect = goqu.Dialect("sqlite3")

type BookRepo struct{ db *sqlx.DB }

func NewBookRepo(db *sqlx.DB) *BookRepo { return &BookRepo{db: db} }

// BookFilter narrows a catalog search; zero values mean "no filter".
type BookFilter struct {
	Name       string
	Author     string
	Category   *domain.Category
	OutOfStock *bool
}

func (r *BookRepo) Insert(b domain.Book) (int64, error) {
	res, err := r.db.Exec(`
	  INSERT INTO books(name, author, year_published, loan_type, category, quantity, is_out_of_stock)
	  VALUES(?, ?, ?, ?, ?, ?, ?)
	`, b.Name, b.Author, b.YearPublished, int(b.LoanType), string(b.Category), b.Quantity, b.OutOfStock)
	if err != nil {
		return 0, errors.Wrap(err, "insert book")
	}
	id, err := res.LastInsertId()
	return id, errors.Wrap(err, "book insert id")
}

// Get returns sql.ErrNoRows untouched when the book is missing.
func (r *BookRepo) Get(id int64) (domain.Book, error) {
	var b domain.Book
	err := r.db.Get(&b, `
	  SELECT id, name, author, year_published, loan_type, category, quantity, is_out_of_stock
	  FROM books WHERE id = ?
	`, id)
	return b, err
}

// GetByNameFold matches the name case-insensitively (duplicate guard).
func (r *BookRepo) GetByNameFold(name string) (domain.Book, error) {
	var b domain.Book
	err := r.db.Get(&b, `
	  SELECT id, name, author, year_published, loan_type, category, quantity, is_out_of_stock
	  FROM books WHERE LOWER(name) = LOWER(?)
	`, name)
	return b, err
}

func (r *BookRepo) Search(f BookFilter) ([]domain.Book, error) {
	ds := dialect.From("books").
		Select("id", "name", "author", "year_published", "loan_type", "category", "quantity", "is_out_of_stock").
		Order(goqu.C("id").Asc())

	if f.Name != "" {
		ds = ds.Where(goqu.L("LOWER(name) LIKE ?", "%"+strings.ToLower(f.Name)+"%"))
	}
	if f.Author != "" {
		ds = ds.Where(goqu.L("LOWER(author) LIKE ?", "%"+strings.ToLower(f.Author)+"%"))
	}
	if f.Category != nil {
		ds = ds.Where(goqu.C("category").Eq(string(*f.Category)))
	}
	if f.OutOfStock != nil {
		ds = ds.Where(goqu.C("is_out_of_stock").Eq(*f.OutOfStock))
	}

	query, args, err := ds.Prepared(true).ToSQL()
	if err != nil {
		return nil, errors.Wrap(err, "build book search")
	}

	var out []domain.Book
	err = r.db.Select(&out, query, args...)
	return out, errors.Wrap(err, "search books")
}

// UpdateStock sets quantity and the out-of-stock flag together.
func (r *BookRepo) UpdateStock(id int64, quantity int, outOfStock bool) error {
	_, err := r.db.Exec(`UPDATE books SET quantity = ?, is_out_of_stock = ? WHERE id = ?`,
		quantity, outOfStock, id)
	return errors.Wrap(err, "update book stock")
}

func (r *BookRepo) SetOutOfStock(id int64, flag bool) error {
	_, err := r.db.Exec(`UPDATE books SET is_out_of_stock = ? WHERE id = ?`, flag, id)
	return errors.Wrap(err, "set book out of stock")
}
