package repos

import (
	"strings"

	"github.com/doug-martin/goqu/v9"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"librarium/internal/domain"
)

type CustomerRepo struct{ db *sqlx.DB }

func NewCustomerRepo(db *sqlx.DB) *CustomerRepo { return &CustomerRepo{db: db} }

type CustomerFilter struct {
	ID          int64 // 0 means no filter
	Name        string
	Phone       string
	Deactivated *bool
}

func (r *CustomerRepo) Insert(c domain.Customer) (int64, error) {
	res, err := r.db.Exec(`
	  INSERT INTO customers(name, city, age, phone_number, is_deactivated)
	  VALUES(?, ?, ?, ?, ?)
	`, c.Name, c.City, c.Age, c.PhoneNumber, c.Deactivated)
	if err != nil {
		return 0, errors.Wrap(err, "insert customer")
	}
	id, err := res.LastInsertId()
	return id, errors.Wrap(err, "customer insert id")
}

// Get returns sql.ErrNoRows untouched when the customer is missing.
func (r *CustomerRepo) Get(id int64) (domain.Customer, error) {
	var c domain.Customer
	err := r.db.Get(&c, `
	  SELECT id, name, city, age, phone_number, is_deactivated
	  FROM customers WHERE id = ?
	`, id)
	return c, err
}

// GetByPhone is the duplicate-registration guard.
func (r *CustomerRepo) GetByPhone(phone string) (domain.Customer, error) {
	var c domain.Customer
	err := r.db.Get(&c, `
	  SELECT id, name, city, age, phone_number, is_deactivated
	  FROM customers WHERE phone_number = ?
	`, phone)
	return c, err
}

func (r *CustomerRepo) Search(f CustomerFilter) ([]domain.Customer, error) {
	ds := dialect.From("customers").
		Select("id", "name", "city", "age", "phone_number", "is_deactivated").
		Order(goqu.C("id").Asc())

	if f.ID > 0 {
		ds = ds.Where(goqu.C("id").Eq(f.ID))
	}
	if f.Name != "" {
		ds = ds.Where(goqu.L("LOWER(name) LIKE ?", "%"+strings.ToLower(f.Name)+"%"))
	}
	if f.Phone != "" {
		ds = ds.Where(goqu.L("phone_number LIKE ?", "%"+f.Phone+"%"))
	}
	if f.Deactivated != nil {
		ds = ds.Where(goqu.C("is_deactivated").Eq(*f.Deactivated))
	}

	query, args, err := ds.Prepared(true).ToSQL()
	if err != nil {
		return nil, errors.Wrap(err, "build customer search")
	}

	var out []domain.Customer
	err = r.db.Select(&out, query, args...)
	return out, errors.Wrap(err, "search customers")
}

func (r *CustomerRepo) SetDeactivated(id int64, flag bool) error {
	_, err := r.db.Exec(`UPDATE customers SET is_deactivated = ? WHERE id = ?`, flag, id)
	return errors.Wrap(err, "set customer deactivated")
}
