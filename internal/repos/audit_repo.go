package repos

import (
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"librarium/internal/domain"
)

// AuditRepo is the append-only action log. Rows are never updated or
// deleted outside a full reset.
type AuditRepo struct{ db *sqlx.DB }

func NewAuditRepo(db *sqlx.DB) *AuditRepo { return &AuditRepo{db: db} }

type logRow struct {
	ID     int64  `db:"id"`
	Action string `db:"action"`
	At     string `db:"at"`
}

func (r *AuditRepo) Append(action string, at time.Time) error {
	_, err := r.db.Exec(`INSERT INTO log_entries(action, at) VALUES(?, ?)`, action, formatTS(at))
	return errors.Wrap(err, "append log entry")
}

// List returns entries newest first, optionally bounded by [from, before).
func (r *AuditRepo) List(from, before *time.Time) ([]domain.LogEntry, error) {
	ds := dialect.From("log_entries").
		Select("id", "action", "at").
		Order(goqu.C("at").Desc(), goqu.C("id").Desc())

	if from != nil {
		ds = ds.Where(goqu.C("at").Gte(formatTS(*from)))
	}
	if before != nil {
		ds = ds.Where(goqu.C("at").Lt(formatTS(*before)))
	}

	query, args, err := ds.Prepared(true).ToSQL()
	if err != nil {
		return nil, errors.Wrap(err, "build log query")
	}

	var rows []logRow
	if err := r.db.Select(&rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "list log entries")
	}
	out := make([]domain.LogEntry, 0, len(rows))
	for _, row := range rows {
		out = append(out, domain.LogEntry{ID: row.ID, Action: row.Action, At: parseTS(row.At)})
	}
	return out, nil
}
