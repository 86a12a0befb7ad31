package services

import (
	"fmt"
	"time"

	applog "librarium/internal/log"
	"librarium/internal/repos"
)

// Audit appends human-readable action records to the durable log. Writes
// are best-effort: a failed append is reported to the app log and never
// fails the operation that triggered it.
type Audit struct {
	Log *repos.AuditRepo
}

func NewAudit(log *repos.AuditRepo) *Audit { return &Audit{Log: log} }

func (a *Audit) Record(format string, args ...any) {
	action := fmt.Sprintf(format, args...)
	if err := a.Log.Append(action, time.Now().UTC()); err != nil {
		applog.Error(nil, "audit.append", err, map[string]any{"action": action})
	}
}
