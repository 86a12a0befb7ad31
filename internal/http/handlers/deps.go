package handlers

import (
	"github.com/jmoiron/sqlx"

	"librarium/internal/repos"
	"librarium/internal/services"
)

type Deps struct {
	BookHandler     *BookHandler
	CustomerHandler *CustomerHandler
	LoanHandler     *LoanHandler
	LogsHandler     *LogsHandler
	StatsHandler    *StatsHandler
	AdminHandler    *AdminHandler
}

func NewDeps(db *sqlx.DB) *Deps {
	bookRepo := repos.NewBookRepo(db)
	custRepo := repos.NewCustomerRepo(db)
	loanRepo := repos.NewLoanRepo(db)
	auditRepo := repos.NewAuditRepo(db)
	statsRepo := repos.NewStatsRepo(db)

	audit := services.NewAudit(auditRepo)
	catalogSvc := services.NewCatalogService(bookRepo, audit)
	customerSvc := services.NewCustomerService(custRepo, audit)
	loanSvc := services.NewLoanService(loanRepo, bookRepo, custRepo, audit)
	statsSvc := services.NewStatsService(statsRepo, audit)

	return &Deps{
		BookHandler:     &BookHandler{Catalog: catalogSvc, Audit: audit},
		CustomerHandler: &CustomerHandler{Customers: customerSvc, Audit: audit},
		LoanHandler:     &LoanHandler{Loans: loanSvc, Audit: audit},
		LogsHandler:     &LogsHandler{Log: auditRepo, Audit: audit},
		StatsHandler:    &StatsHandler{Stats: statsSvc},
		AdminHandler:    &AdminHandler{DB: db, Loans: loanRepo, Audit: audit},
	}
}
