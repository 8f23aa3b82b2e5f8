package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sentra-pos/sentra-pos/internal/accounts"
	"github.com/sentra-pos/sentra-pos/internal/audit"
	"github.com/sentra-pos/sentra-pos/internal/journal"
	"github.com/sentra-pos/sentra-pos/internal/ledger"
	"github.com/sentra-pos/sentra-pos/internal/observability"
	"github.com/sentra-pos/sentra-pos/internal/payments"
	"github.com/sentra-pos/sentra-pos/internal/purchases"
	"github.com/sentra-pos/sentra-pos/internal/reports"
	"github.com/sentra-pos/sentra-pos/internal/sales"
	"github.com/sentra-pos/sentra-pos/internal/transactions"
	"github.com/sentra-pos/sentra-pos/jobs"
)

// RouterParams aggregates the handlers mounted on the API router.
type RouterParams struct {
	Logger  *slog.Logger
	Config  *Config
	Metrics *observability.Metrics

	AccountsHandler     *accounts.Handler
	JournalHandler      *journal.Handler
	LedgerHandler       *ledger.Handler
	ReportsHandler      *reports.Handler
	TransactionsHandler *transactions.Handler
	SalesHandler        *sales.Handler
	PurchasesHandler    *purchases.Handler
	PaymentsHandler     *payments.Handler
	AuditHandler        *audit.Handler
	JobHandler          *jobs.Handler
}

// NewRouter assembles the HTTP router with the full middleware stack.
func NewRouter(p RouterParams) http.Handler {
	r := chi.NewRouter()
	for _, mw := range MiddlewareStack(MiddlewareConfig{Logger: p.Logger, Config: p.Config, Metrics: p.Metrics}) {
		r.Use(mw)
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	if p.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", p.Metrics.Handler())
	}

	r.Route("/api", func(api chi.Router) {
		mount(api, "/accounts", p.AccountsHandler)
		mount(api, "/journal", p.JournalHandler)
		mount(api, "/ledger", p.LedgerHandler)
		mount(api, "/reports", p.ReportsHandler)
		mount(api, "/transactions", p.TransactionsHandler)
		mount(api, "/sales", p.SalesHandler)
		mount(api, "/purchases", p.PurchasesHandler)
		mount(api, "/payments", p.PaymentsHandler)
		mount(api, "/audit", p.AuditHandler)
		mount(api, "/jobs", p.JobHandler)
	})

	return r
}

type routeMounter interface {
	MountRoutes(r chi.Router)
}

func mount(api chi.Router, pattern string, h routeMounter) {
	if h == nil {
		return
	}
	api.Route(pattern, h.MountRoutes)
}
