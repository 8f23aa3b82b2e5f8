package reports

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sentra-pos/sentra-pos/internal/accounts"
	"github.com/sentra-pos/sentra-pos/internal/platform/httpx"
	"github.com/sentra-pos/sentra-pos/internal/shared"
)

// Handler exposes financial statement endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers HTTP routes for reports.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/trial-balance", h.TrialBalance)
	r.Get("/profit-loss", h.ProfitLoss)
	r.Get("/balance-sheet", h.BalanceSheet)
	r.Get("/cash-flow", h.CashFlow)
}

func (h *Handler) TrialBalance(w http.ResponseWriter, r *http.Request) {
	scope := shared.ScopeFromContext(r.Context())
	from, to, err := shared.ParseDateWindow(r.URL.Query().Get("from"), r.URL.Query().Get("to"), time.Now())
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	tb, err := h.service.TrialBalance(r.Context(), scope, from, to)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"report": tb,
		"display": map[string]string{
			"total_debit":  FormatAmount(tb.TotalDebit),
			"total_credit": FormatAmount(tb.TotalCredit),
		},
	})
}

func (h *Handler) ProfitLoss(w http.ResponseWriter, r *http.Request) {
	scope := shared.ScopeFromContext(r.Context())
	from, to, err := shared.ParseDateWindow(r.URL.Query().Get("from"), r.URL.Query().Get("to"), time.Now())
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	pl, err := h.service.ProfitLoss(r.Context(), scope, from, to)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"report": pl,
		"display": map[string]string{
			"total_revenue": FormatAmount(pl.TotalRevenue),
			"total_expense": FormatAmount(pl.TotalExpense),
			"net_income":    FormatAmount(pl.NetIncome),
		},
	})
}

func (h *Handler) BalanceSheet(w http.ResponseWriter, r *http.Request) {
	scope := shared.ScopeFromContext(r.Context())
	asOf := time.Now()
	if raw := r.URL.Query().Get("as_of"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", "as_of must be YYYY-MM-DD")
			return
		}
		asOf = parsed
	}
	bs, err := h.service.BalanceSheet(r.Context(), scope, asOf)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"report": bs,
		"display": map[string]string{
			"total_assets":      FormatAmount(bs.TotalAssets),
			"total_liabilities": FormatAmount(bs.TotalLiabilities),
			"total_equity":      FormatAmount(bs.TotalEquity),
		},
	})
}

func (h *Handler) CashFlow(w http.ResponseWriter, r *http.Request) {
	scope := shared.ScopeFromContext(r.Context())
	from, to, err := shared.ParseDateWindow(r.URL.Query().Get("from"), r.URL.Query().Get("to"), time.Now())
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	cf, err := h.service.CashFlow(r.Context(), scope, from, to)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"report": cf,
		"display": map[string]string{
			"opening_balance": FormatAmount(cf.OpeningBalance),
			"net_cash_flow":   FormatAmount(cf.NetCashFlow),
			"closing_balance": FormatAmount(cf.ClosingBalance),
		},
	})
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, accounts.ErrSystemAccountNotConfigured):
		httpx.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", err.Error())
	case errors.Is(err, shared.ErrMissingTenant):
		httpx.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", err.Error())
	default:
		h.logger.Error("reports handler", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
