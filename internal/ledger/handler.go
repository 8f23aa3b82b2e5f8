package ledger

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sentra-pos/sentra-pos/internal/platform/httpx"
	"github.com/sentra-pos/sentra-pos/internal/shared"
)

// Handler exposes the account ledger endpoint.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers HTTP routes for ledger statements.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.Statement)
}

type rowResponse struct {
	EntryID     int64  `json:"entry_id"`
	Date        string `json:"date"`
	Reference   string `json:"reference,omitempty"`
	Description string `json:"description,omitempty"`
	Type        string `json:"type"`
	Debit       string `json:"debit"`
	Credit      string `json:"credit"`
	Balance     string `json:"balance"`
}

type statementResponse struct {
	AccountID      int64         `json:"account_id"`
	AccountCode    string        `json:"account_code,omitempty"`
	AccountName    string        `json:"account_name,omitempty"`
	AccountType    string        `json:"account_type,omitempty"`
	From           string        `json:"from"`
	To             string        `json:"to"`
	OpeningBalance string        `json:"opening_balance"`
	Rows           []rowResponse `json:"rows"`
	TotalDebit     string        `json:"total_debit"`
	TotalCredit    string        `json:"total_credit"`
	ClosingBalance string        `json:"closing_balance"`
}

func toStatementResponse(st Statement) statementResponse {
	out := statementResponse{
		AccountID:      st.AccountID,
		AccountCode:    st.AccountCode,
		AccountName:    st.AccountName,
		AccountType:    string(st.AccountType),
		From:           st.From.Format("2006-01-02"),
		To:             st.To.Format("2006-01-02"),
		OpeningBalance: st.OpeningBalance.StringFixed(2),
		Rows:           make([]rowResponse, 0, len(st.Rows)),
		TotalDebit:     st.TotalDebit.StringFixed(2),
		TotalCredit:    st.TotalCredit.StringFixed(2),
		ClosingBalance: st.ClosingBalance.StringFixed(2),
	}
	for _, row := range st.Rows {
		out.Rows = append(out.Rows, rowResponse{
			EntryID:     row.EntryID,
			Date:        row.Date.Format("2006-01-02"),
			Reference:   row.Reference,
			Description: row.Description,
			Type:        row.Type,
			Debit:       row.Debit.StringFixed(2),
			Credit:      row.Credit.StringFixed(2),
			Balance:     row.Balance.StringFixed(2),
		})
	}
	return out
}

func (h *Handler) Statement(w http.ResponseWriter, r *http.Request) {
	scope := shared.ScopeFromContext(r.Context())
	accountID, _ := strconv.ParseInt(r.URL.Query().Get("account_id"), 10, 64)
	from, to, err := shared.ParseDateWindow(r.URL.Query().Get("from"), r.URL.Query().Get("to"), time.Now())
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	st, err := h.service.Statement(r.Context(), scope, accountID, from, to)
	if err != nil {
		h.logger.Error("ledger handler", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toStatementResponse(st))
}
