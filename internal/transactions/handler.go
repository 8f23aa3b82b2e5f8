package transactions

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/sentra-pos/sentra-pos/internal/accounts"
	"github.com/sentra-pos/sentra-pos/internal/platform/httpx"
	"github.com/sentra-pos/sentra-pos/internal/shared"
)

// Handler exposes cash book endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers HTTP routes for the cash book.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
}

type txnRequest struct {
	Date        string `json:"date" validate:"required"`
	Type        string `json:"type" validate:"required,oneof=income expense"`
	Method      string `json:"method" validate:"required,oneof=cash bank"`
	Amount      string `json:"amount" validate:"required"`
	Description string `json:"description"`
	CategoryID  int64  `json:"category_id" validate:"required"`
}

type txnResponse struct {
	ID          int64  `json:"id"`
	Date        string `json:"date"`
	Type        string `json:"type"`
	Status      string `json:"status"`
	Method      string `json:"method"`
	Amount      string `json:"amount"`
	Description string `json:"description,omitempty"`
	CategoryID  int64  `json:"category_id,omitempty"`
	SourceType  string `json:"source_type,omitempty"`
	SourceID    int64  `json:"source_id,omitempty"`
	CreatedAt   string `json:"created_at"`
}

func toTxnResponse(txn Transaction) txnResponse {
	return txnResponse{
		ID:          txn.ID,
		Date:        txn.Date.Format("2006-01-02"),
		Type:        string(txn.Type),
		Status:      string(txn.Status),
		Method:      string(txn.Method),
		Amount:      txn.Amount.StringFixed(2),
		Description: txn.Description,
		CategoryID:  txn.CategoryID,
		SourceType:  txn.SourceType,
		SourceID:    txn.SourceID,
		CreatedAt:   txn.CreatedAt.Format(time.RFC3339),
	}
}

func (h *Handler) parseInput(req txnRequest) (CreateInput, error) {
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return CreateInput{}, errors.New("date must be YYYY-MM-DD")
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return CreateInput{}, errors.New("amount must be a decimal string")
	}
	return CreateInput{
		Date:        date,
		Type:        TxnType(req.Type),
		Method:      PaymentMethod(req.Method),
		Amount:      amount,
		Description: req.Description,
		CategoryID:  req.CategoryID,
	}, nil
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req txnRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.ValidationProblem(w, "invalid transaction payload", fieldErrors(err))
		return
	}
	input, err := h.parseInput(req)
	if err != nil {
		httpx.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", err.Error())
		return
	}
	scope := shared.ScopeFromContext(r.Context())
	txn, err := h.service.Create(r.Context(), scope, input)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toTxnResponse(txn))
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid transaction id")
		return
	}
	var req txnRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.ValidationProblem(w, "invalid transaction payload", fieldErrors(err))
		return
	}
	input, err := h.parseInput(req)
	if err != nil {
		httpx.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", err.Error())
		return
	}
	scope := shared.ScopeFromContext(r.Context())
	txn, err := h.service.Update(r.Context(), scope, id, input)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toTxnResponse(txn))
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid transaction id")
		return
	}
	scope := shared.ScopeFromContext(r.Context())
	if err := h.service.Delete(r.Context(), scope, id); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid transaction id")
		return
	}
	scope := shared.ScopeFromContext(r.Context())
	txn, err := h.service.Get(r.Context(), scope, id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toTxnResponse(txn))
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	scope := shared.ScopeFromContext(r.Context())
	filter := ListFilter{
		Type:   TxnType(r.URL.Query().Get("type")),
		Method: PaymentMethod(r.URL.Query().Get("method")),
	}
	if raw := r.URL.Query().Get("from"); raw != "" {
		if from, err := time.Parse("2006-01-02", raw); err == nil {
			filter.From = &from
		}
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		if to, err := time.Parse("2006-01-02", raw); err == nil {
			filter.To = &to
		}
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if limit, err := strconv.Atoi(raw); err == nil {
			filter.Limit = limit
		}
	}
	list, err := h.service.List(r.Context(), scope, filter)
	if err != nil {
		h.respondError(w, err)
		return
	}
	out := make([]txnResponse, 0, len(list))
	for _, txn := range list {
		out = append(out, toTxnResponse(txn))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"transactions": out})
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrDuplicateSource), errors.Is(err, ErrSourceImmutable):
		httpx.Problem(w, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, ErrInvalidAmount), errors.Is(err, accounts.ErrSystemAccountNotConfigured), errors.Is(err, shared.ErrMissingTenant):
		httpx.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", err.Error())
	default:
		h.logger.Error("transactions handler", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}

func fieldErrors(err error) map[string]string {
	out := make(map[string]string)
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			out[fe.Field()] = fe.Tag()
		}
	}
	return out
}
