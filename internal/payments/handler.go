package payments

import (
	"context"
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
	"github.com/sentra-pos/sentra-pos/internal/transactions"
)

// Handler exposes payment recording endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers HTTP routes for payments.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/sales/{id}", h.Customer)
	r.Post("/purchases/{id}", h.Supplier)
}

type paymentRequest struct {
	Amount string `json:"amount" validate:"required"`
	Date   string `json:"date"`
	Method string `json:"method" validate:"omitempty,oneof=cash bank"`
	Note   string `json:"note"`
}

type paymentResponse struct {
	DocumentID    int64  `json:"document_id"`
	Ref           string `json:"ref"`
	Amount        string `json:"amount"`
	Remaining     string `json:"remaining"`
	PaymentStatus string `json:"payment_status"`
	EntryID       int64  `json:"entry_id"`
}

func (h *Handler) Customer(w http.ResponseWriter, r *http.Request) {
	h.handle(w, r, h.service.RecordCustomerPayment)
}

func (h *Handler) Supplier(w http.ResponseWriter, r *http.Request) {
	h.handle(w, r, h.service.RecordSupplierPayment)
}

func (h *Handler) handle(w http.ResponseWriter, r *http.Request, record func(ctx context.Context, scope shared.Scope, input Input) (Receipt, error)) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid document id")
		return
	}
	var req paymentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.ValidationProblem(w, "invalid payment payload", fieldErrors(err))
		return
	}
	input, err := h.parseInput(id, req)
	if err != nil {
		httpx.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", err.Error())
		return
	}
	input.IdempotencyKey = r.Header.Get("Idempotency-Key")
	scope := shared.ScopeFromContext(r.Context())
	receipt, err := record(r.Context(), scope, input)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, paymentResponse{
		DocumentID:    receipt.DocumentID,
		Ref:           receipt.Ref,
		Amount:        receipt.Amount.StringFixed(2),
		Remaining:     receipt.Remaining.StringFixed(2),
		PaymentStatus: receipt.PaymentStatus,
		EntryID:       receipt.EntryID,
	})
}

func (h *Handler) parseInput(id int64, req paymentRequest) (Input, error) {
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return Input{}, errors.New("amount must be a decimal string")
	}
	input := Input{
		DocumentID: id,
		Amount:     amount,
		Method:     transactions.MethodCash,
		Note:       req.Note,
	}
	if req.Method != "" {
		input.Method = transactions.PaymentMethod(req.Method)
	}
	if req.Date != "" {
		date, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			return Input{}, errors.New("date must be YYYY-MM-DD")
		}
		input.Date = date
	}
	return input, nil
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, shared.ErrIdempotencyConflict):
		httpx.Problem(w, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, ErrInvalidAmount), errors.Is(err, ErrPaymentExceedsBalance),
		errors.Is(err, accounts.ErrSystemAccountNotConfigured), errors.Is(err, shared.ErrMissingTenant):
		httpx.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", err.Error())
	default:
		h.logger.Error("payments handler", slog.Any("error", err))
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
