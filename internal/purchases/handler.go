package purchases

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

// Handler exposes purchase bill endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers HTTP routes for bills.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
}

type purchaseRequest struct {
	RefNo        string `json:"ref_no" validate:"required"`
	SupplierName string `json:"supplier_name"`
	Date         string `json:"date" validate:"required"`
	Total        string `json:"total" validate:"required"`
	Paid         string `json:"paid"`
	Status       string `json:"status" validate:"omitempty,oneof=ordered received cancelled"`
	Method       string `json:"method" validate:"omitempty,oneof=cash bank"`
}

type purchaseResponse struct {
	ID            int64  `json:"id"`
	RefNo         string `json:"ref_no"`
	SupplierName  string `json:"supplier_name,omitempty"`
	Date          string `json:"date"`
	Total         string `json:"total"`
	Paid          string `json:"paid"`
	Outstanding   string `json:"outstanding"`
	Status        string `json:"status"`
	PaymentStatus string `json:"payment_status"`
	Method        string `json:"method,omitempty"`
	CreatedAt     string `json:"created_at"`
}

func toPurchaseResponse(purchase Purchase) purchaseResponse {
	return purchaseResponse{
		ID:            purchase.ID,
		RefNo:         purchase.RefNo,
		SupplierName:  purchase.SupplierName,
		Date:          purchase.Date.Format("2006-01-02"),
		Total:         purchase.Total.StringFixed(2),
		Paid:          purchase.Paid.StringFixed(2),
		Outstanding:   purchase.Outstanding().StringFixed(2),
		Status:        string(purchase.Status),
		PaymentStatus: string(purchase.PaymentStatus),
		Method:        purchase.Method,
		CreatedAt:     purchase.CreatedAt.Format(time.RFC3339),
	}
}

func (h *Handler) parseInput(req purchaseRequest) (Input, error) {
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return Input{}, errors.New("date must be YYYY-MM-DD")
	}
	total, err := decimal.NewFromString(req.Total)
	if err != nil {
		return Input{}, errors.New("total must be a decimal string")
	}
	paid := decimal.Zero
	if req.Paid != "" {
		if paid, err = decimal.NewFromString(req.Paid); err != nil {
			return Input{}, errors.New("paid must be a decimal string")
		}
	}
	return Input{
		RefNo:        req.RefNo,
		SupplierName: req.SupplierName,
		Date:         date,
		Total:        total,
		Paid:         paid,
		Status:       PurchaseStatus(req.Status),
		Method:       req.Method,
	}, nil
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req purchaseRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.ValidationProblem(w, "invalid purchase payload", fieldErrors(err))
		return
	}
	input, err := h.parseInput(req)
	if err != nil {
		httpx.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", err.Error())
		return
	}
	scope := shared.ScopeFromContext(r.Context())
	purchase, err := h.service.Create(r.Context(), scope, input)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toPurchaseResponse(purchase))
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid purchase id")
		return
	}
	var req purchaseRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.ValidationProblem(w, "invalid purchase payload", fieldErrors(err))
		return
	}
	input, err := h.parseInput(req)
	if err != nil {
		httpx.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", err.Error())
		return
	}
	scope := shared.ScopeFromContext(r.Context())
	purchase, err := h.service.Update(r.Context(), scope, id, input)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toPurchaseResponse(purchase))
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid purchase id")
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
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid purchase id")
		return
	}
	scope := shared.ScopeFromContext(r.Context())
	purchase, err := h.service.Get(r.Context(), scope, id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toPurchaseResponse(purchase))
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	scope := shared.ScopeFromContext(r.Context())
	filter := ListFilter{
		Status:        PurchaseStatus(r.URL.Query().Get("status")),
		PaymentStatus: PaymentStatus(r.URL.Query().Get("payment_status")),
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
	out := make([]purchaseResponse, 0, len(list))
	for _, purchase := range list {
		out = append(out, toPurchaseResponse(purchase))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"purchases": out})
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrDuplicateRef):
		httpx.Problem(w, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, ErrInvalidAmount), errors.Is(err, ErrOverpaid),
		errors.Is(err, accounts.ErrSystemAccountNotConfigured), errors.Is(err, shared.ErrMissingTenant):
		httpx.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", err.Error())
	default:
		h.logger.Error("purchases handler", slog.Any("error", err))
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
