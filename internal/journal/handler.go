package journal

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/sentra-pos/sentra-pos/internal/platform/httpx"
	"github.com/sentra-pos/sentra-pos/internal/shared"
)

// Handler exposes journal entry endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers HTTP routes for the journal.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
	r.Post("/{id}/post", h.Post)
}

type lineRequest struct {
	AccountID int64  `json:"account_id" validate:"required"`
	Debit     string `json:"debit"`
	Credit    string `json:"credit"`
}

type entryRequest struct {
	Date        string        `json:"date" validate:"required"`
	Reference   string        `json:"reference"`
	Description string        `json:"description"`
	Type        string        `json:"type" validate:"required"`
	Status      string        `json:"status"`
	Lines       []lineRequest `json:"lines" validate:"required,min=2,dive"`
}

type lineResponse struct {
	ID        int64  `json:"id"`
	AccountID int64  `json:"account_id"`
	Debit     string `json:"debit"`
	Credit    string `json:"credit"`
}

type entryResponse struct {
	ID          int64          `json:"id"`
	Date        string         `json:"date"`
	Reference   string         `json:"reference,omitempty"`
	Description string         `json:"description,omitempty"`
	Type        string         `json:"type"`
	Status      string         `json:"status"`
	TotalDebit  string         `json:"total_debit"`
	TotalCredit string         `json:"total_credit"`
	CreatedAt   string         `json:"created_at"`
	Lines       []lineResponse `json:"lines,omitempty"`
}

func toEntryResponse(e Entry) entryResponse {
	debit, credit := e.Totals()
	out := entryResponse{
		ID:          e.ID,
		Date:        e.Date.Format("2006-01-02"),
		Reference:   e.Reference,
		Description: e.Description,
		Type:        string(e.Type),
		Status:      string(e.Status),
		TotalDebit:  debit.StringFixed(2),
		TotalCredit: credit.StringFixed(2),
		CreatedAt:   e.CreatedAt.Format(time.RFC3339),
	}
	for _, line := range e.Lines {
		out.Lines = append(out.Lines, lineResponse{
			ID:        line.ID,
			AccountID: line.AccountID,
			Debit:     line.Debit.StringFixed(2),
			Credit:    line.Credit.StringFixed(2),
		})
	}
	return out
}

func (h *Handler) parseEntry(req entryRequest) (EntryInput, error) {
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return EntryInput{}, errors.New("date must be YYYY-MM-DD")
	}
	input := EntryInput{
		Date:        date,
		Reference:   req.Reference,
		Description: req.Description,
		Type:        EntryType(req.Type),
		Status:      EntryStatus(req.Status),
	}
	for _, line := range req.Lines {
		debit, err := parseAmount(line.Debit)
		if err != nil {
			return EntryInput{}, err
		}
		credit, err := parseAmount(line.Credit)
		if err != nil {
			return EntryInput{}, err
		}
		input.Lines = append(input.Lines, LineInput{AccountID: line.AccountID, Debit: debit, Credit: credit})
	}
	return input, nil
}

func parseAmount(raw string) (decimal.Decimal, error) {
	if raw == "" {
		return decimal.Zero, nil
	}
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, errors.New("amounts must be decimal strings")
	}
	return amount, nil
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req entryRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.ValidationProblem(w, "invalid journal payload", fieldErrors(err))
		return
	}
	input, err := h.parseEntry(req)
	if err != nil {
		httpx.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", err.Error())
		return
	}
	scope := shared.ScopeFromContext(r.Context())
	entry, err := h.service.CreateEntry(r.Context(), scope, input)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toEntryResponse(entry))
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid entry id")
		return
	}
	var req entryRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.ValidationProblem(w, "invalid journal payload", fieldErrors(err))
		return
	}
	input, err := h.parseEntry(req)
	if err != nil {
		httpx.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", err.Error())
		return
	}
	scope := shared.ScopeFromContext(r.Context())
	entry, err := h.service.UpdateEntry(r.Context(), scope, id, input)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toEntryResponse(entry))
}

func (h *Handler) Post(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid entry id")
		return
	}
	scope := shared.ScopeFromContext(r.Context())
	entry, err := h.service.PostEntry(r.Context(), scope, id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toEntryResponse(entry))
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid entry id")
		return
	}
	scope := shared.ScopeFromContext(r.Context())
	if err := h.service.DeleteEntry(r.Context(), scope, id); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid entry id")
		return
	}
	scope := shared.ScopeFromContext(r.Context())
	entry, err := h.service.Get(r.Context(), scope, id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toEntryResponse(entry))
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	scope := shared.ScopeFromContext(r.Context())
	filter := ListFilter{
		Status: EntryStatus(r.URL.Query().Get("status")),
		Type:   EntryType(r.URL.Query().Get("type")),
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
	if raw := r.URL.Query().Get("offset"); raw != "" {
		if offset, err := strconv.Atoi(raw); err == nil {
			filter.Offset = offset
		}
	}
	entries, err := h.service.List(r.Context(), scope, filter)
	if err != nil {
		h.respondError(w, err)
		return
	}
	out := make([]entryResponse, 0, len(entries))
	for _, entry := range entries {
		out = append(out, toEntryResponse(entry))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"entries": out})
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrAlreadyPosted), errors.Is(err, ErrPostedImmutable), errors.Is(err, ErrSourceConflict):
		httpx.Problem(w, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, ErrUnbalanced), errors.Is(err, ErrTooFewLines), errors.Is(err, ErrZeroEntry),
		errors.Is(err, ErrUnknownAccount), errors.Is(err, ErrInactiveAccount), errors.Is(err, shared.ErrMissingTenant):
		httpx.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", err.Error())
	default:
		h.logger.Error("journal handler", slog.Any("error", err))
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
