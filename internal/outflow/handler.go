package outflow

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/backhouse-hq/backhouse/internal/shared"
)

const dateLayout = "2006-01-02"

// Handler manages outflow ledger endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
	onChange func(r *http.Request, restaurantID uuid.UUID)
}

// NewHandler builds the handler. onChange runs after every successful
// mutation (cache invalidation hook); it may be nil.
func NewHandler(logger *slog.Logger, service *Service, onChange func(r *http.Request, restaurantID uuid.UUID)) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		validate: validator.New(),
		onChange: onChange,
	}
}

// MountRoutes registers ledger routes under a restaurant scope.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/outflows", func(r chi.Router) {
		r.Post("/", h.create)
		r.Get("/", h.listOpen)
		r.Get("/{outflowID}", h.get)
		r.Post("/{outflowID}/void", h.void)
		r.Delete("/{outflowID}", h.delete)
		r.Patch("/{outflowID}/notes", h.updateNotes)
	})
}

type createRequest struct {
	Payee      string  `json:"payee" validate:"required"`
	Method     string  `json:"method" validate:"required,oneof=check ach other"`
	Amount     int64   `json:"amount" validate:"required,gt=0"`
	IssueDate  string  `json:"issue_date" validate:"required"`
	DueDate    *string `json:"due_date,omitempty"`
	Reference  *string `json:"reference,omitempty"`
	CategoryID *string `json:"category_id,omitempty"`
	Notes      string  `json:"notes,omitempty"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	restaurantID, ok := restaurantScope(w, r)
	if !ok {
		return
	}
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.RespondError(w, shared.NewValidationError("body", "malformed JSON"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		shared.RespondError(w, shared.NewValidationError("body", err.Error()))
		return
	}
	issueDate, err := time.Parse(dateLayout, req.IssueDate)
	if err != nil {
		shared.RespondError(w, shared.NewValidationError("issue_date", "expected YYYY-MM-DD"))
		return
	}
	in := CreateInput{
		RestaurantID: restaurantID,
		Payee:        req.Payee,
		Method:       PaymentMethod(req.Method),
		Amount:       req.Amount,
		IssueDate:    issueDate,
		Reference:    req.Reference,
		Notes:        req.Notes,
	}
	if req.DueDate != nil {
		due, err := time.Parse(dateLayout, *req.DueDate)
		if err != nil {
			shared.RespondError(w, shared.NewValidationError("due_date", "expected YYYY-MM-DD"))
			return
		}
		in.DueDate = &due
	}
	if req.CategoryID != nil {
		category, err := uuid.Parse(*req.CategoryID)
		if err != nil {
			shared.RespondError(w, shared.NewValidationError("category_id", "expected UUID"))
			return
		}
		in.CategoryID = &category
	}

	o, err := h.service.Create(r.Context(), in)
	if err != nil {
		h.logError(r, "create outflow", err)
		shared.RespondError(w, err)
		return
	}
	h.notifyChange(r, restaurantID)
	shared.RespondJSON(w, http.StatusCreated, o)
}

func (h *Handler) listOpen(w http.ResponseWriter, r *http.Request) {
	restaurantID, ok := restaurantScope(w, r)
	if !ok {
		return
	}
	out, err := h.service.ListOpen(r.Context(), restaurantID)
	if err != nil {
		h.logError(r, "list open outflows", err)
		shared.RespondError(w, err)
		return
	}
	shared.RespondJSON(w, http.StatusOK, map[string]any{"outflows": out})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	restaurantID, id, ok := outflowScope(w, r)
	if !ok {
		return
	}
	o, err := h.service.Get(r.Context(), restaurantID, id)
	if err != nil {
		shared.RespondError(w, err)
		return
	}
	shared.RespondJSON(w, http.StatusOK, o)
}

type voidRequest struct {
	Reason string `json:"reason" validate:"required"`
}

func (h *Handler) void(w http.ResponseWriter, r *http.Request) {
	restaurantID, id, ok := outflowScope(w, r)
	if !ok {
		return
	}
	var req voidRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.RespondError(w, shared.NewValidationError("body", "malformed JSON"))
		return
	}
	o, err := h.service.Void(r.Context(), restaurantID, id, req.Reason)
	if err != nil {
		h.logError(r, "void outflow", err)
		shared.RespondError(w, err)
		return
	}
	h.notifyChange(r, restaurantID)
	shared.RespondJSON(w, http.StatusOK, o)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	restaurantID, id, ok := outflowScope(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), restaurantID, id); err != nil {
		h.logError(r, "delete outflow", err)
		shared.RespondError(w, err)
		return
	}
	h.notifyChange(r, restaurantID)
	shared.RespondJSON(w, http.StatusNoContent, nil)
}

type notesRequest struct {
	Notes string `json:"notes"`
}

func (h *Handler) updateNotes(w http.ResponseWriter, r *http.Request) {
	restaurantID, id, ok := outflowScope(w, r)
	if !ok {
		return
	}
	var req notesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.RespondError(w, shared.NewValidationError("body", "malformed JSON"))
		return
	}
	o, err := h.service.UpdateNotes(r.Context(), restaurantID, id, req.Notes)
	if err != nil {
		shared.RespondError(w, err)
		return
	}
	shared.RespondJSON(w, http.StatusOK, o)
}

func (h *Handler) notifyChange(r *http.Request, restaurantID uuid.UUID) {
	if h.onChange != nil {
		h.onChange(r, restaurantID)
	}
}

func (h *Handler) logError(r *http.Request, op string, err error) {
	if shared.IsValidation(err) {
		return
	}
	h.logger.Error(op, slog.String("path", r.URL.Path), slog.Any("error", err))
}

func restaurantScope(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "restaurantID"))
	if err != nil {
		shared.RespondError(w, shared.NewValidationError("restaurant_id", "expected UUID"))
		return uuid.Nil, false
	}
	return id, true
}

func outflowScope(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	restaurantID, ok := restaurantScope(w, r)
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	id, err := uuid.Parse(chi.URLParam(r, "outflowID"))
	if err != nil {
		shared.RespondError(w, shared.NewValidationError("outflow_id", "expected UUID"))
		return uuid.Nil, uuid.Nil, false
	}
	return restaurantID, id, true
}
