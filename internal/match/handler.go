package match

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/backhouse-hq/backhouse/internal/bankfeed"
	"github.com/backhouse-hq/backhouse/internal/observability"
	"github.com/backhouse-hq/backhouse/internal/shared"
)

// Handler manages suggestion and confirmation endpoints.
type Handler struct {
	logger      *slog.Logger
	suggestions *Service
	coordinator *Coordinator
	feed        bankfeed.Store
	metrics     *observability.Metrics
	onChange    func(r *http.Request, restaurantID uuid.UUID)
}

// NewHandler builds the handler. metrics and onChange may be nil; onChange
// runs after a successful confirmation.
func NewHandler(logger *slog.Logger, suggestions *Service, coordinator *Coordinator, feed bankfeed.Store, metrics *observability.Metrics, onChange func(r *http.Request, restaurantID uuid.UUID)) *Handler {
	return &Handler{logger: logger, suggestions: suggestions, coordinator: coordinator, feed: feed, metrics: metrics, onChange: onChange}
}

// MountRoutes registers matching routes under a restaurant scope.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/outflows/{outflowID}/suggestions", h.suggestForOutflow)
	r.Get("/transactions", h.listUnreconciled)
	r.Get("/transactions/{transactionID}/suggestions", h.suggestForTransaction)
	r.Post("/matches", h.confirm)
}

func (h *Handler) suggestForOutflow(w http.ResponseWriter, r *http.Request) {
	restaurantID, ok := scopeParam(w, r, "restaurantID")
	if !ok {
		return
	}
	outflowID, ok := scopeParam(w, r, "outflowID")
	if !ok {
		return
	}
	out, err := h.suggestions.SuggestForOutflow(r.Context(), restaurantID, outflowID)
	if err != nil {
		shared.RespondError(w, err)
		return
	}
	shared.RespondJSON(w, http.StatusOK, map[string]any{"suggestions": out})
}

func (h *Handler) suggestForTransaction(w http.ResponseWriter, r *http.Request) {
	restaurantID, ok := scopeParam(w, r, "restaurantID")
	if !ok {
		return
	}
	transactionID, ok := scopeParam(w, r, "transactionID")
	if !ok {
		return
	}
	out, err := h.suggestions.SuggestForTransaction(r.Context(), restaurantID, transactionID)
	if err != nil {
		shared.RespondError(w, err)
		return
	}
	shared.RespondJSON(w, http.StatusOK, map[string]any{"suggestions": out})
}

func (h *Handler) listUnreconciled(w http.ResponseWriter, r *http.Request) {
	restaurantID, ok := scopeParam(w, r, "restaurantID")
	if !ok {
		return
	}
	txns, err := h.feed.ListUnreconciled(r.Context(), restaurantID)
	if err != nil {
		h.logger.Error("list unreconciled transactions", slog.Any("error", err))
		shared.RespondError(w, err)
		return
	}
	page, perPage := shared.PageParams(r, 50, 200)
	start, end := shared.PageSlice(page, perPage, len(txns))
	shared.RespondJSON(w, http.StatusOK, map[string]any{
		"transactions": txns[start:end],
		"pagination":   shared.NewPagination(page, perPage, len(txns)),
	})
}

type confirmRequest struct {
	OutflowID     string `json:"outflow_id"`
	TransactionID string `json:"transaction_id"`
}

func (h *Handler) confirm(w http.ResponseWriter, r *http.Request) {
	restaurantID, ok := scopeParam(w, r, "restaurantID")
	if !ok {
		return
	}
	var req confirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.RespondError(w, shared.NewValidationError("body", "malformed JSON"))
		return
	}
	outflowID, err := uuid.Parse(req.OutflowID)
	if err != nil {
		shared.RespondError(w, shared.NewValidationError("outflow_id", "expected UUID"))
		return
	}
	transactionID, err := uuid.Parse(req.TransactionID)
	if err != nil {
		shared.RespondError(w, shared.NewValidationError("transaction_id", "expected UUID"))
		return
	}
	o, err := h.coordinator.Confirm(r.Context(), restaurantID, outflowID, transactionID)
	if err != nil {
		if errors.Is(err, shared.ErrConcurrencyConflict) {
			h.metrics.IncConfirmConflict()
		}
		if !shared.IsValidation(err) {
			h.logger.Warn("confirm match rejected",
				slog.String("outflow_id", outflowID.String()),
				slog.String("transaction_id", transactionID.String()),
				slog.Any("error", err))
		}
		shared.RespondError(w, err)
		return
	}
	if h.onChange != nil {
		h.onChange(r, restaurantID)
	}
	shared.RespondJSON(w, http.StatusOK, o)
}

func scopeParam(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		shared.RespondError(w, shared.NewValidationError(name, "expected UUID"))
		return uuid.Nil, false
	}
	return id, true
}
