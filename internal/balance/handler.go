package balance

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/backhouse-hq/backhouse/internal/shared"
)

// Handler serves the book balance endpoint for dashboards.
type Handler struct {
	logger  *slog.Logger
	service *Service
	printer *message.Printer
}

// NewHandler builds the handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{
		logger:  logger,
		service: service,
		printer: message.NewPrinter(language.AmericanEnglish),
	}
}

// MountRoutes registers the balance route under a restaurant scope.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/balance", h.compute)
}

type balanceResponse struct {
	Summary
	BankBalanceDisplay string `json:"bank_balance_display"`
	BookBalanceDisplay string `json:"book_balance_display"`
}

func (h *Handler) compute(w http.ResponseWriter, r *http.Request) {
	restaurantID, err := uuid.Parse(chi.URLParam(r, "restaurantID"))
	if err != nil {
		shared.RespondError(w, shared.NewValidationError("restaurant_id", "expected UUID"))
		return
	}
	summary, err := h.service.Compute(r.Context(), restaurantID)
	if err != nil {
		h.logger.Error("compute book balance",
			slog.String("restaurant_id", restaurantID.String()),
			slog.Any("error", err))
		shared.RespondError(w, err)
		return
	}
	shared.RespondJSON(w, http.StatusOK, balanceResponse{
		Summary:            summary,
		BankBalanceDisplay: h.formatMinorUnits(summary.BankBalance),
		BookBalanceDisplay: h.formatMinorUnits(summary.BookBalance),
	})
}

func (h *Handler) formatMinorUnits(v int64) string {
	return h.printer.Sprintf("%.2f", float64(v)/100)
}
