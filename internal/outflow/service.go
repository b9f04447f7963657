package outflow

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/backhouse-hq/backhouse/internal/shared"
)

// voidRetryLimit bounds internal retries on optimistic version conflicts.
const voidRetryLimit = 3

// Service implements the outflow ledger operations.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService builds the ledger service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// WithClock overrides the time source, used by tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Create validates and persists a new pending outflow.
func (s *Service) Create(ctx context.Context, in CreateInput) (PendingOutflow, error) {
	if err := in.Validate(); err != nil {
		return PendingOutflow{}, err
	}
	now := s.now().UTC()
	o := PendingOutflow{
		ID:           uuid.New(),
		RestaurantID: in.RestaurantID,
		Payee:        strings.TrimSpace(in.Payee),
		Method:       in.Method,
		Amount:       in.Amount,
		IssueDate:    in.IssueDate,
		DueDate:      in.DueDate,
		Reference:    in.Reference,
		CategoryID:   in.CategoryID,
		Notes:        in.Notes,
		Status:       StatusPending,
		Version:      1,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Insert(ctx, o); err != nil {
		return PendingOutflow{}, err
	}
	return o, nil
}

// Get loads a single outflow in scope.
func (s *Service) Get(ctx context.Context, restaurantID, id uuid.UUID) (PendingOutflow, error) {
	return s.repo.Get(ctx, restaurantID, id)
}

// ListOpen returns open outflows oldest-first.
func (s *Service) ListOpen(ctx context.Context, restaurantID uuid.UUID) ([]PendingOutflow, error) {
	return s.repo.ListOpen(ctx, restaurantID)
}

// Void marks an open outflow as never going to clear. Voiding a terminal
// record fails so a confirmed match can never be silently undone.
func (s *Service) Void(ctx context.Context, restaurantID, id uuid.UUID, reason string) (PendingOutflow, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return PendingOutflow{}, shared.NewValidationError("reason", "void reason is required")
	}
	for attempt := 0; attempt < voidRetryLimit; attempt++ {
		o, err := s.repo.Get(ctx, restaurantID, id)
		if err != nil {
			return PendingOutflow{}, err
		}
		if o.Status.IsTerminal() {
			return PendingOutflow{}, shared.ErrAlreadyTerminal
		}
		at := s.now().UTC()
		ok, err := s.repo.VoidIfVersion(ctx, id, reason, at, o.Version)
		if err != nil {
			return PendingOutflow{}, err
		}
		if ok {
			o.Status = StatusVoided
			o.VoidedAt = &at
			o.VoidedReason = &reason
			o.Version++
			o.UpdatedAt = at
			return o, nil
		}
		// Version moved under us: reload and decide whether the race was a
		// terminal transition or just another edit.
	}
	return PendingOutflow{}, shared.ErrConcurrencyConflict
}

// Delete removes an outflow while it is still open. Terminal records are
// kept for the audit trail.
func (s *Service) Delete(ctx context.Context, restaurantID, id uuid.UUID) error {
	ok, err := s.repo.DeleteIfOpen(ctx, restaurantID, id)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	if _, err := s.repo.Get(ctx, restaurantID, id); err != nil {
		return err
	}
	return shared.ErrAlreadyTerminal
}

// UpdateNotes edits the notes field regardless of status.
func (s *Service) UpdateNotes(ctx context.Context, restaurantID, id uuid.UUID, notes string) (PendingOutflow, error) {
	ok, err := s.repo.UpdateNotes(ctx, restaurantID, id, notes)
	if err != nil {
		return PendingOutflow{}, err
	}
	if !ok {
		return PendingOutflow{}, shared.ErrNotFound
	}
	return s.repo.Get(ctx, restaurantID, id)
}
