package match

import (
	"context"

	"github.com/google/uuid"

	"github.com/backhouse-hq/backhouse/internal/bankfeed"
	"github.com/backhouse-hq/backhouse/internal/outflow"
	"github.com/backhouse-hq/backhouse/internal/shared"
)

// OutflowReader is the slice of the ledger the suggestion engine needs.
type OutflowReader interface {
	Get(ctx context.Context, restaurantID, id uuid.UUID) (outflow.PendingOutflow, error)
	ListOpen(ctx context.Context, restaurantID uuid.UUID) ([]outflow.PendingOutflow, error)
}

// Service answers suggestion queries. It is read-only and has no side
// effects; exclusivity is enforced only at confirmation time.
type Service struct {
	outflows OutflowReader
	feed     bankfeed.Store
}

// NewService builds the suggestion service.
func NewService(outflows OutflowReader, feed bankfeed.Store) *Service {
	return &Service{outflows: outflows, feed: feed}
}

// SuggestForOutflow ranks unconsumed feed transactions against one open
// outflow. A terminal outflow yields no candidates.
func (s *Service) SuggestForOutflow(ctx context.Context, restaurantID, outflowID uuid.UUID) ([]Suggestion, error) {
	o, err := s.outflows.Get(ctx, restaurantID, outflowID)
	if err != nil {
		return nil, err
	}
	if !o.Status.IsOpen() {
		return nil, shared.ErrAlreadyTerminal
	}
	txns, err := s.feed.ListUnreconciled(ctx, restaurantID)
	if err != nil {
		return nil, err
	}
	return RankForOutflow(o, txns), nil
}

// SuggestForTransaction ranks open outflows against one feed transaction.
func (s *Service) SuggestForTransaction(ctx context.Context, restaurantID, transactionID uuid.UUID) ([]Suggestion, error) {
	t, err := s.feed.Get(ctx, restaurantID, transactionID)
	if err != nil {
		return nil, err
	}
	if t.Reconciled {
		return nil, shared.ErrAlreadyMatched
	}
	open, err := s.outflows.ListOpen(ctx, restaurantID)
	if err != nil {
		return nil, err
	}
	return RankForTransaction(t, open), nil
}
