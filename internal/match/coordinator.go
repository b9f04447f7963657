package match

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/backhouse-hq/backhouse/internal/outflow"
	"github.com/backhouse-hq/backhouse/internal/shared"
)

// confirmRetryLimit bounds internal retries on version conflicts, which are
// expected under contention and usually resolve on the next attempt.
const confirmRetryLimit = 3

// Coordinator executes the exactly-once confirmation that links a feed
// transaction to an outflow and finalises both records.
type Coordinator struct {
	repo Repository
	now  func() time.Time
}

// NewCoordinator builds the coordinator.
func NewCoordinator(repo Repository) *Coordinator {
	return &Coordinator{repo: repo, now: time.Now}
}

// WithClock overrides the time source, used by tests.
func (c *Coordinator) WithClock(now func() time.Time) *Coordinator {
	c.now = now
	return c
}

// Confirm atomically clears the outflow and consumes the transaction.
// Both writes commit together or neither takes effect; re-invoking after
// success fails on the re-verification steps rather than re-applying.
func (c *Coordinator) Confirm(ctx context.Context, restaurantID, outflowID, transactionID uuid.UUID) (outflow.PendingOutflow, error) {
	var confirmed outflow.PendingOutflow
	var lastErr error

	for attempt := 0; attempt < confirmRetryLimit; attempt++ {
		err := c.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
			o, err := tx.GetOutflow(ctx, restaurantID, outflowID)
			if err != nil {
				return err
			}
			if !o.Status.IsOpen() {
				return shared.ErrAlreadyTerminal
			}

			t, err := tx.GetTransaction(ctx, restaurantID, transactionID)
			if err != nil {
				return err
			}
			if t.Reconciled {
				return shared.ErrAlreadyMatched
			}

			at := c.now().UTC()
			ok, err := tx.ClearOutflow(ctx, o.ID, t.ID, at, o.Version)
			if err != nil {
				return err
			}
			if !ok {
				return shared.ErrConcurrencyConflict
			}
			ok, err = tx.ReconcileTransaction(ctx, t.ID, o.ID)
			if err != nil {
				return err
			}
			if !ok {
				return shared.ErrAlreadyMatched
			}

			o.Status = outflow.StatusCleared
			o.LinkedTransactionID = &t.ID
			o.ClearedAt = &at
			o.Version++
			o.UpdatedAt = at
			confirmed = o
			return nil
		})
		if err == nil {
			return confirmed, nil
		}
		if !errors.Is(err, shared.ErrConcurrencyConflict) {
			return outflow.PendingOutflow{}, err
		}
		lastErr = err
	}
	return outflow.PendingOutflow{}, lastErr
}
