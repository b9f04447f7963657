// Package bankfeed exposes the ingested bank-transaction feed to the
// reconciliation engine. The sync that populates the feed is an external
// collaborator; the only mutation performed here is marking a transaction
// reconciled inside a confirmed match.
package bankfeed

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Transaction is one row of the bank feed. Amounts are minor currency units.
type Transaction struct {
	ID               uuid.UUID  `json:"id"`
	RestaurantID     uuid.UUID  `json:"restaurant_id"`
	Amount           int64      `json:"amount"`
	PostedDate       time.Time  `json:"posted_date"`
	RawDescription   string     `json:"raw_description"`
	Reconciled       bool       `json:"reconciled"`
	MatchedOutflowID *uuid.UUID `json:"matched_outflow_id,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}

// Store reads the feed for a restaurant's connected accounts.
type Store interface {
	Get(ctx context.Context, restaurantID, id uuid.UUID) (Transaction, error)
	// ListUnreconciled returns transactions not yet consumed by a match.
	ListUnreconciled(ctx context.Context, restaurantID uuid.UUID) ([]Transaction, error)
}

// BalanceProvider supplies the aggregate bank balance for a restaurant,
// implemented by the external account-aggregation service.
type BalanceProvider interface {
	BankBalance(ctx context.Context, restaurantID uuid.UUID) (int64, error)
}
