package match

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/backhouse-hq/backhouse/internal/bankfeed"
	"github.com/backhouse-hq/backhouse/internal/outflow"
	"github.com/backhouse-hq/backhouse/internal/shared"
)

type fakeOutflowReader struct {
	outflows map[uuid.UUID]outflow.PendingOutflow
}

func (f *fakeOutflowReader) Get(ctx context.Context, restaurantID, id uuid.UUID) (outflow.PendingOutflow, error) {
	o, ok := f.outflows[id]
	if !ok || o.RestaurantID != restaurantID {
		return outflow.PendingOutflow{}, shared.ErrNotFound
	}
	return o, nil
}

func (f *fakeOutflowReader) ListOpen(ctx context.Context, restaurantID uuid.UUID) ([]outflow.PendingOutflow, error) {
	var out []outflow.PendingOutflow
	for _, o := range f.outflows {
		if o.RestaurantID == restaurantID && o.Status.IsOpen() {
			out = append(out, o)
		}
	}
	return out, nil
}

type fakeFeed struct {
	transactions map[uuid.UUID]bankfeed.Transaction
}

func (f *fakeFeed) Get(ctx context.Context, restaurantID, id uuid.UUID) (bankfeed.Transaction, error) {
	t, ok := f.transactions[id]
	if !ok || t.RestaurantID != restaurantID {
		return bankfeed.Transaction{}, shared.ErrNotFound
	}
	return t, nil
}

func (f *fakeFeed) ListUnreconciled(ctx context.Context, restaurantID uuid.UUID) ([]bankfeed.Transaction, error) {
	var out []bankfeed.Transaction
	for _, t := range f.transactions {
		if t.RestaurantID == restaurantID && !t.Reconciled {
			out = append(out, t)
		}
	}
	return out, nil
}

func TestSuggestForOutflow(t *testing.T) {
	restaurantID := uuid.New()
	o := testOutflow(50_000, "Sysco Foods", baseDate)
	o.RestaurantID = restaurantID

	strong := testTransaction(50_000, "SYSCO FOODS", baseDate)
	strong.RestaurantID = restaurantID
	weak := testTransaction(99_000, "UNRELATED VENDOR", baseDate.AddDate(0, 0, 20))
	weak.RestaurantID = restaurantID

	svc := NewService(
		&fakeOutflowReader{outflows: map[uuid.UUID]outflow.PendingOutflow{o.ID: o}},
		&fakeFeed{transactions: map[uuid.UUID]bankfeed.Transaction{strong.ID: strong, weak.ID: weak}},
	)

	suggestions, err := svc.SuggestForOutflow(context.Background(), restaurantID, o.ID)
	require.NoError(t, err)
	require.Len(t, suggestions, 1)
	require.Equal(t, strong.ID, suggestions[0].TransactionID)
	require.Equal(t, TierHigh, suggestions[0].Tier)
}

func TestSuggestForOutflowTerminalRejected(t *testing.T) {
	restaurantID := uuid.New()
	o := testOutflow(50_000, "Sysco Foods", baseDate)
	o.RestaurantID = restaurantID
	o.Status = outflow.StatusCleared

	svc := NewService(
		&fakeOutflowReader{outflows: map[uuid.UUID]outflow.PendingOutflow{o.ID: o}},
		&fakeFeed{},
	)

	_, err := svc.SuggestForOutflow(context.Background(), restaurantID, o.ID)
	require.ErrorIs(t, err, shared.ErrAlreadyTerminal)
}

func TestSuggestionsAreNonExclusivePreviews(t *testing.T) {
	// The same unconsumed transaction may rank for several outflows at
	// once; exclusivity is the coordinator's job.
	restaurantID := uuid.New()
	a := testOutflow(50_000, "Sysco Foods", baseDate)
	a.RestaurantID = restaurantID
	b := testOutflow(50_000, "Sysco Foods", baseDate)
	b.RestaurantID = restaurantID

	tx := testTransaction(50_000, "SYSCO FOODS", baseDate)
	tx.RestaurantID = restaurantID

	svc := NewService(
		&fakeOutflowReader{outflows: map[uuid.UUID]outflow.PendingOutflow{a.ID: a, b.ID: b}},
		&fakeFeed{transactions: map[uuid.UUID]bankfeed.Transaction{tx.ID: tx}},
	)

	forA, err := svc.SuggestForOutflow(context.Background(), restaurantID, a.ID)
	require.NoError(t, err)
	forB, err := svc.SuggestForOutflow(context.Background(), restaurantID, b.ID)
	require.NoError(t, err)
	require.Len(t, forA, 1)
	require.Len(t, forB, 1)

	forTx, err := svc.SuggestForTransaction(context.Background(), restaurantID, tx.ID)
	require.NoError(t, err)
	require.Len(t, forTx, 2)
}

func TestSuggestForReconciledTransactionRejected(t *testing.T) {
	restaurantID := uuid.New()
	tx := testTransaction(50_000, "SYSCO FOODS", baseDate)
	tx.RestaurantID = restaurantID
	tx.Reconciled = true

	svc := NewService(
		&fakeOutflowReader{outflows: map[uuid.UUID]outflow.PendingOutflow{}},
		&fakeFeed{transactions: map[uuid.UUID]bankfeed.Transaction{tx.ID: tx}},
	)

	_, err := svc.SuggestForTransaction(context.Background(), restaurantID, tx.ID)
	require.ErrorIs(t, err, shared.ErrAlreadyMatched)
}
