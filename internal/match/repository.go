package match

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/backhouse-hq/backhouse/internal/bankfeed"
	"github.com/backhouse-hq/backhouse/internal/outflow"
	"github.com/backhouse-hq/backhouse/internal/shared"
)

// Repository gives the coordinator a transactional view spanning the
// outflow ledger and the bank feed, so a confirmation commits both writes
// or neither.
type Repository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context, tx TxRepository) error) error
}

// TxRepository exposes the operations available inside one confirmation.
type TxRepository interface {
	GetOutflow(ctx context.Context, restaurantID, id uuid.UUID) (outflow.PendingOutflow, error)
	GetTransaction(ctx context.Context, restaurantID, id uuid.UUID) (bankfeed.Transaction, error)
	// ClearOutflow links the transaction under an optimistic version check.
	ClearOutflow(ctx context.Context, id, transactionID uuid.UUID, at time.Time, version int64) (bool, error)
	// ReconcileTransaction consumes the feed row; false when already consumed.
	ReconcileTransaction(ctx context.Context, id, outflowID uuid.UUID) (bool, error)
}

// PgRepository implements Repository over pgx transactions.
type PgRepository struct {
	pool *pgxpool.Pool
}

// NewPgRepository constructs a repository.
func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

// WithTx runs fn inside a single database transaction.
func (r *PgRepository) WithTx(ctx context.Context, fn func(ctx context.Context, tx TxRepository) error) error {
	dbTx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = dbTx.Rollback(ctx) }()
	if err := fn(ctx, &txRepo{tx: dbTx}); err != nil {
		return err
	}
	return dbTx.Commit(ctx)
}

type txRepo struct {
	tx pgx.Tx
}

func (t *txRepo) GetOutflow(ctx context.Context, restaurantID, id uuid.UUID) (outflow.PendingOutflow, error) {
	row := t.tx.QueryRow(ctx, `
		SELECT id, restaurant_id, payee, method, amount, issue_date, due_date,
			reference, category_id, notes, status, linked_transaction_id,
			cleared_at, voided_at, voided_reason, version, created_at, updated_at
		FROM pending_outflows WHERE restaurant_id = $1 AND id = $2`,
		restaurantID, id)
	var o outflow.PendingOutflow
	err := row.Scan(
		&o.ID, &o.RestaurantID, &o.Payee, &o.Method, &o.Amount, &o.IssueDate, &o.DueDate,
		&o.Reference, &o.CategoryID, &o.Notes, &o.Status, &o.LinkedTransactionID,
		&o.ClearedAt, &o.VoidedAt, &o.VoidedReason, &o.Version, &o.CreatedAt, &o.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return outflow.PendingOutflow{}, shared.ErrNotFound
	}
	return o, err
}

func (t *txRepo) GetTransaction(ctx context.Context, restaurantID, id uuid.UUID) (bankfeed.Transaction, error) {
	row := t.tx.QueryRow(ctx, `
		SELECT id, restaurant_id, amount, posted_date, raw_description, reconciled, matched_outflow_id, created_at
		FROM bank_transactions WHERE restaurant_id = $1 AND id = $2`,
		restaurantID, id)
	var bt bankfeed.Transaction
	err := row.Scan(&bt.ID, &bt.RestaurantID, &bt.Amount, &bt.PostedDate, &bt.RawDescription,
		&bt.Reconciled, &bt.MatchedOutflowID, &bt.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return bankfeed.Transaction{}, shared.ErrNotFound
	}
	return bt, err
}

func (t *txRepo) ClearOutflow(ctx context.Context, id, transactionID uuid.UUID, at time.Time, version int64) (bool, error) {
	ct, err := t.tx.Exec(ctx, `
		UPDATE pending_outflows
		SET status = $4, linked_transaction_id = $2, cleared_at = $3,
			version = version + 1, updated_at = NOW()
		WHERE id = $1 AND version = $5 AND status = ANY($6)`,
		id, transactionID, at, outflow.StatusCleared, version, openLabels())
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() > 0, nil
}

func (t *txRepo) ReconcileTransaction(ctx context.Context, id, outflowID uuid.UUID) (bool, error) {
	ct, err := t.tx.Exec(ctx, `
		UPDATE bank_transactions
		SET reconciled = TRUE, matched_outflow_id = $2
		WHERE id = $1 AND NOT reconciled`,
		id, outflowID)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() > 0, nil
}

func openLabels() []string {
	labels := make([]string, 0, len(outflow.OpenStatuses))
	for _, s := range outflow.OpenStatuses {
		labels = append(labels, string(s))
	}
	return labels
}
