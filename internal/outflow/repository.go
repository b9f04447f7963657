package outflow

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/backhouse-hq/backhouse/internal/shared"
)

// Repository abstracts outflow persistence so services can be tested
// against an in-memory implementation.
type Repository interface {
	Insert(ctx context.Context, o PendingOutflow) error
	Get(ctx context.Context, restaurantID, id uuid.UUID) (PendingOutflow, error)
	ListOpen(ctx context.Context, restaurantID uuid.UUID) ([]PendingOutflow, error)
	ListOpenIssuedBefore(ctx context.Context, cutoff time.Time) ([]PendingOutflow, error)
	Promote(ctx context.Context, id uuid.UUID, from, to Status) (bool, error)
	VoidIfVersion(ctx context.Context, id uuid.UUID, reason string, at time.Time, version int64) (bool, error)
	DeleteIfOpen(ctx context.Context, restaurantID, id uuid.UUID) (bool, error)
	UpdateNotes(ctx context.Context, restaurantID, id uuid.UUID, notes string) (bool, error)
	SumOpenAmount(ctx context.Context, restaurantID uuid.UUID) (int64, error)
}

// PgRepository provides PostgreSQL backed persistence for outflows.
type PgRepository struct {
	pool *pgxpool.Pool
}

// NewPgRepository constructs a repository.
func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

const outflowColumns = `id, restaurant_id, payee, method, amount, issue_date, due_date,
	reference, category_id, notes, status, linked_transaction_id,
	cleared_at, voided_at, voided_reason, version, created_at, updated_at`

func scanOutflow(row pgx.Row) (PendingOutflow, error) {
	var o PendingOutflow
	err := row.Scan(
		&o.ID, &o.RestaurantID, &o.Payee, &o.Method, &o.Amount, &o.IssueDate, &o.DueDate,
		&o.Reference, &o.CategoryID, &o.Notes, &o.Status, &o.LinkedTransactionID,
		&o.ClearedAt, &o.VoidedAt, &o.VoidedReason, &o.Version, &o.CreatedAt, &o.UpdatedAt,
	)
	return o, err
}

// Insert persists a freshly validated outflow.
func (r *PgRepository) Insert(ctx context.Context, o PendingOutflow) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO pending_outflows (
			id, restaurant_id, payee, method, amount, issue_date, due_date,
			reference, category_id, notes, status, version, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		o.ID, o.RestaurantID, o.Payee, o.Method, o.Amount, o.IssueDate, o.DueDate,
		o.Reference, o.CategoryID, o.Notes, o.Status, o.Version, o.CreatedAt, o.UpdatedAt,
	)
	return err
}

// Get loads an outflow scoped to a restaurant.
func (r *PgRepository) Get(ctx context.Context, restaurantID, id uuid.UUID) (PendingOutflow, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+outflowColumns+` FROM pending_outflows WHERE restaurant_id = $1 AND id = $2`,
		restaurantID, id)
	o, err := scanOutflow(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return PendingOutflow{}, shared.ErrNotFound
	}
	return o, err
}

// ListOpen returns open outflows ordered by issue date ascending so the
// oldest commitments surface first.
func (r *PgRepository) ListOpen(ctx context.Context, restaurantID uuid.UUID) ([]PendingOutflow, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+outflowColumns+` FROM pending_outflows
		WHERE restaurant_id = $1 AND status = ANY($2)
		ORDER BY issue_date ASC, created_at ASC`,
		restaurantID, openStatusLabels())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectOutflows(rows)
}

// ListOpenIssuedBefore returns every open outflow old enough to be a
// staleness candidate, across all restaurants.
func (r *PgRepository) ListOpenIssuedBefore(ctx context.Context, cutoff time.Time) ([]PendingOutflow, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+outflowColumns+` FROM pending_outflows
		WHERE status = ANY($1) AND issue_date <= $2
		ORDER BY issue_date ASC`,
		openStatusLabels(), cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectOutflows(rows)
}

// Promote advances the staleness tier only when the row still holds the
// expected predecessor status, so it cannot race-overwrite a concurrent
// clear or void.
func (r *PgRepository) Promote(ctx context.Context, id uuid.UUID, from, to Status) (bool, error) {
	ct, err := r.pool.Exec(ctx, `
		UPDATE pending_outflows
		SET status = $3, version = version + 1, updated_at = NOW()
		WHERE id = $1 AND status = $2`,
		id, from, to)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() > 0, nil
}

// VoidIfVersion marks the outflow voided under an optimistic version check.
func (r *PgRepository) VoidIfVersion(ctx context.Context, id uuid.UUID, reason string, at time.Time, version int64) (bool, error) {
	ct, err := r.pool.Exec(ctx, `
		UPDATE pending_outflows
		SET status = $4, voided_at = $2, voided_reason = $3, version = version + 1, updated_at = NOW()
		WHERE id = $1 AND version = $5 AND status = ANY($6)`,
		id, at, reason, StatusVoided, version, openStatusLabels())
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() > 0, nil
}

// DeleteIfOpen removes the row only while it is still open; terminal records
// are preserved for the audit trail.
func (r *PgRepository) DeleteIfOpen(ctx context.Context, restaurantID, id uuid.UUID) (bool, error) {
	ct, err := r.pool.Exec(ctx, `
		DELETE FROM pending_outflows
		WHERE restaurant_id = $1 AND id = $2 AND status = ANY($3)`,
		restaurantID, id, openStatusLabels())
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() > 0, nil
}

// UpdateNotes edits the one non-semantic field allowed in any status.
func (r *PgRepository) UpdateNotes(ctx context.Context, restaurantID, id uuid.UUID, notes string) (bool, error) {
	ct, err := r.pool.Exec(ctx, `
		UPDATE pending_outflows SET notes = $3, updated_at = NOW()
		WHERE restaurant_id = $1 AND id = $2`,
		restaurantID, id, notes)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() > 0, nil
}

// SumOpenAmount totals open commitments for the book balance.
func (r *PgRepository) SumOpenAmount(ctx context.Context, restaurantID uuid.UUID) (int64, error) {
	var total int64
	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount), 0) FROM pending_outflows
		WHERE restaurant_id = $1 AND status = ANY($2)`,
		restaurantID, openStatusLabels()).Scan(&total)
	return total, err
}

func collectOutflows(rows pgx.Rows) ([]PendingOutflow, error) {
	var out []PendingOutflow
	for rows.Next() {
		o, err := scanOutflow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func openStatusLabels() []string {
	labels := make([]string, 0, len(OpenStatuses))
	for _, s := range OpenStatuses {
		labels = append(labels, string(s))
	}
	return labels
}
