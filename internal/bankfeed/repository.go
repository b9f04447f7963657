package bankfeed

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/backhouse-hq/backhouse/internal/shared"
)

// PgStore provides PostgreSQL backed access to the ingested feed.
type PgStore struct {
	pool *pgxpool.Pool
}

// NewPgStore constructs a store.
func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

const txColumns = `id, restaurant_id, amount, posted_date, raw_description, reconciled, matched_outflow_id, created_at`

func scanTransaction(row pgx.Row) (Transaction, error) {
	var t Transaction
	err := row.Scan(&t.ID, &t.RestaurantID, &t.Amount, &t.PostedDate, &t.RawDescription,
		&t.Reconciled, &t.MatchedOutflowID, &t.CreatedAt)
	return t, err
}

// Get loads a single feed transaction in scope.
func (s *PgStore) Get(ctx context.Context, restaurantID, id uuid.UUID) (Transaction, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+txColumns+` FROM bank_transactions WHERE restaurant_id = $1 AND id = $2`,
		restaurantID, id)
	t, err := scanTransaction(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Transaction{}, shared.ErrNotFound
	}
	return t, err
}

// ListUnreconciled returns the transactions still eligible for matching,
// newest posting first.
func (s *PgStore) ListUnreconciled(ctx context.Context, restaurantID uuid.UUID) ([]Transaction, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+txColumns+` FROM bank_transactions
		WHERE restaurant_id = $1 AND NOT reconciled
		ORDER BY posted_date DESC, created_at DESC`,
		restaurantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// PgBalanceProvider aggregates account balances written by the external
// bank-connection sync.
type PgBalanceProvider struct {
	pool *pgxpool.Pool
}

// NewPgBalanceProvider constructs a provider.
func NewPgBalanceProvider(pool *pgxpool.Pool) *PgBalanceProvider {
	return &PgBalanceProvider{pool: pool}
}

// BankBalance sums the connected accounts' balances in minor units.
func (p *PgBalanceProvider) BankBalance(ctx context.Context, restaurantID uuid.UUID) (int64, error) {
	var total int64
	err := p.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(current_balance), 0) FROM bank_accounts WHERE restaurant_id = $1`,
		restaurantID).Scan(&total)
	return total, err
}
