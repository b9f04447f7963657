package balance

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/backhouse-hq/backhouse/internal/outflow"
)

func TestComputeExcludesTerminalOutflows(t *testing.T) {
	// bankBalance $10,000; open outflows of $500 and $250; a cleared $1,000
	// outflow is already reflected in the bank balance and excluded.
	outflows := []outflow.PendingOutflow{
		{Amount: 50_000, Status: outflow.StatusStale30},
		{Amount: 25_000, Status: outflow.StatusPending},
		{Amount: 100_000, Status: outflow.StatusCleared},
		{Amount: 40_000, Status: outflow.StatusVoided},
	}

	summary := Compute(1_000_000, outflows)
	require.Equal(t, int64(1_000_000), summary.BankBalance)
	require.Equal(t, int64(75_000), summary.PendingTotal)
	require.Equal(t, int64(925_000), summary.BookBalance)
}

func TestComputeAllStaleTiersCount(t *testing.T) {
	outflows := []outflow.PendingOutflow{
		{Amount: 100, Status: outflow.StatusPending},
		{Amount: 200, Status: outflow.StatusStale30},
		{Amount: 300, Status: outflow.StatusStale60},
		{Amount: 400, Status: outflow.StatusStale90},
	}
	summary := Compute(10_000, outflows)
	require.Equal(t, int64(1_000), summary.PendingTotal)
	require.Equal(t, int64(9_000), summary.BookBalance)
}

func TestComputeNoOpenOutflows(t *testing.T) {
	summary := Compute(5_000, nil)
	require.Equal(t, int64(5_000), summary.BookBalance)
	require.Zero(t, summary.PendingTotal)
}

func TestComputeNegativeBookBalance(t *testing.T) {
	// Over-committed: more promised than in the bank.
	summary := FromTotals(10_000, 15_000)
	require.Equal(t, int64(-5_000), summary.BookBalance)
}
