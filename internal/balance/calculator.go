// Package balance derives the book balance: the realistic spendable amount
// after subtracting committed-but-uncleared outflows from the bank balance.
package balance

import (
	"github.com/backhouse-hq/backhouse/internal/outflow"
)

// Summary is the derived balance for one restaurant. All values are minor
// currency units.
type Summary struct {
	BankBalance  int64 `json:"bank_balance"`
	PendingTotal int64 `json:"pending_total"`
	BookBalance  int64 `json:"book_balance"`
}

// Compute derives the summary from the bank balance and the set of open
// outflows. Cleared outflows are already reflected in the bank balance and
// voided ones will never clear, so only open statuses count.
func Compute(bankBalance int64, outflows []outflow.PendingOutflow) Summary {
	var pending int64
	for _, o := range outflows {
		if o.Status.IsOpen() {
			pending += o.Amount
		}
	}
	return FromTotals(bankBalance, pending)
}

// FromTotals builds the summary from pre-aggregated values.
func FromTotals(bankBalance, pendingTotal int64) Summary {
	return Summary{
		BankBalance:  bankBalance,
		PendingTotal: pendingTotal,
		BookBalance:  bankBalance - pendingTotal,
	}
}
