// Package match scores candidate bank transactions against open outflows
// and confirms chosen pairs atomically.
package match

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/backhouse-hq/backhouse/internal/bankfeed"
	"github.com/backhouse-hq/backhouse/internal/outflow"
)

// Scoring weights. Amount dominates because it is the strongest signal in
// a bank feed; date and payee each contribute up to 20.
const (
	amountExactScore  = 60
	amountNearScore   = 45
	amountLooseScore  = 20
	dateSameDayScore  = 20
	dateWithin3Score  = 15
	dateWithin7Score  = 10
	dateWithin10Score = 5
	payeeExactScore   = 20
	payeeSubstrScore  = 10

	maxScore = 100

	// Amount tolerances are whole currency units; amounts themselves are
	// stored in minor units.
	minorUnitsPerUnit = 100

	highThreshold   = 85
	mediumThreshold = 70
)

// ConfidenceTier classifies a match score.
type ConfidenceTier string

const (
	TierHigh   ConfidenceTier = "high"
	TierMedium ConfidenceTier = "medium"
)

// Suggestion is an ephemeral scored pairing; never persisted.
type Suggestion struct {
	OutflowID     uuid.UUID      `json:"outflow_id"`
	TransactionID uuid.UUID      `json:"transaction_id"`
	Score         int            `json:"score"`
	Tier          ConfidenceTier `json:"confidence_tier"`

	// Tie-break inputs, kept for deterministic ordering.
	dateDistance   int
	amountDistance int64
	outflowCreated time.Time
}

func amountScore(outflowAmount, txAmount int64) int {
	diff := outflowAmount - txAmount
	if diff < 0 {
		diff = -diff
	}
	switch {
	case diff == 0:
		return amountExactScore
	case diff <= 1*minorUnitsPerUnit:
		return amountNearScore
	case diff <= 5*minorUnitsPerUnit:
		return amountLooseScore
	default:
		return 0
	}
}

func dateScore(txDate, outflowDate time.Time) int {
	switch days := dateDistanceDays(txDate, outflowDate); {
	case days == 0:
		return dateSameDayScore
	case days <= 3:
		return dateWithin3Score
	case days <= 7:
		return dateWithin7Score
	case days <= 10:
		return dateWithin10Score
	default:
		return 0
	}
}

func payeeScore(payee, description string) int {
	p := strings.ToLower(strings.TrimSpace(payee))
	d := strings.ToLower(strings.TrimSpace(description))
	if p == "" || d == "" {
		return 0
	}
	if p == d {
		return payeeExactScore
	}
	if strings.Contains(d, p) || strings.Contains(p, d) {
		return payeeSubstrScore
	}
	return 0
}

// Score composes the three sub-scores, capped at 100.
func Score(o outflow.PendingOutflow, t bankfeed.Transaction) int {
	total := amountScore(o.Amount, t.Amount) +
		dateScore(t.PostedDate, o.MatchDate()) +
		payeeScore(o.Payee, t.RawDescription)
	if total > maxScore {
		total = maxScore
	}
	return total
}

// Tier classifies a score; ok is false below the medium threshold, meaning
// the candidate is discarded entirely.
func Tier(score int) (ConfidenceTier, bool) {
	switch {
	case score >= highThreshold:
		return TierHigh, true
	case score >= mediumThreshold:
		return TierMedium, true
	default:
		return "", false
	}
}

func newSuggestion(o outflow.PendingOutflow, t bankfeed.Transaction) (Suggestion, bool) {
	if !o.Status.IsOpen() || t.Reconciled {
		return Suggestion{}, false
	}
	score := Score(o, t)
	tier, ok := Tier(score)
	if !ok {
		return Suggestion{}, false
	}
	amountDiff := o.Amount - t.Amount
	if amountDiff < 0 {
		amountDiff = -amountDiff
	}
	return Suggestion{
		OutflowID:      o.ID,
		TransactionID:  t.ID,
		Score:          score,
		Tier:           tier,
		dateDistance:   dateDistanceDays(t.PostedDate, o.MatchDate()),
		amountDistance: amountDiff,
		outflowCreated: o.CreatedAt,
	}, true
}

// RankForOutflow scores each unconsumed transaction against one open outflow
// and returns the surviving candidates best-first. It is read-only.
func RankForOutflow(o outflow.PendingOutflow, txns []bankfeed.Transaction) []Suggestion {
	var out []Suggestion
	for _, t := range txns {
		if s, ok := newSuggestion(o, t); ok {
			out = append(out, s)
		}
	}
	rank(out)
	return out
}

// RankForTransaction scores one transaction against a set of open outflows.
// Suggestions are non-exclusive previews: the same transaction may rank for
// several outflows until a confirmation consumes it.
func RankForTransaction(t bankfeed.Transaction, outflows []outflow.PendingOutflow) []Suggestion {
	var out []Suggestion
	for _, o := range outflows {
		if s, ok := newSuggestion(o, t); ok {
			out = append(out, s)
		}
	}
	rank(out)
	return out
}

// rank orders by score descending, then smaller date distance, then smaller
// amount difference, then outflow creation order, so results are stable.
func rank(s []Suggestion) {
	sort.SliceStable(s, func(i, j int) bool {
		if s[i].Score != s[j].Score {
			return s[i].Score > s[j].Score
		}
		if s[i].dateDistance != s[j].dateDistance {
			return s[i].dateDistance < s[j].dateDistance
		}
		if s[i].amountDistance != s[j].amountDistance {
			return s[i].amountDistance < s[j].amountDistance
		}
		return s[i].outflowCreated.Before(s[j].outflowCreated)
	})
}

func dateDistanceDays(a, b time.Time) int {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	da := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	db := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	days := int(da.Sub(db).Hours() / 24)
	if days < 0 {
		days = -days
	}
	return days
}
