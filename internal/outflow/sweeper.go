package outflow

import (
	"context"
	"log/slog"
	"time"
)

// Staleness thresholds in elapsed days since issue date.
const (
	staleAfter30 = 30
	staleAfter60 = 60
	staleAfter90 = 90
)

// TargetStatus returns the highest staleness tier reached after elapsedDays.
func TargetStatus(elapsedDays int) Status {
	switch {
	case elapsedDays >= staleAfter90:
		return StatusStale90
	case elapsedDays >= staleAfter60:
		return StatusStale60
	case elapsedDays >= staleAfter30:
		return StatusStale30
	default:
		return StatusPending
	}
}

// SweepReport summarises one staleness pass.
type SweepReport struct {
	Scanned  int
	Promoted int
	Skipped  int
	Failed   int
}

// Sweeper promotes aging open outflows through staleness tiers. The pass is
// idempotent and tolerates per-row failures.
type Sweeper struct {
	repo   Repository
	logger *slog.Logger
	now    func() time.Time
}

// NewSweeper constructs a sweeper with an injectable clock.
func NewSweeper(repo Repository, logger *slog.Logger) *Sweeper {
	return &Sweeper{repo: repo, logger: logger, now: time.Now}
}

// WithClock overrides the time source, used by tests.
func (s *Sweeper) WithClock(now func() time.Time) *Sweeper {
	s.now = now
	return s
}

// Sweep scans every open outflow old enough to have reached the first tier
// and promotes each to the highest tier its age warrants. Promotions are
// conditional single-row writes, so a concurrent clear or void wins and the
// sweep's write becomes a no-op rather than an error.
func (s *Sweeper) Sweep(ctx context.Context) (SweepReport, error) {
	today := s.now().UTC()
	cutoff := today.AddDate(0, 0, -staleAfter30)

	candidates, err := s.repo.ListOpenIssuedBefore(ctx, cutoff)
	if err != nil {
		return SweepReport{}, err
	}

	report := SweepReport{Scanned: len(candidates)}
	for _, o := range candidates {
		elapsedDays := int(today.Sub(o.IssueDate).Hours() / 24)
		target := TargetStatus(elapsedDays)
		if target.Rank() <= o.Status.Rank() {
			report.Skipped++
			continue
		}
		promoted, err := s.repo.Promote(ctx, o.ID, o.Status, target)
		if err != nil {
			report.Failed++
			s.logger.Error("staleness promotion failed",
				slog.String("outflow_id", o.ID.String()),
				slog.String("target", string(target)),
				slog.Any("error", err))
			continue
		}
		if promoted {
			report.Promoted++
		} else {
			// Row changed since the scan; whoever got there first wins.
			report.Skipped++
		}
	}
	return report, nil
}
