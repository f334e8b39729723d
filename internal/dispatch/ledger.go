package dispatch

import (
	"context"
	"fmt"
	"time"
)

// Ledger derives the remaining daily send allowance from the outcome log.
// There is no counter to increment or reset: the allowance for a day is
// always ceiling minus that day's recorded successes.
type Ledger struct {
	store   Store
	ceiling int
}

// NewLedger creates a ledger with the given daily ceiling.
func NewLedger(store Store, ceiling int) *Ledger {
	return &Ledger{store: store, ceiling: ceiling}
}

// Ceiling returns the configured daily ceiling.
func (l *Ledger) Ceiling() int { return l.ceiling }

// Remaining returns the allowance left for now's calendar day, floored at
// zero. Callers must re-read it before every dispatch; the value goes stale
// the moment a success outcome lands.
func (l *Ledger) Remaining(ctx context.Context, now time.Time) (int, error) {
	sent, err := l.store.CountSuccessesOn(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("count today's successes: %w", err)
	}
	remaining := l.ceiling - sent
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}
