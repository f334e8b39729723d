package dispatch

import (
	"context"
	"fmt"

	"github.com/ignite/outreach-crm/internal/domain"
)

// Selector picks dispatch-eligible recipients for a configuration, capped
// at the remaining daily allowance.
type Selector struct {
	store Store
}

// NewSelector creates a selector over the given store.
func NewSelector(store Store) *Selector {
	return &Selector{store: store}
}

// Select returns at most limit eligible recipients. A limit of zero or less
// yields an empty slice without touching the store. Never returns nil on
// success.
func (s *Selector) Select(ctx context.Context, cfg domain.AutoDMConfig, limit int) ([]domain.Recipient, error) {
	if limit <= 0 {
		return []domain.Recipient{}, nil
	}
	targets, err := s.store.SelectTargets(ctx, cfg, limit)
	if err != nil {
		return nil, fmt.Errorf("select targets for config %d: %w", cfg.ID, err)
	}
	if targets == nil {
		targets = []domain.Recipient{}
	}
	if len(targets) > limit {
		targets = targets[:limit]
	}
	return targets, nil
}
