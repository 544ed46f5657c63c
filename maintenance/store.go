package maintenance

import (
	"context"

	"github.com/Taha-mlaiki/TrackTruck/id"
)

// Store defines persistence operations for maintenance rules.
type Store interface {
	// CreateRule persists a new rule and stamps CreatedAt/UpdatedAt.
	CreateRule(ctx context.Context, r *Rule) error

	// GetRule retrieves a rule by ID.
	GetRule(ctx context.Context, ruleID id.RuleID) (*Rule, error)

	// UpdateRule replaces a stored rule and refreshes UpdatedAt.
	UpdateRule(ctx context.Context, r *Rule) error

	// DeleteRule removes a rule by ID.
	DeleteRule(ctx context.Context, ruleID id.RuleID) error

	// ListRules returns rules matching the filter. A nil filter returns all rules.
	ListRules(ctx context.Context, filter *ListFilter) ([]*Rule, error)

	// CountRules returns the number of rules matching the filter.
	CountRules(ctx context.Context, filter *ListFilter) (int64, error)
}
