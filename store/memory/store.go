// Package memory provides an in-memory implementation of the composite
// store. It is intended for testing and development.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Taha-mlaiki/TrackTruck/alertlog"
	"github.com/Taha-mlaiki/TrackTruck/id"
	"github.com/Taha-mlaiki/TrackTruck/maintenance"
	"github.com/Taha-mlaiki/TrackTruck/store"
)

// Compile-time interface check.
var _ store.Store = (*Store)(nil)

// Store is a thread-safe in-memory store.
type Store struct {
	mu sync.RWMutex

	rules  map[string]*maintenance.Rule
	alerts map[string]*alertlog.Entry

	now func() time.Time
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		rules:  make(map[string]*maintenance.Rule),
		alerts: make(map[string]*alertlog.Entry),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Migrate is a no-op for the memory store.
func (s *Store) Migrate(_ context.Context) error { return nil }

// Ping is a no-op for the memory store.
func (s *Store) Ping(_ context.Context) error { return nil }

// Close is a no-op for the memory store.
func (s *Store) Close() error { return nil }

// ──────────────────────────────────────────────────
// Maintenance rule store
// ──────────────────────────────────────────────────

func (s *Store) CreateRule(_ context.Context, r *maintenance.Rule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.ID.IsNil() {
		r.ID = id.NewRuleID()
	}
	if _, ok := s.rules[r.ID.String()]; ok {
		return fmt.Errorf("rule %s: already exists", r.ID)
	}
	t := s.now()
	r.CreatedAt = t
	r.UpdatedAt = t
	s.rules[r.ID.String()] = r.Clone()
	return nil
}

func (s *Store) GetRule(_ context.Context, ruleID id.RuleID) (*maintenance.Rule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rules[ruleID.String()]
	if !ok {
		return nil, fmt.Errorf("rule %s: %w", ruleID, maintenance.ErrNotFound)
	}
	return r.Clone(), nil
}

func (s *Store) UpdateRule(_ context.Context, r *maintenance.Rule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.rules[r.ID.String()]
	if !ok {
		return fmt.Errorf("rule %s: %w", r.ID, maintenance.ErrNotFound)
	}
	r.CreatedAt = existing.CreatedAt
	r.UpdatedAt = s.now()
	s.rules[r.ID.String()] = r.Clone()
	return nil
}

func (s *Store) DeleteRule(_ context.Context, ruleID id.RuleID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rules[ruleID.String()]; !ok {
		return fmt.Errorf("rule %s: %w", ruleID, maintenance.ErrNotFound)
	}
	delete(s.rules, ruleID.String())
	return nil
}

func (s *Store) ListRules(_ context.Context, filter *maintenance.ListFilter) ([]*maintenance.Rule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*maintenance.Rule, 0, len(s.rules))
	for _, r := range s.rules {
		if filter != nil {
			if filter.ResourceType != "" && r.ResourceType != filter.ResourceType {
				continue
			}
			if filter.ResourceID != "" && r.ResourceID != filter.ResourceID {
				continue
			}
		}
		result = append(result, r.Clone())
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID.String() < result[j].ID.String()
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	if filter == nil {
		return result, nil
	}
	return applyPagination(result, filter.Limit, filter.Offset), nil
}

func (s *Store) CountRules(ctx context.Context, filter *maintenance.ListFilter) (int64, error) {
	var f *maintenance.ListFilter
	if filter != nil {
		c := *filter
		c.Limit, c.Offset = 0, 0
		f = &c
	}
	list, err := s.ListRules(ctx, f)
	if err != nil {
		return 0, err
	}
	return int64(len(list)), nil
}

// ──────────────────────────────────────────────────
// Alert log store
// ──────────────────────────────────────────────────

func (s *Store) CreateAlert(_ context.Context, e *alertlog.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.ID.IsNil() {
		e.ID = id.NewAlertID()
	}
	if e.FiredAt.IsZero() {
		e.FiredAt = s.now()
	}
	c := *e
	s.alerts[e.ID.String()] = &c
	return nil
}

func (s *Store) ListAlerts(_ context.Context, filter *alertlog.QueryFilter) ([]*alertlog.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*alertlog.Entry, 0, len(s.alerts))
	for _, e := range s.alerts {
		if filter != nil && !matchAlert(e, filter) {
			continue
		}
		c := *e
		result = append(result, &c)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].FiredAt.Equal(result[j].FiredAt) {
			return result[i].ID.String() > result[j].ID.String()
		}
		return result[i].FiredAt.After(result[j].FiredAt)
	})
	if filter == nil {
		return result, nil
	}
	return applyPagination(result, filter.Limit, filter.Offset), nil
}

func (s *Store) CountAlerts(ctx context.Context, filter *alertlog.QueryFilter) (int64, error) {
	var f *alertlog.QueryFilter
	if filter != nil {
		c := *filter
		c.Limit, c.Offset = 0, 0
		f = &c
	}
	list, err := s.ListAlerts(ctx, f)
	if err != nil {
		return 0, err
	}
	return int64(len(list)), nil
}

func (s *Store) PurgeAlerts(_ context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for k, e := range s.alerts {
		if e.FiredAt.Before(before) {
			delete(s.alerts, k)
			n++
		}
	}
	return n, nil
}

// ──────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────

func matchAlert(e *alertlog.Entry, f *alertlog.QueryFilter) bool {
	if f.RuleID != nil && e.RuleID.String() != f.RuleID.String() {
		return false
	}
	if f.ResourceType != "" && e.ResourceType != f.ResourceType {
		return false
	}
	if f.ResourceID != "" && e.ResourceID != f.ResourceID {
		return false
	}
	if f.Trigger != "" && e.Trigger != f.Trigger {
		return false
	}
	if f.After != nil && !e.FiredAt.After(*f.After) {
		return false
	}
	if f.Before != nil && !e.FiredAt.Before(*f.Before) {
		return false
	}
	return true
}

func applyPagination[T any](items []*T, limit, offset int) []*T {
	if offset > 0 && offset < len(items) {
		items = items[offset:]
	} else if offset >= len(items) && offset > 0 {
		return nil
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
