// Package sqlite provides a SQLite implementation of the TrackTruck
// composite store. It suits single-node deployments and local development.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/sqlitedriver"
	"github.com/xraph/grove/migrate"

	"github.com/Taha-mlaiki/TrackTruck/alertlog"
	"github.com/Taha-mlaiki/TrackTruck/id"
	"github.com/Taha-mlaiki/TrackTruck/maintenance"
	"github.com/Taha-mlaiki/TrackTruck/store"
)

// Compile-time interface check.
var _ store.Store = (*Store)(nil)

// Store is a SQLite implementation of the composite TrackTruck store.
type Store struct {
	db  *grove.DB
	sdb *sqlitedriver.SqliteDB
}

// New creates a new SQLite store.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		sdb: sqlitedriver.Unwrap(db),
	}
}

// Open opens the database file at path and returns a store that owns it.
func Open(ctx context.Context, path string) (*Store, error) {
	drv := sqlitedriver.New()
	if err := drv.Open(ctx, path); err != nil {
		return nil, fmt.Errorf("tracktruck/sqlite: open %s: %w", path, err)
	}
	db, err := grove.Open(drv)
	if err != nil {
		return nil, fmt.Errorf("tracktruck/sqlite: open %s: %w", path, err)
	}
	return New(db), nil
}

// Migrate runs programmatic migrations via the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.sdb)
	if err != nil {
		return fmt.Errorf("tracktruck/sqlite: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("tracktruck/sqlite: migration failed: %w", err)
	}
	return nil
}

// Ping verifies the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// isNoRows checks for the standard sql.ErrNoRows sentinel.
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

func notFound(ruleID id.RuleID) error {
	return fmt.Errorf("rule %s: %w", ruleID, maintenance.ErrNotFound)
}

// ──────────────────────────────────────────────────
// Maintenance rule operations
// ──────────────────────────────────────────────────

func (s *Store) CreateRule(ctx context.Context, r *maintenance.Rule) error {
	if r.ID.IsNil() {
		r.ID = id.NewRuleID()
	}
	now := time.Now().UTC()
	r.CreatedAt = now
	r.UpdatedAt = now
	m := ruleToModel(r)
	_, err := s.sdb.NewInsert(m).Exec(ctx)
	if err != nil {
		return fmt.Errorf("tracktruck/sqlite: create rule: %w", err)
	}
	return nil
}

func (s *Store) GetRule(ctx context.Context, ruleID id.RuleID) (*maintenance.Rule, error) {
	m := new(ruleModel)
	err := s.sdb.NewSelect(m).Where("id = ?", ruleID.String()).Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, notFound(ruleID)
		}
		return nil, fmt.Errorf("tracktruck/sqlite: get rule: %w", err)
	}
	return ruleFromModel(m), nil
}

func (s *Store) UpdateRule(ctx context.Context, r *maintenance.Rule) error {
	r.UpdatedAt = time.Now().UTC()
	m := ruleToModel(r)
	res, err := s.sdb.NewUpdate(m).WherePK().Exec(ctx)
	if err != nil {
		return fmt.Errorf("tracktruck/sqlite: update rule: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("tracktruck/sqlite: update rule rows: %w", err)
	}
	if n == 0 {
		return notFound(r.ID)
	}
	return nil
}

func (s *Store) DeleteRule(ctx context.Context, ruleID id.RuleID) error {
	res, err := s.sdb.NewDelete((*ruleModel)(nil)).
		Where("id = ?", ruleID.String()).Exec(ctx)
	if err != nil {
		return fmt.Errorf("tracktruck/sqlite: delete rule: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("tracktruck/sqlite: delete rule rows: %w", err)
	}
	if n == 0 {
		return notFound(ruleID)
	}
	return nil
}

func (s *Store) ListRules(ctx context.Context, filter *maintenance.ListFilter) ([]*maintenance.Rule, error) {
	var models []ruleModel
	q := s.sdb.NewSelect(&models).OrderExpr("created_at ASC, id ASC")
	if filter != nil {
		if filter.ResourceType != "" {
			q = q.Where("resource_type = ?", string(filter.ResourceType))
		}
		if filter.ResourceID != "" {
			q = q.Where("resource_id = ?", filter.ResourceID)
		}
		if filter.Limit > 0 {
			q = q.Limit(filter.Limit)
		}
		if filter.Offset > 0 {
			q = q.Offset(filter.Offset)
		}
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("tracktruck/sqlite: list rules: %w", err)
	}
	result := make([]*maintenance.Rule, len(models))
	for i := range models {
		result[i] = ruleFromModel(&models[i])
	}
	return result, nil
}

func (s *Store) CountRules(ctx context.Context, filter *maintenance.ListFilter) (int64, error) {
	q := s.sdb.NewSelect((*ruleModel)(nil))
	if filter != nil {
		if filter.ResourceType != "" {
			q = q.Where("resource_type = ?", string(filter.ResourceType))
		}
		if filter.ResourceID != "" {
			q = q.Where("resource_id = ?", filter.ResourceID)
		}
	}
	count, err := q.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("tracktruck/sqlite: count rules: %w", err)
	}
	return count, nil
}

// ──────────────────────────────────────────────────
// Alert log operations
// ──────────────────────────────────────────────────

func (s *Store) CreateAlert(ctx context.Context, e *alertlog.Entry) error {
	if e.ID.IsNil() {
		e.ID = id.NewAlertID()
	}
	if e.FiredAt.IsZero() {
		e.FiredAt = time.Now().UTC()
	}
	m := alertToModel(e)
	_, err := s.sdb.NewInsert(m).Exec(ctx)
	if err != nil {
		return fmt.Errorf("tracktruck/sqlite: create alert: %w", err)
	}
	return nil
}

func (s *Store) ListAlerts(ctx context.Context, filter *alertlog.QueryFilter) ([]*alertlog.Entry, error) {
	var models []alertModel
	q := s.sdb.NewSelect(&models).OrderExpr("fired_at DESC")
	if filter != nil {
		if filter.RuleID != nil {
			q = q.Where("rule_id = ?", filter.RuleID.String())
		}
		if filter.ResourceType != "" {
			q = q.Where("resource_type = ?", filter.ResourceType)
		}
		if filter.ResourceID != "" {
			q = q.Where("resource_id = ?", filter.ResourceID)
		}
		if filter.Trigger != "" {
			q = q.Where("trigger_kind = ?", string(filter.Trigger))
		}
		if filter.After != nil {
			q = q.Where("fired_at >= ?", filter.After.UTC())
		}
		if filter.Before != nil {
			q = q.Where("fired_at <= ?", filter.Before.UTC())
		}
		if filter.Limit > 0 {
			q = q.Limit(filter.Limit)
		}
		if filter.Offset > 0 {
			q = q.Offset(filter.Offset)
		}
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("tracktruck/sqlite: list alerts: %w", err)
	}
	result := make([]*alertlog.Entry, len(models))
	for i := range models {
		result[i] = alertFromModel(&models[i])
	}
	return result, nil
}

func (s *Store) CountAlerts(ctx context.Context, filter *alertlog.QueryFilter) (int64, error) {
	q := s.sdb.NewSelect((*alertModel)(nil))
	if filter != nil {
		if filter.RuleID != nil {
			q = q.Where("rule_id = ?", filter.RuleID.String())
		}
		if filter.ResourceType != "" {
			q = q.Where("resource_type = ?", filter.ResourceType)
		}
		if filter.ResourceID != "" {
			q = q.Where("resource_id = ?", filter.ResourceID)
		}
		if filter.Trigger != "" {
			q = q.Where("trigger_kind = ?", string(filter.Trigger))
		}
		if filter.After != nil {
			q = q.Where("fired_at >= ?", filter.After.UTC())
		}
		if filter.Before != nil {
			q = q.Where("fired_at <= ?", filter.Before.UTC())
		}
	}
	count, err := q.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("tracktruck/sqlite: count alerts: %w", err)
	}
	return count, nil
}

func (s *Store) PurgeAlerts(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.sdb.NewDelete((*alertModel)(nil)).
		Where("fired_at < ?", before.UTC()).Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("tracktruck/sqlite: purge alerts: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("tracktruck/sqlite: purge alerts rows: %w", err)
	}
	return n, nil
}
