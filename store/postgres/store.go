// Package postgres provides a PostgreSQL implementation of the TrackTruck
// composite store using grove ORM with Go-based migrations.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/pgdriver"
	"github.com/xraph/grove/migrate"

	"github.com/Taha-mlaiki/TrackTruck/alertlog"
	"github.com/Taha-mlaiki/TrackTruck/id"
	"github.com/Taha-mlaiki/TrackTruck/maintenance"
	"github.com/Taha-mlaiki/TrackTruck/store"
)

// Compile-time interface check.
var _ store.Store = (*Store)(nil)

// Store is a PostgreSQL implementation of the composite TrackTruck store.
type Store struct {
	db   *grove.DB
	pgdb *pgdriver.PgDB
}

// New creates a new PostgreSQL store.
func New(db *grove.DB) *Store {
	return &Store{
		db:   db,
		pgdb: pgdriver.Unwrap(db),
	}
}

// Migrate runs programmatic migrations via the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.pgdb)
	if err != nil {
		return fmt.Errorf("tracktruck/postgres: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("tracktruck/postgres: migration failed: %w", err)
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
	_, err := s.pgdb.NewInsert(m).Exec(ctx)
	if err != nil {
		return fmt.Errorf("tracktruck/postgres: create rule: %w", err)
	}
	return nil
}

func (s *Store) GetRule(ctx context.Context, ruleID id.RuleID) (*maintenance.Rule, error) {
	m := new(ruleModel)
	err := s.pgdb.NewSelect(m).Where("id = ?", ruleID.String()).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("rule %s: %w", ruleID, maintenance.ErrNotFound)
		}
		return nil, fmt.Errorf("tracktruck/postgres: get rule: %w", err)
	}
	return ruleFromModel(m), nil
}

func (s *Store) UpdateRule(ctx context.Context, r *maintenance.Rule) error {
	r.UpdatedAt = time.Now().UTC()
	m := ruleToModel(r)
	res, err := s.pgdb.NewUpdate(m).WherePK().Exec(ctx)
	if err != nil {
		return fmt.Errorf("tracktruck/postgres: update rule: %w", err)
	}
	return requireAffected(res, "update rule", r.ID)
}

func (s *Store) DeleteRule(ctx context.Context, ruleID id.RuleID) error {
	res, err := s.pgdb.NewDelete((*ruleModel)(nil)).
		Where("id = ?", ruleID.String()).Exec(ctx)
	if err != nil {
		return fmt.Errorf("tracktruck/postgres: delete rule: %w", err)
	}
	return requireAffected(res, "delete rule", ruleID)
}

func (s *Store) ListRules(ctx context.Context, filter *maintenance.ListFilter) ([]*maintenance.Rule, error) {
	var models []ruleModel
	q := s.pgdb.NewSelect(&models).OrderExpr("created_at ASC, id ASC")
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
		return nil, fmt.Errorf("tracktruck/postgres: list rules: %w", err)
	}
	result := make([]*maintenance.Rule, len(models))
	for i := range models {
		result[i] = ruleFromModel(&models[i])
	}
	return result, nil
}

func (s *Store) CountRules(ctx context.Context, filter *maintenance.ListFilter) (int64, error) {
	q := s.pgdb.NewSelect((*ruleModel)(nil))
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
		return 0, fmt.Errorf("tracktruck/postgres: count rules: %w", err)
	}
	return count, nil
}

// rowsAffected is the part of a grove exec result the store reads.
type rowsAffected interface {
	RowsAffected() (int64, error)
}

// requireAffected maps a write that touched no row to maintenance.ErrNotFound.
func requireAffected(res rowsAffected, op string, ruleID id.RuleID) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("tracktruck/postgres: %s rows: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("rule %s: %w", ruleID, maintenance.ErrNotFound)
	}
	return nil
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
	_, err := s.pgdb.NewInsert(m).Exec(ctx)
	if err != nil {
		return fmt.Errorf("tracktruck/postgres: create alert: %w", err)
	}
	return nil
}

func (s *Store) ListAlerts(ctx context.Context, filter *alertlog.QueryFilter) ([]*alertlog.Entry, error) {
	var models []alertModel
	q := s.pgdb.NewSelect(&models).OrderExpr("fired_at DESC")
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
			q = q.Where("fired_at >= ?", *filter.After)
		}
		if filter.Before != nil {
			q = q.Where("fired_at <= ?", *filter.Before)
		}
		if filter.Limit > 0 {
			q = q.Limit(filter.Limit)
		}
		if filter.Offset > 0 {
			q = q.Offset(filter.Offset)
		}
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("tracktruck/postgres: list alerts: %w", err)
	}
	result := make([]*alertlog.Entry, len(models))
	for i := range models {
		result[i] = alertFromModel(&models[i])
	}
	return result, nil
}

func (s *Store) CountAlerts(ctx context.Context, filter *alertlog.QueryFilter) (int64, error) {
	q := s.pgdb.NewSelect((*alertModel)(nil))
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
			q = q.Where("fired_at >= ?", *filter.After)
		}
		if filter.Before != nil {
			q = q.Where("fired_at <= ?", *filter.Before)
		}
	}
	count, err := q.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("tracktruck/postgres: count alerts: %w", err)
	}
	return count, nil
}

func (s *Store) PurgeAlerts(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.pgdb.NewDelete((*alertModel)(nil)).
		Where("fired_at < ?", before).Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("tracktruck/postgres: purge alerts: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("tracktruck/postgres: purge alerts rows: %w", err)
	}
	return n, nil
}
