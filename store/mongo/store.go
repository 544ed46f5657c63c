package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	mongod "go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"

	"github.com/Taha-mlaiki/TrackTruck/alertlog"
	"github.com/Taha-mlaiki/TrackTruck/id"
	"github.com/Taha-mlaiki/TrackTruck/maintenance"
	"github.com/Taha-mlaiki/TrackTruck/store"
)

// Collection name constants.
const (
	colRules  = "tracktruck_maintenance_rules"
	colAlerts = "tracktruck_alerts"
)

// Compile-time interface check.
var _ store.Store = (*Store)(nil)

// Store is a MongoDB implementation of the composite TrackTruck store.
type Store struct {
	db  *grove.DB
	mdb *mongodriver.MongoDB
}

// New creates a new MongoDB store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		mdb: mongodriver.Unwrap(db),
	}
}

// Migrate creates indexes for all tracktruck collections.
func (s *Store) Migrate(ctx context.Context) error {
	indexes := migrationIndexes()
	for col, models := range indexes {
		if len(models) == 0 {
			continue
		}
		_, err := s.mdb.Collection(col).Indexes().CreateMany(ctx, models)
		if err != nil {
			return fmt.Errorf("tracktruck/mongo: migrate %s indexes: %w", col, err)
		}
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

// now returns the current UTC time.
func now() time.Time {
	return time.Now().UTC()
}

// isNoDocuments checks if an error wraps mongo.ErrNoDocuments.
func isNoDocuments(err error) bool {
	return errors.Is(err, mongod.ErrNoDocuments)
}

// migrationIndexes returns the index definitions for all tracktruck collections.
func migrationIndexes() map[string][]mongod.IndexModel {
	return map[string][]mongod.IndexModel{
		colRules: {
			{Keys: bson.D{{Key: "resource_type", Value: 1}}},
			{Keys: bson.D{{Key: "resource_type", Value: 1}, {Key: "resource_id", Value: 1}}},
			{Keys: bson.D{{Key: "created_at", Value: 1}}},
		},
		colAlerts: {
			{Keys: bson.D{{Key: "rule_id", Value: 1}, {Key: "fired_at", Value: -1}}},
			{Keys: bson.D{{Key: "resource_type", Value: 1}, {Key: "resource_id", Value: 1}}},
			{Keys: bson.D{{Key: "fired_at", Value: -1}}},
		},
	}
}

// ──────────────────────────────────────────────────
// Maintenance rule operations
// ──────────────────────────────────────────────────

func (s *Store) CreateRule(ctx context.Context, r *maintenance.Rule) error {
	if r.ID.IsNil() {
		r.ID = id.NewRuleID()
	}
	t := now()
	r.CreatedAt = t
	r.UpdatedAt = t
	m := ruleToModel(r)
	if _, err := s.mdb.NewInsert(m).Exec(ctx); err != nil {
		return fmt.Errorf("tracktruck/mongo: create rule: %w", err)
	}
	return nil
}

func (s *Store) GetRule(ctx context.Context, ruleID id.RuleID) (*maintenance.Rule, error) {
	var m ruleModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": ruleID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, fmt.Errorf("rule %s: %w", ruleID, maintenance.ErrNotFound)
		}
		return nil, fmt.Errorf("tracktruck/mongo: get rule: %w", err)
	}
	return ruleFromModel(&m), nil
}

func (s *Store) UpdateRule(ctx context.Context, r *maintenance.Rule) error {
	r.UpdatedAt = now()
	m := ruleToModel(r)
	res, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.ID}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("tracktruck/mongo: update rule: %w", err)
	}
	if res.MatchedCount() == 0 {
		return fmt.Errorf("rule %s: %w", r.ID, maintenance.ErrNotFound)
	}
	return nil
}

func (s *Store) DeleteRule(ctx context.Context, ruleID id.RuleID) error {
	res, err := s.mdb.NewDelete((*ruleModel)(nil)).
		Filter(bson.M{"_id": ruleID.String()}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("tracktruck/mongo: delete rule: %w", err)
	}
	if res.DeletedCount() == 0 {
		return fmt.Errorf("rule %s: %w", ruleID, maintenance.ErrNotFound)
	}
	return nil
}

func (s *Store) ListRules(ctx context.Context, filter *maintenance.ListFilter) ([]*maintenance.Rule, error) {
	var models []ruleModel
	q := s.mdb.NewFind(&models).
		Filter(ruleFilter(filter)).
		Sort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	if filter != nil {
		if filter.Limit > 0 {
			q = q.Limit(int64(filter.Limit))
		}
		if filter.Offset > 0 {
			q = q.Skip(int64(filter.Offset))
		}
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("tracktruck/mongo: list rules: %w", err)
	}
	result := make([]*maintenance.Rule, len(models))
	for i := range models {
		result[i] = ruleFromModel(&models[i])
	}
	return result, nil
}

func (s *Store) CountRules(ctx context.Context, filter *maintenance.ListFilter) (int64, error) {
	count, err := s.mdb.NewFind((*ruleModel)(nil)).
		Filter(ruleFilter(filter)).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("tracktruck/mongo: count rules: %w", err)
	}
	return count, nil
}

func ruleFilter(filter *maintenance.ListFilter) bson.M {
	f := bson.M{}
	if filter == nil {
		return f
	}
	if filter.ResourceType != "" {
		f["resource_type"] = string(filter.ResourceType)
	}
	if filter.ResourceID != "" {
		f["resource_id"] = filter.ResourceID
	}
	return f
}

// ──────────────────────────────────────────────────
// Alert log operations
// ──────────────────────────────────────────────────

func (s *Store) CreateAlert(ctx context.Context, e *alertlog.Entry) error {
	if e.ID.IsNil() {
		e.ID = id.NewAlertID()
	}
	if e.FiredAt.IsZero() {
		e.FiredAt = now()
	}
	m := alertToModel(e)
	if _, err := s.mdb.NewInsert(m).Exec(ctx); err != nil {
		return fmt.Errorf("tracktruck/mongo: create alert: %w", err)
	}
	return nil
}

func (s *Store) ListAlerts(ctx context.Context, filter *alertlog.QueryFilter) ([]*alertlog.Entry, error) {
	var models []alertModel
	q := s.mdb.NewFind(&models).
		Filter(alertFilter(filter)).
		Sort(bson.D{{Key: "fired_at", Value: -1}})
	if filter != nil {
		if filter.Limit > 0 {
			q = q.Limit(int64(filter.Limit))
		}
		if filter.Offset > 0 {
			q = q.Skip(int64(filter.Offset))
		}
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("tracktruck/mongo: list alerts: %w", err)
	}
	result := make([]*alertlog.Entry, len(models))
	for i := range models {
		result[i] = alertFromModel(&models[i])
	}
	return result, nil
}

func (s *Store) CountAlerts(ctx context.Context, filter *alertlog.QueryFilter) (int64, error) {
	count, err := s.mdb.NewFind((*alertModel)(nil)).
		Filter(alertFilter(filter)).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("tracktruck/mongo: count alerts: %w", err)
	}
	return count, nil
}

func (s *Store) PurgeAlerts(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.mdb.NewDelete((*alertModel)(nil)).
		Many().
		Filter(bson.M{"fired_at": bson.M{"$lt": before}}).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("tracktruck/mongo: purge alerts: %w", err)
	}
	return res.DeletedCount(), nil
}

func alertFilter(filter *alertlog.QueryFilter) bson.M {
	f := bson.M{}
	if filter == nil {
		return f
	}
	if filter.RuleID != nil {
		f["rule_id"] = filter.RuleID.String()
	}
	if filter.ResourceType != "" {
		f["resource_type"] = filter.ResourceType
	}
	if filter.ResourceID != "" {
		f["resource_id"] = filter.ResourceID
	}
	if filter.Trigger != "" {
		f["trigger"] = string(filter.Trigger)
	}
	if filter.After != nil || filter.Before != nil {
		dateFilter := bson.M{}
		if filter.After != nil {
			dateFilter["$gte"] = *filter.After
		}
		if filter.Before != nil {
			dateFilter["$lte"] = *filter.Before
		}
		f["fired_at"] = dateFilter
	}
	return f
}
