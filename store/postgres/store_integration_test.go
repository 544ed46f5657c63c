//go:build integration

package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/Taha-mlaiki/TrackTruck/alertlog"
	"github.com/Taha-mlaiki/TrackTruck/id"
	"github.com/Taha-mlaiki/TrackTruck/maintenance"
)

func setupStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()

	ctr, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("tracktruck"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		tcpostgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, ctr)
	if err != nil {
		t.Fatalf("start postgres: %v", err)
	}

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("connection string: %v", err)
	}

	s, err := Open(ctx, dsn)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	if err := s.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	// Running twice must be a no-op.
	if err := s.Migrate(ctx); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
	return s
}

func TestRuleLifecycle(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	last := time.Date(2024, time.May, 1, 8, 0, 0, 0, time.UTC)
	r := &maintenance.Rule{
		ResourceType: maintenance.ResourceTruck,
		ResourceID:   "665f1c2b9a1e4b0012345678",
		IntervalKm:   maintenance.Int(50000),
		IntervalDays: maintenance.Int(30),
		LastRun:      &last,
		Description:  "oil change",
	}
	if err := s.CreateRule(ctx, r); err != nil {
		t.Fatalf("create: %v", err)
	}
	if r.ID.IsNil() {
		t.Fatal("expected an assigned ID")
	}

	got, err := s.GetRule(ctx, r.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ResourceID != r.ResourceID || *got.IntervalKm != 50000 || !got.LastRun.Equal(last) {
		t.Fatalf("unexpected rule %+v", got)
	}

	got.IntervalKm = maintenance.Int(60000)
	if err := s.UpdateRule(ctx, got); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, _ = s.GetRule(ctx, r.ID)
	if *got.IntervalKm != 60000 {
		t.Fatalf("expected updated interval, got %d", *got.IntervalKm)
	}

	if err := s.DeleteRule(ctx, r.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.GetRule(ctx, r.ID); !errors.Is(err, maintenance.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := s.DeleteRule(ctx, r.ID); !errors.Is(err, maintenance.ErrNotFound) {
		t.Fatalf("expected ErrNotFound deleting twice, got %v", err)
	}
	if err := s.UpdateRule(ctx, r); !errors.Is(err, maintenance.ErrNotFound) {
		t.Fatalf("expected ErrNotFound updating a missing rule, got %v", err)
	}
}

func TestListRulesFilter(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	for _, r := range []*maintenance.Rule{
		{ResourceType: maintenance.ResourceTruck, ResourceID: "t1", IntervalKm: maintenance.Int(1000)},
		{ResourceType: maintenance.ResourceTire, ResourceID: "s1", IntervalKm: maintenance.Int(70)},
		{ResourceType: maintenance.ResourceTire, ResourceID: "s2", IntervalKm: maintenance.Int(80)},
	} {
		if err := s.CreateRule(ctx, r); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	all, err := s.ListRules(ctx, nil)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 rules, got %d", len(all))
	}

	tires, err := s.ListRules(ctx, &maintenance.ListFilter{ResourceType: maintenance.ResourceTire})
	if err != nil {
		t.Fatalf("list tires: %v", err)
	}
	if len(tires) != 2 {
		t.Fatalf("expected 2 tire rules, got %d", len(tires))
	}

	n, err := s.CountRules(ctx, &maintenance.ListFilter{ResourceType: maintenance.ResourceTire, ResourceID: "s2"})
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1, got %d", n)
	}
}

func TestAlertLog(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	ruleID := id.NewRuleID()
	base := time.Date(2024, time.June, 1, 8, 0, 0, 0, time.UTC)
	for i, trig := range []alertlog.Trigger{alertlog.TriggerDistance, alertlog.TriggerDays, alertlog.TriggerDistance} {
		e := &alertlog.Entry{
			RuleID:       ruleID,
			ResourceType: "truck",
			ResourceID:   "t1",
			Trigger:      trig,
			Message:      "Maintenance alert",
			Delivered:    true,
			FiredAt:      base.AddDate(0, 0, i),
		}
		if err := s.CreateAlert(ctx, e); err != nil {
			t.Fatalf("create alert: %v", err)
		}
	}

	entries, err := s.ListAlerts(ctx, &alertlog.QueryFilter{RuleID: &ruleID})
	if err != nil {
		t.Fatalf("list alerts: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 alerts, got %d", len(entries))
	}
	if !entries[0].FiredAt.After(entries[2].FiredAt) {
		t.Fatal("expected newest first")
	}

	n, err := s.CountAlerts(ctx, &alertlog.QueryFilter{Trigger: alertlog.TriggerDistance})
	if err != nil {
		t.Fatalf("count alerts: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 distance alerts, got %d", n)
	}

	purged, err := s.PurgeAlerts(ctx, base.AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("purge: %v", err)
	}
	if purged != 1 {
		t.Fatalf("expected 1 purged, got %d", purged)
	}
}
