package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Taha-mlaiki/TrackTruck/alertlog"
	"github.com/Taha-mlaiki/TrackTruck/id"
	"github.com/Taha-mlaiki/TrackTruck/maintenance"
)

func TestRuleCRUD(t *testing.T) {
	ctx := context.Background()
	s := New()

	r := &maintenance.Rule{
		ResourceType: maintenance.ResourceTruck,
		ResourceID:   "truck-1",
		IntervalKm:   maintenance.Int(50000),
		Description:  "engine oil",
	}

	// Create
	if err := s.CreateRule(ctx, r); err != nil {
		t.Fatal(err)
	}
	if r.ID.IsNil() {
		t.Fatal("expected an ID to be assigned")
	}
	if r.CreatedAt.IsZero() || !r.CreatedAt.Equal(r.UpdatedAt) {
		t.Fatal("expected timestamps to be stamped on create")
	}

	// Get
	got, err := s.GetRule(ctx, r.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.ResourceID != "truck-1" || *got.IntervalKm != 50000 {
		t.Fatalf("unexpected rule: %+v", got)
	}

	// Returned values are copies.
	*got.IntervalKm = 1
	again, _ := s.GetRule(ctx, r.ID)
	if *again.IntervalKm != 50000 {
		t.Fatal("store leaked internal state")
	}

	// Update
	time.Sleep(time.Millisecond)
	got.IntervalKm = maintenance.Int(60000)
	if err := s.UpdateRule(ctx, got); err != nil {
		t.Fatal(err)
	}
	updated, _ := s.GetRule(ctx, r.ID)
	if *updated.IntervalKm != 60000 {
		t.Fatalf("expected 60000, got %d", *updated.IntervalKm)
	}
	if !updated.UpdatedAt.After(updated.CreatedAt) {
		t.Fatal("expected UpdatedAt to move forward")
	}

	// Delete
	if err := s.DeleteRule(ctx, r.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := s.GetRule(ctx, r.ID); !errors.Is(err, maintenance.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestRuleNotFound(t *testing.T) {
	ctx := context.Background()
	s := New()
	missing := id.NewRuleID()

	if _, err := s.GetRule(ctx, missing); !errors.Is(err, maintenance.ErrNotFound) {
		t.Fatalf("get: expected ErrNotFound, got %v", err)
	}
	if err := s.UpdateRule(ctx, &maintenance.Rule{ID: missing}); !errors.Is(err, maintenance.ErrNotFound) {
		t.Fatalf("update: expected ErrNotFound, got %v", err)
	}
	if err := s.DeleteRule(ctx, missing); !errors.Is(err, maintenance.ErrNotFound) {
		t.Fatalf("delete: expected ErrNotFound, got %v", err)
	}
}

func TestListRulesFilter(t *testing.T) {
	ctx := context.Background()
	s := New()

	for _, r := range []*maintenance.Rule{
		{ResourceType: maintenance.ResourceTruck, ResourceID: "a"},
		{ResourceType: maintenance.ResourceTruck, ResourceID: "b"},
		{ResourceType: maintenance.ResourceTire, ResourceID: "c"},
	} {
		if err := s.CreateRule(ctx, r); err != nil {
			t.Fatal(err)
		}
	}

	all, err := s.ListRules(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 rules, got %d", len(all))
	}

	trucks, _ := s.ListRules(ctx, &maintenance.ListFilter{ResourceType: maintenance.ResourceTruck})
	if len(trucks) != 2 {
		t.Fatalf("expected 2 truck rules, got %d", len(trucks))
	}

	byID, _ := s.ListRules(ctx, &maintenance.ListFilter{ResourceID: "c"})
	if len(byID) != 1 || byID[0].ResourceType != maintenance.ResourceTire {
		t.Fatalf("unexpected resource id filter result: %+v", byID)
	}

	page, _ := s.ListRules(ctx, &maintenance.ListFilter{Limit: 2, Offset: 1})
	if len(page) != 2 {
		t.Fatalf("expected page of 2, got %d", len(page))
	}

	n, err := s.CountRules(ctx, &maintenance.ListFilter{ResourceType: maintenance.ResourceTruck, Limit: 1})
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Fatalf("count must ignore pagination, got %d", n)
	}
}

func TestAlertLog(t *testing.T) {
	ctx := context.Background()
	s := New()
	ruleID := id.NewRuleID()
	base := time.Now().Add(-time.Hour)

	for i, trig := range []alertlog.Trigger{alertlog.TriggerDistance, alertlog.TriggerDays, alertlog.TriggerDays} {
		if err := s.CreateAlert(ctx, &alertlog.Entry{
			RuleID:       ruleID,
			ResourceType: "truck",
			ResourceID:   "t1",
			Trigger:      trig,
			FiredAt:      base.Add(time.Duration(i) * time.Minute),
		}); err != nil {
			t.Fatal(err)
		}
	}

	list, err := s.ListAlerts(ctx, &alertlog.QueryFilter{RuleID: &ruleID})
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 3 {
		t.Fatalf("expected 3 alerts, got %d", len(list))
	}
	if !list[0].FiredAt.After(list[2].FiredAt) {
		t.Fatal("expected newest first")
	}

	days, _ := s.CountAlerts(ctx, &alertlog.QueryFilter{Trigger: alertlog.TriggerDays})
	if days != 2 {
		t.Fatalf("expected 2 days alerts, got %d", days)
	}

	purged, err := s.PurgeAlerts(ctx, base.Add(30*time.Second))
	if err != nil {
		t.Fatal(err)
	}
	if purged != 1 {
		t.Fatalf("expected 1 purged, got %d", purged)
	}
}
