package tracktruck

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Taha-mlaiki/TrackTruck/alertlog"
	"github.com/Taha-mlaiki/TrackTruck/asset"
	assetmem "github.com/Taha-mlaiki/TrackTruck/asset/memory"
	"github.com/Taha-mlaiki/TrackTruck/id"
	"github.com/Taha-mlaiki/TrackTruck/maintenance"
	"github.com/Taha-mlaiki/TrackTruck/notify"
	notifymem "github.com/Taha-mlaiki/TrackTruck/notify/memory"
	"github.com/Taha-mlaiki/TrackTruck/store/memory"
)

var testNow = time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)

type fixture struct {
	eng    *Engine
	store  *memory.Store
	assets *assetmem.Lookup
	pub    *notifymem.Publisher
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	f := &fixture{
		store:  memory.New(),
		assets: assetmem.New(),
		pub:    notifymem.New(),
	}
	base := []Option{
		WithStore(f.store),
		WithLookup(f.assets),
		WithPublisher(f.pub),
		WithClock(func() time.Time { return testNow }),
	}
	eng, err := NewEngine(append(base, opts...)...)
	if err != nil {
		t.Fatal(err)
	}
	f.eng = eng
	return f
}

func (f *fixture) rule(t *testing.T, r *maintenance.Rule) *maintenance.Rule {
	t.Helper()
	if err := f.eng.CreateRule(context.Background(), r); err != nil {
		t.Fatal(err)
	}
	return r
}

func (f *fixture) pass(t *testing.T) *PassReport {
	t.Helper()
	report, err := f.eng.CheckAllRules(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	return report
}

func TestNewEngine_RequiresStore(t *testing.T) {
	_, err := NewEngine()
	if err == nil {
		t.Fatal("expected error when store is nil")
	}
}

func TestCheckAllRules_RequiresLookupAndPublisher(t *testing.T) {
	eng, err := NewEngine(WithStore(memory.New()))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := eng.CheckAllRules(context.Background()); !errors.Is(err, ErrNoLookup) {
		t.Fatalf("expected ErrNoLookup, got %v", err)
	}

	eng, _ = NewEngine(WithStore(memory.New()), WithLookup(assetmem.New()))
	if _, err := eng.CheckAllRules(context.Background()); !errors.Is(err, ErrNoPublisher) {
		t.Fatalf("expected ErrNoPublisher, got %v", err)
	}
}

func TestTruckDistanceFires(t *testing.T) {
	f := newFixture(t)
	f.assets.PutTruck(asset.Truck{ID: "T1", PlateNumber: "AB-123-CD", OdometerKm: 60000})
	r := f.rule(t, &maintenance.Rule{ResourceType: maintenance.ResourceTruck, ResourceID: "T1", IntervalKm: maintenance.Int(50000)})

	report := f.pass(t)

	sent := f.pub.Notifications()
	if len(sent) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(sent))
	}
	n := sent[0]
	if n.Audience != notify.AudienceAdmins || n.Event != notify.EventMaintenance {
		t.Fatalf("unexpected routing %s/%s", n.Audience, n.Event)
	}
	if n.Type != "truck" || n.AssetID != "T1" {
		t.Fatalf("payload type/id = %s/%s", n.Type, n.AssetID)
	}
	if want := "Maintenance alert: truck AB-123-CD reached interval 50000km"; n.Message != want {
		t.Fatalf("message = %q, want %q", n.Message, want)
	}
	if n.RuleID != r.ID.String() || n.Trigger != string(alertlog.TriggerDistance) {
		t.Fatalf("rule/trigger = %s/%s", n.RuleID, n.Trigger)
	}
	if report.Fired() != 1 || report.Evaluated != 1 || report.Rules != 1 {
		t.Fatalf("unexpected report %+v", report)
	}
	if !report.Alerts[0].Delivered {
		t.Fatal("expected alert to be marked delivered")
	}
}

func TestTireWearFires(t *testing.T) {
	f := newFixture(t)
	f.assets.PutTire(asset.Tire{ID: "R1", SerialNumber: "SN-991", WearLevel: 80})
	f.rule(t, &maintenance.Rule{ResourceType: maintenance.ResourceTire, ResourceID: "R1", IntervalKm: maintenance.Int(70)})

	f.pass(t)

	sent := f.pub.Notifications()
	if len(sent) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(sent))
	}
	if sent[0].Type != "tire" {
		t.Fatalf("type = %s, want tire", sent[0].Type)
	}
	if want := "Maintenance alert: tire SN-991 reached wear level 70"; sent[0].Message != want {
		t.Fatalf("message = %q, want %q", sent[0].Message, want)
	}
	if sent[0].Trigger != string(alertlog.TriggerWear) {
		t.Fatalf("trigger = %s, want wear", sent[0].Trigger)
	}
}

func TestDaysIntervalDueFires(t *testing.T) {
	f := newFixture(t)
	f.assets.PutTrailer(asset.Trailer{ID: "TR1", PlateNumber: "TR-77", Mileage: 10})
	f.rule(t, &maintenance.Rule{
		ResourceType: maintenance.ResourceTrailer,
		ResourceID:   "TR1",
		IntervalDays: maintenance.Int(30),
		LastRun:      maintenance.Time(testNow.AddDate(0, 0, -40)),
	})

	f.pass(t)

	sent := f.pub.Notifications()
	if len(sent) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(sent))
	}
	if want := "Maintenance alert: trailer TR-77 is due by days interval (30 days)"; sent[0].Message != want {
		t.Fatalf("message = %q, want %q", sent[0].Message, want)
	}
	if sent[0].Trigger != string(alertlog.TriggerDays) {
		t.Fatalf("trigger = %s, want days", sent[0].Trigger)
	}
}

func TestDaysIntervalNotDueIsQuiet(t *testing.T) {
	f := newFixture(t)
	f.assets.PutTrailer(asset.Trailer{ID: "TR1", PlateNumber: "TR-77"})
	f.rule(t, &maintenance.Rule{
		ResourceType: maintenance.ResourceTrailer,
		ResourceID:   "TR1",
		IntervalDays: maintenance.Int(30),
		LastRun:      maintenance.Time(testNow.AddDate(0, 0, -10)),
	})

	report := f.pass(t)

	if n := len(f.pub.Notifications()); n != 0 {
		t.Fatalf("expected no notification, got %d", n)
	}
	if report.Evaluated != 1 {
		t.Fatalf("expected rule to be evaluated, got %+v", report)
	}
}

func TestDaysIntervalBoundaryFires(t *testing.T) {
	f := newFixture(t)
	f.assets.PutTruck(asset.Truck{ID: "T1", PlateNumber: "P"})
	f.rule(t, &maintenance.Rule{
		ResourceType: maintenance.ResourceTruck,
		ResourceID:   "T1",
		IntervalDays: maintenance.Int(30),
		LastRun:      maintenance.Time(testNow.AddDate(0, 0, -30)),
	})

	f.pass(t)
	if n := len(f.pub.Notifications()); n != 1 {
		t.Fatalf("expected the rule to fire exactly at lastRun+interval, got %d", n)
	}
}

func TestDaysIntervalWithoutLastRunIsInert(t *testing.T) {
	f := newFixture(t)
	f.assets.PutTruck(asset.Truck{ID: "T1", PlateNumber: "P"})
	f.rule(t, &maintenance.Rule{ResourceType: maintenance.ResourceTruck, ResourceID: "T1", IntervalDays: maintenance.Int(1)})

	f.pass(t)
	if n := len(f.pub.Notifications()); n != 0 {
		t.Fatalf("expected no notification without lastRun, got %d", n)
	}
}

func TestThresholdMonotonicity(t *testing.T) {
	cases := []struct {
		name    string
		rt      maintenance.ResourceType
		put     func(*assetmem.Lookup, float64)
		measure float64
		fires   bool
	}{
		{"truck below", maintenance.ResourceTruck, putTruck, 49999, false},
		{"truck equal", maintenance.ResourceTruck, putTruck, 50000, true},
		{"truck above", maintenance.ResourceTruck, putTruck, 50001, true},
		{"trailer below", maintenance.ResourceTrailer, putTrailer, 49999.5, false},
		{"trailer equal", maintenance.ResourceTrailer, putTrailer, 50000, true},
		{"tire below", maintenance.ResourceTire, putTire, 69, false},
		{"tire above", maintenance.ResourceTire, putTire, 90, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			tc.put(f.assets, tc.measure)
			limit := 50000
			if tc.rt == maintenance.ResourceTire {
				limit = 70
			}
			f.rule(t, &maintenance.Rule{ResourceType: tc.rt, ResourceID: "A1", IntervalKm: maintenance.Int(limit)})

			f.pass(t)
			got := len(f.pub.Notifications())
			if tc.fires && got != 1 {
				t.Fatalf("expected 1 notification, got %d", got)
			}
			if !tc.fires && got != 0 {
				t.Fatalf("expected no notification, got %d", got)
			}
		})
	}
}

func putTruck(l *assetmem.Lookup, m float64) {
	l.PutTruck(asset.Truck{ID: "A1", PlateNumber: "P", OdometerKm: m})
}

func putTrailer(l *assetmem.Lookup, m float64) {
	l.PutTrailer(asset.Trailer{ID: "A1", PlateNumber: "P", Mileage: m})
}

func putTire(l *assetmem.Lookup, m float64) {
	l.PutTire(asset.Tire{ID: "A1", SerialNumber: "S", WearLevel: m})
}

func TestZeroIntervalIsInert(t *testing.T) {
	f := newFixture(t)
	f.assets.PutTruck(asset.Truck{ID: "T1", PlateNumber: "P", OdometerKm: 1000})
	f.rule(t, &maintenance.Rule{
		ResourceType: maintenance.ResourceTruck,
		ResourceID:   "T1",
		IntervalKm:   maintenance.Int(0),
		IntervalDays: maintenance.Int(0),
		LastRun:      maintenance.Time(testNow.AddDate(-1, 0, 0)),
	})

	f.pass(t)
	if n := len(f.pub.Notifications()); n != 0 {
		t.Fatalf("zero intervals must never fire, got %d", n)
	}
}

func TestIndependentTriggers(t *testing.T) {
	f := newFixture(t)
	f.assets.PutTruck(asset.Truck{ID: "T1", PlateNumber: "AB", OdometerKm: 60000})
	f.rule(t, &maintenance.Rule{
		ResourceType: maintenance.ResourceTruck,
		ResourceID:   "T1",
		IntervalKm:   maintenance.Int(50000),
		IntervalDays: maintenance.Int(30),
		LastRun:      maintenance.Time(testNow.AddDate(0, 0, -40)),
	})

	f.pass(t)

	sent := f.pub.Notifications()
	if len(sent) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(sent))
	}
	if sent[0].Trigger != string(alertlog.TriggerDistance) || sent[1].Trigger != string(alertlog.TriggerDays) {
		t.Fatalf("triggers = %s, %s", sent[0].Trigger, sent[1].Trigger)
	}
	if sent[0].Message == sent[1].Message {
		t.Fatal("expected distinct messages per trigger")
	}
}

func TestMissingAssetIsSkipped(t *testing.T) {
	f := newFixture(t)
	f.rule(t, &maintenance.Rule{ResourceType: maintenance.ResourceTruck, ResourceID: "ghost", IntervalKm: maintenance.Int(1)})

	report, err := f.eng.CheckAllRules(context.Background())
	if err != nil {
		t.Fatalf("missing asset must not fail the pass: %v", err)
	}
	if n := len(f.pub.Notifications()); n != 0 {
		t.Fatalf("expected no notification, got %d", n)
	}
	if report.Skipped != 1 || report.Failed != 0 {
		t.Fatalf("unexpected report %+v", report)
	}
}

// failingLookup fails every lookup of one asset id.
type failingLookup struct {
	asset.Lookup
	failID string
	err    error
}

func (l *failingLookup) FindTruck(ctx context.Context, truckID string) (*asset.Truck, error) {
	if truckID == l.failID {
		return nil, l.err
	}
	return l.Lookup.FindTruck(ctx, truckID)
}

func TestLookupFailureIsIsolated(t *testing.T) {
	f := newFixture(t)
	f.assets.PutTruck(asset.Truck{ID: "good", PlateNumber: "GOOD", OdometerKm: 100})
	f.eng.lookup = &failingLookup{Lookup: f.assets, failID: "bad", err: errors.New("connection reset")}

	f.rule(t, &maintenance.Rule{ResourceType: maintenance.ResourceTruck, ResourceID: "bad", IntervalKm: maintenance.Int(1)})
	f.rule(t, &maintenance.Rule{ResourceType: maintenance.ResourceTruck, ResourceID: "good", IntervalKm: maintenance.Int(1)})

	report := f.pass(t)

	sent := f.pub.Notifications()
	if len(sent) != 1 || sent[0].AssetID != "good" {
		t.Fatalf("expected the healthy rule to fire, got %v", sent)
	}
	if report.Failed != 1 || report.Evaluated != 1 {
		t.Fatalf("unexpected report %+v", report)
	}
}

// nilLookup reports a missing truck as (nil, nil) instead of ErrNotFound.
type nilLookup struct{ asset.Lookup }

func (l nilLookup) FindTruck(ctx context.Context, truckID string) (*asset.Truck, error) {
	if truckID == "gone" {
		return nil, nil
	}
	return l.Lookup.FindTruck(ctx, truckID)
}

func TestNilAssetIsSkipped(t *testing.T) {
	f := newFixture(t)
	f.assets.PutTruck(asset.Truck{ID: "good", PlateNumber: "GOOD", OdometerKm: 100})
	f.eng.lookup = nilLookup{Lookup: f.assets}

	f.rule(t, &maintenance.Rule{ResourceType: maintenance.ResourceTruck, ResourceID: "gone", IntervalKm: maintenance.Int(1)})
	f.rule(t, &maintenance.Rule{ResourceType: maintenance.ResourceTruck, ResourceID: "good", IntervalKm: maintenance.Int(1)})

	report := f.pass(t)

	if report.Skipped != 1 || report.Failed != 0 || report.Evaluated != 1 {
		t.Fatalf("unexpected report %+v", report)
	}
	if sent := f.pub.Notifications(); len(sent) != 1 || sent[0].AssetID != "good" {
		t.Fatalf("expected the healthy rule to fire, got %v", sent)
	}
}

// panicEvaluator panics for one asset and defers to the default otherwise.
type panicEvaluator struct{ next Evaluator }

func (p panicEvaluator) Evaluate(ctx context.Context, r *maintenance.Rule, snap asset.Snapshot, now time.Time) ([]*Alert, error) {
	if r.ResourceID == "boom" {
		panic("evaluator bug")
	}
	return p.next.Evaluate(ctx, r, snap, now)
}

func TestPanickingRuleIsIsolated(t *testing.T) {
	for _, workers := range []int{1, 4} {
		f := newFixture(t,
			WithEvaluator(panicEvaluator{next: DefaultEvaluator()}),
			WithConfig(Config{Concurrency: workers}),
		)
		f.assets.PutTruck(asset.Truck{ID: "boom", PlateNumber: "BOOM", OdometerKm: 100})
		f.assets.PutTruck(asset.Truck{ID: "good", PlateNumber: "GOOD", OdometerKm: 100})
		f.rule(t, &maintenance.Rule{ResourceType: maintenance.ResourceTruck, ResourceID: "boom", IntervalKm: maintenance.Int(1)})
		f.rule(t, &maintenance.Rule{ResourceType: maintenance.ResourceTruck, ResourceID: "good", IntervalKm: maintenance.Int(1)})

		report := f.pass(t)

		if report.Failed != 1 || report.Evaluated != 1 {
			t.Fatalf("workers=%d: unexpected report %+v", workers, report)
		}
		if sent := f.pub.Notifications(); len(sent) != 1 || sent[0].AssetID != "good" {
			t.Fatalf("workers=%d: expected the healthy rule to fire, got %v", workers, sent)
		}
	}
}

// blockingLookup blocks every lookup until its context ends.
type blockingLookup struct{ asset.Lookup }

func (l blockingLookup) FindTruck(ctx context.Context, _ string) (*asset.Truck, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestLookupTimeout(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LookupTimeout = 20 * time.Millisecond
	f := newFixture(t, WithConfig(cfg))
	f.eng.lookup = blockingLookup{Lookup: f.assets}
	f.assets.PutTire(asset.Tire{ID: "R1", SerialNumber: "S", WearLevel: 99})

	f.rule(t, &maintenance.Rule{ResourceType: maintenance.ResourceTruck, ResourceID: "slow", IntervalKm: maintenance.Int(1)})
	f.rule(t, &maintenance.Rule{ResourceType: maintenance.ResourceTire, ResourceID: "R1", IntervalKm: maintenance.Int(50)})

	report := f.pass(t)
	if report.Failed != 1 {
		t.Fatalf("expected the slow lookup to be isolated, got %+v", report)
	}
	if n := len(f.pub.Notifications()); n != 1 {
		t.Fatalf("expected the tire rule to fire, got %d", n)
	}
}

func TestReFireWithoutWatermark(t *testing.T) {
	f := newFixture(t)
	f.assets.PutTruck(asset.Truck{ID: "T1", PlateNumber: "AB", OdometerKm: 60000})
	r := f.rule(t, &maintenance.Rule{
		ResourceType: maintenance.ResourceTruck,
		ResourceID:   "T1",
		IntervalKm:   maintenance.Int(50000),
		IntervalDays: maintenance.Int(30),
		LastRun:      maintenance.Time(testNow.AddDate(0, 0, -40)),
	})

	f.pass(t)
	first := f.pub.Notifications()
	f.pub.Reset()
	f.pass(t)
	second := f.pub.Notifications()

	if len(first) != 2 || len(second) != 2 {
		t.Fatalf("expected 2 notifications per pass, got %d then %d", len(first), len(second))
	}
	for i := range first {
		if first[i].Message != second[i].Message {
			t.Fatalf("pass %d message %q != %q", i, first[i].Message, second[i].Message)
		}
	}

	stored, err := f.eng.GetRule(context.Background(), r.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !stored.LastRun.Equal(*r.LastRun) {
		t.Fatal("a pass must not advance lastRun")
	}
}

func TestPublishFailureDoesNotStopPass(t *testing.T) {
	f := newFixture(t)
	f.pub.FailWith(errors.New("socket closed"))
	f.assets.PutTruck(asset.Truck{ID: "T1", PlateNumber: "A", OdometerKm: 10})
	f.assets.PutTruck(asset.Truck{ID: "T2", PlateNumber: "B", OdometerKm: 10})
	f.rule(t, &maintenance.Rule{ResourceType: maintenance.ResourceTruck, ResourceID: "T1", IntervalKm: maintenance.Int(1)})
	f.rule(t, &maintenance.Rule{ResourceType: maintenance.ResourceTruck, ResourceID: "T2", IntervalKm: maintenance.Int(1)})

	report := f.pass(t)
	if report.PublishFailed != 2 || report.Fired() != 2 {
		t.Fatalf("unexpected report %+v", report)
	}
	for _, a := range report.Alerts {
		if a.Delivered {
			t.Fatal("failed publish must not be marked delivered")
		}
	}
}

func TestAlertLogRecordsFirings(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.assets.PutTruck(asset.Truck{ID: "T1", PlateNumber: "AB", OdometerKm: 60000})
	r := f.rule(t, &maintenance.Rule{ResourceType: maintenance.ResourceTruck, ResourceID: "T1", IntervalKm: maintenance.Int(50000)})

	f.pass(t)
	f.pass(t)

	entries, total, err := f.eng.ListAlerts(ctx, &alertlog.QueryFilter{RuleID: &r.ID})
	if err != nil {
		t.Fatal(err)
	}
	if total != 2 || len(entries) != 2 {
		t.Fatalf("expected one entry per pass, got %d", total)
	}
	if entries[0].Trigger != alertlog.TriggerDistance || !entries[0].Delivered {
		t.Fatalf("unexpected entry %+v", entries[0])
	}
}

func TestAlertLogDisabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DisableAlertLog = true
	f := newFixture(t, WithConfig(cfg))
	f.assets.PutTruck(asset.Truck{ID: "T1", PlateNumber: "AB", OdometerKm: 60000})
	f.rule(t, &maintenance.Rule{ResourceType: maintenance.ResourceTruck, ResourceID: "T1", IntervalKm: maintenance.Int(50000)})

	f.pass(t)

	_, total, err := f.eng.ListAlerts(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if total != 0 {
		t.Fatalf("expected no entries, got %d", total)
	}
	if len(f.pub.Notifications()) != 1 {
		t.Fatal("disabling the log must not stop notifications")
	}
}

// cancellingLookup cancels the pass context on its first lookup.
type cancellingLookup struct {
	asset.Lookup
	cancel context.CancelFunc
}

func (l *cancellingLookup) FindTruck(ctx context.Context, truckID string) (*asset.Truck, error) {
	l.cancel()
	return l.Lookup.FindTruck(context.WithoutCancel(ctx), truckID)
}

func TestCancellationBetweenRules(t *testing.T) {
	f := newFixture(t)
	for _, tid := range []string{"T1", "T2", "T3"} {
		f.assets.PutTruck(asset.Truck{ID: tid, PlateNumber: tid, OdometerKm: 10})
		f.rule(t, &maintenance.Rule{ResourceType: maintenance.ResourceTruck, ResourceID: tid, IntervalKm: maintenance.Int(1)})
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f.eng.lookup = &cancellingLookup{Lookup: f.assets, cancel: cancel}

	report, err := f.eng.CheckAllRules(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if report == nil {
		t.Fatal("expected a partial report")
	}
	if report.Evaluated != 1 || report.Rules != 3 {
		t.Fatalf("expected the pass to stop after the first rule, got %+v", report)
	}
}

func TestCancelledBeforeStart(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	report, err := f.eng.CheckAllRules(ctx)
	if !errors.Is(err, context.Canceled) || report != nil {
		t.Fatalf("expected nil report and context.Canceled, got %v, %v", report, err)
	}
}

func TestParallelPass(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Concurrency = 4
	f := newFixture(t, WithConfig(cfg))
	for i := range 12 {
		tid := "T" + strings.Repeat("x", i)
		f.assets.PutTruck(asset.Truck{ID: tid, PlateNumber: tid, OdometerKm: 100})
		f.rule(t, &maintenance.Rule{ResourceType: maintenance.ResourceTruck, ResourceID: tid, IntervalKm: maintenance.Int(50)})
	}
	f.rule(t, &maintenance.Rule{ResourceType: maintenance.ResourceTruck, ResourceID: "ghost", IntervalKm: maintenance.Int(50)})

	report := f.pass(t)
	if report.Fired() != 12 || report.Evaluated != 12 || report.Skipped != 1 {
		t.Fatalf("unexpected report %+v", report)
	}
	if n := len(f.pub.Notifications()); n != 12 {
		t.Fatalf("expected 12 notifications, got %d", n)
	}
}

// countingLookup counts truck lookups.
type countingLookup struct {
	asset.Lookup
	calls atomic.Int32
}

func (l *countingLookup) FindTruck(ctx context.Context, truckID string) (*asset.Truck, error) {
	l.calls.Add(1)
	return l.Lookup.FindTruck(ctx, truckID)
}

// mapCache is a minimal Cache without expiry.
type mapCache struct {
	mu sync.Mutex
	m  map[string]asset.Snapshot
}

func (c *mapCache) key(kind asset.Kind, assetID string) string { return string(kind) + "/" + assetID }

func (c *mapCache) Get(_ context.Context, kind asset.Kind, assetID string) (asset.Snapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.m[c.key(kind, assetID)]
	return s, ok
}

func (c *mapCache) Set(_ context.Context, snap asset.Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[c.key(snap.Kind(), snap.AssetID())] = snap
}

func (c *mapCache) Invalidate(_ context.Context, kind asset.Kind, assetID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.m, c.key(kind, assetID))
}

func (c *mapCache) Purge(context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m = map[string]asset.Snapshot{}
}

func TestSnapshotCache(t *testing.T) {
	f := newFixture(t, WithCache(&mapCache{m: map[string]asset.Snapshot{}}))
	counting := &countingLookup{Lookup: f.assets}
	f.eng.lookup = counting
	f.assets.PutTruck(asset.Truck{ID: "T1", PlateNumber: "AB", OdometerKm: 10})
	f.rule(t, &maintenance.Rule{ResourceType: maintenance.ResourceTruck, ResourceID: "T1", IntervalKm: maintenance.Int(1)})
	f.rule(t, &maintenance.Rule{ResourceType: maintenance.ResourceTruck, ResourceID: "T1", IntervalKm: maintenance.Int(5)})

	f.pass(t)
	f.pass(t)

	if got := counting.calls.Load(); got != 1 {
		t.Fatalf("expected 1 lookup with cache, got %d", got)
	}
	if n := len(f.pub.Notifications()); n != 4 {
		t.Fatalf("expected 4 notifications, got %d", n)
	}
}

// recordingPlugin captures pass hooks.
type recordingPlugin struct {
	mu      sync.Mutex
	before  []int
	after   []*PassReport
	fired   []*Alert
	skipped []string
}

func (p *recordingPlugin) Name() string { return "recorder" }

func (p *recordingPlugin) OnBeforePass(_ context.Context, rules int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.before = append(p.before, rules)
	return nil
}

func (p *recordingPlugin) OnAfterPass(_ context.Context, report any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.after = append(p.after, report.(*PassReport))
	return nil
}

func (p *recordingPlugin) OnAlertFired(_ context.Context, alert any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.fired = append(p.fired, alert.(*Alert))
	return nil
}

func (p *recordingPlugin) OnAssetSkipped(_ context.Context, r *maintenance.Rule, _ error) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.skipped = append(p.skipped, r.ResourceID)
	return nil
}

func TestPassHooks(t *testing.T) {
	rec := &recordingPlugin{}
	f := newFixture(t, WithPlugin(rec))
	f.assets.PutTruck(asset.Truck{ID: "T1", PlateNumber: "AB", OdometerKm: 10})
	f.rule(t, &maintenance.Rule{ResourceType: maintenance.ResourceTruck, ResourceID: "T1", IntervalKm: maintenance.Int(1)})
	f.rule(t, &maintenance.Rule{ResourceType: maintenance.ResourceTruck, ResourceID: "ghost", IntervalKm: maintenance.Int(1)})

	report := f.pass(t)

	if len(rec.before) != 1 || rec.before[0] != 2 {
		t.Fatalf("OnBeforePass got %v", rec.before)
	}
	if len(rec.after) != 1 || rec.after[0] != report {
		t.Fatal("OnAfterPass must receive the returned report")
	}
	if len(rec.fired) != 1 || rec.fired[0].ResourceID != "T1" {
		t.Fatalf("OnAlertFired got %v", rec.fired)
	}
	if len(rec.skipped) != 1 || rec.skipped[0] != "ghost" {
		t.Fatalf("OnAssetSkipped got %v", rec.skipped)
	}
}

// ──────────────────────────────────────────────────
// Service
// ──────────────────────────────────────────────────

func TestMissingRuleIsNotFound(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	missing := id.NewRuleID()

	if _, err := f.eng.GetRule(ctx, missing); !errors.Is(err, ErrRuleNotFound) {
		t.Fatalf("GetRule: expected ErrRuleNotFound, got %v", err)
	}
	if err := f.eng.DeleteRule(ctx, missing); !errors.Is(err, ErrRuleNotFound) {
		t.Fatalf("DeleteRule: expected ErrRuleNotFound, got %v", err)
	}
	if _, err := f.eng.UpdateRule(ctx, missing, &maintenance.Patch{Description: ptr("x")}); !errors.Is(err, ErrRuleNotFound) {
		t.Fatalf("UpdateRule: expected ErrRuleNotFound, got %v", err)
	}
}

func TestCreateRuleValidation(t *testing.T) {
	f := newFixture(t)
	cases := []struct {
		name string
		rule maintenance.Rule
		want error
	}{
		{"bad type", maintenance.Rule{ResourceType: "boat", ResourceID: "x"}, ErrInvalidResourceType},
		{"no id", maintenance.Rule{ResourceType: maintenance.ResourceTruck, ResourceID: "  "}, ErrInvalidResourceID},
		{"negative km", maintenance.Rule{ResourceType: maintenance.ResourceTruck, ResourceID: "x", IntervalKm: maintenance.Int(-1)}, ErrInvalidInterval},
		{"negative days", maintenance.Rule{ResourceType: maintenance.ResourceTire, ResourceID: "x", IntervalDays: maintenance.Int(-5)}, ErrInvalidInterval},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := tc.rule
			if err := f.eng.CreateRule(context.Background(), &r); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}

	// No interval at all is accepted by default.
	if err := f.eng.CreateRule(context.Background(), &maintenance.Rule{ResourceType: maintenance.ResourceTruck, ResourceID: "x"}); err != nil {
		t.Fatalf("expected rule without intervals to be accepted, got %v", err)
	}
}

func TestRequireInterval(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RequireInterval = true
	f := newFixture(t, WithConfig(cfg))

	err := f.eng.CreateRule(context.Background(), &maintenance.Rule{ResourceType: maintenance.ResourceTruck, ResourceID: "x", IntervalKm: maintenance.Int(0)})
	if !errors.Is(err, ErrIntervalRequired) {
		t.Fatalf("expected ErrIntervalRequired, got %v", err)
	}
}

func TestRuleLifecycle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	r := f.rule(t, &maintenance.Rule{ResourceType: maintenance.ResourceTruck, ResourceID: "T1", IntervalKm: maintenance.Int(10000)})
	if r.ID.IsNil() || r.ID.Prefix() != id.PrefixRule {
		t.Fatalf("expected a generated rule id, got %q", r.ID)
	}

	got, err := f.eng.GetRule(ctx, r.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.ResourceID != "T1" || *got.IntervalKm != 10000 {
		t.Fatalf("unexpected rule %+v", got)
	}

	lastRun := testNow.AddDate(0, -1, 0)
	updated, err := f.eng.UpdateRule(ctx, r.ID, &maintenance.Patch{
		IntervalDays: maintenance.Int(90),
		LastRun:      &lastRun,
	})
	if err != nil {
		t.Fatal(err)
	}
	if *updated.IntervalDays != 90 || *updated.IntervalKm != 10000 {
		t.Fatalf("patch must merge fields, got %+v", updated)
	}

	if _, err := f.eng.UpdateRule(ctx, r.ID, &maintenance.Patch{IntervalKm: maintenance.Int(-3)}); !errors.Is(err, ErrInvalidInterval) {
		t.Fatalf("expected ErrInvalidInterval, got %v", err)
	}

	rules, err := f.eng.ListRules(ctx, &maintenance.ListFilter{ResourceType: maintenance.ResourceTruck})
	if err != nil {
		t.Fatal(err)
	}
	if len(rules) != 1 {
		t.Fatalf("expected 1 truck rule, got %d", len(rules))
	}

	if err := f.eng.DeleteRule(ctx, r.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := f.eng.GetRule(ctx, r.ID); !errors.Is(err, ErrRuleNotFound) {
		t.Fatalf("expected ErrRuleNotFound after delete, got %v", err)
	}
}

func TestNotify(t *testing.T) {
	f := newFixture(t)
	n := notify.New(notify.AudienceAdmins, notify.EventSystem, "hello")
	if err := f.eng.Notify(context.Background(), n); err != nil {
		t.Fatal(err)
	}
	if len(f.pub.Notifications()) != 1 {
		t.Fatal("expected the notification to be published")
	}

	eng, _ := NewEngine(WithStore(memory.New()))
	if err := eng.Notify(context.Background(), n); !errors.Is(err, ErrNoPublisher) {
		t.Fatalf("expected ErrNoPublisher, got %v", err)
	}
}

func ptr[T any](v T) *T { return &v }
