// Package metrics exports Prometheus metrics for maintenance passes. Metrics
// is a plugin: register it with tracktruck.WithPlugin.
package metrics

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Taha-mlaiki/TrackTruck"
	"github.com/Taha-mlaiki/TrackTruck/asset"
	"github.com/Taha-mlaiki/TrackTruck/maintenance"
	"github.com/Taha-mlaiki/TrackTruck/plugin"
)

// Skip reasons reported on tracktruck_rules_skipped_total.
const (
	ReasonNotFound    = "not_found"
	ReasonLookupError = "lookup_error"
)

var (
	_ plugin.Plugin       = (*Metrics)(nil)
	_ plugin.AfterPass    = (*Metrics)(nil)
	_ plugin.AlertFired   = (*Metrics)(nil)
	_ plugin.AssetSkipped = (*Metrics)(nil)
)

// Metrics holds the collectors.
type Metrics struct {
	alertsFired    *prometheus.CounterVec
	rulesSkipped   *prometheus.CounterVec
	passes         prometheus.Counter
	passDuration   prometheus.Histogram
	rulesEvaluated prometheus.Gauge
}

// NewMetrics creates the collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		alertsFired: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tracktruck_alerts_fired_total",
			Help: "Maintenance alerts fired, by resource type and trigger.",
		}, []string{"resource_type", "trigger"}),
		rulesSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tracktruck_rules_skipped_total",
			Help: "Rules whose asset could not be resolved, by reason.",
		}, []string{"reason"}),
		passes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tracktruck_passes_total",
			Help: "Completed or interrupted evaluation passes.",
		}),
		passDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "tracktruck_pass_duration_seconds",
			Help:    "Wall time of an evaluation pass.",
			Buckets: prometheus.DefBuckets,
		}),
		rulesEvaluated: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tracktruck_rules_evaluated",
			Help: "Rules evaluated in the most recent pass.",
		}),
	}

	for _, c := range []prometheus.Collector{m.alertsFired, m.rulesSkipped, m.passes, m.passDuration, m.rulesEvaluated} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("tracktruck/metrics: register: %w", err)
		}
	}
	return m, nil
}

// Name implements plugin.Plugin.
func (m *Metrics) Name() string { return "prometheus" }

// OnAfterPass records pass count, duration and evaluated rules.
func (m *Metrics) OnAfterPass(_ context.Context, report any) error {
	r, ok := report.(*tracktruck.PassReport)
	if !ok {
		return fmt.Errorf("tracktruck/metrics: unexpected report type %T", report)
	}
	m.passes.Inc()
	m.passDuration.Observe(r.Duration().Seconds())
	m.rulesEvaluated.Set(float64(r.Evaluated))
	return nil
}

// OnAlertFired counts one alert.
func (m *Metrics) OnAlertFired(_ context.Context, alert any) error {
	a, ok := alert.(*tracktruck.Alert)
	if !ok {
		return fmt.Errorf("tracktruck/metrics: unexpected alert type %T", alert)
	}
	m.alertsFired.WithLabelValues(string(a.ResourceType), string(a.Trigger)).Inc()
	return nil
}

// OnAssetSkipped counts a rule whose asset was missing or failed to load.
func (m *Metrics) OnAssetSkipped(_ context.Context, _ *maintenance.Rule, err error) error {
	reason := ReasonLookupError
	if errors.Is(err, asset.ErrNotFound) {
		reason = ReasonNotFound
	}
	m.rulesSkipped.WithLabelValues(reason).Inc()
	return nil
}
