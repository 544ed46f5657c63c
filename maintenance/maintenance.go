// Package maintenance defines the maintenance Rule entity: a threshold under
// which a truck, trailer or tire needs attention.
package maintenance

import (
	"errors"
	"time"

	"github.com/Taha-mlaiki/TrackTruck/id"
)

// ErrNotFound is wrapped by store backends when a rule does not exist.
var ErrNotFound = errors.New("maintenance: rule not found")

// ResourceType names the asset collection a rule points into.
type ResourceType string

const (
	ResourceTruck   ResourceType = "truck"
	ResourceTrailer ResourceType = "trailer"
	ResourceTire    ResourceType = "tire"
)

// ResourceTypes lists every supported resource type.
var ResourceTypes = []ResourceType{ResourceTruck, ResourceTrailer, ResourceTire}

// Valid reports whether t is one of the supported resource types.
func (t ResourceType) Valid() bool {
	switch t {
	case ResourceTruck, ResourceTrailer, ResourceTire:
		return true
	default:
		return false
	}
}

// Rule is a maintenance rule for a single asset.
//
// IntervalKm is a kilometre threshold for trucks and trailers and a wear
// percentage (0-100) for tires. Use Threshold to read it with its unit.
type Rule struct {
	ID           id.RuleID    `json:"id" db:"id"`
	ResourceType ResourceType `json:"resourceType" db:"resource_type"`
	ResourceID   string       `json:"resourceId" db:"resource_id"`
	IntervalKm   *int         `json:"intervalKm,omitempty" db:"interval_km"`
	IntervalDays *int         `json:"intervalDays,omitempty" db:"interval_days"`
	LastRun      *time.Time   `json:"lastRun,omitempty" db:"last_run"`
	Description  string       `json:"description,omitempty" db:"description"`
	CreatedAt    time.Time    `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time    `json:"updatedAt" db:"updated_at"`
}

// Threshold returns the distance or wear threshold of the rule, or nil when
// IntervalKm is unset or zero. A zero interval never fires.
func (r *Rule) Threshold() Threshold {
	if r.IntervalKm == nil || *r.IntervalKm <= 0 {
		return nil
	}
	if r.ResourceType == ResourceTire {
		return WearThreshold{Percent: *r.IntervalKm}
	}
	return DistanceThreshold{Km: *r.IntervalKm}
}

// DaysInterval returns the day interval and the last service time. ok is
// false unless both are set and the interval is positive.
func (r *Rule) DaysInterval() (days int, lastRun time.Time, ok bool) {
	if r.IntervalDays == nil || *r.IntervalDays <= 0 || r.LastRun == nil {
		return 0, time.Time{}, false
	}
	return *r.IntervalDays, *r.LastRun, true
}

// NextDue returns LastRun plus IntervalDays calendar days.
func (r *Rule) NextDue() (time.Time, bool) {
	days, last, ok := r.DaysInterval()
	if !ok {
		return time.Time{}, false
	}
	return last.AddDate(0, 0, days), true
}

// HasTrigger reports whether the rule can ever fire.
func (r *Rule) HasTrigger() bool {
	return r.Threshold() != nil || (r.IntervalDays != nil && *r.IntervalDays > 0)
}

// Clone returns a deep copy of r.
func (r *Rule) Clone() *Rule {
	c := *r
	if r.IntervalKm != nil {
		v := *r.IntervalKm
		c.IntervalKm = &v
	}
	if r.IntervalDays != nil {
		v := *r.IntervalDays
		c.IntervalDays = &v
	}
	if r.LastRun != nil {
		v := *r.LastRun
		c.LastRun = &v
	}
	return &c
}

// ListFilter contains filters for listing rules.
type ListFilter struct {
	ResourceType ResourceType `json:"resource_type,omitempty"`
	ResourceID   string       `json:"resource_id,omitempty"`
	Limit        int          `json:"limit,omitempty"`
	Offset       int          `json:"offset,omitempty"`
}

// Int returns a pointer to v. Handy for building rules in code.
func Int(v int) *int { return &v }

// Time returns a pointer to t.
func Time(t time.Time) *time.Time { return &t }
