package maintenance

import "time"

// Patch is a partial update. Nil fields are left untouched.
type Patch struct {
	ResourceType *ResourceType `json:"resourceType,omitempty"`
	ResourceID   *string       `json:"resourceId,omitempty"`
	IntervalKm   *int          `json:"intervalKm,omitempty"`
	IntervalDays *int          `json:"intervalDays,omitempty"`
	LastRun      *time.Time    `json:"lastRun,omitempty"`
	Description  *string       `json:"description,omitempty"`

	// ClearLastRun resets LastRun to unset. It wins over LastRun.
	ClearLastRun bool `json:"clearLastRun,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p *Patch) IsEmpty() bool {
	return p.ResourceType == nil && p.ResourceID == nil && p.IntervalKm == nil &&
		p.IntervalDays == nil && p.LastRun == nil && p.Description == nil && !p.ClearLastRun
}

// Apply merges the set fields of p into r.
func (p *Patch) Apply(r *Rule) {
	if p.ResourceType != nil {
		r.ResourceType = *p.ResourceType
	}
	if p.ResourceID != nil {
		r.ResourceID = *p.ResourceID
	}
	if p.IntervalKm != nil {
		v := *p.IntervalKm
		r.IntervalKm = &v
	}
	if p.IntervalDays != nil {
		v := *p.IntervalDays
		r.IntervalDays = &v
	}
	if p.LastRun != nil {
		v := *p.LastRun
		r.LastRun = &v
	}
	if p.ClearLastRun {
		r.LastRun = nil
	}
	if p.Description != nil {
		r.Description = *p.Description
	}
}
