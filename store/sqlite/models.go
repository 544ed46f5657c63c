package sqlite

import (
	"time"

	"github.com/xraph/grove"

	"github.com/Taha-mlaiki/TrackTruck/alertlog"
	"github.com/Taha-mlaiki/TrackTruck/id"
	"github.com/Taha-mlaiki/TrackTruck/maintenance"
)

// ──────────────────────────────────────────────────
// Maintenance rule model
// ──────────────────────────────────────────────────

type ruleModel struct {
	grove.BaseModel `grove:"table:tracktruck_maintenance_rules"`
	ID              string     `grove:"id,pk"`
	ResourceType    string     `grove:"resource_type,notnull"`
	ResourceID      string     `grove:"resource_id,notnull"`
	IntervalKm      *int       `grove:"interval_km"`
	IntervalDays    *int       `grove:"interval_days"`
	LastRun         *time.Time `grove:"last_run"`
	Description     string     `grove:"description"`
	CreatedAt       time.Time  `grove:"created_at,notnull"`
	UpdatedAt       time.Time  `grove:"updated_at,notnull"`
}

func ruleToModel(r *maintenance.Rule) *ruleModel {
	m := &ruleModel{
		ID:           r.ID.String(),
		ResourceType: string(r.ResourceType),
		ResourceID:   r.ResourceID,
		IntervalKm:   r.IntervalKm,
		IntervalDays: r.IntervalDays,
		Description:  r.Description,
		CreatedAt:    r.CreatedAt.UTC(),
		UpdatedAt:    r.UpdatedAt.UTC(),
	}
	// SQLite keeps timestamps as text, so normalise to UTC before writing.
	if r.LastRun != nil {
		t := r.LastRun.UTC()
		m.LastRun = &t
	}
	return m
}

func ruleFromModel(m *ruleModel) *maintenance.Rule {
	rid, _ := id.ParseRuleID(m.ID) //nolint:errcheck // stored IDs are always valid
	return &maintenance.Rule{
		ID:           rid,
		ResourceType: maintenance.ResourceType(m.ResourceType),
		ResourceID:   m.ResourceID,
		IntervalKm:   m.IntervalKm,
		IntervalDays: m.IntervalDays,
		LastRun:      m.LastRun,
		Description:  m.Description,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

// ──────────────────────────────────────────────────
// Alert log model
// ──────────────────────────────────────────────────

type alertModel struct {
	grove.BaseModel `grove:"table:tracktruck_alerts"`
	ID              string    `grove:"id,pk"`
	RuleID          string    `grove:"rule_id,notnull"`
	ResourceType    string    `grove:"resource_type,notnull"`
	ResourceID      string    `grove:"resource_id,notnull"`
	Trigger         string    `grove:"trigger_kind,notnull"`
	Message         string    `grove:"message,notnull"`
	Delivered       bool      `grove:"delivered,notnull"`
	FiredAt         time.Time `grove:"fired_at,notnull"`
}

func alertToModel(e *alertlog.Entry) *alertModel {
	return &alertModel{
		ID:           e.ID.String(),
		RuleID:       e.RuleID.String(),
		ResourceType: e.ResourceType,
		ResourceID:   e.ResourceID,
		Trigger:      string(e.Trigger),
		Message:      e.Message,
		Delivered:    e.Delivered,
		FiredAt:      e.FiredAt.UTC(),
	}
}

func alertFromModel(m *alertModel) *alertlog.Entry {
	aid, _ := id.ParseAlertID(m.ID)    //nolint:errcheck // stored IDs are always valid
	rid, _ := id.ParseRuleID(m.RuleID) //nolint:errcheck // stored IDs are always valid
	return &alertlog.Entry{
		ID:           aid,
		RuleID:       rid,
		ResourceType: m.ResourceType,
		ResourceID:   m.ResourceID,
		Trigger:      alertlog.Trigger(m.Trigger),
		Message:      m.Message,
		Delivered:    m.Delivered,
		FiredAt:      m.FiredAt,
	}
}
