package mongo

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
	ID              string     `grove:"id,pk"         bson:"_id"`
	ResourceType    string     `grove:"resource_type" bson:"resource_type"`
	ResourceID      string     `grove:"resource_id"   bson:"resource_id"`
	IntervalKm      *int       `grove:"interval_km"   bson:"interval_km,omitempty"`
	IntervalDays    *int       `grove:"interval_days" bson:"interval_days,omitempty"`
	LastRun         *time.Time `grove:"last_run"      bson:"last_run,omitempty"`
	Description     string     `grove:"description"   bson:"description"`
	CreatedAt       time.Time  `grove:"created_at"    bson:"created_at"`
	UpdatedAt       time.Time  `grove:"updated_at"    bson:"updated_at"`
}

func ruleToModel(r *maintenance.Rule) *ruleModel {
	return &ruleModel{
		ID:           r.ID.String(),
		ResourceType: string(r.ResourceType),
		ResourceID:   r.ResourceID,
		IntervalKm:   r.IntervalKm,
		IntervalDays: r.IntervalDays,
		LastRun:      r.LastRun,
		Description:  r.Description,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
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
	ID              string    `grove:"id,pk"         bson:"_id"`
	RuleID          string    `grove:"rule_id"       bson:"rule_id"`
	ResourceType    string    `grove:"resource_type" bson:"resource_type"`
	ResourceID      string    `grove:"resource_id"   bson:"resource_id"`
	Trigger         string    `grove:"trigger"       bson:"trigger"`
	Message         string    `grove:"message"       bson:"message"`
	Delivered       bool      `grove:"delivered"     bson:"delivered"`
	FiredAt         time.Time `grove:"fired_at"      bson:"fired_at"`
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
		FiredAt:      e.FiredAt,
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
