package api

import (
	"time"
)

// ──────────────────────────────────────────────────
// Maintenance rule requests
// ──────────────────────────────────────────────────

// CreateRuleRequest is the body for creating a maintenance rule.
type CreateRuleRequest struct {
	ResourceType string     `json:"resourceType" description:"Asset collection (truck, trailer, tire)"`
	ResourceID   string     `json:"resourceId" description:"Asset identifier"`
	IntervalKm   *int       `json:"intervalKm,omitempty" description:"Kilometre threshold, or wear level for tires"`
	IntervalDays *int       `json:"intervalDays,omitempty" description:"Calendar days between services"`
	LastRun      *time.Time `json:"lastRun,omitempty" description:"Last service time (RFC3339)"`
	Description  string     `json:"description,omitempty" description:"Human-readable description"`
}

// UpdateRuleRequest is the body for patching a maintenance rule. Omitted
// fields are left unchanged.
type UpdateRuleRequest struct {
	ResourceType *string    `json:"resourceType,omitempty" description:"Asset collection"`
	ResourceID   *string    `json:"resourceId,omitempty" description:"Asset identifier"`
	IntervalKm   *int       `json:"intervalKm,omitempty" description:"Kilometre threshold, or wear level for tires"`
	IntervalDays *int       `json:"intervalDays,omitempty" description:"Calendar days between services"`
	LastRun      *time.Time `json:"lastRun,omitempty" description:"Last service time (RFC3339)"`
	ClearLastRun bool       `json:"clearLastRun,omitempty" description:"Reset lastRun to unset"`
	Description  *string    `json:"description,omitempty" description:"Human-readable description"`
}

// GetRuleRequest is the path parameter for a single rule.
type GetRuleRequest struct {
	RuleID string `path:"ruleId" description:"Maintenance rule ID"`
}

// ListRulesRequest holds query parameters for listing rules.
type ListRulesRequest struct {
	ResourceType string `query:"resource_type" description:"Filter by asset collection"`
	ResourceID   string `query:"resource_id" description:"Filter by asset identifier"`
	Limit        int    `query:"limit" description:"Maximum results (default: 50)"`
	Offset       int    `query:"offset" description:"Results to skip"`
}

// CheckRulesRequest triggers an on-demand evaluation pass. It has no fields.
type CheckRulesRequest struct{}

// ──────────────────────────────────────────────────
// Alert log requests
// ──────────────────────────────────────────────────

// ListAlertsRequest holds query parameters for the alert audit log.
type ListAlertsRequest struct {
	RuleID       string `query:"rule_id" description:"Filter by rule ID"`
	ResourceType string `query:"resource_type" description:"Filter by asset collection"`
	ResourceID   string `query:"resource_id" description:"Filter by asset identifier"`
	Trigger      string `query:"trigger" description:"Filter by trigger (distance, wear, days)"`
	After        string `query:"after" description:"Only alerts fired at or after (RFC3339)"`
	Before       string `query:"before" description:"Only alerts fired at or before (RFC3339)"`
	Limit        int    `query:"limit" description:"Maximum results (default: 50)"`
	Offset       int    `query:"offset" description:"Results to skip"`
}

// ──────────────────────────────────────────────────
// Notification requests
// ──────────────────────────────────────────────────

// TestNotificationRequest is the body for sending a test notification.
type TestNotificationRequest struct {
	Message string `json:"message" description:"Notification text"`
	Type    string `json:"type,omitempty" description:"Notification kind (maintenance, trip, system); default system"`
}

// HealthRequest is the empty request for the health probe.
type HealthRequest struct{}
