package tracktruck

import "github.com/Taha-mlaiki/TrackTruck/id"

// ID is the primary identifier type for all TrackTruck entities.
type ID = id.ID

// RuleID identifies a maintenance rule.
type RuleID = id.RuleID

// ParseRuleID parses a "mrule_" identifier.
func ParseRuleID(s string) (RuleID, error) { return id.ParseRuleID(s) }
