package alertlog

import (
	"context"
	"time"
)

// Store defines persistence operations for alert entries.
type Store interface {
	// CreateAlert persists a new entry.
	CreateAlert(ctx context.Context, e *Entry) error

	// ListAlerts returns entries matching the filter, newest first.
	ListAlerts(ctx context.Context, filter *QueryFilter) ([]*Entry, error)

	// CountAlerts returns the number of entries matching the filter.
	CountAlerts(ctx context.Context, filter *QueryFilter) (int64, error)

	// PurgeAlerts removes entries fired before the given time.
	PurgeAlerts(ctx context.Context, before time.Time) (int64, error)
}
