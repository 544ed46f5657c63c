package api

import (
	"time"

	"github.com/Taha-mlaiki/TrackTruck"
)

// ListResponse wraps a list of items with pagination metadata.
type ListResponse[T any] struct {
	Items  []T   `json:"items" description:"List of items"`
	Total  int64 `json:"total" description:"Total count"`
	Limit  int   `json:"limit" description:"Page size"`
	Offset int   `json:"offset" description:"Page offset"`
}

// CheckResponse reports the outcome of an on-demand evaluation pass.
type CheckResponse struct {
	Rules         int                 `json:"rules" description:"Rules loaded"`
	Evaluated     int                 `json:"evaluated" description:"Rules whose asset was evaluated"`
	Skipped       int                 `json:"skipped" description:"Rules whose asset no longer exists"`
	Failed        int                 `json:"failed" description:"Rules isolated after a lookup error"`
	PublishFailed int                 `json:"publishFailed" description:"Alerts the publisher rejected"`
	Fired         int                 `json:"fired" description:"Alerts raised"`
	DurationMs    int64               `json:"durationMs" description:"Pass duration in milliseconds"`
	Alerts        []*tracktruck.Alert `json:"alerts" description:"Raised alerts"`
}

func toCheckResponse(r *tracktruck.PassReport) *CheckResponse {
	return &CheckResponse{
		Rules:         r.Rules,
		Evaluated:     r.Evaluated,
		Skipped:       r.Skipped,
		Failed:        r.Failed,
		PublishFailed: r.PublishFailed,
		Fired:         r.Fired(),
		DurationMs:    r.Duration().Milliseconds(),
		Alerts:        r.Alerts,
	}
}

// NotificationResponse echoes a sent notification.
type NotificationResponse struct {
	ID        string    `json:"notificationId" description:"Notification ID"`
	Event     string    `json:"event" description:"Event name delivered to subscribers"`
	Audience  string    `json:"audience" description:"Target room"`
	Message   string    `json:"message" description:"Notification text"`
	Timestamp time.Time `json:"timestamp" description:"Send time"`
}

// HealthResponse is the health probe body.
type HealthResponse struct {
	Status    string    `json:"status" description:"ok when the store answers"`
	Timestamp time.Time `json:"timestamp" description:"Server time"`
}
