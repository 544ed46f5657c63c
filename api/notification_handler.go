package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/xraph/forge"

	"github.com/Taha-mlaiki/TrackTruck"
	"github.com/Taha-mlaiki/TrackTruck/notify"
)

func (a *API) registerNotificationRoutes(router forge.Router) error {
	g := router.Group("/v1", forge.WithGroupTags("notifications"))

	return g.POST("/notifications/test", a.sendTestNotification,
		forge.WithSummary("Send test notification"),
		forge.WithDescription("Publishes a notification to the admins room. Admin only."),
		forge.WithOperationID("sendTestNotification"),
		forge.WithRequestSchema(TestNotificationRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Sent notification", NotificationResponse{}),
		forge.WithErrorResponses(),
	)
}

// eventFor maps a notification kind to the event name subscribers listen on.
func eventFor(kind string) (string, bool) {
	switch strings.ToLower(kind) {
	case "maintenance":
		return notify.EventMaintenance, true
	case "trip":
		return notify.EventTrip, true
	case "", "system":
		return notify.EventSystem, true
	default:
		return "", false
	}
}

func (a *API) sendTestNotification(ctx forge.Context, req *TestNotificationRequest) (*NotificationResponse, error) {
	if err := a.requireAdmin(ctx); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Message) == "" {
		return nil, forge.BadRequest("message is required")
	}
	event, ok := eventFor(req.Type)
	if !ok {
		return nil, forge.BadRequest("type must be maintenance, trip or system")
	}

	n := notify.New(notify.AudienceAdmins, event, req.Message)
	n.Type = strings.ToLower(req.Type)
	if err := a.eng.Notify(ctx.Context(), n); err != nil {
		if errors.Is(err, tracktruck.ErrNoPublisher) {
			return nil, forge.BadRequest(err.Error())
		}
		return nil, mapError(err)
	}

	resp := &NotificationResponse{
		ID:        n.ID,
		Event:     n.Event,
		Audience:  n.Audience,
		Message:   n.Message,
		Timestamp: n.Timestamp,
	}
	return resp, ctx.JSON(http.StatusOK, resp)
}
