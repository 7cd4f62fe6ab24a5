// Package notifications delivers realtime events to connected websocket
// clients, fanned out through Redis pub/sub when it is available.
package notifications

import (
	"context"
	"encoding/json"
	"log/slog"

	"peertutor/internal/middleware"
)

// Event types pushed to clients.
const (
	EventChatMessage      = "chat_message"
	EventSessionRequested = "session_requested"
	EventSessionUpdated   = "session_updated"
	EventSessionReminder  = "session_reminder"
	EventAnnouncement     = "announcement"
)

// Event is the JSON envelope written to websocket clients.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// Encode renders e as the wire payload.
func (e Event) Encode() (string, error) {
	b, err := json.Marshal(e)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Dispatcher routes events to users. With a Redis-backed notifier the event
// is published and every instance's hub delivers it; without one the local
// hub is written directly.
type Dispatcher struct {
	notifier *Notifier
	hub      *Hub
}

// NewDispatcher combines a notifier and a hub. Either may be nil.
func NewDispatcher(n *Notifier, h *Hub) *Dispatcher {
	return &Dispatcher{notifier: n, hub: h}
}

// Notify sends ev to every connection of userID. Delivery is best effort.
func (d *Dispatcher) Notify(ctx context.Context, userID string, ev Event) {
	if d == nil {
		return
	}
	payload, err := ev.Encode()
	if err != nil {
		middleware.Logger.ErrorContext(ctx, "encode event", slog.String("type", ev.Type), slog.String("error", err.Error()))
		return
	}

	if d.notifier != nil && d.notifier.Enabled() {
		err := d.notifier.PublishUser(ctx, userID, payload)
		if err == nil {
			return
		}
		middleware.Logger.WarnContext(ctx, "publish event failed, delivering locally",
			slog.String("type", ev.Type), slog.String("error", err.Error()))
	}
	if d.hub != nil {
		d.hub.Broadcast(userID, payload)
	}
}
