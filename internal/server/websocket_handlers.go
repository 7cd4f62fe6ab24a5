package server

import (
	"context"
	"log"

	"peertutor/internal/middleware"
	"peertutor/internal/notifications"
	"peertutor/internal/observability"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// EventConnected is the first frame written to a new stream. Its payload is
// the caller's unread counts by sender.
const EventConnected = "connected"

// WebsocketHandler handles GET /api/ws
// @Summary Realtime event stream
// @Description Upgrades to a websocket carrying chat and session events. Authenticate with a ticket from /ws/ticket or a Bearer header.
// @Tags realtime
// @Param ticket query string false "Single-use ticket"
// @Success 101
// @Failure 401 {object} models.ErrorResponse
// @Router /ws [get]
func (s *Server) WebsocketHandler() fiber.Handler {
	upgrade := websocket.New(func(conn *websocket.Conn) {
		userID, _ := conn.Locals("userID").(string)
		if userID == "" {
			if cerr := conn.Close(); cerr != nil {
				log.Printf("websocket close error: %v", cerr)
			}
			return
		}

		ctx := middleware.WithUserID(context.Background(), userID)
		if rid, ok := conn.Locals("requestid").(string); ok && rid != "" {
			ctx = observability.WithCorrelationID(ctx, rid)
		}
		client, err := s.hub.Register(ctx, userID, conn)
		if err != nil {
			log.Printf("WebSocket: Failed to register user %s: %v", userID, err)
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"`+err.Error()+`"}`))
			_ = conn.Close()
			return
		}

		hello := notifications.Event{Type: EventConnected, Payload: s.store.UnreadCounts(userID)}
		if payload, err := hello.Encode(); err == nil {
			client.TrySend([]byte(payload))
		}

		client.Serve()
	})

	return func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		return upgrade(c)
	}
}
