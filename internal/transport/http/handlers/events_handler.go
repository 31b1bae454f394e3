package handlers

import (
	"github.com/gofiber/contrib/websocket"

	"github.com/nvman/backend/internal/infrastructure/events"
	"github.com/nvman/backend/internal/infrastructure/logger"
)

// EventsHandler bridges the progress hub to a websocket client: every event
// published by a task worker is written to the socket as one JSON message.
type EventsHandler struct {
	hub    *events.Hub
	logger *logger.Logger
}

func NewEventsHandler(hub *events.Hub, logger *logger.Logger) *EventsHandler {
	return &EventsHandler{hub: hub, logger: logger}
}

func (h *EventsHandler) Handle(c *websocket.Conn) {
	sub, cancel := h.hub.Subscribe()
	defer cancel()

	h.logger.Infow("events_client_connected", "remote", c.RemoteAddr().String())

	// Reads are only used to notice the client going away.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case ev, ok := <-sub:
			if !ok {
				return
			}
			if err := c.WriteJSON(ev); err != nil {
				h.logger.Infow("events_client_disconnected", "error", err)
				return
			}
		case <-closed:
			h.logger.Infow("events_client_closed")
			return
		}
	}
}
