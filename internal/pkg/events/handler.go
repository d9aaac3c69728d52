package events

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Handler upgrades HTTP requests to event feed connections.
type Handler struct {
	hub    *Hub
	logger zerolog.Logger
}

// NewHandler creates a new websocket handler
func NewHandler(hub *Hub, logger zerolog.Logger) *Handler {
	return &Handler{hub: hub, logger: logger}
}

// HandleConnection streams SubscriptionEvents as JSON text frames. The
// optional courseId query parameter restricts the feed to one course.
func (h *Handler) HandleConnection(c *gin.Context) {
	courseID := c.Query("courseId")

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already written the error response.
		h.logger.Error().Err(err).Str("courseId", courseID).Msg("Failed to upgrade connection to WebSocket")
		return
	}

	client := &Client{
		hub:      h.hub,
		conn:     conn,
		send:     make(chan []byte, 256),
		courseID: courseID,
		logger:   h.logger,
	}
	if !h.hub.join(client) {
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()

	h.logger.Info().
		Str("courseId", courseID).
		Str("remoteAddr", conn.RemoteAddr().String()).
		Msg("WebSocket connection established")
}
