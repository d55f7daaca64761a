package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"mailroom/backend/internal/models"
	"mailroom/backend/internal/notify"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Allows connections from any origin. Tighten in production.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeWebSocket upgrades the connection and registers the client as a
// workflow event listener. The token is taken from the header or, for
// browser clients, the query string.
func (h *Handler) ServeWebSocket(c *gin.Context) {
	header := c.GetHeader("Authorization")
	if header == "" {
		header = "Bearer " + c.Query("token")
	}

	actor, err := h.actorFromHeader(header)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to upgrade connection"})
		return
	}

	client := &notify.WebSocketClient{
		ID:   strconv.FormatUint(uint64(actor.ID), 10) + "-" + uuid.NewString(),
		Conn: conn,
		Hub:  h.Hub,
		Send: make(chan models.WorkflowEvent, 256),
	}

	h.Hub.RegisterCh <- client
	client.Run()
}
