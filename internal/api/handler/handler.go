// Package handler wires the HTTP surface to the workflow core. The
// handlers translate transport concerns (JSON, status codes, auth
// headers) and delegate every decision to the workflow package.
package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"mailroom/backend/internal/ingest"
	"mailroom/backend/internal/notify"
	"mailroom/backend/internal/storage"
	"mailroom/backend/internal/workflow"
)

// Handler holds the service dependencies shared by all routes.
type Handler struct {
	Workflow  *workflow.Service
	Pipeline  *ingest.Pipeline
	Storage   storage.Storage
	Hub       *notify.Hub
	JWTSecret []byte
}

func NewHandler(wf *workflow.Service, pipeline *ingest.Pipeline, store storage.Storage, hub *notify.Hub, jwtSecret string) *Handler {
	return &Handler{
		Workflow:  wf,
		Pipeline:  pipeline,
		Storage:   store,
		Hub:       hub,
		JWTSecret: []byte(jwtSecret),
	}
}

// Register attaches all routes to the engine.
func (h *Handler) Register(r *gin.Engine) {
	r.POST("/api/v1/auth/token", h.IssueToken)
	r.GET("/ws", h.ServeWebSocket)

	emails := r.Group("/api/v1/emails", h.AuthRequired())
	{
		emails.GET("", h.ListMessages)
		emails.GET("/stats", h.Stats)
		emails.GET("/:id", h.GetMessage)
		emails.GET("/:id/history", h.GetHistory)
		emails.POST("/fetch", h.Fetch)
		emails.PATCH("/:id", h.UpdateDraft)
		emails.POST("/:id/submit", h.Submit)
		emails.POST("/:id/approve", h.Approve)
		emails.POST("/:id/reject", h.Reject)
		emails.POST("/:id/send", h.Send)
		emails.POST("/:id/reclassify", h.Reclassify)
		emails.DELETE("/:id", h.Archive)
	}
}

// fail maps workflow errors onto HTTP status codes.
func fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, workflow.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, workflow.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, workflow.ErrInvalidTransition),
		errors.Is(err, workflow.ErrNoDraft),
		errors.Is(err, workflow.ErrNoPendingReview),
		errors.Is(err, workflow.ErrEmptyReply),
		errors.Is(err, storage.ErrAlreadyResolved):
		status = http.StatusBadRequest
	case errors.Is(err, ingest.ErrIngestInProgress):
		status = http.StatusConflict
	case errors.Is(err, workflow.ErrSendFailed):
		status = http.StatusBadGateway
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
