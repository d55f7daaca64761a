package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"mailroom/backend/internal/config"
	"mailroom/backend/internal/models"
	"mailroom/backend/internal/storage"
	"mailroom/backend/internal/workflow"
)

func messageID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid message id"})
		return 0, false
	}
	return uint(id), true
}

// ListMessages returns a filtered page of messages, newest first.
func (h *Handler) ListMessages(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("skip", "0"))

	msgs, total, err := h.Storage.ListMessages(storage.MessageFilter{
		Status:   c.Query("status"),
		Category: c.Query("category"),
		Priority: c.Query("priority"),
		Search:   c.Query("search"),
		Offset:   offset,
		Limit:    limit,
	})
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":  msgs,
		"total": total,
		"skip":  offset,
		"limit": limit,
	})
}

// Stats returns message counts per status plus a category breakdown.
func (h *Handler) Stats(c *gin.Context) {
	total, err := h.Storage.CountMessages()
	if err != nil {
		fail(c, err)
		return
	}

	byStatus := make(map[models.Status]int64)
	for _, status := range []models.Status{
		models.StatusUnread, models.StatusInReview, models.StatusApproved, models.StatusSent,
	} {
		n, err := h.Storage.CountMessagesByStatus(status)
		if err != nil {
			fail(c, err)
			return
		}
		byStatus[status] = n
	}

	categories, err := h.Storage.CountMessagesByCategory()
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total":      total,
		"unread":     byStatus[models.StatusUnread],
		"in_review":  byStatus[models.StatusInReview],
		"approved":   byStatus[models.StatusApproved],
		"sent":       byStatus[models.StatusSent],
		"categories": categories,
	})
}

// GetMessage returns one message with its approval trail. Viewing an
// unread message marks it read.
func (h *Handler) GetMessage(c *gin.Context) {
	id, ok := messageID(c)
	if !ok {
		return
	}

	msg, err := h.Workflow.View(currentActor(c), id)
	if err != nil {
		fail(c, err)
		return
	}

	history, err := h.Workflow.History(id)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": msg, "approvals": history})
}

// GetHistory returns the approval trail alone.
func (h *Handler) GetHistory(c *gin.Context) {
	id, ok := messageID(c)
	if !ok {
		return
	}

	history, err := h.Workflow.History(id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": history})
}

// Fetch runs one ingestion batch against the configured mailbox.
func (h *Handler) Fetch(c *gin.Context) {
	maxCount, _ := strconv.Atoi(c.DefaultQuery("max_count", strconv.Itoa(config.DefaultFetchCount)))

	result, err := h.Pipeline.Ingest(c.Request.Context(), maxCount, currentActor(c).ID)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"fetched":  result.Fetched,
		"inserted": result.Inserted,
		"skipped":  result.Skipped,
		"data":     result.Records,
	})
}

type draftUpdateRequest struct {
	DraftBody    *string `json:"draft_body"`
	DraftSubject *string `json:"draft_subject"`
	Category     *string `json:"category"`
	Priority     *string `json:"priority"`
}

// UpdateDraft applies staff edits to the reply draft.
func (h *Handler) UpdateDraft(c *gin.Context) {
	id, ok := messageID(c)
	if !ok {
		return
	}

	var req draftUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	msg, err := h.Workflow.UpdateDraft(currentActor(c), id, workflow.DraftUpdate{
		Body:     req.DraftBody,
		Subject:  req.DraftSubject,
		Category: req.Category,
		Priority: req.Priority,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": msg})
}

type commentRequest struct {
	Comment string `json:"comment"`
}

// Submit puts the draft into review.
func (h *Handler) Submit(c *gin.Context) {
	h.transition(c, h.Workflow.Submit)
}

// Approve approves an in-review message for sending.
func (h *Handler) Approve(c *gin.Context) {
	h.transition(c, h.Workflow.Approve)
}

// Reject sends an in-review message back to drafting.
func (h *Handler) Reject(c *gin.Context) {
	h.transition(c, h.Workflow.Reject)
}

func (h *Handler) transition(c *gin.Context, op func(models.Actor, uint, string) error) {
	id, ok := messageID(c)
	if !ok {
		return
	}

	var req commentRequest
	_ = c.ShouldBindJSON(&req) // comment is optional

	if err := op(currentActor(c), id, req.Comment); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "ok"})
}

// Send delivers the approved reply. On transport failure the message
// stays APPROVED and the client may retry.
func (h *Handler) Send(c *gin.Context) {
	id, ok := messageID(c)
	if !ok {
		return
	}

	if err := h.Workflow.Send(c.Request.Context(), currentActor(c), id); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "sent"})
}

// Reclassify re-runs the AI classification and draft for one message.
func (h *Handler) Reclassify(c *gin.Context) {
	id, ok := messageID(c)
	if !ok {
		return
	}

	msg, err := h.Workflow.Reclassify(c.Request.Context(), currentActor(c), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": msg})
}

// Archive soft-deletes a message.
func (h *Handler) Archive(c *gin.Context) {
	id, ok := messageID(c)
	if !ok {
		return
	}

	if err := h.Workflow.Archive(currentActor(c), id); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "archived"})
}
