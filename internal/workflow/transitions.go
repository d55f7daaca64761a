package workflow

import "mailroom/backend/internal/models"

// Event is a workflow action applied to one message.
type Event string

const (
	EventView      Event = "view"
	EventEditDraft Event = "edit_draft"
	EventSubmit    Event = "submit"
	EventApprove   Event = "approve"
	EventReject    Event = "reject"
	EventSend      Event = "send"
	EventArchive   Event = "archive"
)

// allowedFrom lists the source statuses each event accepts. Any
// (status, event) pair not covered here is rejected. Reclassify is
// deliberately absent: it overwrites AI fields from any status without
// moving the status.
var allowedFrom = map[Event][]models.Status{
	EventView:      {models.StatusUnread},
	EventEditDraft: {models.StatusRead, models.StatusDraft},
	EventSubmit:    {models.StatusRead, models.StatusDraft, models.StatusRejected},
	EventApprove:   {models.StatusInReview},
	EventReject:    {models.StatusInReview},
	EventSend:      {models.StatusApproved},
	EventArchive: {
		models.StatusUnread, models.StatusRead, models.StatusDraft,
		models.StatusInReview, models.StatusApproved, models.StatusRejected,
		models.StatusArchived,
	},
}

// Allowed reports whether the event accepts the given source status.
func Allowed(event Event, from models.Status) bool {
	for _, s := range allowedFrom[event] {
		if s == from {
			return true
		}
	}
	return false
}
