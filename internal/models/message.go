package models

import (
	"strings"
	"time"
	"unicode/utf8"

	"gorm.io/gorm"
)

// Category is the closed classification set for inbound mail.
// The classifier adapter coerces anything outside this set to
// CategoryOther before it can reach the database.
type Category string

const (
	CategoryOrder   Category = "order"
	CategoryRequest Category = "request"
	CategoryQuote   Category = "quote"
	CategoryInquiry Category = "inquiry"
	CategoryNotice  Category = "notice"
	CategoryMeeting Category = "meeting"
	CategoryClaim   Category = "claim"
	CategoryOther   Category = "other"
)

// Categories lists every valid category, in display order.
var Categories = []Category{
	CategoryOrder, CategoryRequest, CategoryQuote, CategoryInquiry,
	CategoryNotice, CategoryMeeting, CategoryClaim, CategoryOther,
}

// ParseCategory maps a raw classifier label onto the closed set.
// Unknown labels become CategoryOther.
func ParseCategory(raw string) Category {
	c := Category(strings.ToLower(strings.TrimSpace(raw)))
	for _, valid := range Categories {
		if c == valid {
			return c
		}
	}
	return CategoryOther
}

// Priority is the urgency level assigned during classification.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// ParsePriority maps a raw priority label onto the fixed set.
// Unknown labels become PriorityMedium.
func ParsePriority(raw string) Priority {
	switch Priority(strings.ToLower(strings.TrimSpace(raw))) {
	case PriorityHigh:
		return PriorityHigh
	case PriorityLow:
		return PriorityLow
	default:
		return PriorityMedium
	}
}

// Status is the lifecycle state of a Message. Transition rules live in
// the workflow package; the model only names the states.
type Status string

const (
	StatusUnread   Status = "unread"
	StatusRead     Status = "read"
	StatusDraft    Status = "draft"
	StatusInReview Status = "in_review"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
	StatusSent     Status = "sent"
	StatusArchived Status = "archived"
)

// Terminal reports whether no further workflow transitions apply.
func (s Status) Terminal() bool {
	return s == StatusSent || s == StatusArchived
}

// Message represents one inbound communication in the PostgreSQL database.
// The embedded gorm.Model provides ID, CreatedAt, UpdatedAt, and DeletedAt.
// Messages are never physically deleted; StatusArchived is the soft delete.
type Message struct {
	gorm.Model

	// ExternalID is the mail transport's own unique id for the message
	// and the ingestion dedup key. Nil only before persistence.
	ExternalID *string `gorm:"type:varchar(255);uniqueIndex" json:"external_id"`

	Subject   string `gorm:"type:varchar(500);not null" json:"subject"`
	Sender    string `gorm:"type:varchar(255);not null" json:"sender"`
	Recipient string `gorm:"type:varchar(255)" json:"recipient"`
	// Body is the plain-text body, capped at ingestion time.
	Body     string `gorm:"type:text" json:"body"`
	BodyHTML string `gorm:"type:text" json:"body_html,omitempty"`

	// AI classification results. Overwritten only by an explicit reclassify.
	Category     Category `gorm:"type:varchar(20);default:other" json:"category"`
	Priority     Priority `gorm:"type:varchar(10);default:medium" json:"priority"`
	AISummary    string   `gorm:"type:text" json:"ai_summary"`
	AIDraft      string   `gorm:"type:text" json:"ai_draft"`
	AIConfidence int      `json:"ai_confidence"` // 0-100

	Status Status `gorm:"type:varchar(20);default:unread;index" json:"status"`

	// Staff-edited reply, independent of the machine draft.
	DraftBody    string `gorm:"type:text" json:"draft_body"`
	DraftSubject string `gorm:"type:varchar(500)" json:"draft_subject"`

	ProcessedBy *uint      `json:"processed_by,omitempty"`
	ReceivedAt  *time.Time `json:"received_at,omitempty"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
	// SentAt is set if and only if Status == StatusSent.
	SentAt *time.Time `json:"sent_at,omitempty"`

	Approvals []ApprovalEvent `gorm:"constraint:OnDelete:CASCADE" json:"approvals,omitempty"`
}

// Clip shortens s to at most max bytes without splitting a UTF-8 rune:
// the cut point walks back to the nearest rune boundary. Bodies and AI
// excerpts are clipped with this before they reach the database, which
// rejects invalid UTF-8 in text columns.
func Clip(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max < 0 {
		max = 0
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}

// HasDraft reports whether any reply content exists, human or machine.
// Submitting for review requires this.
func (m *Message) HasDraft() bool {
	return strings.TrimSpace(m.DraftBody) != "" || strings.TrimSpace(m.AIDraft) != ""
}

// EffectiveReply resolves the subject and body that would actually be
// sent: the staff draft wins when non-empty, otherwise the machine
// draft. The subject falls back to "Re: <original subject>".
func (m *Message) EffectiveReply() (subject, body string) {
	body = m.AIDraft
	if strings.TrimSpace(m.DraftBody) != "" {
		body = m.DraftBody
	}
	subject = m.DraftSubject
	if strings.TrimSpace(subject) == "" {
		subject = "Re: " + m.Subject
	}
	return subject, body
}
