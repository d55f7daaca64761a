package models

import "time"

// Stage is one of the three approval checkpoints tracked per message.
type Stage string

const (
	StageReview   Stage = "review"
	StageApproval Stage = "approval"
	StageSend     Stage = "send"
)

// Decision is the outcome recorded on an approval event.
type Decision string

const (
	DecisionPending  Decision = "pending"
	DecisionApproved Decision = "approved"
	DecisionRejected Decision = "rejected"
)

// ApprovalEvent is one row of the append-only approval trail. Rows are
// never deleted; the only permitted mutation resolves a pending row to
// approved or rejected, exactly once.
type ApprovalEvent struct {
	ID        uint     `gorm:"primaryKey" json:"id"`
	MessageID uint     `gorm:"not null;index" json:"message_id"`
	Stage     Stage    `gorm:"type:varchar(20);not null" json:"stage"`
	ActorID   uint     `gorm:"not null" json:"actor_id"`
	Decision  Decision `gorm:"type:varchar(20);default:pending" json:"decision"`
	Comment   string   `gorm:"type:text" json:"comment"`
	// DecidedAt is set when the pending row is resolved, or immediately
	// for events created in a decided state (approval, send).
	DecidedAt *time.Time `json:"decided_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}
