package models

import (
	"github.com/lib/pq" // for pq.StringArray
	"gorm.io/gorm"
)

// Capability names an action an actor may be allowed to perform.
// The workflow consumes capabilities through an opaque predicate; how
// they are granted is an authentication concern, not a workflow one.
type Capability string

const (
	CapabilityEdit    Capability = "edit"
	CapabilityApprove Capability = "approve"
	CapabilityAdmin   Capability = "admin"
)

// Actor identifies the authenticated user driving a transition.
type Actor struct {
	ID   uint   `json:"id"`
	Role string `json:"role"`
}

// User represents a staff account in the system.
type User struct {
	gorm.Model

	Email string `gorm:"uniqueIndex;not null" json:"email"`
	Name  string `json:"name"`
	// Role is "staff", "approver", or "admin".
	Role string `gorm:"type:varchar(20);default:staff" json:"role"`
	// Capabilities holds explicit per-user grants on top of the role.
	Capabilities pq.StringArray `gorm:"type:text[]" json:"capabilities"`
	IsActive     bool           `gorm:"default:true" json:"is_active"`
}

// Actor returns the workflow-facing identity of the user.
func (u *User) Actor() Actor {
	return Actor{ID: u.ID, Role: u.Role}
}
