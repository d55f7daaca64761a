package storage

import (
	"errors"
	"log"
	"time"

	"mailroom/backend/internal/models"

	"gorm.io/gorm"
)

// The approval trail is append-only. These methods enforce only the
// ledger-local invariants (no double resolution, no row deletion);
// which transitions are legal is the workflow package's business.

// CreateApproval appends a new approval event. Existing rows are never
// touched.
func (s *Service) CreateApproval(ev *models.ApprovalEvent) error {
	if ev.Decision == "" {
		ev.Decision = models.DecisionPending
	}

	if err := s.DB.Create(ev).Error; err != nil {
		log.Printf("ERROR: Failed to append approval event for message %d: %v", ev.MessageID, err)
		return err
	}
	return nil
}

// ResolveApproval moves a pending event to approved or rejected. The
// decision guard is part of the UPDATE itself, so resolving an already
// resolved event affects zero rows and fails with ErrAlreadyResolved
// regardless of interleaving.
func (s *Service) ResolveApproval(eventID, actorID uint, decision models.Decision, comment string, at time.Time) error {
	result := s.DB.Model(&models.ApprovalEvent{}).
		Where("id = ? AND decision = ?", eventID, models.DecisionPending).
		Updates(map[string]interface{}{
			"decision":   decision,
			"actor_id":   actorID,
			"comment":    comment,
			"decided_at": at,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrAlreadyResolved
	}
	return nil
}

// LatestPendingApproval returns the newest pending event for the stage,
// or nil when the stage has no open event.
func (s *Service) LatestPendingApproval(messageID uint, stage models.Stage) (*models.ApprovalEvent, error) {
	var ev models.ApprovalEvent
	err := s.DB.
		Where("message_id = ? AND stage = ? AND decision = ?", messageID, stage, models.DecisionPending).
		Order("created_at desc").
		First(&ev).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ev, nil
}

// ApprovalHistory returns every event for the message ordered by
// creation time, for rendering the audit trail.
func (s *Service) ApprovalHistory(messageID uint) ([]models.ApprovalEvent, error) {
	var events []models.ApprovalEvent
	err := s.DB.
		Where("message_id = ?", messageID).
		Order("created_at asc").
		Find(&events).Error
	if err != nil {
		log.Printf("ERROR: Failed to load approval history for message %d: %v", messageID, err)
		return nil, err
	}
	return events, nil
}
