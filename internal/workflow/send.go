package workflow

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"mailroom/backend/internal/models"
	"mailroom/backend/internal/storage"
)

// Send attempts delivery of the approved reply to the original sender.
// One attempt per call: a transport failure returns ErrSendFailed and
// leaves the message APPROVED, so the operator can retry. SENT and
// sent_at are recorded only after the transport reports success, in
// the same transaction as the send-stage audit event.
func (s *Service) Send(ctx context.Context, actor models.Actor, id uint) error {
	unlock := s.lockMessage(id)
	defer unlock()

	msg, err := s.Storage.FindMessageByID(id)
	if err != nil {
		return err
	}
	if msg == nil {
		return ErrNotFound
	}
	if !Allowed(EventSend, msg.Status) {
		return fmt.Errorf("%w: cannot send from status %s", ErrInvalidTransition, msg.Status)
	}

	// Effective reply is re-resolved now, not at submit time: a human
	// draft cleared after submission falls back to the machine draft.
	subject, body := msg.EffectiveReply()
	if strings.TrimSpace(body) == "" {
		return ErrEmptyReply
	}

	if err := s.Sender.Send(ctx, msg.Sender, subject, body); err != nil {
		log.Printf("ERROR: Send failed for message #%d to %s: %v", id, msg.Sender, err)
		return fmt.Errorf("%w: %v", ErrSendFailed, err)
	}

	now := time.Now()
	err = s.Storage.Transaction(func(tx storage.Storage) error {
		m, err := tx.FindMessageByIDForUpdate(id)
		if err != nil {
			return err
		}
		if m == nil {
			return ErrNotFound
		}
		// Re-check under the row lock: another instance may have sent or
		// archived the message between our guard and the delivery.
		if m.Status != models.StatusApproved {
			return fmt.Errorf("%w: message no longer approved (now %s)", ErrInvalidTransition, m.Status)
		}

		m.Status = models.StatusSent
		m.SentAt = &now
		m.ProcessedBy = &actor.ID
		if err := tx.SaveMessage(m); err != nil {
			return err
		}

		return tx.CreateApproval(&models.ApprovalEvent{
			MessageID: id,
			Stage:     models.StageSend,
			ActorID:   actor.ID,
			Decision:  models.DecisionApproved,
			Comment:   "delivered to " + m.Sender,
			DecidedAt: &now,
		})
	})
	if err != nil {
		return err
	}

	log.Printf("INFO: Message #%d sent to %s by actor %d", id, msg.Sender, actor.ID)
	msg.Status = models.StatusSent
	s.notify(msg)
	return nil
}
