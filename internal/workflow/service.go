// Package workflow owns the lifecycle of every ingested message. All
// status mutation funnels through this package, so the message row and
// its approval trail always change in the same transaction.
package workflow

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"mailroom/backend/internal/ai"
	"mailroom/backend/internal/config"
	"mailroom/backend/internal/mailbox"
	"mailroom/backend/internal/models"
	"mailroom/backend/internal/storage"
)

// CapabilityChecker is the opaque role predicate consumed by guards.
// How capabilities are granted is an authentication concern.
type CapabilityChecker interface {
	Can(actor models.Actor, cap models.Capability) bool
}

// Notifier receives an event after every committed transition.
type Notifier interface {
	Publish(evt models.WorkflowEvent)
}

// DraftUpdate carries the staff-editable fields of a message. Nil
// means "leave unchanged".
type DraftUpdate struct {
	Body     *string
	Subject  *string
	Category *string
	Priority *string
}

// Service is the approval state machine. It holds the only Sender
// handle in the process, which keeps "approved before sent" true by
// construction.
type Service struct {
	Storage    storage.Storage
	Caps       CapabilityChecker
	Sender     mailbox.Sender
	Classifier ai.Classifier
	Drafter    ai.Drafter
	Notifier   Notifier // optional

	mu    sync.Mutex
	locks map[uint]*msgLock
}

// msgLock is a per-message mutex with a holder count, so idle entries
// can be dropped from the lock map.
type msgLock struct {
	mu   sync.Mutex
	refs int
}

// NewService creates the workflow service.
func NewService(store storage.Storage, caps CapabilityChecker, sender mailbox.Sender, classifier ai.Classifier, drafter ai.Drafter) *Service {
	return &Service{
		Storage:    store,
		Caps:       caps,
		Sender:     sender,
		Classifier: classifier,
		Drafter:    drafter,
		locks:      make(map[uint]*msgLock),
	}
}

// lockMessage serializes transitions per message id within this
// process. The database row lock inside the transaction covers
// multi-process deployments; this keeps local callers from even
// reaching the database concurrently. The map entry is removed once the
// last holder releases, so it stays bounded by in-flight messages.
func (s *Service) lockMessage(id uint) func() {
	s.mu.Lock()
	l, ok := s.locks[id]
	if !ok {
		l = &msgLock{}
		s.locks[id] = l
	}
	l.refs++
	s.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()

		s.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, id)
		}
		s.mu.Unlock()
	}
}

func (s *Service) notify(msg *models.Message) {
	if s.Notifier == nil {
		return
	}
	s.Notifier.Publish(models.WorkflowEvent{
		Kind:      models.EventKindStatusChanged,
		MessageID: msg.ID,
		Status:    msg.Status,
		Priority:  msg.Priority,
		Subject:   msg.Subject,
	})
}

// Get returns a message without touching its state.
func (s *Service) Get(id uint) (*models.Message, error) {
	msg, err := s.Storage.FindMessageByID(id)
	if err != nil {
		return nil, err
	}
	if msg == nil {
		return nil, ErrNotFound
	}
	return msg, nil
}

// History returns the full approval trail for a message.
func (s *Service) History(id uint) ([]models.ApprovalEvent, error) {
	return s.Storage.ApprovalHistory(id)
}

// View loads a message for display, moving UNREAD to READ on first
// sight. Viewing an already-read message changes nothing.
func (s *Service) View(actor models.Actor, id uint) (*models.Message, error) {
	unlock := s.lockMessage(id)
	defer unlock()

	var viewed *models.Message
	err := s.Storage.Transaction(func(tx storage.Storage) error {
		msg, err := tx.FindMessageByIDForUpdate(id)
		if err != nil {
			return err
		}
		if msg == nil {
			return ErrNotFound
		}

		if Allowed(EventView, msg.Status) {
			msg.Status = models.StatusRead
			msg.ProcessedBy = &actor.ID
			if err := tx.SaveMessage(msg); err != nil {
				return err
			}
		}
		viewed = msg
		return nil
	})
	if err != nil {
		return nil, err
	}
	return viewed, nil
}

// UpdateDraft applies staff edits to the reply draft, moving the
// message to DRAFT. Requires the edit capability.
func (s *Service) UpdateDraft(actor models.Actor, id uint, upd DraftUpdate) (*models.Message, error) {
	if !s.Caps.Can(actor, models.CapabilityEdit) {
		return nil, ErrForbidden
	}

	unlock := s.lockMessage(id)
	defer unlock()

	var updated *models.Message
	err := s.Storage.Transaction(func(tx storage.Storage) error {
		msg, err := tx.FindMessageByIDForUpdate(id)
		if err != nil {
			return err
		}
		if msg == nil {
			return ErrNotFound
		}
		if !Allowed(EventEditDraft, msg.Status) {
			return fmt.Errorf("%w: cannot edit draft in status %s", ErrInvalidTransition, msg.Status)
		}

		if upd.Body != nil {
			msg.DraftBody = *upd.Body
		}
		if upd.Subject != nil {
			msg.DraftSubject = *upd.Subject
		}
		if upd.Category != nil {
			msg.Category = models.ParseCategory(*upd.Category)
		}
		if upd.Priority != nil {
			msg.Priority = models.ParsePriority(*upd.Priority)
		}

		msg.Status = models.StatusDraft
		msg.ProcessedBy = &actor.ID
		if err := tx.SaveMessage(msg); err != nil {
			return err
		}
		updated = msg
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Submit puts a drafted reply into review: status moves to IN_REVIEW
// and a pending review event opens. Requires reply content, human or
// machine.
func (s *Service) Submit(actor models.Actor, id uint, comment string) error {
	unlock := s.lockMessage(id)
	defer unlock()

	var submitted *models.Message
	err := s.Storage.Transaction(func(tx storage.Storage) error {
		msg, err := tx.FindMessageByIDForUpdate(id)
		if err != nil {
			return err
		}
		if msg == nil {
			return ErrNotFound
		}
		if !Allowed(EventSubmit, msg.Status) {
			return fmt.Errorf("%w: cannot submit from status %s", ErrInvalidTransition, msg.Status)
		}
		if !msg.HasDraft() {
			return ErrNoDraft
		}

		if err := tx.CreateApproval(&models.ApprovalEvent{
			MessageID: id,
			Stage:     models.StageReview,
			ActorID:   actor.ID,
			Decision:  models.DecisionPending,
			Comment:   comment,
		}); err != nil {
			return err
		}

		msg.Status = models.StatusInReview
		msg.ProcessedBy = &actor.ID
		if err := tx.SaveMessage(msg); err != nil {
			return err
		}
		submitted = msg
		return nil
	})
	if err != nil {
		return err
	}

	log.Printf("INFO: Message #%d submitted for review by actor %d", id, actor.ID)
	s.notify(submitted)
	return nil
}

// Approve resolves the open review event to approved, appends an
// approval-stage event, and moves the message to APPROVED. Requires
// the approve capability and an IN_REVIEW message.
func (s *Service) Approve(actor models.Actor, id uint, comment string) error {
	return s.decide(actor, id, comment, models.DecisionApproved)
}

// Reject resolves the open review event to rejected and moves the
// message to REJECTED, from where the staff can redraft and resubmit.
func (s *Service) Reject(actor models.Actor, id uint, comment string) error {
	return s.decide(actor, id, comment, models.DecisionRejected)
}

func (s *Service) decide(actor models.Actor, id uint, comment string, decision models.Decision) error {
	if !s.Caps.Can(actor, models.CapabilityApprove) {
		return ErrForbidden
	}

	event := EventApprove
	if decision == models.DecisionRejected {
		event = EventReject
	}

	unlock := s.lockMessage(id)
	defer unlock()

	var decided *models.Message
	err := s.Storage.Transaction(func(tx storage.Storage) error {
		msg, err := tx.FindMessageByIDForUpdate(id)
		if err != nil {
			return err
		}
		if msg == nil {
			return ErrNotFound
		}
		if !Allowed(event, msg.Status) {
			return fmt.Errorf("%w: cannot %s from status %s", ErrInvalidTransition, event, msg.Status)
		}

		pending, err := tx.LatestPendingApproval(id, models.StageReview)
		if err != nil {
			return err
		}
		if pending == nil {
			return ErrNoPendingReview
		}

		now := time.Now()
		if err := tx.ResolveApproval(pending.ID, actor.ID, decision, comment, now); err != nil {
			return err
		}

		if decision == models.DecisionApproved {
			if err := tx.CreateApproval(&models.ApprovalEvent{
				MessageID: id,
				Stage:     models.StageApproval,
				ActorID:   actor.ID,
				Decision:  models.DecisionApproved,
				Comment:   comment,
				DecidedAt: &now,
			}); err != nil {
				return err
			}
			msg.Status = models.StatusApproved
		} else {
			msg.Status = models.StatusRejected
		}

		msg.ProcessedBy = &actor.ID
		if err := tx.SaveMessage(msg); err != nil {
			return err
		}
		decided = msg
		return nil
	})
	if err != nil {
		return err
	}

	log.Printf("INFO: Message #%d %s by actor %d", id, decided.Status, actor.ID)
	s.notify(decided)
	return nil
}

// Archive soft-deletes the message. Allowed from every state except
// SENT; archiving twice is harmless.
func (s *Service) Archive(actor models.Actor, id uint) error {
	unlock := s.lockMessage(id)
	defer unlock()

	var archived *models.Message
	err := s.Storage.Transaction(func(tx storage.Storage) error {
		msg, err := tx.FindMessageByIDForUpdate(id)
		if err != nil {
			return err
		}
		if msg == nil {
			return ErrNotFound
		}
		if !Allowed(EventArchive, msg.Status) {
			return fmt.Errorf("%w: cannot archive a sent message", ErrInvalidTransition)
		}

		msg.Status = models.StatusArchived
		msg.ProcessedBy = &actor.ID
		if err := tx.SaveMessage(msg); err != nil {
			return err
		}
		archived = msg
		return nil
	})
	if err != nil {
		return err
	}

	s.notify(archived)
	return nil
}

// Reclassify re-runs the classifier and drafter and overwrites the AI
// fields. The lifecycle status is untouched, whatever it is. The model
// calls run outside the row lock; only the write-back holds it, and
// only the AI fields are written, so a status committed by a concurrent
// transition is never clobbered.
func (s *Service) Reclassify(ctx context.Context, actor models.Actor, id uint) (*models.Message, error) {
	unlock := s.lockMessage(id)
	defer unlock()

	msg, err := s.Storage.FindMessageByID(id)
	if err != nil {
		return nil, err
	}
	if msg == nil {
		return nil, ErrNotFound
	}

	excerpt := models.Clip(msg.Body, config.ClassifyExcerptLen)

	cls, err := s.Classifier.Classify(ctx, msg.Subject, excerpt)
	if err != nil {
		log.Printf("WARNING: Reclassification failed for message #%d: %v", id, err)
		cls = ai.FallbackClassification(msg.Subject)
	}

	draft, draftErr := s.Drafter.Draft(ctx, msg.Subject, excerpt, cls.Category)
	if draftErr != nil {
		log.Printf("WARNING: Draft regeneration failed for message #%d: %v", id, draftErr)
	}

	now := time.Now()
	var updated *models.Message
	err = s.Storage.Transaction(func(tx storage.Storage) error {
		m, err := tx.FindMessageByIDForUpdate(id)
		if err != nil {
			return err
		}
		if m == nil {
			return ErrNotFound
		}

		m.Category = cls.Category
		m.Priority = cls.Priority
		m.AISummary = cls.Summary
		m.AIConfidence = cls.Confidence
		if draftErr == nil {
			m.AIDraft = draft // on failure the row keeps its current draft
		}
		m.ProcessedAt = &now
		m.ProcessedBy = &actor.ID

		if err := tx.SaveMessage(m); err != nil {
			return err
		}
		updated = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}
