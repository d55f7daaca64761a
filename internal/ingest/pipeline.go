// Package ingest pulls new messages from the mail transport,
// classifies and drafts them, and persists one UNREAD record per
// previously unseen message.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"mailroom/backend/internal/ai"
	"mailroom/backend/internal/config"
	"mailroom/backend/internal/mailbox"
	"mailroom/backend/internal/models"
	"mailroom/backend/internal/storage"
)

// ErrIngestInProgress is returned when another ingestion run already
// holds the mailbox lock. The transport's ordinal fetch is not safe
// under concurrent draining, so a second run is refused, not queued.
var ErrIngestInProgress = errors.New("ingestion already in progress for this mailbox")

// Notifier receives an event for every newly persisted message.
type Notifier interface {
	Publish(evt models.WorkflowEvent)
}

// Result summarizes one ingestion batch.
type Result struct {
	Fetched  int              `json:"fetched"`
	Inserted int              `json:"inserted"`
	Skipped  int              `json:"skipped"` // already ingested (dedup)
	Records  []models.Message `json:"records"`
}

// Pipeline is the ingestion batch job. One Pipeline serves one mailbox.
type Pipeline struct {
	Transport  mailbox.Transport
	Classifier ai.Classifier
	Drafter    ai.Drafter
	Storage    storage.Storage
	Notifier   Notifier // optional

	// Mailbox keys the single-flight lock, normally the account address.
	Mailbox string
	LockTTL time.Duration
}

// NewPipeline creates an ingestion pipeline for one mailbox.
func NewPipeline(transport mailbox.Transport, classifier ai.Classifier, drafter ai.Drafter, store storage.Storage, mailboxName string) *Pipeline {
	return &Pipeline{
		Transport:  transport,
		Classifier: classifier,
		Drafter:    drafter,
		Storage:    store,
		Mailbox:    mailboxName,
		LockTTL:    config.IngestLockTTL,
	}
}

// Ingest fetches up to maxCount of the newest transport messages and
// persists the ones not seen before. Re-running over the same window is
// a no-op for already ingested messages. A transport failure aborts the
// whole batch; a classify or draft failure degrades that one message to
// neutral defaults and never blocks the rest.
func (p *Pipeline) Ingest(ctx context.Context, maxCount int, actorID uint) (*Result, error) {
	if maxCount < 1 {
		maxCount = config.DefaultFetchCount
	}
	if maxCount > config.MaxFetchCount {
		maxCount = config.MaxFetchCount
	}

	acquired, err := p.Storage.AcquireIngestLock(p.Mailbox, p.LockTTL)
	if err != nil {
		return nil, fmt.Errorf("acquiring mailbox lock: %w", err)
	}
	if !acquired {
		return nil, ErrIngestInProgress
	}
	defer func() {
		if err := p.Storage.ReleaseIngestLock(p.Mailbox); err != nil {
			log.Printf("ERROR: Failed to release ingest lock for %s: %v", p.Mailbox, err)
		}
	}()

	inbound, err := p.Transport.FetchLatest(ctx, maxCount)
	if err != nil {
		return nil, fmt.Errorf("fetching mailbox %s: %w", p.Mailbox, err)
	}

	result := &Result{Fetched: len(inbound)}
	for _, in := range inbound {
		existing, err := p.Storage.FindMessageByExternalID(in.ExternalID)
		if err != nil {
			return result, err
		}
		if existing != nil {
			result.Skipped++
			continue
		}

		msg := p.process(ctx, in, actorID)
		if err := p.Storage.CreateMessage(msg); err != nil {
			return result, err
		}

		result.Inserted++
		result.Records = append(result.Records, *msg)
		log.Printf("INFO: Ingested message %q -> %s/%s", msg.Subject, msg.Category, msg.Priority)

		if p.Notifier != nil {
			p.Notifier.Publish(models.WorkflowEvent{
				Kind:      models.EventKindIngested,
				MessageID: msg.ID,
				Status:    msg.Status,
				Priority:  msg.Priority,
				Subject:   msg.Subject,
			})
		}
	}

	return result, nil
}

// process classifies and drafts one inbound message and builds the row
// to persist. Adapter failures fall back to neutral values.
func (p *Pipeline) process(ctx context.Context, in mailbox.InboundMessage, actorID uint) *models.Message {
	excerpt := models.Clip(in.TextBody, config.ClassifyExcerptLen)

	cls, err := p.Classifier.Classify(ctx, in.Subject, excerpt)
	if err != nil {
		log.Printf("WARNING: Classification failed for %q: %v", in.Subject, err)
		cls = ai.FallbackClassification(in.Subject)
	}

	draft, err := p.Drafter.Draft(ctx, in.Subject, models.Clip(in.TextBody, config.DraftExcerptLen), cls.Category)
	if err != nil {
		// Recoverable later via reclassify.
		log.Printf("WARNING: Draft generation failed for %q: %v", in.Subject, err)
		draft = ""
	}

	now := time.Now()
	received := in.Date
	if received.IsZero() {
		received = now
	}

	externalID := in.ExternalID
	msg := &models.Message{
		ExternalID:   &externalID,
		Subject:      in.Subject,
		Sender:       in.Sender,
		Recipient:    in.Recipient,
		Body:         models.Clip(in.TextBody, config.MaxBodyBytes),
		BodyHTML:     in.HTMLBody,
		Category:     cls.Category,
		Priority:     cls.Priority,
		AISummary:    cls.Summary,
		AIDraft:      draft,
		AIConfidence: cls.Confidence,
		Status:       models.StatusUnread,
		ReceivedAt:   &received,
		ProcessedAt:  &now,
	}
	if actorID != 0 {
		msg.ProcessedBy = &actorID
	}
	return msg
}
