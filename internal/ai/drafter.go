package ai

import (
	"context"
	"fmt"
	"strings"

	"mailroom/backend/internal/models"
)

// Drafter produces a machine reply draft for an inbound message. The
// draft is free text and independent of classification correctness.
type Drafter interface {
	Draft(ctx context.Context, subject, excerpt string, category models.Category) (string, error)
}

// LLMDrafter drafts replies via a text completion model.
type LLMDrafter struct {
	Client TextClient
}

func NewLLMDrafter(client TextClient) *LLMDrafter {
	return &LLMDrafter{Client: client}
}

// Draft makes one model call and returns the reply text verbatim.
// Failures are the caller's to absorb (ingestion stores an empty draft
// and the message stays reclassifiable).
func (d *LLMDrafter) Draft(ctx context.Context, subject, excerpt string, category models.Category) (string, error) {
	text, err := d.Client.Complete(ctx, draftPrompt(subject, excerpt, category))
	if err != nil {
		return "", fmt.Errorf("drafter call: %w", err)
	}
	return strings.TrimSpace(text), nil
}

func draftPrompt(subject, excerpt string, category models.Category) string {
	var b strings.Builder
	b.WriteString("You are the secretary of a trading company. Write a professional reply draft for this email.\n\n")
	b.WriteString("Category: " + string(category) + "\n")
	b.WriteString("Subject: " + subject + "\n")
	b.WriteString("Body: " + excerpt + "\n\n")
	b.WriteString("Requirements:\n")
	b.WriteString("- polite, professional business tone\n")
	b.WriteString("- open with a greeting, answer the core point, close politely\n")
	b.WriteString("- keep it concise\n")
	return b.String()
}
