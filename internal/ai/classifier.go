package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"mailroom/backend/internal/models"
)

// Classification is the validated result of one classify run.
type Classification struct {
	Category   models.Category
	Priority   models.Priority
	Confidence int // 0-100
	Summary    string
}

// FallbackClassification is the neutral result persisted when
// classification fails: the message stays usable and can be
// reclassified on demand.
func FallbackClassification(subject string) Classification {
	return Classification{
		Category:   models.CategoryOther,
		Priority:   models.PriorityMedium,
		Confidence: 0,
		Summary:    subject,
	}
}

// Classifier assigns a category, priority, confidence, and one-line
// summary to an inbound message.
type Classifier interface {
	Classify(ctx context.Context, subject, excerpt string) (Classification, error)
}

// LLMClassifier classifies via a text completion model. The model is
// asked for strict JSON; anything it returns is validated before being
// handed to the caller.
type LLMClassifier struct {
	Client TextClient
}

func NewLLMClassifier(client TextClient) *LLMClassifier {
	return &LLMClassifier{Client: client}
}

// Classify makes one model call. A transport-level failure is returned
// as an error; a malformed reply degrades to the fallback result.
func (c *LLMClassifier) Classify(ctx context.Context, subject, excerpt string) (Classification, error) {
	raw, err := c.Client.Complete(ctx, classifyPrompt(subject, excerpt))
	if err != nil {
		return Classification{}, fmt.Errorf("classifier call: %w", err)
	}
	return ParseClassification(raw, subject), nil
}

func classifyPrompt(subject, excerpt string) string {
	var b strings.Builder
	b.WriteString("Classify the following business email. Respond with JSON only, no other text.\n\n")
	b.WriteString("Subject: " + subject + "\n")
	b.WriteString("Body: " + excerpt + "\n\n")
	b.WriteString("Categories:\n")
	b.WriteString("- order: purchase orders, part/material orders\n")
	b.WriteString("- request: work requests, document requests\n")
	b.WriteString("- quote: quotation requests, price inquiries\n")
	b.WriteString("- inquiry: general questions and confirmations\n")
	b.WriteString("- notice: announcements and notifications\n")
	b.WriteString("- meeting: meetings, schedules, calendar changes\n")
	b.WriteString("- claim: complaints, defects, returns, exchanges\n")
	b.WriteString("- other: anything else\n\n")
	b.WriteString(`JSON shape: {"category": "<one of the above>", "priority": "high/medium/low", "summary": "one sentence", "confidence": <0-100>}`)
	return b.String()
}

// ParseClassification turns a raw model reply into a validated
// Classification. Code fences are stripped, the category is coerced
// onto the closed set, and confidence is clamped to [0,100]. A reply
// that is not JSON at all yields the fallback.
func ParseClassification(raw, subject string) Classification {
	cleaned := stripCodeFence(raw)

	var out struct {
		Category   string  `json:"category"`
		Priority   string  `json:"priority"`
		Summary    string  `json:"summary"`
		Confidence float64 `json:"confidence"`
	}
	if err := json.Unmarshal([]byte(cleaned), &out); err != nil {
		return FallbackClassification(subject)
	}

	result := Classification{
		Category:   models.ParseCategory(out.Category),
		Priority:   models.ParsePriority(out.Priority),
		Confidence: clampConfidence(int(out.Confidence)),
		Summary:    strings.TrimSpace(out.Summary),
	}
	if result.Summary == "" {
		result.Summary = subject
	}
	return result
}

// stripCodeFence unwraps a ```json ... ``` block if the model added one.
func stripCodeFence(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.Contains(s, "```") {
		return s
	}

	if idx := strings.Index(s, "```json"); idx >= 0 {
		s = s[idx+len("```json"):]
	} else if idx := strings.Index(s, "```"); idx >= 0 {
		s = s[idx+len("```"):]
	}
	if idx := strings.Index(s, "```"); idx >= 0 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}

func clampConfidence(n int) int {
	if n < 0 {
		return 0
	}
	if n > 100 {
		return 100
	}
	return n
}
