package ai_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"mailroom/backend/internal/ai"
	"mailroom/backend/internal/models"
)

// stubClient returns a canned completion, or an error.
type stubClient struct {
	reply string
	err   error
}

func (s *stubClient) Complete(_ context.Context, _ string) (string, error) {
	return s.reply, s.err
}

func TestParseClassification_ValidJSON(t *testing.T) {
	raw := `{"category": "order", "priority": "high", "summary": "New parts order from Acme.", "confidence": 92}`

	got := ai.ParseClassification(raw, "fallback subject")

	assert.Equal(t, models.CategoryOrder, got.Category)
	assert.Equal(t, models.PriorityHigh, got.Priority)
	assert.Equal(t, 92, got.Confidence)
	assert.Equal(t, "New parts order from Acme.", got.Summary)
}

func TestParseClassification_CodeFence(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{
			"json fence",
			"```json\n{\"category\": \"claim\", \"priority\": \"high\", \"summary\": \"Defective shipment.\", \"confidence\": 80}\n```",
		},
		{
			"bare fence",
			"```\n{\"category\": \"claim\", \"priority\": \"high\", \"summary\": \"Defective shipment.\", \"confidence\": 80}\n```",
		},
		{
			"fence with preamble",
			"Here is the classification:\n```json\n{\"category\": \"claim\", \"priority\": \"high\", \"summary\": \"Defective shipment.\", \"confidence\": 80}\n```",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ai.ParseClassification(tt.raw, "subject")
			assert.Equal(t, models.CategoryClaim, got.Category)
			assert.Equal(t, 80, got.Confidence)
		})
	}
}

func TestParseClassification_Coercion(t *testing.T) {
	t.Run("unknown category becomes other", func(t *testing.T) {
		got := ai.ParseClassification(`{"category": "spam", "priority": "high", "summary": "x", "confidence": 50}`, "s")
		assert.Equal(t, models.CategoryOther, got.Category)
	})

	t.Run("unknown priority becomes medium", func(t *testing.T) {
		got := ai.ParseClassification(`{"category": "order", "priority": "urgent", "summary": "x", "confidence": 50}`, "s")
		assert.Equal(t, models.PriorityMedium, got.Priority)
	})

	t.Run("confidence clamped to 100", func(t *testing.T) {
		got := ai.ParseClassification(`{"category": "order", "priority": "low", "summary": "x", "confidence": 150}`, "s")
		assert.Equal(t, 100, got.Confidence)
	})

	t.Run("negative confidence clamped to 0", func(t *testing.T) {
		got := ai.ParseClassification(`{"category": "order", "priority": "low", "summary": "x", "confidence": -5}`, "s")
		assert.Equal(t, 0, got.Confidence)
	})

	t.Run("fractional confidence truncated", func(t *testing.T) {
		got := ai.ParseClassification(`{"category": "order", "priority": "low", "summary": "x", "confidence": 87.6}`, "s")
		assert.Equal(t, 87, got.Confidence)
	})

	t.Run("empty summary falls back to subject", func(t *testing.T) {
		got := ai.ParseClassification(`{"category": "order", "priority": "low", "summary": "  ", "confidence": 50}`, "Order #7")
		assert.Equal(t, "Order #7", got.Summary)
	})
}

func TestParseClassification_NotJSON(t *testing.T) {
	got := ai.ParseClassification("I could not classify this email, sorry.", "Meeting next week")

	assert.Equal(t, models.CategoryOther, got.Category)
	assert.Equal(t, models.PriorityMedium, got.Priority)
	assert.Equal(t, 0, got.Confidence)
	assert.Equal(t, "Meeting next week", got.Summary)
}

func TestLLMClassifier_Classify(t *testing.T) {
	t.Run("valid reply is parsed", func(t *testing.T) {
		c := ai.NewLLMClassifier(&stubClient{
			reply: `{"category": "meeting", "priority": "low", "summary": "Reschedule request.", "confidence": 70}`,
		})

		got, err := c.Classify(context.Background(), "Meeting", "Can we move to Friday?")
		assert.NoError(t, err)
		assert.Equal(t, models.CategoryMeeting, got.Category)
	})

	t.Run("transport failure is returned as error", func(t *testing.T) {
		c := ai.NewLLMClassifier(&stubClient{err: errors.New("connection refused")})

		_, err := c.Classify(context.Background(), "Meeting", "body")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "classifier call")
	})
}

func TestLLMDrafter_Draft(t *testing.T) {
	t.Run("reply is trimmed", func(t *testing.T) {
		d := ai.NewLLMDrafter(&stubClient{reply: "\n  Dear Sir or Madam,\nThank you.\n  "})

		got, err := d.Draft(context.Background(), "Order", "body", models.CategoryOrder)
		assert.NoError(t, err)
		assert.Equal(t, "Dear Sir or Madam,\nThank you.", got)
	})

	t.Run("transport failure is returned as error", func(t *testing.T) {
		d := ai.NewLLMDrafter(&stubClient{err: errors.New("timeout")})

		_, err := d.Draft(context.Background(), "Order", "body", models.CategoryOrder)
		assert.Error(t, err)
	})
}
