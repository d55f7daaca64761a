package workflow_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"mailroom/backend/internal/ai"
	"mailroom/backend/internal/models"
)

// MockSender is a mock implementation of mailbox.Sender.
type MockSender struct {
	mock.Mock
}

func (m *MockSender) Send(ctx context.Context, to, subject, body string) error {
	args := m.Called(ctx, to, subject, body)
	return args.Error(0)
}

// MockClassifier is a mock implementation of ai.Classifier.
type MockClassifier struct {
	mock.Mock
}

func (m *MockClassifier) Classify(ctx context.Context, subject, excerpt string) (ai.Classification, error) {
	args := m.Called(ctx, subject, excerpt)
	return args.Get(0).(ai.Classification), args.Error(1)
}

// MockDrafter is a mock implementation of ai.Drafter.
type MockDrafter struct {
	mock.Mock
}

func (m *MockDrafter) Draft(ctx context.Context, subject, excerpt string, category models.Category) (string, error) {
	args := m.Called(ctx, subject, excerpt, category)
	return args.String(0), args.Error(1)
}

// allowAll grants every capability; denyAll grants none.
type allowAll struct{}

func (allowAll) Can(models.Actor, models.Capability) bool { return true }

type denyAll struct{}

func (denyAll) Can(models.Actor, models.Capability) bool { return false }
