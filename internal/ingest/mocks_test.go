package ingest_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"mailroom/backend/internal/ai"
	"mailroom/backend/internal/mailbox"
	"mailroom/backend/internal/models"
)

// MockTransport is a mock implementation of mailbox.Transport.
type MockTransport struct {
	mock.Mock
}

func (m *MockTransport) FetchLatest(ctx context.Context, max int) ([]mailbox.InboundMessage, error) {
	args := m.Called(ctx, max)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]mailbox.InboundMessage), args.Error(1)
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
