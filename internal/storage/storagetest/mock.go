// Package storagetest provides a testify-based mock of storage.Storage
// shared by the ingest and workflow test suites.
package storagetest

import (
	"time"

	"mailroom/backend/internal/models"
	"mailroom/backend/internal/storage"

	"github.com/stretchr/testify/mock"
)

// MockStorage is a mock implementation of the storage.Storage interface.
type MockStorage struct {
	mock.Mock
}

// Transaction runs fn against the mock itself: tests assert on the
// individual calls, transactional atomicity is the real store's job.
func (m *MockStorage) Transaction(fn func(storage.Storage) error) error {
	return fn(m)
}

func (m *MockStorage) CreateMessage(msg *models.Message) error {
	args := m.Called(msg)
	return args.Error(0)
}

func (m *MockStorage) SaveMessage(msg *models.Message) error {
	args := m.Called(msg)
	return args.Error(0)
}

func (m *MockStorage) FindMessageByID(id uint) (*models.Message, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Message), args.Error(1)
}

func (m *MockStorage) FindMessageByIDForUpdate(id uint) (*models.Message, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Message), args.Error(1)
}

func (m *MockStorage) FindMessageByExternalID(externalID string) (*models.Message, error) {
	args := m.Called(externalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Message), args.Error(1)
}

func (m *MockStorage) ListMessages(f storage.MessageFilter) ([]models.Message, int64, error) {
	args := m.Called(f)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]models.Message), args.Get(1).(int64), args.Error(2)
}

func (m *MockStorage) CountMessages() (int64, error) {
	args := m.Called()
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStorage) CountMessagesByStatus(status models.Status) (int64, error) {
	args := m.Called(status)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStorage) CountMessagesByCategory() (map[models.Category]int64, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[models.Category]int64), args.Error(1)
}

func (m *MockStorage) CreateApproval(ev *models.ApprovalEvent) error {
	args := m.Called(ev)
	return args.Error(0)
}

func (m *MockStorage) ResolveApproval(eventID, actorID uint, decision models.Decision, comment string, at time.Time) error {
	args := m.Called(eventID, actorID, decision, comment, at)
	return args.Error(0)
}

func (m *MockStorage) LatestPendingApproval(messageID uint, stage models.Stage) (*models.ApprovalEvent, error) {
	args := m.Called(messageID, stage)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ApprovalEvent), args.Error(1)
}

func (m *MockStorage) ApprovalHistory(messageID uint) ([]models.ApprovalEvent, error) {
	args := m.Called(messageID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ApprovalEvent), args.Error(1)
}

func (m *MockStorage) SaveUserIfNotExists(email, role string) (*models.User, error) {
	args := m.Called(email, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockStorage) AcquireIngestLock(mailbox string, ttl time.Duration) (bool, error) {
	args := m.Called(mailbox, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *MockStorage) ReleaseIngestLock(mailbox string) error {
	args := m.Called(mailbox)
	return args.Error(0)
}
