package storage

import (
	"context"
	"errors"
	"time"

	"mailroom/backend/internal/models"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// ErrAlreadyResolved is returned when a resolve targets an approval
// event that is no longer pending. The row is left untouched.
var ErrAlreadyResolved = errors.New("approval event already resolved")

// MessageFilter narrows a message listing. Zero values mean "no filter".
type MessageFilter struct {
	Status   string
	Category string
	Priority string
	Search   string // matched against subject and sender
	Offset   int
	Limit    int
}

type Storage interface {
	// Transaction runs fn against a transactional view of the store.
	// Everything fn writes commits together or not at all.
	Transaction(fn func(Storage) error) error

	CreateMessage(msg *models.Message) error
	SaveMessage(msg *models.Message) error
	FindMessageByID(id uint) (*models.Message, error)
	FindMessageByIDForUpdate(id uint) (*models.Message, error)
	FindMessageByExternalID(externalID string) (*models.Message, error)
	ListMessages(f MessageFilter) ([]models.Message, int64, error)
	CountMessagesByStatus(status models.Status) (int64, error)
	CountMessagesByCategory() (map[models.Category]int64, error)
	CountMessages() (int64, error)

	CreateApproval(ev *models.ApprovalEvent) error
	ResolveApproval(eventID, actorID uint, decision models.Decision, comment string, at time.Time) error
	LatestPendingApproval(messageID uint, stage models.Stage) (*models.ApprovalEvent, error)
	ApprovalHistory(messageID uint) ([]models.ApprovalEvent, error)

	SaveUserIfNotExists(email, role string) (*models.User, error)

	AcquireIngestLock(mailbox string, ttl time.Duration) (bool, error)
	ReleaseIngestLock(mailbox string) error
}

type Service struct {
	DB    *gorm.DB
	Redis *redis.Client
	Ctx   context.Context
}

// NewStorageService Constructor
func NewStorageService(db *gorm.DB, rdb *redis.Client) *Service {
	return &Service{
		DB:    db,
		Redis: rdb,
		Ctx:   context.Background(),
	}
}

// Transaction wraps fn in a database transaction. The Storage handed to
// fn shares the Redis client but routes all SQL through the transaction.
func (s *Service) Transaction(fn func(Storage) error) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		return fn(&Service{DB: tx, Redis: s.Redis, Ctx: s.Ctx})
	})
}

// SaveUserIfNotExists looks a user up by email, creating a row with the
// given role on first contact.
func (s *Service) SaveUserIfNotExists(email, role string) (*models.User, error) {
	var user models.User
	defaults := models.User{
		Email: email,
		Role:  role,
	}

	result := s.DB.Where("email = ?", email).FirstOrCreate(&user, defaults)
	if result.Error != nil {
		return nil, result.Error
	}
	return &user, nil
}
