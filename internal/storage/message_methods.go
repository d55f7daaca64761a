package storage

import (
	"errors"
	"log"

	"mailroom/backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CreateMessage inserts a new message row. The unique index on
// external_id is the hard dedup boundary; callers are expected to check
// FindMessageByExternalID first, the constraint only backstops races.
func (s *Service) CreateMessage(msg *models.Message) error {
	if err := s.DB.Create(msg).Error; err != nil {
		log.Printf("ERROR: Failed to create message %q: %v", msg.Subject, err)
		return err
	}
	return nil
}

// SaveMessage persists all fields of an existing message.
func (s *Service) SaveMessage(msg *models.Message) error {
	return s.DB.Save(msg).Error
}

// FindMessageByID returns the message or nil when it does not exist.
func (s *Service) FindMessageByID(id uint) (*models.Message, error) {
	var msg models.Message
	err := s.DB.First(&msg, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

// FindMessageByIDForUpdate loads the message under a row-level lock.
// Only meaningful inside a Transaction; the lock serializes concurrent
// transitions on the same message.
func (s *Service) FindMessageByIDForUpdate(id uint) (*models.Message, error) {
	var msg models.Message
	err := s.DB.Clauses(clause.Locking{Strength: "UPDATE"}).First(&msg, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

// FindMessageByExternalID returns the message with the given transport
// id, or nil when none exists.
func (s *Service) FindMessageByExternalID(externalID string) (*models.Message, error) {
	var msg models.Message
	err := s.DB.Where("external_id = ?", externalID).First(&msg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

// ListMessages returns a filtered page of messages, newest first, plus
// the total count before paging.
func (s *Service) ListMessages(f MessageFilter) ([]models.Message, int64, error) {
	query := s.DB.Model(&models.Message{}).Order("created_at desc")

	if f.Status != "" {
		query = query.Where("status = ?", f.Status)
	}
	if f.Category != "" {
		query = query.Where("category = ?", f.Category)
	}
	if f.Priority != "" {
		query = query.Where("priority = ?", f.Priority)
	}
	if f.Search != "" {
		like := "%" + f.Search + "%"
		query = query.Where("subject ILIKE ? OR sender ILIKE ?", like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if f.Offset > 0 {
		query = query.Offset(f.Offset)
	}
	if f.Limit > 0 {
		query = query.Limit(f.Limit)
	}

	var msgs []models.Message
	if err := query.Find(&msgs).Error; err != nil {
		log.Printf("ERROR: Failed to list messages: %v", err)
		return nil, 0, err
	}
	return msgs, total, nil
}

// CountMessages returns the total number of messages.
func (s *Service) CountMessages() (int64, error) {
	var n int64
	err := s.DB.Model(&models.Message{}).Count(&n).Error
	return n, err
}

// CountMessagesByStatus returns how many messages are in the given state.
func (s *Service) CountMessagesByStatus(status models.Status) (int64, error) {
	var n int64
	err := s.DB.Model(&models.Message{}).Where("status = ?", status).Count(&n).Error
	return n, err
}

// CountMessagesByCategory returns a per-category breakdown, omitting
// categories with no messages.
func (s *Service) CountMessagesByCategory() (map[models.Category]int64, error) {
	type row struct {
		Category models.Category
		N        int64
	}
	var rows []row
	err := s.DB.Model(&models.Message{}).
		Select("category, count(*) as n").
		Group("category").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[models.Category]int64, len(rows))
	for _, r := range rows {
		counts[r.Category] = r.N
	}
	return counts, nil
}
