package storage

import (
	"tg-bounceguard/internal/models"

	"gorm.io/gorm"
)

// ActionRepository handles database operations for PendingAction
type ActionRepository struct {
	db *gorm.DB
}

// NewActionRepository creates a new ActionRepository
func NewActionRepository(db *gorm.DB) *ActionRepository {
	return &ActionRepository{db: db}
}

// MigrateTable ensures the PendingAction table exists
func (r *ActionRepository) MigrateTable() error {
	return r.db.AutoMigrate(&models.PendingAction{})
}

// Insert stores a pending action; inserting the same card twice is a no-op
func (r *ActionRepository) Insert(action *models.PendingAction) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var existing models.PendingAction
		result := tx.Where("chat_id = ? AND message_id = ?", action.ChatID, action.MessageID).First(&existing)
		if result.Error == nil {
			return nil
		}
		if result.Error != gorm.ErrRecordNotFound {
			return result.Error
		}
		return tx.Create(action).Error
	})
}

// Get returns the pending action bound to a card, nil when none exists
func (r *ActionRepository) Get(chatID int64, messageID int) (*models.PendingAction, error) {
	var action models.PendingAction
	result := r.db.Where("chat_id = ? AND message_id = ?", chatID, messageID).First(&action)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, result.Error
	}
	return &action, nil
}

// Remove deletes the pending action bound to a card
func (r *ActionRepository) Remove(chatID int64, messageID int) error {
	return r.db.Where("chat_id = ? AND message_id = ?", chatID, messageID).
		Delete(&models.PendingAction{}).Error
}

// ListAll returns every pending action in durable storage
func (r *ActionRepository) ListAll() ([]*models.PendingAction, error) {
	var actions []*models.PendingAction
	result := r.db.Find(&actions)
	return actions, result.Error
}
