package storage

import (
	"time"

	"tg-bounceguard/internal/models"

	"gorm.io/gorm"
)

// TempbanRepository handles database operations for TempbanRecord
type TempbanRepository struct {
	db *gorm.DB
}

// NewTempbanRepository creates a new TempbanRepository
func NewTempbanRepository(db *gorm.DB) *TempbanRepository {
	return &TempbanRepository{db: db}
}

// MigrateTable ensures the TempbanRecord table exists
func (r *TempbanRepository) MigrateTable() error {
	return r.db.AutoMigrate(&models.TempbanRecord{})
}

// Add inserts a tempban record, removing any prior record for the same
// user first so the reconciliation loop never sees two live records.
func (r *TempbanRepository) Add(record *models.TempbanRecord) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("group_id = ? AND user_id = ?", record.GroupID, record.UserID).
			Delete(&models.TempbanRecord{}).Error; err != nil {
			return err
		}
		return tx.Create(record).Error
	})
}

// Remove deletes any live tempban record for a user in a group
func (r *TempbanRepository) Remove(groupID, userID int64) error {
	return r.db.Where("group_id = ? AND user_id = ?", groupID, userID).
		Delete(&models.TempbanRecord{}).Error
}

// ListExpired returns all records whose expiry has passed
func (r *TempbanRepository) ListExpired(now time.Time) ([]*models.TempbanRecord, error) {
	var records []*models.TempbanRecord
	result := r.db.Where("expires_at <= ?", now).Find(&records)
	return records, result.Error
}

// Get returns the live tempban record for a user, or nil
func (r *TempbanRepository) Get(groupID, userID int64) (*models.TempbanRecord, error) {
	var record models.TempbanRecord
	result := r.db.Where("group_id = ? AND user_id = ?", groupID, userID).First(&record)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, result.Error
	}
	return &record, nil
}
