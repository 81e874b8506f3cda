package storage

import (
	"tg-bounceguard/internal/models"

	"gorm.io/gorm"
)

// CounterRepository handles database operations for BounceCounter
type CounterRepository struct {
	db *gorm.DB
}

// NewCounterRepository creates a new CounterRepository
func NewCounterRepository(db *gorm.DB) *CounterRepository {
	return &CounterRepository{db: db}
}

// MigrateTable ensures the BounceCounter table exists
func (r *CounterRepository) MigrateTable() error {
	return r.db.AutoMigrate(&models.BounceCounter{})
}

// Increment bumps the counter for a user by one and returns the new count.
// The read-modify-write runs inside a transaction so concurrent handlers
// cannot lose an update.
func (r *CounterRepository) Increment(groupID, userID int64) (int, error) {
	var count int
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var counter models.BounceCounter
		result := tx.Where("group_id = ? AND user_id = ?", groupID, userID).First(&counter)
		if result.Error != nil {
			if result.Error != gorm.ErrRecordNotFound {
				return result.Error
			}
			counter = models.BounceCounter{GroupID: groupID, UserID: userID, Count: 1}
			if err := tx.Create(&counter).Error; err != nil {
				return err
			}
			count = 1
			return nil
		}

		counter.Count++
		if err := tx.Save(&counter).Error; err != nil {
			return err
		}
		count = counter.Count
		return nil
	})
	return count, err
}

// Get returns the current count for a user; zero when no record exists
func (r *CounterRepository) Get(groupID, userID int64) (int, error) {
	var counter models.BounceCounter
	result := r.db.Where("group_id = ? AND user_id = ?", groupID, userID).First(&counter)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return 0, nil
		}
		return 0, result.Error
	}
	return counter.Count, nil
}

// Set overwrites the count for a user, creating the record if needed.
// Reset keeps the row with a zero count.
func (r *CounterRepository) Set(groupID, userID int64, count int) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var counter models.BounceCounter
		result := tx.Where("group_id = ? AND user_id = ?", groupID, userID).First(&counter)
		if result.Error != nil {
			if result.Error != gorm.ErrRecordNotFound {
				return result.Error
			}
			counter = models.BounceCounter{GroupID: groupID, UserID: userID, Count: count}
			return tx.Create(&counter).Error
		}
		counter.Count = count
		return tx.Save(&counter).Error
	})
}
