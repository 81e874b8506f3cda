package models

import "time"

// BounceCounter stores the per-user bounce offense count in a group.
// The count only grows through detection; administrative adjustment may
// lower it, and reset sets it to zero without deleting the row.
type BounceCounter struct {
	ID        uint  `gorm:"primaryKey;autoIncrement"`
	GroupID   int64 `gorm:"index:idx_group_user,unique;not null"`
	UserID    int64 `gorm:"index:idx_group_user,unique;not null"`
	Count     int   `gorm:"default:0"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
