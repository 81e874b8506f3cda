package models

import "time"

// TempbanRecord is one pending temporary ban awaiting automatic reversal.
// At most one live record exists per (group, user); a new temporary ban
// for the same user supersedes the previous record.
type TempbanRecord struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"`
	GroupID   int64     `gorm:"index:idx_tempban_group_user;not null"`
	UserID    int64     `gorm:"index:idx_tempban_group_user;not null"`
	ExpiresAt time.Time `gorm:"index;not null"`
	Reason    string    `gorm:"type:text"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
