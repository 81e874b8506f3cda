package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// ActionSnapshot is the immutable decision context captured when a review
// card is posted. It carries everything needed to redraw the card without
// recomputation.
type ActionSnapshot struct {
	MemberTag      string    `json:"member_tag"`
	JoinTime       time.Time `json:"join_time"`
	LeaveTime      time.Time `json:"leave_time"`
	ElapsedSeconds float64   `json:"elapsed_seconds"`
	DMResult       string    `json:"dm_result"`
	BounceCount    int       `json:"bounce_count"`
	Permban        bool      `json:"permban"`
	BanSeconds     int       `json:"ban_seconds,omitempty"`
	UnbanTime      time.Time `json:"unban_time,omitempty"`
}

// PendingAction is one posted review card whose override controls are
// still live. The row is deleted when an administrator resolves the card;
// it is the record that must survive process restarts.
type PendingAction struct {
	ID        uint  `gorm:"primaryKey;autoIncrement"`
	GroupID   int64 `gorm:"index;not null"`
	UserID    int64 `gorm:"index;not null"`
	ChatID    int64 `gorm:"index:idx_action_card,unique;not null"`
	MessageID int   `gorm:"index:idx_action_card,unique;not null"`
	Snapshot  string `gorm:"type:text"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// EncodeSnapshot serializes the snapshot into the record
func (p *PendingAction) EncodeSnapshot(snap *ActionSnapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to encode action snapshot: %w", err)
	}
	p.Snapshot = string(data)
	return nil
}

// DecodeSnapshot parses the stored snapshot; a malformed snapshot is an
// error so that restart recovery can drop the record
func (p *PendingAction) DecodeSnapshot() (*ActionSnapshot, error) {
	if p.Snapshot == "" {
		return nil, fmt.Errorf("empty action snapshot")
	}
	var snap ActionSnapshot
	if err := json.Unmarshal([]byte(p.Snapshot), &snap); err != nil {
		return nil, fmt.Errorf("failed to decode action snapshot: %w", err)
	}
	return &snap, nil
}
