package models

import (
	"fmt"
	"sync"
	"time"
)

// GroupInfo stores per-group bounce detection settings.
type GroupInfo struct {
	ID        uint  `gorm:"primaryKey;autoIncrement"`
	GroupID   int64 `gorm:"uniqueIndex;not null"`
	GroupName string
	GroupLink string
	IsAdmin   bool
	AdminID   int64

	Enabled        bool
	WindowSeconds  int
	BanSeconds     int
	LogChatID      int64
	ContactIDs     string `gorm:"type:text"` // comma-separated user IDs
	MaxContacts    int
	IncludeBots    bool
	WelcomeEnabled bool

	RepeatEnabled       bool
	RepeatWindowMinutes int
	RepeatThreshold     int

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (g *GroupInfo) GetLinkedGroupName() string {
	if g.GroupLink == "" {
		return g.GroupName
	}
	return fmt.Sprintf("<a href=\"%s\">%s</a>", g.GroupLink, g.GroupName)
}

type GroupInfoManager struct {
	GroupInfoMap   map[int64]*GroupInfo
	GroupInfoMapMu sync.RWMutex
}

func NewGroupInfoManager() *GroupInfoManager {
	return &GroupInfoManager{
		GroupInfoMap: make(map[int64]*GroupInfo),
	}
}

func (g *GroupInfoManager) GetGroupInfo(chatID int64) *GroupInfo {
	g.GroupInfoMapMu.RLock()
	defer g.GroupInfoMapMu.RUnlock()
	return g.GroupInfoMap[chatID]
}

func (g *GroupInfoManager) AddGroupInfo(groupInfo *GroupInfo) {
	g.GroupInfoMapMu.Lock()
	defer g.GroupInfoMapMu.Unlock()
	g.GroupInfoMap[groupInfo.GroupID] = groupInfo
}

func (g *GroupInfoManager) RemoveGroupInfo(groupID int64) {
	g.GroupInfoMapMu.Lock()
	defer g.GroupInfoMapMu.Unlock()
	delete(g.GroupInfoMap, groupID)
}
