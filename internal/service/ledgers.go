package service

import (
	"sync"
	"time"

	"tg-bounceguard/internal/models"
)

// The ledgers wrap the repositories behind nil-safe accessors. When the
// database is disabled every ledger falls back to an in-memory map, which
// keeps a single process working but loses state on restart.

type memberKey struct {
	GroupID int64
	UserID  int64
}

type cardKey struct {
	ChatID    int64
	MessageID int
}

// CounterLedger stores per-user bounce offense counts
type CounterLedger struct {
	mu  sync.Mutex
	mem map[memberKey]int
}

var counterMem = &CounterLedger{mem: make(map[memberKey]int)}

// IncrementCounter bumps the offense count by one and returns the new value
func IncrementCounter(groupID, userID int64) (int, error) {
	if counterRepository != nil {
		return counterRepository.Increment(groupID, userID)
	}
	counterMem.mu.Lock()
	defer counterMem.mu.Unlock()
	key := memberKey{GroupID: groupID, UserID: userID}
	counterMem.mem[key]++
	return counterMem.mem[key], nil
}

// GetCounter returns the offense count for a user; zero when unknown
func GetCounter(groupID, userID int64) (int, error) {
	if counterRepository != nil {
		return counterRepository.Get(groupID, userID)
	}
	counterMem.mu.Lock()
	defer counterMem.mu.Unlock()
	return counterMem.mem[memberKey{GroupID: groupID, UserID: userID}], nil
}

// SetCounter overwrites the offense count; reset keeps the record at zero
func SetCounter(groupID, userID int64, count int) error {
	if counterRepository != nil {
		return counterRepository.Set(groupID, userID, count)
	}
	counterMem.mu.Lock()
	defer counterMem.mu.Unlock()
	counterMem.mem[memberKey{GroupID: groupID, UserID: userID}] = count
	return nil
}

// TempbanLedger stores pending temporary bans
type TempbanLedger struct {
	mu  sync.Mutex
	mem map[memberKey]*models.TempbanRecord
}

var tempbanMem = &TempbanLedger{mem: make(map[memberKey]*models.TempbanRecord)}

// AddTempban records a pending temporary ban, superseding any prior one
func AddTempban(record *models.TempbanRecord) error {
	if tempbanRepository != nil {
		return tempbanRepository.Add(record)
	}
	tempbanMem.mu.Lock()
	defer tempbanMem.mu.Unlock()
	tempbanMem.mem[memberKey{GroupID: record.GroupID, UserID: record.UserID}] = record
	return nil
}

// RemoveTempban deletes any live tempban record for a user
func RemoveTempban(groupID, userID int64) error {
	if tempbanRepository != nil {
		return tempbanRepository.Remove(groupID, userID)
	}
	tempbanMem.mu.Lock()
	defer tempbanMem.mu.Unlock()
	delete(tempbanMem.mem, memberKey{GroupID: groupID, UserID: userID})
	return nil
}

// ListExpiredTempbans returns every record whose expiry has passed
func ListExpiredTempbans(now time.Time) ([]*models.TempbanRecord, error) {
	if tempbanRepository != nil {
		return tempbanRepository.ListExpired(now)
	}
	tempbanMem.mu.Lock()
	defer tempbanMem.mu.Unlock()
	var expired []*models.TempbanRecord
	for _, record := range tempbanMem.mem {
		if !record.ExpiresAt.After(now) {
			expired = append(expired, record)
		}
	}
	return expired, nil
}

// ActionLedger stores pending review-card actions
type ActionLedger struct {
	mu  sync.Mutex
	mem map[cardKey]*models.PendingAction
}

var actionMem = &ActionLedger{mem: make(map[cardKey]*models.PendingAction)}

// InsertPendingAction stores a pending action; duplicates are a no-op
func InsertPendingAction(action *models.PendingAction) error {
	if actionRepository != nil {
		return actionRepository.Insert(action)
	}
	actionMem.mu.Lock()
	defer actionMem.mu.Unlock()
	key := cardKey{ChatID: action.ChatID, MessageID: action.MessageID}
	if _, ok := actionMem.mem[key]; ok {
		return nil
	}
	actionMem.mem[key] = action
	return nil
}

// GetPendingAction returns the pending action bound to a card, nil when
// none exists
func GetPendingAction(chatID int64, messageID int) (*models.PendingAction, error) {
	if actionRepository != nil {
		return actionRepository.Get(chatID, messageID)
	}
	actionMem.mu.Lock()
	defer actionMem.mu.Unlock()
	return actionMem.mem[cardKey{ChatID: chatID, MessageID: messageID}], nil
}

// RemovePendingAction deletes the pending action bound to a card
func RemovePendingAction(chatID int64, messageID int) error {
	if actionRepository != nil {
		return actionRepository.Remove(chatID, messageID)
	}
	actionMem.mu.Lock()
	defer actionMem.mu.Unlock()
	delete(actionMem.mem, cardKey{ChatID: chatID, MessageID: messageID})
	return nil
}

// ListPendingActions returns every stored pending action
func ListPendingActions() ([]*models.PendingAction, error) {
	if actionRepository != nil {
		return actionRepository.ListAll()
	}
	actionMem.mu.Lock()
	defer actionMem.mu.Unlock()
	actions := make([]*models.PendingAction, 0, len(actionMem.mem))
	for _, action := range actionMem.mem {
		actions = append(actions, action)
	}
	return actions, nil
}
