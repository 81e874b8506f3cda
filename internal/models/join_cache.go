package models

import (
	"sync"
	"time"
)

// JoinCache holds recent join timestamps per group so that a leave event
// can be correlated with the matching join. Entries are process-local:
// losing them on restart only means an in-flight correlation is missed.
type JoinCache struct {
	groups map[int64]map[int64]time.Time
	mu     sync.Mutex
}

// NewJoinCache creates an empty join cache
func NewJoinCache() *JoinCache {
	return &JoinCache{
		groups: make(map[int64]map[int64]time.Time),
	}
}

// Record stores the join instant for a user, overwriting any prior entry
func (c *JoinCache) Record(groupID, userID int64, joinedAt time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	group, ok := c.groups[groupID]
	if !ok {
		group = make(map[int64]time.Time)
		c.groups[groupID] = group
	}
	group[userID] = joinedAt
}

// Take atomically reads and removes the join instant for a user.
// The second return value is false when no correlated join exists.
func (c *JoinCache) Take(groupID, userID int64) (time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	group, ok := c.groups[groupID]
	if !ok {
		return time.Time{}, false
	}
	joinedAt, ok := group[userID]
	if !ok {
		return time.Time{}, false
	}
	delete(group, userID)
	if len(group) == 0 {
		delete(c.groups, groupID)
	}
	return joinedAt, true
}

// Sweep removes entries older than the retention ceiling regardless of
// whether a leave was ever observed
func (c *JoinCache) Sweep(retention time.Duration) int {
	cutoff := time.Now().Add(-retention)

	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for groupID, group := range c.groups {
		for userID, joinedAt := range group {
			if joinedAt.Before(cutoff) {
				delete(group, userID)
				removed++
			}
		}
		if len(group) == 0 {
			delete(c.groups, groupID)
		}
	}
	return removed
}

// Len returns the total number of cached joins
func (c *JoinCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := 0
	for _, group := range c.groups {
		total += len(group)
	}
	return total
}
