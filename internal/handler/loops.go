package handler

import (
	"context"
	"errors"
	"time"

	"tg-bounceguard/internal/crash"
	"tg-bounceguard/internal/logger"
	"tg-bounceguard/internal/service"
)

// Reconciler periodically lifts temporary bans whose expiry has passed.
// The tempban ledger is the source of truth: a record is removed once its
// reversal has been attempted, whether or not the user was still banned.
type Reconciler struct {
	guard    *Guard
	interval time.Duration
	throttle time.Duration
	stop     chan struct{}
	done     chan struct{}
}

// NewReconciler creates a reconciler with the standard cadence
func NewReconciler(guard *Guard) *Reconciler {
	return &Reconciler{
		guard:    guard,
		interval: time.Minute,
		throttle: time.Second,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the reconciliation loop
func (r *Reconciler) Start() {
	crash.SafeGoroutine("tempban-reconciler", func() {
		defer close(r.done)

		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()

		for {
			select {
			case <-r.stop:
				return
			case <-ticker.C:
				r.Sweep(context.Background(), time.Now())
			}
		}
	})
}

// Stop shuts the loop down and waits for it to exit
func (r *Reconciler) Stop() {
	close(r.stop)
	<-r.done
}

// Sweep processes every tempban due at or before now and returns how many
// records were retired. Calls are throttled to stay under rate limits.
func (r *Reconciler) Sweep(ctx context.Context, now time.Time) int {
	records, err := service.ListExpiredTempbans(now)
	if err != nil {
		logger.Errorf("Error listing expired tempbans: %v", err)
		return 0
	}

	processed := 0
	for i, record := range records {
		if i > 0 && r.throttle > 0 {
			time.Sleep(r.throttle)
		}

		err := r.guard.platform.Unban(ctx, record.GroupID, record.UserID)
		switch {
		case err == nil:
			logger.Infof("Lifted expired tempban for user %d in group %d", record.UserID, record.GroupID)
		case errors.Is(err, ErrNotBanned):
			logger.Debugf("Tempban for user %d in group %d already lifted", record.UserID, record.GroupID)
		default:
			logger.Warningf("Error unbanning user %d in group %d: %v", record.UserID, record.GroupID, err)
		}

		// Retire the record either way so one stuck user cannot wedge
		// the whole sweep forever
		if err := service.RemoveTempban(record.GroupID, record.UserID); err != nil {
			logger.Warningf("Error removing tempban record for user %d in group %d: %v",
				record.UserID, record.GroupID, err)
			continue
		}
		processed++
	}
	return processed
}

// Sweeper evicts join cache entries that never saw a matching leave
type Sweeper struct {
	guard     *Guard
	interval  time.Duration
	retention time.Duration
	stop      chan struct{}
	done      chan struct{}
}

// NewSweeper creates a join cache sweeper with the standard cadence
func NewSweeper(guard *Guard) *Sweeper {
	return &Sweeper{
		guard:     guard,
		interval:  5 * time.Minute,
		retention: 2 * time.Hour,
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Start launches the cleanup loop
func (s *Sweeper) Start() {
	crash.SafeGoroutine("join-cache-sweeper", func() {
		defer close(s.done)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-s.stop:
				return
			case <-ticker.C:
				if removed := s.guard.joins.Sweep(s.retention); removed > 0 {
					logger.Debugf("Swept %d stale join cache entries", removed)
				}
			}
		}
	})
}

// Stop shuts the loop down and waits for it to exit
func (s *Sweeper) Stop() {
	close(s.stop)
	<-s.done
}
