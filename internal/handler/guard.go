package handler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mymmrac/telego"

	"tg-bounceguard/internal/config"
	"tg-bounceguard/internal/logger"
	"tg-bounceguard/internal/models"
	"tg-bounceguard/internal/service"
)

// MemberEvent is one observed join or leave
type MemberEvent struct {
	GroupID   int64
	UserID    int64
	MemberTag string
	IsBot     bool
	Time      time.Time
}

// keyedMutex serializes work per string key. Entries are never reclaimed;
// the key space here is bounded by active members and live cards.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*sync.Mutex)}
}

// Lock acquires the mutex for a key and returns its unlock function
func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &sync.Mutex{}
		k.locks[key] = l
	}
	k.mu.Unlock()

	l.Lock()
	return l.Unlock
}

// Guard is the bounce detection engine. It correlates joins with leaves,
// decides sanctions, executes them, and posts review cards.
type Guard struct {
	platform  Platform
	bot       *telego.Bot
	joins     *models.JoinCache
	repeat    RepeatDetector
	delegates *DelegateRegistry
	cards     *cardIndex
	locks     *keyedMutex
	cardLocks *keyedMutex

	settleDelay time.Duration
	ownerID     int64

	incrementCounter func(groupID, userID int64) (int, error)
}

// NewGuard creates a bounce guard bound to a platform. bot may be nil when
// no live connection exists; only group metadata lookups use it.
func NewGuard(platform Platform, bot *telego.Bot, cfg *config.Config) *Guard {
	settleDelay := time.Duration(cfg.Bounce.SettleDelaySeconds) * time.Second
	return &Guard{
		platform:    platform,
		bot:         bot,
		joins:       models.NewJoinCache(),
		repeat:      NewRepeatDetector(),
		delegates:   NewDelegateRegistry(),
		cards:       newCardIndex(),
		locks:       newKeyedMutex(),
		cardLocks:   newKeyedMutex(),
		settleDelay: settleDelay,
		ownerID:     cfg.Bot.OwnerID,

		incrementCounter: service.IncrementCounter,
	}
}

// Delegates exposes the registry so external moderation components can
// bind themselves
func (g *Guard) Delegates() *DelegateRegistry {
	return g.delegates
}

// HandleJoin records a join so a later leave can be correlated with it
func (g *Guard) HandleJoin(ctx context.Context, info *models.GroupInfo, ev MemberEvent) {
	if info == nil || !info.Enabled {
		return
	}
	if ev.IsBot && !info.IncludeBots {
		return
	}

	g.joins.Record(ev.GroupID, ev.UserID, ev.Time)
	logger.Debugf("Recorded join for user %d in group %d", ev.UserID, ev.GroupID)

	if info.WelcomeEnabled && !ev.IsBot {
		g.sendWelcomeDM(ctx, info, ev)
	}
}

// HandleLeave correlates a departure with its join and applies the bounce
// policy. Callers should run it off the update loop; the settle delay
// blocks for several seconds before the ban lands.
func (g *Guard) HandleLeave(ctx context.Context, info *models.GroupInfo, ev MemberEvent) error {
	if info == nil || !info.Enabled {
		return nil
	}
	if ev.IsBot && !info.IncludeBots {
		return nil
	}

	unlock := g.locks.Lock(fmt.Sprintf("member:%d:%d", ev.GroupID, ev.UserID))
	defer unlock()

	joinedAt, ok := g.joins.Take(ev.GroupID, ev.UserID)
	if !ok {
		// No correlated join, nothing to judge
		return nil
	}

	// The repeat flag is evaluated before the window check so flagged
	// churn still counts when the final stay outlasted the window
	repeatFlagged := false
	if info.RepeatEnabled {
		repeatFlagged = g.repeat.Flagged(ev.GroupID, ev.UserID, ev.Time)
	}

	elapsed := ev.Time.Sub(joinedAt)
	window := time.Duration(info.WindowSeconds) * time.Second
	if elapsed > window && !repeatFlagged {
		logger.Debugf("User %d stayed %.1fs in group %d, outside the %ds window",
			ev.UserID, elapsed.Seconds(), ev.GroupID, info.WindowSeconds)
		return nil
	}

	// The count is bumped exactly once per detected bounce, before the
	// verdict is decided, so the current offense is included. Without a
	// trustworthy count no sanction can be decided, so the event is
	// dropped rather than judged on a fabricated count.
	count, err := g.incrementCounter(ev.GroupID, ev.UserID)
	if err != nil {
		logger.Errorf("Error incrementing bounce counter for user %d in group %d, dropping event: %v",
			ev.UserID, ev.GroupID, err)
		return err
	}

	verdict := Decide(elapsed, window, count, repeatFlagged)
	permban := verdict == VerdictPermanent
	unbanTime := ev.Time.Add(time.Duration(info.BanSeconds) * time.Second)

	logger.Infof("Bounce detected: user %d left group %d after %.1fs, offense %d, permanent=%v",
		ev.UserID, ev.GroupID, elapsed.Seconds(), count, permban)

	dmResult := g.sendSanctionDM(ctx, info, ev, permban, info.BanSeconds)

	// Let the DM land before the ban cuts off the conversation
	if g.settleDelay > 0 {
		time.Sleep(g.settleDelay)
	}

	snap := &models.ActionSnapshot{
		MemberTag:      ev.MemberTag,
		JoinTime:       joinedAt,
		LeaveTime:      ev.Time,
		ElapsedSeconds: elapsed.Seconds(),
		DMResult:       dmResult,
		BounceCount:    count,
		Permban:        permban,
	}
	if !permban {
		snap.BanSeconds = info.BanSeconds
		snap.UnbanTime = unbanTime
	}

	reason := fmt.Sprintf("bounced after %.1fs, offense %d", elapsed.Seconds(), count)
	if permban {
		err = g.ExecutePermanent(ctx, info.GroupID, ev.UserID, reason)
	} else {
		err = g.ExecuteTemporary(ctx, info.GroupID, ev.UserID, info.BanSeconds, unbanTime, reason)
	}
	if err != nil {
		logger.Errorf("Error sanctioning user %d in group %d: %v", ev.UserID, ev.GroupID, err)
		g.notifySanctionFailure(ctx, info, ev, err)
		return nil
	}

	if err := g.PostCard(ctx, info, ev.UserID, snap); err != nil {
		logger.Errorf("Error posting review card for user %d in group %d: %v",
			ev.UserID, ev.GroupID, err)
	}
	return nil
}
