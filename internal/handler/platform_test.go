package handler

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/mymmrac/telego"

	"tg-bounceguard/internal/config"
)

const testOwnerID int64 = 900

// nextTestGroupID hands out a distinct group ID per test so state in the
// shared in-memory ledgers never bleeds between tests
var nextTestGroupID int64 = -1000

func freshGroupID() int64 {
	return atomic.AddInt64(&nextTestGroupID, -1)
}

type banKey struct {
	GroupID int64
	UserID  int64
}

type sentCard struct {
	ChatID    int64
	MessageID int
	Text      string
	Markup    *telego.InlineKeyboardMarkup
}

// fakePlatform records every operation the engine issues
type fakePlatform struct {
	mu sync.Mutex

	banned     map[banKey]bool
	banCalls   []banKey
	unbanCalls []banKey
	dms        []string
	cards      []sentCard
	edits      []sentCard
	answers    []string
	admins     map[int64]bool

	banErr   error
	unbanErr error
	dmErr    error
	sendErr  error

	nextMessageID int
}

func newFakePlatform() *fakePlatform {
	return &fakePlatform{
		banned: make(map[banKey]bool),
		admins: make(map[int64]bool),
	}
}

func (f *fakePlatform) SendDirectMessage(ctx context.Context, userID int64, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.dmErr != nil {
		return f.dmErr
	}
	f.dms = append(f.dms, text)
	return nil
}

func (f *fakePlatform) Ban(ctx context.Context, groupID, userID int64, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.banErr != nil {
		return f.banErr
	}
	key := banKey{GroupID: groupID, UserID: userID}
	f.banCalls = append(f.banCalls, key)
	f.banned[key] = true
	return nil
}

func (f *fakePlatform) Unban(ctx context.Context, groupID, userID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.unbanErr != nil {
		return f.unbanErr
	}
	key := banKey{GroupID: groupID, UserID: userID}
	f.unbanCalls = append(f.unbanCalls, key)
	if !f.banned[key] {
		return ErrNotBanned
	}
	delete(f.banned, key)
	return nil
}

func (f *fakePlatform) CreateInviteLink(ctx context.Context, groupID int64) (string, error) {
	return "https://t.me/+testinvite", nil
}

func (f *fakePlatform) SendCard(ctx context.Context, chatID int64, text string, markup *telego.InlineKeyboardMarkup) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return 0, f.sendErr
	}
	f.nextMessageID++
	f.cards = append(f.cards, sentCard{ChatID: chatID, MessageID: f.nextMessageID, Text: text, Markup: markup})
	return f.nextMessageID, nil
}

func (f *fakePlatform) EditCard(ctx context.Context, chatID int64, messageID int, text string, markup *telego.InlineKeyboardMarkup) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.edits = append(f.edits, sentCard{ChatID: chatID, MessageID: messageID, Text: text, Markup: markup})
	return nil
}

func (f *fakePlatform) AnswerCallback(ctx context.Context, queryID, text string, alert bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.answers = append(f.answers, text)
	return nil
}

func (f *fakePlatform) IsAdmin(ctx context.Context, groupID, userID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.admins[userID], nil
}

func (f *fakePlatform) isBanned(groupID, userID int64) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.banned[banKey{GroupID: groupID, UserID: userID}]
}

func (f *fakePlatform) lastAnswer() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.answers) == 0 {
		return ""
	}
	return f.answers[len(f.answers)-1]
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Bot.OwnerID = testOwnerID
	cfg.Bounce.Enabled = false
	cfg.Bounce.WindowSeconds = 60
	cfg.Bounce.BanDuration = "1d"
	cfg.Bounce.MaxContacts = 25
	cfg.Bounce.SettleDelaySeconds = 0
	return cfg
}

func newTestGuard(p Platform) *Guard {
	cfg := testConfig()
	Initialize(cfg)
	return NewGuard(p, nil, cfg)
}
