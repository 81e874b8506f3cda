package handler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mymmrac/telego"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tg-bounceguard/internal/models"
	"tg-bounceguard/internal/service"
)

func postTestCard(t *testing.T, guard *Guard, fake *fakePlatform, info *models.GroupInfo, userID int64) cardRef {
	t.Helper()
	snap := &models.ActionSnapshot{
		MemberTag:      "<a href=\"tg://user?id=42\">Bouncer</a>",
		JoinTime:       time.Now().Add(-30 * time.Second),
		LeaveTime:      time.Now(),
		ElapsedSeconds: 30,
		DMResult:       "sent",
		BounceCount:    1,
		BanSeconds:     86400,
		UnbanTime:      time.Now().Add(24 * time.Hour),
	}
	require.NoError(t, guard.PostCard(context.Background(), info, userID, snap))
	require.NotEmpty(t, fake.cards)
	card := fake.cards[len(fake.cards)-1]
	return cardRef{ChatID: card.ChatID, MessageID: card.MessageID}
}

func overrideQuery(op string, groupID, userID, actorID int64, ref cardRef) telego.CallbackQuery {
	return telego.CallbackQuery{
		ID:   "query-1",
		From: telego.User{ID: actorID, FirstName: "Admin"},
		Message: &telego.Message{
			Chat:      telego.Chat{ID: ref.ChatID},
			MessageID: ref.MessageID,
		},
		Data: buildCardMarkupData(op, groupID, userID),
	}
}

func buildCardMarkupData(op string, groupID, userID int64) string {
	markup := buildCardMarkup(groupID, userID, false)
	for _, row := range markup.InlineKeyboard {
		for _, button := range row {
			if (op == "permban" && button.Text == "Make permanent") ||
				(op == "unban" && button.Text == "Unban now") {
				return button.CallbackData
			}
		}
	}
	return ""
}

func TestPermbanCardOmitsEscalationButton(t *testing.T) {
	markup := buildCardMarkup(-1, 42, true)
	require.Len(t, markup.InlineKeyboard, 1)
	require.Len(t, markup.InlineKeyboard[0], 1)
	assert.Equal(t, "Unban now", markup.InlineKeyboard[0][0].Text)

	markup = buildCardMarkup(-1, 42, false)
	require.Len(t, markup.InlineKeyboard[0], 2)
	assert.Equal(t, "Make permanent", markup.InlineKeyboard[0][0].Text)
}

func TestPostCardSkipsWithoutLogChat(t *testing.T) {
	fake := newFakePlatform()
	guard := newTestGuard(fake)
	info := testGroupInfo(freshGroupID())
	info.LogChatID = 0

	snap := &models.ActionSnapshot{MemberTag: "x", BounceCount: 1}
	require.NoError(t, guard.PostCard(context.Background(), info, 42, snap))
	assert.Empty(t, fake.cards)
}

func TestRestoreCardsAfterRestart(t *testing.T) {
	fake := newFakePlatform()
	guard := newTestGuard(fake)
	groupID := freshGroupID()
	info := testGroupInfo(groupID)

	ref := postTestCard(t, guard, fake, info, 42)

	// A record whose snapshot no longer decodes
	malformed := &models.PendingAction{
		GroupID:   groupID,
		UserID:    43,
		ChatID:    info.LogChatID,
		MessageID: ref.MessageID + 500,
		Snapshot:  "{broken",
	}
	require.NoError(t, service.InsertPendingAction(malformed))

	// Simulate a restart: a fresh guard with an empty card index
	restarted := newTestGuard(newFakePlatform())
	assert.False(t, restarted.cards.Contains(ref))

	restarted.RestoreCards()

	// The healthy card is live again, the malformed record is gone
	assert.True(t, restarted.cards.Contains(ref))
	assert.False(t, restarted.cards.Contains(cardRef{ChatID: malformed.ChatID, MessageID: malformed.MessageID}))

	action, err := service.GetPendingAction(malformed.ChatID, malformed.MessageID)
	require.NoError(t, err)
	assert.Nil(t, action)
}

func TestCallbackUnbanResolvesOnce(t *testing.T) {
	fake := newFakePlatform()
	guard := newTestGuard(fake)
	groupID := freshGroupID()
	info := testGroupInfo(groupID)

	require.NoError(t, fake.Ban(context.Background(), groupID, 42, "setup"))
	ref := postTestCard(t, guard, fake, info, 42)

	query := overrideQuery("unban", groupID, 42, testOwnerID, ref)
	require.NoError(t, guard.HandleCallbackQuery(context.Background(), query))

	assert.False(t, fake.isBanned(groupID, 42))
	assert.False(t, guard.cards.Contains(ref))
	action, err := service.GetPendingAction(ref.ChatID, ref.MessageID)
	require.NoError(t, err)
	assert.Nil(t, action)

	// The card body was redrawn without buttons
	require.Len(t, fake.edits, 1)
	assert.Contains(t, fake.edits[0].Text, "User unbanned")
	assert.Nil(t, fake.edits[0].Markup)

	// A replayed press is rejected without touching the platform
	unbansBefore := len(fake.unbanCalls)
	require.NoError(t, guard.HandleCallbackQuery(context.Background(), query))
	assert.Len(t, fake.unbanCalls, unbansBefore)
	assert.Contains(t, fake.lastAnswer(), "already handled")
}

func TestCallbackPermbanRemovesTempban(t *testing.T) {
	fake := newFakePlatform()
	guard := newTestGuard(fake)
	groupID := freshGroupID()
	info := testGroupInfo(groupID)

	require.NoError(t, service.AddTempban(&models.TempbanRecord{
		GroupID:   groupID,
		UserID:    42,
		ExpiresAt: time.Now().Add(time.Hour),
	}))
	ref := postTestCard(t, guard, fake, info, 42)

	query := overrideQuery("permban", groupID, 42, testOwnerID, ref)
	require.NoError(t, guard.HandleCallbackQuery(context.Background(), query))

	assert.True(t, fake.isBanned(groupID, 42))
	assert.Nil(t, pendingTempban(t, groupID, 42))
	assert.False(t, guard.cards.Contains(ref))
}

func TestCallbackUnbanAlreadyLifted(t *testing.T) {
	fake := newFakePlatform()
	guard := newTestGuard(fake)
	groupID := freshGroupID()
	info := testGroupInfo(groupID)

	// Nobody is banned; the reversal is already done elsewhere
	ref := postTestCard(t, guard, fake, info, 42)

	query := overrideQuery("unban", groupID, 42, testOwnerID, ref)
	require.NoError(t, guard.HandleCallbackQuery(context.Background(), query))

	// The card still resolves
	assert.False(t, guard.cards.Contains(ref))
}

func TestCallbackUnauthorized(t *testing.T) {
	fake := newFakePlatform()
	guard := newTestGuard(fake)
	groupID := freshGroupID()
	info := testGroupInfo(groupID)

	ref := postTestCard(t, guard, fake, info, 42)

	query := overrideQuery("permban", groupID, 42, 12345, ref)
	require.NoError(t, guard.HandleCallbackQuery(context.Background(), query))

	assert.Empty(t, fake.banCalls)
	assert.True(t, guard.cards.Contains(ref))
	assert.Contains(t, fake.lastAnswer(), "permission")
}

func TestCallbackGroupAdminAllowed(t *testing.T) {
	fake := newFakePlatform()
	guard := newTestGuard(fake)
	groupID := freshGroupID()
	info := testGroupInfo(groupID)
	fake.admins[777] = true

	ref := postTestCard(t, guard, fake, info, 42)

	query := overrideQuery("permban", groupID, 42, 777, ref)
	require.NoError(t, guard.HandleCallbackQuery(context.Background(), query))

	assert.True(t, fake.isBanned(groupID, 42))
	assert.False(t, guard.cards.Contains(ref))
}

func TestCallbackPlatformFailureKeepsCardLive(t *testing.T) {
	fake := newFakePlatform()
	guard := newTestGuard(fake)
	groupID := freshGroupID()
	info := testGroupInfo(groupID)

	ref := postTestCard(t, guard, fake, info, 42)
	fake.banErr = errors.New("not enough rights")

	query := overrideQuery("permban", groupID, 42, testOwnerID, ref)
	require.NoError(t, guard.HandleCallbackQuery(context.Background(), query))

	// Nothing resolved, the override can be retried
	assert.True(t, guard.cards.Contains(ref))
	action, err := service.GetPendingAction(ref.ChatID, ref.MessageID)
	require.NoError(t, err)
	assert.NotNil(t, action)
	assert.Contains(t, fake.lastAnswer(), "failed")
}

func TestCallbackIgnoresForeignData(t *testing.T) {
	fake := newFakePlatform()
	guard := newTestGuard(fake)

	query := telego.CallbackQuery{ID: "q", Data: "lang:en", From: telego.User{ID: testOwnerID}}
	require.NoError(t, guard.HandleCallbackQuery(context.Background(), query))
	assert.Empty(t, fake.answers)
}
