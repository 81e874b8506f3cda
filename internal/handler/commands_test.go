package handler

import (
	"context"
	"fmt"
	"testing"

	"github.com/mymmrac/telego"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tg-bounceguard/internal/models"
	"tg-bounceguard/internal/service"
)

func commandMessage(groupID, fromID int64, text string) telego.Message {
	return telego.Message{
		Text: text,
		Chat: telego.Chat{ID: groupID},
		From: &telego.User{ID: fromID, FirstName: "Admin"},
	}
}

func runCommand(t *testing.T, guard *Guard, groupID int64, text string) {
	t.Helper()
	ok, err := guard.HandleCommand(context.Background(), commandMessage(groupID, testOwnerID, text))
	require.NoError(t, err)
	require.True(t, ok)
}

func groupSettings(groupID int64) *models.GroupInfo {
	return service.GetGroupInfo(nil, groupID, true)
}

func TestHandleCommandIgnoresRegularMessages(t *testing.T) {
	guard := newTestGuard(newFakePlatform())

	ok, err := guard.HandleCommand(context.Background(), commandMessage(freshGroupID(), testOwnerID, "hello there"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHandleCommandUnauthorized(t *testing.T) {
	fake := newFakePlatform()
	guard := newTestGuard(fake)
	groupID := freshGroupID()

	ok, err := guard.HandleCommand(context.Background(), commandMessage(groupID, 12345, "/bounce_on"))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.False(t, groupSettings(groupID).Enabled)
	require.Len(t, fake.cards, 1)
	assert.Contains(t, fake.cards[0].Text, "administrators")
}

func TestCommandOnOff(t *testing.T) {
	guard := newTestGuard(newFakePlatform())
	groupID := freshGroupID()

	runCommand(t, guard, groupID, "/bounce_on")
	assert.True(t, groupSettings(groupID).Enabled)

	runCommand(t, guard, groupID, "/bounce_off")
	assert.False(t, groupSettings(groupID).Enabled)
}

func TestCommandStripsBotSuffix(t *testing.T) {
	guard := newTestGuard(newFakePlatform())
	groupID := freshGroupID()

	runCommand(t, guard, groupID, "/bounce_on@bounce_guard_bot")
	assert.True(t, groupSettings(groupID).Enabled)
}

func TestCommandWindowBounds(t *testing.T) {
	guard := newTestGuard(newFakePlatform())
	groupID := freshGroupID()
	initial := groupSettings(groupID).WindowSeconds

	for _, bad := range []string{"9", "3601", "abc", "-5"} {
		runCommand(t, guard, groupID, "/bounce_window "+bad)
		assert.Equal(t, initial, groupSettings(groupID).WindowSeconds, "value %s", bad)
	}

	runCommand(t, guard, groupID, "/bounce_window 10")
	assert.Equal(t, 10, groupSettings(groupID).WindowSeconds)

	runCommand(t, guard, groupID, "/bounce_window 3600")
	assert.Equal(t, 3600, groupSettings(groupID).WindowSeconds)
}

func TestCommandDuration(t *testing.T) {
	guard := newTestGuard(newFakePlatform())
	groupID := freshGroupID()

	runCommand(t, guard, groupID, "/bounce_duration 12h")
	assert.Equal(t, 43200, groupSettings(groupID).BanSeconds)

	// Invalid tokens leave the setting untouched
	runCommand(t, guard, groupID, "/bounce_duration forever")
	assert.Equal(t, 43200, groupSettings(groupID).BanSeconds)
}

func TestCommandLogChat(t *testing.T) {
	guard := newTestGuard(newFakePlatform())
	groupID := freshGroupID()

	runCommand(t, guard, groupID, "/bounce_logchat")
	assert.Equal(t, groupID, groupSettings(groupID).LogChatID)

	runCommand(t, guard, groupID, "/bounce_logchat -100999")
	assert.Equal(t, int64(-100999), groupSettings(groupID).LogChatID)
}

func TestCommandContacts(t *testing.T) {
	guard := newTestGuard(newFakePlatform())
	groupID := freshGroupID()

	runCommand(t, guard, groupID, "/bounce_contact add 111")
	runCommand(t, guard, groupID, "/bounce_contact add 222")
	assert.Equal(t, "111,222", groupSettings(groupID).ContactIDs)

	// Duplicates are rejected
	runCommand(t, guard, groupID, "/bounce_contact add 111")
	assert.Equal(t, "111,222", groupSettings(groupID).ContactIDs)

	runCommand(t, guard, groupID, "/bounce_contact remove 111")
	assert.Equal(t, "222", groupSettings(groupID).ContactIDs)
}

func TestCommandContactsCap(t *testing.T) {
	guard := newTestGuard(newFakePlatform())
	groupID := freshGroupID()
	info := groupSettings(groupID)
	info.MaxContacts = 2
	service.UpdateGroupInfo(info)

	runCommand(t, guard, groupID, "/bounce_contact add 1")
	runCommand(t, guard, groupID, "/bounce_contact add 2")
	runCommand(t, guard, groupID, "/bounce_contact add 3")
	assert.Equal(t, "1,2", groupSettings(groupID).ContactIDs)
}

func TestCommandCountAdjust(t *testing.T) {
	guard := newTestGuard(newFakePlatform())
	groupID := freshGroupID()
	userID := int64(42)

	count := func() int {
		c, err := service.GetCounter(groupID, userID)
		require.NoError(t, err)
		return c
	}

	runCommand(t, guard, groupID, fmt.Sprintf("/bounce_count %d +2", userID))
	assert.Equal(t, 2, count())

	runCommand(t, guard, groupID, fmt.Sprintf("/bounce_count %d -1", userID))
	assert.Equal(t, 1, count())

	runCommand(t, guard, groupID, fmt.Sprintf("/bounce_count %d 5", userID))
	assert.Equal(t, 5, count())

	// Adjustments never go below zero
	runCommand(t, guard, groupID, fmt.Sprintf("/bounce_count %d -10", userID))
	assert.Equal(t, 0, count())

	runCommand(t, guard, groupID, fmt.Sprintf("/bounce_count %d +4", userID))
	runCommand(t, guard, groupID, fmt.Sprintf("/bounce_count %d reset", userID))
	assert.Equal(t, 0, count())
}

func TestCommandStatus(t *testing.T) {
	fake := newFakePlatform()
	guard := newTestGuard(fake)
	groupID := freshGroupID()

	runCommand(t, guard, groupID, "/bounce_status")
	require.NotEmpty(t, fake.cards)
	status := fake.cards[len(fake.cards)-1].Text
	assert.Contains(t, status, "Bounce guard status")
	assert.Contains(t, status, "Window")
}
