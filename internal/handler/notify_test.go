package handler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildContactsLineShowsIDs(t *testing.T) {
	guard := newTestGuard(newFakePlatform())
	info := testGroupInfo(freshGroupID())
	info.ContactIDs = "111,222"

	line := guard.buildContactsLine(info)
	assert.Contains(t, line, "<a href=\"tg://user?id=111\">111</a>")
	assert.Contains(t, line, "<a href=\"tg://user?id=222\">222</a>")
}

func TestBuildContactsLineTruncates(t *testing.T) {
	guard := newTestGuard(newFakePlatform())
	info := testGroupInfo(freshGroupID())
	info.ContactIDs = "111,222,333"
	info.MaxContacts = 2

	line := guard.buildContactsLine(info)
	assert.Contains(t, line, ">111</a>")
	assert.Contains(t, line, ">222</a>")
	assert.NotContains(t, line, "333")
	assert.Contains(t, line, "+1 more")
}

func TestBuildContactsLineEmpty(t *testing.T) {
	guard := newTestGuard(newFakePlatform())
	info := testGroupInfo(freshGroupID())

	assert.Empty(t, guard.buildContactsLine(info))
}

func TestSanctionDMListsContacts(t *testing.T) {
	fake := newFakePlatform()
	guard := newTestGuard(fake)
	groupID := freshGroupID()
	info := testGroupInfo(groupID)
	info.ContactIDs = "111"
	now := time.Now()

	guard.joins.Record(groupID, 42, now.Add(-5*time.Second))
	require.NoError(t, guard.HandleLeave(context.Background(), info, leaveEvent(groupID, 42, now)))

	require.Len(t, fake.dms, 1)
	assert.Contains(t, fake.dms[0], "contact")
	assert.Contains(t, fake.dms[0], ">111</a>")
}
