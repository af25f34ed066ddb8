package store

import (
	"testing"
	"time"

	"github.com/bluechat/bluechat/internal/database"
	"github.com/bluechat/bluechat/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMessageStore(t *testing.T) *MessageStore {
	t.Helper()
	return NewMessageStore(testutil.TestLogger(t), newTestRepo(t))
}

func TestSend_Validation(t *testing.T) {
	messages := newTestMessageStore(t)

	tcases := []struct {
		name   string
		params SendParams
		err    error
	}{
		{
			name:   "neither receiver nor group",
			params: SendParams{Sender: "alice", Body: "hi"},
			err:    ErrInvalidConversationTarget,
		},
		{
			name:   "both receiver and group",
			params: SendParams{Sender: "alice", Receiver: "bob", GroupName: "gophers", Body: "hi"},
			err:    ErrInvalidConversationTarget,
		},
		{
			name:   "no body and no attachment",
			params: SendParams{Sender: "alice", Receiver: "bob"},
			err:    ErrEmptyMessage,
		},
		{
			name:   "attachment-only message",
			params: SendParams{Sender: "alice", Receiver: "bob", Attachment: "alice/photo.png"},
		},
		{
			name:   "body-only message",
			params: SendParams{Sender: "alice", Receiver: "bob", Body: "hi"},
		},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := messages.Send(tc.params)
			if tc.err != nil {
				assert.ErrorIs(t, err, tc.err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConversationFlow(t *testing.T) {
	messages := newTestMessageStore(t)

	_, err := messages.Send(SendParams{Sender: "alice", Receiver: "bob", Body: "hello"})
	require.NoError(t, err)

	conv, err := messages.FetchConversation("alice", "bob", nil)
	require.NoError(t, err)
	require.Len(t, conv, 1)
	assert.Equal(t, "alice", conv[0].Sender)
	assert.Equal(t, "hello", conv[0].Body)
	assert.False(t, conv[0].Seen)

	// argument order does not matter
	reversed, err := messages.FetchConversation("bob", "alice", nil)
	require.NoError(t, err)
	assert.Equal(t, conv, reversed)

	// bob opens the conversation
	require.NoError(t, messages.MarkSeen("bob", "alice"))

	conv, err = messages.FetchConversation("alice", "bob", nil)
	require.NoError(t, err)
	require.Len(t, conv, 1)
	assert.True(t, conv[0].Seen)

	// marking again changes nothing
	require.NoError(t, messages.MarkSeen("bob", "alice"))

	again, err := messages.FetchConversation("alice", "bob", nil)
	require.NoError(t, err)
	assert.Equal(t, conv, again)
}

func TestMarkSeen_PerConversationDirection(t *testing.T) {
	messages := newTestMessageStore(t)

	_, err := messages.Send(SendParams{Sender: "alice", Receiver: "bob", Body: "to bob"})
	require.NoError(t, err)
	_, err = messages.Send(SendParams{Sender: "alice", Receiver: "carol", Body: "to carol"})
	require.NoError(t, err)

	// bob opening his chat with alice must not touch carol's
	require.NoError(t, messages.MarkSeen("bob", "alice"))

	carolConv, err := messages.FetchConversation("alice", "carol", nil)
	require.NoError(t, err)
	require.Len(t, carolConv, 1)
	assert.False(t, carolConv[0].Seen)
}

func TestFetchConversation_Cursor(t *testing.T) {
	messages := newTestMessageStore(t)

	for _, body := range []string{"one", "two", "three"} {
		_, err := messages.Send(SendParams{Sender: "alice", Receiver: "bob", Body: body})
		require.NoError(t, err)
	}

	all, err := messages.FetchConversation("alice", "bob", nil)
	require.NoError(t, err)
	require.Len(t, all, 3)

	after := &database.Cursor{CreatedAt: all[0].CreatedAt, Seq: all[0].Id}
	rest, err := messages.FetchConversation("alice", "bob", after)
	require.NoError(t, err)
	require.Len(t, rest, 2)
	assert.Equal(t, "two", rest[0].Body)
	assert.Equal(t, "three", rest[1].Body)

	last := &database.Cursor{CreatedAt: all[2].CreatedAt, Seq: all[2].Id}
	none, err := messages.FetchConversation("alice", "bob", last)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestFetchGroup(t *testing.T) {
	messages := newTestMessageStore(t)

	_, err := messages.Send(SendParams{Sender: "alice", GroupName: "gophers", Body: "hello group"})
	require.NoError(t, err)
	_, err = messages.Send(SendParams{Sender: "bob", GroupName: "gophers", Body: "hi"})
	require.NoError(t, err)
	_, err = messages.Send(SendParams{Sender: "alice", Receiver: "bob", Body: "direct"})
	require.NoError(t, err)

	group, err := messages.FetchGroup("gophers", nil)
	require.NoError(t, err)
	require.Len(t, group, 2)
	assert.Equal(t, "hello group", group[0].Body)
	assert.Equal(t, "hi", group[1].Body)
}

func TestStamp_Monotonic(t *testing.T) {
	messages := newTestMessageStore(t)

	// a clock that steps backwards must not produce decreasing stamps
	times := []time.Time{
		time.Date(2025, 1, 1, 12, 0, 2, 0, time.UTC),
		time.Date(2025, 1, 1, 12, 0, 1, 0, time.UTC),
		time.Date(2025, 1, 1, 12, 0, 3, 0, time.UTC),
	}
	var i int
	messages.now = func() time.Time {
		t := times[i]
		i++
		return t
	}

	first := messages.stamp()
	second := messages.stamp()
	third := messages.stamp()

	assert.False(t, second.Before(first), "expected stamps to be non-decreasing")
	assert.Equal(t, first, second)
	assert.True(t, third.After(second))
}

func TestNotifications(t *testing.T) {
	messages := newTestMessageStore(t)

	_, err := messages.Notify("alice", "New message from bob")
	require.NoError(t, err)
	second, err := messages.Notify("alice", "New message from carol")
	require.NoError(t, err)

	notifications, err := messages.ListNotifications("alice")
	require.NoError(t, err)
	require.Len(t, notifications, 2)
	assert.Equal(t, second.Id, notifications[0].Id)

	none, err := messages.ListNotifications("bob")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestFileRecords(t *testing.T) {
	messages := newTestMessageStore(t)

	record, err := messages.RecordFile("abc123", "alice", "notes.txt", "alice/abc-notes.txt")
	require.NoError(t, err)
	assert.Equal(t, "abc123", record.ExternalId)

	files, err := messages.ListFiles("alice")
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "notes.txt", files[0].FileName)

	none, err := messages.ListFiles("bob")
	require.NoError(t, err)
	assert.Empty(t, none)
}
