package database

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) *SQLiteChatRepository {
	t.Helper()

	repo, err := NewSQLiteChatRepository(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err, "expected sqlite repository to open")
	t.Cleanup(func() {
		repo.Close()
	})

	return repo
}

func createTestAccount(t *testing.T, repo *SQLiteChatRepository, username string) User {
	t.Helper()

	user, err := repo.CreateAccount(CreateAccountParams{
		Username:     username,
		DisplayName:  username + " display",
		PasswordHash: "hash-" + username,
	})
	require.NoError(t, err)

	return user
}

func TestCreateAccount_DuplicateUsername(t *testing.T) {
	repo := newTestRepo(t)

	first := createTestAccount(t, repo, "alice")

	_, err := repo.CreateAccount(CreateAccountParams{
		Username:     "alice",
		DisplayName:  "someone else",
		PasswordHash: "other-hash",
	})
	assert.ErrorIs(t, err, ErrDuplicateUsername)

	// the original record is unmodified
	got, err := repo.GetAccountByUsername("alice")
	require.NoError(t, err)
	assert.Equal(t, first.Id, got.Id)
	assert.Equal(t, first.DisplayName, got.DisplayName)
	assert.Equal(t, first.PasswordHash, got.PasswordHash)
}

func TestGetAccount_NotFound(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.GetAccountByUsername("nobody")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = repo.GetAccountById(99)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRenameAccount(t *testing.T) {
	repo := newTestRepo(t)

	alice := createTestAccount(t, repo, "alice")
	createTestAccount(t, repo, "bob")

	t.Run("collision fails and leaves record unchanged", func(t *testing.T) {
		_, err := repo.RenameAccount(alice.Id, "bob")
		assert.ErrorIs(t, err, ErrDuplicateUsername)

		got, err := repo.GetAccountById(alice.Id)
		require.NoError(t, err)
		assert.Equal(t, "alice", got.Username)
	})

	t.Run("successful rename", func(t *testing.T) {
		renamed, err := repo.RenameAccount(alice.Id, "alicia")
		require.NoError(t, err)
		assert.Equal(t, "alicia", renamed.Username)
		assert.Equal(t, alice.Id, renamed.Id)

		_, err = repo.GetAccountByUsername("alice")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("missing account", func(t *testing.T) {
		_, err := repo.RenameAccount(99, "ghost")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestUpdateAccountFields(t *testing.T) {
	repo := newTestRepo(t)
	alice := createTestAccount(t, repo, "alice")

	updated, err := repo.UpdateDisplayName(alice.Id, "Alice A.")
	require.NoError(t, err)
	assert.Equal(t, "Alice A.", updated.DisplayName)

	updated, err = repo.UpdatePassword(alice.Id, "new-hash")
	require.NoError(t, err)
	assert.Equal(t, "new-hash", updated.PasswordHash)
}

func TestListUsernames(t *testing.T) {
	repo := newTestRepo(t)

	createTestAccount(t, repo, "charlie")
	createTestAccount(t, repo, "alice")
	createTestAccount(t, repo, "bob")

	usernames, err := repo.ListUsernames()
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob", "charlie"}, usernames)
}

func sendTestMessage(t *testing.T, repo *SQLiteChatRepository, sender, receiver, group, body string, at time.Time) Message {
	t.Helper()

	msg, err := repo.CreateMessage(CreateMessageParams{
		Sender:    sender,
		Receiver:  receiver,
		GroupName: group,
		Body:      body,
		CreatedAt: at,
	})
	require.NoError(t, err)

	return msg
}

func TestGetConversation(t *testing.T) {
	repo := newTestRepo(t)

	base := time.Now().UTC().Truncate(time.Second)
	sendTestMessage(t, repo, "alice", "bob", "", "one", base)
	sendTestMessage(t, repo, "bob", "alice", "", "two", base.Add(time.Second))
	sendTestMessage(t, repo, "alice", "carol", "", "other chat", base.Add(2*time.Second))
	sendTestMessage(t, repo, "alice", "", "gophers", "group chat", base.Add(3*time.Second))

	t.Run("returns only the pair, in order", func(t *testing.T) {
		messages, err := repo.GetConversation("alice", "bob", nil)
		require.NoError(t, err)
		require.Len(t, messages, 2)
		assert.Equal(t, "one", messages[0].Body)
		assert.Equal(t, "two", messages[1].Body)
		assert.False(t, messages[0].Seen)
	})

	t.Run("symmetric in its arguments", func(t *testing.T) {
		ab, err := repo.GetConversation("alice", "bob", nil)
		require.NoError(t, err)
		ba, err := repo.GetConversation("bob", "alice", nil)
		require.NoError(t, err)
		assert.Equal(t, ab, ba)
	})

	t.Run("cursor skips already-seen messages", func(t *testing.T) {
		all, err := repo.GetConversation("alice", "bob", nil)
		require.NoError(t, err)

		after := &Cursor{CreatedAt: all[0].CreatedAt, Seq: all[0].Id}
		rest, err := repo.GetConversation("alice", "bob", after)
		require.NoError(t, err)
		require.Len(t, rest, 1)
		assert.Equal(t, "two", rest[0].Body)

		last := &Cursor{CreatedAt: all[1].CreatedAt, Seq: all[1].Id}
		none, err := repo.GetConversation("alice", "bob", last)
		require.NoError(t, err)
		assert.Empty(t, none)
	})
}

func TestGetConversation_TimestampTies(t *testing.T) {
	repo := newTestRepo(t)

	at := time.Now().UTC().Truncate(time.Second)
	first := sendTestMessage(t, repo, "alice", "bob", "", "first", at)
	second := sendTestMessage(t, repo, "bob", "alice", "", "second", at)

	messages, err := repo.GetConversation("alice", "bob", nil)
	require.NoError(t, err)
	require.Len(t, messages, 2)

	// identical timestamps fall back to insertion order
	assert.Equal(t, first.Id, messages[0].Id)
	assert.Equal(t, second.Id, messages[1].Id)

	after := &Cursor{CreatedAt: at, Seq: first.Id}
	rest, err := repo.GetConversation("alice", "bob", after)
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, "second", rest[0].Body)
}

func TestGetGroupMessages(t *testing.T) {
	repo := newTestRepo(t)

	base := time.Now().UTC().Truncate(time.Second)
	sendTestMessage(t, repo, "alice", "", "gophers", "hello group", base)
	sendTestMessage(t, repo, "bob", "", "gophers", "hi alice", base.Add(time.Second))
	sendTestMessage(t, repo, "alice", "bob", "", "direct", base.Add(2*time.Second))
	sendTestMessage(t, repo, "carol", "", "rustaceans", "wrong group", base.Add(3*time.Second))

	messages, err := repo.GetGroupMessages("gophers", nil)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, "hello group", messages[0].Body)
	assert.Equal(t, "hi alice", messages[1].Body)

	after := &Cursor{CreatedAt: messages[0].CreatedAt, Seq: messages[0].Id}
	rest, err := repo.GetGroupMessages("gophers", after)
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, "hi alice", rest[0].Body)
}

func TestMarkConversationSeen(t *testing.T) {
	repo := newTestRepo(t)

	base := time.Now().UTC().Truncate(time.Second)
	sendTestMessage(t, repo, "alice", "bob", "", "hello", base)
	sendTestMessage(t, repo, "bob", "alice", "", "hi back", base.Add(time.Second))

	// bob opens the conversation: only alice->bob flips
	n, err := repo.MarkConversationSeen("bob", "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	messages, err := repo.GetConversation("alice", "bob", nil)
	require.NoError(t, err)
	assert.True(t, messages[0].Seen)
	assert.False(t, messages[1].Seen)

	// idempotent
	n, err = repo.MarkConversationSeen("bob", "alice")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestNotifications(t *testing.T) {
	repo := newTestRepo(t)

	first, err := repo.CreateNotification("alice", "New message from bob")
	require.NoError(t, err)
	second, err := repo.CreateNotification("alice", "New message from carol")
	require.NoError(t, err)
	_, err = repo.CreateNotification("bob", "not for alice")
	require.NoError(t, err)

	notifications, err := repo.ListNotifications("alice")
	require.NoError(t, err)
	require.Len(t, notifications, 2)

	// newest first
	assert.Equal(t, second.Id, notifications[0].Id)
	assert.Equal(t, first.Id, notifications[1].Id)
}

func TestFiles(t *testing.T) {
	repo := newTestRepo(t)

	created, err := repo.CreateFile(CreateFileParams{
		ExternalId: "abc123",
		Owner:      "alice",
		FileName:   "notes.txt",
		Location:   "alice/abc-notes.txt",
	})
	require.NoError(t, err)
	assert.Equal(t, "abc123", created.ExternalId)

	_, err = repo.CreateFile(CreateFileParams{
		ExternalId: "def456",
		Owner:      "bob",
		FileName:   "pic.png",
		Location:   "bob/def-pic.png",
	})
	require.NoError(t, err)

	files, err := repo.ListFiles("alice")
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "notes.txt", files[0].FileName)
	assert.Equal(t, "alice/abc-notes.txt", files[0].Location)
}
