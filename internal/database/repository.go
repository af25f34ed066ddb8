package database

import "errors"

var (
	// ErrNotFound is returned when a referenced record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateUsername is returned when an insert or rename collides
	// with the unique index on users.username.
	ErrDuplicateUsername = errors.New("username already exists")
)

type ChatRepository interface {
	Ping() error
	CreateAccount(params CreateAccountParams) (User, error)
	GetAccountById(id int64) (User, error)
	GetAccountByUsername(username string) (User, error)
	RenameAccount(id int64, newUsername string) (User, error)
	UpdateDisplayName(id int64, displayName string) (User, error)
	UpdatePassword(id int64, passwordHash string) (User, error)
	ListUsernames() ([]string, error)
	CreateMessage(params CreateMessageParams) (Message, error)
	GetConversation(userA, userB string, after *Cursor) ([]Message, error)
	GetGroupMessages(groupName string, after *Cursor) ([]Message, error)
	MarkConversationSeen(viewer, counterpart string) (int64, error)
	CreateNotification(username, text string) (Notification, error)
	ListNotifications(username string) ([]Notification, error)
	CreateFile(params CreateFileParams) (FileRecord, error)
	ListFiles(owner string) ([]FileRecord, error)
}
