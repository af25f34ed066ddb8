package store

import (
	"log"
	"sync"
	"time"

	"github.com/bluechat/bluechat/internal/database"
)

// MessageStore owns message, notification and file records. It reads user
// records only through its caller; identity validation happens upstream.
type MessageStore struct {
	log *log.Logger
	db  database.ChatRepository

	mu   sync.Mutex
	last time.Time
	now  func() time.Time
}

func NewMessageStore(logger *log.Logger, db database.ChatRepository) *MessageStore {
	return &MessageStore{log: logger, db: db, now: time.Now}
}

// stamp returns a non-decreasing insertion timestamp. The row id assigned by
// the backend breaks ties between sends sharing a timestamp, so ordering by
// (created_at, id) is deterministic.
func (s *MessageStore) stamp() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.now().UTC()
	if t.Before(s.last) {
		t = s.last
	}
	s.last = t
	return t
}

type SendParams struct {
	Sender     string
	Receiver   string
	GroupName  string
	Body       string
	Attachment string
}

// Send appends a message to a direct or group conversation. A message must
// target exactly one of the two, and must carry a body, an attachment, or
// both.
func (s *MessageStore) Send(params SendParams) (database.Message, error) {
	if (params.Receiver == "") == (params.GroupName == "") {
		return database.Message{}, ErrInvalidConversationTarget
	}
	if params.Body == "" && params.Attachment == "" {
		return database.Message{}, ErrEmptyMessage
	}

	msg, err := s.db.CreateMessage(database.CreateMessageParams{
		Sender:     params.Sender,
		Receiver:   params.Receiver,
		GroupName:  params.GroupName,
		Body:       params.Body,
		Attachment: params.Attachment,
		CreatedAt:  s.stamp(),
	})
	return msg, storageErr(err)
}

// FetchConversation returns the messages between two users in insertion
// order. It is symmetric in its arguments. A non-nil cursor restricts the
// result to messages after it, so a refresh loop only pulls what it has not
// seen yet.
func (s *MessageStore) FetchConversation(userA, userB string, after *database.Cursor) ([]database.Message, error) {
	messages, err := s.db.GetConversation(userA, userB, after)
	return messages, storageErr(err)
}

func (s *MessageStore) FetchGroup(groupName string, after *database.Cursor) ([]database.Message, error) {
	messages, err := s.db.GetGroupMessages(groupName, after)
	return messages, storageErr(err)
}

// MarkSeen flags every unseen message sent by counterpart to viewer.
// Repeated calls are no-ops.
func (s *MessageStore) MarkSeen(viewer, counterpart string) error {
	_, err := s.db.MarkConversationSeen(viewer, counterpart)
	return storageErr(err)
}

func (s *MessageStore) Notify(username, text string) (database.Notification, error) {
	n, err := s.db.CreateNotification(username, text)
	return n, storageErr(err)
}

// ListNotifications returns a user's notifications, newest first.
func (s *MessageStore) ListNotifications(username string) ([]database.Notification, error) {
	notifications, err := s.db.ListNotifications(username)
	return notifications, storageErr(err)
}

// RecordFile persists a reference to an uploaded file. The bytes themselves
// live with the blob collaborator; only the location crosses this boundary.
func (s *MessageStore) RecordFile(externalId, owner, fileName, location string) (database.FileRecord, error) {
	f, err := s.db.CreateFile(database.CreateFileParams{
		ExternalId: externalId,
		Owner:      owner,
		FileName:   fileName,
		Location:   location,
	})
	return f, storageErr(err)
}

func (s *MessageStore) ListFiles(owner string) ([]database.FileRecord, error) {
	files, err := s.db.ListFiles(owner)
	return files, storageErr(err)
}
