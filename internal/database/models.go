package database

import "time"

type User struct {
	Id           int64
	Username     string
	DisplayName  string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Message is a single chat message. Exactly one of Receiver and GroupName
// is set; the empty one is stored as NULL.
type Message struct {
	Id         int64
	Sender     string
	Receiver   string
	GroupName  string
	Body       string
	Attachment string
	Seen       bool
	CreatedAt  time.Time
}

type Notification struct {
	Id        int64
	Username  string
	Text      string
	CreatedAt time.Time
}

type FileRecord struct {
	Id         int64
	ExternalId string
	Owner      string
	FileName   string
	Location   string
	CreatedAt  time.Time
}

// Cursor marks the last message a reader has seen. Reads filtered by a
// cursor return only rows strictly after (CreatedAt, Seq).
type Cursor struct {
	CreatedAt time.Time
	Seq       int64
}

type CreateAccountParams struct {
	Username     string
	DisplayName  string
	PasswordHash string
}

type CreateMessageParams struct {
	Sender     string
	Receiver   string
	GroupName  string
	Body       string
	Attachment string
	CreatedAt  time.Time
}

type CreateFileParams struct {
	ExternalId string
	Owner      string
	FileName   string
	Location   string
}
