package types

import (
	"time"
)

type User struct {
	Id          int64     `json:"id"`
	Username    string    `json:"username"`
	DisplayName string    `json:"display_name,omitempty"`
	Password    string    `json:"-"`
	CreatedAt   time.Time `json:"created_at,omitempty"`
	UpdatedAt   time.Time `json:"updated_at,omitempty"`
}

type Message struct {
	Seq        int64     `json:"seq"`
	Sender     string    `json:"sender"`
	Receiver   string    `json:"receiver,omitempty"`
	GroupName  string    `json:"group_name,omitempty"`
	Body       string    `json:"body,omitempty"`
	Attachment string    `json:"attachment,omitempty"`
	Seen       bool      `json:"seen"`
	Timestamp  time.Time `json:"timestamp"`
}

type Notification struct {
	Id        int64     `json:"id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

type FileRecord struct {
	Id        string    `json:"id"`
	FileName  string    `json:"file_name"`
	Location  string    `json:"location"`
	CreatedAt time.Time `json:"created_at"`
}
