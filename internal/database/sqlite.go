package database

import (
	"database/sql"
	"errors"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// sqliteSchema mirrors the Postgres schema. Columns holding timestamps are
// declared DATETIME so the driver scans them back as time.Time.
const sqliteSchema = `
CREATE TABLE IF NOT EXISTS users (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	username TEXT NOT NULL UNIQUE,
	display_name TEXT NOT NULL DEFAULT '',
	password_hash TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS messages (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	sender TEXT NOT NULL,
	receiver TEXT,
	group_name TEXT,
	body TEXT NOT NULL DEFAULT '',
	attachment TEXT NOT NULL DEFAULT '',
	seen INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_messages_pair ON messages (sender, receiver, created_at);
CREATE INDEX IF NOT EXISTS idx_messages_group ON messages (group_name, created_at);

CREATE TABLE IF NOT EXISTS notifications (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	username TEXT NOT NULL,
	body TEXT NOT NULL,
	created_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_notifications_user ON notifications (username, created_at);

CREATE TABLE IF NOT EXISTS files (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	external_id TEXT NOT NULL UNIQUE,
	owner TEXT NOT NULL,
	file_name TEXT NOT NULL,
	location TEXT NOT NULL,
	created_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_files_owner ON files (owner);
`

const sqliteMessageColumns = "id, sender, COALESCE(receiver, ''), COALESCE(group_name, ''), body, attachment, seen, created_at"

// SQLiteChatRepository is the embedded backend. It serves the same interface
// as the Postgres repository from a single local file, so a deployment can
// run without a hosted database at all.
type SQLiteChatRepository struct {
	conn *sql.DB
}

func NewSQLiteChatRepository(path string) (*SQLiteChatRepository, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// modernc's driver is not safe for concurrent writers on one file;
	// a single pooled connection serializes them.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		return nil, err
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		return nil, err
	}

	return &SQLiteChatRepository{conn: db}, nil
}

func (db *SQLiteChatRepository) Ping() error {
	return db.conn.Ping()
}

func (db *SQLiteChatRepository) Close() error {
	if db.conn != nil {
		return db.conn.Close()
	}
	return nil
}

func sqliteError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return ErrDuplicateUsername
		}
	}
	return err
}

func (db *SQLiteChatRepository) CreateAccount(params CreateAccountParams) (User, error) {
	now := time.Now().UTC()
	res, err := db.conn.Exec(
		"INSERT INTO users (username, display_name, password_hash, created_at, updated_at) VALUES (?, ?, ?, ?, ?)",
		params.Username,
		params.DisplayName,
		params.PasswordHash,
		now,
		now,
	)
	if err != nil {
		return User{}, sqliteError(err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return User{}, err
	}

	return User{
		Id:           id,
		Username:     params.Username,
		DisplayName:  params.DisplayName,
		PasswordHash: params.PasswordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

func (db *SQLiteChatRepository) getAccount(query string, arg any) (User, error) {
	row := db.conn.QueryRow(query, arg)

	var u User
	err := row.Scan(
		&u.Id,
		&u.Username,
		&u.DisplayName,
		&u.PasswordHash,
		&u.CreatedAt,
		&u.UpdatedAt,
	)

	return u, sqliteError(err)
}

func (db *SQLiteChatRepository) GetAccountById(id int64) (User, error) {
	return db.getAccount(
		"SELECT id, username, display_name, password_hash, created_at, updated_at FROM users WHERE id = ? LIMIT 1",
		id,
	)
}

func (db *SQLiteChatRepository) GetAccountByUsername(username string) (User, error) {
	return db.getAccount(
		"SELECT id, username, display_name, password_hash, created_at, updated_at FROM users WHERE username = ? LIMIT 1",
		username,
	)
}

func (db *SQLiteChatRepository) updateAccount(id int64, query string, args ...any) (User, error) {
	args = append(args, time.Now().UTC(), id)
	res, err := db.conn.Exec(query, args...)
	if err != nil {
		return User{}, sqliteError(err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return User{}, err
	}
	if n == 0 {
		return User{}, ErrNotFound
	}

	return db.GetAccountById(id)
}

func (db *SQLiteChatRepository) RenameAccount(id int64, newUsername string) (User, error) {
	return db.updateAccount(id, "UPDATE users SET username = ?, updated_at = ? WHERE id = ?", newUsername)
}

func (db *SQLiteChatRepository) UpdateDisplayName(id int64, displayName string) (User, error) {
	return db.updateAccount(id, "UPDATE users SET display_name = ?, updated_at = ? WHERE id = ?", displayName)
}

func (db *SQLiteChatRepository) UpdatePassword(id int64, passwordHash string) (User, error) {
	return db.updateAccount(id, "UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?", passwordHash)
}

func (db *SQLiteChatRepository) ListUsernames() ([]string, error) {
	rows, err := db.conn.Query("SELECT username FROM users ORDER BY username")
	if err != nil {
		return nil, sqliteError(err)
	}
	defer rows.Close()

	var usernames []string
	for rows.Next() {
		var username string
		if err = rows.Scan(&username); err != nil {
			return nil, err
		}

		usernames = append(usernames, username)
	}

	return usernames, rows.Err()
}

func (db *SQLiteChatRepository) CreateMessage(params CreateMessageParams) (Message, error) {
	res, err := db.conn.Exec(
		"INSERT INTO messages (sender, receiver, group_name, body, attachment, seen, created_at) VALUES (?, ?, ?, ?, ?, 0, ?)",
		params.Sender,
		nullable(params.Receiver),
		nullable(params.GroupName),
		params.Body,
		params.Attachment,
		params.CreatedAt,
	)
	if err != nil {
		return Message{}, sqliteError(err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return Message{}, err
	}

	return Message{
		Id:         id,
		Sender:     params.Sender,
		Receiver:   params.Receiver,
		GroupName:  params.GroupName,
		Body:       params.Body,
		Attachment: params.Attachment,
		Seen:       false,
		CreatedAt:  params.CreatedAt,
	}, nil
}

func (db *SQLiteChatRepository) GetConversation(userA, userB string, after *Cursor) ([]Message, error) {
	query := "SELECT " + sqliteMessageColumns + " FROM messages " +
		"WHERE ((sender = ? AND receiver = ?) OR (sender = ? AND receiver = ?))"
	args := []any{userA, userB, userB, userA}

	if after != nil {
		query += " AND (created_at > ? OR (created_at = ? AND id > ?))"
		args = append(args, after.CreatedAt, after.CreatedAt, after.Seq)
	}
	query += " ORDER BY created_at, id"

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, sqliteError(err)
	}
	defer rows.Close()

	return scanMessages(rows)
}

func (db *SQLiteChatRepository) GetGroupMessages(groupName string, after *Cursor) ([]Message, error) {
	query := "SELECT " + sqliteMessageColumns + " FROM messages WHERE group_name = ?"
	args := []any{groupName}

	if after != nil {
		query += " AND (created_at > ? OR (created_at = ? AND id > ?))"
		args = append(args, after.CreatedAt, after.CreatedAt, after.Seq)
	}
	query += " ORDER BY created_at, id"

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, sqliteError(err)
	}
	defer rows.Close()

	return scanMessages(rows)
}

func (db *SQLiteChatRepository) MarkConversationSeen(viewer, counterpart string) (int64, error) {
	res, err := db.conn.Exec(
		"UPDATE messages SET seen = 1 WHERE sender = ? AND receiver = ? AND seen = 0",
		counterpart,
		viewer,
	)
	if err != nil {
		return 0, sqliteError(err)
	}

	return res.RowsAffected()
}

func (db *SQLiteChatRepository) CreateNotification(username, text string) (Notification, error) {
	now := time.Now().UTC()
	res, err := db.conn.Exec(
		"INSERT INTO notifications (username, body, created_at) VALUES (?, ?, ?)",
		username,
		text,
		now,
	)
	if err != nil {
		return Notification{}, sqliteError(err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return Notification{}, err
	}

	return Notification{Id: id, Username: username, Text: text, CreatedAt: now}, nil
}

func (db *SQLiteChatRepository) ListNotifications(username string) ([]Notification, error) {
	rows, err := db.conn.Query(
		"SELECT id, username, body, created_at FROM notifications WHERE username = ? ORDER BY created_at DESC, id DESC",
		username,
	)
	if err != nil {
		return nil, sqliteError(err)
	}
	defer rows.Close()

	var notifications = make([]Notification, 0)
	for rows.Next() {
		var n Notification
		if err = rows.Scan(&n.Id, &n.Username, &n.Text, &n.CreatedAt); err != nil {
			return nil, err
		}

		notifications = append(notifications, n)
	}

	return notifications, rows.Err()
}

func (db *SQLiteChatRepository) CreateFile(params CreateFileParams) (FileRecord, error) {
	now := time.Now().UTC()
	res, err := db.conn.Exec(
		"INSERT INTO files (external_id, owner, file_name, location, created_at) VALUES (?, ?, ?, ?, ?)",
		params.ExternalId,
		params.Owner,
		params.FileName,
		params.Location,
		now,
	)
	if err != nil {
		return FileRecord{}, sqliteError(err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return FileRecord{}, err
	}

	return FileRecord{
		Id:         id,
		ExternalId: params.ExternalId,
		Owner:      params.Owner,
		FileName:   params.FileName,
		Location:   params.Location,
		CreatedAt:  now,
	}, nil
}

func (db *SQLiteChatRepository) ListFiles(owner string) ([]FileRecord, error) {
	rows, err := db.conn.Query(
		"SELECT id, external_id, owner, file_name, location, created_at FROM files WHERE owner = ? ORDER BY created_at, id",
		owner,
	)
	if err != nil {
		return nil, sqliteError(err)
	}
	defer rows.Close()

	var files = make([]FileRecord, 0)
	for rows.Next() {
		var f FileRecord
		if err = rows.Scan(&f.Id, &f.ExternalId, &f.Owner, &f.FileName, &f.Location, &f.CreatedAt); err != nil {
			return nil, err
		}

		files = append(files, f)
	}

	return files, rows.Err()
}
