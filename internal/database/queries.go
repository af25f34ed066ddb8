package database

import (
	"database/sql"
	"time"
)

const pgMessageColumns = "id, sender, COALESCE(receiver, ''), COALESCE(group_name, ''), body, attachment, seen, created_at"

// nullable converts the empty string to NULL so that the unset side of a
// receiver/group_name pair is absent rather than blank.
func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func (db *PgChatRepository) CreateAccount(params CreateAccountParams) (User, error) {
	now := time.Now().UTC()
	res := db.conn.QueryRow(
		"INSERT INTO users (username, display_name, password_hash, created_at, updated_at) "+
			"VALUES ($1, $2, $3, $4, $5) RETURNING id, username, display_name, password_hash, created_at, updated_at",
		params.Username,
		params.DisplayName,
		params.PasswordHash,
		now,
		now,
	)

	var u User
	err := res.Scan(
		&u.Id,
		&u.Username,
		&u.DisplayName,
		&u.PasswordHash,
		&u.CreatedAt,
		&u.UpdatedAt,
	)

	return u, pgError(err)
}

func (db *PgChatRepository) GetAccountById(id int64) (User, error) {
	row := db.conn.QueryRow(
		"SELECT id, username, display_name, password_hash, created_at, updated_at FROM users "+
			"WHERE id = $1 LIMIT 1",
		id,
	)

	var u User
	err := row.Scan(
		&u.Id,
		&u.Username,
		&u.DisplayName,
		&u.PasswordHash,
		&u.CreatedAt,
		&u.UpdatedAt,
	)

	return u, pgError(err)
}

func (db *PgChatRepository) GetAccountByUsername(username string) (User, error) {
	row := db.conn.QueryRow(
		"SELECT id, username, display_name, password_hash, created_at, updated_at FROM users "+
			"WHERE username = $1 LIMIT 1",
		username,
	)

	var u User
	err := row.Scan(
		&u.Id,
		&u.Username,
		&u.DisplayName,
		&u.PasswordHash,
		&u.CreatedAt,
		&u.UpdatedAt,
	)

	return u, pgError(err)
}

func (db *PgChatRepository) RenameAccount(id int64, newUsername string) (User, error) {
	res := db.conn.QueryRow(
		"UPDATE users SET username = $2, updated_at = $3 "+
			"WHERE id = $1 RETURNING id, username, display_name, password_hash, created_at, updated_at",
		id,
		newUsername,
		time.Now().UTC(),
	)

	var u User
	err := res.Scan(
		&u.Id,
		&u.Username,
		&u.DisplayName,
		&u.PasswordHash,
		&u.CreatedAt,
		&u.UpdatedAt,
	)

	return u, pgError(err)
}

func (db *PgChatRepository) UpdateDisplayName(id int64, displayName string) (User, error) {
	res := db.conn.QueryRow(
		"UPDATE users SET display_name = $2, updated_at = $3 "+
			"WHERE id = $1 RETURNING id, username, display_name, password_hash, created_at, updated_at",
		id,
		displayName,
		time.Now().UTC(),
	)

	var u User
	err := res.Scan(
		&u.Id,
		&u.Username,
		&u.DisplayName,
		&u.PasswordHash,
		&u.CreatedAt,
		&u.UpdatedAt,
	)

	return u, pgError(err)
}

func (db *PgChatRepository) UpdatePassword(id int64, passwordHash string) (User, error) {
	res := db.conn.QueryRow(
		"UPDATE users SET password_hash = $2, updated_at = $3 "+
			"WHERE id = $1 RETURNING id, username, display_name, password_hash, created_at, updated_at",
		id,
		passwordHash,
		time.Now().UTC(),
	)

	var u User
	err := res.Scan(
		&u.Id,
		&u.Username,
		&u.DisplayName,
		&u.PasswordHash,
		&u.CreatedAt,
		&u.UpdatedAt,
	)

	return u, pgError(err)
}

func (db *PgChatRepository) ListUsernames() ([]string, error) {
	rows, err := db.conn.Query("SELECT username FROM users ORDER BY username")
	if err != nil {
		return nil, pgError(err)
	}
	defer rows.Close()

	var usernames []string
	for rows.Next() {
		var username string
		if err = rows.Scan(&username); err != nil {
			break
		}

		usernames = append(usernames, username)
	}

	return usernames, pgError(err)
}

func (db *PgChatRepository) CreateMessage(params CreateMessageParams) (Message, error) {
	res := db.conn.QueryRow(
		"INSERT INTO messages (sender, receiver, group_name, body, attachment, seen, created_at) "+
			"VALUES ($1, $2, $3, $4, $5, FALSE, $6) RETURNING "+pgMessageColumns,
		params.Sender,
		nullable(params.Receiver),
		nullable(params.GroupName),
		params.Body,
		params.Attachment,
		params.CreatedAt,
	)

	var msg Message
	err := res.Scan(
		&msg.Id,
		&msg.Sender,
		&msg.Receiver,
		&msg.GroupName,
		&msg.Body,
		&msg.Attachment,
		&msg.Seen,
		&msg.CreatedAt,
	)

	return msg, pgError(err)
}

func (db *PgChatRepository) GetConversation(userA, userB string, after *Cursor) ([]Message, error) {
	query := "SELECT " + pgMessageColumns + " FROM messages " +
		"WHERE ((sender = $1 AND receiver = $2) OR (sender = $2 AND receiver = $1))"
	args := []any{userA, userB}

	if after != nil {
		query += " AND (created_at > $3 OR (created_at = $3 AND id > $4))"
		args = append(args, after.CreatedAt, after.Seq)
	}
	query += " ORDER BY created_at, id"

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, pgError(err)
	}
	defer rows.Close()

	return scanMessages(rows)
}

func (db *PgChatRepository) GetGroupMessages(groupName string, after *Cursor) ([]Message, error) {
	query := "SELECT " + pgMessageColumns + " FROM messages WHERE group_name = $1"
	args := []any{groupName}

	if after != nil {
		query += " AND (created_at > $2 OR (created_at = $2 AND id > $3))"
		args = append(args, after.CreatedAt, after.Seq)
	}
	query += " ORDER BY created_at, id"

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, pgError(err)
	}
	defer rows.Close()

	return scanMessages(rows)
}

func scanMessages(rows *sql.Rows) ([]Message, error) {
	var messages = make([]Message, 0)
	for rows.Next() {
		var msg Message
		err := rows.Scan(
			&msg.Id,
			&msg.Sender,
			&msg.Receiver,
			&msg.GroupName,
			&msg.Body,
			&msg.Attachment,
			&msg.Seen,
			&msg.CreatedAt,
		)
		if err != nil {
			return nil, err
		}

		messages = append(messages, msg)
	}

	return messages, rows.Err()
}

func (db *PgChatRepository) MarkConversationSeen(viewer, counterpart string) (int64, error) {
	res, err := db.conn.Exec(
		"UPDATE messages SET seen = TRUE WHERE sender = $1 AND receiver = $2 AND seen = FALSE",
		counterpart,
		viewer,
	)
	if err != nil {
		return 0, pgError(err)
	}

	return res.RowsAffected()
}

func (db *PgChatRepository) CreateNotification(username, text string) (Notification, error) {
	res := db.conn.QueryRow(
		"INSERT INTO notifications (username, body, created_at) "+
			"VALUES ($1, $2, $3) RETURNING id, username, body, created_at",
		username,
		text,
		time.Now().UTC(),
	)

	var n Notification
	err := res.Scan(&n.Id, &n.Username, &n.Text, &n.CreatedAt)

	return n, pgError(err)
}

func (db *PgChatRepository) ListNotifications(username string) ([]Notification, error) {
	rows, err := db.conn.Query(
		"SELECT id, username, body, created_at FROM notifications "+
			"WHERE username = $1 ORDER BY created_at DESC, id DESC",
		username,
	)
	if err != nil {
		return nil, pgError(err)
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

func (db *PgChatRepository) CreateFile(params CreateFileParams) (FileRecord, error) {
	res := db.conn.QueryRow(
		"INSERT INTO files (external_id, owner, file_name, location, created_at) "+
			"VALUES ($1, $2, $3, $4, $5) RETURNING id, external_id, owner, file_name, location, created_at",
		params.ExternalId,
		params.Owner,
		params.FileName,
		params.Location,
		time.Now().UTC(),
	)

	var f FileRecord
	err := res.Scan(&f.Id, &f.ExternalId, &f.Owner, &f.FileName, &f.Location, &f.CreatedAt)

	return f, pgError(err)
}

func (db *PgChatRepository) ListFiles(owner string) ([]FileRecord, error) {
	rows, err := db.conn.Query(
		"SELECT id, external_id, owner, file_name, location, created_at FROM files "+
			"WHERE owner = $1 ORDER BY created_at, id",
		owner,
	)
	if err != nil {
		return nil, pgError(err)
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
