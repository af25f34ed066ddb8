package store

import (
	"errors"
	"fmt"

	"github.com/bluechat/bluechat/internal/database"
)

var (
	// repository errors, re-exported so callers depend on one vocabulary
	ErrNotFound          = database.ErrNotFound
	ErrDuplicateUsername = database.ErrDuplicateUsername

	// ErrAuthFailure is deliberately opaque: it never reveals whether the
	// username or the password was wrong.
	ErrAuthFailure = errors.New("authentication failed")

	ErrEmptyMessage              = errors.New("message has no body and no attachment")
	ErrInvalidConversationTarget = errors.New("exactly one of receiver and group must be set")

	// ErrStorageUnavailable wraps transient backend failures; callers may
	// retry with backoff.
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// storageErr passes expected repository errors through untouched and tags
// everything else as transient so a caller's refresh loop can keep going.
func storageErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrDuplicateUsername) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
}
