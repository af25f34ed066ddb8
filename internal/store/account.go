package store

import (
	"errors"
	"log"

	"github.com/bluechat/bluechat/internal/database"
	"golang.org/x/crypto/bcrypt"
)

// dummyHash is a valid bcrypt digest compared against when the username is
// unknown, so both authentication failure paths cost one hash comparison.
var dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// AccountStore owns user identity records. It never stores or logs a
// plaintext password.
type AccountStore struct {
	log *log.Logger
	db  database.ChatRepository
}

func NewAccountStore(logger *log.Logger, db database.ChatRepository) *AccountStore {
	return &AccountStore{log: logger, db: db}
}

func hashPassword(passwd string) (string, error) {
	passwdHash, err := bcrypt.GenerateFromPassword([]byte(passwd), bcrypt.DefaultCost)
	return string(passwdHash), err
}

func verifyPassword(passwdHash, passwd string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(passwdHash), []byte(passwd))
	return err == nil
}

func (s *AccountStore) Register(username, displayName, password string) (database.User, error) {
	pwdHash, err := hashPassword(password)
	if err != nil {
		return database.User{}, err
	}

	user, err := s.db.CreateAccount(database.CreateAccountParams{
		Username:     username,
		DisplayName:  displayName,
		PasswordHash: pwdHash,
	})
	return user, storageErr(err)
}

// Authenticate returns the user on a credential match and ErrAuthFailure
// otherwise, without distinguishing an unknown username from a wrong
// password.
func (s *AccountStore) Authenticate(username, password string) (database.User, error) {
	user, err := s.db.GetAccountByUsername(username)
	if err != nil {
		if errors.Is(storageErr(err), ErrNotFound) {
			verifyPassword(dummyHash, password)
			return database.User{}, ErrAuthFailure
		}
		return database.User{}, storageErr(err)
	}

	if !verifyPassword(user.PasswordHash, password) {
		return database.User{}, ErrAuthFailure
	}

	return user, nil
}

// Rename re-authenticates before mutating and fails with
// ErrDuplicateUsername when the new name collides, leaving the record
// unchanged.
func (s *AccountStore) Rename(username, newUsername, password string) (database.User, error) {
	user, err := s.Authenticate(username, password)
	if err != nil {
		return database.User{}, err
	}

	renamed, err := s.db.RenameAccount(user.Id, newUsername)
	return renamed, storageErr(err)
}

func (s *AccountStore) UpdateDisplayName(username, password, displayName string) (database.User, error) {
	user, err := s.Authenticate(username, password)
	if err != nil {
		return database.User{}, err
	}

	updated, err := s.db.UpdateDisplayName(user.Id, displayName)
	return updated, storageErr(err)
}

func (s *AccountStore) UpdatePassword(username, password, newPassword string) (database.User, error) {
	user, err := s.Authenticate(username, password)
	if err != nil {
		return database.User{}, err
	}

	pwdHash, err := hashPassword(newPassword)
	if err != nil {
		return database.User{}, err
	}

	updated, err := s.db.UpdatePassword(user.Id, pwdHash)
	return updated, storageErr(err)
}

func (s *AccountStore) GetById(id int64) (database.User, error) {
	user, err := s.db.GetAccountById(id)
	return user, storageErr(err)
}

// ListUsernames returns every username in lexical order. Callers filter out
// their own entry.
func (s *AccountStore) ListUsernames() ([]string, error) {
	usernames, err := s.db.ListUsernames()
	return usernames, storageErr(err)
}
