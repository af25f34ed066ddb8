package database

import (
	"github.com/stretchr/testify/mock"
)

type MockChatRepository struct {
	mock.Mock
}

func (m *MockChatRepository) Ping() error {
	args := m.Called()
	return args.Error(0)
}
func (m *MockChatRepository) CreateAccount(params CreateAccountParams) (User, error) {
	args := m.Called(params)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockChatRepository) GetAccountById(id int64) (User, error) {
	args := m.Called(id)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockChatRepository) GetAccountByUsername(username string) (User, error) {
	args := m.Called(username)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockChatRepository) RenameAccount(id int64, newUsername string) (User, error) {
	args := m.Called(id, newUsername)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockChatRepository) UpdateDisplayName(id int64, displayName string) (User, error) {
	args := m.Called(id, displayName)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockChatRepository) UpdatePassword(id int64, passwordHash string) (User, error) {
	args := m.Called(id, passwordHash)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockChatRepository) ListUsernames() ([]string, error) {
	args := m.Called()
	return args.Get(0).([]string), args.Error(1)
}
func (m *MockChatRepository) CreateMessage(params CreateMessageParams) (Message, error) {
	args := m.Called(params)
	return args.Get(0).(Message), args.Error(1)
}
func (m *MockChatRepository) GetConversation(userA, userB string, after *Cursor) ([]Message, error) {
	args := m.Called(userA, userB, after)
	return args.Get(0).([]Message), args.Error(1)
}
func (m *MockChatRepository) GetGroupMessages(groupName string, after *Cursor) ([]Message, error) {
	args := m.Called(groupName, after)
	return args.Get(0).([]Message), args.Error(1)
}
func (m *MockChatRepository) MarkConversationSeen(viewer, counterpart string) (int64, error) {
	args := m.Called(viewer, counterpart)
	return args.Get(0).(int64), args.Error(1)
}
func (m *MockChatRepository) CreateNotification(username, text string) (Notification, error) {
	args := m.Called(username, text)
	return args.Get(0).(Notification), args.Error(1)
}
func (m *MockChatRepository) ListNotifications(username string) ([]Notification, error) {
	args := m.Called(username)
	return args.Get(0).([]Notification), args.Error(1)
}
func (m *MockChatRepository) CreateFile(params CreateFileParams) (FileRecord, error) {
	args := m.Called(params)
	return args.Get(0).(FileRecord), args.Error(1)
}
func (m *MockChatRepository) ListFiles(owner string) ([]FileRecord, error) {
	args := m.Called(owner)
	return args.Get(0).([]FileRecord), args.Error(1)
}
