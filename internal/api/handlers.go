package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/bluechat/bluechat/internal/database"
	"github.com/bluechat/bluechat/internal/store"
	"github.com/bluechat/bluechat/internal/types"
)

// maxUploadBytes bounds multipart uploads held in memory.
const maxUploadBytes = 32 << 20

type RegisterRequest struct {
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Password    string `json:"password"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type RenameRequest struct {
	NewUsername string `json:"new_username"`
	Password    string `json:"password"`
}

type UpdateDisplayNameRequest struct {
	DisplayName string `json:"display_name"`
	Password    string `json:"password"`
}

type UpdatePasswordRequest struct {
	Password    string `json:"password"`
	NewPassword string `json:"new_password"`
}

type SendMessageRequest struct {
	Receiver   string `json:"receiver"`
	GroupName  string `json:"group_name"`
	Body       string `json:"body"`
	Attachment string `json:"attachment"`
}

type MarkSeenRequest struct {
	Counterpart string `json:"counterpart"`
}

func (s *ChatApp) writeJson(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if v == nil {
		return
	}

	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Printf("json encode: %v", err)
	}
}

func apiUser(u database.User) types.User {
	return types.User{
		Id:          u.Id,
		Username:    u.Username,
		DisplayName: u.DisplayName,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

func apiMessage(m database.Message) types.Message {
	return types.Message{
		Seq:        m.Id,
		Sender:     m.Sender,
		Receiver:   m.Receiver,
		GroupName:  m.GroupName,
		Body:       m.Body,
		Attachment: m.Attachment,
		Seen:       m.Seen,
		Timestamp:  m.CreatedAt,
	}
}

// sessionUser resolves the authenticated user from the request context.
func (s *ChatApp) sessionUser(r *http.Request) (database.User, *ApiError) {
	userId, ok := UserId(r.Context())
	if !ok {
		return database.User{}, NewUnauthorizedError()
	}

	user, err := s.accounts.GetById(userId)
	if err != nil {
		return database.User{}, storeApiError(err)
	}

	return user, nil
}

func (s *ChatApp) healthCheck(w http.ResponseWriter, _ *http.Request) {
	if err := s.db.Ping(); err != nil {
		s.log.Printf("health check: %v", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (s *ChatApp) createAccount(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if req.Username == "" || req.Password == "" {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	newUser, err := s.accounts.Register(req.Username, req.DisplayName, req.Password)
	if err != nil {
		errResp := storeApiError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusCreated, apiUser(newUser))
}

func (s *ChatApp) login(w http.ResponseWriter, r *http.Request) {
	var lr LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&lr); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if lr.Username == "" || lr.Password == "" {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	dbUser, err := s.accounts.Authenticate(lr.Username, lr.Password)
	if err != nil {
		errResp := storeApiError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	u := apiUser(dbUser)

	token, err := s.createJwtForSession(u, defaultJwtExpiration)
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	http.SetCookie(w, createJwtCookie(token, defaultJwtExpiration))

	s.writeJson(w, http.StatusOK, u)
}

func (s *ChatApp) session(w http.ResponseWriter, r *http.Request) {
	user, errResp := s.sessionUser(r)
	if errResp != nil {
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, apiUser(user))
}

func (s *ChatApp) logout(w http.ResponseWriter, _ *http.Request) {
	// instruct browser to delete cookie by overwriting it with an expired token
	http.SetCookie(w, createJwtCookie("", time.Duration(time.Unix(0, 0).Unix())))
	w.WriteHeader(http.StatusNoContent)
}

func (s *ChatApp) renameAccount(w http.ResponseWriter, r *http.Request) {
	user, errResp := s.sessionUser(r)
	if errResp != nil {
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	var req RenameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.NewUsername == "" || req.Password == "" {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	renamed, err := s.accounts.Rename(user.Username, req.NewUsername, req.Password)
	if err != nil {
		errResp := storeApiError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, apiUser(renamed))
}

func (s *ChatApp) updateDisplayName(w http.ResponseWriter, r *http.Request) {
	user, errResp := s.sessionUser(r)
	if errResp != nil {
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	var req UpdateDisplayNameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Password == "" {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	updated, err := s.accounts.UpdateDisplayName(user.Username, req.Password, req.DisplayName)
	if err != nil {
		errResp := storeApiError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, apiUser(updated))
}

func (s *ChatApp) updatePassword(w http.ResponseWriter, r *http.Request) {
	user, errResp := s.sessionUser(r)
	if errResp != nil {
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	var req UpdatePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Password == "" || req.NewPassword == "" {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	updated, err := s.accounts.UpdatePassword(user.Username, req.Password, req.NewPassword)
	if err != nil {
		errResp := storeApiError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, apiUser(updated))
}

func (s *ChatApp) listUsers(w http.ResponseWriter, r *http.Request) {
	user, errResp := s.sessionUser(r)
	if errResp != nil {
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	usernames, err := s.accounts.ListUsernames()
	if err != nil {
		errResp := storeApiError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	// the caller never chats with themselves
	others := make([]string, 0, len(usernames))
	for _, username := range usernames {
		if username != user.Username {
			others = append(others, username)
		}
	}

	s.writeJson(w, http.StatusOK, others)
}

func (s *ChatApp) sendMessage(w http.ResponseWriter, r *http.Request) {
	user, errResp := s.sessionUser(r)
	if errResp != nil {
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	msg, err := s.messages.Send(store.SendParams{
		Sender:     user.Username,
		Receiver:   req.Receiver,
		GroupName:  req.GroupName,
		Body:       req.Body,
		Attachment: req.Attachment,
	})
	if err != nil {
		errResp := storeApiError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if msg.Receiver != "" {
		text := fmt.Sprintf("New message from %s", user.Username)
		if _, err := s.messages.Notify(msg.Receiver, text); err != nil {
			s.log.Printf("notify %s: %v", msg.Receiver, err)
		}
	}

	s.writeJson(w, http.StatusCreated, apiMessage(msg))
}

// parseCursor reads the optional after_ts/after_seq query parameters. An
// absent after_ts means a full fetch.
func parseCursor(r *http.Request) (*database.Cursor, error) {
	tsStr := r.URL.Query().Get("after_ts")
	if tsStr == "" {
		return nil, nil
	}

	ts, err := time.Parse(time.RFC3339Nano, tsStr)
	if err != nil {
		return nil, err
	}

	var seq int64
	if seqStr := r.URL.Query().Get("after_seq"); seqStr != "" {
		seq, err = strconv.ParseInt(seqStr, 10, 64)
		if err != nil {
			return nil, err
		}
	}

	return &database.Cursor{CreatedAt: ts, Seq: seq}, nil
}

func (s *ChatApp) getMessages(w http.ResponseWriter, r *http.Request) {
	user, errResp := s.sessionUser(r)
	if errResp != nil {
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	counterpart := r.URL.Query().Get("user")
	groupName := r.URL.Query().Get("group")
	if (counterpart == "") == (groupName == "") {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	after, err := parseCursor(r)
	if err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	var messages []database.Message
	if counterpart != "" {
		messages, err = s.messages.FetchConversation(user.Username, counterpart, after)
	} else {
		messages, err = s.messages.FetchGroup(groupName, after)
	}
	if err != nil {
		errResp := storeApiError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	userMessages := make([]types.Message, 0, len(messages))
	for _, msg := range messages {
		userMessages = append(userMessages, apiMessage(msg))
	}

	s.writeJson(w, http.StatusOK, userMessages)
}

func (s *ChatApp) markSeen(w http.ResponseWriter, r *http.Request) {
	user, errResp := s.sessionUser(r)
	if errResp != nil {
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	var req MarkSeenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Counterpart == "" {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if err := s.messages.MarkSeen(user.Username, req.Counterpart); err != nil {
		errResp := storeApiError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusNoContent, nil)
}

func (s *ChatApp) getNotifications(w http.ResponseWriter, r *http.Request) {
	user, errResp := s.sessionUser(r)
	if errResp != nil {
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	notifications, err := s.messages.ListNotifications(user.Username)
	if err != nil {
		errResp := storeApiError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	resp := make([]types.Notification, 0, len(notifications))
	for _, n := range notifications {
		resp = append(resp, types.Notification{
			Id:        n.Id,
			Text:      n.Text,
			CreatedAt: n.CreatedAt,
		})
	}

	s.writeJson(w, http.StatusOK, resp)
}

func (s *ChatApp) uploadFile(w http.ResponseWriter, r *http.Request) {
	user, errResp := s.sessionUser(r)
	if errResp != nil {
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}
	defer file.Close()

	location, err := s.blobs.Save(user.Username, header.Filename, file)
	if err != nil {
		s.log.Printf("save upload: %v", err)
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	sid, err := s.generateShortId()
	if err != nil {
		s.log.Print("generateShortId:", err)
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	record, err := s.messages.RecordFile(sid, user.Username, header.Filename, location)
	if err != nil {
		errResp := storeApiError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusCreated, types.FileRecord{
		Id:        record.ExternalId,
		FileName:  record.FileName,
		Location:  record.Location,
		CreatedAt: record.CreatedAt,
	})
}

func (s *ChatApp) listFiles(w http.ResponseWriter, r *http.Request) {
	user, errResp := s.sessionUser(r)
	if errResp != nil {
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	files, err := s.messages.ListFiles(user.Username)
	if err != nil {
		errResp := storeApiError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	resp := make([]types.FileRecord, 0, len(files))
	for _, f := range files {
		resp = append(resp, types.FileRecord{
			Id:        f.ExternalId,
			FileName:  f.FileName,
			Location:  f.Location,
			CreatedAt: f.CreatedAt,
		})
	}

	s.writeJson(w, http.StatusOK, resp)
}
