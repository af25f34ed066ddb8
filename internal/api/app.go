package api

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/bluechat/bluechat/internal/blob"
	"github.com/bluechat/bluechat/internal/config"
	"github.com/bluechat/bluechat/internal/database"
	"github.com/bluechat/bluechat/internal/store"
	"github.com/gorilla/handlers"
	"github.com/teris-io/shortid"
)

type ChatApp struct {
	log             *log.Logger
	accounts        *store.AccountStore
	messages        *store.MessageStore
	blobs           blob.Store
	db              database.ChatRepository
	mux             *http.Server
	signingKey      []byte
	allowedOrigins  []string
	generateShortId func() (string, error)
}

func NewChatApp(mux *http.ServeMux, logger *log.Logger, accounts *store.AccountStore,
	messages *store.MessageStore, blobs blob.Store, db database.ChatRepository, cfg *config.Config) *ChatApp {
	s := &ChatApp{
		log:             logger,
		accounts:        accounts,
		messages:        messages,
		blobs:           blobs,
		db:              db,
		signingKey:      cfg.SigningKey,
		allowedOrigins:  cfg.AllowedOrigins,
		generateShortId: shortid.Generate,
	}

	mux.HandleFunc("GET /healthz", s.healthCheck)
	mux.HandleFunc("POST /api/auth/register", s.createAccount)
	mux.HandleFunc("POST /api/auth/login", s.login)
	mux.HandleFunc("GET /api/auth/session", s.authMiddleware(s.session))
	mux.Handle("GET /api/auth/logout", s.authMiddleware(s.logout))
	mux.Handle("PUT /api/account/username", s.authMiddleware(s.renameAccount))
	mux.Handle("PUT /api/account/display-name", s.authMiddleware(s.updateDisplayName))
	mux.Handle("PUT /api/account/password", s.authMiddleware(s.updatePassword))
	mux.Handle("GET /api/users", s.authMiddleware(s.listUsers))
	mux.Handle("POST /api/messages", s.authMiddleware(s.sendMessage))
	mux.Handle("GET /api/messages", s.authMiddleware(s.getMessages))
	mux.Handle("POST /api/messages/seen", s.authMiddleware(s.markSeen))
	mux.Handle("GET /api/notifications", s.authMiddleware(s.getNotifications))
	mux.Handle("POST /api/files", s.authMiddleware(s.uploadFile))
	mux.Handle("GET /api/files", s.authMiddleware(s.listFiles))

	h := handlers.CORS(
		handlers.MaxAge(3600),
		handlers.AllowedOrigins(cfg.AllowedOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Origin", "Content-Type", "Accept"}),
		handlers.AllowCredentials(),
	)(mux)

	h = s.errorHandler(h)

	srv := &http.Server{
		Addr:    cfg.ServerAddr,
		Handler: h,
	}

	s.mux = srv
	return s
}

func (s *ChatApp) Start() error {
	s.log.Printf("starting server on %s\n", s.mux.Addr)
	return s.mux.ListenAndServe()
}

func (s *ChatApp) Shutdown(ctx context.Context) error {
	s.log.Println("shutting down HTTP server...")
	if err := s.mux.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	return nil
}
