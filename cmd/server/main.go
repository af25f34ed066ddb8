package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/bluechat/bluechat/internal/api"
	"github.com/bluechat/bluechat/internal/blob"
	"github.com/bluechat/bluechat/internal/config"
	"github.com/bluechat/bluechat/internal/database"
	"github.com/bluechat/bluechat/internal/store"
)

const defaultSigningKey = "wT0phFUusHZIrDhL9bUKPUhwaxKhpi/SaI6PtgB+MgU="

type stringSliceFlag []string

func (s *stringSliceFlag) String() string {
	return strings.Join(*s, ",")
}

func (s *stringSliceFlag) Set(value string) error {
	*s = append(*s, strings.Split(value, ",")...)
	return nil
}

var (
	addr           string
	backend        string
	dsn            string
	uploadDir      string
	signingKey     string
	allowedOrigins stringSliceFlag
)

type chatRepository interface {
	database.ChatRepository
	Close() error
}

func openRepository(cfg *config.Config) (chatRepository, error) {
	if cfg.Backend == config.BackendPostgres {
		return database.NewPgChatRepository(cfg.DatabaseDSN)
	}
	return database.NewSQLiteChatRepository(cfg.DatabaseDSN)
}

func main() {
	flag.StringVar(&addr, "addr", "localhost:8000", "server address")
	flag.StringVar(&backend, "backend", config.BackendSQLite, "storage backend (sqlite or postgres)")
	flag.StringVar(&dsn, "dsn", "bluechat.db", "database file (sqlite) or connection string (postgres)")
	flag.StringVar(&uploadDir, "upload-dir", "uploads", "directory for uploaded attachments")
	flag.StringVar(&signingKey, "signing-key", defaultSigningKey, "base64 encoded signing key")
	flag.Var(&allowedOrigins, "allowed-origins", "comma-separated list of allowed origins for CORS")
	flag.Parse()

	logger := log.New(os.Stderr, "[bluechat] ", log.LstdFlags)

	cfg, err := config.NewConfig(addr, backend, dsn, uploadDir, signingKey, allowedOrigins)
	if err != nil {
		logger.Fatal("config:", err)
	}

	repo, err := openRepository(cfg)
	if err != nil {
		logger.Fatal("db open:", err)
	}
	defer func() {
		if err := repo.Close(); err != nil {
			logger.Fatal("db close:", err)
		}
	}()

	blobs, err := blob.NewLocalStore(cfg.UploadDir)
	if err != nil {
		logger.Fatal("blob store:", err)
	}

	accounts := store.NewAccountStore(logger, repo)
	messages := store.NewMessageStore(logger, repo)

	mux := http.NewServeMux()
	srv := api.NewChatApp(mux, logger, accounts, messages, blobs, repo, cfg)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigs:
		logger.Printf("received signal: %s\n", sig)
	case err := <-errCh:
		logger.Println("server:", err)
	}

	shutDownCtx, cancel := context.WithTimeout(
		context.Background(),
		10*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutDownCtx); err != nil {
		logger.Fatalln("HTTP server shutdown:", err)
	}

	logger.Println("shutdown complete")
}
