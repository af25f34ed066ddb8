package config

import (
	"encoding/base64"
	"fmt"
)

const (
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

type Config struct {
	ServerAddr     string
	Backend        string
	DatabaseDSN    string
	UploadDir      string
	SigningKey     []byte
	AllowedOrigins []string
}

func decodeSigningSecret(base64Secret string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(base64Secret)
}

func NewConfig(serverAddr, backend, databaseDSN, uploadDir, base64Secret string, allowedOrigins []string) (*Config, error) {
	if serverAddr == "" {
		return nil, fmt.Errorf("server address cannot be empty")
	}
	if backend != BackendSQLite && backend != BackendPostgres {
		return nil, fmt.Errorf("unknown backend %q", backend)
	}
	if databaseDSN == "" {
		return nil, fmt.Errorf("database DSN cannot be empty")
	}
	if uploadDir == "" {
		return nil, fmt.Errorf("upload directory cannot be empty")
	}
	if base64Secret == "" {
		return nil, fmt.Errorf("signing secret cannot be empty")
	}

	// Decode the base64 encoded signing secret
	signingKey, err := decodeSigningSecret(base64Secret)
	if err != nil {
		return nil, fmt.Errorf("decode signing secret: %w", err)
	}

	return &Config{
		ServerAddr:     serverAddr,
		Backend:        backend,
		DatabaseDSN:    databaseDSN,
		UploadDir:      uploadDir,
		SigningKey:     signingKey,
		AllowedOrigins: allowedOrigins,
	}, nil
}
