package config

import (
	"os"
	"path/filepath"
	"strconv"
)

type StoreConfig interface {
	GetCredentialStore() string
	GetCredentialFile() string
	GetRedisAddr() string
	GetRedisPassword() string
	GetRedisDB() int
	GetSQLitePath() string
}

type Store struct {
	source
}

var _ StoreConfig = Store{}

// GetCredentialStore returns the backend name: memory, file, redis or sqlite.
func (s Store) GetCredentialStore() string {
	return s.get("CREDENTIAL_STORE", "file")
}

func (s Store) GetCredentialFile() string {
	return s.get("CREDENTIAL_FILE", filepath.Join(userConfigDir(), "adminctl", "credentials.yaml"))
}

func (s Store) GetRedisAddr() string {
	return s.get("REDIS_ADDR", "localhost:6379")
}

func (s Store) GetRedisPassword() string {
	return s.get("REDIS_PASSWORD", "")
}

func (s Store) GetRedisDB() int {
	db, err := strconv.Atoi(s.get("REDIS_DB", "0"))
	if err != nil {
		return 0
	}
	return db
}

func (s Store) GetSQLitePath() string {
	return s.get("SQLITE_PATH", filepath.Join(userConfigDir(), "adminctl", "credentials.db"))
}

func userConfigDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "."
	}
	return dir
}
