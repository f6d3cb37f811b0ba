package backend

import (
	"context"
	"time"

	"billbook/internal/services"
	"billbook/internal/storage"
)

// CleanupFunc releases resources held by a backend.
type CleanupFunc func() error

// BackendResult is the store handed to services and handlers, plus the
// optional event publisher created alongside it.
type BackendResult struct {
	Store storage.Store
	// Publisher is nil when no message bus is configured.
	Publisher services.EventPublisher
	Cleanup   CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds everything the factory and the cache/ledger builders need.
type Config struct {
	Type BackendType

	// SQLite
	SQLiteDBPath string

	// Message bus (optional)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Report cache
	CacheBackend   CacheType
	RedisAddr      string
	ReportCacheTTL time.Duration

	// Spreadsheet ledger (optional)
	SpreadsheetID   string
	SheetName       string
	CredentialsJSON string
	CredentialsFile string
}

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}

// CacheType selects the report cache implementation.
type CacheType string

const (
	MemoryCache CacheType = "memory"
	RedisCache  CacheType = "redis"
)

func (ct CacheType) IsValid() bool {
	return ct == MemoryCache || ct == RedisCache
}
