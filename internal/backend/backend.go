package backend

import (
	"fmt"

	"evlog/internal/config"
	"evlog/internal/log"
	"evlog/internal/store"
	"evlog/internal/store/memory"
	"evlog/internal/storage"
)

// Type selects the persistence backend.
type Type string

const (
	MemoryBackend Type = "memory"
	SQLiteBackend Type = "sqlite"
)

// String implements fmt.Stringer
func (t Type) String() string {
	return string(t)
}

// IsValid returns true if the backend type is known
func (t Type) IsValid() bool {
	switch t {
	case MemoryBackend, SQLiteBackend:
		return true
	default:
		return false
	}
}

// CleanupFunc releases backend resources
type CleanupFunc func() error

// Result contains the store instance and optional cleanup function
type Result struct {
	Store   store.Store
	Cleanup CleanupFunc
}

// Open creates the store named by the configuration.
func Open(cfg *config.Config, logger *log.Logger) (*Result, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}
	logger = logger.WithComponent(log.ComponentStorage)

	backendType := Type(cfg.DataBackend)
	switch backendType {
	case MemoryBackend:
		logger.Info("using in-memory store")
		return &Result{
			Store:   memory.New(),
			Cleanup: func() error { return nil },
		}, nil

	case SQLiteBackend:
		repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("opening sqlite store: %w", err)
		}
		logger.Info("using sqlite store", "db_path", cfg.SQLiteDBPath)
		return &Result{
			Store:   repo,
			Cleanup: repo.Close,
		}, nil

	default:
		return nil, fmt.Errorf("unsupported backend type: %s", backendType)
	}
}
