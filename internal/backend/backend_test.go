package backend

import (
	"path/filepath"
	"testing"

	"evlog/internal/config"
	"evlog/internal/log"
)

func TestTypeIsValid(t *testing.T) {
	for _, valid := range []Type{MemoryBackend, SQLiteBackend} {
		if !valid.IsValid() {
			t.Errorf("%s should be valid", valid)
		}
	}
	for _, invalid := range []Type{"", "sheets", "postgres"} {
		if invalid.IsValid() {
			t.Errorf("%q should be invalid", invalid)
		}
	}
}

func TestOpenMemory(t *testing.T) {
	cfg := &config.Config{DataBackend: "memory"}
	result, err := Open(cfg, log.New(log.DefaultConfig()))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if result.Store == nil {
		t.Fatal("expected store instance")
	}
	if err := result.Cleanup(); err != nil {
		t.Fatalf("Cleanup: %v", err)
	}
}

func TestOpenSQLite(t *testing.T) {
	cfg := &config.Config{
		DataBackend:  "sqlite",
		SQLiteDBPath: filepath.Join(t.TempDir(), "evlog.db"),
	}
	result, err := Open(cfg, log.New(log.DefaultConfig()))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer result.Cleanup()
	if result.Store == nil {
		t.Fatal("expected store instance")
	}
}

func TestOpenRejectsUnknownBackend(t *testing.T) {
	cfg := &config.Config{DataBackend: "sheets"}
	if _, err := Open(cfg, log.New(log.DefaultConfig())); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}
