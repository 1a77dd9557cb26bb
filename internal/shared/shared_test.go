package shared

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"testing"
)

func TestGenerateID(t *testing.T) {
	seen := make(map[string]bool)
	for range 100 {
		id := GenerateID()
		if id == "" {
			t.Fatal("expected a non-empty id")
		}
		if seen[id] {
			t.Fatalf("duplicate id: %s", id)
		}
		seen[id] = true
	}
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.Database.Path != "beating.db" {
		t.Errorf("unexpected database path: %s", config.Database.Path)
	}
	if config.Server.Host != "127.0.0.1" || config.Server.Port != 8080 {
		t.Errorf("unexpected server config: %+v", config.Server)
	}
	if config.Auth.TokenTTLHours != 1 {
		t.Errorf("unexpected token ttl: %d", config.Auth.TokenTTLHours)
	}
	if config.Inference.BaseURL != "" {
		t.Errorf("inference should be unconfigured by default, got %q", config.Inference.BaseURL)
	}
}

func TestLoadConfig(t *testing.T) {
	t.Run("round trip through created file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")

		if err := CreateConfigFile(path); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		config, err := LoadConfig(path)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}
		if config.Database.Path != "beating.db" {
			t.Errorf("unexpected database path: %s", config.Database.Path)
		}
	})

	t.Run("existing file is not overwritten", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(path, []byte("# mine"), 0644); err != nil {
			t.Fatalf("failed to write file: %v", err)
		}

		if err := CreateConfigFile(path); err == nil {
			t.Error("expected an error creating over an existing file")
		}
	})

	t.Run("missing file errors", func(t *testing.T) {
		if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
			t.Error("expected an error for a missing file")
		}
	})
}

func TestMigrations(t *testing.T) {
	t.Run("apply and rollback", func(t *testing.T) {
		db, err := NewDatabase(":memory:")
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()

		if err := RunMigrations(db); err != nil {
			t.Fatalf("failed to run migrations: %v", err)
		}

		var name string
		err = db.QueryRow("SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'reviews'").Scan(&name)
		if err != nil {
			t.Fatalf("reviews table should exist: %v", err)
		}

		if err := RollbackMigration(db); err != nil {
			t.Fatalf("failed to rollback: %v", err)
		}

		err = db.QueryRow("SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'reviews'").Scan(&name)
		if err == nil {
			t.Error("reviews table should be gone after rollback")
		}
	})

	t.Run("running twice is a no-op", func(t *testing.T) {
		db, err := NewDatabase(":memory:")
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()

		if err := RunMigrations(db); err != nil {
			t.Fatalf("first run failed: %v", err)
		}
		if err := RunMigrations(db); err != nil {
			t.Fatalf("second run failed: %v", err)
		}
	})

	t.Run("rollback with nothing applied errors", func(t *testing.T) {
		db, err := NewDatabase(":memory:")
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()

		if err := createMigrationsTable(db); err != nil {
			t.Fatalf("failed to create migrations table: %v", err)
		}
		if err := RollbackMigration(db); err == nil {
			t.Error("expected an error with no applied migrations")
		}
	})
}

func TestStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, http.StatusOK},
		{"validation", fmt.Errorf("%w: too short", ErrValidation), http.StatusBadRequest},
		{"not found", fmt.Errorf("%w: review x", ErrNotFound), http.StatusNotFound},
		{"conflict", fmt.Errorf("%w: duplicate", ErrConflict), http.StatusConflict},
		{"not authenticated", ErrNotAuthenticated, http.StatusUnauthorized},
		{"token expired", ErrTokenExpired, http.StatusUnauthorized},
		{"auth failed", fmt.Errorf("%w: bad password", ErrAuthFailed), http.StatusUnauthorized},
		{"storage", fmt.Errorf("%w: disk", ErrStorage), http.StatusInternalServerError},
		{"unknown", errors.New("anything else"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StatusCode(tt.err); got != tt.want {
				t.Errorf("StatusCode(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}
