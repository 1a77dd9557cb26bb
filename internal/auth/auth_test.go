package auth

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/beating-app/beating/internal/repositories"
	"github.com/beating-app/beating/internal/shared"
)

func setupTestService(t *testing.T) (*Service, *sql.DB) {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	svc := NewService(repositories.NewUserRepository(db), shared.AuthConfig{
		Secret:        "test-secret",
		TokenTTLHours: 1,
	})

	return svc, db
}

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("round trip", func(t *testing.T) {
		svc, db := setupTestService(t)
		defer db.Close()

		user, err := svc.Register(ctx, "ana", "ana@example.com", "correct horse")
		if err != nil {
			t.Fatalf("register failed: %v", err)
		}
		if user.PasswordHash == "correct horse" {
			t.Error("password must be stored hashed")
		}

		token, loggedIn, err := svc.Login(ctx, "ana@example.com", "correct horse")
		if err != nil {
			t.Fatalf("login failed: %v", err)
		}
		if loggedIn.ID != user.ID {
			t.Errorf("expected user %s, got %s", user.ID, loggedIn.ID)
		}

		subject, err := svc.Verify(token)
		if err != nil {
			t.Fatalf("verify failed: %v", err)
		}
		if subject != user.ID {
			t.Errorf("expected subject %s, got %s", user.ID, subject)
		}
	})

	t.Run("short password rejected", func(t *testing.T) {
		svc, db := setupTestService(t)
		defer db.Close()

		_, err := svc.Register(ctx, "ana", "ana@example.com", "short")
		if !errors.Is(err, shared.ErrValidation) {
			t.Errorf("expected ErrValidation, got %v", err)
		}
	})

	t.Run("wrong password fails auth", func(t *testing.T) {
		svc, db := setupTestService(t)
		defer db.Close()

		if _, err := svc.Register(ctx, "ana", "ana@example.com", "correct horse"); err != nil {
			t.Fatalf("register failed: %v", err)
		}

		_, _, err := svc.Login(ctx, "ana@example.com", "wrong horse")
		if !errors.Is(err, shared.ErrAuthFailed) {
			t.Errorf("expected ErrAuthFailed, got %v", err)
		}
	})

	t.Run("unknown email fails auth", func(t *testing.T) {
		svc, db := setupTestService(t)
		defer db.Close()

		_, _, err := svc.Login(ctx, "ghost@example.com", "whatever password")
		if !errors.Is(err, shared.ErrAuthFailed) {
			t.Errorf("expected ErrAuthFailed, got %v", err)
		}
	})
}

func TestVerify(t *testing.T) {
	svc, db := setupTestService(t)
	defer db.Close()

	t.Run("garbage token", func(t *testing.T) {
		_, err := svc.Verify("not-a-token")
		if !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})

	t.Run("token signed with another secret", func(t *testing.T) {
		other := NewService(nil, shared.AuthConfig{Secret: "different", TokenTTLHours: 1})
		token, err := other.issue("someone")
		if err != nil {
			t.Fatalf("issue failed: %v", err)
		}

		_, err = svc.Verify(token)
		if !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})
}
