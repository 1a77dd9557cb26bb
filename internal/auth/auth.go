// package auth issues and verifies the signed tokens used by the API,
// and hashes account passwords.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/beating-app/beating/internal/models"
	"github.com/beating-app/beating/internal/repositories"
	"github.com/beating-app/beating/internal/shared"
)

// Service registers accounts, checks credentials and mints tokens.
type Service struct {
	users  *repositories.UserRepository
	secret []byte
	ttl    time.Duration
}

// NewService creates an auth Service signing tokens with the given secret.
func NewService(users *repositories.UserRepository, cfg shared.AuthConfig) *Service {
	ttl := time.Duration(cfg.TokenTTLHours) * time.Hour
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Service{users: users, secret: []byte(cfg.Secret), ttl: ttl}
}

// Register creates an account with a bcrypt-hashed password.
func (s *Service) Register(ctx context.Context, username, email, password string) (*models.User, error) {
	if len(password) < 8 {
		return nil, fmt.Errorf("%w: password must be at least 8 characters", shared.ErrValidation)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.NewUser(username, email, string(hash))
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// Login checks the credentials and returns a signed token. Unknown emails
// and wrong passwords both return ErrAuthFailed.
func (s *Service) Login(ctx context.Context, email, password string) (string, *models.User, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return "", nil, fmt.Errorf("%w: invalid credentials", shared.ErrAuthFailed)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return "", nil, fmt.Errorf("%w: invalid credentials", shared.ErrAuthFailed)
	}

	token, err := s.issue(user.ID)
	if err != nil {
		return "", nil, err
	}

	return token, user, nil
}

func (s *Service) issue(userID string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, nil
}

// Verify parses a token and returns the user id it was issued to.
func (s *Service) Verify(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{},
		func(t *jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", shared.ErrTokenExpired
		}
		return "", fmt.Errorf("%w: %v", shared.ErrNotAuthenticated, err)
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", fmt.Errorf("%w: malformed claims", shared.ErrNotAuthenticated)
	}

	return claims.Subject, nil
}
