// Package services orchestrates the domain operations: account
// registration and authentication, owner-scoped ledger writes, and the
// bucketed analytics reads.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"tally/internal/auth"
	"tally/internal/core"
	"tally/internal/storage"
)

// AccountService registers and authenticates users. It returns opaque
// user identities; session tokens are minted at the HTTP edge only.
type AccountService struct {
	users      storage.UserStore
	categories storage.CategoryStore
}

// Throwaway credentials hashed against on authentication misses so an
// unknown username costs the same key-stretching work as a wrong
// password and the two stay indistinguishable by response timing.
var (
	burnSalt = strings.Repeat("0", 64)
	burnHash = strings.Repeat("0", 64)
)

func NewAccountService(users storage.UserStore, categories storage.CategoryStore) *AccountService {
	return &AccountService{users: users, categories: categories}
}

// Register creates a user with a freshly salted PBKDF2 hash and seeds
// the default categories. Fails with core.ErrValidation on short
// credentials and core.ErrConflict on a taken username.
func (s *AccountService) Register(ctx context.Context, username, password, email string) (core.UserID, error) {
	if err := core.ValidateUsername(username); err != nil {
		return "", err
	}
	if err := core.ValidatePassword(password); err != nil {
		return "", err
	}

	hash, salt, err := auth.HashPassword(password)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	user, err := s.users.CreateUser(ctx, core.User{
		ID:           core.UserID(uuid.NewString()),
		Username:     username,
		Email:        email,
		Currency:     core.DefaultCurrency,
		PasswordHash: hash,
		PasswordSalt: salt,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return "", fmt.Errorf("register %q: %w", username, err)
	}

	s.seedDefaultCategories(ctx, user.ID)

	slog.InfoContext(ctx, "User registered", "user_id", user.ID, "username", username)
	return user.ID, nil
}

// seedDefaultCategories inserts the built-in set. A partial failure is
// logged but does not undo the registration; the user can add the
// missing categories by hand.
func (s *AccountService) seedDefaultCategories(ctx context.Context, userID core.UserID) {
	now := time.Now().UTC()
	for _, c := range core.DefaultCategories {
		c.UserID = userID
		c.CreatedAt = now
		if _, err := s.categories.CreateCategory(ctx, c); err != nil {
			slog.WarnContext(ctx, "Failed to seed default category",
				"user_id", userID, "category", c.Name, "error", err)
		}
	}
}

// Authenticate verifies the credentials and returns the user identity.
// Unknown username and wrong password both fail with the same
// core.ErrAuth; connectivity failures pass through unchanged.
func (s *AccountService) Authenticate(ctx context.Context, username, password string) (core.UserID, error) {
	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, core.ErrUnavailable) {
			return "", err
		}
		auth.VerifyPassword(burnHash, burnSalt, password)
		return "", core.ErrAuth
	}

	if !auth.VerifyPassword(user.PasswordHash, user.PasswordSalt, password) {
		return "", core.ErrAuth
	}

	slog.InfoContext(ctx, "User authenticated", "user_id", user.ID)
	return user.ID, nil
}

// GetUser returns the account for an authenticated identity.
func (s *AccountService) GetUser(ctx context.Context, userID core.UserID) (core.User, error) {
	return s.users.GetUserByID(ctx, userID)
}

// Currency returns the user's preferred display currency.
func (s *AccountService) Currency(ctx context.Context, userID core.UserID) (string, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return "", err
	}
	if user.Currency == "" {
		return core.DefaultCurrency, nil
	}
	return user.Currency, nil
}

// SetCurrency updates the preferred display currency.
func (s *AccountService) SetCurrency(ctx context.Context, userID core.UserID, currency string) error {
	if currency == "" {
		return fmt.Errorf("%w: currency is required", core.ErrValidation)
	}
	return s.users.SetCurrency(ctx, userID, currency)
}
