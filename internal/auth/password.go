package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"kakeibo/internal/core"
)

const minPasswordLen = 8

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
	ErrEmailExists        = errors.New("email already registered")
	ErrInvalidEmail       = errors.New("invalid email address")
)

// UserStorage is the subset of the repository the authenticator needs.
type UserStorage interface {
	CreateUser(ctx context.Context, u *core.User) error
	GetUserByEmail(ctx context.Context, email string) (core.User, error)
}

// PasswordAuthenticator implements Authenticator with bcrypt password hashes.
type PasswordAuthenticator struct {
	storage UserStorage
	cost    int
}

func NewPasswordAuthenticator(storage UserStorage) *PasswordAuthenticator {
	return &PasswordAuthenticator{storage: storage, cost: bcrypt.DefaultCost}
}

func (a *PasswordAuthenticator) ValidateCredential(credential string) error {
	if len(credential) < minPasswordLen {
		return ErrWeakPassword
	}
	return nil
}

// Register creates a user with a hashed password.
func (a *PasswordAuthenticator) Register(ctx context.Context, email, displayName, credential string) (core.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := mail.ParseAddress(email); err != nil {
		return core.User{}, ErrInvalidEmail
	}
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		return core.User{}, core.ErrEmptyName
	}
	if err := a.ValidateCredential(credential); err != nil {
		return core.User{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(credential), a.cost)
	if err != nil {
		return core.User{}, fmt.Errorf("hash password: %w", err)
	}

	u := core.User{Email: email, DisplayName: displayName, PasswordHash: string(hash)}
	if err := a.storage.CreateUser(ctx, &u); err != nil {
		if errors.Is(err, core.ErrConflict) {
			return core.User{}, ErrEmailExists
		}
		return core.User{}, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

// Authenticate returns the user matching email and password. Unknown emails
// and wrong passwords yield the same error.
func (a *PasswordAuthenticator) Authenticate(ctx context.Context, email, credential string) (core.User, error) {
	u, err := a.storage.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return core.User{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(credential)); err != nil {
		return core.User{}, ErrInvalidCredentials
	}
	return u, nil
}
