package services

import (
	"context"
	"log/slog"

	"kakeibo/internal/auth"
	"kakeibo/internal/core"
	"kakeibo/internal/storage"
)

// Session is an authenticated user with a signed token.
type Session struct {
	User  core.User
	Token string
}

// AccountService registers users and issues session tokens.
type AccountService struct {
	authenticator auth.Authenticator
	tokens        *auth.JWTManager
	storage       *storage.SQLiteRepository
}

func NewAccountService(authenticator auth.Authenticator, tokens *auth.JWTManager, storage *storage.SQLiteRepository) *AccountService {
	return &AccountService{authenticator: authenticator, tokens: tokens, storage: storage}
}

func (s *AccountService) Register(ctx context.Context, email, displayName, password string) (Session, error) {
	u, err := s.authenticator.Register(ctx, email, displayName, password)
	if err != nil {
		slog.WarnContext(ctx, "Registration failed", "email", email, "error", err)
		return Session{}, err
	}
	slog.InfoContext(ctx, "User registered", "user_id", u.ID)
	return s.session(u)
}

func (s *AccountService) Login(ctx context.Context, email, password string) (Session, error) {
	u, err := s.authenticator.Authenticate(ctx, email, password)
	if err != nil {
		slog.WarnContext(ctx, "Login failed", "email", email)
		return Session{}, err
	}
	return s.session(u)
}

// Me returns the user behind a validated token.
func (s *AccountService) Me(ctx context.Context, userID string) (core.User, error) {
	return s.storage.GetUserByID(ctx, userID)
}

func (s *AccountService) session(u core.User) (Session, error) {
	token, err := s.tokens.Generate(u)
	if err != nil {
		return Session{}, err
	}
	return Session{User: u, Token: token}, nil
}
