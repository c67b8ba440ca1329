// Package auth implements password authentication and JWT session tokens.
package auth

import (
	"context"

	"kakeibo/internal/core"
)

// Authenticator registers and authenticates users. Implementations decide
// what the credential is; the password authenticator takes a plain password.
type Authenticator interface {
	Register(ctx context.Context, email, displayName, credential string) (core.User, error)
	Authenticate(ctx context.Context, email, credential string) (core.User, error)
	ValidateCredential(credential string) error
}
