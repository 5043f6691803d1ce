package ports

import (
	"context"

	"github.com/fazpramim/marketplace/internal/core/domain"
)

// AccountDirectory is the remote registration/auth collaborator.
//
// Authenticate returns domain.ErrInvalidCredentials when the email/secret
// pair is rejected. Register returns domain.ErrUserExists for a taken email
// and *domain.RejectedError for a payload the directory refuses. Any other
// error is treated as a transient failure.
type AccountDirectory interface {
	Authenticate(ctx context.Context, email, secret string) (*domain.Account, error)
	Register(ctx context.Context, reg domain.Registration) (*domain.Account, error)
}
