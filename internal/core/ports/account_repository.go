package ports

import (
	"context"

	"github.com/fazpramim/marketplace/internal/core/domain"
)

// AccountRepository defines the interface for account persistence.
type AccountRepository interface {
	// FindByEmail returns domain.ErrUserNotFound when no account matches.
	FindByEmail(ctx context.Context, email string) (*domain.Account, error)
	// Create returns domain.ErrUserExists when the email is already taken.
	Create(ctx context.Context, account *domain.Account) (*domain.Account, error)
}
