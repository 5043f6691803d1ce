package memory

import (
	"context"
	"sync"

	"github.com/fazpramim/marketplace/internal/core/domain"
)

// AccountRepository keeps accounts in memory, keyed by email.
type AccountRepository struct {
	mu       sync.RWMutex
	accounts map[string]domain.Account
}

func NewAccountRepository() *AccountRepository {
	return &AccountRepository{accounts: make(map[string]domain.Account)}
}

func (r *AccountRepository) FindByEmail(_ context.Context, email string) (*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.accounts[email]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return &a, nil
}

func (r *AccountRepository) Create(_ context.Context, account *domain.Account) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.accounts[account.Email]; exists {
		return nil, domain.ErrUserExists
	}
	r.accounts[account.Email] = *account
	out := *account
	return &out, nil
}
