package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/fazpramim/marketplace/internal/core/domain"
	"github.com/fazpramim/marketplace/internal/core/ports"
)

// AccountService implements ports.AccountDirectory on top of an account
// repository. Passwords are stored as bcrypt hashes.
type AccountService struct {
	repo ports.AccountRepository
	cost int
	now  func() time.Time
}

func NewAccountService(repo ports.AccountRepository) *AccountService {
	return &AccountService{repo: repo, cost: bcrypt.DefaultCost, now: time.Now}
}

func (s *AccountService) Authenticate(ctx context.Context, email, secret string) (*domain.Account, error) {
	email = domain.NormalizeEmail(email)
	if email == "" || secret == "" {
		return nil, domain.ErrInvalidCredentials
	}

	account, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("authenticate: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(secret)) != nil {
		return nil, domain.ErrInvalidCredentials
	}
	return account, nil
}

func (s *AccountService) Register(ctx context.Context, reg domain.Registration) (*domain.Account, error) {
	email := domain.NormalizeEmail(reg.Email)
	if email == "" || reg.Password == "" {
		return nil, &domain.RejectedError{Message: "E-mail e senha são obrigatórios."}
	}
	if !reg.Role.Valid() {
		return nil, &domain.RejectedError{Message: "Tipo de conta inválido."}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(reg.Password), s.cost)
	if err != nil {
		return nil, &domain.RejectedError{Message: "Senha inválida."}
	}

	identity := domain.NewIdentity(email, reg.Name, reg.Role)
	account := &domain.Account{
		ID:            identity.ID,
		Email:         email,
		Name:          strings.TrimSpace(reg.Name),
		PasswordHash:  string(hash),
		Role:          reg.Role,
		Phone:         strings.TrimSpace(reg.Phone),
		Address:       strings.TrimSpace(reg.Address),
		Qualification: strings.TrimSpace(reg.Qualification),
		CreatedAt:     s.now().UTC(),
	}

	created, err := s.repo.Create(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	return created, nil
}
