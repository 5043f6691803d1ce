package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/fazpramim/marketplace/internal/core/domain"
	"github.com/fazpramim/marketplace/internal/core/ports"
	"github.com/fazpramim/marketplace/internal/core/validation"
)

// Routes the auth forms navigate to on success.
const (
	RouteHome  = "/"
	RouteLogin = "/login"
)

const defaultRegisterRedirectDelay = 3 * time.Second

// LoginResult is the Outcome.Result of a successful login.
type LoginResult struct {
	SessionID string
	Token     string
	ExpiresAt time.Time
	Identity  domain.Identity
}

// AuthService runs the login and registration forms and owns the session
// lifecycle.
type AuthService struct {
	sessions      *SessionRegistry
	directory     ports.AccountDirectory
	tokens        *TokenIssuer
	runner        *FormRunner
	redirectDelay time.Duration
	log           zerolog.Logger
}

// NewAuthService returns an AuthService. redirectDelay is how long the
// registration success message stays on screen before navigating to login.
func NewAuthService(
	sessions *SessionRegistry,
	directory ports.AccountDirectory,
	tokens *TokenIssuer,
	runner *FormRunner,
	redirectDelay time.Duration,
	log zerolog.Logger,
) *AuthService {
	if redirectDelay < 0 {
		redirectDelay = defaultRegisterRedirectDelay
	}
	return &AuthService{
		sessions:      sessions,
		directory:     directory,
		tokens:        tokens,
		runner:        runner,
		redirectDelay: redirectDelay,
		log:           log,
	}
}

// Login submits the login form of instance. On success the outcome's
// Result is a *LoginResult for a new session.
func (s *AuthService) Login(ctx context.Context, instance string, values validation.Values) (*Outcome, error) {
	key := FormKey{Owner: instance, Form: validation.FormLogin}
	return s.runner.Submit(ctx, key, func() PipelineConfig {
		return PipelineConfig{
			Schema:       validation.LoginSchema,
			Submit:       s.submitLogin,
			SuccessRoute: RouteHome,
		}
	}, values)
}

func (s *AuthService) submitLogin(ctx context.Context, values validation.Values) (any, error) {
	sid := uuid.NewString()
	store := s.sessions.Open(ctx, sid)

	identity, err := store.Login(ctx, values[validation.FieldEmail], values[validation.FieldPassword])
	if err != nil {
		s.sessions.Forget(sid)
		return nil, err
	}

	token, exp, err := s.tokens.Issue(sid, identity)
	if err != nil {
		if logoutErr := store.Logout(ctx); logoutErr != nil {
			s.log.Warn().Err(logoutErr).Str("session_id", sid).Msg("rollback login")
		}
		return nil, fmt.Errorf("issue token: %w", err)
	}

	return &LoginResult{SessionID: sid, Token: token, ExpiresAt: exp, Identity: identity}, nil
}

// Logout ends session sid. It is idempotent.
func (s *AuthService) Logout(ctx context.Context, sid string) error {
	return s.sessions.Logout(ctx, sid)
}

// Identity returns the identity of session sid, or nil when logged out.
func (s *AuthService) Identity(ctx context.Context, sid string) *domain.Identity {
	return s.sessions.Identity(ctx, sid)
}

// RegisterClient submits the client registration form of instance.
func (s *AuthService) RegisterClient(ctx context.Context, instance string, values validation.Values) (*Outcome, error) {
	key := FormKey{Owner: instance, Form: validation.FormClientRegistration}
	return s.runner.Submit(ctx, key, func() PipelineConfig {
		return PipelineConfig{
			Schema:         validation.ClientRegistrationSchema,
			Submit:         s.registrar(domain.RoleClient),
			SuccessRoute:   RouteLogin,
			SuccessMessage: "Cadastro realizado com sucesso! Faça login para continuar.",
			RedirectDelay:  s.redirectDelay,
		}
	}, values)
}

// RegisterProvider submits the provider registration form of instance.
func (s *AuthService) RegisterProvider(ctx context.Context, instance string, values validation.Values) (*Outcome, error) {
	key := FormKey{Owner: instance, Form: validation.FormProviderRegistration}
	return s.runner.Submit(ctx, key, func() PipelineConfig {
		return PipelineConfig{
			Schema:         validation.ProviderRegistrationSchema,
			Submit:         s.registrar(domain.RoleProvider),
			SuccessRoute:   RouteLogin,
			SuccessMessage: "Cadastro realizado com sucesso! Seu perfil será analisado em até 24 horas.",
			RedirectDelay:  s.redirectDelay,
		}
	}, values)
}

func (s *AuthService) registrar(role domain.Role) Submitter {
	return func(ctx context.Context, values validation.Values) (any, error) {
		account, err := s.directory.Register(ctx, domain.Registration{
			Name:          strings.TrimSpace(values[validation.FieldFullName]),
			Email:         values[validation.FieldEmail],
			Password:      values[validation.FieldPassword],
			Phone:         strings.TrimSpace(values[validation.FieldPhone]),
			Role:          role,
			Address:       strings.TrimSpace(values[validation.FieldAddress]),
			Qualification: strings.TrimSpace(values[validation.FieldQualification]),
		})
		if err != nil {
			return nil, err
		}
		s.log.Info().Str("account_id", account.ID).Str("role", string(role)).Msg("account registered")
		return account, nil
	}
}
