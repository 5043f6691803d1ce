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

// CreateRequestInput carries a validated service_request form.
type CreateRequestInput struct {
	ClientID       string
	ProviderID     string
	IdempotencyKey string
	Values         validation.Values
}

// RequestService records clients' service requests.
type RequestService struct {
	repo   ports.RequestRepository
	dedup  ports.DedupChecker
	runner *FormRunner
	now    func() time.Time
	log    zerolog.Logger
}

// NewRequestService returns a RequestService. dedup may be nil, in which
// case idempotency keys are ignored.
func NewRequestService(repo ports.RequestRepository, dedup ports.DedupChecker, runner *FormRunner, log zerolog.Logger) *RequestService {
	return &RequestService{repo: repo, dedup: dedup, runner: runner, now: time.Now, log: log}
}

// ChatRoute is the page a successful request for providerID navigates to.
func ChatRoute(providerID string) string {
	return "/chat/" + providerID
}

// Submit runs the service_request form of session sid for providerID. The
// Idempotency-Key, if any, is read from ctx. On success the outcome's Result
// is the created *domain.ServiceRequest.
func (s *RequestService) Submit(ctx context.Context, sid string, client domain.Identity, providerID string, values validation.Values) (*Outcome, error) {
	key := FormKey{Owner: sid, Form: validation.FormServiceRequest, Target: providerID}
	return s.runner.Submit(ctx, key, func() PipelineConfig {
		return PipelineConfig{
			Schema: validation.ServiceRequestSchema,
			Submit: func(ctx context.Context, values validation.Values) (any, error) {
				return s.Create(ctx, CreateRequestInput{
					ClientID:       client.ID,
					ProviderID:     providerID,
					IdempotencyKey: IdempotencyKeyFrom(ctx),
					Values:         values,
				})
			},
			SuccessRoute:   ChatRoute(providerID),
			SuccessMessage: "O prestador receberá sua solicitação em breve.",
		}
	}, values)
}

// Create persists a service request. A repeated idempotency key from the
// same client fails with domain.ErrDuplicateRequest.
func (s *RequestService) Create(ctx context.Context, in CreateRequestInput) (*domain.ServiceRequest, error) {
	desired, err := time.ParseInLocation(validation.DateTimeLayout, strings.TrimSpace(in.Values[validation.FieldDesiredTime]), time.UTC)
	if err != nil {
		return nil, &domain.RejectedError{Message: "Horário inválido"}
	}
	amount, ok := validation.ParseAmount(in.Values[validation.FieldProposedAmount])
	if !ok || amount <= 0 {
		return nil, &domain.RejectedError{Message: "Valor proposto deve ser maior que zero"}
	}

	var dedupKey string
	if s.dedup != nil && in.IdempotencyKey != "" {
		dedupKey = "request:" + in.ClientID + ":" + in.IdempotencyKey
		dup, err := s.dedup.Claim(ctx, dedupKey)
		if err != nil {
			s.log.Warn().Err(err).Str("client_id", in.ClientID).Msg("dedup check failed, processing anyway")
			dedupKey = ""
		} else if dup {
			return nil, fmt.Errorf("create request: %w", domain.ErrDuplicateRequest)
		}
	}

	req := &domain.ServiceRequest{
		ID:             uuid.NewString(),
		ClientID:       in.ClientID,
		ProviderID:     in.ProviderID,
		Description:    strings.TrimSpace(in.Values[validation.FieldDescription]),
		DesiredTime:    desired,
		ProposedAmount: amount,
		CreatedAt:      s.now().UTC(),
	}
	if err := s.repo.Create(ctx, req); err != nil {
		if dedupKey != "" {
			if relErr := s.dedup.Release(ctx, dedupKey); relErr != nil {
				s.log.Warn().Err(relErr).Str("client_id", in.ClientID).Msg("failed to release dedup key")
			}
		}
		return nil, fmt.Errorf("create request: %w", err)
	}

	s.log.Info().
		Str("request_id", req.ID).
		Str("client_id", req.ClientID).
		Str("provider_id", req.ProviderID).
		Msg("service request created")
	return req, nil
}

// ListByClient returns the requests of clientID, newest first.
func (s *RequestService) ListByClient(ctx context.Context, clientID string) ([]*domain.ServiceRequest, error) {
	out, err := s.repo.ListByClient(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}
	return out, nil
}
