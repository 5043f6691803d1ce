package service

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/fazpramim/marketplace/internal/core/domain"
	"github.com/fazpramim/marketplace/internal/core/validation"
)

// ProfileService keeps the editable provider profiles, keyed by identity id.
type ProfileService struct {
	runner *FormRunner
	newID  func() string

	mu       sync.Mutex
	profiles map[string]*domain.ProviderProfile
}

// NewProfileService returns an empty profile store.
func NewProfileService(runner *FormRunner) *ProfileService {
	return &ProfileService{
		runner:   runner,
		newID:    uuid.NewString,
		profiles: make(map[string]*domain.ProviderProfile),
	}
}

// SubmitProfile runs the profile_edit form of session sid. On success the
// outcome's Result is the updated domain.ProviderProfile.
func (s *ProfileService) SubmitProfile(ctx context.Context, sid string, identity domain.Identity, values validation.Values) (*Outcome, error) {
	key := FormKey{Owner: sid, Form: validation.FormProfileEdit}
	return s.runner.Submit(ctx, key, func() PipelineConfig {
		return PipelineConfig{
			Schema: validation.ProfileEditSchema,
			Submit: func(ctx context.Context, values validation.Values) (any, error) {
				return s.Update(ctx, identity, values)
			},
			SuccessMessage: "Suas informações foram atualizadas com sucesso.",
		}
	}, values)
}

// SubmitService runs the service_offer form of session sid. On success the
// outcome's Result is the new domain.OfferedService.
func (s *ProfileService) SubmitService(ctx context.Context, sid string, identity domain.Identity, values validation.Values) (*Outcome, error) {
	key := FormKey{Owner: sid, Form: validation.FormServiceOffer}
	return s.runner.Submit(ctx, key, func() PipelineConfig {
		return PipelineConfig{
			Schema: validation.ServiceOfferSchema,
			Submit: func(ctx context.Context, values validation.Values) (any, error) {
				return s.AddService(ctx, identity, values)
			},
			SuccessMessage: "O novo serviço foi adicionado ao seu perfil.",
		}
	}, values)
}

// Get returns the profile of identity, seeded from the identity itself the
// first time.
func (s *ProfileService) Get(identity domain.Identity) domain.ProviderProfile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneProfile(s.profileLocked(identity))
}

func (s *ProfileService) profileLocked(identity domain.Identity) *domain.ProviderProfile {
	if p, ok := s.profiles[identity.ID]; ok {
		return p
	}
	p := &domain.ProviderProfile{
		Name:     identity.DisplayName,
		Email:    identity.Email,
		Services: []domain.OfferedService{},
	}
	s.profiles[identity.ID] = p
	return p
}

// Update replaces the profile fields with a validated profile_edit form.
func (s *ProfileService) Update(_ context.Context, identity domain.Identity, values validation.Values) (domain.ProviderProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.profileLocked(identity)
	p.Name = strings.TrimSpace(values[validation.FieldName])
	p.Email = domain.NormalizeEmail(values[validation.FieldEmail])
	p.Phone = strings.TrimSpace(values[validation.FieldPhone])
	p.Description = strings.TrimSpace(values[validation.FieldDescription])
	p.City = strings.TrimSpace(values[validation.FieldCity])
	p.State = strings.ToUpper(strings.TrimSpace(values[validation.FieldState]))
	p.Availability = strings.TrimSpace(values[validation.FieldAvailability])
	return cloneProfile(p), nil
}

// AddService appends an offered service from a validated service_offer form.
func (s *ProfileService) AddService(_ context.Context, identity domain.Identity, values validation.Values) (domain.OfferedService, error) {
	svc := domain.OfferedService{
		ID:          s.newID(),
		Name:        strings.TrimSpace(values[validation.FieldName]),
		Description: strings.TrimSpace(values[validation.FieldDescription]),
		Price:       strings.TrimSpace(values[validation.FieldPrice]),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.profileLocked(identity)
	p.Services = append(p.Services, svc)
	return svc, nil
}

// RemoveService deletes the offered service serviceID.
func (s *ProfileService) RemoveService(identity domain.Identity, serviceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.profileLocked(identity)
	for i, svc := range p.Services {
		if svc.ID == serviceID {
			p.Services = append(p.Services[:i], p.Services[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("service %s: %w", serviceID, domain.ErrServiceNotFound)
}

func cloneProfile(p *domain.ProviderProfile) domain.ProviderProfile {
	out := *p
	out.Services = append([]domain.OfferedService{}, p.Services...)
	return out
}
