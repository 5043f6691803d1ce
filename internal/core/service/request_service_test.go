package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/fazpramim/marketplace/internal/core/domain"
	"github.com/fazpramim/marketplace/internal/core/validation"
)

func validRequest() validation.Values {
	return validation.Values{
		validation.FieldDescription:    "Trocar a fiação da cozinha",
		validation.FieldDesiredTime:    "2024-03-10T14:30",
		validation.FieldProposedAmount: "150,50",
	}
}

func TestRequestService_Create(t *testing.T) {
	repo := &stubRequestRepo{}
	svc := NewRequestService(repo, nil, newTestRunner(), zerolog.Nop())

	req, err := svc.Create(context.Background(), CreateRequestInput{ClientID: "c1", ProviderID: "1", Values: validRequest()})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if req.ID == "" || req.ProposedAmount != 150.5 {
		t.Fatalf("unexpected request: %+v", req)
	}
	want := time.Date(2024, 3, 10, 14, 30, 0, 0, time.UTC)
	if !req.DesiredTime.Equal(want) {
		t.Fatalf("desired time = %v, want %v", req.DesiredTime, want)
	}
	if len(repo.requests) != 1 {
		t.Fatalf("expected request to be persisted")
	}
}

func TestRequestService_IdempotencyKey(t *testing.T) {
	repo := &stubRequestRepo{}
	dedup := newStubDedup()
	svc := NewRequestService(repo, dedup, newTestRunner(), zerolog.Nop())
	in := CreateRequestInput{ClientID: "c1", ProviderID: "1", IdempotencyKey: "k1", Values: validRequest()}

	if _, err := svc.Create(context.Background(), in); err != nil {
		t.Fatalf("first create: %v", err)
	}
	if _, err := svc.Create(context.Background(), in); !errors.Is(err, domain.ErrDuplicateRequest) {
		t.Fatalf("expected ErrDuplicateRequest, got %v", err)
	}

	in.ClientID = "c2"
	if _, err := svc.Create(context.Background(), in); err != nil {
		t.Fatalf("same key from another client should pass: %v", err)
	}
	if len(repo.requests) != 2 {
		t.Fatalf("expected 2 persisted requests, got %d", len(repo.requests))
	}
}

func TestRequestService_ReleasesKeyOnFailure(t *testing.T) {
	repo := &stubRequestRepo{err: errors.New("mongo down")}
	dedup := newStubDedup()
	svc := NewRequestService(repo, dedup, newTestRunner(), zerolog.Nop())

	_, err := svc.Create(context.Background(), CreateRequestInput{ClientID: "c1", ProviderID: "1", IdempotencyKey: "k1", Values: validRequest()})
	if err == nil {
		t.Fatalf("expected repository error")
	}
	if len(dedup.released) != 1 || dedup.released[0] != "request:c1:k1" {
		t.Fatalf("expected key to be released, got %v", dedup.released)
	}
}

func TestRequestService_DedupErrorDoesNotBlock(t *testing.T) {
	repo := &stubRequestRepo{}
	dedup := newStubDedup()
	dedup.err = errors.New("redis down")
	svc := NewRequestService(repo, dedup, newTestRunner(), zerolog.Nop())

	if _, err := svc.Create(context.Background(), CreateRequestInput{ClientID: "c1", ProviderID: "1", IdempotencyKey: "k1", Values: validRequest()}); err != nil {
		t.Fatalf("create should proceed when dedup fails: %v", err)
	}
}

func TestRequestService_SubmitNavigatesToChat(t *testing.T) {
	repo := &stubRequestRepo{}
	runner := newTestRunner()
	svc := NewRequestService(repo, newStubDedup(), runner, zerolog.Nop())
	client := domain.NewIdentity("ana@email.com", "Ana", domain.RoleClient)

	ctx := WithIdempotencyKey(context.Background(), "k1")
	out, err := svc.Submit(ctx, "s1", client, "3", validRequest())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if out.Route != "/chat/3" {
		t.Fatalf("unexpected route: %q", out.Route)
	}
	req, ok := out.Result.(*domain.ServiceRequest)
	if !ok || req.ClientID != client.ID || req.ProviderID != "3" {
		t.Fatalf("unexpected result: %#v", out.Result)
	}
	if route, ok := runner.Navigation().Take("s1"); !ok || route != "/chat/3" {
		t.Fatalf("expected pending navigation to chat, got %q", route)
	}

	_, err = svc.Submit(ctx, "s1", client, "3", validRequest())
	var serr *domain.SubmissionError
	if !errors.As(err, &serr) || serr.Message != MsgDuplicateRequest {
		t.Fatalf("expected duplicate submission error, got %v", err)
	}
}

func TestRequestService_SubmitValidates(t *testing.T) {
	repo := &stubRequestRepo{}
	svc := NewRequestService(repo, nil, newTestRunner(), zerolog.Nop())

	values := validRequest()
	values[validation.FieldDescription] = "  "
	_, err := svc.Submit(context.Background(), "s1", domain.NewIdentity("ana@email.com", "", domain.RoleClient), "1", values)

	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(repo.requests) != 0 {
		t.Fatalf("nothing should be persisted")
	}
}
