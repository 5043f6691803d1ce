package ports

import (
	"context"

	"github.com/fazpramim/marketplace/internal/core/domain"
)

// RequestRepository defines persistence operations for service requests.
type RequestRepository interface {
	Create(ctx context.Context, r *domain.ServiceRequest) error
	// ListByClient returns the client's requests, newest first.
	ListByClient(ctx context.Context, clientID string) ([]*domain.ServiceRequest, error)
}

// DedupChecker abstracts the idempotency store (Redis).
type DedupChecker interface {
	// Claim records key and reports whether it was already present.
	Claim(ctx context.Context, key string) (duplicate bool, err error)
	// Release forgets key so that a failed request can be retried.
	Release(ctx context.Context, key string) error
}
