package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/fazpramim/marketplace/internal/core/domain"
)

// RequestRepository keeps service requests in memory.
type RequestRepository struct {
	mu       sync.RWMutex
	requests []domain.ServiceRequest
}

func NewRequestRepository() *RequestRepository {
	return &RequestRepository{}
}

func (r *RequestRepository) Create(_ context.Context, req *domain.ServiceRequest) error {
	r.mu.Lock()
	r.requests = append(r.requests, *req)
	r.mu.Unlock()
	return nil
}

func (r *RequestRepository) ListByClient(_ context.Context, clientID string) ([]*domain.ServiceRequest, error) {
	r.mu.RLock()
	out := []*domain.ServiceRequest{}
	for i := range r.requests {
		if r.requests[i].ClientID == clientID {
			req := r.requests[i]
			out = append(out, &req)
		}
	}
	r.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}
