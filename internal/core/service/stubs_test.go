package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/fazpramim/marketplace/internal/core/domain"
	"github.com/fazpramim/marketplace/internal/core/ports"
)

var errStoreDown = errors.New("store down")

type stubKV struct {
	mu      sync.Mutex
	data    map[string]string
	sets    int
	failGet bool
	failSet bool
	failRm  bool
}

func newStubKV() *stubKV {
	return &stubKV{data: make(map[string]string)}
}

func (s *stubKV) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failGet {
		return "", false, errStoreDown
	}
	v, ok := s.data[key]
	return v, ok, nil
}

func (s *stubKV) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failSet {
		return errStoreDown
	}
	s.sets++
	s.data[key] = value
	return nil
}

func (s *stubKV) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failRm {
		return errStoreDown
	}
	delete(s.data, key)
	return nil
}

func (s *stubKV) value(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	return v, ok
}

// stubDirectory accepts any email whose secret is "Abcdef12".
type stubDirectory struct {
	mu          sync.Mutex
	calls       int
	registerErr error
	registered  []domain.Registration
}

func (d *stubDirectory) Authenticate(_ context.Context, email, secret string) (*domain.Account, error) {
	d.mu.Lock()
	d.calls++
	d.mu.Unlock()
	if secret != "Abcdef12" {
		return nil, domain.ErrInvalidCredentials
	}
	return &domain.Account{Email: email, Name: "Ana Costa", Role: domain.RoleClient}, nil
}

func (d *stubDirectory) Register(_ context.Context, reg domain.Registration) (*domain.Account, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls++
	if d.registerErr != nil {
		return nil, d.registerErr
	}
	d.registered = append(d.registered, reg)
	return &domain.Account{ID: "acc-1", Email: reg.Email, Name: reg.Name, Role: reg.Role}, nil
}

type recordingNavigator struct {
	mu     sync.Mutex
	routes []string
}

func (n *recordingNavigator) Navigate(route string) {
	n.mu.Lock()
	n.routes = append(n.routes, route)
	n.mu.Unlock()
}

func (n *recordingNavigator) visited() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.routes...)
}

type stubRequestRepo struct {
	mu       sync.Mutex
	requests []*domain.ServiceRequest
	err      error
}

func (r *stubRequestRepo) Create(_ context.Context, req *domain.ServiceRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	cp := *req
	r.requests = append(r.requests, &cp)
	return nil
}

func (r *stubRequestRepo) ListByClient(_ context.Context, clientID string) ([]*domain.ServiceRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.ServiceRequest
	for i := len(r.requests) - 1; i >= 0; i-- {
		if r.requests[i].ClientID == clientID {
			out = append(out, r.requests[i])
		}
	}
	return out, nil
}

type stubDedup struct {
	mu       sync.Mutex
	keys     map[string]bool
	released []string
	err      error
}

func newStubDedup() *stubDedup {
	return &stubDedup{keys: make(map[string]bool)}
}

func (d *stubDedup) Claim(_ context.Context, key string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return false, d.err
	}
	if d.keys[key] {
		return true, nil
	}
	d.keys[key] = true
	return false, nil
}

func (d *stubDedup) Release(_ context.Context, key string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.keys, key)
	d.released = append(d.released, key)
	return nil
}

type stubScheduler struct {
	mu    sync.Mutex
	tasks []ports.ReplyTask
	full  bool
}

func (s *stubScheduler) Schedule(task ports.ReplyTask) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.full {
		return false
	}
	s.tasks = append(s.tasks, task)
	return true
}

func newTestRunner() *FormRunner {
	return NewFormRunner(NewFormRegistry(time.Hour), NewNavigationLog(), time.Second, zerolog.Nop())
}
