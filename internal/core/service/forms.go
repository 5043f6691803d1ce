package service

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/fazpramim/marketplace/internal/core/ports"
	"github.com/fazpramim/marketplace/internal/core/validation"
)

const defaultFormIdleTTL = 30 * time.Minute

// FormKey identifies a form instance. Owner is the session id for
// authenticated forms or the client-supplied instance id otherwise; Target
// distinguishes forms about different resources (e.g. a provider id).
type FormKey struct {
	Owner  string
	Form   string
	Target string
}

// FormRegistry keeps the live form pipelines and evicts the idle ones.
type FormRegistry struct {
	idleTTL time.Duration
	now     func() time.Time

	mu        sync.Mutex
	forms     map[FormKey]*Pipeline
	lastSweep time.Time
}

// NewFormRegistry returns a registry evicting forms unused for idleTTL.
func NewFormRegistry(idleTTL time.Duration) *FormRegistry {
	if idleTTL <= 0 {
		idleTTL = defaultFormIdleTTL
	}
	return &FormRegistry{
		idleTTL:   idleTTL,
		now:       time.Now,
		forms:     make(map[FormKey]*Pipeline),
		lastSweep: time.Now(),
	}
}

// Get returns the pipeline for key, creating it with build when absent.
func (r *FormRegistry) Get(key FormKey, build func() *Pipeline) *Pipeline {
	if r.now().Sub(r.lastSweepTime()) > r.idleTTL {
		r.Sweep()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.forms[key]; ok {
		return p
	}
	p := build()
	r.forms[key] = p
	return p
}

// Lookup returns the pipeline for key without creating it.
func (r *FormRegistry) Lookup(key FormKey) (*Pipeline, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.forms[key]
	return p, ok
}

// Remove closes and forgets the pipeline for key.
func (r *FormRegistry) Remove(key FormKey) {
	r.mu.Lock()
	p, ok := r.forms[key]
	delete(r.forms, key)
	r.mu.Unlock()
	if ok {
		p.Close()
	}
}

// CloseOwner closes every form of owner.
func (r *FormRegistry) CloseOwner(owner string) {
	r.mu.Lock()
	var closing []*Pipeline
	for key, p := range r.forms {
		if key.Owner == owner {
			closing = append(closing, p)
			delete(r.forms, key)
		}
	}
	r.mu.Unlock()

	for _, p := range closing {
		p.Close()
	}
}

// Sweep closes forms idle for longer than the idle TTL and returns how many
// were evicted. Forms with a submission in flight are kept.
func (r *FormRegistry) Sweep() int {
	now := r.now()

	r.mu.Lock()
	r.lastSweep = now
	var closing []*Pipeline
	for key, p := range r.forms {
		since, idle := p.idleSince()
		if idle && now.Sub(since) > r.idleTTL {
			closing = append(closing, p)
			delete(r.forms, key)
		}
	}
	r.mu.Unlock()

	for _, p := range closing {
		p.Close()
	}
	return len(closing)
}

// Len reports the number of live forms.
func (r *FormRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.forms)
}

func (r *FormRegistry) lastSweepTime() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastSweep
}

// NavigationLog is the server-side navigation collaborator: it keeps the
// latest pending route per owner until the client picks it up.
type NavigationLog struct {
	mu      sync.Mutex
	pending map[string]string
}

// NewNavigationLog returns an empty log.
func NewNavigationLog() *NavigationLog {
	return &NavigationLog{pending: make(map[string]string)}
}

type ownerNavigator struct {
	log   *NavigationLog
	owner string
}

func (n ownerNavigator) Navigate(route string) {
	n.log.mu.Lock()
	n.log.pending[n.owner] = route
	n.log.mu.Unlock()
}

// For returns the navigator recording routes for owner.
func (l *NavigationLog) For(owner string) ports.Navigator {
	return ownerNavigator{log: l, owner: owner}
}

// Take returns and clears the pending route of owner.
func (l *NavigationLog) Take(owner string) (string, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	route, ok := l.pending[owner]
	delete(l.pending, owner)
	return route, ok
}

// Forget drops the pending route of owner.
func (l *NavigationLog) Forget(owner string) {
	l.mu.Lock()
	delete(l.pending, owner)
	l.mu.Unlock()
}

// FormRunner submits forms through the pipeline registered for their key,
// wiring the shared navigation log and submit timeout into new pipelines.
type FormRunner struct {
	forms   *FormRegistry
	nav     *NavigationLog
	timeout time.Duration
	log     zerolog.Logger
}

// NewFormRunner returns a FormRunner.
func NewFormRunner(forms *FormRegistry, nav *NavigationLog, timeout time.Duration, log zerolog.Logger) *FormRunner {
	return &FormRunner{forms: forms, nav: nav, timeout: timeout, log: log}
}

// Submit runs values through the pipeline of key. build is called only
// when the pipeline does not exist yet, so the Submitter it returns must not
// capture per-request data; pass such data through ctx instead.
func (r *FormRunner) Submit(ctx context.Context, key FormKey, build func() PipelineConfig, values validation.Values) (*Outcome, error) {
	p := r.forms.Get(key, func() *Pipeline {
		cfg := build()
		cfg.Navigator = r.nav.For(key.Owner)
		cfg.Timeout = r.timeout
		cfg.Log = r.log.With().Str("form", cfg.Schema.Name).Str("owner", key.Owner).Logger()
		return NewPipeline(cfg)
	})
	return p.Submit(ctx, values)
}

// Snapshot returns the state of the form of key, if it exists.
func (r *FormRunner) Snapshot(key FormKey) (FormSnapshot, bool) {
	p, ok := r.forms.Lookup(key)
	if !ok {
		return FormSnapshot{}, false
	}
	return p.Snapshot(), true
}

// Navigation returns the log the runner's pipelines navigate through.
func (r *FormRunner) Navigation() *NavigationLog {
	return r.nav
}

// CloseOwner closes every form of owner and drops its pending navigation.
func (r *FormRunner) CloseOwner(owner string) {
	r.forms.CloseOwner(owner)
	r.nav.Forget(owner)
}

type idempotencyKeyCtx struct{}

// WithIdempotencyKey attaches the client's Idempotency-Key to ctx.
func WithIdempotencyKey(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, idempotencyKeyCtx{}, key)
}

// IdempotencyKeyFrom returns the key attached by WithIdempotencyKey.
func IdempotencyKeyFrom(ctx context.Context) string {
	key, _ := ctx.Value(idempotencyKeyCtx{}).(string)
	return key
}
