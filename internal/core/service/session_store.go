package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/fazpramim/marketplace/internal/core/domain"
	"github.com/fazpramim/marketplace/internal/core/ports"
)

// SessionKey is the persistence key holding the identity of session sid.
func SessionKey(sid string) string {
	return "session:" + sid
}

// SessionStore holds the identity of one session and mirrors it to the
// key-value persistence surface. It is safe for concurrent use.
type SessionStore struct {
	kv        ports.KeyValueStore
	directory ports.AccountDirectory
	key       string
	log       zerolog.Logger

	// writeMu serializes Login, Logout and Restore so that the persisted
	// value and current never disagree.
	writeMu sync.Mutex

	mu          sync.Mutex
	current     *domain.Identity
	subscribers map[int]func(*domain.Identity)
	nextSubID   int
}

// NewSessionStore returns a store persisting its identity under key.
func NewSessionStore(kv ports.KeyValueStore, directory ports.AccountDirectory, key string, log zerolog.Logger) *SessionStore {
	return &SessionStore{
		kv:          kv,
		directory:   directory,
		key:         key,
		log:         log,
		subscribers: make(map[int]func(*domain.Identity)),
	}
}

// Login authenticates email/secret with the account directory and persists
// the resulting identity before returning it.
func (s *SessionStore) Login(ctx context.Context, email, secret string) (domain.Identity, error) {
	account, err := s.directory.Authenticate(ctx, domain.NormalizeEmail(email), secret)
	if err != nil {
		return domain.Identity{}, fmt.Errorf("login: %w", err)
	}

	identity := domain.NewIdentity(account.Email, account.Name, account.Role)
	payload, err := json.Marshal(identity)
	if err != nil {
		return domain.Identity{}, fmt.Errorf("login: encode identity: %w", err)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.kv.Set(ctx, s.key, string(payload)); err != nil {
		return domain.Identity{}, fmt.Errorf("login: persist identity: %w", err)
	}
	s.set(&identity)

	s.log.Info().Str("identity_id", identity.ID).Str("role", string(identity.Role)).Msg("session login")
	return identity, nil
}

// Logout clears the identity. The in-memory identity is dropped even when
// the persisted value cannot be removed; the error is still reported.
func (s *SessionStore) Logout(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.set(nil)
	if err := s.kv.Remove(ctx, s.key); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	s.log.Info().Str("key", s.key).Msg("session logout")
	return nil
}

// Restore reloads the persisted identity. A missing, unreadable or malformed
// value leaves the session logged out; malformed values are removed.
func (s *SessionStore) Restore(ctx context.Context) *domain.Identity {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	raw, ok, err := s.kv.Get(ctx, s.key)
	if err != nil {
		s.log.Warn().Err(err).Str("key", s.key).Msg("session restore failed")
		s.set(nil)
		return nil
	}
	if !ok {
		s.set(nil)
		return nil
	}

	var identity domain.Identity
	if err := json.Unmarshal([]byte(raw), &identity); err != nil || !identity.Valid() {
		s.log.Warn().Err(err).Str("key", s.key).Msg("discarding malformed session payload")
		if rmErr := s.kv.Remove(ctx, s.key); rmErr != nil {
			s.log.Warn().Err(rmErr).Str("key", s.key).Msg("remove malformed session payload")
		}
		s.set(nil)
		return nil
	}

	s.set(&identity)
	return s.Current()
}

// Current returns a copy of the active identity, or nil when logged out.
func (s *SessionStore) Current() *domain.Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil
	}
	id := *s.current
	return &id
}

// Subscribe registers fn to be called with the new identity (nil on logout)
// after every change. Restoring the identity already held is not a change. The returned func removes the subscription.
func (s *SessionStore) Subscribe(fn func(*domain.Identity)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subscribers, id)
		s.mu.Unlock()
	}
}

func (s *SessionStore) set(identity *domain.Identity) {
	s.mu.Lock()
	prev := s.current
	s.current = identity
	if sameIdentity(prev, identity) {
		s.mu.Unlock()
		return
	}
	subs := make([]func(*domain.Identity), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		if identity == nil {
			fn(nil)
			continue
		}
		cp := *identity
		fn(&cp)
	}
}

func sameIdentity(a, b *domain.Identity) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

const defaultSessionIdleTTL = 24 * time.Hour

// SessionRegistry hands out one SessionStore per session id and tells
// interested parties when a session logs out. Sessions unused for longer
// than the idle TTL are logged out and dropped.
type SessionRegistry struct {
	kv        ports.KeyValueStore
	directory ports.AccountDirectory
	log       zerolog.Logger
	idleTTL   time.Duration
	now       func() time.Time

	mu        sync.Mutex
	sessions  map[string]*registeredSession
	onLogout  []func(sid string)
	lastSweep time.Time
}

type registeredSession struct {
	store    *SessionStore
	restored sync.Once
	lastSeen time.Time
}

// NewSessionRegistry returns an empty registry.
func NewSessionRegistry(kv ports.KeyValueStore, directory ports.AccountDirectory, log zerolog.Logger) *SessionRegistry {
	return &SessionRegistry{
		kv:        kv,
		directory: directory,
		log:       log,
		idleTTL:   defaultSessionIdleTTL,
		now:       time.Now,
		sessions:  make(map[string]*registeredSession),
		lastSweep: time.Now(),
	}
}

// SetIdleTTL sets how long an unused session is kept. A session idle for
// longer than its token lifetime can no longer be presented, so the token
// TTL is the natural value. Must be called before the registry is used.
func (r *SessionRegistry) SetIdleTTL(d time.Duration) {
	if d > 0 {
		r.idleTTL = d
	}
}

// OnLogout registers fn to run whenever a session logs out. Must be called
// before the registry is used.
func (r *SessionRegistry) OnLogout(fn func(sid string)) {
	r.onLogout = append(r.onLogout, fn)
}

// Open returns the store of sid, restoring it from persistence the first
// time it is requested.
func (r *SessionRegistry) Open(ctx context.Context, sid string) *SessionStore {
	store, _ := r.open(ctx, sid)
	return store
}

// open returns the store of sid and whether it was just restored.
func (r *SessionRegistry) open(ctx context.Context, sid string) (*SessionStore, bool) {
	if r.now().Sub(r.lastSweepTime()) > r.idleTTL {
		r.Sweep(ctx)
	}

	r.mu.Lock()
	entry, ok := r.sessions[sid]
	if !ok {
		entry = &registeredSession{
			store: NewSessionStore(r.kv, r.directory, SessionKey(sid), r.log.With().Str("session_id", sid).Logger()),
		}
		r.sessions[sid] = entry
	}
	entry.lastSeen = r.now()
	r.mu.Unlock()

	fresh := false
	entry.restored.Do(func() {
		fresh = true
		entry.store.Restore(ctx)
		entry.store.Subscribe(func(identity *domain.Identity) {
			if identity != nil {
				return
			}
			r.Forget(sid)
			for _, fn := range r.onLogout {
				fn(sid)
			}
		})
	})
	return entry.store, fresh
}

// Identity returns the identity of sid, or nil when the session is logged
// out. The persisted value is re-read on every call, so a session whose key
// expired or was removed elsewhere is logged out here too. Logged-out
// sessions are not kept in memory.
func (r *SessionRegistry) Identity(ctx context.Context, sid string) *domain.Identity {
	store, fresh := r.open(ctx, sid)
	var identity *domain.Identity
	if fresh {
		identity = store.Current()
	} else {
		identity = store.Restore(ctx)
	}
	if identity == nil {
		r.Forget(sid)
	}
	return identity
}

// Logout logs sid out. It is idempotent.
func (r *SessionRegistry) Logout(ctx context.Context, sid string) error {
	err := r.Open(ctx, sid).Logout(ctx)
	r.Forget(sid)
	return err
}

// Sweep logs out the sessions unused for longer than the idle TTL and
// returns how many were dropped.
func (r *SessionRegistry) Sweep(ctx context.Context) int {
	now := r.now()

	r.mu.Lock()
	r.lastSweep = now
	var expired []*SessionStore
	for sid, entry := range r.sessions {
		if now.Sub(entry.lastSeen) > r.idleTTL {
			expired = append(expired, entry.store)
			delete(r.sessions, sid)
		}
	}
	r.mu.Unlock()

	for _, store := range expired {
		if err := store.Logout(ctx); err != nil {
			store.log.Warn().Err(err).Msg("idle session logout")
		}
	}
	return len(expired)
}

func (r *SessionRegistry) lastSweepTime() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastSweep
}

// Forget drops the in-memory store of sid without touching persistence.
func (r *SessionRegistry) Forget(sid string) {
	r.mu.Lock()
	delete(r.sessions, sid)
	r.mu.Unlock()
}

// Len reports how many sessions are held in memory.
func (r *SessionRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
