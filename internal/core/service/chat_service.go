package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/fazpramim/marketplace/internal/core/domain"
	"github.com/fazpramim/marketplace/internal/core/ports"
)

// Canned provider messages.
const (
	ProviderGreeting = "Olá! Recebi sua solicitação de serviço. Vou analisar os detalhes e já retorno."
	ProviderReply    = "Entendido! Vou verificar isso para você."
)

const defaultReplyDelay = 2 * time.Second

// ThreadKey identifies the chat thread of a session with a provider.
func ThreadKey(sid, providerID string) string {
	return sid + ":" + providerID
}

// ChatService keeps the in-memory chat threads and schedules the provider's
// replies. It implements ports.ReplyProcessor.
type ChatService struct {
	scheduler ports.ReplyScheduler
	delay     time.Duration
	now       func() time.Time
	log       zerolog.Logger
	observers []func(domain.ChatMessage)

	mu      sync.Mutex
	threads map[string]*domain.ChatThread
}

// NewChatService returns a ChatService. A nil scheduler disables replies.
func NewChatService(scheduler ports.ReplyScheduler, delay time.Duration, log zerolog.Logger) *ChatService {
	if delay <= 0 {
		delay = defaultReplyDelay
	}
	return &ChatService{
		scheduler: scheduler,
		delay:     delay,
		now:       time.Now,
		log:       log,
		threads:   make(map[string]*domain.ChatThread),
	}
}

// SetScheduler wires the reply scheduler. The dispatcher and the service
// depend on each other, so one of them has to be set after construction.
func (s *ChatService) SetScheduler(scheduler ports.ReplyScheduler) {
	s.mu.Lock()
	s.scheduler = scheduler
	s.mu.Unlock()
}

// OnMessage registers fn to run for every message sent by a client and
// every reply delivered by a provider. Must be called before the service is
// used.
func (s *ChatService) OnMessage(fn func(domain.ChatMessage)) {
	s.observers = append(s.observers, fn)
}

func (s *ChatService) notify(msg domain.ChatMessage) {
	for _, fn := range s.observers {
		fn(msg)
	}
}

// Open returns the thread of sid with providerID, starting it with the
// provider's greeting when it does not exist yet.
func (s *ChatService) Open(sid, providerID string) domain.ChatThread {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneThread(s.openLocked(sid, providerID))
}

func (s *ChatService) openLocked(sid, providerID string) *domain.ChatThread {
	key := ThreadKey(sid, providerID)
	if t, ok := s.threads[key]; ok {
		return t
	}
	t := &domain.ChatThread{SessionID: sid, ProviderID: providerID}
	appendMessage(t, domain.RoleProvider, ProviderGreeting, s.now())
	s.threads[key] = t
	return t
}

// Send appends the client's message and schedules the provider's reply.
func (s *ChatService) Send(ctx context.Context, sid, providerID, text string) (domain.ChatMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return domain.ChatMessage{}, domain.ErrEmptyMessage
	}

	now := s.now()
	s.mu.Lock()
	t := s.openLocked(sid, providerID)
	msg := appendMessage(t, domain.RoleClient, text, now)
	scheduler := s.scheduler
	s.mu.Unlock()
	s.notify(msg)

	if scheduler == nil {
		return msg, nil
	}
	task := ports.ReplyTask{ThreadKey: ThreadKey(sid, providerID), Due: now.Add(s.delay)}
	if !scheduler.Schedule(task) {
		s.log.Warn().Str("thread", task.ThreadKey).Msg("reply queue full, reply dropped")
	}
	return msg, nil
}

// DeliverReply appends the provider's reply to the task's thread. Replies
// for threads closed in the meantime are dropped.
func (s *ChatService) DeliverReply(_ context.Context, task ports.ReplyTask) error {
	s.mu.Lock()
	t, ok := s.threads[task.ThreadKey]
	if !ok {
		s.mu.Unlock()
		s.log.Debug().Str("thread", task.ThreadKey).Msg("reply for closed thread dropped")
		return nil
	}
	msg := appendMessage(t, domain.RoleProvider, ProviderReply, s.now())
	s.mu.Unlock()

	s.notify(msg)
	return nil
}

// Thread returns a copy of the thread of sid with providerID.
func (s *ChatService) Thread(sid, providerID string) (domain.ChatThread, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.threads[ThreadKey(sid, providerID)]
	if !ok {
		return domain.ChatThread{}, false
	}
	return cloneThread(t), true
}

// CloseSession drops every thread of sid.
func (s *ChatService) CloseSession(sid string) {
	prefix := sid + ":"
	s.mu.Lock()
	defer s.mu.Unlock()
	for key := range s.threads {
		if strings.HasPrefix(key, prefix) {
			delete(s.threads, key)
		}
	}
}

func appendMessage(t *domain.ChatThread, sender domain.Role, text string, ts time.Time) domain.ChatMessage {
	msg := domain.ChatMessage{
		ID:        len(t.Messages) + 1,
		Sender:    sender,
		Text:      text,
		Timestamp: ts,
	}
	t.Messages = append(t.Messages, msg)
	return msg
}

func cloneThread(t *domain.ChatThread) domain.ChatThread {
	out := *t
	out.Messages = append([]domain.ChatMessage(nil), t.Messages...)
	return out
}
