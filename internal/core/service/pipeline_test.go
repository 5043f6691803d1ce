package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/fazpramim/marketplace/internal/core/domain"
	"github.com/fazpramim/marketplace/internal/core/validation"
)

func validLogin() validation.Values {
	return validation.Values{
		validation.FieldEmail:    "ana@email.com",
		validation.FieldPassword: "Abcdef12",
	}
}

func validRegistration() validation.Values {
	return validation.Values{
		validation.FieldFullName:        "Ana Costa",
		validation.FieldEmail:           "ana@email.com",
		validation.FieldPassword:        "Abcdef12",
		validation.FieldConfirmPassword: "Abcdef12",
		validation.FieldPhone:           "(21) 98888-7777",
		validation.FieldAddress:         "Rua das Laranjeiras, 45 - Rio de Janeiro",
		validation.FieldQualification:   "Diarista há 8 anos, referências disponíveis",
		validation.FieldDocument:        "rg.pdf",
	}
}

func newTestPipeline(schema validation.Schema, submit Submitter, nav *recordingNavigator) *Pipeline {
	return NewPipeline(PipelineConfig{
		Schema:       schema,
		Submit:       submit,
		Navigator:    nav,
		SuccessRoute: "/",
		Timeout:      time.Second,
		Log:          zerolog.Nop(),
	})
}

func TestPipeline_InvalidDoesNotCallCollaborator(t *testing.T) {
	var calls int32
	nav := &recordingNavigator{}
	p := newTestPipeline(validation.ProviderRegistrationSchema, func(context.Context, validation.Values) (any, error) {
		atomic.AddInt32(&calls, 1)
		return nil, nil
	}, nav)

	values := validRegistration()
	values[validation.FieldFullName] = "A"
	_, err := p.Submit(context.Background(), values)

	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(verr.Fields) != 1 || verr.Fields[validation.FieldFullName] != "Nome deve ter pelo menos 3 caracteres" {
		t.Fatalf("unexpected field errors: %v", verr.Fields)
	}
	if atomic.LoadInt32(&calls) != 0 {
		t.Fatalf("collaborator must not be called for invalid forms")
	}
	if p.State() != StateInvalid {
		t.Fatalf("expected invalid state, got %s", p.State())
	}
	if len(nav.visited()) != 0 {
		t.Fatalf("no navigation expected")
	}
}

func TestPipeline_SuccessClearsStateAndNavigates(t *testing.T) {
	nav := &recordingNavigator{}
	p := newTestPipeline(validation.LoginSchema, func(_ context.Context, v validation.Values) (any, error) {
		return v[validation.FieldEmail], nil
	}, nav)

	out, err := p.Submit(context.Background(), validLogin())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if out.Route != "/" || out.Result != "ana@email.com" {
		t.Fatalf("unexpected outcome: %+v", out)
	}
	if p.State() != StateSucceeded {
		t.Fatalf("expected succeeded, got %s", p.State())
	}
	if snap := p.Snapshot(); len(snap.Values) != 0 || len(snap.Errors) != 0 {
		t.Fatalf("form state should be cleared: %+v", snap)
	}
	if got := nav.visited(); len(got) != 1 || got[0] != "/" {
		t.Fatalf("unexpected navigation: %v", got)
	}
}

func TestPipeline_FailureKeepsValues(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"duplicate email", domain.ErrUserExists, MsgEmailTaken},
		{"bad credentials", domain.ErrInvalidCredentials, MsgInvalidCredentials},
		{"rejected", &domain.RejectedError{Message: "CPF inválido"}, "CPF inválido"},
		{"transient", errors.New("connection reset"), MsgGeneric},
		{"deadline", context.DeadlineExceeded, MsgGeneric},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nav := &recordingNavigator{}
			p := newTestPipeline(validation.LoginSchema, func(context.Context, validation.Values) (any, error) {
				return nil, tt.err
			}, nav)

			_, err := p.Submit(context.Background(), validLogin())

			var serr *domain.SubmissionError
			if !errors.As(err, &serr) {
				t.Fatalf("expected SubmissionError, got %v", err)
			}
			if serr.Message != tt.want {
				t.Fatalf("message = %q, want %q", serr.Message, tt.want)
			}
			if !errors.Is(err, tt.err) {
				t.Fatalf("collaborator error not wrapped: %v", err)
			}
			snap := p.Snapshot()
			if snap.State != StateFailed.String() || snap.Message != tt.want {
				t.Fatalf("unexpected snapshot: %+v", snap)
			}
			if snap.Values[validation.FieldEmail] != "ana@email.com" {
				t.Fatalf("values should be preserved: %+v", snap.Values)
			}
			if _, leaked := snap.Values[validation.FieldPassword]; leaked {
				t.Fatalf("password must not be part of the snapshot: %+v", snap.Values)
			}
			if len(nav.visited()) != 0 {
				t.Fatalf("no navigation expected on failure")
			}
		})
	}
}

func TestPipeline_RejectsReentrantSubmit(t *testing.T) {
	var calls int32
	started := make(chan struct{})
	release := make(chan struct{})
	p := newTestPipeline(validation.LoginSchema, func(context.Context, validation.Values) (any, error) {
		atomic.AddInt32(&calls, 1)
		close(started)
		<-release
		return nil, nil
	}, &recordingNavigator{})

	done := make(chan error, 1)
	go func() {
		_, err := p.Submit(context.Background(), validLogin())
		done <- err
	}()
	<-started

	if p.State() != StateSubmitting {
		t.Fatalf("expected submitting, got %s", p.State())
	}
	if _, err := p.Submit(context.Background(), validLogin()); !errors.Is(err, domain.ErrSubmissionInProgress) {
		t.Fatalf("expected ErrSubmissionInProgress, got %v", err)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first submit: %v", err)
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Fatalf("expected exactly one collaborator call, got %d", n)
	}
}

func TestPipeline_TimeoutBoundsCollaborator(t *testing.T) {
	p := NewPipeline(PipelineConfig{
		Schema: validation.LoginSchema,
		Submit: func(ctx context.Context, _ validation.Values) (any, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		},
		Timeout: 20 * time.Millisecond,
		Log:     zerolog.Nop(),
	})

	_, err := p.Submit(context.Background(), validLogin())
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}
}

func TestPipeline_DelayedRedirect(t *testing.T) {
	nav := &recordingNavigator{}
	p := NewPipeline(PipelineConfig{
		Schema:        validation.LoginSchema,
		Submit:        func(context.Context, validation.Values) (any, error) { return nil, nil },
		Navigator:     nav,
		SuccessRoute:  "/login",
		RedirectDelay: 20 * time.Millisecond,
		Log:           zerolog.Nop(),
	})

	out, err := p.Submit(context.Background(), validLogin())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if out.RedirectAfter != 20*time.Millisecond {
		t.Fatalf("unexpected redirect delay: %v", out.RedirectAfter)
	}
	if len(nav.visited()) != 0 {
		t.Fatalf("navigation should wait for the delay")
	}

	deadline := time.Now().Add(time.Second)
	for len(nav.visited()) == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if got := nav.visited(); len(got) != 1 || got[0] != "/login" {
		t.Fatalf("unexpected navigation: %v", got)
	}
}

func TestPipeline_CloseCancelsRedirect(t *testing.T) {
	nav := &recordingNavigator{}
	p := NewPipeline(PipelineConfig{
		Schema:        validation.LoginSchema,
		Submit:        func(context.Context, validation.Values) (any, error) { return nil, nil },
		Navigator:     nav,
		SuccessRoute:  "/login",
		RedirectDelay: 20 * time.Millisecond,
		Log:           zerolog.Nop(),
	})

	if _, err := p.Submit(context.Background(), validLogin()); err != nil {
		t.Fatalf("submit: %v", err)
	}
	p.Close()
	time.Sleep(60 * time.Millisecond)

	if got := nav.visited(); len(got) != 0 {
		t.Fatalf("closed form must not navigate, got %v", got)
	}
	if _, err := p.Submit(context.Background(), validLogin()); !errors.Is(err, domain.ErrFormClosed) {
		t.Fatalf("expected ErrFormClosed, got %v", err)
	}
}

func TestPipeline_SetField(t *testing.T) {
	p := newTestPipeline(validation.ClientRegistrationSchema, nil, &recordingNavigator{})

	if msg, ok := p.SetField(validation.FieldPhone, "123"); ok || msg != "Telefone inválido" {
		t.Fatalf("unexpected result: %q %v", msg, ok)
	}
	if _, ok := p.SetField(validation.FieldPhone, "(11) 99999-9999"); !ok {
		t.Fatalf("expected valid phone")
	}
	if _, exists := p.Snapshot().Errors[validation.FieldPhone]; exists {
		t.Fatalf("error should be cleared once the field is valid")
	}
}

func TestFormRegistry_SweepAndCloseOwner(t *testing.T) {
	reg := NewFormRegistry(time.Minute)
	now := time.Now()
	reg.now = func() time.Time { return now }

	build := func() *Pipeline { return newTestPipeline(validation.LoginSchema, nil, &recordingNavigator{}) }
	a := reg.Get(FormKey{Owner: "s1", Form: validation.FormLogin}, build)
	if got := reg.Get(FormKey{Owner: "s1", Form: validation.FormLogin}, build); got != a {
		t.Fatalf("expected the same pipeline for the same key")
	}
	reg.Get(FormKey{Owner: "s2", Form: validation.FormLogin}, build)

	reg.CloseOwner("s1")
	if reg.Len() != 1 {
		t.Fatalf("expected 1 form after CloseOwner, got %d", reg.Len())
	}

	now = now.Add(2 * time.Minute)
	if n := reg.Sweep(); n != 1 {
		t.Fatalf("expected 1 evicted form, got %d", n)
	}
	if reg.Len() != 0 {
		t.Fatalf("expected empty registry")
	}
}

func TestNavigationLog_Take(t *testing.T) {
	log := NewNavigationLog()
	log.For("s1").Navigate("/login")
	log.For("s1").Navigate("/")

	route, ok := log.Take("s1")
	if !ok || route != "/" {
		t.Fatalf("expected latest route, got %q %v", route, ok)
	}
	if _, ok := log.Take("s1"); ok {
		t.Fatalf("route should be consumed")
	}
}
