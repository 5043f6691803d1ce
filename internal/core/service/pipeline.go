package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/fazpramim/marketplace/internal/core/domain"
	"github.com/fazpramim/marketplace/internal/core/ports"
	"github.com/fazpramim/marketplace/internal/core/validation"
)

// User-facing failure messages.
const (
	MsgInvalidCredentials = "E-mail ou senha incorretos. Tente novamente."
	MsgEmailTaken         = "Este e-mail já está cadastrado. Tente fazer login ou use outro e-mail."
	MsgDuplicateRequest   = "Esta solicitação já foi enviada."
	MsgGeneric            = "Erro interno. Tente novamente em alguns minutos."
)

const defaultSubmitTimeout = 10 * time.Second

// State is the lifecycle position of a form submission.
type State int

const (
	StateIdle State = iota
	StateValidating
	StateInvalid
	StateSubmitting
	StateSucceeded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateValidating:
		return "validating"
	case StateInvalid:
		return "invalid"
	case StateSubmitting:
		return "submitting"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Submitter is the remote collaborator a form hands its validated values
// to. The result is passed back to the caller in Outcome.Result.
type Submitter func(ctx context.Context, values validation.Values) (any, error)

// PipelineConfig describes one form instance.
type PipelineConfig struct {
	Schema validation.Schema
	Submit Submitter

	// Navigator receives SuccessRoute once the submission succeeded, after
	// RedirectDelay. An empty SuccessRoute disables navigation.
	Navigator      ports.Navigator
	SuccessRoute   string
	SuccessMessage string
	RedirectDelay  time.Duration

	// Timeout bounds a single collaborator call.
	Timeout time.Duration
	Log     zerolog.Logger
}

// Outcome is the result of a successful submission.
type Outcome struct {
	Message       string
	Route         string
	RedirectAfter time.Duration
	Result        any
}

// FormSnapshot is a point-in-time copy of a pipeline's form state. Secret
// fields are left out of Values.
type FormSnapshot struct {
	Form    string            `json:"form"`
	State   string            `json:"state"`
	Values  validation.Values `json:"values"`
	Errors  validation.Errors `json:"errors"`
	Message string            `json:"message,omitempty"`
}

// Pipeline runs validate → submit → navigate for one form instance. At most
// one submission is in flight at a time.
type Pipeline struct {
	cfg PipelineConfig

	mu       sync.Mutex
	state    State
	values   validation.Values
	errors   validation.Errors
	message  string
	closed   bool
	redirect *time.Timer
	lastUsed time.Time
}

// NewPipeline returns an idle pipeline for cfg.
func NewPipeline(cfg PipelineConfig) *Pipeline {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultSubmitTimeout
	}
	return &Pipeline{
		cfg:      cfg,
		values:   validation.Values{},
		errors:   validation.Errors{},
		lastUsed: time.Now(),
	}
}

// Form returns the schema name of the pipeline.
func (p *Pipeline) Form() string {
	return p.cfg.Schema.Name
}

// SetField updates one value and re-validates that field only.
func (p *Pipeline) SetField(name, value string) (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.lastUsed = time.Now()
	p.values[name] = value
	msg, ok := validation.ValidateField(p.cfg.Schema, p.values, name)
	if ok {
		delete(p.errors, name)
	} else {
		p.errors[name] = msg
	}
	return msg, ok
}

// Submit validates values and, when they are valid, hands them to the
// collaborator. Values replace the current form values; nil keeps them.
//
// Errors are *domain.ValidationError when a field fails,
// domain.ErrSubmissionInProgress while another submission runs,
// domain.ErrFormClosed after Close, and *domain.SubmissionError when the
// collaborator fails.
func (p *Pipeline) Submit(ctx context.Context, values validation.Values) (*Outcome, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, domain.ErrFormClosed
	}
	if p.state == StateSubmitting {
		p.mu.Unlock()
		return nil, domain.ErrSubmissionInProgress
	}

	p.lastUsed = time.Now()
	if values != nil {
		p.values = values.Clone()
	}
	p.message = ""
	p.state = StateValidating
	errs := validation.Validate(p.cfg.Schema, p.values)
	p.errors = errs
	if len(errs) > 0 {
		p.state = StateInvalid
		p.mu.Unlock()
		return nil, &domain.ValidationError{Form: p.Form(), Fields: cloneErrors(errs)}
	}

	p.state = StateSubmitting
	snapshot := p.values.Clone()
	p.mu.Unlock()

	callCtx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	result, err := p.cfg.Submit(callCtx, snapshot)
	cancel()

	p.mu.Lock()
	p.lastUsed = time.Now()
	if err != nil {
		msg := failureMessage(err)
		p.state = StateFailed
		p.message = msg
		p.mu.Unlock()

		p.cfg.Log.Debug().Err(err).Str("form", p.Form()).Msg("form submission failed")
		return nil, &domain.SubmissionError{Form: p.Form(), Message: msg, Err: err}
	}

	p.state = StateSucceeded
	p.message = p.cfg.SuccessMessage
	p.values = validation.Values{}
	p.errors = validation.Errors{}
	out := &Outcome{
		Message:       p.cfg.SuccessMessage,
		Route:         p.cfg.SuccessRoute,
		RedirectAfter: p.cfg.RedirectDelay,
		Result:        result,
	}
	navigateNow := out.Route != "" && p.cfg.Navigator != nil && out.RedirectAfter <= 0
	if out.Route != "" && p.cfg.Navigator != nil && out.RedirectAfter > 0 {
		if p.redirect != nil {
			p.redirect.Stop()
		}
		p.redirect = time.AfterFunc(out.RedirectAfter, func() { p.navigate(out.Route) })
	}
	p.mu.Unlock()

	if navigateNow {
		p.cfg.Navigator.Navigate(out.Route)
	}
	return out, nil
}

func (p *Pipeline) navigate(route string) {
	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		return
	}
	p.cfg.Navigator.Navigate(route)
}

// State returns the current lifecycle state.
func (p *Pipeline) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Snapshot returns a copy of the form state.
func (p *Pipeline) Snapshot() FormSnapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return FormSnapshot{
		Form:    p.Form(),
		State:   p.state.String(),
		Values:  p.values.Redacted(),
		Errors:  cloneErrors(p.errors),
		Message: p.message,
	}
}

// Close discards the form state and cancels a pending redirect. A
// submission already in flight completes but navigates nowhere.
func (p *Pipeline) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	if p.redirect != nil {
		p.redirect.Stop()
		p.redirect = nil
	}
	p.values = validation.Values{}
	p.errors = validation.Errors{}
}

func (p *Pipeline) idleSince() (time.Time, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastUsed, p.state != StateSubmitting
}

func failureMessage(err error) string {
	var rejected *domain.RejectedError
	switch {
	case errors.Is(err, domain.ErrUserExists):
		return MsgEmailTaken
	case errors.Is(err, domain.ErrInvalidCredentials):
		return MsgInvalidCredentials
	case errors.Is(err, domain.ErrDuplicateRequest):
		return MsgDuplicateRequest
	case errors.As(err, &rejected):
		return rejected.Message
	default:
		return MsgGeneric
	}
}

func cloneErrors(errs validation.Errors) validation.Errors {
	out := make(validation.Errors, len(errs))
	for k, v := range errs {
		out[k] = v
	}
	return out
}
