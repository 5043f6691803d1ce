package handler

import (
	"time"

	"github.com/fazpramim/marketplace/internal/core/domain"
	"github.com/fazpramim/marketplace/internal/core/service"
	"github.com/fazpramim/marketplace/internal/core/validation"
)

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// formResponse is the envelope of a successful form submission.
type formResponse struct {
	Message         string `json:"message,omitempty"`
	Redirect        string `json:"redirect,omitempty"`
	RedirectAfterMs int64  `json:"redirect_after_ms,omitempty"`
}

func newFormResponse(out *service.Outcome) formResponse {
	return formResponse{
		Message:         out.Message,
		Redirect:        out.Route,
		RedirectAfterMs: out.RedirectAfter.Milliseconds(),
	}
}

type loginResponse struct {
	formResponse
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expires_at"`
	User      domain.Identity `json:"user"`
}

type registrationResponse struct {
	formResponse
	Account *domain.Account `json:"account,omitempty"`
}

type validateResponse struct {
	Valid    bool                 `json:"valid"`
	Errors   validation.Errors    `json:"errors"`
	Strength *validation.Strength `json:"strength,omitempty"`
}

type navigationResponse struct {
	Redirect string `json:"redirect"`
}

type searchQuery struct {
	Q string `query:"q" validate:"max=100"`
}

type searchResponse struct {
	Query     string                  `json:"query"`
	Total     int                     `json:"total"`
	Providers []domain.ProviderRecord `json:"providers"`
}

type requestResponse struct {
	formResponse
	Request *domain.ServiceRequest `json:"request"`
}

type requestListResponse struct {
	Requests []*domain.ServiceRequest `json:"requests"`
}

type sendMessageRequest struct {
	Text string `json:"text" validate:"max=2000"`
}

type profileResponse struct {
	formResponse
	Profile domain.ProviderProfile `json:"profile"`
}

type serviceResponse struct {
	formResponse
	Service domain.OfferedService `json:"service"`
}
