package handler

import (
	"errors"
	"time"

	"github.com/fazpramim/marketplace/internal/api/metrics"
	"github.com/fazpramim/marketplace/internal/core/domain"
)

// observeSubmission records the outcome of a form submission.
func observeSubmission(form string, started time.Time, err error) {
	metrics.ObserveForm(form, submissionOutcome(err), started)

	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		for field := range verr.Fields {
			metrics.ValidationFailuresTotal.WithLabelValues(form, field).Inc()
		}
	}
}

func submissionOutcome(err error) string {
	var (
		verr *domain.ValidationError
		rerr *domain.RejectedError
	)
	switch {
	case err == nil:
		return "success"
	case errors.As(err, &verr):
		return "invalid"
	case errors.Is(err, domain.ErrInvalidCredentials), errors.As(err, &rerr):
		return "rejected"
	case errors.Is(err, domain.ErrUserExists),
		errors.Is(err, domain.ErrDuplicateRequest),
		errors.Is(err, domain.ErrSubmissionInProgress):
		return "conflict"
	default:
		return "failed"
	}
}
