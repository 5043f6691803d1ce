package domain

import (
	"errors"
	"sort"
	"strings"
)

var (
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrUserExists           = errors.New("user already exists")
	ErrUserNotFound         = errors.New("user not found")
	ErrTransientFailure     = errors.New("transient failure")
	ErrSessionNotFound      = errors.New("session not found")
	ErrSubmissionInProgress = errors.New("submission already in progress")
	ErrFormClosed           = errors.New("form instance closed")
	ErrProviderNotFound     = errors.New("provider not found")
	ErrServiceNotFound      = errors.New("offered service not found")
	ErrDuplicateRequest     = errors.New("duplicate service request")
	ErrEmptyMessage         = errors.New("message text is empty")
	ErrThreadClosed         = errors.New("chat thread closed")
	ErrForbidden            = errors.New("access forbidden")
)

// ValidationError carries the per-field messages of a rejected form. Only
// failing fields are present.
type ValidationError struct {
	Form   string
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+": "+e.Fields[name])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// RejectedError is returned by a remote collaborator that refused a payload
// it considers invalid. Message is safe to show to the user.
type RejectedError struct {
	Message string
}

func (e *RejectedError) Error() string {
	return "rejected: " + e.Message
}

// SubmissionError is the pipeline-level failure of a form submission. Message
// is the single user-facing message; Err is the collaborator error.
type SubmissionError struct {
	Form    string
	Message string
	Err     error
}

func (e *SubmissionError) Error() string {
	return e.Form + ": " + e.Message + ": " + e.Err.Error()
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}
