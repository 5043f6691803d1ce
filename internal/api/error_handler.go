package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/fazpramim/marketplace/internal/core/domain"
	"github.com/fazpramim/marketplace/internal/core/service"
)

// Fixed user-facing messages.
const (
	msgFixForm          = "Por favor, corrija os erros no formulário."
	msgInProgress       = "Sua solicitação já está sendo processada."
	msgProviderNotFound = "Prestador não encontrado"
	msgServiceNotFound  = "Serviço não encontrado"
	msgEmptyMessage     = "A mensagem não pode ficar em branco."
	msgInternal         = "Ocorreu um erro inesperado. Tente novamente."
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their appropriate HTTP status codes.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders a consistent JSON envelope: {"error": "<message>", "fields": {...}}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, resp := resolveError(err, log, c)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, resp)
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, errorResponse) {
	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, errorResponse{Error: fmt.Sprintf("%v", he.Message)}
	}

	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		return http.StatusUnprocessableEntity, errorResponse{Error: msgFixForm, Fields: verr.Fields}
	}

	var serr *domain.SubmissionError
	if errors.As(err, &serr) {
		return submissionStatus(serr.Err), errorResponse{Error: serr.Message}
	}

	var rerr *domain.RejectedError
	if errors.As(err, &rerr) {
		return http.StatusUnprocessableEntity, errorResponse{Error: rerr.Message}
	}

	// Known domain errors → deterministic HTTP codes.
	switch {
	case errors.Is(err, domain.ErrSubmissionInProgress), errors.Is(err, domain.ErrFormClosed):
		return http.StatusConflict, errorResponse{Error: msgInProgress}
	case errors.Is(err, domain.ErrDuplicateRequest):
		return http.StatusConflict, errorResponse{Error: service.MsgDuplicateRequest}
	case errors.Is(err, domain.ErrProviderNotFound):
		return http.StatusNotFound, errorResponse{Error: msgProviderNotFound}
	case errors.Is(err, domain.ErrServiceNotFound):
		return http.StatusNotFound, errorResponse{Error: msgServiceNotFound}
	case errors.Is(err, domain.ErrEmptyMessage):
		return http.StatusUnprocessableEntity, errorResponse{Error: msgEmptyMessage}
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, errorResponse{Error: "access forbidden"}
	case errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusUnauthorized, errorResponse{Error: "session expired"}
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, errorResponse{Error: "invalid credentials"}
	case errors.Is(err, domain.ErrUserExists):
		return http.StatusConflict, errorResponse{Error: "user already exists"}
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, errorResponse{Error: msgInternal}
}

// submissionStatus maps the collaborator error behind a failed submission.
func submissionStatus(err error) int {
	var rerr *domain.RejectedError
	switch {
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrUserExists), errors.Is(err, domain.ErrDuplicateRequest):
		return http.StatusConflict
	case errors.As(err, &rerr):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusServiceUnavailable
	}
}
