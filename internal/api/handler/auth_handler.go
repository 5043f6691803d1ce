package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/fazpramim/marketplace/internal/api/metrics"
	"github.com/fazpramim/marketplace/internal/core/domain"
	"github.com/fazpramim/marketplace/internal/core/service"
	"github.com/fazpramim/marketplace/internal/core/validation"
)

// Upload limits of the provider registration form.
const (
	maxDocumentSize      = 5 << 20
	maxCertificationSize = 10 << 20

	fieldCertifications = "certificacoes"
)

// AuthService is the subset of service.AuthService used by AuthHandler.
type AuthService interface {
	Login(ctx context.Context, instance string, values validation.Values) (*service.Outcome, error)
	Logout(ctx context.Context, sid string) error
	RegisterClient(ctx context.Context, instance string, values validation.Values) (*service.Outcome, error)
	RegisterProvider(ctx context.Context, instance string, values validation.Values) (*service.Outcome, error)
}

type AuthHandler struct {
	authService AuthService
}

func NewAuthHandler(authService AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Login authenticates a visitor and opens a session.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        X-Form-Instance  header    string             false  "Form instance of the visitor"
// @Param        body             body      map[string]string  true   "email, senha"
// @Success      200              {object}  loginResponse
// @Failure      401              {object}  errorResponse
// @Failure      409              {object}  errorResponse
// @Failure      422              {object}  errorResponse
// @Failure      503              {object}  errorResponse
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	values, err := bindValues(c)
	if err != nil {
		return err
	}

	started := time.Now()
	out, err := h.authService.Login(c.Request().Context(), formInstance(c), values)
	observeSubmission(validation.FormLogin, started, err)
	if err != nil {
		metrics.SessionEventsTotal.WithLabelValues("login_failed").Inc()
		return err
	}
	metrics.SessionEventsTotal.WithLabelValues("login").Inc()

	res, ok := out.Result.(*service.LoginResult)
	if !ok {
		return fmt.Errorf("login: unexpected result %T", out.Result)
	}
	return c.JSON(http.StatusOK, loginResponse{
		formResponse: newFormResponse(out),
		Token:        res.Token,
		ExpiresAt:    res.ExpiresAt,
		User:         res.Identity,
	})
}

// Logout ends the caller's session. Later requests with the same token are
// rejected.
//
// @Summary      Logout
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  navigationResponse
// @Failure      401  {object}  errorResponse
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	sid, _, err := ctxSession(c)
	if err != nil {
		return err
	}
	if err := h.authService.Logout(c.Request().Context(), sid); err != nil {
		return err
	}
	metrics.SessionEventsTotal.WithLabelValues("logout").Inc()
	return c.JSON(http.StatusOK, navigationResponse{Redirect: service.RouteLogin})
}

// Me returns the identity of the caller's session.
//
// @Summary      Current identity
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.Identity
// @Failure      401  {object}  errorResponse
// @Router       /auth/me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	_, identity, err := ctxSession(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, identity)
}

// RegisterClient creates a client account.
//
// @Summary      Register a client
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        X-Form-Instance  header    string             false  "Form instance of the visitor"
// @Param        body             body      map[string]string  true   "nomeCompleto, email, telefone, senha, confirmarSenha"
// @Success      201              {object}  registrationResponse
// @Failure      409              {object}  errorResponse
// @Failure      422              {object}  errorResponse
// @Failure      503              {object}  errorResponse
// @Router       /auth/register/client [post]
func (h *AuthHandler) RegisterClient(c echo.Context) error {
	values, err := bindValues(c)
	if err != nil {
		return err
	}
	return h.register(c, validation.FormClientRegistration, values, h.authService.RegisterClient)
}

// RegisterProvider creates a provider account. The identity document and
// the optional certifications are uploaded as multipart files.
//
// @Summary      Register a provider
// @Tags         auth
// @Accept       multipart/form-data
// @Produce      json
// @Param        X-Form-Instance      header    string  false  "Form instance of the visitor"
// @Param        nomeCompleto         formData  string  true   "Full name"
// @Param        email                formData  string  true   "E-mail"
// @Param        telefone             formData  string  true   "Phone"
// @Param        endereco             formData  string  true   "Address"
// @Param        qualificacaoTecnica  formData  string  true   "Technical qualification"
// @Param        senha                formData  string  true   "Password"
// @Param        confirmarSenha       formData  string  true   "Password confirmation"
// @Param        documento            formData  file    true   "Identity document (max 5MB)"
// @Param        certificacoes        formData  file    false  "Certifications (max 10MB each)"
// @Success      201                  {object}  registrationResponse
// @Failure      409                  {object}  errorResponse
// @Failure      422                  {object}  errorResponse
// @Failure      503                  {object}  errorResponse
// @Router       /auth/register/provider [post]
func (h *AuthHandler) RegisterProvider(c echo.Context) error {
	values, err := bindValues(c)
	if err != nil {
		return err
	}
	delete(values, validation.FieldDocument)
	if fields := attachUploads(c, values); len(fields) > 0 {
		err := &domain.ValidationError{Form: validation.FormProviderRegistration, Fields: fields}
		observeSubmission(validation.FormProviderRegistration, time.Now(), err)
		return err
	}
	return h.register(c, validation.FormProviderRegistration, values, h.authService.RegisterProvider)
}

type registerFunc func(ctx context.Context, instance string, values validation.Values) (*service.Outcome, error)

func (h *AuthHandler) register(c echo.Context, form string, values validation.Values, submit registerFunc) error {
	started := time.Now()
	out, err := submit(c.Request().Context(), formInstance(c), values)
	observeSubmission(form, started, err)
	if err != nil {
		return err
	}

	account, _ := out.Result.(*domain.Account)
	return c.JSON(http.StatusCreated, registrationResponse{
		formResponse: newFormResponse(out),
		Account:      account,
	})
}

// attachUploads checks the uploaded files against their size limits and
// records the document's file name in values. Only an uploaded file sets the
// document; a text field of the same name is dropped by the caller. A missing document is left to
// the form's required rule.
func attachUploads(c echo.Context, values validation.Values) map[string]string {
	form, err := c.MultipartForm()
	if err != nil {
		return nil
	}

	fields := map[string]string{}
	if docs := form.File[validation.FieldDocument]; len(docs) > 0 {
		if docs[0].Size > maxDocumentSize {
			fields[validation.FieldDocument] = "O arquivo deve ter no máximo 5MB"
		} else {
			values[validation.FieldDocument] = docs[0].Filename
		}
	}
	for _, cert := range form.File[fieldCertifications] {
		if cert.Size > maxCertificationSize {
			fields[fieldCertifications] = "O arquivo deve ter no máximo 10MB"
			break
		}
	}
	return fields
}
