package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/fazpramim/marketplace/internal/core/domain"
	"github.com/fazpramim/marketplace/internal/core/service"
	"github.com/fazpramim/marketplace/internal/core/validation"
)

// ProfileService is the subset of service.ProfileService used by ProfileHandler.
type ProfileService interface {
	Get(identity domain.Identity) domain.ProviderProfile
	SubmitProfile(ctx context.Context, sid string, identity domain.Identity, values validation.Values) (*service.Outcome, error)
	SubmitService(ctx context.Context, sid string, identity domain.Identity, values validation.Values) (*service.Outcome, error)
	RemoveService(identity domain.Identity, serviceID string) error
}

type ProfileHandler struct {
	profiles ProfileService
}

func NewProfileHandler(profiles ProfileService) *ProfileHandler {
	return &ProfileHandler{profiles: profiles}
}

// Get returns the caller's provider profile.
//
// @Summary      My provider profile
// @Tags         profile
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.ProviderProfile
// @Failure      401  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Router       /v1/profile [get]
func (h *ProfileHandler) Get(c echo.Context) error {
	_, identity, err := ctxSession(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, h.profiles.Get(identity))
}

// Update submits the profile edit form.
//
// @Summary      Update my provider profile
// @Tags         profile
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      map[string]string  true  "nome, email, telefone, descricao, cidade, estado, disponibilidade"
// @Success      200   {object}  profileResponse
// @Failure      401   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /v1/profile [put]
func (h *ProfileHandler) Update(c echo.Context) error {
	sid, identity, err := ctxSession(c)
	if err != nil {
		return err
	}
	values, err := bindValues(c)
	if err != nil {
		return err
	}

	started := time.Now()
	out, err := h.profiles.SubmitProfile(c.Request().Context(), sid, identity, values)
	observeSubmission(validation.FormProfileEdit, started, err)
	if err != nil {
		return err
	}

	profile, ok := out.Result.(domain.ProviderProfile)
	if !ok {
		return fmt.Errorf("update profile: unexpected result %T", out.Result)
	}
	return c.JSON(http.StatusOK, profileResponse{formResponse: newFormResponse(out), Profile: profile})
}

// AddService submits the service offer form.
//
// @Summary      Add an offered service
// @Tags         profile
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      map[string]string  true  "nome, descricao, preco"
// @Success      201   {object}  serviceResponse
// @Failure      401   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /v1/profile/services [post]
func (h *ProfileHandler) AddService(c echo.Context) error {
	sid, identity, err := ctxSession(c)
	if err != nil {
		return err
	}
	values, err := bindValues(c)
	if err != nil {
		return err
	}

	started := time.Now()
	out, err := h.profiles.SubmitService(c.Request().Context(), sid, identity, values)
	observeSubmission(validation.FormServiceOffer, started, err)
	if err != nil {
		return err
	}

	svc, ok := out.Result.(domain.OfferedService)
	if !ok {
		return fmt.Errorf("add service: unexpected result %T", out.Result)
	}
	return c.JSON(http.StatusCreated, serviceResponse{formResponse: newFormResponse(out), Service: svc})
}

// RemoveService deletes an offered service.
//
// @Summary      Remove an offered service
// @Tags         profile
// @Security     BearerAuth
// @Param        id   path  string  true  "Service id"
// @Success      204
// @Failure      401  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /v1/profile/services/{id} [delete]
func (h *ProfileHandler) RemoveService(c echo.Context) error {
	_, identity, err := ctxSession(c)
	if err != nil {
		return err
	}
	if err := h.profiles.RemoveService(identity, c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
