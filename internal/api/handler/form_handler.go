package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/fazpramim/marketplace/internal/core/service"
	"github.com/fazpramim/marketplace/internal/core/validation"
)

// NavigationSource hands out the pending route of a form owner.
type NavigationSource interface {
	Take(owner string) (string, bool)
}

// FormStates looks up the state of a live form instance.
type FormStates interface {
	Snapshot(key service.FormKey) (service.FormSnapshot, bool)
}

// FormHandler exposes live validation and the navigation of form owners.
type FormHandler struct {
	nav    NavigationSource
	states FormStates
}

func NewFormHandler(nav NavigationSource, states FormStates) *FormHandler {
	return &FormHandler{nav: nav, states: states}
}

// Validate checks values against a form without submitting it. With the
// field query parameter only that field is checked.
//
// @Summary      Validate a form
// @Tags         forms
// @Accept       json
// @Produce      json
// @Param        form   path      string             true   "Form name"
// @Param        field  query     string             false  "Single field to check"
// @Param        body   body      map[string]string  true   "Form values"
// @Success      200    {object}  validateResponse
// @Failure      404    {object}  errorResponse
// @Router       /v1/forms/{form}/validate [post]
func (h *FormHandler) Validate(c echo.Context) error {
	schema, ok := validation.Lookup(c.Param("form"))
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "formulário desconhecido")
	}
	values, err := bindValues(c)
	if err != nil {
		return err
	}

	var resp validateResponse
	if field := strings.TrimSpace(c.QueryParam("field")); field != "" {
		resp.Errors = validation.Errors{}
		if msg, ok := validation.ValidateField(schema, values, field); !ok {
			resp.Errors[field] = msg
		}
	} else {
		resp.Errors = validation.Validate(schema, values)
	}
	resp.Valid = len(resp.Errors) == 0

	if pw, ok := values[validation.FieldPassword]; ok && schema.Name != validation.FormLogin {
		strength := validation.PasswordStrength(pw)
		resp.Strength = &strength
	}
	return c.JSON(http.StatusOK, resp)
}

// State returns the live state of an anonymous visitor's form.
//
// @Summary      Form state
// @Tags         forms
// @Produce      json
// @Param        form             path      string  true  "Form name"
// @Param        X-Form-Instance  header    string  true  "Form instance of the visitor"
// @Success      200              {object}  service.FormSnapshot
// @Failure      404              {object}  errorResponse
// @Router       /v1/forms/{form}/state [get]
func (h *FormHandler) State(c echo.Context) error {
	instance := strings.TrimSpace(c.Request().Header.Get(HeaderFormInstance))
	snap, ok := h.states.Snapshot(service.FormKey{Owner: instance, Form: c.Param("form")})
	if instance == "" || !ok {
		return echo.NewHTTPError(http.StatusNotFound, "formulário não encontrado")
	}
	return c.JSON(http.StatusOK, snap)
}

// FormNavigation returns the route an anonymous visitor's form navigated to,
// once. It answers 204 when nothing is pending.
//
// @Summary      Pending navigation of a visitor
// @Tags         forms
// @Produce      json
// @Param        X-Form-Instance  header  string  true  "Form instance of the visitor"
// @Success      200  {object}  navigationResponse
// @Success      204
// @Router       /v1/forms/navigation [get]
func (h *FormHandler) FormNavigation(c echo.Context) error {
	instance := strings.TrimSpace(c.Request().Header.Get(HeaderFormInstance))
	if instance == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing "+HeaderFormInstance+" header")
	}
	return h.take(c, instance)
}

// SessionNavigation returns the route a form of the caller's session
// navigated to, once.
//
// @Summary      Pending navigation of a session
// @Tags         forms
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  navigationResponse
// @Success      204
// @Failure      401  {object}  errorResponse
// @Router       /v1/session/navigation [get]
func (h *FormHandler) SessionNavigation(c echo.Context) error {
	sid, _, err := ctxSession(c)
	if err != nil {
		return err
	}
	return h.take(c, sid)
}

func (h *FormHandler) take(c echo.Context, owner string) error {
	route, ok := h.nav.Take(owner)
	if !ok {
		return c.NoContent(http.StatusNoContent)
	}
	return c.JSON(http.StatusOK, navigationResponse{Redirect: route})
}
