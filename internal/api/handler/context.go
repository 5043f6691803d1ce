package handler

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/fazpramim/marketplace/internal/api/middleware"
	"github.com/fazpramim/marketplace/internal/core/domain"
	"github.com/fazpramim/marketplace/internal/core/validation"
)

// HeaderFormInstance names the form instance of an anonymous visitor.
const HeaderFormInstance = "X-Form-Instance"

// HeaderIdempotencyKey deduplicates service requests.
const HeaderIdempotencyKey = "Idempotency-Key"

// ctxSession extracts the session injected by the Auth middleware and
// performs a fast-fail check before any service call.
func ctxSession(c echo.Context) (string, domain.Identity, error) {
	sid, _ := c.Get(middleware.CtxSessionID).(string)
	identity, _ := c.Get(middleware.CtxIdentity).(*domain.Identity)
	if sid == "" || !identity.Valid() {
		return "", domain.Identity{}, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return sid, *identity, nil
}

// formInstance returns the visitor's form instance, minting one when the
// request carries none. The instance is echoed back in the response header
// so the visitor can keep using it.
func formInstance(c echo.Context) string {
	instance := strings.TrimSpace(c.Request().Header.Get(HeaderFormInstance))
	if instance == "" {
		instance = uuid.NewString()
	}
	c.Response().Header().Set(HeaderFormInstance, instance)
	return instance
}

// bindValues reads the form values from a JSON object or a url-encoded or
// multipart body. Path and query parameters are never mixed in.
func bindValues(c echo.Context) (validation.Values, error) {
	values := validation.Values{}
	if err := (&echo.DefaultBinder{}).BindBody(c, &values); err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	return values, nil
}
