package handler

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/fazpramim/marketplace/internal/core/domain"
	"github.com/fazpramim/marketplace/internal/core/service"
	"github.com/fazpramim/marketplace/internal/core/validation"
)

// RequestService is the subset of service.RequestService used by RequestHandler.
type RequestService interface {
	Submit(ctx context.Context, sid string, client domain.Identity, providerID string, values validation.Values) (*service.Outcome, error)
	ListByClient(ctx context.Context, clientID string) ([]*domain.ServiceRequest, error)
}

type RequestHandler struct {
	requests RequestService
	catalog  ProviderCatalog
}

func NewRequestHandler(requests RequestService, catalog ProviderCatalog) *RequestHandler {
	return &RequestHandler{requests: requests, catalog: catalog}
}

// Create submits a service request to a provider. A repeated
// Idempotency-Key from the same client is rejected within one hour.
//
// @Summary      Request a service
// @Tags         requests
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id               path      string             true   "Provider id"
// @Param        Idempotency-Key  header    string             false  "Deduplication key"
// @Param        body             body      map[string]string  true   "descricao, horario, valorProposto"
// @Success      201              {object}  requestResponse
// @Failure      401              {object}  errorResponse
// @Failure      403              {object}  errorResponse
// @Failure      404              {object}  errorResponse
// @Failure      409              {object}  errorResponse
// @Failure      422              {object}  errorResponse
// @Router       /v1/providers/{id}/requests [post]
func (h *RequestHandler) Create(c echo.Context) error {
	sid, client, err := ctxSession(c)
	if err != nil {
		return err
	}
	provider, err := h.catalog.Provider(c.Param("id"))
	if err != nil {
		return err
	}
	values, err := bindValues(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	if key := strings.TrimSpace(c.Request().Header.Get(HeaderIdempotencyKey)); key != "" {
		ctx = service.WithIdempotencyKey(ctx, key)
	}

	started := time.Now()
	out, err := h.requests.Submit(ctx, sid, client, provider.ID, values)
	observeSubmission(validation.FormServiceRequest, started, err)
	if err != nil {
		return err
	}

	req, ok := out.Result.(*domain.ServiceRequest)
	if !ok {
		return fmt.Errorf("create request: unexpected result %T", out.Result)
	}
	return c.JSON(http.StatusCreated, requestResponse{
		formResponse: newFormResponse(out),
		Request:      req,
	})
}

// List returns the caller's service requests, newest first.
//
// @Summary      List my service requests
// @Tags         requests
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  requestListResponse
// @Failure      401  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Router       /v1/requests [get]
func (h *RequestHandler) List(c echo.Context) error {
	_, client, err := ctxSession(c)
	if err != nil {
		return err
	}
	requests, err := h.requests.ListByClient(c.Request().Context(), client.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, requestListResponse{Requests: requests})
}
