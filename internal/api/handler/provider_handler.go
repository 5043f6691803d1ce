package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/fazpramim/marketplace/internal/api/metrics"
	"github.com/fazpramim/marketplace/internal/core/domain"
)

// ProviderCatalog is the subset of service.SearchService used by handlers.
type ProviderCatalog interface {
	Search(query string) []domain.ProviderRecord
	Provider(id string) (domain.ProviderRecord, error)
	Details(id string) (domain.ProviderDetails, error)
}

type ProviderHandler struct {
	catalog ProviderCatalog
}

func NewProviderHandler(catalog ProviderCatalog) *ProviderHandler {
	return &ProviderHandler{catalog: catalog}
}

// Search lists the providers matching q by name, primary service or tag.
// A blank q lists the whole catalog.
//
// @Summary      Search providers
// @Tags         providers
// @Produce      json
// @Param        q    query     string  false  "Search term"
// @Success      200  {object}  searchResponse
// @Failure      422  {object}  errorResponse
// @Router       /v1/providers [get]
func (h *ProviderHandler) Search(c echo.Context) error {
	var q searchQuery
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, &q); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid query")
	}
	if err := c.Validate(&q); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	providers := h.catalog.Search(q.Q)
	switch {
	case strings.TrimSpace(q.Q) == "":
		metrics.SearchQueriesTotal.WithLabelValues("all").Inc()
	case len(providers) == 0:
		metrics.SearchQueriesTotal.WithLabelValues("empty").Inc()
	default:
		metrics.SearchQueriesTotal.WithLabelValues("hit").Inc()
	}

	return c.JSON(http.StatusOK, searchResponse{
		Query:     q.Q,
		Total:     len(providers),
		Providers: providers,
	})
}

// Details returns the full page of one provider.
//
// @Summary      Provider details
// @Tags         providers
// @Produce      json
// @Param        id   path      string  true  "Provider id"
// @Success      200  {object}  domain.ProviderDetails
// @Failure      404  {object}  errorResponse
// @Router       /v1/providers/{id} [get]
func (h *ProviderHandler) Details(c echo.Context) error {
	details, err := h.catalog.Details(c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, details)
}
