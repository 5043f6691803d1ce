package ports

import (
	"context"

	"github.com/fazpramim/marketplace/internal/core/domain"
)

// CatalogSource loads the provider catalog. It is read once at startup.
type CatalogSource interface {
	// LoadProviders returns the catalog in display order.
	LoadProviders(ctx context.Context) ([]domain.ProviderRecord, error)
	// LoadDetails returns the extended provider pages keyed by provider id.
	// Providers without an entry get a page built from their record.
	LoadDetails(ctx context.Context) (map[string]domain.ProviderDetails, error)
}
