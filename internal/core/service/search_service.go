package service

import (
	"context"
	"fmt"
	"iter"
	"strings"

	"github.com/rs/zerolog"

	"github.com/fazpramim/marketplace/internal/core/domain"
	"github.com/fazpramim/marketplace/internal/core/ports"
)

// MatchProviders yields the records of catalog matching query, in catalog
// order. The sequence can be ranged over any number of times.
//
// A blank query matches every record. Otherwise a record matches when the
// lower-cased query is a substring of its name, its primary service or any
// of its tags.
func MatchProviders(catalog []domain.ProviderRecord, query string) iter.Seq[domain.ProviderRecord] {
	q := strings.ToLower(strings.TrimSpace(query))
	return func(yield func(domain.ProviderRecord) bool) {
		for _, r := range catalog {
			if q != "" && !recordMatches(r, q) {
				continue
			}
			if !yield(r) {
				return
			}
		}
	}
}

// FilterProviders returns the records of catalog matching query. A blank
// query returns catalog itself.
func FilterProviders(catalog []domain.ProviderRecord, query string) []domain.ProviderRecord {
	if strings.TrimSpace(query) == "" {
		return catalog
	}
	out := make([]domain.ProviderRecord, 0, len(catalog))
	for r := range MatchProviders(catalog, query) {
		out = append(out, r)
	}
	return out
}

func recordMatches(r domain.ProviderRecord, q string) bool {
	if strings.Contains(strings.ToLower(r.Name), q) ||
		strings.Contains(strings.ToLower(r.PrimaryService), q) {
		return true
	}
	for _, tag := range r.Tags {
		if strings.Contains(strings.ToLower(tag), q) {
			return true
		}
	}
	return false
}

// SearchService serves the provider catalog loaded at startup.
type SearchService struct {
	records []domain.ProviderRecord
	details map[string]domain.ProviderDetails
	index   map[string]int
}

// NewSearchService loads the catalog from source.
func NewSearchService(ctx context.Context, source ports.CatalogSource, log zerolog.Logger) (*SearchService, error) {
	records, err := source.LoadProviders(ctx)
	if err != nil {
		return nil, fmt.Errorf("load providers: %w", err)
	}
	details, err := source.LoadDetails(ctx)
	if err != nil {
		return nil, fmt.Errorf("load provider details: %w", err)
	}

	index := make(map[string]int, len(records))
	for i, r := range records {
		if _, dup := index[r.ID]; dup {
			return nil, fmt.Errorf("load providers: duplicate provider id %q", r.ID)
		}
		index[r.ID] = i
	}
	if details == nil {
		details = map[string]domain.ProviderDetails{}
	}

	log.Info().Int("providers", len(records)).Int("details", len(details)).Msg("provider catalog loaded")
	return &SearchService{records: records, details: details, index: index}, nil
}

// Catalog returns every provider in catalog order.
func (s *SearchService) Catalog() []domain.ProviderRecord {
	return s.records
}

// Search returns the providers matching query.
func (s *SearchService) Search(query string) []domain.ProviderRecord {
	return FilterProviders(s.records, query)
}

// Provider returns the catalog record of id.
func (s *SearchService) Provider(id string) (domain.ProviderRecord, error) {
	i, ok := s.index[id]
	if !ok {
		return domain.ProviderRecord{}, fmt.Errorf("provider %s: %w", id, domain.ErrProviderNotFound)
	}
	return s.records[i], nil
}

// Details returns the provider page of id.
func (s *SearchService) Details(id string) (domain.ProviderDetails, error) {
	r, err := s.Provider(id)
	if err != nil {
		return domain.ProviderDetails{}, err
	}
	if d, ok := s.details[id]; ok {
		d.ProviderRecord = r
		return d, nil
	}
	return domain.DetailsFromRecord(r), nil
}
