// Package catalog provides the provider catalog bundled with the binary.
package catalog

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/fazpramim/marketplace/internal/core/domain"
)

//go:embed providers.json
var seed []byte

type seedFile struct {
	Providers []domain.ProviderRecord          `json:"providers"`
	Details   map[string]domain.ProviderDetails `json:"details"`
}

// StaticSource implements ports.CatalogSource over a JSON document.
type StaticSource struct {
	data seedFile
}

// NewStaticSource parses the embedded seed.
func NewStaticSource() (*StaticSource, error) {
	return Parse(seed)
}

// Parse builds a source from raw JSON. Detail entries inherit the record
// fields of the provider with the same id.
func Parse(raw []byte) (*StaticSource, error) {
	var data seedFile
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	byID := make(map[string]domain.ProviderRecord, len(data.Providers))
	for _, r := range data.Providers {
		byID[r.ID] = r
	}
	for id, d := range data.Details {
		r, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("parse catalog: details for unknown provider %q", id)
		}
		d.ProviderRecord = r
		data.Details[id] = d
	}
	return &StaticSource{data: data}, nil
}

func (s *StaticSource) LoadProviders(context.Context) ([]domain.ProviderRecord, error) {
	return append([]domain.ProviderRecord(nil), s.data.Providers...), nil
}

func (s *StaticSource) LoadDetails(context.Context) (map[string]domain.ProviderDetails, error) {
	out := make(map[string]domain.ProviderDetails, len(s.data.Details))
	for id, d := range s.data.Details {
		out[id] = d
	}
	return out, nil
}
