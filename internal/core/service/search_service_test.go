package service

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/rs/zerolog"

	"github.com/fazpramim/marketplace/internal/core/domain"
)

func testCatalog() []domain.ProviderRecord {
	return []domain.ProviderRecord{
		{ID: "1", Name: "Carlos Silva", PrimaryService: "Eletricista Residencial", Tags: []string{"Instalação Elétrica", "Manutenção", "Reparo"}, Available: true},
		{ID: "2", Name: "Ana Costa", PrimaryService: "Limpeza Doméstica", Tags: []string{"Limpeza Residencial", "Organização", "Passadoria"}, Available: true},
		{ID: "3", Name: "Pedro Oliveira", PrimaryService: "Encanador", Tags: []string{"Instalação Hidráulica", "Desentupimento", "Vazamentos"}},
		{ID: "4", Name: "Mariana Santos", PrimaryService: "Personal Trainer", Tags: []string{"Treino Funcional", "Musculação", "Pilates"}, Available: true},
		{ID: "5", Name: "Roberto Ferreira", PrimaryService: "Pintor Residencial", Tags: []string{"Pintura Interna", "Pintura Externa", "Textura"}, Available: true},
	}
}

func ids(records []domain.ProviderRecord) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.ID)
	}
	return out
}

func TestFilterProviders_BlankQueryIsIdentity(t *testing.T) {
	catalog := testCatalog()
	for _, q := range []string{"", "   ", "\t"} {
		got := FilterProviders(catalog, q)
		if !reflect.DeepEqual(got, catalog) {
			t.Fatalf("query %q: expected the catalog unchanged, got %v", q, ids(got))
		}
	}
}

func TestFilterProviders_CaseInsensitive(t *testing.T) {
	catalog := testCatalog()
	upper := FilterProviders(catalog, "ELETRICISTA")
	lower := FilterProviders(catalog, "eletricista")

	if !reflect.DeepEqual(upper, lower) {
		t.Fatalf("case changed the result: %v vs %v", ids(upper), ids(lower))
	}
	if !reflect.DeepEqual(ids(lower), []string{"1"}) {
		t.Fatalf("unexpected matches: %v", ids(lower))
	}
}

func TestFilterProviders_MatchesNameServiceOrTag(t *testing.T) {
	catalog := testCatalog()
	tests := []struct {
		query string
		want  []string
	}{
		{"ana", []string{"2", "3", "4"}}, // "Encanador" matches too
		{"residencial", []string{"1", "2", "5"}},
		{"pilates", []string{"4"}},
		{"instalação", []string{"1", "3"}},
		{"  encanador ", []string{"3"}},
		{"jardinagem", []string{}},
	}

	for _, tt := range tests {
		got := ids(FilterProviders(catalog, tt.query))
		if !reflect.DeepEqual(got, tt.want) {
			t.Fatalf("query %q: got %v, want %v", tt.query, got, tt.want)
		}
	}
}

func TestMatchProviders_Restartable(t *testing.T) {
	seq := MatchProviders(testCatalog(), "pintura")

	var first, second []string
	for r := range seq {
		first = append(first, r.ID)
	}
	for r := range seq {
		second = append(second, r.ID)
	}
	if !reflect.DeepEqual(first, []string{"5"}) || !reflect.DeepEqual(first, second) {
		t.Fatalf("unexpected iterations: %v %v", first, second)
	}
}

func TestMatchProviders_StopsEarly(t *testing.T) {
	n := 0
	for range MatchProviders(testCatalog(), "") {
		n++
		if n == 2 {
			break
		}
	}
	if n != 2 {
		t.Fatalf("expected to stop after 2, got %d", n)
	}
}

type stubCatalog struct {
	records []domain.ProviderRecord
	details map[string]domain.ProviderDetails
	err     error
}

func (c stubCatalog) LoadProviders(context.Context) ([]domain.ProviderRecord, error) {
	return c.records, c.err
}

func (c stubCatalog) LoadDetails(context.Context) (map[string]domain.ProviderDetails, error) {
	return c.details, nil
}

func TestSearchService_Details(t *testing.T) {
	catalog := testCatalog()
	svc, err := NewSearchService(context.Background(), stubCatalog{
		records: catalog,
		details: map[string]domain.ProviderDetails{
			"1": {Phone: "(11) 99999-9999", Services: []domain.OfferedService{{Name: "Reparo de Emergência", Price: "R$ 150/hora"}}},
		},
	}, zerolog.Nop())
	if err != nil {
		t.Fatalf("new search service: %v", err)
	}

	d, err := svc.Details("1")
	if err != nil {
		t.Fatalf("details: %v", err)
	}
	if d.Name != "Carlos Silva" || d.Phone != "(11) 99999-9999" || len(d.Services) != 1 {
		t.Fatalf("unexpected details: %+v", d)
	}

	d, err = svc.Details("3")
	if err != nil {
		t.Fatalf("details: %v", err)
	}
	if len(d.Services) != 3 || d.Services[0].Price != "A combinar" {
		t.Fatalf("expected services built from tags, got %+v", d.Services)
	}

	if _, err := svc.Details("99"); !errors.Is(err, domain.ErrProviderNotFound) {
		t.Fatalf("expected ErrProviderNotFound, got %v", err)
	}
}

func TestSearchService_RejectsDuplicateIDs(t *testing.T) {
	catalog := append(testCatalog(), domain.ProviderRecord{ID: "1", Name: "Outro"})
	if _, err := NewSearchService(context.Background(), stubCatalog{records: catalog}, zerolog.Nop()); err == nil {
		t.Fatalf("expected duplicate id error")
	}
}

func TestSearchService_LoadError(t *testing.T) {
	boom := errors.New("boom")
	if _, err := NewSearchService(context.Background(), stubCatalog{err: boom}, zerolog.Nop()); !errors.Is(err, boom) {
		t.Fatalf("expected load error, got %v", err)
	}
}
