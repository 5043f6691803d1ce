package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/fazpramim/marketplace/internal/core/domain"
)

const providerCollection = "providers"

// CatalogRepository implements ports.CatalogSource on the providers
// collection. Each document is a full provider page; rank keeps the catalog
// order.
type CatalogRepository struct {
	coll *mongo.Collection
}

func NewCatalogRepository(db *mongo.Database) *CatalogRepository {
	return &CatalogRepository{coll: db.Collection(providerCollection)}
}

type providerDoc struct {
	domain.ProviderDetails `bson:",inline"`
	Rank                   int  `bson:"rank"`
	Extended               bool `bson:"extended"`
}

func (r *CatalogRepository) LoadProviders(ctx context.Context) ([]domain.ProviderRecord, error) {
	docs, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.ProviderRecord, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.ProviderRecord)
	}
	return out, nil
}

func (r *CatalogRepository) LoadDetails(ctx context.Context) (map[string]domain.ProviderDetails, error) {
	docs, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]domain.ProviderDetails)
	for _, d := range docs {
		if d.Extended {
			out[d.ID] = d.ProviderDetails
		}
	}
	return out, nil
}

func (r *CatalogRepository) load(ctx context.Context) ([]providerDoc, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "rank", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find providers: %w", err)
	}
	defer cur.Close(ctx)

	var docs []providerDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode providers: %w", err)
	}
	return docs, nil
}

// SeedIfEmpty writes records, merged with their details, when the collection
// holds no provider yet. It reports whether anything was written.
func (r *CatalogRepository) SeedIfEmpty(ctx context.Context, records []domain.ProviderRecord, details map[string]domain.ProviderDetails) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	n, err := r.coll.EstimatedDocumentCount(ctx)
	if err != nil {
		return false, fmt.Errorf("count providers: %w", err)
	}
	if n > 0 || len(records) == 0 {
		return false, nil
	}

	docs := make([]interface{}, 0, len(records))
	for i, rec := range records {
		d, ok := details[rec.ID]
		if !ok {
			d = domain.DetailsFromRecord(rec)
		}
		d.ProviderRecord = rec
		docs = append(docs, providerDoc{ProviderDetails: d, Rank: i, Extended: ok})
	}
	if _, err := r.coll.InsertMany(ctx, docs); err != nil {
		return false, fmt.Errorf("seed providers: %w", err)
	}
	return true, nil
}

func (r *CatalogRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "rank", Value: 1}},
	})
	return err
}
