package catalog

import (
	"context"
	"fmt"

	"github.com/neeprokriti/catalog-server/pkg/repository/document"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Store is the data access contract the Service depends on.
type Store interface {
	FindProducts(ctx context.Context, filter bson.M, opts document.FindOptions) ([]Document, error)
	CountProducts(ctx context.Context, filter bson.M) (int64, error)
	AggregateCategories(ctx context.Context, pipeline mongo.Pipeline) ([]CategorySummary, error)
}

// MongoRepository reads products from one MongoDB collection.
type MongoRepository struct {
	reader     document.Reader
	collection string
}

// NewMongoRepository creates a repository over the named collection.
func NewMongoRepository(reader document.Reader, collection string) (*MongoRepository, error) {
	if reader == nil {
		return nil, fmt.Errorf("document reader is required")
	}
	if collection == "" {
		return nil, fmt.Errorf("collection name is required")
	}
	return &MongoRepository{reader: reader, collection: collection}, nil
}

// FindProducts returns matching documents without reshaping them.
func (r *MongoRepository) FindProducts(ctx context.Context, filter bson.M, opts document.FindOptions) ([]Document, error) {
	products := make([]Document, 0)
	if err := r.reader.Find(ctx, r.collection, document.Filter(filter), opts, &products); err != nil {
		return nil, fmt.Errorf("find products: %w", err)
	}
	return products, nil
}

func (r *MongoRepository) CountProducts(ctx context.Context, filter bson.M) (int64, error) {
	n, err := r.reader.Count(ctx, r.collection, document.Filter(filter))
	if err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	return n, nil
}

func (r *MongoRepository) AggregateCategories(ctx context.Context, pipeline mongo.Pipeline) ([]CategorySummary, error) {
	summaries := make([]CategorySummary, 0)
	if err := r.reader.Aggregate(ctx, r.collection, pipeline, &summaries); err != nil {
		return nil, fmt.Errorf("aggregate categories: %w", err)
	}
	return summaries, nil
}
