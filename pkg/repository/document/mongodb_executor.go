package document

import (
	"context"
	"fmt"
	"reflect"
	"time"

	"github.com/neeprokriti/catalog-server/pkg/observability/metrics"
	"github.com/neeprokriti/catalog-server/pkg/observability/tracing"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore is the subset of the MongoDB adapter the executor drives.
type MongoStore interface {
	Find(ctx context.Context, collection string, filter interface{}, results interface{}, opts ...*options.FindOptions) error
	CountDocuments(ctx context.Context, collection string, filter interface{}) (int64, error)
	Aggregate(ctx context.Context, collection string, pipeline interface{}, results interface{}) error
}

// MongoDBExecutor implements Reader on top of the MongoDB adapter, wrapping every call
// in a database span and recording store metrics.
type MongoDBExecutor struct {
	store    MongoStore
	database string
	metrics  *metrics.StoreMetrics
}

// ExecutorOption customizes a MongoDBExecutor.
type ExecutorOption func(*MongoDBExecutor)

// WithMetrics records operation latency and result sizes into m.
func WithMetrics(m *metrics.StoreMetrics) ExecutorOption {
	return func(e *MongoDBExecutor) { e.metrics = m }
}

// WithDatabaseName tags spans with the database name.
func WithDatabaseName(name string) ExecutorOption {
	return func(e *MongoDBExecutor) { e.database = name }
}

// NewMongoDBExecutor creates a new MongoDBExecutor instance.
func NewMongoDBExecutor(store MongoStore, opts ...ExecutorOption) (*MongoDBExecutor, error) {
	if isNil(store) {
		return nil, fmt.Errorf("mongodb adapter is required")
	}
	e := &MongoDBExecutor{store: store}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Find runs a find with skip, limit and sort applied.
func (e *MongoDBExecutor) Find(ctx context.Context, collection string, filter Filter, opts FindOptions, out interface{}) (err error) {
	ctx, done := e.begin(ctx, tracing.DBOperationFind, collection, filter)
	defer func() { done(err, out) }()

	return e.store.Find(ctx, collection, toBSON(filter), out, toFindOptions(opts))
}

// Count returns the number of documents matching filter.
func (e *MongoDBExecutor) Count(ctx context.Context, collection string, filter Filter) (n int64, err error) {
	ctx, done := e.begin(ctx, tracing.DBOperationCount, collection, filter)
	defer func() { done(err, nil) }()

	return e.store.CountDocuments(ctx, collection, toBSON(filter))
}

// Aggregate runs pipeline and decodes its output into out.
func (e *MongoDBExecutor) Aggregate(ctx context.Context, collection string, pipeline interface{}, out interface{}) (err error) {
	ctx, done := e.begin(ctx, tracing.DBOperationAggregate, collection, pipeline)
	defer func() { done(err, out) }()

	return e.store.Aggregate(ctx, collection, pipeline, out)
}

func (e *MongoDBExecutor) begin(ctx context.Context, op tracing.DBOperation, collection string, statement interface{}) (context.Context, func(error, interface{})) {
	spanOpts := []tracing.DatabaseSpanOption{
		tracing.WithDBSystem("mongodb"),
		tracing.WithDBCollection(collection),
		tracing.WithDBStatement(renderStatement(statement)),
	}
	if e.database != "" {
		spanOpts = append(spanOpts, tracing.WithDBName(e.database))
	}
	ctx, span := tracing.StartDatabaseSpan(ctx, op, spanOpts...)
	start := time.Now()

	return ctx, func(err error, out interface{}) {
		e.metrics.ObserveOperation(string(op), collection, err, time.Since(start))
		if err == nil && out != nil {
			e.metrics.ObserveResults(string(op), collection, sliceLen(out))
		}
		tracing.End(span, err)
	}
}

func isNil(store MongoStore) bool {
	if store == nil {
		return true
	}
	v := reflect.ValueOf(store)
	return v.Kind() == reflect.Pointer && v.IsNil()
}

func toBSON(filter Filter) bson.M {
	if filter == nil {
		return bson.M{}
	}
	return bson.M(filter)
}

func toFindOptions(opts FindOptions) *options.FindOptions {
	findOpts := options.Find()
	if opts.Skip != 0 {
		findOpts.SetSkip(opts.Skip)
	}
	if opts.Limit != 0 {
		findOpts.SetLimit(opts.Limit)
	}
	if len(opts.Sort) > 0 {
		findOpts.SetSort(opts.Sort)
	}
	return findOpts
}

func renderStatement(statement interface{}) string {
	raw, err := bson.MarshalExtJSON(wrapStatement(statement), false, false)
	if err != nil {
		return fmt.Sprintf("%v", statement)
	}
	return string(raw)
}

// MarshalExtJSON requires a document at the top level; pipelines are arrays.
func wrapStatement(statement interface{}) interface{} {
	switch s := statement.(type) {
	case Filter:
		return bson.M(s)
	case bson.M, bson.D:
		return s
	default:
		return bson.M{"pipeline": s}
	}
}

func sliceLen(out interface{}) int {
	v := reflect.ValueOf(out)
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return 0
		}
		v = v.Elem()
	}
	if v.Kind() == reflect.Slice {
		return v.Len()
	}
	return 0
}
