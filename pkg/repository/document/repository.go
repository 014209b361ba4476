// Package document defines read-only query contracts for document stores.
package document

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
)

// Filter represents field-based filtering criteria for document stores.
type Filter map[string]interface{}

// FindOptions carries pagination and ordering for a find.
// A zero Limit means no limit; a nil Sort leaves the natural order.
type FindOptions struct {
	Skip  int64
	Limit int64
	Sort  bson.D
}

// Reader executes read queries against a named collection and decodes the result into out,
// which must be a pointer to a slice.
type Reader interface {
	Find(ctx context.Context, collection string, filter Filter, opts FindOptions, out interface{}) error
	Count(ctx context.Context, collection string, filter Filter) (int64, error)
	Aggregate(ctx context.Context, collection string, pipeline interface{}, out interface{}) error
}
