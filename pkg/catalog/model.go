// Package catalog implements the read-only product catalog: translating request parameters
// into MongoDB filters, sort orders, pagination bounds and the category aggregation pipeline.
package catalog

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Document is a product exactly as stored. Values keep their decoded BSON types and
// embedded documents decode as Document; in JSON an ObjectID renders as its hex string
// and a date as RFC 3339.
type Document map[string]interface{}

// Product is the typed shape of a well-formed catalog document.
type Product struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	Name       string             `bson:"name"`
	Price      float64            `bson:"price"`
	Collection string             `bson:"collection"`
	Category   string             `bson:"category"`
	CreatedAt  time.Time          `bson:"createdAt"`
}

// Document returns p as it would be read back from the store.
func (p Product) Document() Document {
	d := Document{
		"name":       p.Name,
		"price":      p.Price,
		"collection": p.Collection,
		"category":   p.Category,
	}
	if !p.ID.IsZero() {
		d["_id"] = p.ID
	}
	if !p.CreatedAt.IsZero() {
		d["createdAt"] = primitive.NewDateTimeFromTime(p.CreatedAt)
	}
	return d
}

// CategorySummary is one row of the category aggregation.
type CategorySummary struct {
	Category      string `bson:"category" json:"category"`
	TotalProducts int64  `bson:"totalProducts" json:"totalProducts"`
}
