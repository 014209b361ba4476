package catalog

import (
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// AllCollections is the sentinel filter value meaning "no collection restriction".
const AllCollections = "all"

// SortKey selects the ordering of a product listing.
type SortKey string

const (
	SortDefault SortKey = "default"
	SortLow     SortKey = "low"
	SortHigh    SortKey = "high"
)

// ListParams are the listing inputs taken from the query string.
type ListParams struct {
	Page   int
	Size   int
	Search string
	Filter string
	Sort   SortKey
}

// ListQuery is the translated form of ListParams.
type ListQuery struct {
	Filter bson.M
	Skip   int64
	Limit  int64
	Sort   bson.D
}

// Translator turns request parameters into MongoDB queries. The zero value matches search
// text literally.
type Translator struct {
	// PatternSearch passes search text through as a regular expression instead of
	// escaping it.
	PatternSearch bool
}

var defaultTranslator Translator

// BuildListQuery translates p using the default Translator.
func BuildListQuery(p ListParams) ListQuery { return defaultTranslator.BuildListQuery(p) }

// BuildCountQuery translates p using the default Translator.
func BuildCountQuery(p ListParams) bson.M { return defaultTranslator.BuildCountQuery(p) }

// BuildSearchQuery translates searchText using the default Translator.
func BuildSearchQuery(searchText string) bson.M { return defaultTranslator.BuildSearchQuery(searchText) }

// BuildListQuery computes filter, skip, limit and sort for a listing.
// Skip is Page*Size-Size and is not clamped: Page < 1 yields a non-positive skip.
func (t Translator) BuildListQuery(p ListParams) ListQuery {
	page, size := int64(p.Page), int64(p.Size)
	return ListQuery{
		Filter: t.BuildCountQuery(p),
		Skip:   page*size - size,
		Limit:  size,
		Sort:   SortOrder(p.Sort),
	}
}

// BuildCountQuery applies the search and collection rules of BuildListQuery without
// pagination or ordering.
func (t Translator) BuildCountQuery(p ListParams) bson.M {
	filter := bson.M{}
	if p.Search != "" {
		filter["name"] = t.nameMatch(p.Search)
	}
	if c := NormalizeCollection(p.Filter); c != AllCollections {
		filter["collection"] = c
	}
	return filter
}

// BuildSearchQuery matches product names only; an empty text matches everything.
func (t Translator) BuildSearchQuery(searchText string) bson.M {
	if searchText == "" {
		return bson.M{}
	}
	return bson.M{"name": t.nameMatch(searchText)}
}

func (t Translator) nameMatch(text string) bson.M {
	pattern := text
	if !t.PatternSearch {
		pattern = regexp.QuoteMeta(text)
	}
	return bson.M{"$regex": pattern, "$options": "i"}
}

// SortOrder maps a sort key to a single-key sort document. Unknown keys sort newest first.
// Each call returns a fresh value.
func SortOrder(key SortKey) bson.D {
	switch key {
	case SortLow:
		return bson.D{{Key: "price", Value: 1}}
	case SortHigh:
		return bson.D{{Key: "price", Value: -1}}
	default:
		return bson.D{{Key: "createdAt", Value: -1}}
	}
}

// BuildCategoryPipeline groups products by category and counts them, restricted to one
// collection unless collectionFilter is "all" or empty. Stage order is significant.
func BuildCategoryPipeline(collectionFilter string) mongo.Pipeline {
	pipeline := make(mongo.Pipeline, 0, 3)
	if c := NormalizeCollection(collectionFilter); c != AllCollections {
		pipeline = append(pipeline, bson.D{{Key: "$match", Value: bson.D{{Key: "collection", Value: c}}}})
	}
	return append(pipeline,
		bson.D{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$category"},
			{Key: "totalProducts", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
		bson.D{{Key: "$project", Value: bson.D{
			{Key: "category", Value: "$_id"},
			{Key: "totalProducts", Value: 1},
			{Key: "_id", Value: 0},
		}}},
	)
}

// NormalizeCollection maps an absent collection filter to AllCollections.
func NormalizeCollection(filter string) string {
	if filter == "" {
		return AllCollections
	}
	return filter
}
