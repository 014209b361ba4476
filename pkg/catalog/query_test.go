package catalog

import (
	"reflect"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestBuildListQuery(t *testing.T) {
	tests := []struct {
		name       string
		params     ListParams
		wantFilter bson.M
		wantSkip   int64
		wantLimit  int64
		wantSort   bson.D
	}{
		{
			name:       "first page, all collections, default sort",
			params:     ListParams{Page: 1, Size: 10, Filter: "all", Sort: SortDefault},
			wantFilter: bson.M{},
			wantSkip:   0,
			wantLimit:  10,
			wantSort:   bson.D{{Key: "createdAt", Value: -1}},
		},
		{
			name:   "third page with search and collection, low price first",
			params: ListParams{Page: 3, Size: 12, Search: "ap", Filter: "fruits", Sort: SortLow},
			wantFilter: bson.M{
				"name":       bson.M{"$regex": "ap", "$options": "i"},
				"collection": "fruits",
			},
			wantSkip:  24,
			wantLimit: 12,
			wantSort:  bson.D{{Key: "price", Value: 1}},
		},
		{
			name:       "high price first",
			params:     ListParams{Page: 2, Size: 5, Filter: "all", Sort: SortHigh},
			wantFilter: bson.M{},
			wantSkip:   5,
			wantLimit:  5,
			wantSort:   bson.D{{Key: "price", Value: -1}},
		},
		{
			name:       "unknown sort falls back to newest first",
			params:     ListParams{Page: 1, Size: 1, Filter: "all", Sort: "cheapest"},
			wantFilter: bson.M{},
			wantSkip:   0,
			wantLimit:  1,
			wantSort:   bson.D{{Key: "createdAt", Value: -1}},
		},
		{
			name:       "empty filter is treated as all",
			params:     ListParams{Page: 1, Size: 10},
			wantFilter: bson.M{},
			wantSkip:   0,
			wantLimit:  10,
			wantSort:   bson.D{{Key: "createdAt", Value: -1}},
		},
		{
			name:       "page zero is not corrected",
			params:     ListParams{Page: 0, Size: 10, Filter: "all"},
			wantFilter: bson.M{},
			wantSkip:   -10,
			wantLimit:  10,
			wantSort:   bson.D{{Key: "createdAt", Value: -1}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := BuildListQuery(tt.params)
			if !reflect.DeepEqual(q.Filter, tt.wantFilter) {
				t.Errorf("Filter = %#v, want %#v", q.Filter, tt.wantFilter)
			}
			if q.Skip != tt.wantSkip {
				t.Errorf("Skip = %d, want %d", q.Skip, tt.wantSkip)
			}
			if q.Limit != tt.wantLimit {
				t.Errorf("Limit = %d, want %d", q.Limit, tt.wantLimit)
			}
			if !reflect.DeepEqual(q.Sort, tt.wantSort) {
				t.Errorf("Sort = %#v, want %#v", q.Sort, tt.wantSort)
			}
		})
	}
}

func TestBuildListQuery_EscapesSearchByDefault(t *testing.T) {
	q := BuildListQuery(ListParams{Page: 1, Size: 10, Search: "c++ (beta)", Filter: "all"})
	name := q.Filter["name"].(bson.M)
	if name["$regex"] != `c\+\+ \(beta\)` {
		t.Errorf("$regex = %q", name["$regex"])
	}

	raw := Translator{PatternSearch: true}.BuildListQuery(ListParams{Page: 1, Size: 10, Search: "^Gr", Filter: "all"})
	if raw.Filter["name"].(bson.M)["$regex"] != "^Gr" {
		t.Errorf("pattern mode must pass the text through, got %v", raw.Filter["name"])
	}
}

func TestBuildCountQuery_MatchesListFilter(t *testing.T) {
	p := ListParams{Page: 4, Size: 3, Search: "mango", Filter: "summer", Sort: SortHigh}
	if got, want := BuildCountQuery(p), BuildListQuery(p).Filter; !reflect.DeepEqual(got, want) {
		t.Errorf("count filter %#v differs from list filter %#v", got, want)
	}
	if got := BuildCountQuery(ListParams{Filter: "all"}); len(got) != 0 {
		t.Errorf("filter=all with empty search must be unfiltered, got %#v", got)
	}
}

func TestBuildSearchQuery(t *testing.T) {
	if got := BuildSearchQuery(""); len(got) != 0 {
		t.Errorf("empty search must match everything, got %#v", got)
	}
	got := BuildSearchQuery("rose")
	want := bson.M{"name": bson.M{"$regex": "rose", "$options": "i"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("BuildSearchQuery(rose) = %#v, want %#v", got, want)
	}
	if _, ok := got["collection"]; ok {
		t.Error("search query must not restrict collection")
	}
}

func TestSortOrder_ReturnsFreshValue(t *testing.T) {
	first := SortOrder(SortLow)
	first[0].Value = 42
	if SortOrder(SortLow)[0].Value != 1 {
		t.Fatal("mutating a returned sort order leaked into later calls")
	}
}

func TestBuildCategoryPipeline(t *testing.T) {
	group := bson.D{{Key: "$group", Value: bson.D{
		{Key: "_id", Value: "$category"},
		{Key: "totalProducts", Value: bson.D{{Key: "$sum", Value: 1}}},
	}}}
	project := bson.D{{Key: "$project", Value: bson.D{
		{Key: "category", Value: "$_id"},
		{Key: "totalProducts", Value: 1},
		{Key: "_id", Value: 0},
	}}}

	tests := []struct {
		name       string
		collection string
		want       mongo.Pipeline
	}{
		{
			name:       "single collection",
			collection: "X",
			want: mongo.Pipeline{
				{{Key: "$match", Value: bson.D{{Key: "collection", Value: "X"}}}},
				group,
				project,
			},
		},
		{name: "all collections", collection: "all", want: mongo.Pipeline{group, project}},
		{name: "missing collection", collection: "", want: mongo.Pipeline{group, project}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildCategoryPipeline(tt.collection)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("BuildCategoryPipeline(%q) = %#v, want %#v", tt.collection, got, tt.want)
			}
		})
	}
}
