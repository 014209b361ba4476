package catalog

import (
	"errors"
	"net/url"
	"strings"
	"testing"
)

func TestParseListParams(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  ListParams
	}{
		{
			name:  "all parameters",
			query: "page=2&size=12&search=rose&filter=flowers&sort=low",
			want:  ListParams{Page: 2, Size: 12, Search: "rose", Filter: "flowers", Sort: SortLow},
		},
		{
			name:  "defaults",
			query: "",
			want:  ListParams{Page: 1, Size: DefaultPageSize, Filter: AllCollections},
		},
		{
			name:  "explicit all",
			query: "filter=all&sort=high",
			want:  ListParams{Page: 1, Size: DefaultPageSize, Filter: AllCollections, Sort: SortHigh},
		},
		{
			name:  "surrounding whitespace on numbers",
			query: "page=%203&size=5%20",
			want:  ListParams{Page: 3, Size: 5, Filter: AllCollections},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := url.ParseQuery(tt.query)
			if err != nil {
				t.Fatalf("bad query fixture: %v", err)
			}
			got, err := ParseListParams(q, DefaultLimits())
			if err != nil {
				t.Fatalf("ParseListParams() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseListParams() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParseListParams_Invalid(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		limits     Limits
		wantFields []string
	}{
		{name: "non numeric page", query: "page=abc&size=10", limits: DefaultLimits(), wantFields: []string{"page"}},
		{name: "zero page", query: "page=0&size=10", limits: DefaultLimits(), wantFields: []string{"page"}},
		{name: "negative size", query: "page=1&size=-4", limits: DefaultLimits(), wantFields: []string{"size"}},
		{name: "both invalid", query: "page=x&size=y", limits: DefaultLimits(), wantFields: []string{"page", "size"}},
		{name: "size above max", query: "size=101", limits: DefaultLimits(), wantFields: []string{"size"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, _ := url.ParseQuery(tt.query)
			_, err := ParseListParams(q, tt.limits)

			var perr *ParamError
			if !errors.As(err, &perr) {
				t.Fatalf("expected *ParamError, got %v", err)
			}
			if len(perr.Fields) != len(tt.wantFields) {
				t.Fatalf("fields = %v, want %v", perr.Fields, tt.wantFields)
			}
			for _, f := range tt.wantFields {
				if _, ok := perr.Fields[f]; !ok {
					t.Errorf("missing field %q in %v", f, perr.Fields)
				}
				if !strings.Contains(perr.Error(), f+":") {
					t.Errorf("error message %q does not mention %q", perr.Error(), f)
				}
			}
		})
	}
}

func TestParseListParams_UnboundedSize(t *testing.T) {
	q, _ := url.ParseQuery("size=5000")
	got, err := ParseListParams(q, Limits{DefaultPageSize: 20})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Size != 5000 {
		t.Errorf("Size = %d, want 5000", got.Size)
	}

	got, _ = ParseListParams(url.Values{}, Limits{})
	if got.Size != DefaultPageSize {
		t.Errorf("zero limits must fall back to %d, got %d", DefaultPageSize, got.Size)
	}
}

func TestParseFilterParams(t *testing.T) {
	q, _ := url.ParseQuery("search=ap&page=9")
	got := ParseFilterParams(q)
	if got.Search != "ap" || got.Filter != AllCollections {
		t.Errorf("ParseFilterParams() = %+v", got)
	}
	if got.Page != 0 || got.Size != 0 {
		t.Errorf("pagination must be ignored, got %+v", got)
	}
}
