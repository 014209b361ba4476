package catalog

import (
	"context"
	"fmt"

	"github.com/neeprokriti/catalog-server/pkg/observability/logger"
	"github.com/neeprokriti/catalog-server/pkg/repository/document"
)

// Service answers catalog queries by translating parameters and delegating to a Store.
// It holds no per-request state and is safe for concurrent use.
type Service struct {
	store      Store
	translator Translator
	logger     logger.Logger
}

// NewService creates a catalog service.
func NewService(store Store, translator Translator, log logger.Logger) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("catalog store is required")
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Service{store: store, translator: translator, logger: log}, nil
}

// ListProducts returns one page of products.
func (s *Service) ListProducts(ctx context.Context, p ListParams) ([]Document, error) {
	q := s.translator.BuildListQuery(p)
	s.logger.WithContext(ctx).Debug("listing products",
		"page", p.Page, "size", p.Size, "filter", p.Filter, "sort", p.Sort, "skip", q.Skip)

	return s.store.FindProducts(ctx, q.Filter, document.FindOptions{
		Skip:  q.Skip,
		Limit: q.Limit,
		Sort:  q.Sort,
	})
}

// CountProducts counts products matching the search and collection filter of p.
func (s *Service) CountProducts(ctx context.Context, p ListParams) (int64, error) {
	return s.store.CountProducts(ctx, s.translator.BuildCountQuery(p))
}

// Categories summarizes product counts per category within collection.
func (s *Service) Categories(ctx context.Context, collection string) ([]CategorySummary, error) {
	return s.store.AggregateCategories(ctx, BuildCategoryPipeline(collection))
}

// SearchProducts returns every product whose name matches text, across all collections.
func (s *Service) SearchProducts(ctx context.Context, text string) ([]Document, error) {
	return s.store.FindProducts(ctx, s.translator.BuildSearchQuery(text), document.FindOptions{})
}
