package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/offerdesk/offerdesk/internal/models"
)

// ArticleStore is the data-access interface ArticleService depends on.
type ArticleStore interface {
	List(ctx context.Context, limit, offset int) ([]models.Article, bool, error)
	Get(ctx context.Context, id string) (*models.Article, error)
	Create(ctx context.Context, req models.CreateArticleRequest, actor *models.User, meta map[string]any) (*models.Article, error)
	Update(ctx context.Context, id string, req models.UpdateArticleRequest, actor *models.User, meta map[string]any) (*models.Article, error)
	SoftDelete(ctx context.Context, id string, actor *models.User, meta map[string]any) (*models.Article, error)
	ListCalculationItems(ctx context.Context, articleID string) ([]models.CalculationItem, error)
	AddCalculationItem(ctx context.Context, articleID string, req models.CreateCalculationItemRequest, actor *models.User, meta map[string]any) (*models.CalculationItem, error)
	DeleteCalculationItem(ctx context.Context, articleID, itemID string, actor *models.User, meta map[string]any) error
}

// ArticleService wraps ArticleStore with the error propagation policy.
type ArticleService struct {
	store ArticleStore
	log   *logrus.Logger
}

// NewArticleService creates an ArticleService.
func NewArticleService(store ArticleStore, log *logrus.Logger) *ArticleService {
	return &ArticleService{store: store, log: log}
}

// List returns a paginated list of active articles (pass-through).
func (s *ArticleService) List(ctx context.Context, limit, offset int) ([]models.Article, bool, error) {
	articles, hasMore, err := s.store.List(ctx, limit, offset)

	return articles, hasMore, wrapFailure(s.log, "failed to list articles", err)
}

// Get returns one article with its change attribution.
func (s *ArticleService) Get(ctx context.Context, id string) (*models.Article, error) {
	a, err := s.store.Get(ctx, id)

	return a, wrapFailure(s.log, "failed to load article", err)
}

// Create creates an article.
func (s *ArticleService) Create(ctx context.Context, req models.CreateArticleRequest, actor *models.User, meta map[string]any) (*models.Article, error) {
	a, err := s.store.Create(ctx, req, actor, meta)

	return a, wrapFailure(s.log, "failed to save article", err)
}

// Update applies a partial patch to an article.
func (s *ArticleService) Update(ctx context.Context, id string, req models.UpdateArticleRequest, actor *models.User, meta map[string]any) (*models.Article, error) {
	a, err := s.store.Update(ctx, id, req, actor, meta)

	return a, wrapFailure(s.log, "failed to save article", err)
}

// Delete soft-deletes an article and cascades to its content rows.
func (s *ArticleService) Delete(ctx context.Context, id string, actor *models.User, meta map[string]any) (*models.Article, error) {
	a, err := s.store.SoftDelete(ctx, id, actor, meta)

	return a, wrapFailure(s.log, "failed to delete article", err)
}

// ListCalculationItems returns an article's calculation items.
func (s *ArticleService) ListCalculationItems(ctx context.Context, articleID string) ([]models.CalculationItem, error) {
	items, err := s.store.ListCalculationItems(ctx, articleID)

	return items, wrapFailure(s.log, "failed to list calculation items", err)
}

// AddCalculationItem appends a cost line to an article.
func (s *ArticleService) AddCalculationItem(ctx context.Context, articleID string, req models.CreateCalculationItemRequest, actor *models.User, meta map[string]any) (*models.CalculationItem, error) {
	it, err := s.store.AddCalculationItem(ctx, articleID, req, actor, meta)

	return it, wrapFailure(s.log, "failed to save calculation item", err)
}

// DeleteCalculationItem removes a cost line from an article.
func (s *ArticleService) DeleteCalculationItem(ctx context.Context, articleID, itemID string, actor *models.User, meta map[string]any) error {
	err := s.store.DeleteCalculationItem(ctx, articleID, itemID, actor, meta)

	return wrapFailure(s.log, "failed to delete calculation item", err)
}
