package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/offerdesk/offerdesk/internal/models"
)

// QuoteStore is the data-access interface QuoteService depends on.
type QuoteStore interface {
	List(ctx context.Context, limit, offset int) ([]models.Quote, bool, error)
	Get(ctx context.Context, id string) (*models.Quote, error)
	Create(ctx context.Context, req models.CreateQuoteRequest, actor *models.User, meta map[string]any) (*models.Quote, error)
	Update(ctx context.Context, id string, req models.UpdateQuoteRequest, actor *models.User, meta map[string]any) (*models.Quote, error)
	SoftDelete(ctx context.Context, id string, actor *models.User, meta map[string]any) (*models.Quote, error)
	ListVariants(ctx context.Context, quoteID string) ([]models.QuoteVariant, error)
	CreateVariant(ctx context.Context, quoteID string, req models.CreateQuoteVariantRequest, actor *models.User, meta map[string]any) (*models.QuoteVariant, error)
	CreateVersion(ctx context.Context, variantID, notes string, actor *models.User, meta map[string]any) (*models.QuoteVersion, error)
	DeleteVariant(ctx context.Context, variantID string, actor *models.User) error
}

// QuoteService wraps QuoteStore with the error propagation policy.
type QuoteService struct {
	store QuoteStore
	log   *logrus.Logger
}

// NewQuoteService creates a QuoteService.
func NewQuoteService(store QuoteStore, log *logrus.Logger) *QuoteService {
	return &QuoteService{store: store, log: log}
}

func (s *QuoteService) List(ctx context.Context, limit, offset int) ([]models.Quote, bool, error) {
	quotes, hasMore, err := s.store.List(ctx, limit, offset)

	return quotes, hasMore, wrapFailure(s.log, "failed to list quotes", err)
}

func (s *QuoteService) Get(ctx context.Context, id string) (*models.Quote, error) {
	q, err := s.store.Get(ctx, id)

	return q, wrapFailure(s.log, "failed to load quote", err)
}

func (s *QuoteService) Create(ctx context.Context, req models.CreateQuoteRequest, actor *models.User, meta map[string]any) (*models.Quote, error) {
	q, err := s.store.Create(ctx, req, actor, meta)

	return q, wrapFailure(s.log, "failed to save quote", err)
}

func (s *QuoteService) Update(ctx context.Context, id string, req models.UpdateQuoteRequest, actor *models.User, meta map[string]any) (*models.Quote, error) {
	q, err := s.store.Update(ctx, id, req, actor, meta)

	return q, wrapFailure(s.log, "failed to save quote", err)
}

// Delete soft-deletes a quote and cascades through its variants and
// their versions in one transaction.
func (s *QuoteService) Delete(ctx context.Context, id string, actor *models.User, meta map[string]any) (*models.Quote, error) {
	q, err := s.store.SoftDelete(ctx, id, actor, meta)

	return q, wrapFailure(s.log, "failed to delete quote", err)
}

func (s *QuoteService) ListVariants(ctx context.Context, quoteID string) ([]models.QuoteVariant, error) {
	variants, err := s.store.ListVariants(ctx, quoteID)

	return variants, wrapFailure(s.log, "failed to list quote variants", err)
}

func (s *QuoteService) CreateVariant(ctx context.Context, quoteID string, req models.CreateQuoteVariantRequest, actor *models.User, meta map[string]any) (*models.QuoteVariant, error) {
	v, err := s.store.CreateVariant(ctx, quoteID, req, actor, meta)

	return v, wrapFailure(s.log, "failed to save quote variant", err)
}

func (s *QuoteService) CreateVersion(ctx context.Context, variantID, notes string, actor *models.User, meta map[string]any) (*models.QuoteVersion, error) {
	v, err := s.store.CreateVersion(ctx, variantID, notes, actor, meta)

	return v, wrapFailure(s.log, "failed to save quote version", err)
}

func (s *QuoteService) DeleteVariant(ctx context.Context, variantID string, actor *models.User) error {
	err := s.store.DeleteVariant(ctx, variantID, actor)

	return wrapFailure(s.log, "failed to delete quote variant", err)
}
