package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/offerdesk/offerdesk/internal/models"
)

// BlockStore is the data-access interface BlockService depends on.
type BlockStore interface {
	List(ctx context.Context, limit, offset int) ([]models.Block, bool, error)
	Get(ctx context.Context, id string) (*models.Block, error)
	Create(ctx context.Context, req models.CreateBlockRequest, actor *models.User, meta map[string]any) (*models.Block, error)
	Update(ctx context.Context, id string, req models.UpdateBlockRequest, actor *models.User, meta map[string]any) (*models.Block, error)
	SoftDelete(ctx context.Context, id string, actor *models.User, meta map[string]any) (*models.Block, error)
	Copy(ctx context.Context, id string, actor *models.User, meta map[string]any) (*models.Block, error)
}

// BlockService wraps BlockStore with the error propagation policy.
type BlockService struct {
	store BlockStore
	log   *logrus.Logger
}

// NewBlockService creates a BlockService.
func NewBlockService(store BlockStore, log *logrus.Logger) *BlockService {
	return &BlockService{store: store, log: log}
}

func (s *BlockService) List(ctx context.Context, limit, offset int) ([]models.Block, bool, error) {
	blocks, hasMore, err := s.store.List(ctx, limit, offset)

	return blocks, hasMore, wrapFailure(s.log, "failed to list text blocks", err)
}

func (s *BlockService) Get(ctx context.Context, id string) (*models.Block, error) {
	b, err := s.store.Get(ctx, id)

	return b, wrapFailure(s.log, "failed to load text block", err)
}

func (s *BlockService) Create(ctx context.Context, req models.CreateBlockRequest, actor *models.User, meta map[string]any) (*models.Block, error) {
	b, err := s.store.Create(ctx, req, actor, meta)

	return b, wrapFailure(s.log, "failed to save text block", err)
}

func (s *BlockService) Update(ctx context.Context, id string, req models.UpdateBlockRequest, actor *models.User, meta map[string]any) (*models.Block, error) {
	b, err := s.store.Update(ctx, id, req, actor, meta)

	return b, wrapFailure(s.log, "failed to save text block", err)
}

func (s *BlockService) Delete(ctx context.Context, id string, actor *models.User, meta map[string]any) (*models.Block, error) {
	b, err := s.store.SoftDelete(ctx, id, actor, meta)

	return b, wrapFailure(s.log, "failed to delete text block", err)
}

// Copy duplicates a block together with its content rows.
func (s *BlockService) Copy(ctx context.Context, id string, actor *models.User, meta map[string]any) (*models.Block, error) {
	b, err := s.store.Copy(ctx, id, actor, meta)

	return b, wrapFailure(s.log, "failed to copy text block", err)
}
