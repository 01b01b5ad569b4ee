package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/offerdesk/offerdesk/internal/models"
)

// ContentStore is the data-access interface ContentService depends on.
type ContentStore interface {
	ListContent(ctx context.Context, parentKind models.EntityKind, parentID string) ([]models.ContentRow, error)
	ReplaceContent(ctx context.Context, parentKind models.EntityKind, parentID string, inputs []models.ContentInput, actor *models.User, meta map[string]any) ([]models.ContentRow, error)
}

// ContentService wraps ContentStore with the error propagation policy.
type ContentService struct {
	store ContentStore
	log   *logrus.Logger
}

// NewContentService creates a ContentService.
func NewContentService(store ContentStore, log *logrus.Logger) *ContentService {
	return &ContentService{store: store, log: log}
}

// List returns the active content rows of a parent, ordered by index.
func (s *ContentService) List(ctx context.Context, parentKind models.EntityKind, parentID string) ([]models.ContentRow, error) {
	rows, err := s.store.ListContent(ctx, parentKind, parentID)

	return rows, wrapFailure(s.log, "failed to list content", err)
}

// Replace atomically swaps a parent's entire content set for inputs.
func (s *ContentService) Replace(ctx context.Context, parentKind models.EntityKind, parentID string, inputs []models.ContentInput, actor *models.User, meta map[string]any) ([]models.ContentRow, error) {
	rows, err := s.store.ReplaceContent(ctx, parentKind, parentID, inputs, actor, meta)

	return rows, wrapFailure(s.log, "failed to replace content", err)
}
