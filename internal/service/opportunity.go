package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/offerdesk/offerdesk/internal/models"
)

// OpportunityStore is the data-access interface OpportunityService depends on.
type OpportunityStore interface {
	List(ctx context.Context, limit, offset int) ([]models.SalesOpportunity, bool, error)
	Get(ctx context.Context, id string) (*models.SalesOpportunity, error)
	Create(ctx context.Context, req models.CreateOpportunityRequest, actor *models.User, meta map[string]any) (*models.SalesOpportunity, error)
	Update(ctx context.Context, id string, req models.UpdateOpportunityRequest, actor *models.User, meta map[string]any) (*models.SalesOpportunity, error)
	SoftDelete(ctx context.Context, id string, actor *models.User, meta map[string]any) (*models.SalesOpportunity, error)
}

// OpportunityService wraps OpportunityStore with the error propagation policy.
type OpportunityService struct {
	store OpportunityStore
	log   *logrus.Logger
}

// NewOpportunityService creates an OpportunityService.
func NewOpportunityService(store OpportunityStore, log *logrus.Logger) *OpportunityService {
	return &OpportunityService{store: store, log: log}
}

func (s *OpportunityService) List(ctx context.Context, limit, offset int) ([]models.SalesOpportunity, bool, error) {
	opps, hasMore, err := s.store.List(ctx, limit, offset)

	return opps, hasMore, wrapFailure(s.log, "failed to list sales opportunities", err)
}

func (s *OpportunityService) Get(ctx context.Context, id string) (*models.SalesOpportunity, error) {
	o, err := s.store.Get(ctx, id)

	return o, wrapFailure(s.log, "failed to load sales opportunity", err)
}

func (s *OpportunityService) Create(ctx context.Context, req models.CreateOpportunityRequest, actor *models.User, meta map[string]any) (*models.SalesOpportunity, error) {
	o, err := s.store.Create(ctx, req, actor, meta)

	return o, wrapFailure(s.log, "failed to save sales opportunity", err)
}

func (s *OpportunityService) Update(ctx context.Context, id string, req models.UpdateOpportunityRequest, actor *models.User, meta map[string]any) (*models.SalesOpportunity, error) {
	o, err := s.store.Update(ctx, id, req, actor, meta)

	return o, wrapFailure(s.log, "failed to save sales opportunity", err)
}

func (s *OpportunityService) Delete(ctx context.Context, id string, actor *models.User, meta map[string]any) (*models.SalesOpportunity, error) {
	o, err := s.store.SoftDelete(ctx, id, actor, meta)

	return o, wrapFailure(s.log, "failed to delete sales opportunity", err)
}
