package api

import (
	"context"

	"github.com/offerdesk/offerdesk/internal/models"
)

// ArticleService defines article operations used by ArticleHandler.
type ArticleService interface {
	List(ctx context.Context, limit, offset int) ([]models.Article, bool, error)
	Get(ctx context.Context, id string) (*models.Article, error)
	Create(ctx context.Context, req models.CreateArticleRequest, actor *models.User, meta map[string]any) (*models.Article, error)
	Update(ctx context.Context, id string, req models.UpdateArticleRequest, actor *models.User, meta map[string]any) (*models.Article, error)
	Delete(ctx context.Context, id string, actor *models.User, meta map[string]any) (*models.Article, error)
	ListCalculationItems(ctx context.Context, articleID string) ([]models.CalculationItem, error)
	AddCalculationItem(ctx context.Context, articleID string, req models.CreateCalculationItemRequest, actor *models.User, meta map[string]any) (*models.CalculationItem, error)
	DeleteCalculationItem(ctx context.Context, articleID, itemID string, actor *models.User, meta map[string]any) error
}

// BlockService defines text block operations used by BlockHandler.
type BlockService interface {
	List(ctx context.Context, limit, offset int) ([]models.Block, bool, error)
	Get(ctx context.Context, id string) (*models.Block, error)
	Create(ctx context.Context, req models.CreateBlockRequest, actor *models.User, meta map[string]any) (*models.Block, error)
	Update(ctx context.Context, id string, req models.UpdateBlockRequest, actor *models.User, meta map[string]any) (*models.Block, error)
	Delete(ctx context.Context, id string, actor *models.User, meta map[string]any) (*models.Block, error)
	Copy(ctx context.Context, id string, actor *models.User, meta map[string]any) (*models.Block, error)
}

// QuoteService defines quote operations used by QuoteHandler.
type QuoteService interface {
	List(ctx context.Context, limit, offset int) ([]models.Quote, bool, error)
	Get(ctx context.Context, id string) (*models.Quote, error)
	Create(ctx context.Context, req models.CreateQuoteRequest, actor *models.User, meta map[string]any) (*models.Quote, error)
	Update(ctx context.Context, id string, req models.UpdateQuoteRequest, actor *models.User, meta map[string]any) (*models.Quote, error)
	Delete(ctx context.Context, id string, actor *models.User, meta map[string]any) (*models.Quote, error)
	ListVariants(ctx context.Context, quoteID string) ([]models.QuoteVariant, error)
	CreateVariant(ctx context.Context, quoteID string, req models.CreateQuoteVariantRequest, actor *models.User, meta map[string]any) (*models.QuoteVariant, error)
	CreateVersion(ctx context.Context, variantID, notes string, actor *models.User, meta map[string]any) (*models.QuoteVersion, error)
	DeleteVariant(ctx context.Context, variantID string, actor *models.User) error
}

// OpportunityService defines sales opportunity operations used by OpportunityHandler.
type OpportunityService interface {
	List(ctx context.Context, limit, offset int) ([]models.SalesOpportunity, bool, error)
	Get(ctx context.Context, id string) (*models.SalesOpportunity, error)
	Create(ctx context.Context, req models.CreateOpportunityRequest, actor *models.User, meta map[string]any) (*models.SalesOpportunity, error)
	Update(ctx context.Context, id string, req models.UpdateOpportunityRequest, actor *models.User, meta map[string]any) (*models.SalesOpportunity, error)
	Delete(ctx context.Context, id string, actor *models.User, meta map[string]any) (*models.SalesOpportunity, error)
}

// ContentService defines content operations used by content endpoints.
type ContentService interface {
	List(ctx context.Context, parentKind models.EntityKind, parentID string) ([]models.ContentRow, error)
	Replace(ctx context.Context, parentKind models.EntityKind, parentID string, inputs []models.ContentInput, actor *models.User, meta map[string]any) ([]models.ContentRow, error)
}

// LockService defines edit lock operations used by LockHandler.
type LockService interface {
	CheckEditable(ctx context.Context, kind models.EntityKind, id string, actor *models.User) error
	Acquire(ctx context.Context, kind models.EntityKind, id string, actor *models.User) error
	Release(ctx context.Context, kind models.EntityKind, id string, actor *models.User, force bool) error
}

// AuditService defines audit log reads used by AuditHandler.
type AuditService interface {
	Query(ctx context.Context, opts models.AuditQueryOpts) ([]models.HistoryEntry, bool, error)
	GetChangeHistory(ctx context.Context, kind models.EntityKind, entityID string, limit, offset int) ([]models.HistoryEntry, bool, error)
}
