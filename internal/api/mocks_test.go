package api_test

import (
	"context"

	"github.com/offerdesk/offerdesk/internal/models"
)

// mockArticleService returns configured responses for ArticleHandler tests.
type mockArticleService struct {
	listFn       func(ctx context.Context, limit, offset int) ([]models.Article, bool, error)
	getFn        func(ctx context.Context, id string) (*models.Article, error)
	createFn     func(ctx context.Context, req models.CreateArticleRequest, actor *models.User, meta map[string]any) (*models.Article, error)
	updateFn     func(ctx context.Context, id string, req models.UpdateArticleRequest, actor *models.User, meta map[string]any) (*models.Article, error)
	deleteFn     func(ctx context.Context, id string, actor *models.User, meta map[string]any) (*models.Article, error)
	listItemsFn  func(ctx context.Context, articleID string) ([]models.CalculationItem, error)
	addItemFn    func(ctx context.Context, articleID string, req models.CreateCalculationItemRequest, actor *models.User, meta map[string]any) (*models.CalculationItem, error)
	deleteItemFn func(ctx context.Context, articleID, itemID string, actor *models.User, meta map[string]any) error
}

func (m *mockArticleService) List(ctx context.Context, limit, offset int) ([]models.Article, bool, error) {
	return m.listFn(ctx, limit, offset)
}

func (m *mockArticleService) Get(ctx context.Context, id string) (*models.Article, error) {
	return m.getFn(ctx, id)
}

func (m *mockArticleService) Create(ctx context.Context, req models.CreateArticleRequest, actor *models.User, meta map[string]any) (*models.Article, error) {
	return m.createFn(ctx, req, actor, meta)
}

func (m *mockArticleService) Update(ctx context.Context, id string, req models.UpdateArticleRequest, actor *models.User, meta map[string]any) (*models.Article, error) {
	return m.updateFn(ctx, id, req, actor, meta)
}

func (m *mockArticleService) Delete(ctx context.Context, id string, actor *models.User, meta map[string]any) (*models.Article, error) {
	return m.deleteFn(ctx, id, actor, meta)
}

func (m *mockArticleService) ListCalculationItems(ctx context.Context, articleID string) ([]models.CalculationItem, error) {
	return m.listItemsFn(ctx, articleID)
}

func (m *mockArticleService) AddCalculationItem(ctx context.Context, articleID string, req models.CreateCalculationItemRequest, actor *models.User, meta map[string]any) (*models.CalculationItem, error) {
	return m.addItemFn(ctx, articleID, req, actor, meta)
}

func (m *mockArticleService) DeleteCalculationItem(ctx context.Context, articleID, itemID string, actor *models.User, meta map[string]any) error {
	return m.deleteItemFn(ctx, articleID, itemID, actor, meta)
}

// mockContentService returns configured responses for content endpoints.
type mockContentService struct {
	listFn    func(ctx context.Context, parentKind models.EntityKind, parentID string) ([]models.ContentRow, error)
	replaceFn func(ctx context.Context, parentKind models.EntityKind, parentID string, inputs []models.ContentInput, actor *models.User, meta map[string]any) ([]models.ContentRow, error)
}

func (m *mockContentService) List(ctx context.Context, parentKind models.EntityKind, parentID string) ([]models.ContentRow, error) {
	return m.listFn(ctx, parentKind, parentID)
}

func (m *mockContentService) Replace(ctx context.Context, parentKind models.EntityKind, parentID string, inputs []models.ContentInput, actor *models.User, meta map[string]any) ([]models.ContentRow, error) {
	return m.replaceFn(ctx, parentKind, parentID, inputs, actor, meta)
}

// mockLockService returns configured responses for LockHandler tests.
type mockLockService struct {
	checkFn   func(ctx context.Context, kind models.EntityKind, id string, actor *models.User) error
	acquireFn func(ctx context.Context, kind models.EntityKind, id string, actor *models.User) error
	releaseFn func(ctx context.Context, kind models.EntityKind, id string, actor *models.User, force bool) error
}

func (m *mockLockService) CheckEditable(ctx context.Context, kind models.EntityKind, id string, actor *models.User) error {
	return m.checkFn(ctx, kind, id, actor)
}

func (m *mockLockService) Acquire(ctx context.Context, kind models.EntityKind, id string, actor *models.User) error {
	return m.acquireFn(ctx, kind, id, actor)
}

func (m *mockLockService) Release(ctx context.Context, kind models.EntityKind, id string, actor *models.User, force bool) error {
	return m.releaseFn(ctx, kind, id, actor, force)
}

// mockAuditService returns configured responses for AuditHandler tests.
type mockAuditService struct {
	queryFn   func(ctx context.Context, opts models.AuditQueryOpts) ([]models.HistoryEntry, bool, error)
	historyFn func(ctx context.Context, kind models.EntityKind, entityID string, limit, offset int) ([]models.HistoryEntry, bool, error)
}

func (m *mockAuditService) Query(ctx context.Context, opts models.AuditQueryOpts) ([]models.HistoryEntry, bool, error) {
	return m.queryFn(ctx, opts)
}

func (m *mockAuditService) GetChangeHistory(ctx context.Context, kind models.EntityKind, entityID string, limit, offset int) ([]models.HistoryEntry, bool, error) {
	return m.historyFn(ctx, kind, entityID, limit, offset)
}
