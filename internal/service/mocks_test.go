package service

import (
	"context"
	"sync"

	"github.com/offerdesk/offerdesk/internal/models"
)

// mockArticleStore records calls and returns configured responses.
type mockArticleStore struct {
	mu    sync.Mutex
	calls []string

	list       func(ctx context.Context, limit, offset int) ([]models.Article, bool, error)
	get        func(ctx context.Context, id string) (*models.Article, error)
	create     func(ctx context.Context, req models.CreateArticleRequest, actor *models.User, meta map[string]any) (*models.Article, error)
	update     func(ctx context.Context, id string, req models.UpdateArticleRequest, actor *models.User, meta map[string]any) (*models.Article, error)
	softDelete func(ctx context.Context, id string, actor *models.User, meta map[string]any) (*models.Article, error)
	listItems  func(ctx context.Context, articleID string) ([]models.CalculationItem, error)
	addItem    func(ctx context.Context, articleID string, req models.CreateCalculationItemRequest, actor *models.User, meta map[string]any) (*models.CalculationItem, error)
	deleteItem func(ctx context.Context, articleID, itemID string, actor *models.User, meta map[string]any) error
}

func (m *mockArticleStore) record(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, name)
}

func (m *mockArticleStore) List(ctx context.Context, limit, offset int) ([]models.Article, bool, error) {
	m.record("List")
	return m.list(ctx, limit, offset)
}

func (m *mockArticleStore) Get(ctx context.Context, id string) (*models.Article, error) {
	m.record("Get")
	return m.get(ctx, id)
}

func (m *mockArticleStore) Create(ctx context.Context, req models.CreateArticleRequest, actor *models.User, meta map[string]any) (*models.Article, error) {
	m.record("Create")
	return m.create(ctx, req, actor, meta)
}

func (m *mockArticleStore) Update(ctx context.Context, id string, req models.UpdateArticleRequest, actor *models.User, meta map[string]any) (*models.Article, error) {
	m.record("Update")
	return m.update(ctx, id, req, actor, meta)
}

func (m *mockArticleStore) SoftDelete(ctx context.Context, id string, actor *models.User, meta map[string]any) (*models.Article, error) {
	m.record("SoftDelete")
	return m.softDelete(ctx, id, actor, meta)
}

func (m *mockArticleStore) ListCalculationItems(ctx context.Context, articleID string) ([]models.CalculationItem, error) {
	m.record("ListCalculationItems")
	return m.listItems(ctx, articleID)
}

func (m *mockArticleStore) AddCalculationItem(ctx context.Context, articleID string, req models.CreateCalculationItemRequest, actor *models.User, meta map[string]any) (*models.CalculationItem, error) {
	m.record("AddCalculationItem")
	return m.addItem(ctx, articleID, req, actor, meta)
}

func (m *mockArticleStore) DeleteCalculationItem(ctx context.Context, articleID, itemID string, actor *models.User, meta map[string]any) error {
	m.record("DeleteCalculationItem")
	return m.deleteItem(ctx, articleID, itemID, actor, meta)
}

// mockLockStore records calls and returns configured responses.
type mockLockStore struct {
	mu    sync.Mutex
	calls []string

	checkEditable  func(ctx context.Context, kind models.EntityKind, id string, actor *models.User) error
	acquire        func(ctx context.Context, kind models.EntityKind, id string, actor *models.User) error
	release        func(ctx context.Context, kind models.EntityKind, id string, actor *models.User, force bool) error
	releaseExpired func(ctx context.Context) (int, error)
}

func (m *mockLockStore) record(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, name)
}

func (m *mockLockStore) callCount(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		if c == name {
			n++
		}
	}
	return n
}

func (m *mockLockStore) CheckEditable(ctx context.Context, kind models.EntityKind, id string, actor *models.User) error {
	m.record("CheckEditable")
	return m.checkEditable(ctx, kind, id, actor)
}

func (m *mockLockStore) Acquire(ctx context.Context, kind models.EntityKind, id string, actor *models.User) error {
	m.record("Acquire")
	return m.acquire(ctx, kind, id, actor)
}

func (m *mockLockStore) Release(ctx context.Context, kind models.EntityKind, id string, actor *models.User, force bool) error {
	m.record("Release")
	return m.release(ctx, kind, id, actor, force)
}

func (m *mockLockStore) ReleaseExpired(ctx context.Context) (int, error) {
	m.record("ReleaseExpired")
	return m.releaseExpired(ctx)
}

// mockAuditReader records calls and returns configured responses.
type mockAuditReader struct {
	mu    sync.Mutex
	calls []string

	query  func(ctx context.Context, opts models.AuditQueryOpts) ([]models.HistoryEntry, bool, error)
	purge  func(ctx context.Context, retentionDays int) (int, error)
	purged []int
}

func (m *mockAuditReader) record(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, name)
}

func (m *mockAuditReader) Query(ctx context.Context, opts models.AuditQueryOpts) ([]models.HistoryEntry, bool, error) {
	m.record("Query")
	return m.query(ctx, opts)
}

func (m *mockAuditReader) GetChangeHistory(ctx context.Context, kind models.EntityKind, entityID string, limit, offset int) ([]models.HistoryEntry, bool, error) {
	m.record("GetChangeHistory")
	return m.query(ctx, models.AuditQueryOpts{Kind: kind, EntityID: entityID, Limit: limit, Offset: offset})
}

func (m *mockAuditReader) PurgeOldEntries(ctx context.Context, retentionDays int) (int, error) {
	m.record("PurgeOldEntries")
	m.mu.Lock()
	m.purged = append(m.purged, retentionDays)
	m.mu.Unlock()
	return m.purge(ctx, retentionDays)
}

// mockContentStore records calls and returns configured responses.
type mockContentStore struct {
	mu    sync.Mutex
	calls []string

	listContent    func(ctx context.Context, parentKind models.EntityKind, parentID string) ([]models.ContentRow, error)
	replaceContent func(ctx context.Context, parentKind models.EntityKind, parentID string, inputs []models.ContentInput, actor *models.User, meta map[string]any) ([]models.ContentRow, error)
}

func (m *mockContentStore) record(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, name)
}

func (m *mockContentStore) ListContent(ctx context.Context, parentKind models.EntityKind, parentID string) ([]models.ContentRow, error) {
	m.record("ListContent")
	return m.listContent(ctx, parentKind, parentID)
}

func (m *mockContentStore) ReplaceContent(ctx context.Context, parentKind models.EntityKind, parentID string, inputs []models.ContentInput, actor *models.User, meta map[string]any) ([]models.ContentRow, error) {
	m.record("ReplaceContent")
	return m.replaceContent(ctx, parentKind, parentID, inputs, actor, meta)
}
