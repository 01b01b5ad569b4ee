package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/offerdesk/offerdesk/internal/models"
)

// ArticleStore handles audited article CRUD plus calculation items.
type ArticleStore struct {
	Base
}

// NewArticleStore creates an ArticleStore.
func NewArticleStore(base Base) *ArticleStore {
	return &ArticleStore{Base: base}
}

const articleColumns = "id, article_number, name, unit, price::text, deleted, blocked, blocked_by, created_at, updated_at"

// scanArticle scans one article from a pgx scan function.
func scanArticle(scan func(...any) error) (*models.Article, error) {
	var a models.Article

	err := scan(
		&a.ID, &a.ArticleNumber, &a.Name, &a.Unit, &a.Price,
		&a.Deleted, &a.Blocked, &a.BlockedBy, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &a, nil
}

// fetchArticleTx loads an active article inside tx, optionally locking
// the row for the remainder of the transaction.
func fetchArticleTx(ctx context.Context, tx pgx.Tx, id string, forUpdate bool) (*models.Article, error) {
	query := fmt.Sprintf("SELECT %s FROM articles WHERE id = $1 AND NOT deleted", articleColumns)
	if forUpdate {
		query += " FOR UPDATE"
	}

	a, err := scanArticle(tx.QueryRow(ctx, query, id).Scan)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrArticleNotFound
		}

		return nil, fmt.Errorf("fetching article: %w", err)
	}

	return a, nil
}

// List returns a paginated list of active articles.
func (s *ArticleStore) List(ctx context.Context, limit, offset int) ([]models.Article, bool, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := fmt.Sprintf(
		"SELECT %s FROM articles WHERE NOT deleted ORDER BY article_number, created_at LIMIT $1 OFFSET $2",
		articleColumns,
	)

	rows, err := s.Pool.Query(ctx, query, limit+1, offset)
	if err != nil {
		return nil, false, fmt.Errorf("listing articles: %w", err)
	}
	defer rows.Close()

	articles := make([]models.Article, 0, limit)

	for rows.Next() {
		a, err := scanArticle(rows.Scan)
		if err != nil {
			return nil, false, fmt.Errorf("scanning article: %w", err)
		}

		articles = append(articles, *a)
	}

	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("iterating articles: %w", err)
	}

	hasMore := len(articles) > limit
	if hasMore {
		articles = articles[:limit]
	}

	return articles, hasMore, nil
}

// Get returns one article with its change attribution: who last touched
// the article itself or any of its content rows, whichever is newest.
func (s *ArticleStore) Get(ctx context.Context, id string) (*models.Article, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.beginReadTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck // read-only, rollback is the normal exit.

	a, err := fetchArticleTx(ctx, tx, id, false)
	if err != nil {
		return nil, err
	}

	childIDs, err := contentChildIDs(ctx, tx, models.KindArticle, id)
	if err != nil {
		return nil, err
	}

	a.LastChangedBy, err = fetchAttribution(ctx, tx, models.KindArticle, id, childIDs)
	if err != nil {
		return nil, err
	}

	return a, nil
}

// Create inserts a new article with its INSERT audit entry. New rows
// have no prior lock holder, so no lock check applies.
func (s *ArticleStore) Create(ctx context.Context, req models.CreateArticleRequest, actor *models.User, meta map[string]any) (*models.Article, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	if err := req.Validate(); err != nil {
		return nil, err
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	price := req.Price
	if price == "" {
		price = "0"
	}

	a := &models.Article{ID: uuid.New().String()}

	draft := models.AuditDraft{
		Kind:   models.KindArticle,
		Action: models.ActionInsert,
		Changed: map[string]any{
			"article_number": req.ArticleNumber,
			"name":           req.Name,
			"unit":           req.Unit,
			"price":          price,
		},
		UserID:   actor.ID,
		Metadata: meta,
	}

	err := s.withAudit(ctx, draft, func(tx pgx.Tx) (string, error) {
		query := fmt.Sprintf(`INSERT INTO articles (id, article_number, name, unit, price)
			VALUES ($1, $2, $3, $4, $5::numeric)
			RETURNING %s`, articleColumns)

		created, err := scanArticle(tx.QueryRow(ctx, query, a.ID, req.ArticleNumber, req.Name, req.Unit, price).Scan)
		if err != nil {
			return "", fmt.Errorf("scanning created article: %w", err)
		}

		*a = *created

		return a.ID, nil
	})
	if err != nil {
		return nil, err
	}

	return a, nil
}

// Update applies a partial patch. The diff covers only the provided
// keys whose value actually differs; an empty diff still applies the
// update but writes no audit entry. The row is locked FOR UPDATE and
// the edit lock validated in the same transaction as the write.
func (s *ArticleStore) Update(ctx context.Context, id string, req models.UpdateArticleRequest, actor *models.User, meta map[string]any) (*models.Article, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.beginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback after commit.

	cur, err := fetchArticleTx(ctx, tx, id, true)
	if err != nil {
		return nil, err
	}

	if err := s.requireUnlocked(cur.LockState, models.KindArticle, id, actor.ID); err != nil {
		return nil, err
	}

	// Prices diff against the column's text rendering, so a patch in a
	// different spelling of the same amount must not look like a change.
	price := req.Price
	if price != nil {
		canon, err := canonDecimal(ctx, tx, *price)
		if err != nil {
			return nil, err
		}

		price = &canon
	}

	diff := make(map[string]models.FieldChange)
	setClauses := []string{"updated_at = NOW()"}
	args := []any{}
	argIdx := 1

	patch := func(column string, oldVal string, newVal *string, cast string) {
		if newVal == nil {
			return
		}

		setClauses = append(setClauses, fmt.Sprintf("%s = $%d%s", column, argIdx, cast))
		args = append(args, *newVal)
		argIdx++

		if *newVal != oldVal {
			diff[column] = models.FieldChange{Old: oldVal, New: *newVal}
		}
	}

	patch("article_number", cur.ArticleNumber, req.ArticleNumber, "")
	patch("name", cur.Name, req.Name, "")
	patch("unit", cur.Unit, req.Unit, "")
	patch("price", cur.Price, price, "::numeric")

	query := fmt.Sprintf(
		"UPDATE articles SET %s WHERE id = $%d RETURNING %s",
		strings.Join(setClauses, ", "), argIdx, articleColumns,
	)
	args = append(args, id)

	a, err := scanArticle(tx.QueryRow(ctx, query, args...).Scan)
	if err != nil {
		return nil, fmt.Errorf("scanning updated article: %w", err)
	}

	if len(diff) > 0 {
		err := recordAudit(ctx, tx, models.AuditDraft{
			Kind:     models.KindArticle,
			EntityID: id,
			Action:   models.ActionUpdate,
			Changed:  diff,
			UserID:   actor.ID,
			Metadata: meta,
		})
		if err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing article update: %w", err)
	}

	return a, nil
}

// SoftDelete retires an article and cascades to its content rows: each
// child is soft-deleted with its own DELETE entry before the article's
// own entry is written. Parent flag, every child flag, and every audit
// row commit in one transaction. Calculation items are left in place;
// they only go away with the row itself via ON DELETE CASCADE.
func (s *ArticleStore) SoftDelete(ctx context.Context, id string, actor *models.User, meta map[string]any) (*models.Article, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.beginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback after commit.

	cur, err := fetchArticleTx(ctx, tx, id, true)
	if err != nil {
		return nil, err
	}

	if err := s.requireUnlocked(cur.LockState, models.KindArticle, id, actor.ID); err != nil {
		return nil, err
	}

	cascadeMeta := map[string]any{"original_article_id": id}

	if _, err := softDeleteContentTx(ctx, tx, models.KindArticle, id, actor.ID, "cascading soft delete", cascadeMeta); err != nil {
		return nil, err
	}

	query := fmt.Sprintf(
		"UPDATE articles SET deleted = TRUE, blocked = NULL, blocked_by = NULL, updated_at = NOW() WHERE id = $1 RETURNING %s",
		articleColumns,
	)

	a, err := scanArticle(tx.QueryRow(ctx, query, id).Scan)
	if err != nil {
		return nil, fmt.Errorf("scanning deleted article: %w", err)
	}

	err = recordAudit(ctx, tx, models.AuditDraft{
		Kind:     models.KindArticle,
		EntityID: id,
		Action:   models.ActionDelete,
		Changed: map[string]any{
			"article_number": cur.ArticleNumber,
			"name":           cur.Name,
			"unit":           cur.Unit,
			"price":          cur.Price,
		},
		UserID:   actor.ID,
		Metadata: meta,
	})
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing article delete: %w", err)
	}

	return a, nil
}

const calcItemColumns = "id, article_id, position, description, quantity::text, unit_price::text, created_at"

// scanCalcItem scans one calculation item from a pgx scan function.
func scanCalcItem(scan func(...any) error) (*models.CalculationItem, error) {
	var it models.CalculationItem

	err := scan(&it.ID, &it.ArticleID, &it.Position, &it.Description, &it.Quantity, &it.UnitPrice, &it.CreatedAt)
	if err != nil {
		return nil, err
	}

	return &it, nil
}

// ListCalculationItems returns an article's calculation items in position order.
func (s *ArticleStore) ListCalculationItems(ctx context.Context, articleID string) ([]models.CalculationItem, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := fmt.Sprintf(
		"SELECT %s FROM article_calculation_items WHERE article_id = $1 ORDER BY position",
		calcItemColumns,
	)

	rows, err := s.Pool.Query(ctx, query, articleID)
	if err != nil {
		return nil, fmt.Errorf("listing calculation items: %w", err)
	}
	defer rows.Close()

	var items []models.CalculationItem

	for rows.Next() {
		it, err := scanCalcItem(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning calculation item: %w", err)
		}

		items = append(items, *it)
	}

	return items, rows.Err()
}

// AddCalculationItem appends a cost line to an article, audited as its
// own INSERT. The article's edit lock is validated in the same
// transaction.
func (s *ArticleStore) AddCalculationItem(
	ctx context.Context, articleID string, req models.CreateCalculationItemRequest, actor *models.User, meta map[string]any,
) (*models.CalculationItem, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.beginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback after commit.

	if err := s.checkEditableTx(ctx, tx, models.KindArticle, articleID, actor, true); err != nil {
		return nil, err
	}

	quantity := req.Quantity
	if quantity == "" {
		quantity = "1"
	}

	unitPrice := req.UnitPrice
	if unitPrice == "" {
		unitPrice = "0"
	}

	query := fmt.Sprintf(`INSERT INTO article_calculation_items (id, article_id, position, description, quantity, unit_price)
		VALUES ($1, $2, $3, $4, $5::numeric, $6::numeric)
		RETURNING %s`, calcItemColumns)

	it, err := scanCalcItem(tx.QueryRow(ctx, query,
		uuid.New().String(), articleID, req.Position, req.Description, quantity, unitPrice,
	).Scan)
	if err != nil {
		return nil, fmt.Errorf("scanning created calculation item: %w", err)
	}

	err = recordAudit(ctx, tx, models.AuditDraft{
		Kind:     models.KindCalculationItem,
		EntityID: it.ID,
		Action:   models.ActionInsert,
		Changed: map[string]any{
			"article_id":  articleID,
			"position":    it.Position,
			"description": it.Description,
			"quantity":    it.Quantity,
			"unit_price":  it.UnitPrice,
		},
		UserID:   actor.ID,
		Metadata: meta,
	})
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing calculation item insert: %w", err)
	}

	return it, nil
}

// DeleteCalculationItem hard-deletes a cost line (no soft-delete flag on
// calculation items) with a DELETE audit entry carrying the snapshot.
func (s *ArticleStore) DeleteCalculationItem(ctx context.Context, articleID, itemID string, actor *models.User, meta map[string]any) error {
	if err := requireActor(actor); err != nil {
		return err
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.beginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback after commit.

	if err := s.checkEditableTx(ctx, tx, models.KindArticle, articleID, actor, true); err != nil {
		return err
	}

	query := fmt.Sprintf(
		"DELETE FROM article_calculation_items WHERE id = $1 AND article_id = $2 RETURNING %s",
		calcItemColumns,
	)

	it, err := scanCalcItem(tx.QueryRow(ctx, query, itemID, articleID).Scan)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.ErrCalculationItemNotFound
		}

		return fmt.Errorf("deleting calculation item: %w", err)
	}

	err = recordAudit(ctx, tx, models.AuditDraft{
		Kind:     models.KindCalculationItem,
		EntityID: it.ID,
		Action:   models.ActionDelete,
		Changed: map[string]any{
			"article_id":  it.ArticleID,
			"position":    it.Position,
			"description": it.Description,
			"quantity":    it.Quantity,
			"unit_price":  it.UnitPrice,
		},
		UserID:   actor.ID,
		Metadata: meta,
	})
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}
