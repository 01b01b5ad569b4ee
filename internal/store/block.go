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

// BlockStore handles audited CRUD for reusable text blocks.
type BlockStore struct {
	Base
}

// NewBlockStore creates a BlockStore.
func NewBlockStore(base Base) *BlockStore {
	return &BlockStore{Base: base}
}

const blockColumns = "id, name, deleted, blocked, blocked_by, created_at, updated_at"

func scanBlock(scan func(...any) error) (*models.Block, error) {
	var b models.Block

	err := scan(&b.ID, &b.Name, &b.Deleted, &b.Blocked, &b.BlockedBy, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}

	return &b, nil
}

func fetchBlockTx(ctx context.Context, tx pgx.Tx, id string, forUpdate bool) (*models.Block, error) {
	query := fmt.Sprintf("SELECT %s FROM blocks WHERE id = $1 AND NOT deleted", blockColumns)
	if forUpdate {
		query += " FOR UPDATE"
	}

	b, err := scanBlock(tx.QueryRow(ctx, query, id).Scan)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrBlockNotFound
		}

		return nil, fmt.Errorf("fetching block: %w", err)
	}

	return b, nil
}

// List returns a paginated list of active blocks.
func (s *BlockStore) List(ctx context.Context, limit, offset int) ([]models.Block, bool, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := fmt.Sprintf(
		"SELECT %s FROM blocks WHERE NOT deleted ORDER BY name, created_at LIMIT $1 OFFSET $2",
		blockColumns,
	)

	rows, err := s.Pool.Query(ctx, query, limit+1, offset)
	if err != nil {
		return nil, false, fmt.Errorf("listing blocks: %w", err)
	}
	defer rows.Close()

	blocks := make([]models.Block, 0, limit)

	for rows.Next() {
		b, err := scanBlock(rows.Scan)
		if err != nil {
			return nil, false, fmt.Errorf("scanning block: %w", err)
		}

		blocks = append(blocks, *b)
	}

	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("iterating blocks: %w", err)
	}

	hasMore := len(blocks) > limit
	if hasMore {
		blocks = blocks[:limit]
	}

	return blocks, hasMore, nil
}

// Get returns one block with its change attribution across the block
// itself and its content rows.
func (s *BlockStore) Get(ctx context.Context, id string) (*models.Block, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.beginReadTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck // read-only, rollback is the normal exit.

	b, err := fetchBlockTx(ctx, tx, id, false)
	if err != nil {
		return nil, err
	}

	childIDs, err := contentChildIDs(ctx, tx, models.KindBlock, id)
	if err != nil {
		return nil, err
	}

	b.LastChangedBy, err = fetchAttribution(ctx, tx, models.KindBlock, id, childIDs)
	if err != nil {
		return nil, err
	}

	return b, nil
}

// Create inserts a new block with its INSERT audit entry.
func (s *BlockStore) Create(ctx context.Context, req models.CreateBlockRequest, actor *models.User, meta map[string]any) (*models.Block, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	if err := req.Validate(); err != nil {
		return nil, err
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	b := &models.Block{ID: uuid.New().String()}

	draft := models.AuditDraft{
		Kind:     models.KindBlock,
		Action:   models.ActionInsert,
		Changed:  map[string]any{"name": req.Name},
		UserID:   actor.ID,
		Metadata: meta,
	}

	err := s.withAudit(ctx, draft, func(tx pgx.Tx) (string, error) {
		query := fmt.Sprintf("INSERT INTO blocks (id, name) VALUES ($1, $2) RETURNING %s", blockColumns)

		created, err := scanBlock(tx.QueryRow(ctx, query, b.ID, req.Name).Scan)
		if err != nil {
			return "", fmt.Errorf("scanning created block: %w", err)
		}

		*b = *created

		return b.ID, nil
	})
	if err != nil {
		return nil, err
	}

	return b, nil
}

// Update applies a partial patch; empty diffs write no audit entry.
func (s *BlockStore) Update(ctx context.Context, id string, req models.UpdateBlockRequest, actor *models.User, meta map[string]any) (*models.Block, error) {
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

	cur, err := fetchBlockTx(ctx, tx, id, true)
	if err != nil {
		return nil, err
	}

	if err := s.requireUnlocked(cur.LockState, models.KindBlock, id, actor.ID); err != nil {
		return nil, err
	}

	diff := make(map[string]models.FieldChange)
	setClauses := []string{"updated_at = NOW()"}
	args := []any{}
	argIdx := 1

	if req.Name != nil {
		setClauses = append(setClauses, fmt.Sprintf("name = $%d", argIdx))
		args = append(args, *req.Name)
		argIdx++

		if *req.Name != cur.Name {
			diff["name"] = models.FieldChange{Old: cur.Name, New: *req.Name}
		}
	}

	query := fmt.Sprintf(
		"UPDATE blocks SET %s WHERE id = $%d RETURNING %s",
		strings.Join(setClauses, ", "), argIdx, blockColumns,
	)
	args = append(args, id)

	b, err := scanBlock(tx.QueryRow(ctx, query, args...).Scan)
	if err != nil {
		return nil, fmt.Errorf("scanning updated block: %w", err)
	}

	if len(diff) > 0 {
		err := recordAudit(ctx, tx, models.AuditDraft{
			Kind:     models.KindBlock,
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
		return nil, fmt.Errorf("committing block update: %w", err)
	}

	return b, nil
}

// SoftDelete retires a block, cascading to its content rows with one
// DELETE entry per child before the block's own entry, all in one
// transaction.
func (s *BlockStore) SoftDelete(ctx context.Context, id string, actor *models.User, meta map[string]any) (*models.Block, error) {
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

	cur, err := fetchBlockTx(ctx, tx, id, true)
	if err != nil {
		return nil, err
	}

	if err := s.requireUnlocked(cur.LockState, models.KindBlock, id, actor.ID); err != nil {
		return nil, err
	}

	if _, err := softDeleteContentTx(ctx, tx, models.KindBlock, id, actor.ID, "cascading soft delete", nil); err != nil {
		return nil, err
	}

	query := fmt.Sprintf(
		"UPDATE blocks SET deleted = TRUE, blocked = NULL, blocked_by = NULL, updated_at = NOW() WHERE id = $1 RETURNING %s",
		blockColumns,
	)

	b, err := scanBlock(tx.QueryRow(ctx, query, id).Scan)
	if err != nil {
		return nil, fmt.Errorf("scanning deleted block: %w", err)
	}

	err = recordAudit(ctx, tx, models.AuditDraft{
		Kind:     models.KindBlock,
		EntityID: id,
		Action:   models.ActionDelete,
		Changed:  map[string]any{"name": cur.Name},
		UserID:   actor.ID,
		Metadata: meta,
	})
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing block delete: %w", err)
	}

	return b, nil
}

// Copy duplicates a block together with its active content rows. The
// new block and each copied content row get their own INSERT entries;
// metadata records the source block.
func (s *BlockStore) Copy(ctx context.Context, id string, actor *models.User, meta map[string]any) (*models.Block, error) {
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

	src, err := fetchBlockTx(ctx, tx, id, false)
	if err != nil {
		return nil, err
	}

	content, err := listActiveContentTx(ctx, tx, models.KindBlock, id)
	if err != nil {
		return nil, err
	}

	copyMeta := map[string]any{"copied_from": id}
	for k, v := range meta {
		copyMeta[k] = v
	}

	newID := uuid.New().String()
	name := src.Name + " (copy)"

	query := fmt.Sprintf("INSERT INTO blocks (id, name) VALUES ($1, $2) RETURNING %s", blockColumns)

	b, err := scanBlock(tx.QueryRow(ctx, query, newID, name).Scan)
	if err != nil {
		return nil, fmt.Errorf("scanning copied block: %w", err)
	}

	err = recordAudit(ctx, tx, models.AuditDraft{
		Kind:     models.KindBlock,
		EntityID: newID,
		Action:   models.ActionInsert,
		Changed:  map[string]any{"name": name},
		UserID:   actor.ID,
		Metadata: copyMeta,
	})
	if err != nil {
		return nil, err
	}

	for _, c := range content {
		in := models.ContentInput{Language: c.Language, Title: c.Title, Body: c.Body}
		if _, err := insertContentTx(ctx, tx, models.KindBlock, newID, in, actor.ID, copyMeta); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing block copy: %w", err)
	}

	return b, nil
}
