package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/offerdesk/offerdesk/internal/models"
)

// ContentStore manages the per-language content rows owned by articles
// and blocks. Content rows are audited independently of their parent.
type ContentStore struct {
	Base
}

// NewContentStore creates a ContentStore.
func NewContentStore(base Base) *ContentStore {
	return &ContentStore{Base: base}
}

const contentColumns = "id, parent_kind, parent_id, language, title, body, deleted, created_at"

// scanContentRow scans one content row from a pgx scan function.
func scanContentRow(scan func(...any) error) (*models.ContentRow, error) {
	var c models.ContentRow
	var kind string

	if err := scan(&c.ID, &kind, &c.ParentID, &c.Language, &c.Title, &c.Body, &c.Deleted, &c.CreatedAt); err != nil {
		return nil, err
	}

	c.ParentKind = models.EntityKind(kind)

	return &c, nil
}

// listActiveContentTx returns a parent's non-deleted content rows.
// Package-level so entity stores can call it within their transactions.
func listActiveContentTx(ctx context.Context, tx pgx.Tx, parentKind models.EntityKind, parentID string) ([]models.ContentRow, error) {
	query := fmt.Sprintf(
		"SELECT %s FROM block_content WHERE parent_kind = $1 AND parent_id = $2 AND NOT deleted ORDER BY language",
		contentColumns,
	)

	rows, err := tx.Query(ctx, query, string(parentKind), parentID)
	if err != nil {
		return nil, fmt.Errorf("listing content rows: %w", err)
	}
	defer rows.Close()

	var out []models.ContentRow

	for rows.Next() {
		c, err := scanContentRow(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning content row: %w", err)
		}

		out = append(out, *c)
	}

	return out, rows.Err()
}

// softDeleteContentTx soft-deletes every active content row of a parent,
// writing one DELETE audit entry per row. Each entry's metadata marks
// the cascade provenance so the trail distinguishes "my parent was
// deleted" from a delete the caller requested directly. Returns the
// number of rows retired. Runs inside the caller's transaction: the
// whole cascade commits or none of it does.
func softDeleteContentTx(
	ctx context.Context, tx pgx.Tx,
	parentKind models.EntityKind, parentID, userID, reason string,
	extraMeta map[string]any,
) (int, error) {
	active, err := listActiveContentTx(ctx, tx, parentKind, parentID)
	if err != nil {
		return 0, err
	}

	for _, c := range active {
		if _, err := tx.Exec(ctx, "UPDATE block_content SET deleted = TRUE WHERE id = $1", c.ID); err != nil {
			return 0, fmt.Errorf("soft-deleting content row %s: %w", c.ID, err)
		}

		meta := map[string]any{
			"reason":      reason,
			"parent_kind": string(parentKind),
			"parent_id":   parentID,
		}
		for k, v := range extraMeta {
			meta[k] = v
		}

		err := recordAudit(ctx, tx, models.AuditDraft{
			Kind:     models.KindBlockContent,
			EntityID: c.ID,
			Action:   models.ActionDelete,
			Changed: map[string]any{
				"language": c.Language,
				"title":    c.Title,
				"body":     c.Body,
			},
			UserID:   userID,
			Metadata: meta,
		})
		if err != nil {
			return 0, err
		}
	}

	return len(active), nil
}

// insertContentTx inserts one content row with its INSERT audit entry.
func insertContentTx(
	ctx context.Context, tx pgx.Tx,
	parentKind models.EntityKind, parentID string,
	in models.ContentInput, userID string, meta map[string]any,
) (*models.ContentRow, error) {
	id := uuid.New().String()

	query := fmt.Sprintf(`INSERT INTO block_content (id, parent_kind, parent_id, language, title, body)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING %s`, contentColumns)

	row := tx.QueryRow(ctx, query, id, string(parentKind), parentID, in.Language, in.Title, in.Body)

	c, err := scanContentRow(row.Scan)
	if err != nil {
		return nil, fmt.Errorf("scanning inserted content row: %w", err)
	}

	err = recordAudit(ctx, tx, models.AuditDraft{
		Kind:     models.KindBlockContent,
		EntityID: c.ID,
		Action:   models.ActionInsert,
		Changed: map[string]any{
			"parent_kind": string(parentKind),
			"parent_id":   parentID,
			"language":    in.Language,
			"title":       in.Title,
			"body":        in.Body,
		},
		UserID:   userID,
		Metadata: meta,
	})
	if err != nil {
		return nil, err
	}

	return c, nil
}

// ListContent returns a parent's active content rows.
func (s *ContentStore) ListContent(ctx context.Context, parentKind models.EntityKind, parentID string) ([]models.ContentRow, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.beginReadTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck // read-only, rollback is the normal exit.

	return listActiveContentTx(ctx, tx, parentKind, parentID)
}

// ReplaceContent atomically swaps a parent's full content set: every
// active row is soft-deleted (one DELETE entry each), then the new rows
// are inserted (one INSERT entry each), all in a single transaction. A
// reader can never observe zero rows or a half-old/half-new mix. The
// parent row is locked FOR UPDATE for the duration, which also
// serializes concurrent replacements and enforces the edit lock.
func (s *ContentStore) ReplaceContent(
	ctx context.Context,
	parentKind models.EntityKind, parentID string,
	inputs []models.ContentInput,
	actor *models.User,
	meta map[string]any,
) ([]models.ContentRow, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	for i := range inputs {
		if err := inputs[i].Validate(); err != nil {
			return nil, err
		}
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.beginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback after commit.

	if err := s.checkEditableTx(ctx, tx, parentKind, parentID, actor, true); err != nil {
		return nil, err
	}

	if _, err := softDeleteContentTx(ctx, tx, parentKind, parentID, actor.ID, "content replaced", meta); err != nil {
		return nil, err
	}

	out := make([]models.ContentRow, 0, len(inputs))

	for _, in := range inputs {
		c, err := insertContentTx(ctx, tx, parentKind, parentID, in, actor.ID, meta)
		if err != nil {
			return nil, err
		}

		out = append(out, *c)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing content replacement: %w", err)
	}

	return out, nil
}
