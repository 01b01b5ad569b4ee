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

// QuoteStore handles audited CRUD for quotes, their variants, and
// variant versions. Deleting a quote soft-deletes the whole tree.
type QuoteStore struct {
	Base
}

// NewQuoteStore creates a QuoteStore.
func NewQuoteStore(base Base) *QuoteStore {
	return &QuoteStore{Base: base}
}

const quoteColumns = "id, quote_number, customer, status, deleted, blocked, blocked_by, created_at, updated_at"

func scanQuote(scan func(...any) error) (*models.Quote, error) {
	var q models.Quote

	err := scan(
		&q.ID, &q.QuoteNumber, &q.Customer, &q.Status,
		&q.Deleted, &q.Blocked, &q.BlockedBy, &q.CreatedAt, &q.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &q, nil
}

func fetchQuoteTx(ctx context.Context, tx pgx.Tx, id string, forUpdate bool) (*models.Quote, error) {
	query := fmt.Sprintf("SELECT %s FROM quotes WHERE id = $1 AND NOT deleted", quoteColumns)
	if forUpdate {
		query += " FOR UPDATE"
	}

	q, err := scanQuote(tx.QueryRow(ctx, query, id).Scan)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrQuoteNotFound
		}

		return nil, fmt.Errorf("fetching quote: %w", err)
	}

	return q, nil
}

// List returns a paginated list of active quotes, newest first.
func (s *QuoteStore) List(ctx context.Context, limit, offset int) ([]models.Quote, bool, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := fmt.Sprintf(
		"SELECT %s FROM quotes WHERE NOT deleted ORDER BY created_at DESC LIMIT $1 OFFSET $2",
		quoteColumns,
	)

	rows, err := s.Pool.Query(ctx, query, limit+1, offset)
	if err != nil {
		return nil, false, fmt.Errorf("listing quotes: %w", err)
	}
	defer rows.Close()

	quotes := make([]models.Quote, 0, limit)

	for rows.Next() {
		q, err := scanQuote(rows.Scan)
		if err != nil {
			return nil, false, fmt.Errorf("scanning quote: %w", err)
		}

		quotes = append(quotes, *q)
	}

	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("iterating quotes: %w", err)
	}

	hasMore := len(quotes) > limit
	if hasMore {
		quotes = quotes[:limit]
	}

	return quotes, hasMore, nil
}

// Get returns one quote with its change attribution. Quotes have no
// content rows, so attribution only covers the quote itself.
func (s *QuoteStore) Get(ctx context.Context, id string) (*models.Quote, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.beginReadTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck // read-only, rollback is the normal exit.

	q, err := fetchQuoteTx(ctx, tx, id, false)
	if err != nil {
		return nil, err
	}

	q.LastChangedBy, err = fetchAttribution(ctx, tx, models.KindQuote, id, nil)
	if err != nil {
		return nil, err
	}

	return q, nil
}

// Create inserts a new quote with its INSERT audit entry.
func (s *QuoteStore) Create(ctx context.Context, req models.CreateQuoteRequest, actor *models.User, meta map[string]any) (*models.Quote, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	if err := req.Validate(); err != nil {
		return nil, err
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	status := req.Status
	if status == "" {
		status = "draft"
	}

	q := &models.Quote{ID: uuid.New().String()}

	draft := models.AuditDraft{
		Kind:   models.KindQuote,
		Action: models.ActionInsert,
		Changed: map[string]any{
			"quote_number": req.QuoteNumber,
			"customer":     req.Customer,
			"status":       status,
		},
		UserID:   actor.ID,
		Metadata: meta,
	}

	err := s.withAudit(ctx, draft, func(tx pgx.Tx) (string, error) {
		query := fmt.Sprintf(`INSERT INTO quotes (id, quote_number, customer, status)
			VALUES ($1, $2, $3, $4) RETURNING %s`, quoteColumns)

		created, err := scanQuote(tx.QueryRow(ctx, query, q.ID, req.QuoteNumber, req.Customer, status).Scan)
		if err != nil {
			return "", fmt.Errorf("scanning created quote: %w", err)
		}

		*q = *created

		return q.ID, nil
	})
	if err != nil {
		return nil, err
	}

	return q, nil
}

// Update applies a partial patch; empty diffs write no audit entry.
func (s *QuoteStore) Update(ctx context.Context, id string, req models.UpdateQuoteRequest, actor *models.User, meta map[string]any) (*models.Quote, error) {
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

	cur, err := fetchQuoteTx(ctx, tx, id, true)
	if err != nil {
		return nil, err
	}

	if err := s.requireUnlocked(cur.LockState, models.KindQuote, id, actor.ID); err != nil {
		return nil, err
	}

	diff := make(map[string]models.FieldChange)
	setClauses := []string{"updated_at = NOW()"}
	args := []any{}
	argIdx := 1

	patch := func(column, oldVal string, newVal *string) {
		if newVal == nil {
			return
		}

		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", column, argIdx))
		args = append(args, *newVal)
		argIdx++

		if *newVal != oldVal {
			diff[column] = models.FieldChange{Old: oldVal, New: *newVal}
		}
	}

	patch("quote_number", cur.QuoteNumber, req.QuoteNumber)
	patch("customer", cur.Customer, req.Customer)
	patch("status", cur.Status, req.Status)

	query := fmt.Sprintf(
		"UPDATE quotes SET %s WHERE id = $%d RETURNING %s",
		strings.Join(setClauses, ", "), argIdx, quoteColumns,
	)
	args = append(args, id)

	q, err := scanQuote(tx.QueryRow(ctx, query, args...).Scan)
	if err != nil {
		return nil, fmt.Errorf("scanning updated quote: %w", err)
	}

	if len(diff) > 0 {
		err := recordAudit(ctx, tx, models.AuditDraft{
			Kind:     models.KindQuote,
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
		return nil, fmt.Errorf("committing quote update: %w", err)
	}

	return q, nil
}

// SoftDelete retires a quote and walks the tree: every active version of
// every active variant is soft-deleted and audited, then each variant,
// then the quote itself. One transaction for the whole cascade.
func (s *QuoteStore) SoftDelete(ctx context.Context, id string, actor *models.User, meta map[string]any) (*models.Quote, error) {
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

	cur, err := fetchQuoteTx(ctx, tx, id, true)
	if err != nil {
		return nil, err
	}

	if err := s.requireUnlocked(cur.LockState, models.KindQuote, id, actor.ID); err != nil {
		return nil, err
	}

	variants, err := listActiveVariantsTx(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	for _, v := range variants {
		cascadeMeta := map[string]any{
			"reason":      "cascading soft delete",
			"parent_kind": string(models.KindQuote),
			"parent_id":   v.QuoteID,
		}
		if err := softDeleteVariantTreeTx(ctx, tx, &v, actor.ID, cascadeMeta); err != nil {
			return nil, err
		}
	}

	query := fmt.Sprintf(
		"UPDATE quotes SET deleted = TRUE, blocked = NULL, blocked_by = NULL, updated_at = NOW() WHERE id = $1 RETURNING %s",
		quoteColumns,
	)

	q, err := scanQuote(tx.QueryRow(ctx, query, id).Scan)
	if err != nil {
		return nil, fmt.Errorf("scanning deleted quote: %w", err)
	}

	err = recordAudit(ctx, tx, models.AuditDraft{
		Kind:     models.KindQuote,
		EntityID: id,
		Action:   models.ActionDelete,
		Changed: map[string]any{
			"quote_number": cur.QuoteNumber,
			"customer":     cur.Customer,
			"status":       cur.Status,
		},
		UserID:   actor.ID,
		Metadata: meta,
	})
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing quote delete: %w", err)
	}

	return q, nil
}

const variantColumns = "id, quote_id, name, deleted, blocked, blocked_by, created_at, updated_at"

func scanVariant(scan func(...any) error) (*models.QuoteVariant, error) {
	var v models.QuoteVariant

	err := scan(&v.ID, &v.QuoteID, &v.Name, &v.Deleted, &v.Blocked, &v.BlockedBy, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return nil, err
	}

	return &v, nil
}

func listActiveVariantsTx(ctx context.Context, tx pgx.Tx, quoteID string) ([]models.QuoteVariant, error) {
	query := fmt.Sprintf(
		"SELECT %s FROM quote_variants WHERE quote_id = $1 AND NOT deleted ORDER BY created_at FOR UPDATE",
		variantColumns,
	)

	rows, err := tx.Query(ctx, query, quoteID)
	if err != nil {
		return nil, fmt.Errorf("listing quote variants: %w", err)
	}
	defer rows.Close()

	var variants []models.QuoteVariant

	for rows.Next() {
		v, err := scanVariant(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning quote variant: %w", err)
		}

		variants = append(variants, *v)
	}

	return variants, rows.Err()
}

// softDeleteVariantTreeTx retires one variant and its active versions,
// one audit entry per row, inside the caller's transaction. variantMeta
// goes on the variant's own DELETE entry: cascade provenance when the
// quote is being deleted, caller metadata for a direct variant delete.
func softDeleteVariantTreeTx(ctx context.Context, tx pgx.Tx, v *models.QuoteVariant, userID string, variantMeta map[string]any) error {
	versions, err := listActiveVersionsTx(ctx, tx, v.ID)
	if err != nil {
		return err
	}

	for _, ver := range versions {
		if _, err := tx.Exec(ctx,
			"UPDATE quote_versions SET deleted = TRUE, blocked = NULL, blocked_by = NULL, updated_at = NOW() WHERE id = $1",
			ver.ID,
		); err != nil {
			return fmt.Errorf("soft-deleting quote version %s: %w", ver.ID, err)
		}

		err := recordAudit(ctx, tx, models.AuditDraft{
			Kind:     models.KindQuoteVersion,
			EntityID: ver.ID,
			Action:   models.ActionDelete,
			Changed:  map[string]any{"version": ver.Version, "notes": ver.Notes},
			UserID:   userID,
			Metadata: map[string]any{
				"reason":      "cascading soft delete",
				"parent_kind": string(models.KindQuoteVariant),
				"parent_id":   v.ID,
			},
		})
		if err != nil {
			return err
		}
	}

	if _, err := tx.Exec(ctx,
		"UPDATE quote_variants SET deleted = TRUE, blocked = NULL, blocked_by = NULL, updated_at = NOW() WHERE id = $1",
		v.ID,
	); err != nil {
		return fmt.Errorf("soft-deleting quote variant %s: %w", v.ID, err)
	}

	return recordAudit(ctx, tx, models.AuditDraft{
		Kind:     models.KindQuoteVariant,
		EntityID: v.ID,
		Action:   models.ActionDelete,
		Changed:  map[string]any{"name": v.Name},
		UserID:   userID,
		Metadata: variantMeta,
	})
}

const versionColumns = "id, variant_id, version, notes, deleted, blocked, blocked_by, created_at, updated_at"

func scanVersion(scan func(...any) error) (*models.QuoteVersion, error) {
	var v models.QuoteVersion

	err := scan(&v.ID, &v.VariantID, &v.Version, &v.Notes, &v.Deleted, &v.Blocked, &v.BlockedBy, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return nil, err
	}

	return &v, nil
}

func listActiveVersionsTx(ctx context.Context, tx pgx.Tx, variantID string) ([]models.QuoteVersion, error) {
	query := fmt.Sprintf(
		"SELECT %s FROM quote_versions WHERE variant_id = $1 AND NOT deleted ORDER BY version FOR UPDATE",
		versionColumns,
	)

	rows, err := tx.Query(ctx, query, variantID)
	if err != nil {
		return nil, fmt.Errorf("listing quote versions: %w", err)
	}
	defer rows.Close()

	var versions []models.QuoteVersion

	for rows.Next() {
		v, err := scanVersion(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning quote version: %w", err)
		}

		versions = append(versions, *v)
	}

	return versions, rows.Err()
}

// ListVariants returns a quote's active variants.
func (s *QuoteStore) ListVariants(ctx context.Context, quoteID string) ([]models.QuoteVariant, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := fmt.Sprintf(
		"SELECT %s FROM quote_variants WHERE quote_id = $1 AND NOT deleted ORDER BY created_at",
		variantColumns,
	)

	rows, err := s.Pool.Query(ctx, query, quoteID)
	if err != nil {
		return nil, fmt.Errorf("listing quote variants: %w", err)
	}
	defer rows.Close()

	var variants []models.QuoteVariant

	for rows.Next() {
		v, err := scanVariant(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning quote variant: %w", err)
		}

		variants = append(variants, *v)
	}

	return variants, rows.Err()
}

// CreateVariant adds a variant to a quote. The quote's edit lock is
// validated in the same transaction as the insert.
func (s *QuoteStore) CreateVariant(
	ctx context.Context, quoteID string, req models.CreateQuoteVariantRequest, actor *models.User, meta map[string]any,
) (*models.QuoteVariant, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	if err := req.Validate(); err != nil {
		return nil, err
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.beginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback after commit.

	if err := s.checkEditableTx(ctx, tx, models.KindQuote, quoteID, actor, true); err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`INSERT INTO quote_variants (id, quote_id, name)
		VALUES ($1, $2, $3) RETURNING %s`, variantColumns)

	v, err := scanVariant(tx.QueryRow(ctx, query, uuid.New().String(), quoteID, req.Name).Scan)
	if err != nil {
		return nil, fmt.Errorf("scanning created quote variant: %w", err)
	}

	err = recordAudit(ctx, tx, models.AuditDraft{
		Kind:     models.KindQuoteVariant,
		EntityID: v.ID,
		Action:   models.ActionInsert,
		Changed:  map[string]any{"quote_id": quoteID, "name": req.Name},
		UserID:   actor.ID,
		Metadata: meta,
	})
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing variant insert: %w", err)
	}

	return v, nil
}

// CreateVersion appends the next version to a variant. The variant's
// edit lock is validated in the same transaction; the version number is
// assigned from the current maximum, which the FOR UPDATE on the variant
// row serializes.
func (s *QuoteStore) CreateVersion(
	ctx context.Context, variantID, notes string, actor *models.User, meta map[string]any,
) (*models.QuoteVersion, error) {
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

	if err := s.checkEditableTx(ctx, tx, models.KindQuoteVariant, variantID, actor, true); err != nil {
		return nil, err
	}

	var next int

	err = tx.QueryRow(ctx,
		"SELECT COALESCE(MAX(version), 0) + 1 FROM quote_versions WHERE variant_id = $1",
		variantID,
	).Scan(&next)
	if err != nil {
		return nil, fmt.Errorf("determining next version number: %w", err)
	}

	query := fmt.Sprintf(`INSERT INTO quote_versions (id, variant_id, version, notes)
		VALUES ($1, $2, $3, $4) RETURNING %s`, versionColumns)

	v, err := scanVersion(tx.QueryRow(ctx, query, uuid.New().String(), variantID, next, notes).Scan)
	if err != nil {
		return nil, fmt.Errorf("scanning created quote version: %w", err)
	}

	err = recordAudit(ctx, tx, models.AuditDraft{
		Kind:     models.KindQuoteVersion,
		EntityID: v.ID,
		Action:   models.ActionInsert,
		Changed:  map[string]any{"variant_id": variantID, "version": next, "notes": notes},
		UserID:   actor.ID,
		Metadata: meta,
	})
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing version insert: %w", err)
	}

	return v, nil
}

// DeleteVariant retires one variant and its versions, validating the
// variant's own edit lock first.
func (s *QuoteStore) DeleteVariant(ctx context.Context, variantID string, actor *models.User) error {
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

	query := fmt.Sprintf("SELECT %s FROM quote_variants WHERE id = $1 AND NOT deleted FOR UPDATE", variantColumns)

	v, err := scanVariant(tx.QueryRow(ctx, query, variantID).Scan)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.ErrQuoteVariantNotFound
		}

		return fmt.Errorf("fetching quote variant: %w", err)
	}

	if err := s.requireUnlocked(v.LockState, models.KindQuoteVariant, variantID, actor.ID); err != nil {
		return err
	}

	if err := softDeleteVariantTreeTx(ctx, tx, v, actor.ID, nil); err != nil {
		return err
	}

	return tx.Commit(ctx)
}
