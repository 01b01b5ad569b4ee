package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/offerdesk/offerdesk/internal/models"
)

// AuditStore provides read access to the shared append-only audit_log
// table plus retention maintenance. Entries are never written through
// this store directly; writes happen via recordAudit inside the mutating
// transaction of an entity operation.
type AuditStore struct {
	Base
}

// NewAuditStore creates an AuditStore.
func NewAuditStore(base Base) *AuditStore {
	return &AuditStore{Base: base}
}

// historyColumns is the join of audit rows with actor display info.
const historyColumns = `a.id, a.entity_kind, a.entity_id, a.action, a.changed_fields,
	a.user_id, a.metadata, a.created_at, COALESCE(u.name, ''), COALESCE(u.email, '')`

// buildAuditFilter builds WHERE clause and args from AuditQueryOpts.
func buildAuditFilter(opts models.AuditQueryOpts) (where string, args []any, nextArg int) {
	var conditions []string
	argIdx := 1

	if opts.Kind != "" {
		conditions = append(conditions, "a.entity_kind = $"+strconv.Itoa(argIdx))
		args = append(args, string(opts.Kind))
		argIdx++
	}
	if opts.EntityID != "" {
		conditions = append(conditions, "a.entity_id = $"+strconv.Itoa(argIdx))
		args = append(args, opts.EntityID)
		argIdx++
	}
	if opts.Action != "" {
		conditions = append(conditions, "a.action = $"+strconv.Itoa(argIdx))
		args = append(args, string(opts.Action))
		argIdx++
	}
	if opts.UserID != "" {
		conditions = append(conditions, "a.user_id = $"+strconv.Itoa(argIdx))
		args = append(args, opts.UserID)
		argIdx++
	}
	if opts.Since != nil {
		conditions = append(conditions, "a.created_at >= $"+strconv.Itoa(argIdx))
		args = append(args, *opts.Since)
		argIdx++
	}

	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	return where, args, argIdx
}

// Query returns audit entries matching the given filters, newest first,
// joined with actor display info. Serves the single-entity history, the
// per-user activity feed, and the global recent-changes feed.
// Returns entries, hasMore flag, and any error.
func (s *AuditStore) Query(
	ctx context.Context, opts models.AuditQueryOpts,
) ([]models.HistoryEntry, bool, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.beginReadTx(ctx)
	if err != nil {
		return nil, false, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck // read-only, rollback is the normal exit.

	where, args, argIdx := buildAuditFilter(opts)

	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	query := fmt.Sprintf(
		`SELECT %s FROM audit_log a
		LEFT JOIN users u ON u.id = a.user_id
		%s ORDER BY a.created_at DESC, a.id DESC LIMIT $%d OFFSET $%d`,
		historyColumns, where, argIdx, argIdx+1,
	)
	args = append(args, limit+1, opts.Offset)

	entries, err := scanHistoryRows(ctx, tx, query, args)
	if err != nil {
		return nil, false, err
	}

	hasMore := len(entries) > limit
	if hasMore {
		entries = entries[:limit]
	}

	return entries, hasMore, nil
}

// GetChangeHistory returns the ordered audit trail for one entity.
func (s *AuditStore) GetChangeHistory(
	ctx context.Context, kind models.EntityKind, entityID string, limit, offset int,
) ([]models.HistoryEntry, bool, error) {
	return s.Query(ctx, models.AuditQueryOpts{
		Kind:     kind,
		EntityID: entityID,
		Limit:    limit,
		Offset:   offset,
	})
}

// scanHistoryRows executes a query and scans joined audit entries.
func scanHistoryRows(ctx context.Context, tx pgx.Tx, query string, args []any) ([]models.HistoryEntry, error) {
	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying audit log: %w", err)
	}
	defer rows.Close()

	var entries []models.HistoryEntry

	for rows.Next() {
		var e models.HistoryEntry
		var kind, action string
		var changed, meta []byte

		if err := rows.Scan(
			&e.ID, &kind, &e.EntityID, &action, &changed,
			&e.UserID, &meta, &e.CreatedAt, &e.UserName, &e.UserEmail,
		); err != nil {
			return nil, fmt.Errorf("scanning audit entry: %w", err)
		}

		e.Kind = models.EntityKind(kind)
		e.Action = models.AuditAction(action)
		e.ChangedFields = changed

		if meta != nil {
			if err := json.Unmarshal(meta, &e.Metadata); err != nil {
				return nil, fmt.Errorf("decoding audit metadata: %w", err)
			}
		}

		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating audit rows: %w", err)
	}

	return entries, nil
}

// fetchAttribution finds the single most recent audit entry across the
// entity itself and its content children, joined to the actor. Returns
// nil when no history exists (legacy or seeded rows). Ties on created_at
// break by audit id descending, i.e. insertion order.
func fetchAttribution(
	ctx context.Context, tx pgx.Tx, kind models.EntityKind, entityID string, childIDs []string,
) (*models.Attribution, error) {
	if childIDs == nil {
		childIDs = []string{}
	}

	var (
		attr      models.Attribution
		entryKind string
	)

	err := tx.QueryRow(ctx, `
		SELECT a.user_id, COALESCE(u.name, ''), COALESCE(u.email, ''), a.created_at, a.entity_kind
		FROM audit_log a
		LEFT JOIN users u ON u.id = a.user_id
		WHERE (a.entity_kind = $1 AND a.entity_id = $2)
		   OR (a.entity_kind = $3 AND a.entity_id = ANY($4))
		ORDER BY a.created_at DESC, a.id DESC
		LIMIT 1`,
		string(kind), entityID, string(models.KindBlockContent), childIDs,
	).Scan(&attr.UserID, &attr.Name, &attr.Email, &attr.Timestamp, &entryKind)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("querying change attribution: %w", err)
	}

	attr.ChangeType = models.ChangeTypeEntity
	if models.EntityKind(entryKind) == models.KindBlockContent {
		attr.ChangeType = models.ChangeTypeContent
	}

	return &attr, nil
}

// contentChildIDs lists all content rows (including soft-deleted ones;
// their audit history still attributes) owned by a parent.
func contentChildIDs(ctx context.Context, tx pgx.Tx, parentKind models.EntityKind, parentID string) ([]string, error) {
	rows, err := tx.Query(ctx,
		"SELECT id FROM block_content WHERE parent_kind = $1 AND parent_id = $2",
		string(parentKind), parentID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing content child ids: %w", err)
	}
	defer rows.Close()

	var ids []string

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning content child id: %w", err)
		}

		ids = append(ids, id)
	}

	return ids, rows.Err()
}

// purgeBatchSize limits the number of rows deleted per transaction to
// avoid holding long locks on audit_log.
const purgeBatchSize = 5000

// PurgeOldEntries deletes audit entries older than retentionDays in
// batches. Returns the number of deleted entries.
func (s *AuditStore) PurgeOldEntries(ctx context.Context, retentionDays int) (int, error) {
	var totalDeleted int

	for {
		batchCtx, cancel := withTimeout(ctx)

		deleted, err := s.purgeOldEntriesBatch(batchCtx, retentionDays)
		cancel()

		if err != nil {
			return totalDeleted, err
		}

		totalDeleted += deleted
		if deleted < purgeBatchSize {
			break
		}
	}

	return totalDeleted, nil
}

// purgeOldEntriesBatch deletes a single batch of expired audit entries.
func (s *AuditStore) purgeOldEntriesBatch(ctx context.Context, retentionDays int) (int, error) {
	tx, err := s.beginTx(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback on early return.

	tag, err := tx.Exec(ctx,
		`DELETE FROM audit_log WHERE ctid IN (
			SELECT ctid FROM audit_log
			WHERE created_at < NOW() - make_interval(days => $1)
			LIMIT $2
		)`,
		retentionDays, purgeBatchSize,
	)
	if err != nil {
		return 0, fmt.Errorf("purging audit entries: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}

	return int(tag.RowsAffected()), nil
}
