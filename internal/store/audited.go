package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/offerdesk/offerdesk/internal/metrics"
	"github.com/offerdesk/offerdesk/internal/models"
)

// recordAudit writes one audit entry inside the caller's transaction.
// The entry commits or rolls back together with the mutation it
// describes, so the audit log and entity tables can never diverge.
func recordAudit(ctx context.Context, tx pgx.Tx, draft models.AuditDraft) error {
	if err := draft.Validate(); err != nil {
		return err
	}

	var changedJSON []byte

	if draft.Changed != nil {
		var err error

		changedJSON, err = json.Marshal(draft.Changed)
		if err != nil {
			return fmt.Errorf("marshaling changed fields: %w", err)
		}
	}

	var metaJSON []byte

	if draft.Metadata != nil {
		var err error

		metaJSON, err = json.Marshal(draft.Metadata)
		if err != nil {
			return fmt.Errorf("marshaling audit metadata: %w", err)
		}
	}

	_, err := tx.Exec(ctx, `
		INSERT INTO audit_log (entity_kind, entity_id, action, changed_fields, user_id, metadata)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		string(draft.Kind), draft.EntityID, string(draft.Action), changedJSON, draft.UserID, metaJSON,
	)
	if err != nil {
		return fmt.Errorf("inserting audit entry: %w", err)
	}

	metrics.AuditEntriesTotal.WithLabelValues(string(draft.Action)).Inc()

	return nil
}

// withAudit runs op and writes one audit entry from draft in a single
// transaction. For INSERT drafts with no entity ID yet, the ID returned
// by op is back-filled before the entry is written (the created row's ID
// only exists once the insert ran). Either both the mutation and the
// entry commit, or neither does.
func (b *Base) withAudit(ctx context.Context, draft models.AuditDraft, op func(pgx.Tx) (string, error)) error {
	tx, err := b.beginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback after commit.

	id, err := op(tx)
	if err != nil {
		return err
	}

	if draft.Action == models.ActionInsert && draft.EntityID == "" {
		draft.EntityID = id
	}

	if err := recordAudit(ctx, tx, draft); err != nil {
		return err
	}

	return tx.Commit(ctx)
}
