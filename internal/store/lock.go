package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/offerdesk/offerdesk/internal/metrics"
	"github.com/offerdesk/offerdesk/internal/models"
)

// LockStore handles edit-lock acquisition, release, and validation for
// all lockable entity kinds.
type LockStore struct {
	Base
}

// NewLockStore creates a LockStore.
func NewLockStore(base Base) *LockStore {
	return &LockStore{Base: base}
}

// fetchLockTx reads an entity's lock columns inside tx. With forUpdate
// the row stays locked until the transaction ends, so a check followed
// by a mutation in the same transaction has no time-of-check/time-of-use
// gap.
func fetchLockTx(ctx context.Context, tx pgx.Tx, kind models.EntityKind, id string, forUpdate bool) (models.LockState, error) {
	table, err := tableForKind(kind)
	if err != nil {
		return models.LockState{}, err
	}

	if !kind.Lockable() {
		return models.LockState{}, fmt.Errorf("entity kind %q is not lockable", string(kind))
	}

	query := fmt.Sprintf("SELECT blocked, blocked_by FROM %s WHERE id = $1 AND NOT deleted", table)
	if forUpdate {
		query += " FOR UPDATE"
	}

	var lock models.LockState

	err = tx.QueryRow(ctx, query, id).Scan(&lock.Blocked, &lock.BlockedBy)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.LockState{}, kind.NotFoundErr()
		}

		return models.LockState{}, fmt.Errorf("reading lock state: %w", err)
	}

	return lock, nil
}

// requireUnlocked validates an already-fetched lock state against the
// actor. Every conflict, whichever operation raised it, goes through
// here so the conflict counter sees all of them.
func (b *Base) requireUnlocked(lock models.LockState, kind models.EntityKind, id, actorID string) error {
	if err := lock.ConflictsWith(kind, id, actorID, time.Now(), b.LockTTL); err != nil {
		metrics.LockConflictsTotal.Inc()

		return err
	}

	return nil
}

// checkEditableTx validates that actor may edit the entity, inside the
// caller's transaction. Mutating operations pass forUpdate=true so the
// validation and the following mutation are one atomic unit.
func (b *Base) checkEditableTx(ctx context.Context, tx pgx.Tx, kind models.EntityKind, id string, actor *models.User, forUpdate bool) error {
	if err := requireActor(actor); err != nil {
		return err
	}

	lock, err := fetchLockTx(ctx, tx, kind, id, forUpdate)
	if err != nil {
		return err
	}

	return b.requireUnlocked(lock, kind, id, actor.ID)
}

// CheckEditable is the read-only preflight used by the UI before opening
// an edit form. It has no side effects; mutating operations re-validate
// inside their own transaction.
func (s *LockStore) CheckEditable(ctx context.Context, kind models.EntityKind, id string, actor *models.User) error {
	if err := requireActor(actor); err != nil {
		return err
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.beginReadTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck // read-only, rollback is the normal exit.

	lock, err := fetchLockTx(ctx, tx, kind, id, false)
	if err != nil {
		return err
	}

	return s.requireUnlocked(lock, kind, id, actor.ID)
}

// Acquire takes the edit lock for actor. Succeeds when the row is
// unlocked, already held by actor (re-entrant, refreshes the
// timestamp), or held by an expired lock.
func (s *LockStore) Acquire(ctx context.Context, kind models.EntityKind, id string, actor *models.User) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.beginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback after commit.

	if err := s.checkEditableTx(ctx, tx, kind, id, actor, true); err != nil {
		return err
	}

	table, err := tableForKind(kind)
	if err != nil {
		return err
	}

	query := fmt.Sprintf("UPDATE %s SET blocked = NOW(), blocked_by = $1 WHERE id = $2", table)
	if _, err := tx.Exec(ctx, query, actor.ID, id); err != nil {
		return fmt.Errorf("acquiring lock: %w", err)
	}

	return tx.Commit(ctx)
}

// Release clears the edit lock. Only the holder may release; force
// allows an administrative override of someone else's lock.
func (s *LockStore) Release(ctx context.Context, kind models.EntityKind, id string, actor *models.User, force bool) error {
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

	lock, err := fetchLockTx(ctx, tx, kind, id, true)
	if err != nil {
		return err
	}

	holder, since, held := lock.Holder(time.Now(), s.LockTTL)
	if !force && held && holder != actor.ID {
		return &models.LockConflictError{Kind: kind, EntityID: id, LockedBy: holder, LockedAt: since}
	}

	table, err := tableForKind(kind)
	if err != nil {
		return err
	}

	query := fmt.Sprintf("UPDATE %s SET blocked = NULL, blocked_by = NULL WHERE id = $1", table)
	if _, err := tx.Exec(ctx, query, id); err != nil {
		return fmt.Errorf("releasing lock: %w", err)
	}

	// Breaking someone else's lock leaves a trace; a normal release of
	// one's own lock does not.
	if force && held && holder != actor.ID {
		err := recordAudit(ctx, tx, models.AuditDraft{
			Kind:     kind,
			EntityID: id,
			Action:   models.ActionUpdate,
			Changed: map[string]models.FieldChange{
				"blocked_by": {Old: holder, New: nil},
			},
			UserID:   actor.ID,
			Metadata: map[string]any{"forced_unlock": true},
		})
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// ReleaseExpired clears locks older than the TTL across all lockable
// tables. Returns the number of locks cleared. Run periodically by the
// lock sweeper; a crashed client's lock disappears after one sweep.
func (s *LockStore) ReleaseExpired(ctx context.Context) (int, error) {
	if s.LockTTL <= 0 {
		return 0, nil
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	kinds := []models.EntityKind{
		models.KindArticle, models.KindBlock, models.KindQuote,
		models.KindQuoteVariant, models.KindQuoteVersion, models.KindOpportunity,
	}

	var total int

	for _, kind := range kinds {
		table, err := tableForKind(kind)
		if err != nil {
			return total, err
		}

		query := fmt.Sprintf(
			"UPDATE %s SET blocked = NULL, blocked_by = NULL WHERE blocked IS NOT NULL AND blocked < NOW() - make_interval(secs => $1)",
			table,
		)

		tag, err := s.Pool.Exec(ctx, query, s.LockTTL.Seconds())
		if err != nil {
			return total, fmt.Errorf("releasing expired locks on %s: %w", table, err)
		}

		total += int(tag.RowsAffected())
	}

	if total > 0 {
		metrics.ExpiredLocksReleasedTotal.Add(float64(total))
	}

	return total, nil
}
