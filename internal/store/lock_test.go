package store_test

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/offerdesk/offerdesk/internal/metrics"
	"github.com/offerdesk/offerdesk/internal/models"
	"github.com/offerdesk/offerdesk/internal/store"
)

func TestLockAcquireReleaseRoundtrip(t *testing.T) {
	base, actor := setupTestBase(t)
	ls := store.NewLockStore(base)
	ctx := context.Background()

	a := createTestArticle(t, base, actor)

	if err := ls.Acquire(ctx, models.KindArticle, a.ID, actor); err != nil {
		t.Fatalf("Acquire: %v", err)
	}

	// Re-acquiring one's own lock refreshes it.
	if err := ls.Acquire(ctx, models.KindArticle, a.ID, actor); err != nil {
		t.Fatalf("re-entrant Acquire: %v", err)
	}

	if err := ls.CheckEditable(ctx, models.KindArticle, a.ID, actor); err != nil {
		t.Fatalf("holder should be editable: %v", err)
	}

	if err := ls.Release(ctx, models.KindArticle, a.ID, actor, false); err != nil {
		t.Fatalf("Release: %v", err)
	}
}

func TestLockConflictForOtherUser(t *testing.T) {
	base, actor := setupTestBase(t)
	other := secondUser(t, getTestEnv(t))
	ls := store.NewLockStore(base)
	ctx := context.Background()

	a := createTestArticle(t, base, actor)

	if err := ls.Acquire(ctx, models.KindArticle, a.ID, other); err != nil {
		t.Fatalf("Acquire by other: %v", err)
	}

	var lockErr *models.LockConflictError

	if err := ls.CheckEditable(ctx, models.KindArticle, a.ID, actor); !errors.As(err, &lockErr) {
		t.Fatalf("CheckEditable: expected LockConflictError, got %v", err)
	}
	if err := ls.Acquire(ctx, models.KindArticle, a.ID, actor); !errors.As(err, &lockErr) {
		t.Fatalf("Acquire: expected LockConflictError, got %v", err)
	}
	if err := ls.Release(ctx, models.KindArticle, a.ID, actor, false); !errors.As(err, &lockErr) {
		t.Fatalf("Release without force: expected LockConflictError, got %v", err)
	}
}

func TestLockForcedReleaseIsAudited(t *testing.T) {
	base, actor := setupTestBase(t)
	other := secondUser(t, getTestEnv(t))
	ls := store.NewLockStore(base)
	ctx := context.Background()

	a := createTestArticle(t, base, actor)

	if err := ls.Acquire(ctx, models.KindArticle, a.ID, other); err != nil {
		t.Fatalf("Acquire by other: %v", err)
	}

	if err := ls.Release(ctx, models.KindArticle, a.ID, actor, true); err != nil {
		t.Fatalf("forced Release: %v", err)
	}

	entries := auditEntries(t, base, models.KindArticle, a.ID)
	if entries[0].Metadata["forced_unlock"] != true {
		t.Errorf("newest entry is not the forced unlock: %+v", entries[0])
	}
	if entries[0].UserID != actor.ID {
		t.Errorf("forced unlock attributed to %q, want %q", entries[0].UserID, actor.ID)
	}

	// After the break the actor can lock.
	if err := ls.Acquire(ctx, models.KindArticle, a.ID, actor); err != nil {
		t.Fatalf("Acquire after forced release: %v", err)
	}
}

func TestExpiredLockIsFree(t *testing.T) {
	base, actor := setupTestBase(t)
	other := secondUser(t, getTestEnv(t))
	env := getTestEnv(t)
	ls := store.NewLockStore(base)
	ctx := context.Background()

	a := createTestArticle(t, base, actor)

	if err := ls.Acquire(ctx, models.KindArticle, a.ID, other); err != nil {
		t.Fatalf("Acquire by other: %v", err)
	}

	// Backdate the lock past the TTL.
	_, err := env.pool.Exec(ctx,
		"UPDATE articles SET blocked = NOW() - INTERVAL '2 hours' WHERE id = $1", a.ID)
	if err != nil {
		t.Fatalf("backdating lock: %v", err)
	}

	if err := ls.CheckEditable(ctx, models.KindArticle, a.ID, actor); err != nil {
		t.Fatalf("expired lock should not block: %v", err)
	}
	if err := ls.Acquire(ctx, models.KindArticle, a.ID, actor); err != nil {
		t.Fatalf("Acquire over expired lock: %v", err)
	}
}

func TestReleaseExpiredSweepsBackdatedLocks(t *testing.T) {
	base, actor := setupTestBase(t)
	env := getTestEnv(t)
	ls := store.NewLockStore(base)
	ctx := context.Background()

	a := createTestArticle(t, base, actor)

	if err := ls.Acquire(ctx, models.KindArticle, a.ID, actor); err != nil {
		t.Fatalf("Acquire: %v", err)
	}

	_, err := env.pool.Exec(ctx,
		"UPDATE articles SET blocked = NOW() - INTERVAL '2 hours' WHERE id = $1", a.ID)
	if err != nil {
		t.Fatalf("backdating lock: %v", err)
	}

	n, err := ls.ReleaseExpired(ctx)
	if err != nil {
		t.Fatalf("ReleaseExpired: %v", err)
	}
	if n < 1 {
		t.Fatalf("ReleaseExpired cleared %d locks, want at least 1", n)
	}

	var blocked *string

	err = env.pool.QueryRow(ctx, "SELECT blocked_by FROM articles WHERE id = $1", a.ID).Scan(&blocked)
	if err != nil {
		t.Fatalf("reading lock state: %v", err)
	}
	if blocked != nil {
		t.Errorf("lock still held by %q after sweep", *blocked)
	}
}

func TestLockOnDeletedEntity(t *testing.T) {
	base, actor := setupTestBase(t)
	as := store.NewArticleStore(base)
	ls := store.NewLockStore(base)
	ctx := context.Background()

	a := createTestArticle(t, base, actor)

	if _, err := as.SoftDelete(ctx, a.ID, actor, nil); err != nil {
		t.Fatalf("SoftDelete: %v", err)
	}

	err := ls.Acquire(ctx, models.KindArticle, a.ID, actor)
	if !errors.Is(err, models.ErrArticleNotFound) {
		t.Fatalf("expected ErrArticleNotFound for deleted entity, got %v", err)
	}
}

func TestEntityUpdateConflictCountsInLockMetric(t *testing.T) {
	base, actor := setupTestBase(t)
	other := secondUser(t, getTestEnv(t))
	as := store.NewArticleStore(base)
	ls := store.NewLockStore(base)
	ctx := context.Background()

	a := createTestArticle(t, base, actor)

	if err := ls.Acquire(ctx, models.KindArticle, a.ID, other); err != nil {
		t.Fatalf("Acquire by other: %v", err)
	}

	before := testutil.ToFloat64(metrics.LockConflictsTotal)

	newName := "Gadget"

	var lockErr *models.LockConflictError
	if _, err := as.Update(ctx, a.ID, models.UpdateArticleRequest{Name: &newName}, actor, nil); !errors.As(err, &lockErr) {
		t.Fatalf("expected LockConflictError, got %v", err)
	}

	if got := testutil.ToFloat64(metrics.LockConflictsTotal); got != before+1 {
		t.Errorf("conflict counter went %v -> %v, want one increment", before, got)
	}
}
