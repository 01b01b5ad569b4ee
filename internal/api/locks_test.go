package api_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/offerdesk/offerdesk/internal/api"
	"github.com/offerdesk/offerdesk/internal/models"
)

func TestLockAcquire_Free(t *testing.T) {
	t.Parallel()

	var gotKind models.EntityKind
	svc := &mockLockService{
		acquireFn: func(_ context.Context, kind models.EntityKind, _ string, actor *models.User) error {
			gotKind = kind
			if actor.ID != "u1" {
				t.Errorf("actor = %q, want u1", actor.ID)
			}
			return nil
		},
	}

	r := newTestRouter()
	h := api.NewLockHandler(svc, testLogger())
	r.POST("/locks/:kind/:id", h.Acquire)

	w := doRequest(r, http.MethodPost, "/locks/articles/a1", "")

	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", w.Code, w.Body.String())
	}
	if gotKind != models.KindArticle {
		t.Errorf("kind = %q, want %q", gotKind, models.KindArticle)
	}
}

func TestLockAcquire_Conflict(t *testing.T) {
	t.Parallel()

	svc := &mockLockService{
		acquireFn: func(_ context.Context, kind models.EntityKind, id string, _ *models.User) error {
			return &models.LockConflictError{
				Kind:     kind,
				EntityID: id,
				LockedBy: "u2",
				LockedAt: time.Now().Add(-5 * time.Minute),
			}
		},
	}

	r := newTestRouter()
	h := api.NewLockHandler(svc, testLogger())
	r.POST("/locks/:kind/:id", h.Acquire)

	w := doRequest(r, http.MethodPost, "/locks/quotes/q1", "")

	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", w.Code, w.Body.String())
	}
}

func TestLockAcquire_UnknownKind(t *testing.T) {
	t.Parallel()

	r := newTestRouter()
	h := api.NewLockHandler(&mockLockService{}, testLogger())
	r.POST("/locks/:kind/:id", h.Acquire)

	w := doRequest(r, http.MethodPost, "/locks/invoices/x1", "")

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
}

func TestLockAcquire_UnlockableKind(t *testing.T) {
	t.Parallel()

	r := newTestRouter()
	h := api.NewLockHandler(&mockLockService{}, testLogger())
	r.POST("/locks/:kind/:id", h.Acquire)

	// block_content rows have no lock columns.
	w := doRequest(r, http.MethodPost, "/locks/block_content/c1", "")

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
}

func TestLockRelease_ForceFlag(t *testing.T) {
	t.Parallel()

	var gotForce bool
	svc := &mockLockService{
		releaseFn: func(_ context.Context, _ models.EntityKind, _ string, _ *models.User, force bool) error {
			gotForce = force
			return nil
		},
	}

	r := newTestRouter()
	h := api.NewLockHandler(svc, testLogger())
	r.DELETE("/locks/:kind/:id", h.Release)

	w := doRequest(r, http.MethodDelete, "/locks/articles/a1?force=true", "")

	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", w.Code, w.Body.String())
	}
	if !gotForce {
		t.Error("force flag not forwarded")
	}
}

func TestLockCheck_Free(t *testing.T) {
	t.Parallel()

	svc := &mockLockService{
		checkFn: func(_ context.Context, _ models.EntityKind, _ string, _ *models.User) error {
			return nil
		},
	}

	r := newTestRouter()
	h := api.NewLockHandler(svc, testLogger())
	r.GET("/locks/:kind/:id", h.Check)

	w := doRequest(r, http.MethodGet, "/locks/quotes/q1", "")

	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", w.Code, w.Body.String())
	}
}
