package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/offerdesk/offerdesk/internal/models"
)

func TestLockService_Acquire_PassesLockConflict(t *testing.T) {
	lockErr := &models.LockConflictError{
		Kind:     models.KindQuote,
		EntityID: "q1",
		LockedBy: "u2",
		LockedAt: time.Now().Add(-time.Minute),
	}
	store := &mockLockStore{
		acquire: func(_ context.Context, _ models.EntityKind, _ string, _ *models.User) error {
			return lockErr
		},
	}
	svc := NewLockService(store, quietLogger())

	err := svc.Acquire(context.Background(), models.KindQuote, "q1", testActor())

	var got *models.LockConflictError
	if !errors.As(err, &got) {
		t.Fatalf("expected LockConflictError, got %T: %v", err, err)
	}
	if got.LockedBy != "u2" {
		t.Errorf("locked_by = %q, want %q", got.LockedBy, "u2")
	}
}

func TestLockService_Release_WrapsInfraErrors(t *testing.T) {
	store := &mockLockStore{
		release: func(_ context.Context, _ models.EntityKind, _ string, _ *models.User, _ bool) error {
			return errors.New("deadlock detected")
		},
	}
	svc := NewLockService(store, quietLogger())

	err := svc.Release(context.Background(), models.KindArticle, "a1", testActor(), false)

	var opErr *models.OperationFailedError
	if !errors.As(err, &opErr) {
		t.Fatalf("expected OperationFailedError, got %T: %v", err, err)
	}
	if opErr.Message != "failed to release edit lock" {
		t.Errorf("message = %q", opErr.Message)
	}
}

func TestLockService_RunSweeper_ReleasesOnTick(t *testing.T) {
	store := &mockLockStore{
		releaseExpired: func(_ context.Context) (int, error) {
			return 2, nil
		},
	}
	svc := NewLockService(store, quietLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		svc.RunSweeper(ctx, 10*time.Millisecond)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for store.callCount("ReleaseExpired") < 2 {
		select {
		case <-deadline:
			t.Fatal("sweeper never ran twice")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop on cancel")
	}
}

func TestLockService_RunSweeper_SurvivesErrors(t *testing.T) {
	store := &mockLockStore{
		releaseExpired: func(_ context.Context) (int, error) {
			return 0, errors.New("db down")
		},
	}
	svc := NewLockService(store, quietLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		svc.RunSweeper(ctx, 10*time.Millisecond)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for store.callCount("ReleaseExpired") < 3 {
		select {
		case <-deadline:
			t.Fatal("sweeper stopped after an error")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()
	<-done
}
