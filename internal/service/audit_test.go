package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/offerdesk/offerdesk/internal/models"
)

func TestAuditService_Query_ForwardsOpts(t *testing.T) {
	var gotOpts models.AuditQueryOpts
	store := &mockAuditReader{
		query: func(_ context.Context, opts models.AuditQueryOpts) ([]models.HistoryEntry, bool, error) {
			gotOpts = opts
			return []models.HistoryEntry{{}}, false, nil
		},
	}
	svc := NewAuditService(store, quietLogger())

	entries, hasMore, err := svc.Query(context.Background(), models.AuditQueryOpts{
		Kind:   models.KindArticle,
		Action: models.ActionUpdate,
		Limit:  10,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hasMore || len(entries) != 1 {
		t.Errorf("got %d entries hasMore=%v", len(entries), hasMore)
	}
	if gotOpts.Kind != models.KindArticle || gotOpts.Action != models.ActionUpdate || gotOpts.Limit != 10 {
		t.Errorf("opts not forwarded: %+v", gotOpts)
	}
}

func TestAuditService_GetChangeHistory_WrapsFailure(t *testing.T) {
	store := &mockAuditReader{
		query: func(_ context.Context, _ models.AuditQueryOpts) ([]models.HistoryEntry, bool, error) {
			return nil, false, errors.New("query timeout")
		},
	}
	svc := NewAuditService(store, quietLogger())

	_, _, err := svc.GetChangeHistory(context.Background(), models.KindQuote, "q1", 50, 0)

	var opErr *models.OperationFailedError
	if !errors.As(err, &opErr) {
		t.Fatalf("expected OperationFailedError, got %T: %v", err, err)
	}
}

func TestAuditService_RunRetention_DisabledAtZero(t *testing.T) {
	store := &mockAuditReader{
		purge: func(_ context.Context, _ int) (int, error) {
			t.Error("purge must not run when retention is disabled")
			return 0, nil
		},
	}
	svc := NewAuditService(store, quietLogger())

	done := make(chan struct{})
	go func() {
		svc.RunRetention(context.Background(), time.Millisecond, 0)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("RunRetention did not return for zero retention")
	}
}

func TestAuditService_RunRetention_Purges(t *testing.T) {
	purged := make(chan int, 8)
	store := &mockAuditReader{
		purge: func(_ context.Context, days int) (int, error) {
			purged <- days
			return 5, nil
		},
	}
	svc := NewAuditService(store, quietLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go svc.RunRetention(ctx, 10*time.Millisecond, 90)

	select {
	case days := <-purged:
		if days != 90 {
			t.Errorf("retention days = %d, want 90", days)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("purge never ran")
	}
}
