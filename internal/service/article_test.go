package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/offerdesk/offerdesk/internal/models"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)
	return log
}

func testActor() *models.User {
	return &models.User{ID: "u1", Name: "Alice", Email: "alice@example.com"}
}

func TestArticleService_Update_PassesDomainErrors(t *testing.T) {
	lockErr := &models.LockConflictError{
		Kind:     models.KindArticle,
		EntityID: "a1",
		LockedBy: "u2",
		LockedAt: time.Now(),
	}

	tests := []struct {
		name     string
		storeErr error
		wantSame bool // error must come back unchanged
	}{
		{name: "lock conflict", storeErr: lockErr, wantSame: true},
		{name: "not found", storeErr: models.ErrArticleNotFound, wantSame: true},
		{name: "not authenticated", storeErr: models.ErrNotAuthenticated, wantSame: true},
		{name: "infrastructure failure", storeErr: errors.New("connection refused"), wantSame: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			store := &mockArticleStore{
				update: func(_ context.Context, _ string, _ models.UpdateArticleRequest, _ *models.User, _ map[string]any) (*models.Article, error) {
					return nil, tc.storeErr
				},
			}
			svc := NewArticleService(store, quietLogger())

			_, err := svc.Update(context.Background(), "a1", models.UpdateArticleRequest{}, testActor(), nil)
			if err == nil {
				t.Fatal("expected error, got nil")
			}

			if tc.wantSame {
				if !errors.Is(err, tc.storeErr) {
					t.Errorf("domain error was wrapped: got %v, want %v", err, tc.storeErr)
				}
				var opErr *models.OperationFailedError
				if errors.As(err, &opErr) {
					t.Errorf("domain error wrapped as OperationFailedError: %v", err)
				}
				return
			}

			var opErr *models.OperationFailedError
			if !errors.As(err, &opErr) {
				t.Fatalf("expected OperationFailedError, got %T: %v", err, err)
			}
			if opErr.Message != "failed to save article" {
				t.Errorf("message = %q, want %q", opErr.Message, "failed to save article")
			}
			if !errors.Is(err, tc.storeErr) {
				t.Error("wrapped error lost its cause")
			}
		})
	}
}

func TestArticleService_Create_Success(t *testing.T) {
	store := &mockArticleStore{
		create: func(_ context.Context, req models.CreateArticleRequest, actor *models.User, _ map[string]any) (*models.Article, error) {
			if actor == nil || actor.ID != "u1" {
				t.Errorf("actor not forwarded: %+v", actor)
			}
			return &models.Article{ID: "a1", Name: req.Name}, nil
		},
	}
	svc := NewArticleService(store, quietLogger())

	a, err := svc.Create(context.Background(), models.CreateArticleRequest{Name: "Widget"}, testActor(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Name != "Widget" {
		t.Errorf("name = %q, want %q", a.Name, "Widget")
	}
	if len(store.calls) != 1 || store.calls[0] != "Create" {
		t.Errorf("expected single Create call, got %v", store.calls)
	}
}

func TestArticleService_Delete_PassesThroughResult(t *testing.T) {
	store := &mockArticleStore{
		softDelete: func(_ context.Context, id string, _ *models.User, _ map[string]any) (*models.Article, error) {
			return &models.Article{ID: id, Deleted: true}, nil
		},
	}
	svc := NewArticleService(store, quietLogger())

	a, err := svc.Delete(context.Background(), "a1", testActor(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !a.Deleted {
		t.Error("expected deleted article")
	}
}

func TestArticleService_List_ForwardsPagination(t *testing.T) {
	var gotLimit, gotOffset int
	store := &mockArticleStore{
		list: func(_ context.Context, limit, offset int) ([]models.Article, bool, error) {
			gotLimit, gotOffset = limit, offset
			return []models.Article{{ID: "a1"}}, true, nil
		},
	}
	svc := NewArticleService(store, quietLogger())

	articles, hasMore, err := svc.List(context.Background(), 25, 50)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotLimit != 25 || gotOffset != 50 {
		t.Errorf("pagination = (%d, %d), want (25, 50)", gotLimit, gotOffset)
	}
	if !hasMore || len(articles) != 1 {
		t.Errorf("got %d articles hasMore=%v, want 1 true", len(articles), hasMore)
	}
}
