package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/offerdesk/offerdesk/internal/models"
)

// LockStore is the data-access interface LockService depends on.
type LockStore interface {
	CheckEditable(ctx context.Context, kind models.EntityKind, id string, actor *models.User) error
	Acquire(ctx context.Context, kind models.EntityKind, id string, actor *models.User) error
	Release(ctx context.Context, kind models.EntityKind, id string, actor *models.User, force bool) error
	ReleaseExpired(ctx context.Context) (int, error)
}

// LockService wraps LockStore with the error propagation policy and
// runs the background sweep that clears abandoned locks.
type LockService struct {
	store LockStore
	log   *logrus.Logger
}

// NewLockService creates a LockService.
func NewLockService(store LockStore, log *logrus.Logger) *LockService {
	return &LockService{store: store, log: log}
}

// CheckEditable reports whether actor may edit the entity right now.
// This is advisory; every mutation re-validates inside its own
// transaction.
func (s *LockService) CheckEditable(ctx context.Context, kind models.EntityKind, id string, actor *models.User) error {
	err := s.store.CheckEditable(ctx, kind, id, actor)

	return wrapFailure(s.log, "failed to check edit lock", err)
}

// Acquire takes the edit lock for actor. Re-acquiring a lock the actor
// already holds refreshes its timestamp.
func (s *LockService) Acquire(ctx context.Context, kind models.EntityKind, id string, actor *models.User) error {
	err := s.store.Acquire(ctx, kind, id, actor)

	return wrapFailure(s.log, "failed to acquire edit lock", err)
}

// Release drops the edit lock. With force set, another user's lock may
// be broken; the forced release is audited by the store.
func (s *LockService) Release(ctx context.Context, kind models.EntityKind, id string, actor *models.User, force bool) error {
	err := s.store.Release(ctx, kind, id, actor, force)

	return wrapFailure(s.log, "failed to release edit lock", err)
}

// RunSweeper periodically clears locks older than the configured TTL.
// It blocks until ctx is cancelled.
func (s *LockService) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.store.ReleaseExpired(ctx)
			if err != nil {
				s.log.WithError(err).Warn("lock sweep failed")
				continue
			}
			if n > 0 {
				s.log.WithField("released", n).Info("released expired edit locks")
			}
		}
	}
}
