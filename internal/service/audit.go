package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/offerdesk/offerdesk/internal/models"
)

// AuditReader is the data-access interface AuditService depends on.
type AuditReader interface {
	Query(ctx context.Context, opts models.AuditQueryOpts) ([]models.HistoryEntry, bool, error)
	GetChangeHistory(ctx context.Context, kind models.EntityKind, entityID string, limit, offset int) ([]models.HistoryEntry, bool, error)
	PurgeOldEntries(ctx context.Context, retentionDays int) (int, error)
}

// AuditService exposes read access to the audit log. Writes never go
// through here: audit entries are only created inside the transactions
// that perform the mutations they describe.
type AuditService struct {
	store AuditReader
	log   *logrus.Logger
}

// NewAuditService creates an AuditService.
func NewAuditService(store AuditReader, log *logrus.Logger) *AuditService {
	return &AuditService{store: store, log: log}
}

// Query returns a filtered page of the global audit feed.
func (s *AuditService) Query(ctx context.Context, opts models.AuditQueryOpts) ([]models.HistoryEntry, bool, error) {
	entries, hasMore, err := s.store.Query(ctx, opts)

	return entries, hasMore, wrapFailure(s.log, "failed to query audit log", err)
}

// GetChangeHistory returns the audit trail for one entity, newest first.
func (s *AuditService) GetChangeHistory(ctx context.Context, kind models.EntityKind, entityID string, limit, offset int) ([]models.HistoryEntry, bool, error) {
	entries, hasMore, err := s.store.GetChangeHistory(ctx, kind, entityID, limit, offset)

	return entries, hasMore, wrapFailure(s.log, "failed to load change history", err)
}

// RunRetention periodically purges audit entries older than
// retentionDays. A retentionDays of zero disables purging and the
// method returns immediately. Blocks until ctx is cancelled.
func (s *AuditService) RunRetention(ctx context.Context, interval time.Duration, retentionDays int) {
	if retentionDays <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.store.PurgeOldEntries(ctx, retentionDays)
			if err != nil {
				s.log.WithError(err).Warn("audit retention purge failed")
				continue
			}
			if n > 0 {
				s.log.WithFields(logrus.Fields{
					"purged":         n,
					"retention_days": retentionDays,
				}).Info("purged old audit entries")
			}
		}
	}
}
