// Package store provides focused, single-concern data access stores for
// the offerdesk quotation domain.
//
// Each store owns one entity kind (articles, blocks, quotes, ...) and
// embeds shared helpers (Pool, logger, lock TTL) via the Base struct.
// Stores never import each other — shared logic lives in this file or in
// dedicated helper files (audited.go, lock.go, content.go).
package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"

	"github.com/offerdesk/offerdesk/internal/dbpool"
	"github.com/offerdesk/offerdesk/internal/models"
)

const defaultQueryTimeout = 30 * time.Second

// maxListLimit caps page sizes across all list queries.
const maxListLimit = 1000

// Base contains shared dependencies for all stores.
// Embed this in each store struct.
type Base struct {
	Pool *dbpool.Pool
	Log  *logrus.Logger

	// LockTTL is how long an edit lock stays authoritative. Locks older
	// than this are treated as abandoned. Zero disables expiry.
	LockTTL time.Duration
}

// withTimeout creates a context with the default query timeout.
func withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, defaultQueryTimeout)
}

// beginTx starts a read-write transaction.
func (b *Base) beginTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := b.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}

	return tx, nil
}

// beginReadTx starts a read-only transaction.
func (b *Base) beginReadTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := b.Pool.BeginTx(ctx, pgx.TxOptions{AccessMode: pgx.ReadOnly})
	if err != nil {
		return nil, fmt.Errorf("beginning read transaction: %w", err)
	}

	return tx, nil
}

// tableForKind resolves an entity kind to its table name. The mapping is
// the single place a kind turns into SQL, so a typo'd kind fails here
// instead of producing orphaned audit rows.
func tableForKind(kind models.EntityKind) (string, error) {
	switch kind {
	case models.KindArticle:
		return "articles", nil
	case models.KindBlock:
		return "blocks", nil
	case models.KindBlockContent:
		return "block_content", nil
	case models.KindCalculationItem:
		return "article_calculation_items", nil
	case models.KindQuote:
		return "quotes", nil
	case models.KindQuoteVariant:
		return "quote_variants", nil
	case models.KindQuoteVersion:
		return "quote_versions", nil
	case models.KindOpportunity:
		return "sales_opportunities", nil
	case models.KindUser:
		return "users", nil
	}

	return "", fmt.Errorf("unknown entity kind %q", string(kind))
}

// canonDecimal renders a caller-supplied amount in the money columns'
// text form, so diffs against a column rendering compare equal amounts
// as equal ("19.9" and "19.90" are the same price). Invalid input
// surfaces as a numeric cast error before anything is written.
func canonDecimal(ctx context.Context, tx pgx.Tx, val string) (string, error) {
	var canon string

	err := tx.QueryRow(ctx, "SELECT $1::numeric(14,2)::text", val).Scan(&canon)
	if err != nil {
		return "", fmt.Errorf("normalizing decimal %q: %w", val, err)
	}

	return canon, nil
}

// requireActor guards every mutating operation: no acting user, no write.
func requireActor(actor *models.User) error {
	if actor == nil || actor.ID == "" {
		return models.ErrNotAuthenticated
	}

	return nil
}

// GetUserByToken looks up a user by API token hash. Used by the auth
// middleware on every request; results are never cached.
func (b *Base) GetUserByToken(ctx context.Context, token string) (*models.User, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	hash := sha256.Sum256([]byte(token))
	tokenHash := hex.EncodeToString(hash[:])

	var u models.User

	err := b.Pool.QueryRow(ctx,
		"SELECT id, name, email, created_at FROM users WHERE api_token_hash = $1",
		tokenHash,
	).Scan(&u.ID, &u.Name, &u.Email, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrUserNotFound
		}

		return nil, fmt.Errorf("looking up user by token: %w", err)
	}

	return &u, nil
}
