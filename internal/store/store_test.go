package store_test

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/offerdesk/offerdesk/internal/dbpool"
	"github.com/offerdesk/offerdesk/internal/models"
	"github.com/offerdesk/offerdesk/internal/store"
)

// testEnv holds shared test infrastructure (single pool across all tests).
type testEnv struct {
	pool *dbpool.Pool
	log  *logrus.Logger
}

var sharedEnv *testEnv

func getTestEnv(t *testing.T) *testEnv {
	t.Helper()

	if sharedEnv != nil {
		return sharedEnv
	}

	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()

	pool, err := dbpool.NewPool(ctx, dbURL)
	if err != nil {
		t.Fatalf("connecting to test DB: %v", err)
	}

	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)

	sharedEnv = &testEnv{pool: pool, log: log}

	return sharedEnv
}

// setupTestBase creates a Base and a fresh test user, cleaned up after
// the test together with everything the user touched. The audit log is
// the source of truth for what to clean: every row the test created is
// attributable to its user.
func setupTestBase(t *testing.T) (store.Base, *models.User) {
	t.Helper()

	env := getTestEnv(t)
	ctx := context.Background()

	user := &models.User{
		ID:    uuid.New().String(),
		Name:  "Test User",
		Email: fmt.Sprintf("test-%s@example.com", uuid.New().String()[:8]),
	}

	token := "test-token-" + user.ID
	hash := sha256.Sum256([]byte(token))
	tokenHash := hex.EncodeToString(hash[:])

	_, err := env.pool.Exec(ctx,
		"INSERT INTO users (id, name, email, api_token_hash) VALUES ($1, $2, $3, $4)",
		user.ID, user.Name, user.Email, tokenHash,
	)
	if err != nil {
		t.Fatalf("creating test user: %v", err)
	}

	t.Cleanup(func() {
		cleanCtx := context.Background()
		for kind, table := range map[models.EntityKind]string{
			models.KindBlockContent: "block_content",
			models.KindQuoteVersion: "quote_versions",
			models.KindQuoteVariant: "quote_variants",
			models.KindQuote:        "quotes",
			models.KindArticle:      "articles",
			models.KindBlock:        "blocks",
			models.KindOpportunity:  "sales_opportunities",
		} {
			env.pool.Exec(cleanCtx, //nolint:errcheck // best-effort cleanup
				fmt.Sprintf("DELETE FROM %s WHERE id IN (SELECT DISTINCT entity_id::uuid FROM audit_log WHERE user_id = $1 AND entity_kind = $2)", table),
				user.ID, string(kind),
			)
		}
		env.pool.Exec(cleanCtx, "DELETE FROM audit_log WHERE user_id = $1", user.ID) //nolint:errcheck // best-effort cleanup
		env.pool.Exec(cleanCtx, "DELETE FROM users WHERE id = $1", user.ID)          //nolint:errcheck // best-effort cleanup
	})

	base := store.Base{Pool: env.pool, Log: env.log, LockTTL: 30 * time.Minute}

	return base, user
}

// secondUser inserts another user for lock conflict scenarios.
func secondUser(t *testing.T, env *testEnv) *models.User {
	t.Helper()

	user := &models.User{
		ID:    uuid.New().String(),
		Name:  "Other User",
		Email: fmt.Sprintf("other-%s@example.com", uuid.New().String()[:8]),
	}

	hash := sha256.Sum256([]byte("other-token-" + user.ID))

	_, err := env.pool.Exec(context.Background(),
		"INSERT INTO users (id, name, email, api_token_hash) VALUES ($1, $2, $3, $4)",
		user.ID, user.Name, user.Email, hex.EncodeToString(hash[:]),
	)
	if err != nil {
		t.Fatalf("creating second user: %v", err)
	}

	t.Cleanup(func() {
		cleanCtx := context.Background()
		sharedEnv.pool.Exec(cleanCtx, //nolint:errcheck // best-effort cleanup
			"DELETE FROM block_content WHERE id IN (SELECT DISTINCT entity_id::uuid FROM audit_log WHERE user_id = $1 AND entity_kind = 'block_content')",
			user.ID,
		)
		sharedEnv.pool.Exec(cleanCtx, "DELETE FROM audit_log WHERE user_id = $1", user.ID) //nolint:errcheck // best-effort cleanup
		sharedEnv.pool.Exec(cleanCtx, "DELETE FROM users WHERE id = $1", user.ID)          //nolint:errcheck // best-effort cleanup
	})

	return user
}

// auditEntries fetches all audit rows for one entity, newest first.
func auditEntries(t *testing.T, base store.Base, kind models.EntityKind, entityID string) []models.HistoryEntry {
	t.Helper()

	as := store.NewAuditStore(base)

	entries, _, err := as.GetChangeHistory(context.Background(), kind, entityID, 100, 0)
	if err != nil {
		t.Fatalf("GetChangeHistory: %v", err)
	}

	return entries
}
