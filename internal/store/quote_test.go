package store_test

import (
	"context"
	"errors"
	"testing"

	"github.com/offerdesk/offerdesk/internal/models"
	"github.com/offerdesk/offerdesk/internal/store"
)

func createTestQuote(t *testing.T, base store.Base, actor *models.User) *models.Quote {
	t.Helper()

	qs := store.NewQuoteStore(base)

	q, err := qs.Create(context.Background(), models.CreateQuoteRequest{
		QuoteNumber: "Q-2026-001",
		Customer:    "ACME GmbH",
		Status:      "draft",
	}, actor, nil)
	if err != nil {
		t.Fatalf("Create quote: %v", err)
	}

	return q
}

func TestQuoteSoftDelete_CascadesVariantsAndVersions(t *testing.T) {
	base, actor := setupTestBase(t)
	qs := store.NewQuoteStore(base)
	ctx := context.Background()

	q := createTestQuote(t, base, actor)

	v1, err := qs.CreateVariant(ctx, q.ID, models.CreateQuoteVariantRequest{Name: "Standard"}, actor, nil)
	if err != nil {
		t.Fatalf("CreateVariant: %v", err)
	}

	v2, err := qs.CreateVariant(ctx, q.ID, models.CreateQuoteVariantRequest{Name: "Premium"}, actor, nil)
	if err != nil {
		t.Fatalf("CreateVariant: %v", err)
	}

	ver, err := qs.CreateVersion(ctx, v1.ID, "initial draft", actor, nil)
	if err != nil {
		t.Fatalf("CreateVersion: %v", err)
	}

	deleted, err := qs.SoftDelete(ctx, q.ID, actor, nil)
	if err != nil {
		t.Fatalf("SoftDelete: %v", err)
	}
	if !deleted.Deleted {
		t.Error("quote not marked deleted")
	}

	// The whole tree is retired and every node has its own DELETE entry.
	for _, check := range []struct {
		kind models.EntityKind
		id   string
	}{
		{models.KindQuote, q.ID},
		{models.KindQuoteVariant, v1.ID},
		{models.KindQuoteVariant, v2.ID},
		{models.KindQuoteVersion, ver.ID},
	} {
		trail := auditEntries(t, base, check.kind, check.id)
		if len(trail) == 0 || trail[0].Action != models.ActionDelete {
			t.Errorf("%s %s missing DELETE entry", check.kind, check.id)
		}
	}

	// Cascaded nodes carry the provenance of the cascade.
	variantTrail := auditEntries(t, base, models.KindQuoteVariant, v1.ID)
	if variantTrail[0].Metadata["reason"] != "cascading soft delete" {
		t.Errorf("variant cascade reason = %v", variantTrail[0].Metadata["reason"])
	}

	variants, err := qs.ListVariants(ctx, q.ID)
	if err != nil {
		t.Fatalf("ListVariants: %v", err)
	}
	if len(variants) != 0 {
		t.Errorf("%d variants still active after cascade", len(variants))
	}
}

func TestQuoteVariantDelete_DoesNotTouchSiblings(t *testing.T) {
	base, actor := setupTestBase(t)
	qs := store.NewQuoteStore(base)
	ctx := context.Background()

	q := createTestQuote(t, base, actor)

	v1, err := qs.CreateVariant(ctx, q.ID, models.CreateQuoteVariantRequest{Name: "Standard"}, actor, nil)
	if err != nil {
		t.Fatalf("CreateVariant: %v", err)
	}

	v2, err := qs.CreateVariant(ctx, q.ID, models.CreateQuoteVariantRequest{Name: "Premium"}, actor, nil)
	if err != nil {
		t.Fatalf("CreateVariant: %v", err)
	}

	if err := qs.DeleteVariant(ctx, v1.ID, actor); err != nil {
		t.Fatalf("DeleteVariant: %v", err)
	}

	variants, err := qs.ListVariants(ctx, q.ID)
	if err != nil {
		t.Fatalf("ListVariants: %v", err)
	}
	if len(variants) != 1 || variants[0].ID != v2.ID {
		t.Fatalf("surviving variants = %+v, want only %s", variants, v2.ID)
	}

	// A direct delete carries no cascade provenance.
	trail := auditEntries(t, base, models.KindQuoteVariant, v1.ID)
	if trail[0].Action != models.ActionDelete {
		t.Fatalf("newest action = %q, want DELETE", trail[0].Action)
	}
	if _, ok := trail[0].Metadata["reason"]; ok {
		t.Errorf("direct delete should not carry cascade metadata: %v", trail[0].Metadata)
	}
}

func TestQuoteVersionNumbering(t *testing.T) {
	base, actor := setupTestBase(t)
	qs := store.NewQuoteStore(base)
	ctx := context.Background()

	q := createTestQuote(t, base, actor)

	v, err := qs.CreateVariant(ctx, q.ID, models.CreateQuoteVariantRequest{Name: "Standard"}, actor, nil)
	if err != nil {
		t.Fatalf("CreateVariant: %v", err)
	}

	for want := 1; want <= 3; want++ {
		ver, err := qs.CreateVersion(ctx, v.ID, "", actor, nil)
		if err != nil {
			t.Fatalf("CreateVersion %d: %v", want, err)
		}
		if ver.Version != want {
			t.Errorf("version = %d, want %d", ver.Version, want)
		}
	}
}

func TestQuoteCreateVariant_BlockedByQuoteLock(t *testing.T) {
	base, actor := setupTestBase(t)
	other := secondUser(t, getTestEnv(t))
	qs := store.NewQuoteStore(base)
	ls := store.NewLockStore(base)
	ctx := context.Background()

	q := createTestQuote(t, base, actor)

	if err := ls.Acquire(ctx, models.KindQuote, q.ID, other); err != nil {
		t.Fatalf("Acquire by other: %v", err)
	}

	_, err := qs.CreateVariant(ctx, q.ID, models.CreateQuoteVariantRequest{Name: "Standard"}, actor, nil)

	var lockErr *models.LockConflictError
	if !errors.As(err, &lockErr) {
		t.Fatalf("expected LockConflictError, got %v", err)
	}
}

func TestQuoteCreate_RequiresCustomer(t *testing.T) {
	base, actor := setupTestBase(t)
	qs := store.NewQuoteStore(base)

	_, err := qs.Create(context.Background(), models.CreateQuoteRequest{QuoteNumber: "Q-1"}, actor, nil)
	if !errors.Is(err, models.ErrMissingCustomer) {
		t.Fatalf("expected ErrMissingCustomer, got %v", err)
	}
}

func TestQuoteSoftDelete_FailedCascadeRollsBackTree(t *testing.T) {
	base, actor := setupTestBase(t)
	qs := store.NewQuoteStore(base)
	ctx := context.Background()

	q := createTestQuote(t, base, actor)

	v1, err := qs.CreateVariant(ctx, q.ID, models.CreateQuoteVariantRequest{Name: "Standard"}, actor, nil)
	if err != nil {
		t.Fatalf("CreateVariant: %v", err)
	}

	v2, err := qs.CreateVariant(ctx, q.ID, models.CreateQuoteVariantRequest{Name: "Premium"}, actor, nil)
	if err != nil {
		t.Fatalf("CreateVariant: %v", err)
	}

	// The cascade retires the first variant, then fails writing its
	// audit entry (the actor ID cannot be cast to the uuid column), so
	// the transaction must put the whole tree back.
	phantom := &models.User{ID: "not-a-uuid", Name: "Phantom"}

	if _, err := qs.SoftDelete(ctx, q.ID, phantom, nil); err == nil {
		t.Fatal("expected the cascade to fail on the audit write")
	}

	if _, err := qs.Get(ctx, q.ID); err != nil {
		t.Fatalf("quote gone after rolled-back cascade: %v", err)
	}

	variants, err := qs.ListVariants(ctx, q.ID)
	if err != nil {
		t.Fatalf("ListVariants: %v", err)
	}
	if len(variants) != 2 {
		t.Fatalf("%d variants survive the rollback, want 2", len(variants))
	}

	// No node in the tree gained an audit entry.
	for _, check := range []struct {
		kind models.EntityKind
		id   string
	}{
		{models.KindQuote, q.ID},
		{models.KindQuoteVariant, v1.ID},
		{models.KindQuoteVariant, v2.ID},
	} {
		trail := auditEntries(t, base, check.kind, check.id)
		if len(trail) != 1 || trail[0].Action != models.ActionInsert {
			t.Errorf("%s %s trail = %+v, want only the INSERT", check.kind, check.id, trail)
		}
	}
}
