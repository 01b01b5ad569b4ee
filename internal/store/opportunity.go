package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/offerdesk/offerdesk/internal/models"
)

// OpportunityStore handles audited CRUD for sales opportunities.
// Opportunities have no child rows, so deletes don't cascade.
type OpportunityStore struct {
	Base
}

// NewOpportunityStore creates an OpportunityStore.
func NewOpportunityStore(base Base) *OpportunityStore {
	return &OpportunityStore{Base: base}
}

const opportunityColumns = "id, title, customer, stage, expected_value::text, deleted, blocked, blocked_by, created_at, updated_at"

func scanOpportunity(scan func(...any) error) (*models.SalesOpportunity, error) {
	var o models.SalesOpportunity

	err := scan(
		&o.ID, &o.Title, &o.Customer, &o.Stage, &o.ExpectedValue,
		&o.Deleted, &o.Blocked, &o.BlockedBy, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &o, nil
}

func fetchOpportunityTx(ctx context.Context, tx pgx.Tx, id string, forUpdate bool) (*models.SalesOpportunity, error) {
	query := fmt.Sprintf("SELECT %s FROM sales_opportunities WHERE id = $1 AND NOT deleted", opportunityColumns)
	if forUpdate {
		query += " FOR UPDATE"
	}

	o, err := scanOpportunity(tx.QueryRow(ctx, query, id).Scan)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrOpportunityNotFound
		}

		return nil, fmt.Errorf("fetching sales opportunity: %w", err)
	}

	return o, nil
}

// List returns a paginated list of active opportunities, newest first.
func (s *OpportunityStore) List(ctx context.Context, limit, offset int) ([]models.SalesOpportunity, bool, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := fmt.Sprintf(
		"SELECT %s FROM sales_opportunities WHERE NOT deleted ORDER BY created_at DESC LIMIT $1 OFFSET $2",
		opportunityColumns,
	)

	rows, err := s.Pool.Query(ctx, query, limit+1, offset)
	if err != nil {
		return nil, false, fmt.Errorf("listing sales opportunities: %w", err)
	}
	defer rows.Close()

	opps := make([]models.SalesOpportunity, 0, limit)

	for rows.Next() {
		o, err := scanOpportunity(rows.Scan)
		if err != nil {
			return nil, false, fmt.Errorf("scanning sales opportunity: %w", err)
		}

		opps = append(opps, *o)
	}

	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("iterating sales opportunities: %w", err)
	}

	hasMore := len(opps) > limit
	if hasMore {
		opps = opps[:limit]
	}

	return opps, hasMore, nil
}

// Get returns one opportunity with its change attribution.
func (s *OpportunityStore) Get(ctx context.Context, id string) (*models.SalesOpportunity, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.beginReadTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck // read-only, rollback is the normal exit.

	o, err := fetchOpportunityTx(ctx, tx, id, false)
	if err != nil {
		return nil, err
	}

	o.LastChangedBy, err = fetchAttribution(ctx, tx, models.KindOpportunity, id, nil)
	if err != nil {
		return nil, err
	}

	return o, nil
}

// Create inserts a new opportunity with its INSERT audit entry.
func (s *OpportunityStore) Create(ctx context.Context, req models.CreateOpportunityRequest, actor *models.User, meta map[string]any) (*models.SalesOpportunity, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	if err := req.Validate(); err != nil {
		return nil, err
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	stage := req.Stage
	if stage == "" {
		stage = "open"
	}

	value := req.ExpectedValue
	if value == "" {
		value = "0"
	}

	o := &models.SalesOpportunity{ID: uuid.New().String()}

	draft := models.AuditDraft{
		Kind:   models.KindOpportunity,
		Action: models.ActionInsert,
		Changed: map[string]any{
			"title":          req.Title,
			"customer":       req.Customer,
			"stage":          stage,
			"expected_value": value,
		},
		UserID:   actor.ID,
		Metadata: meta,
	}

	err := s.withAudit(ctx, draft, func(tx pgx.Tx) (string, error) {
		query := fmt.Sprintf(`INSERT INTO sales_opportunities (id, title, customer, stage, expected_value)
			VALUES ($1, $2, $3, $4, $5::numeric) RETURNING %s`, opportunityColumns)

		created, err := scanOpportunity(tx.QueryRow(ctx, query, o.ID, req.Title, req.Customer, stage, value).Scan)
		if err != nil {
			return "", fmt.Errorf("scanning created sales opportunity: %w", err)
		}

		*o = *created

		return o.ID, nil
	})
	if err != nil {
		return nil, err
	}

	return o, nil
}

// Update applies a partial patch; empty diffs write no audit entry.
func (s *OpportunityStore) Update(ctx context.Context, id string, req models.UpdateOpportunityRequest, actor *models.User, meta map[string]any) (*models.SalesOpportunity, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.beginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback after commit.

	cur, err := fetchOpportunityTx(ctx, tx, id, true)
	if err != nil {
		return nil, err
	}

	if err := s.requireUnlocked(cur.LockState, models.KindOpportunity, id, actor.ID); err != nil {
		return nil, err
	}

	// Same spelling-insensitive diff treatment as article prices.
	value := req.ExpectedValue
	if value != nil {
		canon, err := canonDecimal(ctx, tx, *value)
		if err != nil {
			return nil, err
		}

		value = &canon
	}

	diff := make(map[string]models.FieldChange)
	setClauses := []string{"updated_at = NOW()"}
	args := []any{}
	argIdx := 1

	patch := func(column, oldVal string, newVal *string, cast string) {
		if newVal == nil {
			return
		}

		setClauses = append(setClauses, fmt.Sprintf("%s = $%d%s", column, argIdx, cast))
		args = append(args, *newVal)
		argIdx++

		if *newVal != oldVal {
			diff[column] = models.FieldChange{Old: oldVal, New: *newVal}
		}
	}

	patch("title", cur.Title, req.Title, "")
	patch("customer", cur.Customer, req.Customer, "")
	patch("stage", cur.Stage, req.Stage, "")
	patch("expected_value", cur.ExpectedValue, value, "::numeric")

	query := fmt.Sprintf(
		"UPDATE sales_opportunities SET %s WHERE id = $%d RETURNING %s",
		strings.Join(setClauses, ", "), argIdx, opportunityColumns,
	)
	args = append(args, id)

	o, err := scanOpportunity(tx.QueryRow(ctx, query, args...).Scan)
	if err != nil {
		return nil, fmt.Errorf("scanning updated sales opportunity: %w", err)
	}

	if len(diff) > 0 {
		err := recordAudit(ctx, tx, models.AuditDraft{
			Kind:     models.KindOpportunity,
			EntityID: id,
			Action:   models.ActionUpdate,
			Changed:  diff,
			UserID:   actor.ID,
			Metadata: meta,
		})
		if err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing opportunity update: %w", err)
	}

	return o, nil
}

// SoftDelete retires an opportunity with its DELETE audit entry.
func (s *OpportunityStore) SoftDelete(ctx context.Context, id string, actor *models.User, meta map[string]any) (*models.SalesOpportunity, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.beginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback after commit.

	cur, err := fetchOpportunityTx(ctx, tx, id, true)
	if err != nil {
		return nil, err
	}

	if err := s.requireUnlocked(cur.LockState, models.KindOpportunity, id, actor.ID); err != nil {
		return nil, err
	}

	query := fmt.Sprintf(
		"UPDATE sales_opportunities SET deleted = TRUE, blocked = NULL, blocked_by = NULL, updated_at = NOW() WHERE id = $1 RETURNING %s",
		opportunityColumns,
	)

	o, err := scanOpportunity(tx.QueryRow(ctx, query, id).Scan)
	if err != nil {
		return nil, fmt.Errorf("scanning deleted sales opportunity: %w", err)
	}

	err = recordAudit(ctx, tx, models.AuditDraft{
		Kind:     models.KindOpportunity,
		EntityID: id,
		Action:   models.ActionDelete,
		Changed: map[string]any{
			"title":          cur.Title,
			"customer":       cur.Customer,
			"stage":          cur.Stage,
			"expected_value": cur.ExpectedValue,
		},
		UserID:   actor.ID,
		Metadata: meta,
	})
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing opportunity delete: %w", err)
	}

	return o, nil
}
