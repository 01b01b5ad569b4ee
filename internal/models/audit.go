package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// AuditAction is the kind of mutation an audit entry records.
type AuditAction string

const (
	ActionInsert AuditAction = "INSERT"
	ActionUpdate AuditAction = "UPDATE"
	ActionDelete AuditAction = "DELETE"
)

// Valid reports whether a is a declared audit action.
func (a AuditAction) Valid() bool {
	return a == ActionInsert || a == ActionUpdate || a == ActionDelete
}

// FieldChange is one field's before/after pair inside an UPDATE entry.
type FieldChange struct {
	Old any `json:"old"`
	New any `json:"new"`
}

// AuditEntry is one immutable row of the shared append-only audit log.
// ChangedFields is kept raw; its shape depends on Action (see Diff and
// Snapshot). Entries are only ever written inside the transaction of the
// mutation they describe.
type AuditEntry struct {
	ID            int64           `json:"id"`
	Kind          EntityKind      `json:"entity_kind"`
	EntityID      string          `json:"entity_id"`
	Action        AuditAction     `json:"action"`
	ChangedFields json.RawMessage `json:"changed_fields,omitempty"`
	UserID        string          `json:"user_id"`
	Metadata      map[string]any  `json:"metadata,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// Diff decodes ChangedFields as an UPDATE diff (field -> {old, new}).
func (e *AuditEntry) Diff() (map[string]FieldChange, error) {
	if e.Action != ActionUpdate {
		return nil, fmt.Errorf("audit entry %d is %s, not UPDATE", e.ID, e.Action)
	}

	var diff map[string]FieldChange
	if err := json.Unmarshal(e.ChangedFields, &diff); err != nil {
		return nil, fmt.Errorf("decoding update diff: %w", err)
	}

	return diff, nil
}

// Snapshot decodes ChangedFields as an INSERT or DELETE snapshot.
func (e *AuditEntry) Snapshot() (map[string]any, error) {
	if e.Action == ActionUpdate {
		return nil, fmt.Errorf("audit entry %d is UPDATE, not a snapshot", e.ID)
	}

	var snap map[string]any
	if err := json.Unmarshal(e.ChangedFields, &snap); err != nil {
		return nil, fmt.Errorf("decoding snapshot: %w", err)
	}

	return snap, nil
}

// AuditDraft is the template an audited operation fills in before the
// entry is written. For INSERT drafts EntityID may be left empty; the
// wrapper back-fills it from the created row.
type AuditDraft struct {
	Kind     EntityKind
	EntityID string
	Action   AuditAction
	Changed  any // map[string]FieldChange for UPDATE, map[string]any otherwise
	UserID   string
	Metadata map[string]any
}

// Validate checks the draft is complete enough to write. Every audited
// write must be attributable, so UserID is required.
func (d *AuditDraft) Validate() error {
	if !d.Kind.Valid() {
		return fmt.Errorf("audit draft: unknown entity kind %q", string(d.Kind))
	}

	if !d.Action.Valid() {
		return fmt.Errorf("audit draft: unknown action %q", string(d.Action))
	}

	if d.EntityID == "" {
		return fmt.Errorf("audit draft: entity id is required")
	}

	if d.UserID == "" {
		return fmt.Errorf("audit draft: user id is required")
	}

	return nil
}

// AuditQueryOpts holds filters for querying the audit log.
type AuditQueryOpts struct {
	Kind     EntityKind
	EntityID string
	Action   AuditAction
	UserID   string
	Since    *time.Time
	Limit    int
	Offset   int
}

// ChangeType distinguishes whether an attribution points at the entity
// itself or at one of its content children.
type ChangeType string

const (
	ChangeTypeEntity  ChangeType = "entity"
	ChangeTypeContent ChangeType = "content"
)

// Attribution identifies who last changed an entity or its content.
type Attribution struct {
	UserID     string     `json:"user_id"`
	Name       string     `json:"name"`
	Email      string     `json:"email"`
	Timestamp  time.Time  `json:"timestamp"`
	ChangeType ChangeType `json:"change_type"`
}

// HistoryEntry is an audit entry joined with the actor's display info,
// as returned by the change-history and activity-feed queries.
type HistoryEntry struct {
	AuditEntry

	UserName  string `json:"user_name"`
	UserEmail string `json:"user_email"`
}
