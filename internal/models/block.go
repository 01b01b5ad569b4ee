package models

import "time"

// Block is a reusable text block that can be inserted into quotes. Its
// per-language text lives in content rows.
type Block struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Deleted bool   `json:"deleted"`
	LockState

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	LastChangedBy *Attribution `json:"last_changed_by,omitempty"`
}

// CreateBlockRequest is the payload for creating a block.
type CreateBlockRequest struct {
	Name string `json:"name"`
}

// Validate checks required fields.
func (r *CreateBlockRequest) Validate() error {
	if r.Name == "" {
		return ErrMissingName
	}

	return nil
}

// UpdateBlockRequest is a partial patch; nil fields are left untouched.
type UpdateBlockRequest struct {
	Name *string `json:"name,omitempty"`
}
