package models

import "time"

// Quote is a customer offer. It owns variants, which own versions; the
// whole tree is soft-deleted together when the quote is deleted.
type Quote struct {
	ID          string `json:"id"`
	QuoteNumber string `json:"quote_number"`
	Customer    string `json:"customer"`
	Status      string `json:"status"`
	Deleted     bool   `json:"deleted"`
	LockState

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	LastChangedBy *Attribution `json:"last_changed_by,omitempty"`
}

// CreateQuoteRequest is the payload for creating a quote.
type CreateQuoteRequest struct {
	QuoteNumber string `json:"quote_number"`
	Customer    string `json:"customer"`
	Status      string `json:"status"`
}

// Validate checks required fields.
func (r *CreateQuoteRequest) Validate() error {
	if r.Customer == "" {
		return ErrMissingCustomer
	}

	return nil
}

// UpdateQuoteRequest is a partial patch; nil fields are left untouched.
type UpdateQuoteRequest struct {
	QuoteNumber *string `json:"quote_number,omitempty"`
	Customer    *string `json:"customer,omitempty"`
	Status      *string `json:"status,omitempty"`
}

// QuoteVariant is one alternative offered within a quote.
type QuoteVariant struct {
	ID      string `json:"id"`
	QuoteID string `json:"quote_id"`
	Name    string `json:"name"`
	Deleted bool   `json:"deleted"`
	LockState

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateQuoteVariantRequest is the payload for creating a variant.
type CreateQuoteVariantRequest struct {
	Name string `json:"name"`
}

// Validate checks required fields.
func (r *CreateQuoteVariantRequest) Validate() error {
	if r.Name == "" {
		return ErrMissingName
	}

	return nil
}

// QuoteVersion is one revision of a variant.
type QuoteVersion struct {
	ID        string `json:"id"`
	VariantID string `json:"variant_id"`
	Version   int    `json:"version"`
	Notes     string `json:"notes"`
	Deleted   bool   `json:"deleted"`
	LockState

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
