package models

import "time"

// SalesOpportunity is a tracked sales lead. It has no child rows.
type SalesOpportunity struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Customer      string `json:"customer"`
	Stage         string `json:"stage"`
	ExpectedValue string `json:"expected_value"`
	Deleted       bool   `json:"deleted"`
	LockState

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	LastChangedBy *Attribution `json:"last_changed_by,omitempty"`
}

// CreateOpportunityRequest is the payload for creating an opportunity.
type CreateOpportunityRequest struct {
	Title         string `json:"title"`
	Customer      string `json:"customer"`
	Stage         string `json:"stage"`
	ExpectedValue string `json:"expected_value"`
}

// Validate checks required fields.
func (r *CreateOpportunityRequest) Validate() error {
	if r.Title == "" {
		return ErrMissingTitle
	}

	if r.Customer == "" {
		return ErrMissingCustomer
	}

	return nil
}

// UpdateOpportunityRequest is a partial patch; nil fields are left untouched.
type UpdateOpportunityRequest struct {
	Title         *string `json:"title,omitempty"`
	Customer      *string `json:"customer,omitempty"`
	Stage         *string `json:"stage,omitempty"`
	ExpectedValue *string `json:"expected_value,omitempty"`
}
