package models

import "time"

// Article is a sellable item with a price and per-language content rows.
type Article struct {
	ID            string `json:"id"`
	ArticleNumber string `json:"article_number"`
	Name          string `json:"name"`
	Unit          string `json:"unit"`
	Price         string `json:"price"` // decimal, transported as string
	Deleted       bool   `json:"deleted"`
	LockState

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	LastChangedBy *Attribution `json:"last_changed_by,omitempty"`
}

// CreateArticleRequest is the payload for creating an article.
type CreateArticleRequest struct {
	ArticleNumber string `json:"article_number"`
	Name          string `json:"name"`
	Unit          string `json:"unit"`
	Price         string `json:"price"`
}

// Validate checks required fields.
func (r *CreateArticleRequest) Validate() error {
	if r.Name == "" {
		return ErrMissingName
	}

	return nil
}

// UpdateArticleRequest is a partial patch; nil fields are left untouched.
type UpdateArticleRequest struct {
	ArticleNumber *string `json:"article_number,omitempty"`
	Name          *string `json:"name,omitempty"`
	Unit          *string `json:"unit,omitempty"`
	Price         *string `json:"price,omitempty"`
}

// CalculationItem is a cost line attached to an article. Items are
// hard-deleted with their article via ON DELETE CASCADE.
type CalculationItem struct {
	ID          string    `json:"id"`
	ArticleID   string    `json:"article_id"`
	Position    int       `json:"position"`
	Description string    `json:"description"`
	Quantity    string    `json:"quantity"`
	UnitPrice   string    `json:"unit_price"`
	CreatedAt   time.Time `json:"created_at"`
}

// CreateCalculationItemRequest is the payload for adding a calculation item.
type CreateCalculationItemRequest struct {
	Position    int    `json:"position"`
	Description string `json:"description"`
	Quantity    string `json:"quantity"`
	UnitPrice   string `json:"unit_price"`
}
