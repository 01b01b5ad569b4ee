package models

import "time"

// ContentRow is one language's descriptive text for an article or block.
// Rows are audited independently of their parent under KindBlockContent.
type ContentRow struct {
	ID         string     `json:"id"`
	ParentKind EntityKind `json:"parent_kind"`
	ParentID   string     `json:"parent_id"`
	Language   string     `json:"language"`
	Title      string     `json:"title"`
	Body       string     `json:"body"`
	Deleted    bool       `json:"deleted"`
	CreatedAt  time.Time  `json:"created_at"`
}

// ContentInput is one row of a full content-set replacement. The UI
// always submits the complete desired set, never incremental edits.
type ContentInput struct {
	Language string `json:"language"`
	Title    string `json:"title"`
	Body     string `json:"body"`
}

// Validate checks required fields.
func (c *ContentInput) Validate() error {
	if c.Language == "" {
		return ErrMissingLanguage
	}

	if c.Title == "" {
		return ErrMissingTitle
	}

	return nil
}
