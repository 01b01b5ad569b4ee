// Package models defines the domain entities, audit types, and error
// taxonomy shared by stores, services, and API handlers.
package models

import "fmt"

// EntityKind identifies which entity table an audit entry or lock check
// refers to. The set is closed: stores resolve a kind to its table through
// this type, so an unknown kind fails loudly instead of silently writing
// audit rows nothing can query back.
type EntityKind string

const (
	KindArticle         EntityKind = "articles"
	KindBlock           EntityKind = "blocks"
	KindBlockContent    EntityKind = "block_content"
	KindCalculationItem EntityKind = "article_calculation_item"
	KindQuote           EntityKind = "quotes"
	KindQuoteVariant    EntityKind = "quote_variants"
	KindQuoteVersion    EntityKind = "quote_versions"
	KindOpportunity     EntityKind = "sales_opportunities"
	KindUser            EntityKind = "users"
)

// lockableKinds are the kinds whose rows carry blocked/blocked_by columns.
var lockableKinds = map[EntityKind]bool{
	KindArticle:      true,
	KindBlock:        true,
	KindQuote:        true,
	KindQuoteVariant: true,
	KindQuoteVersion: true,
	KindOpportunity:  true,
}

// Valid reports whether k is one of the declared entity kinds.
func (k EntityKind) Valid() bool {
	switch k {
	case KindArticle, KindBlock, KindBlockContent, KindCalculationItem,
		KindQuote, KindQuoteVariant, KindQuoteVersion, KindOpportunity, KindUser:
		return true
	}

	return false
}

// Lockable reports whether rows of this kind carry lock columns.
func (k EntityKind) Lockable() bool {
	return lockableKinds[k]
}

// NotFoundErr returns the kind-specific not-found sentinel.
func (k EntityKind) NotFoundErr() error {
	switch k {
	case KindArticle:
		return ErrArticleNotFound
	case KindBlock:
		return ErrBlockNotFound
	case KindBlockContent:
		return ErrContentNotFound
	case KindCalculationItem:
		return ErrCalculationItemNotFound
	case KindQuote:
		return ErrQuoteNotFound
	case KindQuoteVariant:
		return ErrQuoteVariantNotFound
	case KindQuoteVersion:
		return ErrQuoteVersionNotFound
	case KindOpportunity:
		return ErrOpportunityNotFound
	case KindUser:
		return ErrUserNotFound
	}

	return fmt.Errorf("unknown entity kind %q", string(k))
}
