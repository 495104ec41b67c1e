// Package content manages CMS pages keyed by slug.
package content

import (
	"regexp"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// ItemRecord is the stored shape of a content page.
type ItemRecord struct {
	Slug   string `json:"slug"`
	Title  string `json:"title"`
	Body   string `json:"body"`
	Status string `json:"status"`
}

// Item is a content page with document timestamps. The slug doubles as the
// document id.
type Item struct {
	ItemRecord
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ItemForm is the validated upsert payload.
type ItemForm struct {
	Slug   string `json:"slug" validate:"required,min=2,slug"`
	Title  string `json:"title" validate:"required,min=3"`
	Body   string `json:"body" validate:"required,min=10"`
	Status string `json:"status" validate:"required,oneof=draft published"`
}

var slugPattern = regexp.MustCompile(`^[a-z0-9-]+$`)

var slugFolder = cases.Fold()

// FoldSlug normalizes a slug before validation so visually equivalent input
// maps to one document.
func FoldSlug(slug string) string {
	slug = norm.NFKC.String(strings.TrimSpace(slug))
	return slugFolder.String(slug)
}
