package models

import (
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/chalense/muni-laip/internal/pkg"
)

// Category is a numbered legal disclosure grouping ("numeral"). Codes are
// plain integers in some domains ("7") and dotted strings in others ("2.1.2"),
// so the code is stored as a string.
type Category struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Code         string             `bson:"code" json:"code" validate:"required,max=20"`
	ShortTitle   string             `bson:"short_title" json:"shortTitle" validate:"required,max=200"`
	Description  string             `bson:"description" json:"description"`
	Slug         string             `bson:"slug" json:"slug"`
	Active       bool               `bson:"active" json:"active"`
	DisplayOrder int                `bson:"display_order" json:"displayOrder"`
	CreatedAt    time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updated_at" json:"updatedAt"`
}

// Normalize fills the derived fields before the category is persisted: the
// slug defaults to "numeral-<code>" and a zero display order falls back to the
// numeric projection of the code.
func (c *Category) Normalize() {
	if c.Slug == "" {
		c.Slug = pkg.Slugify("numeral-" + c.Code)
	}
	if c.DisplayOrder == 0 {
		c.DisplayOrder = CodeOrder(c.Code)
	}
}

// CodeOrder projects a category code onto an integer for ordering. "7" maps
// to 7; dotted codes use their leading integer, so "2.1.2" maps to 2.
func CodeOrder(code string) int {
	head := code
	if i := strings.IndexAny(code, "."); i >= 0 {
		head = code[:i]
	}
	n, err := strconv.Atoi(strings.TrimSpace(head))
	if err != nil {
		return 0
	}
	return n
}

// SanitizedCode returns the code with dots replaced by underscores, the form
// used inside storage keys.
func (c *Category) SanitizedCode() string {
	return strings.ReplaceAll(c.Code, ".", "_")
}

// CategoryListing is a category annotated with the aggregate counts shown on
// the public index page.
type CategoryListing struct {
	Category         `bson:",inline"`
	TotalDocuments   int64 `bson:"total_documents" json:"totalDocuments"`
	TotalRootFolders int64 `bson:"total_root_folders" json:"totalRootFolders"`
}

// HasDocuments reports whether the listing carries at least one published
// document.
func (l *CategoryListing) HasDocuments() bool {
	return l.TotalDocuments > 0
}
