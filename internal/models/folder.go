package models

import (
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Folder is one node of the hierarchical grouping tree under a category,
// typically year -> month -> topic. A nil ParentID marks a root folder.
type Folder struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Name        string              `bson:"name" json:"name" validate:"required,min=1,max=100"`
	CategoryID  primitive.ObjectID  `bson:"category_id" json:"categoryId"`
	ParentID    *primitive.ObjectID `bson:"parent_id,omitempty" json:"parentId,omitempty"`
	Description string              `bson:"description" json:"description"`
	// CategoryTag is only meaningful in category-tagged domains, on depth-1
	// folders (the fixed sections under each year).
	CategoryTag  FolderCategoryTag `bson:"category_tag,omitempty" json:"categoryTag,omitempty"`
	DisplayOrder int               `bson:"display_order" json:"displayOrder"`
	CreatedAt    time.Time         `bson:"created_at" json:"createdAt"`
	UpdatedAt    time.Time         `bson:"updated_at" json:"updatedAt"`
}

// Normalize fills derived fields before persisting: root folders named after a
// year inherit that year as their display order.
func (f *Folder) Normalize() {
	if f.ParentID == nil && f.DisplayOrder == 0 {
		if n, err := strconv.Atoi(f.Name); err == nil {
			f.DisplayOrder = n
		}
	}
}

// IsRoot reports whether the folder sits directly under its category.
func (f *Folder) IsRoot() bool {
	return f.ParentID == nil
}

// BreadcrumbEntry is one step of a folder's root-to-leaf navigation path.
type BreadcrumbEntry struct {
	Name     string             `json:"name"`
	FolderID primitive.ObjectID `json:"folderId"`
}
