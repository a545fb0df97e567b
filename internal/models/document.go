package models

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Document is a published downloadable file record. It belongs to a category
// and optionally to a folder; a nil FolderID means it lives at the category
// root.
type Document struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	CategoryID  primitive.ObjectID  `bson:"category_id" json:"categoryId"`
	FolderID    *primitive.ObjectID `bson:"folder_id,omitempty" json:"folderId,omitempty"`
	Title       string              `bson:"title" json:"title" validate:"required,min=1,max=300"`
	Description string              `bson:"description" json:"description"`
	// StorageKey is derived once at upload time by the storage path resolver
	// and never recomputed from mutable state afterwards.
	StorageKey string `bson:"storage_key" json:"-"`
	FileName   string `bson:"file_name" json:"fileName"`
	// SizeBytes and Extension are recomputed from the stored payload on every
	// save; client-supplied values are ignored.
	SizeBytes     int64     `bson:"size_bytes" json:"sizeBytes"`
	Extension     string    `bson:"extension" json:"extension"`
	DownloadCount int64     `bson:"download_count" json:"downloadCount"`
	Published     bool      `bson:"published" json:"published"`
	Featured      bool      `bson:"featured" json:"featured"`
	PublishedAt   time.Time `bson:"published_at" json:"publishedAt"`
	UpdatedAt     time.Time `bson:"updated_at" json:"updatedAt"`
}

// NormalizeExtension strips a leading dot and upper-cases, the canonical
// stored form ("PDF", "XLSX").
func NormalizeExtension(ext string) string {
	return strings.ToUpper(strings.TrimPrefix(strings.TrimSpace(ext), "."))
}

// ExtensionOf extracts the normalized extension from a file name.
func ExtensionOf(filename string) string {
	return NormalizeExtension(filepath.Ext(filename))
}

// ApplyPayload recomputes the derived file metadata from the actual payload.
func (d *Document) ApplyPayload(filename string, sizeBytes int64) {
	d.FileName = filename
	d.SizeBytes = sizeBytes
	d.Extension = ExtensionOf(filename)
}

// HumanSize renders the payload size for listings, e.g. "2.5 MB".
func (d *Document) HumanSize() string {
	size := float64(d.SizeBytes)
	for _, unit := range []string{"B", "KB", "MB", "GB", "TB"} {
		if size < 1024.0 {
			return fmt.Sprintf("%.1f %s", size, unit)
		}
		size /= 1024.0
	}
	return fmt.Sprintf("%.1f PB", size)
}

// IsImage reports whether the document is an image file.
func (d *Document) IsImage() bool {
	switch d.Extension {
	case "PNG", "JPG", "JPEG", "SVG":
		return true
	}
	return false
}

// IsSpreadsheet reports whether the document is a spreadsheet file.
func (d *Document) IsSpreadsheet() bool {
	switch d.Extension {
	case "XLS", "XLSX", "CSV":
		return true
	}
	return false
}
