package models

import (
	"strings"

	"github.com/chalense/muni-laip/internal/pkg"
)

// NoFolderSegment is the sentinel path segment for documents that live at the
// category root.
const NoFolderSegment = "no_folder"

// ResolveStoragePath maps a document's placement to its canonical object key:
//
//	<domain prefix>/category_<code>/<folder>/<subfolder>/file.pdf
//	<domain prefix>/category_<code>/no_folder/file.pdf
//
// folderChain is ordered root to leaf. Dots in the category code become
// underscores, spaces in folder and file names become underscores. The
// function is pure: the same inputs always produce the same key, and the key
// stored on a document must be reproducible from the same placement later.
func ResolveStoragePath(domain Domain, category *Category, folderChain []*Folder, filename string) string {
	var b strings.Builder
	b.WriteString(domain.StoragePrefix)
	b.WriteString("/category_")
	b.WriteString(category.SanitizedCode())
	b.WriteString("/")

	if len(folderChain) == 0 {
		b.WriteString(NoFolderSegment)
		b.WriteString("/")
	} else {
		for _, folder := range folderChain {
			b.WriteString(strings.ReplaceAll(folder.Name, " ", "_"))
			b.WriteString("/")
		}
	}

	b.WriteString(pkg.SanitizeFileName(filename))
	return b.String()
}
