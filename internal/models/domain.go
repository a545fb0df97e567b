package models

// Domain identifies one of the portal's disclosure modules. Each domain gets
// its own isolated set of Mongo collections and its own storage prefix; there
// are no cross-domain references.
type Domain struct {
	Name             string   `json:"name"`
	CollectionPrefix string   `json:"-"`
	StoragePrefix    string   `json:"-"`
	// CategoryTagged marks domains whose depth-1 folders carry a category tag
	// (the internal-control module groups each year into fixed sections).
	CategoryTagged    bool     `json:"-"`
	AllowedExtensions []string `json:"-"`
}

// defaultExtensions is the upload allow-list shared by every domain.
var defaultExtensions = []string{
	"pdf", "xls", "xlsx", "doc", "docx",
	"png", "jpg", "jpeg", "svg", "csv",
}

// The five disclosure modules of the portal.
var (
	DomainTransparency = Domain{
		Name:              "transparency",
		CollectionPrefix:  "transparency",
		StoragePrefix:     "transparencia",
		AllowedExtensions: defaultExtensions,
	}
	DomainCouncil = Domain{
		Name:              "council",
		CollectionPrefix:  "council",
		StoragePrefix:     "comude",
		AllowedExtensions: defaultExtensions,
	}
	DomainAccountability = Domain{
		Name:              "accountability",
		CollectionPrefix:  "accountability",
		StoragePrefix:     "rendicion_cuentas",
		AllowedExtensions: defaultExtensions,
	}
	DomainCongressReports = Domain{
		Name:              "congress-reports",
		CollectionPrefix:  "congress_reports",
		StoragePrefix:     "informes_congreso",
		AllowedExtensions: defaultExtensions,
	}
	DomainInternalControl = Domain{
		Name:              "internal-control",
		CollectionPrefix:  "internal_control",
		StoragePrefix:     "sinacig",
		CategoryTagged:    true,
		AllowedExtensions: defaultExtensions,
	}
)

// AllDomains lists every module the portal serves.
var AllDomains = []Domain{
	DomainTransparency,
	DomainCouncil,
	DomainAccountability,
	DomainCongressReports,
	DomainInternalControl,
}

// DomainByName resolves a domain from its URL name.
func DomainByName(name string) (Domain, bool) {
	for _, d := range AllDomains {
		if d.Name == name {
			return d, true
		}
	}
	return Domain{}, false
}

// Collection returns the namespaced collection name for an entity kind,
// e.g. "transparency_folders".
func (d Domain) Collection(kind string) string {
	return d.CollectionPrefix + "_" + kind
}

// ExtensionAllowed reports whether ext (with or without a leading dot, any
// case) is on the domain's upload allow-list.
func (d Domain) ExtensionAllowed(ext string) bool {
	norm := NormalizeExtension(ext)
	for _, allowed := range d.AllowedExtensions {
		if NormalizeExtension(allowed) == norm {
			return true
		}
	}
	return false
}

// FolderCategoryTag is the fixed section tag carried by depth-1 folders of
// category-tagged domains.
type FolderCategoryTag string

const (
	TagDocuments  FolderCategoryTag = "documents"
	TagUnits      FolderCategoryTag = "units"
	TagTrainings  FolderCategoryTag = "trainings"
	TagAgreements FolderCategoryTag = "agreements"
)

// ValidFolderCategoryTag reports whether t names a known section tag.
func ValidFolderCategoryTag(t FolderCategoryTag) bool {
	switch t {
	case TagDocuments, TagUnits, TagTrainings, TagAgreements:
		return true
	}
	return false
}
