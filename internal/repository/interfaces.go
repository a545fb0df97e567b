package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/chalense/muni-laip/internal/models"
	"github.com/chalense/muni-laip/internal/pkg"
)

// CategoryRepository defines category data access methods
type CategoryRepository interface {
	Create(ctx context.Context, category *models.Category) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Category, error)
	GetBySlug(ctx context.Context, slug string) (*models.Category, error)
	Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	// ListActive returns active categories ordered by (display_order, code).
	ListActive(ctx context.Context) ([]*models.Category, error)
	ListAll(ctx context.Context) ([]*models.Category, error)
	// FindMatchingTitle returns the IDs of categories whose short title
	// contains the query, for cross-field search.
	FindMatchingTitle(ctx context.Context, query string) ([]primitive.ObjectID, error)
}

// FolderRepository defines folder data access methods
type FolderRepository interface {
	Create(ctx context.Context, folder *models.Folder) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Folder, error)
	Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	// ListChildren returns a folder's children ordered by
	// (-display_order, +name). Roots order by (-display_order, -name); the
	// root/child ordering asymmetry is the portal's historical sort
	// convention and is relied on by clients.
	ListChildren(ctx context.Context, parentID primitive.ObjectID) ([]*models.Folder, error)
	// ListByCategory returns every folder of a category in root order, for
	// admin pickers and full-tree assembly.
	ListByCategory(ctx context.Context, categoryID primitive.ObjectID) ([]*models.Folder, error)
	CountRoots(ctx context.Context, categoryID primitive.ObjectID) (int64, error)
	CountByCategory(ctx context.Context, categoryID primitive.ObjectID) (int64, error)
	CountAll(ctx context.Context) (int64, error)
	DeleteByCategory(ctx context.Context, categoryID primitive.ObjectID) error
	DeleteMany(ctx context.Context, ids []primitive.ObjectID) error
}

// DocumentSearch carries the searchDocuments filters.
type DocumentSearch struct {
	Query       string
	CategoryIDs []primitive.ObjectID
	// TitleCategoryIDs widens a text query: documents of these categories
	// match even when their own title/description does not.
	TitleCategoryIDs []primitive.ObjectID
	Extension        string
}

// ExtensionCount is one bucket of the extension distribution.
type ExtensionCount struct {
	Extension string `bson:"_id" json:"extension"`
	Total     int64  `bson:"total" json:"total"`
}

// CategoryCount is one bucket of the per-category distribution.
type CategoryCount struct {
	CategoryID primitive.ObjectID `bson:"_id" json:"categoryId"`
	Total      int64              `bson:"total" json:"total"`
	Downloads  int64              `bson:"downloads" json:"downloads"`
}

// DocumentRepository defines document data access methods
type DocumentRepository interface {
	Create(ctx context.Context, doc *models.Document) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Document, error)
	Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	// ListPublishedByFolder returns a folder's published documents ordered
	// featured-first, newest-first. A nil folderID selects category-root
	// documents, scoped by categoryID.
	ListPublishedByFolder(ctx context.Context, categoryID primitive.ObjectID, folderID *primitive.ObjectID) ([]*models.Document, error)
	// CountPublishedGroupedByFolder returns per-folder published counts for a
	// whole category in one round trip, plus the count of category-root
	// documents. Tree assembly depends on this staying a single query.
	CountPublishedGroupedByFolder(ctx context.Context, categoryID primitive.ObjectID) (map[primitive.ObjectID]int64, int64, error)
	CountPublishedByCategory(ctx context.Context, categoryID primitive.ObjectID) (int64, error)
	CountPublished(ctx context.Context) (int64, error)
	// IncrementDownloadCount atomically bumps the counter by one.
	IncrementDownloadCount(ctx context.Context, id primitive.ObjectID) error
	Search(ctx context.Context, search *DocumentSearch, params *pkg.PaginationParams) ([]*models.Document, int64, error)
	ListFeatured(ctx context.Context, categoryID *primitive.ObjectID, limit int64) ([]*models.Document, error)
	ListRecent(ctx context.Context, categoryID *primitive.ObjectID, limit int64) ([]*models.Document, error)
	ListMostDownloaded(ctx context.Context, limit int64) ([]*models.Document, error)
	TotalDownloads(ctx context.Context, categoryID *primitive.ObjectID) (int64, error)
	CountByExtension(ctx context.Context, categoryID *primitive.ObjectID) ([]ExtensionCount, error)
	CountByCategory(ctx context.Context) ([]CategoryCount, error)
	DeleteByCategory(ctx context.Context, categoryID primitive.ObjectID) ([]string, error)
	// DeleteByFolders removes the documents of the given folders and returns
	// their storage keys so the blobs can be cleaned up.
	DeleteByFolders(ctx context.Context, folderIDs []primitive.ObjectID) ([]string, error)
}

// RequestRepository defines information-request data access methods
type RequestRepository interface {
	Create(ctx context.Context, req *models.InfoRequest) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.InfoRequest, error)
	GetByTrackingCode(ctx context.Context, code string) (*models.InfoRequest, error)
	UpdateStatus(ctx context.Context, id primitive.ObjectID, status models.RequestStatus, answeredAt *time.Time, answerText string) error
	List(ctx context.Context, status models.RequestStatus, params *pkg.PaginationParams) ([]*models.InfoRequest, int64, error)
	CountByStatus(ctx context.Context) (map[models.RequestStatus]int64, error)
	CountOverduePending(ctx context.Context, submittedBefore time.Time) (int64, error)
}
