package services

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/chalense/muni-laip/internal/models"
	"github.com/chalense/muni-laip/internal/pkg"
	"github.com/chalense/muni-laip/internal/repository"
)

// FolderOption is one entry of the flat admin folder picker, carrying the
// root-to-leaf path as its label.
type FolderOption struct {
	ID       primitive.ObjectID `json:"id"`
	FullPath string             `json:"fullPath"`
}

// CatalogService manages the categories and folders of one disclosure domain.
type CatalogService struct {
	domain       models.Domain
	categoryRepo repository.CategoryRepository
	folderRepo   repository.FolderRepository
	documentRepo repository.DocumentRepository
	tree         *TreeService
	storage      StorageProvider
	logger       *pkg.Logger
}

// NewCatalogService creates a new catalog service
func NewCatalogService(domain models.Domain, repos *repository.DomainRepositories, tree *TreeService, storage StorageProvider, logger *pkg.Logger) *CatalogService {
	return &CatalogService{
		domain:       domain,
		categoryRepo: repos.Category,
		folderRepo:   repos.Folder,
		documentRepo: repos.Document,
		tree:         tree,
		storage:      storage,
		logger:       logger,
	}
}

// ListCategories returns the active categories annotated with their published
// document and root folder counts, in display order.
func (s *CatalogService) ListCategories(ctx context.Context) ([]*models.CategoryListing, error) {
	categories, err := s.categoryRepo.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	// One aggregation for all document counts instead of a query per category.
	buckets, err := s.documentRepo.CountByCategory(ctx)
	if err != nil {
		return nil, err
	}
	docCounts := make(map[primitive.ObjectID]int64, len(buckets))
	for _, b := range buckets {
		docCounts[b.CategoryID] = b.Total
	}

	listings := make([]*models.CategoryListing, 0, len(categories))
	for _, c := range categories {
		rootFolders, err := s.folderRepo.CountRoots(ctx, c.ID)
		if err != nil {
			return nil, err
		}
		listings = append(listings, &models.CategoryListing{
			Category:         *c,
			TotalDocuments:   docCounts[c.ID],
			TotalRootFolders: rootFolders,
		})
	}
	return listings, nil
}

// ListAllCategories returns every category, inactive ones included, for the
// staff surface.
func (s *CatalogService) ListAllCategories(ctx context.Context) ([]*models.Category, error) {
	return s.categoryRepo.ListAll(ctx)
}

// GetCategoryBySlug returns a category regardless of its active flag.
func (s *CatalogService) GetCategoryBySlug(ctx context.Context, slug string) (*models.Category, error) {
	return s.categoryRepo.GetBySlug(ctx, slug)
}

// CreateCategory creates a category, deriving slug and display order from the
// code when absent.
func (s *CatalogService) CreateCategory(ctx context.Context, category *models.Category) error {
	category.Normalize()
	if err := s.categoryRepo.Create(ctx, category); err != nil {
		return err
	}
	s.logger.Info("category created", map[string]interface{}{
		"domain": s.domain.Name,
		"code":   category.Code,
		"slug":   category.Slug,
	})
	return nil
}

// UpdateCategory applies a partial update.
func (s *CatalogService) UpdateCategory(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	return s.categoryRepo.Update(ctx, id, updates)
}

// DeleteCategory removes a category with its folders, documents and blobs.
func (s *CatalogService) DeleteCategory(ctx context.Context, id primitive.ObjectID) error {
	category, err := s.categoryRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	keys, err := s.documentRepo.DeleteByCategory(ctx, id)
	if err != nil {
		return err
	}
	s.deleteBlobs(ctx, keys)

	if err := s.folderRepo.DeleteByCategory(ctx, id); err != nil {
		return err
	}
	if err := s.categoryRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("category deleted", map[string]interface{}{
		"domain":    s.domain.Name,
		"code":      category.Code,
		"documents": len(keys),
	})
	return nil
}

// CreateFolder creates a folder after checking its placement: the parent must
// exist and belong to the same category, and in category-tagged domains a
// depth-1 folder must carry a valid section tag.
func (s *CatalogService) CreateFolder(ctx context.Context, folder *models.Folder) error {
	if _, err := s.categoryRepo.GetByID(ctx, folder.CategoryID); err != nil {
		return err
	}

	if folder.ParentID != nil {
		parent, err := s.folderRepo.GetByID(ctx, *folder.ParentID)
		if err != nil {
			return err
		}
		if parent.CategoryID != folder.CategoryID {
			return pkg.ErrCategoryMismatch
		}
		// Section tags live on depth-1 folders only.
		if s.domain.CategoryTagged && parent.IsRoot() {
			if !models.ValidFolderCategoryTag(folder.CategoryTag) {
				return pkg.ErrValidationFailed.WithDetails(map[string]interface{}{
					"categoryTag": "depth-1 folders require a valid section tag",
				})
			}
		}
	}

	folder.Normalize()
	if err := s.folderRepo.Create(ctx, folder); err != nil {
		return err
	}
	s.logger.Info("folder created", map[string]interface{}{
		"domain": s.domain.Name,
		"name":   folder.Name,
		"root":   folder.IsRoot(),
	})
	return nil
}

// UpdateFolder applies a partial update. Reparenting checks the new parent the
// same way CreateFolder does and refuses a parent inside the folder's own
// subtree.
func (s *CatalogService) UpdateFolder(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	folder, err := s.folderRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if raw, ok := updates["parent_id"]; ok && raw != nil {
		parentID, ok := raw.(primitive.ObjectID)
		if !ok {
			return pkg.ErrInvalidInput
		}
		parent, err := s.folderRepo.GetByID(ctx, parentID)
		if err != nil {
			return err
		}
		if parent.CategoryID != folder.CategoryID {
			return pkg.ErrCategoryMismatch
		}
		descendants, err := s.tree.Descendants(ctx, folder.CategoryID, id)
		if err != nil {
			return err
		}
		for _, d := range descendants {
			if d == parentID {
				return pkg.ErrFolderCycle
			}
		}
	}

	return s.folderRepo.Update(ctx, id, updates)
}

// DeleteFolder removes a folder subtree with its documents and blobs.
func (s *CatalogService) DeleteFolder(ctx context.Context, id primitive.ObjectID) error {
	folder, err := s.folderRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	ids, err := s.tree.Descendants(ctx, folder.CategoryID, id)
	if err != nil {
		return err
	}

	keys, err := s.documentRepo.DeleteByFolders(ctx, ids)
	if err != nil {
		return err
	}
	s.deleteBlobs(ctx, keys)

	if err := s.folderRepo.DeleteMany(ctx, ids); err != nil {
		return err
	}

	s.logger.Info("folder subtree deleted", map[string]interface{}{
		"domain":    s.domain.Name,
		"name":      folder.Name,
		"folders":   len(ids),
		"documents": len(keys),
	})
	return nil
}

// FolderOptions returns a category's folders as a flat picker list labelled
// with their full path, e.g. "2024 / Enero".
func (s *CatalogService) FolderOptions(ctx context.Context, categoryID primitive.ObjectID) ([]FolderOption, error) {
	folders, err := s.folderRepo.ListByCategory(ctx, categoryID)
	if err != nil {
		return nil, err
	}

	byID := make(map[primitive.ObjectID]*models.Folder, len(folders))
	for _, f := range folders {
		byID[f.ID] = f
	}

	options := make([]FolderOption, 0, len(folders))
	for _, f := range folders {
		path := f.Name
		visited := map[primitive.ObjectID]bool{f.ID: true}
		for cur := f; cur.ParentID != nil; {
			parent, ok := byID[*cur.ParentID]
			if !ok || visited[parent.ID] {
				break
			}
			visited[parent.ID] = true
			path = parent.Name + " / " + path
			cur = parent
		}
		options = append(options, FolderOption{ID: f.ID, FullPath: path})
	}
	return options, nil
}

// deleteBlobs removes payloads best-effort; a failed delete leaves an orphan
// blob, never a broken record.
func (s *CatalogService) deleteBlobs(ctx context.Context, keys []string) {
	for _, key := range keys {
		if key == "" {
			continue
		}
		if err := s.storage.Delete(ctx, key); err != nil {
			s.logger.Warn("failed to delete blob", map[string]interface{}{
				"key":   key,
				"error": err.Error(),
			})
		}
	}
}
