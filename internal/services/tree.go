package services

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/chalense/muni-laip/internal/models"
	"github.com/chalense/muni-laip/internal/pkg"
	"github.com/chalense/muni-laip/internal/repository"
)

// maxFolderDepth bounds parent-chain walks. Real trees are at most four or
// five levels deep; anything past this indicates corrupted parent links.
const maxFolderDepth = 32

// FolderNode is one folder of an assembled category tree.
type FolderNode struct {
	*models.Folder
	Children []*FolderNode `json:"children"`
	// DocumentCount covers the folder's direct documents only.
	DocumentCount int64 `json:"documentCount"`
	// TotalDocuments covers the folder's entire subtree.
	TotalDocuments int64 `json:"totalDocuments"`
}

// CategoryTree is the full assembled tree of one category.
type CategoryTree struct {
	Category *models.Category `json:"category"`
	Roots    []*FolderNode    `json:"roots"`
	// RootDocumentCount covers documents sitting directly at the category
	// root, outside any folder.
	RootDocumentCount int64 `json:"rootDocumentCount"`
	TotalDocuments    int64 `json:"totalDocuments"`
}

// FolderView is the browsing payload for a single folder.
type FolderView struct {
	Folder     *models.Folder           `json:"folder"`
	Category   *models.Category         `json:"category"`
	Breadcrumb []models.BreadcrumbEntry `json:"breadcrumb"`
	Children   []*models.Folder         `json:"children"`
	Documents  []*models.Document       `json:"documents"`
}

// TreeService assembles category trees and folder views for one disclosure
// domain.
type TreeService struct {
	domain       models.Domain
	categoryRepo repository.CategoryRepository
	folderRepo   repository.FolderRepository
	documentRepo repository.DocumentRepository
	logger       *pkg.Logger
}

// NewTreeService creates a new tree service
func NewTreeService(domain models.Domain, repos *repository.DomainRepositories, logger *pkg.Logger) *TreeService {
	return &TreeService{
		domain:       domain,
		categoryRepo: repos.Category,
		folderRepo:   repos.Folder,
		documentRepo: repos.Document,
		logger:       logger,
	}
}

// GetCategoryTree assembles the full folder tree of an active category with
// per-folder and recursive document counts. Inactive categories are reported
// as not found.
func (s *TreeService) GetCategoryTree(ctx context.Context, slug string) (*CategoryTree, error) {
	category, err := s.activeCategory(ctx, slug)
	if err != nil {
		return nil, err
	}

	folders, err := s.folderRepo.ListByCategory(ctx, category.ID)
	if err != nil {
		return nil, err
	}

	counts, rootCount, err := s.documentRepo.CountPublishedGroupedByFolder(ctx, category.ID)
	if err != nil {
		return nil, err
	}

	roots, err := buildTree(folders, counts)
	if err != nil {
		if errors.Is(err, pkg.ErrFolderCycle) {
			s.logger.Error("folder tree contains a cycle", map[string]interface{}{
				"domain":   s.domain.Name,
				"category": category.Slug,
			})
		}
		return nil, err
	}

	total := rootCount
	for _, root := range roots {
		total += root.TotalDocuments
	}

	return &CategoryTree{
		Category:          category,
		Roots:             roots,
		RootDocumentCount: rootCount,
		TotalDocuments:    total,
	}, nil
}

// GetFolder returns a folder with its breadcrumb, ordered children and
// published documents. The folder must belong to the named active category.
func (s *TreeService) GetFolder(ctx context.Context, slug string, folderID primitive.ObjectID) (*FolderView, error) {
	category, err := s.activeCategory(ctx, slug)
	if err != nil {
		return nil, err
	}

	folder, err := s.folderRepo.GetByID(ctx, folderID)
	if err != nil {
		return nil, err
	}
	if folder.CategoryID != category.ID {
		return nil, pkg.ErrFolderNotFound
	}

	breadcrumb, err := s.Breadcrumb(ctx, folder)
	if err != nil {
		return nil, err
	}

	children, err := s.folderRepo.ListChildren(ctx, folder.ID)
	if err != nil {
		return nil, err
	}

	id := folder.ID
	documents, err := s.documentRepo.ListPublishedByFolder(ctx, category.ID, &id)
	if err != nil {
		return nil, err
	}

	return &FolderView{
		Folder:     folder,
		Category:   category,
		Breadcrumb: breadcrumb,
		Children:   children,
		Documents:  documents,
	}, nil
}

// Breadcrumb walks the parent chain up to the root and returns it root-first,
// ending with the folder itself. The walk is bounded and keeps a visited set
// so a corrupted parent link cannot hang the request.
func (s *TreeService) Breadcrumb(ctx context.Context, folder *models.Folder) ([]models.BreadcrumbEntry, error) {
	var chain []models.BreadcrumbEntry
	visited := make(map[primitive.ObjectID]bool)

	current := folder
	for depth := 0; ; depth++ {
		if depth > maxFolderDepth || visited[current.ID] {
			return nil, pkg.ErrFolderCycle
		}
		visited[current.ID] = true
		chain = append(chain, models.BreadcrumbEntry{Name: current.Name, FolderID: current.ID})

		if current.ParentID == nil {
			break
		}
		parent, err := s.folderRepo.GetByID(ctx, *current.ParentID)
		if err != nil {
			return nil, err
		}
		current = parent
	}

	// Walked leaf to root; present root to leaf.
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain, nil
}

// FolderChain returns the root-to-leaf folder chain ending at folder, the form
// the storage path resolver consumes.
func (s *TreeService) FolderChain(ctx context.Context, folder *models.Folder) ([]*models.Folder, error) {
	var chain []*models.Folder
	visited := make(map[primitive.ObjectID]bool)

	current := folder
	for depth := 0; ; depth++ {
		if depth > maxFolderDepth || visited[current.ID] {
			return nil, pkg.ErrFolderCycle
		}
		visited[current.ID] = true
		chain = append(chain, current)

		if current.ParentID == nil {
			break
		}
		parent, err := s.folderRepo.GetByID(ctx, *current.ParentID)
		if err != nil {
			return nil, err
		}
		current = parent
	}

	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain, nil
}

// Descendants collects the IDs of every folder in the subtree rooted at
// folderID, the folder itself included. Used by the delete cascade.
func (s *TreeService) Descendants(ctx context.Context, categoryID, folderID primitive.ObjectID) ([]primitive.ObjectID, error) {
	folders, err := s.folderRepo.ListByCategory(ctx, categoryID)
	if err != nil {
		return nil, err
	}

	children := make(map[primitive.ObjectID][]primitive.ObjectID)
	for _, f := range folders {
		if f.ParentID != nil {
			children[*f.ParentID] = append(children[*f.ParentID], f.ID)
		}
	}

	ids := []primitive.ObjectID{folderID}
	visited := map[primitive.ObjectID]bool{folderID: true}
	for i := 0; i < len(ids); i++ {
		for _, child := range children[ids[i]] {
			if visited[child] {
				return nil, pkg.ErrFolderCycle
			}
			visited[child] = true
			ids = append(ids, child)
		}
	}
	return ids, nil
}

func (s *TreeService) activeCategory(ctx context.Context, slug string) (*models.Category, error) {
	category, err := s.categoryRepo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if !category.Active {
		// Inactive categories are indistinguishable from absent ones.
		return nil, pkg.ErrCategoryNotFound
	}
	return category, nil
}

// buildTree assembles the nested tree from a flat folder list, ordering roots
// by (-display_order, -name) and deeper levels by (-display_order, +name),
// and fills recursive document totals bottom-up. The input list is expected in
// (-display_order, -name) order; child slices are re-sorted to the child
// convention during assembly.
func buildTree(folders []*models.Folder, counts map[primitive.ObjectID]int64) ([]*FolderNode, error) {
	nodes := make(map[primitive.ObjectID]*FolderNode, len(folders))
	for _, f := range folders {
		nodes[f.ID] = &FolderNode{
			Folder:        f,
			DocumentCount: counts[f.ID],
		}
	}

	var roots []*FolderNode
	for _, f := range folders {
		node := nodes[f.ID]
		if f.ParentID == nil {
			roots = append(roots, node)
			continue
		}
		parent, ok := nodes[*f.ParentID]
		if !ok {
			// Orphaned subtree: parent points outside the category. Leave it
			// out of the assembled tree rather than fail the whole page.
			continue
		}
		parent.Children = append(parent.Children, node)
	}

	for _, node := range nodes {
		sortChildren(node.Children)
	}

	// Totals bottom-up, with a visited guard because a parent chain that
	// loops would otherwise recurse forever.
	visited := make(map[primitive.ObjectID]bool)
	for _, root := range roots {
		if err := fillTotals(root, visited); err != nil {
			return nil, err
		}
	}
	if roots == nil {
		roots = []*FolderNode{}
	}
	return roots, nil
}

func fillTotals(node *FolderNode, visited map[primitive.ObjectID]bool) error {
	if visited[node.ID] {
		return pkg.ErrFolderCycle
	}
	visited[node.ID] = true

	node.TotalDocuments = node.DocumentCount
	for _, child := range node.Children {
		if err := fillTotals(child, visited); err != nil {
			return err
		}
		node.TotalDocuments += child.TotalDocuments
	}
	return nil
}

// sortChildren orders sibling nodes by (-display_order, +name).
func sortChildren(children []*FolderNode) {
	for i := 1; i < len(children); i++ {
		for j := i; j > 0 && childLess(children[j], children[j-1]); j-- {
			children[j], children[j-1] = children[j-1], children[j]
		}
	}
}

func childLess(a, b *FolderNode) bool {
	if a.DisplayOrder != b.DisplayOrder {
		return a.DisplayOrder > b.DisplayOrder
	}
	return a.Name < b.Name
}
