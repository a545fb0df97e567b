package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/chalense/muni-laip/internal/pkg"
)

// CatalogHandler serves the public browsing surface: category listings,
// category trees and folder views.
type CatalogHandler struct {
	registry DomainRegistry
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(registry DomainRegistry) *CatalogHandler {
	return &CatalogHandler{registry: registry}
}

// ListCategories returns the domain's active categories with their counts.
// GET /api/v1/domains/:domain/categories
func (h *CatalogHandler) ListCategories(c *gin.Context) {
	ds, ok := h.registry.resolve(c)
	if !ok {
		return
	}

	listings, err := ds.Catalog.ListCategories(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	pkg.SuccessResponse(c, http.StatusOK, "Categories retrieved successfully", listings)
}

// GetCategoryTree returns the full folder tree of one category.
// GET /api/v1/domains/:domain/categories/:slug/tree
func (h *CatalogHandler) GetCategoryTree(c *gin.Context) {
	ds, ok := h.registry.resolve(c)
	if !ok {
		return
	}

	tree, err := ds.Tree.GetCategoryTree(c.Request.Context(), c.Param("slug"))
	if err != nil {
		handleError(c, err)
		return
	}
	pkg.SuccessResponse(c, http.StatusOK, "Category tree retrieved successfully", tree)
}

// GetFolder returns a folder with breadcrumb, children and documents.
// GET /api/v1/domains/:domain/categories/:slug/folders/:folderId
func (h *CatalogHandler) GetFolder(c *gin.Context) {
	ds, ok := h.registry.resolve(c)
	if !ok {
		return
	}
	folderID, ok := objectIDParam(c, "folderId")
	if !ok {
		return
	}

	view, err := ds.Tree.GetFolder(c.Request.Context(), c.Param("slug"), folderID)
	if err != nil {
		handleError(c, err)
		return
	}
	pkg.SuccessResponse(c, http.StatusOK, "Folder retrieved successfully", view)
}
