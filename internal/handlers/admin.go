package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/chalense/muni-laip/internal/models"
	"github.com/chalense/muni-laip/internal/pkg"
	"github.com/chalense/muni-laip/internal/services"
)

// documentLinkTTL is how long a staff-generated direct link stays valid.
const documentLinkTTL = 15 * time.Minute

// AdminHandler serves the staff surface: catalog management, document
// publishing and request processing.
type AdminHandler struct {
	registry DomainRegistry
	requests *services.RequestService
	stats    *services.StatsService
	logger   *pkg.Logger
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(registry DomainRegistry, requests *services.RequestService, stats *services.StatsService, logger *pkg.Logger) *AdminHandler {
	return &AdminHandler{
		registry: registry,
		requests: requests,
		stats:    stats,
		logger:   logger,
	}
}

// ============================================================================
// REQUEST/RESPONSE STRUCTURES
// ============================================================================

// CreateCategoryRequest represents category creation request
type CreateCategoryRequest struct {
	Code         string `json:"code" binding:"required,max=20"`
	ShortTitle   string `json:"shortTitle" binding:"required,max=200"`
	Description  string `json:"description" binding:"max=2000"`
	Active       *bool  `json:"active,omitempty"`
	DisplayOrder int    `json:"displayOrder"`
}

// UpdateCategoryRequest represents category update request
type UpdateCategoryRequest struct {
	ShortTitle   *string `json:"shortTitle,omitempty" binding:"omitempty,max=200"`
	Description  *string `json:"description,omitempty" binding:"omitempty,max=2000"`
	Active       *bool   `json:"active,omitempty"`
	DisplayOrder *int    `json:"displayOrder,omitempty"`
}

// CreateFolderRequest represents folder creation request
type CreateFolderRequest struct {
	Name         string  `json:"name" binding:"required,min=1,max=100"`
	CategoryID   string  `json:"categoryId" binding:"required"`
	ParentID     *string `json:"parentId,omitempty"`
	Description  string  `json:"description" binding:"max=500"`
	CategoryTag  string  `json:"categoryTag,omitempty"`
	DisplayOrder int     `json:"displayOrder"`
}

// UpdateFolderRequest represents folder update request
type UpdateFolderRequest struct {
	Name         *string `json:"name,omitempty" binding:"omitempty,min=1,max=100"`
	ParentID     *string `json:"parentId,omitempty"`
	Description  *string `json:"description,omitempty" binding:"omitempty,max=500"`
	DisplayOrder *int    `json:"displayOrder,omitempty"`
}

// UpdateDocumentRequest represents document metadata update request
type UpdateDocumentRequest struct {
	Title       *string `json:"title,omitempty" binding:"omitempty,min=1,max=300"`
	Description *string `json:"description,omitempty" binding:"omitempty,max=2000"`
	Published   *bool   `json:"published,omitempty"`
	Featured    *bool   `json:"featured,omitempty"`
}

// TransitionRequest represents a request status transition
type TransitionRequest struct {
	Status     string `json:"status" binding:"required,oneof=pending in_progress answered rejected"`
	AnswerText string `json:"answerText" binding:"max=5000"`
}

// BulkTransitionRequest represents a bulk request status transition
type BulkTransitionRequest struct {
	IDs        []string `json:"ids" binding:"required,min=1"`
	Status     string   `json:"status" binding:"required,oneof=pending in_progress answered rejected"`
	AnswerText string   `json:"answerText" binding:"max=5000"`
}

// ============================================================================
// CATEGORY MANAGEMENT
// ============================================================================

// ListCategories returns every category of a domain, inactive ones included.
// GET /api/v1/admin/domains/:domain/categories
func (h *AdminHandler) ListCategories(c *gin.Context) {
	ds, ok := h.registry.resolve(c)
	if !ok {
		return
	}

	categories, err := ds.Catalog.ListAllCategories(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	pkg.SuccessResponse(c, http.StatusOK, "Categories retrieved successfully", categories)
}

// CreateCategory creates a category.
// POST /api/v1/admin/domains/:domain/categories
func (h *AdminHandler) CreateCategory(c *gin.Context) {
	ds, ok := h.registry.resolve(c)
	if !ok {
		return
	}

	var req CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		pkg.BadRequestResponse(c, "Invalid request data: "+err.Error())
		return
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}

	category := &models.Category{
		Code:         req.Code,
		ShortTitle:   req.ShortTitle,
		Description:  req.Description,
		Active:       active,
		DisplayOrder: req.DisplayOrder,
	}
	if err := ds.Catalog.CreateCategory(c.Request.Context(), category); err != nil {
		handleError(c, err)
		return
	}

	h.stats.Invalidate(c.Request.Context())
	pkg.CreatedResponse(c, "Category created successfully", category)
}

// UpdateCategory applies a partial update.
// PUT /api/v1/admin/domains/:domain/categories/:id
func (h *AdminHandler) UpdateCategory(c *gin.Context) {
	ds, ok := h.registry.resolve(c)
	if !ok {
		return
	}
	id, ok := objectIDParam(c, "id")
	if !ok {
		return
	}

	var req UpdateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		pkg.BadRequestResponse(c, "Invalid request data: "+err.Error())
		return
	}

	updates := make(map[string]interface{})
	if req.ShortTitle != nil {
		updates["short_title"] = *req.ShortTitle
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Active != nil {
		updates["active"] = *req.Active
	}
	if req.DisplayOrder != nil {
		updates["display_order"] = *req.DisplayOrder
	}
	if len(updates) == 0 {
		pkg.BadRequestResponse(c, "No fields to update")
		return
	}

	if err := ds.Catalog.UpdateCategory(c.Request.Context(), id, updates); err != nil {
		handleError(c, err)
		return
	}

	h.stats.Invalidate(c.Request.Context())
	pkg.SuccessResponse(c, http.StatusOK, "Category updated successfully", nil)
}

// DeleteCategory removes a category with its folders, documents and blobs.
// DELETE /api/v1/admin/domains/:domain/categories/:id
func (h *AdminHandler) DeleteCategory(c *gin.Context) {
	ds, ok := h.registry.resolve(c)
	if !ok {
		return
	}
	id, ok := objectIDParam(c, "id")
	if !ok {
		return
	}

	if err := ds.Catalog.DeleteCategory(c.Request.Context(), id); err != nil {
		handleError(c, err)
		return
	}

	h.stats.Invalidate(c.Request.Context())
	pkg.SuccessResponse(c, http.StatusOK, "Category deleted successfully", nil)
}

// ============================================================================
// FOLDER MANAGEMENT
// ============================================================================

// CreateFolder creates a folder.
// POST /api/v1/admin/domains/:domain/folders
func (h *AdminHandler) CreateFolder(c *gin.Context) {
	ds, ok := h.registry.resolve(c)
	if !ok {
		return
	}

	var req CreateFolderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		pkg.BadRequestResponse(c, "Invalid request data: "+err.Error())
		return
	}

	categoryID, err := primitive.ObjectIDFromHex(req.CategoryID)
	if err != nil {
		pkg.BadRequestResponse(c, "Invalid categoryId")
		return
	}

	var parentID *primitive.ObjectID
	if req.ParentID != nil && *req.ParentID != "" {
		id, err := primitive.ObjectIDFromHex(*req.ParentID)
		if err != nil {
			pkg.BadRequestResponse(c, "Invalid parentId")
			return
		}
		parentID = &id
	}

	folder := &models.Folder{
		Name:         req.Name,
		CategoryID:   categoryID,
		ParentID:     parentID,
		Description:  req.Description,
		CategoryTag:  models.FolderCategoryTag(req.CategoryTag),
		DisplayOrder: req.DisplayOrder,
	}
	if err := ds.Catalog.CreateFolder(c.Request.Context(), folder); err != nil {
		handleError(c, err)
		return
	}
	pkg.CreatedResponse(c, "Folder created successfully", folder)
}

// UpdateFolder applies a partial update, reparenting included.
// PUT /api/v1/admin/domains/:domain/folders/:id
func (h *AdminHandler) UpdateFolder(c *gin.Context) {
	ds, ok := h.registry.resolve(c)
	if !ok {
		return
	}
	id, ok := objectIDParam(c, "id")
	if !ok {
		return
	}

	var req UpdateFolderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		pkg.BadRequestResponse(c, "Invalid request data: "+err.Error())
		return
	}

	updates := make(map[string]interface{})
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.DisplayOrder != nil {
		updates["display_order"] = *req.DisplayOrder
	}
	if req.ParentID != nil {
		if *req.ParentID == "" {
			updates["parent_id"] = nil
		} else {
			parentID, err := primitive.ObjectIDFromHex(*req.ParentID)
			if err != nil {
				pkg.BadRequestResponse(c, "Invalid parentId")
				return
			}
			updates["parent_id"] = parentID
		}
	}
	if len(updates) == 0 {
		pkg.BadRequestResponse(c, "No fields to update")
		return
	}

	if err := ds.Catalog.UpdateFolder(c.Request.Context(), id, updates); err != nil {
		handleError(c, err)
		return
	}
	pkg.SuccessResponse(c, http.StatusOK, "Folder updated successfully", nil)
}

// DeleteFolder removes a folder subtree with its documents and blobs.
// DELETE /api/v1/admin/domains/:domain/folders/:id
func (h *AdminHandler) DeleteFolder(c *gin.Context) {
	ds, ok := h.registry.resolve(c)
	if !ok {
		return
	}
	id, ok := objectIDParam(c, "id")
	if !ok {
		return
	}

	if err := ds.Catalog.DeleteFolder(c.Request.Context(), id); err != nil {
		handleError(c, err)
		return
	}

	h.stats.Invalidate(c.Request.Context())
	pkg.SuccessResponse(c, http.StatusOK, "Folder deleted successfully", nil)
}

// FolderOptions returns a category's folders as a flat labelled picker list.
// GET /api/v1/admin/domains/:domain/categories/:id/folder-options
func (h *AdminHandler) FolderOptions(c *gin.Context) {
	ds, ok := h.registry.resolve(c)
	if !ok {
		return
	}
	id, ok := objectIDParam(c, "id")
	if !ok {
		return
	}

	options, err := ds.Catalog.FolderOptions(c.Request.Context(), id)
	if err != nil {
		handleError(c, err)
		return
	}
	pkg.SuccessResponse(c, http.StatusOK, "Folder options retrieved successfully", options)
}

// ============================================================================
// DOCUMENT MANAGEMENT
// ============================================================================

// UploadDocument accepts a multipart upload and creates the document.
// POST /api/v1/admin/domains/:domain/documents
func (h *AdminHandler) UploadDocument(c *gin.Context) {
	ds, ok := h.registry.resolve(c)
	if !ok {
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		pkg.BadRequestResponse(c, "A file is required")
		return
	}
	defer file.Close()

	title := c.PostForm("title")
	if title == "" {
		pkg.BadRequestResponse(c, "title is required")
		return
	}

	categoryID, err := primitive.ObjectIDFromHex(c.PostForm("categoryId"))
	if err != nil {
		pkg.BadRequestResponse(c, "Invalid categoryId")
		return
	}

	var folderID *primitive.ObjectID
	if raw := c.PostForm("folderId"); raw != "" {
		id, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			pkg.BadRequestResponse(c, "Invalid folderId")
			return
		}
		folderID = &id
	}

	upload := &services.DocumentUpload{
		CategoryID:  categoryID,
		FolderID:    folderID,
		Title:       title,
		Description: c.PostForm("description"),
		FileName:    header.Filename,
		SizeBytes:   header.Size,
		Body:        file,
		Published:   c.PostForm("published") != "false",
		Featured:    c.PostForm("featured") == "true",
	}

	doc, err := ds.Documents.Upload(c.Request.Context(), upload)
	if err != nil {
		handleError(c, err)
		return
	}

	h.stats.Invalidate(c.Request.Context())
	pkg.CreatedResponse(c, "Document uploaded successfully", doc)
}

// UpdateDocument applies a metadata update.
// PUT /api/v1/admin/domains/:domain/documents/:id
func (h *AdminHandler) UpdateDocument(c *gin.Context) {
	ds, ok := h.registry.resolve(c)
	if !ok {
		return
	}
	id, ok := objectIDParam(c, "id")
	if !ok {
		return
	}

	var req UpdateDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		pkg.BadRequestResponse(c, "Invalid request data: "+err.Error())
		return
	}

	updates := make(map[string]interface{})
	if req.Title != nil {
		updates["title"] = *req.Title
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Published != nil {
		updates["published"] = *req.Published
	}
	if req.Featured != nil {
		updates["featured"] = *req.Featured
	}
	if len(updates) == 0 {
		pkg.BadRequestResponse(c, "No fields to update")
		return
	}

	if err := ds.Documents.Update(c.Request.Context(), id, updates); err != nil {
		handleError(c, err)
		return
	}

	h.stats.Invalidate(c.Request.Context())
	pkg.SuccessResponse(c, http.StatusOK, "Document updated successfully", nil)
}

// DeleteDocument removes a document record and its blob.
// DELETE /api/v1/admin/domains/:domain/documents/:id
func (h *AdminHandler) DeleteDocument(c *gin.Context) {
	ds, ok := h.registry.resolve(c)
	if !ok {
		return
	}
	id, ok := objectIDParam(c, "id")
	if !ok {
		return
	}

	if err := ds.Documents.Delete(c.Request.Context(), id); err != nil {
		handleError(c, err)
		return
	}

	h.stats.Invalidate(c.Request.Context())
	pkg.SuccessResponse(c, http.StatusOK, "Document deleted successfully", nil)
}

// DocumentLink returns a time-limited direct download link for a document.
// GET /api/v1/admin/domains/:domain/documents/:id/link
func (h *AdminHandler) DocumentLink(c *gin.Context) {
	ds, ok := h.registry.resolve(c)
	if !ok {
		return
	}
	id, ok := objectIDParam(c, "id")
	if !ok {
		return
	}

	url, err := ds.Documents.PresignedURL(c.Request.Context(), id, documentLinkTTL)
	if err != nil {
		handleError(c, err)
		return
	}
	pkg.SuccessResponse(c, http.StatusOK, "Document link generated successfully", gin.H{
		"url":              url,
		"expiresInSeconds": int(documentLinkTTL.Seconds()),
	})
}

// ============================================================================
// REQUEST PROCESSING
// ============================================================================

// ListRequests returns requests for the staff queue, filterable by status.
// GET /api/v1/admin/requests
func (h *AdminHandler) ListRequests(c *gin.Context) {
	params := pkg.NewPaginationParams(c)
	if params.Sort == pkg.DefaultSort {
		params.Sort = "submitted_at"
	}

	status := models.RequestStatus(c.Query("status"))
	requests, total, err := h.requests.List(c.Request.Context(), status, params)
	if err != nil {
		handleError(c, err)
		return
	}
	pkg.PaginatedResponse(c, "Requests retrieved successfully", pkg.NewPaginationResult(requests, total, params))
}

// TransitionRequest moves a request to a new status.
// POST /api/v1/admin/requests/:id/transition
func (h *AdminHandler) TransitionRequest(c *gin.Context) {
	id, ok := objectIDParam(c, "id")
	if !ok {
		return
	}

	var req TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		pkg.BadRequestResponse(c, "Invalid request data: "+err.Error())
		return
	}

	updated, err := h.requests.Transition(c.Request.Context(), id, models.RequestStatus(req.Status), req.AnswerText)
	if err != nil {
		handleError(c, err)
		return
	}
	pkg.SuccessResponse(c, http.StatusOK, "Request transitioned successfully", updated)
}

// BulkTransitionRequests applies one transition to many requests.
// POST /api/v1/admin/requests-bulk/transition
func (h *AdminHandler) BulkTransitionRequests(c *gin.Context) {
	var req BulkTransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		pkg.BadRequestResponse(c, "Invalid request data: "+err.Error())
		return
	}

	ids := make([]primitive.ObjectID, 0, len(req.IDs))
	for _, raw := range req.IDs {
		id, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			pkg.BadRequestResponse(c, "Invalid request ID: "+raw)
			return
		}
		ids = append(ids, id)
	}

	results := h.requests.BulkTransition(c.Request.Context(), ids, models.RequestStatus(req.Status), req.AnswerText)
	pkg.SuccessResponse(c, http.StatusOK, "Bulk transition completed", results)
}
