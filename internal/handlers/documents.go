package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/chalense/muni-laip/internal/middleware"
	"github.com/chalense/muni-laip/internal/pkg"
	"github.com/chalense/muni-laip/internal/repository"
)

// DocumentHandler serves the public document surface: download, search and
// the highlight listings.
type DocumentHandler struct {
	registry DomainRegistry
	metrics  *middleware.MetricsMiddleware
	logger   *pkg.Logger
}

// NewDocumentHandler creates a new document handler
func NewDocumentHandler(registry DomainRegistry, metrics *middleware.MetricsMiddleware, logger *pkg.Logger) *DocumentHandler {
	return &DocumentHandler{
		registry: registry,
		metrics:  metrics,
		logger:   logger,
	}
}

// Download streams a published document and counts the download.
// GET /api/v1/domains/:domain/documents/:id/download
func (h *DocumentHandler) Download(c *gin.Context) {
	ds, ok := h.registry.resolve(c)
	if !ok {
		return
	}
	id, ok := objectIDParam(c, "id")
	if !ok {
		return
	}

	result, err := ds.Documents.Download(c.Request.Context(), id)
	if err != nil {
		handleError(c, err)
		return
	}
	defer result.Body.Close()

	if h.metrics != nil {
		h.metrics.DownloadsTotal.WithLabelValues(ds.Domain.Name).Inc()
	}

	c.DataFromReader(http.StatusOK, result.Document.SizeBytes, result.ContentType, result.Body, map[string]string{
		"Content-Disposition": fmt.Sprintf(`attachment; filename="%s"`, result.Document.FileName),
	})
}

// Search finds published documents by text, category and extension.
// GET /api/v1/domains/:domain/search
func (h *DocumentHandler) Search(c *gin.Context) {
	ds, ok := h.registry.resolve(c)
	if !ok {
		return
	}

	params := pkg.NewPaginationParams(c)
	search := &repository.DocumentSearch{
		Query:     params.Search,
		Extension: c.Query("extension"),
	}
	if raw := c.Query("category"); raw != "" {
		categoryID, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			pkg.BadRequestResponse(c, "Invalid category")
			return
		}
		search.CategoryIDs = []primitive.ObjectID{categoryID}
	}

	documents, total, err := ds.Documents.Search(c.Request.Context(), search, params)
	if err != nil {
		handleError(c, err)
		return
	}
	pkg.PaginatedResponse(c, "Documents retrieved successfully", pkg.NewPaginationResult(documents, total, params))
}

// ListFeatured returns the domain's featured documents.
// GET /api/v1/domains/:domain/featured
func (h *DocumentHandler) ListFeatured(c *gin.Context) {
	ds, ok := h.registry.resolve(c)
	if !ok {
		return
	}

	documents, err := ds.Documents.ListFeatured(c.Request.Context(), nil, limitQuery(c, 10))
	if err != nil {
		handleError(c, err)
		return
	}
	pkg.SuccessResponse(c, http.StatusOK, "Featured documents retrieved successfully", documents)
}

// ListRecent returns the domain's newest documents.
// GET /api/v1/domains/:domain/recent
func (h *DocumentHandler) ListRecent(c *gin.Context) {
	ds, ok := h.registry.resolve(c)
	if !ok {
		return
	}

	documents, err := ds.Documents.ListRecent(c.Request.Context(), nil, limitQuery(c, 10))
	if err != nil {
		handleError(c, err)
		return
	}
	pkg.SuccessResponse(c, http.StatusOK, "Recent documents retrieved successfully", documents)
}

// ListMostDownloaded returns the domain's most downloaded documents.
// GET /api/v1/domains/:domain/top
func (h *DocumentHandler) ListMostDownloaded(c *gin.Context) {
	ds, ok := h.registry.resolve(c)
	if !ok {
		return
	}

	documents, err := ds.Documents.ListMostDownloaded(c.Request.Context(), limitQuery(c, 10))
	if err != nil {
		handleError(c, err)
		return
	}
	pkg.SuccessResponse(c, http.StatusOK, "Most downloaded documents retrieved successfully", documents)
}

// limitQuery parses a bounded ?limit= value.
func limitQuery(c *gin.Context, fallback int64) int64 {
	raw := c.Query("limit")
	if raw == "" {
		return fallback
	}
	limit, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || limit <= 0 {
		return fallback
	}
	if limit > 50 {
		return 50
	}
	return limit
}
