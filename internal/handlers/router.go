package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/chalense/muni-laip/internal/middleware"
	"github.com/chalense/muni-laip/internal/pkg"
)

// Router bundles everything the HTTP surface needs.
type Router struct {
	Catalog   *CatalogHandler
	Documents *DocumentHandler
	Requests  *RequestHandler
	Stats     *StatsHandler
	Admin     *AdminHandler

	Auth     *middleware.AuthMiddleware
	Logging  *middleware.LoggingMiddleware
	Recovery *middleware.RecoveryMiddleware
	Metrics  *middleware.MetricsMiddleware
}

// Setup wires the full route table onto a gin engine.
func (r *Router) Setup(engine *gin.Engine) {
	engine.Use(middleware.RequestID())
	engine.Use(r.Recovery.Handler())
	engine.Use(r.Logging.Handler())
	engine.Use(r.Metrics.Handler())

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := engine.Group("/api/v1")

	// Public browsing surface, scoped per disclosure domain.
	domains := api.Group("/domains/:domain")
	{
		domains.GET("/categories", r.Catalog.ListCategories)
		domains.GET("/categories/:slug/tree", r.Catalog.GetCategoryTree)
		domains.GET("/categories/:slug/folders/:folderId", r.Catalog.GetFolder)

		domains.GET("/search", r.Documents.Search)
		domains.GET("/featured", r.Documents.ListFeatured)
		domains.GET("/recent", r.Documents.ListRecent)
		domains.GET("/top", r.Documents.ListMostDownloaded)
		domains.GET("/documents/:id/download", r.Documents.Download)
	}

	// Public information-request surface.
	api.POST("/requests", r.Requests.Submit)
	api.GET("/requests/:trackingCode", r.Requests.Lookup)

	api.GET("/statistics", r.Stats.GetStatistics)

	// Staff surface.
	admin := api.Group("/admin")
	admin.Use(r.Auth.RequireStaff())
	{
		adminDomains := admin.Group("/domains/:domain")
		{
			adminDomains.GET("/categories", r.Admin.ListCategories)
			adminDomains.POST("/categories", r.Admin.CreateCategory)
			adminDomains.PUT("/categories/:id", r.Admin.UpdateCategory)
			adminDomains.DELETE("/categories/:id", r.Admin.DeleteCategory)
			adminDomains.GET("/categories/:id/folder-options", r.Admin.FolderOptions)

			adminDomains.POST("/folders", r.Admin.CreateFolder)
			adminDomains.PUT("/folders/:id", r.Admin.UpdateFolder)
			adminDomains.DELETE("/folders/:id", r.Admin.DeleteFolder)

			adminDomains.POST("/documents", r.Admin.UploadDocument)
			adminDomains.PUT("/documents/:id", r.Admin.UpdateDocument)
			adminDomains.DELETE("/documents/:id", r.Admin.DeleteDocument)
			adminDomains.GET("/documents/:id/link", r.Admin.DocumentLink)
		}

		admin.GET("/requests", r.Admin.ListRequests)
		admin.POST("/requests/:id/transition", r.Admin.TransitionRequest)
		// Separate prefix: gin cannot mix a static segment with :id above.
		admin.POST("/requests-bulk/transition", r.Admin.BulkTransitionRequests)
	}

	engine.NoRoute(func(c *gin.Context) {
		pkg.NotFoundResponse(c, "Route not found")
	})
}
