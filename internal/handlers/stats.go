package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/chalense/muni-laip/internal/pkg"
	"github.com/chalense/muni-laip/internal/services"
)

// StatsHandler serves the public transparency statistics.
type StatsHandler struct {
	stats *services.StatsService
}

// NewStatsHandler creates a new stats handler
func NewStatsHandler(stats *services.StatsService) *StatsHandler {
	return &StatsHandler{stats: stats}
}

// GetStatistics returns the portal-wide snapshot, optionally scoped to one
// category via ?category=<id>.
// GET /api/v1/statistics
func (h *StatsHandler) GetStatistics(c *gin.Context) {
	var categoryID *primitive.ObjectID
	if raw := c.Query("category"); raw != "" {
		id, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			pkg.BadRequestResponse(c, "Invalid category")
			return
		}
		categoryID = &id
	}

	stats, err := h.stats.GetPortalStatistics(c.Request.Context(), categoryID)
	if err != nil {
		handleError(c, err)
		return
	}
	pkg.SuccessResponse(c, http.StatusOK, "Statistics retrieved successfully", stats)
}
