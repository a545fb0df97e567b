package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/chalense/muni-laip/internal/middleware"
	"github.com/chalense/muni-laip/internal/models"
	"github.com/chalense/muni-laip/internal/pkg"
	"github.com/chalense/muni-laip/internal/services"
)

// RequestHandler serves the public information-request surface.
type RequestHandler struct {
	requests *services.RequestService
	metrics  *middleware.MetricsMiddleware
}

// NewRequestHandler creates a new request handler
func NewRequestHandler(requests *services.RequestService, metrics *middleware.MetricsMiddleware) *RequestHandler {
	return &RequestHandler{requests: requests, metrics: metrics}
}

// Submit accepts a new information request and returns its tracking code.
// POST /api/v1/requests
func (h *RequestHandler) Submit(c *gin.Context) {
	var input services.SubmitRequestInput
	if err := c.ShouldBindJSON(&input); err != nil {
		pkg.BadRequestResponse(c, "Invalid request data: "+err.Error())
		return
	}

	req, err := h.requests.Submit(c.Request.Context(), &input, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		handleError(c, err)
		return
	}

	if h.metrics != nil {
		h.metrics.InfoRequestsTotal.Inc()
	}

	pkg.CreatedResponse(c, "Request submitted successfully", gin.H{
		"trackingCode": req.TrackingCode,
		"submittedAt":  req.SubmittedAt,
		"deadlineDays": models.ResponseDeadlineDays,
	})
}

// Lookup resolves a tracking code into the request and its SLA state.
// GET /api/v1/requests/:trackingCode
func (h *RequestHandler) Lookup(c *gin.Context) {
	code := c.Param("trackingCode")
	if err := pkg.DefaultValidator.ValidateField(code, "required,trackingcode"); err != nil {
		pkg.BadRequestResponse(c, "Invalid tracking code format")
		return
	}

	view, err := h.requests.Lookup(c.Request.Context(), code)
	if err != nil {
		handleError(c, err)
		return
	}
	pkg.SuccessResponse(c, http.StatusOK, "Request retrieved successfully", view)
}
