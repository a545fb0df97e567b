package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/chalense/muni-laip/internal/models"
	"github.com/chalense/muni-laip/internal/pkg"
	"github.com/chalense/muni-laip/internal/services"
)

// DomainServices bundles the services of one disclosure domain.
type DomainServices struct {
	Domain    models.Domain
	Tree      *services.TreeService
	Catalog   *services.CatalogService
	Documents *services.DocumentService
}

// DomainRegistry resolves URL domain names to their service bundles.
type DomainRegistry map[string]*DomainServices

// resolve maps the :domain path parameter to its bundle; an unknown domain is
// a plain not-found.
func (r DomainRegistry) resolve(c *gin.Context) (*DomainServices, bool) {
	ds, ok := r[c.Param("domain")]
	if !ok {
		pkg.NotFoundResponse(c, "Unknown disclosure domain")
		return nil, false
	}
	return ds, true
}

// handleError renders any service error with its proper status code.
func handleError(c *gin.Context, err error) {
	var validationErrs pkg.ValidationErrors
	if errors.As(err, &validationErrs) {
		pkg.ValidationErrorResponse(c, validationErrs)
		return
	}
	if appErr, ok := pkg.IsAppError(err); ok {
		pkg.ErrorResponseFromAppError(c, appErr)
		return
	}
	pkg.InternalServerErrorResponse(c, "Internal server error")
}

// objectIDParam parses an ObjectID path parameter.
func objectIDParam(c *gin.Context, name string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param(name))
	if err != nil {
		pkg.BadRequestResponse(c, "Invalid "+name)
		return primitive.NilObjectID, false
	}
	return id, true
}
