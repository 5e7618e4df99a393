package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	organizationdomain "github.com/smallbiznis/teamgate/internal/organization/domain"
)

type createOrganizationRequest struct {
	Name         string `json:"name"`
	ContactEmail string `json:"contact_email"`
}

// CreateOrganization handles POST /organizations.
func (s *Server) CreateOrganization(c *gin.Context) {
	var req createOrganizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	org, err := s.organizationSvc.Create(c.Request.Context(), organizationdomain.CreateOrganizationRequest{
		Name:         req.Name,
		ContactEmail: req.ContactEmail,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, org)
}

// GetOrganization handles GET /organizations/:org_id.
func (s *Server) GetOrganization(c *gin.Context) {
	orgID := strings.TrimSpace(c.Param("org_id"))
	if orgID == "" {
		AbortWithError(c, organizationdomain.ErrInvalidOrganization)
		return
	}

	org, err := s.organizationSvc.GetByID(c.Request.Context(), orgID)
	if err != nil {
		AbortWithOrganizationError(c, orgID, err)
		return
	}

	c.JSON(http.StatusOK, org)
}
