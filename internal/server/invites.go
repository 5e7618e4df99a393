package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	invitedomain "github.com/smallbiznis/teamgate/internal/invite/domain"
	organizationdomain "github.com/smallbiznis/teamgate/internal/organization/domain"
)

type sendInviteLinksRequest struct {
	Emails []string `json:"emails"`
}

type sendInviteLinksResponse struct {
	Status     string                          `json:"status"`
	Message    string                          `json:"message"`
	StatusCode int                             `json:"status_code"`
	Sent       int                             `json:"sent"`
	Failed     []invitedomain.RecipientFailure `json:"failed,omitempty"`
}

type createInviteLinkResponse struct {
	StatusCode int    `json:"status_code"`
	Message    string `json:"message"`
	Link       string `json:"link"`
}

type listInvitesResponse struct {
	StatusCode int                          `json:"status_code"`
	Message    string                       `json:"message"`
	Data       []invitedomain.InviteSummary `json:"data"`
}

// SendInviteLinks handles POST /organizations/:org_id/invites.
func (s *Server) SendInviteLinks(c *gin.Context) {
	orgID := strings.TrimSpace(c.Param("org_id"))
	if orgID == "" {
		AbortWithError(c, organizationdomain.ErrInvalidOrganization)
		return
	}

	var req sendInviteLinksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	result, err := s.inviteSvc.SendInviteLinks(c.Request.Context(), invitedomain.SendInviteLinksRequest{
		OrganizationID: orgID,
		Emails:         req.Emails,
	})
	if err != nil {
		AbortWithOrganizationError(c, orgID, err)
		return
	}

	resp := sendInviteLinksResponse{
		Status:     "success",
		Message:    "Invite links sent successfully",
		StatusCode: http.StatusCreated,
		Sent:       result.Sent,
		Failed:     result.Failed,
	}
	if len(result.Failed) > 0 {
		resp.Status = "partial"
		resp.Message = "Some invite links could not be sent"
	}

	c.JSON(http.StatusCreated, resp)
}

// CreateInviteLink handles POST /organizations/:org_id/invites/link. It
// produces a shareable generic invite; no email is dispatched.
func (s *Server) CreateInviteLink(c *gin.Context) {
	orgID := strings.TrimSpace(c.Param("org_id"))
	if orgID == "" {
		AbortWithError(c, organizationdomain.ErrInvalidOrganization)
		return
	}

	result, err := s.inviteSvc.CreateInvite(c.Request.Context(), orgID)
	if err != nil {
		AbortWithOrganizationError(c, orgID, err)
		return
	}

	c.JSON(http.StatusCreated, createInviteLinkResponse{
		StatusCode: http.StatusCreated,
		Message:    "Invite link generated successfully",
		Link:       result.Link,
	})
}

// ListInvites handles GET /invites.
func (s *Server) ListInvites(c *gin.Context) {
	invites, err := s.inviteSvc.ListInvites(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, listInvitesResponse{
		StatusCode: http.StatusOK,
		Message:    "Successfully fetched invites",
		Data:       invites,
	})
}
