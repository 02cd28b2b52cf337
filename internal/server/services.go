package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	hostingdomain "github.com/smallbiznis/hostbill/internal/hosting/domain"
	"github.com/smallbiznis/hostbill/pkg/db/pagination"
)

func (s *Server) ListServices(c *gin.Context) {
	var query struct {
		pagination.Pagination
		Status string `form:"status"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	customerID, err := optionalIDQuery(c, "customer_id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.hostingSvc.List(c.Request.Context(), hostingdomain.ListServicesRequest{
		CustomerID: customerID,
		Status:     strings.TrimSpace(query.Status),
		PageToken:  query.PageToken,
		PageSize:   query.PageSize,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetService(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.hostingSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) SuspendService(c *gin.Context) {
	s.transitionService(c, "service.suspend", s.hostingSvc.Suspend)
}

func (s *Server) CancelService(c *gin.Context) {
	s.transitionService(c, "service.cancel", s.hostingSvc.Cancel)
}

func (s *Server) ReactivateService(c *gin.Context) {
	s.transitionService(c, "service.reactivate", s.hostingSvc.Reactivate)
}

func (s *Server) transitionService(c *gin.Context, action string, transition func(ctx context.Context, id snowflake.ID) (hostingdomain.Service, error)) {
	id, err := idParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := transition(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if s.auditSvc != nil {
		targetID := resp.ID.String()
		_ = s.auditSvc.Record(c.Request.Context(), action, "service", &targetID, map[string]any{
			"status": string(resp.Status),
		})
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
