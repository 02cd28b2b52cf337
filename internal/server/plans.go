package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	plandomain "github.com/smallbiznis/hostbill/internal/plan/domain"
	"github.com/smallbiznis/hostbill/pkg/db/pagination"
)

func (s *Server) ListPlans(c *gin.Context) {
	var query struct {
		pagination.Pagination
		IncludeInactive bool `form:"include_inactive"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.planSvc.List(c.Request.Context(), plandomain.ListPlansRequest{
		IncludeInactive: query.IncludeInactive,
		PageToken:       query.PageToken,
		PageSize:        query.PageSize,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetPlan(c *gin.Context) {
	slug := strings.TrimSpace(c.Param("slug"))

	resp, err := s.planSvc.GetBySlug(c.Request.Context(), slug)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) CreatePlan(c *gin.Context) {
	var req plandomain.CreatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.planSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if s.auditSvc != nil {
		targetID := resp.ID.String()
		_ = s.auditSvc.Record(c.Request.Context(), "plan.create", "plan", &targetID, map[string]any{
			"slug": resp.Slug,
		})
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) CreateAddOn(c *gin.Context) {
	var req plandomain.CreateAddOnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.planSvc.CreateAddOn(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}
