package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	customerdomain "github.com/smallbiznis/hostbill/internal/customer/domain"
)

func (s *Server) CreateCustomer(c *gin.Context) {
	var req customerdomain.CreateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.customerSvc.Create(c.Request.Context(), customerdomain.CreateCustomerRequest{
		Email: strings.TrimSpace(req.Email),
		Name:  strings.TrimSpace(req.Name),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) GetCustomer(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.customerSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) SetDefaultPaymentMethod(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req struct {
		PaymentMethodID string `json:"payment_method_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.customerSvc.SetDefaultPaymentMethod(c.Request.Context(), id, strings.TrimSpace(req.PaymentMethodID))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
