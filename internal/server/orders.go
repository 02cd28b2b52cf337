package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	orderdomain "github.com/smallbiznis/hostbill/internal/order/domain"
)

// PlaceOrder is the contracting endpoint: it validates the selection,
// confirms the payment with the gateway and commits the order atomically.
func (s *Server) PlaceOrder(c *gin.Context) {
	var req orderdomain.PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.orderSvc.PlaceOrder(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}
