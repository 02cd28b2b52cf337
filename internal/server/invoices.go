package server

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	invoicedomain "github.com/smallbiznis/hostbill/internal/invoice/domain"
	"github.com/smallbiznis/hostbill/pkg/db/pagination"
)

func (s *Server) ListInvoices(c *gin.Context) {
	var query struct {
		pagination.Pagination
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

	resp, err := s.invoiceSvc.List(c.Request.Context(), invoicedomain.ListInvoicesRequest{
		CustomerID: customerID,
		PageToken:  query.PageToken,
		PageSize:   query.PageSize,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetInvoice(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.invoiceSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetInvoicePDF(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	detail, err := s.invoiceSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	reader, err := s.invoiceSvc.RenderPDF(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	document, err := io.ReadAll(reader)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+detail.Invoice.Number+`.pdf"`)
	c.Data(http.StatusOK, "application/pdf", document)
}
