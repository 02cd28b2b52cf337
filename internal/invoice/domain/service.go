package domain

import (
	"context"
	"errors"
	"io"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/hostbill/pkg/db/pagination"
)

type ListInvoicesRequest struct {
	CustomerID snowflake.ID
	PageToken  string
	PageSize   int
}

type ListInvoicesResponse struct {
	pagination.PageInfo
	Invoices []Invoice `json:"invoices"`
}

// InvoiceDetail is an invoice with its line items.
type InvoiceDetail struct {
	Invoice Invoice       `json:"invoice"`
	Items   []InvoiceItem `json:"items"`
}

type Service interface {
	List(ctx context.Context, req ListInvoicesRequest) (ListInvoicesResponse, error)
	GetByID(ctx context.Context, id snowflake.ID) (InvoiceDetail, error)
	RenderPDF(ctx context.Context, id snowflake.ID) (io.Reader, error)
}

var (
	ErrNotFound         = errors.New("invoice_not_found")
	ErrInvalidPageToken = errors.New("invalid_page_token")
)
