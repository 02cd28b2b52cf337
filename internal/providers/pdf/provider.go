// Package pdf renders customer-facing invoice documents.
package pdf

import (
	"context"
	"io"
)

// InvoiceData is the flattened, display-ready form of one paid invoice.
// Amounts arrive preformatted; this package does no money arithmetic.
type InvoiceData struct {
	InvoiceNumber string
	IssueDate     string
	PaidDate      string
	Status        string

	SellerName  string
	SellerEmail string

	BillToName  string
	BillToEmail string
	BillToRFC   string

	ServiceName string
	Domain      string

	Items []LineItem

	Subtotal string
	TaxLabel string
	Tax      string
	Total    string
	Currency string
}

// LineItem is one priced row on the invoice.
type LineItem struct {
	Description string
	Qty         int64
	UnitPrice   string
	Amount      string
}

type Provider interface {
	GenerateInvoice(ctx context.Context, data InvoiceData) (io.Reader, error)
}

func New() Provider {
	return &marotoProvider{}
}
