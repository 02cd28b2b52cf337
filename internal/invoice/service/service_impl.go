package service

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/hostbill/internal/config"
	customerdomain "github.com/smallbiznis/hostbill/internal/customer/domain"
	hostingdomain "github.com/smallbiznis/hostbill/internal/hosting/domain"
	invoicedomain "github.com/smallbiznis/hostbill/internal/invoice/domain"
	"github.com/smallbiznis/hostbill/internal/providers/pdf"
	"github.com/smallbiznis/hostbill/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParams struct {
	fx.In

	Logger       *zap.Logger
	DB           *gorm.DB
	Config       config.Config
	Repository   invoicedomain.Repository
	CustomerRepo customerdomain.Repository
	HostingRepo  hostingdomain.Repository
	PDF          pdf.Provider
}

type invoiceService struct {
	log          *zap.Logger
	db           *gorm.DB
	cfg          config.Config
	repo         invoicedomain.Repository
	customerRepo customerdomain.Repository
	hostingRepo  hostingdomain.Repository
	pdf          pdf.Provider
}

func NewService(p ServiceParams) invoicedomain.Service {
	return &invoiceService{
		log:          p.Logger.Named("invoice.service"),
		db:           p.DB,
		cfg:          p.Config,
		repo:         p.Repository,
		customerRepo: p.CustomerRepo,
		hostingRepo:  p.HostingRepo,
		pdf:          p.PDF,
	}
}

func (s *invoiceService) List(ctx context.Context, req invoicedomain.ListInvoicesRequest) (invoicedomain.ListInvoicesResponse, error) {
	limit := req.PageSize
	if limit <= 0 {
		limit = 20
	}
	if limit > 250 {
		limit = 250
	}

	var afterID snowflake.ID
	if token := strings.TrimSpace(req.PageToken); token != "" {
		cursor, err := pagination.DecodeCursor(token)
		if err != nil {
			return invoicedomain.ListInvoicesResponse{}, invoicedomain.ErrInvalidPageToken
		}
		id, err := strconv.ParseInt(cursor.ID, 10, 64)
		if err != nil {
			return invoicedomain.ListInvoicesResponse{}, invoicedomain.ErrInvalidPageToken
		}
		afterID = snowflake.ID(id)
	}

	invoices, err := s.repo.List(ctx, s.db, req.CustomerID, afterID, limit+1)
	if err != nil {
		return invoicedomain.ListInvoicesResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(invoices, limit, func(inv *invoicedomain.Invoice) string {
		token, encodeErr := pagination.EncodeCursor(pagination.Cursor{ID: inv.ID.String()})
		if encodeErr != nil {
			return ""
		}
		return token
	})

	if len(invoices) > limit {
		invoices = invoices[:limit]
	}
	out := make([]invoicedomain.Invoice, 0, len(invoices))
	for _, inv := range invoices {
		out = append(out, *inv)
	}

	return invoicedomain.ListInvoicesResponse{PageInfo: *pageInfo, Invoices: out}, nil
}

func (s *invoiceService) GetByID(ctx context.Context, id snowflake.ID) (invoicedomain.InvoiceDetail, error) {
	invoice, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return invoicedomain.InvoiceDetail{}, err
	}
	if invoice == nil {
		return invoicedomain.InvoiceDetail{}, invoicedomain.ErrNotFound
	}

	items, err := s.repo.ListItems(ctx, s.db, id)
	if err != nil {
		return invoicedomain.InvoiceDetail{}, err
	}

	return invoicedomain.InvoiceDetail{Invoice: *invoice, Items: items}, nil
}

func (s *invoiceService) RenderPDF(ctx context.Context, id snowflake.ID) (io.Reader, error) {
	detail, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	invoice := detail.Invoice

	data := pdf.InvoiceData{
		InvoiceNumber: invoice.Number,
		IssueDate:     invoice.CreatedAt.Format("2006-01-02"),
		Status:        string(invoice.Status),
		SellerName:    s.cfg.AppName,
		Subtotal:      formatCents(invoice.SubtotalCents),
		TaxLabel:      fmt.Sprintf("Tax (%s%%)", formatBps(invoice.TaxRateBps)),
		Tax:           formatCents(invoice.TaxCents),
		Total:         formatCents(invoice.TotalCents),
		Currency:      invoice.Currency,
	}
	if invoice.PaidAt != nil {
		data.PaidDate = invoice.PaidAt.Format("2006-01-02")
	}

	customer, err := s.customerRepo.FindByID(ctx, s.db, invoice.CustomerID)
	if err != nil {
		return nil, err
	}
	if customer != nil {
		data.BillToName = customer.Name
		data.BillToEmail = customer.Email
	}

	service, err := s.hostingRepo.FindByID(ctx, s.db, invoice.ServiceID)
	if err != nil {
		return nil, err
	}
	if service != nil {
		data.ServiceName = service.Name
		if service.Domain != nil {
			data.Domain = *service.Domain
		}
	}

	profile, err := s.hostingRepo.FindTaxProfile(ctx, s.db, invoice.ServiceID)
	if err != nil {
		return nil, err
	}
	if profile != nil {
		data.BillToRFC = profile.RFC
	}

	for _, item := range detail.Items {
		data.Items = append(data.Items, pdf.LineItem{
			Description: item.Description,
			Qty:         item.Quantity,
			UnitPrice:   formatCents(item.UnitCents),
			Amount:      formatCents(item.AmountCents),
		})
	}

	s.log.Debug("invoice_pdf_rendered", zap.String("invoice_id", id.String()))
	return s.pdf.GenerateInvoice(ctx, data)
}

func formatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}

func formatBps(bps int64) string {
	if bps%100 == 0 {
		return strconv.FormatInt(bps/100, 10)
	}
	return fmt.Sprintf("%d.%02d", bps/100, bps%100)
}
