package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	auditdomain "github.com/smallbiznis/hostbill/internal/audit/domain"
	"github.com/smallbiznis/hostbill/internal/clock"
	"github.com/smallbiznis/hostbill/internal/config"
	customerdomain "github.com/smallbiznis/hostbill/internal/customer/domain"
	customerrepository "github.com/smallbiznis/hostbill/internal/customer/repository"
	gatewaydomain "github.com/smallbiznis/hostbill/internal/gateway/domain"
	hostingdomain "github.com/smallbiznis/hostbill/internal/hosting/domain"
	hostingrepository "github.com/smallbiznis/hostbill/internal/hosting/repository"
	invoicedomain "github.com/smallbiznis/hostbill/internal/invoice/domain"
	invoicerepository "github.com/smallbiznis/hostbill/internal/invoice/repository"
	"github.com/smallbiznis/hostbill/internal/migration"
	orderdomain "github.com/smallbiznis/hostbill/internal/order/domain"
	orderrepository "github.com/smallbiznis/hostbill/internal/order/repository"
	plandomain "github.com/smallbiznis/hostbill/internal/plan/domain"
	planrepository "github.com/smallbiznis/hostbill/internal/plan/repository"
	transactiondomain "github.com/smallbiznis/hostbill/internal/transaction/domain"
	transactionrepository "github.com/smallbiznis/hostbill/internal/transaction/repository"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fakeGateway struct {
	ensureCalls  int
	confirmCalls int
	lastConfirm  gatewaydomain.ConfirmPaymentRequest
	ensured      string
	result       gatewaydomain.PaymentResult
	err          error
}

func (f *fakeGateway) EnsureCustomer(ctx context.Context, req gatewaydomain.EnsureCustomerRequest) (string, error) {
	_ = ctx
	f.ensureCalls++
	if req.GatewayCustomerID != "" {
		return req.GatewayCustomerID, nil
	}
	return f.ensured, nil
}

func (f *fakeGateway) ConfirmPayment(ctx context.Context, req gatewaydomain.ConfirmPaymentRequest) (gatewaydomain.PaymentResult, error) {
	_ = ctx
	f.confirmCalls++
	f.lastConfirm = req
	if f.err != nil {
		return gatewaydomain.PaymentResult{}, f.err
	}
	return f.result, nil
}

type fakeAudit struct {
	actions []string
}

func (f *fakeAudit) Record(ctx context.Context, action, targetType string, targetID *string, metadata map[string]any) error {
	_ = ctx
	_ = targetType
	_ = targetID
	_ = metadata
	f.actions = append(f.actions, action)
	return nil
}

var _ auditdomain.Service = (*fakeAudit)(nil)

type orderFixture struct {
	db       *gorm.DB
	svc      orderdomain.Service
	gateway  *fakeGateway
	audit    *fakeAudit
	node     *snowflake.Node
	customer customerdomain.Customer
	plan     plandomain.Plan
	addons   []plandomain.AddOn
	now      time.Time
}

var orderTestSeq int

func newOrderFixture(t *testing.T) *orderFixture {
	t.Helper()

	orderTestSeq++
	dsn := fmt.Sprintf("file:ordertest%d?mode=memory&cache=shared", orderTestSeq)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, migration.AutoMigrate(db))

	node, err := snowflake.NewNode(7)
	require.NoError(t, err)

	now := time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC)

	customer := customerdomain.Customer{
		ID:    node.Generate(),
		Email: "ana@example.com",
		Name:  "Ana Torres",
	}
	require.NoError(t, db.Create(&customer).Error)

	plan := plandomain.Plan{
		ID:                node.Generate(),
		Slug:              "business",
		Name:              "Business",
		MonthlyPriceCents: 1999,
		Currency:          "MXN",
		Active:            true,
	}
	require.NoError(t, db.Create(&plan).Error)

	addons := []plandomain.AddOn{
		{ID: node.Generate(), Code: "daily-backups", Name: "Daily Backups", MonthlyPriceCents: 200, Active: true},
		{ID: node.Generate(), Code: "dedicated-ip", Name: "Dedicated IP", MonthlyPriceCents: 300, Active: true},
	}
	for i := range addons {
		require.NoError(t, db.Create(&addons[i]).Error)
		require.NoError(t, db.Create(&plandomain.PlanAddOn{PlanID: plan.ID, AddOnID: addons[i].ID}).Error)
	}

	billing, err := config.NewBillingConfigHolder(config.Config{
		TaxRateBps:      1600,
		DefaultCurrency: "MXN",
	})
	require.NoError(t, err)

	gateway := &fakeGateway{
		result: gatewaydomain.PaymentResult{
			IntentID:        "pi_ok",
			Status:          "succeeded",
			PaymentMethodID: "pm_card",
			AmountCents:     2899,
			Currency:        "MXN",
			Card:            gatewaydomain.Card{Brand: "visa", Last4: "4242", ExpMonth: 12, ExpYear: 2030},
		},
	}
	audit := &fakeAudit{}

	svc := NewService(ServiceParams{
		Logger:       zap.NewNop(),
		DB:           db,
		Node:         node,
		Clock:        clock.NewFakeClock(now),
		Billing:      billing,
		Gateway:      gateway,
		PlanRepo:     planrepository.Provide(),
		CustomerRepo: customerrepository.Provide(),
		HostingRepo:  hostingrepository.Provide(),
		InvoiceRepo:  invoicerepository.Provide(),
		TxRepo:       transactionrepository.Provide(),
		AttemptRepo:  orderrepository.Provide(),
		Audit:        audit,
	})

	return &orderFixture{
		db:       db,
		svc:      svc,
		gateway:  gateway,
		audit:    audit,
		node:     node,
		customer: customer,
		plan:     plan,
		addons:   addons,
		now:      now,
	}
}

func (f *orderFixture) baseRequest() orderdomain.PlaceOrderRequest {
	return orderdomain.PlaceOrderRequest{
		CustomerID:      f.customer.ID.String(),
		PlanID:          "business",
		BillingCycle:    "monthly",
		ServiceName:     "ana-shop",
		PaymentIntentID: "pi_ok",
		AddOns:          []string{f.addons[0].ID.String(), f.addons[1].ID.String()},
	}
}

func (f *orderFixture) countRows(t *testing.T, table string) int64 {
	t.Helper()
	var count int64
	require.NoError(t, f.db.Table(table).Count(&count).Error)
	return count
}

func (f *orderFixture) lastAttempt(t *testing.T) orderdomain.OrderAttempt {
	t.Helper()
	var attempt orderdomain.OrderAttempt
	require.NoError(t, f.db.Raw(`SELECT * FROM order_attempts ORDER BY id DESC LIMIT 1`).Scan(&attempt).Error)
	return attempt
}

func TestPlaceOrderCommitsAllRows(t *testing.T) {
	f := newOrderFixture(t)

	resp, err := f.svc.PlaceOrder(context.Background(), f.baseRequest())
	require.NoError(t, err)

	require.Equal(t, int64(2499), resp.Invoice.SubtotalCents)
	require.Equal(t, int64(400), resp.Invoice.TaxCents)
	require.Equal(t, int64(2899), resp.Invoice.TotalCents)
	require.Equal(t, "MXN", resp.Invoice.Currency)
	require.True(t, strings.HasPrefix(resp.Invoice.Number, "INV-"))
	require.Equal(t, invoicedomain.StatusPaid, resp.Invoice.Status)
	require.NotNil(t, resp.Invoice.PaidAt)

	require.Equal(t, hostingdomain.StatusActive, resp.Service.Status)
	require.Equal(t, int64(1999), resp.Service.UnitPriceCents)
	require.Equal(t, f.now.AddDate(0, 1, 0), resp.Service.NextDueAt.UTC())
	require.Equal(t, "pi_ok", resp.Service.GatewayIntentID)

	require.EqualValues(t, 1, f.countRows(t, "services"))
	require.EqualValues(t, 2, f.countRows(t, "service_addons"))
	require.EqualValues(t, 1, f.countRows(t, "invoices"))
	require.EqualValues(t, 3, f.countRows(t, "invoice_items"))
	require.EqualValues(t, 1, f.countRows(t, "transactions"))

	var itemSum int64
	require.NoError(t, f.db.Raw(`SELECT COALESCE(SUM(amount_cents), 0) FROM invoice_items`).Scan(&itemSum).Error)
	require.Equal(t, resp.Invoice.SubtotalCents, itemSum)

	var tx transactiondomain.Transaction
	require.NoError(t, f.db.Raw(`SELECT * FROM transactions LIMIT 1`).Scan(&tx).Error)
	require.Equal(t, "pi_ok", tx.GatewayIntentID)
	require.Equal(t, transactiondomain.StatusCompleted, tx.Status)
	require.Equal(t, int64(2899), tx.AmountCents)

	attempt := f.lastAttempt(t)
	require.Equal(t, orderdomain.AttemptCommitted, attempt.Status)
	require.NotNil(t, attempt.GatewayIntentID)
	require.Equal(t, "pi_ok", *attempt.GatewayIntentID)

	require.Contains(t, f.audit.actions, "order.placed")
	require.Equal(t, 1, f.gateway.confirmCalls)
}

func TestPlaceOrderAnnualCycle(t *testing.T) {
	f := newOrderFixture(t)

	req := f.baseRequest()
	req.BillingCycle = "annually"
	req.AddOns = nil

	resp, err := f.svc.PlaceOrder(context.Background(), req)
	require.NoError(t, err)

	require.Equal(t, int64(1999*12), resp.Invoice.SubtotalCents)
	require.Equal(t, f.now.AddDate(0, 12, 0), resp.Service.NextDueAt.UTC())
}

func TestPlaceOrderAddOnNotAllowed(t *testing.T) {
	f := newOrderFixture(t)

	foreign := plandomain.AddOn{
		ID:                f.node.Generate(),
		Code:              "priority-support",
		Name:              "Priority Support",
		MonthlyPriceCents: 500,
		Active:            true,
	}
	require.NoError(t, f.db.Create(&foreign).Error)

	req := f.baseRequest()
	req.AddOns = []string{foreign.ID.String()}

	_, err := f.svc.PlaceOrder(context.Background(), req)
	require.ErrorIs(t, err, orderdomain.ErrAddOnNotAllowed)

	require.EqualValues(t, 0, f.countRows(t, "services"))
	require.EqualValues(t, 0, f.countRows(t, "invoices"))
	require.Equal(t, 0, f.gateway.confirmCalls)
}

func TestPlaceOrderRequiresExactlyOnePaymentReference(t *testing.T) {
	f := newOrderFixture(t)

	req := f.baseRequest()
	req.PaymentMethodID = "pm_also"

	_, err := f.svc.PlaceOrder(context.Background(), req)
	require.ErrorIs(t, err, orderdomain.ErrPaymentReference)

	req = f.baseRequest()
	req.PaymentIntentID = ""

	_, err = f.svc.PlaceOrder(context.Background(), req)
	require.ErrorIs(t, err, orderdomain.ErrPaymentReference)

	require.Equal(t, 0, f.gateway.confirmCalls)
}

func TestPlaceOrderActionRequiredWritesNothing(t *testing.T) {
	f := newOrderFixture(t)
	f.gateway.err = &gatewaydomain.ActionRequiredError{
		IntentID:     "pi_3ds",
		ClientSecret: "pi_3ds_secret",
	}

	_, err := f.svc.PlaceOrder(context.Background(), f.baseRequest())

	var actionErr *gatewaydomain.ActionRequiredError
	require.ErrorAs(t, err, &actionErr)
	require.Equal(t, "pi_3ds_secret", actionErr.ClientSecret)

	require.EqualValues(t, 0, f.countRows(t, "services"))
	require.EqualValues(t, 0, f.countRows(t, "service_addons"))
	require.EqualValues(t, 0, f.countRows(t, "invoices"))
	require.EqualValues(t, 0, f.countRows(t, "invoice_items"))
	require.EqualValues(t, 0, f.countRows(t, "transactions"))

	attempt := f.lastAttempt(t)
	require.Equal(t, orderdomain.AttemptFailed, attempt.Status)
	require.NotNil(t, attempt.FailureReason)
}

func TestPlaceOrderDuplicateIntentRejectedBeforeCharge(t *testing.T) {
	f := newOrderFixture(t)

	existing := transactiondomain.Transaction{
		ID:              f.node.Generate(),
		CustomerID:      f.customer.ID,
		InvoiceID:       f.node.Generate(),
		GatewayIntentID: "pi_ok",
		AmountCents:     2899,
		Currency:        "MXN",
		Status:          transactiondomain.StatusCompleted,
	}
	require.NoError(t, f.db.Create(&existing).Error)

	_, err := f.svc.PlaceOrder(context.Background(), f.baseRequest())
	require.ErrorIs(t, err, orderdomain.ErrDuplicatePayment)
	require.Equal(t, 0, f.gateway.confirmCalls)
	require.EqualValues(t, 1, f.countRows(t, "transactions"))
}

func TestPlaceOrderMethodPathEnsuresGatewayCustomer(t *testing.T) {
	f := newOrderFixture(t)

	f.gateway.ensured = "cus_new"
	req := f.baseRequest()
	req.PaymentIntentID = ""
	req.PaymentMethodID = "pm_card"
	req.CreateSubscription = true

	_, err := f.svc.PlaceOrder(context.Background(), req)
	require.NoError(t, err)

	require.Equal(t, 1, f.gateway.ensureCalls)
	require.Equal(t, "cus_new", f.gateway.lastConfirm.GatewayCustomerID)
	require.True(t, f.gateway.lastConfirm.SavePaymentMethod)
	require.True(t, strings.HasPrefix(f.gateway.lastConfirm.IdempotencyKey, "order:"))

	var stored customerdomain.Customer
	require.NoError(t, f.db.Raw(`SELECT * FROM customers WHERE id = ?`, f.customer.ID).Scan(&stored).Error)
	require.NotNil(t, stored.GatewayCustomerID)
	require.Equal(t, "cus_new", *stored.GatewayCustomerID)

	var service hostingdomain.Service
	require.NoError(t, f.db.Raw(`SELECT * FROM services LIMIT 1`).Scan(&service).Error)
	require.True(t, service.CreateSubscription)
}

func TestPlaceOrderTaxProfilePersisted(t *testing.T) {
	f := newOrderFixture(t)

	req := f.baseRequest()
	req.Invoice = &orderdomain.TaxInvoiceRequest{
		RFC:     "TOA900101XX1",
		Name:    "Ana Torres",
		Zip:     "06600",
		Regimen: "612",
		UsoCFDI: "G03",
	}

	resp, err := f.svc.PlaceOrder(context.Background(), req)
	require.NoError(t, err)

	var profile hostingdomain.TaxProfile
	require.NoError(t, f.db.Raw(`SELECT * FROM tax_profiles WHERE service_id = ?`, resp.Service.ID).Scan(&profile).Error)
	require.Equal(t, "TOA900101XX1", profile.RFC)
	require.Equal(t, "G03", profile.UsoCFDI)
}

func TestPlaceOrderIncompleteTaxProfileRejected(t *testing.T) {
	f := newOrderFixture(t)

	req := f.baseRequest()
	req.Invoice = &orderdomain.TaxInvoiceRequest{RFC: "TOA900101XX1"}

	_, err := f.svc.PlaceOrder(context.Background(), req)
	require.ErrorIs(t, err, orderdomain.ErrIncompleteTaxProfile)
	require.Equal(t, 0, f.gateway.confirmCalls)
}

func TestPlaceOrderPersistenceFailureAfterCharge(t *testing.T) {
	f := newOrderFixture(t)

	// Sabotage the write stage after the charge would have settled.
	require.NoError(t, f.db.Exec(`DROP TABLE invoice_items`).Error)

	_, err := f.svc.PlaceOrder(context.Background(), f.baseRequest())

	var persistErr *orderdomain.PersistenceError
	require.ErrorAs(t, err, &persistErr)
	require.Equal(t, "pi_ok", persistErr.IntentID)
	require.Error(t, errors.Unwrap(persistErr))

	// The transaction rolled back; nothing besides the attempt survived.
	require.EqualValues(t, 0, f.countRows(t, "services"))
	require.EqualValues(t, 0, f.countRows(t, "invoices"))
	require.EqualValues(t, 0, f.countRows(t, "transactions"))

	attempt := f.lastAttempt(t)
	require.Equal(t, orderdomain.AttemptFailed, attempt.Status)
	require.NotNil(t, attempt.GatewayIntentID)
	require.Equal(t, "pi_ok", *attempt.GatewayIntentID)
	require.Equal(t, 1, f.gateway.confirmCalls)
}
