package service

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/smallbiznis/hostbill/internal/audit/domain"
	"github.com/smallbiznis/hostbill/internal/clock"
	"github.com/smallbiznis/hostbill/internal/config"
	customerdomain "github.com/smallbiznis/hostbill/internal/customer/domain"
	gatewaydomain "github.com/smallbiznis/hostbill/internal/gateway/domain"
	hostingdomain "github.com/smallbiznis/hostbill/internal/hosting/domain"
	invoicedomain "github.com/smallbiznis/hostbill/internal/invoice/domain"
	invoiceservice "github.com/smallbiznis/hostbill/internal/invoice/service"
	"github.com/smallbiznis/hostbill/internal/observability/metrics"
	orderdomain "github.com/smallbiznis/hostbill/internal/order/domain"
	plandomain "github.com/smallbiznis/hostbill/internal/plan/domain"
	"github.com/smallbiznis/hostbill/internal/pricing"
	transactiondomain "github.com/smallbiznis/hostbill/internal/transaction/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ServiceParams struct {
	fx.In

	Logger        *zap.Logger
	DB            *gorm.DB
	Node          *snowflake.Node
	Clock         clock.Clock
	Billing       *config.BillingConfigHolder
	Gateway       gatewaydomain.Gateway
	PlanRepo      plandomain.Repository
	CustomerRepo  customerdomain.Repository
	HostingRepo   hostingdomain.Repository
	InvoiceRepo   invoicedomain.Repository
	TxRepo        transactiondomain.Repository
	AttemptRepo   orderdomain.AttemptRepository
	Audit         auditdomain.Service
	Metrics       *metrics.Metrics
}

type orderService struct {
	log          *zap.Logger
	db           *gorm.DB
	node         *snowflake.Node
	clock        clock.Clock
	billing      *config.BillingConfigHolder
	gateway      gatewaydomain.Gateway
	planRepo     plandomain.Repository
	customerRepo customerdomain.Repository
	hostingRepo  hostingdomain.Repository
	invoiceRepo  invoicedomain.Repository
	txRepo       transactiondomain.Repository
	attemptRepo  orderdomain.AttemptRepository
	audit        auditdomain.Service
	metrics      *metrics.Metrics
}

func NewService(p ServiceParams) orderdomain.Service {
	return &orderService{
		log:          p.Logger.Named("order.service"),
		db:           p.DB,
		node:         p.Node,
		clock:        p.Clock,
		billing:      p.Billing,
		gateway:      p.Gateway,
		planRepo:     p.PlanRepo,
		customerRepo: p.CustomerRepo,
		hostingRepo:  p.HostingRepo,
		invoiceRepo:  p.InvoiceRepo,
		txRepo:       p.TxRepo,
		attemptRepo:  p.AttemptRepo,
		audit:        p.Audit,
		metrics:      p.Metrics,
	}
}

// validatedOrder carries the resolved inputs from the validation stage.
type validatedOrder struct {
	customer *customerdomain.Customer
	plan     *plandomain.Plan
	cycle    pricing.BillingCycle
	months   int64
	addons   []plandomain.AddOn
}

func (s *orderService) PlaceOrder(ctx context.Context, req orderdomain.PlaceOrderRequest) (orderdomain.PlaceOrderResponse, error) {
	start := s.clock.Now()

	validated, err := s.validate(ctx, req)
	if err != nil {
		s.metrics.RecordOrderRejected(ctx, "validation")
		return orderdomain.PlaceOrderResponse{}, err
	}

	billing := s.billing.Current()
	quote, err := s.price(validated, billing.TaxRateBps)
	if err != nil {
		s.metrics.RecordOrderRejected(ctx, "pricing")
		return orderdomain.PlaceOrderResponse{}, err
	}

	// Idempotency: a confirmed intent already recorded means this order was
	// committed once; never charge or provision twice.
	if intentID := strings.TrimSpace(req.PaymentIntentID); intentID != "" {
		existing, err := s.txRepo.FindByIntentID(ctx, s.db, intentID)
		if err != nil {
			return orderdomain.PlaceOrderResponse{}, err
		}
		if existing != nil {
			s.metrics.RecordOrderRejected(ctx, "duplicate_payment")
			return orderdomain.PlaceOrderResponse{}, orderdomain.ErrDuplicatePayment
		}
	}

	// The attempt row precedes the charge: if the process dies between
	// gateway confirm and commit, reconciliation finds the orphan here.
	attempt := &orderdomain.OrderAttempt{
		ID:          s.node.Generate(),
		CustomerID:  validated.customer.ID,
		PlanID:      validated.plan.ID,
		AmountCents: quote.TotalCents,
		Currency:    quote.Currency,
		Status:      orderdomain.AttemptPending,
		CreatedAt:   s.clock.Now().UTC(),
		UpdatedAt:   s.clock.Now().UTC(),
	}
	if err := s.attemptRepo.Insert(ctx, s.db, attempt); err != nil {
		return orderdomain.PlaceOrderResponse{}, err
	}

	result, err := s.confirmPayment(ctx, req, validated, quote, attempt)
	if err != nil {
		s.resolveAttempt(ctx, attempt, orderdomain.AttemptFailed, failureReason(err))
		s.recordPaymentFailure(ctx, err)
		return orderdomain.PlaceOrderResponse{}, err
	}

	intentID := result.IntentID
	attempt.GatewayIntentID = &intentID
	s.resolveAttempt(ctx, attempt, orderdomain.AttemptConfirmed, nil)

	response, err := s.persist(ctx, req, validated, quote, result)
	if err != nil {
		reason := err.Error()
		s.resolveAttempt(ctx, attempt, orderdomain.AttemptFailed, &reason)
		s.log.Error("order_persistence_failed_after_charge",
			zap.String("attempt_id", attempt.ID.String()),
			zap.String("customer_id", validated.customer.ID.String()),
			zap.String("plan_slug", validated.plan.Slug),
			zap.Int64("amount_cents", quote.TotalCents),
			zap.String("gateway_intent_id", intentID),
			zap.Error(err),
		)
		return orderdomain.PlaceOrderResponse{}, &orderdomain.PersistenceError{IntentID: intentID, Err: err}
	}

	s.resolveAttempt(ctx, attempt, orderdomain.AttemptCommitted, nil)

	serviceID := response.Service.ID.String()
	_ = s.audit.Record(ctx, "order.placed", "service", &serviceID, map[string]any{
		"customer_id":       validated.customer.ID.String(),
		"plan_slug":         validated.plan.Slug,
		"billing_cycle":     string(validated.cycle),
		"subtotal_cents":    quote.SubtotalCents,
		"tax_cents":         quote.TaxCents,
		"total_cents":       quote.TotalCents,
		"gateway_intent_id": intentID,
		"invoice_number":    response.Invoice.Number,
	})

	s.metrics.RecordOrderPlaced(ctx, validated.plan.Slug, s.clock.Now().Sub(start).Seconds())
	s.log.Info("order_committed",
		zap.String("service_id", serviceID),
		zap.String("invoice_number", response.Invoice.Number),
		zap.Int64("total_cents", quote.TotalCents),
	)
	return response, nil
}

func (s *orderService) validate(ctx context.Context, req orderdomain.PlaceOrderRequest) (*validatedOrder, error) {
	customerID, err := snowflake.ParseString(strings.TrimSpace(req.CustomerID))
	if err != nil || customerID == 0 {
		return nil, orderdomain.ErrInvalidCustomer
	}
	customer, err := s.customerRepo.FindByID(ctx, s.db, customerID)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, orderdomain.ErrCustomerNotFound
	}

	plan, err := s.planRepo.FindBySlug(ctx, s.db, strings.ToLower(strings.TrimSpace(req.PlanID)))
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, orderdomain.ErrPlanNotFound
	}
	if !plan.Active {
		return nil, orderdomain.ErrPlanInactive
	}

	cycle := pricing.BillingCycle(strings.ToLower(strings.TrimSpace(req.BillingCycle)))
	months, err := pricing.CycleMonths(cycle)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(req.ServiceName) == "" {
		return nil, orderdomain.ErrInvalidServiceName
	}

	hasIntent := strings.TrimSpace(req.PaymentIntentID) != ""
	hasMethod := strings.TrimSpace(req.PaymentMethodID) != ""
	if hasIntent == hasMethod {
		return nil, orderdomain.ErrPaymentReference
	}

	if req.Invoice != nil {
		inv := req.Invoice
		if strings.TrimSpace(inv.RFC) == "" || strings.TrimSpace(inv.Name) == "" ||
			strings.TrimSpace(inv.Zip) == "" || strings.TrimSpace(inv.Regimen) == "" ||
			strings.TrimSpace(inv.UsoCFDI) == "" {
			return nil, orderdomain.ErrIncompleteTaxProfile
		}
	}

	addons, err := s.resolveAddOns(ctx, plan.ID, req.AddOns)
	if err != nil {
		return nil, err
	}

	return &validatedOrder{
		customer: customer,
		plan:     plan,
		cycle:    cycle,
		months:   months,
		addons:   addons,
	}, nil
}

// resolveAddOns checks the selection against the plan's allowed, active
// add-ons and rejects duplicates.
func (s *orderService) resolveAddOns(ctx context.Context, planID snowflake.ID, selected []string) ([]plandomain.AddOn, error) {
	if len(selected) == 0 {
		return nil, nil
	}

	allowed, err := s.planRepo.ListActiveAddOns(ctx, s.db, planID)
	if err != nil {
		return nil, err
	}
	byID := make(map[snowflake.ID]plandomain.AddOn, len(allowed))
	for _, addon := range allowed {
		byID[addon.ID] = addon
	}

	seen := make(map[snowflake.ID]bool, len(selected))
	resolved := make([]plandomain.AddOn, 0, len(selected))
	for _, raw := range selected {
		id, err := snowflake.ParseString(strings.TrimSpace(raw))
		if err != nil || id == 0 {
			return nil, orderdomain.ErrInvalidAddOn
		}
		if seen[id] {
			return nil, orderdomain.ErrDuplicateAddOn
		}
		seen[id] = true
		addon, ok := byID[id]
		if !ok {
			return nil, orderdomain.ErrAddOnNotAllowed
		}
		resolved = append(resolved, addon)
	}
	return resolved, nil
}

func (s *orderService) price(validated *validatedOrder, taxRateBps int64) (pricing.Quote, error) {
	items := make([]pricing.Item, 0, 1+len(validated.addons))
	items = append(items, pricing.Item{
		Kind:         pricing.LinePlan,
		Description:  validated.plan.Name,
		MonthlyCents: validated.plan.MonthlyPriceCents,
	})
	for _, addon := range validated.addons {
		items = append(items, pricing.Item{
			Kind:         pricing.LineAddOn,
			Description:  addon.Name,
			MonthlyCents: addon.MonthlyPriceCents,
		})
	}
	return pricing.BuildQuote(items, validated.cycle, taxRateBps, validated.plan.Currency)
}

// confirmPayment runs the gateway round trip. It happens strictly before
// the database transaction opens.
func (s *orderService) confirmPayment(
	ctx context.Context,
	req orderdomain.PlaceOrderRequest,
	validated *validatedOrder,
	quote pricing.Quote,
	attempt *orderdomain.OrderAttempt,
) (gatewaydomain.PaymentResult, error) {
	confirm := gatewaydomain.ConfirmPaymentRequest{
		AmountCents:       quote.TotalCents,
		Currency:          quote.Currency,
		PaymentIntentID:   strings.TrimSpace(req.PaymentIntentID),
		PaymentMethodID:   strings.TrimSpace(req.PaymentMethodID),
		SavePaymentMethod: req.CreateSubscription,
		IdempotencyKey:    "order:" + attempt.ID.String(),
		Metadata: map[string]string{
			"customer_id": validated.customer.ID.String(),
			"plan_slug":   validated.plan.Slug,
			"attempt_id":  attempt.ID.String(),
		},
	}

	// The server-confirmed path needs a gateway-side customer; create one
	// lazily and persist the id for reuse.
	if confirm.PaymentMethodID != "" {
		gatewayCustomerID := ""
		if validated.customer.GatewayCustomerID != nil {
			gatewayCustomerID = *validated.customer.GatewayCustomerID
		}
		ensured, err := s.gateway.EnsureCustomer(ctx, gatewaydomain.EnsureCustomerRequest{
			GatewayCustomerID: gatewayCustomerID,
			Email:             validated.customer.Email,
			Name:              validated.customer.Name,
		})
		if err != nil {
			return gatewaydomain.PaymentResult{}, err
		}
		if gatewayCustomerID == "" && ensured != "" {
			if err := s.customerRepo.UpdateGatewayCustomerID(ctx, s.db, validated.customer.ID, ensured); err != nil {
				s.log.Warn("gateway_customer_persist_failed",
					zap.String("customer_id", validated.customer.ID.String()),
					zap.Error(err),
				)
			}
		}
		confirm.GatewayCustomerID = ensured
	}

	return s.gateway.ConfirmPayment(ctx, confirm)
}

// persist writes every order row in one transaction.
func (s *orderService) persist(
	ctx context.Context,
	req orderdomain.PlaceOrderRequest,
	validated *validatedOrder,
	quote pricing.Quote,
	result gatewaydomain.PaymentResult,
) (orderdomain.PlaceOrderResponse, error) {
	now := s.clock.Now().UTC()
	nextDue := now.AddDate(0, int(validated.months), 0)

	service := hostingdomain.Service{
		ID:                 s.node.Generate(),
		CustomerID:         validated.customer.ID,
		PlanID:             validated.plan.ID,
		Name:               strings.TrimSpace(req.ServiceName),
		Domain:             req.Domain,
		UnitPriceCents:     validated.plan.MonthlyPriceCents,
		Currency:           quote.Currency,
		BillingCycle:       string(validated.cycle),
		Status:             hostingdomain.StatusActive,
		NextDueAt:          nextDue,
		GatewayIntentID:    result.IntentID,
		CreateSubscription: req.CreateSubscription,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	serviceAddOns := make([]hostingdomain.ServiceAddOn, 0, len(validated.addons))
	for _, addon := range validated.addons {
		serviceAddOns = append(serviceAddOns, hostingdomain.ServiceAddOn{
			ID:             s.node.Generate(),
			ServiceID:      service.ID,
			AddOnID:        addon.ID,
			Name:           addon.Name,
			UnitPriceCents: addon.MonthlyPriceCents,
			Quantity:       1,
			CreatedAt:      now,
		})
	}

	paidAt := now
	invoice := invoicedomain.Invoice{
		ID:              s.node.Generate(),
		Number:          invoiceservice.NewInvoiceNumber(now),
		CustomerID:      validated.customer.ID,
		ServiceID:       service.ID,
		Status:          invoicedomain.StatusPaid,
		SubtotalCents:   quote.SubtotalCents,
		TaxRateBps:      quote.TaxRateBps,
		TaxCents:        quote.TaxCents,
		TotalCents:      quote.TotalCents,
		Currency:        quote.Currency,
		GatewayIntentID: result.IntentID,
		PaidAt:          &paidAt,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	items := make([]invoicedomain.InvoiceItem, 0, len(quote.Lines))
	for _, line := range quote.Lines {
		items = append(items, invoicedomain.InvoiceItem{
			ID:          s.node.Generate(),
			InvoiceID:   invoice.ID,
			Kind:        invoicedomain.ItemKind(line.Kind),
			Description: line.Description,
			Quantity:    line.Quantity,
			UnitCents:   line.UnitCents,
			AmountCents: line.AmountCents,
			CreatedAt:   now,
		})
	}

	tx := transactiondomain.Transaction{
		ID:              s.node.Generate(),
		CustomerID:      validated.customer.ID,
		InvoiceID:       invoice.ID,
		GatewayIntentID: result.IntentID,
		PaymentMethodID: result.PaymentMethodID,
		AmountCents:     quote.TotalCents,
		Currency:        quote.Currency,
		Status:          transactiondomain.StatusCompleted,
		CardMetadata: datatypes.JSONMap{
			"brand":     result.Card.Brand,
			"last4":     result.Card.Last4,
			"exp_month": result.Card.ExpMonth,
			"exp_year":  result.Card.ExpYear,
		},
		CreatedAt: now,
	}

	err := s.db.WithContext(ctx).Transaction(func(txn *gorm.DB) error {
		if err := s.hostingRepo.Insert(ctx, txn, &service); err != nil {
			return err
		}
		if err := s.hostingRepo.InsertAddOns(ctx, txn, serviceAddOns); err != nil {
			return err
		}
		if req.Invoice != nil {
			profile := hostingdomain.TaxProfile{
				ID:            s.node.Generate(),
				ServiceID:     service.ID,
				RFC:           strings.TrimSpace(req.Invoice.RFC),
				Name:          strings.TrimSpace(req.Invoice.Name),
				Zip:           strings.TrimSpace(req.Invoice.Zip),
				Regimen:       strings.TrimSpace(req.Invoice.Regimen),
				UsoCFDI:       strings.TrimSpace(req.Invoice.UsoCFDI),
				ConstanciaURL: req.Invoice.Constancia,
				CreatedAt:     now,
			}
			if err := s.hostingRepo.InsertTaxProfile(ctx, txn, &profile); err != nil {
				return err
			}
		}
		if err := s.invoiceRepo.Insert(ctx, txn, &invoice); err != nil {
			return err
		}
		if err := s.invoiceRepo.InsertItems(ctx, txn, items); err != nil {
			return err
		}
		return s.txRepo.Insert(ctx, txn, &tx)
	})
	if err != nil {
		return orderdomain.PlaceOrderResponse{}, err
	}

	return orderdomain.PlaceOrderResponse{
		Service: service,
		AddOns:  serviceAddOns,
		Invoice: invoice,
		Items:   items,
	}, nil
}

func (s *orderService) resolveAttempt(ctx context.Context, attempt *orderdomain.OrderAttempt, status orderdomain.AttemptStatus, reason *string) {
	attempt.Status = status
	attempt.FailureReason = reason
	attempt.UpdatedAt = s.clock.Now().UTC()
	if err := s.attemptRepo.Update(ctx, s.db, attempt); err != nil {
		s.log.Warn("order_attempt_update_failed",
			zap.String("attempt_id", attempt.ID.String()),
			zap.Error(err),
		)
	}
}

func (s *orderService) recordPaymentFailure(ctx context.Context, err error) {
	var actionErr *gatewaydomain.ActionRequiredError
	var declinedErr *gatewaydomain.CardDeclinedError
	switch {
	case errors.As(err, &actionErr):
		s.metrics.RecordPaymentActionRequired(ctx)
	case errors.As(err, &declinedErr):
		s.metrics.RecordPaymentDeclined(ctx)
	default:
		s.metrics.RecordOrderRejected(ctx, "gateway")
	}
}

func failureReason(err error) *string {
	reason := err.Error()
	return &reason
}
