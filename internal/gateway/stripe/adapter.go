// Package stripe implements the card gateway against the Stripe REST API.
// It is a thin form-encoded client; no SDK, no webhook handling.
package stripe

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/smallbiznis/hostbill/internal/config"
	gatewaydomain "github.com/smallbiznis/hostbill/internal/gateway/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type AdapterParams struct {
	fx.In

	Logger *zap.Logger
	Config config.Config
}

type adapter struct {
	log    *zap.Logger
	client *client
}

func NewGateway(p AdapterParams) gatewaydomain.Gateway {
	return &adapter{
		log:    p.Logger.Named("gateway.stripe"),
		client: newClient(p.Config.Stripe.APIKey, p.Config.Stripe.AccountID, p.Config.Stripe.BaseURL),
	}
}

// NewGatewayWithBaseURL builds an adapter against an explicit endpoint.
// Used by tests that stand in for the Stripe API.
func NewGatewayWithBaseURL(log *zap.Logger, apiKey, baseURL string) gatewaydomain.Gateway {
	return &adapter{
		log:    log.Named("gateway.stripe"),
		client: newClient(apiKey, "", baseURL),
	}
}

func (a *adapter) EnsureCustomer(ctx context.Context, req gatewaydomain.EnsureCustomerRequest) (string, error) {
	if id := strings.TrimSpace(req.GatewayCustomerID); id != "" {
		return id, nil
	}

	values := url.Values{}
	values.Set("email", strings.TrimSpace(req.Email))
	if name := strings.TrimSpace(req.Name); name != "" {
		values.Set("name", name)
	}

	var customer stripeCustomer
	if err := a.client.do(ctx, http.MethodPost, "/v1/customers", values, "", &customer); err != nil {
		return "", err
	}
	if customer.ID == "" {
		return "", &gatewaydomain.Error{Message: "stripe_customer_response_invalid"}
	}
	return customer.ID, nil
}

func (a *adapter) ConfirmPayment(ctx context.Context, req gatewaydomain.ConfirmPaymentRequest) (gatewaydomain.PaymentResult, error) {
	switch {
	case strings.TrimSpace(req.PaymentIntentID) != "":
		return a.verifyIntent(ctx, req)
	case strings.TrimSpace(req.PaymentMethodID) != "":
		return a.chargeMethod(ctx, req)
	default:
		return gatewaydomain.PaymentResult{}, gatewaydomain.ErrInvalidConfig
	}
}

// verifyIntent handles the pre-confirmed flow: the client already ran the
// payment, the server only verifies outcome, amount and currency.
func (a *adapter) verifyIntent(ctx context.Context, req gatewaydomain.ConfirmPaymentRequest) (gatewaydomain.PaymentResult, error) {
	values := url.Values{}
	values.Set("expand[]", "payment_method")

	var intent paymentIntent
	err := a.client.do(ctx, http.MethodGet, "/v1/payment_intents/"+strings.TrimSpace(req.PaymentIntentID), values, "", &intent)
	if err != nil {
		return gatewaydomain.PaymentResult{}, err
	}
	if intent.ID == "" {
		return gatewaydomain.PaymentResult{}, gatewaydomain.ErrIntentNotFound
	}
	if intent.Amount != req.AmountCents || !strings.EqualFold(intent.Currency, req.Currency) {
		return gatewaydomain.PaymentResult{}, gatewaydomain.ErrAmountMismatch
	}
	return a.resultFromIntent(intent)
}

// chargeMethod handles the server-confirmed flow: attach the payment method
// to the customer if needed, then create and confirm an intent off-session.
func (a *adapter) chargeMethod(ctx context.Context, req gatewaydomain.ConfirmPaymentRequest) (gatewaydomain.PaymentResult, error) {
	methodID := strings.TrimSpace(req.PaymentMethodID)
	customerID := strings.TrimSpace(req.GatewayCustomerID)

	if customerID != "" {
		if err := a.attachMethod(ctx, methodID, customerID); err != nil {
			return gatewaydomain.PaymentResult{}, err
		}
	}

	values := url.Values{}
	values.Set("amount", strconv.FormatInt(req.AmountCents, 10))
	values.Set("currency", strings.ToLower(req.Currency))
	values.Set("payment_method", methodID)
	values.Set("confirm", "true")
	values.Set("automatic_payment_methods[enabled]", "false")
	values.Set("payment_method_types[]", "card")
	values.Set("expand[]", "payment_method")
	if customerID != "" {
		values.Set("customer", customerID)
	}
	if req.SavePaymentMethod {
		values.Set("setup_future_usage", "off_session")
	}
	for key, value := range req.Metadata {
		values.Set("metadata["+key+"]", value)
	}

	var intent paymentIntent
	err := a.client.do(ctx, http.MethodPost, "/v1/payment_intents", values, req.IdempotencyKey, &intent)
	if err != nil {
		return gatewaydomain.PaymentResult{}, err
	}
	return a.resultFromIntent(intent)
}

// attachMethod tolerates a method already attached to the same customer.
func (a *adapter) attachMethod(ctx context.Context, methodID, customerID string) error {
	values := url.Values{}
	values.Set("customer", customerID)

	var attached paymentMethod
	err := a.client.do(ctx, http.MethodPost, "/v1/payment_methods/"+methodID+"/attach", values, "", &attached)
	if err == nil {
		return nil
	}
	if err == gatewaydomain.ErrPaymentMethodInUse {
		existing, lookupErr := a.lookupMethod(ctx, methodID)
		if lookupErr == nil && existing.Customer == customerID {
			return nil
		}
	}
	return err
}

func (a *adapter) lookupMethod(ctx context.Context, methodID string) (paymentMethod, error) {
	var pm paymentMethod
	err := a.client.do(ctx, http.MethodGet, "/v1/payment_methods/"+methodID, nil, "", &pm)
	return pm, err
}

func (a *adapter) resultFromIntent(intent paymentIntent) (gatewaydomain.PaymentResult, error) {
	switch intent.Status {
	case "succeeded":
	case "requires_action", "requires_confirmation":
		return gatewaydomain.PaymentResult{}, &gatewaydomain.ActionRequiredError{
			IntentID:     intent.ID,
			ClientSecret: intent.ClientSecret,
		}
	default:
		a.log.Warn("payment_not_settled",
			zap.String("intent_id", intent.ID),
			zap.String("status", intent.Status),
		)
		return gatewaydomain.PaymentResult{}, &gatewaydomain.CardDeclinedError{
			IntentID: intent.ID,
			Code:     intent.Status,
		}
	}

	method := intent.method()
	return gatewaydomain.PaymentResult{
		IntentID:        intent.ID,
		Status:          intent.Status,
		PaymentMethodID: method.ID,
		AmountCents:     intent.Amount,
		Currency:        strings.ToUpper(intent.Currency),
		Card: gatewaydomain.Card{
			Brand:    method.Card.Brand,
			Last4:    method.Card.Last4,
			ExpMonth: method.Card.ExpMonth,
			ExpYear:  method.Card.ExpYear,
		},
	}, nil
}
