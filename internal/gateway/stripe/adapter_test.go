package stripe_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	gatewaydomain "github.com/smallbiznis/hostbill/internal/gateway/domain"
	"github.com/smallbiznis/hostbill/internal/gateway/stripe"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newGateway(t *testing.T, handler http.Handler) gatewaydomain.Gateway {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return stripe.NewGatewayWithBaseURL(zap.NewNop(), "sk_test_123", server.URL)
}

func TestVerifyIntentSucceeded(t *testing.T) {
	gw := newGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/v1/payment_intents/pi_123", r.URL.Path)
		require.Equal(t, "Bearer sk_test_123", r.Header.Get("Authorization"))
		require.Equal(t, "payment_method", r.URL.Query().Get("expand[]"))
		fmt.Fprint(w, `{
			"id": "pi_123",
			"client_secret": "pi_123_secret",
			"status": "succeeded",
			"amount": 2899,
			"currency": "mxn",
			"payment_method": {
				"id": "pm_456",
				"card": {"brand": "visa", "last4": "4242", "exp_month": 12, "exp_year": 2030}
			}
		}`)
	}))

	result, err := gw.ConfirmPayment(context.Background(), gatewaydomain.ConfirmPaymentRequest{
		AmountCents:     2899,
		Currency:        "MXN",
		PaymentIntentID: "pi_123",
	})
	require.NoError(t, err)
	require.Equal(t, "pi_123", result.IntentID)
	require.Equal(t, "pm_456", result.PaymentMethodID)
	require.Equal(t, "visa", result.Card.Brand)
	require.Equal(t, "4242", result.Card.Last4)
	require.Equal(t, "MXN", result.Currency)
}

func TestVerifyIntentAmountMismatch(t *testing.T) {
	gw := newGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id": "pi_123", "status": "succeeded", "amount": 100, "currency": "mxn"}`)
	}))

	_, err := gw.ConfirmPayment(context.Background(), gatewaydomain.ConfirmPaymentRequest{
		AmountCents:     2899,
		Currency:        "MXN",
		PaymentIntentID: "pi_123",
	})
	require.ErrorIs(t, err, gatewaydomain.ErrAmountMismatch)
}

func TestVerifyIntentRequiresAction(t *testing.T) {
	gw := newGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id": "pi_123", "client_secret": "pi_123_secret", "status": "requires_action", "amount": 2899, "currency": "mxn"}`)
	}))

	_, err := gw.ConfirmPayment(context.Background(), gatewaydomain.ConfirmPaymentRequest{
		AmountCents:     2899,
		Currency:        "MXN",
		PaymentIntentID: "pi_123",
	})

	var actionErr *gatewaydomain.ActionRequiredError
	require.ErrorAs(t, err, &actionErr)
	require.Equal(t, "pi_123_secret", actionErr.ClientSecret)
}

func TestChargeMethodConfirmsOffSession(t *testing.T) {
	var attached bool
	gw := newGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/payment_methods/pm_456/attach":
			attached = true
			require.NoError(t, r.ParseForm())
			require.Equal(t, "cus_789", r.PostForm.Get("customer"))
			fmt.Fprint(w, `{"id": "pm_456", "customer": "cus_789"}`)
		case "/v1/payment_intents":
			require.NoError(t, r.ParseForm())
			require.Equal(t, "2899", r.PostForm.Get("amount"))
			require.Equal(t, "mxn", r.PostForm.Get("currency"))
			require.Equal(t, "true", r.PostForm.Get("confirm"))
			require.Equal(t, "off_session", r.PostForm.Get("setup_future_usage"))
			require.NotEmpty(t, r.Header.Get("Idempotency-Key"))
			fmt.Fprint(w, `{
				"id": "pi_999",
				"status": "succeeded",
				"amount": 2899,
				"currency": "mxn",
				"payment_method": {"id": "pm_456", "card": {"brand": "mastercard", "last4": "4444", "exp_month": 1, "exp_year": 2031}}
			}`)
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))

	result, err := gw.ConfirmPayment(context.Background(), gatewaydomain.ConfirmPaymentRequest{
		AmountCents:       2899,
		Currency:          "MXN",
		GatewayCustomerID: "cus_789",
		PaymentMethodID:   "pm_456",
		SavePaymentMethod: true,
		IdempotencyKey:    "order-abc",
	})
	require.NoError(t, err)
	require.True(t, attached)
	require.Equal(t, "pi_999", result.IntentID)
	require.Equal(t, "mastercard", result.Card.Brand)
}

func TestChargeMethodCardDeclined(t *testing.T) {
	gw := newGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		fmt.Fprint(w, `{"error": {"type": "card_error", "code": "card_declined", "decline_code": "insufficient_funds", "message": "Your card was declined.", "payment_intent": {"id": "pi_55", "status": "requires_payment_method"}}}`)
	}))

	_, err := gw.ConfirmPayment(context.Background(), gatewaydomain.ConfirmPaymentRequest{
		AmountCents:     2899,
		Currency:        "MXN",
		PaymentMethodID: "pm_456",
	})

	var declined *gatewaydomain.CardDeclinedError
	require.ErrorAs(t, err, &declined)
	require.Equal(t, "card_declined", declined.Code)
	require.Equal(t, "pi_55", declined.IntentID)
}

func TestAttachToleratesSameCustomer(t *testing.T) {
	gw := newGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/v1/payment_methods/pm_456/attach":
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprint(w, `{"error": {"type": "invalid_request_error", "message": "The payment method you provided has already been attached to a customer."}}`)
		case r.URL.Path == "/v1/payment_methods/pm_456" && r.Method == http.MethodGet:
			fmt.Fprint(w, `{"id": "pm_456", "customer": "cus_789"}`)
		case r.URL.Path == "/v1/payment_intents":
			fmt.Fprint(w, `{"id": "pi_1", "status": "succeeded", "amount": 1000, "currency": "mxn", "payment_method": {"id": "pm_456"}}`)
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))

	result, err := gw.ConfirmPayment(context.Background(), gatewaydomain.ConfirmPaymentRequest{
		AmountCents:       1000,
		Currency:          "MXN",
		GatewayCustomerID: "cus_789",
		PaymentMethodID:   "pm_456",
	})
	require.NoError(t, err)
	require.Equal(t, "pi_1", result.IntentID)
}

func TestAttachRejectsForeignCustomer(t *testing.T) {
	gw := newGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/v1/payment_methods/pm_456/attach":
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprint(w, `{"error": {"type": "invalid_request_error", "message": "The payment method you provided has already been attached to a customer."}}`)
		case r.URL.Path == "/v1/payment_methods/pm_456":
			fmt.Fprint(w, `{"id": "pm_456", "customer": "cus_other"}`)
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))

	_, err := gw.ConfirmPayment(context.Background(), gatewaydomain.ConfirmPaymentRequest{
		AmountCents:       1000,
		Currency:          "MXN",
		GatewayCustomerID: "cus_789",
		PaymentMethodID:   "pm_456",
	})
	require.ErrorIs(t, err, gatewaydomain.ErrPaymentMethodInUse)
}

func TestEnsureCustomerReusesExistingID(t *testing.T) {
	gw := newGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	}))

	id, err := gw.EnsureCustomer(context.Background(), gatewaydomain.EnsureCustomerRequest{
		GatewayCustomerID: "cus_existing",
	})
	require.NoError(t, err)
	require.Equal(t, "cus_existing", id)
}

func TestEnsureCustomerCreates(t *testing.T) {
	gw := newGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/customers", r.URL.Path)
		require.NoError(t, r.ParseForm())
		require.Equal(t, "ana@example.com", r.PostForm.Get("email"))
		fmt.Fprint(w, `{"id": "cus_new"}`)
	}))

	id, err := gw.EnsureCustomer(context.Background(), gatewaydomain.EnsureCustomerRequest{
		Email: "ana@example.com",
		Name:  "Ana",
	})
	require.NoError(t, err)
	require.Equal(t, "cus_new", id)
}
