package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	gatewaydomain "github.com/smallbiznis/hostbill/internal/gateway/domain"
	hostingdomain "github.com/smallbiznis/hostbill/internal/hosting/domain"
	invoicedomain "github.com/smallbiznis/hostbill/internal/invoice/domain"
	orderdomain "github.com/smallbiznis/hostbill/internal/order/domain"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeOrderService struct {
	lastReq orderdomain.PlaceOrderRequest
	resp    orderdomain.PlaceOrderResponse
	err     error
}

func (f *fakeOrderService) PlaceOrder(ctx context.Context, req orderdomain.PlaceOrderRequest) (orderdomain.PlaceOrderResponse, error) {
	_ = ctx
	f.lastReq = req
	if f.err != nil {
		return orderdomain.PlaceOrderResponse{}, f.err
	}
	return f.resp, nil
}

func newOrderTestServer(t *testing.T, svc orderdomain.Service) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	s := &Server{
		engine:   NewEngine(zap.NewNop()),
		orderSvc: svc,
	}
	s.registerAPIRoutes()
	return s
}

func placeOrder(t *testing.T, s *Server, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/orders", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Engine().ServeHTTP(rec, req)
	return rec
}

func TestPlaceOrderCreated(t *testing.T) {
	fake := &fakeOrderService{
		resp: orderdomain.PlaceOrderResponse{
			Service: hostingdomain.Service{ID: snowflake.ID(11), Status: hostingdomain.StatusActive},
			Invoice: invoicedomain.Invoice{ID: snowflake.ID(22), Number: "INV-01ABC", TotalCents: 2899},
		},
	}
	s := newOrderTestServer(t, fake)

	rec := placeOrder(t, s, `{
		"customer_id": "1001",
		"plan_id": "business",
		"billing_cycle": "monthly",
		"service_name": "my-shop",
		"payment_intent_id": "pi_123",
		"add_ons": ["2001", "2002"]
	}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, "business", fake.lastReq.PlanID)
	require.Equal(t, "pi_123", fake.lastReq.PaymentIntentID)
	require.Len(t, fake.lastReq.AddOns, 2)

	var body struct {
		Data orderdomain.PlaceOrderResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "INV-01ABC", body.Data.Invoice.Number)
	require.Equal(t, int64(2899), body.Data.Invoice.TotalCents)
}

func TestPlaceOrderMalformedBody(t *testing.T) {
	s := newOrderTestServer(t, &fakeOrderService{})

	rec := placeOrder(t, s, `{"plan_id": `)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var body errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "validation_error", body.Error.Type)
}

func TestPlaceOrderValidationSentinel(t *testing.T) {
	s := newOrderTestServer(t, &fakeOrderService{err: orderdomain.ErrAddOnNotAllowed})

	rec := placeOrder(t, s, `{"plan_id": "business"}`)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var body errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "validation_error", body.Error.Type)
	require.Len(t, body.Error.Errors, 1)
	require.Equal(t, "add_ons", body.Error.Errors[0].Field)
	require.Equal(t, "addon_not_allowed", body.Error.Errors[0].Code)
}

func TestPlaceOrderActionRequired(t *testing.T) {
	s := newOrderTestServer(t, &fakeOrderService{err: &gatewaydomain.ActionRequiredError{
		IntentID:     "pi_3ds",
		ClientSecret: "pi_3ds_secret_abc",
	}})

	rec := placeOrder(t, s, `{"plan_id": "business"}`)

	require.Equal(t, http.StatusPaymentRequired, rec.Code)

	var body errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "payment_action_required", body.Error.Type)
	require.Equal(t, "pi_3ds", body.Error.IntentID)
	require.Equal(t, "pi_3ds_secret_abc", body.Error.ClientSecret)
}

func TestPlaceOrderCardDeclined(t *testing.T) {
	s := newOrderTestServer(t, &fakeOrderService{err: &gatewaydomain.CardDeclinedError{
		IntentID: "pi_declined",
		Code:     "insufficient_funds",
		Message:  "Your card has insufficient funds.",
	}})

	rec := placeOrder(t, s, `{"plan_id": "business"}`)

	require.Equal(t, http.StatusPaymentRequired, rec.Code)

	var body errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "card_declined", body.Error.Type)
	require.Equal(t, "insufficient_funds", body.Error.Code)
	require.Equal(t, "pi_declined", body.Error.IntentID)
}

func TestPlaceOrderDuplicateIntent(t *testing.T) {
	s := newOrderTestServer(t, &fakeOrderService{err: orderdomain.ErrDuplicatePayment})

	rec := placeOrder(t, s, `{"plan_id": "business"}`)

	require.Equal(t, http.StatusConflict, rec.Code)

	var body errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "conflict", body.Error.Type)
	require.Equal(t, "duplicate_payment_intent", body.Error.Code)
}

func TestPlaceOrderPersistenceFailure(t *testing.T) {
	s := newOrderTestServer(t, &fakeOrderService{err: &orderdomain.PersistenceError{
		IntentID: "pi_orphaned",
		Err:      context.DeadlineExceeded,
	}})

	rec := placeOrder(t, s, `{"plan_id": "business"}`)

	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var body errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "order_persistence_failed", body.Error.Type)
	require.Equal(t, "pi_orphaned", body.Error.IntentID)
}
