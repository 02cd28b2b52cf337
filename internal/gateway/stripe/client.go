package stripe

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	gatewaydomain "github.com/smallbiznis/hostbill/internal/gateway/domain"
)

const defaultBaseURL = "https://api.stripe.com"

type paymentMethod struct {
	ID       string `json:"id"`
	Customer string `json:"customer"`
	Card     struct {
		Brand    string `json:"brand"`
		Last4    string `json:"last4"`
		ExpMonth int64  `json:"exp_month"`
		ExpYear  int64  `json:"exp_year"`
	} `json:"card"`
}

type paymentIntent struct {
	ID            string          `json:"id"`
	ClientSecret  string          `json:"client_secret"`
	Status        string          `json:"status"`
	Amount        int64           `json:"amount"`
	Currency      string          `json:"currency"`
	PaymentMethod json.RawMessage `json:"payment_method"`
}

// method decodes the payment_method field, which is a bare id unless the
// request expanded it.
func (pi paymentIntent) method() paymentMethod {
	var pm paymentMethod
	if len(pi.PaymentMethod) == 0 {
		return pm
	}
	if pi.PaymentMethod[0] == '"' {
		_ = json.Unmarshal(pi.PaymentMethod, &pm.ID)
		return pm
	}
	_ = json.Unmarshal(pi.PaymentMethod, &pm)
	return pm
}

type stripeCustomer struct {
	ID string `json:"id"`
}

type apiError struct {
	Type          string `json:"type"`
	Code          string `json:"code"`
	DeclineCode   string `json:"decline_code"`
	Message       string `json:"message"`
	PaymentIntent *struct {
		ID           string `json:"id"`
		ClientSecret string `json:"client_secret"`
		Status       string `json:"status"`
	} `json:"payment_intent"`
}

type errorResponse struct {
	Error apiError `json:"error"`
}

type client struct {
	apiKey    string
	accountID string
	baseURL   string
	http      *http.Client
}

func newClient(apiKey, accountID, baseURL string) *client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = defaultBaseURL
	}
	return &client{
		apiKey:    strings.TrimSpace(apiKey),
		accountID: strings.TrimSpace(accountID),
		baseURL:   strings.TrimRight(baseURL, "/"),
		http:      &http.Client{Timeout: 12 * time.Second},
	}
}

func (c *client) do(ctx context.Context, method, path string, values url.Values, idempotencyKey string, out interface{}) error {
	if c.apiKey == "" {
		return gatewaydomain.ErrInvalidConfig
	}

	body := ""
	target := c.baseURL + path
	if values != nil {
		if method == http.MethodGet {
			target += "?" + values.Encode()
		} else {
			body = values.Encode()
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, target, strings.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if body != "" {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}
	if c.accountID != "" {
		req.Header.Set("Stripe-Account", c.accountID)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var stripeErr errorResponse
		if err := json.NewDecoder(resp.Body).Decode(&stripeErr); err != nil {
			return &gatewaydomain.Error{Status: resp.StatusCode, Message: "stripe_request_failed"}
		}
		return mapAPIError(resp.StatusCode, stripeErr.Error)
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

var declineCodes = map[string]bool{
	"card_declined":      true,
	"expired_card":       true,
	"incorrect_cvc":      true,
	"incorrect_number":   true,
	"processing_error":   true,
	"insufficient_funds": true,
	"payment_intent_authentication_failure": true,
}

func mapAPIError(status int, apiErr apiError) error {
	switch {
	case apiErr.Code == "resource_missing":
		return gatewaydomain.ErrIntentNotFound
	case apiErr.Code == "payment_method_already_attached",
		strings.Contains(apiErr.Message, "already been attached"):
		return gatewaydomain.ErrPaymentMethodInUse
	case apiErr.Code == "authentication_required":
		declined := &gatewaydomain.ActionRequiredError{}
		if apiErr.PaymentIntent != nil {
			declined.IntentID = apiErr.PaymentIntent.ID
			declined.ClientSecret = apiErr.PaymentIntent.ClientSecret
		}
		return declined
	case apiErr.Type == "card_error", declineCodes[apiErr.Code]:
		declined := &gatewaydomain.CardDeclinedError{
			Code:    apiErr.Code,
			Message: apiErr.Message,
		}
		if declined.Code == "" {
			declined.Code = apiErr.DeclineCode
		}
		if apiErr.PaymentIntent != nil {
			declined.IntentID = apiErr.PaymentIntent.ID
		}
		return declined
	default:
		return &gatewaydomain.Error{Status: status, Code: apiErr.Code, Message: apiErr.Message}
	}
}
