package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	customerdomain "github.com/smallbiznis/hostbill/internal/customer/domain"
	gatewaydomain "github.com/smallbiznis/hostbill/internal/gateway/domain"
	hostingdomain "github.com/smallbiznis/hostbill/internal/hosting/domain"
	invoicedomain "github.com/smallbiznis/hostbill/internal/invoice/domain"
	orderdomain "github.com/smallbiznis/hostbill/internal/order/domain"
	plandomain "github.com/smallbiznis/hostbill/internal/plan/domain"
	"github.com/smallbiznis/hostbill/internal/pricing"
	transactiondomain "github.com/smallbiznis/hostbill/internal/transaction/domain"
	"gorm.io/gorm"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type         string            `json:"type"`
	Message      string            `json:"message"`
	Code         string            `json:"code,omitempty"`
	IntentID     string            `json:"intent_id,omitempty"`
	ClientSecret string            `json:"client_secret,omitempty"`
	Errors       []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrNotFound = errors.New("not_found")
	ErrInternal = errors.New("internal_error")
)

// ErrorHandlingMiddleware renders the last error pushed onto the gin context
// once the handler chain finishes. Validation problems map to 422, payment
// outcomes to 402, conflicts to 409; everything else is a 500.
func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusUnprocessableEntity, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	var actionRequired *gatewaydomain.ActionRequiredError
	if errors.As(err, &actionRequired) {
		return http.StatusPaymentRequired, errorPayload{
			Type:         "payment_action_required",
			Message:      "payment requires additional confirmation",
			IntentID:     actionRequired.IntentID,
			ClientSecret: actionRequired.ClientSecret,
		}
	}

	var declined *gatewaydomain.CardDeclinedError
	if errors.As(err, &declined) {
		message := declined.Message
		if message == "" {
			message = "card declined"
		}
		return http.StatusPaymentRequired, errorPayload{
			Type:     "card_declined",
			Message:  message,
			Code:     declined.Code,
			IntentID: declined.IntentID,
		}
	}

	var persistence *orderdomain.PersistenceError
	if errors.As(err, &persistence) {
		return http.StatusInternalServerError, errorPayload{
			Type:     "order_persistence_failed",
			Message:  "payment settled but the order could not be recorded; contact support",
			IntentID: persistence.IntentID,
		}
	}

	if isValidationError(err) {
		code := err.Error()
		return http.StatusUnprocessableEntity, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   validationErrorField(code),
					Code:    code,
					Message: validationErrorMessage(code),
				},
			},
		}
	}

	switch {
	case isConflictError(err):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: "conflict",
			Code:    err.Error(),
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case isGatewayError(err):
		return http.StatusInternalServerError, errorPayload{
			Type:    "gateway_error",
			Message: "payment gateway error",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, orderdomain.ErrInvalidCustomer),
		errors.Is(err, orderdomain.ErrCustomerNotFound),
		errors.Is(err, orderdomain.ErrPlanNotFound),
		errors.Is(err, orderdomain.ErrPlanInactive),
		errors.Is(err, orderdomain.ErrInvalidServiceName),
		errors.Is(err, orderdomain.ErrInvalidAddOn),
		errors.Is(err, orderdomain.ErrAddOnNotAllowed),
		errors.Is(err, orderdomain.ErrDuplicateAddOn),
		errors.Is(err, orderdomain.ErrPaymentReference),
		errors.Is(err, orderdomain.ErrIncompleteTaxProfile):
		return true
	case errors.Is(err, pricing.ErrInvalidCycle),
		errors.Is(err, pricing.ErrInvalidAmount),
		errors.Is(err, pricing.ErrInvalidTaxRate),
		errors.Is(err, pricing.ErrInvalidCurrency):
		return true
	case errors.Is(err, plandomain.ErrInvalidSlug),
		errors.Is(err, plandomain.ErrInvalidName),
		errors.Is(err, plandomain.ErrInvalidCode),
		errors.Is(err, plandomain.ErrInvalidPrice),
		errors.Is(err, plandomain.ErrInvalidCurrency),
		errors.Is(err, plandomain.ErrInvalidPageToken),
		errors.Is(err, plandomain.ErrAddOnNotFound):
		return true
	case errors.Is(err, customerdomain.ErrInvalidEmail),
		errors.Is(err, customerdomain.ErrInvalidName),
		errors.Is(err, customerdomain.ErrInvalidMethod):
		return true
	case errors.Is(err, hostingdomain.ErrInvalidStatus),
		errors.Is(err, hostingdomain.ErrInvalidPageToken),
		errors.Is(err, invoicedomain.ErrInvalidPageToken):
		return true
	case errors.Is(err, gatewaydomain.ErrIntentNotFound),
		errors.Is(err, gatewaydomain.ErrAmountMismatch),
		errors.Is(err, gatewaydomain.ErrPaymentMethodInUse):
		return true
	default:
		return false
	}
}

func isConflictError(err error) bool {
	switch {
	case errors.Is(err, orderdomain.ErrDuplicatePayment),
		errors.Is(err, transactiondomain.ErrDuplicateIntent),
		errors.Is(err, plandomain.ErrDuplicateSlug),
		errors.Is(err, plandomain.ErrDuplicateCode),
		errors.Is(err, customerdomain.ErrDuplicateEmail),
		errors.Is(err, hostingdomain.ErrInvalidTransition):
		return true
	default:
		return false
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, plandomain.ErrNotFound),
		errors.Is(err, customerdomain.ErrNotFound),
		errors.Is(err, hostingdomain.ErrNotFound),
		errors.Is(err, invoicedomain.ErrNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

func isGatewayError(err error) bool {
	if errors.Is(err, gatewaydomain.ErrInvalidConfig) {
		return true
	}
	var gwErr *gatewaydomain.Error
	return errors.As(err, &gwErr)
}

func validationErrorField(code string) string {
	switch code {
	case orderdomain.ErrInvalidCustomer.Error(), orderdomain.ErrCustomerNotFound.Error():
		return "customer_id"
	case orderdomain.ErrPlanNotFound.Error(), orderdomain.ErrPlanInactive.Error():
		return "plan_id"
	case orderdomain.ErrInvalidServiceName.Error():
		return "service_name"
	case orderdomain.ErrInvalidAddOn.Error(),
		orderdomain.ErrAddOnNotAllowed.Error(),
		orderdomain.ErrDuplicateAddOn.Error(),
		plandomain.ErrAddOnNotFound.Error():
		return "add_ons"
	case orderdomain.ErrPaymentReference.Error(),
		gatewaydomain.ErrIntentNotFound.Error(),
		gatewaydomain.ErrAmountMismatch.Error(),
		gatewaydomain.ErrPaymentMethodInUse.Error():
		return "payment"
	case orderdomain.ErrIncompleteTaxProfile.Error():
		return "invoice"
	case pricing.ErrInvalidCycle.Error():
		return "billing_cycle"
	case pricing.ErrInvalidCurrency.Error(), plandomain.ErrInvalidCurrency.Error():
		return "currency"
	case customerdomain.ErrInvalidEmail.Error():
		return "email"
	case customerdomain.ErrInvalidMethod.Error():
		return "payment_method_id"
	case plandomain.ErrInvalidPageToken.Error(),
		hostingdomain.ErrInvalidPageToken.Error(),
		invoicedomain.ErrInvalidPageToken.Error():
		return "page_token"
	default:
		return "request"
	}
}

func validationErrorMessage(code string) string {
	switch code {
	case orderdomain.ErrCustomerNotFound.Error():
		return "customer does not exist"
	case orderdomain.ErrPlanNotFound.Error():
		return "plan does not exist"
	case orderdomain.ErrPlanInactive.Error():
		return "plan is not available for purchase"
	case orderdomain.ErrAddOnNotAllowed.Error():
		return "add-on is not available for this plan"
	case orderdomain.ErrPaymentReference.Error():
		return "exactly one of payment_intent_id and payment_method_id is required"
	case gatewaydomain.ErrAmountMismatch.Error():
		return "payment intent amount does not match the order total"
	default:
		return code
	}
}
