package stripe

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	adapterports "github.com/kevin07696/payin-service/internal/adapters/ports"
	"github.com/kevin07696/payin-service/internal/domain"
	"github.com/kevin07696/payin-service/internal/domain/ports"
)

// Adapter implements the PaymentGateway interface against the Stripe API.
// Gateway accounts are per country; the country on each request selects the
// API key.
type Adapter struct {
	baseURL    string
	apiKeys    map[domain.CountryCode]string
	httpClient adapterports.HTTPClient
	logger     ports.Logger
}

// Config contains the Stripe adapter configuration.
type Config struct {
	// BaseURL of the Stripe API (overridable for stripe-mock in tests)
	BaseURL string

	// Per-country API keys; each country bills through its own account
	APIKeys map[domain.CountryCode]string
}

// NewAdapter creates a new Stripe adapter with dependency injection
func NewAdapter(cfg Config, httpClient adapterports.HTTPClient, logger ports.Logger) *Adapter {
	return &Adapter{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKeys:    cfg.APIKeys,
		httpClient: httpClient,
		logger:     logger,
	}
}

// NewAdapterWithDefaults creates a new Stripe adapter with a default HTTP client
func NewAdapterWithDefaults(cfg Config, logger ports.Logger) *Adapter {
	return NewAdapter(cfg, &http.Client{Timeout: 30 * time.Second}, logger)
}

// intentResponse is the subset of the Stripe PaymentIntent object we read.
type intentResponse struct {
	ID               string `json:"id"`
	Status           string `json:"status"`
	Amount           int64  `json:"amount"`
	AmountCapturable int64  `json:"amount_capturable"`
	AmountReceived   int64  `json:"amount_received"`
	LatestCharge     string `json:"latest_charge"`
	Charges          struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	} `json:"charges"`
}

// refundResponse is the subset of the Stripe Refund object we read.
type refundResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Amount int64  `json:"amount"`
}

// customerResponse is the subset of the Stripe Customer object we read.
type customerResponse struct {
	ID              string `json:"id"`
	InvoiceSettings struct {
		DefaultPaymentMethod string `json:"default_payment_method"`
	} `json:"invoice_settings"`
}

// errorResponse is Stripe's error envelope.
type errorResponse struct {
	Error struct {
		Type        string `json:"type"`
		Code        string `json:"code"`
		Message     string `json:"message"`
		DeclineCode string `json:"decline_code"`
	} `json:"error"`
}

// CreateIntent implements PaymentGateway.CreateIntent
func (a *Adapter) CreateIntent(ctx context.Context, req *ports.CreateIntentRequest) (*ports.IntentResult, error) {
	form := url.Values{}
	form.Set("amount", strconv.FormatInt(req.Amount, 10))
	form.Set("currency", strings.ToLower(req.Currency))
	form.Set("capture_method", captureMethodParam(req.CaptureMethod))
	if req.Confirm {
		form.Set("confirm", "true")
	}
	if req.CustomerResourceID != "" {
		form.Set("customer", req.CustomerResourceID)
	}
	if req.PaymentMethodResourceID != "" {
		form.Set("payment_method", req.PaymentMethodResourceID)
	}
	if req.StatementDescriptor != "" {
		form.Set("statement_descriptor", req.StatementDescriptor)
	}
	if req.PayoutAccountID != "" {
		form.Set("transfer_data[destination]", req.PayoutAccountID)
	}
	if req.ApplicationFeeAmount > 0 {
		form.Set("application_fee_amount", strconv.FormatInt(req.ApplicationFeeAmount, 10))
	}

	var resp intentResponse
	if err := a.makeRequest(ctx, req.Country, "/v1/payment_intents", form, req.IdempotencyKey, &resp); err != nil {
		return nil, err
	}
	return intentResultFrom(&resp), nil
}

// CaptureIntent implements PaymentGateway.CaptureIntent
func (a *Adapter) CaptureIntent(ctx context.Context, req *ports.CaptureIntentRequest) (*ports.IntentResult, error) {
	form := url.Values{}
	if req.AmountToCapture > 0 {
		form.Set("amount_to_capture", strconv.FormatInt(req.AmountToCapture, 10))
	}

	endpoint := fmt.Sprintf("/v1/payment_intents/%s/capture", req.ResourceID)
	var resp intentResponse
	if err := a.makeRequest(ctx, req.Country, endpoint, form, req.IdempotencyKey, &resp); err != nil {
		return nil, err
	}
	return intentResultFrom(&resp), nil
}

// CancelIntent implements PaymentGateway.CancelIntent
func (a *Adapter) CancelIntent(ctx context.Context, req *ports.CancelIntentRequest) (*ports.IntentResult, error) {
	form := url.Values{}
	if req.Reason != "" {
		form.Set("cancellation_reason", string(req.Reason))
	}

	endpoint := fmt.Sprintf("/v1/payment_intents/%s/cancel", req.ResourceID)
	var resp intentResponse
	if err := a.makeRequest(ctx, req.Country, endpoint, form, "", &resp); err != nil {
		return nil, err
	}
	return intentResultFrom(&resp), nil
}

// RefundCharge implements PaymentGateway.RefundCharge
func (a *Adapter) RefundCharge(ctx context.Context, req *ports.RefundChargeRequest) (*ports.RefundResult, error) {
	form := url.Values{}
	form.Set("charge", req.ChargeResourceID)
	form.Set("amount", strconv.FormatInt(req.Amount, 10))
	if req.Reason != "" {
		form.Set("reason", req.Reason)
	}

	var resp refundResponse
	if err := a.makeRequest(ctx, req.Country, "/v1/refunds", form, req.IdempotencyKey, &resp); err != nil {
		return nil, err
	}
	return &ports.RefundResult{
		ResourceID: resp.ID,
		Status:     resp.Status,
		Amount:     resp.Amount,
	}, nil
}

// CreateCustomer implements PaymentGateway.CreateCustomer
func (a *Adapter) CreateCustomer(ctx context.Context, req *ports.CreateCustomerRequest) (*ports.CustomerResult, error) {
	form := url.Values{}
	if req.Email != "" {
		form.Set("email", req.Email)
	}
	if req.Description != "" {
		form.Set("description", req.Description)
	}

	var resp customerResponse
	if err := a.makeRequest(ctx, req.Country, "/v1/customers", form, "", &resp); err != nil {
		return nil, err
	}
	return &ports.CustomerResult{
		ResourceID:             resp.ID,
		DefaultPaymentMethodID: resp.InvoiceSettings.DefaultPaymentMethod,
	}, nil
}

// UpdateCustomerDefaultPaymentMethod implements PaymentGateway.UpdateCustomerDefaultPaymentMethod
func (a *Adapter) UpdateCustomerDefaultPaymentMethod(ctx context.Context, country domain.CountryCode, customerResourceID, paymentMethodResourceID string) (*ports.CustomerResult, error) {
	form := url.Values{}
	form.Set("invoice_settings[default_payment_method]", paymentMethodResourceID)

	endpoint := fmt.Sprintf("/v1/customers/%s", customerResourceID)
	var resp customerResponse
	if err := a.makeRequest(ctx, country, endpoint, form, "", &resp); err != nil {
		return nil, err
	}
	return &ports.CustomerResult{
		ResourceID:             resp.ID,
		DefaultPaymentMethodID: resp.InvoiceSettings.DefaultPaymentMethod,
	}, nil
}

// makeRequest posts a form-encoded request to the Stripe API and decodes the
// response. Failures are mapped onto the domain taxonomy: connectivity and
// 5xx/429 are retryable GATEWAY_ERROR, 4xx are not.
func (a *Adapter) makeRequest(ctx context.Context, country domain.CountryCode, endpoint string, form url.Values, idempotencyKey string, response interface{}) error {
	apiKey, ok := a.apiKeys[country]
	if !ok {
		return domain.NewCreationError(domain.ErrorCodeInvalidData,
			fmt.Sprintf("no gateway account for country %s", country), false)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		a.baseURL+endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return domain.WrapCreationError(domain.ErrorCodeGatewayError,
			"failed to build gateway request", true, err)
	}

	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	httpReq.Header.Set("Authorization", "Bearer "+apiKey)
	if idempotencyKey != "" {
		httpReq.Header.Set("Idempotency-Key", idempotencyKey)
	}

	if a.logger != nil {
		a.logger.Info("making request to payment gateway",
			ports.String("endpoint", endpoint),
			ports.String("country", string(country)),
		)
	}

	httpResp, err := a.httpClient.Do(httpReq)
	if err != nil {
		return domain.WrapCreationError(domain.ErrorCodeGatewayError,
			"failed to connect to payment gateway", true, err)
	}
	defer httpResp.Body.Close()

	// Failures past this point do not mean the gateway rejected anything:
	// the call may well have succeeded on its side. Surface them retryable
	// so callers re-dispatch with the same idempotency key instead of
	// recording a rejection.
	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return domain.WrapCreationError(domain.ErrorCodeGatewayError,
			"failed to read gateway response", true, err)
	}

	if httpResp.StatusCode >= 400 {
		return a.translateError(httpResp.StatusCode, body, endpoint)
	}

	if err := json.Unmarshal(body, response); err != nil {
		return domain.WrapCreationError(domain.ErrorCodeGatewayError,
			"malformed gateway response", true, err)
	}

	return nil
}

func (a *Adapter) translateError(status int, body []byte, endpoint string) error {
	var stripeErr errorResponse
	_ = json.Unmarshal(body, &stripeErr)

	message := stripeErr.Error.Message
	if message == "" {
		message = "payment gateway error"
	}

	if a.logger != nil {
		a.logger.Warn("payment gateway returned error",
			ports.String("endpoint", endpoint),
			ports.Int("status", status),
			ports.String("type", stripeErr.Error.Type),
			ports.String("code", stripeErr.Error.Code),
		)
	}

	// 429 and 5xx are transient on Stripe's side; the same idempotency key
	// makes the retry safe.
	retryable := status == http.StatusTooManyRequests || status >= 500

	return &domain.PaymentError{
		Kind:      domain.KindCreationError,
		Code:      domain.ErrorCodeGatewayError,
		Message:   message,
		Retryable: retryable,
	}
}

// captureMethodParam translates the ledger's capture method vocabulary to
// Stripe's. The API accepts automatic/manual only.
func captureMethodParam(m domain.CaptureMethod) string {
	if m == domain.CaptureMethodAuto {
		return "automatic"
	}
	return string(m)
}

func intentResultFrom(resp *intentResponse) *ports.IntentResult {
	chargeID := resp.LatestCharge
	if chargeID == "" && len(resp.Charges.Data) > 0 {
		chargeID = resp.Charges.Data[0].ID
	}
	return &ports.IntentResult{
		ResourceID:       resp.ID,
		ChargeResourceID: chargeID,
		Status:           resp.Status,
		Amount:           resp.Amount,
		AmountCapturable: resp.AmountCapturable,
		AmountReceived:   resp.AmountReceived,
	}
}
