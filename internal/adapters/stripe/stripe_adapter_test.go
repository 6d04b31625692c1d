package stripe_test

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/kevin07696/payin-service/internal/adapters/stripe"
	"github.com/kevin07696/payin-service/internal/domain"
	"github.com/kevin07696/payin-service/internal/domain/ports"
)

// MockHTTPClient mocks the HTTP client used by the adapter
type MockHTTPClient struct {
	mock.Mock
}

func (m *MockHTTPClient) Do(req *http.Request) (*http.Response, error) {
	args := m.Called(req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*http.Response), args.Error(1)
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(bytes.NewBufferString(body)),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
	}
}

func newAdapter(client *MockHTTPClient) *stripe.Adapter {
	return stripe.NewAdapter(stripe.Config{
		BaseURL: "https://api.stripe.test",
		APIKeys: map[domain.CountryCode]string{
			domain.CountryUS: "sk_test_us",
		},
	}, client, nil)
}

func TestAdapter_CreateIntent_SendsIdempotencyKey(t *testing.T) {
	client := &MockHTTPClient{}
	adapter := newAdapter(client)

	client.On("Do", mock.MatchedBy(func(req *http.Request) bool {
		return req.Method == http.MethodPost &&
			req.URL.String() == "https://api.stripe.test/v1/payment_intents" &&
			req.Header.Get("Idempotency-Key") == "key-123" &&
			req.Header.Get("Authorization") == "Bearer sk_test_us"
	})).Return(jsonResponse(200, `{
		"id": "pi_1",
		"status": "requires_capture",
		"amount": 1000,
		"amount_capturable": 1000,
		"latest_charge": "ch_1"
	}`), nil)

	result, err := adapter.CreateIntent(context.Background(), &ports.CreateIntentRequest{
		Amount:         1000,
		Currency:       "USD",
		Country:        domain.CountryUS,
		CaptureMethod:  domain.CaptureMethodManual,
		Confirm:        true,
		IdempotencyKey: "key-123",
	})

	require.NoError(t, err)
	assert.Equal(t, "pi_1", result.ResourceID)
	assert.Equal(t, "ch_1", result.ChargeResourceID)
	assert.Equal(t, "requires_capture", result.Status)
	client.AssertExpectations(t)
}

func TestAdapter_CreateIntent_EncodesFormFields(t *testing.T) {
	client := &MockHTTPClient{}
	adapter := newAdapter(client)

	client.On("Do", mock.MatchedBy(func(req *http.Request) bool {
		if err := req.ParseForm(); err != nil {
			return false
		}
		return req.PostForm.Get("amount") == "1500" &&
			req.PostForm.Get("currency") == "usd" &&
			req.PostForm.Get("capture_method") == "manual" &&
			req.PostForm.Get("confirm") == "true" &&
			req.PostForm.Get("customer") == "cus_1" &&
			req.PostForm.Get("payment_method") == "pm_1" &&
			req.PostForm.Get("transfer_data[destination]") == "acct_1" &&
			req.PostForm.Get("application_fee_amount") == "150"
	})).Return(jsonResponse(200, `{"id": "pi_2", "status": "requires_capture"}`), nil)

	_, err := adapter.CreateIntent(context.Background(), &ports.CreateIntentRequest{
		Amount:                  1500,
		Currency:                "USD",
		Country:                 domain.CountryUS,
		CustomerResourceID:      "cus_1",
		PaymentMethodResourceID: "pm_1",
		CaptureMethod:           domain.CaptureMethodManual,
		Confirm:                 true,
		PayoutAccountID:         "acct_1",
		ApplicationFeeAmount:    150,
	})

	require.NoError(t, err)
	client.AssertExpectations(t)
}

func TestAdapter_CreateIntent_AutoCaptureEncodesAutomatic(t *testing.T) {
	client := &MockHTTPClient{}
	adapter := newAdapter(client)

	client.On("Do", mock.MatchedBy(func(req *http.Request) bool {
		if err := req.ParseForm(); err != nil {
			return false
		}
		return req.PostForm.Get("capture_method") == "automatic"
	})).Return(jsonResponse(200, `{"id": "pi_3", "status": "succeeded"}`), nil)

	_, err := adapter.CreateIntent(context.Background(), &ports.CreateIntentRequest{
		Amount:        1000,
		Currency:      "USD",
		Country:       domain.CountryUS,
		CaptureMethod: domain.CaptureMethodAuto,
	})

	require.NoError(t, err)
	client.AssertExpectations(t)
}

func TestAdapter_MalformedSuccessBodyRetryable(t *testing.T) {
	client := &MockHTTPClient{}
	adapter := newAdapter(client)

	// A 200 the adapter cannot decode does not mean the gateway rejected
	// anything; the caller must retry with the same key, not record a
	// failure.
	client.On("Do", mock.Anything).Return(jsonResponse(200, `{"id": "pi_1",`), nil)

	_, err := adapter.CreateIntent(context.Background(), &ports.CreateIntentRequest{
		Amount:   1000,
		Currency: "usd",
		Country:  domain.CountryUS,
	})

	require.Error(t, err)
	assert.True(t, domain.IsRetryable(err))
	assert.Equal(t, domain.ErrorCodeGatewayError, domain.GetErrorCode(err))
}

func TestAdapter_MissingCountryKey(t *testing.T) {
	client := &MockHTTPClient{}
	adapter := newAdapter(client)

	_, err := adapter.CreateIntent(context.Background(), &ports.CreateIntentRequest{
		Amount:   1000,
		Currency: "cad",
		Country:  domain.CountryCA,
	})

	require.Error(t, err)
	pe := domain.AsPaymentError(err)
	require.NotNil(t, pe)
	assert.Equal(t, domain.ErrorCodeInvalidData, pe.Code)
	assert.False(t, pe.Retryable)
	client.AssertNotCalled(t, "Do")
}

func TestAdapter_CardDeclineNotRetryable(t *testing.T) {
	client := &MockHTTPClient{}
	adapter := newAdapter(client)

	client.On("Do", mock.Anything).Return(jsonResponse(402, `{
		"error": {
			"type": "card_error",
			"code": "card_declined",
			"message": "Your card was declined.",
			"decline_code": "insufficient_funds"
		}
	}`), nil)

	_, err := adapter.CreateIntent(context.Background(), &ports.CreateIntentRequest{
		Amount:   1000,
		Currency: "usd",
		Country:  domain.CountryUS,
	})

	require.Error(t, err)
	pe := domain.AsPaymentError(err)
	require.NotNil(t, pe)
	assert.Equal(t, domain.ErrorCodeGatewayError, pe.Code)
	assert.False(t, pe.Retryable)
	assert.Equal(t, "Your card was declined.", pe.Message)
}

func TestAdapter_RateLimitRetryable(t *testing.T) {
	client := &MockHTTPClient{}
	adapter := newAdapter(client)

	client.On("Do", mock.Anything).Return(jsonResponse(429, `{
		"error": {"type": "rate_limit_error", "message": "Too many requests"}
	}`), nil)

	_, err := adapter.CreateIntent(context.Background(), &ports.CreateIntentRequest{
		Amount:   1000,
		Currency: "usd",
		Country:  domain.CountryUS,
	})

	require.Error(t, err)
	assert.True(t, domain.IsRetryable(err))
}

func TestAdapter_ServerErrorRetryable(t *testing.T) {
	client := &MockHTTPClient{}
	adapter := newAdapter(client)

	client.On("Do", mock.Anything).Return(jsonResponse(503, `{}`), nil)

	_, err := adapter.CaptureIntent(context.Background(), &ports.CaptureIntentRequest{
		ResourceID: "pi_1",
		Country:    domain.CountryUS,
	})

	require.Error(t, err)
	assert.True(t, domain.IsRetryable(err))
	assert.Equal(t, domain.ErrorCodeGatewayError, domain.GetErrorCode(err))
}

func TestAdapter_ConnectionErrorRetryable(t *testing.T) {
	client := &MockHTTPClient{}
	adapter := newAdapter(client)

	client.On("Do", mock.Anything).Return(nil, assert.AnError)

	_, err := adapter.CreateIntent(context.Background(), &ports.CreateIntentRequest{
		Amount:   1000,
		Currency: "usd",
		Country:  domain.CountryUS,
	})

	require.Error(t, err)
	assert.True(t, domain.IsRetryable(err))
}

func TestAdapter_CaptureIntent_URL(t *testing.T) {
	client := &MockHTTPClient{}
	adapter := newAdapter(client)

	client.On("Do", mock.MatchedBy(func(req *http.Request) bool {
		return req.URL.String() == "https://api.stripe.test/v1/payment_intents/pi_9/capture" &&
			req.Header.Get("Idempotency-Key") == "base-capture-0"
	})).Return(jsonResponse(200, `{
		"id": "pi_9", "status": "succeeded", "amount_received": 800, "latest_charge": "ch_9"
	}`), nil)

	result, err := adapter.CaptureIntent(context.Background(), &ports.CaptureIntentRequest{
		ResourceID:      "pi_9",
		Country:         domain.CountryUS,
		AmountToCapture: 800,
		IdempotencyKey:  "base-capture-0",
	})

	require.NoError(t, err)
	assert.Equal(t, "succeeded", result.Status)
	assert.Equal(t, int64(800), result.AmountReceived)
}

func TestAdapter_RefundCharge(t *testing.T) {
	client := &MockHTTPClient{}
	adapter := newAdapter(client)

	client.On("Do", mock.MatchedBy(func(req *http.Request) bool {
		if err := req.ParseForm(); err != nil {
			return false
		}
		return req.URL.String() == "https://api.stripe.test/v1/refunds" &&
			req.PostForm.Get("charge") == "ch_9" &&
			req.PostForm.Get("amount") == "300" &&
			req.PostForm.Get("reason") == "requested_by_customer"
	})).Return(jsonResponse(200, `{"id": "re_1", "status": "succeeded", "amount": 300}`), nil)

	result, err := adapter.RefundCharge(context.Background(), &ports.RefundChargeRequest{
		ChargeResourceID: "ch_9",
		Country:          domain.CountryUS,
		Amount:           300,
		Reason:           "requested_by_customer",
		IdempotencyKey:   "base-refund-0",
	})

	require.NoError(t, err)
	assert.Equal(t, "re_1", result.ResourceID)
	assert.Equal(t, int64(300), result.Amount)
}

func TestAdapter_ChargeIDFallsBackToChargesList(t *testing.T) {
	client := &MockHTTPClient{}
	adapter := newAdapter(client)

	client.On("Do", mock.Anything).Return(jsonResponse(200, `{
		"id": "pi_old",
		"status": "succeeded",
		"charges": {"data": [{"id": "ch_old"}]}
	}`), nil)

	result, err := adapter.CreateIntent(context.Background(), &ports.CreateIntentRequest{
		Amount:   1000,
		Currency: "usd",
		Country:  domain.CountryUS,
	})

	require.NoError(t, err)
	assert.Equal(t, "ch_old", result.ChargeResourceID)
}
