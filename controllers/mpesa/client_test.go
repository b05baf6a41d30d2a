package mpesaControllers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/lizmart/storefront-api/config"
	"github.com/lizmart/storefront-api/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPassword(t *testing.T) {
	at := time.Date(2026, 8, 30, 14, 5, 9, 0, time.UTC)

	password, timestamp := Password("174379", "passkey", at)

	assert.Equal(t, "20260830140509", timestamp)
	decoded, err := base64.StdEncoding.DecodeString(password)
	require.NoError(t, err)
	assert.Equal(t, "174379passkey20260830140509", string(decoded))
}

func TestNormalizePhone(t *testing.T) {
	cases := []struct {
		in      string
		want    uint64
		wantErr bool
	}{
		{"254712345678", 254712345678, false},
		{"0712345678", 254712345678, false},
		{"+254 712 345-678", 254712345678, false},
		{"", 0, true},
		{"not-a-phone", 0, true},
	}

	for _, tc := range cases {
		got, err := NormalizePhone(tc.in)
		if tc.wantErr {
			assert.ErrorIs(t, err, models.ErrInvalidPhone, "input %q", tc.in)
			continue
		}
		require.NoError(t, err, "input %q", tc.in)
		assert.Equal(t, tc.want, got, "input %q", tc.in)
	}
}

func TestSTKPushRejectsBadAmountBeforeNetwork(t *testing.T) {
	// No server configured: a network call would fail loudly.
	client := NewClient(config.MpesaConfig{BaseURL: "http://127.0.0.1:0"})

	for _, amount := range []float64{0, -10, math.NaN(), math.Inf(1)} {
		_, _, err := client.STKPush(context.Background(), "254712345678", amount)
		assert.ErrorIs(t, err, models.ErrInvalidAmount, "amount %v", amount)
	}

	_, _, err := client.STKPush(context.Background(), "nope", 100)
	assert.ErrorIs(t, err, models.ErrInvalidPhone)
}

func newGatewayStub(t *testing.T, tokenCalls *int, pushStatus int, pushBody string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/oauth/v1/generate":
			user, pass, ok := r.BasicAuth()
			assert.True(t, ok)
			assert.Equal(t, "ck", user)
			assert.Equal(t, "cs", pass)
			*tokenCalls++
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"access_token":"test-token","expires_in":"3599"}`))
		case "/mpesa/stkpush/v1/processrequest":
			assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

			var payload map[string]interface{}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
			assert.Equal(t, "174379", payload["BusinessShortCode"])
			assert.Equal(t, "CustomerPayBillOnline", payload["TransactionType"])
			assert.Equal(t, float64(2500), payload["Amount"])
			assert.Equal(t, float64(254712345678), payload["PartyA"])
			assert.Equal(t, float64(254712345678), payload["PhoneNumber"])
			assert.Equal(t, "https://example.com/payments/webhook", payload["CallBackURL"])
			assert.NotEmpty(t, payload["Password"])
			assert.NotEmpty(t, payload["Timestamp"])

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(pushStatus)
			w.Write([]byte(pushBody))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
}

func TestSTKPushSuccess(t *testing.T) {
	var tokenCalls int
	server := newGatewayStub(t, &tokenCalls, http.StatusOK,
		`{"MerchantRequestID":"m-1","CheckoutRequestID":"ws_CO_1","ResponseCode":"0","ResponseDescription":"Success. Request accepted for processing"}`)
	defer server.Close()

	client := NewClient(config.MpesaConfig{
		BaseURL:        server.URL,
		ShortCode:      "174379",
		PassKey:        "passkey",
		ConsumerKey:    "ck",
		ConsumerSecret: "cs",
		CallbackURL:    "https://example.com/payments/webhook",
	})

	ack, raw, err := client.STKPush(context.Background(), "0712345678", 2500)
	require.NoError(t, err)
	assert.Equal(t, "ws_CO_1", ack.CheckoutRequestID)
	assert.Equal(t, "m-1", ack.MerchantRequestID)
	assert.Equal(t, "0", ack.ResponseCode)
	assert.Contains(t, string(raw), "ws_CO_1")

	// Second push reuses the cached token.
	_, _, err = client.STKPush(context.Background(), "0712345678", 2500)
	require.NoError(t, err)
	assert.Equal(t, 1, tokenCalls)
}

func TestSTKPushGatewayError(t *testing.T) {
	var tokenCalls int
	server := newGatewayStub(t, &tokenCalls, http.StatusServiceUnavailable, `{"errorMessage":"down"}`)
	defer server.Close()

	client := NewClient(config.MpesaConfig{
		BaseURL:        server.URL,
		ShortCode:      "174379",
		PassKey:        "passkey",
		ConsumerKey:    "ck",
		ConsumerSecret: "cs",
		CallbackURL:    "https://example.com/payments/webhook",
	})

	_, _, err := client.STKPush(context.Background(), "0712345678", 2500)
	assert.ErrorIs(t, err, models.ErrGateway)
}

func TestSTKPushMissingCorrelationID(t *testing.T) {
	var tokenCalls int
	server := newGatewayStub(t, &tokenCalls, http.StatusOK, `{"ResponseCode":"0"}`)
	defer server.Close()

	client := NewClient(config.MpesaConfig{
		BaseURL:        server.URL,
		ShortCode:      "174379",
		PassKey:        "passkey",
		ConsumerKey:    "ck",
		ConsumerSecret: "cs",
		CallbackURL:    "https://example.com/payments/webhook",
	})

	_, _, err := client.STKPush(context.Background(), "0712345678", 2500)
	assert.ErrorIs(t, err, models.ErrGateway)
}
