package mpesaControllers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lizmart/storefront-api/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const successPayload = `{
  "Body": {
    "stkCallback": {
      "MerchantRequestID": "29115-34620561-1",
      "CheckoutRequestID": "ws_CO_191220191020363925",
      "ResultCode": 0,
      "ResultDesc": "The service request is processed successfully.",
      "CallbackMetadata": {
        "Item": [
          {"Name": "Amount", "Value": 2500.00},
          {"Name": "MpesaReceiptNumber", "Value": "NLJ7RT61SV"},
          {"Name": "TransactionDate", "Value": 20260830141532},
          {"Name": "PhoneNumber", "Value": 254712345678}
        ]
      }
    }
  }
}`

const failurePayload = `{
  "Body": {
    "stkCallback": {
      "MerchantRequestID": "29115-34620561-2",
      "CheckoutRequestID": "ws_CO_191220191020363926",
      "ResultCode": 1032,
      "ResultDesc": "Request cancelled by user.",
      "CallbackMetadata": {
        "Item": []
      }
    }
  }
}`

func TestParseCallbackSuccess(t *testing.T) {
	result, err := parseCallback([]byte(successPayload))
	require.NoError(t, err)

	assert.Equal(t, "29115-34620561-1", result.MerchantRequestID)
	assert.Equal(t, "ws_CO_191220191020363925", result.CheckoutRequestID)
	assert.Equal(t, 0, result.ResultCode)
	assert.Equal(t, 2500.0, result.Metadata.Amount)
	assert.Equal(t, "NLJ7RT61SV", result.Metadata.MpesaReceiptNumber)
	assert.Equal(t, "254712345678", result.Metadata.PhoneNumber)

	require.NotNil(t, result.Metadata.TransactionDate)
	expected := time.Date(2026, 8, 30, 14, 15, 32, 0, time.UTC)
	assert.True(t, result.Metadata.TransactionDate.Equal(expected))
}

func TestParseCallbackFailureResult(t *testing.T) {
	result, err := parseCallback([]byte(failurePayload))
	require.NoError(t, err)

	assert.Equal(t, 1032, result.ResultCode)
	assert.Empty(t, result.Metadata.MpesaReceiptNumber)
	assert.Nil(t, result.Metadata.TransactionDate)
}

func TestParseCallbackFailsClosed(t *testing.T) {
	cases := []struct {
		name    string
		payload string
	}{
		{"not json", `{{`},
		{"empty object", `{}`},
		{"missing stkCallback", `{"Body":{}}`},
		{"missing correlation id", `{"Body":{"stkCallback":{"ResultCode":0,"CallbackMetadata":{"Item":[]}}}}`},
		{"missing metadata", `{"Body":{"stkCallback":{"CheckoutRequestID":"x","ResultCode":0}}}`},
		{"metadata without item array", `{"Body":{"stkCallback":{"CheckoutRequestID":"x","ResultCode":0,"CallbackMetadata":{}}}}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := parseCallback([]byte(tc.payload))
			assert.ErrorIs(t, err, models.ErrMalformedCallback)
		})
	}
}

func TestParseCallbackIsDeterministic(t *testing.T) {
	// The same delivery parsed twice yields the same result; the dedupe
	// downstream relies on the correlation identifier alone.
	first, err := parseCallback([]byte(successPayload))
	require.NoError(t, err)
	second, err := parseCallback([]byte(successPayload))
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestStringValue(t *testing.T) {
	assert.Equal(t, "NLJ7RT61SV", stringValue("NLJ7RT61SV"))
	assert.Equal(t, "254712345678", stringValue(254712345678.0))
	assert.Equal(t, "20260830141532", stringValue(20260830141532.0))
	assert.Equal(t, "", stringValue(nil))
	assert.Equal(t, "", stringValue(true))
}

func TestMetadataRecord(t *testing.T) {
	success, err := parseCallback([]byte(successPayload))
	require.NoError(t, err)
	meta := metadataRecord(success)
	require.NotNil(t, meta)
	assert.Equal(t, "NLJ7RT61SV", meta.MpesaReceiptNumber)
	assert.Equal(t, 2500.0, meta.Amount)

	// Failed attempts without a receipt produce no metadata row.
	failure, err := parseCallback([]byte(failurePayload))
	require.NoError(t, err)
	assert.Nil(t, metadataRecord(failure))
}

func TestHandleWebhookRejectsMalformedBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	// The malformed-body path never reaches the database.
	r.POST("/payments/webhook", HandleWebhook(nil))

	req := httptest.NewRequest(http.MethodPost, "/payments/webhook",
		strings.NewReader(`{"Body":{}}`))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
