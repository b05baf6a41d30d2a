package mpesaControllers

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/lizmart/storefront-api/config"
	"github.com/lizmart/storefront-api/models"
	"github.com/lizmart/storefront-api/util"
	"go.uber.org/zap"
)

// STKPushResponse is the gateway's synchronous acknowledgement of a push
// request. It is not proof of payment; the result arrives later on the
// webhook.
type STKPushResponse struct {
	MerchantRequestID   string `json:"MerchantRequestID"`
	CheckoutRequestID   string `json:"CheckoutRequestID"`
	ResponseCode        string `json:"ResponseCode"`
	ResponseDescription string `json:"ResponseDescription"`
	CustomerMessage     string `json:"CustomerMessage"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   string `json:"expires_in"`
}

// Client talks to the M-Pesa Daraja API. The short-lived OAuth token is
// cached in-process and refreshed on expiry.
type Client struct {
	cfg    config.MpesaConfig
	http   *http.Client
	logger *zap.Logger

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

func NewClient(cfg config.MpesaConfig) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: timeout},
		logger: util.GetLogger(),
	}
}

// Password builds the gateway's request credential:
// base64(shortcode + passkey + timestamp), timestamp in YYYYMMDDHHMMSS.
func Password(shortCode, passKey string, t time.Time) (password, timestamp string) {
	timestamp = t.Format("20060102150405")
	password = base64.StdEncoding.EncodeToString([]byte(shortCode + passKey + timestamp))
	return password, timestamp
}

// NormalizePhone strips formatting and converts a local 07xx / +2547xx number
// to the 2547xx form the gateway expects.
func NormalizePhone(phone string) (uint64, error) {
	var digits strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	s := digits.String()
	if strings.HasPrefix(s, "0") {
		s = "254" + s[1:]
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil || n == 0 {
		return 0, models.ErrInvalidPhone
	}
	return n, nil
}

// accessToken returns a cached bearer token, fetching a fresh one when the
// cached token is within a minute of expiry.
func (c *Client) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && time.Now().Before(c.tokenExpiry.Add(-time.Minute)) {
		return c.token, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.cfg.BaseURL+"/oauth/v1/generate?grant_type=client_credentials", nil)
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(c.cfg.ConsumerKey, c.cfg.ConsumerSecret)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: token request: %v", models.ErrGateway, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: token request status %d: %s", models.ErrGateway, resp.StatusCode, body)
	}

	var tok tokenResponse
	if err := json.Unmarshal(body, &tok); err != nil || tok.AccessToken == "" {
		return "", fmt.Errorf("%w: unparseable token response", models.ErrGateway)
	}

	ttl, err := strconv.Atoi(tok.ExpiresIn)
	if err != nil || ttl <= 0 {
		ttl = 3600
	}
	c.token = tok.AccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(ttl) * time.Second)
	return c.token, nil
}

// STKPush issues a push-payment request for the given amount and returns the
// gateway's acknowledgement plus the raw response body for audit storage.
// Amount validation happens before any network call.
func (c *Client) STKPush(ctx context.Context, phone string, amount float64) (*STKPushResponse, []byte, error) {
	if amount <= 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return nil, nil, models.ErrInvalidAmount
	}
	msisdn, err := NormalizePhone(phone)
	if err != nil {
		return nil, nil, err
	}

	token, err := c.accessToken(ctx)
	if err != nil {
		return nil, nil, err
	}

	password, timestamp := Password(c.cfg.ShortCode, c.cfg.PassKey, time.Now())
	payload := map[string]interface{}{
		"BusinessShortCode": c.cfg.ShortCode,
		"Password":          password,
		"Timestamp":         timestamp,
		"TransactionType":   "CustomerPayBillOnline",
		"Amount":            int64(math.Round(amount)),
		"PartyA":            msisdn,
		"PartyB":            c.cfg.ShortCode,
		"PhoneNumber":       msisdn,
		"CallBackURL":       c.cfg.CallbackURL,
		"AccountReference":  c.cfg.AccountReference,
		"TransactionDesc":   c.cfg.TransactionDesc,
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.cfg.BaseURL+"/mpesa/stkpush/v1/processrequest", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", models.ErrGateway, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("stk push rejected",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", body))
		return nil, body, fmt.Errorf("%w: status %d", models.ErrGateway, resp.StatusCode)
	}

	var ack STKPushResponse
	if err := json.Unmarshal(body, &ack); err != nil {
		return nil, body, fmt.Errorf("%w: unparseable acknowledgement", models.ErrGateway)
	}
	if ack.CheckoutRequestID == "" {
		return nil, body, fmt.Errorf("%w: acknowledgement missing CheckoutRequestID", models.ErrGateway)
	}

	return &ack, body, nil
}
