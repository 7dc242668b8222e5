package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"socialpay/internal/models"
	"socialpay/internal/pkg/httpclient"
)

const (
	pathGateways  = "/api/v1/gateways"
	pathStatus    = "/api/v1/transactions/%s/status"
	pathReceipt   = "/api/v1/transactions/%s/receipt"
	pathVerifyOTP = "/api/v1/wallet/verify-otp"

	userAgent = "socialpay-checkout/1"
)

var initiatePaths = map[models.FlowVariant]string{
	models.FlowMerchant:     "/api/v1/payments/merchant",
	models.FlowCheckoutLink: "/api/v1/payments/checkout",
	models.FlowQRLink:       "/api/v1/payments/qr-link",
}

// Client implements Backend over the SocialPay REST API.
type Client struct {
	http   *httpclient.Client
	reads  *httpclient.Client
	token  string
	locale string
}

var _ Backend = (*Client)(nil)

// NewClient creates a backend client rooted at baseURL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		http: httpclient.New().
			WithBaseURL(baseURL).
			WithTimeout(timeout).
			WithHeader("User-Agent", userAgent),
		reads: httpclient.New().
			WithBaseURL(baseURL).
			WithTimeout(timeout).
			WithHeader("User-Agent", userAgent).
			WithRetry(2, time.Second),
	}
}

// WithCredentials returns a copy that authenticates as the given payer and
// asks for messages in the given locale. The receiver is left untouched so a
// shared client can serve many sessions.
func (c *Client) WithCredentials(token, locale string) *Client {
	cp := *c
	cp.token = token
	cp.locale = locale
	return &cp
}

func (c *Client) headers() httpclient.Headers {
	h := httpclient.Headers{"Accept-Language": c.locale}
	if c.token != "" {
		h["Authorization"] = "Bearer " + c.token
	}
	return h
}

func (c *Client) ListGateways(ctx context.Context) ([]models.Gateway, error) {
	const op = "list gateways"
	resp, err := c.reads.Get(ctx, pathGateways, c.headers())
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}
	if !resp.OK() {
		return nil, &TransportError{Op: op, StatusCode: resp.StatusCode}
	}

	var gateways []models.Gateway
	if err := decodeData(resp.Body, &gateways); err != nil {
		return nil, &TransportError{Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}
	for i := range gateways {
		gateways[i].Key = strings.ToUpper(gateways[i].Key)
		gateways[i].Type = models.GatewayType(strings.ToUpper(string(gateways[i].Type)))
	}
	return gateways, nil
}

func (c *Client) InitiatePayment(ctx context.Context, variant models.FlowVariant, payload Payload) (*InitiateResult, error) {
	path, ok := initiatePaths[variant]
	if !ok {
		return nil, fmt.Errorf("unsupported flow variant: %s", variant)
	}

	const op = "initiate payment"
	resp, err := c.http.Post(ctx, path, payload, c.headers())
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}

	var result InitiateResult
	decodeErr := json.Unmarshal(resp.Body, &result)
	if !resp.OK() {
		// A failure body with a message is a declared failure, anything else
		// is transport noise.
		if decodeErr != nil || result.Message == "" {
			return nil, &TransportError{Op: op, StatusCode: resp.StatusCode}
		}
		result.Success = false
		return &result, nil
	}
	if decodeErr != nil {
		return nil, &TransportError{Op: op, Err: fmt.Errorf("decode response: %w", decodeErr)}
	}
	return &result, nil
}

func (c *Client) GetTransactionStatus(ctx context.Context, transactionID string) (*models.Transaction, error) {
	const op = "transaction status"
	resp, err := c.http.Get(ctx, fmt.Sprintf(pathStatus, url.PathEscape(transactionID)), c.headers())
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}
	if !resp.OK() {
		return nil, &TransportError{Op: op, StatusCode: resp.StatusCode}
	}

	var tx models.Transaction
	if err := decodeData(resp.Body, &tx); err != nil {
		return nil, &TransportError{Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}
	tx.Status = models.TransactionStatus(strings.ToUpper(string(tx.Status)))
	if tx.ID == "" {
		tx.ID = transactionID
	}
	return &tx, nil
}

func (c *Client) GetReceipt(ctx context.Context, transactionID string) (*models.Receipt, error) {
	const op = "receipt"
	resp, err := c.reads.Get(ctx, fmt.Sprintf(pathReceipt, url.PathEscape(transactionID)), c.headers())
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}
	if !resp.OK() {
		return nil, &TransportError{Op: op, StatusCode: resp.StatusCode}
	}

	var receipt models.Receipt
	if err := decodeData(resp.Body, &receipt); err != nil {
		return nil, &TransportError{Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}
	if receipt.TransactionID == "" {
		receipt.TransactionID = transactionID
	}
	return &receipt, nil
}

func (c *Client) VerifySecondaryCode(ctx context.Context, token, code string) (*VerifyResult, error) {
	const op = "verify otp"
	body := map[string]interface{}{
		"token": token,
		"code":  code,
	}
	resp, err := c.http.Post(ctx, pathVerifyOTP, body, c.headers())
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}

	var result VerifyResult
	decodeErr := json.Unmarshal(resp.Body, &result)
	if decodeErr != nil || (!resp.OK() && result.Message == "") {
		if !resp.OK() {
			return nil, &TransportError{Op: op, StatusCode: resp.StatusCode}
		}
		return nil, &TransportError{Op: op, Err: fmt.Errorf("decode response: %w", decodeErr)}
	}
	if !resp.OK() {
		result.Success = false
	}
	return &result, nil
}

// decodeData accepts both `{"data": ...}` envelopes and bare bodies.
func decodeData(body []byte, out interface{}) error {
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &env); err == nil && len(env.Data) > 0 && string(env.Data) != "null" {
		return json.Unmarshal(env.Data, out)
	}
	return json.Unmarshal(body, out)
}
