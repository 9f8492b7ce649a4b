package paypal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/spec-kit/exemption-service/internal/config"
)

// Order statuses reported by the provider.
const (
	OrderStatusCreated   = "CREATED"
	OrderStatusApproved  = "APPROVED"
	OrderStatusCompleted = "COMPLETED"
	OrderStatusVoided    = "VOIDED"
)

// Provider is the checkout surface the service layer depends on.
type Provider interface {
	CreateOrder(ctx context.Context, input CreateOrderInput) (*Order, error)
	CaptureOrder(ctx context.Context, orderID string) (*Order, error)
	GetOrder(ctx context.Context, orderID string) (*Order, error)
}

// CreateOrderInput describes a single flat-fee order.
type CreateOrderInput struct {
	Amount    string
	Currency  string
	ReturnURL string
	CancelURL string
}

// Order is the provider-side order view the service cares about.
type Order struct {
	ID          string
	Status      string
	ApprovalURL string
	CaptureID   string
}

// Client talks to the PayPal REST v2 orders API.
type Client struct {
	baseURL      string
	clientID     string
	clientSecret string
	maxRetries   int
	http         *http.Client

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

// NewClient builds a client from configuration.
func NewClient(cfg config.PayPalConfig) *Client {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	retries := cfg.MaxRetries
	if retries <= 0 {
		retries = 3
	}
	return &Client{
		baseURL:      cfg.BaseURL,
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		maxRetries:   retries,
		http:         &http.Client{Timeout: timeout},
	}
}

// Configured reports whether provider credentials are present.
func (c *Client) Configured() bool {
	return c.clientID != "" && c.clientSecret != ""
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

type orderResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Links  []struct {
		Href string `json:"href"`
		Rel  string `json:"rel"`
	} `json:"links"`
	PurchaseUnits []struct {
		Payments struct {
			Captures []struct {
				ID     string `json:"id"`
				Status string `json:"status"`
			} `json:"captures"`
		} `json:"payments"`
	} `json:"purchase_units"`
}

type apiError struct {
	Name    string `json:"name"`
	Message string `json:"message"`
}

func (o *orderResponse) toOrder() *Order {
	order := &Order{ID: o.ID, Status: o.Status}
	for _, link := range o.Links {
		if link.Rel == "approve" || link.Rel == "payer-action" {
			order.ApprovalURL = link.Href
			break
		}
	}
	for _, unit := range o.PurchaseUnits {
		if len(unit.Payments.Captures) > 0 {
			order.CaptureID = unit.Payments.Captures[0].ID
			break
		}
	}
	return order
}

// CreateOrder creates a CAPTURE-intent order and returns the approval link.
func (c *Client) CreateOrder(ctx context.Context, input CreateOrderInput) (*Order, error) {
	payload := map[string]any{
		"intent": "CAPTURE",
		"purchase_units": []map[string]any{
			{
				"amount": map[string]string{
					"currency_code": input.Currency,
					"value":         input.Amount,
				},
			},
		},
		"application_context": map[string]string{
			"return_url":  input.ReturnURL,
			"cancel_url":  input.CancelURL,
			"user_action": "PAY_NOW",
		},
	}

	var resp orderResponse
	if err := c.call(ctx, http.MethodPost, "/v2/checkout/orders", payload, &resp); err != nil {
		return nil, err
	}
	return resp.toOrder(), nil
}

// CaptureOrder executes the approved order.
func (c *Client) CaptureOrder(ctx context.Context, orderID string) (*Order, error) {
	var resp orderResponse
	path := fmt.Sprintf("/v2/checkout/orders/%s/capture", orderID)
	if err := c.call(ctx, http.MethodPost, path, struct{}{}, &resp); err != nil {
		return nil, err
	}
	return resp.toOrder(), nil
}

// GetOrder fetches current provider-side order state.
func (c *Client) GetOrder(ctx context.Context, orderID string) (*Order, error) {
	var resp orderResponse
	path := fmt.Sprintf("/v2/checkout/orders/%s", orderID)
	if err := c.call(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.toOrder(), nil
}

// call performs an authenticated API request with retry and backoff.
func (c *Client) call(ctx context.Context, method, path string, payload, out any) error {
	if !c.Configured() {
		return fmt.Errorf("paypal credentials not configured")
	}

	var body []byte
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = encoded
	}

	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := time.Duration(math.Pow(2, float64(attempt-1))) * time.Second
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		token, err := c.token(ctx)
		if err != nil {
			lastErr = err
			continue
		}

		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
		if err != nil {
			return fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("http request: %w", err)
			continue
		}

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("read response: %w", err)
			continue
		}

		if resp.StatusCode == http.StatusUnauthorized {
			c.invalidateToken()
			lastErr = fmt.Errorf("unauthorized (status %d)", resp.StatusCode)
			continue
		}
		if resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("provider unavailable (status %d)", resp.StatusCode)
			continue
		}
		if resp.StatusCode >= 400 {
			var apiErr apiError
			if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Name != "" {
				return fmt.Errorf("paypal %s: %s", apiErr.Name, apiErr.Message)
			}
			return fmt.Errorf("paypal request failed (status %d)", resp.StatusCode)
		}

		if out != nil && len(respBody) > 0 {
			if err := json.Unmarshal(respBody, out); err != nil {
				return fmt.Errorf("decode response: %w", err)
			}
		}
		return nil
	}
	return fmt.Errorf("paypal request failed after %d attempts: %w", c.maxRetries, lastErr)
}

// token returns a cached OAuth access token, refreshing when expired.
func (c *Client) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && time.Now().Before(c.tokenExpiry) {
		return c.accessToken, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/oauth2/token",
		bytes.NewBufferString("grant_type=client_credentials"))
	if err != nil {
		return "", fmt.Errorf("build token request: %w", err)
	}
	req.SetBasicAuth(c.clientID, c.clientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("token request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token request failed (status %d)", resp.StatusCode)
	}

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}

	c.accessToken = tr.AccessToken
	// refresh one minute early to avoid racing expiry
	c.tokenExpiry = time.Now().Add(time.Duration(tr.ExpiresIn)*time.Second - time.Minute)
	return c.accessToken, nil
}

func (c *Client) invalidateToken() {
	c.mu.Lock()
	c.accessToken = ""
	c.tokenExpiry = time.Time{}
	c.mu.Unlock()
}
