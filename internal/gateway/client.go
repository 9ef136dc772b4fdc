package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"FeeAllocator/internal/model"
	"FeeAllocator/internal/retry"
)

// ClientConfig configures the REST gateway client.
type ClientConfig struct {
	BaseURL       string
	APIKey        string
	Proxy         string
	Timeout       time.Duration
	RatePerSecond float64
	Burst         int
}

// APIError is a non-2xx response the service returned on purpose.
type APIError struct {
	Status int
	Code   string
	Body   string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("gateway API error: status %d, code %s: %s", e.Status, e.Code, e.Body)
	}
	return fmt.Sprintf("gateway API error: status %d, body: %s", e.Status, e.Body)
}

// Client implements Gateway against the fee service REST API.
// Calls are rate limited and pass through a circuit breaker.
type Client struct {
	BaseURL string
	APIKey  string
	HTTP    *http.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
}

// NewClient creates a client with optional proxy support.
func NewClient(cfg ClientConfig) *Client {
	transport := &http.Transport{}
	if cfg.Proxy != "" {
		if u, err := url.Parse(cfg.Proxy); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.RatePerSecond <= 0 {
		cfg.RatePerSecond = 5
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 5
	}
	return &Client{
		BaseURL: cfg.BaseURL,
		APIKey:  cfg.APIKey,
		HTTP: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
		},
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSecond), cfg.Burst),
		breaker: newBreaker("fee-gateway"),
	}
}

func newBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:     name,
		Interval: 60 * time.Second,
		Timeout:  30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// Rejections are answers, not outages.
		IsSuccessful: func(err error) bool {
			return err == nil || !retry.IsTransient(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state change")
		},
	})
}

func (c *Client) Name() string { return "rest:" + c.BaseURL }

// BreakerState reports the circuit breaker state.
func (c *Client) BreakerState() string { return c.breaker.State().String() }

type claimRequest struct {
	AssetID string `json:"asset_id"`
}

func (c *Client) Claim(ctx context.Context, assetID string) (ClaimReceipt, error) {
	var out ClaimReceipt
	err := c.do(ctx, http.MethodPost, "/api/v1/fees/claim", claimRequest{AssetID: assetID}, &out)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Code == "NO_FEES" {
		return ClaimReceipt{}, ErrNoFeesAvailable
	}
	if err != nil {
		return ClaimReceipt{}, fmt.Errorf("claim fees: %w", err)
	}
	return out, nil
}

func (c *Client) Price(ctx context.Context, assetID string) (float64, error) {
	var out struct {
		Price float64 `json:"price"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/price?asset_id="+url.QueryEscape(assetID), nil, &out); err != nil {
		return 0, fmt.Errorf("fetch price: %w", err)
	}
	return out.Price, nil
}

type convertRequest struct {
	AssetID   string    `json:"asset_id"`
	Amount    int64     `json:"amount"`
	Direction Direction `json:"direction"`
}

func (c *Client) Convert(ctx context.Context, assetID string, amount int64, dir Direction) (SwapReceipt, error) {
	var out SwapReceipt
	if err := c.do(ctx, http.MethodPost, "/api/v1/swap", convertRequest{AssetID: assetID, Amount: amount, Direction: dir}, &out); err != nil {
		return SwapReceipt{}, fmt.Errorf("convert: %w", err)
	}
	return out, nil
}

type burnRequest struct {
	AssetID string `json:"asset_id,omitempty"`
	ShareID string `json:"share_id,omitempty"`
	Amount  int64  `json:"amount"`
}

func (c *Client) BurnAsset(ctx context.Context, assetID string, amount int64) (Confirmation, error) {
	var out Confirmation
	if err := c.do(ctx, http.MethodPost, "/api/v1/burn", burnRequest{AssetID: assetID, Amount: amount}, &out); err != nil {
		return Confirmation{}, fmt.Errorf("burn asset: %w", err)
	}
	return out, nil
}

type depositRequest struct {
	AssetID      string `json:"asset_id"`
	NativeAmount int64  `json:"native_amount"`
	AssetAmount  int64  `json:"asset_amount"`
}

func (c *Client) Deposit(ctx context.Context, assetID string, nativeAmount, assetAmount int64) (PoolReceipt, error) {
	var out PoolReceipt
	req := depositRequest{AssetID: assetID, NativeAmount: nativeAmount, AssetAmount: assetAmount}
	if err := c.do(ctx, http.MethodPost, "/api/v1/pool/deposit", req, &out); err != nil {
		return PoolReceipt{}, fmt.Errorf("pool deposit: %w", err)
	}
	return out, nil
}

func (c *Client) BurnShare(ctx context.Context, shareID string, amount int64) (Confirmation, error) {
	var out Confirmation
	if err := c.do(ctx, http.MethodPost, "/api/v1/pool/burn", burnRequest{ShareID: shareID, Amount: amount}, &out); err != nil {
		return Confirmation{}, fmt.Errorf("burn pool share: %w", err)
	}
	return out, nil
}

func (c *Client) Holders(ctx context.Context, assetID string) ([]model.Holder, error) {
	var out []model.Holder
	if err := c.do(ctx, http.MethodGet, "/api/v1/holders?asset_id="+url.QueryEscape(assetID), nil, &out); err != nil {
		return nil, fmt.Errorf("fetch holders: %w", err)
	}
	return out, nil
}

type transferRequest struct {
	AssetID   string `json:"asset_id"`
	Recipient string `json:"recipient"`
	Amount    int64  `json:"amount"`
}

func (c *Client) Transfer(ctx context.Context, assetID, recipient string, amount int64) (Confirmation, error) {
	var out Confirmation
	req := transferRequest{AssetID: assetID, Recipient: recipient, Amount: amount}
	if err := c.do(ctx, http.MethodPost, "/api/v1/transfer", req, &out); err != nil {
		return Confirmation{}, fmt.Errorf("transfer: %w", err)
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	_, err := c.breaker.Execute(func() (any, error) {
		return nil, c.roundTrip(ctx, method, path, in, out)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	return err
}

func (c *Client) roundTrip(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		apiErr := &APIError{Status: resp.StatusCode, Body: string(respBody)}
		var envelope struct {
			Code string `json:"code"`
		}
		if json.Unmarshal(respBody, &envelope) == nil {
			apiErr.Code = envelope.Code
		}
		switch resp.StatusCode {
		case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return retry.MarkTransient(apiErr)
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
