package whmcs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"whmcs-stock-monitor/pkg/logger"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

const (
	DefaultTimeout  = 30 * time.Second
	DefaultCacheTTL = 5 * time.Minute

	// DefaultMaxRetries is the number of additional attempts after the
	// first failed request.
	DefaultMaxRetries = 3

	backoffBase = 1 * time.Second
	backoffCap  = 10 * time.Second
)

// InventoryClient is the read surface the monitoring engine depends on.
type InventoryClient interface {
	GetProducts(ctx context.Context, useCache bool, filters Filters) ([]Product, error)
	GetProduct(ctx context.Context, productID int, useCache bool) (*Product, error)
	GetProductInventory(ctx context.Context, productID int, useCache bool) (*Inventory, error)
	TestConnection(ctx context.Context) error
	ClearCache()
}

// Filters narrows a product listing request.
type Filters struct {
	ProductID int
	GroupID   int
	Module    string
	LimitNum  int
}

func (f Filters) values() url.Values {
	v := url.Values{}
	if f.ProductID > 0 {
		v.Set("pid", strconv.Itoa(f.ProductID))
	}
	if f.GroupID > 0 {
		v.Set("gid", strconv.Itoa(f.GroupID))
	}
	if f.Module != "" {
		v.Set("module", f.Module)
	}
	if f.LimitNum > 0 {
		v.Set("limitnum", strconv.Itoa(f.LimitNum))
	}
	return v
}

// Config holds the settings for one WHMCS API client.
type Config struct {
	APIURL        string
	APIIdentifier string
	APISecret     string
	Timeout       time.Duration
	CacheTTL      time.Duration
	// MaxRetries is the number of additional attempts after a failed
	// request. Zero means DefaultMaxRetries; a negative value disables
	// retries.
	MaxRetries int
	// RateLimit caps outgoing requests per second. Zero disables throttling.
	RateLimit float64
}

// Client is an authenticated, cached, retrying WHMCS API client.
type Client struct {
	cfg        Config
	httpClient *http.Client
	cache      *gocache.Cache
	limiter    *rate.Limiter
	logger     *logger.Logger

	// sleep waits between retry attempts; replaced in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewClient validates the configuration and builds a client.
func NewClient(cfg Config, log *logger.Logger) (*Client, error) {
	if cfg.APIURL == "" {
		return nil, newError(ErrKindValidation, "API URL is required", nil)
	}
	if cfg.APIIdentifier == "" {
		return nil, newError(ErrKindValidation, "API identifier is required", nil)
	}
	if cfg.APISecret == "" {
		return nil, newError(ErrKindValidation, "API secret is required", nil)
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = DefaultCacheTTL
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = DefaultMaxRetries
	} else if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}

	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), 1)
	}

	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		cache:      gocache.New(cfg.CacheTTL, 2*cfg.CacheTTL),
		limiter:    limiter,
		logger:     log,
		sleep: func(ctx context.Context, d time.Duration) error {
			timer := time.NewTimer(d)
			defer timer.Stop()
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-timer.C:
				return nil
			}
		},
	}, nil
}

// GetProducts fetches the product list, normalized, optionally via cache.
func (c *Client) GetProducts(ctx context.Context, useCache bool, filters Filters) ([]Product, error) {
	params := filters.values()
	cacheKey := cacheKey("GetProducts", params)

	if useCache {
		if cached, ok := c.cache.Get(cacheKey); ok {
			c.logger.DebugContext(ctx, "Cache hit", logger.StringField("cache_key", cacheKey))
			return cached.([]Product), nil
		}
	}

	env, err := c.makeRequest(ctx, "GetProducts", params)
	if err != nil {
		return nil, err
	}

	products, err := decodeProducts(env.Products)
	if err != nil {
		return nil, newError(ErrKindAPI, "malformed products response", err)
	}

	c.cache.SetDefault(cacheKey, products)
	return products, nil
}

// GetProduct fetches a single product by ID, or nil when not found.
func (c *Client) GetProduct(ctx context.Context, productID int, useCache bool) (*Product, error) {
	products, err := c.GetProducts(ctx, useCache, Filters{ProductID: productID})
	if err != nil {
		return nil, err
	}
	if len(products) == 0 {
		return nil, nil
	}
	return &products[0], nil
}

// GetProductInventory fetches the stock view of one product. An unknown
// product ID is an API error, distinguishable by kind from an
// authentication failure.
func (c *Client) GetProductInventory(ctx context.Context, productID int, useCache bool) (*Inventory, error) {
	product, err := c.GetProduct(ctx, productID, useCache)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, newError(ErrKindAPI, fmt.Sprintf("product %d not found", productID), nil)
	}

	return &Inventory{
		ProductID:    productID,
		Name:         product.Name,
		StockControl: product.StockControl,
		Quantity:     product.Quantity,
		Available:    product.Available,
		FetchedAt:    time.Now().UTC(),
	}, nil
}

// TestConnection verifies connectivity and credentials with a minimal call.
func (c *Client) TestConnection(ctx context.Context) error {
	_, err := c.makeRequest(ctx, "GetProducts", url.Values{"limitnum": {"1"}})
	return err
}

// ClearCache drops all cached responses.
func (c *Client) ClearCache() {
	c.cache.Flush()
	c.logger.Debug("WHMCS response cache cleared")
}

// makeRequest performs one API call with retries on transient failures.
// Backoff doubles from 1s and is capped at 10s.
func (c *Client) makeRequest(ctx context.Context, action string, params url.Values) (*apiEnvelope, error) {
	var lastErr error
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := backoffDelay(attempt)
			c.logger.Warn("Retrying WHMCS request",
				logger.StringField("action", action),
				logger.IntField("attempt", attempt),
				logger.Field("delay", delay),
				logger.ErrorField(lastErr))
			if err := c.sleep(ctx, delay); err != nil {
				return nil, newError(ErrKindConnection, "retry interrupted", err)
			}
		}

		env, err := c.doRequest(ctx, action, params)
		if err == nil {
			return env, nil
		}
		lastErr = err
		if !IsRetryable(err) {
			return nil, err
		}
	}
	return nil, lastErr
}

func backoffDelay(attempt int) time.Duration {
	delay := backoffBase << (attempt - 1)
	if delay > backoffCap {
		delay = backoffCap
	}
	return delay
}

func (c *Client) doRequest(ctx context.Context, action string, params url.Values) (*apiEnvelope, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, newError(ErrKindConnection, "rate limiter wait failed", err)
		}
	}

	form := url.Values{}
	form.Set("identifier", c.cfg.APIIdentifier)
	form.Set("secret", c.cfg.APISecret)
	form.Set("action", action)
	form.Set("responsetype", "json")
	for key, vals := range params {
		for _, v := range vals {
			form.Add(key, v)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.APIURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, newError(ErrKindValidation, "failed to build request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	c.logger.DebugContext(ctx, "Making WHMCS API request", logger.StringField("action", action))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, newError(ErrKindTimeout, fmt.Sprintf("request timed out after %s", c.cfg.Timeout), err)
		}
		return nil, newError(ErrKindConnection, "failed to connect to WHMCS API", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, newError(ErrKindConnection, "failed to read response body", err)
	}

	switch {
	case resp.StatusCode >= http.StatusInternalServerError:
		return nil, &Error{Kind: ErrKindConnection, Message: "server error", StatusCode: resp.StatusCode}
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, &Error{Kind: ErrKindAuthentication, Message: "authentication rejected", StatusCode: resp.StatusCode}
	case resp.StatusCode >= http.StatusBadRequest:
		return nil, &Error{Kind: ErrKindAPI, Message: "request rejected", StatusCode: resp.StatusCode}
	}

	var env apiEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, newError(ErrKindAPI, "invalid JSON response", err)
	}

	if env.Result == "error" {
		msg := env.Message
		if msg == "" {
			msg = "unknown error"
		}
		lower := strings.ToLower(msg)
		if strings.Contains(lower, "authentication") || strings.Contains(lower, "invalid identifier") {
			return nil, &Error{Kind: ErrKindAuthentication, Message: msg, StatusCode: resp.StatusCode}
		}
		return nil, &Error{Kind: ErrKindAPI, Message: msg, StatusCode: resp.StatusCode}
	}

	return &env, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// cacheKey builds a deterministic key from the operation and its filter
// set. url.Values.Encode sorts by key.
func cacheKey(action string, params url.Values) string {
	if len(params) == 0 {
		return action
	}
	return action + ":" + params.Encode()
}
