package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kutbudev/invctl/internal/auth"
	"github.com/kutbudev/invctl/internal/config"
	apierrors "github.com/kutbudev/invctl/internal/errors"
	"github.com/kutbudev/invctl/internal/logging"
	"go.uber.org/zap"
)

type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Token      string

	// Activity is notified around every request (the global busy indicator)
	Activity ActivityIndicator
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the backend URL.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.BaseURL = strings.TrimRight(u, "/") }
}

// WithToken sets the bearer token.
func WithToken(token string) Option {
	return func(c *Client) { c.Token = token }
}

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.HTTPClient = hc }
}

// WithActivity sets the activity indicator.
func WithActivity(a ActivityIndicator) Option {
	return func(c *Client) {
		if a != nil {
			c.Activity = a
		}
	}
}

// New builds a client with defaults and the given options and nothing else.
func New(opts ...Option) *Client {
	c := &Client{
		BaseURL:    config.DefaultAPIURL,
		HTTPClient: &http.Client{Timeout: config.DefaultHTTPTimeoutSeconds * time.Second},
		Activity:   noActivity{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewClient creates a client from the resolved settings and the stored token.
func NewClient(opts ...Option) *Client {
	base := []Option{}
	if settings, err := config.LoadSettings(); err == nil {
		base = append(base,
			WithBaseURL(settings.APIURL),
			WithHTTPClient(&http.Client{Timeout: settings.HTTPTimeout}),
		)
		if settings.Token != "" {
			base = append(base, WithToken(settings.Token))
		}
	} else {
		logging.L().Warn("could not load settings, using defaults", zap.Error(err))
	}
	if token, err := auth.LoadToken(); err == nil && token != "" {
		base = append(base, WithToken(token))
	}
	return New(append(base, opts...)...)
}

// Request performs a raw request and returns the response body.
func (c *Client) Request(ctx context.Context, method, endpoint string, body interface{}) ([]byte, error) {
	return c.makeRequest(ctx, method, endpoint, body)
}

// makeRequest makes an HTTP request and returns the response body
func (c *Client) makeRequest(ctx context.Context, method, endpoint string, body interface{}) ([]byte, error) {
	reqURL := c.BaseURL + endpoint

	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	requestID := uuid.NewString()
	req.Header.Set("X-Request-ID", requestID)

	activity := c.Activity
	if activity == nil {
		activity = noActivity{}
	}
	activity.Start()

	log := logging.L().With(zap.String("method", method), zap.String("endpoint", endpoint), zap.String("request_id", requestID))
	log.Debug("api request")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		activity.End(0)
		log.Debug("api request failed", zap.Error(err))
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()
	activity.End(resp.StatusCode)

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	log.Debug("api response", zap.Int("status", resp.StatusCode))
	if resp.StatusCode >= 400 {
		return nil, apierrors.NewAPIError(resp.StatusCode, respBody)
	}

	return respBody, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, out interface{}) error {
	return c.doJSON(ctx, http.MethodGet, endpoint, nil, out)
}

func (c *Client) doJSON(ctx context.Context, method, endpoint string, body, out interface{}) error {
	respBody, err := c.makeRequest(ctx, method, endpoint, body)
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to unmarshal response from %s: %w", endpoint, err)
	}
	return nil
}

func itoa(id int) string {
	return strconv.Itoa(id)
}

func withQuery(endpoint string, q url.Values) string {
	if len(q) == 0 {
		return endpoint
	}
	return endpoint + "?" + q.Encode()
}
