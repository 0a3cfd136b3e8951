package registrar

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/studiofisyo/ledger/internal/push"
)

const (
	DefaultBaseURL    = "http://localhost:8080"
	SubscriptionsPath = "/api/push/subscriptions"
)

// APIError is a non-2xx answer from the reminders service.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api error: status=%d", e.StatusCode)
	}
	return fmt.Sprintf("api error: status=%d: %s", e.StatusCode, e.Message)
}

// APIClient stores subscriptions through the reminders service HTTP API. The
// server derives the account from the bearer token, so the account passed to
// the Store methods is not sent.
type APIClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

type ClientOption func(*APIClient)

func WithBaseURL(url string) ClientOption {
	return func(c *APIClient) {
		c.baseURL = strings.TrimRight(url, "/")
	}
}

func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *APIClient) {
		c.httpClient = hc
	}
}

func NewAPIClient(token string, opts ...ClientOption) *APIClient {
	c := &APIClient{
		baseURL:    DefaultBaseURL,
		token:      token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type upsertRequest struct {
	Endpoint string    `json:"endpoint"`
	Keys     push.Keys `json:"keys"`
}

type upsertResponse struct {
	ID string `json:"id"`
}

type deleteRequest struct {
	Endpoint string `json:"endpoint"`
}

func (c *APIClient) UpsertSubscription(ctx context.Context, sub push.Subscription) (push.Subscription, error) {
	var res upsertResponse
	req := upsertRequest{Endpoint: sub.Endpoint, Keys: sub.Keys}
	if err := c.do(ctx, http.MethodPost, SubscriptionsPath, req, &res); err != nil {
		return push.Subscription{}, err
	}
	sub.ID = res.ID
	return sub, nil
}

func (c *APIClient) DeleteSubscriptionByEndpoint(ctx context.Context, _ string, endpoint string) error {
	return c.do(ctx, http.MethodDelete, SubscriptionsPath, deleteRequest{Endpoint: endpoint}, nil)
}

func (c *APIClient) do(ctx context.Context, method, path string, body, out any) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&apiErr)
		return &APIError{StatusCode: resp.StatusCode, Message: apiErr.Error}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
