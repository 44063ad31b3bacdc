// Package remote implements ports.RemoteStore against a Confluence Cloud style REST API.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"math/rand/v2"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"spacesync/internal/application"
	"spacesync/internal/ports"
)

const apiPrefix = "/wiki/api/v2"

// Options configures a Client
type Options struct {
	BaseURL  string // site root, e.g. https://example.atlassian.net
	Email    string
	APIToken string

	Timeout        time.Duration
	MaxRetries     int // retries after a 429 before giving up
	InitialBackoff time.Duration
	MaxBackoff     time.Duration

	HTTPClient *http.Client
	Logger     zerolog.Logger
}

// Client talks to the remote document store over HTTP.
// Client instances are safe for concurrent use.
type Client struct {
	baseURL    string
	email      string
	token      string
	httpClient *http.Client
	logger     zerolog.Logger

	maxRetries     int
	initialBackoff time.Duration
	maxBackoff     time.Duration
	sleep          func(ctx context.Context, d time.Duration) error
}

// Ensure Client implements RemoteStore
var _ ports.RemoteStore = (*Client)(nil)

// NewClient creates a client. Zero durations fall back to defaults.
func NewClient(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.InitialBackoff <= 0 {
		opts.InitialBackoff = time.Second
	}
	if opts.MaxBackoff <= 0 {
		opts.MaxBackoff = 30 * time.Second
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}

	return &Client{
		baseURL:        strings.TrimRight(opts.BaseURL, "/"),
		email:          opts.Email,
		token:          opts.APIToken,
		httpClient:     httpClient,
		logger:         opts.Logger.With().Str("component", "remote").Logger(),
		maxRetries:     opts.MaxRetries,
		initialBackoff: opts.InitialBackoff,
		maxBackoff:     opts.MaxBackoff,
		sleep:          sleepContext,
	}
}

// do sends a request and returns the status and body of the final response.
// 429 responses are retried with exponential backoff; other statuses are returned as is.
func (c *Client) do(ctx context.Context, method, path string, payload any) (int, []byte, error) {
	var body []byte
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		if err != nil {
			return 0, nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
	}

	target := path
	if !strings.HasPrefix(target, "http://") && !strings.HasPrefix(target, "https://") {
		target = c.baseURL + path
	}

	for attempt := 0; ; attempt++ {
		var bodyReader io.Reader
		if body != nil {
			bodyReader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, target, bodyReader)
		if err != nil {
			return 0, nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if c.email != "" || c.token != "" {
			req.SetBasicAuth(c.email, c.token)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return 0, nil, ctx.Err()
			}
			return 0, nil, &application.NetworkError{Cause: err}
		}
		data, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return 0, nil, &application.NetworkError{Cause: err}
		}

		if resp.StatusCode != http.StatusTooManyRequests {
			return resp.StatusCode, data, nil
		}

		hint := retryAfter(resp.Header.Get("Retry-After"))
		if attempt >= c.maxRetries {
			return 0, nil, &application.RateLimitError{RetryAfter: hint}
		}
		wait := hint
		if wait <= 0 {
			wait = c.backoff(attempt)
		}
		c.logger.Debug().
			Str("method", method).
			Str("path", path).
			Int("attempt", attempt+1).
			Dur("wait", wait).
			Msg("rate limited, retrying")
		if err := c.sleep(ctx, wait); err != nil {
			return 0, nil, err
		}
	}
}

// backoff returns an exponential delay with +/-30% jitter
func (c *Client) backoff(attempt int) time.Duration {
	delay := float64(c.initialBackoff) * math.Pow(2, float64(attempt))
	if delay > float64(c.maxBackoff) {
		delay = float64(c.maxBackoff)
	}
	delay += delay * 0.3 * (2*rand.Float64() - 1)
	if delay <= 0 {
		delay = float64(c.initialBackoff)
	}
	return time.Duration(delay)
}

// retryAfter parses a Retry-After header given in seconds or as an HTTP date
func retryAfter(value string) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	if secs, err := strconv.Atoi(value); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(value); err == nil {
		if d := time.Until(at); d > 0 {
			return d
		}
	}
	return 0
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// statusError maps a non-success response to an application error kind
func statusError(status int, body []byte, id string) error {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return &application.AuthError{StatusCode: status}
	case http.StatusNotFound:
		return &application.NotFoundError{ID: id}
	default:
		return &application.APIError{StatusCode: status, Message: errorMessage(body)}
	}
}

// errorMessage extracts a readable message from either error envelope the API uses
func errorMessage(body []byte) string {
	var envelope struct {
		Message string `json:"message"`
		Errors  []struct {
			Title  string `json:"title"`
			Detail string `json:"detail"`
		} `json:"errors"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil {
		if envelope.Message != "" {
			return envelope.Message
		}
		var parts []string
		for _, e := range envelope.Errors {
			msg := e.Title
			if e.Detail != "" {
				msg = strings.TrimSpace(msg + " " + e.Detail)
			}
			if msg != "" {
				parts = append(parts, msg)
			}
		}
		if len(parts) > 0 {
			return strings.Join(parts, "; ")
		}
	}

	text := strings.TrimSpace(string(body))
	if len(text) > 200 {
		text = text[:200] + "..."
	}
	if text == "" {
		text = "empty response"
	}
	return text
}

// validator is implemented by payloads that check their required fields
type validator interface {
	validate() error
}

// decode unmarshals a success body and checks required fields. A body that
// does not decode is reported as an API error carrying the response status.
func decode(status int, data []byte, target validator) error {
	if err := json.Unmarshal(data, target); err != nil {
		return &application.APIError{StatusCode: status, Message: "malformed response: " + err.Error()}
	}
	if err := target.validate(); err != nil {
		return &application.APIError{StatusCode: status, Message: "malformed response: " + err.Error()}
	}
	return nil
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}
