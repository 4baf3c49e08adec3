package platform

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// DefaultTimeout is the default request timeout for platform calls.
const DefaultTimeout = 30 * time.Second

// DefaultUserAgent is sent with every platform request.
const DefaultUserAgent = "InterviewAgent/1.0"

// maxBodyBytes caps how much of a response body is read.
const maxBodyBytes = 16 << 20

// Error is a failure talking to the recruiting platform: transport error, timeout,
// redirect, non-2xx status or an undecodable body.
type Error struct {
	URL        string
	StatusCode int
	Message    string
	Cause      error
}

func (e *Error) Error() string {
	var sb strings.Builder
	sb.WriteString("platform error for ")
	sb.WriteString(e.URL)
	if e.StatusCode > 0 {
		sb.WriteString(fmt.Sprintf(": HTTP %d", e.StatusCode))
	}
	sb.WriteString(": ")
	sb.WriteString(e.Message)
	if e.Cause != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Cause.Error())
	}
	return sb.String()
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Config configures the platform client.
type Config struct {
	BaseURL   string
	Token     string
	Timeout   time.Duration
	UserAgent string
}

// Client fetches requisition details from the recruiting platform.
// Calls are single-shot: there is no retry, and redirects are reported as failures.
type Client struct {
	baseURL   *url.URL
	token     string
	userAgent string
	http      *http.Client
	logger    *zap.Logger
}

// NewClient creates a platform client.
func NewClient(cfg Config, logger *zap.Logger) (*Client, error) {
	base, err := url.Parse(strings.TrimSuffix(cfg.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid platform base URL %q", cfg.BaseURL)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		baseURL:   base,
		token:     cfg.Token,
		userAgent: cfg.UserAgent,
		http: &http.Client{
			Timeout: cfg.Timeout,
			CheckRedirect: func(_ *http.Request, _ []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		logger: logger.Named("platform"),
	}, nil
}

// GetRequisitionDetails calls GET /req-details/{reqID}/{userID}.
func (c *Client) GetRequisitionDetails(ctx context.Context, reqID, userID string) (*Snapshot, error) {
	endpoint := c.baseURL.JoinPath("req-details", reqID, userID).String()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &Error{URL: endpoint, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		msg := "HTTP request failed"
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			msg = "request timed out"
		}
		c.logger.Warn("Platform request failed",
			zap.String("url", endpoint),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return nil, &Error{URL: endpoint, Message: msg, Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	c.logger.Debug("Platform response",
		zap.String("url", endpoint),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))

	if resp.StatusCode >= 300 && resp.StatusCode < 400 {
		return nil, &Error{
			URL:        endpoint,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("unexpected redirect to %q", resp.Header.Get("Location")),
		}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &Error{
			URL:        endpoint,
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace("unexpected status " + string(body)),
		}
	}

	var snapshot Snapshot
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&snapshot); err != nil {
		return nil, &Error{
			URL:        endpoint,
			StatusCode: resp.StatusCode,
			Message:    "failed to decode response body",
			Cause:      err,
		}
	}

	return &snapshot, nil
}

func isTimeout(err error) bool {
	var te interface{ Timeout() bool }
	return errors.As(err, &te) && te.Timeout()
}
