// Package webhook provides an HTTP client for sending reports to webhook endpoints.
package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/ccollicutt/wherewas/pkg/output"
)

// DefaultTimeout is the default HTTP request timeout.
const DefaultTimeout = 10 * time.Second

// Retry defaults. Only transport errors and 5xx responses are retried.
const (
	DefaultRetryCount   = 2
	DefaultRetryWait    = 500 * time.Millisecond
	DefaultRetryMaxWait = 2 * time.Second
)

const userAgent = "wherewas-webhook"

// Client sends reports to webhook endpoints.
type Client struct {
	rc *resty.Client
}

// ClientOption configures a Client.
type ClientOption func(*resty.Client)

// WithRetries sets how many times a failed request is retried and the
// initial wait between attempts. A count of zero disables retries.
func WithRetries(count int, wait time.Duration) ClientOption {
	return func(rc *resty.Client) {
		rc.SetRetryCount(count).SetRetryWaitTime(wait)
		if wait > DefaultRetryMaxWait {
			rc.SetRetryMaxWaitTime(wait)
		}
	}
}

// WithLogger routes the HTTP client's own diagnostics to l.
func WithLogger(l *slog.Logger) ClientOption {
	return func(rc *resty.Client) {
		if l != nil {
			rc.SetLogger(restyLogger{l})
		}
	}
}

// NewClient creates a new webhook client.
func NewClient(opts ...ClientOption) *Client {
	rc := resty.New().
		SetRetryCount(DefaultRetryCount).
		SetRetryWaitTime(DefaultRetryWait).
		SetRetryMaxWaitTime(DefaultRetryMaxWait).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || (r != nil && r.StatusCode() >= http.StatusInternalServerError)
		}).
		SetHeader("User-Agent", userAgent).
		SetLogger(restyLogger{slog.New(slog.NewTextHandler(io.Discard, nil))})

	for _, opt := range opts {
		opt(rc)
	}

	return &Client{rc: rc}
}

// SendOptions configures a webhook request.
type SendOptions struct {
	URL     string
	Token   string        // Bearer token (optional)
	Timeout time.Duration // Request timeout (uses DefaultTimeout if zero)
}

// Response contains the result of a webhook request.
type Response struct {
	StatusCode int
	Body       string
	Duration   time.Duration

	// Attempts is the number of requests made, including retries.
	Attempts int
	Error    error
}

// Success returns true if the webhook was sent successfully (2xx status).
func (r *Response) Success() bool {
	return r.Error == nil && r.StatusCode >= 200 && r.StatusCode < 300
}

// Send posts a report to a webhook endpoint. The timeout covers all
// attempts.
func (c *Client) Send(ctx context.Context, report *output.Report, opts SendOptions) *Response {
	start := time.Now()
	resp := &Response{}

	// Marshal report to JSON
	payload, err := json.Marshal(report)
	if err != nil {
		resp.Error = fmt.Errorf("failed to marshal report: %w", err)
		resp.Duration = time.Since(start)
		return resp
	}

	timeout := opts.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req := c.rc.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(payload)
	if opts.Token != "" {
		req.SetAuthToken(opts.Token)
	}

	httpResp, err := req.Post(opts.URL)
	resp.Duration = time.Since(start)
	resp.Attempts = req.Attempt
	if err != nil {
		resp.Error = fmt.Errorf("request failed: %w", err)
		return resp
	}

	resp.StatusCode = httpResp.StatusCode()
	resp.Body = string(httpResp.Body())

	// Check for error status codes
	if resp.StatusCode >= 400 {
		resp.Error = fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	return resp
}

// restyLogger adapts slog to resty's printf-style logger.
type restyLogger struct {
	l *slog.Logger
}

func (r restyLogger) Errorf(format string, v ...interface{}) {
	r.l.Error(fmt.Sprintf(format, v...), "component", "webhook")
}

func (r restyLogger) Warnf(format string, v ...interface{}) {
	r.l.Warn(fmt.Sprintf(format, v...), "component", "webhook")
}

func (r restyLogger) Debugf(format string, v ...interface{}) {
	r.l.Debug(fmt.Sprintf(format, v...), "component", "webhook")
}
