// Package apiclient is the HTTP client for the recruiting platform API.
// It covers candidate search, detail, shortlisting, contact unlocking and campaign CRUD.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/jonathan/recruit-search/internal/schemas"
)

// DefaultBaseURL is the API origin used when none is configured.
const DefaultBaseURL = "http://localhost:4000"

// DefaultTimeout is the default HTTP request timeout.
const DefaultTimeout = 30 * time.Second

// DefaultUserAgent is the user agent string for API requests.
const DefaultUserAgent = "recruit-agent/1.0"

// maxBodyBytes caps how much of a response body is read.
const maxBodyBytes = 10 << 20

var tracer = otel.Tracer("recruit.apiclient")

// Options configures the client.
type Options struct {
	BaseURL   string
	Token     string
	Timeout   time.Duration
	UserAgent string
	Headers   map[string]string

	// RateLimit is the sustained request rate; zero disables limiting.
	RateLimit rate.Limit
	Burst     int

	// Validator, when set, checks every response body against its contract.
	Validator *schemas.Validator

	// HTTPClient overrides the default client. Timeout is ignored when set.
	HTTPClient *http.Client
}

// DefaultOptions returns sensible defaults for the client.
func DefaultOptions() *Options {
	return &Options{
		BaseURL:   DefaultBaseURL,
		Timeout:   DefaultTimeout,
		UserAgent: DefaultUserAgent,
	}
}

// Client calls the recruiting API. It is safe for concurrent use.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	token      string
	userAgent  string
	headers    map[string]string
	limiter    *rate.Limiter
	validator  *schemas.Validator
	now        func() time.Time
}

// New creates a client from opts. A nil opts uses DefaultOptions.
func New(opts *Options) (*Client, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	parsed, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, &Error{Op: "init", URL: baseURL, Message: "invalid base URL", Cause: err}
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout == 0 {
			timeout = DefaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	var limiter *rate.Limiter
	if opts.RateLimit > 0 {
		burst := opts.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(opts.RateLimit, burst)
	}

	return &Client{
		baseURL:    parsed,
		httpClient: httpClient,
		token:      opts.Token,
		userAgent:  userAgent,
		headers:    opts.Headers,
		limiter:    limiter,
		validator:  opts.Validator,
		now:        time.Now,
	}, nil
}

// BaseURL returns the API origin the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// call describes a single API round trip.
type call struct {
	op     string
	method string
	path   string
	body   any
	schema string
	out    any
}

func (c *Client) do(ctx context.Context, rc call) error {
	endpoint := c.baseURL.String() + rc.path

	if err := checkToken(c.token, c.now()); err != nil {
		return &Error{Op: rc.op, URL: endpoint, Message: "refusing to send request", Cause: err}
	}

	ctx, span := tracer.Start(ctx, "apiclient."+rc.op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.method", rc.method),
			attribute.String("http.url", endpoint),
		),
	)
	defer span.End()

	err := c.roundTrip(ctx, rc, endpoint, span)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (c *Client) roundTrip(ctx context.Context, rc call, endpoint string, span trace.Span) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return &Error{Op: rc.op, URL: endpoint, Message: "rate limit wait aborted", Cause: err}
		}
	}

	var reqBody io.Reader
	if rc.body != nil {
		data, err := json.Marshal(rc.body)
		if err != nil {
			return &Error{Op: rc.op, URL: endpoint, Message: "failed to encode request body", Cause: err}
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, rc.method, endpoint, reqBody)
	if err != nil {
		return &Error{Op: rc.op, URL: endpoint, Message: "failed to create request", Cause: err}
	}

	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", requestID)
	if rc.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}
	span.SetAttributes(attribute.String("http.request_id", requestID))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = fmt.Errorf("%w: %v", ctxErr, err)
		}
		return &Error{Op: rc.op, URL: endpoint, Message: "HTTP request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return &Error{Op: rc.op, URL: endpoint, StatusCode: resp.StatusCode, Message: "failed to read response body", Cause: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(rc.op, endpoint, resp.StatusCode, data)
	}

	if c.validator != nil && rc.schema != "" {
		if err := c.validator.Validate(rc.schema, data); err != nil {
			return &Error{Op: rc.op, URL: endpoint, StatusCode: resp.StatusCode, Message: "response violates contract", Cause: err}
		}
	}

	if rc.out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, rc.out); err != nil {
		return &Error{Op: rc.op, URL: endpoint, StatusCode: resp.StatusCode, Message: "invalid response body", Cause: err}
	}
	return nil
}

// statusError maps a non-2xx response to the error taxonomy.
func statusError(op, endpoint string, status int, data []byte) error {
	var body errorBody
	_ = json.Unmarshal(data, &body)

	if status == http.StatusPaymentRequired || body.Code == CodeInsufficientCredits {
		return &InsufficientCreditsError{
			Op:               op,
			Message:          body.text(),
			CreditsRemaining: body.CreditsRemaining,
		}
	}

	msg := fmt.Sprintf("HTTP status %d", status)
	if text := body.text(); text != "" {
		msg = fmt.Sprintf("%s: %s", msg, text)
	}
	return &Error{Op: op, URL: endpoint, StatusCode: status, Message: msg}
}

// candidatePath builds /api/candidates/{id}/suffix with the id escaped.
func candidatePath(id, suffix string) string {
	p := "/api/candidates/" + url.PathEscape(id)
	if suffix != "" {
		p += "/" + suffix
	}
	return p
}

func campaignPath(id, suffix string) string {
	p := "/api/campaigns/" + url.PathEscape(id)
	if suffix != "" {
		p += "/" + suffix
	}
	return p
}

func requireID(op, id string) error {
	if strings.TrimSpace(id) == "" {
		return &Error{Op: op, Message: "id is required"}
	}
	return nil
}
