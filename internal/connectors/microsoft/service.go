package microsoft

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/o365-cli/internal/core/domain"
	"github.com/custodia-labs/o365-cli/internal/core/ports/driven"
	"github.com/custodia-labs/o365-cli/internal/logger"
)

// Microsoft Graph resource used as token audience.
const GraphResource = "https://graph.microsoft.com"

// maxResponseSize caps response bodies read into memory (10MB).
const maxResponseSize = 10 * 1024 * 1024

// HeaderClientRequestID correlates a request with server-side logs.
const HeaderClientRequestID = "client-request-id"

// StatusError reports a non-success HTTP response.
type StatusError struct {
	StatusCode int
	// Message is the service error message when the body carried one.
	Message   string
	RequestID string
	Err       error
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("request failed with status %d", e.StatusCode)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return fmt.Sprintf("%s: %v", msg, e.Err)
}

func (e *StatusError) Unwrap() error {
	return e.Err
}

// Client sends authenticated requests to one Microsoft 365 service.
type Client struct {
	resource    string
	tokens      driven.TokenProvider
	rateLimiter *RateLimiter
	httpClient  *http.Client
}

// NewClient creates a client for resource. A nil httpClient uses a 30 second timeout.
func NewClient(
	resource string,
	tokens driven.TokenProvider,
	rateLimiter *RateLimiter,
	httpClient *http.Client,
) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if rateLimiter == nil {
		rateLimiter = NewRateLimiter(ServiceGraph)
	}
	return &Client{
		resource:    resource,
		tokens:      tokens,
		rateLimiter: rateLimiter,
		httpClient:  httpClient,
	}
}

// Resource returns the token audience of the client.
func (c *Client) Resource() string {
	return c.resource
}

// Token returns an access token for the client's resource.
func (c *Client) Token(ctx context.Context) (string, error) {
	if c.tokens == nil {
		return "", &domain.AuthError{Resource: c.resource, Err: domain.ErrNotConnected}
	}
	token, err := c.tokens.GetToken(ctx, c.resource)
	if err != nil {
		var authErr *domain.AuthError
		if errors.As(err, &authErr) {
			return "", err
		}
		return "", &domain.AuthError{Resource: c.resource, Err: err}
	}
	return token, nil
}

// Send waits for the rate limiter, sends req and returns the response body.
// Non-2xx responses are returned as *StatusError. Throttling responses record
// Retry-After but are not retried.
func (c *Client) Send(req *http.Request) ([]byte, error) {
	if err := c.rateLimiter.Wait(req.Context()); err != nil {
		return nil, err
	}

	requestID := req.Header.Get(HeaderClientRequestID)
	if requestID == "" {
		requestID = uuid.New().String()
		req.Header.Set(HeaderClientRequestID, requestID)
	}

	logger.Debug("%s: %s %s (request %s)", c.rateLimiter.Service(), req.Method, req.URL.Redacted(), requestID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	logger.Debug("%s: response status %d, body length %d", c.rateLimiter.Service(), resp.StatusCode, len(body))

	if IsSuccess(resp.StatusCode) {
		return body, nil
	}

	if IsRateLimited(resp.StatusCode) {
		c.rateLimiter.RecordRateLimitError(RetryAfterSeconds(resp.Header))
	}

	return nil, &StatusError{
		StatusCode: resp.StatusCode,
		Message:    ErrorMessage(body),
		RequestID:  requestID,
		Err:        WrapError(resp.StatusCode),
	}
}

// RetryAfterSeconds parses the Retry-After header. Returns 0 when absent or not a number.
func RetryAfterSeconds(h http.Header) int {
	v := strings.TrimSpace(h.Get("Retry-After"))
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// errorBody covers the error envelopes of Graph and SharePoint REST.
type errorBody struct {
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	ODataError *struct {
		Code    string `json:"code"`
		Message struct {
			Value string `json:"value"`
		} `json:"message"`
	} `json:"odata.error"`
	ErrorDescription string `json:"error_description"`
}

// ErrorMessage extracts a human readable message from an error response body.
func ErrorMessage(body []byte) string {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil {
		return ""
	}
	switch {
	case eb.Error != nil && eb.Error.Message != "":
		return eb.Error.Message
	case eb.ODataError != nil && eb.ODataError.Message.Value != "":
		return eb.ODataError.Message.Value
	default:
		return eb.ErrorDescription
	}
}
