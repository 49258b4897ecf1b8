package feishu

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/yugasun/Feishu-MCP/internal/core/domain"
	"github.com/yugasun/Feishu-MCP/internal/core/ports/driven"
)

// DefaultBaseURL is the Feishu OpenAPI base. Lark (international)
// deployments override it with https://open.larksuite.com/open-apis.
const DefaultBaseURL = "https://open.feishu.cn/open-apis"

const requestTimeout = 30 * time.Second

// Feishu allows considerably more, but staying below the documented
// per-app QPS avoids tripping the platform's frequency control.
const (
	requestsPerSecond = 10.0
	burstSize         = 20
)

// Ensure Client implements the interfaces.
var (
	_ driven.PlatformCaller   = (*Client)(nil)
	_ driven.PermissionReader = (*Client)(nil)
)

// Client is the low-level Feishu OpenAPI transport shared by the
// gateway and the credential providers.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient creates a client for the given API base URL.
// An empty baseURL selects DefaultBaseURL.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: requestTimeout},
		limiter:    rate.NewLimiter(rate.Limit(requestsPerSecond), burstSize),
	}
}

// BaseURL returns the configured API base.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// envelope is Feishu's uniform response wrapper.
type envelope struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

// Do issues a bearer-authenticated request and unwraps the envelope.
// Network failures, 5xx and malformed bodies come back as
// *domain.TransientError; a non-zero envelope code as
// *domain.RemoteError.
func (c *Client) Do(ctx context.Context, token, method, endpoint string, payload any) (json.RawMessage, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &domain.TransientError{Op: "rate limit", Err: err}
	}

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("%w: marshal payload: %v", domain.ErrInvalidInput, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", domain.ErrInvalidInput, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Includes timeouts: the network layer is the only
		// interruption mechanism and it maps to transient.
		return nil, &domain.TransientError{Op: "platform request", Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &domain.TransientError{Op: "read response", Err: err}
	}
	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, &domain.TransientError{
			Op:  "platform request",
			Err: fmt.Errorf("http %d: %s", resp.StatusCode, truncate(raw)),
		}
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, &domain.TransientError{Op: "decode envelope", Err: err}
	}
	if env.Code != 0 {
		return nil, &domain.RemoteError{StatusCode: resp.StatusCode, Code: env.Code, Msg: env.Msg}
	}
	return env.Data, nil
}

// postJSON posts an unauthenticated JSON body to a token endpoint and
// decodes the full response into out. Token endpoints put their status
// fields at the top level rather than inside the envelope, so callers
// inspect out themselves. Responses below 500 are decoded even on
// non-2xx statuses; Feishu returns OAuth grant errors with HTTP 400.
func (c *Client) postJSON(ctx context.Context, endpoint string, body, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return &domain.TransientError{Op: "rate limit", Err: err}
	}

	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("%w: marshal body: %v", domain.ErrInvalidInput, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("%w: build request: %v", domain.ErrInvalidInput, err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &domain.TransientError{Op: "token request", Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &domain.TransientError{Op: "read token response", Err: err}
	}
	if resp.StatusCode >= http.StatusInternalServerError {
		return &domain.TransientError{
			Op:  "token request",
			Err: fmt.Errorf("http %d: %s", resp.StatusCode, truncate(raw)),
		}
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return &domain.TransientError{Op: "decode token response", Err: err}
	}
	return nil
}

func truncate(b []byte) string {
	const max = 256
	if len(b) > max {
		return string(b[:max]) + "..."
	}
	return string(b)
}
