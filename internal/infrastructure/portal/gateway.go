// Package portal implements the HTTP boundary to the university information
// portal: the cookie-injecting gateway with uniform transport-failure
// shaping, and the typed endpoint client on top of it.
package portal

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/campus-hub/campus-helper/internal/domain/session"
	"github.com/campus-hub/campus-helper/internal/infrastructure/auth"
	"github.com/google/uuid"
)

// ══════════════════════════════════════════════════════════════════════════════
// GATEWAY
// ══════════════════════════════════════════════════════════════════════════════

// FailureMessage is the fixed diagnostic carried by every synthetic failure
// response, so callers have one failure shape to branch on.
const FailureMessage = "Failed to connect to Internet"

// LoginPath is the canonical login endpoint, relative to the base URL.
const LoginPath = "login"

// LoginURLFor returns the canonical login endpoint for a base URL, so the
// session store can be constructed before the gateway.
func LoginURLFor(baseURL string) string {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return baseURL + LoginPath
}

// Request describes one portal call.
type Request struct {
	// Method is the HTTP method; GET when empty.
	Method string

	// Path is relative to the configured base URL.
	Path string

	// Query is appended to the URL.
	Query url.Values

	// Form is sent urlencoded as the body (POST requests).
	Form url.Values
}

// Response is the uniform result of every gateway call. Transport failures
// are represented in-band as a synthetic 502, never as a raised error.
type Response struct {
	// StatusCode is the HTTP status, or 502 for a synthetic failure.
	StatusCode int

	// Message is the status line message; FailureMessage on synthetic
	// failures.
	Message string

	// Body is the raw response body; empty on synthetic failures.
	Body []byte

	// Cookies holds the cookies the response set.
	Cookies []session.Cookie

	// RequestURL is the full URL the request targeted.
	RequestURL string
}

// OK reports whether the response carries a usable 200 payload.
func (r *Response) OK() bool {
	return r.StatusCode == http.StatusOK
}

// IsTransportFailure reports whether the response is the synthetic 502 the
// gateway produces when no real response was obtained.
func (r *Response) IsTransportFailure() bool {
	return r.StatusCode == http.StatusBadGateway && r.Message == FailureMessage
}

// IsRedirect reports whether the portal answered with a redirect. The
// gateway never follows redirects; callers re-issue requests themselves.
func (r *Response) IsRedirect() bool {
	return r.StatusCode >= 300 && r.StatusCode < 400
}

// GatewayConfig contains configuration for the Gateway.
type GatewayConfig struct {
	// BaseURL is the portal base URL, with trailing slash.
	BaseURL string

	// Sessions is the session store consulted for cookies and fed with
	// login responses.
	Sessions *auth.Store

	// Timeout bounds one whole call; the call resolves as a synthetic
	// failure rather than hanging past it. Default 30s.
	Timeout time.Duration

	// FailureThreshold and Cooldown configure the breaker.
	FailureThreshold int
	Cooldown         time.Duration

	// Transport overrides the HTTP transport (tests).
	Transport http.RoundTripper

	// Logger for structured logging.
	Logger *slog.Logger
}

// Gateway issues portal requests: it stamps the current session cookies on
// every outgoing request, refuses to follow redirects, forwards every
// response's cookies to the session store's commit check, and converts every
// transport fault into the synthetic 502 shape.
type Gateway struct {
	baseURL  string
	client   *http.Client
	sessions *auth.Store
	breaker  *breaker
	timeout  time.Duration
	logger   *slog.Logger
}

// NewGateway creates a Gateway.
func NewGateway(config GatewayConfig) *Gateway {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}
	base := config.BaseURL
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}

	return &Gateway{
		baseURL: base,
		client: &http.Client{
			Transport: config.Transport,
			// Redirects are never followed: the login commit check
			// depends on seeing the exact login-endpoint response.
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		sessions: config.Sessions,
		breaker:  newBreaker(config.FailureThreshold, config.Cooldown),
		timeout:  config.Timeout,
		logger:   config.Logger,
	}
}

// BaseURL returns the configured base URL (with trailing slash).
func (g *Gateway) BaseURL() string {
	return g.baseURL
}

// LoginURL returns the canonical login endpoint.
func (g *Gateway) LoginURL() string {
	return g.baseURL + LoginPath
}

// Sessions returns the session store the gateway stamps cookies from.
func (g *Gateway) Sessions() *auth.Store {
	return g.sessions
}

// Send issues one portal request and always resolves to a Response; the
// underlying fault never propagates.
func (g *Gateway) Send(ctx context.Context, req Request) *Response {
	fullURL := g.buildURL(req)
	requestID := uuid.NewString()
	logger := g.logger.With("request_id", requestID, "url", fullURL)

	if err := g.breaker.allow(); err != nil {
		logger.Warn("request short-circuited", "error", err)
		return syntheticFailure(fullURL)
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	httpReq, err := g.buildRequest(ctx, req, fullURL)
	if err != nil {
		logger.Error("build request", "error", err)
		return syntheticFailure(fullURL)
	}
	httpReq.Header.Set("X-Request-ID", requestID)

	for _, c := range g.sessions.Current() {
		httpReq.AddCookie(&http.Cookie{Name: c.Name, Value: c.Value})
	}

	start := time.Now()
	httpResp, err := g.client.Do(httpReq)
	if err != nil {
		g.breaker.recordFailure()
		logger.Warn("transport failure", "error", err, "latency", time.Since(start))
		return syntheticFailure(fullURL)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		g.breaker.recordFailure()
		logger.Warn("read response body", "error", err)
		return syntheticFailure(fullURL)
	}
	g.breaker.recordSuccess()

	resp := &Response{
		StatusCode: httpResp.StatusCode,
		Message:    http.StatusText(httpResp.StatusCode),
		Body:       body,
		Cookies:    fromHTTPCookies(httpResp.Cookies()),
		RequestURL: fullURL,
	}

	// Every response passes the commit check; the store only acts on the
	// canonical login endpoint with the exact marker-cookie count.
	if _, err := g.sessions.CommitIfLogin(ctx, fullURL, resp.Cookies); err != nil {
		logger.Error("session commit", "error", err)
	}

	logger.Debug("portal response",
		"status", resp.StatusCode, "latency", time.Since(start))
	return resp
}

func (g *Gateway) buildURL(req Request) string {
	fullURL := g.baseURL + strings.TrimPrefix(req.Path, "/")
	if len(req.Query) > 0 {
		fullURL += "?" + req.Query.Encode()
	}
	return fullURL
}

func (g *Gateway) buildRequest(ctx context.Context, req Request, fullURL string) (*http.Request, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if len(req.Form) > 0 {
		body = strings.NewReader(req.Form.Encode())
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, fullURL, body)
	if err != nil {
		return nil, err
	}
	if len(req.Form) > 0 {
		httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	httpReq.Header.Set("Accept", "application/json, text/plain, */*")
	return httpReq, nil
}

func syntheticFailure(requestURL string) *Response {
	return &Response{
		StatusCode: http.StatusBadGateway,
		Message:    FailureMessage,
		Body:       []byte{},
		RequestURL: requestURL,
	}
}

func fromHTTPCookies(cookies []*http.Cookie) []session.Cookie {
	out := make([]session.Cookie, 0, len(cookies))
	for _, c := range cookies {
		out = append(out, session.Cookie{
			Name:   c.Name,
			Value:  c.Value,
			Domain: c.Domain,
			Path:   c.Path,
		})
	}
	return out
}
