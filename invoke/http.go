package invoke

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/BaSui01/agentpipe/internal/tlsutil"
	"github.com/BaSui01/agentpipe/types"
)

// Config holds the configuration for the HTTP invoker.
type Config struct {
	// BaseURL is the base URL of the agent backend (e.g. "http://localhost:8000").
	BaseURL string

	// APIKey is an optional bearer token for the backend.
	APIKey string

	// EndpointPath is the chat endpoint path. Defaults to "/api/chat".
	EndpointPath string

	// Timeout is the HTTP client timeout. Defaults to 60s if zero.
	Timeout time.Duration

	// Cooldown is the minimum interval between consecutive invocations.
	// Zero disables throttling.
	Cooldown time.Duration

	// BuildHeaders optionally sets custom headers on each request. If nil,
	// Content-Type plus an Authorization bearer header (when APIKey is
	// set) are used.
	BuildHeaders func(req *http.Request, apiKey string)
}

// HTTPInvoker calls the agent backend over HTTP. It is safe for use from
// one run at a time; the engine serializes invocations by construction.
type HTTPInvoker struct {
	cfg     Config
	client  *http.Client
	limiter *rate.Limiter
	logger  *zap.Logger
}

// NewHTTPInvoker creates an HTTP invoker with the given config.
func NewHTTPInvoker(cfg Config, logger *zap.Logger) *HTTPInvoker {
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.EndpointPath == "" {
		cfg.EndpointPath = "/api/chat"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	inv := &HTTPInvoker{
		cfg:    cfg,
		client: tlsutil.SecureHTTPClient(cfg.Timeout),
		logger: logger.With(zap.String("component", "http_invoker")),
	}
	if cfg.Cooldown > 0 {
		inv.limiter = rate.NewLimiter(rate.Every(cfg.Cooldown), 1)
	}
	return inv
}

// Name returns the invoker identifier.
func (i *HTTPInvoker) Name() string { return "http" }

// endpoint builds the full URL for the chat endpoint.
func (i *HTTPInvoker) endpoint() string {
	return strings.TrimRight(i.cfg.BaseURL, "/") + i.cfg.EndpointPath
}

// buildHeaders applies headers to the HTTP request.
func (i *HTTPInvoker) buildHeaders(req *http.Request) {
	if i.cfg.BuildHeaders != nil {
		i.cfg.BuildHeaders(req, i.cfg.APIKey)
		return
	}
	req.Header.Set("Content-Type", "application/json")
	if i.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+i.cfg.APIKey)
	}
}

// Invoke posts the request to the backend chat endpoint and decodes the
// response. Transport failures and non-2xx statuses become structured
// errors; a decoded Response with Success=false is returned as-is for the
// caller to surface.
func (i *HTTPInvoker) Invoke(ctx context.Context, req *Request) (*Response, error) {
	if i.limiter != nil {
		if err := i.limiter.Wait(ctx); err != nil {
			return nil, types.NewError(types.ErrCanceled, "invocation canceled while throttled").WithCause(err)
		}
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, i.endpoint(), bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	i.buildHeaders(httpReq)

	start := time.Now()
	resp, err := i.client.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, types.NewError(types.ErrTimeout, "agent backend call timed out or was canceled").WithCause(err)
		}
		return nil, types.NewError(types.ErrInvokeFailed, "agent backend unreachable").
			WithCause(err).WithRetryable(true)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		msg := readErrorMessage(resp.Body)
		return nil, mapHTTPError(resp.StatusCode, msg)
	}

	var out Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, types.NewError(types.ErrInvokeFailed, "malformed backend response").
			WithCause(err).WithRetryable(true)
	}

	i.logger.Debug("agent invocation completed",
		zap.Strings("agents", req.AgentIDs),
		zap.String("model", req.Model),
		zap.Bool("success", out.Success),
		zap.Duration("duration", time.Since(start)),
	)
	return &out, nil
}

// mapHTTPError maps an HTTP status to a structured invocation error.
func mapHTTPError(status int, msg string) *types.Error {
	if msg == "" {
		msg = http.StatusText(status)
	}
	switch {
	case status == http.StatusTooManyRequests:
		return types.NewError(types.ErrInvokeRejected,
			fmt.Sprintf("backend rate limited the request: %s", msg)).WithRetryable(true)
	case status == http.StatusGatewayTimeout:
		return types.NewError(types.ErrTimeout,
			fmt.Sprintf("backend timed out: %s", msg)).WithRetryable(true)
	case status >= 500:
		return types.NewError(types.ErrInvokeFailed,
			fmt.Sprintf("backend error (status %d): %s", status, msg)).WithRetryable(true)
	default:
		return types.NewError(types.ErrInvokeRejected,
			fmt.Sprintf("backend rejected the request (status %d): %s", status, msg))
	}
}

// readErrorMessage extracts a human-readable message from an error body.
func readErrorMessage(body io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(body, 4096))
	if err != nil {
		return ""
	}
	var payload struct {
		Error   string `json:"error"`
		Detail  string `json:"detail"`
		Message string `json:"message"`
	}
	if json.Unmarshal(data, &payload) == nil {
		switch {
		case payload.Error != "":
			return payload.Error
		case payload.Detail != "":
			return payload.Detail
		case payload.Message != "":
			return payload.Message
		}
	}
	return strings.TrimSpace(string(data))
}
