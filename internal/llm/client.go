// Package llm provides an OpenAI-compatible client for chat completions that
// can also route requests through an injected host bridge.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
)

// DefaultBridgePrefix marks model ids served by the host bridge.
const DefaultBridgePrefix = "puter/"

// Request is one completion call.
type Request struct {
	Endpoint string
	Messages []Message
	Config   ModelConfig
	APIKey   string
	Headers  map[string]string
}

// backend is the closed set of completion transports: directHTTP and hostBridge.
type backend interface {
	complete(ctx context.Context, req Request) (*ChatCompletionResponse, error)
	stream(ctx context.Context, req Request) (*Stream, error)
}

// Client sends chat completions over HTTP or through a host bridge.
type Client struct {
	HTTPClient   *http.Client
	BridgePrefix string

	bridge Bridge
	logger *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBridge injects the host bridge.
func WithBridge(b Bridge) Option {
	return func(c *Client) { c.bridge = b }
}

// WithBridgePrefix overrides the model prefix routed to the bridge.
func WithBridgePrefix(prefix string) Option {
	return func(c *Client) { c.BridgePrefix = prefix }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.HTTPClient = h }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient creates a Client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		HTTPClient:   http.DefaultClient,
		BridgePrefix: DefaultBridgePrefix,
		logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// IsBridgeModel reports whether model is routed to the host bridge.
func (c *Client) IsBridgeModel(model string) bool {
	return c.BridgePrefix != "" && strings.HasPrefix(model, c.BridgePrefix)
}

func (c *Client) backendFor(model string) (backend, error) {
	if !c.IsBridgeModel(model) {
		return directHTTP{client: c.HTTPClient, logger: c.logger}, nil
	}
	if c.bridge == nil {
		return nil, fmt.Errorf("model %q: %w", model, ErrNoBridge)
	}
	return hostBridge{bridge: c.bridge, logger: c.logger}, nil
}

// Complete sends a non-streaming chat completion request.
func (c *Client) Complete(ctx context.Context, req Request) (*ChatCompletionResponse, error) {
	b, err := c.backendFor(req.Config.Model)
	if err != nil {
		return nil, err
	}
	return b.complete(ctx, req)
}

// CompleteStream sends a streaming chat completion request. The caller owns
// the returned stream and must cancel it.
func (c *Client) CompleteStream(ctx context.Context, req Request) (*Stream, error) {
	b, err := c.backendFor(req.Config.Model)
	if err != nil {
		return nil, err
	}
	return b.stream(ctx, req)
}

type directHTTP struct {
	client *http.Client
	logger *slog.Logger
}

func (d directHTTP) complete(ctx context.Context, req Request) (*ChatCompletionResponse, error) {
	resp, err := d.post(ctx, req, false)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var result ChatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &result, nil
}

func (d directHTTP) stream(ctx context.Context, req Request) (*Stream, error) {
	resp, err := d.post(ctx, req, true)
	if err != nil {
		return nil, err
	}
	return NewStream(resp.Body), nil
}

func (d directHTTP) post(ctx context.Context, req Request, stream bool) (*http.Response, error) {
	body, err := json.Marshal(newChatCompletionRequest(req.Messages, req.Config, stream))
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	endpoint := strings.TrimSpace(req.Endpoint)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	setHeaders(httpReq, req)

	d.logger.Debug("chat completion request", "endpoint", endpoint, "model", req.Config.Model, "stream", stream, "messages", len(req.Messages))
	resp, err := d.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		respBody, _ := io.ReadAll(resp.Body)
		return nil, newAPIError(resp, respBody)
	}
	return resp, nil
}

func setHeaders(httpReq *http.Request, req Request) {
	httpReq.Header.Set("Content-Type", "application/json")
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}
	if req.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.APIKey)
	}
}
