package jsonrpc

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	json2 "github.com/gorilla/rpc/v2/json2"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	ethconnector "github.com/branched-services/go-ethconnector"
)

// JSON-RPC methods used by the client.
const (
	methodQuery     = "query"
	methodBroadcast = "broadcast_tx_commit"
)

// defaultRetryInterval is the first backoff delay.
const defaultRetryInterval = 200 * time.Millisecond

// Client submits contract requests to a JSON-RPC endpoint.
// It is safe for concurrent use.
type Client struct {
	cfg           Config
	http          *http.Client
	signer        Signer
	logger        *zap.Logger
	limiter       *rate.Limiter
	metrics       *metrics
	retryInterval time.Duration
}

var _ ethconnector.Transport = (*Client)(nil)

// Option configures a Client.
type Option func(*clientOptions)

type clientOptions struct {
	signer        Signer
	logger        *zap.Logger
	httpClient    *http.Client
	registerer    prometheus.Registerer
	retryInterval time.Duration
}

// WithSigner sets the signer used for calls. Without one, Call fails with ErrNoSigner.
func WithSigner(s Signer) Option {
	return func(o *clientOptions) { o.signer = s }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *clientOptions) { o.logger = l }
}

// WithHTTPClient sets the HTTP client. Config.Timeout is not applied to it.
func WithHTTPClient(c *http.Client) Option {
	return func(o *clientOptions) { o.httpClient = c }
}

// WithRegisterer registers the client metrics on reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *clientOptions) { o.registerer = reg }
}

// WithRetryInterval sets the initial retry backoff delay.
func WithRetryInterval(d time.Duration) Option {
	return func(o *clientOptions) { o.retryInterval = d }
}

// New creates a Client for cfg.
func New(cfg Config, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := &clientOptions{
		retryInterval: defaultRetryInterval,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	if o.httpClient == nil {
		o.httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	m, err := newMetrics(o.registerer)
	if err != nil {
		return nil, fmt.Errorf("jsonrpc: register metrics: %w", err)
	}

	c := &Client{
		cfg:           cfg,
		http:          o.httpClient,
		signer:        o.signer,
		logger:        o.logger,
		metrics:       m,
		retryInterval: o.retryInterval,
	}
	if cfg.RateLimit > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.Burst)
	}
	return c, nil
}

// queryParams is the call_function query request.
type queryParams struct {
	RequestType string `json:"request_type"`
	Finality    string `json:"finality"`
	AccountID   string `json:"account_id"`
	MethodName  string `json:"method_name"`
	ArgsBase64  string `json:"args_base64"`
}

// queryResult is the call_function query response. A contract panic is
// reported in Error instead of a JSON-RPC error.
type queryResult struct {
	Result      []int    `json:"result"`
	Logs        []string `json:"logs"`
	BlockHeight uint64   `json:"block_height"`
	BlockHash   string   `json:"block_hash"`
	Error       string   `json:"error"`
}

// View implements ethconnector.Transport.
func (c *Client) View(ctx context.Context, inv ethconnector.Invocation) ([]byte, error) {
	start := time.Now()
	params := queryParams{
		RequestType: "call_function",
		Finality:    c.cfg.Finality,
		AccountID:   inv.Target.String(),
		MethodName:  inv.Method,
		ArgsBase64:  base64.StdEncoding.EncodeToString(inv.Args),
	}

	var res queryResult
	err := c.do(ctx, methodQuery, inv, params, &res)
	if err == nil && res.Error != "" {
		err = &ViewError{Method: inv.Method, Message: res.Error}
	}

	var out []byte
	if err == nil {
		out, err = resultBytes(res.Result)
	}
	c.finish(inv, err, time.Since(start))
	return out, err
}

// resultBytes converts the JSON number array of a query result to bytes.
func resultBytes(values []int) ([]byte, error) {
	out := make([]byte, len(values))
	for i, v := range values {
		if v < 0 || v > 255 {
			return nil, fmt.Errorf("%w: result byte %d out of range", ErrMalformedResult, v)
		}
		out[i] = byte(v)
	}
	return out, nil
}

// executionOutcome is the part of a final execution outcome the client reads.
type executionOutcome struct {
	Status json.RawMessage `json:"status"`
}

// Call implements ethconnector.Transport.
func (c *Client) Call(ctx context.Context, inv ethconnector.Invocation) ([]byte, error) {
	if c.signer == nil {
		return nil, ErrNoSigner
	}
	signed, err := c.signer.SignFunctionCall(ctx, inv)
	if err != nil {
		return nil, fmt.Errorf("jsonrpc: sign %q: %w", inv.Method, err)
	}

	start := time.Now()
	var outcome executionOutcome
	err = c.do(ctx, methodBroadcast, inv, []string{base64.StdEncoding.EncodeToString(signed)}, &outcome)

	var out []byte
	if err == nil {
		out, err = successValue(inv.Method, outcome.Status)
	}
	c.finish(inv, err, time.Since(start))
	return out, err
}

// successValue extracts the decoded SuccessValue of a final status.
func successValue(method string, status json.RawMessage) ([]byte, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(status, &fields); err != nil {
		return nil, fmt.Errorf("%w: status %s", ErrMalformedResult, string(status))
	}
	if failure, ok := fields["Failure"]; ok {
		return nil, &ExecutionError{Method: method, Failure: failure}
	}
	raw, ok := fields["SuccessValue"]
	if !ok {
		return nil, fmt.Errorf("%w: status %s", ErrMalformedResult, string(status))
	}

	var encoded string
	if err := json.Unmarshal(raw, &encoded); err != nil {
		return nil, fmt.Errorf("%w: SuccessValue: %v", ErrMalformedResult, err)
	}
	value, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: SuccessValue: %v", ErrMalformedResult, err)
	}
	return value, nil
}

// do sends one JSON-RPC request, retrying transient failures.
func (c *Client) do(ctx context.Context, rpcMethod string, inv ethconnector.Invocation, params, reply any) error {
	body, err := json2.EncodeClientRequest(rpcMethod, params)
	if err != nil {
		return fmt.Errorf("jsonrpc: encode %s request: %w", rpcMethod, err)
	}

	attempt := 0
	op := func() error {
		attempt++
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return backoff.Permanent(err)
			}
		}
		return c.post(ctx, rpcMethod, body, reply)
	}
	notify := func(err error, wait time.Duration) {
		c.logger.Warn("rpc attempt failed, retrying",
			zap.String("rpc_method", rpcMethod),
			zap.String("method", inv.Method),
			zap.Int("attempt", attempt),
			zap.Duration("wait", wait),
			zap.Error(err))
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.retryInterval
	return backoff.RetryNotify(op,
		backoff.WithContext(backoff.WithMaxRetries(policy, uint64(c.cfg.MaxRetries)), ctx),
		notify)
}

// post performs one HTTP attempt. Errors worth retrying are returned as is;
// everything else is wrapped with backoff.Permanent.
func (c *Client) post(ctx context.Context, rpcMethod string, body []byte, reply any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return backoff.Permanent(fmt.Errorf("jsonrpc: create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return backoff.Permanent(ctxErr)
		}
		return fmt.Errorf("jsonrpc: issue request: %w", err)
	}
	defer cleanlyCloseBody(resp.Body)

	if resp.StatusCode >= http.StatusInternalServerError {
		return &StatusError{StatusCode: resp.StatusCode}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return backoff.Permanent(&StatusError{StatusCode: resp.StatusCode})
	}

	if err := json2.DecodeClientResponse(resp.Body, reply); err != nil {
		var rpcErr *json2.Error
		if errors.As(err, &rpcErr) {
			return backoff.Permanent(&RPCError{
				Method:  rpcMethod,
				Code:    int(rpcErr.Code),
				Message: rpcErr.Message,
				Data:    rpcErr.Data,
			})
		}
		return backoff.Permanent(fmt.Errorf("%w: %v", ErrMalformedResult, err))
	}
	return nil
}

// finish records metrics and logs the outcome of a request.
func (c *Client) finish(inv ethconnector.Invocation, err error, elapsed time.Duration) {
	c.metrics.observe(inv, err, elapsed)
	if err != nil {
		c.logger.Debug("request failed",
			zap.String("method", inv.Method),
			zap.Stringer("kind", inv.Kind),
			zap.Error(err))
		return
	}
	c.logger.Debug("request succeeded",
		zap.String("method", inv.Method),
		zap.Stringer("kind", inv.Kind),
		zap.Duration("elapsed", elapsed))
}

// cleanlyCloseBody drains and closes a response body so the connection can be reused.
func cleanlyCloseBody(body io.ReadCloser) {
	if body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, body)
	_ = body.Close()
}
