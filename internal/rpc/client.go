package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/aman-zulfiqar/hive-engine-go/internal/metrics"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL   = "https://api.hive-engine.com/rpc/"
	DefaultTimeout   = 60 * time.Second
	DefaultUserAgent = "hive-engine-go/1.0"
)

// Client posts JSON-RPC batches to a sidechain node. Every call is a single
// attempt; retry policy belongs to the caller. A Client is safe for
// concurrent use.
type Client struct {
	httpClient *http.Client
	baseURL    string
	user       string
	password   string
	userAgent  string
	limiter    *rate.Limiter
	nextID     atomic.Int64
	logger     *logrus.Logger
	metrics    *metrics.Metrics
}

// ClientConfig holds configuration for the RPC client
type ClientConfig struct {
	BaseURL   string
	User      string
	Password  string
	UserAgent string
	Timeout   time.Duration
	// RateLimit caps outgoing requests per second; zero disables limiting.
	RateLimit float64
	Logger    *logrus.Logger
	Metrics   *metrics.Metrics
}

// NewClient creates a new RPC client
func NewClient(cfg ClientConfig) *Client {
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if !strings.HasSuffix(cfg.BaseURL, "/") {
		cfg.BaseURL += "/"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}

	c := &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		baseURL:   cfg.BaseURL,
		user:      cfg.User,
		password:  cfg.Password,
		userAgent: cfg.UserAgent,
		logger:    cfg.Logger,
		metrics:   cfg.Metrics,
	}
	if cfg.RateLimit > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), 1)
	}
	return c
}

// BaseURL returns the node URL requests are posted under
func (c *Client) BaseURL() string {
	return c.baseURL
}

// NewRequest builds a request carrying the next id of this client
func (c *Client) NewRequest(method string, params any) Request {
	if params == nil {
		params = map[string]any{}
	}
	return Request{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
		ID:      c.nextID.Add(1),
	}
}

// Call sends method as a single-element batch and returns the normalized
// result: a list response becomes a list of per-entry results, an object
// carrying "result" is unwrapped, anything else is returned as sent.
func (c *Client) Call(ctx context.Context, endpoint Endpoint, method string, params any) (json.RawMessage, error) {
	req := c.NewRequest(method, params)
	body, err := c.post(ctx, endpoint, method, []Request{req})
	if err != nil {
		return nil, err
	}
	return normalize(body)
}

// CallBatch sends several requests in one POST. Results are returned in the
// order of reqs: entries carrying an id are matched to their request, the
// rest are matched by position.
func (c *Client) CallBatch(ctx context.Context, endpoint Endpoint, reqs []Request) ([]json.RawMessage, error) {
	if len(reqs) == 0 {
		return nil, nil
	}
	label := "batch"
	if len(reqs) == 1 {
		label = reqs[0].Method
	}
	body, err := c.post(ctx, endpoint, label, reqs)
	if err != nil {
		return nil, err
	}
	return correlate(body, reqs)
}

func (c *Client) post(ctx context.Context, endpoint Endpoint, method string, reqs []Request) ([]byte, error) {
	data, err := json.Marshal(reqs)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	start := time.Now()
	body, err := c.doRequest(ctx, endpoint, data)
	outcome := "ok"
	if err != nil {
		outcome = "error"
		if IsRetryable(err) {
			outcome = "retryable"
		}
	}
	c.metrics.ObserveRPC(string(endpoint), method, outcome, time.Since(start))

	c.logger.WithFields(logrus.Fields{
		"endpoint": endpoint,
		"method":   method,
		"id":       reqs[0].ID,
		"took":     time.Since(start),
	}).Debug("rpc call")

	return body, err
}

func (c *Client) doRequest(ctx context.Context, endpoint Endpoint, data []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+string(endpoint), bytes.NewBuffer(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if c.user != "" && c.password != "" {
		req.SetBasicAuth(c.user, c.password)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, ErrUnauthorized
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	body = bytes.TrimSpace(body)
	if !json.Valid(body) {
		return nil, classifyBody(body)
	}
	return body, nil
}

// normalize applies the result-unwrapping rules to a whole response body
func normalize(body []byte) (json.RawMessage, error) {
	if len(body) > 0 && body[0] == '[' {
		var items []json.RawMessage
		if err := json.Unmarshal(body, &items); err != nil {
			return nil, fmt.Errorf("failed to unmarshal response: %w", err)
		}
		out := make([]json.RawMessage, len(items))
		for i, item := range items {
			v, err := unwrapEntry(item)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return json.Marshal(out)
	}
	return unwrapEntry(body)
}

// unwrapEntry returns the "result" of a response object, the decoded error,
// or the raw value when it is neither.
func unwrapEntry(raw json.RawMessage) (json.RawMessage, error) {
	fields, ok := asObject(raw)
	if !ok {
		return raw, nil
	}
	if e, ok := fields["error"]; ok && !isNull(e) {
		return nil, decodeError(e)
	}
	if r, ok := fields["result"]; ok {
		return r, nil
	}
	return raw, nil
}

func correlate(body []byte, reqs []Request) ([]json.RawMessage, error) {
	var items []json.RawMessage
	if len(body) > 0 && body[0] == '[' {
		if err := json.Unmarshal(body, &items); err != nil {
			return nil, fmt.Errorf("failed to unmarshal response: %w", err)
		}
	} else {
		items = []json.RawMessage{body}
	}

	index := make(map[int64]int, len(reqs))
	for i, r := range reqs {
		index[r.ID] = i
	}

	out := make([]json.RawMessage, len(reqs))
	filled := make([]bool, len(reqs))
	var unmatched []json.RawMessage
	for _, item := range items {
		v, err := unwrapEntry(item)
		if err != nil {
			return nil, err
		}
		if fields, ok := asObject(item); ok {
			var id int64
			if raw, ok := fields["id"]; ok && json.Unmarshal(raw, &id) == nil {
				if pos, ok := index[id]; ok && !filled[pos] {
					out[pos], filled[pos] = v, true
					continue
				}
			}
		}
		unmatched = append(unmatched, v)
	}

	for i := range out {
		if filled[i] {
			continue
		}
		if len(unmatched) == 0 {
			return nil, &RPCError{Message: fmt.Sprintf("no response for request %d (%s)", reqs[i].ID, reqs[i].Method)}
		}
		out[i], unmatched = unmatched[0], unmatched[1:]
	}
	return out, nil
}

func decodeError(raw json.RawMessage) error {
	var rpcErr RPCError
	if err := json.Unmarshal(raw, &rpcErr); err == nil {
		return &rpcErr
	}
	var msg string
	if err := json.Unmarshal(raw, &msg); err == nil {
		return &RPCError{Message: msg}
	}
	return &RPCError{Message: string(raw)}
}

func asObject(raw json.RawMessage) (map[string]json.RawMessage, bool) {
	if len(raw) == 0 || raw[0] != '{' {
		return nil, false
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, false
	}
	return fields, true
}

func isNull(raw json.RawMessage) bool {
	return len(bytes.TrimSpace(raw)) == 0 || string(bytes.TrimSpace(raw)) == "null"
}
