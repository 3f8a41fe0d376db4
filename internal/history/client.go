package history

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/aman-zulfiqar/hive-engine-go/internal/metrics"
	"github.com/aman-zulfiqar/hive-engine-go/internal/models"
	"github.com/sirupsen/logrus"
)

const (
	DefaultBaseURL    = "https://history.hive-engine.com"
	DefaultMaxRetries = 10
)

// Client reads the account history service. It speaks plain HTTP GET, not
// JSON-RPC.
type Client struct {
	BaseURL    string
	MaxRetries int
	HTTP       *http.Client
	Logger     *logrus.Logger
	Metrics    *metrics.Metrics
}

type Config struct {
	BaseURL    string
	MaxRetries int
	Timeout    time.Duration
	Logger     *logrus.Logger
	Metrics    *metrics.Metrics
}

func NewClient(cfg Config) *Client {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	return &Client{
		BaseURL:    baseURL,
		MaxRetries: cfg.MaxRetries,
		HTTP:       &http.Client{Timeout: cfg.Timeout},
		Logger:     cfg.Logger,
		Metrics:    cfg.Metrics,
	}
}

type HTTPError struct {
	StatusCode int
	Body       []byte
}

func (e *HTTPError) Error() string {
	b := strings.TrimSpace(string(e.Body))
	if b == "" {
		return fmt.Sprintf("history http %d", e.StatusCode)
	}
	return fmt.Sprintf("history http %d: %s", e.StatusCode, b)
}

// Query selects a page of an account's history for one token
type Query struct {
	Account string
	Symbol  string
	Limit   int
	Offset  int
}

// GetRaw fetches one page of history. Non-200 answers are retried
// immediately up to MaxRetries times; the body of the last answer is parsed
// whatever its status. An HTTPError is returned only when that body is not
// JSON.
func (c *Client) GetRaw(ctx context.Context, q Query) (json.RawMessage, error) {
	if strings.TrimSpace(q.Account) == "" {
		return nil, fmt.Errorf("account is required")
	}
	if q.Limit <= 0 {
		q.Limit = 1000
	}

	v := url.Values{}
	v.Set("account", q.Account)
	v.Set("limit", strconv.Itoa(q.Limit))
	v.Set("offset", strconv.Itoa(q.Offset))
	v.Set("symbol", q.Symbol)
	u := c.BaseURL + "/accountHistory?" + v.Encode()

	var (
		status int
		body   []byte
	)
	for attempt := 0; attempt <= c.MaxRetries; attempt++ {
		var err error
		status, body, err = c.get(ctx, u)
		if err != nil {
			c.Metrics.ObserveHistory("error")
			return nil, err
		}
		if status == http.StatusOK {
			c.Metrics.ObserveHistory("ok")
			break
		}
		c.Metrics.ObserveHistory("retry")
		c.Logger.WithFields(logrus.Fields{
			"attempt": attempt + 1,
			"status":  status,
			"account": q.Account,
		}).Warn("history request failed")
	}

	if !json.Valid(body) {
		return nil, &HTTPError{StatusCode: status, Body: body}
	}
	return json.RawMessage(body), nil
}

// Get fetches one page of history decoded into entries
func (c *Client) Get(ctx context.Context, q Query) ([]models.HistoryEntry, error) {
	raw, err := c.GetRaw(ctx, q)
	if err != nil {
		return nil, err
	}
	var out []models.HistoryEntry
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("failed to decode history response: %w", err)
	}
	return out, nil
}

func (c *Client) get(ctx context.Context, u string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("accept", "application/json")

	res, err := c.HTTP.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to read history response: %w", err)
	}
	return res.StatusCode, body, nil
}
