package api

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aman-zulfiqar/hive-engine-go/internal/constants"
	"github.com/aman-zulfiqar/hive-engine-go/internal/history"
	"github.com/aman-zulfiqar/hive-engine-go/internal/metrics"
	"github.com/aman-zulfiqar/hive-engine-go/internal/models"
	"github.com/aman-zulfiqar/hive-engine-go/internal/rpc"
	"github.com/aman-zulfiqar/hive-engine-go/internal/storage"
	"github.com/sirupsen/logrus"
)

// Query is a contract table filter in the node's query language
type Query map[string]any

// Index orders a find over an indexed field
type Index struct {
	Index      string `json:"index"`
	Descending bool   `json:"descending"`
}

// FindOptions pages a find call. A zero Limit means one full page.
type FindOptions struct {
	Limit   int
	Offset  int
	Indexes []Index
}

// Client is the read API of the sidechain node
type Client struct {
	rpc          *rpc.Client
	history      *history.Client
	maxRetries   int
	retryBackoff time.Duration
	cache        storage.QueryCache
	cacheTTL     time.Duration
	logger       *logrus.Logger
	metrics      *metrics.Metrics
}

// Config holds the collaborators of the query client
type Config struct {
	RPC     *rpc.Client
	History *history.Client
	// MaxRetries bounds how often a retryable transport error is retried.
	// Zero surfaces retryable errors on the first failure.
	MaxRetries   int
	RetryBackoff time.Duration
	Cache        storage.QueryCache
	CacheTTL     time.Duration
	Logger       *logrus.Logger
	Metrics      *metrics.Metrics
}

// NewClient creates a query client; missing collaborators get defaults
func NewClient(cfg Config) *Client {
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	if cfg.RPC == nil {
		cfg.RPC = rpc.NewClient(rpc.ClientConfig{Logger: cfg.Logger, Metrics: cfg.Metrics})
	}
	if cfg.History == nil {
		cfg.History = history.NewClient(history.Config{Logger: cfg.Logger, Metrics: cfg.Metrics})
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = time.Second
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = constants.DefaultCacheTTL
	}

	return &Client{
		rpc:          cfg.RPC,
		history:      cfg.History,
		maxRetries:   cfg.MaxRetries,
		retryBackoff: cfg.RetryBackoff,
		cache:        cfg.Cache,
		cacheTTL:     cfg.CacheTTL,
		logger:       cfg.Logger,
		metrics:      cfg.Metrics,
	}
}

// Logger returns the logger shared with components built on this client
func (c *Client) Logger() *logrus.Logger {
	return c.logger
}

// Metrics returns the metrics shared with components built on this client
func (c *Client) Metrics() *metrics.Metrics {
	return c.metrics
}

// GetLatestBlockInfo returns the newest sidechain block
func (c *Client) GetLatestBlockInfo(ctx context.Context) (json.RawMessage, error) {
	return c.callUnwrapped(ctx, rpc.EndpointBlockchain, "getLatestBlockInfo", nil)
}

// GetStatus returns the node status
func (c *Client) GetStatus(ctx context.Context) (json.RawMessage, error) {
	return c.callUnwrapped(ctx, rpc.EndpointBlockchain, "getStatus", nil)
}

// GetBlockInfo returns the block with the given number
func (c *Client) GetBlockInfo(ctx context.Context, blockNumber int64) (json.RawMessage, error) {
	return c.callUnwrapped(ctx, rpc.EndpointBlockchain, "getBlockInfo", map[string]any{"blockNumber": blockNumber})
}

// GetTransactionInfo returns a sidechain transaction by id
func (c *Client) GetTransactionInfo(ctx context.Context, txid string) (json.RawMessage, error) {
	return c.callUnwrapped(ctx, rpc.EndpointBlockchain, "getTransactionInfo", map[string]any{"txid": txid})
}

// GetContract returns the contract definition, served from the cache when
// one is configured
func (c *Client) GetContract(ctx context.Context, name string) (json.RawMessage, error) {
	key := "contract:" + name
	if cached, ok := c.cacheGet(ctx, key); ok {
		return cached, nil
	}
	res, err := c.callUnwrapped(ctx, rpc.EndpointContracts, "getContract", map[string]any{"name": name})
	if err != nil {
		return nil, err
	}
	c.cacheSet(ctx, key, res)
	return res, nil
}

// FindOne returns the first row of contract.table matching query
func (c *Client) FindOne(ctx context.Context, contract, table string, query Query) (json.RawMessage, error) {
	return c.callUnwrapped(ctx, rpc.EndpointContracts, "findOne", findParams(contract, table, query, nil))
}

// Find returns one page of rows of contract.table matching query
func (c *Client) Find(ctx context.Context, contract, table string, query Query, opts FindOptions) (json.RawMessage, error) {
	return c.callUnwrapped(ctx, rpc.EndpointContracts, "find", findParams(contract, table, query, &opts))
}

// FindAll pages through every row of contract.table matching query. Listings
// of the tables in constants.CachedTables are served from the cache.
func (c *Client) FindAll(ctx context.Context, contract, table string, query Query) ([]json.RawMessage, error) {
	return c.findAll(ctx, contract, table, query, true)
}

// FindAllFresh is FindAll always read from the node. A cacheable listing
// still replaces the cached copy.
func (c *Client) FindAllFresh(ctx context.Context, contract, table string, query Query) ([]json.RawMessage, error) {
	return c.findAll(ctx, contract, table, query, false)
}

func (c *Client) findAll(ctx context.Context, contract, table string, query Query, readCache bool) ([]json.RawMessage, error) {
	cacheable := constants.CachedTables[contract+"."+table]
	var key string
	if cacheable {
		q, _ := json.Marshal(query)
		key = "find:" + contract + ":" + table + ":" + string(q)
	}
	if cacheable && readCache {
		if cached, ok := c.cacheGet(ctx, key); ok {
			var rows []json.RawMessage
			if err := json.Unmarshal(cached, &rows); err == nil {
				return rows, nil
			}
		}
	}

	var out []json.RawMessage
	for offset := 0; ; offset += constants.FindPageSize {
		opts := FindOptions{Limit: constants.FindPageSize, Offset: offset}
		res, err := c.call(ctx, rpc.EndpointContracts, "find", findParams(contract, table, query, &opts))
		if err != nil {
			return nil, err
		}
		page, err := pageRows(res)
		if err != nil {
			return nil, fmt.Errorf("find %s.%s: %w", contract, table, err)
		}
		out = append(out, page...)
		if len(page) < constants.FindPageSize {
			break
		}
	}

	if cacheable {
		if data, err := json.Marshal(out); err == nil {
			c.cacheSet(ctx, key, data)
		}
	}
	return out, nil
}

// GetHistory returns one page of the account's history for symbol from the
// history service
func (c *Client) GetHistory(ctx context.Context, account, symbol string, limit, offset int) (json.RawMessage, error) {
	return c.history.GetRaw(ctx, history.Query{Account: account, Symbol: symbol, Limit: limit, Offset: offset})
}

// GetHistoryEntries is GetHistory decoded into entries
func (c *Client) GetHistoryEntries(ctx context.Context, account, symbol string, limit, offset int) ([]models.HistoryEntry, error) {
	return c.history.Get(ctx, history.Query{Account: account, Symbol: symbol, Limit: limit, Offset: offset})
}

// LatestBlock is GetLatestBlockInfo decoded
func (c *Client) LatestBlock(ctx context.Context) (*models.Block, error) {
	raw, err := c.GetLatestBlockInfo(ctx)
	if err != nil {
		return nil, err
	}
	return decodeBlock(raw)
}

// Block is GetBlockInfo decoded; it returns nil when the block does not exist yet
func (c *Client) Block(ctx context.Context, blockNumber int64) (*models.Block, error) {
	raw, err := c.GetBlockInfo(ctx, blockNumber)
	if err != nil {
		return nil, err
	}
	return decodeBlock(raw)
}

// Status is GetStatus decoded
func (c *Client) Status(ctx context.Context) (*models.Status, error) {
	raw, err := c.GetStatus(ctx)
	if err != nil {
		return nil, err
	}
	var st models.Status
	found, err := DecodeOne(raw, &st)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("node returned no status")
	}
	return &st, nil
}

func decodeBlock(raw json.RawMessage) (*models.Block, error) {
	var b models.Block
	found, err := DecodeOne(raw, &b)
	if err != nil || !found {
		return nil, err
	}
	return &b, nil
}

func (c *Client) callUnwrapped(ctx context.Context, endpoint rpc.Endpoint, method string, params any) (json.RawMessage, error) {
	res, err := c.call(ctx, endpoint, method, params)
	if err != nil {
		return nil, err
	}
	return UnwrapSingle(res), nil
}

// call performs one transport call, retrying retryable failures with
// exponential backoff
func (c *Client) call(ctx context.Context, endpoint rpc.Endpoint, method string, params any) (json.RawMessage, error) {
	var lastErr error
	backoff := c.retryBackoff

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			c.logger.WithFields(logrus.Fields{
				"attempt": attempt,
				"backoff": backoff,
				"method":  method,
			}).Debug("retrying RPC call")

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}

		res, err := c.rpc.Call(ctx, endpoint, method, params)
		if err == nil {
			return res, nil
		}
		if !rpc.IsRetryable(err) {
			return nil, err
		}
		lastErr = err
	}

	if c.maxRetries == 0 {
		return nil, lastErr
	}
	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}

func (c *Client) cacheGet(ctx context.Context, key string) (json.RawMessage, bool) {
	if c.cache == nil {
		return nil, false
	}
	val, ok, err := c.cache.Get(ctx, key)
	if err != nil {
		c.logger.WithError(err).WithField("key", key).Warn("query cache read failed")
		return nil, false
	}
	c.metrics.ObserveCache(ok)
	return val, ok
}

func (c *Client) cacheSet(ctx context.Context, key string, value []byte) {
	if c.cache == nil {
		return
	}
	if err := c.cache.Set(ctx, key, value, c.cacheTTL); err != nil {
		c.logger.WithError(err).WithField("key", key).Warn("query cache write failed")
	}
}

func findParams(contract, table string, query Query, opts *FindOptions) map[string]any {
	if query == nil {
		query = Query{}
	}
	params := map[string]any{
		"contract": contract,
		"table":    table,
		"query":    query,
	}
	if opts == nil {
		return params
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = constants.FindPageSize
	}
	indexes := opts.Indexes
	if indexes == nil {
		indexes = []Index{}
	}
	params["limit"] = limit
	params["offset"] = opts.Offset
	params["indexes"] = indexes
	return params
}
