package testutil

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/aman-zulfiqar/hive-engine-go/internal/api"
	"github.com/aman-zulfiqar/hive-engine-go/internal/history"
	"github.com/aman-zulfiqar/hive-engine-go/internal/rpc"
	"github.com/sirupsen/logrus"
)

type failure struct {
	status int
	body   string
}

// Node is an in-process sidechain node. It answers the JSON-RPC methods the
// client uses from in-memory tables and serves the account history endpoint.
type Node struct {
	*httptest.Server

	mu           sync.Mutex
	tables       map[string][]map[string]any
	contracts    map[string]any
	blocks       map[int64]any
	latest       int64
	transactions map[string]any
	history      []map[string]any
	failures     []failure
	calls        map[string]int
	requests     []rpc.Request
}

// NewNode starts a node that is closed when the test ends
func NewNode(t testing.TB) *Node {
	n := &Node{
		tables:       make(map[string][]map[string]any),
		contracts:    make(map[string]any),
		blocks:       make(map[int64]any),
		transactions: make(map[string]any),
		calls:        make(map[string]int),
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/rpc/", n.handleRPC)
	mux.HandleFunc("/history/accountHistory", n.handleHistory)
	n.Server = httptest.NewServer(mux)
	t.Cleanup(n.Server.Close)
	return n
}

// RPCURL is the base URL for rpc.ClientConfig
func (n *Node) RPCURL() string {
	return n.Server.URL + "/rpc/"
}

// HistoryURL is the base URL for history.Config
func (n *Node) HistoryURL() string {
	return n.Server.URL + "/history"
}

// API returns a query client talking to this node with retries disabled
func (n *Node) API() *api.Client {
	logger := Logger()
	return api.NewClient(api.Config{
		RPC:     rpc.NewClient(rpc.ClientConfig{BaseURL: n.RPCURL(), Logger: logger}),
		History: history.NewClient(history.Config{BaseURL: n.HistoryURL(), MaxRetries: 2, Logger: logger}),
		Logger:  logger,
	})
}

// Logger returns a logger that discards output
func Logger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// SetRows replaces the rows of contract.table
func (n *Node) SetRows(contract, table string, rows ...map[string]any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.tables[contract+"."+table] = normalizeRows(rows)
}

// AddRows appends rows to contract.table
func (n *Node) AddRows(contract, table string, rows ...map[string]any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	key := contract + "." + table
	n.tables[key] = append(n.tables[key], normalizeRows(rows)...)
}

func (n *Node) SetContract(name string, v any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.contracts[name] = v
}

// AddBlock stores a block; the highest number becomes the latest block
func (n *Node) AddBlock(number int64, block map[string]any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	block["blockNumber"] = number
	n.blocks[number] = block
	if number > n.latest {
		n.latest = number
	}
}

func (n *Node) AddTransaction(txid string, v any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.transactions[txid] = v
}

func (n *Node) SetHistory(entries ...map[string]any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.history = entries
}

// FailNext makes the next POST answer with status and a raw body
func (n *Node) FailNext(status int, body string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.failures = append(n.failures, failure{status: status, body: body})
}

// Calls reports how often method was requested
func (n *Node) Calls(method string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.calls[method]
}

// Requests returns every JSON-RPC request received so far
func (n *Node) Requests() []rpc.Request {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]rpc.Request(nil), n.requests...)
}

func (n *Node) handleRPC(w http.ResponseWriter, r *http.Request) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if len(n.failures) > 0 {
		f := n.failures[0]
		n.failures = n.failures[1:]
		w.WriteHeader(f.status)
		_, _ = w.Write([]byte(f.body))
		return
	}

	var reqs []struct {
		rpc.Request
		Params map[string]any `json:"params"`
	}
	if err := json.NewDecoder(r.Body).Decode(&reqs); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	resp := make([]map[string]any, 0, len(reqs))
	for _, req := range reqs {
		n.calls[req.Method]++
		req.Request.Params = req.Params
		n.requests = append(n.requests, req.Request)

		result, err := n.dispatch(req.Method, req.Params)
		entry := map[string]any{"jsonrpc": "2.0", "id": req.ID}
		if err != nil {
			entry["error"] = map[string]any{"code": -32601, "message": err.Error()}
		} else {
			entry["result"] = result
		}
		resp = append(resp, entry)
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func (n *Node) dispatch(method string, params map[string]any) (any, error) {
	switch method {
	case "getLatestBlockInfo":
		if b, ok := n.blocks[n.latest]; ok {
			return b, nil
		}
		return nil, nil
	case "getBlockInfo":
		num, _ := params["blockNumber"].(float64)
		if b, ok := n.blocks[int64(num)]; ok {
			return b, nil
		}
		return nil, nil
	case "getStatus":
		return map[string]any{"lastBlockNumber": n.latest, "SSCnodeVersion": "test", "chainId": "mainnet-hive"}, nil
	case "getTransactionInfo":
		txid, _ := params["txid"].(string)
		return n.transactions[txid], nil
	case "getContract":
		name, _ := params["name"].(string)
		return n.contracts[name], nil
	case "findOne":
		rows := n.match(params)
		if len(rows) == 0 {
			return nil, nil
		}
		return rows[0], nil
	case "find":
		rows := n.match(params)
		offset := intParam(params, "offset", 0)
		limit := intParam(params, "limit", 1000)
		if offset >= len(rows) {
			return []map[string]any{}, nil
		}
		rows = rows[offset:]
		if limit < len(rows) {
			rows = rows[:limit]
		}
		return rows, nil
	}
	return nil, fmt.Errorf("method %s not found", method)
}

func (n *Node) match(params map[string]any) []map[string]any {
	contract, _ := params["contract"].(string)
	table, _ := params["table"].(string)
	query, _ := params["query"].(map[string]any)

	out := []map[string]any{}
	for _, row := range n.tables[contract+"."+table] {
		if matches(row, query) {
			out = append(out, row)
		}
	}
	return out
}

func matches(row, query map[string]any) bool {
	for k, want := range query {
		got, ok := lookup(row, k)
		if cond, isMap := want.(map[string]any); isMap {
			if in, ok := cond["$in"].([]any); ok {
				if !containsValue(in, got) {
					return false
				}
				continue
			}
		}
		if !ok || fmt.Sprint(got) != fmt.Sprint(want) {
			return false
		}
	}
	return true
}

func lookup(row map[string]any, path string) (any, bool) {
	var cur any = row
	for _, part := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

func containsValue(list []any, v any) bool {
	for _, item := range list {
		if fmt.Sprint(item) == fmt.Sprint(v) {
			return true
		}
	}
	return false
}

func (n *Node) handleHistory(w http.ResponseWriter, r *http.Request) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.calls["accountHistory"]++
	q := r.URL.Query()
	out := []map[string]any{}
	for _, e := range n.history {
		if e["account"] != nil && e["account"] != q.Get("account") {
			continue
		}
		if s := q.Get("symbol"); s != "" && e["symbol"] != s {
			continue
		}
		out = append(out, e)
	}
	if limit, err := strconv.Atoi(q.Get("limit")); err == nil && limit < len(out) {
		out = out[:limit]
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(out)
}

func intParam(params map[string]any, key string, def int) int {
	if v, ok := params[key].(float64); ok {
		return int(v)
	}
	return def
}

// normalizeRows passes rows through JSON so numbers compare like decoded queries
func normalizeRows(rows []map[string]any) []map[string]any {
	out := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		data, err := json.Marshal(row)
		if err != nil {
			panic(err)
		}
		var m map[string]any
		if err := json.Unmarshal(data, &m); err != nil {
			panic(err)
		}
		out = append(out, m)
	}
	return out
}
