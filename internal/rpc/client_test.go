package rpc

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewClient(ClientConfig{BaseURL: srv.URL, Logger: logger})
}

func respond(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(body))
	}
}

func TestClient_CallRequestShape(t *testing.T) {
	var gotPath string
	var got []map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, DefaultUserAgent, r.Header.Get("User-Agent"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`[{"jsonrpc":"2.0","id":1,"result":{"blockNumber":5}}]`))
	})

	_, err := c.Call(context.Background(), EndpointContracts, "findOne", map[string]any{"contract": "tokens"})
	require.NoError(t, err)

	assert.Equal(t, "/contracts", gotPath)
	require.Len(t, got, 1)
	assert.Equal(t, "findOne", got[0]["method"])
	assert.Equal(t, "2.0", got[0]["jsonrpc"])
	assert.Equal(t, map[string]any{"contract": "tokens"}, got[0]["params"])
	assert.EqualValues(t, 1, got[0]["id"])
}

func TestClient_IDsAreMonotonic(t *testing.T) {
	var ids []int64
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var reqs []Request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&reqs))
		ids = append(ids, reqs[0].ID)
		_, _ = w.Write([]byte(`[{"result":null}]`))
	})

	for i := 0; i < 3; i++ {
		_, err := c.Call(context.Background(), EndpointBlockchain, "getStatus", nil)
		require.NoError(t, err)
	}
	assert.Equal(t, []int64{1, 2, 3}, ids)
}

func TestClient_Normalization(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"list of results", `[{"id":1,"result":{"a":1}}]`, `[{"a":1}]`},
		{"list mixes results and raw entries", `[{"result":1},{"x":2}]`, `[1,{"x":2}]`},
		{"object with result", `{"result":[1,2]}`, `[1,2]`},
		{"bare object", `{"symbol":"BEE"}`, `{"symbol":"BEE"}`},
		{"bare scalar", `42`, `42`},
		{"empty list", `[]`, `[]`},
		{"null error is ignored", `[{"result":3,"error":null}]`, `[3]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, respond(tt.body))
			got, err := c.Call(context.Background(), EndpointBlockchain, "getLatestBlockInfo", nil)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(got))
		})
	}
}

func TestClient_ErrorField(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"detail wins over message", `[{"error":{"message":"bad","detail":"table not found"}}]`, "table not found"},
		{"message only", `[{"error":{"code":-32601,"message":"Method not found"}}]`, "Method not found"},
		{"top level object", `{"error":{"message":"oops"}}`, "oops"},
		{"string error", `{"error":"plain failure"}`, "plain failure"},
		{"second element", `[{"result":1},{"error":{"message":"late"}}]`, "late"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, respond(tt.body))
			_, err := c.Call(context.Background(), EndpointContracts, "find", nil)
			require.Error(t, err)

			var rpcErr *RPCError
			require.ErrorAs(t, err, &rpcErr)
			assert.Equal(t, tt.want, rpcErr.Error())
			assert.False(t, IsRetryable(err))
		})
	}
}

func TestClient_Unauthorized(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`[{"result":1}]`))
	})

	_, err := c.Call(context.Background(), EndpointBlockchain, "getStatus", nil)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestClient_NonJSONBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`<html><h1>503 Service Temporarily Unavailable</h1></html>`))
	})

	_, err := c.Call(context.Background(), EndpointBlockchain, "getStatus", nil)
	require.Error(t, err)
	assert.True(t, IsRetryable(err))
}

func TestClient_BasicAuth(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "alice", user)
		assert.Equal(t, "secret", pass)
		_, _ = w.Write([]byte(`[{"result":true}]`))
	})
	c.user, c.password = "alice", "secret"

	_, err := c.Call(context.Background(), EndpointBlockchain, "getStatus", nil)
	require.NoError(t, err)
}

func TestClient_CallBatchCorrelatesByID(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var reqs []Request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&reqs))
		require.Len(t, reqs, 3)
		// answer out of order, last entry without id
		resp := []map[string]any{
			{"id": reqs[1].ID, "result": "second"},
			{"id": reqs[0].ID, "result": "first"},
			{"result": "third"},
		}
		_ = json.NewEncoder(w).Encode(resp)
	})

	reqs := []Request{
		c.NewRequest("getBlockInfo", map[string]any{"blockNumber": 1}),
		c.NewRequest("getBlockInfo", map[string]any{"blockNumber": 2}),
		c.NewRequest("getBlockInfo", map[string]any{"blockNumber": 3}),
	}
	out, err := c.CallBatch(context.Background(), EndpointBlockchain, reqs)
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.JSONEq(t, `"first"`, string(out[0]))
	assert.JSONEq(t, `"second"`, string(out[1]))
	assert.JSONEq(t, `"third"`, string(out[2]))
}

func TestClient_CallBatchMissingResponse(t *testing.T) {
	c := newTestClient(t, respond(`[{"result":1}]`))

	reqs := []Request{c.NewRequest("a", nil), c.NewRequest("b", nil)}
	_, err := c.CallBatch(context.Background(), EndpointBlockchain, reqs)

	var rpcErr *RPCError
	require.ErrorAs(t, err, &rpcErr)
}

func TestClient_ContextCancelled(t *testing.T) {
	c := newTestClient(t, respond(`[{"result":1}]`))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Call(ctx, EndpointBlockchain, "getStatus", nil)
	require.Error(t, err)
	assert.False(t, IsRetryable(err))
}
