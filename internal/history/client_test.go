package history

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewClient(Config{BaseURL: srv.URL + "/", Logger: logger})
}

func TestClient_GetQuery(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/accountHistory", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "alice", q.Get("account"))
		assert.Equal(t, "BEE", q.Get("symbol"))
		assert.Equal(t, "50", q.Get("limit"))
		assert.Equal(t, "10", q.Get("offset"))
		_, _ = w.Write([]byte(`[{"_id":"a1","blockNumber":7,"operation":"tokens_transfer","symbol":"BEE","quantity":"1.000","from":"alice","to":"bob"}]`))
	})

	entries, err := c.Get(context.Background(), Query{Account: "alice", Symbol: "BEE", Limit: 50, Offset: 10})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "tokens_transfer", entries[0].Operation)
	assert.Equal(t, "1.000", entries[0].Quantity)
	assert.EqualValues(t, 7, entries[0].BlockNumber)
}

func TestClient_RetriesUntilOK(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`[]`))
	})

	raw, err := c.GetRaw(context.Background(), Query{Account: "alice", Symbol: "BEE"})
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(raw))
	assert.EqualValues(t, 3, calls.Load())
}

func TestClient_ParsesLastBodyAfterRetries(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"busy"}`))
	})

	raw, err := c.GetRaw(context.Background(), Query{Account: "alice", Symbol: "BEE"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"error":"busy"}`, string(raw))
	assert.EqualValues(t, 1+DefaultMaxRetries, calls.Load())
}

func TestClient_NonJSONAfterRetries(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`Service Unavailable`))
	})
	c.MaxRetries = 1

	_, err := c.GetRaw(context.Background(), Query{Account: "alice"})
	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusServiceUnavailable, httpErr.StatusCode)
}

func TestClient_RequiresAccount(t *testing.T) {
	c := NewClient(Config{})
	_, err := c.GetRaw(context.Background(), Query{Symbol: "BEE"})
	assert.Error(t, err)
}
