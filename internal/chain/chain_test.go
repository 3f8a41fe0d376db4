package chain

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aman-zulfiqar/hive-engine-go/internal/rpc"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

type publishedMsg struct {
	channel string
	data    []byte
}

type fakePublisher struct {
	msgs []publishedMsg
}

func (f *fakePublisher) Publish(_ context.Context, channel string, payload []byte) error {
	f.msgs = append(f.msgs, publishedMsg{channel: channel, data: payload})
	return nil
}

func TestNewCustomJSON(t *testing.T) {
	op, err := NewCustomJSON("ssc-mainnet-hive", Payload{
		ContractName:    "tokens",
		ContractAction:  "transfer",
		ContractPayload: map[string]any{"symbol": "BEE", "to": "bob", "quantity": "1.000", "memo": ""},
	}, ActiveAuth("alice"))
	require.NoError(t, err)

	assert.Equal(t, []string{"alice"}, op.RequiredAuths)
	assert.Equal(t, []string{}, op.RequiredPostingAuths)
	assert.Equal(t, "ssc-mainnet-hive", op.ID)
	assert.JSONEq(t, `{"contractName":"tokens","contractAction":"transfer","contractPayload":{"symbol":"BEE","to":"bob","quantity":"1.000","memo":""}}`, op.JSON)
}

func TestSender_Send(t *testing.T) {
	bc := NewDryRun("hive", nil, quietLogger())
	s := NewSender(bc, quietLogger(), nil)
	assert.Equal(t, "ssc-mainnet-hive", s.ID())

	s.SetID("ssc-testnet")
	receipt, err := s.Send(context.Background(), Payload{ContractName: "tokens", ContractAction: "stake"}, ActiveAuth("alice"))
	require.NoError(t, err)

	ops := receipt["operations"].([]any)
	require.Len(t, ops, 1)
	op := ops[0].([]any)[1].(*CustomJSONOp)
	assert.Equal(t, "ssc-testnet", op.ID)
	assert.Equal(t, false, receipt["broadcast"])
}

func TestSender_WrongChain(t *testing.T) {
	s := NewSender(NewDryRun("steem", nil, quietLogger()), quietLogger(), nil)
	_, err := s.Send(context.Background(), Payload{}, ActiveAuth("alice"))
	assert.ErrorIs(t, err, ErrWrongChain)

	_, err = s.HostTransfer()
	assert.ErrorIs(t, err, ErrWrongChain)
}

func TestSender_NoBroadcaster(t *testing.T) {
	s := NewSender(nil, quietLogger(), nil)
	_, err := s.Send(context.Background(), Payload{}, ActiveAuth("alice"))
	assert.ErrorIs(t, err, ErrNoBroadcaster)

	var nilSender *Sender
	_, err = nilSender.Send(context.Background(), Payload{}, ActiveAuth("alice"))
	assert.ErrorIs(t, err, ErrNoBroadcaster)
}

func TestRelay_PublishesEnvelope(t *testing.T) {
	pub := &fakePublisher{}
	r := NewRelay(RelayConfig{Publisher: pub, Chain: "hive", Logger: quietLogger()})
	r.now = func() time.Time { return time.Unix(0, 0) }

	receipt, err := r.CustomJSON(context.Background(), "ssc-mainnet-hive", Payload{
		ContractName:    "market",
		ContractAction:  "cancel",
		ContractPayload: map[string]any{"type": "sell", "id": "42"},
	}, ActiveAuth("alice"))
	require.NoError(t, err)
	assert.Equal(t, true, receipt["relayed"])
	assert.Equal(t, "hiveengine:ops", receipt["channel"])

	require.Len(t, pub.msgs, 1)
	assert.Equal(t, "hiveengine:ops", pub.msgs[0].channel)

	var env Envelope
	require.NoError(t, json.Unmarshal(pub.msgs[0].data, &env))
	assert.Equal(t, "custom_json", env.Type)
	require.NotNil(t, env.CustomJSON)
	assert.Equal(t, []string{"alice"}, env.CustomJSON.RequiredAuths)
	assert.Contains(t, env.CustomJSON.JSON, `"contractAction":"cancel"`)
}

func TestRelay_Transfer(t *testing.T) {
	pub := &fakePublisher{}
	r := NewRelay(RelayConfig{Publisher: pub, Channel: "ops", Chain: "hive", Logger: quietLogger()})

	_, err := r.Transfer(context.Background(), "alice", "honey-swap", decimal.RequireFromString("1.23456"), "HIVE", "memo")
	require.NoError(t, err)

	var env Envelope
	require.NoError(t, json.Unmarshal(pub.msgs[0].data, &env))
	require.NotNil(t, env.Transfer)
	assert.Equal(t, "1.234 HIVE", env.Transfer.Amount)
	assert.Equal(t, "honey-swap", env.Transfer.To)
}

func TestDryRun_HostBalanceWithoutNode(t *testing.T) {
	d := NewDryRun("hive", nil, quietLogger())
	_, err := d.HostBalance(context.Background(), "alice", "HIVE")
	assert.ErrorIs(t, err, ErrHostTransferUnsupported)
}

func TestHostNode_Balance(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var reqs []rpc.Request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&reqs))
		assert.Equal(t, "condenser_api.get_accounts", reqs[0].Method)
		_, _ = w.Write([]byte(`[{"id":1,"result":[{"name":"alice","balance":"12.345 HIVE","hbd_balance":"1.000 HBD"}]}]`))
	}))
	defer srv.Close()

	h := NewHostNode(rpc.NewClient(rpc.ClientConfig{BaseURL: srv.URL, Logger: quietLogger()}))

	bal, err := h.Balance(context.Background(), "alice", "HIVE")
	require.NoError(t, err)
	assert.Equal(t, "12.345", bal.String())

	bal, err = h.Balance(context.Background(), "alice", "hbd")
	require.NoError(t, err)
	assert.Equal(t, "1", bal.String())
}

type transferRequest struct {
	To   string   `validate:"required"`
	Nfts []string `validate:"required,min=1"`
	Type string   `validate:"omitempty,oneof=user contract"`
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate(transferRequest{To: "bob", Nfts: []string{"1"}}))

	err := Validate(transferRequest{To: "bob", Nfts: []string{}, Type: "robot"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidRequest)
	assert.Contains(t, err.Error(), "Nfts")
	assert.Contains(t, err.Error(), "Type")
}

func TestValidateAccount(t *testing.T) {
	for _, name := range []string{"alice", "honey-swap", "hive.engine", "abc"} {
		assert.NoError(t, ValidateAccount(name), name)
	}
	for _, name := range []string{"", "ab", "Alice", "1abc", "averyveryverylongname"} {
		assert.ErrorIs(t, ValidateAccount(name), ErrInvalidRequest, name)
	}
}
