package chain

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/aman-zulfiqar/hive-engine-go/internal/constants"
	"github.com/aman-zulfiqar/hive-engine-go/internal/storage"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Relay publishes unsigned operations to a channel where an external signer
// picks them up
type Relay struct {
	hostReader
	pub     storage.OpPublisher
	channel string
	chain   string
	logger  *logrus.Logger
	now     func() time.Time
}

type RelayConfig struct {
	Publisher storage.OpPublisher
	Channel   string
	Chain     string
	Host      *HostNode
	Logger    *logrus.Logger
}

func NewRelay(cfg RelayConfig) *Relay {
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	if cfg.Channel == "" {
		cfg.Channel = constants.PubSubChannelOps
	}
	return &Relay{
		hostReader: hostReader{host: cfg.Host},
		pub:        cfg.Publisher,
		channel:    cfg.Channel,
		chain:      cfg.Chain,
		logger:     cfg.Logger,
		now:        time.Now,
	}
}

func (r *Relay) IsHive() bool {
	return strings.EqualFold(r.chain, constants.ChainHive)
}

func (r *Relay) CustomJSON(ctx context.Context, id string, payload Payload, auths Auths) (Receipt, error) {
	op, err := NewCustomJSON(id, payload, auths)
	if err != nil {
		return nil, err
	}
	if err := r.publish(ctx, Envelope{Type: "custom_json", CustomJSON: op}); err != nil {
		return nil, err
	}
	return Receipt{
		"relayed":    true,
		"channel":    r.channel,
		"operations": []any{[]any{"custom_json", op}},
	}, nil
}

func (r *Relay) Transfer(ctx context.Context, from, to string, amount decimal.Decimal, asset, memo string) (Receipt, error) {
	op := NewTransfer(from, to, amount, asset, memo)
	if err := r.publish(ctx, Envelope{Type: "transfer", Transfer: op}); err != nil {
		return nil, err
	}
	return Receipt{
		"relayed":    true,
		"channel":    r.channel,
		"operations": []any{[]any{"transfer", op}},
	}, nil
}

func (r *Relay) publish(ctx context.Context, env Envelope) error {
	env.CreatedAt = r.now().UTC()
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to marshal envelope: %w", err)
	}
	if err := r.pub.Publish(ctx, r.channel, data); err != nil {
		return err
	}
	r.logger.WithFields(logrus.Fields{
		"channel": r.channel,
		"type":    env.Type,
	}).Info("relayed operation")
	return nil
}
