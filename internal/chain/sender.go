package chain

import (
	"context"

	"github.com/aman-zulfiqar/hive-engine-go/internal/constants"
	"github.com/aman-zulfiqar/hive-engine-go/internal/metrics"
	"github.com/sirupsen/logrus"
)

// Sender hands contract payloads to a broadcaster under an application id.
// Builders embed it, which gives each of them SetID.
type Sender struct {
	bc      Broadcaster
	appID   string
	logger  *logrus.Logger
	metrics *metrics.Metrics
}

func NewSender(bc Broadcaster, logger *logrus.Logger, m *metrics.Metrics) *Sender {
	if logger == nil {
		logger = logrus.New()
	}
	return &Sender{bc: bc, appID: constants.DefaultAppID, logger: logger, metrics: m}
}

// SetID changes the custom_json id used for broadcasts
func (s *Sender) SetID(id string) {
	s.appID = id
}

func (s *Sender) ID() string {
	return s.appID
}

func (s *Sender) Broadcaster() Broadcaster {
	return s.bc
}

// Send checks the broadcaster targets Hive and broadcasts payload. The
// broadcaster's result and errors are returned unchanged.
func (s *Sender) Send(ctx context.Context, payload Payload, auths Auths) (Receipt, error) {
	if s == nil || s.bc == nil {
		return nil, ErrNoBroadcaster
	}
	if !s.bc.IsHive() {
		return nil, ErrWrongChain
	}

	s.logger.WithFields(logrus.Fields{
		"id":       s.appID,
		"contract": payload.ContractName,
		"action":   payload.ContractAction,
		"active":   auths.Active,
		"posting":  auths.Posting,
	}).Info("broadcasting contract call")
	s.metrics.ObserveBroadcast(payload.ContractName, payload.ContractAction)

	return s.bc.CustomJSON(ctx, s.appID, payload, auths)
}

// HostTransfer moves host-chain funds through the broadcaster
func (s *Sender) HostTransfer() (HostTransferer, error) {
	if s == nil || s.bc == nil {
		return nil, ErrNoBroadcaster
	}
	if !s.bc.IsHive() {
		return nil, ErrWrongChain
	}
	ht, ok := s.bc.(HostTransferer)
	if !ok {
		return nil, ErrHostTransferUnsupported
	}
	return ht, nil
}
