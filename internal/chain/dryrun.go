package chain

import (
	"context"
	"strings"

	"github.com/aman-zulfiqar/hive-engine-go/internal/constants"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// DryRun builds operations without signing or broadcasting them. The
// receipt carries the unsigned operation.
type DryRun struct {
	hostReader
	chain  string
	logger *logrus.Logger
}

func NewDryRun(chainName string, host *HostNode, logger *logrus.Logger) *DryRun {
	if logger == nil {
		logger = logrus.New()
	}
	return &DryRun{hostReader: hostReader{host: host}, chain: chainName, logger: logger}
}

func (d *DryRun) IsHive() bool {
	return strings.EqualFold(d.chain, constants.ChainHive)
}

func (d *DryRun) CustomJSON(_ context.Context, id string, payload Payload, auths Auths) (Receipt, error) {
	op, err := NewCustomJSON(id, payload, auths)
	if err != nil {
		return nil, err
	}
	d.logger.WithField("json", op.JSON).Debug("dry run custom_json")
	return Receipt{
		"broadcast":  false,
		"operations": []any{[]any{"custom_json", op}},
	}, nil
}

func (d *DryRun) Transfer(_ context.Context, from, to string, amount decimal.Decimal, asset, memo string) (Receipt, error) {
	op := NewTransfer(from, to, amount, asset, memo)
	d.logger.WithField("amount", op.Amount).Debug("dry run transfer")
	return Receipt{
		"broadcast":  false,
		"operations": []any{[]any{"transfer", op}},
	}, nil
}
