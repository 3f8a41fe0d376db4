package stream

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/aman-zulfiqar/hive-engine-go/internal/constants"
	"github.com/aman-zulfiqar/hive-engine-go/internal/models"
	"github.com/aman-zulfiqar/hive-engine-go/internal/storage"

	"github.com/sirupsen/logrus"
)

// BlockReader is the part of the query client the poller needs
type BlockReader interface {
	LatestBlock(ctx context.Context) (*models.Block, error)
	Block(ctx context.Context, blockNumber int64) (*models.Block, error)
}

// BlockPoller implements storage.BlockSource by polling the sidechain node
type BlockPoller struct {
	client       BlockReader
	pollInterval time.Duration
	batchSize    int
	logger       *logrus.Logger

	mu      sync.RWMutex
	next    int64
	running bool
	cancel  context.CancelFunc
}

var _ storage.BlockSource = (*BlockPoller)(nil)

// BlockPollerConfig holds configuration for the block poller
type BlockPollerConfig struct {
	Client BlockReader
	// StartBlock is the first block delivered; zero starts at the latest
	// block
	StartBlock   int64
	PollInterval time.Duration
	// BatchSize caps the blocks fetched per poll
	BatchSize int
	Logger    *logrus.Logger
}

func NewBlockPoller(cfg BlockPollerConfig) *BlockPoller {
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 3 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = constants.BlockBatchSize
	}

	return &BlockPoller{
		client:       cfg.Client,
		pollInterval: cfg.PollInterval,
		batchSize:    cfg.BatchSize,
		logger:       cfg.Logger,
		next:         cfg.StartBlock,
	}
}

// Start delivers blocks in order until ctx is cancelled or Stop is called
func (p *BlockPoller) Start(ctx context.Context, handler storage.BlockHandler) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("poller already running")
	}
	ctx, cancel := context.WithCancel(ctx)
	p.running = true
	p.cancel = cancel
	p.mu.Unlock()

	defer func() {
		cancel()
		p.mu.Lock()
		p.running = false
		p.cancel = nil
		p.mu.Unlock()
	}()

	p.logger.WithFields(logrus.Fields{
		"interval": p.pollInterval,
		"start":    p.Next(),
	}).Info("starting block polling")

	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for {
		if err := p.poll(ctx, handler); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			p.logger.WithError(err).Error("poll error")
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Stop makes a running Start return
func (p *BlockPoller) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		p.cancel()
	}
	return nil
}

// Next is the number of the next block to deliver
func (p *BlockPoller) Next() int64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.next
}

// poll delivers up to batchSize blocks behind the latest block
func (p *BlockPoller) poll(ctx context.Context, handler storage.BlockHandler) error {
	latest, err := p.client.LatestBlock(ctx)
	if err != nil {
		return fmt.Errorf("failed to get latest block: %w", err)
	}
	if latest == nil {
		p.logger.Debug("node has no latest block yet")
		return nil
	}

	p.mu.Lock()
	if p.next <= 0 {
		p.next = latest.BlockNumber
	}
	next := p.next
	p.mu.Unlock()

	if next > latest.BlockNumber {
		p.logger.Debug("no new blocks")
		return nil
	}

	end := latest.BlockNumber
	if end-next >= int64(p.batchSize) {
		end = next + int64(p.batchSize) - 1
	}

	for n := next; n <= end; n++ {
		block := latest
		if n != latest.BlockNumber {
			block, err = p.client.Block(ctx, n)
			if err != nil {
				return fmt.Errorf("failed to get block %d: %w", n, err)
			}
			if block == nil {
				p.logger.WithField("block", n).Debug("block not available yet")
				return nil
			}
		}

		if err := handler(ctx, block); err != nil {
			p.logger.WithError(err).WithField("block", n).Warn("block handler failed")
		}

		p.mu.Lock()
		p.next = n + 1
		p.mu.Unlock()
	}

	p.logger.WithFields(logrus.Fields{
		"from": next,
		"to":   end,
	}).Debug("delivered blocks")
	return nil
}
