package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/aman-zulfiqar/hive-engine-go/internal/bootstrap"
	"github.com/aman-zulfiqar/hive-engine-go/internal/config"
	"github.com/aman-zulfiqar/hive-engine-go/internal/models"
	"github.com/aman-zulfiqar/hive-engine-go/internal/stream"
	"github.com/sirupsen/logrus"
)

// main follows sidechain blocks and logs market orders for the given symbols
func main() {
	logger := bootstrap.NewLogger("info")
	bootstrap.LoadEnv(logger)

	symbols := flag.String("symbols", "", "comma separated symbols to watch (empty = all)")
	start := flag.Int64("start", 0, "first block to read (0 = checkpoint or latest)")
	name := flag.String("name", "market", "checkpoint name; positions are kept in Redis when REDIS_ADDR is set")
	flag.Parse()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.WithError(err).Fatal("invalid configuration")
	}
	logger = bootstrap.NewLogger(cfg.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	stack, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("failed to build client stack")
	}
	defer stack.Close()

	var checkpoints *stream.CheckpointStore
	if stack.Redis != nil {
		checkpoints, err = stream.NewCheckpointStore(stack.Redis)
		if err != nil {
			logger.WithError(err).Fatal("failed to create checkpoint store")
		}
		if *start == 0 {
			cp, err := checkpoints.Load(ctx, *name)
			switch {
			case err == nil:
				*start = cp.NextBlock
				logger.WithField("next_block", cp.NextBlock).Info("resuming from checkpoint")
			case !errors.Is(err, stream.ErrNoCheckpoint):
				logger.WithError(err).Fatal("failed to load checkpoint")
			}
		}
	}

	filter := stream.NewMarketFilter(strings.Split(*symbols, ",")...)
	poller := stream.NewBlockPoller(stream.BlockPollerConfig{
		Client:       stack.API,
		StartBlock:   *start,
		PollInterval: cfg.PollInterval,
		Logger:       logger,
	})

	go func() {
		<-sigCh
		logger.Info("shutting down")
		_ = poller.Stop()
		cancel()
	}()

	logger.WithFields(logrus.Fields{
		"node":    cfg.RPCUrl,
		"symbols": *symbols,
		"start":   *start,
	}).Info("streamer starting")

	err = poller.Start(ctx, func(ctx context.Context, block *models.Block) error {
		logger.WithFields(logrus.Fields{
			"block":        block.BlockNumber,
			"transactions": len(block.Transactions),
		}).Debug("block")
		for _, tr := range filter.Trades(block) {
			logger.WithFields(logrus.Fields{
				"block":    tr.BlockNumber,
				"txid":     tr.TransactionID,
				"account":  tr.Account,
				"symbol":   tr.Symbol,
				"quantity": tr.Quantity,
				"price":    tr.Price,
			}).Info("market " + tr.Action)
		}
		if checkpoints != nil {
			if _, err := checkpoints.Save(ctx, *name, block.BlockNumber+1); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.WithError(err).Fatal("streamer failed")
	}
	logger.WithField("next_block", poller.Next()).Info("streamer stopped")
}
