package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/aman-zulfiqar/hive-engine-go/internal/api"
	"github.com/aman-zulfiqar/hive-engine-go/internal/bootstrap"
	"github.com/aman-zulfiqar/hive-engine-go/internal/chain"
	"github.com/aman-zulfiqar/hive-engine-go/internal/config"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// app carries what the commands share. The client stack is built on first
// use so that --help works without a node.
type app struct {
	cfg    *config.Config
	logger *logrus.Logger
	in     io.Reader
	reader *bufio.Reader

	mode    string
	account string
	yes     bool
	verbose bool

	stack  *bootstrap.Stack
	api    *api.Client
	sender *chain.Sender
}

func newApp(cfg *config.Config, logger *logrus.Logger) *app {
	return &app{cfg: cfg, logger: logger, in: os.Stdin}
}

func (a *app) client(ctx context.Context) (*api.Client, error) {
	if a.api != nil {
		return a.api, nil
	}
	if err := a.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	stack, err := bootstrap.New(ctx, a.cfg, a.logger)
	if err != nil {
		return nil, err
	}
	a.stack = stack
	a.api = stack.API
	return a.api, nil
}

// signer returns the sender for the selected broadcast mode
func (a *app) signer(ctx context.Context) (*api.Client, *chain.Sender, error) {
	client, err := a.client(ctx)
	if err != nil {
		return nil, nil, err
	}
	if a.sender == nil {
		sender, err := a.stack.Sender(a.mode)
		if err != nil {
			return nil, nil, err
		}
		a.sender = sender
	}
	return client, a.sender, nil
}

// accountName resolves --account, then HIVEENGINE_ACCOUNT
func (a *app) accountName() (string, error) {
	if a.account != "" {
		return a.account, nil
	}
	if a.cfg.Account != "" {
		return a.cfg.Account, nil
	}
	return "", errors.New("no account given: use --account or set HIVEENGINE_ACCOUNT")
}

func (a *app) close() {
	if a.stack != nil {
		_ = a.stack.Close()
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "hiveengine",
		Short:         "Query the Hive-Engine sidechain and build its contract operations",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if a.verbose {
				a.logger.SetLevel(logrus.DebugLevel)
			}
		},
	}

	root.PersistentFlags().StringVar(&a.mode, "broadcast-mode", a.cfg.BroadcastMode, "how operations leave the CLI: dry-run or relay")
	root.PersistentFlags().StringVarP(&a.account, "account", "a", "", "account to act as (defaults to HIVEENGINE_ACCOUNT)")
	root.PersistentFlags().BoolVarP(&a.yes, "yes", "y", false, "answer yes to every confirmation")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(
		// queries
		newInfoCmd(a),
		newTokensCmd(a),
		newNftsCmd(a),
		newNftParamsCmd(a),
		newRichlistCmd(a),
		newBalanceCmd(a),
		newHistoryCmd(a),
		newBookCmd(a, "buybook"),
		newBookCmd(a, "sellbook"),
		newCollectionCmd(a),
		newNftSellBookCmd(a),
		newNftOpenCmd(a),
		newNftTradesCmd(a),

		// token operations
		newTransferCmd(a),
		newIssueCmd(a),
		newStakeCmd(a),
		newUnstakeCmd(a),
		newCancelUnstakeCmd(a),
		newDelegateCmd(a),
		newUndelegateCmd(a),
		newWithdrawCmd(a),
		newDepositCmd(a),
		newBuyCmd(a),
		newSellCmd(a),
		newCancelCmd(a),

		// nft operations
		newNftBuyCmd(a),
		newNftSellCmd(a),
		newNftChangePriceCmd(a),
		newNftCancelCmd(a),
		newNftTransferCmd(a),
		newNftBurnCmd(a),
	)
	return root
}

func main() {
	logger := bootstrap.NewLogger("info")
	bootstrap.LoadEnv(logger)

	cfg := config.Load()
	logger = bootstrap.NewLogger(cfg.LogLevel)
	logger.SetOutput(os.Stderr)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a := newApp(cfg, logger)
	defer a.close()

	if err := newRootCmd(a).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		a.close()
		os.Exit(1)
	}
}
