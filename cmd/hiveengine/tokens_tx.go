package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/aman-zulfiqar/hive-engine-go/internal/market"
	"github.com/aman-zulfiqar/hive-engine-go/internal/models"
	"github.com/aman-zulfiqar/hive-engine-go/internal/wallet"
	"github.com/spf13/cobra"
)

// walletCmd builds a command that acts on the wallet of the selected account
func walletCmd(a *app, use, short string, args cobra.PositionalArgs, run func(cmd *cobra.Command, w *wallet.Wallet, args []string) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		RunE: func(cmd *cobra.Command, args []string) error {
			account, err := a.accountName()
			if err != nil {
				return err
			}
			client, sender, err := a.signer(cmd.Context())
			if err != nil {
				return err
			}
			w, err := wallet.New(client, sender, account)
			if err != nil {
				return err
			}
			return run(cmd, w, args)
		},
	}
}

// marketCmd builds a command that acts through the market contracts
func marketCmd(a *app, use, short string, args cobra.PositionalArgs, run func(cmd *cobra.Command, m *market.Market, account string, args []string) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		RunE: func(cmd *cobra.Command, args []string) error {
			account, err := a.accountName()
			if err != nil {
				return err
			}
			client, sender, err := a.signer(cmd.Context())
			if err != nil {
				return err
			}
			return run(cmd, market.New(client, sender), account, args)
		},
	}
}

func newTransferCmd(a *app) *cobra.Command {
	return walletCmd(a, "transfer TO AMOUNT SYMBOL [MEMO]", "Transfer tokens to another account",
		cobra.RangeArgs(3, 4), func(cmd *cobra.Command, w *wallet.Wallet, args []string) error {
			amount, err := parseAmount(args[1])
			if err != nil {
				return err
			}
			memo := ""
			if len(args) == 4 {
				memo = args[3]
			}
			if !a.confirm(cmd, "Transfer %s %s from %s to %s?", amount, strings.ToUpper(args[2]), w.Account(), args[0]) {
				return nil
			}
			receipt, err := w.Transfer(cmd.Context(), args[0], amount, args[2], memo)
			if err != nil {
				return err
			}
			return printReceipt(cmd, receipt)
		})
}

func newIssueCmd(a *app) *cobra.Command {
	return walletCmd(a, "issue TO AMOUNT SYMBOL", "Issue new tokens to an account",
		cobra.ExactArgs(3), func(cmd *cobra.Command, w *wallet.Wallet, args []string) error {
			amount, err := parseAmount(args[1])
			if err != nil {
				return err
			}
			receipt, err := w.Issue(cmd.Context(), args[0], amount, args[2])
			if err != nil {
				return err
			}
			return printReceipt(cmd, receipt)
		})
}

func newStakeCmd(a *app) *cobra.Command {
	var receiver string
	cmd := walletCmd(a, "stake AMOUNT SYMBOL", "Stake tokens",
		cobra.ExactArgs(2), func(cmd *cobra.Command, w *wallet.Wallet, args []string) error {
			amount, err := parseAmount(args[0])
			if err != nil {
				return err
			}
			receipt, err := w.Stake(cmd.Context(), amount, args[1], receiver)
			if err != nil {
				return err
			}
			return printReceipt(cmd, receipt)
		})
	cmd.Flags().StringVarP(&receiver, "receiver", "r", "", "stake to this account instead")
	return cmd
}

func newUnstakeCmd(a *app) *cobra.Command {
	return walletCmd(a, "unstake AMOUNT SYMBOL", "Unstake tokens",
		cobra.ExactArgs(2), func(cmd *cobra.Command, w *wallet.Wallet, args []string) error {
			amount, err := parseAmount(args[0])
			if err != nil {
				return err
			}
			receipt, err := w.Unstake(cmd.Context(), amount, args[1])
			if err != nil {
				return err
			}
			return printReceipt(cmd, receipt)
		})
}

func newCancelUnstakeCmd(a *app) *cobra.Command {
	return walletCmd(a, "cancel-unstake TRX_ID", "Cancel a pending unstake",
		cobra.ExactArgs(1), func(cmd *cobra.Command, w *wallet.Wallet, args []string) error {
			receipt, err := w.CancelUnstake(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printReceipt(cmd, receipt)
		})
}

func newDelegateCmd(a *app) *cobra.Command {
	return walletCmd(a, "delegate TO AMOUNT SYMBOL", "Delegate staked tokens",
		cobra.ExactArgs(3), func(cmd *cobra.Command, w *wallet.Wallet, args []string) error {
			amount, err := parseAmount(args[1])
			if err != nil {
				return err
			}
			receipt, err := w.Delegate(cmd.Context(), args[0], amount, args[2])
			if err != nil {
				return err
			}
			return printReceipt(cmd, receipt)
		})
}

func newUndelegateCmd(a *app) *cobra.Command {
	return walletCmd(a, "undelegate FROM AMOUNT SYMBOL", "Take back delegated tokens",
		cobra.ExactArgs(3), func(cmd *cobra.Command, w *wallet.Wallet, args []string) error {
			amount, err := parseAmount(args[1])
			if err != nil {
				return err
			}
			receipt, err := w.Undelegate(cmd.Context(), args[0], amount, args[2])
			if err != nil {
				return err
			}
			return printReceipt(cmd, receipt)
		})
}

func newWithdrawCmd(a *app) *cobra.Command {
	return marketCmd(a, "withdraw AMOUNT", "Convert SWAP.HIVE back to HIVE",
		cobra.ExactArgs(1), func(cmd *cobra.Command, m *market.Market, account string, args []string) error {
			amount, err := parseAmount(args[0])
			if err != nil {
				return err
			}
			if !a.confirm(cmd, "Withdraw %s SWAP.HIVE from %s?", amount, account) {
				return nil
			}
			receipt, err := m.Withdraw(cmd.Context(), account, amount)
			if err != nil {
				return err
			}
			return printReceipt(cmd, receipt)
		})
}

func newDepositCmd(a *app) *cobra.Command {
	return marketCmd(a, "deposit AMOUNT", "Deposit HIVE to receive SWAP.HIVE",
		cobra.ExactArgs(1), func(cmd *cobra.Command, m *market.Market, account string, args []string) error {
			amount, err := parseAmount(args[0])
			if err != nil {
				return err
			}
			if !a.confirm(cmd, "Deposit %s HIVE from %s?", amount.StringFixed(3), account) {
				return nil
			}
			receipt, err := m.Deposit(cmd.Context(), account, amount)
			if err != nil {
				return err
			}
			return printReceipt(cmd, receipt)
		})
}

func newBuyCmd(a *app) *cobra.Command {
	return marketCmd(a, "buy AMOUNT SYMBOL PRICE", "Place a market buy order",
		cobra.ExactArgs(3), func(cmd *cobra.Command, m *market.Market, account string, args []string) error {
			amount, err := parseAmount(args[0])
			if err != nil {
				return err
			}
			receipt, err := m.Buy(cmd.Context(), account, amount, args[1], args[2])
			if err != nil {
				return err
			}
			return printReceipt(cmd, receipt)
		})
}

// newSellCmd places one sell order, or with no arguments sells every
// balance that has a market
func newSellCmd(a *app) *cobra.Command {
	return marketCmd(a, "sell [AMOUNT SYMBOL PRICE]", "Place a market sell order, or sell everything",
		func(cmd *cobra.Command, args []string) error {
			if len(args) != 0 && len(args) != 3 {
				return fmt.Errorf("accepts 0 or 3 arg(s), received %d", len(args))
			}
			return nil
		}, func(cmd *cobra.Command, m *market.Market, account string, args []string) error {
			if len(args) == 0 {
				receipts, err := m.SellAll(cmd.Context(), account, func(o market.SellOrder) bool {
					return a.confirm(cmd, "Sell %s %s at %s for %s SWAP.HIVE?",
						o.Amount, o.Symbol, o.Price, o.Value.StringFixed(3))
				})
				if perr := printReceipts(cmd, receipts); perr != nil {
					return perr
				}
				return err
			}
			amount, err := parseAmount(args[0])
			if err != nil {
				return err
			}
			receipt, err := m.Sell(cmd.Context(), account, amount, args[1], args[2])
			if err != nil {
				return err
			}
			return printReceipt(cmd, receipt)
		})
}

// newCancelCmd cancels one order, or every open order on the side when no
// id is given
func newCancelCmd(a *app) *cobra.Command {
	return marketCmd(a, "cancel buy|sell [ID]", "Cancel open market orders",
		cobra.RangeArgs(1, 2), func(cmd *cobra.Command, m *market.Market, account string, args []string) error {
			side := strings.ToLower(args[0])
			if len(args) == 2 {
				id, err := strconv.ParseInt(args[1], 10, 64)
				if err != nil {
					return fmt.Errorf("invalid order id %q", args[1])
				}
				receipt, err := m.Cancel(cmd.Context(), account, side, id)
				if err != nil {
					return err
				}
				return printReceipt(cmd, receipt)
			}

			w, err := wallet.New(a.api, m.Sender, account)
			if err != nil {
				return err
			}
			var orders []models.Order
			switch side {
			case market.SideBuy:
				orders, err = w.GetBuyBook(cmd.Context(), "", 1000, 0)
			case market.SideSell:
				orders, err = w.GetSellBook(cmd.Context(), "", 1000, 0)
			default:
				return fmt.Errorf("order side must be %q or %q, got %q", market.SideBuy, market.SideSell, side)
			}
			if err != nil {
				return err
			}
			if len(orders) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No open %s orders for %s\n", side, account)
				return nil
			}
			for _, o := range orders {
				id, err := o.ID.Int64()
				if err != nil {
					return fmt.Errorf("order id %q: %w", o.ID, err)
				}
				if !a.confirm(cmd, "Cancel %s order %d: %s %s at %s?", side, id, o.Quantity, o.Symbol, o.Price) {
					continue
				}
				receipt, err := m.Cancel(cmd.Context(), account, side, id)
				if err != nil {
					return err
				}
				if err := printReceipt(cmd, receipt); err != nil {
					return err
				}
			}
			return nil
		})
}
