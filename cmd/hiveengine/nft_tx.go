package main

import (
	"strings"

	"github.com/aman-zulfiqar/hive-engine-go/internal/collection"
	"github.com/aman-zulfiqar/hive-engine-go/internal/nftmarket"
	"github.com/spf13/cobra"
)

// nftMarketCmd builds a command that acts through the nftmarket contract
func nftMarketCmd(a *app, use, short string, args cobra.PositionalArgs, run func(cmd *cobra.Command, m *nftmarket.NftMarket, account string, args []string) error) *cobra.Command {
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
			return run(cmd, nftmarket.New(client, sender), account, args)
		},
	}
}

// collectionCmd builds a command that acts on the instances held by the
// selected account
func collectionCmd(a *app, use, short string, args cobra.PositionalArgs, run func(cmd *cobra.Command, c *collection.Collection, args []string) error) *cobra.Command {
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
			c, err := collection.New(client, sender, account)
			if err != nil {
				return err
			}
			return run(cmd, c, args)
		},
	}
}

func newNftBuyCmd(a *app) *cobra.Command {
	var marketAccount string
	cmd := nftMarketCmd(a, "nft-buy SYMBOL ID...", "Buy listed NFT instances",
		cobra.MinimumNArgs(2), func(cmd *cobra.Command, m *nftmarket.NftMarket, account string, args []string) error {
			if !a.confirm(cmd, "Buy %s %s as %s?", strings.ToUpper(args[0]), strings.Join(args[1:], ", "), account) {
				return nil
			}
			receipt, err := m.Buy(cmd.Context(), args[0], account, args[1:], marketAccount)
			if err != nil {
				return err
			}
			return printReceipt(cmd, receipt)
		})
	cmd.Flags().StringVarP(&marketAccount, "market-account", "m", nftmarket.DefaultMarketAccount, "account that receives the market fee")
	return cmd
}

func newNftSellCmd(a *app) *cobra.Command {
	var fee int
	cmd := nftMarketCmd(a, "nft-sell SYMBOL PRICE PRICE_SYMBOL ID...", "List NFT instances for sale",
		cobra.MinimumNArgs(4), func(cmd *cobra.Command, m *nftmarket.NftMarket, account string, args []string) error {
			receipt, err := m.Sell(cmd.Context(), args[0], account, args[3:], args[1], args[2], fee)
			if err != nil {
				return err
			}
			return printReceipt(cmd, receipt)
		})
	cmd.Flags().IntVarP(&fee, "fee", "f", 500, "market fee in basis points")
	return cmd
}

func newNftChangePriceCmd(a *app) *cobra.Command {
	return nftMarketCmd(a, "nft-change-price SYMBOL PRICE ID...", "Reprice listed NFT instances",
		cobra.MinimumNArgs(3), func(cmd *cobra.Command, m *nftmarket.NftMarket, account string, args []string) error {
			receipt, err := m.ChangePrice(cmd.Context(), args[0], account, args[2:], args[1])
			if err != nil {
				return err
			}
			return printReceipt(cmd, receipt)
		})
}

func newNftCancelCmd(a *app) *cobra.Command {
	return nftMarketCmd(a, "nft-cancel SYMBOL ID...", "Take NFT instances off the market",
		cobra.MinimumNArgs(2), func(cmd *cobra.Command, m *nftmarket.NftMarket, account string, args []string) error {
			receipt, err := m.Cancel(cmd.Context(), args[0], account, args[1:])
			if err != nil {
				return err
			}
			return printReceipt(cmd, receipt)
		})
}

func newNftTransferCmd(a *app) *cobra.Command {
	var toContract bool
	cmd := collectionCmd(a, "nft-transfer TO SYMBOL ID...", "Transfer NFT instances",
		cobra.MinimumNArgs(3), func(cmd *cobra.Command, c *collection.Collection, args []string) error {
			toType := collection.TypeUser
			if toContract {
				toType = collection.TypeContract
			}
			nfts := []collection.NftIDs{{Symbol: args[1], IDs: args[2:]}}
			if !a.confirm(cmd, "Transfer %s %s from %s to %s?", strings.ToUpper(args[1]), strings.Join(args[2:], ", "), c.Account(), args[0]) {
				return nil
			}
			receipt, err := c.Transfer(cmd.Context(), args[0], nfts, collection.TypeUser, toType)
			if err != nil {
				return err
			}
			return printReceipt(cmd, receipt)
		})
	cmd.Flags().BoolVar(&toContract, "to-contract", false, "the receiver is a contract")
	return cmd
}

func newNftBurnCmd(a *app) *cobra.Command {
	return collectionCmd(a, "nft-burn SYMBOL ID...", "Burn NFT instances",
		cobra.MinimumNArgs(2), func(cmd *cobra.Command, c *collection.Collection, args []string) error {
			if !a.confirm(cmd, "Burn %s %s? This cannot be undone", strings.ToUpper(args[0]), strings.Join(args[1:], ", ")) {
				return nil
			}
			receipt, err := c.Burn(cmd.Context(), []collection.NftIDs{{Symbol: args[0], IDs: args[1:]}})
			if err != nil {
				return err
			}
			return printReceipt(cmd, receipt)
		})
}
