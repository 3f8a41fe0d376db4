package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/aman-zulfiqar/hive-engine-go/internal/api"
	"github.com/aman-zulfiqar/hive-engine-go/internal/collection"
	"github.com/aman-zulfiqar/hive-engine-go/internal/market"
	"github.com/aman-zulfiqar/hive-engine-go/internal/models"
	"github.com/aman-zulfiqar/hive-engine-go/internal/nft"
	"github.com/aman-zulfiqar/hive-engine-go/internal/nftmarket"
	"github.com/aman-zulfiqar/hive-engine-go/internal/tokens"
	"github.com/aman-zulfiqar/hive-engine-go/internal/wallet"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var (
	blockNumberRe = regexp.MustCompile(`^[0-9]+$`)
	symbolRe      = regexp.MustCompile(`^[A-Z0-9._-]{1,16}$`)
	accountRe     = regexp.MustCompile(`^[a-z0-9._-]{2,16}$`)
)

func newInfoCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "info [block|SYMBOL|account|txid]...",
		Short: "Show chain info, a block, a token or NFT, a wallet or a transaction",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			client, err := a.client(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(args) == 0 {
				return chainInfo(ctx, out, client)
			}
			for _, obj := range args {
				switch {
				case blockNumberRe.MatchString(obj):
					err = blockInfo(ctx, out, client, obj)
				case symbolRe.MatchString(obj):
					err = symbolInfo(ctx, out, client, obj)
				case len(strings.Split(obj, "-")[0]) == 40:
					err = transactionInfo(ctx, out, client, obj)
				case accountRe.MatchString(obj):
					err = walletInfo(ctx, out, client, obj)
				default:
					err = fmt.Errorf("cannot tell what %q is", obj)
				}
				if err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func chainInfo(ctx context.Context, out io.Writer, client *api.Client) error {
	latest, err := client.LatestBlock(ctx)
	if err != nil {
		return err
	}
	if latest == nil {
		return errors.New("node returned no latest block")
	}
	status, err := client.Status(ctx)
	if err != nil {
		return err
	}
	ts, err := tokens.LoadAll(ctx, client)
	if err != nil {
		return err
	}
	ns, err := nft.LoadAll(ctx, client, nil)
	if err != nil {
		return err
	}

	keyValue(out, [][2]any{
		{"latest block number", latest.BlockNumber},
		{"latest hive block", latest.RefHiveBlockNumber},
		{"latest timestamp", latest.Timestamp},
		{"transactions", len(latest.Transactions)},
		{"virtualTransactions", len(latest.VirtualTransactions)},
		{"Number of created tokens", ts.Len()},
		{"Number of created Nft symbols", ns.Len()},
		{"lastParsedHiveBlockNumber", status.LastParsedHiveBlockNumber},
		{"SSCnodeVersion", status.SSCNodeVersion},
	})
	return nil
}

func blockInfo(ctx context.Context, out io.Writer, client *api.Client, obj string) error {
	num, err := strconv.ParseInt(obj, 10, 64)
	if err != nil {
		return err
	}
	b, err := client.Block(ctx, num)
	if err != nil {
		return err
	}
	if b == nil {
		fmt.Fprintf(out, "Block %d does not exist yet\n", num)
		return nil
	}
	fmt.Fprintf(out, "Block info: %d\n", num)
	for i, tx := range b.Transactions {
		keyValue(out, [][2]any{
			{"trx_nr", i + 1},
			{"action", tx.Action},
			{"contract", tx.Contract},
			{"logs", indentJSON(tx.Logs)},
			{"payload", indentJSON(tx.Payload)},
			{"refHiveBlockNumber", tx.RefHiveBlockNumber},
			{"timestamp", b.Timestamp},
			{"sender", tx.Sender},
			{"transactionId", tx.TransactionID},
		})
	}
	return nil
}

func symbolInfo(ctx context.Context, out io.Writer, client *api.Client, symbol string) error {
	tok, err := tokens.Load(ctx, client, symbol)
	if err != nil && !errors.Is(err, tokens.ErrTokenDoesNotExist) {
		return err
	}
	n, err := nft.Load(ctx, client, nil, symbol)
	if err != nil && !errors.Is(err, nft.ErrNftDoesNotExist) {
		return err
	}
	if tok == nil && n == nil {
		fmt.Fprintf(out, "Could not find symbol %s\n", symbol)
		return nil
	}

	if tok != nil {
		fmt.Fprintf(out, "Token: %s\n", symbol)
		rows := [][2]any{
			{"symbol", tok.Symbol},
			{"issuer", tok.Issuer},
			{"name", tok.Name},
		}
		rows = append(rows, metadataRows(tok.Metadata)...)
		rows = append(rows,
			[2]any{"precision", tok.Precision},
			[2]any{"maxSupply", tok.MaxSupply},
			[2]any{"supply", tok.Supply},
			[2]any{"circulatingSupply", tok.CirculatingSupply},
			[2]any{"stakingEnabled", tok.StakingEnabled},
			[2]any{"unstakingCooldown", tok.UnstakingCooldown},
			[2]any{"delegationEnabled", tok.DelegationEnabled},
			[2]any{"undelegationCooldown", tok.UndelegationCooldown},
		)
		m, err := tok.GetMarketInfo(ctx)
		if err != nil {
			return err
		}
		if m != nil {
			rows = append(rows,
				[2]any{"volume", m.Volume},
				[2]any{"lastPrice", m.LastPrice},
				[2]any{"lowestAsk", m.LowestAsk},
				[2]any{"highestBid", m.HighestBid},
				[2]any{"lastDayPrice", m.LastDayPrice},
				[2]any{"priceChangePercent", m.PriceChangePercent},
			)
		}
		keyValue(out, rows)
	}

	if n != nil {
		fmt.Fprintf(out, "NFT: %s\n", symbol)
		rows := [][2]any{
			{"symbol", n.Symbol},
			{"issuer", n.Issuer},
			{"name", n.Name},
			{"orgName", n.OrgName},
			{"productName", n.ProductName},
		}
		rows = append(rows, metadataRows(n.Metadata)...)
		rows = append(rows,
			[2]any{"maxSupply", n.MaxSupply},
			[2]any{"supply", n.Supply},
			[2]any{"circulatingSupply", n.CirculatingSupply},
			[2]any{"properties", strings.Join(n.PropertyNames(), ", ")},
			[2]any{"groupBy", strings.Join(n.GroupBy, ", ")},
			[2]any{"authorizedIssuingAccounts", strings.Join(n.AuthorizedIssuingAccounts, ", ")},
			[2]any{"delegationEnabled", n.DelegationEnabled},
		)
		keyValue(out, rows)

		fmt.Fprintf(out, "%s properties\n", symbol)
		t := newTable(out, "Property", "type", "isReadOnly", "authorizedEditingAccounts", "authorizedEditingContracts")
		for _, name := range n.PropertyNames() {
			p := n.Properties[name]
			t.AppendRow(table.Row{name, p.Type, p.IsReadOnly,
				strings.Join(p.AuthorizedEditingAccounts, ", "), strings.Join(p.AuthorizedEditingContracts, ", ")})
		}
		t.Render()
	}
	return nil
}

func metadataRows(raw string) [][2]any {
	var rows [][2]any
	meta := map[string]any{}
	if err := json.Unmarshal([]byte(raw), &meta); err != nil {
		return nil
	}
	for _, key := range []string{"url", "icon", "desc"} {
		if v, ok := meta[key]; ok {
			rows = append(rows, [2]any{"metadata_" + key, v})
		}
	}
	return rows
}

func transactionInfo(ctx context.Context, out io.Writer, client *api.Client, txid string) error {
	raw, err := client.GetTransactionInfo(ctx, txid)
	if err != nil {
		return err
	}
	var tx struct {
		models.Transaction
		BlockNumber int64 `json:"blockNumber"`
	}
	found, err := api.DecodeOne(raw, &tx)
	if err != nil {
		return err
	}
	if !found {
		fmt.Fprintf(out, "trx_id: %s is not a valid hive-engine trx_id!\n", txid)
		return nil
	}
	fmt.Fprintf(out, "Transaction Id: %s\n", txid)
	keyValue(out, [][2]any{
		{"blockNumber", tx.BlockNumber},
		{"action", tx.Action},
		{"contract", tx.Contract},
		{"logs", indentJSON(tx.Logs)},
		{"payload", indentJSON(tx.Payload)},
		{"refHiveBlockNumber", tx.RefHiveBlockNumber},
		{"sender", tx.Sender},
		{"transactionId", tx.TransactionID},
	})
	return nil
}

func walletInfo(ctx context.Context, out io.Writer, client *api.Client, account string) error {
	w, err := wallet.New(client, nil, account)
	if err != nil {
		return err
	}
	if err := w.Refresh(ctx); err != nil {
		return err
	}
	fmt.Fprintf(out, "Token Wallet: %s\n", account)
	renderBalances(out, w.Balances())
	return nil
}

func renderBalances(out io.Writer, balances []models.Balance) {
	sort.Slice(balances, func(i, j int) bool { return balances[i].Symbol < balances[j].Symbol })
	t := newTable(out, "symbol", "balance", "stake", "pendingUnstake", "delegationsIn", "delegationsOut", "pendingUndelegations")
	for _, b := range balances {
		t.AppendRow(table.Row{b.Symbol, b.Balance, dash(b.Stake), dash(b.PendingUnstake),
			dash(b.DelegationsIn), dash(b.DelegationsOut), dash(b.PendingUndelegations)})
	}
	t.Render()
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func newTokensCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "tokens",
		Short: "List every token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.client(cmd.Context())
			if err != nil {
				return err
			}
			ts, err := tokens.LoadAll(cmd.Context(), client)
			if err != nil {
				return err
			}
			t := newTable(cmd.OutOrStdout(), "Symbol", "Name", "Issuer", "Precision", "Supply")
			for _, tok := range ts.List() {
				t.AppendRow(table.Row{tok.Symbol, tok.Name, tok.Issuer, tok.Precision, tok.Supply})
			}
			t.Render()
			return nil
		},
	}
}

func newNftsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "nfts",
		Short: "List every NFT symbol",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.client(cmd.Context())
			if err != nil {
				return err
			}
			ns, err := nft.LoadAll(cmd.Context(), client, nil)
			if err != nil {
				return err
			}
			t := newTable(cmd.OutOrStdout(), "Symbol", "Name", "Issuer", "Supply", "MaxSupply")
			for _, n := range ns.List() {
				t.AppendRow(table.Row{n.Symbol, n.Name, n.Issuer, n.Supply, n.MaxSupply})
			}
			t.Render()
			return nil
		},
	}
}

func newNftParamsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "nft-params",
		Short: "Show the nft contract parameters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.client(cmd.Context())
			if err != nil {
				return err
			}
			ns, err := nft.LoadAll(cmd.Context(), client, nil)
			if err != nil {
				return err
			}
			params, err := ns.Params(cmd.Context())
			if err != nil {
				return err
			}
			keys := make([]string, 0, len(params))
			for k := range params {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			rows := make([][2]any, 0, len(keys))
			for _, k := range keys {
				v, _ := json.Marshal(params[k])
				rows = append(rows, [2]any{k, string(v)})
			}
			keyValue(cmd.OutOrStdout(), rows)
			return nil
		},
	}
}

func newRichlistCmd(a *app) *cobra.Command {
	var top int
	cmd := &cobra.Command{
		Use:   "richlist SYMBOL",
		Short: "Show the largest holders of a token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			client, err := a.client(ctx)
			if err != nil {
				return err
			}
			tok, err := tokens.Load(ctx, client, args[0])
			if err != nil {
				return err
			}
			holders, err := tok.GetHolders(ctx, 1000, 0)
			if err != nil {
				return err
			}
			price := decimal.Zero
			if m, err := tok.GetMarketInfo(ctx); err != nil {
				return err
			} else if m != nil {
				price, _ = wallet.ParseQuantity(m.LastPrice)
			}

			type holder struct {
				account string
				balance decimal.Decimal
			}
			list := make([]holder, 0, len(holders))
			for _, h := range holders {
				bal, err := wallet.ParseQuantity(h.Balance)
				if err != nil {
					return err
				}
				list = append(list, holder{account: h.Account, balance: bal})
			}
			sort.SliceStable(list, func(i, j int) bool { return list[i].balance.GreaterThan(list[j].balance) })
			if top > 0 && len(list) > top {
				list = list[:top]
			}

			t := newTable(cmd.OutOrStdout(), "Balance", "Account", "Value [HIVE]")
			for _, h := range list {
				t.AppendRow(table.Row{h.balance.String(), h.account, h.balance.Mul(price).StringFixed(3)})
			}
			t.Render()
			return nil
		},
	}
	cmd.Flags().IntVarP(&top, "top", "t", 50, "show only the top n accounts")
	return cmd
}

func newBalanceCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "balance",
		Short: "Show the token balances of an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			account, err := a.accountName()
			if err != nil {
				return err
			}
			client, err := a.client(cmd.Context())
			if err != nil {
				return err
			}
			return walletInfo(cmd.Context(), cmd.OutOrStdout(), client, account)
		},
	}
}

func newHistoryCmd(a *app) *cobra.Command {
	var limit, offset int
	cmd := &cobra.Command{
		Use:   "history SYMBOL",
		Short: "Show the account history for a token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			account, err := a.accountName()
			if err != nil {
				return err
			}
			client, err := a.client(cmd.Context())
			if err != nil {
				return err
			}
			w, err := wallet.New(client, nil, account)
			if err != nil {
				return err
			}
			entries, err := w.GetHistory(cmd.Context(), args[0], limit, offset)
			if err != nil {
				return err
			}
			t := newTable(cmd.OutOrStdout(), "Block", "Operation", "From", "To", "Quantity", "Memo")
			for _, e := range entries {
				t.AppendRow(table.Row{e.BlockNumber, e.Operation, e.From, e.To, e.Quantity, e.Memo})
			}
			t.Render()
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "l", 100, "entries to show")
	cmd.Flags().IntVar(&offset, "offset", 0, "entries to skip")
	return cmd
}

// newBookCmd shows the market book of a token, or the open orders of
// --account when it is given
func newBookCmd(a *app, name string) *cobra.Command {
	var limit int
	side := market.SideBuy
	if name == "sellbook" {
		side = market.SideSell
	}
	cmd := &cobra.Command{
		Use:   name + " [SYMBOL]",
		Short: "Show the " + side + " book of a token or an account",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			client, err := a.client(ctx)
			if err != nil {
				return err
			}
			symbol := ""
			if len(args) == 1 {
				symbol = args[0]
			}

			var orders []models.Order
			if a.account != "" || symbol == "" {
				account, err := a.accountName()
				if err != nil {
					return err
				}
				w, err := wallet.New(client, nil, account)
				if err != nil {
					return err
				}
				if side == market.SideBuy {
					orders, err = w.GetBuyBook(ctx, symbol, limit, 0)
				} else {
					orders, err = w.GetSellBook(ctx, symbol, limit, 0)
				}
				if err != nil {
					return err
				}
			} else {
				m := market.New(client, nil)
				if side == market.SideBuy {
					orders, err = m.GetBuyBook(ctx, symbol, "", limit, 0)
				} else {
					orders, err = m.GetSellBook(ctx, symbol, "", limit, 0)
				}
				if err != nil {
					return err
				}
			}

			t := newTable(cmd.OutOrStdout(), "ID", "Account", "Symbol", "Quantity", "Price")
			for _, o := range orders {
				t.AppendRow(table.Row{o.ID.String(), o.Account, o.Symbol, o.Quantity, o.Price})
			}
			t.Render()
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "l", tokens.DefaultBookLimit, "orders to show")
	return cmd
}

func newCollectionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "collection ACCOUNT [SYMBOL]...",
		Short: "Show the NFT instances held by an account",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.client(cmd.Context())
			if err != nil {
				return err
			}
			c, err := collection.New(client, nil, args[0])
			if err != nil {
				return err
			}
			if err := c.Refresh(cmd.Context(), args[1:]...); err != nil {
				return err
			}
			t := newTable(cmd.OutOrStdout(), "Symbol", "Count", "IDs")
			for _, symbol := range c.Symbols() {
				insts := c.Instances(symbol)
				ids := make([]string, 0, len(insts))
				for _, inst := range insts {
					ids = append(ids, inst.ID.String())
				}
				t.AppendRow(table.Row{symbol, len(insts), strings.Join(ids, ", ")})
			}
			t.Render()
			return nil
		},
	}
}

// nftFilterFlags binds the filters shared by the NFT market queries
func nftFilterFlags(cmd *cobra.Command, f *nftmarket.Filter, grouping *string) {
	cmd.Flags().StringVarP(grouping, "grouping", "g", "", "grouping property, or property=value")
	cmd.Flags().StringVarP(&f.GroupingValue, "value", "V", "", "grouping value when --grouping names only the property")
	cmd.Flags().StringVarP(&f.PriceSymbol, "price-symbol", "s", "", "only this price symbol")
	cmd.Flags().IntVarP(&f.Limit, "limit", "l", 0, "entries to show (0 = all)")
}

func applyGrouping(f *nftmarket.Filter, grouping string) {
	if name, value, ok := strings.Cut(grouping, "="); ok {
		f.GroupingName, f.GroupingValue = name, value
		return
	}
	if grouping != "" {
		f.GroupingName = grouping
	}
}

func newNftSellBookCmd(a *app) *cobra.Command {
	var f nftmarket.Filter
	var grouping string
	cmd := &cobra.Command{
		Use:   "nft-sellbook SYMBOL",
		Short: "Show the NFT market sell book of a symbol",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.client(cmd.Context())
			if err != nil {
				return err
			}
			applyGrouping(&f, grouping)
			f.Account = a.account
			orders, err := nftmarket.New(client, nil).GetSellBook(cmd.Context(), args[0], f)
			if err != nil {
				return err
			}
			t := newTable(cmd.OutOrStdout(), "NFT ID", "Account", "Price", "Price Symbol", "Fee", "Grouping")
			for _, o := range orders {
				t.AppendRow(table.Row{o.NftID, o.Account, o.Price, o.PriceSymbol, o.Fee, formatGrouping(o.Grouping)})
			}
			t.Render()
			return nil
		},
	}
	nftFilterFlags(cmd, &f, &grouping)
	cmd.Flags().StringVarP(&f.NftID, "nft-id", "n", "", "only this NFT id")
	return cmd
}

func newNftOpenCmd(a *app) *cobra.Command {
	var f nftmarket.Filter
	var grouping string
	cmd := &cobra.Command{
		Use:   "nft-open SYMBOL",
		Short: "Show the open interest of an NFT symbol",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.client(cmd.Context())
			if err != nil {
				return err
			}
			applyGrouping(&f, grouping)
			rows, err := nftmarket.New(client, nil).GetOpenInterest(cmd.Context(), args[0], f)
			if err != nil {
				return err
			}
			t := newTable(cmd.OutOrStdout(), "Side", "Price Symbol", "Grouping", "Count")
			for _, r := range rows {
				t.AppendRow(table.Row{r.Side, r.PriceSymbol, formatGrouping(r.Grouping), r.Count})
			}
			t.Render()
			return nil
		},
	}
	nftFilterFlags(cmd, &f, &grouping)
	return cmd
}

func newNftTradesCmd(a *app) *cobra.Command {
	var f nftmarket.Filter
	cmd := &cobra.Command{
		Use:   "nft-trades SYMBOL",
		Short: "Show the NFT market trades of a symbol",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.client(cmd.Context())
			if err != nil {
				return err
			}
			f.Account = a.account
			trades, err := nftmarket.New(client, nil).GetTradesHistory(cmd.Context(), args[0], f)
			if err != nil {
				return err
			}
			t := newTable(cmd.OutOrStdout(), "Type", "Account", "Price", "Price Symbol", "Timestamp")
			for _, tr := range trades {
				t.AppendRow(table.Row{tr.Type, tr.Account, tr.Price, tr.PriceSymbol, tr.Timestamp})
			}
			t.Render()
			return nil
		},
	}
	cmd.Flags().StringVarP(&f.PriceSymbol, "price-symbol", "s", "", "only this price symbol")
	cmd.Flags().IntVarP(&f.Limit, "limit", "l", 0, "entries to show (0 = all)")
	return cmd
}

func formatGrouping(g map[string]string) string {
	keys := make([]string, 0, len(g))
	for k := range g {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+g[k])
	}
	return strings.Join(parts, ", ")
}
