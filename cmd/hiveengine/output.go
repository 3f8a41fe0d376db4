package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/aman-zulfiqar/hive-engine-go/internal/chain"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func newTable(w io.Writer, header ...any) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row(header))
	return t
}

// keyValue renders rows of two columns
func keyValue(w io.Writer, rows [][2]any) {
	t := newTable(w, "Key", "Value")
	for _, r := range rows {
		t.AppendRow(table.Row{r[0], r[1]})
	}
	t.Render()
}

// indentJSON pretty prints a JSON string; anything else is returned as is
func indentJSON(s string) string {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return s
	}
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return s
	}
	return string(out)
}

func printReceipt(cmd *cobra.Command, receipt chain.Receipt) error {
	out, err := json.MarshalIndent(receipt, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return err
}

func printReceipts(cmd *cobra.Command, receipts []chain.Receipt) error {
	for _, r := range receipts {
		if err := printReceipt(cmd, r); err != nil {
			return err
		}
	}
	return nil
}

// confirm asks a yes/no question unless --yes was given
func (a *app) confirm(cmd *cobra.Command, format string, args ...any) bool {
	if a.yes {
		return true
	}
	fmt.Fprintf(cmd.OutOrStdout(), format+" [y/N]: ", args...)
	if a.reader == nil {
		a.reader = bufio.NewReader(a.in)
	}
	line, _ := a.reader.ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

func parseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q", s)
	}
	if !d.IsPositive() {
		return decimal.Zero, fmt.Errorf("amount must be positive, got %s", s)
	}
	return d, nil
}
