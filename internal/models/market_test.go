package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMarketMetrics_SellPrice(t *testing.T) {
	tests := []struct {
		name    string
		metrics MarketMetrics
		want    string
	}{
		{"bid present", MarketMetrics{HighestBid: "0.5", LastPrice: "1.0"}, "0.5"},
		{"zero bid falls back", MarketMetrics{HighestBid: "0", LastPrice: "1.0"}, "1.0"},
		{"zero with decimals", MarketMetrics{HighestBid: "0.00000000", LastPrice: "2"}, "2"},
		{"missing bid", MarketMetrics{LastPrice: "3.1"}, "3.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.metrics.SellPrice())
		})
	}
}
