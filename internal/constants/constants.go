package constants

import "time"

// Broadcast defaults
const (
	DefaultAppID = "ssc-mainnet-hive"
	ChainHive    = "hive"
)

// Redis keys
const (
	CacheKeyPrefix = "hiveengine:cache:"
)

// Redis Pub/Sub channels
const (
	PubSubChannelOps = "hiveengine:ops"
)

// Limits
const (
	FindPageSize     = 1000
	DefaultCacheTTL  = 30 * time.Second
	MinSellAllValue  = "0.001"
	MaxNftMarketFee  = 10000
	BlockBatchSize   = 50
	PeggedHiveSymbol = "SWAP.HIVE"
	HostHiveAsset    = "HIVE"
	DepositAccount   = "honey-swap"
)

// Contract names
const (
	ContractTokens     = "tokens"
	ContractMarket     = "market"
	ContractNft        = "nft"
	ContractNftMarket  = "nftmarket"
	ContractHivePegged = "hivepegged"
)

// Contract tables
const (
	TableTokens        = "tokens"
	TableBalances      = "balances"
	TableMetrics       = "metrics"
	TableBuyBook       = "buyBook"
	TableSellBook      = "sellBook"
	TableTradesHistory = "tradesHistory"
	TableNfts          = "nfts"
	TableNftParams     = "params"
)

// Per-symbol NFT table suffixes
const (
	SuffixInstances     = "instances"
	SuffixSellBook      = "sellBook"
	SuffixOpenInterest  = "openInterest"
	SuffixTradesHistory = "tradesHistory"
)

// CachedTables lists the contract tables whose full listings may be served
// from the query cache. Builders never read through the cache.
var CachedTables = map[string]bool{
	ContractTokens + "." + TableTokens: true,
	ContractNft + "." + TableNfts:      true,
	ContractNft + "." + TableNftParams: true,
}
