package constants

// Redis keys
const (
	RedisKeyRecentSwaps = "swaps:recent"
	RedisKeyPricePrefix = "price:"
)

// Redis Pub/Sub channels
const (
	PubSubChannelSwaps       = "swaps:all"
	PubSubChannelPairPrefix  = "swaps:pair:"
	PubSubChannelAssessments = "risk:assessments"
)

// Limits
const (
	MaxRecentSwaps = 100
)

// Feature flag keys
const (
	FlagRiskAssessmentEnabled = "risk.assessment.enabled"
)

// Chainlink ETH/USD aggregator (mainnet). Answers carry 8 decimals.
const (
	ChainlinkEthUsdFeed     = "0x5f4eC3Df9cbd43714FE2740f5E3616155c5b8419"
	ChainlinkPriceDecimals  = 8
	FallbackEthPriceUSD     = 3000.0 // development fallback when the feed is unreachable
	LatestRoundDataSelector = "0xfeaf968c"
)

// WETH mainnet address, lowercase hex.
const WETHAddress = "0xc02aaa39b223fe8d0a0e5c4f27ead9083c756cc2"

// Tracked Uniswap V2 pairs: pair contract address (lowercase) to display
// name. token0/token1 ordering is fixed per pair by address sort, so
// WETHIsToken0 records which side of the Swap amounts is WETH.
var TrackedPairs = map[string]PairInfo{
	// USDC/WETH
	"0xb4e16d0168e52d35cacd2c6185b44281ec28c9dc": {Name: "USDC/WETH", WETHIsToken0: false},
	// WETH/USDT
	"0x0d4a11d5eeaac28ec3f61d100daf4d40471f1852": {Name: "WETH/USDT", WETHIsToken0: true},
	// DAI/WETH
	"0xa478c2975ab1ea89e8196811f51a7b7ade33eb11": {Name: "DAI/WETH", WETHIsToken0: false},
}

// PairInfo describes a tracked pair.
type PairInfo struct {
	Name         string
	WETHIsToken0 bool
}

// DefaultPairAddresses returns the tracked pair addresses in a stable order.
func DefaultPairAddresses() []string {
	return []string{
		"0xb4e16d0168e52d35cacd2c6185b44281ec28c9dc",
		"0x0d4a11d5eeaac28ec3f61d100daf4d40471f1852",
		"0xa478c2975ab1ea89e8196811f51a7b7ade33eb11",
	}
}
