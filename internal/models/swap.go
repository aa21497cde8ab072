package models

import "time"

// SwapRecord is one decoded Uniswap V2 Swap event. EthAmount is the
// WETH-side value of the trade in ETH and is the only field the risk
// pipeline depends on; the rest is kept for storage and explainability.
type SwapRecord struct {
	TxHash      string    `json:"tx_hash"`
	LogIndex    uint64    `json:"log_index"`
	BlockNumber uint64    `json:"block_number"`
	Timestamp   time.Time `json:"timestamp"`
	PairAddress string    `json:"pair_address"`
	Pair        string    `json:"pair"`
	Sender      string    `json:"sender"`
	Recipient   string    `json:"recipient"`
	Amount0In   float64   `json:"amount0_in"`
	Amount1In   float64   `json:"amount1_in"`
	Amount0Out  float64   `json:"amount0_out"`
	Amount1Out  float64   `json:"amount1_out"`
	EthAmount   float64   `json:"eth_amount"`
	EthUSD      float64   `json:"eth_usd"` // ETH/USD at ingest time, 0 if unknown
}
