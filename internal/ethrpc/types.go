package ethrpc

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"
)

// RPCError represents a JSON-RPC error response
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return e.Message
}

// Log is an Ethereum event log as returned by eth_getLogs. Quantity fields
// are hex-encoded strings on the wire.
type Log struct {
	Address         string   `json:"address"`
	Topics          []string `json:"topics"`
	Data            string   `json:"data"`
	BlockNumber     string   `json:"blockNumber"`
	TransactionHash string   `json:"transactionHash"`
	LogIndex        string   `json:"logIndex"`
	Removed         bool     `json:"removed"`
}

// LogsResponse is the response from eth_getLogs
type LogsResponse struct {
	Result []Log     `json:"result"`
	Error  *RPCError `json:"error"`
}

// StringResponse is the response for calls returning a single hex string
// (eth_blockNumber, eth_call).
type StringResponse struct {
	Result string    `json:"result"`
	Error  *RPCError `json:"error"`
}

// FilterQuery describes an eth_getLogs filter.
type FilterQuery struct {
	FromBlock uint64
	ToBlock   uint64
	Addresses []string
	Topics    []string
}

func (q FilterQuery) toParams() map[string]interface{} {
	params := map[string]interface{}{
		"fromBlock": EncodeUint64(q.FromBlock),
		"toBlock":   EncodeUint64(q.ToBlock),
	}
	if len(q.Addresses) > 0 {
		params["address"] = q.Addresses
	}
	if len(q.Topics) > 0 {
		topics := make([]interface{}, len(q.Topics))
		for i, t := range q.Topics {
			topics[i] = t
		}
		params["topics"] = topics
	}
	return params
}

// EncodeUint64 renders a quantity as 0x-prefixed hex without leading zeros.
func EncodeUint64(v uint64) string {
	return "0x" + strconv.FormatUint(v, 16)
}

// ParseHexUint64 parses a 0x-prefixed hex quantity.
func ParseHexUint64(s string) (uint64, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "0x")
	if s == "" {
		return 0, fmt.Errorf("empty hex quantity")
	}
	v, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid hex quantity %q: %w", s, err)
	}
	return v, nil
}

// ParseHexBig parses an arbitrary-width 0x-prefixed hex quantity.
func ParseHexBig(s string) (*big.Int, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "0x")
	if s == "" {
		return nil, fmt.Errorf("empty hex quantity")
	}
	v, ok := new(big.Int).SetString(s, 16)
	if !ok {
		return nil, fmt.Errorf("invalid hex quantity %q", s)
	}
	return v, nil
}
