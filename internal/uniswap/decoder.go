// Package uniswap decodes Uniswap V2 Swap event logs into swap records.
package uniswap

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"golang.org/x/crypto/sha3"

	"github.com/Elakiya-Elangovan-003/defi-risk-pipeline/internal/constants"
	"github.com/Elakiya-Elangovan-003/defi-risk-pipeline/internal/ethrpc"
	"github.com/Elakiya-Elangovan-003/defi-risk-pipeline/internal/models"
)

// SwapEventSignature is the canonical Uniswap V2 Swap event signature.
const SwapEventSignature = "Swap(address,uint256,uint256,uint256,uint256,address)"

// ErrUnknownPair is returned for logs emitted by pairs outside the tracked
// set; the WETH side cannot be determined for them.
var ErrUnknownPair = errors.New("unknown pair address")

// ErrNotSwapEvent is returned when a log does not carry the Swap topic.
var ErrNotSwapEvent = errors.New("not a uniswap v2 swap event")

var swapTopic = eventTopic(SwapEventSignature)

// SwapTopic returns the keccak-256 topic hash for the Swap event.
func SwapTopic() string {
	return swapTopic
}

func eventTopic(signature string) string {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(signature))
	return "0x" + fmt.Sprintf("%x", h.Sum(nil))
}

// DecodeSwapLog decodes a raw Swap log into a SwapRecord. The data payload
// carries four uint256 words (amount0In, amount1In, amount0Out,
// amount1Out); sender and recipient are indexed topics. blockTime stamps
// the record since eth_getLogs does not include block timestamps.
func DecodeSwapLog(log ethrpc.Log, blockTime time.Time) (*models.SwapRecord, error) {
	if len(log.Topics) != 3 || !strings.EqualFold(log.Topics[0], swapTopic) {
		return nil, ErrNotSwapEvent
	}

	pairAddr := strings.ToLower(log.Address)
	info, ok := constants.TrackedPairs[pairAddr]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPair, pairAddr)
	}

	words, err := splitDataWords(log.Data, 4)
	if err != nil {
		return nil, fmt.Errorf("malformed swap data: %w", err)
	}

	amount0In := weiToEth(words[0])
	amount1In := weiToEth(words[1])
	amount0Out := weiToEth(words[2])
	amount1Out := weiToEth(words[3])

	// The WETH value of the trade is whatever moved on the WETH side.
	var ethAmount float64
	if info.WETHIsToken0 {
		ethAmount = amount0In + amount0Out
	} else {
		ethAmount = amount1In + amount1Out
	}

	blockNumber, err := ethrpc.ParseHexUint64(log.BlockNumber)
	if err != nil {
		return nil, fmt.Errorf("malformed block number: %w", err)
	}
	logIndex, err := ethrpc.ParseHexUint64(log.LogIndex)
	if err != nil {
		return nil, fmt.Errorf("malformed log index: %w", err)
	}

	return &models.SwapRecord{
		TxHash:      log.TransactionHash,
		LogIndex:    logIndex,
		BlockNumber: blockNumber,
		Timestamp:   blockTime,
		PairAddress: pairAddr,
		Pair:        info.Name,
		Sender:      topicToAddress(log.Topics[1]),
		Recipient:   topicToAddress(log.Topics[2]),
		Amount0In:   amount0In,
		Amount1In:   amount1In,
		Amount0Out:  amount0Out,
		Amount1Out:  amount1Out,
		EthAmount:   ethAmount,
	}, nil
}

// splitDataWords slices the 0x-prefixed data payload into n 32-byte words.
func splitDataWords(data string, n int) ([]*big.Int, error) {
	hexData := strings.TrimPrefix(strings.TrimSpace(data), "0x")
	if len(hexData) != n*64 {
		return nil, fmt.Errorf("expected %d words, got %d hex chars", n, len(hexData))
	}
	words := make([]*big.Int, n)
	for i := 0; i < n; i++ {
		w, ok := new(big.Int).SetString(hexData[i*64:(i+1)*64], 16)
		if !ok {
			return nil, fmt.Errorf("invalid word %d", i)
		}
		words[i] = w
	}
	return words, nil
}

// topicToAddress extracts the 20-byte address from a 32-byte indexed topic.
func topicToAddress(topic string) string {
	t := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(topic)), "0x")
	if len(t) < 40 {
		return "0x" + t
	}
	return "0x" + t[len(t)-40:]
}

var weiPerEth = new(big.Float).SetFloat64(1e18)

// weiToEth converts a wei quantity to ETH, assuming 18 decimals.
func weiToEth(wei *big.Int) float64 {
	f := new(big.Float).SetInt(wei)
	f.Quo(f, weiPerEth)
	out, _ := f.Float64()
	return out
}
