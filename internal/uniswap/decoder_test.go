package uniswap

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Elakiya-Elangovan-003/defi-risk-pipeline/internal/ethrpc"
)

const (
	// Well-known Uniswap V2 Swap topic hash; pins the keccak derivation.
	knownSwapTopic = "0xd78ad95fa46c994b6551d0da85fc275fe613ce37657fb8d5e3d130840159d822"

	usdcWethPair = "0xB4e16d0168e52d35CaCD2c6185b44281Ec28C9Dc"
	senderTopic  = "0x000000000000000000000000ab5801a7d398351b8be11c439e05c5b3259aec9b"
	toTopic      = "0x000000000000000000000000de0b295669a9fd93d5f28d9ec85e40f4cb697bae"
)

func pad64(hexVal string) string {
	return strings.Repeat("0", 64-len(hexVal)) + hexVal
}

func TestSwapTopic(t *testing.T) {
	assert.Equal(t, knownSwapTopic, SwapTopic())
}

func TestDecodeSwapLog(t *testing.T) {
	// USDC/WETH pair: token1 is WETH. 2 ETH in, 5000 USDC-equivalent out
	// (USDC side uses 6 decimals so its float value is tiny when scaled by
	// 1e18; irrelevant for the ETH amount).
	data := "0x" +
		pad64("0") + // amount0In
		pad64("1bc16d674ec80000") + // amount1In = 2 ETH
		pad64("12a05f200") + // amount0Out
		pad64("0") // amount1Out

	blockTime := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	log := ethrpc.Log{
		Address:         usdcWethPair,
		Topics:          []string{knownSwapTopic, senderTopic, toTopic},
		Data:            data,
		BlockNumber:     "0x112a880",
		TransactionHash: "0xabc123",
		LogIndex:        "0x2a",
	}

	swap, err := DecodeSwapLog(log, blockTime)
	require.NoError(t, err)

	assert.Equal(t, "0xb4e16d0168e52d35cacd2c6185b44281ec28c9dc", swap.PairAddress)
	assert.Equal(t, "USDC/WETH", swap.Pair)
	assert.Equal(t, "0xab5801a7d398351b8be11c439e05c5b3259aec9b", swap.Sender)
	assert.Equal(t, "0xde0b295669a9fd93d5f28d9ec85e40f4cb697bae", swap.Recipient)
	assert.InDelta(t, 2.0, swap.Amount1In, 1e-12)
	assert.Zero(t, swap.Amount1Out)
	assert.InDelta(t, 2.0, swap.EthAmount, 1e-12)
	assert.Equal(t, uint64(18000000), swap.BlockNumber)
	assert.Equal(t, uint64(42), swap.LogIndex)
	assert.Equal(t, blockTime, swap.Timestamp)
}

func TestDecodeSwapLog_WETHOutSide(t *testing.T) {
	// Same pair, opposite direction: WETH leaves the pool via amount1Out.
	data := "0x" +
		pad64("12a05f200") + // amount0In
		pad64("0") + // amount1In
		pad64("0") + // amount0Out
		pad64("de0b6b3a7640000") // amount1Out = 1 ETH

	log := ethrpc.Log{
		Address:         usdcWethPair,
		Topics:          []string{knownSwapTopic, senderTopic, toTopic},
		Data:            data,
		BlockNumber:     "0x1",
		TransactionHash: "0xdef456",
		LogIndex:        "0x0",
	}

	swap, err := DecodeSwapLog(log, time.Now())
	require.NoError(t, err)
	assert.InDelta(t, 1.0, swap.EthAmount, 1e-12)
}

func TestDecodeSwapLog_UnknownPair(t *testing.T) {
	log := ethrpc.Log{
		Address:     "0x0000000000000000000000000000000000000001",
		Topics:      []string{knownSwapTopic, senderTopic, toTopic},
		Data:        "0x" + strings.Repeat("0", 256),
		BlockNumber: "0x1",
		LogIndex:    "0x0",
	}
	swap, err := DecodeSwapLog(log, time.Now())
	assert.ErrorIs(t, err, ErrUnknownPair)
	assert.Nil(t, swap)
}

func TestDecodeSwapLog_WrongTopic(t *testing.T) {
	log := ethrpc.Log{
		Address: usdcWethPair,
		Topics:  []string{"0x" + strings.Repeat("ab", 32), senderTopic, toTopic},
		Data:    "0x" + strings.Repeat("0", 256),
	}
	_, err := DecodeSwapLog(log, time.Now())
	assert.ErrorIs(t, err, ErrNotSwapEvent)
}

func TestDecodeSwapLog_MalformedData(t *testing.T) {
	log := ethrpc.Log{
		Address: usdcWethPair,
		Topics:  []string{knownSwapTopic, senderTopic, toTopic},
		Data:    "0x1234",
	}
	_, err := DecodeSwapLog(log, time.Now())
	assert.Error(t, err)
}
