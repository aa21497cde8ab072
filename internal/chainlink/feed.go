// Package chainlink reads the ETH/USD price from a Chainlink aggregator
// contract over raw eth_call.
package chainlink

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/Elakiya-Elangovan-003/defi-risk-pipeline/internal/constants"
	"github.com/Elakiya-Elangovan-003/defi-risk-pipeline/internal/ethrpc"
)

// PriceData is one observed round of the price feed.
type PriceData struct {
	EthUSD    float64 `json:"eth_usd"`
	UpdatedAt int64   `json:"updated_at"`
	Source    string  `json:"source"` // "chainlink" or "fallback"
	Contract  string  `json:"contract,omitempty"`
}

// FeedClient fetches latestRoundData from an aggregator contract.
type FeedClient struct {
	caller        ethrpc.Caller
	feedAddr      string
	fallbackPrice float64
	logger        *logrus.Logger
}

// FeedConfig holds configuration for the feed client.
type FeedConfig struct {
	Caller   ethrpc.Caller
	FeedAddr string
	// FallbackPrice is returned by LatestPriceOrFallback when the feed is
	// unreachable. Zero means use the shipped development default.
	FallbackPrice float64
	Logger        *logrus.Logger
}

// NewFeedClient creates a feed client for the given aggregator address.
func NewFeedClient(cfg FeedConfig) *FeedClient {
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	if cfg.FeedAddr == "" {
		cfg.FeedAddr = constants.ChainlinkEthUsdFeed
	}
	if cfg.FallbackPrice == 0 {
		cfg.FallbackPrice = constants.FallbackEthPriceUSD
	}
	return &FeedClient{
		caller:        cfg.Caller,
		feedAddr:      cfg.FeedAddr,
		fallbackPrice: cfg.FallbackPrice,
		logger:        cfg.Logger,
	}
}

// LatestPrice calls latestRoundData and scales the 8-decimal answer.
func (f *FeedClient) LatestPrice(ctx context.Context) (*PriceData, error) {
	ret, err := f.caller.EthCall(ctx, f.feedAddr, constants.LatestRoundDataSelector)
	if err != nil {
		return nil, fmt.Errorf("latestRoundData call failed: %w", err)
	}

	answer, updatedAt, err := decodeRoundData(ret)
	if err != nil {
		return nil, err
	}

	price := scaleAnswer(answer, constants.ChainlinkPriceDecimals)

	f.logger.WithFields(logrus.Fields{
		"eth_usd":    price,
		"updated_at": updatedAt,
	}).Debug("fetched chainlink price")

	return &PriceData{
		EthUSD:    price,
		UpdatedAt: updatedAt,
		Source:    "chainlink",
		Contract:  f.feedAddr,
	}, nil
}

// LatestPriceOrFallback returns the live price, or the development fallback
// when the feed is unreachable. Never fails: downstream USD normalization
// degrades instead of halting ingest.
func (f *FeedClient) LatestPriceOrFallback(ctx context.Context) *PriceData {
	price, err := f.LatestPrice(ctx)
	if err != nil {
		f.logger.WithError(err).Warn("chainlink fetch failed, using fallback price")
		return &PriceData{
			EthUSD: f.fallbackPrice,
			Source: "fallback",
		}
	}
	return price
}

// decodeRoundData extracts answer and updatedAt from the five 32-byte
// return words (roundId, answer, startedAt, updatedAt, answeredInRound).
func decodeRoundData(ret string) (*big.Int, int64, error) {
	hexData := strings.TrimPrefix(strings.TrimSpace(ret), "0x")
	if len(hexData) < 5*64 {
		return nil, 0, fmt.Errorf("short return data: %d hex chars", len(hexData))
	}

	answer, ok := new(big.Int).SetString(hexData[64:128], 16)
	if !ok {
		return nil, 0, fmt.Errorf("invalid answer word")
	}
	updatedAt, ok := new(big.Int).SetString(hexData[192:256], 16)
	if !ok {
		return nil, 0, fmt.Errorf("invalid updatedAt word")
	}

	return answer, updatedAt.Int64(), nil
}

func scaleAnswer(answer *big.Int, decimals int) float64 {
	scale := new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil))
	f := new(big.Float).SetInt(answer)
	f.Quo(f, scale)
	out, _ := f.Float64()
	return out
}
