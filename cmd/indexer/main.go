package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/Elakiya-Elangovan-003/defi-risk-pipeline/internal/cache"
	"github.com/Elakiya-Elangovan-003/defi-risk-pipeline/internal/chainlink"
	"github.com/Elakiya-Elangovan-003/defi-risk-pipeline/internal/config"
	"github.com/Elakiya-Elangovan-003/defi-risk-pipeline/internal/ethrpc"
	"github.com/Elakiya-Elangovan-003/defi-risk-pipeline/internal/models"
	"github.com/Elakiya-Elangovan-003/defi-risk-pipeline/internal/stream"
)

// Indexer ties the swap stream to the cache, pub/sub and historical store.
type Indexer struct {
	cache  *cache.RedisCache
	store  *cache.ClickHouseStore
	pubsub *cache.PubSubManager
	logger *logrus.Logger

	mu     sync.RWMutex
	ethUSD float64
}

func (idx *Indexer) setEthUSD(price float64) {
	idx.mu.Lock()
	idx.ethUSD = price
	idx.mu.Unlock()
}

func (idx *Indexer) getEthUSD() float64 {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.ethUSD
}

// ProcessSwap stores and fans out one decoded swap.
func (idx *Indexer) ProcessSwap(ctx context.Context, swap *models.SwapRecord) {
	swap.EthUSD = idx.getEthUSD()

	idx.logger.WithFields(logrus.Fields{
		"pair":       swap.Pair,
		"eth_amount": swap.EthAmount,
		"block":      swap.BlockNumber,
	}).Info("processing swap")

	if err := idx.cache.AddRecentSwap(ctx, swap); err != nil {
		idx.logger.WithError(err).Warn("redis cache error")
	}

	if err := idx.pubsub.PublishSwap(ctx, swap); err != nil {
		idx.logger.WithError(err).Warn("pub/sub error")
	}

	if err := idx.store.InsertSwap(ctx, swap); err != nil {
		idx.logger.WithError(err).Error("clickhouse error")
	}
}

// refreshPrice keeps the cached ETH/USD price current for USD normalization.
func (idx *Indexer) refreshPrice(ctx context.Context, feed *chainlink.FeedClient, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	update := func() {
		price := feed.LatestPriceOrFallback(ctx)
		idx.setEthUSD(price.EthUSD)
		if err := idx.cache.UpdatePrice(ctx, "ETH", price.EthUSD); err != nil {
			idx.logger.WithError(err).Warn("price update error")
		}
		idx.logger.WithFields(logrus.Fields{
			"eth_usd": price.EthUSD,
			"source":  price.Source,
		}).Info("refreshed eth price")
	}

	update()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			update()
		}
	}
}

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	logger.SetLevel(logrus.InfoLevel)

	if err := godotenv.Load(); err != nil {
		logger.Warn("no .env file found, using system environment variables")
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.WithError(err).Fatal("invalid configuration")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	swapCache := cache.NewRedisCache(cfg.RedisAddr, logger)
	if err := swapCache.Ping(ctx); err != nil {
		logger.WithError(err).Fatal("failed to connect to Redis")
	}
	defer swapCache.Close()

	store, err := cache.NewClickHouseStore(ctx, cache.ClickHouseConfig{
		Addr:     cfg.ClickHouseAddr,
		Database: cfg.ClickHouseDatabase,
		Username: cfg.ClickHouseUsername,
		Password: cfg.ClickHousePassword,
		Logger:   logger,
	})
	if err != nil {
		logger.WithError(err).Fatal("failed to connect to ClickHouse")
	}
	defer store.Close()

	pubsub := cache.NewPubSubManager(cfg.RedisAddr, logger)
	defer pubsub.Close()

	rpcClient := ethrpc.NewClient(ethrpc.ClientConfig{
		BaseURL:      cfg.EthRPCURL,
		Timeout:      cfg.HTTPTimeout,
		MaxRetries:   cfg.MaxRetries,
		RetryBackoff: cfg.RetryBackoff,
		Logger:       logger,
	})

	feed := chainlink.NewFeedClient(chainlink.FeedConfig{
		Caller:   rpcClient,
		FeedAddr: cfg.ChainlinkFeedAddr,
		Logger:   logger,
	})

	idx := &Indexer{
		cache:  swapCache,
		store:  store,
		pubsub: pubsub,
		logger: logger,
	}

	go idx.refreshPrice(ctx, feed, cfg.PriceRefreshInterval)

	poller := stream.NewLogPoller(stream.LogPollerConfig{
		Client:        rpcClient,
		PairAddresses: cfg.PairAddresses,
		PollInterval:  cfg.PollInterval,
		BlockBatch:    cfg.BlockBatch,
		Logger:        logger,
	})

	go func() {
		if err := poller.Start(ctx, func(swap *models.SwapRecord) {
			idx.ProcessSwap(ctx, swap)
		}); err != nil && ctx.Err() == nil {
			logger.WithError(err).Error("poller stopped")
		}
	}()

	logger.WithField("rpc", cfg.EthRPCURL).Info("indexer running")

	<-sigCh
	logger.Info("shutting down")
	cancel()
	_ = poller.Stop()
}
