package stream

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Elakiya-Elangovan-003/defi-risk-pipeline/internal/constants"
	"github.com/Elakiya-Elangovan-003/defi-risk-pipeline/internal/ethrpc"
	"github.com/Elakiya-Elangovan-003/defi-risk-pipeline/internal/storage"
	"github.com/Elakiya-Elangovan-003/defi-risk-pipeline/internal/uniswap"
)

// LogPoller implements StreamProvider by polling eth_getLogs for Swap
// events on the tracked pairs, keeping a cursor on the last seen block.
type LogPoller struct {
	client        *ethrpc.Client
	pairAddresses []string
	pollInterval  time.Duration
	blockBatch    uint64
	logger        *logrus.Logger

	mu        sync.RWMutex
	lastBlock uint64
	running   bool
}

// LogPollerConfig holds configuration for the log poller
type LogPollerConfig struct {
	Client        *ethrpc.Client
	PairAddresses []string
	PollInterval  time.Duration
	// BlockBatch is the number of trailing blocks fetched on the first
	// poll, before a cursor exists.
	BlockBatch uint64
	Logger     *logrus.Logger
}

// NewLogPoller creates a new log poller
func NewLogPoller(cfg LogPollerConfig) *LogPoller {
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	if len(cfg.PairAddresses) == 0 {
		cfg.PairAddresses = constants.DefaultPairAddresses()
	}
	if cfg.BlockBatch == 0 {
		cfg.BlockBatch = 100
	}

	return &LogPoller{
		client:        cfg.Client,
		pairAddresses: cfg.PairAddresses,
		pollInterval:  cfg.PollInterval,
		blockBatch:    cfg.BlockBatch,
		logger:        cfg.Logger,
	}
}

// Start begins polling for swap events
func (p *LogPoller) Start(ctx context.Context, handler storage.SwapHandler) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("poller already running")
	}
	p.running = true
	p.mu.Unlock()

	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	p.logger.WithFields(logrus.Fields{
		"interval": p.pollInterval,
		"pairs":    p.pairAddresses,
	}).Info("starting log polling")

	for {
		select {
		case <-ctx.Done():
			p.mu.Lock()
			p.running = false
			p.mu.Unlock()
			return ctx.Err()

		case <-ticker.C:
			if err := p.poll(ctx, handler); err != nil {
				p.logger.WithError(err).Error("poll error")
			}
		}
	}
}

// Stop stops the poller
func (p *LogPoller) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.running = false
	return nil
}

// poll fetches and decodes new swap logs since the cursor
func (p *LogPoller) poll(ctx context.Context, handler storage.SwapHandler) error {
	latest, err := p.client.BlockNumber(ctx)
	if err != nil {
		return fmt.Errorf("failed to get block number: %w", err)
	}

	p.mu.RLock()
	last := p.lastBlock
	p.mu.RUnlock()

	var from uint64
	if last == 0 {
		// First poll: start from a trailing batch of blocks.
		if latest > p.blockBatch {
			from = latest - p.blockBatch
		}
	} else {
		if latest <= last {
			p.logger.WithField("block", latest).Debug("no new blocks")
			return nil
		}
		from = last + 1
	}

	logs, err := p.client.GetLogs(ctx, ethrpc.FilterQuery{
		FromBlock: from,
		ToBlock:   latest,
		Addresses: p.pairAddresses,
		Topics:    []string{uniswap.SwapTopic()},
	})
	if err != nil {
		return fmt.Errorf("failed to get logs: %w", err)
	}

	p.mu.Lock()
	p.lastBlock = latest
	p.mu.Unlock()

	if len(logs) == 0 {
		p.logger.WithFields(logrus.Fields{
			"from": from,
			"to":   latest,
		}).Debug("no new swap events")
		return nil
	}

	p.logger.WithFields(logrus.Fields{
		"count": len(logs),
		"from":  from,
		"to":    latest,
	}).Info("found swap events")

	// Logs carry no block timestamp; stamp with observation time. The
	// risk window is coarse (minutes) so poll-time stamping is adequate.
	observedAt := time.Now().UTC()

	for _, log := range logs {
		if log.Removed {
			p.logger.WithField("tx", log.TransactionHash).Debug("skipping reorged log")
			continue
		}

		swap, err := uniswap.DecodeSwapLog(log, observedAt)
		if err != nil {
			p.logger.WithError(err).WithField("tx", log.TransactionHash).Warn("failed to decode swap log")
			continue
		}

		p.logger.WithFields(logrus.Fields{
			"pair":       swap.Pair,
			"eth_amount": fmt.Sprintf("%.4f", swap.EthAmount),
			"block":      swap.BlockNumber,
		}).Debug("decoded swap")

		handler(swap)
	}

	return nil
}
