// Command subscriber consumes the live swap feed and recomputes the risk
// score over a rolling window, publishing each fresh assessment.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/Elakiya-Elangovan-003/defi-risk-pipeline/internal/cache"
	"github.com/Elakiya-Elangovan-003/defi-risk-pipeline/internal/config"
	"github.com/Elakiya-Elangovan-003/defi-risk-pipeline/internal/constants"
	"github.com/Elakiya-Elangovan-003/defi-risk-pipeline/internal/models"
	"github.com/Elakiya-Elangovan-003/defi-risk-pipeline/internal/risk"
)

// rollingWindow keeps the swaps observed within the last windowMinutes.
// The pub/sub handler runs on a single goroutine, so no locking.
type rollingWindow struct {
	swaps         []models.SwapRecord
	windowMinutes float64
}

func (w *rollingWindow) add(swap *models.SwapRecord) {
	w.swaps = append(w.swaps, *swap)
	cutoff := time.Now().UTC().Add(-time.Duration(w.windowMinutes * float64(time.Minute)))
	kept := w.swaps[:0]
	for _, s := range w.swaps {
		if !s.Timestamp.Before(cutoff) {
			kept = append(kept, s)
		}
	}
	w.swaps = kept
}

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

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

	pubsub := cache.NewPubSubManager(cfg.RedisAddr, logger)
	defer pubsub.Close()

	scorer := risk.NewScorer(risk.ScorerConfig{Logger: logger})
	window := &rollingWindow{windowMinutes: cfg.RiskWindowMinutes}

	logger.WithField("window_minutes", cfg.RiskWindowMinutes).Info("subscriber running")

	go func() {
		err := pubsub.SubscribeSwaps(ctx, constants.PubSubChannelSwaps, func(swap *models.SwapRecord) {
			window.add(swap)

			logger.WithFields(logrus.Fields{
				"pair":       swap.Pair,
				"eth_amount": swap.EthAmount,
				"in_window":  len(window.swaps),
			}).Info("received swap")

			metrics, err := risk.ComputeMetrics(window.swaps, cfg.RiskWindowMinutes)
			if err != nil {
				if errors.Is(err, risk.ErrInsufficientData) {
					logger.Debug("waiting for more swaps")
					return
				}
				logger.WithError(err).Error("failed to compute metrics")
				return
			}

			result, err := scorer.ComputeScore(metrics)
			if err != nil {
				logger.WithError(err).Error("failed to compute score")
				return
			}

			assessment := risk.BuildAssessment(metrics, result, time.Now().UTC())
			if err := pubsub.PublishAssessment(ctx, assessment); err != nil {
				logger.WithError(err).Warn("failed to publish assessment")
			}
		})
		if err != nil && ctx.Err() == nil {
			logger.WithError(err).Error("subscription ended")
		}
	}()

	<-sigCh
	logger.Info("shutting down")
	cancel()
}
