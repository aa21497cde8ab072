// Command riskscore runs the risk pipeline once over the stored swap
// window and writes the assessment envelope to a JSON artifact.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/Elakiya-Elangovan-003/defi-risk-pipeline/internal/cache"
	"github.com/Elakiya-Elangovan-003/defi-risk-pipeline/internal/config"
	"github.com/Elakiya-Elangovan-003/defi-risk-pipeline/internal/risk"
)

// errorResult is the structured failure artifact: callers decide whether
// to halt or skip, the pipeline never writes a partial assessment.
type errorResult struct {
	Error string `json:"error"`
}

func outputPath() string {
	if p := os.Getenv("ASSESSMENT_OUT"); p != "" {
		return p
	}
	return "risk_assessment.json"
}

func writeJSON(logger *logrus.Logger, path string, v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		logger.WithError(err).Fatal("failed to marshal output")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		logger.WithError(err).Fatal("failed to write output")
	}
	logger.WithField("path", path).Info("wrote assessment")
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

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

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

	now := time.Now().UTC()
	window := cfg.RiskWindowMinutes
	since := now.Add(-time.Duration(window * float64(time.Minute)))

	swaps, err := store.SwapsSince(ctx, since)
	if err != nil {
		logger.WithError(err).Fatal("failed to load swaps")
	}

	logger.WithFields(logrus.Fields{
		"swaps":  len(swaps),
		"window": window,
	}).Info("loaded swap window")

	metrics, err := risk.ComputeMetrics(swaps, window)
	if err != nil {
		if errors.Is(err, risk.ErrInsufficientData) {
			logger.Warn("insufficient data for volatility calculation")
			writeJSON(logger, outputPath(), errorResult{Error: "No metrics available"})
			return
		}
		logger.WithError(err).Fatal("failed to compute metrics")
	}

	scorer := risk.NewScorer(risk.ScorerConfig{Logger: logger})
	result, err := scorer.ComputeScore(metrics)
	if err != nil {
		logger.WithError(err).Fatal("failed to compute score")
	}

	assessment := risk.BuildAssessment(metrics, result, now)
	writeJSON(logger, outputPath(), assessment)

	logger.WithFields(logrus.Fields{
		"score":      result.RiskScore,
		"level":      result.RiskLevel,
		"swap_count": metrics.SwapCount,
		"volume_eth": metrics.TotalVolumeETH,
	}).Info("risk assessment complete")
}
