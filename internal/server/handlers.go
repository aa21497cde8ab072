package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/Elakiya-Elangovan-003/defi-risk-pipeline/internal/ai"
	"github.com/Elakiya-Elangovan-003/defi-risk-pipeline/internal/constants"
	"github.com/Elakiya-Elangovan-003/defi-risk-pipeline/internal/flags"
	"github.com/Elakiya-Elangovan-003/defi-risk-pipeline/internal/risk"
	"github.com/Elakiya-Elangovan-003/defi-risk-pipeline/internal/storage"
)

// FlagStore is the subset of the flags store the handlers depend on.
// Satisfied by *flags.Store; stubbed in tests.
type FlagStore interface {
	Upsert(ctx context.Context, key string, value bool) (*flags.Flag, error)
	Get(ctx context.Context, key string) (*flags.Flag, error)
	List(ctx context.Context) ([]*flags.Flag, error)
	Delete(ctx context.Context, key string) error
	IsEnabled(ctx context.Context, key string, fallback bool) (bool, error)
}

// Handlers contains all dependencies for API endpoint handlers
type Handlers struct {
	Cache         storage.SwapCache // Redis-backed swap data cache
	Store         storage.SwapStore // ClickHouse-backed swap history
	Flags         FlagStore         // Redis-backed feature flags store
	Scorer        *risk.Scorer      // Risk scoring pipeline
	WindowMinutes float64           // Default observation window for assessments
	AI            *ai.Agent         // AI agent for natural language queries
	AIBaseConfig  ai.AgentConfig    // Base configuration for AI agents
	DevMode       bool              // Enable detailed error responses in development
	Logger        *logrus.Logger    // Structured logger
}

// err returns a standardized JSON error response
// In dev mode, includes additional error details for debugging
func (h *Handlers) err(c echo.Context, code int, msg string, details any) error {
	resp := ErrorResponse{Error: msg, Code: code}
	if h.DevMode && details != nil {
		resp.Details = details
	}
	return c.JSON(code, resp)
}

// withTimeout creates a context with timeout, defaulting to 10 seconds if duration <= 0
func (h *Handlers) withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = 10 * time.Second
	}
	return context.WithTimeout(ctx, d)
}

// Health returns a simple health check endpoint
func (h *Handlers) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{OK: true})
}

// RecentSwaps returns the most recent swap events with optional limit parameter
// Accepts limit query parameter (default: 100, range: 1-200)
func (h *Handlers) RecentSwaps(c echo.Context) error {
	limitStr := c.QueryParam("limit")
	limit := 100
	if limitStr != "" {
		n, err := strconv.Atoi(limitStr)
		if err != nil {
			return h.err(c, http.StatusBadRequest, "invalid limit", map[string]any{"limit": "must be an integer"})
		}
		limit = n
	}
	if limit < 1 || limit > 200 {
		return h.err(c, http.StatusBadRequest, "invalid limit", map[string]any{"limit": "min 1 max 200"})
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	items, err := h.Cache.GetRecentSwaps(ctx, int64(limit))
	if err != nil {
		return h.err(c, http.StatusInternalServerError, "failed to get swaps", nil)
	}
	return c.JSON(http.StatusOK, map[string]any{"items": items})
}

// Price returns the current price for a given token symbol
// Token parameter is case-insensitive and will be normalized to uppercase
func (h *Handlers) Price(c echo.Context) error {
	token := strings.TrimSpace(c.Param("token"))
	if token == "" {
		return h.err(c, http.StatusBadRequest, "invalid token", nil)
	}
	token = strings.ToUpper(token)

	ctx, cancel := h.withTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	price, err := h.Cache.GetPrice(ctx, token)
	if err != nil {
		return h.err(c, http.StatusInternalServerError, "failed to get price", nil)
	}
	return c.JSON(http.StatusOK, PriceResponse{Token: token, Price: price})
}

// RiskAssessment runs the metric pipeline over the stored swap window and
// returns the full assessment envelope. Accepts an optional window query
// parameter in minutes. Gated by the risk.assessment.enabled flag.
func (h *Handlers) RiskAssessment(c echo.Context) error {
	window := h.WindowMinutes
	if w := c.QueryParam("window"); w != "" {
		f, err := strconv.ParseFloat(w, 64)
		if err != nil || f <= 0 {
			return h.err(c, http.StatusBadRequest, "invalid window", map[string]any{"window": "must be a positive number of minutes"})
		}
		window = f
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	enabled, err := h.Flags.IsEnabled(ctx, constants.FlagRiskAssessmentEnabled, true)
	if err != nil {
		return h.err(c, http.StatusInternalServerError, "failed to read flags", nil)
	}
	if !enabled {
		return h.err(c, http.StatusServiceUnavailable, "risk assessment disabled", nil)
	}

	now := time.Now().UTC()
	since := now.Add(-time.Duration(window * float64(time.Minute)))

	swaps, err := h.Store.SwapsSince(ctx, since)
	if err != nil {
		h.Logger.WithError(err).Error("failed to load swap window")
		return h.err(c, http.StatusInternalServerError, "failed to load swaps", nil)
	}

	metrics, err := risk.ComputeMetrics(swaps, window)
	if err != nil {
		if errors.Is(err, risk.ErrInsufficientData) {
			// Fewer than 2 swaps: the pipeline cannot proceed. Surfaced as
			// a structured error, never a partial assessment.
			return h.err(c, http.StatusUnprocessableEntity, "No metrics available", map[string]any{"swaps": len(swaps)})
		}
		return h.err(c, http.StatusInternalServerError, "failed to compute metrics", nil)
	}

	result, err := h.Scorer.ComputeScore(metrics)
	if err != nil {
		if errors.Is(err, risk.ErrNoMetrics) {
			return h.err(c, http.StatusUnprocessableEntity, "No metrics available", nil)
		}
		return h.err(c, http.StatusInternalServerError, "failed to compute score", nil)
	}

	return c.JSON(http.StatusOK, risk.BuildAssessment(metrics, result, now))
}

// AIAsk handles natural language questions about swap data
// Converts questions to SQL, executes against ClickHouse, and returns natural language answers
func (h *Handlers) AIAsk(c echo.Context) error {
	var req AIAskRequest
	if err := c.Bind(&req); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid json", nil)
	}
	req.Question = strings.TrimSpace(req.Question)
	if req.Question == "" {
		return h.err(c, http.StatusBadRequest, "question is required", nil)
	}

	agent := h.AI
	ctx, cancel := h.withTimeout(c.Request().Context(), 60*time.Second)
	defer cancel()

	// Allow per-request model override by spawning a scoped agent
	if req.Model != "" {
		cfg := h.AIBaseConfig
		cfg.Model = req.Model
		a, err := ai.NewAgent(ctx, cfg)
		if err != nil {
			return h.err(c, http.StatusBadGateway, "failed to initialize ai agent", nil)
		}
		defer a.Close()
		agent = a
	}

	if agent == nil {
		return h.err(c, http.StatusServiceUnavailable, "ai agent not configured", nil)
	}

	start := time.Now()
	res, err := agent.Ask(ctx, req.Question)
	if err != nil {
		h.Logger.WithError(err).Warn("ai ask failed")
		return h.err(c, http.StatusBadGateway, "ai query failed", err.Error())
	}

	return c.JSON(http.StatusOK, AIAskResponse{
		SQL:    res.SQL,
		Answer: res.Answer,
		TookMs: time.Since(start).Milliseconds(),
	})
}

// FlagsUpsert creates or updates a feature flag with the given key and value
func (h *Handlers) FlagsUpsert(c echo.Context) error {
	var req FlagUpsertRequest
	if err := c.Bind(&req); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid json", nil)
	}
	if err := flags.ValidateKey(req.Key); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid key", map[string]any{"key": "invalid format"})
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	flag, err := h.Flags.Upsert(ctx, req.Key, req.Value)
	if err != nil {
		return h.err(c, http.StatusInternalServerError, "failed to upsert flag", nil)
	}
	return c.JSON(http.StatusOK, flag)
}

// FlagsGet returns a single feature flag by key
func (h *Handlers) FlagsGet(c echo.Context) error {
	key := c.Param("key")
	if err := flags.ValidateKey(key); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid key", nil)
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	flag, err := h.Flags.Get(ctx, key)
	if err == flags.ErrNotFound {
		return h.err(c, http.StatusNotFound, "flag not found", nil)
	}
	if err != nil {
		return h.err(c, http.StatusInternalServerError, "failed to get flag", nil)
	}
	return c.JSON(http.StatusOK, flag)
}

// FlagsList returns all feature flags
func (h *Handlers) FlagsList(c echo.Context) error {
	ctx, cancel := h.withTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	list, err := h.Flags.List(ctx)
	if err != nil {
		return h.err(c, http.StatusInternalServerError, "failed to list flags", nil)
	}
	return c.JSON(http.StatusOK, map[string]any{"items": list})
}

// FlagsUpdate updates the value of an existing feature flag
func (h *Handlers) FlagsUpdate(c echo.Context) error {
	key := c.Param("key")
	if err := flags.ValidateKey(key); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid key", nil)
	}

	var req FlagUpdateRequest
	if err := c.Bind(&req); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid json", nil)
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	if _, err := h.Flags.Get(ctx, key); err == flags.ErrNotFound {
		return h.err(c, http.StatusNotFound, "flag not found", nil)
	} else if err != nil {
		return h.err(c, http.StatusInternalServerError, "failed to get flag", nil)
	}

	flag, err := h.Flags.Upsert(ctx, key, req.Value)
	if err != nil {
		return h.err(c, http.StatusInternalServerError, "failed to update flag", nil)
	}
	return c.JSON(http.StatusOK, flag)
}

// FlagsDelete removes a feature flag by key
func (h *Handlers) FlagsDelete(c echo.Context) error {
	key := c.Param("key")
	if err := flags.ValidateKey(key); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid key", nil)
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	if err := h.Flags.Delete(ctx, key); err != nil {
		return h.err(c, http.StatusInternalServerError, "failed to delete flag", nil)
	}
	return c.NoContent(http.StatusNoContent)
}
