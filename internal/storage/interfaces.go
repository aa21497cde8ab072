package storage

import (
	"context"
	"io"
	"time"

	"github.com/Elakiya-Elangovan-003/defi-risk-pipeline/internal/models"
)

// SwapCache defines the interface for caching swap data
type SwapCache interface {
	// AddRecentSwap adds a swap to the recent swaps list
	AddRecentSwap(ctx context.Context, swap *models.SwapRecord) error

	// UpdatePrice updates the current price for a token
	UpdatePrice(ctx context.Context, token string, price float64) error

	// GetRecentSwaps retrieves the most recent swaps
	GetRecentSwaps(ctx context.Context, limit int64) ([]*models.SwapRecord, error)

	// GetPrice retrieves the current price for a token
	GetPrice(ctx context.Context, token string) (float64, error)

	// Ping checks if the cache is reachable
	Ping(ctx context.Context) error

	// Close closes the cache connection
	io.Closer
}

// SwapPublisher publishes swap events for real-time consumers
type SwapPublisher interface {
	// PublishSwap publishes a swap event to the Pub/Sub channels
	PublishSwap(ctx context.Context, swap *models.SwapRecord) error

	// PublishAssessment publishes a completed risk assessment
	PublishAssessment(ctx context.Context, a *models.Assessment) error
}

// SwapStore defines the interface for persistent swap storage
type SwapStore interface {
	// InsertSwap inserts a swap event into the store
	InsertSwap(ctx context.Context, swap *models.SwapRecord) error

	// SwapsSince returns swaps observed at or after the given time,
	// ordered by timestamp ascending
	SwapsSince(ctx context.Context, since time.Time) ([]models.SwapRecord, error)

	// Ping checks if the store is reachable
	Ping(ctx context.Context) error

	// Close closes the store connection
	io.Closer
}

// SwapHandler is a function that processes swap events
type SwapHandler func(*models.SwapRecord)

// StreamProvider defines the interface for swap event streaming
type StreamProvider interface {
	// Start begins streaming swap events
	Start(ctx context.Context, handler SwapHandler) error

	// Stop stops the stream provider
	Stop() error
}
