package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/sirupsen/logrus"

	"github.com/Elakiya-Elangovan-003/defi-risk-pipeline/internal/models"
)

// ClickHouseStore persists decoded swaps and serves the windowed reads the
// risk pipeline runs on.
type ClickHouseStore struct {
	conn   driver.Conn
	logger *logrus.Logger
}

// ClickHouseConfig holds connection settings for the store.
type ClickHouseConfig struct {
	Addr     string
	Database string
	Username string
	Password string
	Logger   *logrus.Logger
}

// NewClickHouseStore connects and pings the server.
func NewClickHouseStore(ctx context.Context, cfg ClickHouseConfig) (*ClickHouseStore, error) {
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}

	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{cfg.Addr},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}

	if err := conn.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping ClickHouse: %w", err)
	}

	cfg.Logger.WithField("addr", cfg.Addr).Info("connected to ClickHouse")

	return &ClickHouseStore{conn: conn, logger: cfg.Logger}, nil
}

// InsertSwap writes one swap row.
func (c *ClickHouseStore) InsertSwap(ctx context.Context, swap *models.SwapRecord) error {
	query := `
		INSERT INTO swaps (
			tx_hash, log_index, block_number, timestamp, pair, pair_address,
			sender, recipient, amount0_in, amount1_in, amount0_out, amount1_out,
			eth_amount, eth_usd
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	err := c.conn.Exec(ctx, query,
		swap.TxHash,
		swap.LogIndex,
		swap.BlockNumber,
		swap.Timestamp,
		swap.Pair,
		swap.PairAddress,
		swap.Sender,
		swap.Recipient,
		swap.Amount0In,
		swap.Amount1In,
		swap.Amount0Out,
		swap.Amount1Out,
		swap.EthAmount,
		swap.EthUSD,
	)
	if err != nil {
		return fmt.Errorf("failed to insert swap: %w", err)
	}
	return nil
}

// SwapsSince returns swaps observed at or after the given time, oldest
// first, ready to feed the risk pipeline.
func (c *ClickHouseStore) SwapsSince(ctx context.Context, since time.Time) ([]models.SwapRecord, error) {
	query := `
		SELECT tx_hash, log_index, block_number, timestamp, pair, pair_address,
		       sender, recipient, amount0_in, amount1_in, amount0_out, amount1_out,
		       eth_amount, eth_usd
		FROM swaps
		WHERE timestamp >= ?
		ORDER BY timestamp ASC
	`

	rows, err := c.conn.Query(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query swaps: %w", err)
	}
	defer rows.Close()

	var out []models.SwapRecord
	for rows.Next() {
		var s models.SwapRecord
		if err := rows.Scan(
			&s.TxHash, &s.LogIndex, &s.BlockNumber, &s.Timestamp, &s.Pair, &s.PairAddress,
			&s.Sender, &s.Recipient, &s.Amount0In, &s.Amount1In, &s.Amount0Out, &s.Amount1Out,
			&s.EthAmount, &s.EthUSD,
		); err != nil {
			return nil, fmt.Errorf("failed to scan swap: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return out, nil
}

// Ping checks connectivity.
func (c *ClickHouseStore) Ping(ctx context.Context) error {
	return c.conn.Ping(ctx)
}

// Close closes the connection.
func (c *ClickHouseStore) Close() error {
	return c.conn.Close()
}
