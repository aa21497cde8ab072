package ai

// swapsSchemaDescription describes the ClickHouse schema used for NL→SQL prompting.
//
// Keep it in sync with the actual ClickHouse table definition in init.sql.
const swapsSchemaDescription = `
Database: defi
Table: swaps

Columns:
  - tx_hash      String    -- Ethereum transaction hash
  - log_index    UInt64    -- Log index within the transaction
  - block_number UInt64    -- Block the swap was mined in
  - timestamp    DateTime  -- Observation time of the swap (UTC)
  - pair         String    -- Trading pair, e.g. "USDC/WETH"
  - pair_address String    -- Uniswap V2 pair contract address (lowercase hex)
  - sender       String    -- Address that initiated the swap
  - recipient    String    -- Address that received the output tokens
  - amount0_in   Float64   -- token0 amount into the pool
  - amount1_in   Float64   -- token1 amount into the pool
  - amount0_out  Float64   -- token0 amount out of the pool
  - amount1_out  Float64   -- token1 amount out of the pool
  - eth_amount   Float64   -- WETH-side value of the trade in ETH
  - eth_usd      Float64   -- ETH/USD price at ingest time (0 if unknown)

Notes:
  - eth_amount is the volume measure; SUM(eth_amount) is ETH volume.
  - eth_amount * eth_usd approximates the USD value of a swap.
  - Time filters should use timestamp, e.g. timestamp >= now() - INTERVAL 5 MINUTE.
`
