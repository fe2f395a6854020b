// Package config loads and validates the marketd daemon configuration from
// defaults, an optional TOML file, and MARKETD_-prefixed environment
// variables, in that priority order.
package config

import (
	"fmt"

	"github.com/tidemark/marketd/internal/core/market"
)

// Config is the complete marketd configuration.
type Config struct {
	Server  ServerConfig  `toml:"server" mapstructure:"server"`
	Market  MarketConfig  `toml:"market" mapstructure:"market"`
	Storage StorageConfig `toml:"storage" mapstructure:"storage"`
	History HistoryConfig `toml:"history" mapstructure:"history"`
	Journal JournalConfig `toml:"journal" mapstructure:"journal"`
	Log     LogConfig     `toml:"log" mapstructure:"log"`

	configPath string `toml:"-" mapstructure:"-"`
}

// ServerConfig configures the JSON-RPC listener.
type ServerConfig struct {
	Host string `toml:"host" mapstructure:"host"`
	Port int    `toml:"port" mapstructure:"port"`
}

// Addr returns the host:port listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// MarketConfig carries the economic parameters of the engine.
type MarketConfig struct {
	MarketAccount        string `toml:"market_account" mapstructure:"market_account"`
	BidIncreaseBps       uint64 `toml:"bid_increase_bps" mapstructure:"bid_increase_bps"`
	BonusRefundBps       uint64 `toml:"bonus_refund_bps" mapstructure:"bonus_refund_bps"`
	ProtocolFeeBps       uint64 `toml:"protocol_fee_bps" mapstructure:"protocol_fee_bps"`
	ProtocolFeeRecipient string `toml:"protocol_fee_recipient" mapstructure:"protocol_fee_recipient"`
}

// EngineConfig converts the section into the engine's configuration.
func (m MarketConfig) EngineConfig() market.EngineConfig {
	cfg := market.DefaultEngineConfig()
	cfg.MarketAccount = m.MarketAccount
	cfg.BidIncreaseBps = m.BidIncreaseBps
	cfg.BonusRefundBps = m.BonusRefundBps
	cfg.ProtocolFeeBps = m.ProtocolFeeBps
	cfg.ProtocolFeeRecipient = m.ProtocolFeeRecipient
	return cfg
}

// StorageConfig selects and parameterizes the key-value backend.
type StorageConfig struct {
	Backend      string `toml:"backend" mapstructure:"backend"`
	Path         string `toml:"path" mapstructure:"path"`
	CacheEntries int    `toml:"cache_entries" mapstructure:"cache_entries"`
	Sync         bool   `toml:"sync" mapstructure:"sync"`
}

// HistoryConfig configures the relational trade history.
type HistoryConfig struct {
	Enabled bool   `toml:"enabled" mapstructure:"enabled"`
	Path    string `toml:"path" mapstructure:"path"`
}

// JournalConfig configures the append-only event journal.
type JournalConfig struct {
	Enabled bool   `toml:"enabled" mapstructure:"enabled"`
	Path    string `toml:"path" mapstructure:"path"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	Level  string `toml:"level" mapstructure:"level"`
	Format string `toml:"format" mapstructure:"format"`
}

// Path returns the config file this configuration was loaded from, or an
// empty string when only defaults and environment were used.
func (c *Config) Path() string { return c.configPath }

// Validate checks the configuration for values the daemon cannot run with.
func Validate(c *Config) error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Market.MarketAccount == "" {
		return fmt.Errorf("market.market_account must not be empty")
	}
	if c.Market.BidIncreaseBps == 0 || c.Market.BidIncreaseBps > market.MaxBps {
		return fmt.Errorf("market.bid_increase_bps %d out of range (1..%d)",
			c.Market.BidIncreaseBps, market.MaxBps)
	}
	if c.Market.BonusRefundBps > market.MaxBps {
		return fmt.Errorf("market.bonus_refund_bps %d exceeds %d",
			c.Market.BonusRefundBps, market.MaxBps)
	}
	if c.Market.ProtocolFeeBps > market.MaxBps {
		return fmt.Errorf("market.protocol_fee_bps %d exceeds %d",
			c.Market.ProtocolFeeBps, market.MaxBps)
	}
	if c.Market.ProtocolFeeBps > 0 && c.Market.ProtocolFeeRecipient == "" {
		return fmt.Errorf("market.protocol_fee_recipient required when protocol_fee_bps > 0")
	}

	switch c.Storage.Backend {
	case "memory":
	case "pebble":
		if c.Storage.Path == "" {
			return fmt.Errorf("storage.path required for the pebble backend")
		}
	default:
		return fmt.Errorf("unknown storage.backend %q", c.Storage.Backend)
	}
	if c.Storage.CacheEntries < 0 {
		return fmt.Errorf("storage.cache_entries must not be negative")
	}

	if c.History.Enabled && c.History.Path == "" {
		return fmt.Errorf("history.path required when history is enabled")
	}
	if c.Journal.Enabled && c.Journal.Path == "" {
		return fmt.Errorf("journal.path required when journal is enabled")
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log.level %q", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("unknown log.format %q", c.Log.Format)
	}
	return nil
}
