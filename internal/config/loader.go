package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/tidemark/marketd/internal/core/market"
)

// DefaultConfigFile is looked up in the working directory when no explicit
// path is given.
const DefaultConfigFile = "marketd.toml"

// setDefaults seeds every key so partial config files work.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 7245)

	engine := market.DefaultEngineConfig()
	v.SetDefault("market.market_account", engine.MarketAccount)
	v.SetDefault("market.bid_increase_bps", engine.BidIncreaseBps)
	v.SetDefault("market.bonus_refund_bps", engine.BonusRefundBps)
	v.SetDefault("market.protocol_fee_bps", engine.ProtocolFeeBps)
	v.SetDefault("market.protocol_fee_recipient", engine.ProtocolFeeRecipient)

	v.SetDefault("storage.backend", "pebble")
	v.SetDefault("storage.path", "data/market")
	v.SetDefault("storage.cache_entries", 4096)
	v.SetDefault("storage.sync", false)

	v.SetDefault("history.enabled", true)
	v.SetDefault("history.path", "data/history.db")

	v.SetDefault("journal.enabled", true)
	v.SetDefault("journal.path", "data/events.log")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// Load reads configuration from defaults, the given TOML file, and the
// environment. An empty path falls back to marketd.toml when present;
// a missing default file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	explicit := path != ""
	if path == "" {
		path = DefaultConfigFile
	}

	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else if explicit {
		return nil, fmt.Errorf("config file does not exist: %s", path)
	} else {
		path = ""
	}

	v.SetEnvPrefix("MARKETD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.configPath = path

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// Default returns the built-in configuration without touching the
// filesystem or environment.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("default config must unmarshal: %v", err))
	}
	return &cfg
}
