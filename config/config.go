package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete engine configuration.
type Config struct {
	Account   AccountConfig   `json:"account" yaml:"account"`
	Execution ExecutionConfig `json:"execution" yaml:"execution"`
	Risk      RiskConfig      `json:"risk" yaml:"risk"`
	Market    MarketConfig    `json:"market" yaml:"market"`
	Store     StoreConfig     `json:"store" yaml:"store"`
	Journal   JournalConfig   `json:"journal" yaml:"journal"`
}

// AccountConfig contains ledger initialization parameters.
type AccountConfig struct {
	Currency     string  `json:"currency" yaml:"currency"`
	StartingCash float64 `json:"starting_cash" yaml:"starting_cash"`
}

// ExecutionConfig contains the slippage/cost model and order limits.
type ExecutionConfig struct {
	SlippageBps      float64 `json:"slippage_bps" yaml:"slippage_bps"`
	CommissionRate   float64 `json:"commission_rate" yaml:"commission_rate"`
	MaxOrderFraction float64 `json:"max_order_fraction" yaml:"max_order_fraction"`
}

// RiskConfig contains analytics parameters.
type RiskConfig struct {
	PeriodsPerYear int     `json:"periods_per_year" yaml:"periods_per_year"`
	LookbackDays   int     `json:"lookback_days" yaml:"lookback_days"`
	VaRConfidence  float64 `json:"var_confidence" yaml:"var_confidence"`
}

// MarketConfig contains market-data provider parameters.
type MarketConfig struct {
	Timeout string `json:"timeout" yaml:"timeout"`
	CSVDir  string `json:"csv_dir,omitempty" yaml:"csv_dir,omitempty"`
}

// ParseTimeout converts the timeout string to a time.Duration.
func (m MarketConfig) ParseTimeout() (time.Duration, error) {
	if m.Timeout == "" {
		return 10 * time.Second, nil
	}
	return time.ParseDuration(m.Timeout)
}

// StoreConfig contains durable portfolio storage parameters.
type StoreConfig struct {
	DBPath string `json:"db_path" yaml:"db_path"`
}

// JournalConfig contains audit journaling parameters.
type JournalConfig struct {
	Type       string `json:"type" yaml:"type"` // "sqlite", "csv" or "none"
	DBPath     string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
	FillsFile  string `json:"fills_file,omitempty" yaml:"fills_file,omitempty"`
	RejectFile string `json:"reject_file,omitempty" yaml:"reject_file,omitempty"`
}

// LoadFromFile loads configuration from a file (JSON or YAML based on extension).
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}

	// Try YAML first, fall back to JSON
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		err = json.Unmarshal(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SaveToFile saves configuration to a file (JSON or YAML based on extension).
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Account.Currency == "" {
		return fmt.Errorf("account.currency is required")
	}
	if c.Account.StartingCash <= 0 {
		return fmt.Errorf("account.starting_cash must be positive")
	}
	if c.Execution.SlippageBps < 0 {
		return fmt.Errorf("execution.slippage_bps must not be negative")
	}
	if c.Execution.CommissionRate < 0 || c.Execution.CommissionRate >= 1 {
		return fmt.Errorf("execution.commission_rate must be in [0, 1)")
	}
	if c.Execution.MaxOrderFraction <= 0 || c.Execution.MaxOrderFraction > 1 {
		return fmt.Errorf("execution.max_order_fraction must be in (0, 1]")
	}
	if c.Risk.PeriodsPerYear <= 0 {
		return fmt.Errorf("risk.periods_per_year must be positive")
	}
	if c.Risk.LookbackDays < 2 {
		return fmt.Errorf("risk.lookback_days must be at least 2")
	}
	if c.Risk.VaRConfidence <= 0 || c.Risk.VaRConfidence >= 1 {
		return fmt.Errorf("risk.var_confidence must be in (0, 1)")
	}
	if _, err := c.Market.ParseTimeout(); err != nil {
		return fmt.Errorf("market.timeout: %w", err)
	}
	if c.Store.DBPath == "" {
		return fmt.Errorf("store.db_path is required")
	}
	switch c.Journal.Type {
	case "sqlite":
		if c.Journal.DBPath == "" {
			return fmt.Errorf("journal.db_path required for sqlite journal")
		}
	case "csv":
		if c.Journal.FillsFile == "" || c.Journal.RejectFile == "" {
			return fmt.Errorf("journal fills_file and reject_file required for CSV journal")
		}
	case "none":
	default:
		return fmt.Errorf("journal.type must be 'sqlite', 'csv' or 'none'")
	}
	return nil
}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		Account: AccountConfig{
			Currency:     "USD",
			StartingCash: 100_000,
		},
		Execution: ExecutionConfig{
			SlippageBps:      5,
			CommissionRate:   0.001,
			MaxOrderFraction: 0.50,
		},
		Risk: RiskConfig{
			PeriodsPerYear: 252,
			LookbackDays:   252,
			VaRConfidence:  0.95,
		},
		Market: MarketConfig{
			Timeout: "10s",
		},
		Store: StoreConfig{
			DBPath: "./portfolio.sqlite",
		},
		Journal: JournalConfig{
			Type:   "sqlite",
			DBPath: "./audit.sqlite",
		},
	}
}
