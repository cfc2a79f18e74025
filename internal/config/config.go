package config

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/LeJamon/goFeedEscrow/internal/logging"
)

// Config represents the complete feedescrow configuration
type Config struct {
	Network     NetworkConfig     `toml:"network" mapstructure:"network"`
	Contract    ContractConfig    `toml:"contract" mapstructure:"contract"`
	Oracle      OracleConfig      `toml:"oracle" mapstructure:"oracle"`
	Validator   ValidatorConfig   `toml:"validator" mapstructure:"validator"`
	Tx          TxConfig          `toml:"tx" mapstructure:"tx"`
	Wallet      WalletConfig      `toml:"wallet" mapstructure:"wallet"`
	Ogmios      OgmiosConfig      `toml:"ogmios" mapstructure:"ogmios"`
	Snapshot    SnapshotConfig    `toml:"snapshot" mapstructure:"snapshot"`
	DecisionLog DecisionLogConfig `toml:"decision_log" mapstructure:"decision_log"`
	Metrics     MetricsConfig     `toml:"metrics" mapstructure:"metrics"`
	Logging     logging.Config    `toml:"logging" mapstructure:"logging"`

	// Internal fields for configuration management
	configPath string `toml:"-" mapstructure:"-"`
}

// NetworkConfig represents the [network] section
type NetworkConfig struct {
	Name string `toml:"name" mapstructure:"name"`
}

// ContractConfig represents the [contract] section
// The script address is derived from the script file when left empty.
type ContractConfig struct {
	ScriptFile    string `toml:"script_file" mapstructure:"script_file"`
	ScriptAddress string `toml:"script_address" mapstructure:"script_address"`
	Language      string `toml:"language" mapstructure:"language"`
}

// OracleConfig represents the [oracle] section
type OracleConfig struct {
	Address    string `toml:"address" mapstructure:"address"`
	AuthPolicy string `toml:"auth_policy" mapstructure:"auth_policy"`
	FeedName   string `toml:"feed_name" mapstructure:"feed_name"`
	CacheSize  int    `toml:"cache_size" mapstructure:"cache_size"`
}

// ValidatorConfig represents the [validator] section
type ValidatorConfig struct {
	Threshold   decimal.Decimal `toml:"threshold" mapstructure:"threshold"`
	MaxExponent uint64          `toml:"max_exponent" mapstructure:"max_exponent"`
	Truncation  string          `toml:"truncation" mapstructure:"truncation"`
}

// TxConfig represents the [tx] section. Amounts are in lovelace, the window
// in slots.
type TxConfig struct {
	ValidityWindow uint64 `toml:"validity_window" mapstructure:"validity_window"`
	MinCollateral  int64  `toml:"min_collateral" mapstructure:"min_collateral"`
	Fee            int64  `toml:"fee" mapstructure:"fee"`
	DepositAmount  int64  `toml:"deposit_amount" mapstructure:"deposit_amount"`
	DeployAmount   int64  `toml:"deploy_amount" mapstructure:"deploy_amount"`
}

// WalletConfig represents the [wallet] section
// Only addresses live here; signing keys are never read by this tool.
type WalletConfig struct {
	Name       string `toml:"name" mapstructure:"name"`
	Address    string `toml:"address" mapstructure:"address"`
	FeeAddress string `toml:"fee_address" mapstructure:"fee_address"`
}

// OgmiosConfig represents the [ogmios] section
type OgmiosConfig struct {
	URL          string        `toml:"url" mapstructure:"url"`
	Timeout      time.Duration `toml:"timeout" mapstructure:"timeout"`
	PollInterval time.Duration `toml:"poll_interval" mapstructure:"poll_interval"`
}

// SnapshotConfig represents the [snapshot] section
type SnapshotConfig struct {
	Enabled     bool          `toml:"enabled" mapstructure:"enabled"`
	Backend     string        `toml:"backend" mapstructure:"backend"`
	Path        string        `toml:"path" mapstructure:"path"`
	Compression bool          `toml:"compression" mapstructure:"compression"`
	MaxAge      time.Duration `toml:"max_age" mapstructure:"max_age"`
}

// DecisionLogConfig represents the [decision_log] section
type DecisionLogConfig struct {
	Enabled      bool   `toml:"enabled" mapstructure:"enabled"`
	Driver       string `toml:"driver" mapstructure:"driver"`
	DSN          string `toml:"dsn" mapstructure:"dsn"`
	MaxOpenConns int    `toml:"max_open_conns" mapstructure:"max_open_conns"`
}

// MetricsConfig represents the [metrics] section
type MetricsConfig struct {
	Enabled   bool   `toml:"enabled" mapstructure:"enabled"`
	Listen    string `toml:"listen" mapstructure:"listen"`
	Namespace string `toml:"namespace" mapstructure:"namespace"`
}

// GetConfigPath returns the path to the configuration file
func (c *Config) GetConfigPath() string {
	return c.configPath
}

// NetworkID returns the address network id for the configured network
func (n NetworkConfig) NetworkID() byte {
	if n.Name == "mainnet" {
		return 1
	}
	return 0
}

func (n NetworkConfig) String() string {
	return fmt.Sprintf("%s (id %d)", n.Name, n.NetworkID())
}
