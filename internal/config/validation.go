package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/LeJamon/goFeedEscrow/internal/codec/address"
	"github.com/LeJamon/goFeedEscrow/internal/core/ledger"
	"github.com/LeJamon/goFeedEscrow/internal/core/validator"
)

// ValidateConfig performs comprehensive validation on the complete configuration
func ValidateConfig(config *Config) error {
	if err := config.Network.Validate(); err != nil {
		return fmt.Errorf("network validation failed: %w", err)
	}
	if err := config.Contract.Validate(); err != nil {
		return fmt.Errorf("contract validation failed: %w", err)
	}
	if err := config.Oracle.Validate(); err != nil {
		return fmt.Errorf("oracle validation failed: %w", err)
	}
	if err := config.Validator.Validate(); err != nil {
		return fmt.Errorf("validator validation failed: %w", err)
	}
	if err := config.Tx.Validate(); err != nil {
		return fmt.Errorf("tx validation failed: %w", err)
	}
	if err := config.Wallet.Validate(); err != nil {
		return fmt.Errorf("wallet validation failed: %w", err)
	}
	if err := config.Ogmios.Validate(); err != nil {
		return fmt.Errorf("ogmios validation failed: %w", err)
	}
	if err := config.Snapshot.Validate(); err != nil {
		return fmt.Errorf("snapshot validation failed: %w", err)
	}
	if err := config.DecisionLog.Validate(); err != nil {
		return fmt.Errorf("decision_log validation failed: %w", err)
	}
	if err := config.Metrics.Validate(); err != nil {
		return fmt.Errorf("metrics validation failed: %w", err)
	}

	// Cross-validation checks
	if err := validateCrossSection(config); err != nil {
		return fmt.Errorf("cross-section validation failed: %w", err)
	}
	return nil
}

// Validate performs validation on the network configuration
func (n *NetworkConfig) Validate() error {
	switch n.Name {
	case "mainnet", "preprod", "preview":
		return nil
	default:
		return fmt.Errorf("unknown network %q, must be mainnet, preprod or preview", n.Name)
	}
}

// Validate performs validation on the contract configuration
func (c *ContractConfig) Validate() error {
	if c.ScriptFile == "" && c.ScriptAddress == "" {
		return fmt.Errorf("either script_file or script_address is required")
	}
	if c.ScriptAddress != "" {
		addr, err := address.Decode(c.ScriptAddress)
		if err != nil {
			return fmt.Errorf("script_address: %w", err)
		}
		if addr.Payment.Kind != ledger.ScriptCredential {
			return fmt.Errorf("script_address %s has a key payment credential", c.ScriptAddress)
		}
	}
	if _, err := c.LanguageTag(); err != nil {
		return err
	}
	return nil
}

// LanguageTag maps the configured Plutus version to its hashing tag
func (c *ContractConfig) LanguageTag() (byte, error) {
	switch strings.ToLower(c.Language) {
	case "plutusv1":
		return address.PlutusV1, nil
	case "", "plutusv2":
		return address.PlutusV2, nil
	case "plutusv3":
		return address.PlutusV3, nil
	default:
		return 0, fmt.Errorf("unknown script language %q", c.Language)
	}
}

// Validate performs validation on the oracle configuration
func (o *OracleConfig) Validate() error {
	if o.Address == "" {
		return fmt.Errorf("address is required")
	}
	if _, err := address.Decode(o.Address); err != nil {
		return fmt.Errorf("address: %w", err)
	}
	if _, err := ledger.ParseHash28(o.AuthPolicy); err != nil {
		return fmt.Errorf("auth_policy: %w", err)
	}
	if strings.Count(o.FeedName, "|") != 1 {
		return fmt.Errorf("feed_name %q must hold two labels separated by |", o.FeedName)
	}
	if o.CacheSize < 0 {
		return fmt.Errorf("cache_size must not be negative")
	}
	return nil
}

// Validate performs validation on the validator configuration
func (v *ValidatorConfig) Validate() error {
	if _, err := validator.ParseTruncation(v.Truncation); err != nil {
		return err
	}
	if _, err := validator.ThresholdAt(v.Threshold, v.MaxExponent); err != nil {
		return err
	}
	return nil
}

// Validate performs validation on the tx configuration
func (t *TxConfig) Validate() error {
	if t.ValidityWindow == 0 {
		return fmt.Errorf("validity_window must be greater than 0")
	}
	if t.MinCollateral <= 0 {
		return fmt.Errorf("min_collateral must be greater than 0")
	}
	if t.Fee <= 0 {
		return fmt.Errorf("fee must be greater than 0")
	}
	if t.DepositAmount <= 0 {
		return fmt.Errorf("deposit_amount must be greater than 0")
	}
	if t.DeployAmount <= 0 {
		return fmt.Errorf("deploy_amount must be greater than 0")
	}
	return nil
}

// Validate performs validation on the wallet configuration. Addresses are
// optional here; commands that need one check for it.
func (w *WalletConfig) Validate() error {
	for name, s := range map[string]string{"address": w.Address, "fee_address": w.FeeAddress} {
		if s == "" {
			continue
		}
		addr, err := address.Decode(s)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		if addr.Payment.Kind != ledger.KeyCredential {
			return fmt.Errorf("%s %s must have a key payment credential", name, s)
		}
	}
	return nil
}

// Validate performs validation on the ogmios configuration
func (o *OgmiosConfig) Validate() error {
	if o.URL == "" {
		return fmt.Errorf("url is required")
	}
	u, err := url.Parse(o.URL)
	if err != nil {
		return fmt.Errorf("url: %w", err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return fmt.Errorf("url scheme must be ws or wss, got %q", u.Scheme)
	}
	if o.Timeout <= 0 {
		return fmt.Errorf("timeout must be greater than 0")
	}
	if o.PollInterval <= 0 {
		return fmt.Errorf("poll_interval must be greater than 0")
	}
	return nil
}

// Validate performs validation on the snapshot configuration
func (s *SnapshotConfig) Validate() error {
	if !s.Enabled {
		return nil
	}
	switch s.Backend {
	case "pebble", "leveldb":
	default:
		return fmt.Errorf("backend must be pebble or leveldb, got %q", s.Backend)
	}
	if s.Path == "" {
		return fmt.Errorf("path is required when snapshots are enabled")
	}
	if s.MaxAge < 0 {
		return fmt.Errorf("max_age must not be negative")
	}
	return nil
}

// Validate performs validation on the decision log configuration
func (d *DecisionLogConfig) Validate() error {
	if !d.Enabled {
		return nil
	}
	switch d.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("driver must be sqlite or postgres, got %q", d.Driver)
	}
	if d.DSN == "" {
		return fmt.Errorf("dsn is required when the decision log is enabled")
	}
	if d.MaxOpenConns < 0 {
		return fmt.Errorf("max_open_conns must not be negative")
	}
	return nil
}

// Validate performs validation on the metrics configuration
func (m *MetricsConfig) Validate() error {
	if !m.Enabled {
		return nil
	}
	if m.Listen == "" {
		return fmt.Errorf("listen is required when metrics are enabled")
	}
	if m.Namespace == "" {
		return fmt.Errorf("namespace is required")
	}
	return nil
}

// validateCrossSection performs validation across different config sections
func validateCrossSection(config *Config) error {
	want := config.Network.NetworkID()
	check := func(name, s string) error {
		if s == "" {
			return nil
		}
		addr, err := address.Decode(s)
		if err != nil {
			return err
		}
		if addr.Network != want {
			return fmt.Errorf("%s %s is not on network %s", name, s, config.Network.Name)
		}
		return nil
	}
	if err := check("oracle.address", config.Oracle.Address); err != nil {
		return err
	}
	if err := check("contract.script_address", config.Contract.ScriptAddress); err != nil {
		return err
	}
	if err := check("wallet.address", config.Wallet.Address); err != nil {
		return err
	}
	return check("wallet.fee_address", config.Wallet.FeeAddress)
}
