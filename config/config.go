package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/polystream/vault/types"
)

// VaultConfig describes one risk-tier vault to seed at startup.
type VaultConfig struct {
	ID                     string `yaml:"id"`
	RiskTier               string `yaml:"risk_tier"`
	UnderlyingAsset        string `yaml:"underlying_asset"`
	BaseWithdrawalFee      string `yaml:"base_withdrawal_fee"`
	EarlyWithdrawalFee     string `yaml:"early_withdrawal_fee"`
	LockPeriodSeconds      int64  `yaml:"lock_period_seconds"`
	WithdrawalDelaySeconds uint64 `yaml:"withdrawal_delay_seconds"`
}

func (v VaultConfig) GetID() string                     { return v.ID }
func (v VaultConfig) GetRiskTier() string               { return v.RiskTier }
func (v VaultConfig) GetUnderlyingAsset() string        { return v.UnderlyingAsset }
func (v VaultConfig) GetBaseWithdrawalFee() string      { return v.BaseWithdrawalFee }
func (v VaultConfig) GetEarlyWithdrawalFee() string     { return v.EarlyWithdrawalFee }
func (v VaultConfig) GetLockPeriodSeconds() int64       { return v.LockPeriodSeconds }
func (v VaultConfig) GetWithdrawalDelaySeconds() uint64 { return v.WithdrawalDelaySeconds }

// Config holds all engine configuration.
type Config struct {
	Epoch struct {
		DurationSeconds int64 `yaml:"duration_seconds"`
	} `yaml:"epoch"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Vaults []VaultConfig `yaml:"vaults"`
}

const (
	defaultEpochDurationSeconds = 86_400
	defaultLockPeriodSeconds    = 30 * 86_400
	defaultBaseWithdrawalFee    = "0.005"
	defaultEarlyWithdrawalFee   = "0.05"
	defaultUnderlyingAsset      = "usdc"
)

// Load reads config from a YAML file, then applies environment variable
// overrides and defaults. A missing file yields the default configuration.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("VAULT_SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("VAULT_EPOCH_DURATION_SECONDS"); v != "" {
		secs, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid VAULT_EPOCH_DURATION_SECONDS %q: %w", v, err)
		}
		cfg.Epoch.DurationSeconds = secs
	}

	// Defaults
	if cfg.Epoch.DurationSeconds == 0 {
		cfg.Epoch.DurationSeconds = defaultEpochDurationSeconds
	}
	if len(cfg.Vaults) == 0 {
		for _, tier := range []types.RiskTier{types.RiskTierLow, types.RiskTierMedium, types.RiskTierHigh} {
			cfg.Vaults = append(cfg.Vaults, VaultConfig{
				ID:                 fmt.Sprintf("%s-risk", tier),
				RiskTier:           string(tier),
				UnderlyingAsset:    defaultUnderlyingAsset,
				BaseWithdrawalFee:  defaultBaseWithdrawalFee,
				EarlyWithdrawalFee: defaultEarlyWithdrawalFee,
				LockPeriodSeconds:  defaultLockPeriodSeconds,
			})
		}
	}
	for i := range cfg.Vaults {
		if cfg.Vaults[i].UnderlyingAsset == "" {
			cfg.Vaults[i].UnderlyingAsset = defaultUnderlyingAsset
		}
		if cfg.Vaults[i].BaseWithdrawalFee == "" {
			cfg.Vaults[i].BaseWithdrawalFee = defaultBaseWithdrawalFee
		}
		if cfg.Vaults[i].EarlyWithdrawalFee == "" {
			cfg.Vaults[i].EarlyWithdrawalFee = defaultEarlyWithdrawalFee
		}
		if cfg.Vaults[i].LockPeriodSeconds == 0 {
			cfg.Vaults[i].LockPeriodSeconds = defaultLockPeriodSeconds
		}
	}

	return cfg, nil
}

// Validate checks that all required fields are set and well formed.
func (c *Config) Validate() error {
	if c.Epoch.DurationSeconds <= 0 {
		return fmt.Errorf("epoch.duration_seconds must be positive")
	}
	if len(c.Vaults) == 0 {
		return fmt.Errorf("at least one vault is required")
	}
	seen := map[string]bool{}
	for _, v := range c.Vaults {
		if v.ID == "" {
			return fmt.Errorf("vault id is required")
		}
		if seen[v.ID] {
			return fmt.Errorf("duplicate vault id %q", v.ID)
		}
		seen[v.ID] = true
		if err := types.RiskTier(v.RiskTier).Validate(); err != nil {
			return fmt.Errorf("vault %s: %w", v.ID, err)
		}
		if v.LockPeriodSeconds < 0 {
			return fmt.Errorf("vault %s: lock_period_seconds must be non-negative", v.ID)
		}
	}
	return nil
}
