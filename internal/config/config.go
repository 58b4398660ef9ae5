// Package config loads the bot configuration from YAML with environment
// overrides on top.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	coreconfig "github.com/groupmarket/groupbot/core/config"
	coredatabase "github.com/groupmarket/groupbot/core/database"
)

// MarketplaceConfig holds the settings specific to the group marketplace.
type MarketplaceConfig struct {
	// AdminChannelID is the channel whose members may approve or reject
	// listings. Review prompts are posted there.
	AdminChannelID int64 `yaml:"admin_channel_id" envconfig:"MARKET_ADMIN_CHANNEL_ID"`
	// VerifierToken authenticates the secondary identity that joins and
	// inspects candidate groups.
	VerifierToken string `yaml:"verifier_token" envconfig:"MARKET_VERIFIER_TOKEN"`
	SupportHandle string `yaml:"support_handle" envconfig:"MARKET_SUPPORT_HANDLE"`

	SessionTTLMinutes    int `yaml:"session_ttl_minutes" envconfig:"MARKET_SESSION_TTL_MINUTES"`
	SweepIntervalMinutes int `yaml:"sweep_interval_minutes" envconfig:"MARKET_SWEEP_INTERVAL_MINUTES"`
}

// SessionTTL returns how long an idle conversation survives before the
// sweeper reclaims it.
func (m MarketplaceConfig) SessionTTL() time.Duration {
	if m.SessionTTLMinutes <= 0 {
		return 30 * time.Minute
	}
	return time.Duration(m.SessionTTLMinutes) * time.Minute
}

// SweepInterval returns how often the sweeper runs.
func (m MarketplaceConfig) SweepInterval() time.Duration {
	if m.SweepIntervalMinutes <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(m.SweepIntervalMinutes) * time.Minute
}

// Config aggregates core, database and marketplace configuration.
type Config struct {
	coreconfig.Config `yaml:",inline"`

	Database    coredatabase.Config `yaml:"database"`
	Marketplace MarketplaceConfig   `yaml:"marketplace"`
}

// CoreConfig exposes the embedded core configuration.
func (c *Config) CoreConfig() *coreconfig.Config {
	return &c.Config
}

// Load reads configuration from a YAML file and applies env overrides.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}

	if err := coreconfig.Normalize(&cfg.Config); err != nil {
		return nil, err
	}
	if err := normalizeMarketplace(&cfg.Marketplace); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func normalizeMarketplace(m *MarketplaceConfig) error {
	if m.AdminChannelID == 0 {
		return fmt.Errorf("marketplace.admin_channel_id is required")
	}
	if strings.TrimSpace(m.VerifierToken) == "" {
		return fmt.Errorf("marketplace.verifier_token is required")
	}
	if strings.TrimSpace(m.SupportHandle) == "" {
		m.SupportHandle = "@groupmarket_support"
	}
	return nil
}
