package config

import (
	"testing"
	"time"

	"github.com/cronosai/opsgate/network"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Port != 3000 {
		t.Errorf("Port = %d, want 3000", cfg.Port)
	}
	if cfg.Env != EnvDevelopment {
		t.Errorf("Env = %s, want development", cfg.Env)
	}
	if cfg.NetworkMode != network.Testnet {
		t.Errorf("NetworkMode = %s, want testnet", cfg.NetworkMode)
	}
	if cfg.FacilitatorURL != network.FacilitatorURL {
		t.Errorf("FacilitatorURL = %s, want the hosted facilitator", cfg.FacilitatorURL)
	}
	if cfg.CapabilityRateLimit != 30 || cfg.InfoRateLimit != 100 {
		t.Errorf("rate limits = %d/%d, want 30/100", cfg.CapabilityRateLimit, cfg.InfoRateLimit)
	}
	if cfg.RateLimitWindow != time.Minute {
		t.Errorf("window = %v, want 1m", cfg.RateLimitWindow)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("APP_ENV", "production")
	t.Setenv("NETWORK_MODE", "mainnet")
	t.Setenv("RENDER_TIMEOUT", "5s")
	t.Setenv("SKIP_PAYMENTS", "true")

	cfg := Load()
	if cfg.Port != 8080 || cfg.Env != EnvProduction {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.NetworkMode != network.Mainnet {
		t.Errorf("NetworkMode = %s, want mainnet", cfg.NetworkMode)
	}
	if cfg.RenderTimeout != 5*time.Second {
		t.Errorf("RenderTimeout = %v, want 5s", cfg.RenderTimeout)
	}
	if !cfg.SkipPayments {
		t.Error("SkipPayments not parsed")
	}
	if cfg.Network().ChainID != 25 {
		t.Errorf("ChainID = %d, want 25 on mainnet", cfg.Network().ChainID)
	}
}

func TestValidateMatrix(t *testing.T) {
	base := func() *Config {
		return &Config{
			Env:              EnvDevelopment,
			NetworkMode:      network.Testnet,
			RecipientAddress: "0xrecipient",
			TextAPIKey:       "key",
		}
	}

	tests := []struct {
		name        string
		mutate      func(*Config)
		wantFatal   int
		wantMissing int
	}{
		{"clean development", func(c *Config) {}, 0, 0},
		{
			"bypass in development is allowed",
			func(c *Config) { c.SkipPayments = true },
			0, 0,
		},
		{
			"bypass in production is fatal",
			func(c *Config) { c.Env = EnvProduction; c.SkipPayments = true },
			1, 0,
		},
		{
			"mainnet without confirmation is fatal",
			func(c *Config) { c.NetworkMode = network.Mainnet },
			1, 0,
		},
		{
			"mainnet with confirmation is clean",
			func(c *Config) { c.NetworkMode = network.Mainnet; c.ConfirmMainnet = true },
			0, 0,
		},
		{
			"unknown network mode is fatal",
			func(c *Config) { c.NetworkMode = "devnet" },
			1, 0,
		},
		{
			"missing recipient is reported",
			func(c *Config) { c.RecipientAddress = "" },
			0, 1,
		},
		{
			"bypass does not need a recipient",
			func(c *Config) { c.RecipientAddress = ""; c.SkipPayments = true },
			0, 0,
		},
		{
			"missing text key is reported",
			func(c *Config) { c.TextAPIKey = "" },
			0, 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)

			fatal, missing := cfg.Validate()
			if len(fatal) != tt.wantFatal {
				t.Errorf("fatal = %v, want %d entries", fatal, tt.wantFatal)
			}
			if len(missing) != tt.wantMissing {
				t.Errorf("missing = %v, want %d entries", missing, tt.wantMissing)
			}
		})
	}
}

func TestProduction(t *testing.T) {
	if (&Config{Env: EnvDevelopment}).Production() {
		t.Error("development reported as production")
	}
	if !(&Config{Env: EnvProduction}).Production() {
		t.Error("production not detected")
	}
}
