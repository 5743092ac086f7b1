// Package config loads and validates environment-driven configuration.
// The struct is built once at startup and injected; nothing reads the
// environment after Load returns.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/cronosai/opsgate/network"
)

// Environment distinguishes development from production deployments.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Config is the full runtime configuration of the gateway.
type Config struct {
	Port     int
	Env      string
	LogLevel string

	// Network selection. Mainnet additionally requires ConfirmMainnet so a
	// stray NETWORK_MODE=mainnet cannot point the gateway at real funds.
	NetworkMode    network.Mode
	ConfirmMainnet bool

	// Payment gate.
	SkipPayments       bool
	RecipientAddress   string
	FacilitatorURL     string
	FacilitatorTimeout time.Duration

	// External services.
	RPCURL         string
	ExplorerAPIURL string
	ExplorerAPIKey string
	TextAPIKey     string
	RenderTimeout  time.Duration

	// CORS.
	FrontendURL string

	// Rate limiting per route class (requests per window).
	RateLimitWindow     time.Duration
	CapabilityRateLimit int
	InfoRateLimit       int
}

// Load reads configuration from the environment, applying defaults for
// anything optional.
func Load() *Config {
	mode := network.Mode(getEnv("NETWORK_MODE", string(network.Testnet)))
	net := network.ForMode(mode)

	return &Config{
		Port:     getEnvInt("PORT", 3000),
		Env:      getEnv("APP_ENV", EnvDevelopment),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		NetworkMode:    mode,
		ConfirmMainnet: getEnvBool("CONFIRM_MAINNET"),

		SkipPayments:       getEnvBool("SKIP_PAYMENTS"),
		RecipientAddress:   getEnv("RECIPIENT_ADDRESS", ""),
		FacilitatorURL:     getEnv("FACILITATOR_URL", net.FacilitatorURL),
		FacilitatorTimeout: getEnvDuration("FACILITATOR_TIMEOUT", 30*time.Second),

		RPCURL:         getEnv("RPC_URL", net.RPCURL),
		ExplorerAPIURL: getEnv("EXPLORER_API_URL", net.ExplorerAPIURL),
		ExplorerAPIKey: getEnv("EXPLORER_API_KEY", ""),
		TextAPIKey:     getEnv("TEXT_API_KEY", ""),
		RenderTimeout:  getEnvDuration("RENDER_TIMEOUT", 15*time.Second),

		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:5173"),

		RateLimitWindow:     getEnvDuration("RATE_LIMIT_WINDOW", time.Minute),
		CapabilityRateLimit: getEnvInt("RATE_LIMIT_CAPABILITY", 30),
		InfoRateLimit:       getEnvInt("RATE_LIMIT_INFO", 100),
	}
}

// Validate returns every fatal misconfiguration and every missing optional
// key. Fatal problems abort startup regardless of environment; missing keys
// abort only in production.
func (c *Config) Validate() (fatal []string, missing []string) {
	if !c.NetworkMode.Valid() {
		fatal = append(fatal, fmt.Sprintf("NETWORK_MODE %q is not one of testnet, mainnet", c.NetworkMode))
	}

	// Bypass must never activate against real funds.
	if c.SkipPayments && c.Env == EnvProduction {
		fatal = append(fatal, "SKIP_PAYMENTS cannot be enabled in production")
	}
	if c.NetworkMode == network.Mainnet && !c.ConfirmMainnet {
		fatal = append(fatal, "NETWORK_MODE=mainnet requires CONFIRM_MAINNET=true")
	}

	if !c.SkipPayments && c.RecipientAddress == "" {
		missing = append(missing, "RECIPIENT_ADDRESS")
	}
	if c.TextAPIKey == "" {
		missing = append(missing, "TEXT_API_KEY")
	}

	return fatal, missing
}

// Network returns the constant set for the configured mode.
func (c *Config) Network() network.Config {
	return network.ForMode(c.NetworkMode)
}

// Production reports whether the gateway runs in production mode.
func (c *Config) Production() bool {
	return c.Env == EnvProduction
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getEnvBool(key string) bool {
	return os.Getenv(key) == "true"
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
