// Package config loads relay configuration from an optional YAML file with
// environment variables taking precedence.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/ecotoken/storefront/types"
)

const (
	// DefaultProjectsUpstream is the fixed backend listing service the
	// projects relay proxies.
	DefaultProjectsUpstream = "https://8vmmi46d74.execute-api.us-east-1.amazonaws.com/Prod/projects"

	defaultListenAddr = ":8080"
	defaultLogLevel   = "info"
)

// Config holds everything the relay server and the checkout driver need.
type Config struct {
	ListenAddr string `yaml:"listen_addr"`
	// BasePath is an optional path prefix for deployment behind a shared
	// origin, mirroring the original base-path setting.
	BasePath string `yaml:"base_path"`

	// ProjectsUpstreamURL is the backend listing service.
	ProjectsUpstreamURL string `yaml:"projects_upstream_url" validate:"required,url"`

	// SettlementEndpoint is the external fulfillment API the ccep relay
	// forwards receipts to.
	SettlementEndpoint string `yaml:"settlement_endpoint" validate:"required,url"`

	// AuthToken is the server-held bearer credential injected on forwarded
	// settlement requests. Never sent back to clients.
	AuthToken string `yaml:"auth_token" validate:"required"`

	TickerURL  string `yaml:"ticker_url"`
	TickerPair string `yaml:"ticker_pair"`

	LogLevel string `yaml:"log_level"`

	// HTTPTimeout applies to the relay's outbound calls. Zero means no
	// timeout.
	HTTPTimeout time.Duration `yaml:"http_timeout"`
}

var validate = validator.New()

// Load reads the optional YAML file at path (empty path skips the file),
// applies environment overrides, fills defaults, and validates.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) applyEnv() {
	setIfPresent(&c.ListenAddr, "LISTEN_ADDR")
	setIfPresent(&c.BasePath, "BASE_PATH")
	setIfPresent(&c.ProjectsUpstreamURL, "PROJECTS_API_URL")
	setIfPresent(&c.SettlementEndpoint, "EXTERNAL_API_ENDPOINT")
	setIfPresent(&c.AuthToken, "AUTH_TOKEN")
	setIfPresent(&c.TickerURL, "TICKER_API_URL")
	setIfPresent(&c.TickerPair, "TICKER_PAIR")
	setIfPresent(&c.LogLevel, "LOG_LEVEL")

	if v := os.Getenv("HTTP_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.HTTPTimeout = d
		}
	}
}

func (c *Config) applyDefaults() {
	if c.ListenAddr == "" {
		c.ListenAddr = defaultListenAddr
	}
	if c.ProjectsUpstreamURL == "" {
		c.ProjectsUpstreamURL = DefaultProjectsUpstream
	}
	if c.LogLevel == "" {
		c.LogLevel = defaultLogLevel
	}
}

// Validate checks that the settlement forwarder is usable.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return &types.StoreError{
			Code:    types.ErrConfigError,
			Message: fmt.Sprintf("invalid configuration: %v", err),
		}
	}
	return nil
}

func setIfPresent(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
