// Package config loads runtime configuration.
//
// Sources, lowest precedence first: built-in defaults, a YAML file, a .env
// file, process environment. Command-line flags are applied by the caller.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full runtime configuration.
type Config struct {
	RPC      RPCConfig      `yaml:"rpc"`
	Cluster  string         `yaml:"cluster"`
	Pinata   PinataConfig   `yaml:"pinata"`
	Metadata MetadataConfig `yaml:"metadata"`
	HTTP     HTTPConfig     `yaml:"http"`
	Wallet   WalletConfig   `yaml:"wallet"`
	Log      LogConfig      `yaml:"log"`
}

// RPCConfig configures the Solana JSON-RPC client.
type RPCConfig struct {
	Endpoint       string        `yaml:"endpoint"`
	WSEndpoint     string        `yaml:"ws_endpoint"`
	Timeout        time.Duration `yaml:"timeout"`
	MaxRetries     int           `yaml:"max_retries"`
	ConfirmTimeout time.Duration `yaml:"confirm_timeout"`
}

// PinataConfig configures the pinning client. Credentials are never
// defaulted.
type PinataConfig struct {
	APIURL       string        `yaml:"api_url"`
	GatewayURL   string        `yaml:"gateway_url"`
	APIKey       string        `yaml:"api_key"`
	SecretAPIKey string        `yaml:"secret_api_key"`
	Timeout      time.Duration `yaml:"timeout"`
}

// MetadataConfig holds fixed metadata document fields.
type MetadataConfig struct {
	Description string `yaml:"description"`
}

// HTTPConfig configures the web server.
type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// WalletConfig selects a server-side keypair wallet.
type WalletConfig struct {
	Keypair string `yaml:"keypair"`
}

// LogConfig configures logging output.
type LogConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// Clusters accepted for explorer links.
var validClusters = map[string]bool{
	"mainnet-beta": true,
	"devnet":       true,
	"testnet":      true,
}

// ErrMissingPinataCredentials is returned by RequirePinata when either key is empty.
var ErrMissingPinataCredentials = errors.New("pinata credentials not configured (set PINATA_API_KEY and PINATA_SECRET_API_KEY)")

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		RPC: RPCConfig{
			Endpoint:       "https://api.devnet.solana.com",
			WSEndpoint:     "wss://api.devnet.solana.com",
			Timeout:        30 * time.Second,
			MaxRetries:     0,
			ConfirmTimeout: 60 * time.Second,
		},
		Cluster: "devnet",
		Pinata: PinataConfig{
			APIURL:     "https://api.pinata.cloud",
			GatewayURL: "https://gateway.pinata.cloud",
			Timeout:    60 * time.Second,
		},
		Metadata: MetadataConfig{
			Description: "Your token description",
		},
		HTTP: HTTPConfig{
			Addr: ":8080",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load builds the configuration from defaults, the YAML file at path (if
// path is non-empty and the file exists), envFile and the environment.
func Load(path, envFile string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config file %s: %w", path, err)
			}
		case os.IsNotExist(err):
		default:
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	if envFile != "" {
		LoadEnvFile(envFile)
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadEnvFile loads KEY=VALUE lines from path into the environment without
// overriding variables that are already set. A missing file is ignored.
func LoadEnvFile(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "export ")

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"'`)

		if _, set := os.LookupEnv(key); !set {
			os.Setenv(key, value)
		}
	}
}

// applyEnv overrides fields from environment variables.
func (c *Config) applyEnv() error {
	str := map[string]*string{
		"SOLANA_RPC_URL":        &c.RPC.Endpoint,
		"SOLANA_WS_URL":         &c.RPC.WSEndpoint,
		"SOLANA_CLUSTER":        &c.Cluster,
		"PINATA_API_URL":        &c.Pinata.APIURL,
		"PINATA_GATEWAY_URL":    &c.Pinata.GatewayURL,
		"PINATA_API_KEY":        &c.Pinata.APIKey,
		"PINATA_SECRET_API_KEY": &c.Pinata.SecretAPIKey,
		"TOKEN_DESCRIPTION":     &c.Metadata.Description,
		"HTTP_ADDR":             &c.HTTP.Addr,
		"WALLET_KEYPAIR":        &c.Wallet.Keypair,
		"LOG_LEVEL":             &c.Log.Level,
	}
	for key, dst := range str {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	durations := map[string]*time.Duration{
		"SOLANA_RPC_TIMEOUT":     &c.RPC.Timeout,
		"SOLANA_CONFIRM_TIMEOUT": &c.RPC.ConfirmTimeout,
		"PINATA_TIMEOUT":         &c.Pinata.Timeout,
	}
	for key, dst := range durations {
		v := os.Getenv(key)
		if v == "" {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
		*dst = d
	}

	if v := os.Getenv("SOLANA_RPC_MAX_RETRIES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid SOLANA_RPC_MAX_RETRIES: %w", err)
		}
		c.RPC.MaxRetries = n
	}
	if v := os.Getenv("LOG_JSON"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid LOG_JSON: %w", err)
		}
		c.Log.JSON = b
	}
	return nil
}

// Validate checks values that cannot be defaulted.
func (c *Config) Validate() error {
	if c.RPC.Endpoint == "" {
		return errors.New("rpc.endpoint is required")
	}
	if c.RPC.MaxRetries < 0 {
		return fmt.Errorf("rpc.max_retries must be >= 0, got %d", c.RPC.MaxRetries)
	}
	if c.RPC.ConfirmTimeout <= 0 {
		return fmt.Errorf("rpc.confirm_timeout must be positive, got %s", c.RPC.ConfirmTimeout)
	}
	if !validClusters[c.Cluster] {
		return fmt.Errorf("unknown cluster %q (want mainnet-beta, devnet or testnet)", c.Cluster)
	}
	return nil
}

// RequirePinata fails when the pinning credentials are missing.
func (c *Config) RequirePinata() error {
	if c.Pinata.APIKey == "" || c.Pinata.SecretAPIKey == "" {
		return ErrMissingPinataCredentials
	}
	return nil
}
