// Package config loads the reified configuration from a TOML file or from
// REIFIED_* environment variables.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/Cogwheel-Validator/reified-portal/keplr"
)

const EnvPrefix = "REIFIED"

// Load loads the config from configPath, or from the environment when
// configPath is empty.
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		config, err := loadEnv(viper.New())
		if err != nil {
			return nil, fmt.Errorf("failed to load env config: %w", err)
		}
		return config, nil
	}
	config, err := NewDefaultLoader().LoadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load file config: %w", err)
	}
	return config, nil
}

func loadEnv(v *viper.Viper) (*Config, error) {
	// godot might fail if .env file is missing but
	// env can be applied through docker, systmed or other means, so skip error
	_ = godotenv.Load()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvKeys(v)

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal env config: %w", err)
	}
	if err := finish(&config); err != nil {
		return nil, err
	}
	return &config, nil
}

// bindEnvKeys binds each config key to its env var so Unmarshal sees env values
// when no config file is loaded (env-only mode). chain.chain_id is read from
// REIFIED_CHAIN_CHAIN_ID.
func bindEnvKeys(v *viper.Viper) {
	keys := []string{
		"chain.chain_id", "chain.rpc", "chain.rest", "chain.gas_price",
		"chain.bech32_prefix", "chain.coin_type", "chain.nft_route_prefix",
		"chain.keplr_chain_info", "chain.memo", "chain.gas_multiplier",
		"chain.poll_interval", "chain.broadcast_timeout",
		"chain.max_retries", "chain.retry_delay", "chain.health_check_interval",
		"chain.request_timeout",
		"wallet.keystore", "wallet.password", "wallet.auto_approve", "wallet.connect",
		"server.port", "server.host", "server.allowed_origins",
		"server.rate_per_minute", "server.max_concurrent_requests",
		"server.request_timeout", "server.workflow_ttl",
		"telemetry.service_name", "telemetry.service_version", "telemetry.environment",
		"telemetry.enable_tracing", "telemetry.use_otlp_traces", "telemetry.otlp_traces_url",
		"telemetry.enable_metrics", "telemetry.use_prometheus",
		"telemetry.use_otlp_metrics", "telemetry.otlp_metrics_url",
		"telemetry.enable_logs", "telemetry.use_otlp_logs", "telemetry.otlp_logs_url",
		"telemetry.insecure_otlp", "telemetry.development_mode",
	}
	for _, k := range keys {
		_ = v.BindEnv(k)
	}
}

func finish(config *Config) error {
	if err := applyChainInfo(config); err != nil {
		return err
	}
	applyDefaults(config)
	if err := verifyConfig(config); err != nil {
		return fmt.Errorf("failed to verify config: %w", err)
	}
	return nil
}

// applyChainInfo fills empty chain values from the Keplr chain info file.
func applyChainInfo(config *Config) error {
	chain := &config.Chain
	if chain.KeplrChainInfo == "" {
		return nil
	}
	info, err := keplr.ReadChainInfo(chain.KeplrChainInfo)
	if err != nil {
		return fmt.Errorf("failed to load keplr chain info: %w", err)
	}
	if chain.ChainID != "" && info.ChainID != chain.ChainID {
		return fmt.Errorf("keplr chain info is for %q, config is for %q", info.ChainID, chain.ChainID)
	}

	if chain.ChainID == "" {
		chain.ChainID = info.ChainID
	}
	if chain.RPC == "" {
		chain.RPC = info.RPC
	}
	if len(chain.Rest) == 0 && info.Rest != "" {
		chain.Rest = []string{info.Rest}
	}
	if chain.Bech32Prefix == "" {
		chain.Bech32Prefix = info.Bech32Prefix()
	}
	if chain.CoinType == 0 {
		chain.CoinType = info.Bip44.CoinType
	}
	if chain.GasPrice == "" {
		if gasPrice, err := info.DefaultGasPrice(); err == nil {
			chain.GasPrice = gasPrice
		}
	}
	return nil
}

func applyDefaults(config *Config) {
	chain := &config.Chain
	if chain.Bech32Prefix == "" {
		chain.Bech32Prefix = "cudos"
	}
	if chain.CoinType == 0 {
		chain.CoinType = 118
	}
	if chain.NFTRoutePrefix == "" {
		chain.NFTRoutePrefix = "/nft"
	}
	if chain.GasMultiplier == "" {
		chain.GasMultiplier = "1.3"
	}
	if chain.PollInterval <= 0 {
		chain.PollInterval = 3 * time.Second
	}
	if chain.BroadcastTimeout <= 0 {
		chain.BroadcastTimeout = 60 * time.Second
	}
	if chain.MaxRetries <= 0 {
		chain.MaxRetries = 2
	}
	if chain.RetryDelay <= 0 {
		chain.RetryDelay = 500 * time.Millisecond
	}
	if chain.HealthCheckInterval <= 0 {
		chain.HealthCheckInterval = 30 * time.Second
	}
	if chain.RequestTimeout <= 0 {
		chain.RequestTimeout = 10 * time.Second
	}

	server := &config.Server
	if server.Host == "" {
		server.Host = "127.0.0.1"
	}
	if server.Port == 0 {
		server.Port = 8080
	}
	if server.RatePerMinute <= 0 {
		server.RatePerMinute = 120
	}
	if server.MaxConcurrentRequests <= 0 {
		server.MaxConcurrentRequests = 100
	}
	if server.RequestTimeout <= 0 {
		// a mint waits for block inclusion
		server.RequestTimeout = 90 * time.Second
	}
	if server.WorkflowTTL <= 0 {
		server.WorkflowTTL = time.Hour
	}

	telemetry := &config.Telemetry
	if telemetry.ServiceName == "" {
		telemetry.ServiceName = "reified"
	}
	if telemetry.ServiceVersion == "" {
		telemetry.ServiceVersion = "1.0.0"
	}
	if telemetry.Environment == "" {
		telemetry.Environment = "production"
	}
	if telemetry.OTLPTracesURL == "" {
		telemetry.OTLPTracesURL = "localhost:4318"
	}
	if telemetry.OTLPMetricsURL == "" {
		telemetry.OTLPMetricsURL = "localhost:4318"
	}
	if telemetry.OTLPLogsURL == "" {
		telemetry.OTLPLogsURL = "localhost:4318"
	}
}

func verifyConfig(config *Config) error {
	var errs []error

	if config.Chain.ChainID == "" {
		errs = append(errs, fmt.Errorf("chain.chain_id is required"))
	}
	if len(config.Chain.Rest) == 0 {
		errs = append(errs, fmt.Errorf("chain.rest is required"))
	}
	for _, endpoint := range config.Chain.Rest {
		if err := checkURL(endpoint); err != nil {
			errs = append(errs, fmt.Errorf("chain.rest %q: %w", endpoint, err))
		}
	}
	if config.Chain.RPC != "" {
		if err := checkURL(config.Chain.RPC); err != nil {
			errs = append(errs, fmt.Errorf("chain.rpc %q: %w", config.Chain.RPC, err))
		}
	}
	if config.Chain.GasPrice == "" {
		errs = append(errs, fmt.Errorf("chain.gas_price is required"))
	}

	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be between 1 and 65535"))
	}
	if config.Wallet.Connect && config.Wallet.Keystore == "" {
		errs = append(errs, fmt.Errorf("wallet.keystore is required to connect at startup"))
	}

	return errors.Join(errs...)
}

func checkURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https")
	}
	if u.Host == "" {
		return fmt.Errorf("host is required")
	}
	return nil
}
