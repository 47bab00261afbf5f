package config

import "time"

// Config is the configuration of the reified server and CLI.
type Config struct {
	Chain     ChainConfig     `toml:"chain" mapstructure:"chain"`
	Wallet    WalletConfig    `toml:"wallet" mapstructure:"wallet"`
	Server    ServerConfig    `toml:"server" mapstructure:"server"`
	Telemetry TelemetryConfig `toml:"telemetry" mapstructure:"telemetry"`
}

type ChainConfig struct {
	ChainID string `toml:"chain_id" mapstructure:"chain_id"`
	// RPC is the Tendermint RPC endpoint, used for readiness checks
	RPC string `toml:"rpc" mapstructure:"rpc"`
	// Rest lists LCD endpoints, the first is the primary and the rest are
	// failover backups
	Rest         []string `toml:"rest" mapstructure:"rest"`
	GasPrice     string   `toml:"gas_price" mapstructure:"gas_price"`
	Bech32Prefix string   `toml:"bech32_prefix" mapstructure:"bech32_prefix"`
	CoinType     uint32   `toml:"coin_type" mapstructure:"coin_type"`
	// NFTRoutePrefix is the REST prefix of the nft module's queries
	NFTRoutePrefix string `toml:"nft_route_prefix" mapstructure:"nft_route_prefix"`
	// KeplrChainInfo is a Keplr registry entry (.json or .toml) filling any
	// chain value left empty
	KeplrChainInfo string `toml:"keplr_chain_info" mapstructure:"keplr_chain_info"`

	Memo             string        `toml:"memo" mapstructure:"memo"`
	GasMultiplier    string        `toml:"gas_multiplier" mapstructure:"gas_multiplier"`
	PollInterval     time.Duration `toml:"poll_interval" mapstructure:"poll_interval"`
	BroadcastTimeout time.Duration `toml:"broadcast_timeout" mapstructure:"broadcast_timeout"`

	// failover
	MaxRetries          int           `toml:"max_retries" mapstructure:"max_retries"`
	RetryDelay          time.Duration `toml:"retry_delay" mapstructure:"retry_delay"`
	HealthCheckInterval time.Duration `toml:"health_check_interval" mapstructure:"health_check_interval"`
	RequestTimeout      time.Duration `toml:"request_timeout" mapstructure:"request_timeout"`
}

type WalletConfig struct {
	// Keystore is the path of the encrypted key file
	Keystore string `toml:"keystore" mapstructure:"keystore"`
	// Password unlocks the keystore. Prefer REIFIED_WALLET_PASSWORD over
	// writing it in a file.
	Password string `toml:"password" mapstructure:"password"`
	// AutoApprove authorizes every chain connection without prompting
	AutoApprove bool `toml:"auto_approve" mapstructure:"auto_approve"`
	// Connect connects the wallet at startup
	Connect bool `toml:"connect" mapstructure:"connect"`
}

type ServerConfig struct {
	Port int    `toml:"port" mapstructure:"port"`
	Host string `toml:"host" mapstructure:"host"`

	// CORS configs
	AllowedOrigins []string `toml:"allowed_origins" mapstructure:"allowed_origins"`

	// rate limiting configs
	RatePerMinute         int           `toml:"rate_per_minute" mapstructure:"rate_per_minute"`
	MaxConcurrentRequests int           `toml:"max_concurrent_requests" mapstructure:"max_concurrent_requests"`
	RequestTimeout        time.Duration `toml:"request_timeout" mapstructure:"request_timeout"`
	// WorkflowTTL is how long an idle workflow session is kept
	WorkflowTTL time.Duration `toml:"workflow_ttl" mapstructure:"workflow_ttl"`
}

type TelemetryConfig struct {
	ServiceName    string `toml:"service_name" mapstructure:"service_name"`
	ServiceVersion string `toml:"service_version" mapstructure:"service_version"`
	Environment    string `toml:"environment" mapstructure:"environment"` // PROD, DEV, TEST, LOCAL
	EnableTracing  bool   `toml:"enable_tracing" mapstructure:"enable_tracing"`
	UseOTLPTraces  bool   `toml:"use_otlp_traces" mapstructure:"use_otlp_traces"`
	OTLPTracesURL  string `toml:"otlp_traces_url" mapstructure:"otlp_traces_url"`
	EnableMetrics  bool   `toml:"enable_metrics" mapstructure:"enable_metrics"`
	UsePrometheus  bool   `toml:"use_prometheus" mapstructure:"use_prometheus"`
	UseOTLPMetrics bool   `toml:"use_otlp_metrics" mapstructure:"use_otlp_metrics"`
	OTLPMetricsURL string `toml:"otlp_metrics_url" mapstructure:"otlp_metrics_url"`
	EnableLogs     bool   `toml:"enable_logs" mapstructure:"enable_logs"`
	UseOTLPLogs    bool   `toml:"use_otlp_logs" mapstructure:"use_otlp_logs"`
	OTLPLogsURL    string `toml:"otlp_logs_url" mapstructure:"otlp_logs_url"`
	InsecureOTLP   bool   `toml:"insecure_otlp" mapstructure:"insecure_otlp"`

	// Development mode uses stdout exporters
	DevelopmentMode bool `toml:"development_mode" mapstructure:"development_mode"`
}
