package main

import (
	"context"
	"errors"
	"flag"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/Cogwheel-Validator/reified-portal/client"
	"github.com/Cogwheel-Validator/reified-portal/config"
	"github.com/Cogwheel-Validator/reified-portal/form"
	"github.com/Cogwheel-Validator/reified-portal/keplr"
	"github.com/Cogwheel-Validator/reified-portal/keystore"
	"github.com/Cogwheel-Validator/reified-portal/lcd"
	"github.com/Cogwheel-Validator/reified-portal/portal"
	"github.com/Cogwheel-Validator/reified-portal/query"
	"github.com/Cogwheel-Validator/reified-portal/rpc"
	"github.com/Cogwheel-Validator/reified-portal/telemetry"
	"github.com/Cogwheel-Validator/reified-portal/tx"
	"github.com/Cogwheel-Validator/reified-portal/wallet"
)

var log zerolog.Logger

func init() {
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	log = zerolog.New(out).With().Timestamp().Logger()

	// Share the logger with the RPC package
	rpc.SetLogger(log)
}

// shareLogger makes l the logger of main and of every package.
func shareLogger(l zerolog.Logger) {
	log = l
	rpc.SetLogger(l)
	portal.SetLogger(l)
	lcd.SetLogger(l)
	query.SetLogger(l)
	tx.SetLogger(l)
	wallet.SetLogger(l)
	keystore.SetLogger(l)
	client.SetLogger(l)
	form.SetLogger(l)
	keplr.SetLogger(l)
}

func main() {
	configPath := flag.String("config", "", "TOML config file, environment variables with the REIFIED_ prefix when empty")
	tlsCert := flag.String("tls-cert", "", "TLS certificate file")
	tlsKey := flag.String("tls-key", "", "TLS key file")
	flag.Parse()

	log.Info().Str("config", *configPath).Msg("Starting Reified portal")

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	if cfg.Telemetry.EnableLogs {
		shareLogger(log.Hook(telemetry.NewLogHook("github.com/Cogwheel-Validator/reified-portal", "")))
	}
	if password := os.Getenv(config.EnvPrefix + "_WALLET_PASSWORD"); password != "" {
		cfg.Wallet.Password = password
	}

	// without auto_approve the first connection is confirmed on the terminal
	var approver wallet.Approver = wallet.AutoApprove{}
	if !cfg.Wallet.AutoApprove {
		approver = wallet.NewPromptApprover()
	}

	stack, err := portal.FromConfig(cfg, approver)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build portal")
	}
	defer stack.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Wallet.Connect {
		connectCtx, connectCancel := context.WithTimeout(ctx, cfg.Chain.RequestTimeout)
		account, err := stack.Portal.ConnectWallet(connectCtx)
		connectCancel()
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect wallet")
		}
		log.Info().Str("address", account.Address).Msg("Wallet connected at startup")
	}

	server, err := rpc.NewServer(ctx, buildServerConfig(cfg, stack), stack.Portal)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create RPC server")
	}

	// Setup signal handling for graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		var err error
		if *tlsCert != "" && *tlsKey != "" {
			err = server.StartTLS(*tlsCert, *tlsKey)
		} else {
			err = server.Start()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("Server error")
			sigCh <- syscall.SIGTERM
		}
	}()

	sig := <-sigCh
	log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Shutdown error")
	}
}

// buildServerConfig converts the loaded config to rpc.ServerConfig
func buildServerConfig(cfg *config.Config, stack *portal.Stack) *rpc.ServerConfig {
	serverConfig := &rpc.ServerConfig{
		Address:        net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
		AllowedOrigins: cfg.Server.AllowedOrigins,
		EnableMetrics:  cfg.Telemetry.UsePrometheus,
		RequestTimeout: cfg.Server.RequestTimeout,
		WorkflowTTL:    cfg.Server.WorkflowTTL,
		ReadyCheck:     readyCheck(cfg, stack.Rest),
	}

	if cfg.Server.RatePerMinute > 0 {
		serverConfig.RatePerMinute = &cfg.Server.RatePerMinute
	}
	if cfg.Server.MaxConcurrentRequests > 0 {
		serverConfig.MaxConcurrentRequests = &cfg.Server.MaxConcurrentRequests
	}

	t := cfg.Telemetry
	if t.EnableTracing || t.EnableMetrics || t.EnableLogs || t.UsePrometheus {
		serverConfig.Telemetry = &telemetry.Config{
			ServiceName:     t.ServiceName,
			ServiceVersion:  t.ServiceVersion,
			Environment:     t.Environment,
			EnableTracing:   t.EnableTracing,
			UseOTLPTraces:   t.UseOTLPTraces,
			OTLPTracesURL:   t.OTLPTracesURL,
			EnableMetrics:   t.EnableMetrics,
			UsePrometheus:   t.UsePrometheus,
			UseOTLPMetrics:  t.UseOTLPMetrics,
			OTLPMetricsURL:  t.OTLPMetricsURL,
			EnableLogs:      t.EnableLogs,
			UseOTLPLogs:     t.UseOTLPLogs,
			OTLPLogsURL:     t.OTLPLogsURL,
			InsecureOTLP:    t.InsecureOTLP,
			DevelopmentMode: t.DevelopmentMode,
		}
	}

	return serverConfig
}

// readyCheck checks the node behind the RPC endpoint when one is configured,
// and the REST endpoints otherwise.
func readyCheck(cfg *config.Config, rest *lcd.Client) func(context.Context) error {
	if cfg.Chain.RPC == "" {
		return func(ctx context.Context) error {
			if !rest.Healthy(ctx) {
				return errors.New("no healthy REST endpoint")
			}
			return nil
		}
	}
	httpClient := &http.Client{Timeout: cfg.Chain.RequestTimeout}
	return func(ctx context.Context) error {
		return lcd.CheckNetwork(ctx, httpClient, cfg.Chain.RPC, cfg.Chain.ChainID)
	}
}
