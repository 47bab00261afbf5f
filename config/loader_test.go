package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	. "github.com/Cogwheel-Validator/reified-portal/config"
)

// helper to reset env vars with REIFIED_ prefix between tests
func unsetReifiedEnv(t *testing.T) {
	t.Helper()
	for _, e := range os.Environ() {
		if strings.HasPrefix(e, "REIFIED_") {
			if idx := strings.Index(e, "="); idx != -1 {
				_ = os.Unsetenv(e[:idx])
			}
		}
	}
	// run in an empty dir so godotenv.Load() inside the loader doesn't set REIFIED_* from a .env file
	t.Chdir(t.TempDir())
}

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed writing temp config: %v", err)
	}
	return path
}

func TestLoad_FromEnv_Success(t *testing.T) {
	unsetReifiedEnv(t)
	t.Setenv("REIFIED_CHAIN_CHAIN_ID", "cudos-1")
	t.Setenv("REIFIED_CHAIN_REST", "https://rest.cudos.org,https://backup.cudos.org")
	t.Setenv("REIFIED_CHAIN_GAS_PRICE", "5000000000000acudos")
	t.Setenv("REIFIED_SERVER_PORT", "9000")
	t.Setenv("REIFIED_WALLET_AUTO_APPROVE", "true")
	t.Setenv("REIFIED_CHAIN_BROADCAST_TIMEOUT", "2m")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.Chain.ChainID != "cudos-1" {
		t.Errorf("unexpected chain id: %q", cfg.Chain.ChainID)
	}
	if len(cfg.Chain.Rest) != 2 {
		t.Errorf("expected 2 rest urls, got %v", cfg.Chain.Rest)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("unexpected port: %d", cfg.Server.Port)
	}
	if !cfg.Wallet.AutoApprove {
		t.Errorf("expected auto approve")
	}
	if cfg.Chain.BroadcastTimeout != 2*time.Minute {
		t.Errorf("unexpected broadcast timeout: %v", cfg.Chain.BroadcastTimeout)
	}
	// defaults
	if cfg.Chain.Bech32Prefix != "cudos" || cfg.Chain.NFTRoutePrefix != "/nft" {
		t.Errorf("unexpected defaults: %+v", cfg.Chain)
	}
}

func TestLoad_FromEnv_FailVerification(t *testing.T) {
	unsetReifiedEnv(t)
	// missing chain id and gas price
	t.Setenv("REIFIED_CHAIN_REST", "https://rest.cudos.org")

	_, err := Load("")
	if err == nil {
		t.Fatalf("expected error due to missing chain id, got nil")
	}
	if !strings.Contains(err.Error(), "chain.chain_id is required") || !strings.Contains(err.Error(), "chain.gas_price is required") {
		t.Errorf("expected every missing value to be reported, got %v", err)
	}
}

func TestLoad_FromFile_Success(t *testing.T) {
	unsetReifiedEnv(t)
	path := writeConfig(t, "reified.toml", `
[chain]
chain_id = "cudos-1"
rest = ["https://rest.cudos.org"]
rpc = "https://rpc.cudos.org"
gas_price = "5000000000000acudos"
poll_interval = "1s"

[server]
port = 7000
host = "0.0.0.0"
allowed_origins = ["https://app.example.com"]

[telemetry]
enable_tracing = true
development_mode = true
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.Server.Port != 7000 || cfg.Server.Host != "0.0.0.0" {
		t.Errorf("unexpected values: %+v", cfg.Server)
	}
	if len(cfg.Server.AllowedOrigins) != 1 || cfg.Server.AllowedOrigins[0] != "https://app.example.com" {
		t.Errorf("unexpected allowed origins: %+v", cfg.Server.AllowedOrigins)
	}
	if cfg.Chain.PollInterval != time.Second {
		t.Errorf("unexpected poll interval: %v", cfg.Chain.PollInterval)
	}
	if !cfg.Telemetry.EnableTracing || !cfg.Telemetry.DevelopmentMode {
		t.Errorf("unexpected telemetry: %+v", cfg.Telemetry)
	}
}

func TestLoad_FromFile_WrongExtension(t *testing.T) {
	_, err := Load("config.yaml")
	if err == nil {
		t.Fatalf("expected error for non-toml file")
	}
}

func TestLoad_FromFile_UnknownKey(t *testing.T) {
	path := writeConfig(t, "reified.toml", `
[chain]
chain_id = "cudos-1"
rest = ["https://rest.cudos.org"]
gas_price = "5000000000000acudos"
gas_prise = "1acudos"
`)
	_, err := Load(path)
	if err == nil {
		t.Fatalf("expected error for unknown key")
	}
}

func TestLoad_FromFile_InvalidRest(t *testing.T) {
	path := writeConfig(t, "reified.toml", `
[chain]
chain_id = "cudos-1"
rest = ["rest.cudos.org"]
gas_price = "5000000000000acudos"
`)
	_, err := Load(path)
	if err == nil {
		t.Fatalf("expected error for rest url without scheme")
	}
}

func TestLoad_KeplrChainInfoFillsGaps(t *testing.T) {
	info := writeConfig(t, "cudos.json", `{
  "rpc": "https://rpc.cudos.org",
  "rest": "https://rest.cudos.org",
  "chainId": "cudos-1",
  "bip44": {"coinType": 118},
  "bech32Config": {"bech32PrefixAccAddr": "cudos"},
  "feeCurrencies": [{"coinMinimalDenom": "acudos", "gasPriceStep": {"average": 10000000000000}}]
}`)
	path := writeConfig(t, "reified.toml", `
[chain]
keplr_chain_info = "`+filepath.ToSlash(info)+`"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.Chain.ChainID != "cudos-1" || cfg.Chain.RPC != "https://rpc.cudos.org" {
		t.Errorf("unexpected chain: %+v", cfg.Chain)
	}
	if len(cfg.Chain.Rest) != 1 || cfg.Chain.Rest[0] != "https://rest.cudos.org" {
		t.Errorf("unexpected rest: %v", cfg.Chain.Rest)
	}
	if cfg.Chain.GasPrice != "10000000000000acudos" {
		t.Errorf("unexpected gas price: %q", cfg.Chain.GasPrice)
	}
}

func TestLoad_KeplrChainInfoMismatch(t *testing.T) {
	info := writeConfig(t, "osmosis.json", `{"chainId": "osmosis-1", "rest": "https://rest.osmosis.zone"}`)
	path := writeConfig(t, "reified.toml", `
[chain]
chain_id = "cudos-1"
keplr_chain_info = "`+filepath.ToSlash(info)+`"
`)
	_, err := Load(path)
	if err == nil {
		t.Fatalf("expected error for chain info of another chain")
	}
}

type fakeFileReader struct {
	files map[string]string
}

func (f *fakeFileReader) ReadFile(path string) ([]byte, error) {
	content, ok := f.files[path]
	if !ok {
		return nil, errors.New("file not found")
	}
	return []byte(content), nil
}

func TestLoader_UsesFileReader(t *testing.T) {
	loader := NewLoader(&fakeFileReader{files: map[string]string{
		"/etc/reified/reified.toml": `
[chain]
chain_id = "cudos-1"
rest = ["https://rest.cudos.org"]
gas_price = "5000000000000acudos"
`,
	}})

	cfg, err := loader.LoadFile("/etc/reified/reified.toml")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.Chain.ChainID != "cudos-1" {
		t.Errorf("unexpected chain id: %q", cfg.Chain.ChainID)
	}

	_, err = loader.LoadFile("/etc/reified/missing.toml")
	if err == nil {
		t.Fatalf("expected error for missing file")
	}
}
