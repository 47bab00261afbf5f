package keplr

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/zeebo/assert"
)

const cudosJSON = `{
  "rpc": "https://rpc.cudos.org",
  "rest": "https://rest.cudos.org",
  "chainId": "cudos-1",
  "chainName": "Cudos",
  "bip44": {"coinType": 118},
  "bech32Config": {"bech32PrefixAccAddr": "cudos", "bech32PrefixAccPub": "cudospub"},
  "currencies": [{"coinDenom": "CUDOS", "coinMinimalDenom": "acudos", "coinDecimals": 18}],
  "feeCurrencies": [{
    "coinDenom": "CUDOS",
    "coinMinimalDenom": "acudos",
    "coinDecimals": 18,
    "gasPriceStep": {"low": 5000000000000, "average": 10000000000000, "high": 20000000000000}
  }],
  "features": ["cosmwasm"]
}`

const localTOML = `
rpc = "http://localhost:26657"
rest = "http://localhost:1317"
chain_id = "cudos-local-0"
chain_name = "Cudos local"

[bip44]
coin_type = 118

[bech32_config]
bech32_prefix_acc_addr = "cudos"

[[fee_currencies]]
coin_denom = "CUDOS"
coin_minimal_denom = "acudos"
coin_decimals = 18

[fee_currencies.gas_price_step]
average = 0.025
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	assert.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReadChainInfo(t *testing.T) {
	dir := t.TempDir()

	info, err := ReadChainInfo(writeFile(t, dir, "cudos.json", cudosJSON))
	assert.NoError(t, err)
	assert.Equal(t, info.ChainID, "cudos-1")
	assert.Equal(t, info.Rest, "https://rest.cudos.org")
	assert.Equal(t, info.Bech32Prefix(), "cudos")
	assert.Equal(t, info.Bip44.CoinType, uint32(118))

	gasPrice, err := info.DefaultGasPrice()
	assert.NoError(t, err)
	assert.Equal(t, gasPrice, "10000000000000acudos")

	info, err = ReadChainInfo(writeFile(t, dir, "local.toml", localTOML))
	assert.NoError(t, err)
	assert.Equal(t, info.ChainID, "cudos-local-0")
	gasPrice, err = info.DefaultGasPrice()
	assert.NoError(t, err)
	assert.Equal(t, gasPrice, "0.025acudos")
}

func TestReadChainInfoErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := ReadChainInfo(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)

	_, err = ReadChainInfo(writeFile(t, dir, "broken.json", "{"))
	assert.Error(t, err)
}

func TestDefaultGasPriceRequiresFeeCurrency(t *testing.T) {
	_, err := ChainInfo{ChainID: "cudos-1"}.DefaultGasPrice()
	assert.Error(t, err)

	_, err = ChainInfo{ChainID: "cudos-1", FeeCurrencies: []FeeCurrency{{CoinMinimalDenom: "acudos"}}}.DefaultGasPrice()
	assert.Error(t, err)
}

func TestLoadChainInfo(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "cudos.json", cudosJSON)
	writeFile(t, dir, "renamed.json", `{"chainId": "cudos-testnet-public-3", "chainName": "Cudos testnet"}`)
	writeFile(t, dir, "broken.json", "not json")

	info, err := LoadChainInfo(dir, "cudos-1")
	assert.NoError(t, err)
	assert.Equal(t, info.ChainName, "Cudos")

	info, err = LoadChainInfo(dir, "cudos-testnet-public-3")
	assert.NoError(t, err)
	assert.Equal(t, info.ChainName, "Cudos testnet")

	_, err = LoadChainInfo(dir, "osmosis-1")
	assert.True(t, errors.Is(err, ErrChainNotFound))
}

func TestChainIdentifier(t *testing.T) {
	tests := []struct {
		chainID string
		want    string
	}{
		{"cudos-1", "cudos"},
		{"cudos-testnet-public-3", "cudos-testnet-public"},
		{"localnet", "localnet"},
	}
	for _, tt := range tests {
		t.Run(tt.chainID, func(t *testing.T) {
			assert.Equal(t, chainIdentifier(tt.chainID), tt.want)
		})
	}
}
