// Package keplr reads chain information from the Keplr chain registry.
package keplr

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/hashicorp/go-getter"
	"github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// RegistrySource is the go-getter source of the registry's cosmos chains.
const RegistrySource = "github.com/chainapsis/keplr-chain-registry//cosmos"

var ErrChainNotFound = errors.New("chain not found in registry")

var log zerolog.Logger

func init() {
	output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	log = zerolog.New(output).With().Timestamp().Str("component", "keplr").Logger()
}

func SetLogger(l zerolog.Logger) {
	log = l.With().Str("component", "keplr").Logger()
}

/*
FetchRegistry downloads the registry into dst.

Params:
- ctx: bounds the download, a deadline of two minutes is added when ctx has none
- src: the go-getter source, RegistrySource when empty
- dst: the directory to download the registry to
*/
func FetchRegistry(ctx context.Context, src, dst string) error {
	if src == "" {
		src = RegistrySource
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 120*time.Second)
		defer cancel()
	}

	client := getter.Client{
		Ctx:  ctx,
		Src:  src,
		Dst:  dst,
		Mode: getter.ClientModeDir,
		Detectors: []getter.Detector{
			&getter.GitHubDetector{},
			&getter.FileDetector{},
		},
		Getters: map[string]getter.Getter{
			"git":  &getter.GitGetter{},
			"file": &getter.FileGetter{Copy: true},
		},
	}
	log.Info().Str("src", src).Str("dst", dst).Msg("Downloading keplr registry")
	if err := client.Get(); err != nil {
		return fmt.Errorf("failed to download keplr registry: %w", err)
	}
	return nil
}

// ReadChainInfo reads one chain entry. Files ending in .toml are decoded as
// TOML, everything else as registry JSON.
func ReadChainInfo(path string) (ChainInfo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ChainInfo{}, fmt.Errorf("failed to read chain info: %w", err)
	}

	var info ChainInfo
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		err = toml.Unmarshal(data, &info)
	} else {
		err = json.Unmarshal(data, &info)
	}
	if err != nil {
		return ChainInfo{}, fmt.Errorf("failed to decode chain info %s: %w", path, err)
	}
	return info, nil
}

var revision = regexp.MustCompile(`-\d+$`)

// chainIdentifier strips the revision number the registry leaves out of its
// file names, "cudos-1" is stored as "cudos.json".
func chainIdentifier(chainID string) string {
	return revision.ReplaceAllString(chainID, "")
}

// LoadChainInfo finds the entry for chainID in a downloaded registry. The
// file named after the chain identifier is tried first, then every JSON file
// of the directory.
func LoadChainInfo(dir, chainID string) (ChainInfo, error) {
	direct := filepath.Join(dir, chainIdentifier(chainID)+".json")
	if info, err := ReadChainInfo(direct); err == nil && info.ChainID == chainID {
		return info, nil
	}

	paths, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return ChainInfo{}, err
	}
	for _, path := range paths {
		info, err := ReadChainInfo(path)
		if err != nil {
			log.Debug().Err(err).Str("path", path).Msg("Skipping registry file")
			continue
		}
		if info.ChainID == chainID {
			return info, nil
		}
	}
	return ChainInfo{}, fmt.Errorf("%w: %s", ErrChainNotFound, chainID)
}

// Bech32Prefix returns the account address prefix.
func (c ChainInfo) Bech32Prefix() string {
	return c.Bech32Config.Bech32PrefixAccAddr
}

// DefaultGasPrice returns the average gas price of the first fee currency,
// formatted as a coin string such as "5000000000000acudos".
func (c ChainInfo) DefaultGasPrice() (string, error) {
	if len(c.FeeCurrencies) == 0 {
		return "", fmt.Errorf("chain %s has no fee currency", c.ChainID)
	}
	fee := c.FeeCurrencies[0]
	if fee.CoinMinimalDenom == "" || fee.GasPriceStep.Average <= 0 {
		return "", fmt.Errorf("chain %s has no average gas price for %q", c.ChainID, fee.CoinMinimalDenom)
	}
	return decimal.NewFromFloat(fee.GasPriceStep.Average).String() + fee.CoinMinimalDenom, nil
}
