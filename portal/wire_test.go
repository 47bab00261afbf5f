package portal_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/zeebo/assert"

	"github.com/Cogwheel-Validator/reified-portal/config"
	"github.com/Cogwheel-Validator/reified-portal/keystore"
	"github.com/Cogwheel-Validator/reified-portal/nft"
	"github.com/Cogwheel-Validator/reified-portal/portal"
	"github.com/Cogwheel-Validator/reified-portal/wallet"
)

func baseConfig() *config.Config {
	return &config.Config{
		Chain: config.ChainConfig{
			ChainID:             "cudos-1",
			Rest:                []string{"http://127.0.0.1:1317"},
			GasPrice:            "5000000000000acudos",
			Bech32Prefix:        "cudos",
			NFTRoutePrefix:      "/nft",
			GasMultiplier:       "1.5",
			MaxRetries:          1,
			RetryDelay:          10 * time.Millisecond,
			HealthCheckInterval: time.Minute,
			RequestTimeout:      time.Second,
		},
	}
}

func TestFromConfigReadOnly(t *testing.T) {
	stack, err := portal.FromConfig(baseConfig(), wallet.AutoApprove{})
	assert.NoError(t, err)
	defer stack.Close()

	assert.Equal(t, stack.Portal.ChainID(), "cudos-1")
	_, err = stack.Portal.ConnectWallet(context.Background())
	assert.True(t, errors.Is(err, nft.ErrWalletUnavailable))
}

func TestFromConfigWithKeystore(t *testing.T) {
	mnemonic, err := keystore.NewMnemonic()
	assert.NoError(t, err)
	path := filepath.Join(t.TempDir(), "alice.json")
	key, err := keystore.Save(path, "alice", mnemonic, "hunter22", "cudos", keystore.DefaultCoinType)
	assert.NoError(t, err)

	cfg := baseConfig()
	cfg.Wallet.Keystore = path
	cfg.Wallet.Password = "hunter22"

	stack, err := portal.FromConfig(cfg, wallet.AutoApprove{})
	assert.NoError(t, err)
	defer stack.Close()

	account, err := stack.Portal.ConnectWallet(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, account, nft.AccountDetails{Address: key.Address(), Username: "alice"})
	assert.True(t, stack.Wallet.IsConnected())
}

func TestFromConfigErrors(t *testing.T) {
	cfg := baseConfig()
	cfg.Chain.GasPrice = "cheap"
	_, err := portal.FromConfig(cfg, wallet.AutoApprove{})
	assert.Error(t, err)

	cfg = baseConfig()
	cfg.Chain.GasMultiplier = "x"
	_, err = portal.FromConfig(cfg, wallet.AutoApprove{})
	assert.Error(t, err)

	cfg = baseConfig()
	cfg.Chain.Rest = nil
	_, err = portal.FromConfig(cfg, wallet.AutoApprove{})
	assert.Error(t, err)

	mnemonic, err := keystore.NewMnemonic()
	assert.NoError(t, err)
	path := filepath.Join(t.TempDir(), "bob.json")
	_, err = keystore.Save(path, "bob", mnemonic, "right-password", "cudos", keystore.DefaultCoinType)
	assert.NoError(t, err)

	cfg = baseConfig()
	cfg.Wallet.Keystore = path
	cfg.Wallet.Password = "wrong-password"
	_, err = portal.FromConfig(cfg, wallet.AutoApprove{})
	assert.True(t, errors.Is(err, keystore.ErrWrongPassword))
}
