package portal

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/Cogwheel-Validator/reified-portal/client"
	"github.com/Cogwheel-Validator/reified-portal/config"
	"github.com/Cogwheel-Validator/reified-portal/form"
	"github.com/Cogwheel-Validator/reified-portal/keystore"
	"github.com/Cogwheel-Validator/reified-portal/lcd"
	"github.com/Cogwheel-Validator/reified-portal/query"
	"github.com/Cogwheel-Validator/reified-portal/tx"
	"github.com/Cogwheel-Validator/reified-portal/wallet"
)

// Stack is a portal together with the clients it was built on.
type Stack struct {
	Portal *Portal
	Rest   *lcd.Client
	Wallet *wallet.Manager
}

// Close disconnects the wallet and stops the REST client.
func (s *Stack) Close() {
	s.Wallet.Disconnect()
	s.Rest.Close()
}

// FromConfig builds the portal for a loaded configuration. Without a
// keystore the wallet is unavailable and the portal is read-only. approver
// decides whether the keystore wallet may connect to the chain.
func FromConfig(cfg *config.Config, approver wallet.Approver) (*Stack, error) {
	chain := cfg.Chain
	if len(chain.Rest) == 0 {
		return nil, errors.New("no REST endpoint configured")
	}

	gasPrice, err := tx.ParseGasPrice(chain.GasPrice)
	if err != nil {
		return nil, fmt.Errorf("invalid gas price: %w", err)
	}
	multiplier := tx.DefaultGasMultiplier
	if chain.GasMultiplier != "" {
		multiplier, err = decimal.NewFromString(chain.GasMultiplier)
		if err != nil {
			return nil, fmt.Errorf("invalid gas multiplier %q: %w", chain.GasMultiplier, err)
		}
	}

	var extension wallet.Extension
	if cfg.Wallet.Keystore != "" {
		key, err := keystore.Open(cfg.Wallet.Keystore, cfg.Wallet.Password, chain.Bech32Prefix)
		if err != nil {
			return nil, fmt.Errorf("failed to open keystore: %w", err)
		}
		extension = keystore.NewWallet(key, []string{chain.ChainID}, approver)
	} else {
		log.Warn().Msg("No keystore configured, the portal is read-only")
	}

	rest, err := lcd.NewWithFailover(chain.Rest[0], chain.Rest[1:], lcd.FailoverConfig{
		MaxRetries:          chain.MaxRetries,
		RetryDelay:          chain.RetryDelay,
		HealthCheckInterval: chain.HealthCheckInterval,
		Timeout:             chain.RequestTimeout,
	})
	if err != nil {
		return nil, err
	}

	queries := query.New(rest,
		query.WithRoutePrefix(chain.NFTRoutePrefix),
		query.WithBech32Prefix(chain.Bech32Prefix),
	)
	session := wallet.NewManager(chain.ChainID, extension, wallet.SigningConnector{
		Transport: rest,
		Options: tx.Options{
			ChainID:          chain.ChainID,
			GasPrice:         gasPrice,
			GasMultiplier:    multiplier,
			PollInterval:     chain.PollInterval,
			BroadcastTimeout: chain.BroadcastTimeout,
		},
	})

	p, err := New(Config{
		ChainID:   chain.ChainID,
		Wallet:    session,
		Query:     queries,
		Tx:        client.New(session, client.WithMemo(chain.Memo)),
		Validator: form.NewValidator(queries, form.WithBech32Prefix(chain.Bech32Prefix)),
	})
	if err != nil {
		rest.Close()
		return nil, err
	}
	return &Stack{Portal: p, Rest: rest, Wallet: session}, nil
}
