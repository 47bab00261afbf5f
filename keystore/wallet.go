package keystore

import (
	"context"
	"fmt"
	"os"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Cogwheel-Validator/reified-portal/nft"
	"github.com/Cogwheel-Validator/reified-portal/tx"
	"github.com/Cogwheel-Validator/reified-portal/wallet"
)

var log zerolog.Logger

func init() {
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	log = zerolog.New(out).With().Timestamp().Str("component", "keystore").Logger()
}

// SetLogger replaces the package logger.
func SetLogger(l zerolog.Logger) {
	log = l.With().Str("component", "keystore").Logger()
}

// Wallet exposes a Key as a wallet extension. It only serves the chains it
// was configured for and asks its approver once per chain before handing
// out the key.
type Wallet struct {
	key      *Key
	chainIDs []string
	approver wallet.Approver

	mu       sync.Mutex
	approved map[string]bool
}

// NewWallet creates a wallet serving chainIDs. A nil approver approves
// every request.
func NewWallet(key *Key, chainIDs []string, approver wallet.Approver) *Wallet {
	return &Wallet{
		key:      key,
		chainIDs: chainIDs,
		approver: approver,
		approved: make(map[string]bool),
	}
}

var _ wallet.Extension = (*Wallet)(nil)

func (w *Wallet) Enable(ctx context.Context, chainID string) error {
	if !slices.Contains(w.chainIDs, chainID) {
		return fmt.Errorf("%w: %s", nft.ErrChainRejected, chainID)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.approved[chainID] {
		return nil
	}
	if w.approver != nil {
		ok, err := w.approver.Approve(ctx, chainID, w.key.Address())
		if err != nil {
			return fmt.Errorf("approval failed: %w", err)
		}
		if !ok {
			log.Info().Str("chain_id", chainID).Msg("Connection request declined")
			return nft.ErrUserDenied
		}
	}
	w.approved[chainID] = true
	return nil
}

func (w *Wallet) enabled(chainID string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.approved[chainID] {
		return fmt.Errorf("chain %s is not enabled: %w", chainID, nft.ErrUserDenied)
	}
	return nil
}

func (w *Wallet) GetKey(ctx context.Context, chainID string) (wallet.Key, error) {
	if err := w.enabled(chainID); err != nil {
		return wallet.Key{}, err
	}
	return wallet.Key{
		Name:          w.key.Name(),
		Bech32Address: w.key.Address(),
		PubKey:        w.key.PubKey(),
	}, nil
}

func (w *Wallet) OfflineSigner(ctx context.Context, chainID string) (tx.Signer, error) {
	if err := w.enabled(chainID); err != nil {
		return nil, err
	}
	return w.key, nil
}
