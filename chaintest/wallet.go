package chaintest

import (
	"bytes"
	"context"
	"crypto/sha256"
	"fmt"
	"slices"

	"github.com/Cogwheel-Validator/reified-portal/nft"
	"github.com/Cogwheel-Validator/reified-portal/tx"
	"github.com/Cogwheel-Validator/reified-portal/wallet"
)

// Signer signs with a deterministic fake signature.
type Signer struct {
	Addr string
}

func (s Signer) Address() string {
	return s.Addr
}

func (s Signer) PubKey() []byte {
	sum := sha256.Sum256([]byte(s.Addr))
	return append([]byte{0x02}, sum[:]...)
}

func (s Signer) Sign(signDoc []byte) ([]byte, error) {
	sum := sha256.Sum256(signDoc)
	return bytes.Repeat(sum[:], 2), nil
}

// Wallet is a scripted wallet extension.
type Wallet struct {
	Name     string
	Addr     string
	ChainIDs []string
	// Deny makes Enable fail as if the user declined.
	Deny bool
	// EnableErr, when set, is returned by Enable.
	EnableErr error
	// Enables counts Enable calls.
	Enables int
}

// NewWallet creates a wallet holding one account, enabled for chainID.
func NewWallet(name, addr, chainID string) *Wallet {
	return &Wallet{Name: name, Addr: addr, ChainIDs: []string{chainID}}
}

var _ wallet.Extension = (*Wallet)(nil)

func (w *Wallet) Enable(ctx context.Context, chainID string) error {
	w.Enables++
	if w.EnableErr != nil {
		return w.EnableErr
	}
	if !slices.Contains(w.ChainIDs, chainID) {
		return fmt.Errorf("%w: %s", nft.ErrChainRejected, chainID)
	}
	if w.Deny {
		return nft.ErrUserDenied
	}
	return nil
}

func (w *Wallet) GetKey(ctx context.Context, chainID string) (wallet.Key, error) {
	return wallet.Key{Name: w.Name, Bech32Address: w.Addr, PubKey: Signer{Addr: w.Addr}.PubKey()}, nil
}

func (w *Wallet) OfflineSigner(ctx context.Context, chainID string) (tx.Signer, error) {
	return Signer{Addr: w.Addr}, nil
}
