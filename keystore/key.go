// Package keystore is a local software wallet: a BIP-39 mnemonic stored
// encrypted on disk, derived to a secp256k1 account key that can sign
// transactions.
package keystore

import (
	"crypto/sha256"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/cosmos/go-bip39"

	"github.com/Cogwheel-Validator/reified-portal/address"
)

// DefaultCoinType is the SLIP-44 coin type of Cosmos chains.
const DefaultCoinType = 118

var ErrInvalidMnemonic = errors.New("invalid mnemonic")

// Key is an account key derived at m/44'/coinType'/0'/0/0.
type Key struct {
	name    string
	address string
	pubKey  []byte
	privKey *btcec.PrivateKey
}

// NewMnemonic generates a fresh 24 word mnemonic.
func NewMnemonic() (string, error) {
	entropy, err := bip39.NewEntropy(256)
	if err != nil {
		return "", fmt.Errorf("failed to generate entropy: %w", err)
	}
	return bip39.NewMnemonic(entropy)
}

// FromMnemonic derives the account key of mnemonic.
func FromMnemonic(name, mnemonic, bech32Prefix string, coinType uint32) (*Key, error) {
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, ErrInvalidMnemonic
	}
	seed, err := bip39.NewSeedWithErrorChecking(mnemonic, "")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMnemonic, err)
	}

	master, err := hdkeychain.NewMaster(seed, &chaincfg.MainNetParams)
	if err != nil {
		return nil, fmt.Errorf("failed to create master key: %w", err)
	}

	path := []uint32{
		hdkeychain.HardenedKeyStart + 44,
		hdkeychain.HardenedKeyStart + coinType,
		hdkeychain.HardenedKeyStart + 0,
		0,
		0,
	}
	child := master
	for _, index := range path {
		child, err = child.Derive(index)
		if err != nil {
			return nil, fmt.Errorf("failed to derive key: %w", err)
		}
	}

	privKey, err := child.ECPrivKey()
	if err != nil {
		return nil, fmt.Errorf("failed to extract private key: %w", err)
	}
	pubKey := privKey.PubKey().SerializeCompressed()

	addr, err := address.FromPubKey(bech32Prefix, pubKey)
	if err != nil {
		return nil, err
	}

	return &Key{
		name:    name,
		address: addr,
		pubKey:  pubKey,
		privKey: privKey,
	}, nil
}

func (k *Key) Name() string {
	return k.name
}

func (k *Key) Address() string {
	return k.address
}

func (k *Key) PubKey() []byte {
	return k.pubKey
}

// Sign returns the 64 byte low-S r||s signature over sha256(signDoc).
func (k *Key) Sign(signDoc []byte) ([]byte, error) {
	hash := sha256.Sum256(signDoc)
	compact, err := ecdsa.SignCompact(k.privKey, hash[:], true)
	if err != nil {
		return nil, fmt.Errorf("failed to sign: %w", err)
	}
	// drop the recovery byte
	return compact[1:], nil
}

// Verify checks a signature produced by Sign.
func (k *Key) Verify(signDoc, signature []byte) bool {
	if len(signature) != 64 {
		return false
	}
	var r, s btcec.ModNScalar
	if overflow := r.SetByteSlice(signature[:32]); overflow {
		return false
	}
	if overflow := s.SetByteSlice(signature[32:]); overflow {
		return false
	}
	hash := sha256.Sum256(signDoc)
	return ecdsa.NewSignature(&r, &s).Verify(hash[:], k.privKey.PubKey())
}
