// Package address handles the bech32 account addresses used by the chain.
package address

import (
	"crypto/sha256"
	"errors"
	"fmt"

	"github.com/btcsuite/btcutil/bech32"
	"golang.org/x/crypto/ripemd160" //nolint:staticcheck // cosmos account addresses are ripemd160(sha256(pubkey))
)

// ErrWrongPrefix is returned when an address decodes fine but belongs to
// another chain.
var ErrWrongPrefix = errors.New("address has the wrong bech32 prefix")

// FromPubKey derives the account address of a compressed secp256k1 public key.
func FromPubKey(prefix string, pubKey []byte) (string, error) {
	sha := sha256.Sum256(pubKey)
	hasher := ripemd160.New()
	_, _ = hasher.Write(sha[:])
	return Encode(prefix, hasher.Sum(nil))
}

// Encode encodes raw address bytes with the given prefix.
func Encode(prefix string, raw []byte) (string, error) {
	data, err := bech32.ConvertBits(raw, 8, 5, true)
	if err != nil {
		return "", fmt.Errorf("failed to convert address bits: %w", err)
	}
	encoded, err := bech32.Encode(prefix, data)
	if err != nil {
		return "", fmt.Errorf("failed to encode address: %w", err)
	}
	return encoded, nil
}

// Decode returns the prefix and raw bytes of a bech32 address.
func Decode(address string) (string, []byte, error) {
	prefix, data, err := bech32.Decode(address)
	if err != nil {
		return "", nil, fmt.Errorf("failed to decode address: %w", err)
	}
	raw, err := bech32.ConvertBits(data, 5, 8, false)
	if err != nil {
		return "", nil, fmt.Errorf("failed to convert address bits: %w", err)
	}
	return prefix, raw, nil
}

// Validate checks that address is a well formed bech32 account address with
// the expected prefix. An empty prefix accepts any chain.
func Validate(address, prefix string) error {
	got, raw, err := Decode(address)
	if err != nil {
		return err
	}
	if prefix != "" && got != prefix {
		return fmt.Errorf("%w: got %q, want %q", ErrWrongPrefix, got, prefix)
	}
	if len(raw) != 20 && len(raw) != 32 {
		return fmt.Errorf("address payload has invalid length %d", len(raw))
	}
	return nil
}

// Convert re-encodes an address with another prefix. This is useful for
// deriving the same account's address on different chains.
func Convert(address, targetPrefix string) (string, error) {
	_, raw, err := Decode(address)
	if err != nil {
		return "", err
	}
	return Encode(targetPrefix, raw)
}
