package tx

import "context"

// Signer holds the key of one account.
type Signer interface {
	// Address is the bech32 account address of the key.
	Address() string
	// PubKey is the 33 byte compressed secp256k1 public key.
	PubKey() []byte
	// Sign returns the 64 byte r||s signature of the sha256 of signDoc.
	Sign(signDoc []byte) ([]byte, error)
}

// Broadcaster signs messages as one account and submits them.
type Broadcaster interface {
	Address() string
	SignAndBroadcast(ctx context.Context, msgs []Msg, memo string) (TxResult, error)
}
