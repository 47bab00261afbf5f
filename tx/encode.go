package tx

import "google.golang.org/protobuf/encoding/protowire"

const (
	typeURLSecp256k1PubKey = "/cosmos.crypto.secp256k1.PubKey"
	signModeDirect         = 1
)

// Proto3 omits zero values, so do the append helpers.

func appendString(b []byte, num protowire.Number, v string) []byte {
	if v == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, v)
}

func appendBytes(b []byte, num protowire.Number, v []byte) []byte {
	if len(v) == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, v)
}

func appendVarint(b []byte, num protowire.Number, v uint64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

// appendMessage always writes the field, an empty embedded message is still
// present.
func appendMessage(b []byte, num protowire.Number, m []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, m)
}

func encodeAny(typeURL string, value []byte) []byte {
	var b []byte
	b = appendString(b, 1, typeURL)
	b = appendBytes(b, 2, value)
	return b
}

// Coin is an amount of one denomination. Amount is an integer string.
type Coin struct {
	Denom  string `json:"denom"`
	Amount string `json:"amount"`
}

func encodeCoin(c Coin) []byte {
	var b []byte
	b = appendString(b, 1, c.Denom)
	b = appendString(b, 2, c.Amount)
	return b
}

// Fee is what the signer pays for a transaction.
type Fee struct {
	Amount   []Coin
	GasLimit uint64
}

func encodeBody(msgs []Msg, memo string) []byte {
	var b []byte
	for _, msg := range msgs {
		b = appendMessage(b, 1, encodeAny(msg.TypeURL, msg.Value))
	}
	return appendString(b, 2, memo)
}

func encodeAuthInfo(pubKey []byte, sequence uint64, fee Fee) []byte {
	var key []byte
	key = appendBytes(key, 1, pubKey)

	var single []byte
	single = appendVarint(single, 1, signModeDirect)
	var modeInfo []byte
	modeInfo = appendMessage(modeInfo, 1, single)

	var signerInfo []byte
	signerInfo = appendMessage(signerInfo, 1, encodeAny(typeURLSecp256k1PubKey, key))
	signerInfo = appendMessage(signerInfo, 2, modeInfo)
	signerInfo = appendVarint(signerInfo, 3, sequence)

	var feeBytes []byte
	for _, coin := range fee.Amount {
		feeBytes = appendMessage(feeBytes, 1, encodeCoin(coin))
	}
	feeBytes = appendVarint(feeBytes, 2, fee.GasLimit)

	var b []byte
	b = appendMessage(b, 1, signerInfo)
	return appendMessage(b, 2, feeBytes)
}

func encodeSignDoc(bodyBytes, authInfoBytes []byte, chainID string, accountNumber uint64) []byte {
	var b []byte
	b = appendBytes(b, 1, bodyBytes)
	b = appendBytes(b, 2, authInfoBytes)
	b = appendString(b, 3, chainID)
	return appendVarint(b, 4, accountNumber)
}

// encodeTxRaw writes the signature field even when empty, simulation
// expects one signature slot per signer.
func encodeTxRaw(bodyBytes, authInfoBytes, signature []byte) []byte {
	var b []byte
	b = appendBytes(b, 1, bodyBytes)
	b = appendBytes(b, 2, authInfoBytes)
	b = protowire.AppendTag(b, 3, protowire.BytesType)
	return protowire.AppendBytes(b, signature)
}
