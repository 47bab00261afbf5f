package tx

import (
	"errors"
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/Cogwheel-Validator/reified-portal/nft"
)

// Type URLs of the NFT module messages.
const (
	TypeURLIssueDenom = "/cudoventures.cudosnode.nft.MsgIssueDenom"
	TypeURLMintNFT    = "/cudoventures.cudosnode.nft.MsgMintNFT"
)

// Msg is a message ready to be packed into a transaction body as an Any.
type Msg struct {
	TypeURL string
	Value   []byte
}

// MsgIssueDenom creates a new collection.
type MsgIssueDenom struct {
	ID                    string
	Name                  string
	Schema                string
	Sender                string
	ContractAddressSigner string
	Symbol                string
	Traits                string
	Minter                string
	Description           string
	Data                  string
}

func (m MsgIssueDenom) Marshal() []byte {
	var b []byte
	b = appendString(b, 1, m.ID)
	b = appendString(b, 2, m.Name)
	b = appendString(b, 3, m.Schema)
	b = appendString(b, 4, m.Sender)
	b = appendString(b, 5, m.ContractAddressSigner)
	b = appendString(b, 6, m.Symbol)
	b = appendString(b, 7, m.Traits)
	b = appendString(b, 8, m.Minter)
	b = appendString(b, 9, m.Description)
	b = appendString(b, 10, m.Data)
	return b
}

func (m MsgIssueDenom) Msg() Msg {
	return Msg{TypeURL: TypeURLIssueDenom, Value: m.Marshal()}
}

// MsgMintNFT mints a token under an existing denom.
type MsgMintNFT struct {
	DenomID               string
	Name                  string
	URI                   string
	Data                  string
	Sender                string
	Recipient             string
	ContractAddressSigner string
}

func (m MsgMintNFT) Marshal() []byte {
	var b []byte
	b = appendString(b, 1, m.DenomID)
	b = appendString(b, 2, m.Name)
	b = appendString(b, 3, m.URI)
	b = appendString(b, 4, m.Data)
	b = appendString(b, 5, m.Sender)
	b = appendString(b, 6, m.Recipient)
	b = appendString(b, 7, m.ContractAddressSigner)
	return b
}

func (m MsgMintNFT) Msg() Msg {
	return Msg{TypeURL: TypeURLMintNFT, Value: m.Marshal()}
}

// NewIssueDenom builds the chain message for an issue request.
func NewIssueDenom(msg nft.IssueMessage) MsgIssueDenom {
	return MsgIssueDenom{
		ID:     msg.ID,
		Name:   msg.Name,
		Schema: msg.Schema,
		Sender: msg.Sender,
		Symbol: msg.Symbol,
	}
}

// NewMintNFT builds the chain message for a mint request. The sender is the
// message's From address.
func NewMintNFT(msg nft.MintMessage) MsgMintNFT {
	return MsgMintNFT{
		DenomID:   msg.DenomID,
		Name:      msg.Name,
		URI:       msg.URI,
		Data:      msg.Data,
		Sender:    msg.From,
		Recipient: msg.Recipient,
	}
}

var errMalformed = errors.New("malformed protobuf message")

// stringFields decodes a message made only of string fields.
func stringFields(b []byte) (map[protowire.Number]string, error) {
	fields := make(map[protowire.Number]string)
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, fmt.Errorf("%w: %v", errMalformed, protowire.ParseError(n))
		}
		b = b[n:]
		if typ != protowire.BytesType {
			n = protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return nil, fmt.Errorf("%w: %v", errMalformed, protowire.ParseError(n))
			}
			b = b[n:]
			continue
		}
		v, n := protowire.ConsumeString(b)
		if n < 0 {
			return nil, fmt.Errorf("%w: %v", errMalformed, protowire.ParseError(n))
		}
		fields[num] = v
		b = b[n:]
	}
	return fields, nil
}

// UnmarshalIssueDenom decodes the value of an issue message.
func UnmarshalIssueDenom(b []byte) (MsgIssueDenom, error) {
	f, err := stringFields(b)
	if err != nil {
		return MsgIssueDenom{}, err
	}
	return MsgIssueDenom{
		ID:                    f[1],
		Name:                  f[2],
		Schema:                f[3],
		Sender:                f[4],
		ContractAddressSigner: f[5],
		Symbol:                f[6],
		Traits:                f[7],
		Minter:                f[8],
		Description:           f[9],
		Data:                  f[10],
	}, nil
}

// UnmarshalMintNFT decodes the value of a mint message.
func UnmarshalMintNFT(b []byte) (MsgMintNFT, error) {
	f, err := stringFields(b)
	if err != nil {
		return MsgMintNFT{}, err
	}
	return MsgMintNFT{
		DenomID:               f[1],
		Name:                  f[2],
		URI:                   f[3],
		Data:                  f[4],
		Sender:                f[5],
		Recipient:             f[6],
		ContractAddressSigner: f[7],
	}, nil
}
