// Package nft holds the data model shared by every layer of the portal: the
// connected account, collection (denom) and token shapes, the request payloads
// used to issue and mint, and the capability interfaces the rest of the
// repository is written against.
package nft

import "context"

// AccountDetails is the identity of the currently connected wallet.
type AccountDetails struct {
	Address  string `json:"address"`
	Username string `json:"username"`
}

// Denom is a collection definition (an NFT class). Immutable once issued.
type Denom struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Schema  string `json:"schema"`
	Creator string `json:"creator"`
	Symbol  string `json:"symbol"`
}

// Nft is a single minted asset belonging to a Denom.
type Nft struct {
	ID                string   `json:"id"`
	Name              string   `json:"name"`
	URI               string   `json:"uri,omitempty"`
	Data              string   `json:"data,omitempty"`
	Owner             string   `json:"owner"`
	ApprovedAddresses []string `json:"approved_addresses,omitempty"`
}

// Collection is a denom together with the tokens minted under it.
type Collection struct {
	Denom Denom `json:"denom"`
	NFTs  []Nft `json:"nfts"`
}

// OwnedBy returns the tokens of the collection held by owner.
func (c Collection) OwnedBy(owner string) []Nft {
	owned := make([]Nft, 0, len(c.NFTs))
	for _, token := range c.NFTs {
		if token.Owner == owner {
			owned = append(owned, token)
		}
	}
	return owned
}

// FilterByCreator keeps the denoms issued by creator.
func FilterByCreator(denoms []Denom, creator string) []Denom {
	filtered := make([]Denom, 0)
	for _, denom := range denoms {
		if denom.Creator == creator {
			filtered = append(filtered, denom)
		}
	}
	return filtered
}

// IssueMessage is the request payload to create a Denom. ID, Name and Symbol
// must each be unique among existing denoms at submission time.
type IssueMessage struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Symbol  string `json:"symbol"`
	From    string `json:"from"`
	Schema  string `json:"schema"`
	ChainID string `json:"chain_id"`
	Sender  string `json:"sender"`
}

// MintMessage is the request payload to mint an Nft under an existing Denom.
// An empty Recipient means the sender mints to itself.
type MintMessage struct {
	DenomID   string `json:"denom_id"`
	Name      string `json:"name"`
	URI       string `json:"uri"`
	Data      string `json:"data"`
	From      string `json:"from"`
	Recipient string `json:"recipient"`
	ChainID   string `json:"chain_id"`
}

// ChainQuery is the read-only side of the chain client. Lookups of a single
// object return ErrNotFound when the object does not exist and a
// *TransportError when the chain could not be asked.
type ChainQuery interface {
	AllDenoms(ctx context.Context) ([]Denom, error)
	Denom(ctx context.Context, id string) (Denom, error)
	DenomByName(ctx context.Context, name string) (Denom, error)
	DenomBySymbol(ctx context.Context, symbol string) (Denom, error)
	Collection(ctx context.Context, denomID string) (Collection, error)
	Token(ctx context.Context, denomID, tokenID string) (Nft, error)
	Supply(ctx context.Context, denomID string) (uint64, error)
	IsValidAddress(ctx context.Context, address string) (bool, error)
}

// ChainTransaction submits state-changing operations through the active
// wallet session.
type ChainTransaction interface {
	IssueDenom(ctx context.Context, msg IssueMessage) error
	MintNFT(ctx context.Context, msg MintMessage) error
}

// WalletSession is the connection to a signing wallet.
type WalletSession interface {
	Connect(ctx context.Context) (AccountDetails, error)
	Disconnect()
	Account() (AccountDetails, bool)
	IsConnected() bool
}
