package query

import "github.com/Cogwheel-Validator/reified-portal/nft"

// JSON shapes returned by the chain's REST gateway.

type denomJSON struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Schema  string `json:"schema"`
	Creator string `json:"creator"`
	Symbol  string `json:"symbol"`
}

func (d denomJSON) toDenom() nft.Denom {
	return nft.Denom{
		ID:      d.ID,
		Name:    d.Name,
		Schema:  d.Schema,
		Creator: d.Creator,
		Symbol:  d.Symbol,
	}
}

type nftJSON struct {
	ID                string   `json:"id"`
	Name              string   `json:"name"`
	URI               string   `json:"uri"`
	Data              string   `json:"data"`
	Owner             string   `json:"owner"`
	ApprovedAddresses []string `json:"approved_addresses"`
}

func (n nftJSON) toNft() nft.Nft {
	return nft.Nft{
		ID:                n.ID,
		Name:              n.Name,
		URI:               n.URI,
		Data:              n.Data,
		Owner:             n.Owner,
		ApprovedAddresses: n.ApprovedAddresses,
	}
}

type paginationJSON struct {
	NextKey string `json:"next_key"`
	Total   string `json:"total"`
}

type denomResponse struct {
	Denom denomJSON `json:"denom"`
}

type denomsResponse struct {
	Denoms     []denomJSON    `json:"denoms"`
	Pagination paginationJSON `json:"pagination"`
}

type collectionResponse struct {
	Collection struct {
		Denom denomJSON `json:"denom"`
		NFTs  []nftJSON `json:"nfts"`
	} `json:"collection"`
	Pagination paginationJSON `json:"pagination"`
}

type nftResponse struct {
	NFT nftJSON `json:"nft"`
}

type supplyResponse struct {
	Amount uint64 `json:"amount,string"`
}

type accountResponse struct {
	Account struct {
		Type    string `json:"@type"`
		Address string `json:"address"`
	} `json:"account"`
}
