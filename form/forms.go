package form

import "github.com/Cogwheel-Validator/reified-portal/nft"

// DenomForm is the input of the "create collection" step.
type DenomForm struct {
	DenomID     string `json:"denomId"`
	Name        string `json:"name"`
	Symbol      string `json:"symbol"`
	Description string `json:"description"`
}

// NftForm is the input of the "mint" step.
type NftForm struct {
	Name                  string `json:"name"`
	URI                   string `json:"uri"`
	Data                  string `json:"data"`
	MintForAnotherAddress bool   `json:"mintForAnotherAddress"`
	Recipient             string `json:"recipient"`
}

// ToIssueMessage builds the issue request of a validated form. The
// description is stored as the denom schema.
func ToIssueMessage(f DenomForm, account nft.AccountDetails, chainID string) nft.IssueMessage {
	return nft.IssueMessage{
		ID:      f.DenomID,
		Name:    f.Name,
		Symbol:  f.Symbol,
		Schema:  f.Description,
		From:    account.Address,
		Sender:  account.Address,
		ChainID: chainID,
	}
}

// ToMintMessage builds the mint request of a validated form. Unless the form
// asks to mint for another address the token goes to account.
func ToMintMessage(f NftForm, account nft.AccountDetails, denomID, chainID string) nft.MintMessage {
	recipient := account.Address
	if f.MintForAnotherAddress && f.Recipient != "" {
		recipient = f.Recipient
	}
	return nft.MintMessage{
		DenomID:   denomID,
		Name:      f.Name,
		URI:       f.URI,
		Data:      f.Data,
		From:      account.Address,
		Recipient: recipient,
		ChainID:   chainID,
	}
}
