package tx

import "github.com/Cogwheel-Validator/reified-portal/nft"

// TxResult is the outcome of a transaction once the chain has answered.
type TxResult struct {
	Code      uint32 `json:"code"`
	Codespace string `json:"codespace"`
	TxHash    string `json:"txhash"`
	Height    int64  `json:"height,string"`
	RawLog    string `json:"raw_log"`
	GasWanted int64  `json:"gas_wanted,string"`
	GasUsed   int64  `json:"gas_used,string"`
}

func (r TxResult) IsSuccess() bool {
	return r.Code == 0
}

// AssertSuccess turns a failed result into a *nft.SubmissionError.
func (r TxResult) AssertSuccess() error {
	if r.IsSuccess() {
		return nil
	}
	return &nft.SubmissionError{
		Code:      r.Code,
		Codespace: r.Codespace,
		Log:       r.RawLog,
		TxHash:    r.TxHash,
		Height:    r.Height,
		Err:       nft.ErrSubmissionFailed,
	}
}
