package tx_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/zeebo/assert"

	"github.com/Cogwheel-Validator/reified-portal/tx"
)

func TestParseGasPrice(t *testing.T) {
	tests := []struct {
		input   string
		amount  string
		denom   string
		wantErr bool
	}{
		{input: "5000000000000acudos", amount: "5000000000000", denom: "acudos"},
		{input: "0.025uatom", amount: "0.025", denom: "uatom"},
		{input: "0.1ibc/27394FB0", amount: "0.1", denom: "ibc/27394FB0"},
		{input: "acudos", wantErr: true},
		{input: "5000", wantErr: true},
		{input: "5 acudos", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			price, err := tx.ParseGasPrice(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, price.Amount.String(), tt.amount)
			assert.Equal(t, price.Denom, tt.denom)
		})
	}
}

func TestFeeRoundsUp(t *testing.T) {
	price, err := tx.ParseGasPrice("0.025uatom")
	assert.NoError(t, err)

	fee := price.Fee(100001)
	assert.Equal(t, fee.GasLimit, uint64(100001))
	assert.Equal(t, fee.Amount[0].Amount, "2501")
	assert.Equal(t, fee.Amount[0].Denom, "uatom")

	cudos, err := tx.ParseGasPrice("5000000000000acudos")
	assert.NoError(t, err)
	assert.Equal(t, cudos.Fee(200000).Amount[0].Amount, "1000000000000000000")
}

func TestGasLimit(t *testing.T) {
	multiplier := decimal.RequireFromString("1.3")
	assert.Equal(t, tx.GasLimit(100000, multiplier), uint64(130000))
	assert.Equal(t, tx.GasLimit(3, multiplier), uint64(4))
	assert.Equal(t, tx.GasLimit(0, multiplier), uint64(0))
}
