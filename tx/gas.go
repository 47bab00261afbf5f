package tx

import (
	"fmt"
	"regexp"

	"github.com/shopspring/decimal"
)

var gasPricePattern = regexp.MustCompile(`^([0-9]+(?:\.[0-9]+)?)([a-zA-Z][a-zA-Z0-9/:._-]{2,127})$`)

// GasPrice is the price of one unit of gas, e.g. 5000000000000acudos.
type GasPrice struct {
	Amount decimal.Decimal
	Denom  string
}

// ParseGasPrice parses an amount immediately followed by a denom.
func ParseGasPrice(s string) (GasPrice, error) {
	matches := gasPricePattern.FindStringSubmatch(s)
	if matches == nil {
		return GasPrice{}, fmt.Errorf("invalid gas price string %q", s)
	}
	amount, err := decimal.NewFromString(matches[1])
	if err != nil {
		return GasPrice{}, fmt.Errorf("invalid gas price amount %q: %w", matches[1], err)
	}
	return GasPrice{Amount: amount, Denom: matches[2]}, nil
}

func (g GasPrice) String() string {
	return g.Amount.String() + g.Denom
}

func (g GasPrice) IsZero() bool {
	return g.Denom == ""
}

// Fee returns the fee for gasLimit units of gas, rounded up.
func (g GasPrice) Fee(gasLimit uint64) Fee {
	amount := g.Amount.Mul(decimal.NewFromInt(int64(gasLimit))).Ceil()
	return Fee{
		Amount:   []Coin{{Denom: g.Denom, Amount: amount.String()}},
		GasLimit: gasLimit,
	}
}

// GasLimit scales a simulated gas usage by multiplier, rounded up.
func GasLimit(gasUsed uint64, multiplier decimal.Decimal) uint64 {
	return uint64(decimal.NewFromInt(int64(gasUsed)).Mul(multiplier).Ceil().IntPart())
}
