package keplr

// ChainInfo is a chain entry of the Keplr chain registry. The same shape is
// accepted in TOML so an operator can supply a chain the registry lacks.
type ChainInfo struct {
	RPC           string        `json:"rpc" toml:"rpc"`
	Rest          string        `json:"rest" toml:"rest"`
	ChainID       string        `json:"chainId" toml:"chain_id"`
	ChainName     string        `json:"chainName" toml:"chain_name"`
	Bip44         Bip44         `json:"bip44" toml:"bip44"`
	Bech32Config  Bech32Config  `json:"bech32Config" toml:"bech32_config"`
	Currencies    []Currency    `json:"currencies" toml:"currencies"`
	FeeCurrencies []FeeCurrency `json:"feeCurrencies" toml:"fee_currencies"`
	Features      []string      `json:"features" toml:"features"`
}

type Bip44 struct {
	CoinType uint32 `json:"coinType" toml:"coin_type"`
}

type Bech32Config struct {
	Bech32PrefixAccAddr string `json:"bech32PrefixAccAddr" toml:"bech32_prefix_acc_addr"`
	Bech32PrefixAccPub  string `json:"bech32PrefixAccPub" toml:"bech32_prefix_acc_pub"`
}

type Currency struct {
	CoinDenom        string `json:"coinDenom" toml:"coin_denom"`
	CoinMinimalDenom string `json:"coinMinimalDenom" toml:"coin_minimal_denom"`
	CoinDecimals     int    `json:"coinDecimals" toml:"coin_decimals"`
}

type FeeCurrency struct {
	CoinDenom        string       `json:"coinDenom" toml:"coin_denom"`
	CoinMinimalDenom string       `json:"coinMinimalDenom" toml:"coin_minimal_denom"`
	CoinDecimals     int          `json:"coinDecimals" toml:"coin_decimals"`
	GasPriceStep     GasPriceStep `json:"gasPriceStep" toml:"gas_price_step"`
}

type GasPriceStep struct {
	Low     float64 `json:"low" toml:"low"`
	Average float64 `json:"average" toml:"average"`
	High    float64 `json:"high" toml:"high"`
}
