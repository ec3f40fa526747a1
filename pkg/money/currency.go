package money

// Currency identifies a wallet currency supported by the marketplace.
type Currency string

const (
	RUB  Currency = "RUB"
	USD  Currency = "USD"
	TON  Currency = "TON"
	USDT Currency = "USDT"
	// LOVE is the in-app bonus token. It is tracked like any other
	// balance and is not convertible.
	LOVE Currency = "LOVE"
)

// currencyDecimals maps each currency to the number of decimal places
// used for its base (minor) units. All arithmetic in the ledger happens
// in base units to avoid floating-point error accumulation.
var currencyDecimals = map[Currency]int{
	RUB:  2,
	USD:  2,
	TON:  9,
	USDT: 6,
	LOVE: 2,
}

// currencySymbols maps currencies to their display symbols.
var currencySymbols = map[Currency]string{
	RUB:  "₽",
	USD:  "$",
	TON:  "TON",
	USDT: "USDT",
	LOVE: "❤",
}

// IsValid checks if the currency is supported.
func (c Currency) IsValid() bool {
	_, ok := currencyDecimals[c]
	return ok
}

// Decimals returns the number of decimal places for the currency's base units.
func (c Currency) Decimals() int {
	return currencyDecimals[c]
}

// Symbol returns the display symbol for the currency.
func (c Currency) Symbol() string {
	if s, ok := currencySymbols[c]; ok {
		return s
	}
	return string(c)
}

// String implements fmt.Stringer.
func (c Currency) String() string {
	return string(c)
}

// SupportedCurrencies returns all supported currencies.
func SupportedCurrencies() []Currency {
	return []Currency{RUB, USD, TON, USDT, LOVE}
}
