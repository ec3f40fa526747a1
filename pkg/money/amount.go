package money

import (
	"fmt"
	"math/big"
	"strings"
)

// ToBaseUnits converts a human-readable amount string to base units (big.Int)
// for the given currency. "1.5" RUB → 150 (2 decimals), "0.0005" TON → 500000
// (9 decimals). String manipulation is used instead of float parsing so the
// conversion is exact.
func ToBaseUnits(amountStr string, currency Currency) (*big.Int, error) {
	if amountStr == "" {
		return nil, fmt.Errorf("amount is required")
	}

	if !currency.IsValid() {
		return nil, fmt.Errorf("unsupported currency: %s", currency)
	}

	decimals := currency.Decimals()

	negative := strings.HasPrefix(amountStr, "-")
	amountStr = strings.TrimPrefix(amountStr, "-")

	parts := strings.Split(amountStr, ".")
	if len(parts) > 2 {
		return nil, fmt.Errorf("invalid amount format")
	}

	intPart := parts[0]
	if intPart == "" {
		intPart = "0"
	}

	decPart := ""
	if len(parts) > 1 {
		decPart = parts[1]
	}

	// Pad or truncate the decimal part to the currency's precision.
	if len(decPart) < decimals {
		decPart = decPart + strings.Repeat("0", decimals-len(decPart))
	} else if len(decPart) > decimals {
		decPart = decPart[:decimals]
	}

	combined := intPart + decPart
	combined = strings.TrimLeft(combined, "0")
	if combined == "" {
		combined = "0"
	}

	result := new(big.Int)
	if _, ok := result.SetString(combined, 10); !ok {
		return nil, fmt.Errorf("invalid amount format")
	}

	if negative {
		result.Neg(result)
	}

	return result, nil
}

// FromBaseUnits converts base units to a human-readable string for the given
// currency. 150 RUB base units → "1.5".
func FromBaseUnits(amount *big.Int, currency Currency) string {
	if amount == nil {
		return "0"
	}

	decimals := currency.Decimals()

	negative := amount.Sign() < 0
	str := new(big.Int).Abs(amount).String()

	if decimals > 0 {
		for len(str) <= decimals {
			str = "0" + str
		}

		pos := len(str) - decimals
		str = str[:pos] + "." + str[pos:]

		str = strings.TrimRight(str, "0")
		str = strings.TrimRight(str, ".")
	}

	if str == "" || str == "0" {
		return "0"
	}

	if negative {
		return "-" + str
	}

	return str
}

// Percent returns pct percent of amount, truncated toward zero.
// Used for platform fees and referral commissions.
func Percent(amount *big.Int, pct int64) *big.Int {
	if amount == nil {
		return big.NewInt(0)
	}
	result := new(big.Int).Mul(amount, big.NewInt(pct))
	return result.Quo(result, big.NewInt(100))
}
