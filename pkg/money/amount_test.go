package money

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToBaseUnits_WholeRubles(t *testing.T) {
	result, err := ToBaseUnits("1000", RUB)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(100000), result)
}

func TestToBaseUnits_WithDecimals(t *testing.T) {
	result, err := ToBaseUnits("1.5", RUB)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(150), result)
}

func TestToBaseUnits_TonNanotons(t *testing.T) {
	result, err := ToBaseUnits("0.0005", TON)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(500000), result)
}

func TestToBaseUnits_USDT(t *testing.T) {
	result, err := ToBaseUnits("12.34", USDT)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(12340000), result)
}

func TestToBaseUnits_TruncatesExcessPrecision(t *testing.T) {
	// RUB only carries kopecks; the rest is dropped, never rounded up
	result, err := ToBaseUnits("1.999", RUB)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(199), result)
}

func TestToBaseUnits_Negative(t *testing.T) {
	result, err := ToBaseUnits("-1", USD)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(-100), result)
}

func TestToBaseUnits_EmptyString(t *testing.T) {
	_, err := ToBaseUnits("", RUB)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "amount is required")
}

func TestToBaseUnits_InvalidFormat(t *testing.T) {
	_, err := ToBaseUnits("abc", RUB)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid amount format")
}

func TestToBaseUnits_UnsupportedCurrency(t *testing.T) {
	_, err := ToBaseUnits("1", Currency("BTC"))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported currency")
}

func TestFromBaseUnits_RoundTrip(t *testing.T) {
	tests := []struct {
		amount   string
		currency Currency
	}{
		{"1000", RUB},
		{"1.5", RUB},
		{"0.0005", TON},
		{"12.34", USDT},
		{"0", LOVE},
		{"700", RUB},
	}

	for _, tt := range tests {
		base, err := ToBaseUnits(tt.amount, tt.currency)
		require.NoError(t, err)
		assert.Equal(t, tt.amount, FromBaseUnits(base, tt.currency), "currency %s", tt.currency)
	}
}

func TestFromBaseUnits_Nil(t *testing.T) {
	assert.Equal(t, "0", FromBaseUnits(nil, RUB))
}

func TestFromBaseUnits_Negative(t *testing.T) {
	assert.Equal(t, "-1.5", FromBaseUnits(big.NewInt(-150), RUB))
}

func TestPercent(t *testing.T) {
	// 10% platform fee of 1000.00 RUB
	assert.Equal(t, 0, Percent(big.NewInt(100000), 10).Cmp(big.NewInt(10000)))
	// 1% of tiny amounts truncates toward zero
	assert.Equal(t, 0, Percent(big.NewInt(99), 1).Sign())
	assert.Equal(t, 0, Percent(nil, 10).Sign())
}

func TestCurrencyDecimals(t *testing.T) {
	assert.Equal(t, 2, RUB.Decimals())
	assert.Equal(t, 9, TON.Decimals())
	assert.Equal(t, 6, USDT.Decimals())
	assert.True(t, LOVE.IsValid())
	assert.False(t, Currency("BTC").IsValid())
}
