package valueobject

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCurrency(t *testing.T) {
	t.Run("normalizes case and whitespace", func(t *testing.T) {
		c, err := ParseCurrency(" usd ")
		require.NoError(t, err)
		assert.Equal(t, USD, c)
	})

	t.Run("rejects malformed codes", func(t *testing.T) {
		for _, code := range []string{"", "US", "USDX", "U$D", "12A"} {
			_, err := ParseCurrency(code)
			assert.Error(t, err, code)
		}
	})
}

func TestISOCurrencyPolicy_MinorUnits(t *testing.T) {
	policy := NewISOCurrencyPolicy(map[Currency]int32{"XAU": 4})

	tests := []struct {
		currency Currency
		want     int32
	}{
		{USD, 2},
		{INR, 2},
		{JPY, 0},
		{KWD, 3},
		{"XAU", 4},
		{"ZZZ", 2},
	}

	for _, tt := range tests {
		t.Run(string(tt.currency), func(t *testing.T) {
			assert.Equal(t, tt.want, policy.MinorUnits(tt.currency))
		})
	}
}

func TestRoundHalfUp(t *testing.T) {
	tests := []struct {
		in     string
		places int32
		want   string
	}{
		{"100.005", 2, "100.01"},
		{"100.004", 2, "100"},
		{"0.125", 2, "0.13"},
		{"-0.125", 2, "-0.13"},
		{"12.5", 0, "13"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := RoundHalfUp(decimal.RequireFromString(tt.in), tt.places)
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)), "got %s", got)
		})
	}
}

func TestMinorUnit(t *testing.T) {
	assert.True(t, MinorUnit(2).Equal(decimal.RequireFromString("0.01")))
	assert.True(t, MinorUnit(0).Equal(decimal.NewFromInt(1)))
	assert.True(t, MinorUnit(3).Equal(decimal.RequireFromString("0.001")))
}
