package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_ValidatesCurrencyFormat(t *testing.T) {
	m, err := New(decimal.NewFromInt(10), "USD")
	require.NoError(t, err)
	assert.Equal(t, "USD", m.Currency)

	_, err = New(decimal.NewFromInt(10), "US")
	assert.ErrorIs(t, err, ErrInvalidCurrencyFormat)

	_, err = New(decimal.NewFromInt(10), "DOLLARS")
	assert.ErrorIs(t, err, ErrInvalidCurrencyFormat)
}

func TestNewFromString(t *testing.T) {
	m, err := NewFromString("40.40", "USD")
	require.NoError(t, err)
	assert.Equal(t, "40.40 USD", m.String())

	_, err = NewFromString("not-a-number", "USD")
	assert.Error(t, err)
}

func TestAdd_SameCurrency(t *testing.T) {
	a, _ := NewFromString("10.25", "USD")
	b, _ := NewFromString("5.75", "USD")

	sum, err := a.Add(b)
	require.NoError(t, err)
	assert.True(t, sum.Amount.Equal(decimal.RequireFromString("16.00")))
	assert.Equal(t, "USD", sum.Currency)
}

func TestAdd_CurrencyMismatch(t *testing.T) {
	a, _ := NewFromString("10.00", "USD")
	b, _ := NewFromString("10.00", "EUR")

	_, err := a.Add(b)
	assert.ErrorIs(t, err, ErrCurrencyMismatch)

	_, err = a.Sub(b)
	assert.ErrorIs(t, err, ErrCurrencyMismatch)

	_, err = a.Cmp(b)
	assert.ErrorIs(t, err, ErrCurrencyMismatch)
}

func TestSub_CanGoNegative(t *testing.T) {
	a, _ := NewFromString("10.00", "USD")
	b, _ := NewFromString("25.00", "USD")

	diff, err := a.Sub(b)
	require.NoError(t, err)
	assert.True(t, diff.IsNegative())
	assert.Equal(t, "-15.00 USD", diff.String())
}

func TestPercent_RoundsHalfUp(t *testing.T) {
	tests := []struct {
		name   string
		amount string
		rate   string
		want   string
	}{
		{"exact", "40.00", "1", "0.40"},
		{"truncates below midpoint", "10.25", "1", "0.10"}, // 0.1025 -> 0.10
		{"rounds half up", "12.50", "1", "0.13"},          // 0.125 -> 0.13
		{"rounds down below midpoint", "12.49", "1", "0.12"}, // 0.1249 -> 0.12
		{"negative rounds away", "-12.50", "1", "-0.13"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := NewFromString(tt.amount, "USD")
			require.NoError(t, err)
			got := m.Percent(decimal.RequireFromString(tt.rate))
			assert.Equal(t, tt.want+" USD", got.String())
		})
	}
}

func TestRound_ZeroDecimalCurrency(t *testing.T) {
	m, err := NewFromString("100.50", "JPY")
	require.NoError(t, err)

	rounded := m.Round()
	assert.Equal(t, "101 JPY", rounded.String())

	m, err = NewFromString("100.49", "JPY")
	require.NoError(t, err)
	assert.Equal(t, "100 JPY", m.Round().String())
}

func TestDecimalPlaces(t *testing.T) {
	assert.Equal(t, int32(2), DecimalPlaces("USD"))
	assert.Equal(t, int32(2), DecimalPlaces("EUR"))
	assert.Equal(t, int32(0), DecimalPlaces("JPY"))
	assert.Equal(t, int32(0), DecimalPlaces("KRW"))
	assert.Equal(t, int32(2), DecimalPlaces("XYZ"))
}

func TestMul_RoundsToCurrencyPlaces(t *testing.T) {
	m, _ := NewFromString("33.33", "USD")
	got := m.Mul(decimal.RequireFromString("0.857"))
	// 33.33 * 0.857 = 28.563810 -> 28.56
	assert.Equal(t, "28.56 USD", got.String())
}

func TestCmpAndPredicates(t *testing.T) {
	a, _ := NewFromString("10.00", "USD")
	b, _ := NewFromString("20.00", "USD")

	cmp, err := a.Cmp(b)
	require.NoError(t, err)
	assert.Equal(t, -1, cmp)

	assert.True(t, a.LessThan(b))
	assert.False(t, b.LessThan(a))
	assert.True(t, a.IsPositive())
	assert.True(t, Zero("USD").IsZero())

	same, _ := NewFromString("10", "USD")
	assert.True(t, a.Equal(same))

	eur, _ := NewFromString("10.00", "EUR")
	assert.False(t, a.Equal(eur))
}

func TestLessThan_PanicsOnCurrencyMismatch(t *testing.T) {
	a, _ := NewFromString("10.00", "USD")
	b, _ := NewFromString("10.00", "EUR")
	assert.Panics(t, func() { a.LessThan(b) })
}
