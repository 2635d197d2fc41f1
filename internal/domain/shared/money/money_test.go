package money

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	m, err := New(12550, "usd")
	assert.NoError(t, err)
	assert.Equal(t, int64(12550), m.Amount)
	assert.Equal(t, "USD", m.Currency, "currency is normalized to upper case")

	_, err = New(100, "dollars")
	assert.ErrorIs(t, err, ErrInvalidCurrency)
}

func TestAdd(t *testing.T) {
	sum, err := Must(100, "USD").Add(Must(250, "USD"))
	assert.NoError(t, err)
	assert.Equal(t, Must(350, "USD"), sum)

	_, err = Must(100, "USD").Add(Must(100, "EUR"))
	assert.ErrorIs(t, err, ErrCurrencyMismatch)

	_, err = Money{Amount: 100}.Add(Must(100, "USD"))
	assert.ErrorIs(t, err, ErrInvalidCurrency)
}

func TestMultiply(t *testing.T) {
	assert.Equal(t, Must(300, "USD"), Must(100, "USD").Multiply(3))
	assert.True(t, Must(100, "USD").Multiply(0).IsZero())
	assert.True(t, Must(100, "USD").Multiply(-1).IsNegative())
}

func TestString(t *testing.T) {
	assert.Equal(t, "125.50 USD", Must(12550, "USD").String())
}
