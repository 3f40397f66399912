package gateway

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestMinorUnits(t *testing.T) {
	require.Equal(t, int64(15050), MinorUnits(decimal.RequireFromString("150.50")))
	require.Equal(t, int64(100), MinorUnits(decimal.NewFromInt(1)))
	require.Equal(t, int64(1), MinorUnits(decimal.RequireFromString("0.005")))
}

func TestUnconfiguredStripe(t *testing.T) {
	s := NewStripe(" ")
	require.Nil(t, s)
	_, err := s.CreatePaymentIntent(context.Background(), decimal.NewFromInt(1), "usd")
	require.ErrorIs(t, err, ErrNoSecretKey)
}
