package gateway

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/paymentintent"
)

// ErrNoSecretKey is returned when Stripe is not configured.
var ErrNoSecretKey = errors.New("stripe secret key not configured")

// Stripe issues PaymentIntents and returns their client secret.
type Stripe struct {
	client *paymentintent.Client
}

// NewStripe builds a gateway bound to secretKey. An empty key yields nil.
func NewStripe(secretKey string) *Stripe {
	if strings.TrimSpace(secretKey) == "" {
		return nil
	}
	return &Stripe{client: &paymentintent.Client{
		B:   stripe.GetBackend(stripe.APIBackend),
		Key: secretKey,
	}}
}

// CreatePaymentIntent creates a card PaymentIntent for amount in currency.
func (s *Stripe) CreatePaymentIntent(ctx context.Context, amount decimal.Decimal, currency string) (string, error) {
	if s == nil || s.client == nil {
		return "", ErrNoSecretKey
	}
	params := &stripe.PaymentIntentParams{
		Amount:             stripe.Int64(MinorUnits(amount)),
		Currency:           stripe.String(strings.ToLower(currency)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
	}
	params.Context = ctx

	pi, err := s.client.New(params)
	if err != nil {
		return "", err
	}
	return pi.ClientSecret, nil
}

// MinorUnits converts a major-unit amount to cents, rounding half up.
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}
