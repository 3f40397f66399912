package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/property-market/internal/domain"
	"github.com/spec-kit/property-market/internal/events"
	apperrors "github.com/spec-kit/property-market/pkg/util/errorutil"
)

func TestOfferToPaymentScenario(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	p := f.property(t, "agent@x.test", "$100-$200")

	first := f.offer(t, p, "first@x.test", 150)
	require.Equal(t, domain.OfferStatusPending, f.status(t, first))

	_, err := f.offers.Create(ctx, events.Actor{}, OfferCreateInput{
		PropertyID:  p.ID,
		OfferAmount: decimal.NewFromInt(50),
		BuyerEmail:  "low@x.test",
		BuyerName:   "Low",
		BuyingDate:  "2024-06-01",
		AgentEmail:  p.AgentEmail,
	})
	require.True(t, apperrors.HasCode(err, "RANGE_VIOLATION"))
	require.Contains(t, err.Error(), "100")
	require.Contains(t, err.Error(), "200")

	third := f.offer(t, p, "third@x.test", 180)

	_, err = f.offers.TransitionStatus(ctx, events.Actor{}, first, domain.OfferStatusAccepted, p.ID)
	require.NoError(t, err)
	require.Equal(t, domain.OfferStatusAccepted, f.status(t, first))
	require.Equal(t, domain.OfferStatusRejected, f.status(t, third))

	res, err := f.payments.Record(ctx, events.Actor{}, PaymentInput{
		PropertyID:    p.ID,
		BuyerEmail:    "first@x.test",
		AgentEmail:    p.AgentEmail,
		TransactionID: "pi_scenario",
		Amount:        decimal.NewFromInt(150),
	})
	require.NoError(t, err)
	require.Equal(t, int64(1), res.MatchedCount)

	o, err := f.offers.Get(ctx, first)
	require.NoError(t, err)
	require.Equal(t, domain.OfferStatusBought, o.Status)
	require.NotNil(t, o.TransactionID)
	require.Equal(t, "pi_scenario", *o.TransactionID)

	sold, err := f.payments.ListSold(ctx, p.AgentEmail)
	require.NoError(t, err)
	require.Len(t, sold, 1)
	require.Equal(t, domain.PaymentStatusBought, sold[0].Status)

	snap := f.metrics.Snapshot()["counters"]
	require.Equal(t, int64(2), snap["offers_created"])
	require.Equal(t, int64(1), snap["offers_bought"])
}
