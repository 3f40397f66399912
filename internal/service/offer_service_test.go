package service

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/property-market/internal/domain"
	"github.com/spec-kit/property-market/internal/events"
	apperrors "github.com/spec-kit/property-market/pkg/util/errorutil"
)

func TestCreateOfferRangeBoundaries(t *testing.T) {
	f := newFixture(t, nil)
	p := f.property(t, "agent@x.test", "$100-$200")

	for _, amount := range []int64{100, 150, 200} {
		id := f.offer(t, p, "buyer@x.test", amount)
		require.Equal(t, domain.OfferStatusPending, f.status(t, id))
	}

	for _, amount := range []string{"99.99", "200.01", "50"} {
		_, err := f.offers.Create(context.Background(), events.Actor{}, OfferCreateInput{
			PropertyID:  p.ID,
			OfferAmount: decimal.RequireFromString(amount),
			BuyerEmail:  "buyer@x.test",
			BuyerName:   "Buyer",
			BuyingDate:  "2024-05-01",
			AgentEmail:  p.AgentEmail,
		})
		require.True(t, apperrors.HasCode(err, "RANGE_VIOLATION"), amount)
		require.Contains(t, err.Error(), "100")
		require.Contains(t, err.Error(), "200")
	}
}

func TestCreateOfferSnapshotsProperty(t *testing.T) {
	f := newFixture(t, nil)
	p := f.property(t, "agent@x.test", "$100-$200")
	id := f.offer(t, p, "Buyer@X.test", 120)

	o, err := f.offers.Get(context.Background(), id)
	require.NoError(t, err)
	require.Equal(t, "Lake house", o.PropertyTitle)
	require.Equal(t, "Dhaka", o.PropertyLocation)
	require.Equal(t, "Agent", o.AgentName)
	require.Equal(t, "buyer@x.test", o.BuyerEmail)
	require.False(t, o.CreatedAt.IsZero())
	require.Len(t, f.events.ofType(events.EventOfferCreated), 1)
}

func TestCreateOfferValidation(t *testing.T) {
	f := newFixture(t, nil)
	p := f.property(t, "agent@x.test", "$100-$200")
	ctx := context.Background()

	_, err := f.offers.Create(ctx, events.Actor{}, OfferCreateInput{PropertyID: p.ID, OfferAmount: decimal.NewFromInt(150)})
	require.True(t, apperrors.HasCode(err, "VALIDATION_FAILED"))
	fields := apperrors.ToDomainError(err).Details["fields"].([]string)
	require.Equal(t, []string{"agentEmail", "buyerEmail", "buyerName", "buyingDate"}, fields)

	_, err = f.offers.Create(ctx, events.Actor{}, OfferCreateInput{
		PropertyID: "missing", OfferAmount: decimal.NewFromInt(150),
		BuyerEmail: "b@x.test", BuyerName: "B", BuyingDate: "d", AgentEmail: "agent@x.test",
	})
	require.True(t, apperrors.HasCode(err, "NOT_FOUND"))

	_, err = f.offers.Create(ctx, events.Actor{}, OfferCreateInput{
		PropertyID: p.ID, OfferAmount: decimal.NewFromInt(-5),
		BuyerEmail: "b@x.test", BuyerName: "B", BuyingDate: "d", AgentEmail: "agent@x.test",
	})
	require.True(t, apperrors.HasCode(err, "VALIDATION_FAILED"))
}

func TestCreateOfferZeroAmountIsNotMissingField(t *testing.T) {
	f := newFixture(t, nil)
	p := f.property(t, "agent@x.test", "$0-$200")

	_, err := f.offers.Create(context.Background(), events.Actor{}, OfferCreateInput{
		PropertyID: p.ID, BuyerEmail: "b@x.test", BuyerName: "B", BuyingDate: "d", AgentEmail: "agent@x.test",
	})
	require.True(t, apperrors.HasCode(err, "VALIDATION_FAILED"))
	require.Contains(t, err.Error(), "offer amount must be positive")
	details := apperrors.ToDomainError(err).Details
	require.NotContains(t, details, "fields")
	require.Equal(t, "0", details["offer_amount"])
}

func TestCreateOfferMalformedStoredRange(t *testing.T) {
	f := newFixture(t, nil)
	p := f.property(t, "agent@x.test", "call for price")

	_, err := f.offers.Create(context.Background(), events.Actor{}, OfferCreateInput{
		PropertyID: p.ID, OfferAmount: decimal.NewFromInt(150),
		BuyerEmail: "b@x.test", BuyerName: "B", BuyingDate: "d", AgentEmail: "agent@x.test",
	})
	require.True(t, apperrors.HasCode(err, "INTERNAL_ERROR"))
}

func TestAcceptRejectsEverySibling(t *testing.T) {
	f := newFixture(t, nil)
	p := f.property(t, "agent@x.test", "$100-$200")
	other := f.property(t, "agent@x.test", "$100-$200")
	target := f.offer(t, p, "a@x.test", 150)
	pending := f.offer(t, p, "b@x.test", 160)
	accepted := f.offer(t, p, "c@x.test", 170)
	rejected := f.offer(t, p, "d@x.test", 180)
	unrelated := f.offer(t, other, "e@x.test", 190)
	f.force(t, accepted, domain.OfferStatusAccepted)
	f.force(t, rejected, domain.OfferStatusRejected)

	change, err := f.offers.TransitionStatus(context.Background(), events.Actor{}, target, domain.OfferStatusAccepted, p.ID)
	require.NoError(t, err)
	require.Equal(t, domain.OfferStatusPending, change.PreviousStatus)
	require.Equal(t, int64(2), change.SiblingsRejected)

	require.Equal(t, domain.OfferStatusAccepted, f.status(t, target))
	require.Equal(t, domain.OfferStatusRejected, f.status(t, pending))
	require.Equal(t, domain.OfferStatusRejected, f.status(t, accepted))
	require.Equal(t, domain.OfferStatusRejected, f.status(t, rejected))
	require.Equal(t, domain.OfferStatusPending, f.status(t, unrelated))
	require.Len(t, f.events.ofType(events.EventOfferStatusChanged), 3)
}

func TestReacceptAndRejectTransitions(t *testing.T) {
	f := newFixture(t, nil)
	p := f.property(t, "agent@x.test", "$100-$200")
	first := f.offer(t, p, "a@x.test", 150)
	second := f.offer(t, p, "b@x.test", 160)
	ctx := context.Background()

	_, err := f.offers.TransitionStatus(ctx, events.Actor{}, first, domain.OfferStatusAccepted, "")
	require.NoError(t, err)
	_, err = f.offers.TransitionStatus(ctx, events.Actor{}, first, domain.OfferStatusAccepted, p.ID)
	require.NoError(t, err)
	require.Equal(t, domain.OfferStatusAccepted, f.status(t, first))

	// a previously rejected offer may still be accepted; the old winner is rejected
	_, err = f.offers.TransitionStatus(ctx, events.Actor{}, second, domain.OfferStatusAccepted, p.ID)
	require.NoError(t, err)
	require.Equal(t, domain.OfferStatusAccepted, f.status(t, second))
	require.Equal(t, domain.OfferStatusRejected, f.status(t, first))

	_, err = f.offers.TransitionStatus(ctx, events.Actor{}, second, domain.OfferStatusRejected, p.ID)
	require.NoError(t, err)
	require.Equal(t, domain.OfferStatusRejected, f.status(t, second))
}

func TestTransitionGuards(t *testing.T) {
	f := newFixture(t, nil)
	p := f.property(t, "agent@x.test", "$100-$200")
	sold := f.offer(t, p, "a@x.test", 150)
	other := f.offer(t, p, "b@x.test", 160)
	f.force(t, sold, domain.OfferStatusBought)
	ctx := context.Background()

	_, err := f.offers.TransitionStatus(ctx, events.Actor{}, other, domain.OfferStatus("bought"), p.ID)
	require.True(t, apperrors.HasCode(err, "VALIDATION_FAILED"))

	_, err = f.offers.TransitionStatus(ctx, events.Actor{}, "nope", domain.OfferStatusAccepted, "")
	require.True(t, apperrors.HasCode(err, "NOT_FOUND"))

	_, err = f.offers.TransitionStatus(ctx, events.Actor{}, other, domain.OfferStatusAccepted, "another-property")
	require.True(t, apperrors.HasCode(err, "VALIDATION_FAILED"))

	_, err = f.offers.TransitionStatus(ctx, events.Actor{}, other, domain.OfferStatusAccepted, p.ID)
	require.True(t, apperrors.HasCode(err, "PRECONDITION_FAILED"))
	require.Equal(t, domain.OfferStatusPending, f.status(t, other))
	require.Equal(t, domain.OfferStatusBought, f.status(t, sold))

	_, err = f.offers.TransitionStatus(ctx, events.Actor{}, sold, domain.OfferStatusRejected, p.ID)
	require.True(t, apperrors.HasCode(err, "PRECONDITION_FAILED"))
}

func TestConcurrentAcceptsLeaveOneWinner(t *testing.T) {
	f := newFixture(t, nil)
	p := f.property(t, "agent@x.test", "$100-$200")
	ids := make([]string, 8)
	for i := range ids {
		ids[i] = f.offer(t, p, "buyer@x.test", int64(100+i))
	}

	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := f.offers.TransitionStatus(context.Background(), events.Actor{}, id, domain.OfferStatusAccepted, p.ID)
			require.NoError(t, err)
		}(id)
	}
	wg.Wait()

	accepted := 0
	for _, id := range ids {
		if f.status(t, id) == domain.OfferStatusAccepted {
			accepted++
		}
	}
	require.Equal(t, 1, accepted)
}

func TestListOffersNewestFirst(t *testing.T) {
	f := newFixture(t, nil)
	p := f.property(t, "agent@x.test", "$100-$200")
	first := f.offer(t, p, "buyer@x.test", 110)
	second := f.offer(t, p, "buyer@x.test", 120)
	f.offer(t, p, "someone@x.test", 130)
	ctx := context.Background()

	mine, err := f.offers.ListForBuyer(ctx, "BUYER@x.test")
	require.NoError(t, err)
	require.Len(t, mine, 2)
	require.Equal(t, second, mine[0].ID)
	require.Equal(t, first, mine[1].ID)

	agent, err := f.offers.ListForAgent(ctx, "agent@x.test")
	require.NoError(t, err)
	require.Len(t, agent, 3)

	none, err := f.offers.ListForAgent(ctx, "nobody@x.test")
	require.NoError(t, err)
	require.NotNil(t, none)
	require.Empty(t, none)

	_, err = f.offers.ListForBuyer(ctx, " ")
	require.True(t, apperrors.HasCode(err, "VALIDATION_FAILED"))
}
