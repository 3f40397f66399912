package service

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/property-market/internal/domain"
	"github.com/spec-kit/property-market/internal/events"
	"github.com/spec-kit/property-market/internal/observability"
	"github.com/spec-kit/property-market/internal/persistence"
	"github.com/spec-kit/property-market/internal/repository"
)

type fixture struct {
	store    repository.Store
	events   *eventLog
	metrics  *observability.Metrics
	offers   *OfferService
	payments *PaymentService
	trust    *TrustService
}

type eventLog struct {
	mu     sync.Mutex
	events []events.Event
}

func (l *eventLog) record(_ context.Context, e events.Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
	return nil
}

func (l *eventLog) ofType(t events.EventType) []events.Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []events.Event
	for _, e := range l.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

func newFixture(t *testing.T, identity IdentityProvider) *fixture {
	t.Helper()
	return buildFixture(t, identity, nil)
}

func buildFixture(t *testing.T, identity IdentityProvider, cache *persistence.Cache) *fixture {
	t.Helper()
	store := repository.NewMemoryStore()
	dispatcher := events.NewInMemoryDispatcher(nil)
	log := &eventLog{}
	for _, et := range []events.EventType{
		events.EventOfferCreated,
		events.EventOfferStatusChanged,
		events.EventPaymentRecorded,
		events.EventAgentMarkedFraud,
		events.EventAccountDeleted,
	} {
		dispatcher.Subscribe(et, log.record)
	}
	metrics := observability.NewMetrics()
	return &fixture{
		store:   store,
		events:  log,
		metrics: metrics,
		offers:  NewOfferService(OfferDependencies{Store: store, Cache: cache, Dispatcher: dispatcher, Metrics: metrics}),
		payments: NewPaymentService(PaymentDependencies{
			Store:                store,
			Cache:                cache,
			Dispatcher:           dispatcher,
			Metrics:              metrics,
			RequireAcceptedOffer: true,
		}),
		trust: NewTrustService(TrustDependencies{Store: store, Cache: cache, Identity: identity, Dispatcher: dispatcher, Metrics: metrics}),
	}
}

func (f *fixture) user(t *testing.T, email string, role domain.UserRole) *domain.User {
	t.Helper()
	u := &domain.User{Email: email, Name: "User " + email, Role: role}
	require.NoError(t, f.store.Users().Create(context.Background(), u))
	return u
}

func (f *fixture) property(t *testing.T, agentEmail, priceRange string) *domain.Property {
	t.Helper()
	p := &domain.Property{
		AgentEmail:         agentEmail,
		AgentName:          "Agent",
		Title:              "Lake house",
		Location:           "Dhaka",
		PriceRange:         priceRange,
		VerificationStatus: domain.VerificationVerified,
	}
	require.NoError(t, f.store.Properties().Create(context.Background(), p))
	return p
}

func (f *fixture) offer(t *testing.T, p *domain.Property, buyer string, amount int64) string {
	t.Helper()
	id, err := f.offers.Create(context.Background(), events.Actor{}, OfferCreateInput{
		PropertyID:  p.ID,
		OfferAmount: decimal.NewFromInt(amount),
		BuyerEmail:  buyer,
		BuyerName:   "Buyer",
		BuyingDate:  "2024-05-01",
		AgentEmail:  p.AgentEmail,
	})
	require.NoError(t, err)
	return id
}

func (f *fixture) status(t *testing.T, offerID string) domain.OfferStatus {
	t.Helper()
	o, err := f.store.Offers().GetByID(context.Background(), offerID)
	require.NoError(t, err)
	return o.Status
}

// force sets a status directly, bypassing workflow guards.
func (f *fixture) force(t *testing.T, offerID string, status domain.OfferStatus) {
	t.Helper()
	require.NoError(t, f.store.Offers().UpdateStatus(context.Background(), offerID, status))
}
