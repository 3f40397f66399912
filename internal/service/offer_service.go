package service

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/spec-kit/property-market/internal/domain"
	"github.com/spec-kit/property-market/internal/events"
	"github.com/spec-kit/property-market/internal/observability"
	"github.com/spec-kit/property-market/internal/persistence"
	"github.com/spec-kit/property-market/internal/pricing"
	"github.com/spec-kit/property-market/internal/repository"
	apperrors "github.com/spec-kit/property-market/pkg/util/errorutil"
)

// OfferService coordinates the offer workflow: creation inside a property's
// price range and the single-acceptance cascade.
type OfferService struct {
	store      repository.Store
	cache      *persistence.Cache
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// OfferDependencies bundles collaborators for the offer service.
type OfferDependencies struct {
	Store      repository.Store
	Cache      *persistence.Cache
	Dispatcher events.Dispatcher
	Metrics    *observability.Metrics
	Logger     *zap.Logger
}

// OfferCreateInput describes an offer submission.
type OfferCreateInput struct {
	PropertyID  string
	OfferAmount decimal.Decimal
	BuyerEmail  string
	BuyerName   string
	BuyingDate  string
	AgentEmail  string
	Images      []string
}

// StatusChange is the outcome of a transition.
type StatusChange struct {
	Offer            *domain.Offer
	PreviousStatus   domain.OfferStatus
	SiblingsRejected int64
	// Rejected lists the siblings flipped to rejected, with their prior status.
	Rejected []domain.Offer
}

// NewOfferService constructs the service.
func NewOfferService(deps OfferDependencies) *OfferService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OfferService{
		store:      deps.Store,
		cache:      deps.Cache,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		logger:     logger,
	}
}

// Create validates and persists a pending offer, returning its id.
func (s *OfferService) Create(ctx context.Context, actor events.Actor, input OfferCreateInput) (string, error) {
	if err := requireFields(map[string]string{
		"propertyId": input.PropertyID,
		"buyerEmail": input.BuyerEmail,
		"buyerName":  input.BuyerName,
		"buyingDate": input.BuyingDate,
		"agentEmail": input.AgentEmail,
	}); err != nil {
		return "", err
	}
	// an absent amount decodes as zero, so zero is reported with negatives
	if !input.OfferAmount.IsPositive() {
		return "", apperrors.NewValidationError("offer amount must be positive",
			map[string]any{"offer_amount": input.OfferAmount.String()})
	}

	property, err := s.store.Properties().GetByID(ctx, input.PropertyID)
	if err != nil {
		return "", notFound(err, "property", input.PropertyID)
	}
	if !strings.EqualFold(property.AgentEmail, strings.TrimSpace(input.AgentEmail)) {
		return "", apperrors.NewValidationError("agent email does not own the property",
			map[string]any{"agent_email": input.AgentEmail, "property_id": property.ID})
	}

	bounds, err := pricing.ParseRange(property.PriceRange)
	if err != nil {
		return "", apperrors.NewInternalError(err)
	}
	if !bounds.Contains(input.OfferAmount) {
		return "", apperrors.NewRangeViolation(input.OfferAmount.String(), bounds.Min.String(), bounds.Max.String())
	}

	offer := &domain.Offer{
		PropertyID:       property.ID,
		PropertyTitle:    property.Title,
		PropertyLocation: property.Location,
		AgentName:        property.AgentName,
		AgentEmail:       property.AgentEmail,
		BuyerEmail:       normalizeEmail(input.BuyerEmail),
		BuyerName:        strings.TrimSpace(input.BuyerName),
		OfferAmount:      input.OfferAmount,
		BuyingDate:       strings.TrimSpace(input.BuyingDate),
		Images:           input.Images,
		Status:           domain.OfferStatusPending,
	}
	if err := s.store.Offers().Create(ctx, offer); err != nil {
		return "", err
	}

	invalidate(ctx, s.cache, buyerOffersKey(offer.BuyerEmail), agentOffersKey(offer.AgentEmail))
	s.metrics.Inc("offers_created", 1)
	publishEvent(ctx, s.dispatcher, events.Event{
		Type:      events.EventOfferCreated,
		SubjectID: offer.ID,
		Actor:     actor,
		Payload: events.OfferCreatedPayload{
			PropertyID:    offer.PropertyID,
			PropertyTitle: offer.PropertyTitle,
			AgentEmail:    offer.AgentEmail,
			BuyerEmail:    offer.BuyerEmail,
			BuyerName:     offer.BuyerName,
			OfferAmount:   offer.OfferAmount,
		},
	})
	return offer.ID, nil
}

// Get returns a single offer.
func (s *OfferService) Get(ctx context.Context, id string) (*domain.Offer, error) {
	offer, err := s.store.Offers().GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "offer", id)
	}
	return offer, nil
}

// TransitionStatus accepts or rejects an offer. Accepting rejects every other
// offer on the same property in the same transaction. propertyID may be empty,
// in which case the offer's own property is used.
func (s *OfferService) TransitionStatus(ctx context.Context, actor events.Actor, offerID string, newStatus domain.OfferStatus, propertyID string) (*StatusChange, error) {
	if newStatus != domain.OfferStatusAccepted && newStatus != domain.OfferStatusRejected {
		return nil, apperrors.NewValidationError("status must be accepted or rejected",
			map[string]any{"status": string(newStatus)})
	}
	if strings.TrimSpace(offerID) == "" {
		return nil, apperrors.NewValidationError("offer id is required", nil)
	}

	var change StatusChange
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		offer, err := tx.Offers().GetByID(ctx, offerID)
		if err != nil {
			return notFound(err, "offer", offerID)
		}
		if propertyID != "" && propertyID != offer.PropertyID {
			return apperrors.NewValidationError("offer does not belong to property",
				map[string]any{"offer_id": offerID, "property_id": propertyID})
		}
		// lock every offer on the property, then re-read the target under the lock
		siblings, err := tx.Offers().ListByPropertyForUpdate(ctx, offer.PropertyID)
		if err != nil {
			return err
		}
		for _, sibling := range siblings {
			if sibling.ID == offer.ID {
				offer.Status = sibling.Status
			}
		}
		if offer.Status == domain.OfferStatusBought {
			return apperrors.NewPreconditionFailed("offer already bought", map[string]any{"offer_id": offerID})
		}

		change.PreviousStatus = offer.Status
		if newStatus == domain.OfferStatusAccepted {
			for _, sibling := range siblings {
				if sibling.ID == offer.ID {
					continue
				}
				if sibling.Status == domain.OfferStatusBought {
					return apperrors.NewPreconditionFailed("property already sold",
						map[string]any{"property_id": offer.PropertyID, "bought_offer_id": sibling.ID})
				}
				if sibling.Status != domain.OfferStatusRejected {
					change.Rejected = append(change.Rejected, sibling)
				}
			}
			// siblings first: at most one accepted row may exist per property
			n, err := tx.Offers().RejectSiblings(ctx, offer.PropertyID, offer.ID)
			if err != nil {
				return err
			}
			change.SiblingsRejected = n
		}

		if err := tx.Offers().UpdateStatus(ctx, offer.ID, newStatus); err != nil {
			return notFound(err, "offer", offerID)
		}
		offer.Status = newStatus
		change.Offer = offer
		return nil
	})
	if err != nil {
		return nil, err
	}

	offer := change.Offer
	keys := []string{buyerOffersKey(offer.BuyerEmail), agentOffersKey(offer.AgentEmail)}
	for _, sibling := range change.Rejected {
		keys = append(keys, buyerOffersKey(sibling.BuyerEmail))
	}
	invalidate(ctx, s.cache, keys...)
	s.metrics.Inc("offers_"+string(newStatus), 1)
	s.metrics.Inc("offers_sibling_rejected", change.SiblingsRejected)

	s.publishStatusChange(ctx, actor, offer, change.PreviousStatus, newStatus, change.SiblingsRejected)
	for i := range change.Rejected {
		sibling := change.Rejected[i]
		s.publishStatusChange(ctx, actor, &sibling, sibling.Status, domain.OfferStatusRejected, 0)
	}
	return &change, nil
}

func (s *OfferService) publishStatusChange(ctx context.Context, actor events.Actor, offer *domain.Offer, from, to domain.OfferStatus, siblings int64) {
	publishEvent(ctx, s.dispatcher, events.Event{
		Type:      events.EventOfferStatusChanged,
		SubjectID: offer.ID,
		Actor:     actor,
		Payload: events.OfferStatusChangedPayload{
			PropertyID:       offer.PropertyID,
			PropertyTitle:    offer.PropertyTitle,
			BuyerEmail:       offer.BuyerEmail,
			OldStatus:        from,
			NewStatus:        to,
			SiblingsRejected: siblings,
		},
	})
}

// ListForBuyer returns the buyer's offers, newest first.
func (s *OfferService) ListForBuyer(ctx context.Context, buyerEmail string) ([]domain.Offer, error) {
	if strings.TrimSpace(buyerEmail) == "" {
		return nil, apperrors.NewValidationError("buyerEmail is required", nil)
	}
	return s.cachedList(ctx, buyerOffersKey(buyerEmail), func() ([]domain.Offer, error) {
		return s.store.Offers().ListByBuyer(ctx, normalizeEmail(buyerEmail))
	})
}

// ListForAgent returns offers on the agent's properties, newest first.
func (s *OfferService) ListForAgent(ctx context.Context, agentEmail string) ([]domain.Offer, error) {
	if strings.TrimSpace(agentEmail) == "" {
		return nil, apperrors.NewValidationError("agentEmail is required", nil)
	}
	return s.cachedList(ctx, agentOffersKey(agentEmail), func() ([]domain.Offer, error) {
		return s.store.Offers().ListByAgent(ctx, normalizeEmail(agentEmail))
	})
}

func (s *OfferService) cachedList(ctx context.Context, key string, load func() ([]domain.Offer, error)) ([]domain.Offer, error) {
	var offers []domain.Offer
	if s.cache.GetJSON(ctx, key, &offers) {
		return offers, nil
	}
	offers, err := load()
	if err != nil {
		return nil, err
	}
	if offers == nil {
		offers = []domain.Offer{}
	}
	s.cache.SetJSON(ctx, key, offers)
	return offers, nil
}
