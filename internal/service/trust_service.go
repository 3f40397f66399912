package service

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/spec-kit/property-market/internal/domain"
	"github.com/spec-kit/property-market/internal/events"
	"github.com/spec-kit/property-market/internal/observability"
	"github.com/spec-kit/property-market/internal/persistence"
	"github.com/spec-kit/property-market/internal/repository"
	apperrors "github.com/spec-kit/property-market/pkg/util/errorutil"
)

// IdentityProvider is the external account system paired with local users.
type IdentityProvider interface {
	ResolveByEmail(ctx context.Context, email string) (string, error)
	Delete(ctx context.Context, accountID string) error
}

// TrustService handles fraud marking and account removal.
type TrustService struct {
	store      repository.Store
	cache      *persistence.Cache
	identity   IdentityProvider
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// TrustDependencies bundles collaborators for the trust service.
type TrustDependencies struct {
	Store      repository.Store
	Cache      *persistence.Cache
	Identity   IdentityProvider
	Dispatcher events.Dispatcher
	Metrics    *observability.Metrics
	Logger     *zap.Logger
}

// FraudResult summarizes a fraud cascade.
type FraudResult struct {
	UserID            string   `json:"userId"`
	DeletedProperties []string `json:"deletedProperties"`
	DeletedCount      int      `json:"deletedCount"`
	RejectedOffers    int64    `json:"rejectedOffers"`
}

// DeleteResult summarizes an account deletion.
type DeleteResult struct {
	UserID            string `json:"userId"`
	DeletedCount      int    `json:"deletedCount"`
	DeletedProperties int    `json:"deletedProperties"`
	IdentityDeleted   bool   `json:"identityDeleted"`
}

// NewTrustService constructs the service.
func NewTrustService(deps TrustDependencies) *TrustService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TrustService{
		store:      deps.Store,
		cache:      deps.Cache,
		identity:   deps.Identity,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		logger:     logger,
	}
}

// MarkFraud flags an agent, deletes their listings and rejects the live
// offers on them, all in one transaction.
func (s *TrustService) MarkFraud(ctx context.Context, actor events.Actor, userID string) (*FraudResult, error) {
	var (
		result         FraudResult
		agent          *domain.User
		rejectedOffers []domain.Offer
	)
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		user, err := tx.Users().GetByID(ctx, userID)
		if err != nil {
			return notFound(err, "user", userID)
		}
		if user.Role != domain.RoleAgent {
			return apperrors.NewValidationError("only agents can be marked as fraud",
				map[string]any{"user_id": userID, "role": string(user.Role)})
		}
		if err := tx.Users().UpdateStatus(ctx, user.ID, domain.UserStatusFraud); err != nil {
			return err
		}
		agent = user

		ids, rejected, err := cascadeAgentListings(ctx, tx, user.Email)
		if err != nil {
			return err
		}
		result.DeletedProperties = ids
		result.RejectedOffers = int64(len(rejected))
		rejectedOffers = rejected
		return nil
	})
	if err != nil {
		return nil, err
	}

	result.UserID = agent.ID
	result.DeletedCount = len(result.DeletedProperties)
	invalidate(ctx, s.cache, cascadeKeys(agent.Email, rejectedOffers)...)
	s.metrics.Inc("agents_marked_fraud", 1)
	s.logger.Info("agent marked as fraud",
		zap.String("user_id", agent.ID),
		zap.Int("deleted_properties", result.DeletedCount),
		zap.Int64("rejected_offers", result.RejectedOffers))

	publishEvent(ctx, s.dispatcher, events.Event{
		Type:      events.EventAgentMarkedFraud,
		SubjectID: agent.ID,
		Actor:     actor,
		Payload: events.AgentMarkedFraudPayload{
			AgentEmail:        agent.Email,
			DeletedProperties: result.DeletedProperties,
			RejectedOffers:    result.RejectedOffers,
		},
	})
	return &result, nil
}

// DeleteAccount removes the user locally, then best-effort removes the
// paired identity provider account. Provider failures are logged only.
func (s *TrustService) DeleteAccount(ctx context.Context, actor events.Actor, userID string) (*DeleteResult, error) {
	var (
		result         DeleteResult
		user           *domain.User
		rejectedOffers []domain.Offer
	)
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		var err error
		user, err = tx.Users().GetByID(ctx, userID)
		if err != nil {
			return notFound(err, "user", userID)
		}
		if err := tx.Users().Delete(ctx, user.ID); err != nil {
			return notFound(err, "user", userID)
		}
		if user.Role == domain.RoleAgent {
			ids, rejected, err := cascadeAgentListings(ctx, tx, user.Email)
			if err != nil {
				return err
			}
			result.DeletedProperties = len(ids)
			rejectedOffers = rejected
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	result.UserID = user.ID
	result.DeletedCount = 1

	failure := s.deleteIdentity(ctx, user.Email)
	result.IdentityDeleted = failure == nil
	keys := append(cascadeKeys(user.Email, rejectedOffers), buyerOffersKey(user.Email), soldKey(user.Email))
	invalidate(ctx, s.cache, keys...)
	s.metrics.Inc("accounts_deleted", 1)

	payload := events.AccountDeletedPayload{Email: user.Email, IdentityDeleted: result.IdentityDeleted}
	if failure != nil {
		payload.IdentityFailure = failure.Error()
	}
	publishEvent(ctx, s.dispatcher, events.Event{
		Type:      events.EventAccountDeleted,
		SubjectID: user.ID,
		Actor:     actor,
		Payload:   payload,
	})
	return &result, nil
}

func (s *TrustService) deleteIdentity(ctx context.Context, email string) error {
	if s.identity == nil {
		s.logger.Warn("identity provider not configured; skipping remote deletion", zap.String("email", email))
		return errIdentityUnavailable
	}
	accountID, err := s.identity.ResolveByEmail(ctx, email)
	if err == nil {
		err = s.identity.Delete(ctx, accountID)
	}
	if err != nil {
		s.logger.Warn("identity provider deletion failed",
			zap.String("email", email),
			zap.Error(apperrors.NewExternalFailure("identity provider", http.StatusBadGateway, err)))
		s.metrics.Inc("identity_delete_failures", 1)
		return err
	}
	return nil
}

// cascadeAgentListings deletes the agent's properties and rejects live
// offers on them. Payments are left untouched.
func cascadeAgentListings(ctx context.Context, tx repository.Store, agentEmail string) ([]string, []domain.Offer, error) {
	ids, err := tx.Properties().DeleteByAgent(ctx, agentEmail)
	if err != nil {
		return nil, nil, err
	}
	if ids == nil {
		ids = []string{}
	}
	rejected, err := tx.Offers().RejectLiveByProperties(ctx, ids)
	if err != nil {
		return nil, nil, err
	}
	return ids, rejected, nil
}

// cascadeKeys lists the cached views touched by a listing cascade: the
// agent's offers and every buyer whose offer was rejected.
func cascadeKeys(agentEmail string, rejected []domain.Offer) []string {
	keys := []string{agentOffersKey(agentEmail)}
	seen := map[string]bool{}
	for _, offer := range rejected {
		if seen[offer.BuyerEmail] {
			continue
		}
		seen[offer.BuyerEmail] = true
		keys = append(keys, buyerOffersKey(offer.BuyerEmail))
	}
	return keys
}
