package service

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/spec-kit/property-market/internal/domain"
	"github.com/spec-kit/property-market/internal/events"
	"github.com/spec-kit/property-market/internal/observability"
	"github.com/spec-kit/property-market/internal/persistence"
	"github.com/spec-kit/property-market/internal/repository"
	apperrors "github.com/spec-kit/property-market/pkg/util/errorutil"
)

// PaymentGateway issues client-side settlement handles.
type PaymentGateway interface {
	CreatePaymentIntent(ctx context.Context, amount decimal.Decimal, currency string) (clientSecret string, err error)
}

// PaymentService records settlements and reconciles them with offers.
type PaymentService struct {
	store                repository.Store
	cache                *persistence.Cache
	gateway              PaymentGateway
	currency             string
	requireAcceptedOffer bool
	dispatcher           events.Dispatcher
	metrics              *observability.Metrics
	logger               *zap.Logger

	// sweepMu serializes reconcile sweeps and guards cursor.
	sweepMu sync.Mutex
	cursor  repository.PaymentCursor
}

const defaultReconcileBatch = 100

// PaymentDependencies bundles collaborators for the payment service.
type PaymentDependencies struct {
	Store                repository.Store
	Cache                *persistence.Cache
	Gateway              PaymentGateway
	Currency             string
	RequireAcceptedOffer bool
	Dispatcher           events.Dispatcher
	Metrics              *observability.Metrics
	Logger               *zap.Logger
}

// PaymentInput describes a completed settlement reported by the client.
type PaymentInput struct {
	PropertyID    string
	BuyerEmail    string
	AgentEmail    string
	TransactionID string
	Amount        decimal.Decimal
}

// PaymentResult reports the stored payment and the offer reconciliation outcome.
type PaymentResult struct {
	PaymentID     string `json:"paymentId"`
	TransactionID string `json:"transactionId"`
	OfferID       string `json:"offerId,omitempty"`
	MatchedCount  int64  `json:"matchedCount"`
	ModifiedCount int64  `json:"modifiedCount"`
}

// NewPaymentService constructs the service.
func NewPaymentService(deps PaymentDependencies) *PaymentService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	currency := deps.Currency
	if currency == "" {
		currency = "usd"
	}
	return &PaymentService{
		store:                deps.Store,
		cache:                deps.Cache,
		gateway:              deps.Gateway,
		currency:             currency,
		requireAcceptedOffer: deps.RequireAcceptedOffer,
		dispatcher:           deps.Dispatcher,
		metrics:              deps.Metrics,
		logger:               logger,
	}
}

// Record writes a bought payment and marks the matching offer bought in the
// same transaction. A payment with no matching offer is still stored and
// reported with zero counts.
func (s *PaymentService) Record(ctx context.Context, actor events.Actor, input PaymentInput) (*PaymentResult, error) {
	if err := requireFields(map[string]string{
		"propertyId":    input.PropertyID,
		"buyerEmail":    input.BuyerEmail,
		"agentEmail":    input.AgentEmail,
		"transactionId": input.TransactionID,
	}); err != nil {
		return nil, err
	}
	if input.Amount.IsNegative() {
		return nil, apperrors.NewValidationError("amount must not be negative",
			map[string]any{"amount": input.Amount.String()})
	}

	buyerEmail := normalizeEmail(input.BuyerEmail)
	result := &PaymentResult{TransactionID: strings.TrimSpace(input.TransactionID)}
	payment := &domain.Payment{
		PropertyID:    input.PropertyID,
		BuyerEmail:    buyerEmail,
		AgentEmail:    normalizeEmail(input.AgentEmail),
		TransactionID: result.TransactionID,
		Amount:        input.Amount,
		Status:        domain.PaymentStatusBought,
	}

	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		matches, err := tx.Offers().FindByPropertyAndBuyer(ctx, input.PropertyID, buyerEmail)
		if err != nil {
			return err
		}
		target, err := s.pickOffer(matches)
		if err != nil {
			return err
		}

		if target != nil {
			payment.OfferID = &target.ID
			if !strings.EqualFold(payment.AgentEmail, target.AgentEmail) {
				s.logger.Warn("payment agent email differs from offer; using the offer's",
					zap.String("given", payment.AgentEmail),
					zap.String("offer_agent", target.AgentEmail))
			}
			payment.AgentEmail = target.AgentEmail
			if payment.Amount.IsZero() {
				payment.Amount = target.OfferAmount
			}
		}
		if err := tx.Payments().Create(ctx, payment); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return apperrors.NewConflict("transaction already recorded",
					map[string]any{"transaction_id": payment.TransactionID})
			}
			return err
		}
		result.PaymentID = payment.ID

		if target == nil {
			return nil
		}
		result.OfferID = target.ID
		result.MatchedCount, result.ModifiedCount, err = tx.Offers().MarkBought(ctx, target.ID, payment.TransactionID)
		return err
	})
	if err != nil {
		return nil, err
	}

	if result.MatchedCount == 0 {
		s.logger.Warn("payment recorded without matching offer",
			zap.String("payment_id", result.PaymentID),
			zap.String("property_id", payment.PropertyID),
			zap.String("buyer_email", payment.BuyerEmail))
	}
	invalidate(ctx, s.cache, buyerOffersKey(payment.BuyerEmail), agentOffersKey(payment.AgentEmail), soldKey(payment.AgentEmail))
	s.metrics.Inc("payments_recorded", 1)
	s.metrics.Inc("offers_bought", result.ModifiedCount)

	publishEvent(ctx, s.dispatcher, events.Event{
		Type:      events.EventPaymentRecorded,
		SubjectID: result.PaymentID,
		Actor:     actor,
		Payload: events.PaymentRecordedPayload{
			PropertyID:    payment.PropertyID,
			OfferID:       result.OfferID,
			BuyerEmail:    payment.BuyerEmail,
			AgentEmail:    payment.AgentEmail,
			TransactionID: payment.TransactionID,
			Amount:        payment.Amount,
			Matched:       result.MatchedCount,
			Modified:      result.ModifiedCount,
		},
	})
	return result, nil
}

// pickOffer chooses the offer a payment settles. Strict mode requires an
// accepted match. Legacy mode takes the oldest match whatever its status.
func (s *PaymentService) pickOffer(matches []domain.Offer) (*domain.Offer, error) {
	if len(matches) == 0 {
		return nil, nil
	}
	if !s.requireAcceptedOffer {
		return &matches[0], nil
	}
	for i := range matches {
		if matches[i].Status == domain.OfferStatusAccepted {
			return &matches[i], nil
		}
	}
	statuses := make([]string, 0, len(matches))
	for _, m := range matches {
		statuses = append(statuses, string(m.Status))
	}
	return nil, apperrors.NewPreconditionFailed("no accepted offer matches the payment",
		map[string]any{"offer_statuses": statuses})
}

// ListSold returns the agent's bought payments, newest first.
func (s *PaymentService) ListSold(ctx context.Context, agentEmail string) ([]domain.Payment, error) {
	if strings.TrimSpace(agentEmail) == "" {
		return nil, apperrors.NewValidationError("email is required", nil)
	}
	key := soldKey(agentEmail)
	var payments []domain.Payment
	if s.cache.GetJSON(ctx, key, &payments) {
		return payments, nil
	}
	payments, err := s.store.Payments().ListSoldByAgent(ctx, normalizeEmail(agentEmail))
	if err != nil {
		return nil, err
	}
	if payments == nil {
		payments = []domain.Payment{}
	}
	s.cache.SetJSON(ctx, key, payments)
	return payments, nil
}

// Reconcile links unlinked payments to their offer and marks it bought. Each
// sweep scans up to limit payments after where the previous sweep stopped,
// wrapping to the oldest once the end is reached. It returns how many
// payments were repaired; per-payment failures are logged.
func (s *PaymentService) Reconcile(ctx context.Context, limit int) (int, error) {
	if limit <= 0 {
		limit = defaultReconcileBatch
	}
	s.sweepMu.Lock()
	defer s.sweepMu.Unlock()

	pending, err := s.store.Payments().ListUnlinked(ctx, s.cursor, limit)
	if err != nil {
		return 0, err
	}
	if len(pending) == 0 && !s.cursor.IsZero() {
		s.cursor = repository.PaymentCursor{}
		if pending, err = s.store.Payments().ListUnlinked(ctx, s.cursor, limit); err != nil {
			return 0, err
		}
	}

	repaired := 0
	for _, payment := range pending {
		if err := ctx.Err(); err != nil {
			return repaired, err
		}
		s.cursor = repository.CursorAt(payment)
		offer, err := s.reconcileOne(ctx, payment)
		if err != nil {
			s.logger.Warn("payment reconciliation failed",
				zap.String("payment_id", payment.ID), zap.Error(err))
			continue
		}
		if offer != nil {
			repaired++
			invalidate(ctx, s.cache, buyerOffersKey(offer.BuyerEmail), agentOffersKey(offer.AgentEmail), soldKey(payment.AgentEmail))
		}
	}
	if len(pending) < limit {
		s.cursor = repository.PaymentCursor{}
	}
	if repaired > 0 {
		s.logger.Info("payments reconciled", zap.Int("repaired", repaired), zap.Int("scanned", len(pending)))
	}
	s.metrics.Inc("payments_reconciled", int64(repaired))
	return repaired, nil
}

// reconcileOne links payment to the offer it settled: the offer already
// carrying its transaction id, or else an accepted offer that existed when
// the payment was made for exactly the paid amount.
func (s *PaymentService) reconcileOne(ctx context.Context, payment domain.Payment) (*domain.Offer, error) {
	var target *domain.Offer
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		matches, err := tx.Offers().FindByPropertyAndBuyer(ctx, payment.PropertyID, payment.BuyerEmail)
		if err != nil {
			return err
		}
		target = settledOffer(matches, payment)
		if target == nil {
			return nil
		}
		if _, _, err := tx.Offers().MarkBought(ctx, target.ID, payment.TransactionID); err != nil {
			return err
		}
		return tx.Payments().LinkOffer(ctx, payment.ID, target.ID)
	})
	if err != nil {
		return nil, err
	}
	return target, nil
}

func settledOffer(matches []domain.Offer, payment domain.Payment) *domain.Offer {
	for i := range matches {
		if matches[i].TransactionID != nil && *matches[i].TransactionID == payment.TransactionID {
			return &matches[i]
		}
	}
	for i := range matches {
		m := &matches[i]
		if m.Status == domain.OfferStatusAccepted &&
			!m.CreatedAt.After(payment.PaidAt) &&
			m.OfferAmount.Equal(payment.Amount) {
			return m
		}
	}
	return nil
}

// CreatePaymentIntent asks the gateway for a client secret covering amount.
func (s *PaymentService) CreatePaymentIntent(ctx context.Context, amount decimal.Decimal) (string, error) {
	if !amount.IsPositive() {
		return "", apperrors.NewValidationError("amount must be positive", map[string]any{"amount": amount.String()})
	}
	if s.gateway == nil {
		return "", apperrors.NewExternalFailure("payment gateway", http.StatusInternalServerError,
			errors.New("payment gateway not configured"))
	}
	secret, err := s.gateway.CreatePaymentIntent(ctx, amount, s.currency)
	if err != nil {
		return "", apperrors.NewExternalFailure("payment gateway", http.StatusInternalServerError, err)
	}
	return secret, nil
}
