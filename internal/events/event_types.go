package events

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/spec-kit/property-market/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventOfferCreated       EventType = "offer_created"
	EventOfferStatusChanged EventType = "offer_status_changed"
	EventPaymentRecorded    EventType = "payment_recorded"
	EventAgentMarkedFraud   EventType = "agent_marked_fraud"
	EventAccountDeleted     EventType = "account_deleted"
)

// Actor identifies who caused an event. Empty when the system acted.
type Actor struct {
	UserID string          `json:"user_id,omitempty"`
	Email  string          `json:"email,omitempty"`
	Role   domain.UserRole `json:"role,omitempty"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	SubjectID string      `json:"subject_id"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// OfferCreatedPayload payload.
type OfferCreatedPayload struct {
	PropertyID    string          `json:"property_id"`
	PropertyTitle string          `json:"property_title"`
	AgentEmail    string          `json:"agent_email"`
	BuyerEmail    string          `json:"buyer_email"`
	BuyerName     string          `json:"buyer_name"`
	OfferAmount   decimal.Decimal `json:"offer_amount"`
}

// OfferStatusChangedPayload payload.
type OfferStatusChangedPayload struct {
	PropertyID       string             `json:"property_id"`
	PropertyTitle    string             `json:"property_title"`
	BuyerEmail       string             `json:"buyer_email"`
	OldStatus        domain.OfferStatus `json:"old_status"`
	NewStatus        domain.OfferStatus `json:"new_status"`
	SiblingsRejected int64              `json:"siblings_rejected"`
}

// PaymentRecordedPayload payload.
type PaymentRecordedPayload struct {
	PropertyID    string          `json:"property_id"`
	OfferID       string          `json:"offer_id,omitempty"`
	BuyerEmail    string          `json:"buyer_email"`
	AgentEmail    string          `json:"agent_email"`
	TransactionID string          `json:"transaction_id"`
	Amount        decimal.Decimal `json:"amount"`
	Matched       int64           `json:"matched"`
	Modified      int64           `json:"modified"`
}

// AgentMarkedFraudPayload payload.
type AgentMarkedFraudPayload struct {
	AgentEmail        string   `json:"agent_email"`
	DeletedProperties []string `json:"deleted_properties"`
	RejectedOffers    int64    `json:"rejected_offers"`
}

// AccountDeletedPayload payload.
type AccountDeletedPayload struct {
	Email           string `json:"email"`
	IdentityDeleted bool   `json:"identity_deleted"`
	IdentityFailure string `json:"identity_failure,omitempty"`
}
