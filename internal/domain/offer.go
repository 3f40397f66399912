package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OfferStatus enumerates lifecycle states for purchase offers.
type OfferStatus string

const (
	OfferStatusPending  OfferStatus = "pending"
	OfferStatusAccepted OfferStatus = "accepted"
	OfferStatusRejected OfferStatus = "rejected"
	OfferStatusBought   OfferStatus = "bought"
)

// Terminal reports whether no further workflow transition is expected.
func (s OfferStatus) Terminal() bool {
	return s == OfferStatusRejected || s == OfferStatusBought
}

// Offer is a buyer's proposed purchase of a property.
type Offer struct {
	ID               string          `json:"id"`
	PropertyID       string          `json:"propertyId"`
	PropertyTitle    string          `json:"propertyTitle"`
	PropertyLocation string          `json:"propertyLocation"`
	AgentName        string          `json:"agentName"`
	AgentEmail       string          `json:"agentEmail"`
	BuyerEmail       string          `json:"buyerEmail"`
	BuyerName        string          `json:"buyerName"`
	OfferAmount      decimal.Decimal `json:"offerAmount"`
	BuyingDate       string          `json:"buyingDate"`
	Images           []string        `json:"images,omitempty"`
	Status           OfferStatus     `json:"status"`
	TransactionID    *string         `json:"transactionId,omitempty"`
	CreatedAt        time.Time       `json:"createdAt"`
	UpdatedAt        time.Time       `json:"updatedAt"`
}
