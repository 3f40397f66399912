package dto

import "github.com/shopspring/decimal"

// OfferCreateRequest submits a purchase offer.
type OfferCreateRequest struct {
	PropertyID  string          `json:"propertyId"`
	OfferAmount decimal.Decimal `json:"offerAmount"`
	BuyerEmail  string          `json:"buyerEmail" validate:"omitempty,email"`
	BuyerName   string          `json:"buyerName" validate:"max=120"`
	BuyingDate  string          `json:"buyingDate"`
	AgentEmail  string          `json:"agentEmail" validate:"omitempty,email"`
	Images      []string        `json:"images" validate:"max=20,dive,url"`
}

// OfferStatusRequest accepts or rejects an offer.
type OfferStatusRequest struct {
	Status     string `json:"status"`
	PropertyID string `json:"propertyId"`
}

// InsertedResponse reports a created record id.
type InsertedResponse struct {
	InsertedID string `json:"insertedId"`
}
