package dto

import "github.com/shopspring/decimal"

// PaymentRequest reports a completed settlement.
type PaymentRequest struct {
	PropertyID    string          `json:"propertyId"`
	BuyerEmail    string          `json:"buyerEmail" validate:"omitempty,email"`
	AgentEmail    string          `json:"agentEmail" validate:"omitempty,email"`
	TransactionID string          `json:"transactionId" validate:"max=255"`
	Amount        decimal.Decimal `json:"amount"`
}

// PaymentIntentRequest asks the gateway for a client secret.
type PaymentIntentRequest struct {
	Price decimal.Decimal `json:"price"`
}

// PaymentIntentResponse carries the client secret.
type PaymentIntentResponse struct {
	ClientSecret string `json:"clientSecret"`
}
