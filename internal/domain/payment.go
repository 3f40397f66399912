package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStatusBought is the only status a settlement record carries.
const PaymentStatusBought = "bought"

// Payment is the append-only settlement record of a completed purchase.
type Payment struct {
	ID            string          `json:"id"`
	PropertyID    string          `json:"propertyId"`
	OfferID       *string         `json:"offerId,omitempty"`
	BuyerEmail    string          `json:"buyerEmail"`
	AgentEmail    string          `json:"agentEmail"`
	TransactionID string          `json:"transactionId"`
	Amount        decimal.Decimal `json:"amount"`
	Status        string          `json:"status"`
	PaidAt        time.Time       `json:"paidAt"`
}
