package domain

import "time"

// VerificationStatus tracks admin review of a listing.
type VerificationStatus string

const (
	VerificationPending  VerificationStatus = "pending"
	VerificationVerified VerificationStatus = "verified"
	VerificationRejected VerificationStatus = "rejected"
)

// Property is a listing owned by an agent.
type Property struct {
	ID                 string             `json:"id"`
	AgentEmail         string             `json:"agentEmail"`
	AgentName          string             `json:"agentName"`
	Title              string             `json:"title"`
	Location           string             `json:"location"`
	Description        string             `json:"description,omitempty"`
	ImageURL           string             `json:"imageUrl,omitempty"`
	PriceRange         string             `json:"priceRange"`
	VerificationStatus VerificationStatus `json:"verificationStatus"`
	CreatedAt          time.Time          `json:"createdAt"`
	UpdatedAt          time.Time          `json:"updatedAt"`
}

// PropertyPatch carries owner-editable fields; nil means unchanged.
type PropertyPatch struct {
	Title       *string
	Location    *string
	Description *string
	ImageURL    *string
	PriceRange  *string
}
