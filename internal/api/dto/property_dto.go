package dto

// PropertyCreateRequest creates a listing for the calling agent.
type PropertyCreateRequest struct {
	Title       string `json:"title" validate:"required,max=200"`
	Location    string `json:"location" validate:"required,max=200"`
	Description string `json:"description" validate:"max=5000"`
	ImageURL    string `json:"imageUrl" validate:"omitempty,url"`
	PriceRange  string `json:"priceRange" validate:"required"`
}

// PropertyUpdateRequest patches owner-editable fields.
type PropertyUpdateRequest struct {
	Title       *string `json:"title" validate:"omitempty,min=1,max=200"`
	Location    *string `json:"location" validate:"omitempty,min=1,max=200"`
	Description *string `json:"description" validate:"omitempty,max=5000"`
	ImageURL    *string `json:"imageUrl" validate:"omitempty,url"`
	PriceRange  *string `json:"priceRange" validate:"omitempty,min=1"`
}

// VerificationRequest records an admin review outcome.
type VerificationRequest struct {
	Status string `json:"status" validate:"required,oneof=verified rejected"`
}
