package dto

// TokenRequest asks for a bearer token for a registered email.
type TokenRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// UserUpsertRequest registers a user on first login.
type UserUpsertRequest struct {
	Email string `json:"email" validate:"required,email"`
	Name  string `json:"name" validate:"max=120"`
}

// RoleUpdateRequest changes a user's role.
type RoleUpdateRequest struct {
	Role string `json:"role" validate:"required,oneof=customer agent admin"`
}
