package payload

import "github.com/vasapolrittideah/teon-auth-api/services/auth-service/internal/model"

type RegisterRequest struct {
	FirstName   string `json:"firstName"   validate:"required,max=100"`
	LastName    string `json:"lastName"    validate:"required,max=100"`
	Email       string `json:"email"       validate:"required,email"`
	Password    string `json:"password"    validate:"required,min=8,max=128"`
	Username    string `json:"username"    validate:"required,min=3,max=50"`
	Gender      string `json:"gender"      validate:"required,oneof=Male Female"`
	PhoneNumber string `json:"phoneNumber" validate:"omitempty,e164"`
	Country     string `json:"country"     validate:"omitempty,max=100"`
	Language    string `json:"language"    validate:"omitempty,max=50"`
}

type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	Token string               `json:"token"`
	User  *model.PublicAccount `json:"user"`
}

type ResendVerificationRequest struct {
	Email string `json:"email" validate:"required,email"`
}
