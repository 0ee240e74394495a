package dto

type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	FullName string `json:"full_name" validate:"required,min=2,max=255"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AuthResponse struct {
	Token    string `json:"token"`
	UserID   string `json:"user_id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
}

type AddressRequest struct {
	Line1     string `json:"line1" validate:"required,max=255"`
	Line2     string `json:"line2,omitempty" validate:"max=255"`
	City      string `json:"city,omitempty" validate:"max=100"`
	Postcode  string `json:"postcode,omitempty" validate:"max=20"`
	Country   string `json:"country" validate:"required,len=2,alpha"`
	IsDefault bool   `json:"is_default,omitempty"`
}
