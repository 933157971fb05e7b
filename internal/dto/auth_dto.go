package dto

import "time"

// RegisterRequest is the self-service account creation payload.
type RegisterRequest struct {
	FullName     string `json:"full_name" validate:"required,min=2,max=255"`
	Username     string `json:"username" validate:"required,min=3,max=64"`
	Email        string `json:"email" validate:"required,email,max=255"`
	Password     string `json:"password" validate:"required,min=8,max=72"`
	AcademicYear string `json:"academic_year" validate:"required,max=32"`
	Country      string `json:"country" validate:"required,max=100"`
}

// LoginRequest accepts either an email or a username as identifier.
type LoginRequest struct {
	Identifier string `json:"identifier" validate:"required"`
	Password   string `json:"password" validate:"required"`
}

// LoginResponse carries the signed bearer token.
type LoginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      UserResponse `json:"user"`
}
