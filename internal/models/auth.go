package models

import "github.com/golang-jwt/jwt/v5"

// RegisterRequest is the payload for account creation.
type RegisterRequest struct {
	Name          string  `json:"name" validate:"required"`
	Surname       string  `json:"surname" validate:"required"`
	Email         string  `json:"email" validate:"required,email"`
	Password      string  `json:"password" validate:"required,min=6"`
	Role          string  `json:"role,omitempty" validate:"omitempty,oneof=student delegate"`
	InstitutionID *int64  `json:"institution_id,omitempty"`
	ProgramID     *int64  `json:"program_id,omitempty"`
	Level         *string `json:"level,omitempty" validate:"omitempty,oneof=L1 L2 L3 M1 M2"`
}

// LoginRequest is the payload for password login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// RateRequest carries a 1..5 score.
type RateRequest struct {
	Score int `json:"score" validate:"min=1,max=5"`
}

// Claims is the JWT payload issued at login.
type Claims struct {
	UserID int64  `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}
