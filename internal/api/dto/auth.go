package dto

import (
	"time"

	"github.com/hugh/localspace/internal/database/models"
	"github.com/hugh/localspace/internal/token"
)

type SignUpRequest struct {
	Name            string `json:"name" validate:"required,min=1,max=100"`
	Email           string `json:"email" validate:"required,email,max=254"`
	Password        string `json:"password" validate:"required,min=8,max=72"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
}

type SignInRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type TokenRequest struct {
	Token string `json:"token" validate:"required,min=10,max=500"`
}

type EmailRequest struct {
	Email string `json:"email" validate:"required,email,max=254"`
}

type ResetPasswordRequest struct {
	Token              string `json:"token" validate:"required,min=10,max=500"`
	NewPassword        string `json:"newPassword" validate:"required,min=8,max=72"`
	ConfirmNewPassword string `json:"confirmNewPassword" validate:"required,eqfield=NewPassword"`
}

type UpdatePasswordRequest struct {
	OldPassword        string `json:"oldPassword" validate:"required,min=8,max=72"`
	NewPassword        string `json:"newPassword" validate:"required,min=8,max=72,nefield=OldPassword"`
	ConfirmNewPassword string `json:"confirmNewPassword" validate:"required,eqfield=NewPassword"`
}

type TokenDTO struct {
	Type      string     `json:"type"`
	Token     string     `json:"token"`
	ExpiresAt *time.Time `json:"expiresAt"`
}

type SignInResponse struct {
	Message string   `json:"message"`
	Token   TokenDTO `json:"token"`
	User    UserDTO  `json:"user"`
}

type SignUpResponse struct {
	Message              string       `json:"message"`
	User                 UserDTO      `json:"user"`
	Workspace            WorkspaceDTO `json:"workspace"`
	VerificationRequired bool         `json:"verificationRequired"`
}

type UserResponse struct {
	Message string  `json:"message,omitempty"`
	User    UserDTO `json:"user"`
}

type UserDTO struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Email      string     `json:"email"`
	Role       string     `json:"role"`
	VerifiedAt *time.Time `json:"verifiedAt"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

func ToTokenDTO(h *token.Holder) TokenDTO {
	return TokenDTO{
		Type:      "bearer",
		Token:     h.Value(),
		ExpiresAt: h.Record.ExpiresAt,
	}
}

func ToUserDTO(u *models.User) UserDTO {
	return UserDTO{
		ID:         u.ID.String(),
		Name:       u.Name,
		Email:      u.Email,
		Role:       string(u.Role),
		VerifiedAt: u.VerifiedAt,
		CreatedAt:  u.CreatedAt,
		UpdatedAt:  u.UpdatedAt,
	}
}
