package auth

import (
	"context"

	"github.com/google/uuid"
	"github.com/hugh/localspace/internal/database/models"
	"github.com/hugh/localspace/internal/token"
)

// Authenticator resolves bearer credentials for the HTTP middleware.
type Authenticator interface {
	Authenticate(ctx context.Context, bearer string) (*models.User, *token.Holder, error)
}

// Accounts is the customer-facing account surface used by the handlers.
type Accounts interface {
	SignUp(ctx context.Context, input SignUpInput) (*SignUpResult, error)
	SignIn(ctx context.Context, input SignInInput) (*SignInResult, error)
	SignOut(ctx context.Context, session *token.Holder) error
	VerifyEmail(ctx context.Context, value string) error
	ResendVerification(ctx context.Context, email string) error
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, value, newPassword string) error
	UpdatePassword(ctx context.Context, user *models.User, oldPassword, newPassword string) (*models.User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// Compile-time interface satisfaction checks
var (
	_ Authenticator = (*Service)(nil)
	_ Accounts      = (*Service)(nil)
)
