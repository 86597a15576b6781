package handlers

import (
	"log/slog"
	"net/http"

	"github.com/hugh/localspace/internal/api/dto"
	"github.com/hugh/localspace/internal/api/middleware"
	"github.com/hugh/localspace/internal/api/validation"
	"github.com/hugh/localspace/internal/auth"
)

const (
	msgSignedUpVerify  = "Your account has been created. Please check your email to verify your account."
	msgSignedUp        = "Your account has been created successfully."
	msgSignedIn        = "You have been signed in successfully."
	msgSignedOut       = "You have been signed out successfully."
	msgVerified        = "Your email address has been verified successfully."
	msgVerifyResent    = "If an unverified account with this email exists, a new verification link has been sent."
	msgResetSent       = "If an account with this email exists, a password reset link has been sent."
	msgPasswordReset   = "Your password has been successfully reset."
	msgPasswordUpdated = "Your password has been updated successfully."
)

type AuthHandler struct {
	accounts auth.Accounts
	logger   *slog.Logger
}

func NewAuthHandler(accounts auth.Accounts, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{accounts: accounts, logger: logger}
}

func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req dto.SignUpRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := h.accounts.SignUp(r.Context(), auth.SignUpInput{
		Name:     validation.SanitizeString(req.Name),
		Email:    req.Email,
		Password: req.Password,
		IP:       middleware.ClientIP(r),
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	msg := msgSignedUp
	if res.VerificationRequired {
		msg = msgSignedUpVerify
	}
	writeJSON(w, http.StatusCreated, dto.SignUpResponse{
		Message:              msg,
		User:                 dto.ToUserDTO(res.User),
		Workspace:            dto.ToWorkspaceDTO(res.Workspace),
		VerificationRequired: res.VerificationRequired,
	})
}

func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req dto.SignInRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := h.accounts.SignIn(r.Context(), auth.SignInInput{
		Email:    req.Email,
		Password: req.Password,
		IP:       middleware.ClientIP(r),
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.SignInResponse{
		Message: msgSignedIn,
		Token:   dto.ToTokenDTO(res.Token),
		User:    dto.ToUserDTO(res.User),
	})
}

func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	if err := h.accounts.SignOut(r.Context(), middleware.GetSession(r.Context())); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: msgSignedOut})
}

func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, dto.UserResponse{User: dto.ToUserDTO(middleware.GetUser(r.Context()))})
}

func (h *AuthHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req dto.TokenRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.accounts.VerifyEmail(r.Context(), req.Token); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: msgVerified})
}

func (h *AuthHandler) ResendVerification(w http.ResponseWriter, r *http.Request) {
	var req dto.EmailRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.accounts.ResendVerification(r.Context(), req.Email); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: msgVerifyResent})
}

func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req dto.EmailRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.accounts.ForgotPassword(r.Context(), req.Email); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: msgResetSent})
}

func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req dto.ResetPasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.accounts.ResetPassword(r.Context(), req.Token, req.NewPassword); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: msgPasswordReset})
}

func (h *AuthHandler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdatePasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.accounts.UpdatePassword(r.Context(), middleware.GetUser(r.Context()), req.OldPassword, req.NewPassword)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.UserResponse{Message: msgPasswordUpdated, User: dto.ToUserDTO(user)})
}
