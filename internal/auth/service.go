package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hugh/localspace/internal/apperr"
	"github.com/hugh/localspace/internal/database/models"
	"github.com/hugh/localspace/internal/mail"
	"github.com/hugh/localspace/internal/ratelimit"
	"github.com/hugh/localspace/internal/token"
	"github.com/hugh/localspace/internal/workspace"
	"gorm.io/gorm"
)

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrUnauthenticated = errors.New("unauthenticated")
)

// User-facing messages.
const (
	MsgSignInDisabled       = "signin is currently disabled."
	MsgSignUpDisabled       = "signup is currently disabled."
	MsgVerificationDisabled = "Email verification is currently disabled."
	MsgEmailTaken           = "An account with this email address already exists."
	MsgInvalidCredentials   = "Invalid email or password."
	MsgEmailNotVerified     = "Your email address is not verified. Please check your inbox for a verification link."
	MsgVerificationInvalid  = "The verification link is invalid or has expired."
	MsgAlreadyVerified      = "Your email address has already been verified."
	MsgResetTokenInvalid    = "The provided token is invalid or has expired."
	MsgOldPasswordIncorrect = "The old password you entered is incorrect."
	MsgNewPasswordSameAsOld = "The new password must be different from the old password."
)

// CodeEmailNotVerified tags the sign-in error for unverified accounts.
const CodeEmailNotVerified = "EMAIL_NOT_VERIFIED"

const accessTokenName = "session"

// Config holds the account rules.
type Config struct {
	SignInEnabled       bool
	SignUpEnabled       bool
	SessionMax          int
	SessionExpiry       time.Duration
	VerificationEnabled bool
	VerificationExpiry  time.Duration
	PasswordResetExpiry time.Duration
	ClientURL           string
}

type Service struct {
	db      *gorm.DB
	tokens  *token.Module
	mailer  mail.Mailer
	limiter ratelimit.Limiter
	links   mail.Links
	cfg     Config
	logger  *slog.Logger
}

func NewService(db *gorm.DB, tokens *token.Module, mailer mail.Mailer, limiter ratelimit.Limiter, cfg Config, logger *slog.Logger) *Service {
	if cfg.SessionMax < 1 {
		cfg.SessionMax = 1
	}
	return &Service{
		db:      db,
		tokens:  tokens,
		mailer:  mailer,
		limiter: limiter,
		links:   mail.Links{ClientURL: cfg.ClientURL},
		cfg:     cfg,
		logger:  logger,
	}
}

type SignUpInput struct {
	Name     string
	Email    string
	Password string
	IP       string
}

type SignUpResult struct {
	User                 *models.User
	Workspace            *models.Workspace
	VerificationRequired bool
}

type SignInInput struct {
	Email    string
	Password string
	IP       string
}

type SignInResult struct {
	User  *models.User
	Token *token.Holder
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SignUp creates the user, their first workspace and its owner membership in
// one transaction, then queues the verification email.
func (s *Service) SignUp(ctx context.Context, input SignUpInput) (*SignUpResult, error) {
	if !s.cfg.SignUpEnabled {
		return nil, apperr.Forbidden(MsgSignUpDisabled)
	}

	email := normalizeEmail(input.Email)
	if err := s.limiter.Consume(ctx, ratelimit.Key(ratelimit.ActionSignUp, input.IP, email)); err != nil {
		return nil, err
	}

	hash, err := HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	result := &SignUpResult{VerificationRequired: s.cfg.VerificationEnabled}
	var verification *token.Holder

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
			return fmt.Errorf("check email: %w", err)
		}
		if count > 0 {
			return apperr.Validation("email", MsgEmailTaken)
		}

		user := &models.User{
			Name:         strings.TrimSpace(input.Name),
			Email:        email,
			PasswordHash: hash,
			Role:         models.RoleCustomer,
		}
		if err := tx.Create(user).Error; err != nil {
			return fmt.Errorf("create user: %w", err)
		}

		ws, _, err := workspace.CreateWithOwner(ctx, tx, user.Name+"'s Workspace", user)
		if err != nil {
			return err
		}

		if s.cfg.VerificationEnabled {
			verification, err = s.tokens.Create(ctx, tx, token.CreateParams{
				User:      user,
				Type:      models.TokenTypeEmailVerification,
				ExpiresIn: s.cfg.VerificationExpiry,
			}, token.CreateOptions{})
			if err != nil {
				return fmt.Errorf("create verification token: %w", err)
			}
		}

		result.User = user
		result.Workspace = ws
		return nil
	})
	if err != nil {
		return nil, err
	}

	if verification != nil {
		s.queue(ctx, mail.VerifyEmailMessage(result.User.Email, result.User.Name, s.links.VerifyEmail(verification.Value())))
	}

	s.logger.Info("user signed up", "user_id", result.User.ID, "workspace_id", result.Workspace.ID)
	return result, nil
}

// SignIn checks credentials and issues a new access token, evicting the
// oldest sessions so the user never holds more than SessionMax.
func (s *Service) SignIn(ctx context.Context, input SignInInput) (*SignInResult, error) {
	if !s.cfg.SignInEnabled {
		return nil, apperr.Forbidden(MsgSignInDisabled)
	}

	email := normalizeEmail(input.Email)
	if err := s.limiter.Consume(ctx, ratelimit.Key(ratelimit.ActionSignIn, input.IP, email)); err != nil {
		return nil, err
	}

	var result SignInResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.Where("email = ?", email).First(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				burnPasswordCheck(input.Password)
				return apperr.Validation("email", MsgInvalidCredentials)
			}
			return fmt.Errorf("find user: %w", err)
		}

		if user.PasswordHash == "" || !CheckPassword(input.Password, user.PasswordHash) {
			return apperr.Validation("email", MsgInvalidCredentials)
		}

		if s.cfg.VerificationEnabled && !user.IsVerified() {
			return apperr.Validation("email", MsgEmailNotVerified).WithCode(CodeEmailNotVerified)
		}

		if err := s.evictSessions(tx, user.ID); err != nil {
			return err
		}

		holder, err := s.tokens.Create(ctx, tx, token.CreateParams{
			User:      &user,
			Type:      models.TokenTypeAccess,
			Name:      accessTokenName,
			ExpiresIn: s.cfg.SessionExpiry,
		}, token.CreateOptions{})
		if err != nil {
			return fmt.Errorf("create access token: %w", err)
		}

		result = SignInResult{User: &user, Token: holder}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &result, nil
}

// evictSessions deletes the oldest access tokens so that one more fits under
// the cap.
func (s *Service) evictSessions(tx *gorm.DB, userID uuid.UUID) error {
	var existing []models.Token
	err := tx.Select("id").
		Where("tokenable_id = ? AND type = ?", userID, models.TokenTypeAccess).
		Order("created_at ASC").Order("id ASC").
		Find(&existing).Error
	if err != nil {
		return fmt.Errorf("list sessions: %w", err)
	}

	evict := len(existing) - s.cfg.SessionMax + 1
	if evict <= 0 {
		return nil
	}

	ids := make([]uuid.UUID, 0, evict)
	for _, t := range existing[:evict] {
		ids = append(ids, t.ID)
	}
	if err := tx.Where("id IN ?", ids).Delete(&models.Token{}).Error; err != nil {
		return fmt.Errorf("evict sessions: %w", err)
	}

	s.logger.Debug("evicted sessions", "user_id", userID, "count", evict)
	return nil
}

// SignOut revokes the session that made the request.
func (s *Service) SignOut(ctx context.Context, session *token.Holder) error {
	if session == nil {
		return nil
	}
	return session.Delete(ctx, s.db)
}

// Authenticate resolves an access token to a customer.
func (s *Service) Authenticate(ctx context.Context, bearer string) (*models.User, *token.Holder, error) {
	holder, err := s.tokens.Verify(ctx, s.db, bearer, models.TokenTypeAccess)
	if err != nil {
		return nil, nil, err
	}
	if holder == nil {
		return nil, nil, ErrUnauthenticated
	}

	user, err := s.GetUserByID(ctx, holder.Record.TokenableID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, nil, ErrUnauthenticated
		}
		return nil, nil, err
	}
	if user.Role != models.RoleCustomer {
		return nil, nil, ErrUnauthenticated
	}

	return user, holder, nil
}

// VerifyEmail consumes an email_verification token and marks its owner
// verified.
func (s *Service) VerifyEmail(ctx context.Context, value string) error {
	if !s.cfg.VerificationEnabled {
		return apperr.Forbidden(MsgVerificationDisabled)
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		holder, err := s.tokens.Verify(ctx, tx, value, models.TokenTypeEmailVerification)
		if err != nil {
			return err
		}
		if holder == nil {
			return apperr.Forbidden(MsgVerificationInvalid)
		}

		var user models.User
		if err := tx.First(&user, "id = ?", holder.Record.TokenableID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.Forbidden(MsgVerificationInvalid)
			}
			return fmt.Errorf("find user: %w", err)
		}

		if user.IsVerified() {
			return apperr.Forbidden(MsgAlreadyVerified)
		}

		if err := tx.Model(&user).Update("verified_at", time.Now().UTC()).Error; err != nil {
			return fmt.Errorf("mark verified: %w", err)
		}

		return holder.Delete(ctx, tx)
	})
}

// ResendVerification issues a fresh verification link to an unverified
// account. It reports nothing about whether the account exists.
func (s *Service) ResendVerification(ctx context.Context, email string) error {
	if !s.cfg.VerificationEnabled {
		return apperr.Forbidden(MsgVerificationDisabled)
	}

	var user models.User
	err := s.db.WithContext(ctx).
		Where("email = ? AND verified_at IS NULL", normalizeEmail(email)).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("find user: %w", err)
	}

	holder, err := s.tokens.Create(ctx, s.db, token.CreateParams{
		User:      &user,
		Type:      models.TokenTypeEmailVerification,
		ExpiresIn: s.cfg.VerificationExpiry,
	}, token.CreateOptions{DeleteIfExists: true})
	if err != nil {
		return fmt.Errorf("create verification token: %w", err)
	}

	s.queue(ctx, mail.VerifyEmailMessage(user.Email, user.Name, s.links.VerifyEmail(holder.Value())))
	return nil
}

// ForgotPassword sends a reset link if the account exists.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("find user: %w", err)
	}

	holder, err := s.tokens.Create(ctx, s.db, token.CreateParams{
		User:      &user,
		Type:      models.TokenTypePasswordReset,
		ExpiresIn: s.cfg.PasswordResetExpiry,
	}, token.CreateOptions{DeleteIfExists: true})
	if err != nil {
		return fmt.Errorf("create reset token: %w", err)
	}

	s.queue(ctx, mail.PasswordResetMessage(user.Email, user.Name, s.links.PasswordReset(holder.Value())))
	return nil
}

// ResetPassword consumes a password_reset token and sets the new password.
func (s *Service) ResetPassword(ctx context.Context, value, newPassword string) error {
	hash, err := HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		holder, err := s.tokens.Verify(ctx, tx, value, models.TokenTypePasswordReset)
		if err != nil {
			return err
		}
		if holder == nil {
			return apperr.Forbidden(MsgResetTokenInvalid)
		}

		res := tx.Model(&models.User{}).
			Where("id = ?", holder.Record.TokenableID).
			Update("password_hash", hash)
		if res.Error != nil {
			return fmt.Errorf("update password: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return apperr.Forbidden(MsgResetTokenInvalid)
		}

		return holder.Delete(ctx, tx)
	})
}

// UpdatePassword changes the password of a signed-in user.
func (s *Service) UpdatePassword(ctx context.Context, user *models.User, oldPassword, newPassword string) (*models.User, error) {
	if !CheckPassword(oldPassword, user.PasswordHash) {
		return nil, apperr.Validation("oldPassword", MsgOldPasswordIncorrect)
	}
	if oldPassword == newPassword {
		return nil, apperr.Validation("newPassword", MsgNewPasswordSameAsOld)
	}

	hash, err := HashPassword(newPassword)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	if err := s.db.WithContext(ctx).Model(user).Update("password_hash", hash).Error; err != nil {
		return nil, fmt.Errorf("update password: %w", err)
	}
	return user, nil
}

func (s *Service) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// queue hands msg to the mailer. Delivery is best effort: the account
// change has already committed.
func (s *Service) queue(ctx context.Context, msg mail.Message) {
	if s.mailer == nil {
		return
	}
	if err := s.mailer.Queue(ctx, msg); err != nil {
		s.logger.Error("failed to queue email", "template", msg.Template, "error", err)
	}
}
