package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/hugh/localspace/internal/mail"
	"github.com/hugh/localspace/internal/token"
	"github.com/hugh/localspace/pkg/crypto"
	"gorm.io/gorm"
)

type Handler struct {
	db        *gorm.DB
	logger    *slog.Logger
	encryptor *crypto.Encryptor
	renderer  *mail.Renderer
	sender    mail.Sender
	tokens    *token.Module
}

func NewHandler(db *gorm.DB, logger *slog.Logger, encryptor *crypto.Encryptor, renderer *mail.Renderer, sender mail.Sender) *Handler {
	return &Handler{
		db:        db,
		logger:    logger,
		encryptor: encryptor,
		renderer:  renderer,
		sender:    sender,
		tokens:    token.New(),
	}
}

func (h *Handler) RegisterHandlers(mux *asynq.ServeMux) {
	mux.HandleFunc(TypeSendEmail, h.HandleSendEmail)
	mux.HandleFunc(TypePruneTokens, h.HandlePruneTokens)
}

func (h *Handler) HandleSendEmail(ctx context.Context, t *asynq.Task) error {
	var payload SendEmailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w: %w", err, asynq.SkipRetry)
	}

	var msg mail.Message
	if err := h.encryptor.Open(payload.Sealed, &msg); err != nil {
		// A payload sealed under another key will never open.
		return fmt.Errorf("open payload: %w: %w", err, asynq.SkipRetry)
	}

	subject, body, err := h.renderer.Render(msg)
	if err != nil {
		return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
	}

	if err := h.sender.Send(ctx, msg.To, subject, body); err != nil {
		h.logger.Error("failed to send email", "template", msg.Template, "error", err)
		return err
	}

	h.logger.Info("sent email", "template", msg.Template)
	return nil
}

func (h *Handler) HandlePruneTokens(ctx context.Context, _ *asynq.Task) error {
	n, err := h.tokens.PruneExpired(ctx, h.db)
	if err != nil {
		return err
	}

	h.logger.Info("pruned expired tokens", "deleted", n)
	return nil
}
