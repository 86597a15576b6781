// Package token issues and verifies opaque bearer credentials.
//
// A credential is "<prefix><base64url(id)>.<base64url(secret)>". Only the
// SHA-256 of the secret is persisted, so a database leak does not leak
// usable tokens.
package token

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hugh/localspace/internal/database/models"
	"github.com/hugh/localspace/pkg/crypto"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// DefaultPrefix marks values issued by this module.
const DefaultPrefix = "at_"

// secretSize is the number of random bytes behind each secret.
const secretSize = 42

var (
	ErrInvalidExpiry = errors.New("invalid token expiry")
	ErrMissingOwner  = errors.New("token owner is required")
	ErrInvalidType   = errors.New("invalid token type")
)

// maxExpiry is the latest expiry both postgres and sqlite round-trip.
var maxExpiry = time.Date(9999, 12, 31, 23, 59, 59, 0, time.UTC)

type Module struct {
	Prefix string
	// Now is the clock used for expiry and last-used stamps.
	Now func() time.Time
}

func New() *Module {
	return &Module{Prefix: DefaultPrefix, Now: utcNow}
}

func utcNow() time.Time {
	return time.Now().UTC()
}

type CreateParams struct {
	User      *models.User
	Type      models.TokenType
	Name      string
	ExpiresIn time.Duration // zero means no expiry
}

type CreateOptions struct {
	// DeleteIfExists removes the owner's tokens of the same type first.
	DeleteIfExists bool
}

// Holder pairs a token record with its plaintext secret. The secret is only
// known right after Create or a successful Verify.
type Holder struct {
	Record *models.Token
	prefix string
	secret string
}

// Value returns the bearer value, or "" when the secret is unknown.
func (h *Holder) Value() string {
	if h.secret == "" {
		return ""
	}
	return Encode(h.prefix, h.Record.ID.String(), h.secret)
}

// Delete consumes the token.
func (h *Holder) Delete(ctx context.Context, db *gorm.DB) error {
	if err := db.WithContext(ctx).Delete(&models.Token{}, "id = ?", h.Record.ID).Error; err != nil {
		return fmt.Errorf("delete token: %w", err)
	}
	return nil
}

// Create persists a new token for params.User. db may be a transaction.
func (m *Module) Create(ctx context.Context, db *gorm.DB, params CreateParams, opts CreateOptions) (*Holder, error) {
	if params.User == nil || params.User.ID == uuid.Nil {
		return nil, ErrMissingOwner
	}
	if !params.Type.Valid() {
		return nil, ErrInvalidType
	}

	expiresAt, err := m.expiry(params.ExpiresIn)
	if err != nil {
		return nil, err
	}

	db = db.WithContext(ctx)

	if opts.DeleteIfExists {
		err := db.Where("tokenable_id = ? AND type = ?", params.User.ID, params.Type).
			Delete(&models.Token{}).Error
		if err != nil {
			return nil, fmt.Errorf("delete existing tokens: %w", err)
		}
	}

	raw, err := crypto.RandomBytes(secretSize)
	if err != nil {
		return nil, err
	}
	secret := base64.RawURLEncoding.EncodeToString(raw)

	record := &models.Token{
		Base:        models.Base{CreatedAt: m.now()},
		TokenableID: params.User.ID,
		Type:        params.Type,
		Name:        params.Name,
		Hash:        hashSecret(secret),
		Abilities:   datatypes.JSON("[]"),
		ExpiresAt:   expiresAt,
	}
	if err := db.Create(record).Error; err != nil {
		return nil, fmt.Errorf("create token: %w", err)
	}

	return &Holder{Record: record, prefix: m.prefix(), secret: secret}, nil
}

// Verify resolves a presented value to its token. Anything that is not a
// live token of the expected type yields (nil, nil); only storage failures
// return an error.
func (m *Module) Verify(ctx context.Context, db *gorm.DB, presented string, typ models.TokenType) (*Holder, error) {
	idText, secret, ok := Decode(m.prefix(), presented)
	if !ok {
		return nil, nil
	}
	id, err := uuid.Parse(idText)
	if err != nil {
		return nil, nil
	}

	db = db.WithContext(ctx)

	var record models.Token
	if err := db.Where("id = ? AND type = ?", id, typ).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("find token: %w", err)
	}

	// Stamped before the hash check: a known id tried with a wrong secret
	// still shows up as activity.
	now := m.now()
	if err := db.Model(&record).UpdateColumn("last_used_at", now).Error; err != nil {
		return nil, fmt.Errorf("touch token: %w", err)
	}
	record.LastUsedAt = &now

	if subtle.ConstantTimeCompare([]byte(hashSecret(secret)), []byte(record.Hash)) != 1 {
		return nil, nil
	}
	if record.IsExpired(now) {
		return nil, nil
	}

	return &Holder{Record: &record, prefix: m.prefix(), secret: secret}, nil
}

// PruneExpired deletes every token whose expiry has passed.
func (m *Module) PruneExpired(ctx context.Context, db *gorm.DB) (int64, error) {
	res := db.WithContext(ctx).
		Where("expires_at IS NOT NULL AND expires_at < ?", m.now()).
		Delete(&models.Token{})
	if res.Error != nil {
		return 0, fmt.Errorf("prune tokens: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (m *Module) expiry(in time.Duration) (*time.Time, error) {
	if in == 0 {
		return nil, nil
	}
	if in < 0 {
		return nil, ErrInvalidExpiry
	}
	at := m.now().Add(in)
	if at.After(maxExpiry) {
		return nil, ErrInvalidExpiry
	}
	return &at, nil
}

func (m *Module) now() time.Time {
	if m.Now != nil {
		return m.Now()
	}
	return utcNow()
}

func (m *Module) prefix() string {
	if m.Prefix == "" {
		return DefaultPrefix
	}
	return m.Prefix
}

func hashSecret(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}

// Encode builds a bearer value from its parts.
func Encode(prefix, id, secret string) string {
	return prefix +
		base64.RawURLEncoding.EncodeToString([]byte(id)) +
		"." +
		base64.RawURLEncoding.EncodeToString([]byte(secret))
}

// Decode splits a bearer value into id and secret. It never panics; ok is
// false for anything Encode could not have produced.
func Decode(prefix, value string) (id, secret string, ok bool) {
	rest, found := strings.CutPrefix(value, prefix)
	if !found {
		return "", "", false
	}
	idPart, secretPart, found := strings.Cut(rest, ".")
	if !found || idPart == "" || secretPart == "" {
		return "", "", false
	}

	idBytes, err := base64.RawURLEncoding.DecodeString(idPart)
	if err != nil || len(idBytes) == 0 {
		return "", "", false
	}
	secretBytes, err := base64.RawURLEncoding.DecodeString(secretPart)
	if err != nil || len(secretBytes) == 0 {
		return "", "", false
	}

	return string(idBytes), string(secretBytes), true
}
