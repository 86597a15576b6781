package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Token is the persisted half of an opaque credential. Only the SHA-256 of
// the secret is stored.
type Token struct {
	Base
	TokenableID uuid.UUID      `gorm:"type:uuid;not null;index:idx_token_owner_type" json:"tokenable_id"`
	Type        TokenType      `gorm:"type:varchar(32);not null;index:idx_token_owner_type" json:"type"`
	Name        string         `json:"name"`
	Hash        string         `gorm:"not null" json:"-"`
	Abilities   datatypes.JSON `json:"abilities"`
	LastUsedAt  *time.Time     `json:"last_used_at"`
	ExpiresAt   *time.Time     `gorm:"index" json:"expires_at"`
}

func (Token) TableName() string {
	return "tokens"
}

func (t *Token) IsExpired(now time.Time) bool {
	return t.ExpiresAt != nil && t.ExpiresAt.Before(now)
}
