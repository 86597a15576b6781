package models

import "time"

type User struct {
	Base
	Name         string     `gorm:"not null" json:"name"`
	Email        string     `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string     `gorm:"not null" json:"-"`
	Role         Role       `gorm:"type:varchar(16);not null;default:'customer'" json:"role"`
	VerifiedAt   *time.Time `json:"verified_at"`

	// Relationships
	Memberships []WorkspaceMember `gorm:"foreignKey:UserID" json:"-"`
	Tokens      []Token           `gorm:"foreignKey:TokenableID" json:"-"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) IsVerified() bool {
	return u.VerifiedAt != nil
}
