package models

import "github.com/google/uuid"

type Blog struct {
	Base
	WorkspaceID uuid.UUID  `gorm:"type:uuid;not null;index" json:"workspace_id"`
	AuthorID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"author_id"`
	Title       string     `gorm:"not null" json:"title"`
	Content     string     `gorm:"type:text;not null" json:"content"`
	Status      BlogStatus `gorm:"type:varchar(16);not null;default:'draft';index" json:"status"`

	// Relationships
	Workspace *Workspace       `gorm:"foreignKey:WorkspaceID" json:"-"`
	Author    *WorkspaceMember `gorm:"foreignKey:AuthorID" json:"-"`
}

func (Blog) TableName() string {
	return "blogs"
}
