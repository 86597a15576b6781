package models

import (
	"time"

	"github.com/google/uuid"
)

type Workspace struct {
	Base
	Name string `gorm:"not null" json:"name"`

	// Relationships
	Members []WorkspaceMember `gorm:"foreignKey:WorkspaceID" json:"-"`
	Blogs   []Blog            `gorm:"foreignKey:WorkspaceID" json:"-"`
}

func (Workspace) TableName() string {
	return "workspaces"
}

// WorkspaceMember is the only link between users and workspaces. A row
// survives leave/remove (left_at set) so a re-join reuses it.
type WorkspaceMember struct {
	Base
	UserID      uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_member_user_workspace" json:"user_id"`
	WorkspaceID uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_member_user_workspace;index" json:"workspace_id"`
	Role        MemberRole `gorm:"type:varchar(16);not null;default:'viewer'" json:"role"`
	JoinedAt    *time.Time `json:"joined_at"`
	LeftAt      *time.Time `json:"left_at"`

	// Relationships
	User      *User      `gorm:"foreignKey:UserID" json:"-"`
	Workspace *Workspace `gorm:"foreignKey:WorkspaceID" json:"-"`
}

func (WorkspaceMember) TableName() string {
	return "workspace_members"
}

// IsActive reports joined_at set and left_at unset.
func (m *WorkspaceMember) IsActive() bool {
	return m.JoinedAt != nil && m.LeftAt == nil
}
