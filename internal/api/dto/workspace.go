package dto

import (
	"time"

	"github.com/hugh/localspace/internal/database/models"
)

type CreateWorkspaceRequest struct {
	Name string `json:"name" validate:"required,min=1,max=100"`
}

type UpdateWorkspaceRequest struct {
	Name *string `json:"name" validate:"omitempty,min=1,max=100"`
}

type TransferWorkspaceRequest struct {
	NewOwnerID string `json:"newOwnerId" validate:"required,uuid"`
}

type AddMemberRequest struct {
	Email string `json:"email" validate:"required,email,max=254"`
	Role  string `json:"role" validate:"omitempty,oneof=manager editor viewer"`
}

type UpdateMemberRequest struct {
	Role string `json:"role" validate:"required,oneof=manager editor viewer"`
}

type WorkspaceDTO struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
	Member    *MemberDTO `json:"member,omitempty"`
}

type MemberDTO struct {
	ID          string     `json:"id"`
	UserID      string     `json:"userId"`
	WorkspaceID string     `json:"workspaceId"`
	Role        string     `json:"role"`
	JoinedAt    *time.Time `json:"joinedAt"`
	LeftAt      *time.Time `json:"leftAt"`
}

func ToWorkspaceDTO(ws *models.Workspace) WorkspaceDTO {
	return WorkspaceDTO{
		ID:        ws.ID.String(),
		Name:      ws.Name,
		CreatedAt: ws.CreatedAt,
		UpdatedAt: ws.UpdatedAt,
	}
}

// ToWorkspaceWithMemberDTO includes the caller's membership.
func ToWorkspaceWithMemberDTO(ws *models.Workspace, m *models.WorkspaceMember) WorkspaceDTO {
	out := ToWorkspaceDTO(ws)
	if m != nil {
		md := ToMemberDTO(m)
		out.Member = &md
	}
	return out
}

func ToMemberDTO(m *models.WorkspaceMember) MemberDTO {
	return MemberDTO{
		ID:          m.ID.String(),
		UserID:      m.UserID.String(),
		WorkspaceID: m.WorkspaceID.String(),
		Role:        string(m.Role),
		JoinedAt:    m.JoinedAt,
		LeftAt:      m.LeftAt,
	}
}
