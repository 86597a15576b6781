package workspace

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/hugh/localspace/internal/apperr"
	"github.com/hugh/localspace/internal/database/models"
	"github.com/hugh/localspace/internal/policy"
	"gorm.io/gorm"
)

// AddMember adds the verified user with email to the workspace. A former
// member's row is reactivated. role defaults to viewer.
func (s *Service) AddMember(ctx context.Context, actor *models.User, id uuid.UUID, email string, role models.MemberRole) (*models.WorkspaceMember, error) {
	if role == "" {
		role = models.MemberRoleViewer
	}
	if !role.Assignable() {
		return nil, apperr.Validation("role", fmt.Sprintf("Role %q cannot be assigned.", role))
	}

	ws, err := s.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := policy.Enforce(s.policy.ManageMembers(ctx, actor, ws)); err != nil {
		return nil, err
	}

	var member models.WorkspaceMember
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		err := tx.Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&user).Error
		if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && !user.IsVerified()) {
			return apperr.NotFound(MsgNoVerifiedUser)
		}
		if err != nil {
			return fmt.Errorf("find user: %w", err)
		}

		err = tx.Where("workspace_id = ? AND user_id = ?", ws.ID, user.ID).First(&member).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			now := s.now()
			member = models.WorkspaceMember{
				UserID:      user.ID,
				WorkspaceID: ws.ID,
				Role:        role,
				JoinedAt:    &now,
			}
			if err := tx.Create(&member).Error; err != nil {
				return fmt.Errorf("create member: %w", err)
			}
			return nil
		case err != nil:
			return fmt.Errorf("find member: %w", err)
		case member.IsActive():
			return apperr.BadRequest(MsgAlreadyMember)
		}

		if member.JoinedAt == nil || !s.cfg.RejoinPreservesJoinedAt {
			now := s.now()
			member.JoinedAt = &now
		}
		member.LeftAt = nil
		member.Role = role
		err = tx.Model(&member).Select("joined_at", "left_at", "role").Updates(&member).Error
		if err != nil {
			return fmt.Errorf("reactivate member: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.members.Invalidate(ctx, ws.ID); err != nil {
		return nil, err
	}

	s.logger.Info("member added", "workspace_id", ws.ID, "user_id", member.UserID, "role", member.Role)
	return &member, nil
}

// RemoveMember ends userID's membership. Members cannot remove themselves
// and the owner cannot be removed.
func (s *Service) RemoveMember(ctx context.Context, actor *models.User, id, userID uuid.UUID) error {
	ws, err := s.Find(ctx, id)
	if err != nil {
		return err
	}
	if err := policy.Enforce(s.policy.ManageMembers(ctx, actor, ws)); err != nil {
		return err
	}
	if userID == actor.ID {
		return apperr.BadRequest(MsgRemoveSelf)
	}

	member, err := activeMember(ctx, s.db, ws.ID, userID)
	if err != nil {
		return err
	}
	if member.Role == models.MemberRoleOwner {
		return apperr.BadRequest(MsgRemoveOwner)
	}
	if err := s.deactivate(ctx, member); err != nil {
		return err
	}

	s.logger.Info("member removed", "workspace_id", ws.ID, "user_id", userID, "by", actor.ID)
	return nil
}

// UpdateMemberRole changes userID's role. The owner's role is changed only by
// Transfer.
func (s *Service) UpdateMemberRole(ctx context.Context, actor *models.User, id, userID uuid.UUID, role models.MemberRole) (*models.WorkspaceMember, error) {
	if !role.Assignable() {
		return nil, apperr.Validation("role", fmt.Sprintf("Role %q cannot be assigned.", role))
	}

	ws, err := s.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := policy.Enforce(s.policy.ManageMembers(ctx, actor, ws)); err != nil {
		return nil, err
	}
	if userID == actor.ID {
		return nil, apperr.BadRequest(MsgChangeOwnRole)
	}

	member, err := activeMember(ctx, s.db, ws.ID, userID)
	if err != nil {
		return nil, err
	}
	if member.Role == models.MemberRoleOwner {
		return nil, apperr.BadRequest(MsgChangeOwnerRole)
	}

	if err := s.db.WithContext(ctx).Model(member).Update("role", role).Error; err != nil {
		return nil, fmt.Errorf("update member role: %w", err)
	}
	member.Role = role

	if err := s.members.Invalidate(ctx, ws.ID); err != nil {
		return nil, err
	}
	return member, nil
}

// Profile returns the actor's own membership.
func (s *Service) Profile(ctx context.Context, actor *models.User, id uuid.UUID) (*models.WorkspaceMember, error) {
	ws, err := s.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := policy.Enforce(s.policy.View(ctx, actor, ws)); err != nil {
		return nil, err
	}
	return activeMember(ctx, s.db, ws.ID, actor.ID)
}

// Leave ends the actor's own membership. Owners must transfer first.
func (s *Service) Leave(ctx context.Context, actor *models.User, id uuid.UUID) error {
	ws, err := s.Find(ctx, id)
	if err != nil {
		return err
	}
	if err := policy.Enforce(s.policy.View(ctx, actor, ws)); err != nil {
		return err
	}

	member, err := activeMember(ctx, s.db, ws.ID, actor.ID)
	if err != nil {
		return err
	}
	if member.Role == models.MemberRoleOwner {
		return apperr.BadRequest(MsgOwnerCannotLeave)
	}

	if err := s.deactivate(ctx, member); err != nil {
		return err
	}

	s.logger.Info("member left", "workspace_id", ws.ID, "user_id", actor.ID)
	return nil
}

func (s *Service) deactivate(ctx context.Context, member *models.WorkspaceMember) error {
	now := s.now()
	if err := s.db.WithContext(ctx).Model(member).Update("left_at", now).Error; err != nil {
		return fmt.Errorf("deactivate member: %w", err)
	}
	member.LeftAt = &now
	return s.members.Invalidate(ctx, member.WorkspaceID)
}
