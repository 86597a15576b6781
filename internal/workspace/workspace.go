// Package workspace manages workspaces and their memberships.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hugh/localspace/internal/apperr"
	"github.com/hugh/localspace/internal/database"
	"github.com/hugh/localspace/internal/database/models"
	"github.com/hugh/localspace/internal/policy"
	"gorm.io/gorm"
)

const (
	MsgNotFound             = "Workspace not found."
	MsgOwnLimitReached      = "You have reached the maximum number of workspaces you can own."
	MsgNewOwnerLimitReached = "The new owner has reached the maximum number of workspaces allowed."
	MsgMemberNotFound       = "Member not found."
	MsgNoVerifiedUser       = "No verified user was found with the provided email address."
	MsgAlreadyMember        = "This user is already a member of the workspace."
	MsgRemoveSelf           = `You cannot remove yourself from a workspace. Please use the "Leave Workspace" option instead.`
	MsgRemoveOwner          = "The workspace owner cannot be removed. To change ownership, please transfer the workspace to another member."
	MsgChangeOwnRole        = "You cannot change your own role within the workspace."
	MsgChangeOwnerRole      = "The owner's role cannot be changed. To change ownership, please transfer the workspace to another member."
	MsgOwnerCannotLeave     = "As the workspace owner, you cannot leave. Please transfer ownership to another member first."
)

// OrderColumns are the columns a workspace listing may be ordered by.
var OrderColumns = []string{"name", "created_at", "updated_at"}

type Config struct {
	// Max is the number of workspaces a user may own.
	Max int
	// RejoinPreservesJoinedAt keeps the original joined_at when a former
	// member is added back.
	RejoinPreservesJoinedAt bool
}

type Service struct {
	db      *gorm.DB
	members *MemberCache
	reader  *Reader
	policy  *policy.Workspace
	cfg     Config
	logger  *slog.Logger
	now     func() time.Time
}

func NewService(db *gorm.DB, members *MemberCache, cfg Config, logger *slog.Logger) *Service {
	reader := NewReader(db, members)
	return &Service{
		db:      db,
		members: members,
		reader:  reader,
		policy:  policy.NewWorkspace(reader),
		cfg:     cfg,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) Policy() *policy.Workspace {
	return s.policy
}

// Reader is the cache-backed policy reader shared with the blog service.
func (s *Service) Reader() *Reader {
	return s.reader
}

// CreateWithOwner inserts a workspace and its owner membership using tx.
func CreateWithOwner(ctx context.Context, tx *gorm.DB, name string, owner *models.User) (*models.Workspace, *models.WorkspaceMember, error) {
	ws := &models.Workspace{Name: strings.TrimSpace(name)}
	if err := tx.WithContext(ctx).Create(ws).Error; err != nil {
		return nil, nil, fmt.Errorf("create workspace: %w", err)
	}

	now := time.Now().UTC()
	member := &models.WorkspaceMember{
		UserID:      owner.ID,
		WorkspaceID: ws.ID,
		Role:        models.MemberRoleOwner,
		JoinedAt:    &now,
	}
	if err := tx.WithContext(ctx).Create(member).Error; err != nil {
		return nil, nil, fmt.Errorf("create owner member: %w", err)
	}

	return ws, member, nil
}

func (s *Service) Create(ctx context.Context, actor *models.User, name string) (*models.Workspace, *models.WorkspaceMember, error) {
	var (
		ws     *models.Workspace
		member *models.WorkspaceMember
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		owned, err := ownedWorkspaceCount(ctx, tx, actor.ID)
		if err != nil {
			return err
		}
		if owned >= int64(s.cfg.Max) {
			return apperr.Forbidden(MsgOwnLimitReached)
		}

		ws, member, err = CreateWithOwner(ctx, tx, name, actor)
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info("workspace created", "workspace_id", ws.ID, "user_id", actor.ID)
	return ws, member, nil
}

// Membership is a workspace listed together with the actor's member row.
type Membership struct {
	Workspace models.Workspace
	Member    models.WorkspaceMember
}

// List returns the workspaces where actor is an active member.
func (s *Service) List(ctx context.Context, actor *models.User, q database.ListQuery) ([]Membership, int64, error) {
	q.Normalize(OrderColumns...)

	base := s.db.WithContext(ctx).Model(&models.WorkspaceMember{}).
		Joins("JOIN workspaces ON workspaces.id = workspace_members.workspace_id").
		Where("workspace_members.user_id = ?", actor.ID).
		Where("workspace_members.joined_at IS NOT NULL AND workspace_members.left_at IS NULL")
	if q.Filter != "" {
		base = base.Where(`LOWER(workspaces.name) LIKE ? ESCAPE '\'`, database.ContainsFold(q.Filter))
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count workspaces: %w", err)
	}

	var members []models.WorkspaceMember
	err := base.Session(&gorm.Session{}).
		Select("workspace_members.*").
		Preload("Workspace").
		Scopes(q.Paginate("workspaces")).
		Find(&members).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list workspaces: %w", err)
	}

	out := make([]Membership, 0, len(members))
	for _, m := range members {
		ws := m.Workspace
		m.Workspace = nil
		out = append(out, Membership{Workspace: *ws, Member: m})
	}
	return out, total, nil
}

// Find loads a workspace by id, returning a NotFound apperr when absent.
func (s *Service) Find(ctx context.Context, id uuid.UUID) (*models.Workspace, error) {
	return findWorkspace(ctx, s.db, id)
}

func findWorkspace(ctx context.Context, db *gorm.DB, id uuid.UUID) (*models.Workspace, error) {
	var ws models.Workspace
	if err := db.WithContext(ctx).First(&ws, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound(MsgNotFound)
		}
		return nil, fmt.Errorf("get workspace: %w", err)
	}
	return &ws, nil
}

func (s *Service) Get(ctx context.Context, actor *models.User, id uuid.UUID) (*models.Workspace, error) {
	ws, err := s.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := policy.Enforce(s.policy.View(ctx, actor, ws)); err != nil {
		return nil, err
	}
	return ws, nil
}

// Update renames the workspace. A nil name leaves it unchanged.
func (s *Service) Update(ctx context.Context, actor *models.User, id uuid.UUID, name *string) (*models.Workspace, error) {
	ws, err := s.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := policy.Enforce(s.policy.Update(ctx, actor, ws)); err != nil {
		return nil, err
	}

	if name == nil {
		return ws, nil
	}
	ws.Name = strings.TrimSpace(*name)
	if err := s.db.WithContext(ctx).Model(ws).Update("name", ws.Name).Error; err != nil {
		return nil, fmt.Errorf("update workspace: %w", err)
	}
	return ws, nil
}

// Delete removes the workspace with its blogs and memberships.
func (s *Service) Delete(ctx context.Context, actor *models.User, id uuid.UUID) error {
	ws, err := s.Find(ctx, id)
	if err != nil {
		return err
	}
	if err := policy.Enforce(s.policy.Delete(ctx, actor, ws)); err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("workspace_id = ?", ws.ID).Delete(&models.Blog{}).Error; err != nil {
			return fmt.Errorf("delete blogs: %w", err)
		}
		if err := tx.Where("workspace_id = ?", ws.ID).Delete(&models.WorkspaceMember{}).Error; err != nil {
			return fmt.Errorf("delete members: %w", err)
		}
		if err := tx.Delete(ws).Error; err != nil {
			return fmt.Errorf("delete workspace: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("workspace deleted", "workspace_id", ws.ID, "user_id", actor.ID)
	return s.members.Invalidate(ctx, ws.ID)
}

// Transfer hands ownership to another active member. The previous owner
// becomes a manager.
func (s *Service) Transfer(ctx context.Context, actor *models.User, id, newOwnerID uuid.UUID) (*models.User, error) {
	ws, err := s.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := policy.Enforce(s.policy.Transfer(ctx, actor, ws)); err != nil {
		return nil, err
	}

	var newOwner models.User
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		target, err := activeMember(ctx, tx, ws.ID, newOwnerID)
		if err != nil {
			return err
		}
		if err := tx.First(&newOwner, "id = ?", newOwnerID).Error; err != nil {
			return fmt.Errorf("get new owner: %w", err)
		}

		owned, err := ownedWorkspaceCount(ctx, tx, newOwnerID)
		if err != nil {
			return err
		}
		if owned >= int64(s.cfg.Max) {
			return apperr.Forbidden(MsgNewOwnerLimitReached)
		}

		current, err := activeMember(ctx, tx, ws.ID, actor.ID)
		if err != nil {
			return err
		}
		if err := tx.Model(current).Update("role", models.MemberRoleManager).Error; err != nil {
			return fmt.Errorf("demote owner: %w", err)
		}
		if err := tx.Model(target).Update("role", models.MemberRoleOwner).Error; err != nil {
			return fmt.Errorf("promote new owner: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.members.Invalidate(ctx, ws.ID); err != nil {
		return nil, err
	}

	s.logger.Info("workspace transferred", "workspace_id", ws.ID, "from", actor.ID, "to", newOwnerID)
	return &newOwner, nil
}

// activeMember loads the active member row for userID or a NotFound apperr.
func activeMember(ctx context.Context, db *gorm.DB, workspaceID, userID uuid.UUID) (*models.WorkspaceMember, error) {
	var m models.WorkspaceMember
	err := db.WithContext(ctx).Scopes(activeScope).
		Where("workspace_id = ? AND user_id = ?", workspaceID, userID).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound(MsgMemberNotFound)
		}
		return nil, fmt.Errorf("get member: %w", err)
	}
	return &m, nil
}
