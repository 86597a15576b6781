package workspace

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hugh/localspace/internal/cache"
	"github.com/hugh/localspace/internal/database/models"
	"gorm.io/gorm"
)

// MemberCache holds the active members of each workspace. It is rebuilt
// from the database on a miss and must be invalidated by every membership
// change.
type MemberCache struct {
	db    *gorm.DB
	store cache.Store
	ttl   time.Duration
}

func NewMemberCache(db *gorm.DB, store cache.Store, ttl time.Duration) *MemberCache {
	return &MemberCache{db: db, store: store, ttl: ttl}
}

func activeMembersKey(workspaceID uuid.UUID) string {
	return "workspaces:" + workspaceID.String() + ":active-members"
}

// ActiveMembers returns the workspace's active members.
func (c *MemberCache) ActiveMembers(ctx context.Context, workspaceID uuid.UUID) ([]models.WorkspaceMember, error) {
	key := activeMembersKey(workspaceID)

	var members []models.WorkspaceMember
	found, err := cache.GetJSON(ctx, c.store, key, &members)
	if err != nil {
		return nil, err
	}
	if found {
		return members, nil
	}

	members, err = loadActiveMembers(ctx, c.db, workspaceID)
	if err != nil {
		return nil, err
	}

	if err := cache.SetJSON(ctx, c.store, key, members, c.ttl); err != nil {
		return nil, err
	}
	return members, nil
}

// Member returns the active member for userID, or nil.
func (c *MemberCache) Member(ctx context.Context, workspaceID, userID uuid.UUID) (*models.WorkspaceMember, error) {
	members, err := c.ActiveMembers(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	for i := range members {
		if members[i].UserID == userID {
			return &members[i], nil
		}
	}
	return nil, nil
}

func (c *MemberCache) Invalidate(ctx context.Context, workspaceID uuid.UUID) error {
	if err := c.store.Delete(ctx, activeMembersKey(workspaceID)); err != nil {
		return fmt.Errorf("invalidate members of %s: %w", workspaceID, err)
	}
	return nil
}

// activeScope restricts a member query to rows with joined_at set and
// left_at unset.
func activeScope(db *gorm.DB) *gorm.DB {
	return db.Where("joined_at IS NOT NULL AND left_at IS NULL")
}

func loadActiveMembers(ctx context.Context, db *gorm.DB, workspaceID uuid.UUID) ([]models.WorkspaceMember, error) {
	var members []models.WorkspaceMember
	err := db.WithContext(ctx).
		Scopes(activeScope).
		Where("workspace_id = ?", workspaceID).
		Order("joined_at ASC").
		Find(&members).Error
	if err != nil {
		return nil, fmt.Errorf("load active members: %w", err)
	}
	return members, nil
}
