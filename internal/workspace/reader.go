package workspace

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/hugh/localspace/internal/database/models"
	"github.com/hugh/localspace/internal/policy"
	"gorm.io/gorm"
)

// Reader serves policy lookups: memberships come from the cache, counts
// from the database.
type Reader struct {
	db      *gorm.DB
	members *MemberCache
}

func NewReader(db *gorm.DB, members *MemberCache) *Reader {
	return &Reader{db: db, members: members}
}

func (r *Reader) ActiveMember(ctx context.Context, workspaceID, userID uuid.UUID) (*models.WorkspaceMember, error) {
	return r.members.Member(ctx, workspaceID, userID)
}

func (r *Reader) PublishedBlogCount(ctx context.Context, workspaceID uuid.UUID) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Blog{}).
		Where("workspace_id = ? AND status = ?", workspaceID, models.BlogStatusPublished).
		Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("count published blogs: %w", err)
	}
	return n, nil
}

func (r *Reader) OwnedWorkspaceCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	return ownedWorkspaceCount(ctx, r.db, userID)
}

func ownedWorkspaceCount(ctx context.Context, db *gorm.DB, userID uuid.UUID) (int64, error) {
	var n int64
	err := db.WithContext(ctx).Model(&models.WorkspaceMember{}).
		Scopes(activeScope).
		Where("user_id = ? AND role = ?", userID, models.MemberRoleOwner).
		Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("count owned workspaces: %w", err)
	}
	return n, nil
}

var _ policy.Reader = (*Reader)(nil)
