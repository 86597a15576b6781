// Package blog manages the blogs of a workspace and their publishing
// lifecycle.
package blog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/hugh/localspace/internal/apperr"
	"github.com/hugh/localspace/internal/database"
	"github.com/hugh/localspace/internal/database/models"
	"github.com/hugh/localspace/internal/policy"
	"github.com/hugh/localspace/internal/workspace"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	MsgNotFound     = "Blog not found."
	MsgLimitReached = "You have reached the maximum number of blogs for this workspace."
)

var OrderColumns = []string{"title", "created_at", "updated_at"}

type Service struct {
	db         *gorm.DB
	workspaces *workspace.Service
	policy     *policy.Blog
	max        int
	logger     *slog.Logger
}

// NewService builds the blog service. max caps the blogs of one workspace.
func NewService(db *gorm.DB, workspaces *workspace.Service, max int, logger *slog.Logger) *Service {
	return &Service{
		db:         db,
		workspaces: workspaces,
		policy:     policy.NewBlog(workspaces.Reader()),
		max:        max,
		logger:     logger,
	}
}

// Content is the editable part of a blog. Empty fields are left unchanged
// on update.
type Content struct {
	Title   string
	Content string
}

func (s *Service) Create(ctx context.Context, actor *models.User, workspaceID uuid.UUID, in Content) (*models.Blog, error) {
	ws, err := s.workspaces.Find(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	if err := policy.Enforce(s.policy.Create(ctx, actor, ws)); err != nil {
		return nil, err
	}

	author, err := s.workspaces.Reader().ActiveMember(ctx, ws.ID, actor.ID)
	if err != nil {
		return nil, err
	}
	if author == nil {
		return nil, apperr.NotFound(workspace.MsgMemberNotFound)
	}

	blog := &models.Blog{
		WorkspaceID: ws.ID,
		AuthorID:    author.ID,
		Title:       strings.TrimSpace(in.Title),
		Content:     in.Content,
		Status:      models.BlogStatusDraft,
	}
	// The workspace row lock serializes concurrent creates against the cap.
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id").
			First(&models.Workspace{}, "id = ?", ws.ID).
			Error; err != nil {
			return fmt.Errorf("lock workspace: %w", err)
		}

		var count int64
		if err := tx.Model(&models.Blog{}).Where("workspace_id = ?", ws.ID).Count(&count).Error; err != nil {
			return fmt.Errorf("count blogs: %w", err)
		}
		if count >= int64(s.max) {
			return apperr.Forbidden(MsgLimitReached)
		}

		if err := tx.Create(blog).Error; err != nil {
			return fmt.Errorf("create blog: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("blog created", "blog_id", blog.ID, "workspace_id", ws.ID, "author_id", author.ID)
	return blog, nil
}

// List pages through the workspace's blogs. Any member may list.
func (s *Service) List(ctx context.Context, actor *models.User, workspaceID uuid.UUID, q database.ListQuery) ([]models.Blog, int64, error) {
	ws, err := s.workspaces.Find(ctx, workspaceID)
	if err != nil {
		return nil, 0, err
	}
	if err := policy.Enforce(s.workspaces.Policy().View(ctx, actor, ws)); err != nil {
		return nil, 0, err
	}

	q.Normalize(OrderColumns...)
	query := s.db.WithContext(ctx).Model(&models.Blog{}).Where("workspace_id = ?", ws.ID)
	if q.Filter != "" {
		query = query.Where(`LOWER(title) LIKE ? ESCAPE '\'`, database.ContainsFold(q.Filter))
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count blogs: %w", err)
	}

	var blogs []models.Blog
	if err := query.Session(&gorm.Session{}).Scopes(q.Paginate("")).Find(&blogs).Error; err != nil {
		return nil, 0, fmt.Errorf("list blogs: %w", err)
	}
	return blogs, total, nil
}

// load returns the workspace and the blog scoped to it.
func (s *Service) load(ctx context.Context, workspaceID, blogID uuid.UUID) (*models.Workspace, *models.Blog, error) {
	ws, err := s.workspaces.Find(ctx, workspaceID)
	if err != nil {
		return nil, nil, err
	}

	var blog models.Blog
	err = s.db.WithContext(ctx).Where("workspace_id = ? AND id = ?", ws.ID, blogID).First(&blog).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, apperr.NotFound(MsgNotFound)
		}
		return nil, nil, fmt.Errorf("get blog: %w", err)
	}
	return ws, &blog, nil
}

func (s *Service) Get(ctx context.Context, actor *models.User, workspaceID, blogID uuid.UUID) (*models.Blog, error) {
	ws, blog, err := s.load(ctx, workspaceID, blogID)
	if err != nil {
		return nil, err
	}
	if err := policy.Enforce(s.policy.View(ctx, actor, ws, blog)); err != nil {
		return nil, err
	}
	return blog, nil
}

func (s *Service) Update(ctx context.Context, actor *models.User, workspaceID, blogID uuid.UUID, in Content) (*models.Blog, error) {
	ws, blog, err := s.load(ctx, workspaceID, blogID)
	if err != nil {
		return nil, err
	}
	if err := policy.Enforce(s.policy.Update(ctx, actor, ws, blog)); err != nil {
		return nil, err
	}

	if title := strings.TrimSpace(in.Title); title != "" {
		blog.Title = title
	}
	if in.Content != "" {
		blog.Content = in.Content
	}
	if err := s.db.WithContext(ctx).Model(blog).Select("title", "content").Updates(blog).Error; err != nil {
		return nil, fmt.Errorf("update blog: %w", err)
	}
	return blog, nil
}

func (s *Service) Delete(ctx context.Context, actor *models.User, workspaceID, blogID uuid.UUID) error {
	ws, blog, err := s.load(ctx, workspaceID, blogID)
	if err != nil {
		return err
	}
	if err := policy.Enforce(s.policy.Delete(ctx, actor, ws, blog)); err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Delete(blog).Error; err != nil {
		return fmt.Errorf("delete blog: %w", err)
	}
	s.logger.Info("blog deleted", "blog_id", blog.ID, "workspace_id", ws.ID)
	return nil
}

type transitionFunc func(context.Context, *models.User, *models.Workspace, *models.Blog) (policy.Decision, error)

func (s *Service) transition(ctx context.Context, actor *models.User, workspaceID, blogID uuid.UUID, allowed transitionFunc, to models.BlogStatus) (*models.Blog, error) {
	ws, blog, err := s.load(ctx, workspaceID, blogID)
	if err != nil {
		return nil, err
	}
	if err := policy.Enforce(allowed(ctx, actor, ws, blog)); err != nil {
		return nil, err
	}

	from := blog.Status
	blog.Status = to
	if err := s.db.WithContext(ctx).Model(blog).Update("status", to).Error; err != nil {
		return nil, fmt.Errorf("set blog status: %w", err)
	}

	s.logger.Info("blog status changed", "blog_id", blog.ID, "from", from, "to", to, "by", actor.ID)
	return blog, nil
}

// Publish moves a draft to published.
func (s *Service) Publish(ctx context.Context, actor *models.User, workspaceID, blogID uuid.UUID) (*models.Blog, error) {
	return s.transition(ctx, actor, workspaceID, blogID, s.policy.Publish, models.BlogStatusPublished)
}

// Unpublish returns a published or archived blog to draft.
func (s *Service) Unpublish(ctx context.Context, actor *models.User, workspaceID, blogID uuid.UUID) (*models.Blog, error) {
	return s.transition(ctx, actor, workspaceID, blogID, s.policy.Unpublish, models.BlogStatusDraft)
}

func (s *Service) Archive(ctx context.Context, actor *models.User, workspaceID, blogID uuid.UUID) (*models.Blog, error) {
	return s.transition(ctx, actor, workspaceID, blogID, s.policy.Archive, models.BlogStatusArchived)
}
