package policy

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/hugh/localspace/internal/database/models"
)

type Blog struct {
	r Reader
}

func NewBlog(r Reader) *Blog {
	return &Blog{r: r}
}

// checkWorkspace guards against a caller pairing a blog with the wrong
// workspace. Services load blogs scoped to the workspace, so a mismatch is
// a programming error.
func checkWorkspace(ws *models.Workspace, blog *models.Blog) error {
	if ws.ID != blog.WorkspaceID {
		return errors.AssertionFailedf("workspace mismatch: workspace %s, blog %s belongs to %s",
			ws.ID, blog.ID, blog.WorkspaceID)
	}
	return nil
}

func (p *Blog) Create(ctx context.Context, actor *models.User, ws *models.Workspace) (Decision, error) {
	return memberHasRole(ctx, p.r, actor, ws, rolesContributor)
}

func (p *Blog) View(ctx context.Context, actor *models.User, ws *models.Workspace, blog *models.Blog) (Decision, error) {
	if err := checkWorkspace(ws, blog); err != nil {
		return Decision{}, err
	}
	return memberHasRole(ctx, p.r, actor, ws, rolesContributor)
}

func (p *Blog) Update(ctx context.Context, actor *models.User, ws *models.Workspace, blog *models.Blog) (Decision, error) {
	return p.withStatus(ctx, actor, ws, blog, rolesContributor, func(s models.BlogStatus) string {
		if s != models.BlogStatusDraft {
			return "Blog is not in draft status"
		}
		return ""
	})
}

func (p *Blog) Delete(ctx context.Context, actor *models.User, ws *models.Workspace, blog *models.Blog) (Decision, error) {
	return p.Update(ctx, actor, ws, blog)
}

func (p *Blog) Publish(ctx context.Context, actor *models.User, ws *models.Workspace, blog *models.Blog) (Decision, error) {
	return p.withStatus(ctx, actor, ws, blog, rolesOwnerManager, func(s models.BlogStatus) string {
		if s != models.BlogStatusDraft {
			return "Blog is not in draft status"
		}
		return ""
	})
}

func (p *Blog) Unpublish(ctx context.Context, actor *models.User, ws *models.Workspace, blog *models.Blog) (Decision, error) {
	return p.withStatus(ctx, actor, ws, blog, rolesOwnerManager, func(s models.BlogStatus) string {
		if s == models.BlogStatusDraft {
			return "Blog is already in draft status"
		}
		return ""
	})
}

func (p *Blog) Archive(ctx context.Context, actor *models.User, ws *models.Workspace, blog *models.Blog) (Decision, error) {
	return p.withStatus(ctx, actor, ws, blog, rolesOwnerManager, func(s models.BlogStatus) string {
		if s != models.BlogStatusPublished {
			return "Blog is not published"
		}
		return ""
	})
}

// withStatus checks the role first, then the status gate. gate returns a
// deny reason or "".
func (p *Blog) withStatus(ctx context.Context, actor *models.User, ws *models.Workspace, blog *models.Blog,
	roles []models.MemberRole, gate func(models.BlogStatus) string) (Decision, error) {
	if err := checkWorkspace(ws, blog); err != nil {
		return Decision{}, err
	}

	d, err := memberHasRole(ctx, p.r, actor, ws, roles)
	if err != nil || !d.Allowed {
		return d, err
	}

	if reason := gate(blog.Status); reason != "" {
		return Deny(reason), nil
	}
	return Allow(), nil
}
