package policy

import (
	"context"
	"fmt"

	"github.com/hugh/localspace/internal/database/models"
)

type Workspace struct {
	r Reader
}

func NewWorkspace(r Reader) *Workspace {
	return &Workspace{r: r}
}

func (p *Workspace) View(ctx context.Context, actor *models.User, ws *models.Workspace) (Decision, error) {
	return memberHasRole(ctx, p.r, actor, ws, rolesAny)
}

func (p *Workspace) Update(ctx context.Context, actor *models.User, ws *models.Workspace) (Decision, error) {
	return memberHasRole(ctx, p.r, actor, ws, rolesOwnerManager)
}

// Delete requires ownership, no published blogs, and that the workspace is
// not the actor's last owned one.
func (p *Workspace) Delete(ctx context.Context, actor *models.User, ws *models.Workspace) (Decision, error) {
	d, err := memberHasRole(ctx, p.r, actor, ws, rolesOwner)
	if err != nil || !d.Allowed {
		return d, err
	}

	published, err := p.r.PublishedBlogCount(ctx, ws.ID)
	if err != nil {
		return Decision{}, err
	}
	if published > 0 {
		return Deny(fmt.Sprintf("Workspace has %d published blogs, please archive them first", published)), nil
	}

	owned, err := p.r.OwnedWorkspaceCount(ctx, actor.ID)
	if err != nil {
		return Decision{}, err
	}
	if owned < 2 {
		return Deny("Cannot delete the last workspace"), nil
	}

	return Allow(), nil
}

func (p *Workspace) Transfer(ctx context.Context, actor *models.User, ws *models.Workspace) (Decision, error) {
	return memberHasRole(ctx, p.r, actor, ws, rolesOwner)
}

func (p *Workspace) ManageMembers(ctx context.Context, actor *models.User, ws *models.Workspace) (Decision, error) {
	return memberHasRole(ctx, p.r, actor, ws, rolesOwnerManager)
}
