// Package policy decides whether an actor may perform an action on a
// workspace or blog. Policies only read; a deny is a value, not an error.
package policy

import (
	"context"
	"slices"

	"github.com/google/uuid"
	"github.com/hugh/localspace/internal/apperr"
	"github.com/hugh/localspace/internal/database/models"
)

// DefaultDenyReason is used when the actor lacks a qualifying membership.
const DefaultDenyReason = "Access denied"

type Decision struct {
	Allowed bool
	Reason  string
}

func Allow() Decision {
	return Decision{Allowed: true}
}

func Deny(reason string) Decision {
	if reason == "" {
		reason = DefaultDenyReason
	}
	return Decision{Reason: reason}
}

// Reader is the data a policy may consult.
type Reader interface {
	// ActiveMember returns nil, nil when the user has no active membership.
	ActiveMember(ctx context.Context, workspaceID, userID uuid.UUID) (*models.WorkspaceMember, error)
	PublishedBlogCount(ctx context.Context, workspaceID uuid.UUID) (int64, error)
	OwnedWorkspaceCount(ctx context.Context, userID uuid.UUID) (int64, error)
}

// Enforce turns a decision into an error: a deny becomes a Forbidden
// apperr, a read failure is passed through.
func Enforce(d Decision, err error) error {
	if err != nil {
		return err
	}
	if !d.Allowed {
		return apperr.Forbidden(d.Reason)
	}
	return nil
}

var (
	rolesAny          = []models.MemberRole{models.MemberRoleOwner, models.MemberRoleManager, models.MemberRoleEditor, models.MemberRoleViewer}
	rolesOwner        = []models.MemberRole{models.MemberRoleOwner}
	rolesOwnerManager = []models.MemberRole{models.MemberRoleOwner, models.MemberRoleManager}
	rolesContributor  = []models.MemberRole{models.MemberRoleOwner, models.MemberRoleManager, models.MemberRoleEditor}
)

func memberHasRole(ctx context.Context, r Reader, actor *models.User, ws *models.Workspace, roles []models.MemberRole) (Decision, error) {
	member, err := r.ActiveMember(ctx, ws.ID, actor.ID)
	if err != nil {
		return Decision{}, err
	}
	if member == nil || !slices.Contains(roles, member.Role) {
		return Deny(""), nil
	}
	return Allow(), nil
}
