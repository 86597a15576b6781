package policy_test

import (
	"context"
	"errors"
	"testing"

	crdberrors "github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/hugh/localspace/internal/apperr"
	"github.com/hugh/localspace/internal/database/models"
	"github.com/hugh/localspace/internal/policy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReader struct {
	members   map[uuid.UUID]models.MemberRole
	published int64
	owned     map[uuid.UUID]int64
	err       error
}

func (f *fakeReader) ActiveMember(_ context.Context, wsID, userID uuid.UUID) (*models.WorkspaceMember, error) {
	if f.err != nil {
		return nil, f.err
	}
	role, ok := f.members[userID]
	if !ok {
		return nil, nil
	}
	return &models.WorkspaceMember{UserID: userID, WorkspaceID: wsID, Role: role}, nil
}

func (f *fakeReader) PublishedBlogCount(context.Context, uuid.UUID) (int64, error) {
	return f.published, nil
}

func (f *fakeReader) OwnedWorkspaceCount(_ context.Context, userID uuid.UUID) (int64, error) {
	return f.owned[userID], nil
}

type fixture struct {
	reader *fakeReader
	ws     *models.Workspace
	users  map[models.MemberRole]*models.User
	// outsider has no membership
	outsider *models.User
}

func newFixture() *fixture {
	f := &fixture{
		reader:   &fakeReader{members: map[uuid.UUID]models.MemberRole{}, owned: map[uuid.UUID]int64{}},
		ws:       &models.Workspace{Base: models.Base{ID: uuid.New()}, Name: "ws"},
		users:    map[models.MemberRole]*models.User{},
		outsider: &models.User{Base: models.Base{ID: uuid.New()}},
	}
	for _, role := range []models.MemberRole{models.MemberRoleOwner, models.MemberRoleManager, models.MemberRoleEditor, models.MemberRoleViewer} {
		u := &models.User{Base: models.Base{ID: uuid.New()}}
		f.users[role] = u
		f.reader.members[u.ID] = role
	}
	return f
}

func (f *fixture) blog(status models.BlogStatus) *models.Blog {
	return &models.Blog{Base: models.Base{ID: uuid.New()}, WorkspaceID: f.ws.ID, Status: status}
}

type roleCheck func(ctx context.Context, actor *models.User) (policy.Decision, error)

func assertRoles(t *testing.T, f *fixture, check roleCheck, allowed ...models.MemberRole) {
	t.Helper()
	ctx := context.Background()

	for role, user := range f.users {
		d, err := check(ctx, user)
		require.NoError(t, err)
		want := false
		for _, a := range allowed {
			if a == role {
				want = true
			}
		}
		assert.Equal(t, want, d.Allowed, "role %s", role)
		if !d.Allowed {
			assert.NotEmpty(t, d.Reason)
		}
	}

	d, err := check(ctx, f.outsider)
	require.NoError(t, err)
	assert.False(t, d.Allowed, "non-member")
	assert.Equal(t, policy.DefaultDenyReason, d.Reason)
}

func TestWorkspacePolicy_Roles(t *testing.T) {
	f := newFixture()
	f.reader.owned[f.users[models.MemberRoleOwner].ID] = 3
	p := policy.NewWorkspace(f.reader)

	t.Run("view", func(t *testing.T) {
		assertRoles(t, f, func(ctx context.Context, u *models.User) (policy.Decision, error) {
			return p.View(ctx, u, f.ws)
		}, models.MemberRoleOwner, models.MemberRoleManager, models.MemberRoleEditor, models.MemberRoleViewer)
	})

	t.Run("update", func(t *testing.T) {
		assertRoles(t, f, func(ctx context.Context, u *models.User) (policy.Decision, error) {
			return p.Update(ctx, u, f.ws)
		}, models.MemberRoleOwner, models.MemberRoleManager)
	})

	t.Run("delete", func(t *testing.T) {
		assertRoles(t, f, func(ctx context.Context, u *models.User) (policy.Decision, error) {
			return p.Delete(ctx, u, f.ws)
		}, models.MemberRoleOwner)
	})

	t.Run("transfer", func(t *testing.T) {
		assertRoles(t, f, func(ctx context.Context, u *models.User) (policy.Decision, error) {
			return p.Transfer(ctx, u, f.ws)
		}, models.MemberRoleOwner)
	})

	t.Run("manage members", func(t *testing.T) {
		assertRoles(t, f, func(ctx context.Context, u *models.User) (policy.Decision, error) {
			return p.ManageMembers(ctx, u, f.ws)
		}, models.MemberRoleOwner, models.MemberRoleManager)
	})
}

func TestWorkspacePolicy_DeletePreconditions(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	owner := f.users[models.MemberRoleOwner]
	p := policy.NewWorkspace(f.reader)

	t.Run("published blogs block delete", func(t *testing.T) {
		f.reader.published = 2
		f.reader.owned[owner.ID] = 3
		d, err := p.Delete(ctx, owner, f.ws)
		require.NoError(t, err)
		assert.False(t, d.Allowed)
		assert.Equal(t, "Workspace has 2 published blogs, please archive them first", d.Reason)
	})

	t.Run("last owned workspace", func(t *testing.T) {
		f.reader.published = 0
		f.reader.owned[owner.ID] = 1
		d, err := p.Delete(ctx, owner, f.ws)
		require.NoError(t, err)
		assert.False(t, d.Allowed)
		assert.Equal(t, "Cannot delete the last workspace", d.Reason)
	})

	t.Run("allowed with two owned", func(t *testing.T) {
		f.reader.owned[owner.ID] = 2
		d, err := p.Delete(ctx, owner, f.ws)
		require.NoError(t, err)
		assert.True(t, d.Allowed)
	})
}

func TestBlogPolicy_Roles(t *testing.T) {
	f := newFixture()
	p := policy.NewBlog(f.reader)

	contributors := []models.MemberRole{models.MemberRoleOwner, models.MemberRoleManager, models.MemberRoleEditor}
	managers := []models.MemberRole{models.MemberRoleOwner, models.MemberRoleManager}

	draft := f.blog(models.BlogStatusDraft)
	published := f.blog(models.BlogStatusPublished)

	assertRoles(t, f, func(ctx context.Context, u *models.User) (policy.Decision, error) {
		return p.Create(ctx, u, f.ws)
	}, contributors...)
	assertRoles(t, f, func(ctx context.Context, u *models.User) (policy.Decision, error) {
		return p.View(ctx, u, f.ws, published)
	}, contributors...)
	assertRoles(t, f, func(ctx context.Context, u *models.User) (policy.Decision, error) {
		return p.Update(ctx, u, f.ws, draft)
	}, contributors...)
	assertRoles(t, f, func(ctx context.Context, u *models.User) (policy.Decision, error) {
		return p.Delete(ctx, u, f.ws, draft)
	}, contributors...)
	assertRoles(t, f, func(ctx context.Context, u *models.User) (policy.Decision, error) {
		return p.Publish(ctx, u, f.ws, draft)
	}, managers...)
	assertRoles(t, f, func(ctx context.Context, u *models.User) (policy.Decision, error) {
		return p.Unpublish(ctx, u, f.ws, published)
	}, managers...)
	assertRoles(t, f, func(ctx context.Context, u *models.User) (policy.Decision, error) {
		return p.Archive(ctx, u, f.ws, published)
	}, managers...)
}

func TestBlogPolicy_StatusGates(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	p := policy.NewBlog(f.reader)
	owner := f.users[models.MemberRoleOwner]

	type action func(context.Context, *models.User, *models.Workspace, *models.Blog) (policy.Decision, error)

	tests := []struct {
		name   string
		action action
		status models.BlogStatus
		reason string
	}{
		{"update published", p.Update, models.BlogStatusPublished, "Blog is not in draft status"},
		{"update archived", p.Update, models.BlogStatusArchived, "Blog is not in draft status"},
		{"delete published", p.Delete, models.BlogStatusPublished, "Blog is not in draft status"},
		{"publish published", p.Publish, models.BlogStatusPublished, "Blog is not in draft status"},
		{"publish archived", p.Publish, models.BlogStatusArchived, "Blog is not in draft status"},
		{"unpublish draft", p.Unpublish, models.BlogStatusDraft, "Blog is already in draft status"},
		{"archive draft", p.Archive, models.BlogStatusDraft, "Blog is not published"},
		{"archive archived", p.Archive, models.BlogStatusArchived, "Blog is not published"},
		{"unpublish archived", p.Unpublish, models.BlogStatusArchived, ""},
		{"publish draft", p.Publish, models.BlogStatusDraft, ""},
		{"archive published", p.Archive, models.BlogStatusPublished, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := tt.action(ctx, owner, f.ws, f.blog(tt.status))
			require.NoError(t, err)
			if tt.reason == "" {
				assert.True(t, d.Allowed)
				return
			}
			assert.False(t, d.Allowed)
			assert.Equal(t, tt.reason, d.Reason)
		})
	}
}

func TestBlogPolicy_RoleCheckedBeforeStatus(t *testing.T) {
	f := newFixture()
	p := policy.NewBlog(f.reader)

	d, err := p.Publish(context.Background(), f.users[models.MemberRoleEditor], f.ws, f.blog(models.BlogStatusArchived))
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, policy.DefaultDenyReason, d.Reason)
}

func TestBlogPolicy_WorkspaceMismatch(t *testing.T) {
	f := newFixture()
	p := policy.NewBlog(f.reader)
	owner := f.users[models.MemberRoleOwner]

	foreign := &models.Blog{Base: models.Base{ID: uuid.New()}, WorkspaceID: uuid.New(), Status: models.BlogStatusDraft}

	_, err := p.Update(context.Background(), owner, f.ws, foreign)
	require.Error(t, err)
	assert.True(t, crdberrors.HasAssertionFailure(err))
	_, isApp := apperr.As(err)
	assert.False(t, isApp, "mismatch is not a deny")
}

func TestEnforce(t *testing.T) {
	assert.NoError(t, policy.Enforce(policy.Allow(), nil))

	err := policy.Enforce(policy.Deny("Blog is not published"), nil)
	require.Error(t, err)
	ae, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.KindForbidden, ae.Kind)
	assert.Equal(t, "Blog is not published", ae.Message)

	boom := errors.New("db down")
	assert.ErrorIs(t, policy.Enforce(policy.Decision{}, boom), boom)
}

func TestReaderError(t *testing.T) {
	f := newFixture()
	f.reader.err = errors.New("cache unavailable")
	p := policy.NewWorkspace(f.reader)

	_, err := p.View(context.Background(), f.users[models.MemberRoleOwner], f.ws)
	assert.Error(t, err)
}
