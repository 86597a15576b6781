package blog_test

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hugh/localspace/internal/apperr"
	"github.com/hugh/localspace/internal/blog"
	"github.com/hugh/localspace/internal/cache"
	"github.com/hugh/localspace/internal/database"
	"github.com/hugh/localspace/internal/database/models"
	"github.com/hugh/localspace/internal/testutil"
	"github.com/hugh/localspace/internal/workspace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type env struct {
	*testutil.TestSetup
	workspaces *workspace.Service
	blogs      *blog.Service
}

func newEnv(t *testing.T, max int) *env {
	t.Helper()
	setup := testutil.NewTestContext(t)
	members := workspace.NewMemberCache(setup.DB, cache.NewMemoryStore(), time.Hour)
	ws := workspace.NewService(setup.DB, members, workspace.Config{Max: 5}, testutil.DiscardLogger())
	return &env{
		TestSetup:  setup,
		workspaces: ws,
		blogs:      blog.NewService(setup.DB, ws, max, testutil.DiscardLogger()),
	}
}

func requireKind(t *testing.T, err error, kind apperr.Kind) *apperr.Error {
	t.Helper()
	require.Error(t, err)
	ae, ok := apperr.As(err)
	require.True(t, ok, "expected apperr, got %v", err)
	require.Equal(t, kind, ae.Kind, ae.Message)
	return ae
}

var post = blog.Content{Title: "Hello world", Content: "A first post body."}

func TestCreate(t *testing.T) {
	ctx := testutil.TestContext(t)
	e := newEnv(t, 2)
	viewer := testutil.CreateTestUser(t, e.DB)
	testutil.AddTestMember(t, e.DB, e.Workspace, viewer, models.MemberRoleViewer)

	_, err := e.blogs.Create(ctx, viewer, e.Workspace.ID, post)
	requireKind(t, err, apperr.KindForbidden)

	b, err := e.blogs.Create(ctx, e.User, e.Workspace.ID, post)
	require.NoError(t, err)
	assert.Equal(t, models.BlogStatusDraft, b.Status)
	assert.Equal(t, e.Owner.ID, b.AuthorID)
	assert.Equal(t, e.Workspace.ID, b.WorkspaceID)

	_, err = e.blogs.Create(ctx, e.User, e.Workspace.ID, post)
	require.NoError(t, err)

	_, err = e.blogs.Create(ctx, e.User, e.Workspace.ID, post)
	ae := requireKind(t, err, apperr.KindForbidden)
	assert.Equal(t, blog.MsgLimitReached, ae.Message)

	_, err = e.blogs.Create(ctx, e.User, uuid.New(), post)
	requireKind(t, err, apperr.KindNotFound)
}

func TestCreate_ConcurrentRespectsLimit(t *testing.T) {
	ctx := testutil.TestContext(t)
	e := newEnv(t, 3)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
		limited int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.blogs.Create(ctx, e.User, e.Workspace.ID, post)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				created++
				return
			}
			if ae, ok := apperr.As(err); ok && ae.Message == blog.MsgLimitReached {
				limited++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 3, created)
	assert.Equal(t, 7, limited)

	var count int64
	require.NoError(t, e.DB.Model(&models.Blog{}).Where("workspace_id = ?", e.Workspace.ID).Count(&count).Error)
	assert.Equal(t, int64(3), count)
}

func TestList(t *testing.T) {
	ctx := testutil.TestContext(t)
	e := newEnv(t, 20)
	viewer := testutil.CreateTestUser(t, e.DB)
	testutil.AddTestMember(t, e.DB, e.Workspace, viewer, models.MemberRoleViewer)

	for _, title := range []string{"Go generics", "Rust traits", "GOLANG tips"} {
		_, err := e.blogs.Create(ctx, e.User, e.Workspace.ID, blog.Content{Title: title, Content: "Body of the post."})
		require.NoError(t, err)
	}

	// Other workspaces' blogs never leak in.
	other, otherOwner := testutil.CreateTestWorkspace(t, e.DB, testutil.CreateTestUser(t, e.DB))
	testutil.CreateTestBlog(t, e.DB, other, otherOwner, models.BlogStatusDraft)

	items, total, err := e.blogs.List(ctx, viewer, e.Workspace.ID, database.ListQuery{Filter: "go", OrderBy: "title", Direction: "asc"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, items, 2)
	assert.Equal(t, "GOLANG tips", items[0].Title)
	assert.Equal(t, "Go generics", items[1].Title)

	items, total, err = e.blogs.List(ctx, e.User, e.Workspace.ID, database.ListQuery{Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, items, 1)

	_, _, err = e.blogs.List(ctx, testutil.CreateTestUser(t, e.DB), e.Workspace.ID, database.ListQuery{})
	requireKind(t, err, apperr.KindForbidden)
}

func TestScopedToWorkspace(t *testing.T) {
	ctx := testutil.TestContext(t)
	e := newEnv(t, 20)
	second, _, err := e.workspaces.Create(ctx, e.User, "Second")
	require.NoError(t, err)

	b, err := e.blogs.Create(ctx, e.User, e.Workspace.ID, post)
	require.NoError(t, err)

	_, err = e.blogs.Get(ctx, e.User, second.ID, b.ID)
	requireKind(t, err, apperr.KindNotFound)

	_, err = e.blogs.Publish(ctx, e.User, second.ID, b.ID)
	requireKind(t, err, apperr.KindNotFound)

	got, err := e.blogs.Get(ctx, e.User, e.Workspace.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, b.ID, got.ID)
}

func TestUpdateAndDelete(t *testing.T) {
	ctx := testutil.TestContext(t)
	e := newEnv(t, 20)

	b, err := e.blogs.Create(ctx, e.User, e.Workspace.ID, post)
	require.NoError(t, err)

	updated, err := e.blogs.Update(ctx, e.User, e.Workspace.ID, b.ID, blog.Content{Title: "New title here"})
	require.NoError(t, err)
	assert.Equal(t, "New title here", updated.Title)
	assert.Equal(t, post.Content, updated.Content)

	_, err = e.blogs.Publish(ctx, e.User, e.Workspace.ID, b.ID)
	require.NoError(t, err)

	_, err = e.blogs.Update(ctx, e.User, e.Workspace.ID, b.ID, post)
	ae := requireKind(t, err, apperr.KindForbidden)
	assert.Equal(t, "Blog is not in draft status", ae.Message)

	err = e.blogs.Delete(ctx, e.User, e.Workspace.ID, b.ID)
	requireKind(t, err, apperr.KindForbidden)

	_, err = e.blogs.Unpublish(ctx, e.User, e.Workspace.ID, b.ID)
	require.NoError(t, err)
	require.NoError(t, e.blogs.Delete(ctx, e.User, e.Workspace.ID, b.ID))

	_, err = e.blogs.Get(ctx, e.User, e.Workspace.ID, b.ID)
	requireKind(t, err, apperr.KindNotFound)
}

func TestLifecycle(t *testing.T) {
	ctx := testutil.TestContext(t)
	e := newEnv(t, 20)

	b, err := e.blogs.Create(ctx, e.User, e.Workspace.ID, post)
	require.NoError(t, err)

	_, err = e.blogs.Archive(ctx, e.User, e.Workspace.ID, b.ID)
	assert.Equal(t, "Blog is not published", requireKind(t, err, apperr.KindForbidden).Message)

	_, err = e.blogs.Unpublish(ctx, e.User, e.Workspace.ID, b.ID)
	assert.Equal(t, "Blog is already in draft status", requireKind(t, err, apperr.KindForbidden).Message)

	got, err := e.blogs.Publish(ctx, e.User, e.Workspace.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BlogStatusPublished, got.Status)

	got, err = e.blogs.Archive(ctx, e.User, e.Workspace.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BlogStatusArchived, got.Status)

	_, err = e.blogs.Publish(ctx, e.User, e.Workspace.ID, b.ID)
	requireKind(t, err, apperr.KindForbidden)

	got, err = e.blogs.Unpublish(ctx, e.User, e.Workspace.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BlogStatusDraft, got.Status)

	var stored models.Blog
	require.NoError(t, e.DB.First(&stored, "id = ?", b.ID).Error)
	assert.Equal(t, models.BlogStatusDraft, stored.Status)
}

// Owner A invites B as viewer, promotes B to editor, and the two split the
// blog lifecycle between them.
func TestEditorAndOwnerScenario(t *testing.T) {
	ctx := testutil.TestContext(t)
	e := newEnv(t, 20)
	bob := testutil.CreateTestUser(t, e.DB, testutil.WithName("Bob"))

	_, err := e.workspaces.AddMember(ctx, e.User, e.Workspace.ID, bob.Email, models.MemberRoleViewer)
	require.NoError(t, err)

	_, err = e.blogs.Create(ctx, bob, e.Workspace.ID, post)
	requireKind(t, err, apperr.KindForbidden)

	_, err = e.workspaces.UpdateMemberRole(ctx, e.User, e.Workspace.ID, bob.ID, models.MemberRoleEditor)
	require.NoError(t, err)

	b, err := e.blogs.Create(ctx, bob, e.Workspace.ID, post)
	require.NoError(t, err)
	assert.Equal(t, models.BlogStatusDraft, b.Status)

	_, err = e.blogs.Publish(ctx, bob, e.Workspace.ID, b.ID)
	requireKind(t, err, apperr.KindForbidden)

	_, err = e.blogs.Publish(ctx, e.User, e.Workspace.ID, b.ID)
	require.NoError(t, err)

	err = e.blogs.Delete(ctx, bob, e.Workspace.ID, b.ID)
	assert.Equal(t, "Blog is not in draft status", requireKind(t, err, apperr.KindForbidden).Message)

	got, err := e.blogs.Archive(ctx, e.User, e.Workspace.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BlogStatusArchived, got.Status)
}
