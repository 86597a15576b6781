package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hugh/localspace/internal/database"
	"github.com/hugh/localspace/internal/database/models"
	"github.com/hugh/localspace/internal/token"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// TestPassword is the plaintext password of every fixture user.
const TestPassword = "testpassword123"

// SetupTestDB creates an in-memory SQLite database for testing
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	// Every connection to ":memory:" is a separate database.
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	t.Cleanup(func() { sqlDB.Close() })

	return db
}

// DiscardLogger returns a logger that drops everything.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// UserOption tweaks a fixture user before it is inserted.
type UserOption func(*models.User)

func WithEmail(email string) UserOption {
	return func(u *models.User) { u.Email = email }
}

func WithName(name string) UserOption {
	return func(u *models.User) { u.Name = name }
}

func Unverified() UserOption {
	return func(u *models.User) { u.VerifiedAt = nil }
}

// CreateTestUser creates a verified customer with TestPassword.
func CreateTestUser(t *testing.T, db *gorm.DB, opts ...UserOption) *models.User {
	t.Helper()

	// MinCost keeps fixture setup fast; CompareHashAndPassword reads the cost
	// from the hash.
	hash, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	now := time.Now().UTC()
	user := &models.User{
		Base:         models.Base{ID: uuid.New()},
		Name:         "Test User",
		Email:        "test-" + uuid.New().String()[:8] + "@example.com",
		PasswordHash: string(hash),
		Role:         models.RoleCustomer,
		VerifiedAt:   &now,
	}
	for _, opt := range opts {
		opt(user)
	}

	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}

	return user
}

// CreateTestWorkspace creates a workspace owned by owner.
func CreateTestWorkspace(t *testing.T, db *gorm.DB, owner *models.User) (*models.Workspace, *models.WorkspaceMember) {
	t.Helper()

	ws := &models.Workspace{
		Base: models.Base{ID: uuid.New()},
		Name: owner.Name + "'s Workspace",
	}
	if err := db.Create(ws).Error; err != nil {
		t.Fatalf("failed to create test workspace: %v", err)
	}

	member := AddTestMember(t, db, ws, owner, models.MemberRoleOwner)
	return ws, member
}

// AddTestMember adds user to ws as an active member with role.
func AddTestMember(t *testing.T, db *gorm.DB, ws *models.Workspace, user *models.User, role models.MemberRole) *models.WorkspaceMember {
	t.Helper()

	now := time.Now().UTC()
	member := &models.WorkspaceMember{
		Base:        models.Base{ID: uuid.New()},
		UserID:      user.ID,
		WorkspaceID: ws.ID,
		Role:        role,
		JoinedAt:    &now,
	}
	if err := db.Create(member).Error; err != nil {
		t.Fatalf("failed to create test member: %v", err)
	}

	return member
}

// CreateTestBlog creates a blog in ws written by author.
func CreateTestBlog(t *testing.T, db *gorm.DB, ws *models.Workspace, author *models.WorkspaceMember, status models.BlogStatus) *models.Blog {
	t.Helper()

	blog := &models.Blog{
		Base:        models.Base{ID: uuid.New()},
		WorkspaceID: ws.ID,
		AuthorID:    author.ID,
		Title:       "Test blog title",
		Content:     "Test blog content body",
		Status:      status,
	}
	if err := db.Create(blog).Error; err != nil {
		t.Fatalf("failed to create test blog: %v", err)
	}

	return blog
}

// IssueAccessToken creates an access token for user and returns its bearer
// value.
func IssueAccessToken(t *testing.T, db *gorm.DB, user *models.User) string {
	t.Helper()

	holder, err := token.New().Create(context.Background(), db, token.CreateParams{
		User:      user,
		Type:      models.TokenTypeAccess,
		ExpiresIn: time.Hour,
	}, token.CreateOptions{})
	if err != nil {
		t.Fatalf("failed to issue access token: %v", err)
	}

	return holder.Value()
}

// AuthenticatedRequest creates an HTTP request with authentication
func AuthenticatedRequest(t *testing.T, method, path string, body interface{}, bearer string) *http.Request {
	t.Helper()

	var reqBody *bytes.Buffer
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal request body: %v", err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	return req
}

// UnauthenticatedRequest creates an HTTP request without authentication
func UnauthenticatedRequest(t *testing.T, method, path string, body interface{}) *http.Request {
	t.Helper()
	return AuthenticatedRequest(t, method, path, body, "")
}

// AssertStatus checks if the response has the expected status code
func AssertStatus(t *testing.T, rr *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if rr.Code != expected {
		t.Errorf("expected status %d, got %d. Body: %s", expected, rr.Code, rr.Body.String())
	}
}

// ParseJSONResponse parses the response body into the given struct
func ParseJSONResponse(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) {
	t.Helper()

	if err := json.Unmarshal(rr.Body.Bytes(), v); err != nil {
		t.Fatalf("failed to parse response body: %v. Body: %s", err, rr.Body.String())
	}
}

// TestContext creates a context with a timeout for tests
func TestContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// TestSetup holds the common test dependencies: a database with one verified
// customer who owns one workspace, plus a live access token.
type TestSetup struct {
	DB        *gorm.DB
	User      *models.User
	Workspace *models.Workspace
	Owner     *models.WorkspaceMember
	Token     string
}

// NewTestContext creates a complete test setup
func NewTestContext(t *testing.T) *TestSetup {
	t.Helper()

	db := SetupTestDB(t)
	user := CreateTestUser(t, db, WithName("Alice"))
	ws, owner := CreateTestWorkspace(t, db, user)

	return &TestSetup{
		DB:        db,
		User:      user,
		Workspace: ws,
		Owner:     owner,
		Token:     IssueAccessToken(t, db, user),
	}
}
