package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/projecthub/internal/app/system/normalize"
	"github.com/dalemusser/projecthub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
)

// FixturePassword is the plaintext password of every fixture user.
const FixturePassword = "Passw0rd!"

var fixtureHash []byte

func passwordHash() string {
	if fixtureHash == nil {
		// MinCost keeps fixture creation fast; production uses DefaultCost.
		fixtureHash, _ = bcrypt.GenerateFromPassword([]byte(FixturePassword), bcrypt.MinCost)
	}
	return string(fixtureHash)
}

// WithChiURLParam adds a chi URL parameter to the request context.
// Calling it repeatedly accumulates parameters on the same route context.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx, _ := r.Context().Value(chi.RouteCtxKey).(*chi.Context)
	if rctx == nil {
		rctx = chi.NewRouteContext()
		r = r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
	}
	rctx.URLParams.Add(key, value)
	return r
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateUser creates a free-tier customer.
func (f *Fixtures) CreateUser(ctx context.Context, name, email string) models.User {
	f.t.Helper()
	return f.CreateUserWithPricing(ctx, name, email, models.PricingFree)
}

// CreateUserWithPricing creates a customer on the given pricing tier.
func (f *Fixtures) CreateUserWithPricing(ctx context.Context, name, email, pricing string) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	u := models.User{
		ID:           primitive.NewObjectID(),
		FullName:     name,
		FullNameCI:   text.Fold(name),
		Email:        normalize.Email(email),
		PasswordHash: passwordHash(),
		Role:         models.RoleCustomer,
		PricingModel: pricing,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if _, err := f.db.Collection("users").InsertOne(ctx, u); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return u
}

// CreateProject creates a project owned by owner together with the
// owner's accepted membership. Labels are not seeded.
func (f *Fixtures) CreateProject(ctx context.Context, owner models.User, name string) models.Project {
	f.t.Helper()

	now := time.Now().UTC()
	p := models.Project{
		ID:        primitive.NewObjectID(),
		Name:      name,
		Tags:      []string{},
		UserID:    owner.ID,
		Labels:    []primitive.ObjectID{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := f.db.Collection("projects").InsertOne(ctx, p); err != nil {
		f.t.Fatalf("failed to create test project: %v", err)
	}
	f.AddAcceptedMember(ctx, p.ID, owner, models.MemberRoleOwner)
	return p
}

func (f *Fixtures) insertMember(ctx context.Context, m models.ProjectMember) models.ProjectMember {
	f.t.Helper()

	now := time.Now().UTC()
	m.ID = primitive.NewObjectID()
	m.Version = 1
	m.CreatedAt = now
	m.UpdatedAt = now
	if _, err := f.db.Collection("project_members").InsertOne(ctx, m); err != nil {
		f.t.Fatalf("failed to create test membership: %v", err)
	}
	return m
}

// InviteMember creates a pending member row for email.
func (f *Fixtures) InviteMember(ctx context.Context, projectID primitive.ObjectID, email string) models.ProjectMember {
	f.t.Helper()
	return f.insertMember(ctx, models.ProjectMember{
		MemberEmailID: normalize.Email(email),
		ProjectID:     projectID,
		Status:        models.MemberPending,
		Role:          models.MemberRoleMember,
	})
}

// AddAcceptedMember creates an accepted membership for u with role.
func (f *Fixtures) AddAcceptedMember(ctx context.Context, projectID primitive.ObjectID, u models.User, role string) models.ProjectMember {
	f.t.Helper()
	uid := u.ID
	return f.insertMember(ctx, models.ProjectMember{
		MemberEmailID: u.Email,
		UserID:        &uid,
		ProjectID:     projectID,
		Status:        models.MemberAccepted,
		Role:          role,
	})
}

// CreateTask creates a todo-status task authored by userID.
func (f *Fixtures) CreateTask(ctx context.Context, projectID, userID primitive.ObjectID, title string) models.Task {
	f.t.Helper()

	now := time.Now().UTC()
	t := models.Task{
		ID:          primitive.NewObjectID(),
		Title:       title,
		Status:      models.TaskTodo,
		Priority:    models.PriorityLow,
		ProjectID:   projectID,
		UserID:      userID,
		Tags:        []string{},
		AssignedTo:  []primitive.ObjectID{},
		Attachments: []string{},
		Comments:    []primitive.ObjectID{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := f.db.Collection("project_tasks").InsertOne(ctx, t); err != nil {
		f.t.Fatalf("failed to create test task: %v", err)
	}
	return t
}

// CreateIssue creates an open issue authored by userID.
func (f *Fixtures) CreateIssue(ctx context.Context, projectID, userID primitive.ObjectID, title string) models.Issue {
	f.t.Helper()

	now := time.Now().UTC()
	is := models.Issue{
		ID:        primitive.NewObjectID(),
		Title:     title,
		Status:    models.IssueOpen,
		Priority:  models.PriorityLow,
		ProjectID: projectID,
		UserID:    userID,
		Labels:    []string{},
		Assignees: []primitive.ObjectID{},
		Comments:  []primitive.ObjectID{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := f.db.Collection("issues").InsertOne(ctx, is); err != nil {
		f.t.Fatalf("failed to create test issue: %v", err)
	}
	return is
}

// CreateComment creates a top-level comment on target and records it in
// the work item's comment list.
func (f *Fixtures) CreateComment(ctx context.Context, target models.Attachment, userID primitive.ObjectID, content string) models.Comment {
	f.t.Helper()

	now := time.Now().UTC()
	c := models.Comment{
		ID:        primitive.NewObjectID(),
		Content:   content,
		UserID:    userID,
		Replies:   []primitive.ObjectID{},
		Target:    target,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := f.db.Collection("comments").InsertOne(ctx, c); err != nil {
		f.t.Fatalf("failed to create test comment: %v", err)
	}
	coll := "project_tasks"
	if target.Kind == models.AttachIssue {
		coll = "issues"
	}
	if _, err := f.db.Collection(coll).UpdateByID(ctx, target.ID, bson.M{
		"$push": bson.M{"comments": c.ID},
	}); err != nil {
		f.t.Fatalf("failed to link test comment: %v", err)
	}
	return c
}
