package indexes_test

import (
	"testing"

	"github.com/dalemusser/projecthub/internal/app/system/indexes"
	"github.com/dalemusser/projecthub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func indexNames(t *testing.T, db *mongo.Database, coll string) map[string]bool {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()

	cur, err := db.Collection(coll).Indexes().List(ctx)
	if err != nil {
		t.Fatalf("List indexes on %s failed: %v", coll, err)
	}
	defer cur.Close(ctx)

	names := make(map[string]bool)
	for cur.Next(ctx) {
		var idx bson.M
		if err := cur.Decode(&idx); err != nil {
			t.Fatalf("decode index: %v", err)
		}
		if name, ok := idx["name"].(string); ok {
			names[name] = true
		}
	}
	return names
}

func TestEnsureAll_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("first EnsureAll failed: %v", err)
	}
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("second EnsureAll failed: %v", err)
	}
}

func TestEnsureAll_CreatesIndexes(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	tests := []struct {
		coll string
		want []string
	}{
		{"users", []string{"uniq_users_email"}},
		{"project_members", []string{"uniq_members_email_project", "idx_members_user_project", "idx_members_project_role"}},
		{"project_tasks", []string{"idx_tasks_project_created", "idx_tasks_project_status_updated"}},
		{"issues", []string{"idx_issues_project_status"}},
		{"comments", []string{"idx_comments_target", "idx_comments_parent"}},
		{"bl_sheets", []string{"idx_sheets_user_date"}},
		{"todos", []string{"idx_todos_user_created"}},
		{"audit_events", []string{"idx_audit_project_timestamp"}},
	}
	for _, tt := range tests {
		t.Run(tt.coll, func(t *testing.T) {
			names := indexNames(t, db, tt.coll)
			for _, n := range tt.want {
				if !names[n] {
					t.Errorf("missing index %s on %s (have %v)", n, tt.coll, names)
				}
			}
		})
	}
}

func TestEnsureAll_RenamesMismatchedIndex(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, err := db.Collection("todos").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
	})
	if err != nil {
		t.Fatalf("seed index: %v", err)
	}
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}
	if !indexNames(t, db, "todos")["idx_todos_user_created"] {
		t.Error("expected the auto-named index to be replaced by idx_todos_user_created")
	}
}

func TestEnsureAll_UniqueMembershipEnforced(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}
	pid := primitive.NewObjectID()
	coll := db.Collection("project_members")
	if _, err := coll.InsertOne(ctx, bson.M{"member_email_id": "a@x.com", "project_id": pid}); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	if _, err := coll.InsertOne(ctx, bson.M{"member_email_id": "a@x.com", "project_id": pid}); err == nil {
		t.Error("expected duplicate key error for second membership")
	}
	if _, err := coll.InsertOne(ctx, bson.M{"member_email_id": "a@x.com", "project_id": primitive.NewObjectID()}); err != nil {
		t.Errorf("same email in another project should be allowed: %v", err)
	}
}
