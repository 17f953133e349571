package projectstore_test

import (
	"testing"
	"time"

	projectstore "github.com/dalemusser/projecthub/internal/app/store/projects"
	"github.com/dalemusser/projecthub/internal/domain/models"
	"github.com/dalemusser/projecthub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_CreateUpdateDelete(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := projectstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := primitive.NewObjectID()
	p, err := store.Create(ctx, models.Project{Name: " Alpha ", UserID: owner, Tags: []string{"go", " go ", ""}})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if p.Name != "Alpha" {
		t.Errorf("Name = %q", p.Name)
	}
	if len(p.Tags) != 1 || p.Tags[0] != "go" {
		t.Errorf("Tags = %v, want [go]", p.Tags)
	}

	desc := "first project"
	upd := projectstore.Update{Description: &desc}
	got, err := store.Update(ctx, p.ID, upd)
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if got.Description != desc || got.Name != "Alpha" {
		t.Errorf("unexpected project after update: %+v", got)
	}
	if fields := upd.Fields(); len(fields) != 1 || fields[0] != "description" {
		t.Errorf("Fields() = %v", fields)
	}

	n, _ := store.CountOwnedBy(ctx, owner)
	if n != 1 {
		t.Errorf("CountOwnedBy = %d, want 1", n)
	}

	if err := store.Delete(ctx, p.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := store.GetByID(ctx, p.ID); err != projectstore.ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_Orphans(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := projectstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := fixtures.CreateUser(ctx, "Owner", "owner@x.com")
	healthy := fixtures.CreateProject(ctx, owner, "Healthy")
	orphan, err := store.Create(ctx, models.Project{Name: "Orphan", UserID: owner.ID})
	if err != nil {
		t.Fatal(err)
	}

	ids, err := store.Orphans(ctx, time.Now().Add(time.Minute), 10)
	if err != nil {
		t.Fatalf("Orphans failed: %v", err)
	}
	if len(ids) != 1 || ids[0] != orphan.ID {
		t.Errorf("Orphans = %v, want only %v (healthy %v)", ids, orphan.ID, healthy.ID)
	}

	ids, _ = store.Orphans(ctx, time.Now().Add(-time.Hour), 10)
	if len(ids) != 0 {
		t.Errorf("projects younger than the cutoff must be skipped, got %v", ids)
	}
}
