package userstore_test

import (
	"testing"

	userstore "github.com/dalemusser/projecthub/internal/app/store/users"
	"github.com/dalemusser/projecthub/internal/domain/models"
	"github.com/dalemusser/projecthub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_Create_Defaults(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, models.User{
		FullName:     "  Ada Lovelace ",
		Email:        "Ada@Example.COM",
		PasswordHash: "digest",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.ID == primitive.NilObjectID {
		t.Error("expected ID to be assigned")
	}
	if created.Email != "ada@example.com" {
		t.Errorf("Email = %q, want lowercased", created.Email)
	}
	if created.FullName != "Ada Lovelace" || created.FullNameCI == "" {
		t.Errorf("name not normalized: %q / %q", created.FullName, created.FullNameCI)
	}
	if created.Role != models.RoleCustomer {
		t.Errorf("Role = %q, want customer", created.Role)
	}
	if created.PricingModel != models.PricingFree {
		t.Errorf("PricingModel = %q, want free", created.PricingModel)
	}
	if created.CreatedAt.IsZero() || created.UpdatedAt.IsZero() {
		t.Error("expected timestamps to be set")
	}
}

func TestStore_Create_DuplicateEmail(t *testing.T) {
	db := testutil.SetupTestDB(t)
	testutil.EnsureIndexes(t, db)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.Create(ctx, models.User{FullName: "A", Email: "dup@example.com"}); err != nil {
		t.Fatalf("first Create failed: %v", err)
	}
	_, err := store.Create(ctx, models.User{FullName: "B", Email: "DUP@example.com"})
	if err != userstore.ErrDuplicateEmail {
		t.Errorf("expected ErrDuplicateEmail, got %v", err)
	}
}

func TestStore_Create_BadRole(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.Create(ctx, models.User{FullName: "X", Email: "x@example.com", Role: "superuser"}); err == nil {
		t.Error("expected error for invalid role")
	}
}

func TestStore_GetByEmail(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := fixtures.CreateUser(ctx, "Grace Hopper", "grace@example.com")

	got, err := store.GetByEmail(ctx, "GRACE@example.com")
	if err != nil {
		t.Fatalf("GetByEmail failed: %v", err)
	}
	if got.ID != u.ID {
		t.Errorf("got ID %v, want %v", got.ID, u.ID)
	}

	if _, err := store.GetByEmail(ctx, "nobody@example.com"); err != userstore.ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_UpdateFullNameAndPassword(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := fixtures.CreateUser(ctx, "Old Name", "name@example.com")

	if err := store.UpdateFullName(ctx, u.ID, " New Name "); err != nil {
		t.Fatalf("UpdateFullName failed: %v", err)
	}
	if err := store.SetPassword(ctx, u.ID, "new-digest"); err != nil {
		t.Fatalf("SetPassword failed: %v", err)
	}

	got, err := store.GetByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.FullName != "New Name" {
		t.Errorf("FullName = %q", got.FullName)
	}
	if got.PasswordHash != "new-digest" {
		t.Errorf("PasswordHash = %q", got.PasswordHash)
	}

	if err := store.SetPassword(ctx, primitive.NewObjectID(), "x"); err != userstore.ErrNotFound {
		t.Errorf("expected ErrNotFound for unknown id, got %v", err)
	}
}

func TestStore_SetAvatar_ReturnsPrevious(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := fixtures.CreateUser(ctx, "Pic", "pic@example.com")

	prev, err := store.SetAvatar(ctx, u.ID, models.Avatar{URL: "/files/a.png", AssetID: "a.png"})
	if err != nil {
		t.Fatalf("SetAvatar failed: %v", err)
	}
	if prev != nil {
		t.Errorf("expected no previous avatar, got %+v", prev)
	}

	prev, err = store.SetAvatar(ctx, u.ID, models.Avatar{URL: "/files/b.png", AssetID: "b.png"})
	if err != nil {
		t.Fatalf("SetAvatar failed: %v", err)
	}
	if prev == nil || prev.AssetID != "a.png" {
		t.Errorf("expected previous avatar a.png, got %+v", prev)
	}
}
