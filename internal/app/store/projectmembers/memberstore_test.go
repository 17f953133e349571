package memberstore_test

import (
	"sync"
	"testing"

	memberstore "github.com/dalemusser/projecthub/internal/app/store/projectmembers"
	"github.com/dalemusser/projecthub/internal/app/system/paging"
	"github.com/dalemusser/projecthub/internal/domain/models"
	"github.com/dalemusser/projecthub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_Create_DuplicateEmailProject(t *testing.T) {
	db := testutil.SetupTestDB(t)
	testutil.EnsureIndexes(t, db)
	store := memberstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	projectID := primitive.NewObjectID()
	m, err := store.Create(ctx, models.ProjectMember{MemberEmailID: "B@x.com", ProjectID: projectID})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if m.Status != models.MemberPending || m.Role != models.MemberRoleMember {
		t.Errorf("defaults not applied: status=%q role=%q", m.Status, m.Role)
	}
	if m.MemberEmailID != "b@x.com" {
		t.Errorf("MemberEmailID = %q, want lowercased", m.MemberEmailID)
	}

	_, err = store.Create(ctx, models.ProjectMember{MemberEmailID: "b@x.com", ProjectID: projectID})
	if err != memberstore.ErrDuplicateMember {
		t.Errorf("expected ErrDuplicateMember, got %v", err)
	}

	// Same email in another project is fine.
	if _, err := store.Create(ctx, models.ProjectMember{MemberEmailID: "b@x.com", ProjectID: primitive.NewObjectID()}); err != nil {
		t.Errorf("Create in other project failed: %v", err)
	}
}

func TestStore_Respond_CompareAndSet(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := memberstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	m, err := store.Create(ctx, models.ProjectMember{MemberEmailID: "b@x.com", ProjectID: primitive.NewObjectID()})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	userID := primitive.NewObjectID()

	got, err := store.Respond(ctx, m.ID, userID, models.MemberAccepted, m.Version)
	if err != nil {
		t.Fatalf("Respond failed: %v", err)
	}
	if got.Status != models.MemberAccepted || got.UserID == nil || *got.UserID != userID {
		t.Errorf("unexpected row after accept: %+v", got)
	}
	if got.Version != m.Version+1 {
		t.Errorf("Version = %d, want %d", got.Version, m.Version+1)
	}

	if _, err := store.Respond(ctx, m.ID, userID, models.MemberRejected, m.Version); err != memberstore.ErrVersionConflict {
		t.Errorf("stale Respond: expected ErrVersionConflict, got %v", err)
	}
}

func TestStore_UpdateRole_ConcurrentWritersOneWins(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := memberstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	m, err := store.Create(ctx, models.ProjectMember{MemberEmailID: "c@x.com", ProjectID: primitive.NewObjectID()})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	var wg sync.WaitGroup
	errs := make(chan error, 2)
	for _, role := range []string{models.MemberRoleAdmin, models.MemberRoleMember} {
		wg.Add(1)
		go func(role string) {
			defer wg.Done()
			_, err := store.UpdateRole(ctx, m.ID, role, m.Version)
			errs <- err
		}(role)
	}
	wg.Wait()
	close(errs)

	var ok, conflicts int
	for err := range errs {
		switch err {
		case nil:
			ok++
		case memberstore.ErrVersionConflict:
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if ok != 1 || conflicts != 1 {
		t.Errorf("ok=%d conflicts=%d, want 1 and 1", ok, conflicts)
	}
}

func TestStore_List_FilterAndPaging(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := memberstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := fixtures.CreateUser(ctx, "Owner", "owner@x.com")
	project := fixtures.CreateProject(ctx, owner, "Alpha")
	for _, email := range []string{"ann@x.com", "bob@x.com", "anna@y.com"} {
		fixtures.InviteMember(ctx, project.ID, email)
	}

	rows, total, err := store.List(ctx, project.ID, owner.ID, memberstore.ListFilter{Email: "ann"}, paging.Page{Current: 1, PerPage: 6})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if total != 2 || len(rows) != 2 {
		t.Errorf("email filter: total=%d rows=%d, want 2 and 2", total, len(rows))
	}

	rows, total, err = store.List(ctx, project.ID, owner.ID, memberstore.ListFilter{}, paging.Page{Current: 2, PerPage: 3})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if total != 4 {
		t.Errorf("total = %d, want 4", total)
	}
	if len(rows) != 1 {
		t.Errorf("page 2 rows = %d, want 1", len(rows))
	}

	rows, _, err = store.List(ctx, project.ID, owner.ID, memberstore.ListFilter{Status: models.MemberAccepted}, paging.Page{Current: 1, PerPage: 6})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(rows) != 1 || !rows[0].IsAdmin || rows[0].User == nil || rows[0].User.Email != "owner@x.com" {
		t.Errorf("expected only the caller's owner row flagged, got %+v", rows)
	}
}

func TestStore_ProjectsForUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := memberstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	a := fixtures.CreateUser(ctx, "A", "a@x.com")
	b := fixtures.CreateUser(ctx, "B", "b@x.com")
	alpha := fixtures.CreateProject(ctx, a, "Alpha")
	beta := fixtures.CreateProject(ctx, a, "Beta")
	fixtures.AddAcceptedMember(ctx, alpha.ID, b, models.MemberRoleMember)
	fixtures.InviteMember(ctx, beta.ID, b.Email)

	projects, err := store.ProjectsForUser(ctx, b.ID)
	if err != nil {
		t.Fatalf("ProjectsForUser failed: %v", err)
	}
	if len(projects) != 1 || projects[0].ID != alpha.ID || projects[0].Role != models.MemberRoleMember {
		t.Errorf("expected only Alpha as member, got %+v", projects)
	}
}

func TestStore_DeleteNonOwnerIDs(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := memberstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := fixtures.CreateUser(ctx, "Owner", "owner@x.com")
	project := fixtures.CreateProject(ctx, owner, "Alpha")
	fixtures.InviteMember(ctx, project.ID, "m1@x.com")
	fixtures.InviteMember(ctx, project.ID, "m2@x.com")

	ids, err := store.NonOwnerIDs(ctx, project.ID)
	if err != nil {
		t.Fatalf("NonOwnerIDs failed: %v", err)
	}
	if len(ids) != 2 {
		t.Errorf("NonOwnerIDs = %d ids, want 2", len(ids))
	}

	// Joins after the id snapshot survive the delete.
	late := fixtures.InviteMember(ctx, project.ID, "late@x.com")
	ownerRow, err := store.FindByUserAndProject(ctx, owner.ID, project.ID)
	if err != nil {
		t.Fatalf("FindByUserAndProject: %v", err)
	}

	n, err := store.DeleteNonOwnerIDs(ctx, project.ID, append(ids, ownerRow.ID))
	if err != nil {
		t.Fatalf("DeleteNonOwnerIDs failed: %v", err)
	}
	if n != 2 {
		t.Errorf("deleted %d, want 2", n)
	}
	if _, err := store.GetByID(ctx, late.ID); err != nil {
		t.Errorf("late invite was deleted: %v", err)
	}
	if _, err := store.GetByID(ctx, ownerRow.ID); err != nil {
		t.Errorf("owner row was deleted: %v", err)
	}

	if n, err := store.DeleteNonOwnerIDs(ctx, project.ID, nil); err != nil || n != 0 {
		t.Errorf("DeleteNonOwnerIDs(nil) = (%d, %v), want (0, nil)", n, err)
	}
}

func TestStore_BindUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := memberstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	projectID := primitive.NewObjectID()
	m, _ := store.Create(ctx, models.ProjectMember{MemberEmailID: "late@x.com", ProjectID: projectID})
	userID := primitive.NewObjectID()

	n, err := store.BindUser(ctx, "LATE@x.com", userID)
	if err != nil {
		t.Fatalf("BindUser failed: %v", err)
	}
	if n != 1 {
		t.Errorf("bound %d rows, want 1", n)
	}
	got, _ := store.FindByUserAndProject(ctx, userID, projectID)
	if got == nil || got.ID != m.ID || got.Status != models.MemberPending {
		t.Errorf("expected pending row bound to user, got %+v", got)
	}
}

func TestStore_ReopenAndReclose(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := memberstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	m, err := store.Create(ctx, models.ProjectMember{MemberEmailID: "b@x.com", ProjectID: primitive.NewObjectID()})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := store.Reopen(ctx, m.ID, m.Version); err != memberstore.ErrVersionConflict {
		t.Fatalf("Reopen of a pending row: got %v, want ErrVersionConflict", err)
	}

	rejected, err := store.Respond(ctx, m.ID, primitive.NewObjectID(), models.MemberRejected, m.Version)
	if err != nil {
		t.Fatalf("Respond: %v", err)
	}
	reopened, err := store.Reopen(ctx, m.ID, rejected.Version)
	if err != nil {
		t.Fatalf("Reopen: %v", err)
	}
	if reopened.Status != models.MemberPending || reopened.Version != rejected.Version+1 {
		t.Errorf("reopened = status %q version %d, want pending at %d", reopened.Status, reopened.Version, rejected.Version+1)
	}
	if _, err := store.Reopen(ctx, m.ID, rejected.Version); err != memberstore.ErrVersionConflict {
		t.Errorf("second Reopen at a stale version: got %v, want ErrVersionConflict", err)
	}

	closed, err := store.Reclose(ctx, m.ID, reopened.Version)
	if err != nil {
		t.Fatalf("Reclose: %v", err)
	}
	if closed.Status != models.MemberRejected {
		t.Errorf("status after Reclose = %q, want rejected", closed.Status)
	}
}
