package projects_test

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/projecthub/internal/app/features/account"
	"github.com/dalemusser/projecthub/internal/app/features/projects"
	"github.com/dalemusser/projecthub/internal/app/system/tokens"
	"github.com/dalemusser/projecthub/internal/app/system/uploads"
	"github.com/dalemusser/projecthub/internal/domain/models"
	"github.com/dalemusser/projecthub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const secret = "test-secret-test-secret-test-secret"

type env struct {
	db   *mongo.Database
	h    *projects.Handler
	fx   *testutil.Fixtures
	ts   *tokens.Service
	mail *testutil.MailBox
}

func newEnv(t *testing.T) env {
	t.Helper()
	db := testutil.SetupTestDB(t)
	testutil.EnsureIndexes(t, db)
	ts := tokens.New(secret, "projecthub-test", tokens.TTLs{})
	mail := &testutil.MailBox{}
	h := projects.NewHandler(db, ts, mail, nil, nil,
		projects.Links{SiteName: "ProjectHub", InviteURL: "http://app.test/invite"}, zap.NewNop())
	return env{db: db, h: h, fx: testutil.NewFixtures(t, db), ts: ts, mail: mail}
}

func withProject(r *http.Request, id primitive.ObjectID) *http.Request {
	return testutil.WithChiURLParam(r, "projectID", id.Hex())
}

func count(t *testing.T, db *mongo.Database, coll string, filter bson.M) int64 {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()
	n, err := db.Collection(coll).CountDocuments(ctx, filter)
	if err != nil {
		t.Fatalf("count %s: %v", coll, err)
	}
	return n
}

type projectOut struct {
	Project struct {
		ID     string   `json:"id"`
		Name   string   `json:"name"`
		Labels []string `json:"labels"`
	} `json:"project"`
}

func createProject(t *testing.T, e env, user testutil.TestUser, name string) (*testutil.ResponseRecorder, projectOut) {
	t.Helper()
	rec := testutil.NewRecorder()
	e.h.Create(rec, testutil.NewAuthenticatedJSONRequest("POST", "/projects", user,
		map[string]any{"name": name, "description": "d", "tags": []string{"go"}}))
	var out projectOut
	if rec.Code == http.StatusCreated {
		rec.DecodeMessage(t, &out)
	}
	return rec, out
}

func TestCreate_OwnerMembershipAndLabels(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	a := e.fx.CreateUser(ctx, "Alice", "a@x.com")

	rec, out := createProject(t, e, testutil.AsTestUser(a), "Alpha")
	rec.AssertStatus(t, http.StatusCreated)
	pid, _ := primitive.ObjectIDFromHex(out.Project.ID)

	if n := count(t, e.db, "project_members", bson.M{"project_id": pid, "role": "owner"}); n != 1 {
		t.Errorf("owner rows = %d, want 1", n)
	}
	if n := count(t, e.db, "project_members", bson.M{"project_id": pid, "user_id": a.ID, "status": "accepted"}); n != 1 {
		t.Errorf("accepted owner membership missing")
	}
	if n := count(t, e.db, "labels", bson.M{"project_id": pid}); n != 19 {
		t.Errorf("labels = %d, want 19", n)
	}
	if len(out.Project.Labels) != 19 {
		t.Errorf("project label ids = %d, want 19", len(out.Project.Labels))
	}
}

func TestCreate_Quota(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	free := testutil.AsTestUser(e.fx.CreateUser(ctx, "Free", "free@x.com"))
	rec, _ := createProject(t, e, free, "One")
	rec.AssertStatus(t, http.StatusCreated)
	rec, _ = createProject(t, e, free, "Two")
	rec.AssertStatus(t, http.StatusBadRequest)
	if got := rec.ErrorMsg(t); !strings.Contains(got, "project limit") {
		t.Errorf("got %q, want quota message", got)
	}

	premium := testutil.AsTestUser(e.fx.CreateUserWithPricing(ctx, "Prem", "prem@x.com", models.PricingPremium))
	for i := 1; i <= 10; i++ {
		rec, _ := createProject(t, e, premium, "P")
		rec.AssertStatus(t, http.StatusCreated)
	}
	rec, _ = createProject(t, e, premium, "P11")
	rec.AssertStatus(t, http.StatusBadRequest)
}

func TestAlphaScenario(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	a := e.fx.CreateUser(ctx, "Alice", "a@x.com")
	ua := testutil.AsTestUser(a)
	_, alpha := createProject(t, e, ua, "Alpha")
	pid, _ := primitive.ObjectIDFromHex(alpha.Project.ID)

	// A invites b@x.com before B has an account.
	rec := testutil.NewRecorder()
	e.h.Invite(rec, withProject(testutil.NewAuthenticatedJSONRequest("POST", "/members", ua,
		map[string]string{"email": "b@x.com"}), pid))
	rec.AssertStatus(t, http.StatusCreated)
	if n := count(t, e.db, "project_members", bson.M{"project_id": pid, "member_email_id": "b@x.com", "status": "pending"}); n != 1 {
		t.Fatalf("pending membership missing")
	}
	inviteTok := tokenFromLink(t, e.mail.Last().TextBody)
	claims, err := e.ts.Verify(inviteTok, tokens.PurposeInvite)
	if err != nil {
		t.Fatalf("invite token: %v", err)
	}
	if ttl := claims.ExpiresAt.Sub(claims.IssuedAt.Time); ttl != tokens.DefaultInviteTTL {
		t.Errorf("invite TTL = %v, want %v", ttl, tokens.DefaultInviteTTL)
	}

	// B registers through the account endpoints.
	acct := account.NewHandler(e.db, e.ts, e.mail, uploads.NewLocal(t.TempDir(), ""), nil, nil, account.Links{}, zap.NewNop())
	regTok, _ := e.ts.IssueRegistration("b@x.com", "Bob")
	rec = testutil.NewRecorder()
	acct.CreatePassword(rec, testutil.NewJSONRequest("POST", "/auth/create-password",
		map[string]string{"password": "secret1", "confirmPassword": "secret1", "token": regTok}))
	rec.AssertStatus(t, http.StatusOK)
	var reg struct {
		User models.User `json:"user"`
	}
	rec.DecodeMessage(t, &reg)
	ub := testutil.AsTestUser(reg.User)

	// B redeems the invite.
	rec = testutil.NewRecorder()
	e.h.Respond(rec, testutil.NewAuthenticatedJSONRequest("POST", "/projects/invites/respond", ub,
		map[string]string{"token": inviteTok, "status": "accepted"}))
	rec.AssertStatus(t, http.StatusOK)

	var m models.ProjectMember
	if err := e.db.Collection("project_members").FindOne(ctx, bson.M{"project_id": pid, "member_email_id": "b@x.com"}).Decode(&m); err != nil {
		t.Fatalf("find membership: %v", err)
	}
	if m.Status != models.MemberAccepted || m.Role != models.MemberRoleMember {
		t.Errorf("membership = %s/%s, want accepted/member", m.Status, m.Role)
	}
	if m.UserID == nil || *m.UserID != reg.User.ID {
		t.Errorf("membership user = %v, want %s", m.UserID, reg.User.ID.Hex())
	}

	rec = testutil.NewRecorder()
	e.h.List(rec, testutil.NewAuthenticatedRequest("GET", "/projects", ub))
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"name":"Alpha"`)

	// Redeeming again is a no-op success.
	version := m.Version
	rec = testutil.NewRecorder()
	e.h.Respond(rec, testutil.NewAuthenticatedJSONRequest("POST", "/projects/invites/respond", ub,
		map[string]string{"token": inviteTok, "status": "accepted"}))
	rec.AssertStatus(t, http.StatusOK)
	if n := count(t, e.db, "project_members", bson.M{"project_id": pid, "member_email_id": "b@x.com"}); n != 1 {
		t.Errorf("duplicate membership created: %d", n)
	}
	if n := count(t, e.db, "project_members", bson.M{"_id": m.ID, "version": version, "role": "member"}); n != 1 {
		t.Error("second redemption wrote to the membership")
	}
}

func tokenFromLink(t *testing.T, body string) string {
	t.Helper()
	i := strings.Index(body, "token=")
	if i < 0 {
		t.Fatalf("no token in mail body: %s", body)
	}
	tok := body[i+len("token="):]
	if j := strings.IndexAny(tok, " \n\r\t"); j >= 0 {
		tok = tok[:j]
	}
	return tok
}

func TestInvite_Rules(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := e.fx.CreateUser(ctx, "Owner", "owner@x.com")
	member := e.fx.CreateUser(ctx, "Member", "member@x.com")
	stranger := e.fx.CreateUser(ctx, "Stranger", "stranger@x.com")
	proj := e.fx.CreateProject(ctx, owner, "Alpha")
	e.fx.AddAcceptedMember(ctx, proj.ID, member, models.MemberRoleMember)

	invite := func(user models.User, email string) *testutil.ResponseRecorder {
		rec := testutil.NewRecorder()
		e.h.Invite(rec, withProject(testutil.NewAuthenticatedJSONRequest("POST", "/members",
			testutil.AsTestUser(user), map[string]string{"email": email}), proj.ID))
		return rec
	}

	invite(stranger, "new@x.com").AssertStatus(t, http.StatusForbidden)
	invite(owner, "OWNER@x.com").AssertStatus(t, http.StatusBadRequest)

	rec := invite(owner, "member@x.com")
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, projects.MsgAlreadyMember)

	invite(member, "c@x.com").AssertStatus(t, http.StatusCreated)
	invite(owner, "c@x.com").AssertStatus(t, http.StatusBadRequest)

	// owner + member + c = 3 of 5 free slots.
	invite(owner, "d@x.com").AssertStatus(t, http.StatusCreated)
	invite(owner, "e@x.com").AssertStatus(t, http.StatusCreated)
	rec = invite(owner, "f@x.com")
	rec.AssertStatus(t, http.StatusBadRequest)
	if got := rec.ErrorMsg(t); !strings.Contains(got, "member limit") {
		t.Errorf("got %q, want member quota message", got)
	}
}

func TestInvite_ExistingAccountIsBound(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := e.fx.CreateUser(ctx, "Owner", "owner@x.com")
	bob := e.fx.CreateUser(ctx, "Bob", "bob@x.com")
	proj := e.fx.CreateProject(ctx, owner, "Alpha")

	rec := testutil.NewRecorder()
	e.h.Invite(rec, withProject(testutil.NewAuthenticatedJSONRequest("POST", "/members",
		testutil.AsTestUser(owner), map[string]string{"email": "bob@x.com"}), proj.ID))
	rec.AssertStatus(t, http.StatusCreated)

	if n := count(t, e.db, "project_members", bson.M{"project_id": proj.ID, "user_id": bob.ID, "status": "pending"}); n != 1 {
		t.Error("pending invite for an existing account should carry its user id")
	}
}

func TestRespond_Rules(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := e.fx.CreateUser(ctx, "Owner", "owner@x.com")
	bob := e.fx.CreateUser(ctx, "Bob", "bob@x.com")
	eve := e.fx.CreateUser(ctx, "Eve", "eve@x.com")
	proj := e.fx.CreateProject(ctx, owner, "Alpha")
	m := e.fx.InviteMember(ctx, proj.ID, "bob@x.com")
	tok, _ := e.ts.IssueInvite("bob@x.com", proj.ID.Hex(), m.ID.Hex())

	respond := func(user models.User, token, status string) *testutil.ResponseRecorder {
		rec := testutil.NewRecorder()
		e.h.Respond(rec, testutil.NewAuthenticatedJSONRequest("POST", "/projects/invites/respond",
			testutil.AsTestUser(user), map[string]string{"token": token, "status": status}))
		return rec
	}

	respond(eve, tok, "accepted").AssertStatus(t, http.StatusForbidden)
	respond(bob, "garbage", "accepted").AssertStatus(t, http.StatusBadRequest)

	lapsed := e.ts.WithClock(func() time.Time { return time.Now().Add(-8 * 24 * time.Hour) })
	stale, _ := lapsed.IssueInvite("bob@x.com", proj.ID.Hex(), m.ID.Hex())
	rec := respond(bob, stale, "accepted")
	rec.AssertStatus(t, http.StatusBadRequest)
	if got := rec.ErrorType(t); got != "expired_token" {
		t.Errorf("error type = %q, want expired_token", got)
	}
	if n := count(t, e.db, "project_members", bson.M{"_id": m.ID, "status": "pending"}); n != 1 {
		t.Error("an expired invite must leave the row pending")
	}

	rec = respond(bob, tok, "rejected")
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, projects.MsgInviteRejected)

	rec = respond(bob, tok, "accepted")
	rec.AssertStatus(t, http.StatusBadRequest)
	if got := rec.ErrorMsg(t); got != projects.MsgInviteClosed {
		t.Errorf("got %q, want %q", got, projects.MsgInviteClosed)
	}
}

func TestInvite_ReopensRejected(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := e.fx.CreateUser(ctx, "Owner", "owner@x.com")
	bob := e.fx.CreateUser(ctx, "Bob", "bob@x.com")
	proj := e.fx.CreateProject(ctx, owner, "Alpha")
	m := e.fx.InviteMember(ctx, proj.ID, "bob@x.com")
	tok, _ := e.ts.IssueInvite("bob@x.com", proj.ID.Hex(), m.ID.Hex())

	rec := testutil.NewRecorder()
	e.h.Respond(rec, testutil.NewAuthenticatedJSONRequest("POST", "/projects/invites/respond",
		testutil.AsTestUser(bob), map[string]string{"token": tok, "status": "rejected"}))
	rec.AssertStatus(t, http.StatusOK)

	rec = testutil.NewRecorder()
	e.h.Invite(rec, withProject(testutil.NewAuthenticatedJSONRequest("POST", "/members",
		testutil.AsTestUser(owner), map[string]string{"email": "bob@x.com"}), proj.ID))
	rec.AssertStatus(t, http.StatusCreated)

	if n := count(t, e.db, "project_members", bson.M{"project_id": proj.ID, "member_email_id": "bob@x.com"}); n != 1 {
		t.Fatalf("rows for bob = %d, want the reopened row only", n)
	}
	if n := count(t, e.db, "project_members", bson.M{"_id": m.ID, "status": "pending", "version": bson.M{"$gt": m.Version}}); n != 1 {
		t.Error("rejected row should be pending again with a newer version")
	}

	again := tokenFromLink(t, e.mail.Last().TextBody)
	rec = testutil.NewRecorder()
	e.h.Respond(rec, testutil.NewAuthenticatedJSONRequest("POST", "/projects/invites/respond",
		testutil.AsTestUser(bob), map[string]string{"token": again, "status": "accepted"}))
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, projects.MsgInviteAccepted)
}

func TestDelete_Cascade(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := e.fx.CreateUser(ctx, "Owner", "owner@x.com")
	admin := e.fx.CreateUser(ctx, "Admin", "admin@x.com")
	_, created := createProject(t, e, testutil.AsTestUser(owner), "Alpha")
	pid, _ := primitive.ObjectIDFromHex(created.Project.ID)
	e.fx.AddAcceptedMember(ctx, pid, admin, models.MemberRoleAdmin)
	e.fx.InviteMember(ctx, pid, "p@x.com")
	task := e.fx.CreateTask(ctx, pid, owner.ID, "t1")
	e.fx.CreateTask(ctx, pid, owner.ID, "t2")
	issue := e.fx.CreateIssue(ctx, pid, owner.ID, "i1")
	e.fx.CreateComment(ctx, models.Attachment{Kind: models.AttachTask, ID: task.ID}, owner.ID, "c1")
	e.fx.CreateComment(ctx, models.Attachment{Kind: models.AttachIssue, ID: issue.ID}, owner.ID, "c2")

	// Other projects are untouched.
	other := e.fx.CreateProject(ctx, admin, "Beta")
	e.fx.CreateTask(ctx, other.ID, admin.ID, "keep")

	rec := testutil.NewRecorder()
	e.h.Delete(rec, withProject(testutil.NewAuthenticatedRequest("DELETE", "/", testutil.AsTestUser(admin)), pid))
	rec.AssertStatus(t, http.StatusForbidden)

	rec = testutil.NewRecorder()
	e.h.Delete(rec, withProject(testutil.NewAuthenticatedRequest("DELETE", "/", testutil.AsTestUser(owner)), pid))
	rec.AssertStatus(t, http.StatusOK)

	for coll, filter := range map[string]bson.M{
		"projects":        {"_id": pid},
		"project_members": {"project_id": pid},
		"project_tasks":   {"project_id": pid},
		"issues":          {"project_id": pid},
		"labels":          {"project_id": pid},
		"comments":        {},
	} {
		if n := count(t, e.db, coll, filter); n != 0 {
			t.Errorf("%s: %d rows remain", coll, n)
		}
	}
	if n := count(t, e.db, "project_tasks", bson.M{"project_id": other.ID}); n != 1 {
		t.Errorf("other project's tasks = %d, want 1", n)
	}
}

func TestUpdate_OwnerOrAdmin(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := e.fx.CreateUser(ctx, "Owner", "owner@x.com")
	admin := e.fx.CreateUser(ctx, "Admin", "admin@x.com")
	member := e.fx.CreateUser(ctx, "Member", "member@x.com")
	proj := e.fx.CreateProject(ctx, owner, "Alpha")
	e.fx.AddAcceptedMember(ctx, proj.ID, admin, models.MemberRoleAdmin)
	e.fx.AddAcceptedMember(ctx, proj.ID, member, models.MemberRoleMember)

	update := func(u models.User, name string) *testutil.ResponseRecorder {
		rec := testutil.NewRecorder()
		e.h.Update(rec, withProject(testutil.NewAuthenticatedJSONRequest("PUT", "/", testutil.AsTestUser(u),
			map[string]any{"name": name}), proj.ID))
		return rec
	}
	update(member, "Nope").AssertStatus(t, http.StatusForbidden)
	rec := update(admin, "Alpha 2")
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"name":"Alpha 2"`)

	rec = testutil.NewRecorder()
	e.h.Get(rec, withProject(testutil.NewAuthenticatedRequest("GET", "/", testutil.AsTestUser(member)), primitive.NewObjectID()))
	rec.AssertStatus(t, http.StatusBadRequest)
	if got := rec.ErrorMsg(t); got != "Project not found" {
		t.Errorf("got %q", got)
	}
}

func TestRemoveMember_DetachesAssignments(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := e.fx.CreateUser(ctx, "Owner", "owner@x.com")
	admin := e.fx.CreateUser(ctx, "Admin", "admin@x.com")
	bob := e.fx.CreateUser(ctx, "Bob", "bob@x.com")
	proj := e.fx.CreateProject(ctx, owner, "Alpha")
	adm := e.fx.AddAcceptedMember(ctx, proj.ID, admin, models.MemberRoleAdmin)
	mb := e.fx.AddAcceptedMember(ctx, proj.ID, bob, models.MemberRoleMember)

	task := e.fx.CreateTask(ctx, proj.ID, owner.ID, "t")
	issue := e.fx.CreateIssue(ctx, proj.ID, owner.ID, "i")
	_, _ = e.db.Collection("project_tasks").UpdateByID(ctx, task.ID, bson.M{"$set": bson.M{"assigned_to": []primitive.ObjectID{mb.ID}}})
	_, _ = e.db.Collection("issues").UpdateByID(ctx, issue.ID, bson.M{"$set": bson.M{"assignees": []primitive.ObjectID{mb.ID, adm.ID}}})

	remove := func(actor models.User, target primitive.ObjectID) *testutil.ResponseRecorder {
		req := withProject(testutil.NewAuthenticatedRequest("DELETE", "/", testutil.AsTestUser(actor)), proj.ID)
		req = testutil.WithChiURLParam(req, "memberID", target.Hex())
		rec := testutil.NewRecorder()
		e.h.RemoveMember(rec, req)
		return rec
	}

	ownerRow, _ := e.h.Members.FindByUserAndProject(ctx, owner.ID, proj.ID)
	rec := remove(admin, ownerRow.ID)
	rec.AssertStatus(t, http.StatusForbidden)
	if got := rec.ErrorMsg(t); got != projects.MsgCannotRemove {
		t.Errorf("got %q", got)
	}
	remove(bob, adm.ID).AssertStatus(t, http.StatusForbidden)

	remove(admin, mb.ID).AssertStatus(t, http.StatusOK)
	if n := count(t, e.db, "project_members", bson.M{"_id": mb.ID}); n != 0 {
		t.Error("member row still present")
	}
	if n := count(t, e.db, "project_tasks", bson.M{"assigned_to": mb.ID}); n != 0 {
		t.Error("removed member still assigned to a task")
	}
	if n := count(t, e.db, "issues", bson.M{"_id": issue.ID, "assignees": adm.ID}); n != 1 {
		t.Error("other assignees should be kept")
	}
}

func TestRemoveAllMembers(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := e.fx.CreateUser(ctx, "Owner", "owner@x.com")
	admin := e.fx.CreateUser(ctx, "Admin", "admin@x.com")
	proj := e.fx.CreateProject(ctx, owner, "Alpha")
	e.fx.AddAcceptedMember(ctx, proj.ID, admin, models.MemberRoleAdmin)
	e.fx.InviteMember(ctx, proj.ID, "p@x.com")

	rec := testutil.NewRecorder()
	e.h.RemoveAllMembers(rec, withProject(testutil.NewAuthenticatedRequest("DELETE", "/", testutil.AsTestUser(admin)), proj.ID))
	rec.AssertStatus(t, http.StatusForbidden)

	rec = testutil.NewRecorder()
	e.h.RemoveAllMembers(rec, withProject(testutil.NewAuthenticatedRequest("DELETE", "/", testutil.AsTestUser(owner)), proj.ID))
	rec.AssertStatus(t, http.StatusOK)
	if n := count(t, e.db, "project_members", bson.M{"project_id": proj.ID}); n != 1 {
		t.Errorf("rows left = %d, want only the owner", n)
	}
}

func TestUpdateRole(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := e.fx.CreateUser(ctx, "Owner", "owner@x.com")
	bob := e.fx.CreateUser(ctx, "Bob", "bob@x.com")
	proj := e.fx.CreateProject(ctx, owner, "Alpha")
	mb := e.fx.AddAcceptedMember(ctx, proj.ID, bob, models.MemberRoleMember)
	ownerRow, _ := e.h.Members.FindByUserAndProject(ctx, owner.ID, proj.ID)

	setRole := func(actor models.User, target primitive.ObjectID, role string) *testutil.ResponseRecorder {
		req := withProject(testutil.NewAuthenticatedJSONRequest("PUT", "/", testutil.AsTestUser(actor),
			map[string]string{"role": role}), proj.ID)
		req = testutil.WithChiURLParam(req, "memberID", target.Hex())
		rec := testutil.NewRecorder()
		e.h.UpdateRole(rec, req)
		return rec
	}

	setRole(bob, mb.ID, "admin").AssertStatus(t, http.StatusForbidden)
	setRole(owner, ownerRow.ID, "member").AssertStatus(t, http.StatusForbidden)
	setRole(owner, mb.ID, "owner").AssertStatus(t, http.StatusBadRequest)

	rec := setRole(owner, mb.ID, "admin")
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"role":"admin"`)
	if n := count(t, e.db, "project_members", bson.M{"_id": mb.ID, "version": mb.Version + 1}); n != 1 {
		t.Error("version not bumped by role change")
	}
}

func TestListMembersAndLabels(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := e.fx.CreateUser(ctx, "Owner", "owner@x.com")
	stranger := e.fx.CreateUser(ctx, "Stranger", "s@x.com")
	_, created := createProject(t, e, testutil.AsTestUser(owner), "Alpha")
	pid, _ := primitive.ObjectIDFromHex(created.Project.ID)
	e.fx.InviteMember(ctx, pid, "p1@x.com")
	e.fx.InviteMember(ctx, pid, "p2@x.com")

	rec := testutil.NewRecorder()
	e.h.ListMembers(rec, withProject(testutil.NewAuthenticatedRequest("GET", "/?status=pending", testutil.AsTestUser(owner)), pid))
	rec.AssertStatus(t, http.StatusOK)
	var list struct {
		TotalCount int64 `json:"totalCount"`
	}
	rec.DecodeMessage(t, &list)
	if list.TotalCount != 2 {
		t.Errorf("pending members = %d, want 2", list.TotalCount)
	}

	rec = testutil.NewRecorder()
	e.h.ListMembers(rec, withProject(testutil.NewAuthenticatedRequest("GET", "/", testutil.AsTestUser(stranger)), pid))
	rec.AssertStatus(t, http.StatusForbidden)

	rec = testutil.NewRecorder()
	e.h.ListLabels(rec, withProject(testutil.NewAuthenticatedRequest("GET", "/", testutil.AsTestUser(owner)), pid))
	rec.AssertStatus(t, http.StatusOK)
	var labels struct {
		Labels []models.Label `json:"labels"`
	}
	rec.DecodeMessage(t, &labels)
	if len(labels.Labels) != 19 || labels.Labels[0].Name != "bug" {
		t.Errorf("labels = %d (first %+v)", len(labels.Labels), labels.Labels)
	}
}
