package projects

import (
	"context"
	"net/http"

	"github.com/dalemusser/projecthub/internal/app/policy/projectpolicy"
	memberstore "github.com/dalemusser/projecthub/internal/app/store/projectmembers"
	"github.com/dalemusser/projecthub/internal/app/system/apierr"
	"github.com/dalemusser/projecthub/internal/app/system/auth"
	"github.com/dalemusser/projecthub/internal/app/system/inputval"
	"github.com/dalemusser/projecthub/internal/app/system/paging"
	"github.com/dalemusser/projecthub/internal/app/system/timeouts"
	"github.com/dalemusser/projecthub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type roleBody struct {
	Role string `json:"role" validate:"required,oneof=admin member" msg:"Role should be admin or member."`
}

type memberList struct {
	Members    []models.MemberRow `json:"members"`
	TotalCount int64              `json:"totalCount"`
	TotalPages int64              `json:"totalPages"`
}

// ListMembers lists a project's memberships.
// GET /projects/{projectID}/members?email=&status=&currentPage=&perPage=
func (h *Handler) ListMembers(w http.ResponseWriter, r *http.Request) {
	su, _ := auth.CurrentUser(r)
	pid, err := projectID(r)
	if err != nil {
		h.fail(w, err)
		return
	}
	f := memberstore.ListFilter{Email: query.Get(r, "email"), Status: query.Get(r, "status")}
	switch f.Status {
	case "", models.MemberPending, models.MemberAccepted, models.MemberRejected:
	default:
		h.fail(w, apierr.Validation("status", "query", "status should be one of: pending, accepted, rejected."))
		return
	}
	page := paging.Parse(r)

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "projects.members")
	defer cancel()

	if _, err := h.Policy.RequireAcceptedMember(ctx, pid, su.ObjectID()); err != nil {
		h.fail(w, err)
		return
	}
	rows, total, err := h.Members.List(ctx, pid, su.ObjectID(), f, page)
	if err != nil {
		h.fail(w, err)
		return
	}
	apierr.WriteOK(w, memberList{Members: rows, TotalCount: total, TotalPages: page.TotalPages(total)})
}

// RemoveMember deletes one membership and takes it off every task and
// issue. Owners and admins only; the owner row cannot be removed and only
// the owner may remove an admin.
// DELETE /projects/{projectID}/members/{memberID}
func (h *Handler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	su, _ := auth.CurrentUser(r)
	pid, err := projectID(r)
	if err != nil {
		h.fail(w, err)
		return
	}
	mid, err := memberID(r)
	if err != nil {
		h.fail(w, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "projects.remove-member")
	defer cancel()

	a, err := h.Policy.RequireOwnerOrAdmin(ctx, pid, su.ObjectID())
	if err != nil {
		h.fail(w, err)
		return
	}
	target, err := h.Members.GetByID(ctx, mid)
	if err != nil {
		h.fail(w, err)
		return
	}
	if target.ProjectID != pid {
		h.fail(w, apierr.NotFound(projectpolicy.MsgMemberNotFound))
		return
	}
	if target.Role == models.MemberRoleOwner || (target.Role == models.MemberRoleAdmin && !a.IsOwner()) {
		h.fail(w, apierr.Forbidden(MsgCannotRemove))
		return
	}

	if err := h.detach(ctx, pid, mid); err != nil {
		h.fail(w, err)
		return
	}
	if err := h.Members.DeleteOne(ctx, mid); err != nil {
		h.fail(w, err)
		return
	}
	h.Audit.MemberRemoved(ctx, r, su.ObjectID(), pid, mid)
	apierr.WriteOK(w, map[string]any{"msg": MsgMemberRemoved, "memberId": mid})
}

// RemoveAllMembers deletes every non-owner membership. Owner only. Only the
// rows that were detached from assignee lists are deleted.
// DELETE /projects/{projectID}/members
func (h *Handler) RemoveAllMembers(w http.ResponseWriter, r *http.Request) {
	su, _ := auth.CurrentUser(r)
	pid, err := projectID(r)
	if err != nil {
		h.fail(w, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "projects.remove-all-members")
	defer cancel()

	if _, err := h.Policy.RequireOwner(ctx, pid, su.ObjectID()); err != nil {
		h.fail(w, err)
		return
	}
	ids, err := h.Members.NonOwnerIDs(ctx, pid)
	if err != nil {
		h.fail(w, err)
		return
	}
	for _, id := range ids {
		if err := h.detach(ctx, pid, id); err != nil {
			h.fail(w, err)
			return
		}
	}
	n, err := h.Members.DeleteNonOwnerIDs(ctx, pid, ids)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.Audit.MembersCleared(ctx, r, su.ObjectID(), pid, n)
	apierr.WriteOK(w, map[string]any{"msg": MsgMembersRemoved, "removed": n})
}

// detach pulls a membership id out of every assignee list in the project.
func (h *Handler) detach(ctx context.Context, pid, mid primitive.ObjectID) error {
	nt, err := h.Tasks.UnassignEverywhere(ctx, pid, mid)
	if err != nil {
		return err
	}
	ni, err := h.Issues.UnassignEverywhere(ctx, pid, mid)
	if err != nil {
		return err
	}
	if nt+ni > 0 {
		h.Log.Debug("member unassigned",
			zap.String("member_id", mid.Hex()), zap.Int64("tasks", nt), zap.Int64("issues", ni))
	}
	return nil
}

// UpdateRole switches a member between admin and member. Owner only; the
// write is a compare-and-set on the row's version.
// PUT /projects/{projectID}/members/{memberID}/role
func (h *Handler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	su, _ := auth.CurrentUser(r)
	pid, err := projectID(r)
	if err != nil {
		h.fail(w, err)
		return
	}
	mid, err := memberID(r)
	if err != nil {
		h.fail(w, err)
		return
	}
	var body roleBody
	if err := inputval.DecodeJSON(w, r, &body); err != nil {
		h.fail(w, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "projects.update-role")
	defer cancel()

	if _, err := h.Policy.RequireOwner(ctx, pid, su.ObjectID()); err != nil {
		h.fail(w, err)
		return
	}
	target, err := h.Members.GetByID(ctx, mid)
	if err != nil {
		h.fail(w, err)
		return
	}
	if target.ProjectID != pid {
		h.fail(w, apierr.NotFound(projectpolicy.MsgMemberNotFound))
		return
	}
	if target.Role == models.MemberRoleOwner {
		h.fail(w, apierr.Forbidden(MsgCannotChangeRole))
		return
	}
	if target.Role == body.Role {
		apierr.WriteOK(w, map[string]any{"member": target})
		return
	}

	updated, err := h.Members.UpdateRole(ctx, mid, body.Role, target.Version)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.Audit.MemberRoleChanged(ctx, r, su.ObjectID(), pid, mid, body.Role)
	apierr.WriteOK(w, map[string]any{"member": updated})
}
