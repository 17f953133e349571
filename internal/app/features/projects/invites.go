package projects

import (
	"context"
	"errors"
	"net/http"

	memberstore "github.com/dalemusser/projecthub/internal/app/store/projectmembers"
	userstore "github.com/dalemusser/projecthub/internal/app/store/users"
	"github.com/dalemusser/projecthub/internal/app/system/apierr"
	"github.com/dalemusser/projecthub/internal/app/system/auth"
	"github.com/dalemusser/projecthub/internal/app/system/authz"
	"github.com/dalemusser/projecthub/internal/app/system/inputval"
	"github.com/dalemusser/projecthub/internal/app/system/mailer"
	"github.com/dalemusser/projecthub/internal/app/system/normalize"
	"github.com/dalemusser/projecthub/internal/app/system/timeouts"
	"github.com/dalemusser/projecthub/internal/app/system/tokens"
	"github.com/dalemusser/projecthub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type inviteBody struct {
	Email string `json:"email" validate:"required,email" msg:"Email should be a valid email."`
}

type respondBody struct {
	Token  string `json:"token" validate:"required" msg:"Token should be required."`
	Status string `json:"status" validate:"required,oneof=accepted rejected" msg:"Status should be accepted or rejected."`
}

// Invite adds a pending membership for an email and mails it a 7-day
// invite link. Inviting someone who already accepted is a no-op success.
// POST /projects/{projectID}/members
func (h *Handler) Invite(w http.ResponseWriter, r *http.Request) {
	su, _ := auth.CurrentUser(r)
	pid, err := projectID(r)
	if err != nil {
		h.fail(w, err)
		return
	}
	var body inviteBody
	if err := inputval.DecodeJSON(w, r, &body); err != nil {
		h.fail(w, err)
		return
	}
	email := normalize.Email(body.Email)

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "projects.invite")
	defer cancel()

	a, err := h.Policy.RequireAcceptedMember(ctx, pid, su.ObjectID())
	if err != nil {
		h.fail(w, err)
		return
	}
	if email == normalize.Email(su.Email) {
		h.fail(w, apierr.Validation("email", "body", MsgInviteSelf))
		return
	}

	existing, err := h.Members.FindByEmailAndProject(ctx, email, pid)
	switch {
	case err == nil && existing.IsAccepted():
		apierr.WriteOK(w, map[string]any{"msg": MsgAlreadyMember, "member": existing})
		return
	case err == nil && existing.Status == models.MemberRejected:
		h.reinvite(ctx, w, r, a.Project, existing)
		return
	case err == nil:
		h.fail(w, apierr.Conflict(MsgAlreadyMember))
		return
	case !errors.Is(err, memberstore.ErrNotFound):
		h.fail(w, err)
		return
	}

	if err := h.Policy.CheckMemberQuota(ctx, pid, authz.PricingModel(r)); err != nil {
		h.fail(w, err)
		return
	}

	m := models.ProjectMember{MemberEmailID: email, ProjectID: pid}
	if u, err := h.Users.GetByEmail(ctx, email); err == nil {
		m.UserID = &u.ID
	} else if !errors.Is(err, userstore.ErrNotFound) {
		h.fail(w, err)
		return
	}
	m, err = h.Members.Create(ctx, m)
	if errors.Is(err, memberstore.ErrDuplicateMember) {
		h.fail(w, apierr.Conflict(MsgAlreadyMember))
		return
	}
	if err != nil {
		h.fail(w, err)
		return
	}

	if err := h.sendInvite(ctx, a.Project, su.Name, m); err != nil {
		// The row without a delivered invite would block a retry.
		if derr := h.Members.DeleteOne(ctx, m.ID); derr != nil {
			h.Log.Warn("remove undelivered invite failed", zap.String("member_id", m.ID.Hex()), zap.Error(derr))
		}
		h.fail(w, err)
		return
	}

	h.Audit.MemberInvited(ctx, r, su.ObjectID(), pid, email)
	apierr.WriteCreated(w, map[string]any{"msg": MsgInviteSent, "member": m})
}

// reinvite reopens a rejected row for the same email. The row keeps its id,
// so its version guards against a concurrent respond or second reinvite.
func (h *Handler) reinvite(ctx context.Context, w http.ResponseWriter, r *http.Request, p *models.Project, prev *models.ProjectMember) {
	su, _ := auth.CurrentUser(r)
	if err := h.Policy.CheckMemberQuota(ctx, p.ID, authz.PricingModel(r)); err != nil {
		h.fail(w, err)
		return
	}
	m, err := h.Members.Reopen(ctx, prev.ID, prev.Version)
	if errors.Is(err, memberstore.ErrVersionConflict) {
		h.fail(w, apierr.Conflict(MsgAlreadyMember))
		return
	}
	if err != nil {
		h.fail(w, err)
		return
	}

	if err := h.sendInvite(ctx, p, su.Name, *m); err != nil {
		if _, rerr := h.Members.Reclose(ctx, m.ID, m.Version); rerr != nil {
			h.Log.Warn("restore rejected invite failed", zap.String("member_id", m.ID.Hex()), zap.Error(rerr))
		}
		h.fail(w, err)
		return
	}

	h.Audit.MemberInvited(ctx, r, su.ObjectID(), p.ID, m.MemberEmailID)
	apierr.WriteCreated(w, map[string]any{"msg": MsgInviteSent, "member": m})
}

func (h *Handler) sendInvite(ctx context.Context, p *models.Project, inviter string, m models.ProjectMember) error {
	tok, err := h.Tokens.IssueInvite(m.MemberEmailID, p.ID.Hex(), m.ID.Hex())
	if err != nil {
		return err
	}
	msg := mailer.BuildInviteEmail(mailer.InviteEmailData{
		SiteName:    h.Links.SiteName,
		ProjectName: p.Name,
		InviterName: inviter,
		Link:        mailer.LinkWithToken(h.Links.InviteURL, tok),
		ExpiresIn:   "7 days",
	})
	msg.To = m.MemberEmailID
	return h.Mail.Send(ctx, msg)
}

// Respond redeems an invite token, accepting or rejecting the membership.
// Redeeming an already-accepted invite again succeeds without writing.
// POST /projects/invites/respond
func (h *Handler) Respond(w http.ResponseWriter, r *http.Request) {
	su, _ := auth.CurrentUser(r)
	var body respondBody
	if err := inputval.DecodeJSON(w, r, &body); err != nil {
		h.fail(w, err)
		return
	}
	claims, err := h.Tokens.Verify(body.Token, tokens.PurposeInvite)
	switch {
	case errors.Is(err, tokens.ErrExpired):
		h.fail(w, apierr.ExpiredToken(""))
		return
	case err != nil:
		h.fail(w, apierr.Validation("token", "body", "Invalid token"))
		return
	}
	mid, err := primitive.ObjectIDFromHex(claims.MemberID)
	if err != nil {
		h.fail(w, apierr.Validation("token", "body", "Invalid token"))
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "projects.respond")
	defer cancel()

	m, err := h.Members.GetByID(ctx, mid)
	if err != nil {
		h.fail(w, err)
		return
	}
	if m.MemberEmailID != normalize.Email(su.Email) {
		h.fail(w, apierr.Forbidden(MsgInviteNotYours))
		return
	}
	if m.IsAccepted() {
		apierr.WriteOK(w, map[string]any{"msg": MsgInviteAccepted, "member": m})
		return
	}
	if m.Status != models.MemberPending {
		h.fail(w, apierr.Conflict(MsgInviteClosed))
		return
	}

	updated, err := h.Members.Respond(ctx, m.ID, su.ObjectID(), body.Status, m.Version)
	if errors.Is(err, memberstore.ErrVersionConflict) {
		// A concurrent accept of the same invite is still a success.
		cur, gerr := h.Members.GetByID(ctx, m.ID)
		if gerr == nil && cur.IsAccepted() && body.Status == models.MemberAccepted {
			apierr.WriteOK(w, map[string]any{"msg": MsgInviteAccepted, "member": cur})
			return
		}
		h.fail(w, apierr.Conflict(MsgInviteClosed))
		return
	}
	if err != nil {
		h.fail(w, err)
		return
	}

	accepted := updated.IsAccepted()
	h.Audit.InviteResponded(ctx, r, su.ObjectID(), updated.ProjectID, accepted)
	msg := MsgInviteRejected
	if accepted {
		msg = MsgInviteAccepted
	}
	apierr.WriteOK(w, map[string]any{"msg": msg, "member": updated})
}
