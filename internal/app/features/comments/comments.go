package comments

import (
	"context"
	"net/http"

	"github.com/dalemusser/projecthub/internal/app/policy/projectpolicy"
	"github.com/dalemusser/projecthub/internal/app/system/apierr"
	"github.com/dalemusser/projecthub/internal/app/system/auth"
	"github.com/dalemusser/projecthub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/projecthub/internal/app/system/inputval"
	"github.com/dalemusser/projecthub/internal/app/system/timeouts"
	"github.com/dalemusser/projecthub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type contentBody struct {
	Content string `json:"content" validate:"required,max=5000" msg:"Content should be required."`
}

// scope is a resolved request: the caller's project access and the
// work item the thread belongs to.
type scope struct {
	access projectpolicy.Access
	target models.Attachment
}

// resolve checks the caller is an accepted member of the project in the
// path and that the work item belongs to it.
func (h *Handler) resolve(ctx context.Context, r *http.Request) (scope, error) {
	su, _ := auth.CurrentUser(r)
	pid, err := inputval.ObjectID(chi.URLParam(r, "projectID"), "projectId", "params")
	if err != nil {
		return scope{}, err
	}
	itemID, err := inputval.ObjectID(chi.URLParam(r, h.Target.Param), h.Target.Param, "params")
	if err != nil {
		return scope{}, err
	}
	a, err := h.Policy.RequireAcceptedMember(ctx, pid, su.ObjectID())
	if err != nil {
		return scope{}, err
	}
	owner, err := h.Target.Items.ProjectOf(ctx, itemID)
	if err != nil {
		return scope{}, err
	}
	if owner != pid {
		return scope{}, apierr.NotFound(h.Target.MsgNotFound)
	}
	return scope{access: a, target: models.Attachment{Kind: h.Target.Kind, ID: itemID}}, nil
}

// comment loads the comment in the path and requires it to sit on the
// resolved work item.
func (h *Handler) comment(ctx context.Context, r *http.Request, sc scope) (*models.Comment, error) {
	id, err := inputval.ObjectID(chi.URLParam(r, "commentID"), "commentId", "params")
	if err != nil {
		return nil, err
	}
	c, err := h.Comments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.Target != sc.target {
		return nil, apierr.NotFound(MsgNotFound)
	}
	return c, nil
}

func content(w http.ResponseWriter, r *http.Request) (string, error) {
	var body contentBody
	if err := inputval.DecodeJSON(w, r, &body); err != nil {
		return "", err
	}
	clean := htmlsanitize.Sanitize(body.Content)
	if clean == "" {
		return "", apierr.Validation("content", "body", MsgEmptyContent)
	}
	return clean, nil
}

// List returns the top-level comments of a work item, oldest first.
// GET .../{itemID}/comments
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "comments.list")
	defer cancel()

	sc, err := h.resolve(ctx, r)
	if err != nil {
		h.fail(w, err)
		return
	}
	rows, err := h.Comments.ListForTarget(ctx, sc.target, sc.access.UserID)
	if err != nil {
		h.fail(w, err)
		return
	}
	apierr.WriteOK(w, map[string]any{"comments": rows})
}

// Create adds a top-level comment and records it on the work item.
// POST .../{itemID}/comments
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	text, err := content(w, r)
	if err != nil {
		h.fail(w, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "comments.create")
	defer cancel()

	sc, err := h.resolve(ctx, r)
	if err != nil {
		h.fail(w, err)
		return
	}
	c, err := h.Comments.Create(ctx, sc.target, sc.access.UserID, text)
	if err != nil {
		h.fail(w, err)
		return
	}
	if err := h.Target.Items.AddComment(ctx, sc.target.ID, c.ID); err != nil {
		if _, derr := h.Comments.Delete(ctx, c); derr != nil {
			h.Log.Warn("remove unlinked comment failed", zap.String("comment_id", c.ID.Hex()), zap.Error(derr))
		}
		h.fail(w, err)
		return
	}
	h.Metrics.Created("comment")
	apierr.WriteCreated(w, map[string]any{"comment": c})
}

// Update edits a comment. Authors and project moderators may edit.
// PUT .../{itemID}/comments/{commentID}
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	text, err := content(w, r)
	if err != nil {
		h.fail(w, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "comments.update")
	defer cancel()

	sc, err := h.resolve(ctx, r)
	if err != nil {
		h.fail(w, err)
		return
	}
	c, err := h.comment(ctx, r, sc)
	if err != nil {
		h.fail(w, err)
		return
	}
	if err := sc.access.RequireModify(c.UserID); err != nil {
		h.fail(w, err)
		return
	}
	updated, err := h.Comments.UpdateContent(ctx, c.ID, text)
	if err != nil {
		h.fail(w, err)
		return
	}
	apierr.WriteOK(w, map[string]any{"comment": updated})
}

// Delete removes a comment. A reply leaves its parent's reply list; a
// top-level comment takes its replies along and leaves the work item's
// comment list.
// DELETE .../{itemID}/comments/{commentID}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "comments.delete")
	defer cancel()

	sc, err := h.resolve(ctx, r)
	if err != nil {
		h.fail(w, err)
		return
	}
	c, err := h.comment(ctx, r, sc)
	if err != nil {
		h.fail(w, err)
		return
	}
	if err := sc.access.RequireModify(c.UserID); err != nil {
		h.fail(w, err)
		return
	}
	if _, err := h.Comments.Delete(ctx, *c); err != nil {
		h.fail(w, err)
		return
	}
	if c.ParentID == nil {
		if err := h.Target.Items.RemoveComment(ctx, sc.target.ID, c.ID); err != nil {
			h.fail(w, err)
			return
		}
	}
	apierr.WriteOK(w, map[string]any{"msg": MsgDeleted, "deletedCommentId": c.ID})
}

// Replies lists the replies under a comment.
// GET .../{itemID}/comments/{commentID}/replies
func (h *Handler) Replies(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "comments.replies")
	defer cancel()

	sc, err := h.resolve(ctx, r)
	if err != nil {
		h.fail(w, err)
		return
	}
	c, err := h.comment(ctx, r, sc)
	if err != nil {
		h.fail(w, err)
		return
	}
	rows, err := h.Comments.Replies(ctx, c.ID, sc.access.UserID)
	if err != nil {
		h.fail(w, err)
		return
	}
	apierr.WriteOK(w, map[string]any{"replies": rows})
}

// Reply adds a reply under a top-level comment.
// POST .../{itemID}/comments/{commentID}/replies
func (h *Handler) Reply(w http.ResponseWriter, r *http.Request) {
	text, err := content(w, r)
	if err != nil {
		h.fail(w, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "comments.reply")
	defer cancel()

	sc, err := h.resolve(ctx, r)
	if err != nil {
		h.fail(w, err)
		return
	}
	parent, err := h.comment(ctx, r, sc)
	if err != nil {
		h.fail(w, err)
		return
	}
	reply, err := h.Comments.CreateReply(ctx, *parent, sc.access.UserID, text)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.Metrics.Created("comment")
	apierr.WriteCreated(w, map[string]any{"comment": reply, "parentId": parent.ID})
}
