package projects

import (
	"context"
	"net/http"
	"strings"

	projectstore "github.com/dalemusser/projecthub/internal/app/store/projects"
	"github.com/dalemusser/projecthub/internal/app/system/apierr"
	"github.com/dalemusser/projecthub/internal/app/system/auth"
	"github.com/dalemusser/projecthub/internal/app/system/authz"
	"github.com/dalemusser/projecthub/internal/app/system/inputval"
	"github.com/dalemusser/projecthub/internal/app/system/timeouts"
	"github.com/dalemusser/projecthub/internal/app/system/txn"
	"github.com/dalemusser/projecthub/internal/domain/models"
	"go.uber.org/zap"
)

type createBody struct {
	Name        string   `json:"name" validate:"required,max=100" msg:"Name should be required."`
	Description string   `json:"description" validate:"max=2000"`
	Tags        []string `json:"tags" validate:"max=20,dive,max=40"`
	Image       string   `json:"image" validate:"omitempty,url" msg:"Image should be a valid URL."`
}

type updateBody struct {
	Name        *string  `json:"name" validate:"omitempty,min=1,max=100" msg:"Name should be between 1 and 100 characters."`
	Description *string  `json:"description" validate:"omitempty,max=2000"`
	Tags        []string `json:"tags" validate:"omitempty,max=20,dive,max=40"`
	Image       *string  `json:"image" validate:"omitempty,url" msg:"Image should be a valid URL."`
}

// List returns the projects the caller has accepted, with the caller's role.
// GET /projects
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	su, _ := auth.CurrentUser(r)
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "projects.list")
	defer cancel()

	list, err := h.Members.ProjectsForUser(ctx, su.ObjectID())
	if err != nil {
		h.fail(w, err)
		return
	}
	apierr.WriteOK(w, map[string]any{"projects": list})
}

// Create adds a project owned by the caller, subject to the caller's plan
// quota. The project, its owner membership and its default labels are
// written as one unit.
// POST /projects
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	su, _ := auth.CurrentUser(r)
	var body createBody
	if err := inputval.DecodeJSON(w, r, &body); err != nil {
		h.fail(w, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "projects.create")
	defer cancel()

	if err := h.Policy.CheckProjectQuota(ctx, su.ObjectID(), authz.PricingModel(r)); err != nil {
		h.fail(w, err)
		return
	}

	owner := models.User{ID: su.ObjectID(), Email: su.Email}
	var created models.Project
	err := txn.Run(ctx, h.DB, h.Log, func(ctx context.Context) error {
		p, err := h.createProject(ctx, owner, models.Project{
			Name:        body.Name,
			Description: strings.TrimSpace(body.Description),
			Tags:        body.Tags,
			Image:       strings.TrimSpace(body.Image),
			UserID:      owner.ID,
		})
		created = p
		return err
	})
	if err != nil {
		h.fail(w, err)
		return
	}

	h.Metrics.Created("project")
	h.Audit.ProjectCreated(ctx, r, owner.ID, created.ID, created.Name)
	h.Log.Info("project created", zap.String("project_id", created.ID.Hex()), zap.String("user_id", owner.ID.Hex()))
	apierr.WriteCreated(w, map[string]any{"project": created})
}

// createProject inserts the project, the owner row and the label catalog.
// If a later step fails the project is deleted again so no ownerless
// project is left behind.
func (h *Handler) createProject(ctx context.Context, owner models.User, p models.Project) (_ models.Project, err error) {
	p, err = h.Projects.Create(ctx, p)
	if err != nil {
		return models.Project{}, err
	}
	defer func() {
		if err == nil {
			return
		}
		if _, cerr := h.Labels.DeleteAllForProject(ctx, p.ID); cerr != nil {
			h.Log.Warn("compensate labels failed", zap.String("project_id", p.ID.Hex()), zap.Error(cerr))
		}
		if _, cerr := h.Members.DeleteAllForProject(ctx, p.ID); cerr != nil {
			h.Log.Warn("compensate members failed", zap.String("project_id", p.ID.Hex()), zap.Error(cerr))
		}
		if cerr := h.Projects.Delete(ctx, p.ID); cerr != nil {
			h.Log.Error("compensate project failed; orphan reconciler will retry",
				zap.String("project_id", p.ID.Hex()), zap.Error(cerr))
		}
	}()

	if _, err = h.Members.CreateOwner(ctx, p.ID, owner); err != nil {
		return models.Project{}, err
	}
	ids, err := h.Labels.SeedDefaults(ctx, p.ID)
	if err != nil {
		return models.Project{}, err
	}
	if err = h.Projects.SetLabels(ctx, p.ID, ids); err != nil {
		return models.Project{}, err
	}
	p.Labels = ids
	return p, nil
}

// Get returns a project together with the caller's membership.
// GET /projects/{projectID}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	su, _ := auth.CurrentUser(r)
	pid, err := projectID(r)
	if err != nil {
		h.fail(w, err)
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "projects.get")
	defer cancel()

	a, err := h.Policy.RequireAcceptedMember(ctx, pid, su.ObjectID())
	if err != nil {
		h.fail(w, err)
		return
	}
	apierr.WriteOK(w, map[string]any{"project": a.Project, "member": a.Member})
}

// Update edits the project's details. Owners and admins only.
// PUT /projects/{projectID}
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	su, _ := auth.CurrentUser(r)
	pid, err := projectID(r)
	if err != nil {
		h.fail(w, err)
		return
	}
	var body updateBody
	if err := inputval.DecodeJSON(w, r, &body); err != nil {
		h.fail(w, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "projects.update")
	defer cancel()

	if _, err := h.Policy.RequireOwnerOrAdmin(ctx, pid, su.ObjectID()); err != nil {
		h.fail(w, err)
		return
	}
	upd := projectstore.Update{Name: body.Name, Description: body.Description, Tags: body.Tags, Image: body.Image}
	p, err := h.Projects.Update(ctx, pid, upd)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.Audit.ProjectUpdated(ctx, r, su.ObjectID(), pid, strings.Join(upd.Fields(), ","))
	apierr.WriteOK(w, map[string]any{"project": p})
}

// Delete removes the project and everything scoped to it. Owner only.
// DELETE /projects/{projectID}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	su, _ := auth.CurrentUser(r)
	pid, err := projectID(r)
	if err != nil {
		h.fail(w, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Batch(), h.Log, "projects.delete")
	defer cancel()

	a, err := h.Policy.RequireOwner(ctx, pid, su.ObjectID())
	if err != nil {
		h.fail(w, err)
		return
	}
	var removed Removed
	err = txn.Run(ctx, h.DB, h.Log, func(ctx context.Context) error {
		var err error
		removed, err = h.Cascade(ctx, pid)
		return err
	})
	if err != nil {
		h.fail(w, err)
		return
	}

	h.Audit.ProjectDeleted(ctx, r, su.ObjectID(), pid, a.Project.Name)
	h.Log.Info("project deleted",
		zap.String("project_id", pid.Hex()),
		zap.Int64("members", removed.Members),
		zap.Int64("tasks", removed.Tasks),
		zap.Int64("issues", removed.Issues),
		zap.Int64("comments", removed.Comments),
	)
	apierr.WriteOK(w, map[string]any{"msg": MsgProjectDeleted, "deletedProjectId": pid})
}
