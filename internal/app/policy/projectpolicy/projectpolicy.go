// Package projectpolicy decides who may act on a project and its content.
//
// Every project-scoped handler resolves an Access through this package
// before touching data: load the project, load the caller's membership,
// require it to be accepted, then apply the operation rule (owner only,
// owner or admin, or author-or-moderator). The first failing check wins.
package projectpolicy

import (
	"context"
	"errors"

	memberstore "github.com/dalemusser/projecthub/internal/app/store/projectmembers"
	projectstore "github.com/dalemusser/projecthub/internal/app/store/projects"
	"github.com/dalemusser/projecthub/internal/app/system/apierr"
	"github.com/dalemusser/projecthub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// User-facing messages.
const (
	MsgProjectNotFound  = "Project not found"
	MsgMemberNotFound   = "Project member not found"
	MsgNotMember        = "User is not a member of the project"
	MsgOwnerOnly        = "Only the project owner can perform this action."
	MsgOwnerOrAdminOnly = "Only a project owner or admin can perform this action."
	MsgNoPermission     = "You do not have permission to perform this action."
	MsgNotAssignable    = "Member is not an accepted member of this project."
)

// Policy resolves project access against the membership collection.
type Policy struct {
	projects *projectstore.Store
	members  *memberstore.Store
}

func New(db *mongo.Database) *Policy {
	return &Policy{projects: projectstore.New(db), members: memberstore.New(db)}
}

// Access is the resolved scope of a caller inside one project.
type Access struct {
	UserID  primitive.ObjectID
	Project *models.Project
	Member  *models.ProjectMember // the caller's accepted membership
}

// IsOwner reports whether the caller holds the owner role.
func (a Access) IsOwner() bool {
	return a.Member != nil && a.Member.Role == models.MemberRoleOwner
}

// IsProjectOwnerOrAdmin is true for the project's creator and for members
// holding the owner or admin role.
func (a Access) IsProjectOwnerOrAdmin() bool {
	if a.Project != nil && a.Project.UserID == a.UserID {
		return true
	}
	if a.Member == nil {
		return false
	}
	return a.Member.Role == models.MemberRoleOwner || a.Member.Role == models.MemberRoleAdmin
}

// CanModify reports whether the caller may edit or delete content authored
// by authorID: authors always can, moderators can edit anyone's.
func (a Access) CanModify(authorID primitive.ObjectID) bool {
	return authorID == a.UserID || a.IsProjectOwnerOrAdmin()
}

// RequireModify is CanModify as an error.
func (a Access) RequireModify(authorID primitive.ObjectID) error {
	if !a.CanModify(authorID) {
		return apierr.Forbidden(MsgNoPermission)
	}
	return nil
}

// Project loads a project or fails with NotFound.
func (p *Policy) Project(ctx context.Context, projectID primitive.ObjectID) (*models.Project, error) {
	proj, err := p.projects.GetByID(ctx, projectID)
	if errors.Is(err, projectstore.ErrNotFound) {
		return nil, apierr.NotFound(MsgProjectNotFound)
	}
	if err != nil {
		return nil, err
	}
	return proj, nil
}

// RequireAcceptedMember resolves the caller's access to a project. It
// fails with NotFound when the project is missing and Forbidden unless the
// caller holds an accepted membership.
func (p *Policy) RequireAcceptedMember(ctx context.Context, projectID, userID primitive.ObjectID) (Access, error) {
	proj, err := p.Project(ctx, projectID)
	if err != nil {
		return Access{}, err
	}
	m, err := p.members.FindByUserAndProject(ctx, userID, projectID)
	if errors.Is(err, memberstore.ErrNotFound) {
		return Access{}, apierr.Forbidden(MsgNotMember)
	}
	if err != nil {
		return Access{}, err
	}
	if !m.IsAccepted() {
		return Access{}, apierr.Forbidden(MsgNotMember)
	}
	return Access{UserID: userID, Project: proj, Member: m}, nil
}

// RequireOwner is RequireAcceptedMember plus the owner role.
func (p *Policy) RequireOwner(ctx context.Context, projectID, userID primitive.ObjectID) (Access, error) {
	a, err := p.RequireAcceptedMember(ctx, projectID, userID)
	if err != nil {
		return Access{}, err
	}
	if !a.IsOwner() {
		return Access{}, apierr.Forbidden(MsgOwnerOnly)
	}
	return a, nil
}

// RequireOwnerOrAdmin is RequireAcceptedMember plus IsProjectOwnerOrAdmin.
func (p *Policy) RequireOwnerOrAdmin(ctx context.Context, projectID, userID primitive.ObjectID) (Access, error) {
	a, err := p.RequireAcceptedMember(ctx, projectID, userID)
	if err != nil {
		return Access{}, err
	}
	if !a.IsProjectOwnerOrAdmin() {
		return Access{}, apierr.Forbidden(MsgOwnerOrAdminOnly)
	}
	return a, nil
}

// IsProjectOwnerOrAdmin answers the moderator question without an Access.
// A missing project or membership yields false.
func (p *Policy) IsProjectOwnerOrAdmin(ctx context.Context, projectID, userID primitive.ObjectID) (bool, error) {
	a, err := p.RequireAcceptedMember(ctx, projectID, userID)
	if err != nil {
		if apierr.IsKind(err, apierr.KindNotFound) || apierr.IsKind(err, apierr.KindForbidden) {
			return false, nil
		}
		return false, err
	}
	return a.IsProjectOwnerOrAdmin(), nil
}

// Assignable loads memberID and requires it to be an accepted membership
// of the same project as the work item.
func (p *Policy) Assignable(ctx context.Context, projectID, memberID primitive.ObjectID) (*models.ProjectMember, error) {
	m, err := p.members.GetByID(ctx, memberID)
	if errors.Is(err, memberstore.ErrNotFound) {
		return nil, apierr.NotFound(MsgMemberNotFound)
	}
	if err != nil {
		return nil, err
	}
	if m.ProjectID != projectID || !m.IsAccepted() || m.UserID == nil {
		return nil, apierr.Validation("memberId", "body", MsgNotAssignable)
	}
	return m, nil
}

// AssignableAll is Assignable for a batch, resolved with one query. The
// result follows the order of ids. The first id that is not an accepted
// member of projectID is rechecked singly so the error matches Assignable.
func (p *Policy) AssignableAll(ctx context.Context, projectID primitive.ObjectID, ids []primitive.ObjectID) ([]*models.ProjectMember, error) {
	if len(ids) == 0 {
		return []*models.ProjectMember{}, nil
	}
	found, err := p.members.AcceptedIn(ctx, projectID, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[primitive.ObjectID]*models.ProjectMember, len(found))
	for i := range found {
		if found[i].UserID != nil {
			byID[found[i].ID] = &found[i]
		}
	}
	out := make([]*models.ProjectMember, 0, len(ids))
	for _, id := range ids {
		m, ok := byID[id]
		if !ok {
			if _, err := p.Assignable(ctx, projectID, id); err != nil {
				return nil, err
			}
			return nil, apierr.Validation("memberId", "body", MsgNotAssignable)
		}
		out = append(out, m)
	}
	return out, nil
}
