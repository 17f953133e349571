// internal/domain/models/projectmember.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Membership status values.
const (
	MemberPending  = "pending"
	MemberAccepted = "accepted"
	MemberRejected = "rejected"
)

// Membership roles.
const (
	MemberRoleOwner  = "owner"
	MemberRoleAdmin  = "admin"
	MemberRoleMember = "member"
)

// ProjectMember binds an email (and, once known, a user) to a project.
// Exactly one document per (member_email_id, project_id). Its _id is the
// key used in task/issue assignee lists.
//
// Version is bumped on every status/role write and used for
// compare-and-set updates.
type ProjectMember struct {
	ID            primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	MemberEmailID string              `bson:"member_email_id" json:"memberEmailId"`
	UserID        *primitive.ObjectID `bson:"user_id,omitempty" json:"userId,omitempty"`
	ProjectID     primitive.ObjectID  `bson:"project_id" json:"projectId"`
	Status        string              `bson:"status" json:"status"` // pending | accepted | rejected
	Role          string              `bson:"role" json:"role"`     // owner | admin | member
	Version       int64               `bson:"version" json:"version"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// IsAccepted reports whether the membership grants project access.
func (m ProjectMember) IsAccepted() bool {
	return m.Status == MemberAccepted
}

// MemberSummary is the assignee display projection.
type MemberSummary struct {
	ID            primitive.ObjectID `bson:"_id" json:"id"`
	MemberEmailID string             `bson:"member_email_id" json:"memberEmailId"`
}

// MemberRow is one entry of the project member listing.
type MemberRow struct {
	ProjectMember `bson:",inline"`
	User          *UserSummary `bson:"user,omitempty" json:"user,omitempty"`
	IsAdmin       bool         `bson:"is_admin" json:"isAdmin"`
}
