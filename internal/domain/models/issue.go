// internal/domain/models/issue.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Issue status values.
const (
	IssueOpen   = "open"
	IssueClosed = "closed"
)

// Issue is a project work item tracked by open/closed state.
// Assignees holds ProjectMember ids. Labels holds label names.
type Issue struct {
	ID              primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Title           string               `bson:"title" json:"title"`
	Description     string               `bson:"description" json:"description"`
	Status          string               `bson:"status" json:"status"`
	Priority        string               `bson:"priority" json:"priority"`
	ProjectID       primitive.ObjectID   `bson:"project_id" json:"projectId"`
	UserID          primitive.ObjectID   `bson:"user_id" json:"userId"`
	Labels          []string             `bson:"labels" json:"labels"`
	Assignees       []primitive.ObjectID `bson:"assignees" json:"assignees"`
	Comments        []primitive.ObjectID `bson:"comments" json:"comments"`
	ClosedIssueDate *time.Time           `bson:"closed_issue_date,omitempty" json:"closedIssueDate,omitempty"`
	ClosedBy        *primitive.ObjectID  `bson:"closed_by,omitempty" json:"closedBy,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// IssueRow is a display-ready issue returned by list queries.
type IssueRow struct {
	Issue           `bson:",inline"`
	User            *UserSummary    `bson:"user,omitempty" json:"user,omitempty"`
	AssignedMembers []MemberSummary `bson:"assigned_members" json:"assignedMembers"`
	CommentCount    int             `bson:"comment_count" json:"commentCount"`
	IsCreator       bool            `bson:"is_creator" json:"isCreator"`
	IsAssignee      bool            `bson:"is_assignee" json:"isAssignee"`
}

// IssueCounts is returned alongside issue listings.
type IssueCounts struct {
	Open   int64 `json:"open"`
	Closed int64 `json:"closed"`
}

// IssueBucket groups the rows of one status in grouped listings.
type IssueBucket struct {
	Issues []IssueRow `json:"issues"`
	Count  int        `json:"count"`
}
