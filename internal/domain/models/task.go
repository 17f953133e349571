// internal/domain/models/task.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Task status values. Completed is terminal and stamps CompletedDate.
const (
	TaskTodo        = "todo"
	TaskInProgress  = "in_progress"
	TaskUnderReview = "under_review"
	TaskCompleted   = "completed"
)

// TaskStatuses lists the task states in board order.
var TaskStatuses = []string{TaskTodo, TaskInProgress, TaskUnderReview, TaskCompleted}

// Work item priorities, shared by tasks and issues.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// Task is a project work item on the board.
// AssignedTo holds ProjectMember ids, never user ids.
type Task struct {
	ID            primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Title         string               `bson:"title" json:"title"`
	Description   string               `bson:"description" json:"description"`
	Status        string               `bson:"status" json:"status"`
	Priority      string               `bson:"priority" json:"priority"`
	ProjectID     primitive.ObjectID   `bson:"project_id" json:"projectId"`
	UserID        primitive.ObjectID   `bson:"user_id" json:"userId"`
	StartDate     *time.Time           `bson:"start_date,omitempty" json:"startDate,omitempty"`
	EndDate       *time.Time           `bson:"end_date,omitempty" json:"endDate,omitempty"`
	Tags          []string             `bson:"tags" json:"tags"`
	AssignedTo    []primitive.ObjectID `bson:"assigned_to" json:"assignedTo"`
	CompletedDate *time.Time           `bson:"completed_date,omitempty" json:"completedDate,omitempty"`
	Attachments   []string             `bson:"attachments" json:"attachments"`
	Comments      []primitive.ObjectID `bson:"comments" json:"comments"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// TaskRow is a display-ready task returned by list queries.
type TaskRow struct {
	Task            `bson:",inline"`
	User            *UserSummary    `bson:"user,omitempty" json:"user,omitempty"`
	AssignedMembers []MemberSummary `bson:"assigned_members" json:"assignedMembers"`
	CommentCount    int             `bson:"comment_count" json:"commentCount"`
	IsCreator       bool            `bson:"is_creator" json:"isCreator"`
	IsAssignee      bool            `bson:"is_assignee" json:"isAssignee"`
}

// TaskBucket groups the rows of one status in grouped listings.
type TaskBucket struct {
	Tasks []TaskRow `json:"tasks"`
	Count int       `json:"count"`
}
