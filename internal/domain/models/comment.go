// internal/domain/models/comment.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AttachmentKind names the kind of work item a comment hangs off.
type AttachmentKind string

const (
	AttachTask  AttachmentKind = "PROJECT_TASK"
	AttachIssue AttachmentKind = "PROJECT_ISSUE"
)

// Valid reports whether k is a known attachment kind.
func (k AttachmentKind) Valid() bool {
	switch k {
	case AttachTask, AttachIssue:
		return true
	}
	return false
}

// Attachment is the typed pointer from a comment to its task or issue.
type Attachment struct {
	Kind AttachmentKind     `bson:"kind" json:"kind"`
	ID   primitive.ObjectID `bson:"id" json:"id"`
}

// Comment belongs to one task or issue. Replies are one level deep:
// a reply has ParentID set and never carries replies of its own.
type Comment struct {
	ID       primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Content  string               `bson:"content" json:"content"`
	UserID   primitive.ObjectID   `bson:"user_id" json:"userId"`
	Likes    int                  `bson:"likes" json:"likes"`
	Replies  []primitive.ObjectID `bson:"replies" json:"replies"`
	ParentID *primitive.ObjectID  `bson:"parent_id,omitempty" json:"parentId,omitempty"`
	Target   Attachment           `bson:"target" json:"target"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// CommentRow is a display-ready comment.
type CommentRow struct {
	Comment    `bson:",inline"`
	User       *UserSummary `bson:"user,omitempty" json:"user,omitempty"`
	IsCreator  bool         `bson:"is_creator" json:"isCreator"`
	ReplyCount int          `bson:"reply_count" json:"replyCount"`
}
