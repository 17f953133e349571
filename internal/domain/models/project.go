// internal/domain/models/project.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Project is a collaboration space. The creator is recorded in UserID but
// access flows only through ProjectMember rows.
type Project struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Name        string               `bson:"name" json:"name"`
	Description string               `bson:"description" json:"description"`
	Tags        []string             `bson:"tags" json:"tags"`
	UserID      primitive.ObjectID   `bson:"user_id" json:"userId"`
	Image       string               `bson:"image,omitempty" json:"image,omitempty"`
	Labels      []primitive.ObjectID `bson:"labels" json:"labels"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// ProjectWithRole is a project row joined with the caller's membership.
type ProjectWithRole struct {
	Project  `bson:",inline"`
	MemberID primitive.ObjectID `bson:"member_id" json:"memberId"`
	Role     string             `bson:"role" json:"role"`
	Status   string             `bson:"status" json:"status"`
}
