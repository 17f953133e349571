// internal/domain/models/label.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Label is a per-project tag usable on issues.
type Label struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name"`
	Description string             `bson:"description" json:"description"`
	Color       string             `bson:"color" json:"color"`
	IsDeleted   bool               `bson:"is_deleted" json:"isDelete"`
	ProjectID   primitive.ObjectID `bson:"project_id" json:"projectId"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// LabelSpec is one entry of the default catalog.
type LabelSpec struct {
	Name        string
	Description string
	Color       string
}

// DefaultLabels returns a fresh copy of the starter catalog seeded into
// every new project.
func DefaultLabels() []LabelSpec {
	return []LabelSpec{
		{"bug", "An issue related to a bug or error in code", "#d73a4a"},
		{"documentation", "Issue related to documentation improvements", "#0075ca"},
		{"enhancement", "Request for a new feature or improvement", "#a2eeef"},
		{"question", "Questions or clarification needed", "#d876e3"},
		{"help wanted", "Indicates help is requested", "#008672"},
		{"good first issue", "Easy for new contributors", "#7057ff"},
		{"wontfix", "Won’t be resolved", "#ffffff"},
		{"invalid", "Issue not valid or reproducible", "#e4e669"},
		{"duplicate", "Issue already reported elsewhere", "#cfd3d7"},
		{"priority: high", "High-priority issue that needs quick action", "#b60205"},
		{"priority: medium", "Medium-priority issue", "#fbca04"},
		{"priority: low", "Low-priority issue", "#0e8a16"},
		{"performance", "Issues related to performance improvements", "#f7c6c7"},
		{"security", "Security-related issue", "#e99695"},
		{"refactor", "Code refactoring without adding features", "#fef2c0"},
		{"backend", "Backend-related issues", "#e83e8c"},
		{"frontend", "Frontend-related issues", "#0e8a16"},
		{"accessibility", "Issues related to accessibility", "#fbca04"},
		{"testing", "Issues related to testing", "#6f42c1"},
	}
}
