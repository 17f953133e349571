// Package workitems holds the listing pipelines shared by tasks and issues:
// author and assignee joins, per-caller flags, sorting, and either a flat
// paginated page or a status-grouped shape.
package workitems

import (
	"context"
	"regexp"
	"time"

	"github.com/dalemusser/projecthub/internal/app/system/paging"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Viewer identifies who is asking; it drives is_creator / is_assignee.
type Viewer struct {
	UserID   primitive.ObjectID
	MemberID primitive.ObjectID
}

// Spec describes one listing over a work-item collection.
type Spec struct {
	Match         bson.M // base filter built by the owning store
	AssigneeField string // "assigned_to" for tasks, "assignees" for issues
	Viewer        Viewer
	Ascending     bool // sort by created_at ascending instead of newest first
}

// Group is one status bucket of a grouped listing.
type Group[T any] struct {
	Status string `bson:"_id"`
	Rows   []T    `bson:"rows"`
	Count  int    `bson:"count"`
}

// TitleContains builds a case-insensitive substring match for free text.
// Blank input returns nil.
func TitleContains(s string) bson.M {
	if s == "" {
		return nil
	}
	return bson.M{"$regex": regexp.QuoteMeta(s), "$options": "i"}
}

// StartOfDay returns midnight UTC of the day containing t.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// EnrichStages joins the author and assignee display fields and adds the
// comment count and the viewer flags.
func EnrichStages(assigneeField string, v Viewer) []bson.M {
	return []bson.M{
		{"$lookup": bson.M{
			"from":         "users",
			"localField":   "user_id",
			"foreignField": "_id",
			"pipeline": []bson.M{
				{"$project": bson.M{"full_name": 1, "email": 1, "avatar": 1}},
			},
			"as": "user",
		}},
		{"$unwind": bson.M{"path": "$user", "preserveNullAndEmptyArrays": true}},
		{"$lookup": bson.M{
			"from":         "project_members",
			"localField":   assigneeField,
			"foreignField": "_id",
			"pipeline": []bson.M{
				{"$project": bson.M{"member_email_id": 1}},
			},
			"as": "assigned_members",
		}},
		{"$addFields": bson.M{
			"comment_count": bson.M{"$size": bson.M{"$ifNull": bson.A{"$comments", bson.A{}}}},
			"is_creator":    bson.M{"$eq": bson.A{"$user_id", v.UserID}},
			"is_assignee": bson.M{"$in": bson.A{
				v.MemberID,
				bson.M{"$ifNull": bson.A{"$" + assigneeField, bson.A{}}},
			}},
		}},
	}
}

func (s Spec) sortStage() bson.M {
	dir := -1
	if s.Ascending {
		dir = 1
	}
	return bson.M{"$sort": bson.D{{Key: "created_at", Value: dir}, {Key: "_id", Value: dir}}}
}

// Flat returns one page of enriched rows plus the total number of rows
// matching the filter.
func Flat[T any](ctx context.Context, c *mongo.Collection, s Spec, page paging.Page) ([]T, int64, error) {
	rowStages := []bson.M{s.sortStage()}
	rowStages = append(rowStages, page.Stages()...)
	rowStages = append(rowStages, EnrichStages(s.AssigneeField, s.Viewer)...)

	pipeline := []bson.M{
		{"$match": s.Match},
		{"$facet": bson.M{
			"rows":     rowStages,
			"metadata": []bson.M{{"$count": "total"}},
		}},
	}
	cur, err := c.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)

	var out []struct {
		Rows     []T `bson:"rows"`
		Metadata []struct {
			Total int64 `bson:"total"`
		} `bson:"metadata"`
	}
	if err := cur.All(ctx, &out); err != nil {
		return nil, 0, err
	}
	rows := []T{}
	var total int64
	if len(out) > 0 {
		if out[0].Rows != nil {
			rows = out[0].Rows
		}
		if len(out[0].Metadata) > 0 {
			total = out[0].Metadata[0].Total
		}
	}
	return rows, total, nil
}

// Grouped returns every matching row bucketed by status. Statuses with no
// rows are absent from the result.
func Grouped[T any](ctx context.Context, c *mongo.Collection, s Spec) ([]Group[T], error) {
	pipeline := []bson.M{{"$match": s.Match}, s.sortStage()}
	pipeline = append(pipeline, EnrichStages(s.AssigneeField, s.Viewer)...)
	pipeline = append(pipeline,
		bson.M{"$group": bson.M{
			"_id":   "$status",
			"rows":  bson.M{"$push": "$$ROOT"},
			"count": bson.M{"$sum": 1},
		}},
		bson.M{"$sort": bson.D{{Key: "_id", Value: 1}}},
	)
	cur, err := c.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []Group[T]{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// One returns a single enriched row, or nil when id does not match.
func One[T any](ctx context.Context, c *mongo.Collection, id primitive.ObjectID, assigneeField string, v Viewer) (*T, error) {
	pipeline := []bson.M{{"$match": bson.M{"_id": id}}}
	pipeline = append(pipeline, EnrichStages(assigneeField, v)...)
	cur, err := c.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []T
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return &out[0], nil
}
