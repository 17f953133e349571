// internal/app/store/issues/issuestore.go
package issuestore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/projecthub/internal/app/store/queries/workitems"
	"github.com/dalemusser/projecthub/internal/app/system/normalize"
	"github.com/dalemusser/projecthub/internal/app/system/paging"
	"github.com/dalemusser/projecthub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const assigneeField = "assignees"

var ErrNotFound = errors.New("issue not found")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("issues")}
}

func (s *Store) Create(ctx context.Context, is models.Issue) (models.Issue, error) {
	is.ID = primitive.NewObjectID()
	is.Title = normalize.Name(is.Title)
	is.Status = models.IssueOpen
	if is.Priority == "" {
		is.Priority = models.PriorityLow
	}
	is.Labels = normalize.Tags(is.Labels)
	if is.Assignees == nil {
		is.Assignees = []primitive.ObjectID{}
	}
	is.Comments = []primitive.ObjectID{}
	is.ClosedBy = nil
	is.ClosedIssueDate = nil
	now := time.Now().UTC()
	is.CreatedAt = now
	is.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, is); err != nil {
		return models.Issue{}, err
	}
	return is, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Issue, error) {
	var is models.Issue
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&is); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &is, nil
}

// ProjectOf returns the project an issue belongs to.
func (s *Store) ProjectOf(ctx context.Context, id primitive.ObjectID) (primitive.ObjectID, error) {
	var row struct {
		ProjectID primitive.ObjectID `bson:"project_id"`
	}
	err := s.c.FindOne(ctx, bson.M{"_id": id}, options.FindOne().SetProjection(bson.M{"project_id": 1})).Decode(&row)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return primitive.NilObjectID, ErrNotFound
	}
	if err != nil {
		return primitive.NilObjectID, err
	}
	return row.ProjectID, nil
}

// Update holds the editable issue fields. Status moves only via SetStatus.
type Update struct {
	Title       *string
	Description *string
	Priority    *string
	Labels      []string
}

func (s *Store) Update(ctx context.Context, id primitive.ObjectID, upd Update) (*models.Issue, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	if upd.Title != nil {
		set["title"] = normalize.Name(*upd.Title)
	}
	if upd.Description != nil {
		set["description"] = *upd.Description
	}
	if upd.Priority != nil {
		set["priority"] = *upd.Priority
	}
	if upd.Labels != nil {
		set["labels"] = normalize.Tags(upd.Labels)
	}
	return s.findAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set})
}

// SetStatus closes or reopens an issue. Closing records who closed it and
// when; reopening clears both.
func (s *Store) SetStatus(ctx context.Context, id primitive.ObjectID, status string, actor primitive.ObjectID) (*models.Issue, error) {
	now := time.Now().UTC()
	if status == models.IssueClosed {
		return s.findAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
			"status":            models.IssueClosed,
			"closed_by":         actor,
			"closed_issue_date": now,
			"updated_at":        now,
		}})
	}
	return s.findAndUpdate(ctx, bson.M{"_id": id}, bson.M{
		"$set":   bson.M{"status": models.IssueOpen, "updated_at": now},
		"$unset": bson.M{"closed_by": "", "closed_issue_date": ""},
	})
}

func (s *Store) findAndUpdate(ctx context.Context, filter, update bson.M) (*models.Issue, error) {
	var is models.Issue
	err := s.c.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&is)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &is, nil
}

func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Assign adds memberID to the issue's assignees. Assigning twice is a no-op.
func (s *Store) Assign(ctx context.Context, id, memberID primitive.ObjectID) (*models.Issue, error) {
	return s.findAndUpdate(ctx, bson.M{"_id": id}, bson.M{
		"$addToSet": bson.M{assigneeField: memberID},
		"$set":      bson.M{"updated_at": time.Now().UTC()},
	})
}

func (s *Store) Unassign(ctx context.Context, id, memberID primitive.ObjectID) (*models.Issue, error) {
	return s.findAndUpdate(ctx, bson.M{"_id": id}, bson.M{
		"$pull": bson.M{assigneeField: memberID},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	})
}

// UnassignEverywhere drops memberID from every issue in the project.
func (s *Store) UnassignEverywhere(ctx context.Context, projectID, memberID primitive.ObjectID) (int64, error) {
	res, err := s.c.UpdateMany(ctx,
		bson.M{"project_id": projectID, assigneeField: memberID},
		bson.M{"$pull": bson.M{assigneeField: memberID}},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

func (s *Store) AddComment(ctx context.Context, id, commentID primitive.ObjectID) error {
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$push": bson.M{"comments": commentID}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) RemoveComment(ctx context.Context, id, commentID primitive.ObjectID) error {
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$pull": bson.M{"comments": commentID}})
	return err
}

// ListQuery filters the issue listing.
type ListQuery struct {
	ProjectID    primitive.ObjectID
	Viewer       workitems.Viewer
	Search       string
	Priority     string
	Status       string
	Labels       []string // matches issues carrying any of these labels
	CreatedByMe  bool
	AssignedToMe bool
	Ascending    bool
}

func (q ListQuery) spec() workitems.Spec {
	match := bson.M{"project_id": q.ProjectID}
	if re := workitems.TitleContains(q.Search); re != nil {
		match["title"] = re
	}
	if q.Priority != "" {
		match["priority"] = q.Priority
	}
	if q.Status != "" {
		match["status"] = q.Status
	}
	if len(q.Labels) > 0 {
		match["labels"] = bson.M{"$in": q.Labels}
	}
	if q.CreatedByMe {
		match["user_id"] = q.Viewer.UserID
	}
	if q.AssignedToMe {
		match[assigneeField] = q.Viewer.MemberID
	}
	return workitems.Spec{
		Match:         match,
		AssigneeField: assigneeField,
		Viewer:        q.Viewer,
		Ascending:     q.Ascending,
	}
}

func (s *Store) List(ctx context.Context, q ListQuery, page paging.Page) ([]models.IssueRow, int64, error) {
	return workitems.Flat[models.IssueRow](ctx, s.c, q.spec(), page)
}

func (s *Store) ListGrouped(ctx context.Context, q ListQuery) (map[string]models.IssueBucket, error) {
	groups, err := workitems.Grouped[models.IssueRow](ctx, s.c, q.spec())
	if err != nil {
		return nil, err
	}
	out := make(map[string]models.IssueBucket, len(groups))
	for _, g := range groups {
		out[g.Status] = models.IssueBucket{Issues: g.Rows, Count: g.Count}
	}
	return out, nil
}

// Row returns the display-ready form of a single issue.
func (s *Store) Row(ctx context.Context, id primitive.ObjectID, v workitems.Viewer) (*models.IssueRow, error) {
	row, err := workitems.One[models.IssueRow](ctx, s.c, id, assigneeField, v)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, ErrNotFound
	}
	return row, nil
}

// Counts returns the open and closed totals for a project.
func (s *Store) Counts(ctx context.Context, projectID primitive.ObjectID) (models.IssueCounts, error) {
	cur, err := s.c.Aggregate(ctx, []bson.M{
		{"$match": bson.M{"project_id": projectID}},
		{"$group": bson.M{"_id": "$status", "n": bson.M{"$sum": 1}}},
	})
	if err != nil {
		return models.IssueCounts{}, err
	}
	defer cur.Close(ctx)
	var rows []struct {
		Status string `bson:"_id"`
		N      int64  `bson:"n"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return models.IssueCounts{}, err
	}
	var out models.IssueCounts
	for _, r := range rows {
		switch r.Status {
		case models.IssueOpen:
			out.Open = r.N
		case models.IssueClosed:
			out.Closed = r.N
		}
	}
	return out, nil
}

// IDsForProject lists the ids of every issue in a project.
func (s *Store) IDsForProject(ctx context.Context, projectID primitive.ObjectID) ([]primitive.ObjectID, error) {
	vals, err := s.c.Distinct(ctx, "_id", bson.M{"project_id": projectID})
	if err != nil {
		return nil, err
	}
	ids := make([]primitive.ObjectID, 0, len(vals))
	for _, v := range vals {
		if id, ok := v.(primitive.ObjectID); ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (s *Store) DeleteAllForProject(ctx context.Context, projectID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"project_id": projectID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
