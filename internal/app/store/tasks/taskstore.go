// internal/app/store/tasks/taskstore.go
package taskstore

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

const assigneeField = "assigned_to"

var ErrNotFound = errors.New("task not found")

type Store struct {
	c   *mongo.Collection
	now func() time.Time
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("project_tasks"), now: time.Now}
}

// WithClock returns a copy of s that reads the current time from now.
func (s *Store) WithClock(now func() time.Time) *Store {
	cp := *s
	cp.now = now
	return &cp
}

func (s *Store) Create(ctx context.Context, t models.Task) (models.Task, error) {
	t.ID = primitive.NewObjectID()
	t.Title = normalize.Name(t.Title)
	if t.Status == "" {
		t.Status = models.TaskTodo
	}
	if t.Priority == "" {
		t.Priority = models.PriorityLow
	}
	t.Tags = normalize.Tags(t.Tags)
	if t.AssignedTo == nil {
		t.AssignedTo = []primitive.ObjectID{}
	}
	if t.Attachments == nil {
		t.Attachments = []string{}
	}
	t.Comments = []primitive.ObjectID{}
	now := s.now().UTC()
	if t.Status == models.TaskCompleted {
		t.CompletedDate = &now
	}
	t.CreatedAt = now
	t.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, t); err != nil {
		return models.Task{}, err
	}
	return t, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Task, error) {
	var t models.Task
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&t); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

// ProjectOf returns the project a task belongs to.
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

// Update holds the editable task fields. Nil fields are left unchanged.
type Update struct {
	Title       *string
	Description *string
	Status      *string
	Priority    *string
	StartDate   *time.Time
	EndDate     *time.Time
	Tags        []string
	Attachments []string
}

// Update applies upd. Moving into completed stamps completed_date; moving
// out of it clears the stamp.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, upd Update) (*models.Task, error) {
	now := s.now().UTC()
	set := bson.M{"updated_at": now}
	unset := bson.M{}
	if upd.Title != nil {
		set["title"] = normalize.Name(*upd.Title)
	}
	if upd.Description != nil {
		set["description"] = *upd.Description
	}
	if upd.Priority != nil {
		set["priority"] = *upd.Priority
	}
	if upd.StartDate != nil {
		set["start_date"] = *upd.StartDate
	}
	if upd.EndDate != nil {
		set["end_date"] = *upd.EndDate
	}
	if upd.Tags != nil {
		set["tags"] = normalize.Tags(upd.Tags)
	}
	if upd.Attachments != nil {
		set["attachments"] = upd.Attachments
	}
	if upd.Status != nil {
		set["status"] = *upd.Status
		if *upd.Status == models.TaskCompleted {
			set["completed_date"] = now
		} else {
			unset["completed_date"] = ""
		}
	}

	filter := bson.M{"_id": id}
	if upd.Status != nil && *upd.Status == models.TaskCompleted {
		// Re-saving an already completed task keeps its original stamp.
		cur, err := s.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if cur.Status == models.TaskCompleted && cur.CompletedDate != nil {
			delete(set, "completed_date")
		}
	}

	doc := bson.M{"$set": set}
	if len(unset) > 0 {
		doc["$unset"] = unset
	}
	return s.findAndUpdate(ctx, filter, doc)
}

func (s *Store) findAndUpdate(ctx context.Context, filter, update bson.M) (*models.Task, error) {
	var t models.Task
	err := s.c.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&t)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
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

// Assign adds memberID to the task's assignees. Assigning twice is a no-op.
func (s *Store) Assign(ctx context.Context, id, memberID primitive.ObjectID) (*models.Task, error) {
	return s.findAndUpdate(ctx, bson.M{"_id": id}, bson.M{
		"$addToSet": bson.M{assigneeField: memberID},
		"$set":      bson.M{"updated_at": s.now().UTC()},
	})
}

func (s *Store) Unassign(ctx context.Context, id, memberID primitive.ObjectID) (*models.Task, error) {
	return s.findAndUpdate(ctx, bson.M{"_id": id}, bson.M{
		"$pull": bson.M{assigneeField: memberID},
		"$set":  bson.M{"updated_at": s.now().UTC()},
	})
}

// UnassignEverywhere drops memberID from every task in the project.
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

// AddComment records a top-level comment id on the task.
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

// ListQuery filters the board listing.
type ListQuery struct {
	ProjectID     primitive.ObjectID
	Viewer        workitems.Viewer
	Search        string
	Priority      string
	CreatedByMe   bool
	AssignedToMe  bool
	OnlyCompleted bool
	Ascending     bool
}

func (s *Store) spec(q ListQuery) workitems.Spec {
	match := bson.M{"project_id": q.ProjectID}
	if re := workitems.TitleContains(q.Search); re != nil {
		match["title"] = re
	}
	if q.Priority != "" {
		match["priority"] = q.Priority
	}
	if q.CreatedByMe {
		match["user_id"] = q.Viewer.UserID
	}
	if q.AssignedToMe {
		match[assigneeField] = q.Viewer.MemberID
	}
	if q.OnlyCompleted {
		match["status"] = models.TaskCompleted
	} else {
		// Completed tasks stay on the board for the rest of the day they
		// were last touched.
		match["$or"] = bson.A{
			bson.M{"status": bson.M{"$ne": models.TaskCompleted}},
			bson.M{"status": models.TaskCompleted, "updated_at": bson.M{"$gte": workitems.StartOfDay(s.now())}},
		}
	}
	return workitems.Spec{
		Match:         match,
		AssigneeField: assigneeField,
		Viewer:        q.Viewer,
		Ascending:     q.Ascending,
	}
}

// List returns one page of tasks and the total match count.
func (s *Store) List(ctx context.Context, q ListQuery, page paging.Page) ([]models.TaskRow, int64, error) {
	return workitems.Flat[models.TaskRow](ctx, s.c, s.spec(q), page)
}

// ListGrouped returns every matching task bucketed by status.
func (s *Store) ListGrouped(ctx context.Context, q ListQuery) (map[string]models.TaskBucket, error) {
	groups, err := workitems.Grouped[models.TaskRow](ctx, s.c, s.spec(q))
	if err != nil {
		return nil, err
	}
	return buckets(groups), nil
}

// AssignedToMember returns all of a member's tasks in a project grouped by
// status, regardless of completion age.
func (s *Store) AssignedToMember(ctx context.Context, projectID primitive.ObjectID, v workitems.Viewer) (map[string]models.TaskBucket, error) {
	groups, err := workitems.Grouped[models.TaskRow](ctx, s.c, workitems.Spec{
		Match:         bson.M{"project_id": projectID, assigneeField: v.MemberID},
		AssigneeField: assigneeField,
		Viewer:        v,
	})
	if err != nil {
		return nil, err
	}
	return buckets(groups), nil
}

func buckets(groups []workitems.Group[models.TaskRow]) map[string]models.TaskBucket {
	out := make(map[string]models.TaskBucket, len(groups))
	for _, g := range groups {
		out[g.Status] = models.TaskBucket{Tasks: g.Rows, Count: g.Count}
	}
	return out
}

// Row returns the display-ready form of a single task.
func (s *Store) Row(ctx context.Context, id primitive.ObjectID, v workitems.Viewer) (*models.TaskRow, error) {
	row, err := workitems.One[models.TaskRow](ctx, s.c, id, assigneeField, v)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, ErrNotFound
	}
	return row, nil
}

// IDsForProject lists the ids of every task in a project.
func (s *Store) IDsForProject(ctx context.Context, projectID primitive.ObjectID) ([]primitive.ObjectID, error) {
	return distinctIDs(ctx, s.c, projectID)
}

func (s *Store) DeleteAllForProject(ctx context.Context, projectID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"project_id": projectID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func distinctIDs(ctx context.Context, c *mongo.Collection, projectID primitive.ObjectID) ([]primitive.ObjectID, error) {
	vals, err := c.Distinct(ctx, "_id", bson.M{"project_id": projectID})
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
