// internal/app/store/projectmembers/memberstore.go
package memberstore

import (
	"context"
	"errors"
	"regexp"
	"time"

	"github.com/dalemusser/projecthub/internal/app/system/normalize"
	"github.com/dalemusser/projecthub/internal/app/system/paging"
	"github.com/dalemusser/projecthub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrNotFound = errors.New("project member not found")
	// ErrDuplicateMember is returned when (email, project) already has a row.
	ErrDuplicateMember = errors.New("email is already a member of this project")
	// ErrVersionConflict is returned when a compare-and-set write lost a race
	// or the row is no longer in the expected state.
	ErrVersionConflict = errors.New("project member was modified concurrently")
	errBadRole         = errors.New(`role must be "owner"|"admin"|"member"`)
	errBadStatus       = errors.New(`status must be "accepted"|"rejected"`)
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("project_members")}
}

func (s *Store) findOne(ctx context.Context, filter bson.M) (*models.ProjectMember, error) {
	var m models.ProjectMember
	if err := s.c.FindOne(ctx, filter).Decode(&m); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.ProjectMember, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

// FindByUserAndProject returns the caller's row in a project, whatever its status.
func (s *Store) FindByUserAndProject(ctx context.Context, userID, projectID primitive.ObjectID) (*models.ProjectMember, error) {
	return s.findOne(ctx, bson.M{"user_id": userID, "project_id": projectID})
}

func (s *Store) FindByEmailAndProject(ctx context.Context, email string, projectID primitive.ObjectID) (*models.ProjectMember, error) {
	return s.findOne(ctx, bson.M{"member_email_id": normalize.Email(email), "project_id": projectID})
}

// Create inserts a membership row. Status defaults to pending, role to member.
func (s *Store) Create(ctx context.Context, m models.ProjectMember) (models.ProjectMember, error) {
	m.ID = primitive.NewObjectID()
	m.MemberEmailID = normalize.Email(m.MemberEmailID)
	if m.Status == "" {
		m.Status = models.MemberPending
	}
	if m.Role == "" {
		m.Role = models.MemberRoleMember
	}
	if !validRole(m.Role) {
		return models.ProjectMember{}, errBadRole
	}
	m.Version = 1
	now := time.Now().UTC()
	m.CreatedAt = now
	m.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, m); err != nil {
		if wafflemongo.IsDup(err) {
			return models.ProjectMember{}, ErrDuplicateMember
		}
		return models.ProjectMember{}, err
	}
	return m, nil
}

// CreateOwner inserts the accepted owner row for a new project.
func (s *Store) CreateOwner(ctx context.Context, projectID primitive.ObjectID, owner models.User) (models.ProjectMember, error) {
	uid := owner.ID
	return s.Create(ctx, models.ProjectMember{
		MemberEmailID: owner.Email,
		UserID:        &uid,
		ProjectID:     projectID,
		Status:        models.MemberAccepted,
		Role:          models.MemberRoleOwner,
	})
}

// Respond moves a pending row to accepted or rejected, binding userID.
// The write only lands if the row is still pending at version.
func (s *Store) Respond(ctx context.Context, id, userID primitive.ObjectID, status string, version int64) (*models.ProjectMember, error) {
	if status != models.MemberAccepted && status != models.MemberRejected {
		return nil, errBadStatus
	}
	return s.cas(ctx, bson.M{"_id": id, "version": version, "status": models.MemberPending}, bson.M{
		"status":  status,
		"user_id": userID,
	})
}

// Reopen moves a rejected row back to pending so the email can be invited
// again. The write only lands if the row is still rejected at version.
func (s *Store) Reopen(ctx context.Context, id primitive.ObjectID, version int64) (*models.ProjectMember, error) {
	return s.cas(ctx, bson.M{"_id": id, "version": version, "status": models.MemberRejected}, bson.M{
		"status": models.MemberPending,
	})
}

// Reclose undoes Reopen when the new invite could not be delivered.
func (s *Store) Reclose(ctx context.Context, id primitive.ObjectID, version int64) (*models.ProjectMember, error) {
	return s.cas(ctx, bson.M{"_id": id, "version": version, "status": models.MemberPending}, bson.M{
		"status": models.MemberRejected,
	})
}

// UpdateRole changes a member's role if the row is still at version.
func (s *Store) UpdateRole(ctx context.Context, id primitive.ObjectID, role string, version int64) (*models.ProjectMember, error) {
	if !validRole(role) {
		return nil, errBadRole
	}
	return s.cas(ctx, bson.M{"_id": id, "version": version}, bson.M{"role": role})
}

func (s *Store) cas(ctx context.Context, filter, set bson.M) (*models.ProjectMember, error) {
	set["updated_at"] = time.Now().UTC()
	var m models.ProjectMember
	err := s.c.FindOneAndUpdate(ctx, filter,
		bson.M{"$set": set, "$inc": bson.M{"version": 1}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&m)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrVersionConflict
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// BindUser sets user_id on rows invited under email before the account
// existed. Status is left untouched.
func (s *Store) BindUser(ctx context.Context, email string, userID primitive.ObjectID) (int64, error) {
	res, err := s.c.UpdateMany(ctx,
		bson.M{"member_email_id": normalize.Email(email), "user_id": bson.M{"$exists": false}},
		bson.M{"$set": bson.M{"user_id": userID, "updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// ListFilter narrows List. Empty fields match everything.
type ListFilter struct {
	Email  string
	Status string
}

// List returns one page of a project's members and the total match count.
// IsAdmin marks the caller's own row.
func (s *Store) List(ctx context.Context, projectID, callerID primitive.ObjectID, f ListFilter, page paging.Page) ([]models.MemberRow, int64, error) {
	match := bson.M{"project_id": projectID}
	if f.Email != "" {
		match["member_email_id"] = bson.M{"$regex": regexp.QuoteMeta(f.Email), "$options": "i"}
	}
	if f.Status != "" {
		match["status"] = f.Status
	}

	pipeline := []bson.M{
		{"$match": match},
		{"$sort": bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}},
		{"$addFields": bson.M{"is_admin": bson.M{"$eq": bson.A{"$user_id", callerID}}}},
		{"$lookup": bson.M{
			"from":         "users",
			"localField":   "user_id",
			"foreignField": "_id",
			"as":           "user",
			"pipeline": []bson.M{
				{"$project": bson.M{"full_name": 1, "email": 1, "avatar": 1}},
			},
		}},
		{"$unwind": bson.M{"path": "$user", "preserveNullAndEmptyArrays": true}},
		{"$facet": bson.M{
			"metadata": []bson.M{{"$count": "total"}},
			"rows":     page.Stages(),
		}},
	}

	cur, err := s.c.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)

	var out []struct {
		Metadata []struct {
			Total int64 `bson:"total"`
		} `bson:"metadata"`
		Rows []models.MemberRow `bson:"rows"`
	}
	if err := cur.All(ctx, &out); err != nil {
		return nil, 0, err
	}
	rows := []models.MemberRow{}
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

// ProjectsForUser joins the user's accepted memberships with their projects.
func (s *Store) ProjectsForUser(ctx context.Context, userID primitive.ObjectID) ([]models.ProjectWithRole, error) {
	pipeline := []bson.M{
		{"$match": bson.M{"user_id": userID, "status": models.MemberAccepted}},
		{"$lookup": bson.M{
			"from":         "projects",
			"localField":   "project_id",
			"foreignField": "_id",
			"as":           "project",
		}},
		{"$unwind": "$project"},
		{"$replaceRoot": bson.M{"newRoot": bson.M{"$mergeObjects": bson.A{
			"$project",
			bson.M{"member_id": "$_id", "role": "$role", "status": "$status"},
		}}}},
		{"$sort": bson.D{{Key: "created_at", Value: -1}}},
	}
	cur, err := s.c.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []models.ProjectWithRole{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CountActive counts rows that occupy a member slot (pending or accepted).
func (s *Store) CountActive(ctx context.Context, projectID primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{
		"project_id": projectID,
		"status":     bson.M{"$ne": models.MemberRejected},
	})
}

// CountOwners counts owner rows in a project.
func (s *Store) CountOwners(ctx context.Context, projectID primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"project_id": projectID, "role": models.MemberRoleOwner})
}

// AcceptedIn reports which of ids are accepted members of projectID.
func (s *Store) AcceptedIn(ctx context.Context, projectID primitive.ObjectID, ids []primitive.ObjectID) ([]models.ProjectMember, error) {
	cur, err := s.c.Find(ctx, bson.M{
		"_id":        bson.M{"$in": ids},
		"project_id": projectID,
		"status":     models.MemberAccepted,
	})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []models.ProjectMember{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) DeleteOne(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// NonOwnerIDs lists the ids of every non-owner row in a project.
func (s *Store) NonOwnerIDs(ctx context.Context, projectID primitive.ObjectID) ([]primitive.ObjectID, error) {
	vals, err := s.c.Distinct(ctx, "_id", bson.M{"project_id": projectID, "role": bson.M{"$ne": models.MemberRoleOwner}})
	if err != nil {
		return nil, err
	}
	out := make([]primitive.ObjectID, 0, len(vals))
	for _, v := range vals {
		if id, ok := v.(primitive.ObjectID); ok {
			out = append(out, id)
		}
	}
	return out, nil
}

// DeleteNonOwnerIDs removes the listed non-owner rows of a project. Rows
// created after ids was read are left alone.
func (s *Store) DeleteNonOwnerIDs(ctx context.Context, projectID primitive.ObjectID, ids []primitive.ObjectID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := s.c.DeleteMany(ctx, bson.M{
		"_id":        bson.M{"$in": ids},
		"project_id": projectID,
		"role":       bson.M{"$ne": models.MemberRoleOwner},
	})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (s *Store) DeleteAllForProject(ctx context.Context, projectID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"project_id": projectID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func validRole(r string) bool {
	switch r {
	case models.MemberRoleOwner, models.MemberRoleAdmin, models.MemberRoleMember:
		return true
	}
	return false
}
