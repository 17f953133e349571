// Package workitem holds the request plumbing shared by the task and
// issue endpoints: list query parsing, assignee resolution and the
// assignment notification.
package workitem

import (
	"context"
	"net/http"
	"strings"

	"github.com/dalemusser/projecthub/internal/app/policy/projectpolicy"
	"github.com/dalemusser/projecthub/internal/app/store/queries/workitems"
	"github.com/dalemusser/projecthub/internal/app/system/apierr"
	"github.com/dalemusser/projecthub/internal/app/system/inputval"
	"github.com/dalemusser/projecthub/internal/app/system/paging"
	"github.com/dalemusser/projecthub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ListParams are the query parameters common to task and issue listings.
type ListParams struct {
	Search       string
	Priority     string // empty means any
	CreatedByMe  bool
	AssignedToMe bool
	Ascending    bool
	Grouped      bool
	Page         paging.Page
}

// ParseList reads search, priority, isCreatedByMe, isAssignedToMe, isSort,
// isGroup, currentPage and perPage.
func ParseList(r *http.Request) (ListParams, error) {
	p := ListParams{
		Search:       strings.TrimSpace(query.Get(r, "search")),
		CreatedByMe:  inputval.Flag(query.Get(r, "isCreatedByMe")),
		AssignedToMe: inputval.Flag(query.Get(r, "isAssignedToMe")),
		Ascending:    inputval.Flag(query.Get(r, "isSort")),
		Grouped:      inputval.Flag(query.Get(r, "isGroup")),
		Page:         paging.Parse(r),
	}
	switch pr := strings.ToLower(query.Get(r, "priority")); pr {
	case "", "all":
	case models.PriorityLow, models.PriorityMedium, models.PriorityHigh:
		p.Priority = pr
	default:
		return ListParams{}, apierr.Validation("priority", "query", "Priority should be one of low, medium, high, all.")
	}
	return p, nil
}

// Values returns every value of a repeated query parameter, accepting both
// key and key[].
func Values(r *http.Request, key string) []string {
	q := r.URL.Query()
	raw := append(append([]string{}, q[key]...), q[key+"[]"]...)
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// Viewer is the caller as seen by work-item enrichment.
func Viewer(a projectpolicy.Access) workitems.Viewer {
	v := workitems.Viewer{UserID: a.UserID}
	if a.Member != nil {
		v.MemberID = a.Member.ID
	}
	return v
}

// Assignees parses raw member ids and requires each to be an accepted
// member of projectID. Duplicates are dropped.
func Assignees(ctx context.Context, pol *projectpolicy.Policy, projectID primitive.ObjectID, raw []string) ([]*models.ProjectMember, error) {
	seen := make(map[primitive.ObjectID]bool, len(raw))
	ids := make([]primitive.ObjectID, 0, len(raw))
	for _, s := range raw {
		id, err := inputval.ObjectID(s, "assignedTo", "body")
		if err != nil {
			return nil, err
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return pol.AssignableAll(ctx, projectID, ids)
}

// IDs returns the membership ids of ms.
func IDs(ms []*models.ProjectMember) []primitive.ObjectID {
	out := make([]primitive.ObjectID, len(ms))
	for i, m := range ms {
		out[i] = m.ID
	}
	return out
}
