package workitem

import (
	"context"

	userstore "github.com/dalemusser/projecthub/internal/app/store/users"
	"github.com/dalemusser/projecthub/internal/app/system/mailer"
	"github.com/dalemusser/projecthub/internal/domain/models"
	"go.uber.org/zap"
)

// Notifier mails members when they are assigned to a task or issue.
// Delivery is best effort: failures are logged and never fail the request.
type Notifier struct {
	Users    *userstore.Store
	Mail     mailer.Sender
	SiteName string
	Log      *zap.Logger
}

// Assignment describes one work item an assignee was added to.
type Assignment struct {
	Kind    string // "task" or "issue"
	Title   string
	Project *models.Project
	Link    string
}

// Assigned notifies each member in ms.
func (n *Notifier) Assigned(ctx context.Context, a Assignment, ms ...*models.ProjectMember) {
	if n == nil || n.Mail == nil {
		return
	}
	for _, m := range ms {
		to := m.MemberEmailID
		if m.UserID != nil {
			if u, err := n.Users.GetByID(ctx, *m.UserID); err == nil {
				to = u.Email
			}
		}
		msg := mailer.BuildAssignmentEmail(mailer.AssignmentEmailData{
			SiteName:    n.SiteName,
			Kind:        a.Kind,
			Title:       a.Title,
			ProjectName: a.Project.Name,
			Link:        a.Link,
		})
		msg.To = to
		if err := n.Mail.Send(ctx, msg); err != nil {
			n.Log.Warn("assignment email failed",
				zap.String("kind", a.Kind),
				zap.String("member_id", m.ID.Hex()),
				zap.Error(err))
		}
	}
}
