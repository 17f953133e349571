// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"net/http"
	"strconv"

	"github.com/dalemusser/projecthub/internal/app/store/audit"
	"github.com/dalemusser/projecthub/internal/app/system/ratelimit"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Destination settings for a category.
const (
	All = "all" // MongoDB and zap
	DB  = "db"
	Log = "log"
	Off = "off"
)

// Config selects where each category of event goes.
type Config struct {
	// Auth covers registration, login and password reset.
	Auth string
	// Project covers project lifecycle, membership and moderation.
	Project string
}

// Logger writes audit events to the audit store and to zap.
type Logger struct {
	store  *audit.Store
	zapLog *zap.Logger
	config Config
}

func New(store *audit.Store, zapLog *zap.Logger, config Config) *Logger {
	return &Logger{store: store, zapLog: zapLog, config: config}
}

func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
		zap.String("ip", event.IP),
	}
	if event.UserID != nil {
		fields = append(fields, zap.String("user_id", event.UserID.Hex()))
	}
	if event.ActorID != nil {
		fields = append(fields, zap.String("actor_id", event.ActorID.Hex()))
	}
	if event.ProjectID != nil {
		fields = append(fields, zap.String("project_id", event.ProjectID.Hex()))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

// Log records event according to the category's setting. A nil Logger is
// a no-op so handlers under test can leave it unset.
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}

	setting := All
	switch event.Category {
	case audit.CategoryAuth:
		setting = l.config.Auth
	case audit.CategoryProject:
		setting = l.config.Project
	}
	if setting == Off {
		return
	}

	if setting == All || setting == Log {
		l.logToZap(event)
	}
	if setting == All || setting == DB {
		if err := l.store.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType),
			)
		}
	}
}

func (l *Logger) request(r *http.Request, ev audit.Event) audit.Event {
	ev.IP = ratelimit.ClientIP(r)
	ev.UserAgent = r.UserAgent()
	return ev
}

// --- Auth ---

func (l *Logger) RegistrationStarted(ctx context.Context, r *http.Request, email string) {
	l.Log(ctx, l.request(r, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventRegistrationStarted,
		Success:   true,
		Details:   map[string]string{"email": email},
	}))
}

func (l *Logger) UserRegistered(ctx context.Context, r *http.Request, userID primitive.ObjectID, email string) {
	l.Log(ctx, l.request(r, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventUserRegistered,
		UserID:    &userID,
		Success:   true,
		Details:   map[string]string{"email": email},
	}))
}

func (l *Logger) LoginSuccess(ctx context.Context, r *http.Request, userID primitive.ObjectID, email string) {
	l.Log(ctx, l.request(r, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventLoginSuccess,
		UserID:    &userID,
		Success:   true,
		Details:   map[string]string{"email": email},
	}))
}

func (l *Logger) LoginFailedUserNotFound(ctx context.Context, r *http.Request, attemptedEmail string) {
	l.Log(ctx, l.request(r, audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     audit.EventLoginFailedUserNotFound,
		FailureReason: "user not found",
		Details:       map[string]string{"attempted_email": attemptedEmail},
	}))
}

func (l *Logger) LoginFailedWrongPassword(ctx context.Context, r *http.Request, userID primitive.ObjectID, email string) {
	l.Log(ctx, l.request(r, audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     audit.EventLoginFailedWrongPassword,
		UserID:        &userID,
		FailureReason: "wrong password",
		Details:       map[string]string{"email": email},
	}))
}

func (l *Logger) LoginFailedRateLimit(ctx context.Context, r *http.Request, email string) {
	l.Log(ctx, l.request(r, audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     audit.EventLoginFailedRateLimit,
		FailureReason: "rate limit exceeded",
		Details:       map[string]string{"email": email},
	}))
}

func (l *Logger) PasswordResetRequested(ctx context.Context, r *http.Request, userID primitive.ObjectID) {
	l.Log(ctx, l.request(r, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventPasswordResetRequested,
		UserID:    &userID,
		Success:   true,
	}))
}

func (l *Logger) PasswordReset(ctx context.Context, r *http.Request, userID primitive.ObjectID) {
	l.Log(ctx, l.request(r, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventPasswordReset,
		UserID:    &userID,
		Success:   true,
	}))
}

// --- Projects ---

func (l *Logger) project(r *http.Request, eventType string, actorID, projectID primitive.ObjectID, details map[string]string) audit.Event {
	return l.request(r, audit.Event{
		Category:  audit.CategoryProject,
		EventType: eventType,
		ActorID:   &actorID,
		ProjectID: &projectID,
		Success:   true,
		Details:   details,
	})
}

func (l *Logger) ProjectCreated(ctx context.Context, r *http.Request, actorID, projectID primitive.ObjectID, name string) {
	l.Log(ctx, l.project(r, audit.EventProjectCreated, actorID, projectID, map[string]string{"name": name}))
}

func (l *Logger) ProjectUpdated(ctx context.Context, r *http.Request, actorID, projectID primitive.ObjectID, fieldsChanged string) {
	l.Log(ctx, l.project(r, audit.EventProjectUpdated, actorID, projectID, map[string]string{"fields_changed": fieldsChanged}))
}

func (l *Logger) ProjectDeleted(ctx context.Context, r *http.Request, actorID, projectID primitive.ObjectID, name string) {
	l.Log(ctx, l.project(r, audit.EventProjectDeleted, actorID, projectID, map[string]string{"name": name}))
}

func (l *Logger) MemberInvited(ctx context.Context, r *http.Request, actorID, projectID primitive.ObjectID, email string) {
	l.Log(ctx, l.project(r, audit.EventMemberInvited, actorID, projectID, map[string]string{"email": email}))
}

// InviteResponded records an accept or reject by the invited user.
func (l *Logger) InviteResponded(ctx context.Context, r *http.Request, userID, projectID primitive.ObjectID, accepted bool) {
	eventType := audit.EventInviteRejected
	if accepted {
		eventType = audit.EventInviteAccepted
	}
	ev := l.project(r, eventType, userID, projectID, nil)
	ev.UserID = &userID
	l.Log(ctx, ev)
}

func (l *Logger) MemberRemoved(ctx context.Context, r *http.Request, actorID, projectID, memberID primitive.ObjectID) {
	l.Log(ctx, l.project(r, audit.EventMemberRemoved, actorID, projectID, map[string]string{"member_id": memberID.Hex()}))
}

func (l *Logger) MembersCleared(ctx context.Context, r *http.Request, actorID, projectID primitive.ObjectID, removed int64) {
	l.Log(ctx, l.project(r, audit.EventMembersCleared, actorID, projectID, map[string]string{"removed": strconv.FormatInt(removed, 10)}))
}

func (l *Logger) MemberRoleChanged(ctx context.Context, r *http.Request, actorID, projectID, memberID primitive.ObjectID, role string) {
	l.Log(ctx, l.project(r, audit.EventMemberRoleChanged, actorID, projectID, map[string]string{
		"member_id": memberID.Hex(),
		"role":      role,
	}))
}

// IssueStatusChanged records a close or reopen.
func (l *Logger) IssueStatusChanged(ctx context.Context, r *http.Request, actorID, projectID, issueID primitive.ObjectID, closed bool) {
	eventType := audit.EventIssueReopened
	if closed {
		eventType = audit.EventIssueClosed
	}
	l.Log(ctx, l.project(r, eventType, actorID, projectID, map[string]string{"issue_id": issueID.Hex()}))
}
