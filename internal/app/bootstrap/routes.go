// internal/app/bootstrap/routes.go
package bootstrap

import (
	"errors"
	"net/http"

	accountfeature "github.com/dalemusser/projecthub/internal/app/features/account"
	commentsfeature "github.com/dalemusser/projecthub/internal/app/features/comments"
	errorsfeature "github.com/dalemusser/projecthub/internal/app/features/errors"
	healthfeature "github.com/dalemusser/projecthub/internal/app/features/health"
	issuesfeature "github.com/dalemusser/projecthub/internal/app/features/issues"
	livefeature "github.com/dalemusser/projecthub/internal/app/features/live"
	projectsfeature "github.com/dalemusser/projecthub/internal/app/features/projects"
	"github.com/dalemusser/projecthub/internal/app/features/shared/workitem"
	sheetsfeature "github.com/dalemusser/projecthub/internal/app/features/sheets"
	tasksfeature "github.com/dalemusser/projecthub/internal/app/features/tasks"
	todosfeature "github.com/dalemusser/projecthub/internal/app/features/todos"
	issuestore "github.com/dalemusser/projecthub/internal/app/store/issues"
	projectstore "github.com/dalemusser/projecthub/internal/app/store/projects"
	taskstore "github.com/dalemusser/projecthub/internal/app/store/tasks"
	userstore "github.com/dalemusser/projecthub/internal/app/store/users"
	"github.com/dalemusser/projecthub/internal/app/system/workers"
	"github.com/dalemusser/projecthub/internal/domain/models"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// Startup have completed. It mounts every API area under its prefix, then
// starts the background jobs that depend on the feature handlers.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	if svc == nil {
		return nil, errors.New("bootstrap: Startup has not run")
	}
	db := deps.MongoDatabase

	errorsHandler := errorsfeature.NewHandler(logger)

	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(middleware.RealIP)
	r.Use(requestLog(logger))
	r.Use(errorsHandler.Recoverer)
	r.Use(svc.Metrics.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   appCfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", requestIDHeader},
		ExposedHeaders:   []string{requestIDHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.NotFound(errorsHandler.NotFound)
	r.MethodNotAllowed(errorsHandler.MethodNotAllowed)

	// Operational endpoints
	healthHandler := healthfeature.NewHandler(deps.MongoClient, svc.Bus, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))
	r.Handle("/metrics", svc.Metrics.Handler())

	// Accounts
	accountHandler := accountfeature.NewHandler(db, svc.Tokens, svc.Mail, svc.Uploads, svc.Audit, svc.Limiter,
		accountfeature.Links{
			SiteName:          appCfg.SiteName,
			CreatePasswordURL: appCfg.CreatePasswordURL,
			ResetPasswordURL:  appCfg.ResetPasswordURL,
		}, logger)
	r.Mount("/auth", accountfeature.Routes(accountHandler, svc.Authn))

	// Personal tools
	r.Mount("/sheets", sheetsfeature.Routes(sheetsfeature.NewHandler(db, logger), svc.Authn))
	r.Mount("/todos", todosfeature.Routes(todosfeature.NewHandler(db, logger), svc.Authn))

	// Projects with their task board and issue tracker
	notify := &workitem.Notifier{
		Users:    userstore.New(db),
		Mail:     svc.Mail,
		SiteName: appCfg.SiteName,
		Log:      logger,
	}

	taskComments := commentsfeature.NewHandler(db, commentsfeature.Target{
		Kind:        models.AttachTask,
		Param:       "taskID",
		Items:       taskstore.New(db),
		ErrNotFound: taskstore.ErrNotFound,
		MsgNotFound: tasksfeature.MsgNotFound,
	}, svc.Metrics, logger)
	tasksHandler := tasksfeature.NewHandler(db, svc.Bus, notify, svc.Metrics, appCfg.AppURL, logger)
	taskRoutes := tasksfeature.Routes(tasksHandler, commentsfeature.Routes(taskComments))

	issueComments := commentsfeature.NewHandler(db, commentsfeature.Target{
		Kind:        models.AttachIssue,
		Param:       "issueID",
		Items:       issuestore.New(db),
		ErrNotFound: issuestore.ErrNotFound,
		MsgNotFound: issuesfeature.MsgNotFound,
	}, svc.Metrics, logger)
	issuesHandler := issuesfeature.NewHandler(db, svc.Bus, notify, svc.Audit, svc.Metrics, appCfg.AppURL, logger)
	issueRoutes := issuesfeature.Routes(issuesHandler, commentsfeature.Routes(issueComments))

	projectsHandler := projectsfeature.NewHandler(db, svc.Tokens, svc.Mail, svc.Audit, svc.Metrics,
		projectsfeature.Links{SiteName: appCfg.SiteName, InviteURL: appCfg.InviteURL}, logger)
	r.Mount("/projects", projectsfeature.Routes(projectsHandler, svc.Authn, taskRoutes, issueRoutes))

	// Realtime websocket
	if appCfg.RealtimeEnabled {
		liveHandler := livefeature.NewHandler(db, svc.Hub, appCfg.RealtimeOrigins, logger)
		r.With(svc.Authn.RequireBearerOrQuery).Mount("/realtime", livefeature.Routes(liveHandler))
	}

	// Background jobs
	svc.Scheduler = workers.NewScheduler(svc.Metrics, logger)
	svc.Scheduler.Add(workers.OrphanReconcileJob(projectstore.New(db), projectsHandler.RemoveOrphan,
		logger, appCfg.OrphanReconcileInterval, appCfg.OrphanGrace))
	svc.Scheduler.Start()

	return r, nil
}
