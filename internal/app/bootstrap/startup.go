// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"fmt"

	"github.com/dalemusser/projecthub/internal/app/store/audit"
	userstore "github.com/dalemusser/projecthub/internal/app/store/users"
	"github.com/dalemusser/projecthub/internal/app/system/auditlog"
	"github.com/dalemusser/projecthub/internal/app/system/auth"
	"github.com/dalemusser/projecthub/internal/app/system/mailer"
	"github.com/dalemusser/projecthub/internal/app/system/metrics"
	"github.com/dalemusser/projecthub/internal/app/system/ratelimit"
	"github.com/dalemusser/projecthub/internal/app/system/realtime"
	"github.com/dalemusser/projecthub/internal/app/system/timeouts"
	"github.com/dalemusser/projecthub/internal/app/system/tokens"
	"github.com/dalemusser/projecthub/internal/app/system/uploads"
	"github.com/dalemusser/projecthub/internal/app/system/workers"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// services are the process-wide collaborators built once in Startup and
// shared by BuildHandler and Shutdown.
type services struct {
	Tokens    *tokens.Service
	Authn     *auth.Authenticator
	Mail      *mailer.Mailer
	Uploads   uploads.Store
	Hub       *realtime.Hub
	Bus       *realtime.Bus
	Metrics   *metrics.Registry
	Audit     *auditlog.Logger
	Limiter   *ratelimit.AuthLimiter
	Scheduler *workers.Scheduler
}

var svc *services

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if n := timeouts.ConfigureFromEnv(); n > 0 {
		logger.Info("operation timeouts overridden from env", zap.Int("count", n))
	}

	s, err := newServices(ctx, appCfg, deps, logger)
	if err != nil {
		return err
	}
	svc = s
	return nil
}

func newServices(ctx context.Context, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (*services, error) {
	db := deps.MongoDatabase

	ts := tokens.New(appCfg.JWTSecret, appCfg.JWTIssuer, tokens.TTLs{
		Session:  appCfg.SessionTokenTTL,
		Register: appCfg.RegisterTokenTTL,
		Reset:    appCfg.ResetTokenTTL,
		Invite:   appCfg.InviteTokenTTL,
	})

	mail := mailer.New(mailer.Config{
		Host:     appCfg.MailSMTPHost,
		Port:     appCfg.MailSMTPPort,
		Username: appCfg.MailSMTPUser,
		Password: appCfg.MailSMTPPass,
		From:     appCfg.MailFrom,
		FromName: appCfg.MailFromName,
		TLS:      appCfg.MailSMTPTLS,
	}, logger)
	if !mail.Enabled() {
		logger.Warn("mail_smtp_host is empty; outgoing mail will only be logged")
	}

	up, err := newUploads(ctx, appCfg)
	if err != nil {
		return nil, err
	}

	hub := realtime.NewHub(logger)
	bus := realtime.NewBus(hub, logger)
	if appCfg.NATSURL != "" {
		if err := bus.ConnectNATS(appCfg.NATSURL, "projecthub"); err != nil {
			// Single-instance delivery still works without NATS.
			logger.Warn("NATS unavailable; realtime events stay in-process",
				zap.String("url", appCfg.NATSURL), zap.Error(err))
		}
	}

	return &services{
		Tokens:  ts,
		Authn:   auth.NewAuthenticator(ts, userstore.New(db), logger),
		Mail:    mail,
		Uploads: up,
		Hub:     hub,
		Bus:     bus,
		Metrics: metrics.New(),
		Audit: auditlog.New(audit.New(db), logger, auditlog.Config{
			Auth:    appCfg.AuditLogAuth,
			Project: appCfg.AuditLogProject,
		}),
		Limiter: ratelimit.NewAuthLimiter(),
	}, nil
}

func newUploads(ctx context.Context, appCfg AppConfig) (uploads.Store, error) {
	if appCfg.StorageType == "s3" {
		s3, err := uploads.NewS3(ctx, uploads.S3Config{
			Region:    appCfg.StorageS3Region,
			Bucket:    appCfg.StorageS3Bucket,
			Prefix:    appCfg.StorageS3Prefix,
			PublicURL: appCfg.StorageS3URL,
		})
		if err != nil {
			return nil, fmt.Errorf("s3 storage: %w", err)
		}
		return s3, nil
	}
	return uploads.NewLocal(appCfg.StorageLocalPath, appCfg.StorageLocalURL), nil
}
