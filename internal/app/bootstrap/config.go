// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/projecthub/internal/app/system/auditlog"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for ProjectHub.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, jwt_secret, etc.
//   - Environment variables: PROJECTHUB_MONGO_URI, PROJECTHUB_JWT_SECRET, etc.
//   - Command-line flags: --mongo_uri, --jwt_secret, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "projecthub", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},

	// Tokens
	{Name: "jwt_secret", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "HMAC secret for access tokens (32+ chars in production)"},
	{Name: "jwt_issuer", Default: "projecthub", Desc: "Issuer claim on every token"},
	{Name: "session_token_ttl", Default: "720h", Desc: "Login token lifetime"},
	{Name: "register_token_ttl", Default: "5m", Desc: "Registration link lifetime"},
	{Name: "reset_token_ttl", Default: "1h", Desc: "Password reset link lifetime"},
	{Name: "invite_token_ttl", Default: "168h", Desc: "Project invite lifetime"},

	// Frontend links
	{Name: "site_name", Default: "ProjectHub", Desc: "Product name used in emails"},
	{Name: "app_url", Default: "http://localhost:3000", Desc: "Frontend base URL for deep links"},
	{Name: "create_password_url", Default: "http://localhost:3000/create-password", Desc: "Frontend page for finishing registration"},
	{Name: "reset_password_url", Default: "http://localhost:3000/reset-password", Desc: "Frontend page for password reset"},
	{Name: "invite_url", Default: "http://localhost:3000/invite", Desc: "Frontend page for answering invites"},

	// Email/SMTP configuration
	{Name: "mail_smtp_host", Default: "", Desc: "SMTP server host (blank logs mail instead of sending)"},
	{Name: "mail_smtp_port", Default: 1025, Desc: "SMTP server port"},
	{Name: "mail_smtp_user", Default: "", Desc: "SMTP username"},
	{Name: "mail_smtp_pass", Default: "", Desc: "SMTP password"},
	{Name: "mail_smtp_tls", Default: false, Desc: "Require STARTTLS"},
	{Name: "mail_from", Default: "noreply@projecthub.local", Desc: "From email address"},
	{Name: "mail_from_name", Default: "ProjectHub", Desc: "From display name"},

	// File storage configuration
	{Name: "storage_type", Default: "local", Desc: "Storage backend: 'local' or 's3'"},
	{Name: "storage_local_path", Default: "./uploads/avatars", Desc: "Local storage path for profile pictures"},
	{Name: "storage_local_url", Default: "/files/avatars", Desc: "URL prefix for serving local files"},
	{Name: "storage_s3_region", Default: "", Desc: "AWS region for S3"},
	{Name: "storage_s3_bucket", Default: "", Desc: "S3 bucket name"},
	{Name: "storage_s3_prefix", Default: "avatars/", Desc: "S3 key prefix"},
	{Name: "storage_s3_url", Default: "", Desc: "Public URL objects are served from"},

	// Realtime
	{Name: "nats_url", Default: "", Desc: "NATS server URL (blank keeps events in-process)"},
	{Name: "realtime_enabled", Default: true, Desc: "Serve the /realtime websocket endpoint"},
	{Name: "realtime_origins", Default: "", Desc: "Comma-separated websocket origin patterns"},

	{Name: "cors_allowed_origins", Default: "http://localhost:3000", Desc: "Comma-separated CORS origins"},

	// Audit logging settings
	{Name: "audit_log_auth", Default: "all", Desc: "Auth event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_project", Default: "all", Desc: "Project event logging: 'all' (db+log), 'db', 'log', or 'off'"},

	// Background jobs
	{Name: "orphan_reconcile_interval", Default: "10m", Desc: "How often to clean up half-created projects (0 disables)"},
	{Name: "orphan_grace", Default: "15m", Desc: "Minimum age before an ownerless project is removed"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles .env files, config files,
// PROJECTHUB_* environment variables and command-line flags, merged with
// precedence flags > env > files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "PROJECTHUB", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		JWTSecret:        appValues.String("jwt_secret"),
		JWTIssuer:        appValues.String("jwt_issuer"),
		SessionTokenTTL:  appValues.Duration("session_token_ttl", 30*24*time.Hour),
		RegisterTokenTTL: appValues.Duration("register_token_ttl", 5*time.Minute),
		ResetTokenTTL:    appValues.Duration("reset_token_ttl", time.Hour),
		InviteTokenTTL:   appValues.Duration("invite_token_ttl", 7*24*time.Hour),

		SiteName:          appValues.String("site_name"),
		AppURL:            appValues.String("app_url"),
		CreatePasswordURL: appValues.String("create_password_url"),
		ResetPasswordURL:  appValues.String("reset_password_url"),
		InviteURL:         appValues.String("invite_url"),

		MailSMTPHost: appValues.String("mail_smtp_host"),
		MailSMTPPort: appValues.Int("mail_smtp_port"),
		MailSMTPUser: appValues.String("mail_smtp_user"),
		MailSMTPPass: appValues.String("mail_smtp_pass"),
		MailSMTPTLS:  appValues.Bool("mail_smtp_tls"),
		MailFrom:     appValues.String("mail_from"),
		MailFromName: appValues.String("mail_from_name"),

		StorageType:      appValues.String("storage_type"),
		StorageLocalPath: appValues.String("storage_local_path"),
		StorageLocalURL:  appValues.String("storage_local_url"),
		StorageS3Region:  appValues.String("storage_s3_region"),
		StorageS3Bucket:  appValues.String("storage_s3_bucket"),
		StorageS3Prefix:  appValues.String("storage_s3_prefix"),
		StorageS3URL:     appValues.String("storage_s3_url"),

		NATSURL:         appValues.String("nats_url"),
		RealtimeEnabled: appValues.Bool("realtime_enabled"),
		RealtimeOrigins: splitList(appValues.String("realtime_origins")),

		CORSAllowedOrigins: splitList(appValues.String("cors_allowed_origins")),

		AuditLogAuth:    appValues.String("audit_log_auth"),
		AuditLogProject: appValues.String("audit_log_project"),

		OrphanReconcileInterval: appValues.Duration("orphan_reconcile_interval", 10*time.Minute),
		OrphanGrace:             appValues.Duration("orphan_grace", 15*time.Minute),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig rejects configurations that would fail later at runtime.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	return validateApp(coreCfg.Env, appCfg)
}

func validateApp(env string, appCfg AppConfig) error {
	if appCfg.JWTSecret == "" {
		return fmt.Errorf("jwt_secret is required")
	}
	if env == "prod" && len(appCfg.JWTSecret) < 32 {
		return fmt.Errorf("jwt_secret must be at least 32 characters in production")
	}

	switch appCfg.StorageType {
	case "local":
		if appCfg.StorageLocalPath == "" {
			return fmt.Errorf("storage_local_path is required for local storage")
		}
	case "s3":
		if appCfg.StorageS3Bucket == "" || appCfg.StorageS3Region == "" {
			return fmt.Errorf("s3 storage requires storage_s3_bucket and storage_s3_region")
		}
	default:
		return fmt.Errorf("storage_type must be 'local' or 's3', got %q", appCfg.StorageType)
	}

	for key, v := range map[string]string{
		"audit_log_auth":    appCfg.AuditLogAuth,
		"audit_log_project": appCfg.AuditLogProject,
	} {
		switch v {
		case auditlog.All, auditlog.DB, auditlog.Log, auditlog.Off:
		default:
			return fmt.Errorf("%s must be all, db, log or off, got %q", key, v)
		}
	}

	if appCfg.OrphanReconcileInterval > 0 && appCfg.OrphanGrace <= 0 {
		return fmt.Errorf("orphan_grace must be positive when the orphan worker is enabled")
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
