// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). WAFFLE's CoreConfig covers
// ports, TLS, log level and request limits; everything specific to
// ProjectHub lives here and is passed to each lifecycle hook.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string
	MongoDatabase    string
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Token signing and lifetimes
	JWTSecret        string
	JWTIssuer        string
	SessionTokenTTL  time.Duration // login sessions (default 30d)
	RegisterTokenTTL time.Duration // registration links (default 5m)
	ResetTokenTTL    time.Duration // password reset links (default 1h)
	InviteTokenTTL   time.Duration // project invites (default 7d)

	// Frontend pages that emailed links point at
	SiteName          string
	AppURL            string // base for deep links in notifications
	CreatePasswordURL string
	ResetPasswordURL  string
	InviteURL         string

	// Email/SMTP configuration. An empty host logs mail instead of sending.
	MailSMTPHost string
	MailSMTPPort int
	MailSMTPUser string
	MailSMTPPass string
	MailSMTPTLS  bool
	MailFrom     string
	MailFromName string

	// Profile picture storage: "local" or "s3"
	StorageType      string
	StorageLocalPath string
	StorageLocalURL  string
	StorageS3Region  string
	StorageS3Bucket  string
	StorageS3Prefix  string
	StorageS3URL     string // public bucket or CDN origin

	// Realtime fan-out. Blank NATS URL keeps delivery in-process.
	NATSURL         string
	RealtimeEnabled bool
	RealtimeOrigins []string // websocket origin patterns

	CORSAllowedOrigins []string

	// Audit logging: all, db, log or off
	AuditLogAuth    string
	AuditLogProject string

	// Orphaned-project cleanup. A zero interval disables the worker.
	OrphanReconcileInterval time.Duration
	OrphanGrace             time.Duration
}
