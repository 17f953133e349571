package bootstrap

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/projecthub/internal/testutil"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

func testLogger() *zap.Logger {
	return zap.NewNop()
}

func validConfig() AppConfig {
	return AppConfig{
		JWTSecret:               strings.Repeat("k", 40),
		StorageType:             "local",
		StorageLocalPath:        "./uploads",
		AuditLogAuth:            "all",
		AuditLogProject:         "off",
		OrphanReconcileInterval: time.Minute,
		OrphanGrace:             time.Minute,
	}
}

func TestValidateApp(t *testing.T) {
	tests := []struct {
		name    string
		env     string
		mutate  func(*AppConfig)
		wantErr string
	}{
		{"valid", "prod", func(*AppConfig) {}, ""},
		{"missing secret", "dev", func(c *AppConfig) { c.JWTSecret = "" }, "jwt_secret is required"},
		{"short secret in prod", "prod", func(c *AppConfig) { c.JWTSecret = "short" }, "at least 32"},
		{"short secret in dev", "dev", func(c *AppConfig) { c.JWTSecret = "short" }, ""},
		{"s3 without bucket", "dev", func(c *AppConfig) { c.StorageType = "s3"; c.StorageS3Region = "us-east-1" }, "storage_s3_bucket"},
		{"s3 complete", "dev", func(c *AppConfig) {
			c.StorageType = "s3"
			c.StorageS3Region = "us-east-1"
			c.StorageS3Bucket = "avatars"
		}, ""},
		{"unknown storage", "dev", func(c *AppConfig) { c.StorageType = "ftp" }, "storage_type"},
		{"bad audit mode", "dev", func(c *AppConfig) { c.AuditLogProject = "loud" }, "audit_log_project"},
		{"orphan worker without grace", "dev", func(c *AppConfig) { c.OrphanGrace = 0 }, "orphan_grace"},
		{"orphan worker disabled", "dev", func(c *AppConfig) { c.OrphanReconcileInterval = 0; c.OrphanGrace = 0 }, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := validateApp(tt.env, cfg)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("err = %v, want it to mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestSplitList(t *testing.T) {
	got := splitList(" http://a.test, ,http://b.test ,")
	if len(got) != 2 || got[0] != "http://a.test" || got[1] != "http://b.test" {
		t.Errorf("splitList = %q", got)
	}
	if got := splitList(""); got != nil {
		t.Errorf("splitList(\"\") = %q, want nil", got)
	}
}

func TestRequestID(t *testing.T) {
	h := requestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
	generated := rec.Header().Get(requestIDHeader)
	if generated == "" {
		t.Fatal("no request id generated")
	}

	const incoming = "7d444840-9dc0-11d1-b245-5ffdce74fad2"
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set(requestIDHeader, incoming)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if got := rec.Header().Get(requestIDHeader); got != incoming {
		t.Errorf("request id = %q, want incoming %q", got, incoming)
	}

	req = httptest.NewRequest("GET", "/", nil)
	req.Header.Set(requestIDHeader, "not a uuid\r\nX-Evil: 1")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if got := rec.Header().Get(requestIDHeader); strings.Contains(got, "Evil") {
		t.Errorf("malformed id was echoed: %q", got)
	}
}

func TestBuildHandler_Routes(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	appCfg := validConfig()
	appCfg.StorageLocalPath = t.TempDir()
	appCfg.RealtimeEnabled = true
	appCfg.OrphanReconcileInterval = 0
	appCfg.CORSAllowedOrigins = []string{"http://app.test"}

	deps := DBDeps{MongoClient: db.Client(), MongoDatabase: db}
	if err := EnsureSchema(ctx, &config.CoreConfig{}, appCfg, deps, testLogger()); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}
	s, err := newServices(context.Background(), appCfg, deps, testLogger())
	if err != nil {
		t.Fatalf("newServices: %v", err)
	}
	svc = s
	t.Cleanup(func() {
		svc.Scheduler.Stop()
		svc.Limiter.Stop()
		svc = nil
	})

	h, err := BuildHandler(&config.CoreConfig{}, appCfg, deps, testLogger())
	if err != nil {
		t.Fatalf("BuildHandler: %v", err)
	}

	tests := []struct {
		method, path string
		status       int
	}{
		{"GET", "/health", http.StatusOK},
		{"GET", "/metrics", http.StatusOK},
		{"GET", "/projects", http.StatusUnauthorized},
		{"GET", "/sheets", http.StatusUnauthorized},
		{"GET", "/todos", http.StatusUnauthorized},
		{"GET", "/auth/self", http.StatusUnauthorized},
		{"GET", "/realtime/projects/" + strings.Repeat("a", 24), http.StatusUnauthorized},
		{"GET", "/nope", http.StatusNotFound},
		{"POST", "/health", http.StatusMethodNotAllowed},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.status, rec.Body.String())
			}
			if rec.Header().Get(requestIDHeader) == "" {
				t.Error("missing request id header")
			}
		})
	}

	// Preflight from an allowed origin.
	req := httptest.NewRequest("OPTIONS", "/projects", nil)
	req.Header.Set("Origin", "http://app.test")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://app.test" {
		t.Errorf("allow-origin = %q", got)
	}
}
