package apierr_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dalemusser/projecthub/internal/app/system/apierr"
	"go.uber.org/zap"
)

func TestStatus(t *testing.T) {
	tests := []struct {
		name string
		err  *apierr.Error
		want int
	}{
		{"validation", apierr.Validation("title", "body", "Title should be required."), http.StatusBadRequest},
		{"unauthorized", apierr.Unauthorized(""), http.StatusUnauthorized},
		{"forbidden", apierr.Forbidden(""), http.StatusForbidden},
		{"not found is 400", apierr.NotFound("Project not found."), http.StatusBadRequest},
		{"conflict", apierr.Conflict("Email already exists."), http.StatusBadRequest},
		{"expired token", apierr.ExpiredToken(""), http.StatusBadRequest},
		{"rate limited", apierr.RateLimited("slow down"), http.StatusTooManyRequests},
		{"internal", apierr.Internal(errors.New("boom")), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Status(); got != tt.want {
				t.Errorf("Status() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestWrite_Envelope(t *testing.T) {
	rec := httptest.NewRecorder()
	apierr.Write(rec, zap.NewNop(), apierr.Validation("title", "body", "Title should be required."))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want %d", rec.Code, http.StatusBadRequest)
	}

	var body struct {
		Errors []struct {
			Type     string `json:"type"`
			Msg      string `json:"msg"`
			Path     string `json:"path"`
			Location string `json:"location"`
		} `json:"errors"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(body.Errors) != 1 {
		t.Fatalf("errors: got %d entries, want 1", len(body.Errors))
	}
	e := body.Errors[0]
	if e.Type != "validation" || e.Msg != "Title should be required." || e.Path != "title" || e.Location != "body" {
		t.Errorf("unexpected error item: %+v", e)
	}
}

func TestWrite_WrappedError(t *testing.T) {
	rec := httptest.NewRecorder()
	err := fmt.Errorf("update task: %w", apierr.Forbidden("nope"))
	apierr.Write(rec, zap.NewNop(), err)

	if rec.Code != http.StatusForbidden {
		t.Errorf("status: got %d, want %d", rec.Code, http.StatusForbidden)
	}
}

func TestWrite_UnknownErrorIsHidden(t *testing.T) {
	rec := httptest.NewRecorder()
	apierr.Write(rec, zap.NewNop(), errors.New("mongo: connection refused at 10.0.0.3"))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status: got %d, want %d", rec.Code, http.StatusInternalServerError)
	}
	if got := rec.Body.String(); strings.Contains(got, "10.0.0.3") {
		t.Errorf("internal detail leaked into body: %s", got)
	}
}

func TestWriteOK(t *testing.T) {
	rec := httptest.NewRecorder()
	apierr.WriteOK(rec, map[string]string{"id": "abc"})

	var body map[string]map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["message"]["id"] != "abc" {
		t.Errorf("message.id: got %q, want %q", body["message"]["id"], "abc")
	}
}

func TestIsKind(t *testing.T) {
	err := fmt.Errorf("wrap: %w", apierr.NotFound("Task not found."))
	if !apierr.IsKind(err, apierr.KindNotFound) {
		t.Error("expected IsKind(not_found) to be true")
	}
	if apierr.IsKind(err, apierr.KindForbidden) {
		t.Error("expected IsKind(forbidden) to be false")
	}
	if apierr.IsKind(errors.New("plain"), apierr.KindNotFound) {
		t.Error("expected IsKind on plain error to be false")
	}
}
