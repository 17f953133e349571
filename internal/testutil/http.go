package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/dalemusser/projecthub/internal/app/system/auth"
	"github.com/dalemusser/projecthub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TestUser represents user data for testing HTTP handlers.
type TestUser struct {
	ID           string
	Name         string
	Email        string
	Role         string
	PricingModel string
}

// CustomerUser returns a free-tier TestUser with a fresh id.
func CustomerUser() TestUser {
	return TestUser{
		ID:           primitive.NewObjectID().Hex(),
		Name:         "Test Customer",
		Email:        "customer@test.com",
		Role:         models.RoleCustomer,
		PricingModel: models.PricingFree,
	}
}

// AsTestUser converts a stored user into a TestUser.
func AsTestUser(u models.User) TestUser {
	return TestUser{
		ID:           u.ID.Hex(),
		Name:         u.FullName,
		Email:        u.Email,
		Role:         u.Role,
		PricingModel: u.PricingModel,
	}
}

// WithUser adds a user to the request context for testing authenticated handlers.
// This bypasses the bearer middleware and injects the user directly.
func WithUser(r *http.Request, user TestUser) *http.Request {
	return auth.WithTestUser(r, &auth.SessionUser{
		ID:           user.ID,
		Name:         user.Name,
		Email:        user.Email,
		Role:         user.Role,
		PricingModel: user.PricingModel,
	})
}

// NewRequest creates an HTTP request for testing.
func NewRequest(method, target string) *http.Request {
	return httptest.NewRequest(method, target, nil)
}

// NewJSONRequest creates a request whose body is v encoded as JSON.
func NewJSONRequest(method, target string, v any) *http.Request {
	var body io.Reader
	if v != nil {
		b, err := json.Marshal(v)
		if err != nil {
			panic(err)
		}
		body = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, target, body)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// NewAuthenticatedRequest creates an HTTP request with a user in context.
func NewAuthenticatedRequest(method, target string, user TestUser) *http.Request {
	return WithUser(httptest.NewRequest(method, target, nil), user)
}

// NewAuthenticatedJSONRequest combines NewJSONRequest and WithUser.
func NewAuthenticatedJSONRequest(method, target string, user TestUser, v any) *http.Request {
	return WithUser(NewJSONRequest(method, target, v), user)
}

// ResponseRecorder wraps httptest.ResponseRecorder with helper methods.
type ResponseRecorder struct {
	*httptest.ResponseRecorder
}

// NewRecorder creates a new ResponseRecorder.
func NewRecorder() *ResponseRecorder {
	return &ResponseRecorder{httptest.NewRecorder()}
}

type tHelper interface {
	Errorf(string, ...any)
	Fatalf(string, ...any)
	Helper()
}

// AssertStatus checks the response status code.
func (r *ResponseRecorder) AssertStatus(t tHelper, expected int) {
	t.Helper()
	if r.Code != expected {
		t.Errorf("status code: got %d, want %d (body: %s)", r.Code, expected, r.Body.String())
	}
}

// AssertContains checks if the response body contains the expected string.
func (r *ResponseRecorder) AssertContains(t tHelper, expected string) {
	t.Helper()
	if !strings.Contains(r.Body.String(), expected) {
		t.Errorf("response body does not contain %q: %s", expected, r.Body.String())
	}
}

// DecodeMessage unmarshals the success envelope's message into dst.
func (r *ResponseRecorder) DecodeMessage(t tHelper, dst any) {
	t.Helper()
	env := struct {
		Message json.RawMessage `json:"message"`
	}{}
	if err := json.Unmarshal(r.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v (body: %s)", err, r.Body.String())
	}
	if err := json.Unmarshal(env.Message, dst); err != nil {
		t.Fatalf("decode message: %v (body: %s)", err, r.Body.String())
	}
}

type errorItem struct {
	Type string `json:"type"`
	Msg  string `json:"msg"`
}

func (r *ResponseRecorder) firstError(t tHelper) errorItem {
	t.Helper()
	env := struct {
		Errors []errorItem `json:"errors"`
	}{}
	if err := json.Unmarshal(r.Body.Bytes(), &env); err != nil || len(env.Errors) == 0 {
		t.Fatalf("expected error envelope, got: %s", r.Body.String())
		return errorItem{}
	}
	return env.Errors[0]
}

// ErrorMsg returns the msg of the first error in an error envelope.
func (r *ResponseRecorder) ErrorMsg(t tHelper) string {
	t.Helper()
	return r.firstError(t).Msg
}

// ErrorType returns the type of the first error in an error envelope.
func (r *ResponseRecorder) ErrorType(t tHelper) string {
	t.Helper()
	return r.firstError(t).Type
}
