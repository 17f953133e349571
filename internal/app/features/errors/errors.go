// internal/app/features/errors/errors.go
package errors

import (
	"net/http"
	"runtime/debug"

	"github.com/dalemusser/projecthub/internal/app/system/apierr"
	"go.uber.org/zap"
)

const (
	MsgRouteNotFound    = "Route not found"
	MsgMethodNotAllowed = "Method not allowed"
)

// Handler renders router-level failures in the API error envelope.
type Handler struct {
	Log *zap.Logger
}

// NewHandler constructs an errors Handler.
func NewHandler(logger *zap.Logger) *Handler {
	return &Handler{Log: logger}
}

// NotFound answers requests that match no route with a 404.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	apierr.WriteStatus(w, http.StatusNotFound, &apierr.Error{
		Kind:     apierr.KindNotFound,
		Msg:      MsgRouteNotFound,
		Path:     r.URL.Path,
		Location: "url",
	})
}

// MethodNotAllowed answers a known path hit with the wrong verb.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	apierr.WriteStatus(w, http.StatusMethodNotAllowed, &apierr.Error{
		Kind:     apierr.KindValidation,
		Msg:      MsgMethodNotAllowed,
		Path:     r.Method,
		Location: "method",
	})
}

// Recoverer turns a handler panic into a logged 500 with the standard
// envelope. http.ErrAbortHandler is re-panicked so the server can abort
// the connection.
func (h *Handler) Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			h.Log.Error("panic serving request",
				zap.Any("panic", rec),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.ByteString("stack", debug.Stack()))
			apierr.Write(w, nil, apierr.Internal(nil))
		}()
		next.ServeHTTP(w, r)
	})
}
