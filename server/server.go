// Package server is the runtime of generated controllers: request decoding,
// categorized error responses and the typed handler adapters each
// generated endpoint delegates to.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Routable is implemented by generated base controllers.
type Routable interface {
	Routes(chi.Router)
}

// Mount registers the routes of ctrl under /<name>.
func Mount(r chi.Router, name string, ctrl Routable) {
	r.Route("/"+name, ctrl.Routes)
}

// NewRouter returns a chi router serving the given controllers, keyed by
// controller name, with the logger attached to every request.
func NewRouter(log *zap.Logger, ctrls map[string]Routable) chi.Router {
	r := chi.NewRouter()
	r.Use(WithLogger(log))
	for name, ctrl := range ctrls {
		Mount(r, name, ctrl)
	}
	return r
}

type loggerCtxKey struct{}

// WithLogger returns a middleware attaching log to the request context.
func WithLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), loggerCtxKey{}, log)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Logger returns the request logger, or a no-op logger.
func Logger(ctx context.Context) *zap.Logger {
	if l, ok := ctx.Value(loggerCtxKey{}).(*zap.Logger); ok && l != nil {
		return l
	}
	return zap.NewNop()
}

// Respond writes v as JSON, or the error response of err.
func Respond(w http.ResponseWriter, r *http.Request, v any, err error) {
	if err != nil {
		WriteError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(v)
}

// RespondText writes s as plain text, or the error response of err.
func RespondText(w http.ResponseWriter, r *http.Request, s string, err error) {
	if err != nil {
		WriteError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(s))
}

// NoContent writes an empty 200 response, or the error response of err.
func NoContent(w http.ResponseWriter, r *http.Request, err error) {
	if err != nil {
		WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// Attachment writes data as a downloadable file, or the error response of
// err.
func Attachment(w http.ResponseWriter, r *http.Request, name string, data []byte, err error) {
	if err != nil {
		WriteError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename*=UTF-8''%s", url.PathEscape(name)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
