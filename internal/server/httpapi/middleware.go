package httpapi

import (
	"net/http"
	"time"

	"github.com/dmitrijs2005/familyrecipe/internal/common"
	"github.com/dmitrijs2005/familyrecipe/internal/server/auth"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// requireAuth runs the authorizer for the request's method resource and
// passes the verified identity on in the request context.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		arn := auth.BuildMethodARN(s.deps.ResourcePrefix, r.Method, r.URL.Path)

		d, err := s.deps.Authorizer.Authorize(ctx, r.Header.Get(common.AuthorizationHeaderName), arn)
		if err != nil || !d.Allows(arn) {
			writeMessage(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		next.ServeHTTP(w, r.WithContext(auth.WithIdentity(ctx, d.Context)))
	})
}

// observe records per-route metrics and a debug log line.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		elapsed := time.Since(start)

		s.deps.Metrics.ObserveHTTP(r.Method, route, status, elapsed)
		s.logger.Debug(r.Context(), "request", "method", r.Method, "route", route, "status", status, "duration", elapsed)
	})
}
