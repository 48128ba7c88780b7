package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/felixge/httpsnoop"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/handlers"
	"go.uber.org/zap"

	"github.com/atvirokodosprendimai/kvss/internal/logger"
)

const requestIDHeader = "X-Request-Id"

func (h *Handler) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(requestIDHeader))
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(logger.WithRequestID(r.Context(), id)))
	})
}

// observe logs every request and records its latency by route pattern, so
// API keys in the path never become log fields or metric labels.
func (h *Handler) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m := httpsnoop.CaptureMetrics(next, w, r)

		route := routePattern(r)
		if h.metrics != nil {
			h.metrics.ObserveRequest(r.Method, route, m.Code, m.Duration)
		}
		logger.For(r.Context(), h.log).Info("request",
			zap.String("method", r.Method),
			zap.String("route", route),
			zap.Int("status", m.Code),
			zap.Duration("duration", m.Duration),
		)
	})
}

// requireTenant is the access gate for every /api/{apikey} route. The key
// is resolved on each request and the tenant travels only in the request
// context.
func (h *Handler) requireTenant(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tenant, err := h.gate.Authorize(r.Context(), chi.URLParam(r, "apikey"))
		if err != nil {
			h.handleDomainError(w, r, err)
			return
		}
		ctx := context.WithValue(r.Context(), tenantCtxKey, tenant)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// routeOnEscapedPath routes on the escaped request path with a trailing slash
// removed. Route parameters stay percent-encoded until urlParam, so a key
// holding "%2F" or "%25" reaches storage exactly as the client sent it.
func routeOnEscapedPath(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			path := r.URL.EscapedPath()
			if len(path) > 1 {
				path = strings.TrimSuffix(path, "/")
			}
			rctx.RoutePath = path
		}
		next.ServeHTTP(w, r)
	})
}

// answerOptions replies 200 to any OPTIONS request under /api. CORS
// preflights carrying an Origin are answered earlier by the CORS wrapper.
func answerOptions(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// deadline bounds each API request. It only sets the deadline: the handler
// that observes context.DeadlineExceeded writes the 504.
func (h *Handler) deadline(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), h.cfg.RequestTimeout)
		defer cancel()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handler) cors(next http.Handler) http.Handler {
	return handlers.CORS(
		handlers.AllowedOrigins(h.cfg.CORSOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type", requestIDHeader}),
		handlers.ExposedHeaders([]string{requestIDHeader}),
	)(next)
}
