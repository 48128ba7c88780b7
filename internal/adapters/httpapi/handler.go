package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/atvirokodosprendimai/kvss/internal/core/domain"
	"github.com/atvirokodosprendimai/kvss/internal/core/usecase"
	"github.com/atvirokodosprendimai/kvss/internal/logger"
	"github.com/atvirokodosprendimai/kvss/internal/metrics"
)

type ctxKey string

const (
	timeFormat             = "2006-01-02T15:04:05.999999999Z07:00"
	tenantCtxKey    ctxKey = "tenant"
	maxJSONBodySize        = 1 << 20
)

type Config struct {
	// RequestTimeout bounds each request, including its storage calls.
	RequestTimeout time.Duration
	CORSOrigins    []string
}

type Handler struct {
	registry *usecase.RegistryService
	gate     *usecase.AccessGate
	pairs    *usecase.PairService
	metrics  *metrics.Metrics
	log      *zap.Logger
	cfg      Config
}

func NewHandler(registry *usecase.RegistryService, gate *usecase.AccessGate, pairs *usecase.PairService, m *metrics.Metrics, log *zap.Logger, cfg Config) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 5 * time.Second
	}
	if len(cfg.CORSOrigins) == 0 {
		cfg.CORSOrigins = []string{"*"}
	}
	return &Handler{registry: registry, gate: gate, pairs: pairs, metrics: m, log: log, cfg: cfg}
}

func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(h.requestID)
	r.Use(h.observe)
	r.Use(middleware.Recoverer)
	r.Use(routeOnEscapedPath)

	r.Get("/healthz", h.healthz)
	r.Get("/openapi.json", h.openapi)
	if h.metrics != nil {
		r.Method(http.MethodGet, "/metrics", h.metrics.Handler())
	}

	r.Route("/api", func(api chi.Router) {
		api.Use(answerOptions)
		api.Use(h.deadline)
		api.Post("/newapikey", h.createTenant)

		api.Route("/{apikey}", func(tr chi.Router) {
			tr.Use(h.requireTenant)
			tr.Get("/", h.listPairs)
			tr.Patch("/", h.updateTenant)
			tr.Get("/{key}", h.getPair)
			tr.Put("/{key}", h.upsertPair)
		})
	})

	return h.cors(r)
}

type tenantResponse struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Note     string `json:"note"`
	APIKey   string `json:"apikey"`
	Created  string `json:"created"`
	Modified string `json:"modified"`
}

type pairListItem struct {
	Key      string `json:"key"`
	Value    string `json:"value"`
	Created  string `json:"created"`
	Modified string `json:"modified"`
}

type pairResponse struct {
	Key      string `json:"key"`
	Value    string `json:"value"`
	APIKey   string `json:"apikey"`
	Created  string `json:"created"`
	Modified string `json:"modified"`
}

func (h *Handler) createTenant(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodySize)

	var req createTenantRequest
	if err := decodeBody(r.Body, createTenantSchema, &req, true); err != nil {
		h.handleDomainError(w, r, err)
		return
	}

	tenant, err := h.registry.CreateTenant(r.Context(), domain.TenantProfile{
		Name:  req.Name,
		Email: req.Email,
		Note:  req.Note,
	})
	if err != nil {
		h.handleDomainError(w, r, err)
		return
	}

	logger.For(r.Context(), h.log).Info("tenant created", zap.Int64("tenant_id", tenant.ID))
	h.writeJSON(w, http.StatusOK, toTenantResponse(tenant))
}

func (h *Handler) updateTenant(w http.ResponseWriter, r *http.Request) {
	tenant := tenantFromContext(r.Context())
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodySize)

	var req createTenantRequest
	if err := decodeBody(r.Body, updateTenantSchema, &req, false); err != nil {
		h.handleDomainError(w, r, err)
		return
	}

	updated, err := h.registry.UpdateTenant(r.Context(), tenant.Key, domain.TenantProfile{
		Name:  req.Name,
		Email: req.Email,
		Note:  req.Note,
	})
	if err != nil {
		h.handleDomainError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, toTenantResponse(updated))
}

func (h *Handler) listPairs(w http.ResponseWriter, r *http.Request) {
	tenant := tenantFromContext(r.Context())

	pairs, err := h.pairs.List(r.Context(), tenant)
	if err != nil {
		h.handleDomainError(w, r, err)
		return
	}

	result := make([]pairListItem, 0, len(pairs))
	for _, p := range pairs {
		result = append(result, pairListItem{
			Key:      p.Key,
			Value:    p.Value,
			Created:  formatTime(p.Created),
			Modified: formatTime(p.Modified),
		})
	}
	h.writeJSON(w, http.StatusOK, result)
}

func (h *Handler) getPair(w http.ResponseWriter, r *http.Request) {
	tenant := tenantFromContext(r.Context())
	key, err := urlParam(r, "key")
	if err != nil {
		h.handleDomainError(w, r, err)
		return
	}

	pair, err := h.pairs.Get(r.Context(), tenant, key)
	if err != nil {
		h.handleDomainError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, toPairResponse(tenant, pair))
}

func (h *Handler) upsertPair(w http.ResponseWriter, r *http.Request) {
	tenant := tenantFromContext(r.Context())
	key, err := urlParam(r, "key")
	if err != nil {
		h.handleDomainError(w, r, err)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodySize)

	var req upsertPairRequest
	if err := decodeBody(r.Body, upsertPairSchema, &req, false); err != nil {
		h.handleDomainError(w, r, err)
		return
	}

	pair, err := h.pairs.Upsert(r.Context(), tenant, key, req.Value)
	if err != nil {
		h.handleDomainError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, toPairResponse(tenant, pair))
}

func (h *Handler) healthz(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *Handler) openapi(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, openapiDocument())
}

func toTenantResponse(t domain.Tenant) tenantResponse {
	return tenantResponse{
		Name:     t.Name,
		Email:    t.Email,
		Note:     t.Note,
		APIKey:   t.Key,
		Created:  formatTime(t.Created),
		Modified: formatTime(t.Modified),
	}
}

func toPairResponse(t domain.Tenant, p domain.Pair) pairResponse {
	return pairResponse{
		Key:      p.Key,
		Value:    p.Value,
		APIKey:   t.Key,
		Created:  formatTime(p.Created),
		Modified: formatTime(p.Modified),
	}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeFormat)
}

// urlParam decodes a route parameter. Routing runs on the escaped path, so
// this is the only place a parameter is unescaped.
func urlParam(r *http.Request, name string) (string, error) {
	v, err := url.PathUnescape(chi.URLParam(r, name))
	if err != nil {
		return "", badRequest("malformed %s", name)
	}
	return v, nil
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body any) {
	data, err := json.Marshal(body)
	if err != nil {
		h.log.Error("encode json response", zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(append(data, '\n')); err != nil {
		h.log.Debug("write response", zap.Error(err))
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]any{"error": message})
}

func (h *Handler) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var bad *badRequestError
	switch {
	case errors.As(err, &bad):
		h.writeError(w, http.StatusBadRequest, bad.msg)
	case errors.Is(err, domain.ErrInvalidKey), errors.Is(err, domain.ErrInvalidValue):
		h.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrTenantNotFound), errors.Is(err, usecase.ErrUnauthorized):
		h.writeError(w, http.StatusNotFound, domain.ErrTenantNotFound.Error())
	case errors.Is(err, domain.ErrPairNotFound):
		h.writeError(w, http.StatusNotFound, domain.ErrPairNotFound.Error())
	case errors.Is(err, domain.ErrNotFound):
		h.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		logger.For(r.Context(), h.log).Warn("request deadline exceeded", zap.String("route", routePattern(r)))
		h.writeError(w, http.StatusGatewayTimeout, "storage timeout")
	default:
		logger.For(r.Context(), h.log).Error("request failed", zap.String("route", routePattern(r)), zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// routePattern names the matched route without its parameters, so API keys
// stay out of logs and metric labels.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		return rctx.RoutePattern()
	}
	return ""
}

func tenantFromContext(ctx context.Context) domain.Tenant {
	tenant, _ := ctx.Value(tenantCtxKey).(domain.Tenant)
	return tenant
}

func openapiDocument() map[string]any {
	tenant := map[string]any{"$ref": "#/components/schemas/Tenant"}
	pair := map[string]any{"$ref": "#/components/schemas/Pair"}
	errorResponse := map[string]any{"description": "Unknown API key or pair"}

	return map[string]any{
		"openapi": "3.0.3",
		"info": map[string]any{
			"title":   "kvss",
			"version": "1.0.0",
		},
		"paths": map[string]any{
			"/api/newapikey/": map[string]any{
				"post": map[string]any{
					"summary":   "Issue a new API key",
					"responses": map[string]any{"200": jsonResponse("Created tenant", tenant)},
				},
			},
			"/api/{apikey}/": map[string]any{
				"get": map[string]any{
					"summary": "List the pairs of a tenant",
					"responses": map[string]any{
						"200": jsonResponse("Pairs ordered by key", map[string]any{"type": "array", "items": pair}),
						"404": errorResponse,
					},
				},
				"patch": map[string]any{
					"summary":   "Update the tenant profile",
					"responses": map[string]any{"200": jsonResponse("Updated tenant", tenant), "404": errorResponse},
				},
			},
			"/api/{apikey}/{key}/": map[string]any{
				"get": map[string]any{
					"summary":   "Get a pair",
					"responses": map[string]any{"200": jsonResponse("Pair", pair), "404": errorResponse},
				},
				"put": map[string]any{
					"summary":   "Create or overwrite a pair",
					"responses": map[string]any{"200": jsonResponse("Stored pair", pair), "400": map[string]any{"description": "Missing or invalid value"}, "404": errorResponse},
				},
			},
		},
		"components": map[string]any{
			"schemas": map[string]any{
				"Tenant": objectSchema("name", "email", "note", "apikey", "created", "modified"),
				"Pair":   objectSchema("key", "value", "apikey", "created", "modified"),
			},
		},
	}
}

func jsonResponse(description string, schema map[string]any) map[string]any {
	return map[string]any{
		"description": description,
		"content": map[string]any{
			"application/json": map[string]any{"schema": schema},
		},
	}
}

func objectSchema(fields ...string) map[string]any {
	props := make(map[string]any, len(fields))
	for _, f := range fields {
		props[f] = map[string]any{"type": "string"}
	}
	return map[string]any{"type": "object", "properties": props}
}
