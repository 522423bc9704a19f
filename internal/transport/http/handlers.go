// @title Lumina Authorization API
// @version 1.0.0
// @description Permission and effective-filter administration for the Lumina platform

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/lumina-learn/lumina/internal/authz"
	"github.com/lumina-learn/lumina/internal/catalog"
	"github.com/lumina-learn/lumina/internal/course"
	"github.com/lumina-learn/lumina/internal/identity"
	"github.com/lumina-learn/lumina/internal/observability/logger"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Handler holds HTTP handlers and dependencies
type Handler struct {
	engine  *authz.Engine
	rules   *authz.RuleService
	guard   *authz.Guard
	catalog *catalog.Service
	courses *course.Service
	tokens  *identity.TokenVerifier
}

// NewHandler creates a new HTTP handler
func NewHandler(
	engine *authz.Engine,
	rules *authz.RuleService,
	guard *authz.Guard,
	catalogService *catalog.Service,
	courseService *course.Service,
	tokens *identity.TokenVerifier,
) *Handler {
	return &Handler{
		engine:  engine,
		rules:   rules,
		guard:   guard,
		catalog: catalogService,
		courses: courseService,
		tokens:  tokens,
	}
}

// NewRouter creates a new HTTP router
func NewRouter(h *Handler, rateLimiter *RateLimiter) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RateLimitMiddleware(rateLimiter))
	r.Use(func(handler http.Handler) http.Handler {
		return otelhttp.NewHandler(handler, "http_request",
			otelhttp.WithSpanNameFormatter(func(operation string, r *http.Request) string {
				return r.Method + " " + r.URL.Path
			}),
		)
	})
	r.Use(LoggingMiddleware())
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(DecisionScope)

	r.Get("/health", h.HealthCheck)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", h.HealthCheck)

		r.Group(func(r chi.Router) {
			r.Use(h.AuthMiddleware)

			r.Post("/authz/evaluate", h.Evaluate)

			r.Get("/courses", h.ListCourses)
			r.Get("/courses/{courseID}", h.GetCourse)

			r.Route("/admin", func(r chi.Router) {
				r.Use(h.RequirePermission(authz.PermPermissionManage, authz.All))

				r.Get("/filter-rules", h.ListFilterRules)
				r.Post("/filter-rules", h.CreateFilterRule)
				r.Patch("/filter-rules/{ruleID}", h.UpdateFilterRuleStatus)
				r.Delete("/filter-rules/{ruleID}", h.DeleteFilterRule)

				r.Post("/role-permissions", h.GrantPermission)
				r.Patch("/role-permissions/{rolePermissionID}", h.UpdateRolePermissionStatus)

				r.Get("/roles/{roleID}/resource-tree", h.ResourceTree)

				r.Get("/permissions", h.ListPermissions)
				r.Patch("/permissions/{permissionID}", h.UpdatePermissionStatus)
				r.Patch("/resources/{resourceID}", h.UpdateResourceStatus)
				r.Patch("/actions/{actionID}", h.UpdateActionStatus)

				r.Get("/assign-rules/restricted", h.ListRestrictedPermissions)
				r.Post("/assign-rules", h.CreateAssignRule)
				r.Patch("/assign-rules/{assignRuleID}", h.UpdateAssignRuleStatus)
			})
		})
	})

	return r
}

// HealthCheck returns the health status
// @Summary Health Check
// @Tags System
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "lumina",
	})
}

// EvaluateRequest names the permission to evaluate for the caller
type EvaluateRequest struct {
	PermissionKey string `json:"permission_key" example:"course:READ"`
}

// Evaluate resolves a permission key for the authenticated caller
// @Summary Evaluate a permission
// @Tags Authorization
// @Accept json
// @Produce json
// @Param request body EvaluateRequest true "Permission key"
// @Success 200 {object} authz.Result
// @Failure 400 {object} map[string]string
// @Failure 503 {object} map[string]any
// @Router /authz/evaluate [post]
func (h *Handler) Evaluate(w http.ResponseWriter, r *http.Request) {
	var req EvaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.PermissionKey == "" {
		respondError(w, http.StatusBadRequest, "permission_key is required")
		return
	}

	user, _ := GetUser(r.Context())
	res, err := h.engine.EvaluatePermission(r.Context(), user, req.PermissionKey)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

// statusCode maps a domain error to its HTTP status. ok is false for
// errors that are not part of any domain contract.
func statusCode(err error) (code int, ok bool) {
	switch {
	case errors.Is(err, authz.ErrRuleAlreadyExists),
		errors.Is(err, authz.ErrAssignRuleExists):
		return http.StatusConflict, true
	case errors.Is(err, authz.ErrRuleNotFound),
		errors.Is(err, authz.ErrRolePermissionNotFound),
		errors.Is(err, authz.ErrRoleNotFound),
		errors.Is(err, authz.ErrAssignRuleNotFound),
		errors.Is(err, catalog.ErrPermissionNotFound),
		errors.Is(err, catalog.ErrResourceNotFound),
		errors.Is(err, catalog.ErrActionNotFound),
		errors.Is(err, course.ErrCourseNotFound):
		return http.StatusNotFound, true
	case errors.Is(err, authz.ErrAssignmentForbidden),
		errors.Is(err, course.ErrAccessDenied):
		return http.StatusForbidden, true
	case errors.Is(err, authz.ErrInvalidFilterType),
		errors.Is(err, catalog.ErrInvalidPermissionKey):
		return http.StatusBadRequest, true
	}
	return 0, false
}

// respondServiceError writes the mapped status for domain errors. Anything
// else is treated as an infrastructure failure the client may retry.
func (h *Handler) respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	if code, ok := statusCode(err); ok {
		respondError(w, code, err.Error())
		return
	}

	slog.ErrorContext(r.Context(), "request failed",
		logger.RequestID(middleware.GetReqID(r.Context())),
		logger.Method(r.Method),
		logger.Path(r.URL.Path),
		logger.Error(err),
	)
	respondJSON(w, http.StatusServiceUnavailable, map[string]any{
		"error":     "service temporarily unavailable",
		"retryable": true,
	})
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}
