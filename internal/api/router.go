// Package api wires together all HTTP routes for the evidence archive backend.
//
// Every business route runs the same chain:
//
//	AuditEvent -> AuthMiddleware -> RateLimit -> RequireScope -> handler
//
// AuditEvent comes first so that requests rejected by authentication are still
// recorded. Audit routes skip RequireScope: the audit Guard checks scopes itself and
// folds every denial into a 404.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/digital-evidence-archive/dea-backend/internal/api/audits"
	"github.com/digital-evidence-archive/dea-backend/internal/api/authn"
	"github.com/digital-evidence-archive/dea-backend/internal/api/cases"
	"github.com/digital-evidence-archive/dea-backend/internal/api/files"
	"github.com/digital-evidence-archive/dea-backend/internal/audit"
	"github.com/digital-evidence-archive/dea-backend/internal/auth"
	"github.com/digital-evidence-archive/dea-backend/internal/config"
	"github.com/digital-evidence-archive/dea-backend/internal/db/models"
	"github.com/digital-evidence-archive/dea-backend/internal/middleware"
)

// Version is reported by /version; cmd/server overrides it at link time
var Version = "0.1.0"

// Pinger reports whether the backing store is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependencies carries everything the router serves. Login is nil when only locally
// signed tokens are accepted.
type Dependencies struct {
	Config   *config.Config
	Store    Pinger
	Verifier auth.TokenVerifier
	Users    middleware.UserResolver
	Login    authn.LoginProvider
	Cases    cases.CaseService
	Files    files.FileService
	Audits   audits.Starter
	Guard    audits.Authorizer
	Recorder middleware.AuditRecorder
}

// BackgroundServices holds references to background resources that must be stopped
// during graceful shutdown. The caller (cmd/server) is responsible for calling
// Shutdown() when the process receives a termination signal.
type BackgroundServices struct {
	rateLimiters []*middleware.RateLimiter
}

// Shutdown stops all background goroutines. It should be called after the HTTP
// server has been shut down so that in-flight requests are drained first.
func (bg *BackgroundServices) Shutdown() {
	slog.Info("stopping background services")
	for _, rl := range bg.rateLimiters {
		rl.Stop()
	}
	slog.Info("all background services stopped")
}

// routes registers audited, authenticated endpoints on one group
type routes struct {
	group   *gin.RouterGroup
	authn   gin.HandlerFunc
	limiter gin.HandlerFunc
}

func (r routes) handle(method, path string, event audit.EventType, handlers ...gin.HandlerFunc) {
	chain := append([]gin.HandlerFunc{middleware.AuditEvent(event), r.authn, r.limiter}, handlers...)
	r.group.Handle(method, path, chain...)
}

// NewRouter creates and configures the Gin router
func NewRouter(deps Dependencies) (*gin.Engine, *BackgroundServices) {
	cfg := deps.Config
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.MetricsMiddleware())
	router.Use(LoggerMiddleware(cfg))
	router.Use(CORSMiddleware(cfg))
	router.Use(middleware.SecurityHeadersMiddleware(middleware.APISecurityHeadersConfig()))
	router.Use(middleware.AuditMiddleware(deps.Recorder))

	router.GET("/health", healthCheckHandler(deps.Store))
	router.GET("/version", versionHandler())

	authRateLimiter := middleware.NewRateLimiter(middleware.AuthRateLimitConfig())
	generalRateLimiter := middleware.NewRateLimiter(middleware.DefaultRateLimitConfig())
	auditRateLimiter := middleware.NewRateLimiter(middleware.AuditRateLimitConfig())

	authMiddleware := middleware.AuthMiddleware(deps.Verifier, deps.Users, cfg.ScopesForRole)

	// Login endpoints are unauthenticated; they are rate limited per client IP
	authHandlers := authn.NewHandlers(deps.Login)
	authLimit := middleware.RateLimitMiddleware(authRateLimiter)
	authGroup := router.Group("/auth")
	{
		authGroup.GET("/loginUrl", middleware.AuditEvent(audit.EventGetLoginURL), authLimit, authHandlers.LoginURLHandler())
		authGroup.POST("/:authCode/token", middleware.AuditEvent(audit.EventGetAuthToken), authLimit, authHandlers.TokenHandler())
		if cfg.Auth.Mode == "jwt" && auth.IsDevMode() {
			slog.Warn("dev token endpoint enabled at POST /auth/dev/token")
			authGroup.POST("/dev/token", middleware.AuditEvent(audit.EventGetAuthToken), authLimit, authHandlers.DevTokenHandler())
		}
	}

	api := routes{
		group:   router.Group(""),
		authn:   authMiddleware,
		limiter: middleware.RateLimitMiddleware(generalRateLimiter),
	}

	caseHandlers := cases.NewHandlers(deps.Cases)
	api.handle(http.MethodPost, "/cases", audit.EventCreateCase,
		middleware.RequireScope(auth.ScopeCasesWrite), caseHandlers.CreateHandler())
	api.handle(http.MethodGet, "/cases/my-cases", audit.EventGetMyCases,
		middleware.RequireScope(auth.ScopeCasesRead), caseHandlers.MyCasesHandler())
	api.handle(http.MethodGet, "/cases/:caseId/details", audit.EventGetCaseDetails,
		middleware.RequireScope(auth.ScopeCasesRead), caseHandlers.GetDetailsHandler())
	api.handle(http.MethodPut, "/cases/:caseId/details", audit.EventUpdateCaseDetails,
		middleware.RequireScope(auth.ScopeCasesWrite), caseHandlers.UpdateDetailsHandler())
	api.handle(http.MethodGet, "/cases/:caseId/user-memberships", audit.EventGetUsersFromCase,
		middleware.RequireScope(auth.ScopeCasesRead), caseHandlers.ListMembersHandler())
	api.handle(http.MethodPost, "/cases/:caseId/user-memberships", audit.EventInviteUserToCase,
		middleware.RequireScope(auth.ScopeCasesWrite), caseHandlers.InviteHandler())
	api.handle(http.MethodDelete, "/cases/:caseId/users/:userId/memberships", audit.EventRemoveUserFromCase,
		middleware.RequireScope(auth.ScopeCasesWrite), caseHandlers.RemoveMemberHandler())

	fileHandlers := files.NewHandlers(deps.Files)
	api.handle(http.MethodPost, "/cases/:caseId/files", audit.EventInitiateCaseFileUpload,
		middleware.RequireScope(auth.ScopeFilesWrite), fileHandlers.InitiateUploadHandler())
	api.handle(http.MethodPut, "/cases/:caseId/files/:fileId/contents", audit.EventCompleteCaseFileUpload,
		middleware.RequireScope(auth.ScopeFilesWrite), fileHandlers.CompleteUploadHandler())
	api.handle(http.MethodGet, "/cases/:caseId/files/:fileId/info", audit.EventGetCaseFileDetail,
		middleware.RequireScope(auth.ScopeFilesRead), fileHandlers.InfoHandler())
	api.handle(http.MethodGet, "/cases/:caseId/files/:fileId/contents", audit.EventDownloadCaseFile,
		middleware.RequireScope(auth.ScopeFilesRead), fileHandlers.DownloadHandler())

	// Starting an audit runs a Logs Insights query, so starts get their own, tighter
	// limiter. Polling is cheap and clients repeat it until the query finishes.
	auditStart := routes{
		group:   router.Group(""),
		authn:   authMiddleware,
		limiter: middleware.RateLimitMiddleware(auditRateLimiter),
	}
	auditHandlers := audits.NewHandlers(deps.Audits, deps.Guard)
	registerAudit := func(prefix string, auditType models.AuditType, scopeOf audits.ScopeFunc) {
		auditStart.handle(http.MethodPost, prefix+"/audit", audit.RequestEventType(auditType),
			auditHandlers.StartHandler(scopeOf))
		api.handle(http.MethodGet, prefix+"/audit/:auditId/csv", audit.ResultEventType(auditType),
			auditHandlers.ResultsHandler(scopeOf))
	}
	registerAudit("/cases/:caseId", models.AuditTypeCase, audits.CaseScope)
	registerAudit("/cases/:caseId/files/:fileId", models.AuditTypeCaseFile, audits.CaseFileScope)
	registerAudit("/users/:userId", models.AuditTypeUser, audits.UserScope)
	registerAudit("/system", models.AuditTypeSystem, audits.SystemScope)

	bg := &BackgroundServices{
		rateLimiters: []*middleware.RateLimiter{authRateLimiter, generalRateLimiter, auditRateLimiter},
	}

	return router, bg
}

// @Summary      Health check
// @Description  Returns the health status of the service, including table connectivity.
// @Tags         System
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "status: healthy, time: RFC3339 timestamp"
// @Failure      503  {object}  map[string]interface{}  "status: unhealthy, error: database connection failed"
// @Router       /health [get]
// healthCheckHandler returns the health status of the service
func healthCheckHandler(store Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		if err := store.Ping(ctx); err != nil {
			slog.WarnContext(ctx, "health check failed", "error", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "unhealthy",
				"error":  "database connection failed",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status": "healthy",
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	}
}

// versionHandler returns the API version
func versionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"version":     Version,
			"api_version": "v1",
		})
	}
}

// LoggerMiddleware provides structured logging
func LoggerMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		// slog emits text or JSON depending on the handler telemetry.SetupLogger
		// installed for cfg.Logging.Format
		requestID, _ := c.Get(middleware.RequestIDKey)
		level := slog.LevelInfo
		if c.Writer.Status() >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		slog.LogAttrs(
			c.Request.Context(),
			level,
			"http request",
			slog.String("method", c.Request.Method),
			slog.String("path", path),
			slog.String("route", c.FullPath()),
			slog.Int("status", c.Writer.Status()),
			slog.Int("size", c.Writer.Size()),
			slog.Duration("latency", time.Since(start)),
			slog.String("ip", c.ClientIP()),
			slog.String("request_id", fmt.Sprintf("%v", requestID)),
			slog.String("user_id", c.GetString(middleware.UserIDKey)),
			slog.String("user_agent", c.Request.UserAgent()),
		)
	}
}

// CORSMiddleware handles CORS
func CORSMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")

		allowed := false
		for _, allowedOrigin := range cfg.Server.AllowedOrigins {
			if allowedOrigin == "*" || allowedOrigin == origin {
				allowed = true
				break
			}
		}

		if allowed {
			if origin == "" {
				c.Header("Access-Control-Allow-Origin", "*")
			} else {
				c.Header("Access-Control-Allow-Origin", origin)
				c.Header("Vary", "Origin")
			}
			c.Header("Access-Control-Allow-Credentials", "true")
			c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID")
			c.Header("Access-Control-Expose-Headers", "Content-Disposition, X-Audit-Rows, X-Request-ID")
			c.Header("Access-Control-Max-Age", "3600")
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
