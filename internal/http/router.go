// Package httpapi builds the gin engine: shared middleware, the admin JSON
// API under the configured base path, and the redirect path. Slugs are not
// routes; every path the router does not know, including "/", falls through
// to the redirect handler.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	_ "github.com/tbourn/go-redirect-service/docs"
	"github.com/tbourn/go-redirect-service/internal/config"
	"github.com/tbourn/go-redirect-service/internal/domain"
	"github.com/tbourn/go-redirect-service/internal/http/handlers"
	"github.com/tbourn/go-redirect-service/internal/http/middleware"
	"github.com/tbourn/go-redirect-service/internal/repo"
	"github.com/tbourn/go-redirect-service/internal/services"
)

// adminRepoShim satisfies services.DestinationRepo and services.AliasRepo
// with the repo package's free functions.
type adminRepoShim struct{}

// CreateDestination proxies repo.CreateDestination.
func (adminRepoShim) CreateDestination(ctx context.Context, db *gorm.DB, d *domain.Destination) (*domain.Destination, error) {
	return repo.CreateDestination(ctx, db, d)
}

// GetDestination proxies repo.GetDestination.
func (adminRepoShim) GetDestination(ctx context.Context, db *gorm.DB, id, userID string) (*domain.Destination, error) {
	return repo.GetDestination(ctx, db, id, userID)
}

// CountDestinations proxies repo.CountDestinations (pagination support).
func (adminRepoShim) CountDestinations(ctx context.Context, db *gorm.DB, userID string) (int64, error) {
	return repo.CountDestinations(ctx, db, userID)
}

// ListDestinationsPage proxies repo.ListDestinationsPage (pagination support).
func (adminRepoShim) ListDestinationsPage(ctx context.Context, db *gorm.DB, userID string, offset, limit int) ([]domain.Destination, error) {
	return repo.ListDestinationsPage(ctx, db, userID, offset, limit)
}

// UpdateDestination proxies repo.UpdateDestination.
func (adminRepoShim) UpdateDestination(ctx context.Context, db *gorm.DB, id, userID string, p repo.DestinationPatch) error {
	return repo.UpdateDestination(ctx, db, id, userID, p)
}

// SoftDeleteDestination proxies repo.SoftDeleteDestination.
func (adminRepoShim) SoftDeleteDestination(ctx context.Context, db *gorm.DB, id, userID string, at time.Time) error {
	return repo.SoftDeleteDestination(ctx, db, id, userID, at)
}

// ListAliasSlugs proxies repo.ListAliasSlugs.
func (adminRepoShim) ListAliasSlugs(ctx context.Context, db *gorm.DB, destinationID string) ([]string, error) {
	return repo.ListAliasSlugs(ctx, db, destinationID)
}

// HitStats proxies repo.HitStats.
func (adminRepoShim) HitStats(ctx context.Context, db *gorm.DB, destinationID string) (int64, *time.Time, error) {
	return repo.HitStats(ctx, db, destinationID)
}

// CreateAlias proxies repo.CreateAlias.
func (adminRepoShim) CreateAlias(ctx context.Context, db *gorm.DB, a *domain.Alias) (*domain.Alias, error) {
	return repo.CreateAlias(ctx, db, a)
}

// ListAliases proxies repo.ListAliases.
func (adminRepoShim) ListAliases(ctx context.Context, db *gorm.DB, destinationID string) ([]domain.Alias, error) {
	return repo.ListAliases(ctx, db, destinationID)
}

// GetAlias proxies repo.GetAlias.
func (adminRepoShim) GetAlias(ctx context.Context, db *gorm.DB, id, destinationID string) (*domain.Alias, error) {
	return repo.GetAlias(ctx, db, id, destinationID)
}

// SoftDeleteAlias proxies repo.SoftDeleteAlias.
func (adminRepoShim) SoftDeleteAlias(ctx context.Context, db *gorm.DB, id, destinationID string, at time.Time) error {
	return repo.SoftDeleteAlias(ctx, db, id, destinationID, at)
}

// idempotencyStore persists Idempotency-Key records in the database. It
// serves both the validator lookup and the handler-side recording.
type idempotencyStore struct {
	db  *gorm.DB
	ttl time.Duration
}

// Lookup implements middleware.IdempotencyLookup. A missing or expired
// record is a miss; other errors go to the validator, which logs them and
// lets the create proceed.
func (s idempotencyStore) Lookup(ctx context.Context, userID, scope, key string, now time.Time) (string, bool, error) {
	rec, err := repo.GetIdempotency(ctx, s.db, userID, scope, key, now)
	switch {
	case errors.Is(err, repo.ErrNotFound):
		return "", false, nil
	case err != nil:
		return "", false, err
	}
	return rec.ResourceID, true, nil
}

// Remember implements handlers.IdempotencyRecorder.
func (s idempotencyStore) Remember(ctx context.Context, userID, scope, key, resourceID string, status int) error {
	_, err := repo.CreateIdempotency(ctx, s.db, userID, scope, key, resourceID, status, s.ttl)
	return err
}

// Slugs is the cache surface the routes need: resolution for the redirect
// path and invalidation for admin writes.
type Slugs interface {
	services.Resolver
	services.Invalidator
}

// RegisterRoutes installs the middleware chain and every route on r.
// Chain order: otelgin, RequestID, RedactingLogger, Recovery, body limit,
// Metrics, CORS, SecurityHeaders. The admin group adds gzip, and its creates
// add the idempotency validator.
func RegisterRoutes(r *gin.Engine, db *gorm.DB, slugs Slugs, hits services.HitScheduler, cfg config.Config) {
	r.HandleMethodNotAllowed = true
	// "/health/" is a slug path like any other, never a 301 to "/health".
	r.RedirectTrailingSlash = false

	r.Use(
		otelgin.Middleware(cfg.OTEL.ServiceName),
		middleware.RequestID(),
		middleware.RedactingLogger(middleware.RedactOptions{MaskHeaders: []string{"X-API-Key"}}),
		middleware.Recovery(),
		limitBody(1<<20),
		middleware.Metrics(),
	)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.Use(corsPolicy(cfg.CORS.AllowedOrigins)...)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		EnablePolicy: true,
	}))

	store := repo.NewStore(db)
	idem := idempotencyStore{db: db, ttl: cfg.IdempotencyTTL}
	h := handlers.New(
		services.NewRedirectService(slugs, hits),
		services.NewDestinationService(db, adminRepoShim{}, store, slugs),
		services.NewAliasService(db, adminRepoShim{}, store, slugs),
		idem,
	)

	// Fallbacks: unknown API routes get JSON, everything else is a slug.
	apiBase := cfg.APIBasePath
	errorPageHeaders := middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:            cfg.Security.EnableHSTS,
		HSTSMaxAge:            cfg.Security.HSTSMaxAge,
		EnablePolicy:          true,
		ContentSecurityPolicy: middleware.DefaultErrorPageCSP,
	})
	r.NoRoute(func(c *gin.Context) {
		if isAPIPath(c.Request.URL.Path, apiBase) {
			handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
			return
		}
		errorPageHeaders(c)
	}, h.Redirect)
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := groupWithPrefix(r, apiBase)
	api.Use(gzip.Gzip(gzip.DefaultCompression))
	{
		// Destinations
		api.POST("/destinations",
			middleware.IdempotencyValidator(middleware.IdempotencyOptions{MaxLen: 200}, idem.Lookup),
			h.CreateDestination,
		)
		api.GET("/destinations", h.ListDestinations)
		api.GET("/destinations/:id", h.GetDestination)
		api.PATCH("/destinations/:id", h.UpdateDestination)
		api.DELETE("/destinations/:id", h.DeleteDestination)
		api.GET("/destinations/:id/stats", h.DestinationStats)

		// Aliases
		api.GET("/destinations/:id/aliases", h.ListAliases)
		api.POST("/destinations/:id/aliases", h.CreateAlias)
		api.DELETE("/destinations/:id/aliases/:alias_id", h.DeleteAlias)
	}
}

// isAPIPath reports whether p lies under the admin base path or the reserved
// api/ slug prefix. Such paths never reach the redirect handler.
func isAPIPath(p, base string) bool {
	if base != "" && base != "/" && (p == base || strings.HasPrefix(p, base+"/")) {
		return true
	}
	return p == "/api" || strings.HasPrefix(p, "/api/")
}

// corsPolicy allows every origin when origins is empty. Otherwise only listed
// origins are echoed back, with Vary: Origin.
func corsPolicy(origins []string) []gin.HandlerFunc {
	cc := cors.Config{
		AllowMethods:  []string{"GET", "HEAD", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", "X-User-ID", middleware.HeaderIdempotencyKey},
		ExposeHeaders: []string{"X-Request-ID", "Content-Length", "Location", "Idempotency-Replayed"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 {
		// Credentials stay off with a wildcard origin.
		cc.AllowAllOrigins = true
		return []gin.HandlerFunc{
			func(c *gin.Context) {
				c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
				c.Next()
			},
			cors.New(cc),
		}
	}

	cc.AllowOrigins = origins
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[o] = true
	}
	return []gin.HandlerFunc{
		func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); allowed[origin] {
				c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
				c.Writer.Header().Add("Vary", "Origin")
			}
			c.Next()
		},
		cors.New(cc),
	}
}

// limitBody caps request bodies at maxBytes; reading past it fails.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix treats "" and "/" as the engine root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
