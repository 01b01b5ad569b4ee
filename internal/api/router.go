package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/offerdesk/offerdesk/internal/dbpool"
	"github.com/offerdesk/offerdesk/internal/middleware"
	"github.com/offerdesk/offerdesk/internal/models"
)

// RouterDeps holds all dependencies needed by the router.
type RouterDeps struct {
	Log           *logrus.Logger
	Pool          *dbpool.Pool
	Articles      ArticleService
	Blocks        BlockService
	Quotes        QuoteService
	Opportunities OpportunityService
	Content       ContentService
	Locks         LockService
	Audit         AuditService
	UserLookup    middleware.UserLookup
	CORSOrigins   []string
	Version       string
}

// Router-level limits.
const (
	maxBodySize = 10 << 20 // 10 MB
	rateLimit   = 100      // requests per second per IP
	rateBurst   = 200      // token bucket burst size
)

// setupMiddleware configures all middleware on the Gin engine.
func setupMiddleware(ctx context.Context, r *gin.Engine, deps *RouterDeps) {
	r.SetTrustedProxies(nil) //nolint:errcheck // nil always succeeds.
	r.Use(middleware.RequestID(deps.Log))
	r.Use(ginLogger(deps.Log))
	r.Use(gin.Recovery())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.MaxBodySize(maxBodySize))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     deps.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Authorization"},
		MaxAge:           1 * time.Hour,
		AllowCredentials: false,
	}))
	r.Use(middleware.NewRateLimiter(ctx, rateLimit, rateBurst).Handler())
	r.Use(middleware.Prometheus())

	// Metrics endpoint (unauthenticated, like health).
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// registerRoutes sets up all API route handlers on the given router group.
func registerRoutes(api *gin.RouterGroup, deps *RouterDeps) {
	log := deps.Log

	health := NewHealthHandler(deps.Pool, log, deps.Version)
	articles := NewArticleHandler(deps.Articles, deps.Content, log)
	blocks := NewBlockHandler(deps.Blocks, deps.Content, log)
	quotes := NewQuoteHandler(deps.Quotes, log)
	opps := NewOpportunityHandler(deps.Opportunities, log)
	locks := NewLockHandler(deps.Locks, log)
	audit := NewAuditHandler(deps.Audit, log)

	// Health and readiness are unauthenticated.
	api.GET("/health", health.Liveness)
	api.GET("/ready", health.Readiness)

	// All other API routes require authentication.
	api.Use(middleware.Auth(deps.UserLookup, log))

	// Articles.
	api.GET("/articles", articles.List)
	api.POST("/articles", articles.Create)
	api.GET("/articles/:id", articles.Get)
	api.PUT("/articles/:id", articles.Update)
	api.DELETE("/articles/:id", articles.Delete)
	api.GET("/articles/:id/content", articles.ListContent)
	api.PUT("/articles/:id/content", articles.ReplaceContent)
	api.GET("/articles/:id/calculation-items", articles.ListCalculationItems)
	api.POST("/articles/:id/calculation-items", articles.AddCalculationItem)
	api.DELETE("/articles/:id/calculation-items/:itemID", articles.DeleteCalculationItem)
	api.GET("/articles/:id/history", audit.History(models.KindArticle))

	// Text blocks.
	api.GET("/blocks", blocks.List)
	api.POST("/blocks", blocks.Create)
	api.GET("/blocks/:id", blocks.Get)
	api.PUT("/blocks/:id", blocks.Update)
	api.DELETE("/blocks/:id", blocks.Delete)
	api.POST("/blocks/:id/copy", blocks.Copy)
	api.GET("/blocks/:id/content", blocks.ListContent)
	api.PUT("/blocks/:id/content", blocks.ReplaceContent)
	api.GET("/blocks/:id/history", audit.History(models.KindBlock))

	// Quotes, variants, versions.
	api.GET("/quotes", quotes.List)
	api.POST("/quotes", quotes.Create)
	api.GET("/quotes/:id", quotes.Get)
	api.PUT("/quotes/:id", quotes.Update)
	api.DELETE("/quotes/:id", quotes.Delete)
	api.GET("/quotes/:id/variants", quotes.ListVariants)
	api.POST("/quotes/:id/variants", quotes.CreateVariant)
	api.GET("/quotes/:id/history", audit.History(models.KindQuote))
	api.POST("/variants/:id/versions", quotes.CreateVersion)
	api.DELETE("/variants/:id", quotes.DeleteVariant)
	api.GET("/variants/:id/history", audit.History(models.KindQuoteVariant))

	// Sales opportunities.
	api.GET("/opportunities", opps.List)
	api.POST("/opportunities", opps.Create)
	api.GET("/opportunities/:id", opps.Get)
	api.PUT("/opportunities/:id", opps.Update)
	api.DELETE("/opportunities/:id", opps.Delete)
	api.GET("/opportunities/:id/history", audit.History(models.KindOpportunity))

	// Edit locks.
	api.GET("/locks/:kind/:id", locks.Check)
	api.POST("/locks/:kind/:id", locks.Acquire)
	api.DELETE("/locks/:kind/:id", locks.Release)

	// Audit feed.
	api.GET("/audit", audit.Query)
}

// NewRouter creates and configures the Gin engine with all middleware and routes.
func NewRouter(ctx context.Context, deps *RouterDeps) http.Handler {
	r := gin.New()
	setupMiddleware(ctx, r, deps)
	registerRoutes(r.Group("/api/v1"), deps)

	return r
}
