package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gcbaptista/go-vocab-highlighter/internal/engine"
)

// Options configures the HTTP surface.
type Options struct {
	// Gatherer serves /metrics; nil uses the default prometheus registry.
	Gatherer prometheus.Gatherer
	Logger   *slog.Logger
}

// API holds dependencies for API handlers, primarily the highlighter engine.
type API struct {
	engine    *engine.Engine
	gatherer  prometheus.Gatherer
	startedAt time.Time
	logger    *slog.Logger
}

// NewAPI creates a new API handler structure.
func NewAPI(eng *engine.Engine, opts Options) *API {
	if opts.Gatherer == nil {
		opts.Gatherer = prometheus.DefaultGatherer
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &API{
		engine:    eng,
		gatherer:  opts.Gatherer,
		startedAt: time.Now(),
		logger:    opts.Logger.With("component", "api"),
	}
}

// SetupRoutes defines all the API routes for the highlighter host.
func SetupRoutes(router *gin.Engine, eng *engine.Engine, opts Options) {
	apiHandler := NewAPI(eng, opts)

	router.GET("/health", apiHandler.HealthCheckHandler)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(apiHandler.gatherer, promhttp.HandlerOpts{})))

	// Document routes
	router.POST("/documents", apiHandler.LoadDocumentHandler)  // Replace the document and run a full scan
	router.POST("/mutations", apiHandler.ApplyMutationsHandler) // Edit the document, scanned by the watcher
	router.POST("/scan", apiHandler.ScanHandler)                // Full rescan
	router.GET("/highlights", apiHandler.GetHighlightsHandler)  // Registry snapshot

	// Interaction routes
	pointerRoutes := router.Group("/pointer")
	{
		pointerRoutes.POST("/move", apiHandler.PointerMoveHandler)
		pointerRoutes.POST("/click", apiHandler.PointerClickHandler)
	}

	wordRoutes := router.Group("/words")
	{
		wordRoutes.POST("/status", apiHandler.SetStatusHandler)
		wordRoutes.GET("/ignore", apiHandler.ListIgnoredHandler)
		wordRoutes.POST("/ignore", apiHandler.IgnoreWordHandler)
		wordRoutes.DELETE("/ignore/:word", apiHandler.UnignoreWordHandler)
	}

	router.GET("/display", apiHandler.GetDisplayHandler)

	// Learner settings routes
	router.GET("/settings", apiHandler.GetSettingsHandler)
	router.PATCH("/settings", apiHandler.UpdateSettingsHandler) // Changes reach the engine through the config feed

	// Scan pass routes
	passRoutes := router.Group("/passes")
	{
		passRoutes.GET("", apiHandler.ListPassesHandler)
		passRoutes.GET("/metrics", apiHandler.GetPassMetricsHandler)
		passRoutes.GET("/:passId", apiHandler.GetPassHandler)
	}
}

// HealthCheckHandler reports liveness plus a few engine facts.
func (api *API) HealthCheckHandler(c *gin.Context) {
	stats := api.engine.Registry().Stats()
	c.JSON(http.StatusOK, gin.H{
		"status":     "ok",
		"active":     api.engine.Active(),
		"processing": api.engine.Scanner().Processing(),
		"units":      api.engine.Store().Len(),
		"entries":    stats.Entries,
		"whitelist":  api.engine.Filter().HasWhitelist(), // false means every word passes the whitelist check
		"uptime":     time.Since(api.startedAt).Round(time.Second).String(),
	})
}
