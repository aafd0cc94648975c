package api

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"market-sim/internal/api/handlers"
	"market-sim/internal/api/middleware"
	"market-sim/internal/api/models"
	"market-sim/internal/api/store"
	"market-sim/internal/metrics"
)

// NewRouter wires middleware, handlers and the optional static frontend.
func NewRouter(s Settings, log *zap.Logger, m *metrics.Metrics, results *store.Results) *gin.Engine {
	if s.Production() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	// Apply middleware
	router.Use(middleware.ErrorHandler(log))
	router.Use(middleware.CORS(s.CORSOrigins))
	router.Use(middleware.Logger(log))
	router.Use(m.Middleware())

	simulateHandler := handlers.NewSimulateHandler(s.ScenarioDir, results, m, log)
	scenarioHandler := handlers.NewScenarioHandler(s.ScenarioDir, log)
	catalogHandler := handlers.NewCatalogHandler()

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(m.Handler()))

	// API routes
	api := router.Group("/api/v1")
	{
		api.POST("/simulate", simulateHandler.RunSimulation)
		api.GET("/simulate/:id/records", simulateHandler.GetRecords)
		api.POST("/simulate/compare", simulateHandler.CompareSimulations)
		api.GET("/simulate/stream", simulateHandler.StreamSimulation)

		api.GET("/scenarios", scenarioHandler.ListScenarios)
		api.GET("/demand-kinds", catalogHandler.ListDemandKinds)
		api.GET("/participant-kinds", catalogHandler.ListParticipantKinds)
	}

	if info, err := os.Stat(s.StaticDir); err == nil && info.IsDir() {
		router.Static("/assets", filepath.Join(s.StaticDir, "assets"))
		router.StaticFile("/favicon.ico", filepath.Join(s.StaticDir, "favicon.ico"))
		log.Info("serving static files", zap.String("dir", s.StaticDir))
	} else {
		log.Info("static directory not found, skipping static file serving", zap.String("dir", s.StaticDir))
	}

	// Serve index.html for all non-API routes (SPA routing) when a frontend
	// is present
	index := filepath.Join(s.StaticDir, "index.html")
	router.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api") {
			c.JSON(http.StatusNotFound, models.ErrorResponse{
				Error: models.ErrorDetail{Code: "NOT_FOUND", Message: "Not found"},
			})
			return
		}
		if _, err := os.Stat(index); err != nil {
			c.JSON(http.StatusNotFound, models.ErrorResponse{
				Error: models.ErrorDetail{Code: "NOT_FOUND", Message: "Not found"},
			})
			return
		}
		c.File(index)
	})

	return router
}
