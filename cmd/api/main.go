package main

import (
	"fmt"
	"log"
	"os"

	"pv-battery-sizing/internal/api/handlers"
	"pv-battery-sizing/internal/api/middleware"
	"pv-battery-sizing/internal/data"
	"pv-battery-sizing/internal/store"

	"github.com/gin-gonic/gin"
)

func main() {
	// Get configuration from environment
	port := os.Getenv("API_PORT")
	if port == "" {
		port = "8080"
	}
	presetDir := os.Getenv("PRESET_DIR")
	if presetDir == "" {
		presetDir = "./examples/params"
	}
	dataDir := os.Getenv("DATA_DIR")
	if dataDir == "" {
		dataDir = "./examples/datasets"
	}

	// Runs are persisted only when RUNS_DB points at a sqlite file.
	var st *store.Store
	if dbPath := os.Getenv("RUNS_DB"); dbPath != "" {
		var err error
		st, err = store.New(dbPath)
		if err != nil {
			log.Fatalf("Failed to open runs store %s: %v", dbPath, err)
		}
		log.Printf("Persisting runs to %s", dbPath)
	} else {
		log.Printf("RUNS_DB not set, runs will not be persisted")
	}

	// Set up Gin router
	if os.Getenv("API_ENV") == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()

	// Apply middleware
	router.Use(middleware.CORS())
	router.Use(middleware.Logger())
	router.Use(middleware.ErrorHandler())

	// Initialize handlers
	sizingHandler := handlers.NewSizingHandler(st)
	paramsHandler := handlers.NewParamsHandler(presetDir, data.NewTechDBClient(os.Getenv("TECHDB_URL")))
	datasetsHandler := handlers.NewDatasetsHandler(dataDir)

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// API routes
	api := router.Group("/api/v1")
	{
		api.POST("/sizing", sizingHandler.RunSizing)
		api.GET("/sizing", sizingHandler.ListRuns)
		api.GET("/sizing/:id/schedule", sizingHandler.GetSchedule)
		api.POST("/sizing/compare", sizingHandler.CompareScenarios)

		api.GET("/params", paramsHandler.ListPresets)
		api.GET("/params/reference", paramsHandler.GetReference)

		api.GET("/datasets", datasetsHandler.ListDatasets)
	}

	// Start server
	addr := fmt.Sprintf(":%s", port)
	log.Printf("Starting API server on %s", addr)
	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
