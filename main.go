package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"report-triage-pipeline/config"
	"report-triage-pipeline/dedup"
	"report-triage-pipeline/handlers"
	"report-triage-pipeline/metrics"
	"report-triage-pipeline/moderation"
	"report-triage-pipeline/pipeline"
	"report-triage-pipeline/rabbitmq"
	"report-triage-pipeline/store"
	"report-triage-pipeline/vision"

	"github.com/apex/log"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	// Load configuration
	cfg := config.Load()

	if level, err := log.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	}

	// Initialize the decision store
	decisionStore, err := newStore(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize decision store: %v", err)
	}
	defer decisionStore.Close()

	// Initialize the duplicate detector
	detector := dedup.NewDetector(decisionStore, dedup.Options{
		ImageHashThreshold:      cfg.ImageHashThreshold,
		TextSimilarityThreshold: cfg.TextSimilarityThreshold,
		LocationThresholdMeters: cfg.LocationThresholdMeters,
	})

	// Initialize the triage pipeline with its optional capabilities
	service := pipeline.NewService(cfg, decisionStore, detector)

	if cfg.ModerationEndpoint != "" {
		service.WithModerator(moderation.NewClient(cfg.ModerationEndpoint, cfg.ModerationTimeout))
		log.Infof("External moderation enabled at %s", cfg.ModerationEndpoint)
	}

	if cfg.OpenAIAPIKey != "" {
		service.WithLabeler(vision.NewClient(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.VisionTimeout))
		log.Infof("Image labeling enabled with model %s", cfg.OpenAIModel)
	}

	var publisher *rabbitmq.Publisher
	if cfg.AMQPUrl != "" {
		publisher, err = rabbitmq.NewPublisher(cfg.AMQPUrl, cfg.AMQPExchange, cfg.AMQPRoutingKey)
		if err != nil {
			log.Errorf("Failed to initialize RabbitMQ publisher, continuing without: %v", err)
		} else {
			service.WithPublisher(publisher)
			defer publisher.Close()
		}
	}

	// Initialize handlers
	h := handlers.NewHandlers(service, decisionStore)

	// Register Prometheus metrics
	metrics.Register()

	// Setup HTTP server
	router := gin.Default()
	router.Use(cors.New(cors.Config{
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type"},
		AllowOrigins:     []string{"*"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/health", h.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API routes
	api := router.Group("/api/v3")
	{
		api.POST("/reports", h.SubmitReport)
		api.GET("/decisions", h.GetRecentDecisions)
		api.GET("/stats", h.GetStats)
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Start HTTP server in a goroutine
	go func() {
		log.Infof("Starting HTTP server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	// Create a deadline for server shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Attempt graceful shutdown
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Info("Server exited")
}

// newStore selects the decision store backend.
func newStore(cfg *config.Config) (store.Store, error) {
	switch cfg.StoreBackend {
	case "mysql":
		return store.NewMySQLStore(cfg)
	default:
		return store.NewJSONLStore(cfg.DatasetPath)
	}
}
