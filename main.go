package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"presence-chat/internal/config"
	"presence-chat/internal/db"
	"presence-chat/internal/events"
	"presence-chat/internal/handlers"
	"presence-chat/internal/middleware"
	"presence-chat/internal/observability"
	"presence-chat/internal/rabbitmq"
	"presence-chat/internal/reaper"
	"presence-chat/internal/repositories"
	"presence-chat/internal/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	shutdownTracing, err := telemetry.Setup(context.Background(), cfg.OTLPEndpoint, cfg.Environment)
	if err != nil {
		log.Fatalf("failed to set up tracing: %v", err)
	}

	database, err := db.Connect(cfg.DBDSN)
	if err != nil {
		log.Fatalf("failed to connect to db: %v", err)
	}

	publisher := rabbitmq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
	log.Printf("event publisher mode=%s", rabbitmq.PublisherMode(publisher))

	participantRepo := repositories.NewParticipantRepo(database)
	messageRepo := repositories.NewMessageRepo(database)
	emitter := events.NewEmitter(messageRepo, publisher, cfg.EventRoutingKey)

	sweeper := reaper.New(participantRepo, emitter, cfg.PresenceTTL, cfg.SweepInterval)

	participantHandler := handlers.NewParticipantHandler(participantRepo, emitter)
	messageHandler := handlers.NewMessageHandler(participantRepo, messageRepo, emitter)

	router := gin.Default()

	// middlewares
	router.Use(cors.Default())
	router.Use(otelgin.Middleware("presence-chat"))
	router.Use(observability.HTTPMetricsMiddleware())

	requireUser := middleware.RequireUser()

	router.POST("/participants", participantHandler.Register)
	router.GET("/participants", participantHandler.List)
	router.POST("/status", requireUser, participantHandler.Heartbeat)
	router.POST("/messages", requireUser, messageHandler.Post)
	router.GET("/messages", requireUser, messageHandler.List)
	router.PUT("/messages/:id", requireUser, messageHandler.Update)
	router.DELETE("/messages/:id", requireUser, messageHandler.Delete)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/healthz", func(c *gin.Context) {
		if err := database.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "db unreachable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	reaperCtx, stopReaper := context.WithCancel(context.Background())
	go sweeper.Run(reaperCtx)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("server listening on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()
	log.Println("shutting down")

	// The reaper stops first so no sweep outlives the handlers; in-flight
	// requests run to completion within the grace period.
	stopReaper()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("http shutdown error: %v", err)
	}

	if err := publisher.Close(); err != nil {
		log.Printf("publisher close error: %v", err)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Printf("tracing shutdown error: %v", err)
	}
	if err := database.Close(); err != nil {
		log.Printf("db close error: %v", err)
	}
	log.Println("shutdown complete")
}
