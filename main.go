package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Nathansuares/SkySafe/attachments"
	"github.com/Nathansuares/SkySafe/auth"
	"github.com/Nathansuares/SkySafe/config"
	"github.com/Nathansuares/SkySafe/database"
	"github.com/Nathansuares/SkySafe/events"
	"github.com/Nathansuares/SkySafe/handlers"
	"github.com/Nathansuares/SkySafe/metrics"
	"github.com/Nathansuares/SkySafe/service"

	"github.com/apex/log"
	"github.com/apex/log/handlers/json"
	"github.com/apex/log/handlers/text"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// A missing .env is fine; the environment wins either way.
	_ = godotenv.Load()

	cfg := config.Load()
	setupLogging(cfg)
	if err := cfg.Validate(); err != nil {
		log.WithError(err).Fatal("Invalid configuration")
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()

	db, err := database.NewDatabase(ctx, cfg)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	log.Info("Initializing database schema...")
	if err := db.InitializeSchema(ctx); err != nil {
		log.WithError(err).Fatal("Failed to initialize database schema")
	}

	files, err := attachments.NewManager(cfg.UploadDir, cfg.UploadURLPrefix, cfg.MaxUploadBytes, cfg.ImageMaxDimension)
	if err != nil {
		log.WithError(err).Fatal("Failed to prepare upload directory")
	}

	publisher := setupPublisher(cfg)
	defer publisher.Close()

	metrics.Register()

	tokens := auth.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL)
	h := handlers.NewHandlers(
		service.NewIssueService(db, files, publisher),
		service.NewDocumentService(db, files),
		service.NewAccountService(db, tokens),
		db,
		cfg.MaxUploadBytes,
	)

	router, err := handlers.NewRouter(h, tokens, handlers.RouterConfig{
		AllowedOrigins:      cfg.AllowedOrigins,
		TrustedProxies:      cfg.TrustedProxies,
		UploadDir:           files.Dir(),
		UploadURLPrefix:     files.URLPrefix(),
		SubmitRatePerMinute: cfg.SubmitRatePerMinute,
		LoginRatePerMinute:  cfg.LoginRatePerMinute,
	})
	if err != nil {
		log.WithError(err).Fatal("Failed to set up router")
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.WithField("port", cfg.Port).Info("SkySafe server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("Failed to start HTTP server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Server forced to shutdown")
	}

	log.Info("Server exited")
}

func setupLogging(cfg *config.Config) {
	if cfg.LogFormat == "json" {
		log.SetHandler(json.New(os.Stderr))
	} else {
		log.SetHandler(text.New(os.Stderr))
	}
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.WithField("level", cfg.LogLevel).Warn("Unknown log level, using info")
		level = log.InfoLevel
	}
	log.SetLevel(level)
}

// setupPublisher connects to RabbitMQ when AMQP_URL is set. Without it, or if
// the broker is down at startup, issue events are dropped.
func setupPublisher(cfg *config.Config) events.Publisher {
	if cfg.AMQPURL == "" {
		log.Info("AMQP_URL not set, issue events disabled")
		return events.Nop{}
	}
	pub, err := events.NewAMQPPublisher(cfg.AMQPURL, cfg.RabbitMQExchange)
	if err != nil {
		log.WithError(err).Warn("Failed to connect to RabbitMQ, issue events disabled")
		return events.Nop{}
	}
	log.WithField("exchange", cfg.RabbitMQExchange).Info("Publishing issue events")
	return pub
}
