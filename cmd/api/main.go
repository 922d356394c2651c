// cmd/api/main.go
// Main entry point for the matchmaking API
// This file bootstraps all components and starts the server

package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/imadgeboyega/kiekky-matchmaking/internal/auth"
	"github.com/imadgeboyega/kiekky-matchmaking/internal/common/database"
	"github.com/imadgeboyega/kiekky-matchmaking/internal/common/logging"
	"github.com/imadgeboyega/kiekky-matchmaking/internal/config"
	"github.com/imadgeboyega/kiekky-matchmaking/internal/matchmaking"
	"github.com/imadgeboyega/kiekky-matchmaking/internal/notification"
	"github.com/imadgeboyega/kiekky-matchmaking/internal/questionnaire"
)

var startTime = time.Now()

func main() {
	// 1. Load environment variables
	envErr := godotenv.Load()

	// 2. Load configuration and set up logging
	cfg := config.Load()
	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	log := logging.WithComponent("main")

	log.Info().Msg("🚀 Starting Kiekky matchmaking API")
	if envErr != nil {
		log.Warn().Err(envErr).Msg("⚠️  No .env file found, using environment variables")
	}

	// 3. Validate configuration
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("❌ Configuration validation failed")
	}
	log.Info().Str("environment", cfg.Environment).Msg("✅ Configuration is valid")

	ctx := context.Background()

	// 4. Connect to PostgreSQL
	db, err := database.NewPostgresDB(ctx, &database.PostgresConfig{
		URL:          cfg.DatabaseURL,
		MaxOpenConns: cfg.DBMaxOpenConns,
		MaxIdleConns: cfg.DBMaxIdleConns,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("❌ Failed to connect to PostgreSQL")
	}
	defer db.Close()
	log.Info().Msg("✅ Connected to PostgreSQL")

	// 5. Connect to Redis (optional)
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.NewRedisClientFromURL(ctx, cfg.RedisURL)
		if err != nil {
			log.Warn().Err(err).Msg("⚠️  Redis unavailable, catalog snapshots stay in process")
			redisClient = nil
		} else {
			defer redisClient.Close()
			log.Info().Msg("✅ Connected to Redis")
		}
	} else {
		log.Info().Msg("⚠️  Redis URL not configured, skipping Redis connection")
	}

	// 6. Run database migrations
	if err := database.RunMigrations(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("❌ Failed to run migrations")
	}
	log.Info().Msg("✅ Database migrations completed")

	// 7. Questionnaire catalog and answers
	questionnaireRepo := questionnaire.NewPostgresRepository(db)
	var catalogLoader questionnaire.CatalogLoader = questionnaireRepo
	if redisClient != nil {
		catalogLoader = questionnaire.NewCachedRepository(questionnaireRepo, questionnaire.NewRedisSnapshotCache(redisClient), cfg.CatalogCacheTTL)
	}
	questionnaireService := questionnaire.NewService(catalogLoader, questionnaireRepo, cfg.CatalogCacheTTL)
	log.Info().Msg("✅ Questionnaire initialized")

	// 8. Notification sinks and dispatcher
	sinks := notification.NewMulti().Add("store", notification.NewStoreSink(db))
	if cfg.EnablePushNotifications {
		fcm, err := notification.NewFCMClient(ctx, cfg.FirebaseCredentialsPath)
		if err != nil {
			log.Warn().Err(err).Msg("⚠️  Push notifications disabled")
		} else {
			sinks.Add("push", notification.NewPushSink(fcm, notification.NewPostgresTokenStore(db)))
			log.Info().Msg("   ✅ Using Firebase for push notifications")
		}
	}
	if cfg.EnableEmailNotifications {
		sinks.Add("email", notification.NewEmailSink(notification.EmailConfig{
			APIKey:   cfg.SendGridAPIKey,
			From:     cfg.EmailFrom,
			FromName: cfg.EmailFromName,
			BaseURL:  cfg.EmailBaseURL,
		}, notification.NewPostgresRecipientStore(db)))
		log.Info().Msg("   ✅ Using SendGrid for email notifications")
	}
	dispatcher := notification.NewDispatcher(sinks, notification.DispatcherConfig{
		QueueSize: cfg.NotifyQueueSize,
		Workers:   cfg.NotifyWorkers,
		Timeout:   cfg.NotifyTimeout,
	})
	log.Info().Int("sinks", sinks.Len()).Msg("✅ Notifications initialized")

	// Background jobs stop with jobsCtx
	jobsCtx, stopJobs := context.WithCancel(ctx)
	defer stopJobs()
	go notification.NewRetention(db, cfg.NotificationRetention, 3).Run(jobsCtx)

	// 9. Matchmaking
	matchmakingService := matchmaking.NewService(matchmaking.Dependencies{
		Repo:      matchmaking.NewPostgresRepository(db),
		Directory: matchmaking.NewPostgresDirectory(db),
		Catalogs:  questionnaireService,
		Answers:   questionnaireRepo,
		Notifier:  dispatcher,
	}, matchmaking.Config{
		SystemUserID:   cfg.SystemUserID,
		PageSize:       cfg.RecommendationPageSize,
		ScoringWorkers: cfg.ScoringWorkers,
	})
	if cfg.SystemUserID == 0 {
		log.Warn().Msg("⚠️  SYSTEM_USER_ID not set, onboarding skips the support channel")
	}
	log.Info().Msg("✅ Matchmaking initialized")

	// 10. Routes
	authMiddleware := auth.NewMiddleware(cfg.JWTSecret)

	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(logging.RequestLogger)
	router.Use(corsMiddleware)

	router.Get("/health", healthCheck)
	router.Handle("/metrics", promhttp.Handler())

	questionnaire.RegisterRoutes(router, questionnaire.NewHandler(questionnaireService), authMiddleware)
	matchmaking.RegisterRoutes(router, matchmaking.NewHandler(matchmakingService, cfg.SystemUserID), authMiddleware, cfg.SwipeRateLimit)
	log.Info().Msg("✅ Routes registered")

	// 11. Create and start HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("🚀 Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("❌ Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("⚠️  Shutdown signal received...")
	stopJobs()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("❌ Server forced to shutdown")
	}

	// Drain queued notifications after the last request has finished
	if err := dispatcher.Close(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("⚠️  Notification queue not fully drained")
	}

	log.Info().Msg("✅ Server exited gracefully")
}

// healthCheck returns server health status
func healthCheck(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(startTime).String(),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(response)
}

// corsMiddleware handles CORS
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, "+logging.RequestIDHeader)

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
