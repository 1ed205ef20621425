// cmd/api/main.go
// Main entry point. Bootstraps storage, the change-feed bus, and every
// feature module, then serves HTTP until interrupted.

package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/peerfit/peerfit-backend/internal/auth"
	"github.com/peerfit/peerfit-backend/internal/chat"
	"github.com/peerfit/peerfit-backend/internal/common/database"
	"github.com/peerfit/peerfit-backend/internal/common/logger"
	"github.com/peerfit/peerfit-backend/internal/config"
	"github.com/peerfit/peerfit-backend/internal/feed"
	"github.com/peerfit/peerfit-backend/internal/follow"
	"github.com/peerfit/peerfit-backend/internal/matching"
	"github.com/peerfit/peerfit-backend/internal/notification"
	"github.com/peerfit/peerfit-backend/internal/profile"
	"github.com/peerfit/peerfit-backend/internal/stream"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file found, using environment variables")
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	zlog, err := logger.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer zlog.Sync()
	slog := zlog.Sugar()

	db, err := database.NewPostgresDB(cfg.DatabaseURL)
	if err != nil {
		slog.Fatalw("connecting to postgres", "error", err)
	}
	defer db.Close()
	slog.Info("connected to postgres")

	rdb, err := database.NewRedisClient(cfg.RedisURL)
	if err != nil {
		slog.Fatalw("connecting to redis", "error", err)
	}
	defer rdb.Close()
	slog.Info("connected to redis")

	if err := runMigrations(db); err != nil {
		slog.Fatalw("running migrations", "error", err)
	}
	slog.Info("migrations applied")

	bus := stream.NewBus(rdb, stream.Options{
		BufferSize:   cfg.SubscribeBufferSize,
		RetryMax:     cfg.SubscribeRetryMax,
		RetryBackoff: cfg.SubscribeRetryBackoff,
	}, zlog)

	authMiddleware := auth.NewMiddleware(cfg.JWTSecret)

	// Profile store. Its repository is the read surface every other
	// component depends on.
	profileRepo := profile.NewPostgresRepository(db)
	profileService := profile.NewService(profileRepo, zlog)
	profileHandler := profile.NewHandler(profileService)

	// Notification fan-out, wired before its event sources.
	notificationRepo := notification.NewPostgresRepository(db)
	notificationService := notification.NewService(notificationRepo, profileRepo, bus, bus, zlog)
	notificationHandler := notification.NewHandler(notificationService, zlog)
	emitter := notification.NewEmitter(notificationService, zlog)

	// Follow graph manager.
	followRepo := follow.NewPostgresRepository(db)
	followService := follow.NewService(followRepo, emitter, cfg.FollowRetryMax, zlog)
	followHandler := follow.NewHandler(followService)

	// Matching engine.
	matchingEngine := matching.NewEngine(profileRepo, zlog)
	matchingHandler := matching.NewHandler(matchingEngine, cfg.RecommendLimitDefault, cfg.RecommendLimitMax)

	// Chat session manager.
	chatRepo := chat.NewPostgresRepository(db)
	chatService := chat.NewService(chatRepo, profileRepo, bus, bus, emitter, cfg.MaxMessageLength, zlog)
	chatHandler := chat.NewHandler(chatService, zlog)

	// Feed engagement engine.
	feedRepo := feed.NewPostgresRepository(db)
	feedService := feed.NewService(feedRepo, profileRepo, emitter, cfg.MaxPostLength, zlog)
	feedHandler := feed.NewHandler(feedService)

	router := mux.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Use(requestLogger(slog))

	router.HandleFunc("/health", healthCheck).Methods("GET")
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	profile.RegisterRoutes(router, profileHandler, authMiddleware)
	follow.RegisterRoutes(router, followHandler, authMiddleware)
	matching.RegisterRoutes(router, matchingHandler, authMiddleware)
	chat.RegisterRoutes(router, chatHandler, authMiddleware)
	notification.RegisterRoutes(router, notificationHandler, authMiddleware)
	feed.RegisterRoutes(router, feedHandler, authMiddleware)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Infow("server starting", "port", cfg.Port, "environment", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Fatalw("forced shutdown", "error", err)
	}
	slog.Info("server exited")
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `{"status":"healthy","timestamp":%q}`, time.Now().Format(time.RFC3339))
}

// requestLogger logs each request with its status and duration. The
// websocket endpoints are skipped: their connections are long-lived
// and the hijacked ResponseWriter cannot be wrapped.
func requestLogger(log *zap.SugaredLogger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(r.URL.Path) >= 4 && r.URL.Path[:4] == "/ws/" {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			wrapped := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(wrapped, r)
			log.Infow("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", wrapped.Status(),
				"duration", time.Since(start),
			)
		})
	}
}
