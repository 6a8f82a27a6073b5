package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/qauym-app/backend/internal/cache"
	"github.com/qauym-app/backend/internal/config"
	"github.com/qauym-app/backend/internal/database"
	"github.com/qauym-app/backend/internal/handlers"
	"github.com/qauym-app/backend/internal/logger"
	"github.com/qauym-app/backend/internal/media"
	"github.com/qauym-app/backend/internal/metrics"
	"github.com/qauym-app/backend/internal/middleware"
	"github.com/qauym-app/backend/internal/telemetry"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
)

func main() {
	// Load environment variables; a missing .env file is fine
	_ = godotenv.Load()

	cfg := config.Load()

	if err := logger.Initialize(cfg.LogLevel, cfg.LogFile); err != nil {
		panic(err)
	}
	defer logger.Close()

	logger.Log.Info("=== Qauym feed server starting ===",
		zap.String("environment", cfg.Environment),
		zap.String("port", cfg.Port),
	)

	if cfg.JWTSecret == "" {
		logger.Log.Fatal("JWT_SECRET environment variable is required")
	}

	// Initialize database
	if err := database.Initialize(); err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer database.Close()

	// Run migrations
	if err := database.Migrate(); err != nil {
		logger.Log.Fatal("Failed to run migrations", zap.Error(err))
	}

	// Redis is optional: the trending cache and rate limiter degrade
	// without it
	redisClient, err := cache.NewRedisClient(cfg.RedisHost, cfg.RedisPort, cfg.RedisPassword)
	if err != nil {
		logger.Log.Warn("Redis unavailable, caching and rate limiting disabled", zap.Error(err))
		redisClient = nil
	} else {
		defer redisClient.Close()
	}

	// Initialize tracing
	tp, err := telemetry.InitTracer(telemetry.Config{
		ServiceName:  "qauym-backend",
		Environment:  cfg.Environment,
		OTLPEndpoint: cfg.OTLPEndpoint,
		Enabled:      cfg.TracingEnabled,
		SamplingRate: cfg.TraceSampleRate,
	})
	if err != nil {
		logger.Log.Warn("Failed to initialize tracing", zap.Error(err))
	} else if tp != nil {
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := telemetry.Shutdown(ctx, tp); err != nil {
				logger.Log.Warn("Tracer shutdown failed", zap.Error(err))
			}
		}()
	}

	metrics.Initialize()

	resolver := media.NewResolver(cfg.CDNBaseURL)
	h := handlers.New(database.DB, redisClient, resolver)

	r := setupRouter(cfg, h, redisClient != nil)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		logger.Log.Info("Server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Log.Info("Server exited")
}

func setupRouter(cfg *config.Config, h *handlers.Handlers, rateLimit bool) *gin.Engine {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.GinLoggerMiddleware())
	r.Use(middleware.MetricsMiddleware())
	r.Use(otelgin.Middleware("qauym-backend"))
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	r.Use(cors.New(corsConfig))

	if rateLimit {
		r.Use(middleware.RedisRateLimitMiddleware(300, time.Minute))
	}

	r.GET("/health", func(c *gin.Context) {
		status := "ok"
		code := http.StatusOK
		if err := database.Health(); err != nil {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{
			"status":    status,
			"timestamp": time.Now().UTC(),
			"service":   "qauym-backend",
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	jwtSecret := []byte(cfg.JWTSecret)

	api := r.Group("/api/v1")
	{
		// Feed routes accept anonymous viewers
		feedGroup := api.Group("/feed")
		{
			feedGroup.Use(middleware.OptionalAuth(jwtSecret))
			feedGroup.GET("/following", h.GetFollowingFeed)
			feedGroup.GET("/foryou", h.GetForYouFeed)
			feedGroup.GET("/trending", h.GetTrendingFeed)
		}

		// Post routes
		posts := api.Group("/posts")
		{
			posts.GET("/:id", h.GetPost)
			posts.GET("/:id/comments", h.GetComments)

			authed := posts.Group("")
			authed.Use(middleware.RequireAuth(jwtSecret))
			authed.POST("", h.CreatePost)
			authed.DELETE("/:id", h.DeletePost)
			authed.POST("/:id/like", h.LikePost)
			authed.DELETE("/:id/like", h.UnlikePost)
			authed.POST("/:id/comments", h.CreateComment)
		}

		// Comment routes
		comments := api.Group("/comments")
		{
			comments.Use(middleware.RequireAuth(jwtSecret))
			comments.DELETE("/:id", h.DeleteComment)
		}

		// User and social-graph routes
		users := api.Group("/users")
		{
			users.GET("/:id/posts", h.GetUserPosts)

			authed := users.Group("")
			authed.Use(middleware.RequireAuth(jwtSecret))
			authed.POST("/:id/follow", h.FollowUser)
			authed.DELETE("/:id/follow", h.UnfollowUser)
			authed.POST("/:id/block", h.BlockUser)
			authed.DELETE("/:id/block", h.UnblockUser)
			authed.POST("/:id/mute", h.MuteUser)
			authed.DELETE("/:id/mute", h.UnmuteUser)
		}

		social := api.Group("/social")
		{
			social.Use(middleware.RequireAuth(jwtSecret))
			social.GET("/muted", h.GetMutedUsers)
		}
	}

	return r
}
