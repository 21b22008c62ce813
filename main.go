package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/apifoundry/apifoundry/handlers"
	"github.com/apifoundry/apifoundry/internal/config"
	"github.com/apifoundry/apifoundry/internal/database"
	"github.com/apifoundry/apifoundry/internal/flags"
	"github.com/apifoundry/apifoundry/internal/revocation"
	"github.com/apifoundry/apifoundry/internal/sessions"
	"github.com/apifoundry/apifoundry/internal/tokens"
	"github.com/apifoundry/apifoundry/internal/users"
	"github.com/apifoundry/apifoundry/pkg/logger"
	"github.com/apifoundry/apifoundry/pkg/metrics"
	"github.com/apifoundry/apifoundry/pkg/middleware"
)

var startTime = time.Now()

func main() {
	// logging level controlled with LOG_LEVEL env: debug|info|warn|error|fatal
	logger.Init(os.Getenv("LOG_LEVEL"))
	defer logger.Sync()

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.Infof("config loaded: mongo=%v redis=%v env=%s", cfg.MongoDB.URI != "", cfg.Redis.Host != "", cfg.Server.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// The Redis client is the process-wide KV connection shared by the
	// revocation registry, the session store, the flag evaluator and the
	// Redis rate limiter. Constructed once here, passed down explicitly,
	// closed once on shutdown.
	if cfg.Redis.Host == "" {
		logger.Fatalf("REDIS_HOST is required: sessions and token revocation are Redis-backed")
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Host + ":" + cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Fatalf("failed to connect to Redis (%s:%s): %v", cfg.Redis.Host, cfg.Redis.Port, err)
	}
	defer rdb.Close()
	logger.Infof("connected to Redis at %s:%s", cfg.Redis.Host, cfg.Redis.Port)

	// User directory: MongoDB when configured, in-memory otherwise (dev mode).
	var userRepo users.Repository
	var mongoClient *mongo.Client
	if cfg.MongoDB.URI != "" {
		mongoClient, err = database.Connect(ctx, cfg.MongoDB)
		if err != nil {
			logger.Fatalf("failed to connect to MongoDB: %v", err)
		}
		defer func() {
			_ = mongoClient.Disconnect(context.Background())
		}()
		userRepo = users.NewMongoRepository(database.Users(mongoClient, cfg.MongoDB))
		logger.Infof("user directory backed by MongoDB database %q", cfg.MongoDB.Database)
	} else {
		userRepo = users.NewMemoryRepository()
		logger.Warnf("MONGODB_URI not set; using in-memory user directory (dev mode)")
	}

	userSvc := users.NewService(userRepo)
	revocations := revocation.NewRegistry(rdb, cfg.Revocation.Prefix, cfg.Revocation.FailOpen)
	issuer := tokens.NewIssuer(cfg.JWT, revocations)
	sessionStore := sessions.NewStore(rdb, cfg.Sessions.Prefix, cfg.Sessions.TTL)
	flagClient := flags.NewClient(rdb, "")

	if cfg.Server.Environment != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.UseRedis {
			win := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second
			r.Use(middleware.RedisRateLimitMiddleware(rdb, cfg.RateLimit.RPS, cfg.RateLimit.Burst, win))
		} else {
			r.Use(middleware.RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
		}
	}

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "healthy")
	})

	// readiness: 200 only when the KV store answers a ping
	r.GET("/ready", func(c *gin.Context) {
		deps := map[string]bool{"redis": rdb.Ping(c.Request.Context()).Err() == nil}
		deps["users"] = true
		if mongoClient != nil {
			deps["users"] = mongoClient.Ping(c.Request.Context(), nil) == nil
		}
		ready := deps["redis"] && deps["users"]
		status := http.StatusOK
		body := gin.H{"status": "ready", "deps": deps, "uptime": time.Since(startTime).String()}
		if !ready {
			status = http.StatusServiceUnavailable
			body["status"] = "not_ready"
		}
		c.JSON(status, body)
	})

	reg := prometheus.NewRegistry()
	metrics.RegisterCollectors(reg)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	authed := middleware.AuthMiddleware(issuer, revocations)
	authHandler := handlers.NewAuthHandler(userSvc, sessionStore, issuer, revocations)

	api := r.Group("/api/v1")
	authHandler.Register(api, authed)
	api.GET("/me", authed, func(c *gin.Context) {
		claims := middleware.ClaimsFrom(c)
		if claims == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication failed"})
			return
		}
		// session activity tracking is advisory: a failed touch never fails the request
		if sid := c.GetHeader("X-Session-ID"); sid != "" && flagClient.Enabled(c.Request.Context(), "session_touch", true) {
			if err := sessionStore.Touch(c.Request.Context(), sid); err != nil {
				logger.Debugf("session touch failed for %s: %v", sid, err)
			}
		}
		c.JSON(http.StatusOK, gin.H{"sub": claims.Subject, "email": claims.Email, "roles": claims.Roles})
	})

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Infof("starting auth service on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("server failed: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Infof("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("graceful shutdown failed: %v", err)
	}
}
