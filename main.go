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

	"estate-listing/controllers/app"
	"estate-listing/controllers/health"
	"estate-listing/db"
	"estate-listing/middleware"
	"estate-listing/mongodb"
	"estate-listing/pkg/cache"
	"estate-listing/pkg/config"
	"estate-listing/pkg/database"
	"estate-listing/pkg/goroutinepool"
	"estate-listing/pkg/jwt"
	"estate-listing/pkg/logger"
	"estate-listing/pkg/monitoring"
	"estate-listing/pkg/session"
	"estate-listing/pkg/storage"
	"estate-listing/pkg/view"
	"estate-listing/redis"
	"estate-listing/router"
	"estate-listing/services"
	"estate-listing/services/listing_service"
	"estate-listing/services/user_service"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// 构建时注入的变量
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

const serviceName = "estate-listing"

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "-version", "--version", "-v":
			fmt.Printf("Estate Listing\n")
			fmt.Printf("Version: %s\n", Version)
			fmt.Printf("Build Time: %s\n", BuildTime)
			fmt.Printf("Git Commit: %s\n", GitCommit)
			return
		case "-help", "--help", "-h":
			fmt.Printf("Estate Listing - paginated real-estate listings\n\n")
			fmt.Printf("Usage: %s [options]\n\n", os.Args[0])
			fmt.Printf("Options:\n")
			fmt.Printf("  -version, -v     show version information\n")
			fmt.Printf("  -help, -h        show this help\n\n")
			fmt.Printf("Configuration is read from CONFIG_FILE (default config/config.yaml),\n")
			fmt.Printf(".env files and environment variables such as DB_DSN, REDIS_ADDR, PORT.\n")
			return
		}
	}

	if err := config.InitConfig(); err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}
	cfg := config.GetConfig()

	if err := logger.Init(cfg.Log); err != nil {
		fmt.Fprintf(os.Stderr, "logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	log := logger.L()

	// 设置时区
	loc, err := time.LoadLocation(cfg.Server.TimeZone)
	if err != nil {
		log.Fatal("failed to load time zone", zap.String("tz", cfg.Server.TimeZone), zap.Error(err))
	}
	time.Local = loc

	log.Info("starting", zap.String("service", serviceName), zap.String("version", Version), zap.String("mode", cfg.Server.Mode))

	ctx := context.Background()

	if err := redis.InitRedis(ctx, cfg.Redis); err != nil {
		log.Warn("redis unavailable, continuing without it", zap.Error(err))
	}

	db.Init()

	mongodb.InitMongoDB(ctx, cfg.MongoDB)
	if cfg.MongoDB.AnalyticsDB != "" && mongodb.IsConnected(cfg.MongoDB.AnalyticsDB) {
		if err := mongodb.EnsureIndexes(ctx, cfg.MongoDB.AnalyticsDB, mongodb.AnalyticsIndexes); err != nil {
			log.Warn("failed to create analytics indexes", zap.Error(err))
		}
	}

	pageCache := cache.NewCacheManager(redis.GetClient())
	if cfg.Listing.CacheTTL <= 0 {
		pageCache.Disable()
	}

	images, err := storage.New(cfg.Storage)
	if err != nil {
		log.Fatal("storage init failed", zap.Error(err))
	}

	searchEvents, err := services.NewSearchEventService(cfg.AMQP.URL, cfg.AMQP.SearchQueue)
	if err != nil {
		log.Warn("search events disabled", zap.Error(err))
		searchEvents = nil
	}

	renderer, err := view.NewRenderer(cfg.Listing.AssetVersion, "Annonces immobilières")
	if err != nil {
		log.Fatal("view init failed", zap.Error(err))
	}

	var sessionStore sessions.Store
	if cfg.Session.Secret != "" {
		sessionStore, err = session.NewStore(cfg.Session, cfg.Redis)
		if err != nil {
			log.Fatal("session store init failed", zap.Error(err))
		}
	} else {
		log.Warn("SESSION_SECRET not set, session login disabled")
	}

	if err := middleware.RegisterValidators(); err != nil {
		log.Fatal("validator registration failed", zap.Error(err))
	}

	listings := listing_service.NewListingService(db.Dao,
		listing_service.WithCache(pageCache, cfg.Listing.CacheTTL),
		listing_service.WithImageResolver(images))

	healthController := health.NewHealthController(serviceName, Version)
	healthController.AddCheck("database", true, func(ctx context.Context) error {
		return database.HealthCheck(ctx, db.Dao)
	})
	if cfg.Redis.Addr != "" {
		healthController.AddCheck("redis", cfg.Session.Store == "redis", func(ctx context.Context) error {
			if !redis.IsConnected(ctx) {
				return errors.New("redis not connected")
			}
			return nil
		})
	}
	if len(cfg.MongoDB.Databases) > 0 {
		healthController.AddCheck("mongodb", false, mongodb.Ping)
	}
	healthController.SetStatsProvider(func() map[string]interface{} {
		return map[string]interface{}{
			"database":   database.GetStats(db.Dao),
			"cache":      pageCache.GetStats(),
			"goroutines": goroutinepool.GetPool().GetStats(),
		}
	})

	gin.SetMode(cfg.Server.Mode)
	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.Security.TrustedProxies); err != nil {
		log.Fatal("invalid trusted proxies", zap.Error(err))
	}

	engine.Use(middleware.RequestID())
	engine.Use(middleware.Recovery())
	engine.Use(middleware.RequestLogger())
	engine.Use(middleware.ErrorHandler())
	engine.Use(middleware.SecureHeaders())
	engine.Use(middleware.Performance())
	engine.Use(middleware.Cors(middleware.DefaultCorsConfig(cfg.Security.AllowedOrigins)))
	if cfg.Security.EnableRateLimit {
		engine.Use(middleware.RateLimit(cfg.Security.RateLimit))
	}
	engine.Use(monitoring.PrometheusMiddleware())

	router.Init(engine, router.Options{
		Home:         app.NewHomeController(listings, searchEvents, renderer),
		Health:       healthController,
		Users:        user_service.NewUserService(db.Dao),
		JWT:          jwt.NewJWTManager(cfg.JWT.SigningKey, cfg.JWT.Issuer, cfg.JWT.Expiry),
		SessionName:  cfg.Session.Name,
		SessionStore: sessionStore,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("http server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("http server failed", zap.Error(err))
		}
	}()

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("forced shutdown", zap.Error(err))
	}

	goroutinepool.Stop()
	pageCache.Close()

	if err := searchEvents.Close(); err != nil {
		log.Warn("amqp close failed", zap.Error(err))
	}
	if closer, ok := images.(interface{ Close() }); ok {
		closer.Close()
	}
	mongodb.Close(shutdownCtx)
	if err := redis.CloseRedis(); err != nil {
		log.Warn("redis close failed", zap.Error(err))
	}
	if err := database.Close(db.Dao); err != nil {
		log.Warn("database close failed", zap.Error(err))
	}

	log.Info("server stopped")
}
