package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"roro/internal/clients"
	"roro/internal/config"
	"roro/internal/geo"
	"roro/internal/handlers"
	"roro/internal/logger"
	"roro/internal/middleware"
	"roro/internal/ratelimit"
	"roro/internal/repository"
	"roro/internal/service"
	"roro/internal/worker"
	"roro/pkg/database"
	"roro/pkg/redis"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"golang.org/x/time/rate"
)

func main() {
	// Загрузка .env
	envErr := godotenv.Load()

	// Загрузка конфигурации
	cfg := config.Load()

	logger.Init(cfg.App.Debug)
	defer logger.Sync()
	log := logger.GetLogger("main")

	if envErr != nil {
		log.Info("no .env file found, using environment variables")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalw("invalid configuration", "error", err)
	}

	log.Info("=== RoRo Backend Starting ===")

	db, err := database.Connect(cfg.DB, cfg.App.Debug)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	}()

	redisClient, err := redis.Connect(cfg.Redis)
	if err != nil {
		log.Fatalw("failed to connect to redis", "error", err)
	}
	defer redisClient.Close()

	// Автомиграция моделей
	if err := database.Migrate(db); err != nil {
		log.Fatalw("failed to migrate database", "error", err)
	}

	strategy, err := geo.Resolve(cfg.Geo.DistanceMode, db.Dialector.Name(), func() bool {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return database.NativeDistanceAvailable(ctx, db)
	})
	if err != nil {
		log.Fatalw("failed to select distance strategy", "error", err)
	}
	log.Infow("distance strategy selected", "strategy", strategy.Name(), "mode", cfg.Geo.DistanceMode)

	// Инициализация репозиториев
	facilityRepo := repository.NewFacilityRepository(db, strategy)
	gachaRepo := repository.NewGachaRepository(db)
	analyticsRepo := repository.NewAnalyticsRepository(db)
	geocodeStore := repository.NewGeocodeCacheRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient)

	limiter := ratelimit.NewLimiter(redisClient, map[string]int{
		ratelimit.ActionFacilitySearch: cfg.RateLimit.SearchPerHour,
		ratelimit.ActionGacha:          cfg.RateLimit.GachaPerHour,
		ratelimit.ActionAIAdvice:       cfg.RateLimit.AdvicePerHour,
	}, cfg.RateLimit.Window)

	geocodeClient := clients.NewGeocodeClient(cfg.Geocoder.URL, cfg.Geocoder.Timeout)
	adviceClient := clients.NewAdviceClient(cfg.Advice.URL, cfg.Advice.APIKey, cfg.Advice.Model, cfg.Advice.Timeout)
	if cfg.Advice.APIKey == "" {
		log.Warn("OPENAI_API_KEY is not set, /ai/advice will answer 503")
	}

	policy, err := service.NewDrawPolicy(cfg.Gacha.Policy, cfg.Gacha.Weights)
	if err != nil {
		log.Fatalw("invalid gacha policy", "error", err)
	}

	// Инициализация сервисов
	geocodeService := service.NewGeocodeService(cacheRepo, geocodeStore, geocodeClient, cfg.Geocoder.CacheTTL)
	facilityService := service.NewFacilityService(facilityRepo, cacheRepo, geocodeService, limiter, service.FacilitySearchConfig{
		DefaultRadius: cfg.Geo.DefaultRadius,
		MaxRadius:     cfg.Geo.MaxRadius,
		DefaultLimit:  cfg.Geo.DefaultLimit,
		MaxLimit:      cfg.Geo.MaxLimit,
		CacheTTL:      cfg.Geo.CacheTTL,
	})
	gachaService := service.NewGachaService(gachaRepo, limiter, policy, nil)
	adviceService := service.NewAdviceService(adviceClient, cacheRepo, limiter, cfg.Advice.CacheTTL)
	// кэш сводки живёт два интервала воркера, чтобы не было окна без данных
	analyticsService := service.NewAnalyticsService(analyticsRepo, cacheRepo, 2*cfg.Workers.AnalyticsInterval)

	// Инициализация воркеров (фоновые задачи)
	scheduler := worker.NewScheduler()

	if cfg.Workers.GeocodeCleanupEnabled {
		scheduler.AddWorker(worker.NewGeocodeCleanupWorker(geocodeService, cfg.Workers.GeocodeCleanupInterval))
		log.Infow("geocode cleanup worker enabled", "interval", cfg.Workers.GeocodeCleanupInterval)
	}

	if cfg.Workers.AnalyticsEnabled {
		scheduler.AddWorker(worker.NewAnalyticsWorker(analyticsService, cfg.Workers.AnalyticsInterval))
		log.Infow("analytics worker enabled", "interval", cfg.Workers.AnalyticsInterval)
	}

	scheduler.Start()
	defer scheduler.Stop()

	// Инициализация Gin
	if cfg.App.Debug {
		gin.SetMode(gin.DebugMode)
		log.Info("running in DEBUG mode")
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(middleware.RequestID(), middleware.RequestLogger(logger.GetLogger("http")), gin.Recovery())

	// CORS для фронтенда
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000", cfg.App.FrontendURL},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", "X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Rate limiting (только для продакшена)
	if !cfg.App.Debug {
		globalLimiter := rate.NewLimiter(rate.Limit(cfg.RateLimit.RequestsPerSecond), cfg.RateLimit.Burst)
		r.Use(middleware.RateLimitMiddleware(globalLimiter))
		log.Infow("global rate limiting enabled",
			"rps", cfg.RateLimit.RequestsPerSecond, "burst", cfg.RateLimit.Burst)
	}

	router := &handlers.Router{
		Facility:  handlers.NewFacilityHandler(facilityService),
		Gacha:     handlers.NewGachaHandler(gachaService, cfg.Gacha.Public),
		Geocode:   handlers.NewGeocodeHandler(geocodeService),
		Analytics: handlers.NewAnalyticsHandler(analyticsService),
		Advice:    handlers.NewAdviceHandler(adviceService),
		System: handlers.NewSystemHandler(
			map[string]handlers.HealthCheck{
				"database": func(ctx context.Context) error {
					sqlDB, err := db.DB()
					if err != nil {
						return err
					}
					return sqlDB.PingContext(ctx)
				},
				"redis": func(ctx context.Context) error {
					return redisClient.Ping(ctx).Err()
				},
			},
			func(ctx context.Context) (map[string]string, error) {
				return redis.GetStats(ctx, redisClient)
			},
			facilityRepo,
			gachaRepo,
			map[string]bool{
				"geocode_cleanup_enabled": cfg.Workers.GeocodeCleanupEnabled,
				"analytics_enabled":       cfg.Workers.AnalyticsEnabled,
			},
		),
		Auth:        middleware.AuthConfig{Secret: cfg.Auth.JWTSecret, Issuer: cfg.Auth.Issuer},
		GachaPublic: cfg.Gacha.Public,
	}
	router.Register(r)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	server := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "addr", "http://localhost:"+cfg.App.Port, "api", "/api/v1")

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("server failed to start", "error", err)
		}
	}()

	<-quit
	log.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Errorw("server forced to shutdown", "error", err)
		return
	}

	log.Info("server exited properly")
}
