package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"

	"github.com/chalense/muni-laip/internal/config"
	"github.com/chalense/muni-laip/internal/handlers"
	"github.com/chalense/muni-laip/internal/middleware"
	"github.com/chalense/muni-laip/internal/models"
	"github.com/chalense/muni-laip/internal/pkg"
	"github.com/chalense/muni-laip/internal/repository"
	"github.com/chalense/muni-laip/internal/services"
	"github.com/chalense/muni-laip/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		pkg.NewLogger(pkg.LevelError).Fatalf("failed to load configuration: %v", err)
	}

	logger := pkg.NewLogger(cfg.LogLevel)

	mongodb, err := repository.Connect(cfg.MongoURI, cfg.MongoDatabase)
	if err != nil {
		logger.Fatalf("failed to connect to MongoDB: %v", err)
	}
	defer func() {
		if err := mongodb.Disconnect(); err != nil {
			logger.Errorf("failed to disconnect from MongoDB: %v", err)
		}
	}()

	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			// Stats just recompute on every call without the cache.
			logger.Warnf("redis unavailable, statistics cache disabled: %v", err)
			redisClient = nil
		}
	}

	storage, err := services.NewStorageProvider(&cfg.Storage)
	if err != nil {
		logger.Fatalf("failed to initialize storage provider: %v", err)
	}

	notifier := services.NewSMTPNotifier(&cfg.Email, logger)
	notificationWorker := worker.NewNotificationWorker(notifier, cfg.NotificationQueueSize, logger)

	workerCtx, stopWorker := context.WithCancel(context.Background())
	notificationWorker.Start(workerCtx)

	requestRepo := repository.NewRequestRepository(mongodb)
	requestService := services.NewRequestService(requestRepo, notificationWorker, logger)

	registry := handlers.DomainRegistry{}
	domainRepos := make(map[string]*repository.DomainRepositories)
	for _, domain := range models.AllDomains {
		repos := repository.NewDomainRepositories(mongodb, domain)
		domainRepos[domain.Name] = repos

		tree := services.NewTreeService(domain, repos, logger)
		registry[domain.Name] = &handlers.DomainServices{
			Domain:    domain,
			Tree:      tree,
			Catalog:   services.NewCatalogService(domain, repos, tree, storage, logger),
			Documents: services.NewDocumentService(domain, repos, tree, storage, logger),
		}
	}

	statsService := services.NewStatsService(domainRepos, requestService, redisClient, logger)

	jwtManager := pkg.NewJWTManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTokenTTL)
	metrics := middleware.NewMetricsMiddleware()

	router := &handlers.Router{
		Catalog:   handlers.NewCatalogHandler(registry),
		Documents: handlers.NewDocumentHandler(registry, metrics, logger),
		Requests:  handlers.NewRequestHandler(requestService, metrics),
		Stats:     handlers.NewStatsHandler(statsService),
		Admin:     handlers.NewAdminHandler(registry, requestService, statsService, logger),

		Auth:     middleware.NewAuthMiddleware(jwtManager, logger),
		Logging:  middleware.NewLoggingMiddleware(logger, "/health", "/metrics"),
		Recovery: middleware.NewRecoveryMiddleware(logger),
		Metrics:  metrics,
	}

	gin.SetMode(cfg.GinMode)
	engine := gin.New()
	router.Setup(engine)

	server := &http.Server{
		Addr:    cfg.ServerAddress,
		Handler: engine,
	}

	go func() {
		logger.Info("server listening", map[string]interface{}{
			"address": cfg.ServerAddress,
		})
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("forced shutdown: %v", err)
	}

	stopWorker()
	notificationWorker.Wait()

	logger.Info("server stopped")
}
