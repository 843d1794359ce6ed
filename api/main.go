package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	_ "github.com/dmarchetti/scanventory/docs"
	"github.com/dmarchetti/scanventory/internal/auth"
	"github.com/dmarchetti/scanventory/internal/config"
	"github.com/dmarchetti/scanventory/internal/db"
	"github.com/dmarchetti/scanventory/internal/http/alerts"
	"github.com/dmarchetti/scanventory/internal/http/handlers"
	rl "github.com/dmarchetti/scanventory/internal/http/rate_limiter"
	"github.com/dmarchetti/scanventory/internal/logging"
	"github.com/dmarchetti/scanventory/internal/redissvc"
	"github.com/dmarchetti/scanventory/internal/repo"
	"github.com/dmarchetti/scanventory/internal/scan"

	httprouter "github.com/dmarchetti/scanventory/internal/http"
)

// @title Scanventory API
// @version 1.0
// @description Barcode-scan driven inventory and point-of-sale API.
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("could not load config: %v", err)
	}

	logger, err := logging.Init(cfg.Log)
	if err != nil {
		log.Fatalf("could not init logger: %v", err)
	}
	defer logger.Sync()

	ctx := context.Background()
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		zap.L().Fatal("could not connect to Redis", zap.Error(err))
	}
	defer rdb.Close()

	database, err := db.Connect(cfg.Database.URL)
	if err != nil {
		zap.L().Fatal("could not connect to database", zap.Error(err))
	}
	defer database.Close()

	auth.Configure(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	alerts.Configure(cfg.Alerts)

	redisService := redissvc.NewRedisService(rdb, ctx, cfg.Scan.HistoryLimit)
	handlers.SetRedisService(redisService)
	alerts.SetRedisService(redisService)

	productRepo := repo.NewPostgresProductRepository(database)
	movementRepo := repo.NewPostgresMovementRepository(database)
	cartRepo := repo.NewRedisCartRepository(rdb)

	handlers.SetProductRepo(productRepo)
	handlers.SetCategoryRepo(repo.NewPostgresCategoryRepository(database))
	handlers.SetMovementRepo(movementRepo)
	handlers.SetMetricsRepo(repo.NewPostgresMetricsRepository(database))
	handlers.SetUserRepo(repo.NewPostgresUserRepository(database))
	handlers.SetCartRepo(cartRepo)
	handlers.SetUploadDir(cfg.Server.UploadDir)

	scanManager := scan.NewManager(
		productRepo, movementRepo, cartRepo, redisService,
		cfg.Scan.Cooldown(), cfg.Scan.SuccessDelay(),
	)
	defer scanManager.CloseAll()
	handlers.SetScanManager(scanManager)

	go auth.StartRefreshTokenCleaner(30 * time.Minute)
	go alerts.StartDailySummary(24 * time.Hour)
	go rl.StartVisitorCleanupLoop()

	r := httprouter.NewRouter(cfg.Server.UploadDir)
	zap.L().Info("server running", zap.String("addr", cfg.Server.Addr))
	if err := http.ListenAndServe(cfg.Server.Addr, r); err != nil {
		zap.L().Fatal("server stopped", zap.Error(err))
	}
}
