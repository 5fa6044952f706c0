package main

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/planmarket/auth-service/internal/api"
	"github.com/planmarket/auth-service/internal/controller"
	"github.com/planmarket/auth-service/internal/migrations"
	"github.com/planmarket/auth-service/internal/ratelimit"
	"github.com/planmarket/auth-service/internal/service"
	"github.com/planmarket/auth-service/internal/storage/postgres"
	redisstorage "github.com/planmarket/auth-service/internal/storage/redis"
	"github.com/planmarket/auth-service/internal/util"

	_ "github.com/lib/pq"
)

const sweepInterval = 1 * time.Hour

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger := util.NewZapLogger()

	db, dbCleanup, err := util.NewDBConnection(logger)
	if err != nil {
		logger.Fatal(zap.Error(err))
	}
	if err := migrations.RunMigrations(db, logger, "./internal/migrations"); err != nil {
		logger.Fatal(zap.Error(err))
	}

	redisClient, redisCleanup, err := util.NewRedisClient(logger, util.NewRedisConfig())
	if err != nil {
		logger.Fatal(zap.Error(err))
	}

	serverConfig := util.NewServerConfig()
	tokenConfig := util.NewTokenConfig()

	storage := postgres.NewStorage(db)
	cleanupFuncs := []func(){dbCleanup, redisCleanup}

	blacklist := redisstorage.NewTokenBlacklist(redisClient)
	tokenService := service.NewTokenService(tokenConfig, blacklist)
	passwordService := service.NewPasswordService()
	authService := service.NewAuthService(storage, tokenService, passwordService, tokenConfig, logger)
	authService.StartSessionSweeper(ctx, sweepInterval)

	limiter := ratelimit.New()
	controller := controller.NewController(logger, authService, serverConfig.IsProduction())

	apiServer := api.NewAPI(
		controller,
		tokenService,
		storage,
		limiter,
		serverConfig,
		util.NewRateLimitConfig(),
		logger,
		cleanupFuncs,
	)
	apiServer.Run(ctx)
}
