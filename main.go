package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"task-center/cache"
	"task-center/config"
	"task-center/handlers"
	"task-center/messaging"
	"task-center/models"
	"task-center/repository"
	"task-center/services"
	"task-center/workers"

	"github.com/go-co-op/gocron/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		logrus.Info("no .env file found, reading environment variables directly")
	}

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatal("failed to load configuration: ", err)
	}

	if cfg.Database.URL == "" {
		logrus.Fatal("DATABASE_URL is not set")
	}
	db, err := gorm.Open(postgres.Open(cfg.Database.URL), &gorm.Config{})
	if err != nil {
		logrus.Fatal("failed to connect to database: ", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Game{},
		&models.LoginRecord{},
		&models.GameLaunchRecord{},
		&models.GamePlayRecord{},
		&models.Mission{},
	); err != nil {
		logrus.Fatal("failed to migrate database: ", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	kv := cache.NewRedisService(redisClient)
	transport := messaging.NewStreamTransport(redisClient)
	publisher := messaging.NewEventPublisher(transport)

	userRepo := repository.NewUserRepository(db)
	loginRepo := repository.NewLoginRecordRepository(db)
	gameRepo := repository.NewGameRepository(db)
	launchRepo := repository.NewGameLaunchRecordRepository(db)
	playRepo := repository.NewGamePlayRecordRepository(db)
	missionRepo := repository.NewMissionRepository(db)

	gameCache := services.NewGameCacheService(gameRepo, kv)
	userService := services.NewUserService(db, userRepo, loginRepo, kv, publisher)
	gameService := services.NewGameService(db, userRepo, gameRepo, launchRepo, playRepo, gameCache, publisher)
	missionService := services.NewMissionService(db, missionRepo, userRepo, launchRepo, playRepo,
		userService, kv, publisher, cfg.Mission)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Pre-warm the game cache. A failure here is not fatal: reads degrade to
	// the store until the periodic rebuild succeeds.
	warmCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	if count, err := gameCache.RebuildCache(warmCtx); err != nil {
		logrus.WithError(err).Warn("game cache pre-warm failed")
	} else {
		logrus.WithField("count", count).Info("game cache pre-warmed")
	}
	cancel()

	startCacheRefresh(ctx, gameCache, cfg.Cache.RefreshInterval)
	startConsumers(ctx, transport, kv, missionService, cfg.Consumer)

	app := fiber.New()
	handlers.SetupUserRoutes(app, userService, missionService)
	handlers.SetupGameRoutes(app, gameService, gameCache)
	handlers.SetupMissionRoutes(app, missionService)

	go func() {
		if err := app.Listen(":" + cfg.Server.Port); err != nil {
			logrus.Error("server error: ", err)
		}
	}()
	logrus.Info("task center running on port ", cfg.Server.Port)

	<-ctx.Done()
	logrus.Info("shutting down")
	if err := app.Shutdown(); err != nil {
		logrus.Error("server shutdown error: ", err)
	}
}

// startCacheRefresh rebuilds the game cache on an interval so deactivated
// and newly registered games converge even without admin intervention.
func startCacheRefresh(ctx context.Context, gameCache *services.GameCacheService, interval time.Duration) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		logrus.Fatal("failed to create scheduler: ", err)
	}
	_, err = sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			refreshCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
			defer cancel()
			if _, err := gameCache.RebuildCache(refreshCtx); err != nil {
				logrus.WithError(err).Warn("scheduled game cache rebuild failed")
			}
		}),
	)
	if err != nil {
		logrus.Fatal("failed to schedule cache refresh: ", err)
	}
	sched.Start()

	go func() {
		<-ctx.Done()
		_ = sched.Shutdown()
	}()
}

func startConsumers(ctx context.Context, transport *messaging.StreamTransport, kv *cache.RedisService,
	missionService *services.MissionService, cfg config.ConsumerConfig) {
	loginConsumer := workers.NewUserLoginEventConsumer(transport, kv, missionService, cfg.Group, cfg.Name)
	launchConsumer := workers.NewGameLaunchEventConsumer(transport, kv, missionService, cfg.Group, cfg.Name)
	playConsumer := workers.NewGamePlayEventConsumer(transport, kv, missionService, cfg.Group, cfg.Name)
	completedConsumer := workers.NewMissionCompletedEventConsumer(transport, cfg.Group, cfg.Name)

	run := func(name string, start func(context.Context) error) {
		go func() {
			logrus.WithField("consumer", name).Info("starting consumer")
			if err := start(ctx); err != nil && ctx.Err() == nil {
				logrus.WithError(err).WithField("consumer", name).Error("consumer stopped")
			}
		}()
	}
	run("user-login", loginConsumer.Start)
	run("game-launch", launchConsumer.Start)
	run("game-play", playConsumer.Start)
	run("mission-completed", completedConsumer.Start)
}
