package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/campusarrival/arrival-portal/internal/config"
	"github.com/campusarrival/arrival-portal/internal/database"
	"github.com/campusarrival/arrival-portal/internal/handler"
	"github.com/campusarrival/arrival-portal/internal/queue"
	"github.com/campusarrival/arrival-portal/internal/repository"
	"github.com/campusarrival/arrival-portal/internal/router"
	"github.com/campusarrival/arrival-portal/internal/tokenqueue"
	"github.com/campusarrival/arrival-portal/internal/ws"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()

	zl, err := zap.NewProduction()
	if cfg.Env == "dev" {
		zl, err = zap.NewDevelopment()
	}
	if err != nil {
		log.Fatalf("logger init: %v", err)
	}
	defer func() { _ = zl.Sync() }()
	logger := zl.Sugar()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		logger.Fatalw("database open failed", "err", err)
	}
	defer db.Close()
	if err := database.EnsureSchema(db); err != nil {
		logger.Fatalw("schema setup failed", "err", err)
	}

	rdb := config.NewRedisClient()
	if rdb == nil {
		logger.Warnw("redis unavailable, cache and rate limiting disabled")
	}

	students := repository.NewStudentRepo(db)
	volunteers := repository.NewVolunteerRepo(db)
	tokens := repository.NewApprovalTokenRepo(db)
	settings := repository.NewSettingsRepo(db)
	content := repository.NewContentRepo(db)
	refresh := repository.NewRefreshTokenRepo(db)

	store := repository.NewQueueStore(students, tokens, volunteers, settings)
	manager := tokenqueue.NewManager(store, logger)

	hub := ws.NewHub(logger)
	go hub.Run()

	go func() {
		if err := queue.StartQueueConsumer(); err != nil {
			logger.Errorw("queue consumer stopped", "err", err)
		}
	}()

	e := echo.New()
	e.HideBanner = true

	router.Register(e, router.Deps{
		Cfg:       cfg,
		Redis:     rdb,
		CacheCfg:  config.LoadCacheConfig(),
		LimitCfg:  config.LoadRateLimitConfig(),
		Auth:      handler.NewAuthHandler(cfg, students, volunteers, refresh),
		Student:   handler.NewStudentHandler(students, tokens),
		Content:   handler.NewContentHandler(content),
		Volunteer: handler.NewVolunteerHandler(manager, students, volunteers, hub),
		Admin:     handler.NewAdminHandler(cfg, students, volunteers, content, settings),
		Hub:       hub,
	})

	addr := ":" + cfg.Port
	logger.Infow("listening", "addr", addr, "env", cfg.Env)
	if err := e.Start(addr); err != nil {
		logger.Fatalw("server exited", "err", err)
	}
}
