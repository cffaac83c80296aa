package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/planexa/exam-planner-api/api/swagger"
	"github.com/planexa/exam-planner-api/internal/handler"
	"github.com/planexa/exam-planner-api/internal/middleware"
	"github.com/planexa/exam-planner-api/internal/repository"
	"github.com/planexa/exam-planner-api/internal/service"
	"github.com/planexa/exam-planner-api/pkg/cache"
	"github.com/planexa/exam-planner-api/pkg/config"
	"github.com/planexa/exam-planner-api/pkg/database"
	"github.com/planexa/exam-planner-api/pkg/logger"
	corsmiddleware "github.com/planexa/exam-planner-api/pkg/middleware/cors"
	reqidmiddleware "github.com/planexa/exam-planner-api/pkg/middleware/requestid"
)

// @title Exam Planner API
// @version 0.1.0
// @description Exam scheduling engine service
// @BasePath /
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	cacheRepo := repository.NewCacheRepository(nil, logr)
	if cfg.Redis.Enabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, proposals stay in-memory only", zap.Error(err))
		} else {
			cacheRepo = repository.NewCacheRepository(redisClient, logr)
			defer cacheRepo.Close() //nolint:errcheck
		}
	}

	metricsSvc := service.NewMetricsService()
	planningRepo := repository.NewPlanningRepository(db)
	optimizer := service.NewOptimizerService(planningRepo, cacheRepo, metricsSvc, validator.New(), logr, cfg.Scheduler)
	scheduleHandler := handler.NewScheduleHandler(optimizer)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	{
		schedule := api.Group("/schedule")
		schedule.POST("/generate", scheduleHandler.Generate)
		schedule.POST("/save", scheduleHandler.Save)
		schedule.GET("/planning", scheduleHandler.Planning)
		schedule.GET("/conflicts", scheduleHandler.Conflicts)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
