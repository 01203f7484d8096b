package main

import (
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/student-attendance-api/api/swagger"
	"github.com/noah-isme/student-attendance-api/internal/handler"
	"github.com/noah-isme/student-attendance-api/internal/middleware"
	"github.com/noah-isme/student-attendance-api/internal/repository"
	"github.com/noah-isme/student-attendance-api/internal/service"
	"github.com/noah-isme/student-attendance-api/pkg/cache"
	"github.com/noah-isme/student-attendance-api/pkg/config"
	"github.com/noah-isme/student-attendance-api/pkg/database"
	"github.com/noah-isme/student-attendance-api/pkg/export"
	"github.com/noah-isme/student-attendance-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/student-attendance-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/student-attendance-api/pkg/middleware/requestid"
	"github.com/noah-isme/student-attendance-api/pkg/response"
)

// @title Student Attendance API
// @version 1.0.0
// @description Class attendance session tracking with admin authentication
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
	if cfg.Cache.Enabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, caching disabled", zap.Error(err))
		} else {
			cacheRepo = repository.NewCacheRepository(redisClient, logr)
			defer cacheRepo.Close() //nolint:errcheck
		}
	}

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	studentRepo := repository.NewStudentRepository(db)
	adminRepo := repository.NewAdminRepository(db)

	ledgerSvc := service.NewLedgerService(studentRepo, cacheRepo, validate, logr)
	studentSvc := service.NewStudentService(studentRepo, cacheRepo, metricsSvc, cfg.Cache.TTL, validate, logr)
	authSvc := service.NewAuthService(adminRepo, validate, logr, cfg.Auth)
	reportSvc := service.NewReportService(studentRepo, export.NewCSVExporter(), export.NewPDFExporter(), logr)

	attendanceHandler := handler.NewAttendanceHandler(ledgerSvc)
	studentHandler := handler.NewStudentHandler(studentSvc, ledgerSvc)
	authHandler := handler.NewAuthHandler(authSvc)
	reportHandler := handler.NewReportHandler(reportSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(middleware.Metrics(metricsSvc))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)

	r.GET("/", func(c *gin.Context) {
		response.Message(c, 200, "welcome to the student attendance API", nil)
	})

	adminOnly := middleware.AdminAuth(authSvc)

	api := r.Group("/api")
	{
		api.GET("/student", studentHandler.Get)
		api.POST("/login", attendanceHandler.Login)
		api.POST("/logout", attendanceHandler.Logout)
		api.GET("/students", studentHandler.List)
		api.POST("/students", studentHandler.Create)
		api.PUT("/students/:studentId", studentHandler.Update)
		api.DELETE("/students/:studentId", studentHandler.Delete)
		api.DELETE("/students", adminOnly, studentHandler.DeleteAll)
		api.GET("/reports/attendance", adminOnly, reportHandler.Attendance)
	}

	auth := r.Group("/auth")
	{
		auth.POST("/", adminOnly, authHandler.Verify)
		auth.POST("/signup", authHandler.Signup)
		auth.POST("/login", authHandler.Login)
		auth.POST("/change-password", authHandler.ChangePassword)
	}

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
