package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/mtc-portal/enrollment-api/api/swagger"
	"github.com/mtc-portal/enrollment-api/internal/handler"
	"github.com/mtc-portal/enrollment-api/internal/middleware"
	"github.com/mtc-portal/enrollment-api/internal/repository"
	"github.com/mtc-portal/enrollment-api/internal/service"
	"github.com/mtc-portal/enrollment-api/pkg/cache"
	"github.com/mtc-portal/enrollment-api/pkg/config"
	"github.com/mtc-portal/enrollment-api/pkg/database"
	"github.com/mtc-portal/enrollment-api/pkg/export"
	"github.com/mtc-portal/enrollment-api/pkg/logger"
	corsmiddleware "github.com/mtc-portal/enrollment-api/pkg/middleware/cors"
	reqidmiddleware "github.com/mtc-portal/enrollment-api/pkg/middleware/requestid"
	"github.com/mtc-portal/enrollment-api/pkg/storage"
)

// @title MTC Enrollment API
// @version 1.0.0
// @description Enrollment and assessment application backend for the training center admin portal
// @BasePath /api/v1
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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		// Redis only backs the unread-count cache; run without it.
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		redisClient = nil
	}

	proofStore, err := storage.NewLocalStorage(cfg.Uploads.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init upload storage", "error", err)
	}

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	scheduleRepo := repository.NewScheduleRepository(db)
	registrationRepo := repository.NewRegistrationRepository(db)
	assessmentRepo := repository.NewAssessmentRepository(db)
	applicationRepo := repository.NewApplicationRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	settingRepo := repository.NewSettingRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	notificationSvc := service.NewNotificationService(notificationRepo, cacheRepo, cfg.Notifications.UnreadCountTTL, logr)
	registrationSvc := service.NewRegistrationService(registrationRepo, scheduleRepo, notificationSvc, validate, logr)
	studentSvc := service.NewStudentService(studentRepo, registrationSvc, validate, logr)
	scheduleSvc := service.NewScheduleService(scheduleRepo, validate, logr)
	assessmentSvc := service.NewAssessmentService(assessmentRepo, validate, logr)
	applicationSvc := service.NewApplicationService(applicationRepo, assessmentRepo, notificationSvc, proofStore, validate, logr)
	settingsSvc := service.NewSettingsService(settingRepo, validate, logr)
	salesSvc := service.NewSalesService(applicationRepo, cfg.Sales.PageSize, logr)
	authSvc := service.NewAuthService(userRepo, cfg.JWT, validate, logr)
	metricsSvc := service.NewMetricsService()

	if err := authSvc.EnsureAdmin(context.Background(), cfg.Bootstrap.AdminEmail, cfg.Bootstrap.AdminPassword, cfg.Bootstrap.AdminName); err != nil {
		logr.Sugar().Warnw("failed to seed admin account", "error", err)
	}

	authHandler := handler.NewAuthHandler(authSvc)
	studentHandler := handler.NewStudentHandler(studentSvc)
	scheduleHandler := handler.NewScheduleHandler(scheduleSvc)
	registrationHandler := handler.NewRegistrationHandler(registrationSvc)
	assessmentHandler := handler.NewAssessmentHandler(assessmentSvc)
	applicationHandler := handler.NewApplicationHandler(applicationSvc, cfg.Uploads)
	notificationHandler := handler.NewNotificationHandler(notificationSvc)
	settingsHandler := handler.NewSettingsHandler(settingsSvc)
	salesHandler := handler.NewSalesHandler(salesSvc, export.NewCSVExporter(), export.NewPDFExporter())

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
		if err := db.PingContext(c.Request.Context()); err != nil {
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

	// Applicant-facing surface: no token required.
	api.POST("/auth/login", authHandler.Login)
	api.POST("/assessment-applications", applicationHandler.Submit)
	api.POST("/assessment-applications/:id/payment-proof", applicationHandler.UploadPaymentProof)
	api.GET("/system-settings/payment_config/qr", settingsHandler.PaymentQR)

	admin := api.Group("")
	admin.Use(middleware.JWT(authSvc))
	{
		admin.GET("/students", studentHandler.List)
		admin.POST("/students", studentHandler.Create)
		admin.GET("/students/:id", studentHandler.Get)
		admin.PUT("/students/:id", studentHandler.Update)
		admin.DELETE("/students/:id", studentHandler.Delete)

		admin.GET("/training-schedules", scheduleHandler.List)
		admin.POST("/training-schedules", scheduleHandler.Create)
		admin.GET("/training-schedules/:id", scheduleHandler.Get)
		admin.PUT("/training-schedules/:id", scheduleHandler.Update)
		admin.DELETE("/training-schedules/:id", scheduleHandler.Delete)

		admin.GET("/registrations", registrationHandler.List)
		admin.POST("/registrations", registrationHandler.Create)
		admin.GET("/registrations/:id", registrationHandler.Get)
		admin.PUT("/registrations/:id", registrationHandler.Update)
		admin.DELETE("/registrations/:id", registrationHandler.Delete)

		admin.GET("/assessments", assessmentHandler.List)
		admin.POST("/assessments", assessmentHandler.Create)
		admin.GET("/assessments/:id", assessmentHandler.Get)
		admin.PUT("/assessments/:id", assessmentHandler.Update)
		admin.DELETE("/assessments/:id", assessmentHandler.Delete)

		admin.GET("/assessment-applications", applicationHandler.List)
		admin.GET("/assessment-applications/:id", applicationHandler.Get)
		admin.PATCH("/assessment-applications/:id/status", applicationHandler.Decide)
		admin.DELETE("/assessment-applications/:id", applicationHandler.Delete)
		admin.GET("/assessment-applications/:id/payment-proof", applicationHandler.GetPaymentProof)

		admin.GET("/notifications", notificationHandler.List)
		admin.GET("/notifications/unread-count", notificationHandler.UnreadCount)
		admin.PATCH("/notifications/read-all", notificationHandler.MarkAllRead)
		admin.PATCH("/notifications/:id/read", notificationHandler.MarkRead)
		admin.DELETE("/notifications/:id", notificationHandler.Delete)
		admin.DELETE("/notifications", notificationHandler.DeleteAll)

		admin.GET("/system-settings/:key", settingsHandler.Get)
		admin.PUT("/system-settings/:key", settingsHandler.Put)

		admin.GET("/reports/sales", salesHandler.Report)
		admin.GET("/reports/sales/export", salesHandler.Export)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
