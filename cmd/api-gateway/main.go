package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/mission-hub-api/api/swagger"
	"github.com/noah-isme/mission-hub-api/internal/handler"
	"github.com/noah-isme/mission-hub-api/internal/middleware"
	"github.com/noah-isme/mission-hub-api/internal/models"
	"github.com/noah-isme/mission-hub-api/internal/repository"
	"github.com/noah-isme/mission-hub-api/internal/service"
	"github.com/noah-isme/mission-hub-api/pkg/cache"
	"github.com/noah-isme/mission-hub-api/pkg/config"
	"github.com/noah-isme/mission-hub-api/pkg/database"
	"github.com/noah-isme/mission-hub-api/pkg/jobs"
	"github.com/noah-isme/mission-hub-api/pkg/logger"
	"github.com/noah-isme/mission-hub-api/pkg/mailer"
	corsmiddleware "github.com/noah-isme/mission-hub-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/mission-hub-api/pkg/middleware/requestid"
	"github.com/noah-isme/mission-hub-api/pkg/storage"
)

// @title Mission Hub API
// @version 1.0.0
// @description Student management platform: missions, mentors, assignments, mentorship groups
// @BasePath /api
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	var cacheSvc *service.CacheService
	metricsSvc := service.NewMetricsService()
	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, roster caching disabled", "error", err)
		cacheSvc = service.NewCacheService(nil, metricsSvc, cfg.Missions.RosterCacheTTL, logr, false)
	} else {
		defer redisClient.Close()
		cacheRepo := repository.NewCacheRepository(redisClient, logr)
		cacheSvc = service.NewCacheService(cacheRepo, metricsSvc, cfg.Missions.RosterCacheTTL, logr, true)
	}

	mail, err := mailer.New(mailer.Config{
		Provider:    cfg.Mailer.Provider,
		SendgridKey: cfg.Mailer.SendgridKey,
		FromName:    cfg.Mailer.FromName,
		FromAddress: cfg.Mailer.FromAddress,
		SubjPrefix:  cfg.Mailer.SubjPrefix,
	})
	if err != nil {
		logr.Sugar().Fatalw("failed to init mailer", "error", err)
	}

	userRepo := repository.NewUserRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	missionRepo := repository.NewMissionRepository(db)
	missionMentorRepo := repository.NewMissionMentorRepository(db)
	groupRepo := repository.NewMentorshipGroupRepository(db)
	invitationRepo := repository.NewInvitationRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	reportRepo := repository.NewReportRepository(db)
	reportingRepo := repository.NewReportingRepository(db)

	authSvc := service.NewAuthService(userRepo, nil, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "mission-hub-api",
	})
	userSvc := service.NewUserService(userRepo, nil, logr)

	notificationSvc := service.NewNotificationService(notificationRepo, userRepo, mail, cfg.Notifications.EmailCopy, logr)
	var assignmentSvc *service.AssignmentService
	if cfg.Notifications.Enabled {
		assignmentSvc = service.NewAssignmentService(assignmentRepo, userRepo, notificationSvc, nil, logr)
	} else {
		assignmentSvc = service.NewAssignmentService(assignmentRepo, userRepo, nil, nil, logr)
	}
	missionSvc := service.NewMissionService(missionRepo, missionMentorRepo, cacheSvc, cfg.Missions.RosterCacheTTL, nil, logr)
	missionMentorSvc := service.NewMissionMentorService(missionMentorRepo, missionRepo, userRepo, nil, logr)
	groupSvc := service.NewMentorshipGroupService(groupRepo, missionRepo, missionMentorRepo, userRepo, nil, logr)

	var studentSvc *service.StudentService
	invitationQueue := jobs.NewQueue("invitations", func(ctx context.Context, job jobs.Job) error {
		return studentSvc.HandleInvitationJob(ctx, job)
	}, jobs.QueueConfig{
		Workers:    cfg.Invitations.WorkerConcurrency,
		MaxRetries: cfg.Invitations.WorkerRetries,
		Logger:     logr,
	})
	studentSvc = service.NewStudentService(userRepo, invitationRepo, invitationQueue, mail, cfg.Invitations.TempPasswordTTL, nil, logr)
	invitationQueue.Start(ctx)
	defer invitationQueue.Stop()

	exportStore, err := storage.NewLocalStorage(cfg.Reports.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init export storage", "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Reports.SignedURLSecret, cfg.Reports.SignedURLTTL)
	exportSvc := service.NewExportService(reportingRepo, exportStore, signer, service.ExportConfig{
		APIPrefix: cfg.APIPrefix,
		ResultTTL: cfg.Reports.SignedURLTTL,
	}, logr, nil, nil)
	reportWorker := service.NewReportWorker(reportRepo, exportSvc, 3, logr)
	reportQueue := jobs.NewQueue("reports", reportWorker.Handle, jobs.QueueConfig{Logger: logr})
	reportSvc := service.NewReportService(reportRepo, missionMentorRepo, reportQueue, exportSvc, logr, service.ReportServiceConfig{
		ResultTTL:       cfg.Reports.SignedURLTTL,
		CleanupInterval: cfg.Reports.SignedURLTTL / 2,
	})
	reportQueue.Start(ctx)
	defer reportQueue.Stop()
	reportSvc.RecoverPendingJobs(ctx)
	reportSvc.StartCleanup(ctx)

	authHandler := handler.NewAuthHandler(authSvc)
	userHandler := handler.NewUserHandler(userSvc)
	studentHandler := handler.NewStudentHandler(studentSvc)
	assignmentHandler := handler.NewAssignmentHandler(assignmentSvc)
	missionHandler := handler.NewMissionHandler(missionSvc)
	missionMentorHandler := handler.NewMissionMentorHandler(missionMentorSvc)
	groupHandler := handler.NewMentorshipGroupHandler(groupSvc)
	notificationHandler := handler.NewNotificationHandler(notificationSvc)
	reportHandler := handler.NewReportHandler(reportSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
		auth.POST("/forgot-password", authHandler.ForgotPassword)
		auth.POST("/reset-password", authHandler.ResetPassword)
	}

	// Signed tokens carry their own authorization.
	api.GET("/export/:token", reportHandler.Download)

	protected := api.Group("")
	protected.Use(middleware.JWT(authSvc))
	{
		protected.GET("/auth/me", authHandler.Me)
		protected.POST("/auth/logout", authHandler.Logout)
		protected.POST("/auth/change-password", authHandler.ChangePassword)

		users := protected.Group("/users", middleware.RequirePermission(middleware.PermUserManage))
		{
			users.GET("", userHandler.List)
			users.GET("/:id", userHandler.Get)
			users.POST("", userHandler.Create)
			users.PUT("/:id", userHandler.Update)
			users.DELETE("/:id", userHandler.Delete)
		}

		students := protected.Group("/students")
		{
			students.GET("", middleware.RequirePermission(middleware.PermStudentRead), studentHandler.List)
			students.GET("/:id", middleware.RequirePermission(middleware.PermStudentRead), studentHandler.Get)
			students.GET("/:id/invitations", middleware.RequirePermission(middleware.PermStudentInvite), studentHandler.Invitations)
			students.POST("", middleware.RequirePermission(middleware.PermStudentEnroll), studentHandler.Enroll)
			students.POST("/send-invitations", middleware.RequirePermission(middleware.PermStudentInvite), studentHandler.SendInvitations)
		}

		assignments := protected.Group("/assignments")
		{
			assignments.GET("", middleware.RequirePermission(middleware.PermAssignmentRead), assignmentHandler.List)
			assignments.GET("/:id", middleware.RequirePermission(middleware.PermAssignmentRead), assignmentHandler.Get)
			assignments.GET("/:id/completions", middleware.RequirePermission(middleware.PermAssignmentRead), assignmentHandler.Completions)
			assignments.GET("/:id/submissions", middleware.RequirePermission(middleware.PermAssignmentRead), assignmentHandler.Submissions)
			assignments.POST("", middleware.RequirePermission(middleware.PermAssignmentManage), assignmentHandler.Create)
			assignments.PUT("/:id", middleware.RequirePermission(middleware.PermAssignmentManage), assignmentHandler.Update)
			assignments.POST("/:id/publish", middleware.RequirePermission(middleware.PermAssignmentManage), assignmentHandler.Publish)
			assignments.DELETE("/:id", middleware.RequirePermission(middleware.PermAssignmentManage), assignmentHandler.Delete)
			assignments.POST("/:id/add-emails", middleware.RequirePermission(middleware.PermAssignmentSubmit), assignmentHandler.AddEmails)
		}

		missions := protected.Group("/missions")
		{
			missions.GET("", middleware.RequirePermission(middleware.PermMissionRead), missionHandler.List)
			missions.GET("/:id", middleware.RequirePermission(middleware.PermMissionRead), missionHandler.Get)
			missions.GET("/:id/roster", middleware.RequirePermission(middleware.PermMissionRead), missionHandler.Roster)
			missions.POST("", middleware.RequirePermission(middleware.PermMissionManage), missionHandler.Create)
			missions.PUT("/:id", middleware.RequirePermission(middleware.PermMissionManage), missionHandler.Update)
			missions.POST("/:id/archive", middleware.RequirePermission(middleware.PermMissionManage), missionHandler.Archive)
			missions.POST("/:id/students", middleware.RequirePermission(middleware.PermStudentEnroll), missionHandler.EnrollStudents)
			missions.DELETE("/:id/students/:studentId", middleware.RequirePermission(middleware.PermStudentEnroll), missionHandler.RemoveStudent)
		}

		mentors := protected.Group("/mission-mentors", middleware.RequirePermission(middleware.PermMentorManage))
		{
			mentors.GET("", missionMentorHandler.ListByMission)
			mentors.GET("/:id", missionMentorHandler.Get)
			mentors.POST("/bulk-operations", missionMentorHandler.BulkOperations)
			mentors.POST("/reassign", missionMentorHandler.Reassign)
			mentors.PUT("/:id/profile", missionMentorHandler.UpdateProfile)
			mentors.PUT("/:id/status", missionMentorHandler.UpdateStatus)
			mentors.PUT("/:id/capacity", missionMentorHandler.UpdateCapacity)
			mentors.DELETE("/:id", missionMentorHandler.Delete)
		}

		v2 := protected.Group("/v2")
		{
			v2.POST("/mission-mentors", middleware.RequirePermission(middleware.PermMentorManage), missionMentorHandler.Assign)

			groups := v2.Group("/mentorship-groups", middleware.RequirePermission(middleware.PermGroupManage))
			{
				groups.GET("", groupHandler.ListByMission)
				groups.POST("", groupHandler.Create)
				groups.GET("/:id", groupHandler.Get)
				groups.PUT("/:id", groupHandler.Update)
				groups.DELETE("/:id", groupHandler.Delete)
				groups.POST("/:id/students", groupHandler.AddStudent)
			}
		}

		notifications := protected.Group("/notifications")
		{
			notifications.GET("", notificationHandler.List)
			notifications.GET("/unread-count", notificationHandler.UnreadCount)
			notifications.POST("/:id/read", notificationHandler.MarkRead)
		}

		reports := protected.Group("/reports", middleware.RequirePermission(middleware.PermReportExport))
		{
			reports.POST("/generate", middleware.Audit(userRepo, "report.generate", "report"), reportHandler.Generate)
			reports.GET("/:id/status", reportHandler.Status)
		}

		protected.GET("/operations/metrics", middleware.RequireRoles(models.RoleAdmin, models.RoleSRE), metricsHandler.Summary)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
