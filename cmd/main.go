package main

import (
	"context"
	"time"

	"recruitment-service/internal/bootstrap"
	"recruitment-service/internal/handler"
	"recruitment-service/internal/lifecycle"
	"recruitment-service/internal/middleware"
	"recruitment-service/internal/store"
	"recruitment-service/pkg/config"
	"recruitment-service/pkg/database"
	"recruitment-service/pkg/jwtutil"
	"recruitment-service/pkg/logger"
	"recruitment-service/prometheus"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	logger.InitLogger(cfg)
	log := logger.GetLogger()
	defer log.Sync()

	log.Info("Starting recruitment service", cfg.LogConfig()...)

	prometheus.InitMetrics(cfg)
	jwtutil.Initialize(&cfg.JWT)

	if err := database.InitDB(cfg); err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}

	if err := bootstrap.EnsureSuperAdmin(database.GetDB(), &cfg.Bootstrap, log); err != nil {
		log.Fatal("Failed to bootstrap super admin", zap.Error(err))
	}

	gormStore := store.NewGormStore(database.GetDB())
	jobService := lifecycle.NewJobService(gormStore, log)
	applicationService := lifecycle.NewApplicationService(gormStore, log)
	handler.Init(jobService, applicationService)
	handler.SyncPublishedJobsGauge()

	var limiter *middleware.RedisLimiter
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		limiter = middleware.NewRedisLimiter(client)
		log.Info("Rate limiting enabled", zap.String("redis_addr", cfg.Redis.Addr))
	}

	if cfg.Sweep.Enabled {
		go runDeadlineSweep(jobService, cfg.Sweep.Interval, log)
	}

	e := echo.New()
	e.HideBanner = true

	e.Use(echomw.Recover())
	e.Use(echomw.CORS())
	e.Use(middleware.RequestIDMiddleware)
	e.Use(logger.Middleware(log))
	e.Use(prometheus.MetricsMiddleware())

	registerRoutes(e, limiter)

	log.Info("Server starting", zap.String("port", cfg.Server.Port))
	if err := e.Start(":" + cfg.Server.Port); err != nil {
		log.Fatal("Server failed", zap.Error(err))
	}
}

func registerRoutes(e *echo.Echo, limiter *middleware.RedisLimiter) {
	e.GET("/health", handler.HealthCheck)
	e.GET("/metrics", handler.MetricsHandler)

	// Public surface: registration, login and the published job board.
	auth := e.Group("/auth")
	auth.POST("/register", handler.RegisterApplicant,
		middleware.RateLimitMiddleware(limiter, "register", 10, time.Minute))
	auth.POST("/login", handler.Login,
		middleware.RateLimitMiddleware(limiter, "login", 20, time.Minute))

	e.GET("/jobs", handler.PublishedJobs)
	e.GET("/jobs/:id", handler.GetJob, middleware.OptionalAuthMiddleware)

	// Everything below requires a valid token.
	api := e.Group("/api", middleware.AuthMiddleware)

	api.POST("/auth/logout", handler.Logout)
	api.POST("/auth/change-password", handler.ChangePassword)
	api.GET("/auth/profile", handler.Profile)

	api.POST("/institutions", handler.CreateInstitution)
	api.GET("/institutions", handler.ListInstitutions)
	api.GET("/institutions/:id", handler.GetInstitution)
	api.PUT("/institutions/:id", handler.UpdateInstitution)
	api.DELETE("/institutions/:id", handler.DeleteInstitution)
	api.GET("/institutions/:id/colleges", handler.InstitutionColleges)
	api.GET("/institutions/:id/departments", handler.InstitutionDepartments)
	api.GET("/institutions/:id/jobs", handler.InstitutionJobs)

	api.POST("/colleges", handler.CreateCollege)
	api.GET("/colleges", handler.ListColleges)
	api.GET("/colleges/:id", handler.GetCollege)
	api.PUT("/colleges/:id", handler.UpdateCollege)
	api.DELETE("/colleges/:id", handler.DeleteCollege)
	api.GET("/colleges/:id/departments", handler.CollegeDepartments)

	api.POST("/departments", handler.CreateDepartment)
	api.GET("/departments", handler.ListDepartments)
	api.GET("/departments/:id", handler.GetDepartment)
	api.PUT("/departments/:id", handler.UpdateDepartment)
	api.DELETE("/departments/:id", handler.DeleteDepartment)

	api.POST("/users", handler.CreateUser)
	api.GET("/users", handler.ListUsers)
	api.GET("/users/:id", handler.GetUser)
	api.PUT("/users/:id", handler.UpdateUser)
	api.POST("/users/:id/status", handler.ChangeUserStatus)
	api.GET("/users/role/:role", handler.UsersByRole)

	api.GET("/applicants", handler.ListApplicants)
	api.GET("/applicants/me", handler.MyProfile)
	api.PUT("/applicants/me", handler.UpdateMyProfile)
	api.GET("/applicants/:id", handler.GetApplicant)
	api.POST("/applicants/:id/toggle-status", handler.ToggleApplicantStatus)
	api.GET("/applicants/:id/applications", handler.ApplicantApplications)
	api.POST("/applicants/me/education", handler.AddEducation)
	api.DELETE("/applicants/me/education/:id", handler.DeleteEducation)
	api.POST("/applicants/me/experience", handler.AddExperience)
	api.DELETE("/applicants/me/experience/:id", handler.DeleteExperience)

	api.POST("/jobs", handler.CreateJob)
	api.GET("/jobs", handler.ListJobs)
	api.GET("/jobs/pending-approval", handler.PendingApprovalJobs)
	api.GET("/jobs/statistics", handler.JobStatistics)
	api.GET("/jobs/:id", handler.GetJob)
	api.PUT("/jobs/:id", handler.UpdateJob)
	api.DELETE("/jobs/:id", handler.DeleteJob)
	api.POST("/jobs/:id/submit", handler.SubmitJob)
	api.POST("/jobs/:id/approve", handler.ApproveJob)
	api.POST("/jobs/:id/archive", handler.ArchiveJob)
	api.POST("/jobs/:id/mark-selected", handler.MarkJobSelected)
	api.GET("/jobs/:id/applications", handler.JobApplications)

	api.POST("/applications", handler.Apply)
	api.GET("/applications", handler.ListApplications)
	api.GET("/applications/my", handler.MyApplications)
	api.GET("/applications/statistics", handler.ApplicationStatistics)
	api.GET("/applications/:id", handler.GetApplication)
	api.POST("/applications/:id/status", handler.UpdateApplicationStatus)
	api.POST("/applications/:id/under-review", handler.MoveApplicationUnderReview)
	api.POST("/applications/:id/interview", handler.MoveApplicationToInterview)
	api.POST("/applications/:id/shortlist", handler.ShortlistApplication)
	api.POST("/applications/:id/select", handler.SelectApplication)
	api.POST("/applications/:id/reject", handler.RejectApplication)

	api.POST("/hr-assignments", handler.CreateHRAssignment)
	api.GET("/hr-assignments", handler.ListHRAssignments)
	api.GET("/hr-assignments/:id", handler.GetHRAssignment)
	api.DELETE("/hr-assignments/:id", handler.DeleteHRAssignment)

	api.GET("/activity-logs", handler.ListActivityLogs)
	api.GET("/activity-logs/:kind/:id", handler.EntityActivityLogs)
}

// runDeadlineSweep periodically closes published jobs whose deadline has
// passed. The sweep is idempotent so overlapping deployments are harmless.
func runDeadlineSweep(jobs *lifecycle.JobService, interval time.Duration, log *zap.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		prometheus.SweepRunsCounter.Inc()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		closed, err := jobs.AutoCloseExpired(ctx)
		cancel()
		if err != nil {
			prometheus.SweepErrorsCounter.Inc()
			log.Error("Deadline sweep failed", zap.Error(err))
		} else if closed > 0 {
			prometheus.SweepClosedJobsCounter.Add(float64(closed))
			log.Info("Deadline sweep closed jobs", zap.Int("closed", closed))
		}
		handler.SyncPublishedJobsGauge()
		<-ticker.C
	}
}
