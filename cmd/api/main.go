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

	_ "github.com/tutorlink-app/tutorlink-api/api/swagger"
	"github.com/tutorlink-app/tutorlink-api/internal/handler"
	"github.com/tutorlink-app/tutorlink-api/internal/middleware"
	"github.com/tutorlink-app/tutorlink-api/internal/models"
	"github.com/tutorlink-app/tutorlink-api/internal/repository"
	"github.com/tutorlink-app/tutorlink-api/internal/service"
	"github.com/tutorlink-app/tutorlink-api/pkg/cache"
	"github.com/tutorlink-app/tutorlink-api/pkg/config"
	"github.com/tutorlink-app/tutorlink-api/pkg/database"
	"github.com/tutorlink-app/tutorlink-api/pkg/logger"
	corsmiddleware "github.com/tutorlink-app/tutorlink-api/pkg/middleware/cors"
	reqidmiddleware "github.com/tutorlink-app/tutorlink-api/pkg/middleware/requestid"
)

// @title TutorLink API
// @version 1.0.0
// @description Booking admission service for teacher time slots
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

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
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(db, cfg.Database); err != nil {
			logr.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, catalog caching disabled", zap.Error(err))
		redisClient = nil
	}

	validate := validator.New()
	metrics := service.NewMetricsService()

	// Repositories.
	userRepo := repository.NewUserRepository(db)
	teacherRepo := repository.NewTeacherRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	bookingRepo := repository.NewBookingRepository(db)
	requestRepo := repository.NewStudentRequestRepository(db)
	linkRepo := repository.NewTeacherStudentRepository(db)
	favoriteRepo := repository.NewFavoriteRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	resourceRepo := repository.NewResourceRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	// Services.
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Catalog.CacheTTL, logr, cfg.Catalog.CacheEnabled && redisClient != nil)
	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		Secret:     cfg.JWT.Secret,
		Expiration: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})
	teacherSvc := service.NewTeacherService(teacherRepo, cfg.Bookings.DefaultMeetingLink, validate, logr)
	studentSvc := service.NewStudentService(studentRepo, validate, logr)
	bookingSvc := service.NewBookingService(bookingRepo, teacherRepo, metrics, validate, logr)
	rosterSvc := service.NewRosterService(requestRepo, linkRepo, studentRepo, bookingRepo, cfg.Bookings.MaxStudentsPerTeacher, validate, logr)
	favoriteSvc := service.NewFavoriteService(favoriteRepo, teacherRepo, validate, logr)
	courseSvc := service.NewCourseService(courseRepo, teacherRepo, cacheSvc, validate, logr)
	resourceSvc := service.NewResourceService(resourceRepo, courseRepo, validate, logr)
	exportSvc := service.NewExportService(bookingRepo, rosterSvc, cfg.Exports.Enabled, logr, nil, nil)

	// Handlers.
	authHandler := handler.NewAuthHandler(authSvc)
	teacherHandler := handler.NewTeacherHandler(teacherSvc)
	studentHandler := handler.NewStudentHandler(studentSvc)
	bookingHandler := handler.NewBookingHandler(bookingSvc)
	rosterHandler := handler.NewRosterHandler(rosterSvc)
	favoriteHandler := handler.NewFavoriteHandler(favoriteSvc)
	courseHandler := handler.NewCourseHandler(courseSvc)
	resourceHandler := handler.NewResourceHandler(resourceSvc)
	exportHandler := handler.NewExportHandler(exportSvc)
	metricsHandler := handler.NewMetricsHandler(metrics)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "db unavailable"})
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
		auth.POST("/register", authHandler.Register)
		auth.GET("/me", middleware.JWT(authSvc), authHandler.Me)
	}

	authed := api.Group("")
	authed.Use(middleware.JWT(authSvc))

	teachers := api.Group("/teachers")
	{
		teachers.GET("", teacherHandler.List)
		teachers.GET("/:id", teacherHandler.Get)
	}
	teachersAuthed := authed.Group("/teachers")
	{
		teachersAuthed.POST("", middleware.RequireRoles(models.RoleAdmin), teacherHandler.Create)
		teachersAuthed.PUT("/:id", middleware.RequireRoles(models.RoleAdmin, models.RoleTeacher), teacherHandler.Update)
		teachersAuthed.DELETE("/:id", middleware.RequireRoles(models.RoleAdmin), teacherHandler.Delete)
		teachersAuthed.PUT("/:id/availability", middleware.RequireRoles(models.RoleAdmin, models.RoleTeacher), teacherHandler.SetAvailability)
		teachersAuthed.GET("/:id/settings", teacherHandler.GetSettings)
		teachersAuthed.PUT("/:id/settings", middleware.RequireRoles(models.RoleAdmin, models.RoleTeacher), teacherHandler.UpdateSettings)
		teachersAuthed.GET("/:id/bookings", bookingHandler.ListForTeacher)
		teachersAuthed.GET("/:id/requests", rosterHandler.ListPending)
		teachersAuthed.GET("/:id/students", rosterHandler.ListStudents)
		teachersAuthed.GET("/:id/exports/bookings", middleware.RequireRoles(models.RoleAdmin, models.RoleTeacher), exportHandler.Bookings)
		teachersAuthed.GET("/:id/exports/roster", middleware.RequireRoles(models.RoleAdmin, models.RoleTeacher), exportHandler.Roster)
	}

	students := authed.Group("/students")
	{
		students.GET("", studentHandler.List)
		students.GET("/:id", studentHandler.Get)
		students.POST("", middleware.RequireRoles(models.RoleAdmin), studentHandler.Create)
		students.PUT("/:id", studentHandler.Update)
		students.DELETE("/:id", middleware.RequireRoles(models.RoleAdmin), studentHandler.Delete)
		students.GET("/:id/bookings", bookingHandler.ListForStudent)
		students.GET("/:id/favorites", favoriteHandler.List)
	}

	bookings := authed.Group("/bookings")
	{
		bookings.POST("", bookingHandler.Reserve)
		bookings.GET("/:id", bookingHandler.Get)
		bookings.PUT("/:id/status", bookingHandler.SetStatus)
		bookings.PUT("/:id/meeting-link", bookingHandler.AttachMeetingLink)
		bookings.POST("/:id/cancel", bookingHandler.Cancel)
		bookings.DELETE("/:id", middleware.RequireRoles(models.RoleAdmin), bookingHandler.Delete)
	}

	requests := authed.Group("/requests")
	{
		requests.POST("", rosterHandler.CreateRequest)
		requests.POST("/:id/accept", middleware.RequireRoles(models.RoleAdmin, models.RoleTeacher), rosterHandler.Accept)
		requests.POST("/:id/ignore", middleware.RequireRoles(models.RoleAdmin, models.RoleTeacher), rosterHandler.Ignore)
	}

	roster := authed.Group("/roster")
	{
		roster.POST("/:id/notes", middleware.RequireRoles(models.RoleAdmin, models.RoleTeacher), rosterHandler.AddNote)
		roster.DELETE("/:id", middleware.RequireRoles(models.RoleAdmin, models.RoleTeacher), rosterHandler.RemoveStudent)
	}

	favorites := authed.Group("/favorites")
	{
		favorites.POST("", favoriteHandler.Add)
		favorites.DELETE("/:id", favoriteHandler.Remove)
	}

	courses := api.Group("/courses")
	{
		courses.GET("", courseHandler.List)
		courses.GET("/:id", courseHandler.Get)
	}
	coursesAuthed := authed.Group("/courses")
	{
		coursesAuthed.POST("", middleware.RequireRoles(models.RoleAdmin, models.RoleTeacher), courseHandler.Create)
		coursesAuthed.DELETE("/:id", middleware.RequireRoles(models.RoleAdmin), courseHandler.Delete)
	}

	resources := api.Group("/resources")
	{
		resources.GET("", resourceHandler.List)
		resources.GET("/:id", resourceHandler.Get)
	}
	resourcesAuthed := authed.Group("/resources")
	{
		resourcesAuthed.POST("", middleware.RequireRoles(models.RoleAdmin, models.RoleTeacher), resourceHandler.Create)
		resourcesAuthed.DELETE("/:id", middleware.RequireRoles(models.RoleAdmin, models.RoleTeacher), resourceHandler.Delete)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
