// Package main runs the attendance HTTP server with the live feed and graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sena-asistencia/backend/config"
	"github.com/sena-asistencia/backend/internal/attendance"
	"github.com/sena-asistencia/backend/internal/auth"
	"github.com/sena-asistencia/backend/internal/events"
	"github.com/sena-asistencia/backend/internal/exports"
	"github.com/sena-asistencia/backend/internal/housekeeping"
	"github.com/sena-asistencia/backend/internal/middleware"
	"github.com/sena-asistencia/backend/internal/models"
	"github.com/sena-asistencia/backend/internal/qr"
	"github.com/sena-asistencia/backend/internal/realtime"
	"github.com/sena-asistencia/backend/internal/store/postgres"
	"github.com/sena-asistencia/backend/pkg/database"
	"github.com/sena-asistencia/backend/pkg/queue"
	"github.com/sena-asistencia/backend/pkg/redis"
	"github.com/sena-asistencia/backend/pkg/response"
	"github.com/sena-asistencia/backend/pkg/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		newLogger("info").Fatal("load config", zap.Error(err))
	}
	logger := newLogger(cfg.Log.Level)
	defer logger.Sync()

	if err := database.Migrate(cfg.Database.DSN(), logger); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), int32(cfg.Database.MaxConns), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()
	st := postgres.New(pool)

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	s3Client, err := storage.NewS3(ctx, storage.S3Config{
		Region:               cfg.AWS.Region,
		AccessKeyID:          cfg.AWS.AccessKeyID,
		SecretAccessKey:      cfg.AWS.SecretAccessKey,
		ExportsBucket:        cfg.AWS.ExportsBucket,
		PresignExpireMinutes: cfg.AWS.PresignExpireMinutes,
	}, logger)
	if err != nil {
		logger.Fatal("s3", zap.Error(err))
	}

	redisPubSub := realtime.NewRedisPubSub(rdb.Client, logger)
	hub := realtime.NewHub(logger, redisPubSub, redisPubSub)
	jobQueue := queue.NewQueue(rdb.Client, logger)

	// Services
	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessTTL(), cfg.JWT.RefreshTTL())
	qrService := qr.NewService(st, qr.Config{
		DefaultTTL:  cfg.QR.DefaultTTL(),
		SingleUse:   cfg.QR.SingleUse,
		MaxAttempts: cfg.QR.MaxIssueAttempts,
	}, logger)
	authService := auth.NewService(st, jwtService, qrService, logger)
	eventService := events.NewService(st, logger)
	attendanceService := attendance.NewService(st, qrService, hub, attendance.Config{
		AllowDuplicates: cfg.Attendance.AllowDuplicates,
	}, logger)
	exportService := exports.NewService(st, jobQueue, s3Client, logger)

	// Handlers
	authHandler := auth.NewHandler(authService, logger)
	eventHandler := events.NewHandler(eventService)
	qrHandler := qr.NewHandler(qrService)
	attendanceHandler := attendance.NewHandler(attendanceService)
	exportHandler := exports.NewHandler(exportService)

	authLimiter := middleware.NewIPRateLimiter(cfg.RateLimit.AuthPerMinute, cfg.RateLimit.AuthBurst)
	staffOnly := middleware.RequireRole(models.RoleStaff)
	instructorOrStaff := middleware.RequireRole(models.RoleInstructor, models.RoleStaff)

	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(logger))
	router.Use(middleware.Recovery(logger))
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))

	// Health
	router.GET("/health", func(c *gin.Context) {
		hctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		dbStatus, cacheStatus := "ok", "ok"
		if err := st.Ping(hctx); err != nil {
			dbStatus = "down"
		}
		if !rdb.Healthy(hctx) {
			cacheStatus = "down"
		}
		response.OK(c, gin.H{"database": dbStatus, "cache": cacheStatus})
	})

	// Auth (public, rate limited per IP)
	public := router.Group("", middleware.RateLimit(authLimiter))
	{
		public.POST("/register", authHandler.Register)
		public.POST("/login", authHandler.Login)
		public.POST("/token/refresh", authHandler.Refresh)
	}

	// Protected API (JWT required)
	api := router.Group("")
	api.Use(middleware.JWT(jwtService))
	{
		api.GET("/perfil", authHandler.Profile)
		api.PUT("/perfil/password", authHandler.ChangePassword)

		// Users directory
		api.GET("/usuarios", instructorOrStaff, authHandler.ListUsers)
		api.GET("/usuarios/:documento", instructorOrStaff, authHandler.GetUser)
		api.DELETE("/usuarios/:documento", staffOnly, authHandler.DeactivateUser)

		// Events
		api.POST("/eventos/crear", eventHandler.Create)
		api.GET("/eventos/listar", eventHandler.List)
		api.GET("/eventos/:id", eventHandler.Get)
		api.PATCH("/eventos/:id/activo", instructorOrStaff, eventHandler.SetActive)
		api.DELETE("/eventos/:id", staffOnly, eventHandler.Delete)
		api.GET("/eventos/:id/asistencias", instructorOrStaff, attendanceHandler.ListForEvent)
		api.POST("/eventos/:id/asistencias/exportar", instructorOrStaff, exportHandler.Request)
		api.GET("/exportaciones/:id", instructorOrStaff, exportHandler.Get)

		// Control points
		api.POST("/puntos/crear", instructorOrStaff, eventHandler.CreatePoint)
		api.GET("/puntos/listar", eventHandler.ListPoints)

		// Attendance
		api.POST("/asistencias/registrar", attendanceHandler.Register)
		api.GET("/asistencias/listar", attendanceHandler.History)
		api.GET("/asistencias/historial", attendanceHandler.History)

		// QR tokens
		api.POST("/qr/crear", qrHandler.Create)
		api.GET("/qr/listar", qrHandler.List)
		api.POST("/qr/:id/desactivar", qrHandler.Deactivate)
	}

	// WebSocket (token in query; no Authorization header required)
	router.GET("/ws/eventos/:id", realtime.ServeWs(hub, jwtService, eventService, logger))

	scheduler := housekeeping.NewScheduler(cfg.Housekeeping.Cron, qrService, logger)
	if err := scheduler.Start(); err != nil {
		logger.Fatal("housekeeping", zap.Error(err))
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	scheduler.Stop(shutdownCtx)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger(level string) *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if lvl, err := zapcore.ParseLevel(level); err == nil {
		config.Level = zap.NewAtomicLevelAt(lvl)
	}
	logger, _ := config.Build()
	return logger
}
