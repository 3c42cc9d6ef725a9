package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"surveyhub_backend/database"
	"surveyhub_backend/internal/auth"
	"surveyhub_backend/internal/config"
	"surveyhub_backend/internal/handlers"
	"surveyhub_backend/internal/logger"
	"surveyhub_backend/internal/middleware"
	"surveyhub_backend/internal/models"
	"surveyhub_backend/internal/notify"
	"surveyhub_backend/internal/repositories"
	"surveyhub_backend/internal/routes"
	"surveyhub_backend/internal/services"
	"surveyhub_backend/internal/utils"
	"surveyhub_backend/internal/validator"
	"surveyhub_backend/internal/workers"
	"surveyhub_backend/ws"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func Run() {
	config.LoadConfig()
	cfg := config.AppConfig
	logger.Init(cfg.Server.Env)
	logger.Info("Logger initialized", "env", cfg.Server.Env)

	logger.Info("Connecting to database...")
	gormDB, err := database.ConnectGorm()
	if err != nil {
		logger.Fatal("Failed to connect to GORM", "error", err)
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		logger.Fatal("Failed to get *sql.DB from GORM", "error", err)
	}
	if err = sqlDB.Ping(); err != nil {
		logger.Fatal("Database unavailable", "error", err)
	}
	logger.Info("Database connected")

	if err := database.AutoMigrate(); err != nil {
		logger.Fatal("AutoMigrate failed", "error", err)
	}

	if err := seedFirstAdmin(gormDB); err != nil {
		logger.Fatal("Failed to seed first admin user", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ginRouter, worker, scanner := SetupRouter(cfg, gormDB)

	worker.Start(ctx)
	scanner.Start(ctx)

	address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:    address,
		Handler: ginRouter,
	}

	go func() {
		logger.Info(fmt.Sprintf("🚀 Server starting on %s", address))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server startup error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutdown signal received")

	// Сначала останавливаем фоновые циклы, затем HTTP
	worker.Stop()
	scanner.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}
	logger.Info("Server stopped")
}

// SetupRouter собирает все зависимости и возвращает роутер и воркеры
func SetupRouter(cfg *config.Config, gormDB *gorm.DB) (*gin.Engine, *workers.NotificationWorker, *workers.DeadlineScanner) {
	// --- Репозитории ---
	notificationRepo := repositories.NewNotificationRepository(gormDB)
	surveyRepo := repositories.NewSurveyRepository(gormDB)
	workspaceRepo := repositories.NewWorkspaceRepository(gormDB)
	responseRepo := repositories.NewResponseRepository(gormDB)
	userRepo := repositories.NewUserRepository(gormDB)
	reminderRepo := repositories.NewReminderLogRepository(gormDB)

	// --- Очередь и WebSocket ---
	queue := notify.NewTaskQueue(cfg.Notify.QueueCapacity)
	wsManager := ws.NewWebSocketManager()
	go wsManager.Run()

	// --- Сервисы ---
	serviceContainer := services.NewServiceContainer(
		notificationRepo,
		queue,
		wsManager,
		cfg.Notify.GroupingWindow(),
	)
	wsManager.SetNotifier(serviceContainer.NotificationService)

	// --- Воркеры ---
	worker := workers.NewNotificationWorker(
		queue,
		serviceContainer.NotificationService,
		cfg.Notify.WorkerInterval(),
		cfg.Notify.MaxRetries,
	)

	emailSender := utils.NewEmailSender(cfg)
	scanner := workers.NewDeadlineScanner(
		surveyRepo,
		workspaceRepo,
		responseRepo,
		reminderRepo,
		userRepo,
		serviceContainer.NotificationService,
		emailSender,
		cfg.Notify.ScannerInterval(),
		cfg.Notify.ReminderLead(),
	)

	// --- Хэндлеры ---
	appHandlers := initializeHandlers(serviceContainer)
	wsHandler := ws.NewWebSocketHandler(wsManager)

	ginRouter := initializeGinRouter(gormDB)
	routes.RegisterRoutes(ginRouter, appHandlers, wsHandler)

	return ginRouter, worker, scanner
}

func initializeHandlers(container *services.ServiceContainer) *handlers.AppHandlers {
	customValidator := validator.New()
	baseHandler := handlers.NewBaseHandler(customValidator)

	return &handlers.AppHandlers{
		NotificationHandler: handlers.NewNotificationHandler(baseHandler, container.NotificationService),
	}
}

func initializeGinRouter(db *gorm.DB) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.DBMiddleware(db))
	return router
}

func seedFirstAdmin(db *gorm.DB) error {
	adminEmail := "admin@surveyhub.com"

	var adminUser models.User
	result := db.Where("email = ?", adminEmail).First(&adminUser)
	if result.Error == nil {
		return nil
	}
	if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to check for admin user: %w", result.Error)
	}

	logger.Warn("No admin user found. Creating first admin...", "email", adminEmail)

	hashedPassword, err := auth.HashPassword("change-me-now")
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	newAdmin := &models.User{
		Email:        adminEmail,
		Name:         "Administrator",
		PasswordHash: hashedPassword,
		Role:         models.UserRoleAdmin,
		Status:       models.UserStatusActive,
	}

	if err := db.Create(newAdmin).Error; err != nil {
		return fmt.Errorf("failed to create admin user in database: %w", err)
	}

	logger.Info("✅ Successfully created first admin user", "email", adminEmail)
	return nil
}
