package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/liftwise/liftwise/internal/cmms/entity"
	"github.com/liftwise/liftwise/internal/cmms/handler"
	"github.com/liftwise/liftwise/internal/cmms/repository"
	"github.com/liftwise/liftwise/internal/cmms/service"
	"github.com/liftwise/liftwise/internal/config"
	"github.com/liftwise/liftwise/internal/middleware"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// 加载 .env 文件
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables")
	}

	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 初始化日志
	zapLogger, err := initLogger(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer zapLogger.Sync()

	zapLogger.Info("Starting liftwise service",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
	)

	// 初始化数据库
	db, err := initDatabase(cfg.Database)
	if err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.Error(err))
	}

	// 表结构迁移
	if err := db.AutoMigrate(
		&entity.Client{},
		&entity.User{},
		&entity.Equipment{},
		&entity.ChecklistTemplate{},
		&entity.ChecklistQuestion{},
		&entity.Report{},
		&entity.ReportAnswer{},
		&entity.MaintenanceSchedule{},
		&entity.Ticket{},
		&entity.TicketCost{},
	); err != nil {
		zapLogger.Fatal("AutoMigrate failed", zap.Error(err))
	}

	// AutoMigrate之外的迁移：序列、部分索引、检查约束
	migrationSQL := []string{
		`CREATE SEQUENCE IF NOT EXISTS ticket_number_seq START 1`,
		// 同一报告最多一张自动工单
		`CREATE UNIQUE INDEX IF NOT EXISTS uidx_tickets_auto_report ON tickets(report_id) WHERE source = 'AUTO'`,
		`ALTER TABLE maintenance_schedules DROP CONSTRAINT IF EXISTS chk_schedule_frequency`,
		`ALTER TABLE maintenance_schedules ADD CONSTRAINT chk_schedule_frequency CHECK (frequency_value > 0)`,
		`ALTER TABLE equipment DROP CONSTRAINT IF EXISTS chk_equipment_hours`,
		`ALTER TABLE equipment ADD CONSTRAINT chk_equipment_hours CHECK (current_hours >= 0)`,
		`ALTER TABLE ticket_costs DROP CONSTRAINT IF EXISTS chk_cost_nonnegative`,
		`ALTER TABLE ticket_costs ADD CONSTRAINT chk_cost_nonnegative CHECK (quantity >= 0 AND unit_cost >= 0)`,
	}
	for _, sql := range migrationSQL {
		if err := db.Exec(sql).Error; err != nil {
			zapLogger.Warn("Migration warning", zap.String("sql", sql), zap.Error(err))
		}
	}
	zapLogger.Info("Database migration completed")

	// 初始化Redis
	rdb := initRedis(cfg.Redis)

	// 初始化仓库、服务、处理器
	repos := repository.NewRepositories(db)
	services := service.NewServices(db, repos, rdb, cfg, zapLogger)
	handlers := handler.NewHandlers(services, cfg)

	// 种子管理员账号
	if err := seedAdminUser(db); err != nil {
		zapLogger.Warn("Seed admin user warning", zap.Error(err))
	}

	// 设置Gin模式
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 创建路由
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(zapLogger))
	router.Use(middleware.CORS())
	router.Use(middleware.RequestID())
	router.Use(gzip.Gzip(gzip.DefaultCompression))

	// 注册路由
	registerRoutes(router, handlers, cfg)

	// 创建HTTP服务器
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// 启动服务器
	go func() {
		zapLogger.Info("Server starting", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Error("Server forced to shutdown", zap.Error(err))
	}

	zapLogger.Info("Server exited")
}

func initLogger(cfg config.LogConfig) (*zap.Logger, error) {
	var zapCfg zap.Config

	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}

	switch cfg.Level {
	case "debug":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	}

	return zapCfg.Build()
}

func initDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode,
	)

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Info),
	}

	db, err := gorm.Open(postgres.Open(dsn), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	return db, nil
}

func initRedis(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}

// seedAdminUser 首次启动时创建默认管理员
func seedAdminUser(db *gorm.DB) error {
	var count int64
	if err := db.Model(&entity.User{}).Where("role = ?", entity.RoleAdmin).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	password := config.GetEnvOrDefault("ADMIN_PASSWORD", "admin123")
	hash, err := service.HashPassword(password)
	if err != nil {
		return err
	}

	admin := &entity.User{
		ID:           uuid.New().String(),
		Username:     "admin",
		Name:         "系统管理员",
		Email:        "admin@liftwise.local",
		PasswordHash: hash,
		Role:         entity.RoleAdmin,
		Status:       "active",
	}
	return db.Create(admin).Error
}

func registerRoutes(r *gin.Engine, h *handler.Handlers, cfg *config.Config) {
	// 健康检查
	r.GET("/health/live", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/health/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// 版本信息
	r.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"version":    Version,
			"build_time": BuildTime,
		})
	})

	// API v1
	v1 := r.Group("/api/v1")
	{
		// 认证 (无需登录)
		auth := v1.Group("/auth")
		{
			auth.POST("/login", h.Auth.Login)
			auth.POST("/refresh", h.Auth.Refresh)
		}

		// 需要认证的接口
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(cfg.JWT.Secret))
		{
			// 当前用户
			authorized.GET("/auth/me", h.Auth.Me)
			authorized.POST("/auth/logout", h.Auth.Logout)

			// 叉车台账
			equipment := authorized.Group("/equipment")
			{
				equipment.GET("", h.Equipment.List)
				equipment.POST("", middleware.RequireRole(), h.Equipment.Create)
				equipment.GET("/:id", h.Equipment.Get)
				equipment.PUT("/:id", middleware.RequireRole(), h.Equipment.Update)
				equipment.PUT("/:id/status", middleware.RequireRole("technician"), h.Equipment.SetStatus)
				equipment.PUT("/:id/hours", h.Equipment.UpdateHours)
				equipment.DELETE("/:id", middleware.RequireRole(), h.Equipment.Delete)
			}

			// 点检模板
			templates := authorized.Group("/templates")
			{
				templates.GET("", h.Template.List)
				templates.POST("", middleware.RequireRole(), h.Template.Create)
				templates.GET("/:id", h.Template.Get)
				templates.PUT("/:id", middleware.RequireRole(), h.Template.Update)
				templates.POST("/:id/deactivate", middleware.RequireRole(), h.Template.Deactivate)
			}

			// 点检报告
			reports := authorized.Group("/reports")
			{
				reports.GET("", h.Report.List)
				reports.POST("", h.Report.Submit)
				reports.GET("/:id", h.Report.Get)
			}

			// 保养计划
			schedules := authorized.Group("/schedules")
			{
				schedules.GET("", h.Schedule.List)
				schedules.POST("", middleware.RequireRole("technician"), h.Schedule.Create)
				schedules.GET("/due", h.Schedule.Due)
				schedules.GET("/:id", h.Schedule.Get)
				schedules.PUT("/:id", middleware.RequireRole("technician"), h.Schedule.Update)
				schedules.GET("/:id/evaluate", h.Schedule.Evaluate)
				schedules.POST("/:id/complete", middleware.RequireRole("technician"), h.Schedule.Complete)
				schedules.DELETE("/:id", middleware.RequireRole(), h.Schedule.Delete)
			}

			// 维修工单
			tickets := authorized.Group("/tickets")
			{
				tickets.GET("", h.Ticket.List)
				tickets.POST("", h.Ticket.Create)
				tickets.GET("/:id", h.Ticket.Get)
				tickets.POST("/:id/assign", middleware.RequireRole("technician"), h.Ticket.Assign)
				tickets.POST("/:id/resolve", middleware.RequireRole("technician"), h.Ticket.Resolve)
				tickets.POST("/:id/close", middleware.RequireRole("technician"), h.Ticket.Close)
				tickets.POST("/:id/costs", middleware.RequireRole("technician"), h.Ticket.AddCost)
				tickets.GET("/:id/costs", h.Ticket.Costs)
				tickets.GET("/:id/costs/export", h.Ticket.ExportCosts)
			}

			// 照片取证
			evidence := authorized.Group("/evidence")
			{
				evidence.POST("", h.Evidence.Upload)
				evidence.GET("/*ref", h.Evidence.Download)
			}
		}
	}
}
