package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/langchou/evcharge/internal/api/handlers"
	"github.com/langchou/evcharge/internal/config"
	"github.com/langchou/evcharge/internal/metrics"
	"github.com/langchou/evcharge/internal/repository"
	"github.com/langchou/evcharge/internal/service"
	"github.com/langchou/evcharge/pkg/currency"
	"github.com/langchou/evcharge/pkg/ws"
)

func main() {
	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 初始化日志
	logger := initLogger(cfg.Debug)
	defer logger.Sync()

	logger.Info("Starting evcharge", zap.String("port", cfg.ServerPort))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cur, err := currency.New(cfg.Currency)
	if err != nil {
		logger.Fatal("Invalid currency", zap.String("currency", cfg.Currency), zap.Error(err))
	}

	// 连接数据库
	db, err := repository.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("Failed to connect database", zap.Error(err))
	}
	defer db.Close()

	// 执行数据库迁移
	if err := db.Migrate(ctx); err != nil {
		logger.Fatal("Failed to migrate database", zap.Error(err))
	}
	logger.Info("Database migrated successfully")

	// 创建 Repository
	stationRepo := repository.NewStationRepository(db)
	vehicleRepo := repository.NewVehicleRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	txRepo := repository.NewTransactionRepository(db)

	// 指标
	recorder, err := metrics.New(nil)
	if err != nil {
		logger.Fatal("Failed to register metrics", zap.Error(err))
	}

	// 创建 WebSocket Hub
	wsHub := ws.NewHub(logger)
	go wsHub.Run(ctx)

	// 创建服务
	stationService := service.NewStationService(cfg, stationRepo, vehicleRepo, sessionRepo, recorder)
	userService := service.NewUserService(vehicleRepo, sessionRepo, txRepo)
	chargingService := service.NewChargingService(
		cfg,
		logger,
		stationRepo,
		vehicleRepo,
		sessionRepo,
		txRepo,
		wsHub,
		recorder,
		cur,
	)

	// 新连接推送当前进行中的会话
	wsHub.SetInitDataProvider(func(sessionID string) interface{} {
		return chargingService.ActiveStates(sessionID)
	})

	if err := chargingService.Start(ctx); err != nil {
		logger.Fatal("Failed to start charging service", zap.Error(err))
	}

	// 创建 HTTP 处理器
	handler := handlers.NewHandler(
		logger,
		stationService,
		chargingService,
		userService,
		wsHub,
		recorder,
		cur,
	)

	// 设置 Gin 模式
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	// 创建路由
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())

	// 注册路由
	handler.RegisterRoutes(router)

	// 启动 HTTP 服务器
	server := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: router,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	logger.Info("Server started",
		zap.String("addr", server.Addr),
		zap.String("currency", cur.Code()),
		zap.Duration("sim_tick", cfg.SimTick),
		zap.Float64("sim_speedup", cfg.SimSpeedup),
	)

	// 等待退出信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// 优雅关闭，先停止接收请求
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	// 停止模拟，进行中的会话下次启动时恢复
	chargingService.Stop()

	logger.Info("Server exited")
}

// initLogger 初始化日志
func initLogger(debug bool) *zap.Logger {
	var config zap.Config
	if debug {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		config = zap.NewProductionConfig()
	}

	logger, _ := config.Build()
	return logger
}

// corsMiddleware CORS 中间件
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
