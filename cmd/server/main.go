package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/SlpAus/daily-puzzle-backend/api"
	"github.com/SlpAus/daily-puzzle-backend/internal/platform/config"
	"github.com/SlpAus/daily-puzzle-backend/internal/platform/database"
	"github.com/SlpAus/daily-puzzle-backend/internal/platform/health"
	"github.com/SlpAus/daily-puzzle-backend/internal/platform/shutdown"
	"github.com/SlpAus/daily-puzzle-backend/internal/platform/startup"
	"github.com/SlpAus/daily-puzzle-backend/internal/presence"
	"github.com/SlpAus/daily-puzzle-backend/internal/rotation"
	"github.com/SlpAus/daily-puzzle-backend/internal/stats"
	"github.com/SlpAus/daily-puzzle-backend/pkg/lifecycle"
	"github.com/SlpAus/daily-puzzle-backend/pkg/token"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		panic(fmt.Sprintf("无法加载配置: %v", err))
	}

	token.GenerateSecretKey()
	database.InitDB(cfg.Database.Sqlite)
	database.InitRedis(cfg.Database.Redis)

	// 1. 阻塞式获取初始Run ID
	health.InitializeRunID()

	// 2. 执行应用首次启动初始化流程
	if err := startup.InitializeApplication(); err != nil {
		panic(fmt.Sprintf("应用初始化失败，无法启动: %v", err))
	}

	// 3. 创建生命周期管理器并启动全部后台调度器
	gracefulMgr := lifecycle.NewManager()
	forcefulMgr := lifecycle.NewManager()

	startService := func(name string, run func(*lifecycle.Handle)) {
		handle, err := gracefulMgr.NewServiceHandle(name)
		if err != nil {
			panic(fmt.Sprintf("无法注册后台服务 %s: %v", name, err))
		}
		go run(handle)
	}

	startService("rotation-boundary", rotation.StartBoundaryScheduler)
	startService("rotation-fallback", rotation.StartFallbackScheduler)
	startService("stats-backup", stats.StartBackupScheduler)
	startService("presence-sweep", presence.StartSweepScheduler)
	startService("redis-health", health.StartRedisHealthCheck)

	// 4. 创建Gin引擎并配置CORS中间件
	r := gin.Default()
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.Cors.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	api.SetupRoutes(r)

	// 5. 启动HTTP服务器并等待停机信号
	server := &http.Server{
		Addr:    cfg.Server.Address,
		Handler: r,
	}

	go func() {
		fmt.Printf("服务器已准备就绪，开始监听 %s\n", cfg.Server.Address)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			panic("Failed to start server: " + err.Error())
		}
	}()

	coordinator := shutdown.NewCoordinator(gracefulMgr, forcefulMgr)
	coordinator.ListenForSignalsAndShutdown(server)
}
