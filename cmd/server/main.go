// main.go

package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/jacl-coder/ShuttleRotation-Server/config"
	"github.com/jacl-coder/ShuttleRotation-Server/internal/gateway"
	"github.com/jacl-coder/ShuttleRotation-Server/internal/match"
	"github.com/jacl-coder/ShuttleRotation-Server/internal/pairing"
	"github.com/jacl-coder/ShuttleRotation-Server/pkg/db"
	"github.com/jacl-coder/ShuttleRotation-Server/pkg/logger"
	"go.uber.org/zap"
)

func main() {
	// 解析命令行参数
	configPath := flag.String("config", "config/config.yaml", "配置文件路径")
	flag.Parse()

	// 加载配置
	if err := config.LoadConfig(*configPath); err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}
	cfg := &config.GlobalConfig

	zl, err := logger.New(logger.Options{
		Level: cfg.Server.LogLevel,
		File:  cfg.Server.LogFile,
		Debug: cfg.Server.Debug,
	})
	if err != nil {
		log.Fatalf("初始化日志失败: %v", err)
	}
	defer zl.Sync()
	zap.ReplaceGlobals(zl)

	store, archiver, cleanup := openStorage(cfg, zl)
	defer cleanup()

	service, err := match.NewMatchService(&cfg.Session, store, pairing.NewEntropyRand(), zl)
	if err != nil {
		zl.Fatal("创建场次服务失败", zap.Error(err))
	}
	service.SetArchiver(archiver)
	if err := service.Start(); err != nil {
		zl.Fatal("启动场次服务失败", zap.Error(err))
	}
	defer service.Stop()

	gatewayServer := gateway.NewGateway(cfg, service, zl)
	if err := gatewayServer.Start(); err != nil {
		zl.Fatal("启动网关服务失败", zap.Error(err))
	}

	zl.Info("所有服务已启动",
		zap.Int("port", cfg.Server.Port),
		zap.String("storage", cfg.Storage.Driver),
	)

	// 等待中断信号
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	zl.Info("接收到关闭信号，正在关闭服务器...")

	if err := gatewayServer.Stop(); err != nil {
		zl.Error("关闭网关服务失败", zap.Error(err))
	}

	zl.Info("服务器已安全关闭")
}

// openStorage 按配置的驱动创建场次存储和排名归档
func openStorage(cfg *config.Config, zl *zap.Logger) (match.SessionStore, match.StandingsArchiver, func()) {
	switch cfg.Storage.Driver {
	case config.StorageRedis:
		if err := db.InitRedis(); err != nil {
			zl.Fatal("初始化Redis失败", zap.Error(err))
		}
		store := db.NewRedisSessionStore(db.RedisClient, cfg.Storage.KeyPrefix, cfg.Storage.TTL)
		archiver := db.NewRedisStandingsArchiver(db.RedisClient, cfg.Storage.TTL)
		return store, archiver, db.CloseRedis

	case config.StoragePostgres:
		if err := db.InitPostgres(); err != nil {
			zl.Fatal("初始化PostgreSQL失败", zap.Error(err))
		}
		if err := db.InitAllTables(); err != nil {
			db.Close()
			zl.Fatal("初始化数据库表失败", zap.Error(err))
		}
		store := db.NewPostgresSessionStore(db.DB)
		return store, store, db.Close

	default:
		store := db.NewMemorySessionStore()
		return store, store, func() {}
	}
}
