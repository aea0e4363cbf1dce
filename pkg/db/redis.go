package db

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/jacl-coder/ShuttleRotation-Server/config"
	"go.uber.org/zap"
)

var (
	// RedisClient 全局Redis客户端实例
	RedisClient *redis.Client
)

// InitRedis 初始化Redis连接
func InitRedis() error {
	redisConfig := config.GlobalConfig.Redis

	RedisClient = redis.NewClient(&redis.Options{
		Addr:     redisConfig.GetRedisAddr(),
		Password: redisConfig.Password,
		DB:       redisConfig.DB,
	})

	// 测试连接
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := RedisClient.Ping(ctx).Result(); err != nil {
		return fmt.Errorf("Redis连接失败: %w", err)
	}

	zap.L().Info("成功连接到Redis服务器", zap.String("addr", redisConfig.GetRedisAddr()))
	return nil
}

// CloseRedis 关闭Redis连接
func CloseRedis() {
	if RedisClient != nil {
		if err := RedisClient.Close(); err != nil {
			zap.L().Warn("关闭Redis连接时发生错误", zap.Error(err))
			return
		}
		zap.L().Info("Redis连接已关闭")
	}
}
