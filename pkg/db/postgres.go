package db

import (
	"database/sql"
	"fmt"

	"github.com/jacl-coder/ShuttleRotation-Server/config"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

var (
	// DB 全局数据库连接实例
	DB *sql.DB
)

// InitPostgres 初始化PostgreSQL连接
func InitPostgres() error {
	dsn := config.GlobalConfig.Database.GetDSN()
	var err error

	DB, err = sql.Open("postgres", dsn)
	if err != nil {
		return fmt.Errorf("连接数据库失败: %w", err)
	}

	// 测试连接
	if err = DB.Ping(); err != nil {
		return fmt.Errorf("数据库Ping失败: %w", err)
	}

	zap.L().Info("成功连接到PostgreSQL数据库",
		zap.String("host", config.GlobalConfig.Database.Host),
		zap.String("dbname", config.GlobalConfig.Database.DBName))
	return nil
}

// Close 关闭数据库连接
func Close() {
	if DB != nil {
		if err := DB.Close(); err != nil {
			zap.L().Warn("关闭数据库连接时发生错误", zap.Error(err))
			return
		}
		zap.L().Info("数据库连接已关闭")
	}
}
