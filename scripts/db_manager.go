// db_manager.go

package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/jacl-coder/ShuttleRotation-Server/config"
	"github.com/jacl-coder/ShuttleRotation-Server/pkg/db"
)

func main() {
	// 解析命令行参数
	configPath := flag.String("config", "config/config.yaml", "配置文件路径")
	action := flag.String("action", "help", "操作类型: reset, init, flush-redis, help")
	flag.Parse()

	// 显示帮助信息
	if *action == "help" {
		showHelp()
		return
	}

	// 加载配置
	if err := config.LoadConfig(*configPath); err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	// 执行操作
	switch *action {
	case "reset":
		withPostgres(resetDatabase)
	case "init":
		withPostgres(initDatabase)
	case "flush-redis":
		flushRedis()
	default:
		log.Fatalf("未知操作: %s", *action)
	}
}

// showHelp 显示帮助信息
func showHelp() {
	log.Println("ShuttleRotation 存储管理工具")
	log.Println("")
	log.Println("用法:")
	log.Println("  go run scripts/db_manager.go -action=<操作> [-config=<配置文件>]")
	log.Println("")
	log.Println("操作:")
	log.Println("  reset        - 重置数据库（删除场次表和归档表）")
	log.Println("  init         - 初始化数据库（创建表结构）")
	log.Println("  flush-redis  - 删除Redis中的场次和排名归档")
	log.Println("  help         - 显示此帮助信息")
	log.Println("")
	log.Println("示例:")
	log.Println("  go run scripts/db_manager.go -action=reset && go run scripts/db_manager.go -action=init")
}

// withPostgres 打开PostgreSQL连接后执行操作
func withPostgres(fn func()) {
	if err := db.InitPostgres(); err != nil {
		log.Fatalf("初始化PostgreSQL失败: %v", err)
	}
	defer db.Close()
	fn()
}

// resetDatabase 重置数据库
func resetDatabase() {
	log.Println("⚠️  正在重置数据库...")
	log.Println("⚠️  这将删除所有场次和归档数据！")

	if err := db.DropAllTables(); err != nil {
		log.Fatalf("重置数据库失败: %v", err)
	}

	log.Println("✅ 数据库重置完成")
}

// initDatabase 初始化数据库
func initDatabase() {
	log.Println("🚀 正在初始化数据库...")

	if err := db.InitAllTables(); err != nil {
		log.Fatalf("初始化数据库表失败: %v", err)
	}

	log.Println("✅ 数据库初始化完成")
	log.Println("")
	log.Println("📋 已创建的表:")
	log.Println("  - sessions (场次表)")
	log.Println("  - session_results (场次排名归档表)")
}

// flushRedis 删除场次前缀和归档前缀下的所有键
func flushRedis() {
	if err := db.InitRedis(); err != nil {
		log.Fatalf("初始化Redis失败: %v", err)
	}
	defer db.CloseRedis()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	patterns := []string{config.GlobalConfig.Storage.KeyPrefix + "*", "standings:*"}
	deleted := 0
	for _, pattern := range patterns {
		iter := db.RedisClient.Scan(ctx, 0, pattern, 100).Iterator()
		for iter.Next(ctx) {
			if err := db.RedisClient.Del(ctx, iter.Val()).Err(); err != nil {
				log.Fatalf("删除键 %s 失败: %v", iter.Val(), err)
			}
			deleted++
		}
		if err := iter.Err(); err != nil {
			log.Fatalf("扫描键失败: %v", err)
		}
	}

	log.Printf("✅ 已删除 %d 个Redis键", deleted)
}
