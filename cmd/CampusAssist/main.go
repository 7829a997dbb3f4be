package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	https_server "CampusAssist/api/http"
	"CampusAssist/internal/config"
	"CampusAssist/pkg/redis"
	"CampusAssist/pkg/zlog"
)

func main() {
	// 1. 加载配置
	conf := config.GetConfig()
	host := conf.MainConfig.Host
	port := conf.MainConfig.Port

	// 2. 启动重建索引消费者（Kafka 未配置时为 nil）
	consumerCtx, stopConsumer := context.WithCancel(context.Background())
	if https_server.ReindexWorker != nil {
		go func() {
			if err := https_server.ReindexWorker.Run(consumerCtx); err != nil {
				zlog.Error("reindex consumer exited: " + err.Error())
			}
		}()
	}

	// 3. 启动定时任务（日报表聚合、超时会话清理）
	if err := https_server.Scheduler.Start(); err != nil {
		zlog.Fatal("scheduler start failed: " + err.Error())
	}

	// 4. 启动 HTTP 服务
	go func() {
		addr := fmt.Sprintf("%s:%d", host, port)
		zlog.Info(fmt.Sprintf("服务器正在启动，监听地址: %s", addr))
		// 目前使用 HTTP 启动。如果需要 HTTPS，请配置证书并使用 GE.RunTLS
		if err := https_server.GE.Run(addr); err != nil {
			zlog.Fatal("服务器启动失败: " + err.Error())
			return
		}
	}()

	// 5. 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit

	zlog.Info("正在关闭服务器...")
	https_server.Scheduler.Stop()
	stopConsumer()
	if err := redis.Close(); err != nil {
		zlog.Error("redis close failed: " + err.Error())
	}

	zlog.Info("服务器已关闭")
}
