package main

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/habitlog/internal/config"
	"github.com/habitlog/internal/db"
	"github.com/habitlog/internal/engine"
	"github.com/habitlog/internal/handler"
	"github.com/habitlog/internal/router"
	"github.com/habitlog/internal/store"
)

func main() {
	cfg := config.Load()
	gin.SetMode(cfg.GinMode)

	// 初始化数据库
	if err := db.Init(cfg.DatabasePath); err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}

	if err := db.EnsureUser(cfg.AdminUsername, cfg.AdminPassword); err != nil {
		log.Fatalf("failed to ensure admin user: %v", err)
	}

	// 构造引擎：KV 存储注入，打卡事件交给游戏化层消费
	eng := engine.New(store.NewKV(db.DB))
	if cfg.RetentionDays > 0 {
		eng.SetRetentionDays(cfg.RetentionDays)
	}
	eng.SetEventSink(engine.SinkFunc(func(event engine.CompletionEvent) {
		log.Printf("habit completed: habit=%s xp=%d at=%s",
			event.HabitID, event.XPReward, event.Timestamp.Format("2006-01-02 15:04:05"))
	}))

	// 设置并运行 Gin 服务器
	r := router.SetupRouter(handler.NewAPI(eng), cfg.SessionSecret)
	if err := r.Run(cfg.ListenAddr); err != nil {
		log.Fatalf("failed to run server: %v", err)
	}
}
