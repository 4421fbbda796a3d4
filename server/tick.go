package server

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// DefaultRespawnInterval 道具检查周期
const DefaultRespawnInterval = 10 * time.Second

// Run 启动事件循环，阻塞直到 ctx 取消
// 核心循环：处理入站命令；定时器到点时检查道具是否需要整批刷新
func (a *Arena) Run(ctx context.Context) error {
	defer close(a.stopped)

	interval := a.interval
	if interval <= 0 {
		interval = DefaultRespawnInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	a.log.Info("arena loop started", zap.Duration("respawn_interval", interval))
	for {
		select {
		case <-ctx.Done():
			a.log.Info("arena loop stopping")
			return nil
		case cmd := <-a.inbox:
			start := time.Now()
			a.handle(cmd)
			a.metrics.AddLoop(time.Since(start).Nanoseconds())
		case <-ticker.C:
			a.router.CheckPowerUps()
		}
	}
}
