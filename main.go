package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"kartarena/config"
	"kartarena/server"
)

const defaultConfigPath = "config/server.yaml"

// kartarena 入口：加载配置，启动 HTTP + WebSocket 服务与世界事件循环
func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "kartarena:", err)
		os.Exit(1)
	}
}

func run() error {
	var configPath, addr string
	flag.StringVar(&configPath, "config", defaultConfigPath, "path to YAML config")
	flag.StringVar(&addr, "addr", "", "server listen address, e.g. :3001 (overrides config)")
	flag.Parse()
	if p := os.Getenv("KARTARENA_CONFIG"); p != "" {
		configPath = p
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		return err
	}
	if addr != "" {
		cfg.ListenAddr = addr
	}

	// 使用 zap 日志写入文件（带滚动）
	log, err := server.NewLogger(cfg.Log)
	if err != nil {
		return err
	}
	defer server.SyncLogger(log)

	srv := server.New(cfg, log)
	httpSrv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// 优雅退出（Ctrl+C）
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(gctx)
	})
	g.Go(func() error {
		log.Info("kartarena listening", zap.String("addr", cfg.ListenAddr))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
