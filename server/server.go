package server

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"kartarena/config"
	"kartarena/spawn"
	"kartarena/world"
)

// Server 把世界状态、事件循环、连接表与 HTTP 接口组装在一起
type Server struct {
	cfg     config.Server
	log     *zap.Logger
	store   *world.Store
	hub     *Hub
	router  *Router
	arena   *Arena
	metrics *ArenaMetrics
	admin   *Admin
	ws      *WSHandler
}

// New 按配置组装；第一批道具在此放置
func New(cfg config.Server, log *zap.Logger) *Server {
	metrics := NewArenaMetrics()
	bounds := world.Bounds{Width: cfg.Arena.Width, Height: cfg.Arena.Height}
	store := world.NewStore(bounds)
	policy := spawn.New(spawn.Config{
		Bounds:      bounds,
		SpawnSpread: cfg.Arena.SpawnSpread,
		SpawnHeight: cfg.Arena.SpawnHeight,
		ItemHeight:  cfg.Arena.PowerUpHeight,
		Seed:        cfg.Seed,
	})
	hub := NewHub(log, metrics)
	router := NewRouter(RouterOptions{
		Store:     store,
		Spawn:     policy,
		Publisher: hub,
		Log:       log,
		Metrics:   metrics,
		BatchSize: cfg.PowerUps.BatchSize,
		Floor:     cfg.PowerUps.Floor,
	})
	router.SeedPowerUps()

	arena := NewArena(router, cfg.PowerUps.RespawnInterval, cfg.Network.InboxSize, log, metrics)
	return &Server{
		cfg:     cfg,
		log:     log,
		store:   store,
		hub:     hub,
		router:  router,
		arena:   arena,
		metrics: metrics,
		admin: &Admin{
			cfg:     cfg,
			store:   store,
			arena:   arena,
			hub:     hub,
			metrics: metrics,
			log:     log.Named("admin"),
		},
		ws: NewWSHandler(arena, hub, cfg.Network, log),
	}
}

// Store 世界状态（只读用途：测试与监控）
func (s *Server) Store() *world.Store { return s.store }

// Metrics 运行指标
func (s *Server) Metrics() *ArenaMetrics { return s.metrics }

// Run 运行事件循环，阻塞直到 ctx 取消
func (s *Server) Run(ctx context.Context) error {
	return s.arena.Run(ctx)
}

// Handler HTTP 路由：/ws、管理与监控接口、静态资源
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/ws", s.ws)
	mux.HandleFunc("/admin/config", s.admin.HandleConfig)
	mux.HandleFunc("/admin/state", s.admin.HandleState)
	mux.HandleFunc("/admin/powerups/regenerate", s.admin.HandleRegenerate)
	mux.HandleFunc("/metrics", s.admin.HandleMetrics)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	// 前后端分离：将 / 映射到静态资源目录
	if s.cfg.StaticDir != "" {
		mux.Handle("/", http.FileServer(http.Dir(s.cfg.StaticDir)))
	}
	return mux
}
