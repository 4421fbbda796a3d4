package server

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"kartarena/config"
	"kartarena/world"
)

// Admin 管理与监控接口
type Admin struct {
	cfg     config.Server
	store   *world.Store
	arena   *Arena
	hub     *Hub
	metrics *ArenaMetrics
	log     *zap.Logger
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// HandleConfig 返回当前生效的配置
// GET /admin/config
func (a *Admin) HandleConfig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"listen_addr": a.cfg.ListenAddr,
		"arena": map[string]any{
			"width":  a.cfg.Arena.Width,
			"height": a.cfg.Arena.Height,
		},
		"powerups": map[string]any{
			"batch_size":       a.cfg.PowerUps.BatchSize,
			"floor":            a.cfg.PowerUps.Floor,
			"respawn_interval": a.cfg.PowerUps.RespawnInterval.String(),
		},
		"network": map[string]any{
			"send_queue_size": a.cfg.Network.SendQueueSize,
			"write_timeout":   a.cfg.Network.WriteTimeout.String(),
			"read_timeout":    a.cfg.Network.ReadTimeout.String(),
			"ping_interval":   a.cfg.Network.PingInterval.String(),
		},
	})
}

// HandleState 世界概况
// GET /admin/state
func (a *Admin) HandleState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"players":              a.store.PlayerCount(),
		"connections":          a.hub.Count(),
		"powerups":             len(a.store.PowerUps()),
		"powerups_uncollected": a.store.UncollectedCount(),
		"generation":           a.store.Generation(),
	})
}

// HandleRegenerate 强制整批刷新道具
// POST /admin/powerups/regenerate
func (a *Admin) HandleRegenerate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	res, err := a.arena.ForceRegenerate(r.Context())
	if err != nil {
		http.Error(w, "arena unavailable", http.StatusServiceUnavailable)
		return
	}
	a.log.Info("power-ups regenerated by admin", zap.String("remote", r.RemoteAddr))
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":         res.Applied,
		"generation": a.store.Generation(),
	})
}

// HandleMetrics 输出运行指标
// GET /metrics
func (a *Admin) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"generation": a.store.Generation(),
		"metrics":    a.metrics.Snapshot(),
	})
}
