package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig 配置校验失败
var ErrInvalidConfig = errors.New("invalid config")

// Server 服务端全部配置
type Server struct {
	ListenAddr string `yaml:"listen_addr"`
	StaticDir  string `yaml:"static_dir"`
	Seed       uint64 `yaml:"seed"` // 0 = 随机

	Log      Log      `yaml:"log"`
	Arena    Arena    `yaml:"arena"`
	PowerUps PowerUps `yaml:"powerups"`
	Network  Network  `yaml:"network"`
}

// Log 日志输出（zap + lumberjack 滚动文件）
type Log struct {
	File       string `yaml:"file"`
	Level      string `yaml:"level"`
	Stdout     bool   `yaml:"stdout"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// Arena 场地尺寸与出生规则
type Arena struct {
	Width         float64 `yaml:"width"`
	Height        float64 `yaml:"height"`
	SpawnHeight   float64 `yaml:"spawn_height"`
	PowerUpHeight float64 `yaml:"powerup_height"`
	SpawnSpread   float64 `yaml:"spawn_spread"`
}

// PowerUps 道具刷新
type PowerUps struct {
	BatchSize       int           `yaml:"batch_size"`
	Floor           int           `yaml:"floor"`
	RespawnInterval time.Duration `yaml:"respawn_interval"`
}

// Network 连接层参数
type Network struct {
	InboxSize      int           `yaml:"inbox_size"`
	SendQueueSize  int           `yaml:"send_queue_size"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	PingInterval   time.Duration `yaml:"ping_interval"`
	ReadLimit      int64         `yaml:"read_limit"`
	AllowedOrigins []string      `yaml:"allowed_origins"` // 为空则放行所有来源
}

// Default 返回默认配置
func Default() Server {
	return Server{
		ListenAddr: ":3001",
		StaticDir:  "dist",
		Log: Log{
			File:       "app.log",
			Level:      "debug",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 7,
		},
		Arena: Arena{
			Width:         200,
			Height:        200,
			SpawnHeight:   2,
			PowerUpHeight: 1,
			SpawnSpread:   0.8,
		},
		PowerUps: PowerUps{
			BatchSize:       15,
			Floor:           5,
			RespawnInterval: 10 * time.Second,
		},
		Network: Network{
			InboxSize:     256,
			SendQueueSize: 64,
			WriteTimeout:  5 * time.Second,
			ReadTimeout:   60 * time.Second,
			PingInterval:  25 * time.Second,
			ReadLimit:     1 << 20,
		},
	}
}

// Load 从 YAML 加载；文件不存在时返回默认值
func Load(path string) (Server, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv 环境变量覆盖；PORT 与原先的 Node 服务保持兼容
func (c *Server) ApplyEnv(getenv func(string) string) error {
	if v := getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil || port <= 0 || port > 65535 {
			return fmt.Errorf("%w: PORT=%q", ErrInvalidConfig, v)
		}
		c.ListenAddr = ":" + v
	}
	return nil
}

// Validate 校验取值范围
func (c Server) Validate() error {
	switch {
	case c.ListenAddr == "":
		return fmt.Errorf("%w: listen_addr is empty", ErrInvalidConfig)
	case c.Arena.Width <= 0 || c.Arena.Height <= 0:
		return fmt.Errorf("%w: arena %vx%v", ErrInvalidConfig, c.Arena.Width, c.Arena.Height)
	case c.Arena.SpawnSpread <= 0 || c.Arena.SpawnSpread > 1:
		return fmt.Errorf("%w: spawn_spread %v not in (0,1]", ErrInvalidConfig, c.Arena.SpawnSpread)
	case c.PowerUps.BatchSize <= 0:
		return fmt.Errorf("%w: powerups.batch_size %d", ErrInvalidConfig, c.PowerUps.BatchSize)
	case c.PowerUps.Floor < 0 || c.PowerUps.Floor > c.PowerUps.BatchSize:
		return fmt.Errorf("%w: powerups.floor %d must be within [0,%d]", ErrInvalidConfig, c.PowerUps.Floor, c.PowerUps.BatchSize)
	case c.PowerUps.RespawnInterval <= 0:
		return fmt.Errorf("%w: powerups.respawn_interval %v", ErrInvalidConfig, c.PowerUps.RespawnInterval)
	case c.Network.InboxSize <= 0 || c.Network.SendQueueSize <= 0:
		return fmt.Errorf("%w: network queue sizes must be positive", ErrInvalidConfig)
	case c.Network.WriteTimeout <= 0 || c.Network.ReadTimeout <= 0:
		return fmt.Errorf("%w: network timeouts must be positive", ErrInvalidConfig)
	case c.Network.PingInterval <= 0 || c.Network.PingInterval >= c.Network.ReadTimeout:
		return fmt.Errorf("%w: ping_interval %v must be positive and below read_timeout %v",
			ErrInvalidConfig, c.Network.PingInterval, c.Network.ReadTimeout)
	}
	return nil
}
