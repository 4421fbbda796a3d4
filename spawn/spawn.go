// Package spawn 出生点与道具批次的随机生成
package spawn

import (
	"fmt"
	"math/rand/v2"
	"sync"

	"kartarena/world"
)

const (
	// DefaultBatchSize 每批道具数量
	DefaultBatchSize = 15
	// DefaultSpawnSpread 出生点只落在半幅的 80% 内
	DefaultSpawnSpread = 0.8
	DefaultSpawnHeight = 2
	DefaultItemHeight  = 1
)

// Config 生成参数
type Config struct {
	Bounds      world.Bounds
	SpawnSpread float64
	SpawnHeight float64
	ItemHeight  float64
	Seed        uint64 // 0 表示使用随机种子
}

// Policy 生成器；rand.Rand 本身不是并发安全的，内部加锁
type Policy struct {
	cfg Config

	mu         sync.Mutex
	rng        *rand.Rand
	generation uint64
}

// New 创建生成器
func New(cfg Config) *Policy {
	if cfg.SpawnSpread <= 0 {
		cfg.SpawnSpread = DefaultSpawnSpread
	}
	var src rand.Source
	if cfg.Seed != 0 {
		src = rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15)
	} else {
		src = rand.NewPCG(rand.Uint64(), rand.Uint64())
	}
	return &Policy{cfg: cfg, rng: rand.New(src)}
}

// centered 返回 [-extent/2, extent/2) 内的随机值
func (p *Policy) centered(extent float64) float64 {
	return (p.rng.Float64() - 0.5) * extent
}

// RandomSpawnPosition 随机出生点，固定高度
func (p *Policy) RandomSpawnPosition() world.Vec3 {
	p.mu.Lock()
	defer p.mu.Unlock()
	b := p.cfg.Bounds
	return world.Vec3{
		X: p.centered(b.Width * p.cfg.SpawnSpread),
		Y: p.cfg.SpawnHeight,
		Z: p.centered(b.Height * p.cfg.SpawnSpread),
	}
}

// GeneratePowerUpBatch 生成一整批新道具；id 带代数前缀，跨批次不重复
func (p *Policy) GeneratePowerUpBatch(count int) []world.PowerUp {
	if count <= 0 {
		count = DefaultBatchSize
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.generation++
	b := p.cfg.Bounds
	batch := make([]world.PowerUp, 0, count)
	for i := 0; i < count; i++ {
		batch = append(batch, world.PowerUp{
			ID:   fmt.Sprintf("powerup_%d_%d", p.generation, i),
			Type: world.WeaponTypes[p.rng.IntN(len(world.WeaponTypes))],
			Position: world.Vec3{
				X: p.centered(b.Width),
				Y: p.cfg.ItemHeight,
				Z: p.centered(b.Height),
			},
		})
	}
	return batch
}
