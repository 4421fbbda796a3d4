package world

import (
	"iter"
	"sync"
)

// Store 世界状态：玩家表与当前道具批次，是唯一的共享可变数据
//
// 锁顺序：需要同时持有时，先 mu（玩家）后 puMu（道具）。
type Store struct {
	bounds Bounds

	mu      sync.RWMutex
	players map[string]*Player

	puMu       sync.Mutex
	powerUps   []*PowerUp
	powerUpIdx map[string]*PowerUp
	generation uint64
}

// NewStore 创建空的世界状态
func NewStore(bounds Bounds) *Store {
	return &Store{
		bounds:     bounds,
		players:    make(map[string]*Player),
		powerUpIdx: make(map[string]*PowerUp),
	}
}

// Bounds 竞技场尺寸（进程内不可变）
func (s *Store) Bounds() Bounds { return s.bounds }

// UpsertPlayer 插入或整体替换玩家记录
func (s *Store) UpsertPlayer(p Player) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := p
	s.players[p.ID] = &cp
}

// Player 按 id 查询；不存在时 ok=false
func (s *Store) Player(id string) (Player, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.players[id]
	if !ok {
		return Player{}, false
	}
	return *p, true
}

// RemovePlayer 幂等删除，返回被删除的记录
func (s *Store) RemovePlayer(id string) (Player, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.players[id]
	if !ok {
		return Player{}, false
	}
	delete(s.players, id)
	return *p, true
}

// UpdatePlayer 在锁内对单个玩家做读改写，返回修改后的副本
func (s *Store) UpdatePlayer(id string, fn func(p *Player)) (Player, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.players[id]
	if !ok {
		return Player{}, false
	}
	fn(p)
	clampHealth(p)
	return *p, true
}

// SnapshotPlayers 取时间点快照，返回可重复遍历的惰性序列
func (s *Store) SnapshotPlayers() iter.Seq[Player] {
	s.mu.RLock()
	snap := make([]Player, 0, len(s.players))
	for _, p := range s.players {
		snap = append(snap, *p)
	}
	s.mu.RUnlock()

	return func(yield func(Player) bool) {
		for _, p := range snap {
			if !yield(p) {
				return
			}
		}
	}
}

// PlayerCount 当前在线玩家数
func (s *Store) PlayerCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.players)
}

// HitOutcome 一次命中结算的结果
type HitOutcome struct {
	Damage    int
	Health    int // 扣血后的血量（已钳制到 0）
	Score     int // 攻击者累计得分
	Respawned bool
	Target    Player // 结算（以及可能的复活）之后的目标
}

// ApplyHit 原子地结算伤害：目标扣血（下限 0）、攻击者加分；
// 血量恰好归零时用 respawnAt 复活目标。任一方不存在则不做任何修改。
func (s *Store) ApplyHit(targetID, attackerID string, damage int, respawnAt func() Vec3) (HitOutcome, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	target, ok := s.players[targetID]
	if !ok {
		return HitOutcome{}, false
	}
	attacker, ok := s.players[attackerID]
	if !ok {
		return HitOutcome{}, false
	}

	target.Health -= damage
	clampHealth(target)
	attacker.Score += damage

	out := HitOutcome{Damage: damage, Health: target.Health, Score: attacker.Score}
	if target.Health == 0 {
		target.Position = respawnAt()
		target.Health = MaxHealth
		target.Weapon = WeaponNone
		out.Respawned = true
	}
	out.Target = *target
	return out, true
}

func clampHealth(p *Player) {
	if p.Health < 0 {
		p.Health = 0
	}
	if p.Health > MaxHealth {
		p.Health = MaxHealth
	}
}

// ReplacePowerUps 原子地丢弃整个旧批次并装入新批次
func (s *Store) ReplacePowerUps(batch []PowerUp) {
	items := make([]*PowerUp, 0, len(batch))
	idx := make(map[string]*PowerUp, len(batch))
	for _, pu := range batch {
		cp := pu
		items = append(items, &cp)
		idx[cp.ID] = &cp
	}

	s.puMu.Lock()
	defer s.puMu.Unlock()
	s.powerUps = items
	s.powerUpIdx = idx
	s.generation++
}

// Generation 批次代数，每次 ReplacePowerUps 加一
func (s *Store) Generation() uint64 {
	s.puMu.Lock()
	defer s.puMu.Unlock()
	return s.generation
}

// PowerUps 当前批次全部道具（含已拾取）
func (s *Store) PowerUps() []PowerUp {
	s.puMu.Lock()
	defer s.puMu.Unlock()
	out := make([]PowerUp, 0, len(s.powerUps))
	for _, pu := range s.powerUps {
		out = append(out, *pu)
	}
	return out
}

// UncollectedPowerUps 当前批次中未被拾取的道具
func (s *Store) UncollectedPowerUps() []PowerUp {
	s.puMu.Lock()
	defer s.puMu.Unlock()
	out := make([]PowerUp, 0, len(s.powerUps))
	for _, pu := range s.powerUps {
		if !pu.Collected {
			out = append(out, *pu)
		}
	}
	return out
}

// UncollectedCount 未拾取数量
func (s *Store) UncollectedCount() int {
	s.puMu.Lock()
	defer s.puMu.Unlock()
	n := 0
	for _, pu := range s.powerUps {
		if !pu.Collected {
			n++
		}
	}
	return n
}

// FindUncollectedPowerUp 查找仍可拾取的道具
func (s *Store) FindUncollectedPowerUp(id string) (PowerUp, bool) {
	s.puMu.Lock()
	defer s.puMu.Unlock()
	pu, ok := s.powerUpIdx[id]
	if !ok || pu.Collected {
		return PowerUp{}, false
	}
	return *pu, true
}

// MarkCollected test-and-set：只有真正把标记从 false 翻成 true 的调用者拿到 ok=true
func (s *Store) MarkCollected(id string) (PowerUp, bool) {
	s.puMu.Lock()
	defer s.puMu.Unlock()
	return s.markCollectedLocked(id)
}

func (s *Store) markCollectedLocked(id string) (PowerUp, bool) {
	pu, ok := s.powerUpIdx[id]
	if !ok || pu.Collected {
		return PowerUp{}, false
	}
	pu.Collected = true
	return *pu, true
}

// ClaimPowerUp 玩家拾取道具：玩家存在且道具未被拾取时，
// 在同一临界区内标记已拾取并把玩家武器替换为道具类型。
func (s *Store) ClaimPowerUp(playerID, powerUpID string) (Player, PowerUp, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.players[playerID]
	if !ok {
		return Player{}, PowerUp{}, false
	}

	s.puMu.Lock()
	pu, ok := s.markCollectedLocked(powerUpID)
	s.puMu.Unlock()
	if !ok {
		return Player{}, PowerUp{}, false
	}

	p.Weapon = pu.Type
	return *p, pu, true
}

// TakeWeapon 开火时消耗武器：有武器则清空并返回开火瞬间的玩家副本
func (s *Store) TakeWeapon(playerID string) (Player, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.players[playerID]
	if !ok || !p.HasWeapon() {
		return Player{}, false
	}
	before := *p
	p.Weapon = WeaponNone
	return before, true
}
