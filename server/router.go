package server

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"go.uber.org/zap"

	"kartarena/world"
)

var errNonFinite = errors.New("non-finite vector component")

// SpawnPolicy 出生点与道具批次的生成能力
type SpawnPolicy interface {
	RandomSpawnPosition() world.Vec3
	GeneratePowerUpBatch(count int) []world.PowerUp
}

// RouterOptions 构造 Router 的依赖
type RouterOptions struct {
	Store     *world.Store
	Spawn     SpawnPolicy
	Publisher Publisher
	Log       *zap.Logger
	Metrics   *ArenaMetrics
	Now       func() time.Time // 为空时取 time.Now

	BatchSize int // 每批道具数
	Floor     int // 未拾取数低于该值时整批刷新
}

// Router 校验并执行入站消息，产生广播
//
// 所有世界数据的读写都经过 Store 的原子操作，Router 本身可并发调用；
// 正常运行时由 Arena 的事件循环串行驱动。
type Router struct {
	store   *world.Store
	spawn   SpawnPolicy
	pub     Publisher
	log     *zap.Logger
	metrics *ArenaMetrics
	now     func() time.Time

	batchSize int
	floor     int
}

// NewRouter 创建事件路由
func NewRouter(opts RouterOptions) *Router {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}
	if opts.Metrics == nil {
		opts.Metrics = NewArenaMetrics()
	}
	return &Router{
		store:     opts.Store,
		spawn:     opts.Spawn,
		pub:       opts.Publisher,
		log:       opts.Log.Named("router"),
		metrics:   opts.Metrics,
		now:       opts.Now,
		batchSize: opts.BatchSize,
		floor:     opts.Floor,
	}
}

// Dispatch 解码并处理一条入站消息
func (r *Router) Dispatch(sessionID string, in Inbound) Result {
	switch in.Type {
	case MsgJoin:
		var name string
		if in.HasPayload() {
			n, err := decodeStringOr(in, func(p *JoinPayload) string { return p.Name })
			if err != nil {
				return r.badPayload(sessionID, in, err)
			}
			name = n
		}
		return r.Join(sessionID, name)
	case MsgMove:
		var p MovePayload
		if err := in.Decode(&p); err != nil {
			return r.badPayload(sessionID, in, err)
		}
		if !p.Position.Finite() || !p.Rotation.Finite() || !p.Velocity.Finite() {
			return r.badPayload(sessionID, in, errNonFinite)
		}
		return r.Move(sessionID, p)
	case MsgFire:
		var p FirePayload
		if err := in.Decode(&p); err != nil {
			return r.badPayload(sessionID, in, err)
		}
		if !p.Direction.Finite() {
			return r.badPayload(sessionID, in, errNonFinite)
		}
		return r.Fire(sessionID, p.Direction)
	case MsgCollect:
		id, err := decodeStringOr(in, func(p *CollectPayload) string { return p.PowerUpID })
		if err != nil {
			return r.badPayload(sessionID, in, err)
		}
		return r.Collect(sessionID, id)
	case MsgHit:
		var p HitPayload
		if err := in.Decode(&p); err != nil {
			return r.badPayload(sessionID, in, err)
		}
		return r.Hit(sessionID, p)
	default:
		res := ignored(ReasonUnknownType)
		r.log.Debug("unknown message type", zap.String("session", sessionID), zap.String("type", in.Type))
		r.metrics.Record(in.Type, res)
		return res
	}
}

// decodeStringOr 载荷既可以是对象，也可以是裸字符串（兼容 socket.io 客户端）
func decodeStringOr[T any](in Inbound, field func(*T) string) (string, error) {
	var obj T
	objErr := in.Decode(&obj)
	if objErr == nil {
		return field(&obj), nil
	}
	var s string
	if err := in.Decode(&s); err == nil {
		return s, nil
	}
	return "", objErr
}

func (r *Router) badPayload(sessionID string, in Inbound, err error) Result {
	res := ignored(ReasonBadPayload)
	r.log.Debug("bad payload", zap.String("session", sessionID), zap.String("type", in.Type), zap.Error(err))
	r.metrics.Record(in.Type, res)
	return res
}

func (r *Router) done(kind, sessionID string, res Result) Result {
	r.metrics.Record(kind, res)
	if !res.Applied {
		r.log.Debug("request ignored",
			zap.String("type", kind),
			zap.String("session", sessionID),
			zap.String("reason", string(res.Reason)))
	}
	return res
}

func (r *Router) nowMs() int64 { return r.now().UnixMilli() }

// Join 新玩家加入：落库、给本人发完整快照、再通知其他人
func (r *Router) Join(sessionID, requestedName string) Result {
	name := requestedName
	if name == "" {
		name = fallbackName(sessionID)
	}
	p := world.Player{
		ID:         sessionID,
		Name:       name,
		Position:   r.spawn.RandomSpawnPosition(),
		Health:     world.MaxHealth,
		LastUpdate: r.nowMs(),
	}
	r.store.UpsertPlayer(p)

	r.pub.SendTo(sessionID, Message{Type: MsgWorldSnapshot, Payload: r.snapshotFor(sessionID)})
	r.pub.BroadcastExcept(sessionID, Message{Type: MsgPlayerJoined, Payload: p})

	r.log.Info("player joined", zap.String("session", sessionID), zap.String("name", name))
	return r.done(MsgJoin, sessionID, applied())
}

func fallbackName(sessionID string) string {
	short := sessionID
	if len(short) > 6 {
		short = short[:6]
	}
	return "Player_" + short
}

func (r *Router) snapshotFor(sessionID string) WorldSnapshot {
	players := slices.Collect(r.store.SnapshotPlayers())
	slices.SortFunc(players, func(a, b world.Player) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
	return WorldSnapshot{
		Players:   players,
		PowerUps:  r.store.UncollectedPowerUps(),
		MapBounds: r.store.Bounds(),
		PlayerID:  sessionID,
	}
}

// Leave 断开连接：玩家不在时不做任何事（重复断开信号）
func (r *Router) Leave(sessionID string) Result {
	p, ok := r.store.RemovePlayer(sessionID)
	if !ok {
		return r.done(MsgDisconnect, sessionID, ignored(ReasonPlayerNotFound))
	}
	r.pub.BroadcastExcept(sessionID, Message{Type: MsgPlayerLeft, Payload: PlayerLeft{PlayerID: sessionID}})
	r.log.Info("player left", zap.String("session", sessionID), zap.String("name", p.Name))
	return r.done(MsgDisconnect, sessionID, applied())
}

// Move 覆盖位置 / 旋转 / 速度，不做物理合理性校验
func (r *Router) Move(sessionID string, m MovePayload) Result {
	now := r.nowMs()
	p, ok := r.store.UpdatePlayer(sessionID, func(p *world.Player) {
		p.Position = m.Position
		p.Rotation = m.Rotation
		p.Velocity = m.Velocity
		p.LastUpdate = now
	})
	if !ok {
		return r.done(MsgMove, sessionID, ignored(ReasonPlayerNotFound))
	}
	r.pub.BroadcastExcept(sessionID, Message{Type: MsgPlayerMoved, Payload: PlayerMoved{
		ID:       p.ID,
		Position: p.Position,
		Rotation: p.Rotation,
		Velocity: p.Velocity,
	}})
	return r.done(MsgMove, sessionID, applied())
}

// Fire 持有武器才能开火；武器随之被消耗
func (r *Router) Fire(sessionID string, direction world.Vec3) Result {
	if _, ok := r.store.Player(sessionID); !ok {
		return r.done(MsgFire, sessionID, ignored(ReasonPlayerNotFound))
	}
	shooter, ok := r.store.TakeWeapon(sessionID)
	if !ok {
		return r.done(MsgFire, sessionID, ignored(ReasonNoWeapon))
	}
	ts := r.nowMs()
	proj := world.Projectile{
		ID:        fmt.Sprintf("projectile_%d_%s", ts, sessionID),
		Type:      shooter.Weapon,
		Position:  shooter.Position,
		Direction: direction,
		OwnerID:   sessionID,
		Timestamp: ts,
	}
	r.pub.Broadcast(Message{Type: MsgProjectileFired, Payload: proj})
	return r.done(MsgFire, sessionID, applied())
}

// Collect 拾取道具：先到先得，失败者静默丢弃
func (r *Router) Collect(sessionID, powerUpID string) Result {
	if _, ok := r.store.Player(sessionID); !ok {
		return r.done(MsgCollect, sessionID, ignored(ReasonPlayerNotFound))
	}
	_, pu, ok := r.store.ClaimPowerUp(sessionID, powerUpID)
	if !ok {
		return r.done(MsgCollect, sessionID, ignored(ReasonPowerUpUnavailable))
	}
	r.pub.Broadcast(Message{Type: MsgPowerUpCollected, Payload: PowerUpCollected{
		PowerUpID:  pu.ID,
		PlayerID:   sessionID,
		WeaponType: pu.Type,
	}})
	return r.done(MsgCollect, sessionID, applied())
}

// Hit 客户端上报命中；attackerId 为空时视为上报者本人
func (r *Router) Hit(sessionID string, h HitPayload) Result {
	attackerID := h.AttackerID
	if attackerID == "" {
		attackerID = sessionID
	}
	if _, ok := r.store.Player(h.TargetID); !ok {
		return r.done(MsgHit, sessionID, ignored(ReasonTargetNotFound))
	}
	damage := world.DamageFor(h.WeaponType)
	out, ok := r.store.ApplyHit(h.TargetID, attackerID, damage, r.spawn.RandomSpawnPosition)
	if !ok {
		// 目标刚检查过存在，失败只可能是攻击者缺失（或目标恰好离开）
		if _, exists := r.store.Player(h.TargetID); !exists {
			return r.done(MsgHit, sessionID, ignored(ReasonTargetNotFound))
		}
		return r.done(MsgHit, sessionID, ignored(ReasonAttackerNotFound))
	}

	r.pub.Broadcast(Message{Type: MsgPlayerDamaged, Payload: PlayerDamaged{
		TargetID:   h.TargetID,
		AttackerID: attackerID,
		Damage:     out.Damage,
		NewHealth:  out.Health,
		NewScore:   out.Score,
	}})
	if out.Respawned {
		r.pub.Broadcast(Message{Type: MsgPlayerRespawned, Payload: PlayerRespawned{
			PlayerID: h.TargetID,
			Position: out.Target.Position,
		}})
		r.log.Info("player respawned",
			zap.String("target", h.TargetID),
			zap.String("attacker", attackerID))
	}
	return r.done(MsgHit, sessionID, applied())
}
