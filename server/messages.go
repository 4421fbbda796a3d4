package server

import "kartarena/world"

// 入站消息类型（客户端 → 服务端）
const (
	MsgJoin    = "join"
	MsgMove    = "move"
	MsgFire    = "fire"
	MsgCollect = "collect"
	MsgHit     = "hit"
	// MsgDisconnect 由传输层产生，不会出现在线上
	MsgDisconnect = "disconnect"
)

// 出站消息类型（服务端 → 客户端）
const (
	MsgWorldSnapshot       = "world_snapshot"
	MsgPlayerJoined        = "player_joined"
	MsgPlayerMoved         = "player_moved"
	MsgProjectileFired     = "projectile_fired"
	MsgPowerUpCollected    = "powerup_collected"
	MsgPlayerDamaged       = "player_damaged"
	MsgPlayerRespawned     = "player_respawned"
	MsgPowerUpsRegenerated = "powerups_regenerated"
	MsgPlayerLeft          = "player_left"
)

// Message 出站信封：{"type": ..., "payload": ...}
type Message struct {
	Type    string `json:"type" msgpack:"type"`
	Payload any    `json:"payload" msgpack:"payload"`
}

// 入站载荷
// 示例：{"type":"move","payload":{"position":{...},"rotation":{...},"velocity":{...}}}

type JoinPayload struct {
	Name string `json:"name" msgpack:"name"`
}

type MovePayload struct {
	Position world.Vec3 `json:"position" msgpack:"position"`
	Rotation world.Vec3 `json:"rotation" msgpack:"rotation"`
	Velocity world.Vec3 `json:"velocity" msgpack:"velocity"`
}

type FirePayload struct {
	Direction world.Vec3 `json:"direction" msgpack:"direction"`
}

type CollectPayload struct {
	PowerUpID string `json:"powerUpId" msgpack:"powerUpId"`
}

type HitPayload struct {
	TargetID   string `json:"targetId" msgpack:"targetId"`
	AttackerID string `json:"attackerId,omitempty" msgpack:"attackerId,omitempty"`
	WeaponType string `json:"weaponType" msgpack:"weaponType"`
}

// 出站载荷

type WorldSnapshot struct {
	Players   []world.Player  `json:"players" msgpack:"players"`
	PowerUps  []world.PowerUp `json:"powerUps" msgpack:"powerUps"`
	MapBounds world.Bounds    `json:"mapBounds" msgpack:"mapBounds"`
	PlayerID  string          `json:"playerId" msgpack:"playerId"`
}

type PlayerMoved struct {
	ID       string     `json:"id" msgpack:"id"`
	Position world.Vec3 `json:"position" msgpack:"position"`
	Rotation world.Vec3 `json:"rotation" msgpack:"rotation"`
	Velocity world.Vec3 `json:"velocity" msgpack:"velocity"`
}

type PowerUpCollected struct {
	PowerUpID  string           `json:"powerUpId" msgpack:"powerUpId"`
	PlayerID   string           `json:"playerId" msgpack:"playerId"`
	WeaponType world.WeaponType `json:"weaponType" msgpack:"weaponType"`
}

type PlayerDamaged struct {
	TargetID   string `json:"targetId" msgpack:"targetId"`
	AttackerID string `json:"attackerId" msgpack:"attackerId"`
	Damage     int    `json:"damage" msgpack:"damage"`
	NewHealth  int    `json:"newHealth" msgpack:"newHealth"`
	NewScore   int    `json:"newScore" msgpack:"newScore"`
}

type PlayerRespawned struct {
	PlayerID string     `json:"playerId" msgpack:"playerId"`
	Position world.Vec3 `json:"position" msgpack:"position"`
}

type PlayerLeft struct {
	PlayerID string `json:"playerId" msgpack:"playerId"`
}
