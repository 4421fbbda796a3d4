package world

import "math"

// Vec3 三维向量（位置、欧拉角旋转、速度、方向共用）
type Vec3 struct {
	X float64 `json:"x" msgpack:"x"`
	Y float64 `json:"y" msgpack:"y"`
	Z float64 `json:"z" msgpack:"z"`
}

func finite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }

// Finite 三个分量都不是 NaN / ±Inf（JSON 无法表示这些值）
func (v Vec3) Finite() bool {
	return finite(v.X) && finite(v.Y) && finite(v.Z)
}

// WeaponType 道具 / 武器种类，固定的八种
type WeaponType string

const (
	WeaponRocket     WeaponType = "rocket"
	WeaponMine       WeaponType = "mine"
	WeaponShield     WeaponType = "shield"
	WeaponSpeedBoost WeaponType = "speed_boost"
	WeaponLaser      WeaponType = "laser"
	WeaponFreeze     WeaponType = "freeze"
	WeaponTripleShot WeaponType = "triple_shot"
	WeaponTeleport   WeaponType = "teleport"

	// WeaponNone 表示未持有武器
	WeaponNone WeaponType = ""
)

// WeaponTypes 全部可生成的武器种类（顺序固定）
var WeaponTypes = [...]WeaponType{
	WeaponRocket,
	WeaponMine,
	WeaponShield,
	WeaponSpeedBoost,
	WeaponLaser,
	WeaponFreeze,
	WeaponTripleShot,
	WeaponTeleport,
}

// Valid 是否属于固定枚举
func (w WeaponType) Valid() bool {
	for _, t := range WeaponTypes {
		if t == w {
			return true
		}
	}
	return false
}

const (
	MaxHealth    = 100
	RocketDamage = 25
	BaseDamage   = 15
)

// DamageFor 伤害只分两档：rocket 25，其它一律 15
func DamageFor(weapon string) int {
	if WeaponType(weapon) == WeaponRocket {
		return RocketDamage
	}
	return BaseDamage
}

// Bounds 竞技场尺寸（以原点为中心的矩形）
type Bounds struct {
	Width  float64 `json:"width" msgpack:"width"`
	Height float64 `json:"height" msgpack:"height"`
}

// Player 服务端权威的玩家记录
type Player struct {
	ID         string     `json:"id" msgpack:"id"`
	Name       string     `json:"name" msgpack:"name"`
	Position   Vec3       `json:"position" msgpack:"position"`
	Rotation   Vec3       `json:"rotation" msgpack:"rotation"`
	Velocity   Vec3       `json:"velocity" msgpack:"velocity"`
	Health     int        `json:"health" msgpack:"health"`
	Score      int        `json:"score" msgpack:"score"`
	Weapon     WeaponType `json:"weapon,omitempty" msgpack:"weapon,omitempty"`
	LastUpdate int64      `json:"lastUpdate" msgpack:"lastUpdate"` // unix ms
}

// HasWeapon 当前是否持有武器
func (p Player) HasWeapon() bool { return p.Weapon != WeaponNone }

// PowerUp 场景中可拾取的道具
type PowerUp struct {
	ID        string     `json:"id" msgpack:"id"`
	Type      WeaponType `json:"type" msgpack:"type"`
	Position  Vec3       `json:"position" msgpack:"position"`
	Collected bool       `json:"collected" msgpack:"collected"`
}

// Projectile 开火事件，只广播不在服务端模拟
type Projectile struct {
	ID        string     `json:"id" msgpack:"id"`
	Type      WeaponType `json:"type" msgpack:"type"`
	Position  Vec3       `json:"position" msgpack:"position"`
	Direction Vec3       `json:"direction" msgpack:"direction"`
	OwnerID   string     `json:"ownerId" msgpack:"ownerId"`
	Timestamp int64      `json:"timestamp" msgpack:"timestamp"` // unix ms
}
