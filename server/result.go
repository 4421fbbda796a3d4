package server

// IgnoreReason 请求被静默丢弃的原因（只用于日志与指标，不会回给客户端）
type IgnoreReason string

const (
	ReasonPlayerNotFound     IgnoreReason = "player_not_found"
	ReasonTargetNotFound     IgnoreReason = "target_not_found"
	ReasonAttackerNotFound   IgnoreReason = "attacker_not_found"
	ReasonNoWeapon           IgnoreReason = "no_weapon"
	ReasonPowerUpUnavailable IgnoreReason = "powerup_unavailable"
	ReasonFloorNotReached    IgnoreReason = "floor_not_reached"
	ReasonBadPayload         IgnoreReason = "bad_payload"
	ReasonUnknownType        IgnoreReason = "unknown_type"
)

var ignoreReasons = []IgnoreReason{
	ReasonPlayerNotFound,
	ReasonTargetNotFound,
	ReasonAttackerNotFound,
	ReasonNoWeapon,
	ReasonPowerUpUnavailable,
	ReasonFloorNotReached,
	ReasonBadPayload,
	ReasonUnknownType,
}

// Result 每个操作的处理结果：Applied，或 Ignored(reason)
type Result struct {
	Applied bool
	Reason  IgnoreReason
}

func applied() Result { return Result{Applied: true} }
func ignored(reason IgnoreReason) Result { return Result{Reason: reason} }

func (r Result) String() string {
	if r.Applied {
		return "applied"
	}
	return "ignored(" + string(r.Reason) + ")"
}
