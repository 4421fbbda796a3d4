package server

import "go.uber.org/zap"

const regenerateKind = "regenerate"

// SeedPowerUps 启动时放置第一批道具（此时没有连接，不广播）
func (r *Router) SeedPowerUps() {
	r.store.ReplacePowerUps(r.spawn.GeneratePowerUpBatch(r.batchSize))
}

// CheckPowerUps 定时检查：未拾取数低于下限时整批替换并广播。
// 不做单个道具的补刷，旧批次的 id 全部作废。
func (r *Router) CheckPowerUps() Result {
	remaining := r.store.UncollectedCount()
	if remaining >= r.floor {
		r.metrics.Record(regenerateKind, ignored(ReasonFloorNotReached))
		return ignored(ReasonFloorNotReached)
	}
	r.regenerate(remaining)
	return r.done(regenerateKind, "", applied())
}

// RegeneratePowerUps 无条件整批刷新（管理接口使用）
func (r *Router) RegeneratePowerUps() Result {
	r.regenerate(r.store.UncollectedCount())
	return r.done(regenerateKind, "", applied())
}

func (r *Router) regenerate(remaining int) {
	batch := r.spawn.GeneratePowerUpBatch(r.batchSize)
	r.store.ReplacePowerUps(batch)
	r.metrics.Regenerations.Add(1)
	r.pub.Broadcast(Message{Type: MsgPowerUpsRegenerated, Payload: batch})
	r.log.Info("power-ups regenerated",
		zap.Int("remaining", remaining),
		zap.Int("count", len(batch)),
		zap.Uint64("generation", r.store.Generation()))
}
