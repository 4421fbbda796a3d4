package server

import (
	"sync/atomic"
)

var inboundKinds = []string{MsgJoin, MsgMove, MsgFire, MsgCollect, MsgHit, MsgDisconnect, "regenerate"}

// ArenaMetrics 记录运行期的关键指标（用于监控与调试）
// 各个 map 在构造后只读，计数本身是原子的
type ArenaMetrics struct {
	applied map[string]*atomic.Int64       // 按消息类型统计被执行的请求
	ignored map[string]*atomic.Int64       // 按消息类型统计被静默丢弃的请求
	reasons map[IgnoreReason]*atomic.Int64 // 丢弃原因

	Broadcasts     atomic.Int64 // 广播次数
	Targeted       atomic.Int64 // 单发消息次数
	Regenerations  atomic.Int64 // 道具整批刷新次数
	SlowConsumers  atomic.Int64 // 因发送队列满被断开的连接数
	EncodeFailures atomic.Int64 // 编码失败
	Connections    atomic.Int64 // 当前连接数
	LoopCount      atomic.Int64 // 事件循环处理的命令数
	TotalLoopNs    atomic.Int64 // 事件循环累计耗时（纳秒）
}

// NewArenaMetrics 预先建好全部计数器
func NewArenaMetrics() *ArenaMetrics {
	m := &ArenaMetrics{
		applied: make(map[string]*atomic.Int64, len(inboundKinds)),
		ignored: make(map[string]*atomic.Int64, len(inboundKinds)),
		reasons: make(map[IgnoreReason]*atomic.Int64, len(ignoreReasons)),
	}
	for _, k := range inboundKinds {
		m.applied[k] = new(atomic.Int64)
		m.ignored[k] = new(atomic.Int64)
	}
	for _, r := range ignoreReasons {
		m.reasons[r] = new(atomic.Int64)
	}
	return m
}

// Record 记录一次处理结果；未知类型归入 unknown_type
func (m *ArenaMetrics) Record(kind string, res Result) {
	if m == nil {
		return
	}
	if res.Applied {
		if c, ok := m.applied[kind]; ok {
			c.Add(1)
		}
		return
	}
	if c, ok := m.ignored[kind]; ok {
		c.Add(1)
	}
	if c, ok := m.reasons[res.Reason]; ok {
		c.Add(1)
	}
}

// Applied 某类消息被执行的次数
func (m *ArenaMetrics) Applied(kind string) int64 {
	if c, ok := m.applied[kind]; ok {
		return c.Load()
	}
	return 0
}

// Ignored 某个原因的丢弃次数
func (m *ArenaMetrics) Ignored(reason IgnoreReason) int64 {
	if c, ok := m.reasons[reason]; ok {
		return c.Load()
	}
	return 0
}

func (m *ArenaMetrics) AddLoop(ns int64) {
	m.LoopCount.Add(1)
	m.TotalLoopNs.Add(ns)
}

// Snapshot 返回只读副本，便于 HTTP 输出
func (m *ArenaMetrics) Snapshot() map[string]any {
	loops := m.LoopCount.Load()
	total := m.TotalLoopNs.Load()
	var avgMs float64
	if loops > 0 {
		avgMs = float64(total) / float64(loops) / 1e6
	}
	appliedByKind := make(map[string]int64, len(m.applied))
	for k, c := range m.applied {
		appliedByKind[k] = c.Load()
	}
	ignoredByKind := make(map[string]int64, len(m.ignored))
	for k, c := range m.ignored {
		ignoredByKind[k] = c.Load()
	}
	byReason := make(map[string]int64, len(m.reasons))
	for r, c := range m.reasons {
		byReason[string(r)] = c.Load()
	}
	return map[string]any{
		"applied":         appliedByKind,
		"ignored":         ignoredByKind,
		"ignore_reasons":  byReason,
		"broadcasts":      m.Broadcasts.Load(),
		"targeted":        m.Targeted.Load(),
		"regenerations":   m.Regenerations.Load(),
		"slow_consumers":  m.SlowConsumers.Load(),
		"encode_failures": m.EncodeFailures.Load(),
		"connections":     m.Connections.Load(),
		"loop_count":      loops,
		"avg_loop_ms":     avgMs,
	}
}
