package server

import (
	"sync"

	"go.uber.org/zap"
)

// Publisher 业务逻辑对外发送消息的能力（广播 / 定向），与具体传输解耦
type Publisher interface {
	SendTo(sessionID string, msg Message)
	Broadcast(msg Message)
	BroadcastExcept(sessionID string, msg Message)
}

// Hub 管理全部在线连接，实现 Publisher
// 入队不阻塞；队列满的连接被视为慢消费者直接断开，避免可靠通道出现空洞
type Hub struct {
	log     *zap.Logger
	metrics *ArenaMetrics

	mu      sync.RWMutex
	clients map[string]*ClientConn
}

// NewHub 创建连接表
func NewHub(log *zap.Logger, metrics *ArenaMetrics) *Hub {
	return &Hub{
		log:     log.Named("hub"),
		metrics: metrics,
		clients: make(map[string]*ClientConn),
	}
}

// Register 登记连接
func (h *Hub) Register(c *ClientConn) {
	h.mu.Lock()
	h.clients[c.ID] = c
	h.mu.Unlock()
	h.metrics.Connections.Add(1)
}

// Unregister 注销连接（幂等）
func (h *Hub) Unregister(id string) {
	h.mu.Lock()
	_, ok := h.clients[id]
	delete(h.clients, id)
	h.mu.Unlock()
	if ok {
		h.metrics.Connections.Add(-1)
	}
}

// Count 当前连接数
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) SendTo(sessionID string, msg Message) {
	h.mu.RLock()
	c, ok := h.clients[sessionID]
	h.mu.RUnlock()
	if !ok {
		return
	}
	h.metrics.Targeted.Add(1)
	b, err := c.codec.Encode(msg)
	if err != nil {
		h.encodeFailed(msg, err)
		return
	}
	h.deliver(c, b)
}

func (h *Hub) Broadcast(msg Message) { h.BroadcastExcept("", msg) }

func (h *Hub) BroadcastExcept(sessionID string, msg Message) {
	h.mu.RLock()
	targets := make([]*ClientConn, 0, len(h.clients))
	for id, c := range h.clients {
		if id != sessionID {
			targets = append(targets, c)
		}
	}
	h.mu.RUnlock()
	h.metrics.Broadcasts.Add(1)

	// 同一编码只编码一次；某种编码失败时其他编码的连接照常投递
	encoded := make(map[string][]byte, 2)
	failed := make(map[string]bool, 2)
	for _, c := range targets {
		name := c.codec.Name()
		if failed[name] {
			continue
		}
		b, ok := encoded[name]
		if !ok {
			var err error
			b, err = c.codec.Encode(msg)
			if err != nil {
				failed[name] = true
				h.encodeFailed(msg, err)
				continue
			}
			encoded[name] = b
		}
		h.deliver(c, b)
	}
}

func (h *Hub) deliver(c *ClientConn, b []byte) {
	if c.Enqueue(b) {
		return
	}
	select {
	case <-c.Done():
		return
	default:
	}
	h.metrics.SlowConsumers.Add(1)
	h.log.Warn("send queue full, dropping slow consumer", zap.String("session", c.ID))
	c.Close()
}

func (h *Hub) encodeFailed(msg Message, err error) {
	h.metrics.EncodeFailures.Add(1)
	h.log.Error("encode outbound message", zap.String("type", msg.Type), zap.Error(err))
}
