package server

import (
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"kartarena/config"
)

// ClientConn 负责发送（写）数据到客户端的轻量包装
type ClientConn struct {
	ID    string
	codec Codec
	ws    *websocket.Conn

	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

// NewClientConn ws 可以为 nil（测试中只读取发送队列）
func NewClientConn(id string, ws *websocket.Conn, codec Codec, queueSize int) *ClientConn {
	return &ClientConn{
		ID:    id,
		codec: codec,
		ws:    ws,
		send:  make(chan []byte, queueSize),
		done:  make(chan struct{}),
	}
}

// Enqueue 将要发送的消息压入队列（非阻塞）；队列满或已关闭时返回 false
func (c *ClientConn) Enqueue(b []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- b:
		return true
	default:
		return false
	}
}

// Done 连接关闭后可读
func (c *ClientConn) Done() <-chan struct{} { return c.done }

// Close 关闭连接（幂等），写协程随之退出
func (c *ClientConn) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		if c.ws != nil {
			_ = c.ws.Close()
		}
	})
}

// writePump 独立协程，负责从 send 队列写出到 WS，并定期发送 ping
func (c *ClientConn) writePump(writeTimeout, pingInterval time.Duration) {
	ping := time.NewTicker(pingInterval)
	defer func() {
		ping.Stop()
		c.Close()
	}()

	for {
		select {
		case <-c.done:
			return
		case msg := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.ws.WriteMessage(c.codec.FrameType(), msg); err != nil {
				return
			}
		case <-ping.C:
			c.ws.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump 读取客户端消息，解开信封后按到达顺序投递给事件循环
func (c *ClientConn) readPump(arena *Arena, net config.Network, log *zap.Logger) {
	c.ws.SetReadLimit(net.ReadLimit)
	c.ws.SetReadDeadline(time.Now().Add(net.ReadTimeout))
	c.ws.SetPongHandler(func(string) error {
		c.ws.SetReadDeadline(time.Now().Add(net.ReadTimeout))
		return nil
	})

	for {
		_, payload, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug("read error", zap.String("session", c.ID), zap.Error(err))
			}
			return
		}
		c.ws.SetReadDeadline(time.Now().Add(net.ReadTimeout))
		in, err := c.codec.DecodeEnvelope(payload)
		if err != nil {
			log.Debug("dropping malformed frame", zap.String("session", c.ID), zap.Error(err))
			continue
		}
		if !arena.OnMessage(c.ID, in) {
			return
		}
	}
}

// WSHandler WebSocket 接入：/ws?codec=json|msgpack
type WSHandler struct {
	arena    *Arena
	hub      *Hub
	net      config.Network
	log      *zap.Logger
	upgrader websocket.Upgrader
}

// NewWSHandler 创建接入处理器
func NewWSHandler(arena *Arena, hub *Hub, net config.Network, log *zap.Logger) *WSHandler {
	h := &WSHandler{
		arena: arena,
		hub:   hub,
		net:   net,
		log:   log.Named("ws"),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

// checkOrigin 未配置白名单时允许所有来源
func (h *WSHandler) checkOrigin(r *http.Request) bool {
	if len(h.net.AllowedOrigins) == 0 {
		return true
	}
	return slices.Contains(h.net.AllowedOrigins, r.Header.Get("Origin"))
}

func (h *WSHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	codec, ok := CodecByName(r.URL.Query().Get("codec"))
	if !ok {
		http.Error(w, "unsupported codec", http.StatusBadRequest)
		return
	}

	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("upgrade error", zap.Error(err))
		return
	}

	client := NewClientConn(uuid.NewString(), ws, codec, h.net.SendQueueSize)
	h.hub.Register(client)
	h.log.Info("client connected",
		zap.String("session", client.ID),
		zap.String("remote", r.RemoteAddr),
		zap.String("codec", codec.Name()))

	go client.writePump(h.net.WriteTimeout, h.net.PingInterval)
	client.readPump(h.arena, h.net, h.log)

	// 读泵退出即视为断开：通知事件循环移除玩家
	h.arena.RequestLeave(client.ID)
	h.hub.Unregister(client.ID)
	client.Close()
	h.log.Info("client disconnected", zap.String("session", client.ID))
}
