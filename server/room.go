package server

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// command 进入事件循环的请求
type command interface{ isCommand() }

type inboundCmd struct {
	session string
	in      Inbound
}

type leaveCmd struct {
	session string
}

// regenerateCmd 管理接口发起的强制刷新，reply 带回结果
type regenerateCmd struct {
	reply chan Result
}

func (inboundCmd) isCommand()    {}
func (leaveCmd) isCommand()      {}
func (regenerateCmd) isCommand() {}

// Arena 权威世界的事件循环：所有入站消息与道具刷新在同一协程中顺序执行，
// 因此同一连接的消息保持 FIFO，广播顺序与状态变更顺序一致。
type Arena struct {
	router   *Router
	log      *zap.Logger
	metrics  *ArenaMetrics
	interval time.Duration

	inbox   chan command
	stopped chan struct{}
}

// NewArena 创建事件循环（尚未启动）
func NewArena(router *Router, interval time.Duration, inboxSize int, log *zap.Logger, metrics *ArenaMetrics) *Arena {
	return &Arena{
		router:   router,
		log:      log.Named("arena"),
		metrics:  metrics,
		interval: interval,
		inbox:    make(chan command, inboxSize), // 足够缓冲，避免网络读阻塞
		stopped:  make(chan struct{}),
	}
}

// submit 阻塞投递（对发送方形成背压）；循环已退出时返回 false
func (a *Arena) submit(cmd command) bool {
	select {
	case a.inbox <- cmd:
		return true
	case <-a.stopped:
		return false
	}
}

// OnMessage 投递一条已解开信封的入站消息
func (a *Arena) OnMessage(sessionID string, in Inbound) bool {
	return a.submit(inboundCmd{session: sessionID, in: in})
}

// RequestLeave 请求在事件循环中移除玩家
func (a *Arena) RequestLeave(sessionID string) bool {
	return a.submit(leaveCmd{session: sessionID})
}

// ErrArenaStopped 事件循环已退出
var ErrArenaStopped = errors.New("arena stopped")

// ForceRegenerate 在事件循环中强制整批刷新道具，等待完成
func (a *Arena) ForceRegenerate(ctx context.Context) (Result, error) {
	reply := make(chan Result, 1)
	select {
	case a.inbox <- regenerateCmd{reply: reply}:
	case <-a.stopped:
		return Result{}, ErrArenaStopped
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
	select {
	case res := <-reply:
		return res, nil
	case <-a.stopped:
		return Result{}, ErrArenaStopped
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

func (a *Arena) handle(cmd command) {
	switch c := cmd.(type) {
	case inboundCmd:
		a.router.Dispatch(c.session, c.in)
	case leaveCmd:
		a.router.Leave(c.session)
	case regenerateCmd:
		c.reply <- a.router.RegeneratePowerUps()
	}
}
