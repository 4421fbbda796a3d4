package server

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"kartarena/spawn"
	"kartarena/world"
)

// published 一条被捕获的出站消息
type published struct {
	scope  string // "to" | "all" | "except"
	target string // to: 接收者；except: 被排除者
	msg    Message
}

// capturePublisher 记录所有出站消息，代替真实连接
type capturePublisher struct {
	mu   sync.Mutex
	msgs []published
}

func (c *capturePublisher) add(p published) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msgs = append(c.msgs, p)
}

func (c *capturePublisher) SendTo(id string, msg Message) {
	c.add(published{scope: "to", target: id, msg: msg})
}

func (c *capturePublisher) Broadcast(msg Message) {
	c.add(published{scope: "all", msg: msg})
}

func (c *capturePublisher) BroadcastExcept(id string, msg Message) {
	c.add(published{scope: "except", target: id, msg: msg})
}

func (c *capturePublisher) all() []published {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]published(nil), c.msgs...)
}

func (c *capturePublisher) ofType(typ string) []published {
	var out []published
	for _, p := range c.all() {
		if p.msg.Type == typ {
			out = append(out, p)
		}
	}
	return out
}

func (c *capturePublisher) types() []string {
	var out []string
	for _, p := range c.all() {
		out = append(out, p.msg.Type)
	}
	return out
}

func (c *capturePublisher) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msgs = nil
}

var testBounds = world.Bounds{Width: 200, Height: 200}

type routerFixture struct {
	router  *Router
	store   *world.Store
	pub     *capturePublisher
	metrics *ArenaMetrics
	now     time.Time
}

func newRouterFixture(t *testing.T) *routerFixture {
	t.Helper()
	f := &routerFixture{
		store:   world.NewStore(testBounds),
		pub:     &capturePublisher{},
		metrics: NewArenaMetrics(),
		now:     time.UnixMilli(1_700_000_000_000),
	}
	f.router = NewRouter(RouterOptions{
		Store: f.store,
		Spawn: spawn.New(spawn.Config{
			Bounds:      testBounds,
			SpawnHeight: spawn.DefaultSpawnHeight,
			ItemHeight:  spawn.DefaultItemHeight,
			Seed:        11,
		}),
		Publisher: f.pub,
		Log:       zaptest.NewLogger(t),
		Metrics:   f.metrics,
		Now:       func() time.Time { return f.now },
		BatchSize: spawn.DefaultBatchSize,
		Floor:     5,
	})
	return f
}

// join 加入并清空捕获，便于后续断言
func (f *routerFixture) join(t *testing.T, ids ...string) {
	t.Helper()
	for _, id := range ids {
		require.True(t, f.router.Join(id, "").Applied)
	}
	f.pub.reset()
}

func (f *routerFixture) inbound(t *testing.T, raw string) Inbound {
	t.Helper()
	in, err := JSONCodec{}.DecodeEnvelope([]byte(raw))
	require.NoError(t, err)
	return in
}
