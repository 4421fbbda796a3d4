package server

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"kartarena/world"
)

func TestCodecByName(t *testing.T) {
	c, ok := CodecByName("")
	require.True(t, ok)
	assert.Equal(t, "json", c.Name())
	assert.Equal(t, websocket.TextMessage, c.FrameType())

	c, ok = CodecByName("msgpack")
	require.True(t, ok)
	assert.Equal(t, websocket.BinaryMessage, c.FrameType())

	_, ok = CodecByName("xml")
	assert.False(t, ok)
}

func TestJSONEncodeUsesWireFieldNames(t *testing.T) {
	b, err := JSONCodec{}.Encode(Message{Type: MsgPlayerDamaged, Payload: PlayerDamaged{
		TargetID: "t", AttackerID: "a", Damage: 25, NewHealth: 75, NewScore: 25,
	}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"player_damaged","payload":{"targetId":"t","attackerId":"a","damage":25,"newHealth":75,"newScore":25}}`, string(b))
}

func TestJSONPlayerOmitsEmptyWeapon(t *testing.T) {
	b, err := json.Marshal(world.Player{ID: "p", Health: 100})
	require.NoError(t, err)
	assert.NotContains(t, string(b), "weapon")

	b, err = json.Marshal(world.Player{ID: "p", Weapon: world.WeaponMine})
	require.NoError(t, err)
	assert.Contains(t, string(b), `"weapon":"mine"`)
}

func TestEncodeRequiresType(t *testing.T) {
	_, err := JSONCodec{}.Encode(Message{Payload: 1})
	assert.Error(t, err)
	_, err = MsgpackCodec{}.Encode(Message{Payload: 1})
	assert.Error(t, err)
}

func TestJSONDecodeEnvelope(t *testing.T) {
	in, err := JSONCodec{}.DecodeEnvelope([]byte(`{"type":"fire","payload":{"direction":{"x":1,"y":0,"z":0}}}`))
	require.NoError(t, err)
	assert.Equal(t, MsgFire, in.Type)

	var p FirePayload
	require.NoError(t, in.Decode(&p))
	assert.Equal(t, world.Vec3{X: 1}, p.Direction)

	in, err = JSONCodec{}.DecodeEnvelope([]byte(`{"type":"join","payload":null}`))
	require.NoError(t, err)
	assert.False(t, in.HasPayload())
	assert.ErrorIs(t, in.Decode(&JoinPayload{}), errEmptyPayload)

	_, err = JSONCodec{}.DecodeEnvelope([]byte(`not json`))
	assert.Error(t, err)
	_, err = JSONCodec{}.DecodeEnvelope(nil)
	assert.ErrorIs(t, err, errEmptyPayload)
}

func TestMsgpackRoundTripsEnvelope(t *testing.T) {
	codec := MsgpackCodec{}
	b, err := codec.Encode(Message{Type: MsgHit, Payload: HitPayload{TargetID: "t", AttackerID: "a", WeaponType: "rocket"}})
	require.NoError(t, err)

	in, err := codec.DecodeEnvelope(b)
	require.NoError(t, err)
	assert.Equal(t, MsgHit, in.Type)

	var p HitPayload
	require.NoError(t, in.Decode(&p))
	assert.Equal(t, HitPayload{TargetID: "t", AttackerID: "a", WeaponType: "rocket"}, p)
}

func TestMsgpackDecodesClientFrames(t *testing.T) {
	// 客户端常把整数坐标编码成 int
	b, err := msgpack.Marshal(map[string]any{
		"type":    "move",
		"payload": map[string]any{"position": map[string]any{"x": 3, "y": 1.5, "z": -2}},
	})
	require.NoError(t, err)

	in, err := MsgpackCodec{}.DecodeEnvelope(b)
	require.NoError(t, err)
	var p MovePayload
	require.NoError(t, in.Decode(&p))
	assert.Equal(t, world.Vec3{X: 3, Y: 1.5, Z: -2}, p.Position)

	b, err = msgpack.Marshal(map[string]any{"type": "join", "payload": nil})
	require.NoError(t, err)
	in, err = MsgpackCodec{}.DecodeEnvelope(b)
	require.NoError(t, err)
	assert.False(t, in.HasPayload())
}

func msgpackInbound(t *testing.T, typ string, payload any) Inbound {
	t.Helper()
	b, err := msgpack.Marshal(map[string]any{"type": typ, "payload": payload})
	require.NoError(t, err)
	in, err := MsgpackCodec{}.DecodeEnvelope(b)
	require.NoError(t, err)
	return in
}

// msgpack 能携带 NaN / ±Inf，JSON 不能；这类向量必须在入口被拒绝
func TestMsgpackNonFiniteVectorsRejected(t *testing.T) {
	f := newRouterFixture(t)
	f.join(t, "p1", "p2")
	before, _ := f.store.Player("p1")

	res := f.router.Dispatch("p1", msgpackInbound(t, MsgMove, map[string]any{
		"position": map[string]any{"x": math.NaN(), "y": 2, "z": 0},
	}))
	assert.Equal(t, ignored(ReasonBadPayload), res)

	res = f.router.Dispatch("p1", msgpackInbound(t, MsgMove, map[string]any{
		"position": map[string]any{"x": 1, "y": 2, "z": 3},
		"velocity": map[string]any{"x": math.Inf(-1)},
	}))
	assert.Equal(t, ignored(ReasonBadPayload), res)

	after, _ := f.store.Player("p1")
	assert.Equal(t, before.Position, after.Position)
	assert.Equal(t, before.Velocity, after.Velocity)

	f.store.ReplacePowerUps([]world.PowerUp{{ID: "pu", Type: world.WeaponRocket}})
	require.True(t, f.router.Collect("p1", "pu").Applied)
	f.pub.reset()
	res = f.router.Dispatch("p1", msgpackInbound(t, MsgFire, map[string]any{
		"direction": map[string]any{"x": math.Inf(1), "y": 0, "z": 0},
	}))
	assert.Equal(t, ignored(ReasonBadPayload), res)
	held, _ := f.store.Player("p1")
	assert.Equal(t, world.WeaponRocket, held.Weapon)
	assert.Empty(t, f.pub.all())
	assert.Equal(t, int64(3), f.metrics.Ignored(ReasonBadPayload))

	// 之后加入的 JSON 客户端仍能编码快照
	f.router.Join("p3", "late")
	snaps := f.pub.ofType(MsgWorldSnapshot)
	require.Len(t, snaps, 1)
	_, err := JSONCodec{}.Encode(snaps[0].msg)
	assert.NoError(t, err)
}
