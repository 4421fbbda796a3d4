package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gorilla/websocket"
	"github.com/vmihailenco/msgpack/v5"
)

var errEmptyPayload = errors.New("empty payload")

// Codec 单条连接使用的编解码方式，连接建立时选定
type Codec interface {
	Name() string
	// FrameType websocket 帧类型（TextMessage / BinaryMessage）
	FrameType() int
	Encode(msg Message) ([]byte, error)
	DecodeEnvelope(b []byte) (Inbound, error)
	unmarshal(b []byte, v any) error
}

// Inbound 已拆开信封、载荷尚未解码的入站消息
type Inbound struct {
	Type    string
	payload []byte
	codec   Codec
}

// Decode 把载荷解码到 v
func (in Inbound) Decode(v any) error {
	if len(in.payload) == 0 || in.codec == nil {
		return errEmptyPayload
	}
	if err := in.codec.unmarshal(in.payload, v); err != nil {
		return fmt.Errorf("decode %s payload: %w", in.Type, err)
	}
	return nil
}

// HasPayload 信封里是否带了载荷
func (in Inbound) HasPayload() bool { return len(in.payload) > 0 }

// CodecByName 按名称查找；空串为 JSON
func CodecByName(name string) (Codec, bool) {
	switch name {
	case "", "json":
		return JSONCodec{}, true
	case "msgpack":
		return MsgpackCodec{}, true
	}
	return nil, false
}

// JSONCodec 文本帧 JSON
type JSONCodec struct{}

func (JSONCodec) Name() string   { return "json" }
func (JSONCodec) FrameType() int { return websocket.TextMessage }

func (JSONCodec) Encode(msg Message) ([]byte, error) {
	if msg.Type == "" {
		return nil, fmt.Errorf("trying to encode envelope without type")
	}
	return json.Marshal(msg)
}

func (c JSONCodec) DecodeEnvelope(b []byte) (Inbound, error) {
	if len(b) == 0 {
		return Inbound{}, fmt.Errorf("decode envelope: %w", errEmptyPayload)
	}
	var env struct {
		Type    string          `json:"type"`
		Payload json.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal(b, &env); err != nil {
		return Inbound{}, fmt.Errorf("decode envelope: %w", err)
	}
	payload := []byte(env.Payload)
	if bytes.Equal(payload, []byte("null")) {
		payload = nil
	}
	return Inbound{Type: env.Type, payload: payload, codec: c}, nil
}

func (JSONCodec) unmarshal(b []byte, v any) error { return json.Unmarshal(b, v) }

// MsgpackCodec 二进制帧 msgpack，字段名与 JSON 相同
type MsgpackCodec struct{}

func (MsgpackCodec) Name() string   { return "msgpack" }
func (MsgpackCodec) FrameType() int { return websocket.BinaryMessage }

func (MsgpackCodec) Encode(msg Message) ([]byte, error) {
	if msg.Type == "" {
		return nil, fmt.Errorf("trying to encode envelope without type")
	}
	return msgpack.Marshal(&msg)
}

func (c MsgpackCodec) DecodeEnvelope(b []byte) (Inbound, error) {
	if len(b) == 0 {
		return Inbound{}, fmt.Errorf("decode envelope: %w", errEmptyPayload)
	}
	var env struct {
		Type    string             `msgpack:"type"`
		Payload msgpack.RawMessage `msgpack:"payload"`
	}
	if err := msgpack.Unmarshal(b, &env); err != nil {
		return Inbound{}, fmt.Errorf("decode envelope: %w", err)
	}
	payload := []byte(env.Payload)
	// msgpack nil 编码为单字节 0xc0
	if len(payload) == 1 && payload[0] == 0xc0 {
		payload = nil
	}
	return Inbound{Type: env.Type, payload: payload, codec: c}, nil
}

func (MsgpackCodec) unmarshal(b []byte, v any) error { return msgpack.Unmarshal(b, v) }
