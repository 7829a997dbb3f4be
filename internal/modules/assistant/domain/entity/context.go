package entity

import (
	"encoding/json"
	"strings"
)

// ContextSchemaVersion 当前会话上下文的结构版本。
// 解析时：未知字段忽略，缺失字段取零值；版本高于当前版本视为损坏。
const ContextSchemaVersion = 1

// SessionContext 会话上下文（显式字段结构，替代早期的开放 map）
type SessionContext struct {
	Version              int    `json:"version"`
	LastIntent           string `json:"last_intent,omitempty"`
	PendingClarification string `json:"pending_clarification,omitempty"`
	TurnCount            int    `json:"turn_count"`
}

// DefaultSessionContext 新会话的初始上下文
func DefaultSessionContext() SessionContext {
	return SessionContext{Version: ContextSchemaVersion}
}

// ParseSessionContext 解析会话上下文 JSON。
// 返回 error 时调用方应重置为默认上下文并记录 InvalidContextSchema，不得中断流水线。
func ParseSessionContext(raw string) (SessionContext, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return DefaultSessionContext(), nil
	}
	var c SessionContext
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		return DefaultSessionContext(), err
	}
	// 历史数据没有 version 字段，按版本 1 升级
	if c.Version == 0 {
		c.Version = ContextSchemaVersion
	}
	if c.Version > ContextSchemaVersion {
		return DefaultSessionContext(), ErrContextVersionTooNew
	}
	return c, nil
}

// Encode 序列化为存储用 JSON
func (c SessionContext) Encode() string {
	b, err := json.Marshal(c)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// ErrContextVersionTooNew 上下文版本高于程序可理解的版本
var ErrContextVersionTooNew = &contextVersionError{}

type contextVersionError struct{}

func (e *contextVersionError) Error() string {
	return "session context version is newer than supported"
}
