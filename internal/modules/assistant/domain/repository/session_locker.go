package repository

import (
	"context"
	"time"
)

// SessionLocker 会话级互斥：同一会话同一时刻至多一条流水线在跑。
// 后到的请求在 wait 窗口内排队等待，超时返回 xerr.ErrSessionLocked。
// 调用方必须在所有退出路径上 Release（含取消与异常）。
type SessionLocker interface {
	// Acquire 获取会话锁，返回释放令牌（防止误释放他人持有的锁）
	Acquire(ctx context.Context, key string, ttl, wait time.Duration) (token string, err error)

	// Release 用令牌释放锁；令牌不匹配时不做任何事
	Release(ctx context.Context, key, token string) error
}
