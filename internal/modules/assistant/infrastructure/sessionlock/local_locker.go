package sessionlock

import (
	"context"
	"sync"
	"time"

	"CampusAssist/internal/modules/assistant/domain/repository"
	"CampusAssist/pkg/util"
	"CampusAssist/pkg/xerr"
)

// LocalLocker 进程内会话互斥锁，单实例部署或 Redis 不可用时的替代。
// 语义与 RedisLocker 一致：token 校验释放，超过 TTL 视为过期可抢占。
type LocalLocker struct {
	mu    sync.Mutex
	locks map[string]localLock
}

type localLock struct {
	token    string
	expireAt time.Time
}

var _ repository.SessionLocker = (*LocalLocker)(nil)

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{locks: make(map[string]localLock)}
}

func (l *LocalLocker) Acquire(ctx context.Context, key string, ttl, wait time.Duration) (string, error) {
	token := util.GenerateUUID()
	deadline := time.Now().Add(wait)

	for {
		if l.tryAcquire(key, token, ttl) {
			return token, nil
		}
		if time.Now().After(deadline) {
			return "", xerr.ErrSessionLocked
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(pollInterval):
		}
	}
}

func (l *LocalLocker) tryAcquire(key, token string, ttl time.Duration) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := time.Now()
	if cur, ok := l.locks[key]; ok && now.Before(cur.expireAt) {
		return false
	}
	l.locks[key] = localLock{token: token, expireAt: now.Add(ttl)}
	return true
}

func (l *LocalLocker) Release(ctx context.Context, key, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if cur, ok := l.locks[key]; ok && cur.token == token {
		delete(l.locks, key)
	}
	return nil
}
