package sessionlock

import (
	"context"
	"time"

	"CampusAssist/internal/modules/assistant/domain/repository"
	"CampusAssist/pkg/redis"
	"CampusAssist/pkg/util"
	"CampusAssist/pkg/xerr"
)

// releaseScript 持有者校验后删除，避免误删他人续期后的锁
const releaseScript = `
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
else
	return 0
end`

const pollInterval = 50 * time.Millisecond

// RedisLocker 基于 Redis SetNX 的会话互斥锁，多实例部署时用它。
// 锁值为随机 token，释放时校验持有者。
type RedisLocker struct {
	keyPrefix string
}

var _ repository.SessionLocker = (*RedisLocker)(nil)

func NewRedisLocker() *RedisLocker {
	return &RedisLocker{keyPrefix: "campus:session:lock:"}
}

func (l *RedisLocker) Acquire(ctx context.Context, key string, ttl, wait time.Duration) (string, error) {
	token := util.GenerateUUID()
	fullKey := l.keyPrefix + key
	deadline := time.Now().Add(wait)

	for {
		ok, err := redis.SetNX(ctx, fullKey, token, ttl)
		if err != nil {
			return "", err
		}
		if ok {
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

func (l *RedisLocker) Release(ctx context.Context, key, token string) error {
	_, err := redis.Eval(ctx, releaseScript, []string{l.keyPrefix + key}, token)
	return err
}
