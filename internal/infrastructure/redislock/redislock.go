package redislock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrNotHeld is returned by Unlock when the key expired or belongs to another holder.
var ErrNotHeld = errors.New("lock not held")

// release deletes the key only while it still carries our token, so a run
// that outlived its TTL cannot drop a lock taken over by the next run.
var release = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type RedisLock struct {
	client *redis.Client
}

func New(addr, password string) (*RedisLock, error) {
	const op = "redislock.New"

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &RedisLock{client: client}, nil
}

// Lock tries to take key for ttl. ok is false when someone else holds it.
func (r *RedisLock) Lock(ctx context.Context, key string, ttl time.Duration) (token string, ok bool, err error) {
	const op = "redislock.Lock"

	token = uuid.NewString()
	ok, err = r.client.SetNX(ctx, lockKey(key), token, ttl).Result()
	if err != nil {
		return "", false, fmt.Errorf("%s: %w", op, err)
	}
	if !ok {
		return "", false, nil
	}
	return token, true, nil
}

func (r *RedisLock) Unlock(ctx context.Context, key, token string) error {
	const op = "redislock.Unlock"

	n, err := release.Run(ctx, r.client, []string{lockKey(key)}, token).Int()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %s: %w", op, key, ErrNotHeld)
	}
	return nil
}

func (r *RedisLock) Close() error {
	return r.client.Close()
}

func lockKey(key string) string {
	return fmt.Sprintf("courtsched:lock:%s", key)
}
