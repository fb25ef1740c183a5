package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "orderbot:session:"

// RedisStore keeps sessions as JSON values with a TTL, so several bot
// processes can share conversation state.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(ctx context.Context, addr, password string, db int) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect redis %s: %w", addr, err)
	}
	log.Printf("session store: redis %s", addr)
	return &RedisStore{client: client}, nil
}

func redisKey(actorID int64, kind FlowKind) string {
	return fmt.Sprintf("%s%d:%s", redisKeyPrefix, actorID, kind)
}

func (r *RedisStore) Get(ctx context.Context, actorID int64, kind FlowKind) (Session, bool, error) {
	val, err := r.client.Get(ctx, redisKey(actorID, kind)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Session{}, false, nil
	}
	if err != nil {
		return Session{}, false, err
	}
	var s Session
	if err := json.Unmarshal(val, &s); err != nil {
		return Session{}, false, fmt.Errorf("decode session: %w", err)
	}
	return s, true, nil
}

func (r *RedisStore) Put(ctx context.Context, s Session, ttl time.Duration) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	return r.client.Set(ctx, redisKey(s.ActorID, s.Kind), data, ttl).Err()
}

func (r *RedisStore) Delete(ctx context.Context, actorID int64, kind FlowKind) error {
	return r.client.Del(ctx, redisKey(actorID, kind)).Err()
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}
