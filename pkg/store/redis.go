package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/ritzau/dataflows/pkg/model"
	"github.com/ritzau/dataflows/pkg/scene"
)

const defaultRedisPrefix = "dataflows"

// RedisStore keeps each scene under its own key, a set of ids as the
// index, and an INCR counter for id assignment.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore wraps an existing client
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, prefix: defaultRedisPrefix}
}

// DialRedis connects to addr and checks the connection
func DialRedis(ctx context.Context, addr string) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to reach redis at %s: %w", addr, err)
	}
	return NewRedisStore(client), nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) makeKey(id int) string {
	return fmt.Sprintf("%s:scene:%d", s.prefix, id)
}

func (s *RedisStore) indexKey() string {
	return s.prefix + ":scenes"
}

func (s *RedisStore) counterKey() string {
	return s.prefix + ":scenes:next"
}

func (s *RedisStore) Fetch(ctx context.Context, id int) (*scene.Scene, error) {
	data, err := s.client.Get(ctx, s.makeKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("scene %d: %w", id, model.ErrSceneNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to GET scene %d: %w", id, err)
	}
	return decode(data, id)
}

func (s *RedisStore) FetchAll(ctx context.Context) ([]*scene.Scene, error) {
	members, err := s.client.SMembers(ctx, s.indexKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to SMEMBERS %s: %w", s.indexKey(), err)
	}
	out := make([]*scene.Scene, 0, len(members))
	if len(members) == 0 {
		return out, nil
	}

	ids := make([]int, 0, len(members))
	for _, m := range members {
		id, err := strconv.Atoi(m)
		if err != nil {
			return nil, fmt.Errorf("bad scene id %q in index: %w", m, err)
		}
		ids = append(ids, id)
	}
	sort.Ints(ids)

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.makeKey(id)
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to MGET scenes: %w", err)
	}

	for i, val := range values {
		str, ok := val.(string)
		if !ok {
			// index entry without a value, deleted concurrently
			continue
		}
		sc, err := decode([]byte(str), ids[i])
		if err != nil {
			return nil, err
		}
		out = append(out, sc)
	}
	return out, nil
}

func (s *RedisStore) Save(ctx context.Context, sc *scene.Scene, isNew bool) (int, error) {
	id := sc.ID
	if isNew {
		next, err := s.client.Incr(ctx, s.counterKey()).Result()
		if err != nil {
			return 0, fmt.Errorf("failed to allocate scene id: %w", err)
		}
		id = int(next)
	} else {
		member, err := s.client.SIsMember(ctx, s.indexKey(), strconv.Itoa(id)).Result()
		if err != nil {
			return 0, fmt.Errorf("failed to check scene %d: %w", id, err)
		}
		if !member {
			return 0, fmt.Errorf("update scene %d: %w", id, model.ErrSceneNotFound)
		}
	}

	payload, err := encode(sc, id)
	if err != nil {
		return 0, err
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.makeKey(id), payload, 0)
		pipe.SAdd(ctx, s.indexKey(), strconv.Itoa(id))
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to store scene %d: %w", id, err)
	}
	return id, nil
}

func (s *RedisStore) Delete(ctx context.Context, id int) error {
	removed, err := s.client.SRem(ctx, s.indexKey(), strconv.Itoa(id)).Result()
	if err != nil {
		return fmt.Errorf("failed to SREM scene %d: %w", id, err)
	}
	if removed == 0 {
		return fmt.Errorf("delete scene %d: %w", id, model.ErrSceneNotFound)
	}
	if err := s.client.Del(ctx, s.makeKey(id)).Err(); err != nil {
		return fmt.Errorf("failed to DEL scene %d: %w", id, err)
	}
	return nil
}
