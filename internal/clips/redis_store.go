package clips

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"
)

const (
	redisReplayKeyPrefix = "replay:"
	redisReplayIndexKey  = "replays"
)

// RedisStore is a Store that keeps each replay as a JSON document in Redis,
// with a set of known ids for listing.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore returns a RedisStore using client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// GetReplay implements Store.GetReplay.
func (s *RedisStore) GetReplay(ctx context.Context, id ReplayID) (*ReplayState, bool, error) {
	b, err := s.client.Get(ctx, redisReplayKeyPrefix+string(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get replay %s: %w", id, err)
	}

	var st ReplayState
	if err := json.Unmarshal(b, &st); err != nil {
		return nil, false, fmt.Errorf("decode replay %s: %w", id, err)
	}
	if st.Attachments == nil {
		st.Attachments = make(map[int64]Attachment)
	}
	return &st, true, nil
}

// SetReplay implements Store.SetReplay.
func (s *RedisStore) SetReplay(ctx context.Context, st *ReplayState) error {
	b, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode replay %s: %w", st.Record.ID, err)
	}

	_, err = s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, redisReplayKeyPrefix+string(st.Record.ID), b, 0)
		p.SAdd(ctx, redisReplayIndexKey, string(st.Record.ID))
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis set replay %s: %w", st.Record.ID, err)
	}
	return nil
}

// ListReplayIDs implements Store.ListReplayIDs.
func (s *RedisStore) ListReplayIDs(ctx context.Context) ([]ReplayID, error) {
	members, err := s.client.SMembers(ctx, redisReplayIndexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("redis list replays: %w", err)
	}
	ids := make([]ReplayID, 0, len(members))
	for _, m := range members {
		ids = append(ids, ReplayID(m))
	}
	return ids, nil
}
