package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/novolabs/novo/internal/types"
)

const (
	sessionKeyPrefix = "session:"
	userKeyPrefix    = "user:"
	pendingKeyPrefix = "pending:"
)

type redisSessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

func newRedisSessionStore(client *redis.Client, ttl time.Duration) *redisSessionStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &redisSessionStore{client: client, ttl: ttl}
}

func (s *redisSessionStore) Create(ctx context.Context, session *types.Session) error {
	return s.write(ctx, session)
}

func (s *redisSessionStore) Get(ctx context.Context, id string) (*types.Session, error) {
	val, err := s.client.Get(ctx, sessionKeyPrefix+id).Result()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	var session types.Session
	if err := json.Unmarshal([]byte(val), &session); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	return &session, nil
}

func (s *redisSessionStore) AppendMessage(ctx context.Context, id string, msg types.Message) error {
	session, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	session.Messages = append(session.Messages, msg)
	return s.write(ctx, session)
}

func (s *redisSessionStore) End(ctx context.Context, id string, at time.Time) error {
	session, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	session.EndTime = &at
	return s.write(ctx, session)
}

func (s *redisSessionStore) List(ctx context.Context, limit int) ([]types.Session, error) {
	keys, err := scanKeys(ctx, s.client, sessionKeyPrefix+"*")
	if err != nil {
		return nil, err
	}
	out := make([]types.Session, 0, len(keys))
	for _, key := range keys {
		val, err := s.client.Get(ctx, key).Result()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to get session: %w", err)
		}
		var session types.Session
		if err := json.Unmarshal([]byte(val), &session); err != nil {
			continue
		}
		out = append(out, session)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.After(out[j].StartTime) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *redisSessionStore) write(ctx context.Context, session *types.Session) error {
	val, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if err := s.client.Set(ctx, sessionKeyPrefix+session.ID, val, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	return nil
}

type redisUserStore struct {
	client *redis.Client
}

func newRedisUserStore(client *redis.Client) *redisUserStore {
	return &redisUserStore{client: client}
}

func (s *redisUserStore) Get(ctx context.Context, ip string) (*types.UserProfile, error) {
	val, err := s.client.Get(ctx, userKeyPrefix+ip).Result()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	var profile types.UserProfile
	if err := json.Unmarshal([]byte(val), &profile); err != nil {
		return nil, fmt.Errorf("failed to decode profile: %w", err)
	}
	return &profile, nil
}

func (s *redisUserStore) Put(ctx context.Context, profile *types.UserProfile) error {
	val, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("failed to encode profile: %w", err)
	}
	// Profiles never expire; the original never deletes them either.
	if err := s.client.Set(ctx, userKeyPrefix+profile.IPAddress, val, 0).Err(); err != nil {
		return fmt.Errorf("failed to store profile: %w", err)
	}
	return nil
}

func (s *redisUserStore) List(ctx context.Context) ([]types.UserProfile, error) {
	keys, err := scanKeys(ctx, s.client, userKeyPrefix+"*")
	if err != nil {
		return nil, err
	}
	out := make([]types.UserProfile, 0, len(keys))
	for _, key := range keys {
		val, err := s.client.Get(ctx, key).Result()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to get profile: %w", err)
		}
		var profile types.UserProfile
		if err := json.Unmarshal([]byte(val), &profile); err != nil {
			continue
		}
		out = append(out, profile)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LastSeen.After(out[j].LastSeen) })
	return out, nil
}

type redisPendingStore struct {
	client *redis.Client
	ttl    time.Duration
}

func newRedisPendingStore(client *redis.Client, ttl time.Duration) *redisPendingStore {
	if ttl <= 0 {
		ttl = 60 * time.Second
	}
	return &redisPendingStore{client: client, ttl: ttl}
}

func (s *redisPendingStore) Put(ctx context.Context, call types.PendingToolCall) error {
	val, err := json.Marshal(call)
	if err != nil {
		return fmt.Errorf("failed to encode pending call: %w", err)
	}
	if err := s.client.Set(ctx, pendingKeyPrefix+call.ToolCallID, val, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store pending call: %w", err)
	}
	return nil
}

func (s *redisPendingStore) TakeAll(ctx context.Context) ([]types.PendingToolCall, error) {
	keys, err := scanKeys(ctx, s.client, pendingKeyPrefix+"*")
	if err != nil {
		return nil, err
	}
	var out []types.PendingToolCall
	for _, key := range keys {
		val, err := s.client.GetDel(ctx, key).Result()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to take pending call: %w", err)
		}
		var call types.PendingToolCall
		if err := json.Unmarshal([]byte(val), &call); err != nil {
			continue
		}
		out = append(out, call)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

func scanKeys(ctx context.Context, client *redis.Client, pattern string) ([]string, error) {
	var keys []string
	var cursor uint64
	for {
		batch, next, err := client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to scan keys: %w", err)
		}
		keys = append(keys, batch...)
		cursor = next
		if cursor == 0 {
			return keys, nil
		}
	}
}
