package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/imei-service/internal/domain"
)

// StateStore keeps the conversation state of each chat user. A user with no entry is Idle.
type StateStore interface {
	Get(ctx context.Context, userID int64) (domain.ConversationState, error)
	Set(ctx context.Context, userID int64, state domain.ConversationState) error
}

// MemoryStateStore holds states in process memory. Entries are created on a user's
// first state change and live until the process exits.
type MemoryStateStore struct {
	mu     sync.RWMutex
	states map[int64]domain.ConversationState
}

func NewMemoryStateStore() *MemoryStateStore {
	return &MemoryStateStore{states: make(map[int64]domain.ConversationState)}
}

func (s *MemoryStateStore) Get(_ context.Context, userID int64) (domain.ConversationState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.states[userID]
	if !ok {
		return domain.StateIdle, nil
	}
	return state, nil
}

func (s *MemoryStateStore) Set(_ context.Context, userID int64, state domain.ConversationState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.states[userID] = state
	return nil
}

const redisStatePrefix = "imei-bot:state:"

// RedisStateStore shares pending admin commands between bot replicas. Pending states
// expire after ttl so an abandoned command does not linger.
type RedisStateStore struct {
	client redis.UniversalClient
	ttl    time.Duration
}

func NewRedisStateStore(client redis.UniversalClient, ttl time.Duration) *RedisStateStore {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &RedisStateStore{client: client, ttl: ttl}
}

func (s *RedisStateStore) Get(ctx context.Context, userID int64) (domain.ConversationState, error) {
	raw, err := s.client.Get(ctx, redisStateKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return domain.StateIdle, nil
	}
	if err != nil {
		return domain.StateIdle, fmt.Errorf("get conversation state: %w", err)
	}

	state := domain.ConversationState(raw)
	if !state.Valid() {
		return domain.StateIdle, nil
	}
	return state, nil
}

func (s *RedisStateStore) Set(ctx context.Context, userID int64, state domain.ConversationState) error {
	key := redisStateKey(userID)
	if state == domain.StateIdle {
		if err := s.client.Del(ctx, key).Err(); err != nil {
			return fmt.Errorf("reset conversation state: %w", err)
		}
		return nil
	}
	if err := s.client.Set(ctx, key, string(state), s.ttl).Err(); err != nil {
		return fmt.Errorf("set conversation state: %w", err)
	}
	return nil
}

func redisStateKey(userID int64) string {
	return redisStatePrefix + strconv.FormatInt(userID, 10)
}
