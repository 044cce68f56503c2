// Package favorites stores each user's favorite-movie list. The
// original deployment piggy-backed this on the identity provider's
// private metadata; here it is an explicit key-value collaborator with
// a Redis implementation, keeping the identity provider out of data
// storage.
package favorites

import (
	"context"
	"strconv"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Store is the favorites contract: a set of catalog movie ids per
// user.
type Store interface {
	// Get returns the user's favorite movie ids. Unknown users have an
	// empty set.
	Get(ctx context.Context, userID string) ([]int64, error)
	// Toggle adds the movie to the user's favorites when absent and
	// removes it when present. It reports true when the movie is a
	// favorite after the call.
	Toggle(ctx context.Context, userID string, movieID int64) (bool, error)
}

// RedisStore keeps each user's favorites in a Redis set keyed by user
// id.
type RedisStore struct {
	rdb    *redis.Client
	prefix string
}

// NewRedisStore returns a Store backed by the given Redis client.
func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb, prefix: "favorites:"}
}

func (s *RedisStore) key(userID string) string { return s.prefix + userID }

// Get returns the user's favorite movie ids.
func (s *RedisStore) Get(ctx context.Context, userID string) ([]int64, error) {
	members, err := s.rdb.SMembers(ctx, s.key(userID)).Result()
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(members))
	for _, m := range members {
		id, err := strconv.ParseInt(m, 10, 64)
		if err != nil {
			continue // skip entries that are not catalog ids
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Toggle flips the membership of movieID in the user's favorites.
func (s *RedisStore) Toggle(ctx context.Context, userID string, movieID int64) (bool, error) {
	key := s.key(userID)
	member := strconv.FormatInt(movieID, 10)
	isMember, err := s.rdb.SIsMember(ctx, key, member).Result()
	if err != nil {
		return false, err
	}
	if isMember {
		if err := s.rdb.SRem(ctx, key, member).Err(); err != nil {
			return false, err
		}
		return false, nil
	}
	if err := s.rdb.SAdd(ctx, key, member).Err(); err != nil {
		return false, err
	}
	return true, nil
}

// MemoryStore is an in-memory Store for tests and for running without
// Redis. It serves live handler traffic in the Redis-less fallback, so
// access to the shared maps is guarded by a lock.
type MemoryStore struct {
	mu   sync.RWMutex
	sets map[string]map[int64]struct{}
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sets: make(map[string]map[int64]struct{})}
}

// Get returns the user's favorite movie ids.
func (s *MemoryStore) Get(ctx context.Context, userID string) ([]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]int64, 0, len(s.sets[userID]))
	for id := range s.sets[userID] {
		ids = append(ids, id)
	}
	return ids, nil
}

// Toggle flips the membership of movieID in the user's favorites.
func (s *MemoryStore) Toggle(ctx context.Context, userID string, movieID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.sets[userID]
	if !ok {
		set = make(map[int64]struct{})
		s.sets[userID] = set
	}
	if _, ok := set[movieID]; ok {
		delete(set, movieID)
		return false, nil
	}
	set[movieID] = struct{}{}
	return true, nil
}
