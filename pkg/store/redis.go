package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"pokernight-server/pkg/apperr"
)

// opTimeout bounds every store round trip. A timed-out call is retried once
// and then surfaced as Transient.
const opTimeout = 2 * time.Second

const gameCodesKey = "games"

// RedisStore is the Redis-backed Store
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects to the Redis at the given URL
func NewRedisStore(url string) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	return &RedisStore{client: redis.NewClient(opts)}, nil
}

// NewRedisStoreFromClient wraps an existing client. Used by tests.
func NewRedisStoreFromClient(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func gameKey(code string) string {
	return "game:" + code
}

func engineKey(code string) string {
	return "engine:" + code
}

func metricKey(metric string) string {
	return "metrics:" + metric
}

// withRetry runs op with the store timeout, retrying once on a timeout
func (s *RedisStore) withRetry(ctx context.Context, op func(context.Context) error) error {
	var err error
	for attempt := 0; attempt < 2; attempt++ {
		opCtx, cancel := context.WithTimeout(ctx, opTimeout)
		err = op(opCtx)
		cancel()

		if err == nil || !isTimeout(err) {
			return err
		}
	}

	return apperr.E(apperr.Transient, "store timeout: %v", err)
}

func isTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded)
}

// SaveLobby writes the lobby record
func (s *RedisStore) SaveLobby(ctx context.Context, lobby *Lobby) error {
	b, err := json.Marshal(lobby)
	if err != nil {
		return err
	}

	return s.withRetry(ctx, func(ctx context.Context) error {
		if err := s.client.Set(ctx, gameKey(lobby.Code), b, 0).Err(); err != nil {
			return err
		}

		return s.client.SAdd(ctx, gameCodesKey, lobby.Code).Err()
	})
}

// LoadLobby reads the lobby record, or nil if the code is unknown
func (s *RedisStore) LoadLobby(ctx context.Context, code string) (*Lobby, error) {
	var raw string
	err := s.withRetry(ctx, func(ctx context.Context) error {
		var err error
		raw, err = s.client.Get(ctx, gameKey(code)).Result()
		return err
	})

	if errors.Is(err, redis.Nil) {
		return nil, nil
	} else if err != nil {
		return nil, err
	}

	var lobby Lobby
	if err := json.Unmarshal([]byte(raw), &lobby); err != nil {
		return nil, fmt.Errorf("corrupt lobby record for %s: %w", code, err)
	}

	return &lobby, nil
}

// SaveEngine writes the serialized engine state
func (s *RedisStore) SaveEngine(ctx context.Context, code string, state []byte) error {
	return s.withRetry(ctx, func(ctx context.Context) error {
		return s.client.Set(ctx, engineKey(code), state, 0).Err()
	})
}

// LoadEngine reads the serialized engine state, or nil if absent
func (s *RedisStore) LoadEngine(ctx context.Context, code string) ([]byte, error) {
	var raw string
	err := s.withRetry(ctx, func(ctx context.Context) error {
		var err error
		raw, err = s.client.Get(ctx, engineKey(code)).Result()
		return err
	})

	if errors.Is(err, redis.Nil) {
		return nil, nil
	} else if err != nil {
		return nil, err
	}

	return []byte(raw), nil
}

// DeleteGame removes every key for the code
func (s *RedisStore) DeleteGame(ctx context.Context, code string) error {
	return s.withRetry(ctx, func(ctx context.Context) error {
		if err := s.client.Del(ctx, gameKey(code), engineKey(code)).Err(); err != nil {
			return err
		}

		return s.client.SRem(ctx, gameCodesKey, code).Err()
	})
}

// GameCodes returns every known game code
func (s *RedisStore) GameCodes(ctx context.Context) ([]string, error) {
	var codes []string
	err := s.withRetry(ctx, func(ctx context.Context) error {
		var err error
		codes, err = s.client.SMembers(ctx, gameCodesKey).Result()
		return err
	})

	return codes, err
}

// RecordMetric appends a lifecycle event scored by its timestamp
func (s *RedisStore) RecordMetric(ctx context.Context, metric, code string, at time.Time) error {
	return s.withRetry(ctx, func(ctx context.Context) error {
		return s.client.ZAdd(ctx, metricKey(metric), redis.Z{
			Score:  float64(at.Unix()),
			Member: fmt.Sprintf("%s:%d", code, at.UnixNano()),
		}).Err()
	})
}

// PruneMetrics drops metric entries older than the cutoff
func (s *RedisStore) PruneMetrics(ctx context.Context, cutoff time.Time) error {
	max := strconv.FormatInt(cutoff.Unix(), 10)

	return s.withRetry(ctx, func(ctx context.Context) error {
		for _, metric := range []string{MetricCreated, MetricCompleted, MetricCleaned} {
			if err := s.client.ZRemRangeByScore(ctx, metricKey(metric), "-inf", max).Err(); err != nil {
				return err
			}
		}

		return nil
	})
}

// MetricCount counts metric entries at or after since
func (s *RedisStore) MetricCount(ctx context.Context, metric string, since time.Time) (int64, error) {
	var count int64
	err := s.withRetry(ctx, func(ctx context.Context) error {
		var err error
		count, err = s.client.ZCount(ctx, metricKey(metric), strconv.FormatInt(since.Unix(), 10), "+inf").Result()
		return err
	})

	return count, err
}

// Close releases the underlying client
func (s *RedisStore) Close() error {
	return s.client.Close()
}
