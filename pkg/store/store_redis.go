package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/kotrzina/skolmaten/pkg/config"
	"github.com/redis/go-redis/v9"
)

const (
	EventsKey    = "menu_events"
	SnapshotsKey = "menu_snapshots"
)

type RedisStore struct {
	Client *redis.Client
	ctx    context.Context
}

func NewRedisStore(ctx context.Context, config *config.Config) *RedisStore {
	return &RedisStore{
		Client: redis.NewClient(&redis.Options{
			Addr: config.RedisAddr,
			DB:   config.RedisDB,
		}),
		ctx: ctx,
	}
}

func (s *RedisStore) AddEvent(event string) error {
	pipe := s.Client.TxPipeline()
	pipe.RPush(s.ctx, EventsKey, event)
	pipe.LTrim(s.ctx, EventsKey, -maxEvents, -1)
	_, err := pipe.Exec(s.ctx)
	return err
}

func (s *RedisStore) GetEvents() ([]string, error) {
	return s.Client.LRange(s.ctx, EventsKey, 0, -1).Result()
}

func (s *RedisStore) SetSnapshot(snapshot Snapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("could not marshal snapshot: %w", err)
	}
	return s.Client.HSet(s.ctx, SnapshotsKey, snapshot.Slug, data).Err()
}

func (s *RedisStore) GetSnapshot(slug string) (Snapshot, error) {
	res, err := s.Client.HGet(s.ctx, SnapshotsKey, slug).Result()
	if errors.Is(err, redis.Nil) {
		return Snapshot{}, ErrNotFound
	}
	if err != nil {
		return Snapshot{}, err
	}

	var snapshot Snapshot
	if err := json.Unmarshal([]byte(res), &snapshot); err != nil {
		return Snapshot{}, fmt.Errorf("invalid snapshot format in the storage: %w", err)
	}
	return snapshot, nil
}

func (s *RedisStore) GetSnapshots() ([]Snapshot, error) {
	res, err := s.Client.HGetAll(s.ctx, SnapshotsKey).Result()
	if err != nil {
		return nil, err
	}

	snapshots := make([]Snapshot, 0, len(res))
	for _, value := range res {
		var snapshot Snapshot
		if err := json.Unmarshal([]byte(value), &snapshot); err != nil {
			return nil, fmt.Errorf("invalid snapshot format in the storage: %w", err)
		}
		snapshots = append(snapshots, snapshot)
	}
	sortSnapshots(snapshots)

	return snapshots, nil
}
