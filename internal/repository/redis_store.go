package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"moveit-auth/internal/domain"
)

const (
	defaultRedisKey   = "moveit:users"
	redisMaxTxRetries = 5
)

// RedisStore guarda la coleccion como un string JSON bajo una sola clave.
type RedisStore struct {
	client redis.UniversalClient
	key    string
	logger *zap.Logger
}

func NewRedisStore(client redis.UniversalClient, key string, logger *zap.Logger) *RedisStore {
	if key == "" {
		key = defaultRedisKey
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisStore{client: client, key: key, logger: logger}
}

func (s *RedisStore) LoadAll(ctx context.Context) []domain.User {
	return s.decode(s.client.Get(ctx, s.key))
}

func (s *RedisStore) SaveAll(ctx context.Context, users []domain.User) error {
	data, err := encodeUsers(users)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("redis set users: %w", err)
	}
	return nil
}

// Update usa WATCH/MULTI: si otra escritura toca la clave se reintenta.
func (s *RedisStore) Update(ctx context.Context, fn MutateFunc) error {
	txf := func(tx *redis.Tx) error {
		next, err := fn(s.decode(tx.Get(ctx, s.key)))
		if err != nil {
			return err
		}
		if next == nil {
			return nil
		}
		data, err := encodeUsers(next)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, s.key, data, 0)
			return nil
		})
		return err
	}

	for attempt := 0; attempt < redisMaxTxRetries; attempt++ {
		err := s.client.Watch(ctx, txf, s.key)
		if errors.Is(err, redis.TxFailedErr) {
			s.logger.Debug("redis users tx retry", zap.Int("attempt", attempt+1))
			continue
		}
		return err
	}
	return ErrConflict
}

func (s *RedisStore) decode(cmd *redis.StringCmd) []domain.User {
	raw, err := cmd.Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn("redis get users failed", zap.String("key", s.key), zap.Error(err))
		}
		return []domain.User{}
	}
	return decodeUsers(raw, s.logger)
}

func encodeUsers(users []domain.User) ([]byte, error) {
	if users == nil {
		users = []domain.User{}
	}
	data, err := json.Marshal(users)
	if err != nil {
		return nil, fmt.Errorf("encode users: %w", err)
	}
	return data, nil
}
