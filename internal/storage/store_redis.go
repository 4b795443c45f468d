package storage

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/redis/go-redis/v9"

	dErrors "signet/pkg/domain-errors"
)

// Redis key prefix for client data sets.
const dataSetKeyPrefix = "signet:dataset:"

// RedisDataStore is a Redis-backed DataStore for distributed deployments
// where multiple engine instances share one data plane.
type RedisDataStore struct {
	client *redis.Client
}

func NewRedisDataStore(client *redis.Client) *RedisDataStore {
	return &RedisDataStore{client: client}
}

func (s *RedisDataStore) Save(ctx context.Context, clientID string, dataSet *DataSet) error {
	raw, err := json.Marshal(dataSet)
	if err != nil {
		return dErrors.Wrap(dErrors.CodeInternal, "serialize data set", err)
	}
	// Data sets live until replaced; no TTL.
	return s.client.Set(ctx, dataSetKeyPrefix+clientID, raw, 0).Err()
}

func (s *RedisDataStore) FindByClientID(ctx context.Context, clientID string) (*DataSet, error) {
	raw, err := s.client.Get(ctx, dataSetKeyPrefix+clientID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "load data set", err)
	}
	var dataSet DataSet
	if err := json.Unmarshal(raw, &dataSet); err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "decode data set", err)
	}
	return &dataSet, nil
}
