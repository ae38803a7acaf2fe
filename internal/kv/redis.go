// SPDX-License-Identifier: AGPL-3.0-or-later
// gateway - Federated pub/sub/RPC namespace gateway
// Copyright (C) 2026 The rocon-go Authors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

package kv

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/rocon-go/gateway/internal/config"
	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
)

const (
	connsPerCPU = 10
	maxIdleTime = 10 * time.Minute
)

func makeRedisKV(ctx context.Context, cfg *config.Config) (KV, error) {
	client := redis.NewClient(&redis.Options{
		Addr:            fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		Password:        cfg.Redis.Password,
		PoolFIFO:        true,
		PoolSize:        runtime.GOMAXPROCS(0) * connsPerCPU,
		MinIdleConns:    runtime.GOMAXPROCS(0),
		ConnMaxIdleTime: maxIdleTime,
	})
	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	if cfg.Metrics.OTLPEndpoint != "" {
		if err := redisotel.InstrumentTracing(client); err != nil {
			return nil, fmt.Errorf("failed to trace redis: %w", err)
		}
		if err := redisotel.InstrumentMetrics(client); err != nil {
			return nil, fmt.Errorf("failed to instrument redis metrics: %w", err)
		}
	}

	return redisKV{client: client}, nil
}

type redisKV struct {
	client *redis.Client
}

func (kv redisKV) Has(ctx context.Context, key string) (bool, error) {
	n, err := kv.client.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists %s: %w", key, err)
	}
	return n > 0, nil
}

func (kv redisKV) Get(ctx context.Context, key string) ([]byte, error) {
	v, err := kv.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("key %s not found", key)
		}
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	return v, nil
}

func (kv redisKV) Set(ctx context.Context, key string, value []byte) error {
	if err := kv.client.Set(ctx, key, value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (kv redisKV) Delete(ctx context.Context, key string) error {
	if err := kv.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}

func (kv redisKV) Expire(ctx context.Context, key string, ttl time.Duration) error {
	if ttl <= 0 {
		return kv.Delete(ctx, key)
	}
	if err := kv.client.Expire(ctx, key, ttl).Err(); err != nil {
		return fmt.Errorf("redis expire %s: %w", key, err)
	}
	return nil
}

func (kv redisKV) Scan(ctx context.Context, cursor uint64, match string, count int64) ([]string, uint64, error) {
	keys, next, err := kv.client.Scan(ctx, cursor, match, count).Result()
	if err != nil {
		return nil, 0, fmt.Errorf("redis scan %s: %w", match, err)
	}
	return keys, next, nil
}

func (kv redisKV) SAdd(ctx context.Context, key string, member []byte) error {
	if err := kv.client.SAdd(ctx, key, member).Err(); err != nil {
		return fmt.Errorf("redis sadd %s: %w", key, err)
	}
	return nil
}

func (kv redisKV) SRem(ctx context.Context, key string, member []byte) error {
	if err := kv.client.SRem(ctx, key, member).Err(); err != nil {
		return fmt.Errorf("redis srem %s: %w", key, err)
	}
	return nil
}

func (kv redisKV) SMembers(ctx context.Context, key string) ([][]byte, error) {
	members, err := kv.client.SMembers(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("redis smembers %s: %w", key, err)
	}
	out := make([][]byte, len(members))
	for i, m := range members {
		out[i] = []byte(m)
	}
	return out, nil
}

func (kv redisKV) SIsMember(ctx context.Context, key string, member []byte) (bool, error) {
	ok, err := kv.client.SIsMember(ctx, key, member).Result()
	if err != nil {
		return false, fmt.Errorf("redis sismember %s: %w", key, err)
	}
	return ok, nil
}

func (kv redisKV) Close() error {
	if err := kv.client.Close(); err != nil {
		return fmt.Errorf("failed to close redis client: %w", err)
	}
	return nil
}
