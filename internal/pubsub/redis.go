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

package pubsub

import (
	"context"
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

func makePubSubFromRedis(ctx context.Context, config *config.Config) (PubSub, error) {
	client := redis.NewClient(&redis.Options{
		Addr:            fmt.Sprintf("%s:%d", config.Redis.Host, config.Redis.Port),
		Password:        config.Redis.Password,
		PoolFIFO:        true,
		PoolSize:        runtime.GOMAXPROCS(0) * connsPerCPU,
		MinIdleConns:    runtime.GOMAXPROCS(0),
		ConnMaxIdleTime: maxIdleTime,
	})
	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	if config.Metrics.OTLPEndpoint != "" {
		if err := redisotel.InstrumentTracing(client); err != nil {
			return nil, fmt.Errorf("failed to trace redis: %w", err)
		}
		if err := redisotel.InstrumentMetrics(client); err != nil {
			return nil, fmt.Errorf("failed to instrument redis metrics: %w", err)
		}
	}

	return redisPubSub{client: client}, nil
}

type redisPubSub struct {
	client *redis.Client
}

func (ps redisPubSub) Publish(topic string, message []byte) error {
	ctx := context.Background()
	if err := ps.client.Publish(ctx, topic, message).Err(); err != nil {
		return fmt.Errorf("failed to publish message to topic %s: %w", topic, err)
	}
	return nil
}

func (ps redisPubSub) Subscribe(topic string) Subscription {
	ctx := context.Background()
	sub := ps.client.Subscribe(ctx, topic)
	ch := sub.Channel()
	return redisSubscription{ch: ch, sub: sub}
}

func (ps redisPubSub) Close() error {
	if err := ps.client.Close(); err != nil {
		return fmt.Errorf("failed to close redis client: %w", err)
	}
	return nil
}

type redisSubscription struct {
	ch  <-chan *redis.Message
	sub *redis.PubSub
}

func (s redisSubscription) Close() error {
	if err := s.sub.Close(); err != nil {
		return fmt.Errorf("failed to close redis subscription: %w", err)
	}
	return nil
}

func (s redisSubscription) Channel() <-chan []byte {
	ch := make(chan []byte)
	go func() {
		for msg := range s.ch {
			ch <- []byte(msg.Payload)
		}
		close(ch)
	}()
	return ch
}
