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

// Package kv is the key/value half of the hub backend (§6's Redis schema):
// string keys with TTLs for directory entries, plus unordered sets for the
// gatewaylist/advertisements/flips/pulls/flip_ins collections. A Redis
// backend and an in-memory one share the same interface so the rest of the
// gateway never knows which it is talking to.
package kv

import (
	"context"
	"fmt"
	"time"

	"github.com/rocon-go/gateway/internal/config"
)

// KV is the storage contract the hub client depends on. Every operation is
// scoped to a single logical hub (the caller namespaces keys with a
// "rocon:<unique_name>:" style prefix).
type KV interface {
	Has(ctx context.Context, key string) (bool, error)
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Expire(ctx context.Context, key string, ttl time.Duration) error
	Scan(ctx context.Context, cursor uint64, match string, count int64) ([]string, uint64, error)

	// SAdd adds a member to the unordered set stored at key.
	SAdd(ctx context.Context, key string, member []byte) error
	// SRem removes a member from the set stored at key. Not found is not an error.
	SRem(ctx context.Context, key string, member []byte) error
	// SMembers returns every member of the set stored at key.
	SMembers(ctx context.Context, key string) ([][]byte, error)
	// SIsMember reports whether member is present in the set at key.
	SIsMember(ctx context.Context, key string, member []byte) (bool, error)

	Close() error
}

// MakeKV creates a new key-value store client, backed by Redis when enabled
// and falling back to an in-process store for tests and single-process
// deployments.
func MakeKV(ctx context.Context, config *config.Config) (KV, error) {
	if config.Redis.Enabled {
		redisKV, err := makeRedisKV(ctx, config)
		if err != nil {
			return nil, fmt.Errorf("failed to create redis kv: %w", err)
		}
		return redisKV, nil
	}

	return makeInMemoryKV(), nil
}
