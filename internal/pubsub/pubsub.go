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

// Package pubsub carries the hub's per-gateway notification channel (§6).
// The hub client subscribes to its personal channel on registration; nothing
// in the gateway publishes to it, and the watcher does not wake on it but
// reconciles on its ticker alone.
package pubsub

import (
	"context"

	"github.com/rocon-go/gateway/internal/config"
)

// PubSub is the notification-channel contract the hub client depends on.
type PubSub interface {
	Publish(topic string, message []byte) error
	Subscribe(topic string) Subscription
	Close() error
}

// Subscription is a live subscription to a single topic.
type Subscription interface {
	Close() error
	Channel() <-chan []byte
}

// MakePubSub creates a new pub/sub client, backed by Redis when enabled and
// falling back to an in-process implementation otherwise.
func MakePubSub(ctx context.Context, config *config.Config) (PubSub, error) {
	if config.Redis.Enabled {
		return makePubSubFromRedis(ctx, config)
	}
	return makeInMemoryPubSub(), nil
}
