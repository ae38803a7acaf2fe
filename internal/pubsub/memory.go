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
	"sync"
	"sync/atomic"

	"github.com/puzpuzpuz/xsync/v4"
)

func makeInMemoryPubSub() PubSub {
	return &inMemoryPubSub{
		topics: xsync.NewMap[string, *topicSubscribers](),
	}
}

type topicSubscribers struct {
	mu   sync.Mutex
	subs map[int64]chan []byte
}

type inMemoryPubSub struct {
	topics *xsync.Map[string, *topicSubscribers]
	nextID atomic.Int64
}

func (ps *inMemoryPubSub) topicFor(topic string) *topicSubscribers {
	t, _ := ps.topics.LoadOrStore(topic, &topicSubscribers{subs: make(map[int64]chan []byte)})
	return t
}

func (ps *inMemoryPubSub) Publish(topic string, message []byte) error {
	t, ok := ps.topics.Load(topic)
	if !ok {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, ch := range t.subs {
		select {
		case ch <- message:
		default:
			// Slow subscriber; drop rather than block the publisher, matching
			// the hub's fire-and-forget notification semantics.
		}
	}
	return nil
}

func (ps *inMemoryPubSub) Subscribe(topic string) Subscription {
	t := ps.topicFor(topic)
	id := ps.nextID.Add(1)
	ch := make(chan []byte, 16)

	t.mu.Lock()
	t.subs[id] = ch
	t.mu.Unlock()

	return &inMemorySubscription{topic: t, id: id, ch: ch}
}

func (ps *inMemoryPubSub) Close() error {
	return nil
}

type inMemorySubscription struct {
	topic *topicSubscribers
	id    int64
	ch    chan []byte
}

func (s *inMemorySubscription) Close() error {
	s.topic.mu.Lock()
	delete(s.topic.subs, s.id)
	s.topic.mu.Unlock()
	close(s.ch)
	return nil
}

func (s *inMemorySubscription) Channel() <-chan []byte {
	return s.ch
}
