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
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/puzpuzpuz/xsync/v4"
)

func makeInMemoryKV() KV {
	return &inMemoryKV{
		values: xsync.NewMap[string, kvValue](),
		sets:   xsync.NewMap[string, *memSet](),
	}
}

type kvValue struct {
	value []byte
	ttl   time.Time // zero means no expiry
}

func (v kvValue) expired() bool {
	return !v.ttl.IsZero() && v.ttl.Before(time.Now())
}

type memSet struct {
	mu      sync.Mutex
	members [][]byte
}

// inMemoryKV is a single-process stand-in for Redis, used by tests and by
// single-hub deployments that don't want an external dependency.
type inMemoryKV struct {
	values *xsync.Map[string, kvValue]
	sets   *xsync.Map[string, *memSet]
}

func (kv *inMemoryKV) Has(_ context.Context, key string) (bool, error) {
	v, ok := kv.values.Load(key)
	if !ok {
		return false, nil
	}
	if v.expired() {
		kv.values.Delete(key)
		return false, nil
	}
	return true, nil
}

func (kv *inMemoryKV) Get(_ context.Context, key string) ([]byte, error) {
	v, ok := kv.values.Load(key)
	if !ok {
		return nil, fmt.Errorf("key %s not found", key)
	}
	if v.expired() {
		kv.values.Delete(key)
		return nil, fmt.Errorf("key %s has expired", key)
	}
	return v.value, nil
}

func (kv *inMemoryKV) Set(_ context.Context, key string, value []byte) error {
	kv.values.Store(key, kvValue{value: value})
	return nil
}

func (kv *inMemoryKV) Delete(_ context.Context, key string) error {
	kv.values.Delete(key)
	kv.sets.Delete(key)
	return nil
}

func (kv *inMemoryKV) Expire(_ context.Context, key string, ttl time.Duration) error {
	v, ok := kv.values.Load(key)
	if !ok {
		return fmt.Errorf("key %s not found", key)
	}
	if ttl <= 0 {
		kv.values.Delete(key)
		return nil
	}
	v.ttl = time.Now().Add(ttl)
	kv.values.Store(key, v)
	return nil
}

// Scan walks both the scalar-value and set-backed keyspaces, since Redis
// SCAN sees a single keyspace regardless of value type but this store keeps
// them in two maps. match is a Redis-style glob ("*" and "?" wildcards).
func (kv *inMemoryKV) Scan(_ context.Context, _ uint64, match string, _ int64) ([]string, uint64, error) {
	pattern := compileGlob(match)
	keys := make([]string, 0)
	kv.values.Range(func(key string, value kvValue) bool {
		if value.expired() {
			kv.values.Delete(key)
			return true
		}
		if pattern == nil || pattern.MatchString(key) {
			keys = append(keys, key)
		}
		return true
	})
	kv.sets.Range(func(key string, _ *memSet) bool {
		if pattern == nil || pattern.MatchString(key) {
			keys = append(keys, key)
		}
		return true
	})
	return keys, 0, nil
}

// compileGlob turns a Redis-style glob pattern ("*" any run, "?" one rune)
// into a regexp. An empty pattern matches everything, matching SCAN's
// behavior with no MATCH clause.
func compileGlob(match string) *regexp.Regexp {
	if match == "" {
		return nil
	}
	var b strings.Builder
	b.WriteString("^")
	for _, r := range match {
		switch r {
		case '*':
			b.WriteString(".*")
		case '?':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString("$")
	return regexp.MustCompile(b.String())
}

func (kv *inMemoryKV) setFor(key string) *memSet {
	s, _ := kv.sets.LoadOrStore(key, &memSet{})
	return s
}

func (kv *inMemoryKV) SAdd(_ context.Context, key string, member []byte) error {
	s := kv.setFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.members {
		if bytes.Equal(m, member) {
			return nil
		}
	}
	s.members = append(s.members, member)
	return nil
}

func (kv *inMemoryKV) SRem(_ context.Context, key string, member []byte) error {
	s, ok := kv.sets.Load(key)
	if !ok {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, m := range s.members {
		if bytes.Equal(m, member) {
			s.members = append(s.members[:i], s.members[i+1:]...)
			break
		}
	}
	return nil
}

func (kv *inMemoryKV) SMembers(_ context.Context, key string) ([][]byte, error) {
	s, ok := kv.sets.Load(key)
	if !ok {
		return nil, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]byte, len(s.members))
	copy(out, s.members)
	return out, nil
}

func (kv *inMemoryKV) SIsMember(_ context.Context, key string, member []byte) (bool, error) {
	s, ok := kv.sets.Load(key)
	if !ok {
		return false, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.members {
		if bytes.Equal(m, member) {
			return true, nil
		}
	}
	return false, nil
}

func (kv *inMemoryKV) Close() error {
	return nil
}
