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

package http_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rocon-go/gateway/internal/adapter"
	"github.com/rocon-go/gateway/internal/config"
	"github.com/rocon-go/gateway/internal/connection"
	"github.com/rocon-go/gateway/internal/engine"
	gatewayhttp "github.com/rocon-go/gateway/internal/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{Gateway: config.Gateway{Name: "gateway1"}}
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestAdvertiseUnadvertiseRoundTrip(t *testing.T) {
	t.Parallel()
	eng := engine.New(testConfig(), adapter.NewFake("http://local:1"))
	router := gatewayhttp.NewRouter(testConfig(), eng)

	body := map[string]any{
		"rules": []map[string]string{
			{"type": "publisher", "name_pattern": "/chatter", "node_pattern": ".*"},
		},
	}
	rec := doJSON(t, router, http.MethodPost, "/api/v1/gateway/advertise", body)
	assert.Equal(t, http.StatusOK, rec.Code)

	assert.Len(t, eng.Public().Rules().Whitelist, 1)

	rec = doJSON(t, router, http.MethodDelete, "/api/v1/gateway/advertise", body)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, eng.Public().Rules().Whitelist)
}

func TestAdvertiseRejectsUnknownConnectionType(t *testing.T) {
	t.Parallel()
	eng := engine.New(testConfig(), adapter.NewFake("http://local:1"))
	router := gatewayhttp.NewRouter(testConfig(), eng)

	body := map[string]any{
		"rules": []map[string]string{
			{"type": "bogus", "name_pattern": "/chatter", "node_pattern": ".*"},
		},
	}
	rec := doJSON(t, router, http.MethodPost, "/api/v1/gateway/advertise", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFlipUnflipRoundTrip(t *testing.T) {
	t.Parallel()
	eng := engine.New(testConfig(), adapter.NewFake("http://local:1"))
	router := gatewayhttp.NewRouter(testConfig(), eng)

	body := map[string]any{
		"rules": []map[string]any{
			{
				"target_gateway": "gateway2",
				"rule":           map[string]string{"type": "publisher", "name_pattern": "/chatter", "node_pattern": ".*"},
			},
		},
	}
	rec := doJSON(t, router, http.MethodPost, "/api/v1/gateway/flip", body)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, eng.Flipped().Rules(), 1)

	rec = doJSON(t, router, http.MethodDelete, "/api/v1/gateway/flip", body)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, eng.Flipped().Rules())
}

func TestPullUnpullRoundTrip(t *testing.T) {
	t.Parallel()
	eng := engine.New(testConfig(), adapter.NewFake("http://local:1"))
	router := gatewayhttp.NewRouter(testConfig(), eng)

	body := map[string]any{
		"rules": []map[string]any{
			{
				"target_gateway": "gateway2",
				"rule":           map[string]string{"type": "subscriber", "name_pattern": "/odom", "node_pattern": ".*"},
			},
		},
	}
	rec := doJSON(t, router, http.MethodPost, "/api/v1/gateway/pull", body)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, eng.Pulled().Rules(), 1)

	rec = doJSON(t, router, http.MethodDelete, "/api/v1/gateway/pull", body)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, eng.Pulled().Rules())
}

func TestFlipAllUnknownModeReturnsConflict(t *testing.T) {
	t.Parallel()
	eng := engine.New(testConfig(), adapter.NewFake("http://local:1"))
	router := gatewayhttp.NewRouter(testConfig(), eng)

	body := map[string]any{"targets": []string{"gateway2"}, "mode": "not_a_real_mode"}
	rec := doJSON(t, router, http.MethodPost, "/api/v1/gateway/flip-all", body)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestFlipAllPublicMode(t *testing.T) {
	t.Parallel()
	eng := engine.New(testConfig(), adapter.NewFake("http://local:1"))
	router := gatewayhttp.NewRouter(testConfig(), eng)

	body := map[string]any{"targets": []string{"gateway2", "gateway3"}, "mode": "flip_all_public"}
	rec := doJSON(t, router, http.MethodPost, "/api/v1/gateway/flip-all", body)
	assert.Equal(t, http.StatusOK, rec.Code)
	// One wildcard rule per connection type per target.
	assert.Len(t, eng.Flipped().Rules(), 2*len(connection.AllConnectionTypes))
}

func TestMakeAllPublicRoundTrip(t *testing.T) {
	t.Parallel()
	eng := engine.New(testConfig(), adapter.NewFake("http://local:1"))
	router := gatewayhttp.NewRouter(testConfig(), eng)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/gateway/public/all", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodDelete, "/api/v1/gateway/public/all", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGatewayInfo(t *testing.T) {
	t.Parallel()
	eng := engine.New(testConfig(), adapter.NewFake("http://local:1"))
	router := gatewayhttp.NewRouter(testConfig(), eng)

	rec := doJSON(t, router, http.MethodGet, "/api/v1/gateway/info", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	var snapshot engine.GatewaySnapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snapshot))
	assert.Equal(t, "gateway1", snapshot.Name)
}

func TestRemoteGatewayInfoNotFound(t *testing.T) {
	t.Parallel()
	eng := engine.New(testConfig(), adapter.NewFake("http://local:1"))
	router := gatewayhttp.NewRouter(testConfig(), eng)

	rec := doJSON(t, router, http.MethodGet, "/api/v1/gateway/remote/unknown_gateway", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestConnectionGraph(t *testing.T) {
	t.Parallel()
	eng := engine.New(testConfig(), adapter.NewFake("http://local:1"))
	router := gatewayhttp.NewRouter(testConfig(), eng)

	rec := doJSON(t, router, http.MethodGet, "/api/v1/gateway/graph", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	var decoded struct {
		Edges []engine.GraphEdge `json:"edges"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	assert.Empty(t, decoded.Edges)
}

func TestDisconnectUnknownHubReturnsConflict(t *testing.T) {
	t.Parallel()
	eng := engine.New(testConfig(), adapter.NewFake("http://local:1"))
	router := gatewayhttp.NewRouter(testConfig(), eng)

	rec := doJSON(t, router, http.MethodDelete, "/api/v1/gateway/hubs/localhost:9999", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestDisconnectHubBadIDReturnsBadRequest(t *testing.T) {
	t.Parallel()
	eng := engine.New(testConfig(), adapter.NewFake("http://local:1"))
	router := gatewayhttp.NewRouter(testConfig(), eng)

	rec := doJSON(t, router, http.MethodDelete, "/api/v1/gateway/hubs/not-a-hostport", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRateLimitTriggersTooManyRequests(t *testing.T) {
	t.Parallel()
	eng := engine.New(testConfig(), adapter.NewFake("http://local:1"))
	router := gatewayhttp.NewRouter(testConfig(), eng)

	var last *httptest.ResponseRecorder
	const burst = 25
	for i := 0; i < burst; i++ {
		last = doJSON(t, router, http.MethodPost, "/api/v1/gateway/public/all", nil)
		if last.Code == http.StatusTooManyRequests {
			break
		}
	}
	assert.Equal(t, http.StatusTooManyRequests, last.Code)
}
