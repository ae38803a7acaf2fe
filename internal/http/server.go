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

package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/rocon-go/gateway/internal/config"
	"github.com/rocon-go/gateway/internal/engine"
	"golang.org/x/sync/errgroup"
)

const (
	readTimeout     = 10 * time.Second
	writeTimeout    = 10 * time.Second
	shutdownTimeout = 5 * time.Second
)

var (
	ErrClosed = errors.New("server closed")
	ErrFailed = errors.New("failed to start server")
)

// Server wraps the operator RPC surface's http.Server, following the
// teacher's Start/Stop/shutdownChannel convention.
type Server struct {
	*http.Server
	shutdownChannel chan bool
}

// MakeServer builds (but does not start) the operator RPC surface.
func MakeServer(cfg *config.Config, eng *engine.Engine) Server {
	r := NewRouter(cfg, eng)
	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Bind, cfg.HTTP.Port)
	s := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	}
	s.SetKeepAlivesEnabled(false)
	return Server{Server: s, shutdownChannel: make(chan bool)}
}

// Start runs the server until it stops or fails to bind.
func (s *Server) Start() error {
	g := new(errgroup.Group)
	g.Go(func() error {
		slog.Info("http: listening", "addr", s.Addr)
		err := s.ListenAndServe()
		if err != nil {
			if errors.Is(err, http.ErrServerClosed) {
				s.shutdownChannel <- true
				return ErrClosed
			}
			slog.Error("http: failed to start server", "error", err)
			return ErrFailed
		}
		return nil
	})
	if err := g.Wait(); err != nil && !errors.Is(err, ErrClosed) {
		return err
	}
	return nil
}

// Stop gracefully shuts the server down, waiting for Start's goroutine to
// observe ErrServerClosed.
func (s *Server) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		slog.Error("http: failed to shut down cleanly", "error", err)
		return
	}
	<-s.shutdownChannel
}
