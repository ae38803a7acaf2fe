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

package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/USA-RedDragon/configulator"
	"github.com/go-co-op/gocron/v2"
	"github.com/lmittmann/tint"
	"github.com/rocon-go/gateway/internal/adapter"
	"github.com/rocon-go/gateway/internal/config"
	"github.com/rocon-go/gateway/internal/engine"
	"github.com/rocon-go/gateway/internal/http"
	"github.com/rocon-go/gateway/internal/kv"
	"github.com/rocon-go/gateway/internal/metrics"
	"github.com/rocon-go/gateway/internal/pubsub"
	"github.com/rocon-go/gateway/internal/watcher"
	"github.com/spf13/cobra"
	"github.com/ztrue/shutdown"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// directoryCachePruneAge is how long a remote gateway's cached directory
// entry survives without a fresh read before the daily job drops it.
const directoryCachePruneAge = 24 * time.Hour

// NewCommand builds the gateway process's root command.
func NewCommand(version, commit string) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "gateway",
		Version: fmt.Sprintf("%s - %s", version, commit),
		Annotations: map[string]string{
			"version": version,
			"commit":  commit,
		},
		RunE:              runRoot,
		SilenceErrors:     true,
		DisableAutoGenTag: true,
	}
	return cmd
}

func runRoot(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	fmt.Printf("gateway - %s (%s)\n", cmd.Annotations["version"], cmd.Annotations["commit"])

	c, err := configulator.FromContext[config.Config](ctx)
	if err != nil {
		return fmt.Errorf("failed to get config from context: %w", err)
	}

	cfg, err := c.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	var logger *slog.Logger
	switch cfg.LogLevel {
	case config.LogLevelDebug:
		logger = slog.New(tint.NewHandler(os.Stdout, &tint.Options{Level: slog.LevelDebug}))
	case config.LogLevelInfo:
		logger = slog.New(tint.NewHandler(os.Stdout, &tint.Options{Level: slog.LevelInfo}))
	case config.LogLevelWarn:
		logger = slog.New(tint.NewHandler(os.Stderr, &tint.Options{Level: slog.LevelWarn}))
	case config.LogLevelError:
		logger = slog.New(tint.NewHandler(os.Stderr, &tint.Options{Level: slog.LevelError}))
	default:
		logger = slog.New(tint.NewHandler(os.Stdout, &tint.Options{Level: slog.LevelInfo}))
	}
	slog.SetDefault(logger)

	var cleanup func(context.Context) error
	if cfg.Metrics.OTLPEndpoint != "" {
		cleanup = initTracer(cfg)
		defer func() {
			const timeout = 5 * time.Second
			shutdownCtx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()
			if err := cleanup(shutdownCtx); err != nil {
				slog.Error("failed to shut down tracer", "error", err)
			}
		}()
	}

	kvStore, err := kv.MakeKV(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to key-value store: %w", err)
	}

	ps, err := pubsub.MakePubSub(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to pubsub: %w", err)
	}

	// The local-namespace adapter is explicitly out of scope (§2.2 of the
	// federation spec this process implements): production deployments own
	// a namespace-specific LocalMaster (a ROS master proxy, a mesh sidecar,
	// whatever they're federating) and wire it in here. Until one is
	// plugged in, the bundled Fake keeps the gateway runnable standalone
	// with an empty local namespace.
	localAdapter := adapter.NewFake(fmt.Sprintf("gateway://%s", cfg.Gateway.Name))

	eng := engine.New(cfg, localAdapter)

	for _, hub := range cfg.Hubs {
		ok, msg, err := eng.ConnectHub(ctx, hub.Host, hub.Port)
		if err != nil {
			return fmt.Errorf("failed to connect to hub %s: %w", hub.Address(), err)
		}
		if !ok {
			slog.Warn("hub connect declined", "hub", hub.Address(), "reason", msg)
			continue
		}
		slog.Info("connected to hub", "hub", hub.Address())
	}

	gatewayMetrics := metrics.NewMetrics()
	go func() {
		if err := metrics.CreateMetricsServer(cfg); err != nil {
			slog.Error("metrics server stopped", "error", err)
		}
	}()

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}
	_, err = scheduler.NewJob(
		gocron.DailyJob(1, gocron.NewAtTimes(gocron.NewAtTime(3, 0, 0))),
		gocron.NewTask(func() {
			pruned := eng.PruneDirectoryCacheOlderThan(directoryCachePruneAge, time.Now())
			if pruned > 0 {
				slog.Info("pruned stale remote gateway directory cache entries", "count", pruned)
			}
		}),
	)
	if err != nil {
		slog.Error("failed to schedule directory cache prune job", "error", err)
	}
	scheduler.Start()

	w := watcher.New(eng, cfg.Watcher.TickRate).WithMetrics(gatewayMetrics)
	watcherCtx, cancelWatcher := context.WithCancel(ctx)
	go w.Run(watcherCtx)

	httpServer := http.MakeServer(cfg, eng)
	go func() {
		if err := httpServer.Start(); err != nil {
			slog.Error("http server stopped", "error", err)
		}
	}()

	stop := func(sig os.Signal) {
		slog.Warn("shutting down due to signal", "signal", sig)
		wg := new(sync.WaitGroup)

		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := scheduler.Shutdown(); err != nil {
				slog.Error("failed to stop scheduler", "error", err)
			}
		}()

		wg.Add(1)
		go func() {
			defer wg.Done()
			cancelWatcher()
		}()

		wg.Add(1)
		go func() {
			defer wg.Done()
			httpServer.Stop()
		}()

		wg.Add(1)
		go func() {
			defer wg.Done()
			for _, hub := range eng.Hubs() {
				host, portStr, err := net.SplitHostPort(hub.Addr)
				if err != nil {
					continue
				}
				port, err := strconv.Atoi(portStr)
				if err != nil {
					continue
				}
				if _, _, err := eng.DisconnectHub(ctx, host, port); err != nil {
					slog.Warn("failed to cleanly unregister from hub", "hub", hub.Addr, "error", err)
				}
			}
		}()

		const timeout = 10 * time.Second
		done := make(chan struct{})
		go func() {
			defer close(done)
			wg.Wait()
		}()
		select {
		case <-done:
			if err := ps.Close(); err != nil {
				slog.Error("failed to close pubsub", "error", err)
			}
			if err := kvStore.Close(); err != nil {
				slog.Error("failed to close kv store", "error", err)
			}
			slog.Info("shutdown completed")
			os.Exit(0)
		case <-time.After(timeout):
			slog.Error("shutdown timed out")
			os.Exit(1)
		}
	}
	defer stop(syscall.SIGINT)

	shutdown.AddWithParam(stop)
	shutdown.Listen(syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, syscall.SIGHUP)

	return nil
}

func initTracer(cfg *config.Config) func(context.Context) error {
	exporter, err := otlptrace.New(
		context.Background(),
		otlptracegrpc.NewClient(
			otlptracegrpc.WithInsecure(),
			otlptracegrpc.WithEndpoint(cfg.Metrics.OTLPEndpoint),
		),
	)
	if err != nil {
		slog.Error("failed tracing gateway", "error", err)
	}
	resources, err := resource.New(
		context.Background(),
		resource.WithAttributes(
			attribute.String("service.name", "gateway"),
			attribute.String("library.language", "go"),
		),
	)
	if err != nil {
		slog.Error("could not set tracer resources", "error", err)
	}

	otel.SetTracerProvider(
		sdktrace.NewTracerProvider(
			sdktrace.WithSampler(sdktrace.AlwaysSample()),
			sdktrace.WithBatcher(exporter),
			sdktrace.WithResource(resources),
		),
	)
	return exporter.Shutdown
}
