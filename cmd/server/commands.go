// Copyright 2026 The Lumina Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/lumina-learn/lumina/internal/config"
	"github.com/lumina-learn/lumina/internal/identity"
	"github.com/lumina-learn/lumina/internal/observability/logger"
	"github.com/lumina-learn/lumina/internal/observability/metrics"
	"github.com/lumina-learn/lumina/internal/observability/tracing"
	transportHTTP "github.com/lumina-learn/lumina/internal/transport/http"
	"github.com/urfave/cli/v3"
)

func runServe(ctx context.Context, cmd *cli.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	defer initLogging(cfg)()
	slog.Info("starting lumina authorization service")

	tracer, err := tracing.New(ctx, tracing.Config{
		Enabled:        cfg.Observability.OTELEnabled,
		ServiceName:    cfg.Observability.ServiceName,
		ServiceVersion: cfg.Observability.ServiceVersion,
		SamplingRate:   1.0,
	})
	if err != nil {
		slog.Error("failed to initialize tracer", logger.Error(err))
	} else {
		defer tracer.Shutdown(context.WithoutCancel(ctx))
	}

	meter, err := metrics.New(ctx, metrics.Config{
		Enabled: cfg.Observability.OTELEnabled,
	}, cfg.Observability.ServiceName)
	if err != nil {
		slog.Error("failed to initialize meter", logger.Error(err))
	}

	svc, err := newServices(ctx, cfg, meter, cmd.Bool("migrate"))
	if err != nil {
		return err
	}
	defer svc.Close()

	rateLimiter := transportHTTP.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
	defer rateLimiter.Stop()

	handler := transportHTTP.NewHandler(
		svc.engine,
		svc.rules,
		svc.guard,
		svc.catalog,
		svc.courses,
		identity.NewTokenVerifier(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer),
	)

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      transportHTTP.NewRouter(handler, rateLimiter),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("starting http server", logger.Component("server"), logger.Operation("listen"), slog.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
	}

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", logger.Error(err))
		return err
	}
	slog.Info("server stopped")
	return nil
}

func runMigrate(ctx context.Context, cmd *cli.Command) error {
	cfg, err := config.LoadDatabase()
	if err != nil {
		return err
	}
	defer initLogging(cfg)()

	if cfg.Database.Driver != "postgres" {
		return fmt.Errorf("migrate requires DB_DRIVER=postgres, got %q", cfg.Database.Driver)
	}

	db, err := openDatabase(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		return err
	}
	version, err := db.MigrationVersion(ctx)
	if err != nil {
		return err
	}
	slog.Info("database migrated", logger.Component("postgres"), slog.Int64("version", version))
	return nil
}

func runSeedCheck(ctx context.Context, cmd *cli.Command) error {
	cfg, err := config.LoadDatabase()
	if err != nil {
		return err
	}
	defer initLogging(cfg)()

	svc, err := newServices(ctx, cfg, nil, false)
	if err != nil {
		return err
	}
	defer svc.Close()

	user := identity.User{ID: cmd.String("user"), Role: cmd.String("role")}
	return seedCheck(ctx, cmd.Root().Writer, svc, user, cmd.StringSlice("key"))
}

func seedCheck(ctx context.Context, w io.Writer, svc *services, user identity.User, keys []string) error {
	if w == nil {
		w = os.Stdout
	}
	for _, key := range keys {
		res, err := svc.engine.EvaluatePermission(ctx, user, key)
		if err != nil {
			return fmt.Errorf("failed to evaluate %s: %w", key, err)
		}
		fmt.Fprintf(w, "role=%s key=%s has_permission=%t effective_filter=%s\n",
			user.Role, key, res.HasPermission, res.EffectiveFilter)
	}
	return nil
}
