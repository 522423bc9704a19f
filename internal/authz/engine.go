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

package authz

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lumina-learn/lumina/internal/identity"
	"github.com/lumina-learn/lumina/internal/observability/logger"
	"github.com/lumina-learn/lumina/internal/observability/metrics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/lumina-learn/lumina/internal/authz"

// Result is the answer to an authorization question.
type Result struct {
	HasPermission   bool            `json:"has_permission"`
	EffectiveFilter EffectiveFilter `json:"effective_filter"`
}

// Engine resolves effective filters from the rule store.
type Engine struct {
	rules       RuleStore
	tracer      trace.Tracer
	instruments *metrics.AuthzInstruments
}

// NewEngine creates a new authorization engine. A nil meter disables metrics.
func NewEngine(rules RuleStore, meter *metrics.Meter) (*Engine, error) {
	instruments, err := meter.NewAuthzInstruments()
	if err != nil {
		return nil, fmt.Errorf("failed to create authz instruments: %w", err)
	}
	return &Engine{
		rules:       rules,
		tracer:      otel.Tracer(tracerName),
		instruments: instruments,
	}, nil
}

// EvaluatePermission resolves the effective filter for user and key.
// Unknown keys and users without a role resolve to Denied. Only store
// failures are returned as errors, wrapped with ErrStoreUnavailable.
func (e *Engine) EvaluatePermission(ctx context.Context, user identity.User, permissionKey string) (Result, error) {
	ctx, span := e.tracer.Start(ctx, "authz.EvaluatePermission", trace.WithAttributes(
		attribute.String("authz.permission_key", permissionKey),
		attribute.String("authz.role", user.Role),
	))
	defer span.End()
	start := time.Now()

	filter := Denied
	if user.Role != "" && permissionKey != "" {
		types, err := e.rules.FindActiveRulesFor(ctx, user, permissionKey)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "rule lookup failed")
			slog.ErrorContext(ctx, "failed to load filter rules",
				logger.Component("authz"),
				logger.UserID(user.ID),
				logger.PermissionKey(permissionKey),
				logger.Error(err),
			)
			return Result{}, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
		}
		filter = Reduce(types)
	}

	span.SetAttributes(attribute.String("authz.effective_filter", filter.String()))
	e.record(ctx, filter, time.Since(start))

	slog.DebugContext(ctx, "permission evaluated",
		logger.Component("authz"),
		logger.UserID(user.ID),
		logger.Role(user.Role),
		logger.PermissionKey(permissionKey),
		logger.EffectiveFilter(filter.String()),
	)

	return Result{HasPermission: filter.Allowed(), EffectiveFilter: filter}, nil
}

func (e *Engine) record(ctx context.Context, filter EffectiveFilter, elapsed time.Duration) {
	attrs := metric.WithAttributes(attribute.String("effective_filter", filter.String()))
	e.instruments.Decisions.Add(ctx, 1, attrs)
	e.instruments.Latency.Record(ctx, float64(elapsed.Microseconds())/1000, attrs)
}

// HasPermission reports whether user holds key at any scope.
func (e *Engine) HasPermission(ctx context.Context, user identity.User, permissionKey string) (bool, error) {
	res, err := e.EvaluatePermission(ctx, user, permissionKey)
	if err != nil {
		return false, err
	}
	return res.HasPermission, nil
}

// GetEffectiveFilter returns the scope user holds for key.
func (e *Engine) GetEffectiveFilter(ctx context.Context, user identity.User, permissionKey string) (EffectiveFilter, error) {
	res, err := e.EvaluatePermission(ctx, user, permissionKey)
	if err != nil {
		return Denied, err
	}
	return res.EffectiveFilter, nil
}

// Authorize evaluates key for user, makes the decision current for the
// duration of fn and restores the previous decision when fn returns or
// panics. Denied decisions are still passed to fn.
func (e *Engine) Authorize(ctx context.Context, user identity.User, permissionKey string, fn func(ctx context.Context, d Decision) error) error {
	res, err := e.EvaluatePermission(ctx, user, permissionKey)
	if err != nil {
		return err
	}
	d := Decision{User: user, PermissionKey: permissionKey, Filter: res.EffectiveFilter}
	ctx, release := Acquire(ctx, d)
	defer release()
	return fn(ctx, d)
}
