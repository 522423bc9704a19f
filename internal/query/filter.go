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

package query

import (
	"context"
	"log/slog"

	"github.com/lumina-learn/lumina/internal/authz"
	"github.com/lumina-learn/lumina/internal/observability/logger"
)

// Ownership names the column holding a row's owner ID.
type Ownership struct {
	Column string
}

// Entity describes how to scope one record type.
type Entity[T any] struct {
	Table     string
	Ownership Ownership
	OwnerOf   func(T) string
}

// ApplyFilter ANDs the current decision's scope onto sel. ALL adds nothing,
// OWN restricts the ownership column to the deciding user, and a denied or
// missing decision restricts the statement to no rows.
func ApplyFilter(ctx context.Context, sel *Select, own Ownership) *Select {
	d, ok := authz.CurrentDecision(ctx)
	if !ok {
		slog.DebugContext(ctx, "no decision in context, denying query",
			logger.Component("query"),
			slog.String("table", sel.Table()),
		)
		return sel.Deny()
	}

	switch d.Filter {
	case authz.All:
		return sel
	case authz.Own:
		if d.User.ID == "" || own.Column == "" {
			return sel.Deny()
		}
		return sel.Where(Eq(own.Column, d.User.ID))
	default:
		return sel.Deny()
	}
}

// Allows applies the current decision to a single loaded row.
func Allows[T any](ctx context.Context, e Entity[T], row T) bool {
	d, ok := authz.CurrentDecision(ctx)
	if !ok {
		return false
	}
	switch d.Filter {
	case authz.All:
		return true
	case authz.Own:
		return d.User.ID != "" && e.OwnerOf != nil && e.OwnerOf(row) == d.User.ID
	default:
		return false
	}
}
