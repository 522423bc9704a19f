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
	"sync"

	"github.com/lumina-learn/lumina/internal/identity"
)

// Decision is the outcome of one permission evaluation for one user.
type Decision struct {
	User          identity.User
	PermissionKey string
	Filter        EffectiveFilter
}

// Allowed reports whether the decision grants any access.
func (d Decision) Allowed() bool {
	return d.Filter.Allowed()
}

// DecisionContext holds the current decision for a single request. It must
// not be shared across requests; pass the Decision value to other goroutines.
type DecisionContext struct {
	mu       sync.Mutex
	decision Decision
	set      bool
}

func (c *DecisionContext) Set(d Decision) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.decision = d
	c.set = true
}

func (c *DecisionContext) Get() (Decision, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.decision, c.set
}

func (c *DecisionContext) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.decision = Decision{}
	c.set = false
}

type contextKey string

const decisionContextKey contextKey = "authz_decision_context"

// WithDecisionContext returns a child context carrying a fresh, empty holder.
func WithDecisionContext(ctx context.Context) (context.Context, *DecisionContext) {
	holder := &DecisionContext{}
	return context.WithValue(ctx, decisionContextKey, holder), holder
}

// DecisionContextFrom returns the holder installed on ctx, if any.
func DecisionContextFrom(ctx context.Context) (*DecisionContext, bool) {
	holder, ok := ctx.Value(decisionContextKey).(*DecisionContext)
	return holder, ok && holder != nil
}

// CurrentDecision returns the decision currently held on ctx.
func CurrentDecision(ctx context.Context) (Decision, bool) {
	holder, ok := DecisionContextFrom(ctx)
	if !ok {
		return Decision{}, false
	}
	return holder.Get()
}

// Acquire sets d as the current decision and returns a release func that
// restores whatever was held before. Release is idempotent. When ctx has no
// holder a new one is installed on the returned context.
func Acquire(ctx context.Context, d Decision) (context.Context, func()) {
	holder, ok := DecisionContextFrom(ctx)
	if !ok {
		ctx, holder = WithDecisionContext(ctx)
	}
	prev, hadPrev := holder.Get()
	holder.Set(d)

	var once sync.Once
	return ctx, func() {
		once.Do(func() {
			if hadPrev {
				holder.Set(prev)
				return
			}
			holder.Clear()
		})
	}
}
