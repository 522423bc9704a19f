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

package http

import (
	"context"

	"github.com/lumina-learn/lumina/internal/identity"
)

type contextKey string

const userKey contextKey = "user"

// WithUser stores the authenticated caller on ctx.
func WithUser(ctx context.Context, user identity.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// GetUser retrieves the authenticated caller from context.
func GetUser(ctx context.Context) (identity.User, bool) {
	user, ok := ctx.Value(userKey).(identity.User)
	return user, ok
}

// GetUserID retrieves the authenticated user ID from context.
func GetUserID(ctx context.Context) string {
	if user, ok := GetUser(ctx); ok {
		return user.ID
	}
	return ""
}
