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

package audit

import (
	"context"
	"log/slog"
	"strings"
	"time"
)

const (
	TypeRuleCreated           = "filter_rule_created"
	TypeRuleActivated         = "filter_rule_activated"
	TypeRuleDeactivated       = "filter_rule_deactivated"
	TypeRuleDeleted           = "filter_rule_deleted"
	TypePermissionGranted     = "role_permission_granted"
	TypePermissionGrantDenied = "role_permission_grant_denied"
	TypeRolePermissionToggled = "role_permission_toggled"
	TypeAssignRuleCreated     = "assign_rule_created"
	TypeAssignRuleToggled     = "assign_rule_toggled"
	TypeCatalogStatusChanged  = "catalog_status_changed"
)

// Event is one administrative change to authorization data.
type Event struct {
	Type      string
	ActorID   string
	Resource  string
	Metadata  map[string]any
	Timestamp time.Time
}

type Logger interface {
	Log(ctx context.Context, event Event)
}

type SlogLogger struct{}

func NewSlogLogger() *SlogLogger {
	return &SlogLogger{}
}

func (l *SlogLogger) Log(ctx context.Context, event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	attrs := []any{
		slog.String("audit_type", event.Type),
		slog.String("actor_id", event.ActorID),
		slog.String("resource", event.Resource),
		slog.Time("timestamp", event.Timestamp),
	}

	if len(event.Metadata) > 0 {
		group := []any{}
		for k, v := range event.Metadata {
			if isSecret(k) {
				v = "[REDACTED]"
			}
			group = append(group, slog.Any(k, v))
		}
		attrs = append(attrs, slog.Group("metadata", group...))
	}

	slog.InfoContext(ctx, "AUDIT_EVENT", append(attrs, slog.String("component", "audit"))...)
}

var secretFragments = []string{"password", "secret", "token", "key", "authorization", "credential", "hash"}

// isSecret matches metadata keys that may carry credentials. Identifier keys
// such as "role_id" or "permission_key" are exempt.
func isSecret(key string) bool {
	k := strings.ToLower(key)
	if strings.HasSuffix(k, "_id") || k == "permission_key" {
		return false
	}
	for _, s := range secretFragments {
		if strings.Contains(k, s) {
			return true
		}
	}
	return false
}
