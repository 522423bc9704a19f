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

package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lumina-learn/lumina/internal/audit"
	"github.com/lumina-learn/lumina/internal/observability/logger"
)

// Service exposes the permission catalog.
type Service struct {
	repo        Repository
	auditLogger audit.Logger
}

// NewService creates a new catalog service
func NewService(repo Repository, auditLogger audit.Logger) *Service {
	return &Service{repo: repo, auditLogger: auditLogger}
}

// FindPermissionByKey returns a usable permission. Unknown keys and keys whose
// permission, resource or action is inactive both yield ErrPermissionNotFound.
func (s *Service) FindPermissionByKey(ctx context.Context, key string) (*Permission, error) {
	if _, _, err := ParsePermissionKey(key); err != nil {
		return nil, ErrPermissionNotFound
	}
	p, err := s.repo.GetPermissionByKey(ctx, key)
	if err != nil {
		if errors.Is(err, ErrPermissionNotFound) {
			return nil, ErrPermissionNotFound
		}
		return nil, fmt.Errorf("failed to get permission: %w", err)
	}
	if !p.Usable() {
		return nil, ErrPermissionNotFound
	}
	return p, nil
}

// GetPermission returns a permission by ID, usable or not.
func (s *Service) GetPermission(ctx context.Context, id string) (*Permission, error) {
	p, err := s.repo.GetPermissionByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrPermissionNotFound) {
			return nil, ErrPermissionNotFound
		}
		return nil, fmt.Errorf("failed to get permission: %w", err)
	}
	return p, nil
}

// ListPermissions returns the flat catalog ordered by key.
func (s *Service) ListPermissions(ctx context.Context) ([]*Permission, error) {
	perms, err := s.repo.ListPermissions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list permissions: %w", err)
	}
	perms = sortedPermissions(perms)
	return perms, nil
}

// ListResourceTree returns the resource forest with each node's permissions.
// Inactive resources and permissions are dropped unless includeInactive is set.
func (s *Service) ListResourceTree(ctx context.Context, includeInactive bool) ([]*ResourceNode, error) {
	resources, err := s.repo.ListResources(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list resources: %w", err)
	}
	perms, err := s.repo.ListPermissions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list permissions: %w", err)
	}
	return BuildTree(resources, perms, includeInactive), nil
}

// SetResourceStatus activates or deactivates a resource.
func (s *Service) SetResourceStatus(ctx context.Context, id string, isActive bool, actorID string) error {
	if err := s.repo.SetResourceStatus(ctx, id, isActive); err != nil {
		return s.statusError("resource", err, ErrResourceNotFound)
	}
	s.logStatus(ctx, "resource", id, isActive, actorID)
	return nil
}

// SetActionStatus activates or deactivates an action.
func (s *Service) SetActionStatus(ctx context.Context, id string, isActive bool, actorID string) error {
	if err := s.repo.SetActionStatus(ctx, id, isActive); err != nil {
		return s.statusError("action", err, ErrActionNotFound)
	}
	s.logStatus(ctx, "action", id, isActive, actorID)
	return nil
}

// SetPermissionStatus activates or deactivates a permission.
func (s *Service) SetPermissionStatus(ctx context.Context, id string, isActive bool, actorID string) error {
	if err := s.repo.SetPermissionStatus(ctx, id, isActive); err != nil {
		return s.statusError("permission", err, ErrPermissionNotFound)
	}
	s.logStatus(ctx, "permission", id, isActive, actorID)
	return nil
}

func (s *Service) statusError(kind string, err, notFound error) error {
	if errors.Is(err, notFound) {
		return notFound
	}
	return fmt.Errorf("failed to update %s status: %w", kind, err)
}

func (s *Service) logStatus(ctx context.Context, kind, id string, isActive bool, actorID string) {
	slog.InfoContext(ctx, "catalog entry status changed",
		logger.Component("catalog"),
		slog.String("kind", kind),
		slog.String("id", id),
		slog.Bool("is_active", isActive),
	)
	if s.auditLogger == nil {
		return
	}
	s.auditLogger.Log(ctx, audit.Event{
		Type:      audit.TypeCatalogStatusChanged,
		ActorID:   actorID,
		Resource:  id,
		Metadata:  map[string]any{"kind": kind, "is_active": isActive},
		Timestamp: time.Now(),
	})
}
