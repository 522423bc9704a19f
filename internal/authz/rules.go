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
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/lumina-learn/lumina/internal/audit"
	"github.com/lumina-learn/lumina/internal/catalog"
	"github.com/lumina-learn/lumina/internal/id"
	"github.com/lumina-learn/lumina/internal/observability/logger"
)

// RuleService manages role permission links and their filter rules.
// Mutations touch a single row; decisions already made are unaffected.
type RuleService struct {
	rules       RuleStore
	roles       RoleRepository
	perms       PermissionLookup
	guard       *Guard
	auditLogger audit.Logger
	now         func() time.Time
}

// NewRuleService creates a new rule service
func NewRuleService(rules RuleStore, roles RoleRepository, perms PermissionLookup, guard *Guard, auditLogger audit.Logger) *RuleService {
	return &RuleService{
		rules:       rules,
		roles:       roles,
		perms:       perms,
		guard:       guard,
		auditLogger: auditLogger,
		now:         time.Now,
	}
}

// CreateRule attaches a new active rule to a role permission link.
func (s *RuleService) CreateRule(ctx context.Context, rolePermissionID string, filterType FilterType, actorID string) (*FilterRule, error) {
	if !filterType.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidFilterType, string(filterType))
	}
	if _, err := s.getRolePermission(ctx, rolePermissionID); err != nil {
		return nil, err
	}

	exists, err := s.rules.HasActiveRule(ctx, rolePermissionID, "")
	if err != nil {
		return nil, fmt.Errorf("failed to check existing rules: %w", err)
	}
	if exists {
		return nil, ErrRuleAlreadyExists
	}

	now := s.now()
	rule := &FilterRule{
		ID:               id.NewUUIDv7(),
		RolePermissionID: rolePermissionID,
		FilterType:       filterType,
		IsActive:         true,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	// the store also enforces uniqueness for concurrent creates
	if err := s.rules.CreateRule(ctx, rule); err != nil {
		if errors.Is(err, ErrRuleAlreadyExists) {
			return nil, ErrRuleAlreadyExists
		}
		return nil, fmt.Errorf("failed to create filter rule: %w", err)
	}

	s.log(ctx, audit.Event{
		Type:     audit.TypeRuleCreated,
		ActorID:  actorID,
		Resource: rule.ID,
		Metadata: map[string]any{
			"role_permission_id": rolePermissionID,
			"filter_type":        string(filterType),
		},
	})
	return rule, nil
}

// UpdateRuleStatus activates or deactivates a rule.
func (s *RuleService) UpdateRuleStatus(ctx context.Context, ruleID string, isActive bool, actorID string) (*FilterRule, error) {
	rule, err := s.getRule(ctx, ruleID)
	if err != nil {
		return nil, err
	}

	if isActive && !rule.IsActive {
		exists, err := s.rules.HasActiveRule(ctx, rule.RolePermissionID, rule.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to check existing rules: %w", err)
		}
		if exists {
			return nil, ErrRuleAlreadyExists
		}
	}

	now := s.now()
	if err := s.rules.UpdateRuleStatus(ctx, ruleID, isActive, now); err != nil {
		switch {
		case errors.Is(err, ErrRuleNotFound), errors.Is(err, ErrRuleAlreadyExists):
			return nil, err
		}
		return nil, fmt.Errorf("failed to update filter rule: %w", err)
	}
	rule.IsActive = isActive
	rule.UpdatedAt = now

	eventType := audit.TypeRuleDeactivated
	if isActive {
		eventType = audit.TypeRuleActivated
	}
	s.log(ctx, audit.Event{
		Type:     eventType,
		ActorID:  actorID,
		Resource: rule.ID,
		Metadata: map[string]any{"role_permission_id": rule.RolePermissionID},
	})
	return rule, nil
}

// DeleteRule soft-deletes a rule. Deleted rules no longer apply and are
// reported as not found afterwards.
func (s *RuleService) DeleteRule(ctx context.Context, ruleID, actorID string) error {
	rule, err := s.getRule(ctx, ruleID)
	if err != nil {
		return err
	}
	if err := s.rules.SoftDeleteRule(ctx, ruleID, s.now()); err != nil {
		if errors.Is(err, ErrRuleNotFound) {
			return err
		}
		return fmt.Errorf("failed to delete filter rule: %w", err)
	}
	s.log(ctx, audit.Event{
		Type:     audit.TypeRuleDeleted,
		ActorID:  actorID,
		Resource: rule.ID,
		Metadata: map[string]any{"role_permission_id": rule.RolePermissionID},
	})
	return nil
}

// ListRulesByRole returns live rules of a role, active or not.
func (s *RuleService) ListRulesByRole(ctx context.Context, roleID string) ([]*RuleView, error) {
	if _, err := s.getRole(ctx, roleID); err != nil {
		return nil, err
	}
	rules, err := s.rules.ListRulesByRole(ctx, roleID)
	if err != nil {
		return nil, fmt.Errorf("failed to list filter rules: %w", err)
	}
	return rules, nil
}

// ListRulesByPermissionKey returns live rules for a key, active or not.
func (s *RuleService) ListRulesByPermissionKey(ctx context.Context, permissionKey string) ([]*RuleView, error) {
	if _, _, err := catalog.ParsePermissionKey(permissionKey); err != nil {
		return nil, err
	}
	rules, err := s.rules.ListRulesByPermissionKey(ctx, permissionKey)
	if err != nil {
		return nil, fmt.Errorf("failed to list filter rules: %w", err)
	}
	return rules, nil
}

// GrantPermission links a permission to a role when the assignment guard allows it.
func (s *RuleService) GrantPermission(ctx context.Context, roleID, permissionID, actorID string) (*RolePermission, error) {
	role, err := s.getRole(ctx, roleID)
	if err != nil {
		return nil, err
	}
	if _, err := s.perms.GetPermissionByID(ctx, permissionID); err != nil {
		if errors.Is(err, catalog.ErrPermissionNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get permission: %w", err)
	}

	allowed, err := s.guard.CanAssign(ctx, role.ID, permissionID)
	if err != nil {
		return nil, err
	}
	if !allowed {
		slog.WarnContext(ctx, "permission assignment rejected",
			logger.Component("authz"),
			logger.RoleID(role.ID),
			logger.PermissionID(permissionID),
		)
		s.log(ctx, audit.Event{
			Type:     audit.TypePermissionGrantDenied,
			ActorID:  actorID,
			Resource: permissionID,
			Metadata: map[string]any{"role_id": role.ID, "role": role.Name},
		})
		return nil, ErrAssignmentForbidden
	}

	now := s.now()
	rp := &RolePermission{
		ID:           id.NewUUIDv7(),
		RoleID:       role.ID,
		PermissionID: permissionID,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.rules.CreateRolePermission(ctx, rp); err != nil {
		return nil, fmt.Errorf("failed to create role permission: %w", err)
	}

	s.log(ctx, audit.Event{
		Type:     audit.TypePermissionGranted,
		ActorID:  actorID,
		Resource: rp.ID,
		Metadata: map[string]any{"role_id": role.ID, "permission_id": permissionID},
	})
	return rp, nil
}

// SetRolePermissionStatus activates or deactivates a grant link. Rules under
// an inactive link do not apply.
func (s *RuleService) SetRolePermissionStatus(ctx context.Context, rolePermissionID string, isActive bool, actorID string) (*RolePermission, error) {
	rp, err := s.getRolePermission(ctx, rolePermissionID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if err := s.rules.SetRolePermissionStatus(ctx, rolePermissionID, isActive, now); err != nil {
		if errors.Is(err, ErrRolePermissionNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update role permission: %w", err)
	}
	rp.IsActive = isActive
	rp.UpdatedAt = now

	s.log(ctx, audit.Event{
		Type:     audit.TypeRolePermissionToggled,
		ActorID:  actorID,
		Resource: rp.ID,
		Metadata: map[string]any{"is_active": isActive},
	})
	return rp, nil
}

// AssignedPermissionIDs returns the permissions a role holds an active link to.
func (s *RuleService) AssignedPermissionIDs(ctx context.Context, roleID string) ([]string, error) {
	if _, err := s.getRole(ctx, roleID); err != nil {
		return nil, err
	}
	ids, err := s.rules.ListAssignedPermissionIDs(ctx, roleID)
	if err != nil {
		return nil, fmt.Errorf("failed to list assigned permissions: %w", err)
	}
	return ids, nil
}

func (s *RuleService) getRule(ctx context.Context, ruleID string) (*FilterRule, error) {
	if strings.TrimSpace(ruleID) == "" {
		return nil, ErrRuleNotFound
	}
	rule, err := s.rules.GetRule(ctx, ruleID)
	if err != nil {
		if errors.Is(err, ErrRuleNotFound) {
			return nil, ErrRuleNotFound
		}
		return nil, fmt.Errorf("failed to get filter rule: %w", err)
	}
	return rule, nil
}

func (s *RuleService) getRolePermission(ctx context.Context, id string) (*RolePermission, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrRolePermissionNotFound
	}
	rp, err := s.rules.GetRolePermission(ctx, id)
	if err != nil {
		if errors.Is(err, ErrRolePermissionNotFound) {
			return nil, ErrRolePermissionNotFound
		}
		return nil, fmt.Errorf("failed to get role permission: %w", err)
	}
	return rp, nil
}

func (s *RuleService) getRole(ctx context.Context, roleID string) (*Role, error) {
	role, err := s.roles.GetByID(ctx, roleID)
	if err != nil {
		if errors.Is(err, ErrRoleNotFound) {
			return nil, ErrRoleNotFound
		}
		return nil, fmt.Errorf("failed to get role: %w", err)
	}
	return role, nil
}

func (s *RuleService) log(ctx context.Context, e audit.Event) {
	if s.auditLogger == nil {
		return
	}
	e.Timestamp = s.now()
	s.auditLogger.Log(ctx, e)
}
