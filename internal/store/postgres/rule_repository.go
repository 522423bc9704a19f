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

package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/lumina-learn/lumina/internal/authz"
	"github.com/lumina-learn/lumina/internal/catalog"
	"github.com/lumina-learn/lumina/internal/id"
	"github.com/lumina-learn/lumina/internal/identity"
)

// RuleRepository implements authz.RuleStore
type RuleRepository struct {
	db *DB
}

// NewRuleRepository creates a new filter rule repository
func NewRuleRepository(db *DB) *RuleRepository {
	return &RuleRepository{db: db}
}

// FindActiveRulesFor returns the filter types of every applicable rule.
// Every active flag on the join path must hold.
func (r *RuleRepository) FindActiveRulesFor(ctx context.Context, user identity.User, permissionKey string) ([]authz.FilterType, error) {
	rows, err := r.db.pool.Query(ctx, `
		SELECT fr.filter_type
		FROM filter_rules fr
		JOIN role_permissions rp ON rp.id = fr.role_permission_id
		JOIN roles ro ON ro.id = rp.role_id
		JOIN permissions p ON p.id = rp.permission_id
		JOIN resources res ON res.id = p.resource_id
		JOIN actions a ON a.id = p.action_id
		WHERE ro.name = $1
		  AND p.permission_key = $2
		  AND fr.is_active AND fr.deleted_at IS NULL
		  AND rp.is_active
		  AND p.is_active AND res.is_active AND a.is_active
	`, user.Role, permissionKey)
	if err != nil {
		return nil, fmt.Errorf("failed to query filter rules: %w", err)
	}
	defer rows.Close()

	var types []authz.FilterType
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("failed to scan filter rule: %w", err)
		}
		types = append(types, authz.FilterType(t))
	}
	return types, rows.Err()
}

// CreateRule inserts a rule. The partial unique index rejects a second live
// active rule for the same link.
func (r *RuleRepository) CreateRule(ctx context.Context, rule *authz.FilterRule) error {
	_, err := r.db.pool.Exec(ctx, `
		INSERT INTO filter_rules (id, role_permission_id, filter_type, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, rule.ID, rule.RolePermissionID, string(rule.FilterType), rule.IsActive, rule.CreatedAt, rule.UpdatedAt)
	if err != nil {
		switch {
		case isUniqueViolation(err):
			return authz.ErrRuleAlreadyExists
		case isForeignKeyViolation(err):
			return authz.ErrRolePermissionNotFound
		}
		return fmt.Errorf("failed to create filter rule: %w", err)
	}
	return nil
}

// GetRule retrieves a live rule by ID
func (r *RuleRepository) GetRule(ctx context.Context, ruleID string) (*authz.FilterRule, error) {
	if !id.IsValid(ruleID) {
		return nil, authz.ErrRuleNotFound
	}

	var rule authz.FilterRule
	var filterType string
	err := r.db.pool.QueryRow(ctx, `
		SELECT id, role_permission_id, filter_type, is_active, created_at, updated_at, deleted_at
		FROM filter_rules
		WHERE id = $1 AND deleted_at IS NULL
	`, ruleID).Scan(
		&rule.ID, &rule.RolePermissionID, &filterType, &rule.IsActive,
		&rule.CreatedAt, &rule.UpdatedAt, &rule.DeletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, authz.ErrRuleNotFound
		}
		return nil, fmt.Errorf("failed to get filter rule: %w", err)
	}
	rule.FilterType = authz.FilterType(filterType)
	return &rule, nil
}

// HasActiveRule reports whether another live active rule exists for the link
func (r *RuleRepository) HasActiveRule(ctx context.Context, rolePermissionID, excludeRuleID string) (bool, error) {
	var exists bool
	err := r.db.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM filter_rules
			WHERE role_permission_id = $1
			  AND is_active AND deleted_at IS NULL
			  AND ($2 = '' OR id::text <> $2)
		)
	`, rolePermissionID, excludeRuleID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check filter rules: %w", err)
	}
	return exists, nil
}

// UpdateRuleStatus activates or deactivates a live rule
func (r *RuleRepository) UpdateRuleStatus(ctx context.Context, ruleID string, isActive bool, at time.Time) error {
	if !id.IsValid(ruleID) {
		return authz.ErrRuleNotFound
	}
	result, err := r.db.pool.Exec(ctx, `
		UPDATE filter_rules SET is_active = $2, updated_at = $3
		WHERE id = $1 AND deleted_at IS NULL
	`, ruleID, isActive, at)
	if err != nil {
		if isUniqueViolation(err) {
			return authz.ErrRuleAlreadyExists
		}
		return fmt.Errorf("failed to update filter rule: %w", err)
	}
	if result.RowsAffected() == 0 {
		return authz.ErrRuleNotFound
	}
	return nil
}

// SoftDeleteRule marks a rule deleted and inactive
func (r *RuleRepository) SoftDeleteRule(ctx context.Context, ruleID string, at time.Time) error {
	if !id.IsValid(ruleID) {
		return authz.ErrRuleNotFound
	}
	result, err := r.db.pool.Exec(ctx, `
		UPDATE filter_rules SET is_active = FALSE, updated_at = $2, deleted_at = $2
		WHERE id = $1 AND deleted_at IS NULL
	`, ruleID, at)
	if err != nil {
		return fmt.Errorf("failed to delete filter rule: %w", err)
	}
	if result.RowsAffected() == 0 {
		return authz.ErrRuleNotFound
	}
	return nil
}

const ruleViewQuery = `
	SELECT fr.id, fr.role_permission_id, fr.filter_type, fr.is_active,
	       fr.created_at, fr.updated_at, fr.deleted_at,
	       ro.id, ro.name, p.id, p.permission_key, rp.is_active
	FROM filter_rules fr
	JOIN role_permissions rp ON rp.id = fr.role_permission_id
	JOIN roles ro ON ro.id = rp.role_id
	JOIN permissions p ON p.id = rp.permission_id
	WHERE fr.deleted_at IS NULL
`

// ListRulesByRole retrieves the live rules of a role
func (r *RuleRepository) ListRulesByRole(ctx context.Context, roleID string) ([]*authz.RuleView, error) {
	if !id.IsValid(roleID) {
		return []*authz.RuleView{}, nil
	}
	return r.listViews(ctx, ruleViewQuery+` AND ro.id = $1 ORDER BY p.permission_key, ro.name, fr.id`, roleID)
}

// ListRulesByPermissionKey retrieves the live rules for a permission key
func (r *RuleRepository) ListRulesByPermissionKey(ctx context.Context, permissionKey string) ([]*authz.RuleView, error) {
	return r.listViews(ctx, ruleViewQuery+` AND p.permission_key = $1 ORDER BY p.permission_key, ro.name, fr.id`, permissionKey)
}

func (r *RuleRepository) listViews(ctx context.Context, sql string, arg string) ([]*authz.RuleView, error) {
	rows, err := r.db.pool.Query(ctx, sql, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to list filter rules: %w", err)
	}
	defer rows.Close()

	views := []*authz.RuleView{}
	for rows.Next() {
		var v authz.RuleView
		var filterType string
		if err := rows.Scan(
			&v.ID, &v.RolePermissionID, &filterType, &v.IsActive,
			&v.CreatedAt, &v.UpdatedAt, &v.DeletedAt,
			&v.RoleID, &v.RoleName, &v.PermissionID, &v.PermissionKey, &v.LinkActive,
		); err != nil {
			return nil, fmt.Errorf("failed to scan filter rule: %w", err)
		}
		v.FilterType = authz.FilterType(filterType)
		views = append(views, &v)
	}
	return views, rows.Err()
}

// GetRolePermission retrieves a grant link by ID
func (r *RuleRepository) GetRolePermission(ctx context.Context, rolePermissionID string) (*authz.RolePermission, error) {
	if !id.IsValid(rolePermissionID) {
		return nil, authz.ErrRolePermissionNotFound
	}

	var rp authz.RolePermission
	err := r.db.pool.QueryRow(ctx, `
		SELECT id, role_id, permission_id, is_active, created_at, updated_at
		FROM role_permissions
		WHERE id = $1
	`, rolePermissionID).Scan(&rp.ID, &rp.RoleID, &rp.PermissionID, &rp.IsActive, &rp.CreatedAt, &rp.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, authz.ErrRolePermissionNotFound
		}
		return nil, fmt.Errorf("failed to get role permission: %w", err)
	}
	return &rp, nil
}

// CreateRolePermission inserts a grant link
func (r *RuleRepository) CreateRolePermission(ctx context.Context, rp *authz.RolePermission) error {
	_, err := r.db.pool.Exec(ctx, `
		INSERT INTO role_permissions (id, role_id, permission_id, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, rp.ID, rp.RoleID, rp.PermissionID, rp.IsActive, rp.CreatedAt, rp.UpdatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return catalog.ErrPermissionNotFound
		}
		return fmt.Errorf("failed to create role permission: %w", err)
	}
	return nil
}

// SetRolePermissionStatus activates or deactivates a grant link
func (r *RuleRepository) SetRolePermissionStatus(ctx context.Context, rolePermissionID string, isActive bool, at time.Time) error {
	if !id.IsValid(rolePermissionID) {
		return authz.ErrRolePermissionNotFound
	}
	result, err := r.db.pool.Exec(ctx, `
		UPDATE role_permissions SET is_active = $2, updated_at = $3 WHERE id = $1
	`, rolePermissionID, isActive, at)
	if err != nil {
		return fmt.Errorf("failed to update role permission: %w", err)
	}
	if result.RowsAffected() == 0 {
		return authz.ErrRolePermissionNotFound
	}
	return nil
}

// ListAssignedPermissionIDs retrieves permissions a role holds an active link
// to, counting only links backed by at least one live active filter rule
func (r *RuleRepository) ListAssignedPermissionIDs(ctx context.Context, roleID string) ([]string, error) {
	if !id.IsValid(roleID) {
		return []string{}, nil
	}
	rows, err := r.db.pool.Query(ctx, `
		SELECT DISTINCT rp.permission_id::text
		FROM role_permissions rp
		WHERE rp.role_id = $1 AND rp.is_active
		  AND EXISTS (
			SELECT 1 FROM filter_rules fr
			WHERE fr.role_permission_id = rp.id AND fr.is_active AND fr.deleted_at IS NULL
		  )
		ORDER BY 1
	`, roleID)
	if err != nil {
		return nil, fmt.Errorf("failed to list assigned permissions: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var permissionID string
		if err := rows.Scan(&permissionID); err != nil {
			return nil, fmt.Errorf("failed to scan permission id: %w", err)
		}
		ids = append(ids, permissionID)
	}
	return ids, rows.Err()
}
