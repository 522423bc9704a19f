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

	"github.com/jackc/pgx/v5"
	"github.com/lumina-learn/lumina/internal/catalog"
	"github.com/lumina-learn/lumina/internal/id"
)

// CatalogRepository implements catalog.Repository
type CatalogRepository struct {
	db *DB
}

// NewCatalogRepository creates a new catalog repository
func NewCatalogRepository(db *DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

const permissionColumns = `
	p.id, p.permission_key, p.resource_id, p.action_id, res.key, a.key,
	p.is_active, res.is_active, a.is_active
`

const permissionJoins = `
	FROM permissions p
	JOIN resources res ON res.id = p.resource_id
	JOIN actions a ON a.id = p.action_id
`

func scanPermission(row pgx.Row) (*catalog.Permission, error) {
	var p catalog.Permission
	err := row.Scan(
		&p.ID, &p.Key, &p.ResourceID, &p.ActionID, &p.ResourceKey, &p.ActionKey,
		&p.IsActive, &p.ResourceActive, &p.ActionActive,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetPermissionByKey retrieves a permission by its key
func (r *CatalogRepository) GetPermissionByKey(ctx context.Context, key string) (*catalog.Permission, error) {
	p, err := scanPermission(r.db.pool.QueryRow(ctx,
		`SELECT `+permissionColumns+permissionJoins+` WHERE p.permission_key = $1`, key))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalog.ErrPermissionNotFound
		}
		return nil, fmt.Errorf("failed to get permission: %w", err)
	}
	return p, nil
}

// GetPermissionByID retrieves a permission by ID
func (r *CatalogRepository) GetPermissionByID(ctx context.Context, permissionID string) (*catalog.Permission, error) {
	if !id.IsValid(permissionID) {
		return nil, catalog.ErrPermissionNotFound
	}
	p, err := scanPermission(r.db.pool.QueryRow(ctx,
		`SELECT `+permissionColumns+permissionJoins+` WHERE p.id = $1`, permissionID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalog.ErrPermissionNotFound
		}
		return nil, fmt.Errorf("failed to get permission: %w", err)
	}
	return p, nil
}

// ListResources retrieves every resource
func (r *CatalogRepository) ListResources(ctx context.Context) ([]*catalog.Resource, error) {
	rows, err := r.db.pool.Query(ctx, `
		SELECT id, key, name, parent_id, is_active, created_at
		FROM resources
		ORDER BY name, id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list resources: %w", err)
	}
	defer rows.Close()

	var resources []*catalog.Resource
	for rows.Next() {
		var res catalog.Resource
		if err := rows.Scan(&res.ID, &res.Key, &res.Name, &res.ParentID, &res.IsActive, &res.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan resource: %w", err)
		}
		resources = append(resources, &res)
	}
	return resources, rows.Err()
}

// ListPermissions retrieves every permission ordered by key
func (r *CatalogRepository) ListPermissions(ctx context.Context) ([]*catalog.Permission, error) {
	rows, err := r.db.pool.Query(ctx, `SELECT `+permissionColumns+permissionJoins+` ORDER BY p.permission_key`)
	if err != nil {
		return nil, fmt.Errorf("failed to list permissions: %w", err)
	}
	defer rows.Close()

	var perms []*catalog.Permission
	for rows.Next() {
		p, err := scanPermission(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan permission: %w", err)
		}
		perms = append(perms, p)
	}
	return perms, rows.Err()
}

// SetResourceStatus activates or deactivates a resource
func (r *CatalogRepository) SetResourceStatus(ctx context.Context, resourceID string, isActive bool) error {
	return r.setStatus(ctx, "resources", resourceID, isActive, catalog.ErrResourceNotFound)
}

// SetActionStatus activates or deactivates an action
func (r *CatalogRepository) SetActionStatus(ctx context.Context, actionID string, isActive bool) error {
	return r.setStatus(ctx, "actions", actionID, isActive, catalog.ErrActionNotFound)
}

// SetPermissionStatus activates or deactivates a permission
func (r *CatalogRepository) SetPermissionStatus(ctx context.Context, permissionID string, isActive bool) error {
	return r.setStatus(ctx, "permissions", permissionID, isActive, catalog.ErrPermissionNotFound)
}

// setStatus toggles is_active on one of the fixed catalog tables.
func (r *CatalogRepository) setStatus(ctx context.Context, table, rowID string, isActive bool, notFound error) error {
	if !id.IsValid(rowID) {
		return notFound
	}
	result, err := r.db.pool.Exec(ctx, `UPDATE `+table+` SET is_active = $2 WHERE id = $1`, rowID, isActive)
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", table, err)
	}
	if result.RowsAffected() == 0 {
		return notFound
	}
	return nil
}
