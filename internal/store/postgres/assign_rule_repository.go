package postgres

import (
	"context"
	"fmt"

	"github.com/lumina-learn/lumina/internal/authz"
	"github.com/lumina-learn/lumina/internal/id"
)

// AssignRuleRepository implements authz.AssignRuleRepository
type AssignRuleRepository struct {
	db *DB
}

// NewAssignRuleRepository creates a new assignment guard repository
func NewAssignRuleRepository(db *DB) *AssignRuleRepository {
	return &AssignRuleRepository{db: db}
}

const assignRuleQuery = `
	SELECT ar.id, ar.role_id, ro.name, ar.permission_id, ar.is_active, ar.created_at
	FROM permission_role_assign_rules ar
	JOIN roles ro ON ro.id = ar.role_id
	WHERE ar.is_active
`

// ListActiveForPermission retrieves the active rules of a permission
func (r *AssignRuleRepository) ListActiveForPermission(ctx context.Context, permissionID string) ([]*authz.AssignRule, error) {
	if !id.IsValid(permissionID) {
		return []*authz.AssignRule{}, nil
	}
	return r.list(ctx, assignRuleQuery+` AND ar.permission_id = $1 ORDER BY ar.id`, permissionID)
}

// ListActive retrieves every active rule
func (r *AssignRuleRepository) ListActive(ctx context.Context) ([]*authz.AssignRule, error) {
	return r.list(ctx, assignRuleQuery+` ORDER BY ar.id`)
}

func (r *AssignRuleRepository) list(ctx context.Context, sql string, args ...any) ([]*authz.AssignRule, error) {
	rows, err := r.db.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list assign rules: %w", err)
	}
	defer rows.Close()

	rules := []*authz.AssignRule{}
	for rows.Next() {
		var a authz.AssignRule
		if err := rows.Scan(&a.ID, &a.RoleID, &a.RoleName, &a.PermissionID, &a.IsActive, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan assign rule: %w", err)
		}
		rules = append(rules, &a)
	}
	return rules, rows.Err()
}

// Create inserts an assign rule
func (r *AssignRuleRepository) Create(ctx context.Context, rule *authz.AssignRule) error {
	_, err := r.db.pool.Exec(ctx, `
		INSERT INTO permission_role_assign_rules (id, role_id, permission_id, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, rule.ID, rule.RoleID, rule.PermissionID, rule.IsActive, rule.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return authz.ErrAssignRuleExists
		}
		return fmt.Errorf("failed to create assign rule: %w", err)
	}
	return nil
}

// SetStatus activates or deactivates an assign rule
func (r *AssignRuleRepository) SetStatus(ctx context.Context, ruleID string, isActive bool) error {
	if !id.IsValid(ruleID) {
		return authz.ErrAssignRuleNotFound
	}
	result, err := r.db.pool.Exec(ctx, `
		UPDATE permission_role_assign_rules SET is_active = $2 WHERE id = $1
	`, ruleID, isActive)
	if err != nil {
		return fmt.Errorf("failed to update assign rule: %w", err)
	}
	if result.RowsAffected() == 0 {
		return authz.ErrAssignRuleNotFound
	}
	return nil
}
