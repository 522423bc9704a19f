package authz

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/lumina-learn/lumina/internal/audit"
	"github.com/lumina-learn/lumina/internal/catalog"
	"github.com/lumina-learn/lumina/internal/id"
)

// PermissionLookup resolves catalog permissions by ID.
type PermissionLookup interface {
	GetPermissionByID(ctx context.Context, id string) (*catalog.Permission, error)
}

// Guard decides which roles an administrator may grant a permission to.
// It is never consulted when evaluating a live request.
type Guard struct {
	repo        AssignRuleRepository
	roles       RoleRepository
	perms       PermissionLookup
	auditLogger audit.Logger
}

// NewGuard creates a new assignment guard
func NewGuard(repo AssignRuleRepository, roles RoleRepository, perms PermissionLookup, auditLogger audit.Logger) *Guard {
	return &Guard{repo: repo, roles: roles, perms: perms, auditLogger: auditLogger}
}

// CanAssign is true when the permission has no active assign rules or has
// one for exactly this role.
func (g *Guard) CanAssign(ctx context.Context, roleID, permissionID string) (bool, error) {
	rules, err := g.repo.ListActiveForPermission(ctx, permissionID)
	if err != nil {
		return false, fmt.Errorf("failed to list assign rules: %w", err)
	}
	if len(rules) == 0 {
		return true, nil
	}
	for _, r := range rules {
		if r.RoleID == roleID {
			return true, nil
		}
	}
	return false, nil
}

// IsRestricted reports whether any active assign rule exists for the permission.
func (g *Guard) IsRestricted(ctx context.Context, permissionID string) (bool, error) {
	rules, err := g.repo.ListActiveForPermission(ctx, permissionID)
	if err != nil {
		return false, fmt.Errorf("failed to list assign rules: %w", err)
	}
	return len(rules) > 0, nil
}

// ListAllowedRoleNames returns the sorted allow-list of a permission.
func (g *Guard) ListAllowedRoleNames(ctx context.Context, permissionID string) ([]string, error) {
	rules, err := g.repo.ListActiveForPermission(ctx, permissionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list assign rules: %w", err)
	}
	return roleNames(rules), nil
}

// ListRestrictedPermissions groups every active assign rule by permission.
func (g *Guard) ListRestrictedPermissions(ctx context.Context) ([]RestrictedPermission, error) {
	rules, err := g.repo.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list assign rules: %w", err)
	}

	byPermission := make(map[string][]*AssignRule)
	for _, r := range rules {
		byPermission[r.PermissionID] = append(byPermission[r.PermissionID], r)
	}

	out := make([]RestrictedPermission, 0, len(byPermission))
	for permissionID, group := range byPermission {
		rp := RestrictedPermission{PermissionID: permissionID, AllowedRoles: roleNames(group)}
		if p, err := g.perms.GetPermissionByID(ctx, permissionID); err == nil {
			rp.PermissionKey = p.Key
		} else if !errors.Is(err, catalog.ErrPermissionNotFound) {
			return nil, fmt.Errorf("failed to get permission: %w", err)
		}
		out = append(out, rp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].PermissionKey != out[j].PermissionKey {
			return out[i].PermissionKey < out[j].PermissionKey
		}
		return out[i].PermissionID < out[j].PermissionID
	})
	return out, nil
}

// AddAssignRule adds a role to a permission's allow-list.
func (g *Guard) AddAssignRule(ctx context.Context, roleID, permissionID, actorID string) (*AssignRule, error) {
	role, err := g.roles.GetByID(ctx, roleID)
	if err != nil {
		return nil, err
	}
	if _, err := g.perms.GetPermissionByID(ctx, permissionID); err != nil {
		return nil, err
	}

	rule := &AssignRule{
		ID:           id.NewUUIDv7(),
		RoleID:       role.ID,
		RoleName:     role.Name,
		PermissionID: permissionID,
		IsActive:     true,
		CreatedAt:    time.Now(),
	}
	if err := g.repo.Create(ctx, rule); err != nil {
		if errors.Is(err, ErrAssignRuleExists) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create assign rule: %w", err)
	}

	g.log(ctx, audit.Event{
		Type:     audit.TypeAssignRuleCreated,
		ActorID:  actorID,
		Resource: rule.ID,
		Metadata: map[string]any{"role_id": roleID, "permission_id": permissionID},
	})
	return rule, nil
}

// SetAssignRuleStatus activates or deactivates an assign rule.
func (g *Guard) SetAssignRuleStatus(ctx context.Context, ruleID string, isActive bool, actorID string) error {
	if err := g.repo.SetStatus(ctx, ruleID, isActive); err != nil {
		if errors.Is(err, ErrAssignRuleNotFound) {
			return err
		}
		return fmt.Errorf("failed to update assign rule: %w", err)
	}
	g.log(ctx, audit.Event{
		Type:     audit.TypeAssignRuleToggled,
		ActorID:  actorID,
		Resource: ruleID,
		Metadata: map[string]any{"is_active": isActive},
	})
	return nil
}

func (g *Guard) log(ctx context.Context, e audit.Event) {
	if g.auditLogger == nil {
		return
	}
	e.Timestamp = time.Now()
	g.auditLogger.Log(ctx, e)
}

func roleNames(rules []*AssignRule) []string {
	seen := make(map[string]bool, len(rules))
	names := make([]string, 0, len(rules))
	for _, r := range rules {
		if seen[r.RoleName] {
			continue
		}
		seen[r.RoleName] = true
		names = append(names, r.RoleName)
	}
	sort.Strings(names)
	return names
}
