package memory

import (
	"context"
	"sort"
	"time"

	"github.com/lumina-learn/lumina/internal/authz"
	"github.com/lumina-learn/lumina/internal/catalog"
	"github.com/lumina-learn/lumina/internal/identity"
)

// RuleRepository implements authz.RuleStore
type RuleRepository struct {
	s *Store
}

func NewRuleRepository(s *Store) *RuleRepository {
	return &RuleRepository{s: s}
}

func (r *RuleRepository) FindActiveRulesFor(_ context.Context, user identity.User, permissionKey string) ([]authz.FilterType, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	role, ok := r.s.roleByName(user.Role)
	if !ok {
		return nil, nil
	}

	var types []authz.FilterType
	for _, rp := range r.s.rolePerms {
		if rp.RoleID != role.ID || !rp.IsActive {
			continue
		}
		p, ok := r.s.permission(rp.PermissionID)
		if !ok || p.Key != permissionKey || !p.Usable() {
			continue
		}
		for _, rule := range r.s.rules {
			if rule.RolePermissionID == rp.ID && rule.IsActive && rule.DeletedAt == nil {
				types = append(types, rule.FilterType)
			}
		}
	}
	return types, nil
}

func (r *RuleRepository) CreateRule(_ context.Context, rule *authz.FilterRule) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.rolePerms[rule.RolePermissionID]; !ok {
		return authz.ErrRolePermissionNotFound
	}
	if rule.IsActive && r.hasActive(rule.RolePermissionID, "") {
		return authz.ErrRuleAlreadyExists
	}
	r.s.rules[rule.ID] = *rule
	return nil
}

func (r *RuleRepository) GetRule(_ context.Context, id string) (*authz.FilterRule, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	rule, ok := r.s.rules[id]
	if !ok || rule.DeletedAt != nil {
		return nil, authz.ErrRuleNotFound
	}
	return &rule, nil
}

func (r *RuleRepository) HasActiveRule(_ context.Context, rolePermissionID, excludeRuleID string) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.hasActive(rolePermissionID, excludeRuleID), nil
}

// hasActive must be called with the lock held.
func (r *RuleRepository) hasActive(rolePermissionID, excludeRuleID string) bool {
	for _, rule := range r.s.rules {
		if rule.ID != excludeRuleID && rule.RolePermissionID == rolePermissionID && rule.IsActive && rule.DeletedAt == nil {
			return true
		}
	}
	return false
}

func (r *RuleRepository) UpdateRuleStatus(_ context.Context, id string, isActive bool, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	rule, ok := r.s.rules[id]
	if !ok || rule.DeletedAt != nil {
		return authz.ErrRuleNotFound
	}
	if isActive && !rule.IsActive && r.hasActive(rule.RolePermissionID, id) {
		return authz.ErrRuleAlreadyExists
	}
	rule.IsActive = isActive
	rule.UpdatedAt = at
	r.s.rules[id] = rule
	return nil
}

func (r *RuleRepository) SoftDeleteRule(_ context.Context, id string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	rule, ok := r.s.rules[id]
	if !ok || rule.DeletedAt != nil {
		return authz.ErrRuleNotFound
	}
	rule.IsActive = false
	rule.UpdatedAt = at
	rule.DeletedAt = &at
	r.s.rules[id] = rule
	return nil
}

func (r *RuleRepository) ListRulesByRole(_ context.Context, roleID string) ([]*authz.RuleView, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	return r.views(func(rp authz.RolePermission, _ *catalog.Permission) bool {
		return rp.RoleID == roleID
	}), nil
}

func (r *RuleRepository) ListRulesByPermissionKey(_ context.Context, permissionKey string) ([]*authz.RuleView, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	return r.views(func(_ authz.RolePermission, p *catalog.Permission) bool {
		return p.Key == permissionKey
	}), nil
}

// views joins live rules with their link, role and permission.
func (r *RuleRepository) views(match func(authz.RolePermission, *catalog.Permission) bool) []*authz.RuleView {
	out := []*authz.RuleView{}
	for _, rule := range r.s.rules {
		if rule.DeletedAt != nil {
			continue
		}
		rp, ok := r.s.rolePerms[rule.RolePermissionID]
		if !ok {
			continue
		}
		p, ok := r.s.permission(rp.PermissionID)
		if !ok || !match(rp, p) {
			continue
		}
		out = append(out, &authz.RuleView{
			FilterRule:    rule,
			RoleID:        rp.RoleID,
			RoleName:      r.s.roles[rp.RoleID].Name,
			PermissionID:  p.ID,
			PermissionKey: p.Key,
			LinkActive:    rp.IsActive,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].PermissionKey != out[j].PermissionKey {
			return out[i].PermissionKey < out[j].PermissionKey
		}
		if out[i].RoleName != out[j].RoleName {
			return out[i].RoleName < out[j].RoleName
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (r *RuleRepository) GetRolePermission(_ context.Context, id string) (*authz.RolePermission, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	rp, ok := r.s.rolePerms[id]
	if !ok {
		return nil, authz.ErrRolePermissionNotFound
	}
	return &rp, nil
}

func (r *RuleRepository) CreateRolePermission(_ context.Context, rp *authz.RolePermission) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.roles[rp.RoleID]; !ok {
		return authz.ErrRoleNotFound
	}
	if _, ok := r.s.permissions[rp.PermissionID]; !ok {
		return catalog.ErrPermissionNotFound
	}
	r.s.rolePerms[rp.ID] = *rp
	return nil
}

func (r *RuleRepository) SetRolePermissionStatus(_ context.Context, id string, isActive bool, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	rp, ok := r.s.rolePerms[id]
	if !ok {
		return authz.ErrRolePermissionNotFound
	}
	rp.IsActive = isActive
	rp.UpdatedAt = at
	r.s.rolePerms[id] = rp
	return nil
}

func (r *RuleRepository) ListAssignedPermissionIDs(_ context.Context, roleID string) ([]string, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	live := map[string]bool{}
	for _, rule := range r.s.rules {
		if rule.IsActive && rule.DeletedAt == nil {
			live[rule.RolePermissionID] = true
		}
	}

	seen := map[string]bool{}
	ids := []string{}
	for _, rp := range r.s.rolePerms {
		if rp.RoleID == roleID && rp.IsActive && live[rp.ID] && !seen[rp.PermissionID] {
			seen[rp.PermissionID] = true
			ids = append(ids, rp.PermissionID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}
