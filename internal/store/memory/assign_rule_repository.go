package memory

import (
	"context"
	"sort"

	"github.com/lumina-learn/lumina/internal/authz"
)

// AssignRuleRepository implements authz.AssignRuleRepository
type AssignRuleRepository struct {
	s *Store
}

func NewAssignRuleRepository(s *Store) *AssignRuleRepository {
	return &AssignRuleRepository{s: s}
}

func (r *AssignRuleRepository) ListActiveForPermission(_ context.Context, permissionID string) ([]*authz.AssignRule, error) {
	return r.list(func(a authz.AssignRule) bool { return a.PermissionID == permissionID }), nil
}

func (r *AssignRuleRepository) ListActive(_ context.Context) ([]*authz.AssignRule, error) {
	return r.list(func(authz.AssignRule) bool { return true }), nil
}

func (r *AssignRuleRepository) list(match func(authz.AssignRule) bool) []*authz.AssignRule {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := []*authz.AssignRule{}
	for _, a := range r.s.assignRules {
		if !a.IsActive || !match(a) {
			continue
		}
		a.RoleName = r.s.roles[a.RoleID].Name
		out = append(out, &a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *AssignRuleRepository) Create(_ context.Context, rule *authz.AssignRule) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, a := range r.s.assignRules {
		if a.RoleID == rule.RoleID && a.PermissionID == rule.PermissionID {
			return authz.ErrAssignRuleExists
		}
	}
	r.s.assignRules[rule.ID] = *rule
	return nil
}

func (r *AssignRuleRepository) SetStatus(_ context.Context, id string, isActive bool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	a, ok := r.s.assignRules[id]
	if !ok {
		return authz.ErrAssignRuleNotFound
	}
	a.IsActive = isActive
	r.s.assignRules[id] = a
	return nil
}
