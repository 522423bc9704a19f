package memory

import (
	"context"
	"sort"

	"github.com/lumina-learn/lumina/internal/authz"
)

// RoleRepository implements authz.RoleRepository
type RoleRepository struct {
	s *Store
}

func NewRoleRepository(s *Store) *RoleRepository {
	return &RoleRepository{s: s}
}

func (r *RoleRepository) GetByID(_ context.Context, id string) (*authz.Role, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	role, ok := r.s.roles[id]
	if !ok {
		return nil, authz.ErrRoleNotFound
	}
	return &role, nil
}

func (r *RoleRepository) GetByName(_ context.Context, name string) (*authz.Role, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	role, ok := r.s.roleByName(name)
	if !ok {
		return nil, authz.ErrRoleNotFound
	}
	return &role, nil
}

func (r *RoleRepository) List(_ context.Context) ([]*authz.Role, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*authz.Role, 0, len(r.s.roles))
	for _, role := range r.s.roles {
		out = append(out, &role)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
