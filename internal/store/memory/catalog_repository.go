package memory

import (
	"context"
	"sort"

	"github.com/lumina-learn/lumina/internal/catalog"
)

// CatalogRepository implements catalog.Repository
type CatalogRepository struct {
	s *Store
}

func NewCatalogRepository(s *Store) *CatalogRepository {
	return &CatalogRepository{s: s}
}

func (r *CatalogRepository) GetPermissionByKey(_ context.Context, key string) (*catalog.Permission, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for id := range r.s.permissions {
		if p, _ := r.s.permission(id); p.Key == key {
			return p, nil
		}
	}
	return nil, catalog.ErrPermissionNotFound
}

func (r *CatalogRepository) GetPermissionByID(_ context.Context, id string) (*catalog.Permission, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.permission(id)
	if !ok {
		return nil, catalog.ErrPermissionNotFound
	}
	return p, nil
}

func (r *CatalogRepository) ListResources(_ context.Context) ([]*catalog.Resource, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*catalog.Resource, 0, len(r.s.resources))
	for _, res := range r.s.resources {
		out = append(out, &res)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *CatalogRepository) ListPermissions(_ context.Context) ([]*catalog.Permission, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*catalog.Permission, 0, len(r.s.permissions))
	for id := range r.s.permissions {
		p, _ := r.s.permission(id)
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (r *CatalogRepository) SetResourceStatus(_ context.Context, id string, isActive bool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	res, ok := r.s.resources[id]
	if !ok {
		return catalog.ErrResourceNotFound
	}
	res.IsActive = isActive
	r.s.resources[id] = res
	return nil
}

func (r *CatalogRepository) SetActionStatus(_ context.Context, id string, isActive bool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	act, ok := r.s.actions[id]
	if !ok {
		return catalog.ErrActionNotFound
	}
	act.IsActive = isActive
	r.s.actions[id] = act
	return nil
}

func (r *CatalogRepository) SetPermissionStatus(_ context.Context, id string, isActive bool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.permissions[id]
	if !ok {
		return catalog.ErrPermissionNotFound
	}
	p.IsActive = isActive
	r.s.permissions[id] = p
	return nil
}
