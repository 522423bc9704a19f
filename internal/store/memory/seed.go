package memory

import (
	"time"

	"github.com/lumina-learn/lumina/internal/authz"
	"github.com/lumina-learn/lumina/internal/catalog"
	"github.com/lumina-learn/lumina/internal/course"
	"github.com/lumina-learn/lumina/internal/rbac"
)

// Seed installs the well-known catalog, roles, default grants and assign
// rules, matching the seed migration.
func Seed(s *Store) {
	now := time.Now()

	for _, r := range rbac.Resources {
		res := catalog.Resource{ID: r.ID, Key: r.Key, Name: r.Name, IsActive: true, CreatedAt: now}
		if r.ParentID != "" {
			parent := r.ParentID
			res.ParentID = &parent
		}
		s.AddResource(res)
	}
	for _, a := range rbac.Actions {
		s.AddAction(catalog.Action{ID: a.ID, Key: a.Key, Name: a.Name, IsActive: true})
	}
	for _, p := range rbac.Permissions {
		s.AddPermission(p.ID, p.ResourceID, p.ActionID, true)
	}
	for id, name := range rbac.Roles {
		s.AddRole(authz.Role{ID: id, Name: name})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, g := range rbac.Grants {
		s.rolePerms[g.RolePermissionID] = authz.RolePermission{
			ID: g.RolePermissionID, RoleID: g.RoleID, PermissionID: g.PermissionID,
			IsActive: true, CreatedAt: now, UpdatedAt: now,
		}
		s.rules[g.RuleID] = authz.FilterRule{
			ID: g.RuleID, RolePermissionID: g.RolePermissionID, FilterType: authz.FilterType(g.FilterType),
			IsActive: true, CreatedAt: now, UpdatedAt: now,
		}
	}
	for _, a := range rbac.AssignRules {
		s.assignRules[a.ID] = authz.AssignRule{
			ID: a.ID, RoleID: a.RoleID, PermissionID: a.PermissionID, IsActive: true, CreatedAt: now,
		}
	}
}

// SeedCourses adds courses, replacing any with the same ID.
func SeedCourses(s *Store, courses ...course.Course) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range courses {
		s.courses[c.ID] = c
	}
}

// NewSeededStore returns a store populated by Seed.
func NewSeededStore() *Store {
	s := NewStore()
	Seed(s)
	return s
}
