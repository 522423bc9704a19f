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

// Package memory keeps the authorization data and courses in process memory.
// It backs DB_DRIVER=memory and the package tests.
package memory

import (
	"sync"

	"github.com/lumina-learn/lumina/internal/authz"
	"github.com/lumina-learn/lumina/internal/catalog"
	"github.com/lumina-learn/lumina/internal/course"
)

type permissionRow struct {
	ID         string
	ResourceID string
	ActionID   string
	IsActive   bool
}

// Store is the shared state behind the memory repositories.
type Store struct {
	mu          sync.RWMutex
	resources   map[string]catalog.Resource
	actions     map[string]catalog.Action
	permissions map[string]permissionRow
	roles       map[string]authz.Role
	rolePerms   map[string]authz.RolePermission
	rules       map[string]authz.FilterRule
	assignRules map[string]authz.AssignRule
	courses     map[string]course.Course
}

func NewStore() *Store {
	return &Store{
		resources:   map[string]catalog.Resource{},
		actions:     map[string]catalog.Action{},
		permissions: map[string]permissionRow{},
		roles:       map[string]authz.Role{},
		rolePerms:   map[string]authz.RolePermission{},
		rules:       map[string]authz.FilterRule{},
		assignRules: map[string]authz.AssignRule{},
		courses:     map[string]course.Course{},
	}
}

func (s *Store) AddResource(r catalog.Resource) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resources[r.ID] = r
}

func (s *Store) AddAction(a catalog.Action) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.actions[a.ID] = a
}

func (s *Store) AddPermission(id, resourceID, actionID string, isActive bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.permissions[id] = permissionRow{ID: id, ResourceID: resourceID, ActionID: actionID, IsActive: isActive}
}

func (s *Store) AddRole(r authz.Role) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roles[r.ID] = r
}

// permission resolves a permission row with its key and active flags.
// Callers must hold the lock.
func (s *Store) permission(id string) (*catalog.Permission, bool) {
	row, ok := s.permissions[id]
	if !ok {
		return nil, false
	}
	res := s.resources[row.ResourceID]
	act := s.actions[row.ActionID]
	return &catalog.Permission{
		ID:             row.ID,
		Key:            catalog.PermissionKey(res.Key, act.Key),
		ResourceID:     row.ResourceID,
		ActionID:       row.ActionID,
		ResourceKey:    res.Key,
		ActionKey:      act.Key,
		IsActive:       row.IsActive,
		ResourceActive: res.IsActive,
		ActionActive:   act.IsActive,
	}, true
}

func (s *Store) roleByName(name string) (authz.Role, bool) {
	for _, r := range s.roles {
		if r.Name == name {
			return r, true
		}
	}
	return authz.Role{}, false
}
