package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Domain errors
var (
	ErrPermissionNotFound   = errors.New("permission not found")
	ErrResourceNotFound     = errors.New("resource not found")
	ErrActionNotFound       = errors.New("action not found")
	ErrInvalidPermissionKey = errors.New("invalid permission key")
)

// Resource is a node of the resource forest. ParentID is a weak reference.
type Resource struct {
	ID        string    `json:"id"`
	Key       string    `json:"key"`
	Name      string    `json:"name"`
	ParentID  *string   `json:"parent_id,omitempty"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// Action is the verb half of a permission key.
type Action struct {
	ID       string `json:"id"`
	Key      string `json:"key"`
	Name     string `json:"name"`
	IsActive bool   `json:"is_active"`
}

// Permission binds a resource to an action under the key "resource:action".
type Permission struct {
	ID             string `json:"id"`
	Key            string `json:"permission_key"`
	ResourceID     string `json:"resource_id"`
	ActionID       string `json:"action_id"`
	ResourceKey    string `json:"resource_key"`
	ActionKey      string `json:"action_key"`
	IsActive       bool   `json:"is_active"`
	ResourceActive bool   `json:"resource_active"`
	ActionActive   bool   `json:"action_active"`
}

// Usable reports whether the permission, its resource and its action are all active.
func (p *Permission) Usable() bool {
	return p.IsActive && p.ResourceActive && p.ActionActive
}

// PermissionKey joins a resource key and an action key.
func PermissionKey(resource, action string) string {
	return resource + ":" + action
}

// ParsePermissionKey splits a "resource:action" key.
func ParsePermissionKey(key string) (resource, action string, err error) {
	resource, action, ok := strings.Cut(key, ":")
	if !ok || resource == "" || action == "" || strings.Contains(action, ":") {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidPermissionKey, key)
	}
	if strings.TrimSpace(resource) != resource || strings.TrimSpace(action) != action {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidPermissionKey, key)
	}
	return resource, action, nil
}

// Repository defines the interface for catalog persistence
type Repository interface {
	// GetPermissionByKey returns the permission regardless of its active flags
	GetPermissionByKey(ctx context.Context, key string) (*Permission, error)

	// GetPermissionByID returns the permission regardless of its active flags
	GetPermissionByID(ctx context.Context, id string) (*Permission, error)

	// ListResources returns every resource, active or not
	ListResources(ctx context.Context) ([]*Resource, error)

	// ListPermissions returns every permission ordered by key
	ListPermissions(ctx context.Context) ([]*Permission, error)

	SetResourceStatus(ctx context.Context, id string, isActive bool) error
	SetActionStatus(ctx context.Context, id string, isActive bool) error
	SetPermissionStatus(ctx context.Context, id string, isActive bool) error
}
