package authz

import (
	"context"
	"errors"
	"time"

	"github.com/lumina-learn/lumina/internal/identity"
)

// Domain errors
var (
	ErrRoleNotFound           = errors.New("role not found")
	ErrRuleNotFound           = errors.New("filter rule not found")
	ErrRuleAlreadyExists      = errors.New("active filter rule already exists for role permission")
	ErrRolePermissionNotFound = errors.New("role permission not found")
	ErrInvalidFilterType      = errors.New("invalid filter type")
	ErrAssignmentForbidden    = errors.New("permission cannot be assigned to role")
	ErrAssignRuleNotFound     = errors.New("assign rule not found")
	ErrAssignRuleExists       = errors.New("assign rule already exists")
	ErrStoreUnavailable       = errors.New("authorization store unavailable")
)

// Role is a named role. Each user holds exactly one.
type Role struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// RolePermission links a role to a permission. A role may hold several links
// for the same permission.
type RolePermission struct {
	ID           string    `json:"id"`
	RoleID       string    `json:"role_id"`
	PermissionID string    `json:"permission_id"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// FilterRule grants the scope of a role permission link.
type FilterRule struct {
	ID               string     `json:"id"`
	RolePermissionID string     `json:"role_permission_id"`
	FilterType       FilterType `json:"filter_type"`
	IsActive         bool       `json:"is_active"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
	DeletedAt        *time.Time `json:"deleted_at,omitempty"`
}

// RuleView is a filter rule joined with the role and permission it applies to.
type RuleView struct {
	FilterRule
	RoleID        string `json:"role_id"`
	RoleName      string `json:"role_name"`
	PermissionID  string `json:"permission_id"`
	PermissionKey string `json:"permission_key"`
	LinkActive    bool   `json:"role_permission_active"`
}

// AssignRule allows a role to receive a permission through admin assignment.
type AssignRule struct {
	ID           string    `json:"id"`
	RoleID       string    `json:"role_id"`
	RoleName     string    `json:"role_name"`
	PermissionID string    `json:"permission_id"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}

// RestrictedPermission is a permission with a non-empty allow-list.
type RestrictedPermission struct {
	PermissionID  string   `json:"permission_id"`
	PermissionKey string   `json:"permission_key"`
	AllowedRoles  []string `json:"allowed_roles"`
}

// RuleStore defines the interface for filter rule persistence
type RuleStore interface {
	// FindActiveRulesFor returns the filter types of every applicable rule for
	// the user's role and key: rule, link, permission, resource and action all
	// active and the rule not deleted.
	FindActiveRulesFor(ctx context.Context, user identity.User, permissionKey string) ([]FilterType, error)

	// CreateRule returns ErrRuleAlreadyExists when a live active rule exists
	// for the same link.
	CreateRule(ctx context.Context, rule *FilterRule) error

	// GetRule returns ErrRuleNotFound for unknown or deleted rules.
	GetRule(ctx context.Context, id string) (*FilterRule, error)

	// HasActiveRule reports whether another live active rule exists for the link.
	HasActiveRule(ctx context.Context, rolePermissionID, excludeRuleID string) (bool, error)

	UpdateRuleStatus(ctx context.Context, id string, isActive bool, at time.Time) error
	SoftDeleteRule(ctx context.Context, id string, at time.Time) error

	ListRulesByRole(ctx context.Context, roleID string) ([]*RuleView, error)
	ListRulesByPermissionKey(ctx context.Context, permissionKey string) ([]*RuleView, error)

	GetRolePermission(ctx context.Context, id string) (*RolePermission, error)
	CreateRolePermission(ctx context.Context, rp *RolePermission) error
	SetRolePermissionStatus(ctx context.Context, id string, isActive bool, at time.Time) error

	// ListAssignedPermissionIDs returns permissions the role holds an active link to.
	ListAssignedPermissionIDs(ctx context.Context, roleID string) ([]string, error)
}

// RoleRepository defines the interface for role persistence
type RoleRepository interface {
	GetByID(ctx context.Context, id string) (*Role, error)
	GetByName(ctx context.Context, name string) (*Role, error)
	List(ctx context.Context) ([]*Role, error)
}

// AssignRuleRepository defines the interface for assignment guard persistence
type AssignRuleRepository interface {
	// ListActiveForPermission returns active rows with role names filled in.
	ListActiveForPermission(ctx context.Context, permissionID string) ([]*AssignRule, error)

	// ListActive returns every active row with role names filled in.
	ListActive(ctx context.Context) ([]*AssignRule, error)

	// Create returns ErrAssignRuleExists for a duplicate (role, permission) pair.
	Create(ctx context.Context, rule *AssignRule) error

	SetStatus(ctx context.Context, id string, isActive bool) error
}
