package catalog

import (
	"slices"
	"sort"
)

// PermissionView is a permission as shown on a resource node.
type PermissionView struct {
	ID        string `json:"id"`
	Key       string `json:"permission_key"`
	ActionKey string `json:"action_key"`
	Active    bool   `json:"active"`
	Assigned  bool   `json:"assigned"`
	Inherited bool   `json:"inherited"`
}

// ResourceNode is one resource with its permissions and children.
type ResourceNode struct {
	Resource    *Resource         `json:"resource"`
	Permissions []*PermissionView `json:"permissions"`
	Children    []*ResourceNode   `json:"children"`
}

// BuildTree assembles the resource forest ordered by name at every level.
// A resource whose parent is missing or filtered out becomes a root.
func BuildTree(resources []*Resource, perms []*Permission, includeInactive bool) []*ResourceNode {
	nodes := make(map[string]*ResourceNode, len(resources))
	for _, r := range resources {
		if !includeInactive && !r.IsActive {
			continue
		}
		nodes[r.ID] = &ResourceNode{Resource: r, Permissions: []*PermissionView{}, Children: []*ResourceNode{}}
	}

	for _, p := range sortedPermissions(perms) {
		n, ok := nodes[p.ResourceID]
		if !ok {
			continue
		}
		if !includeInactive && !p.Usable() {
			continue
		}
		n.Permissions = append(n.Permissions, &PermissionView{
			ID:        p.ID,
			Key:       p.Key,
			ActionKey: p.ActionKey,
			Active:    p.Usable(),
		})
	}

	var roots []*ResourceNode
	for _, n := range nodes {
		if pid := n.Resource.ParentID; pid != nil && *pid != n.Resource.ID {
			if parent, ok := nodes[*pid]; ok && !isAncestor(nodes, n.Resource.ID, parent) {
				parent.Children = append(parent.Children, n)
				continue
			}
		}
		roots = append(roots, n)
	}

	sortNodes(roots)
	return roots
}

// isAncestor reports whether id appears on the parent chain starting at n.
func isAncestor(nodes map[string]*ResourceNode, id string, n *ResourceNode) bool {
	seen := map[string]bool{}
	for n != nil {
		if n.Resource.ID == id {
			return true
		}
		if seen[n.Resource.ID] || n.Resource.ParentID == nil {
			return false
		}
		seen[n.Resource.ID] = true
		n = nodes[*n.Resource.ParentID]
	}
	return false
}

// Annotate marks each permission in the forest for a role holding the given
// permission IDs. A permission is inherited when it is not assigned but an
// ancestor resource holds an assigned permission with the same action key.
// Inheritance is informational only.
func Annotate(roots []*ResourceNode, assignedPermissionIDs []string) {
	assigned := make(map[string]bool, len(assignedPermissionIDs))
	for _, id := range assignedPermissionIDs {
		assigned[id] = true
	}
	for _, n := range roots {
		annotate(n, assigned, map[string]bool{})
	}
}

func annotate(n *ResourceNode, assigned map[string]bool, fromAncestors map[string]bool) {
	next := make(map[string]bool, len(fromAncestors))
	for k := range fromAncestors {
		next[k] = true
	}
	for _, p := range n.Permissions {
		p.Assigned = assigned[p.ID]
		p.Inherited = !p.Assigned && fromAncestors[p.ActionKey]
		if p.Assigned {
			next[p.ActionKey] = true
		}
	}
	for _, c := range n.Children {
		annotate(c, assigned, next)
	}
}

func sortNodes(nodes []*ResourceNode) {
	sort.Slice(nodes, func(i, j int) bool {
		if nodes[i].Resource.Name != nodes[j].Resource.Name {
			return nodes[i].Resource.Name < nodes[j].Resource.Name
		}
		return nodes[i].Resource.ID < nodes[j].Resource.ID
	})
	for _, n := range nodes {
		sortNodes(n.Children)
	}
}

// sortedPermissions returns a key-ordered copy; the input is left untouched.
func sortedPermissions(perms []*Permission) []*Permission {
	out := slices.Clone(perms)
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}
