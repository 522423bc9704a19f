package memory

import (
	"context"
	"testing"
	"time"

	"github.com/lumina-learn/lumina/internal/authz"
	"github.com/lumina-learn/lumina/internal/catalog"
	"github.com/lumina-learn/lumina/internal/course"
	"github.com/lumina-learn/lumina/internal/identity"
	"github.com/lumina-learn/lumina/internal/query"
	"github.com/lumina-learn/lumina/internal/rbac"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeed_Catalog(t *testing.T) {
	ctx := context.Background()
	repo := NewCatalogRepository(NewSeededStore())

	p, err := repo.GetPermissionByKey(ctx, "payout:APPROVE")
	require.NoError(t, err)
	assert.Equal(t, rbac.PermissionIDPayoutApprove, p.ID)
	assert.True(t, p.Usable())

	perms, err := repo.ListPermissions(ctx)
	require.NoError(t, err)
	assert.Len(t, perms, len(rbac.Permissions))

	_, err = repo.GetPermissionByKey(ctx, "quiz:READ")
	assert.ErrorIs(t, err, catalog.ErrPermissionNotFound)
}

func TestRuleRepository_FindActiveRulesFor(t *testing.T) {
	ctx := context.Background()
	s := NewSeededStore()
	repo := NewRuleRepository(s)

	types, err := repo.FindActiveRulesFor(ctx, identity.User{ID: "a", Role: authz.RoleAdmin}, authz.PermCourseRead)
	require.NoError(t, err)
	assert.ElementsMatch(t, []authz.FilterType{authz.FilterTypeOwn, authz.FilterTypeAll}, types)

	types, err = repo.FindActiveRulesFor(ctx, identity.User{ID: "x", Role: "GHOST"}, authz.PermCourseRead)
	require.NoError(t, err)
	assert.Empty(t, types)

	require.NoError(t, NewCatalogRepository(s).SetActionStatus(ctx, rbac.ActionIDRead, false))
	types, err = repo.FindActiveRulesFor(ctx, identity.User{ID: "a", Role: authz.RoleAdmin}, authz.PermCourseRead)
	require.NoError(t, err)
	assert.Empty(t, types)
}

func TestRuleRepository_OneLiveActiveRulePerLink(t *testing.T) {
	ctx := context.Background()
	repo := NewRuleRepository(NewSeededStore())
	link := "50000000-0000-0000-0000-000000000011"

	err := repo.CreateRule(ctx, &authz.FilterRule{ID: "dup", RolePermissionID: link, FilterType: authz.FilterTypeAll, IsActive: true})
	assert.ErrorIs(t, err, authz.ErrRuleAlreadyExists)

	require.NoError(t, repo.SoftDeleteRule(ctx, "60000000-0000-0000-0000-000000000011", time.Now()))
	require.NoError(t, repo.CreateRule(ctx, &authz.FilterRule{ID: "new", RolePermissionID: link, FilterType: authz.FilterTypeAll, IsActive: true}))

	_, err = repo.GetRule(ctx, "60000000-0000-0000-0000-000000000011")
	assert.ErrorIs(t, err, authz.ErrRuleNotFound)
	assert.ErrorIs(t, repo.SoftDeleteRule(ctx, "60000000-0000-0000-0000-000000000011", time.Now()), authz.ErrRuleNotFound)
}

func TestRuleRepository_ListAssignedPermissionIDs(t *testing.T) {
	ctx := context.Background()
	repo := NewRuleRepository(NewSeededStore())
	now := time.Now()

	ids, err := repo.ListAssignedPermissionIDs(ctx, rbac.RoleIDStudent)
	require.NoError(t, err)
	assert.Contains(t, ids, rbac.PermissionIDReviewDelete)
	assert.Contains(t, ids, rbac.PermissionIDReviewRead)

	require.NoError(t, repo.UpdateRuleStatus(ctx, "60000000-0000-0000-0000-000000000023", false, now))
	require.NoError(t, repo.SoftDeleteRule(ctx, "60000000-0000-0000-0000-000000000022", now))
	require.NoError(t, repo.CreateRolePermission(ctx, &authz.RolePermission{
		ID: "bare", RoleID: rbac.RoleIDStudent, PermissionID: rbac.PermissionIDCourseCreate, IsActive: true,
	}))

	ids, err = repo.ListAssignedPermissionIDs(ctx, rbac.RoleIDStudent)
	require.NoError(t, err)
	assert.NotContains(t, ids, rbac.PermissionIDReviewDelete)
	assert.NotContains(t, ids, rbac.PermissionIDReviewRead)
	assert.NotContains(t, ids, rbac.PermissionIDCourseCreate)
	assert.Contains(t, ids, rbac.PermissionIDCourseRead)
}

func TestRuleRepository_ListRules(t *testing.T) {
	ctx := context.Background()
	repo := NewRuleRepository(NewSeededStore())

	views, err := repo.ListRulesByPermissionKey(ctx, authz.PermCourseRead)
	require.NoError(t, err)
	require.Len(t, views, 4)
	for _, v := range views {
		assert.Equal(t, authz.PermCourseRead, v.PermissionKey)
	}
	assert.Equal(t, authz.RoleAdmin, views[0].RoleName)

	views, err = repo.ListRulesByRole(ctx, rbac.RoleIDStudent)
	require.NoError(t, err)
	assert.Len(t, views, 5)
}

func TestAssignRuleRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewAssignRuleRepository(NewSeededStore())

	rules, err := repo.ListActiveForPermission(ctx, rbac.PermissionIDPayoutApprove)
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, authz.RoleAdmin, rules[0].RoleName)

	err = repo.Create(ctx, &authz.AssignRule{ID: "x", RoleID: rbac.RoleIDAdmin, PermissionID: rbac.PermissionIDPayoutApprove, IsActive: true})
	assert.ErrorIs(t, err, authz.ErrAssignRuleExists)
	assert.ErrorIs(t, repo.SetStatus(ctx, "missing", false), authz.ErrAssignRuleNotFound)
}

func TestCourseRepository_List(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	SeedCourses(s,
		course.Course{ID: "c1", Title: "Go", Category: "dev", InstructorID: "i1"},
		course.Course{ID: "c2", Title: "Art", Category: "design", InstructorID: "i2"},
		course.Course{ID: "c3", Title: "Rust", Category: "dev", InstructorID: "i2"},
	)
	repo := NewCourseRepository(s)

	all, err := repo.List(ctx, query.From(course.Table))
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Art", all[0].Title)

	dev, err := repo.List(ctx, query.From(course.Table).Where(query.Eq("category", "dev")).Where(query.Eq("instructor_id", "i2")))
	require.NoError(t, err)
	require.Len(t, dev, 1)
	assert.Equal(t, "c3", dev[0].ID)

	page, err := repo.List(ctx, query.From(course.Table).Offset(1).Limit(1))
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "Go", page[0].Title)

	denied, err := repo.List(ctx, query.From(course.Table).Deny())
	require.NoError(t, err)
	assert.Empty(t, denied)
}
