package authz_test

import (
	"context"
	"testing"

	"github.com/lumina-learn/lumina/internal/audit"
	"github.com/lumina-learn/lumina/internal/authz"
	"github.com/lumina-learn/lumina/internal/rbac"
	"github.com/lumina-learn/lumina/internal/store/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestGuard_Unrestricted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	restricted, err := f.guard.IsRestricted(ctx, rbac.PermissionIDCourseRead)
	require.NoError(t, err)
	assert.False(t, restricted)

	for roleID := range rbac.Roles {
		ok, err := f.guard.CanAssign(ctx, roleID, rbac.PermissionIDCourseRead)
		require.NoError(t, err)
		assert.True(t, ok, roleID)
	}

	names, err := f.guard.ListAllowedRoleNames(ctx, rbac.PermissionIDCourseRead)
	require.NoError(t, err)
	assert.Empty(t, names)
}

// TestPurpose: payout:APPROVE is restricted to ADMIN.
// Expected: granting it to INSTRUCTOR is rejected, to ADMIN succeeds.
func TestGuard_PayoutApproveScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	restricted, err := f.guard.IsRestricted(ctx, rbac.PermissionIDPayoutApprove)
	require.NoError(t, err)
	assert.True(t, restricted)

	ok, err := f.guard.CanAssign(ctx, rbac.RoleIDInstructor, rbac.PermissionIDPayoutApprove)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = f.rules.GrantPermission(ctx, rbac.RoleIDInstructor, rbac.PermissionIDPayoutApprove, "admin-1")
	assert.ErrorIs(t, err, authz.ErrAssignmentForbidden)

	rp, err := f.rules.GrantPermission(ctx, rbac.RoleIDAdmin, rbac.PermissionIDPayoutApprove, "admin-1")
	require.NoError(t, err)
	assert.Equal(t, rbac.RoleIDAdmin, rp.RoleID)

	// guard rows never change live decisions
	res, err := f.engine.EvaluatePermission(ctx, instructorUser, authz.PermPayoutApprove)
	require.NoError(t, err)
	assert.Equal(t, authz.Denied, res.EffectiveFilter)
}

func TestGuard_AllowListMaintenance(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	auditLogger := new(mockAudit)
	auditLogger.On("Log", mock.Anything, mock.Anything).Return()
	f.guard = authz.NewGuard(memory.NewAssignRuleRepository(f.store), memory.NewRoleRepository(f.store), memory.NewCatalogRepository(f.store), auditLogger)

	rule, err := f.guard.AddAssignRule(ctx, rbac.RoleIDStudent, rbac.PermissionIDReviewDelete, "admin-1")
	require.NoError(t, err)
	assert.Equal(t, authz.RoleStudent, rule.RoleName)

	_, err = f.guard.AddAssignRule(ctx, rbac.RoleIDStudent, rbac.PermissionIDReviewDelete, "admin-1")
	assert.ErrorIs(t, err, authz.ErrAssignRuleExists)

	ok, err := f.guard.CanAssign(ctx, rbac.RoleIDInstructor, rbac.PermissionIDReviewDelete)
	require.NoError(t, err)
	assert.False(t, ok)

	names, err := f.guard.ListAllowedRoleNames(ctx, rbac.PermissionIDReviewDelete)
	require.NoError(t, err)
	assert.Equal(t, []string{authz.RoleStudent}, names)

	require.NoError(t, f.guard.SetAssignRuleStatus(ctx, rule.ID, false, "admin-1"))
	ok, err = f.guard.CanAssign(ctx, rbac.RoleIDInstructor, rbac.PermissionIDReviewDelete)
	require.NoError(t, err)
	assert.True(t, ok)

	assert.ErrorIs(t, f.guard.SetAssignRuleStatus(ctx, "missing", true, "admin-1"), authz.ErrAssignRuleNotFound)
	assert.Equal(t, []string{
		audit.TypeAssignRuleCreated,
		audit.TypeAssignRuleToggled,
	}, auditTypes(auditLogger))
}

func TestGuard_ListRestrictedPermissions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.guard.AddAssignRule(ctx, rbac.RoleIDInstructor, rbac.PermissionIDPayoutApprove, "admin-1")
	require.NoError(t, err)

	restricted, err := f.guard.ListRestrictedPermissions(ctx)
	require.NoError(t, err)
	require.Len(t, restricted, 2)

	assert.Equal(t, authz.PermPayoutApprove, restricted[0].PermissionKey)
	assert.Equal(t, []string{authz.RoleAdmin, authz.RoleInstructor}, restricted[0].AllowedRoles)
	assert.Equal(t, authz.PermPermissionManage, restricted[1].PermissionKey)
	assert.Equal(t, []string{authz.RoleAdmin}, restricted[1].AllowedRoles)
}
