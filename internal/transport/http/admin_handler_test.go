package http_test

import (
	"net/http"
	"testing"

	"github.com/lumina-learn/lumina/internal/authz"
	"github.com/lumina-learn/lumina/internal/catalog"
	"github.com/lumina-learn/lumina/internal/rbac"
	transportHTTP "github.com/lumina-learn/lumina/internal/transport/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	instructorCourseReadLink = "50000000-0000-0000-0000-000000000011"
	studentReviewDeleteRule  = "60000000-0000-0000-0000-000000000023"
)

func active(b bool) transportHTTP.StatusRequest {
	return transportHTTP.StatusRequest{IsActive: &b}
}

func TestCreateFilterRule(t *testing.T) {
	s := newServer(t)
	const path = "/api/v1/admin/filter-rules"

	cases := []struct {
		name string
		req  transportHTTP.CreateFilterRuleRequest
		code int
	}{
		{"live active rule exists", transportHTTP.CreateFilterRuleRequest{RolePermissionID: instructorCourseReadLink, FilterType: "ALL"}, http.StatusConflict},
		{"unknown link", transportHTTP.CreateFilterRuleRequest{RolePermissionID: "50000000-0000-0000-0000-0000000000ff", FilterType: "ALL"}, http.StatusNotFound},
		{"bad filter type", transportHTTP.CreateFilterRuleRequest{RolePermissionID: instructorCourseReadLink, FilterType: "SOME"}, http.StatusBadRequest},
		{"missing link", transportHTTP.CreateFilterRuleRequest{FilterType: "ALL"}, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := s.do(&adminUser, http.MethodPost, path, tc.req)
			assert.Equal(t, tc.code, w.Code, w.Body.String())
		})
	}
}

// TestPurpose: Deleting a rule frees its link for a replacement rule.
// Scope: Unit Test
// Expected: 204 then 404 on repeat delete; the replacement widens scope to ALL.
func TestFilterRuleLifecycle(t *testing.T) {
	s := newServer(t)
	ruleID := "60000000-0000-0000-0000-000000000011"

	w := s.do(&adminUser, http.MethodDelete, "/api/v1/admin/filter-rules/"+ruleID, nil)
	require.Equal(t, http.StatusNoContent, w.Code)
	w = s.do(&adminUser, http.MethodDelete, "/api/v1/admin/filter-rules/"+ruleID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(&instructorUser, http.MethodPost, "/api/v1/authz/evaluate", transportHTTP.EvaluateRequest{PermissionKey: authz.PermCourseRead})
	assert.Equal(t, authz.Denied, decode[authz.Result](t, w).EffectiveFilter)

	w = s.do(&adminUser, http.MethodPost, "/api/v1/admin/filter-rules",
		transportHTTP.CreateFilterRuleRequest{RolePermissionID: instructorCourseReadLink, FilterType: "ALL"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[authz.FilterRule](t, w)
	assert.Equal(t, authz.FilterTypeAll, created.FilterType)
	assert.True(t, created.IsActive)

	w = s.do(&instructorUser, http.MethodPost, "/api/v1/authz/evaluate", transportHTTP.EvaluateRequest{PermissionKey: authz.PermCourseRead})
	assert.Equal(t, authz.All, decode[authz.Result](t, w).EffectiveFilter)
}

func TestUpdateFilterRuleStatus(t *testing.T) {
	s := newServer(t)

	w := s.do(&adminUser, http.MethodPatch, "/api/v1/admin/filter-rules/"+studentReviewDeleteRule, active(false))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.False(t, decode[authz.FilterRule](t, w).IsActive)

	w = s.do(&studentUser, http.MethodPost, "/api/v1/authz/evaluate", transportHTTP.EvaluateRequest{PermissionKey: authz.PermReviewDelete})
	res := decode[authz.Result](t, w)
	assert.False(t, res.HasPermission)
	assert.Equal(t, authz.Denied, res.EffectiveFilter)

	w = s.do(&adminUser, http.MethodPatch, "/api/v1/admin/filter-rules/60000000-0000-0000-0000-0000000000ff", active(true))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(&adminUser, http.MethodPatch, "/api/v1/admin/filter-rules/"+studentReviewDeleteRule, map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListFilterRules(t *testing.T) {
	s := newServer(t)

	w := s.do(&adminUser, http.MethodGet, "/api/v1/admin/filter-rules?role_id="+rbac.RoleIDStudent, nil)
	require.Equal(t, http.StatusOK, w.Code)
	byRole := decode[[]authz.RuleView](t, w)
	assert.NotEmpty(t, byRole)
	for _, v := range byRole {
		assert.Equal(t, authz.RoleStudent, v.RoleName)
	}

	w = s.do(&adminUser, http.MethodGet, "/api/v1/admin/filter-rules?permission_key=course:READ", nil)
	require.Equal(t, http.StatusOK, w.Code)
	byKey := decode[[]authz.RuleView](t, w)
	// ADMIN OWN, ADMIN ALL, INSTRUCTOR OWN, STUDENT ALL
	assert.Len(t, byKey, 4)

	w = s.do(&adminUser, http.MethodGet, "/api/v1/admin/filter-rules", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(&adminUser, http.MethodGet, "/api/v1/admin/filter-rules?role_id=20000000-0000-0000-0000-0000000000ff", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

// TestPurpose: Assign rules restrict which roles may receive a permission.
// Scope: Unit Test
// Expected: payout:APPROVE to INSTRUCTOR is 403; unrestricted grants succeed.
func TestGrantPermission(t *testing.T) {
	s := newServer(t)
	const path = "/api/v1/admin/role-permissions"

	w := s.do(&adminUser, http.MethodPost, path, transportHTTP.GrantRequest{RoleID: rbac.RoleIDInstructor, PermissionID: rbac.PermissionIDPayoutApprove})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(&adminUser, http.MethodPost, path, transportHTTP.GrantRequest{RoleID: rbac.RoleIDStudent, PermissionID: rbac.PermissionIDCourseCreate})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	rp := decode[authz.RolePermission](t, w)
	assert.Equal(t, rbac.RoleIDStudent, rp.RoleID)

	w = s.do(&adminUser, http.MethodPost, "/api/v1/admin/filter-rules",
		transportHTTP.CreateFilterRuleRequest{RolePermissionID: rp.ID, FilterType: "OWN"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = s.do(&studentUser, http.MethodPost, "/api/v1/authz/evaluate", transportHTTP.EvaluateRequest{PermissionKey: "course:CREATE"})
	assert.Equal(t, authz.Own, decode[authz.Result](t, w).EffectiveFilter)

	w = s.do(&adminUser, http.MethodPatch, path+"/"+rp.ID, active(false))
	require.Equal(t, http.StatusOK, w.Code)
	w = s.do(&studentUser, http.MethodPost, "/api/v1/authz/evaluate", transportHTTP.EvaluateRequest{PermissionKey: "course:CREATE"})
	assert.Equal(t, authz.Denied, decode[authz.Result](t, w).EffectiveFilter)

	w = s.do(&adminUser, http.MethodPost, path, transportHTTP.GrantRequest{RoleID: rbac.RoleIDStudent, PermissionID: "10000000-0000-0000-0000-0000000000ff"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestResourceTree(t *testing.T) {
	s := newServer(t)

	w := s.do(&adminUser, http.MethodGet, "/api/v1/admin/roles/"+rbac.RoleIDStudent+"/resource-tree", nil)
	require.Equal(t, http.StatusOK, w.Code)
	tree := decode[transportHTTP.ResourceTreeResponse](t, w)
	require.NotEmpty(t, tree.Resources)

	courseNode := tree.Resources[0]
	assert.Equal(t, "course", courseNode.Resource.Key)
	assigned := map[string]bool{}
	for _, p := range courseNode.Permissions {
		assigned[p.Key] = p.Assigned
	}
	assert.True(t, assigned["course:READ"])
	assert.False(t, assigned["course:DELETE"])
	assert.True(t, reviewAssigned(t, s)["review:DELETE"])

	// A link whose only rule is inactive grants nothing.
	w = s.do(&adminUser, http.MethodPatch, "/api/v1/admin/filter-rules/"+studentReviewDeleteRule, active(false))
	require.Equal(t, http.StatusOK, w.Code)
	review := reviewAssigned(t, s)
	assert.False(t, review["review:DELETE"])
	assert.True(t, review["review:READ"])

	// Neither does a fresh link with no rule yet.
	w = s.do(&adminUser, http.MethodPost, "/api/v1/admin/role-permissions",
		transportHTTP.GrantRequest{RoleID: rbac.RoleIDStudent, PermissionID: rbac.PermissionIDCourseCreate})
	require.Equal(t, http.StatusCreated, w.Code)
	w = s.do(&adminUser, http.MethodGet, "/api/v1/admin/roles/"+rbac.RoleIDStudent+"/resource-tree", nil)
	require.Equal(t, http.StatusOK, w.Code)
	for _, p := range decode[transportHTTP.ResourceTreeResponse](t, w).Resources[0].Permissions {
		if p.Key == "course:CREATE" {
			assert.False(t, p.Assigned)
		}
	}

	w = s.do(&adminUser, http.MethodGet, "/api/v1/admin/roles/unknown/resource-tree", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func reviewAssigned(t *testing.T, s *server) map[string]bool {
	t.Helper()
	w := s.do(&adminUser, http.MethodGet, "/api/v1/admin/roles/"+rbac.RoleIDStudent+"/resource-tree", nil)
	require.Equal(t, http.StatusOK, w.Code)
	out := map[string]bool{}
	for _, child := range decode[transportHTTP.ResourceTreeResponse](t, w).Resources[0].Children {
		if child.Resource.Key != "review" {
			continue
		}
		for _, p := range child.Permissions {
			out[p.Key] = p.Assigned
		}
	}
	return out
}

// TestPurpose: Catalog deactivation is a runtime kill switch.
// Scope: Unit Test
// Expected: deactivating the course resource denies course:READ even for ADMIN.
func TestCatalogStatusToggles(t *testing.T) {
	s := newServer(t)

	w := s.do(&adminUser, http.MethodPatch, "/api/v1/admin/resources/"+rbac.ResourceIDCourse, active(false))
	require.Equal(t, http.StatusOK, w.Code)
	w = s.do(&adminUser, http.MethodPost, "/api/v1/authz/evaluate", transportHTTP.EvaluateRequest{PermissionKey: authz.PermCourseRead})
	assert.Equal(t, authz.Denied, decode[authz.Result](t, w).EffectiveFilter)

	w = s.do(&adminUser, http.MethodPatch, "/api/v1/admin/actions/"+rbac.ActionIDDelete, active(false))
	require.Equal(t, http.StatusOK, w.Code)
	w = s.do(&studentUser, http.MethodPost, "/api/v1/authz/evaluate", transportHTTP.EvaluateRequest{PermissionKey: authz.PermReviewDelete})
	assert.Equal(t, authz.Denied, decode[authz.Result](t, w).EffectiveFilter)

	w = s.do(&adminUser, http.MethodPatch, "/api/v1/admin/permissions/"+rbac.PermissionIDReviewRead, active(false))
	require.Equal(t, http.StatusOK, w.Code)
	w = s.do(&studentUser, http.MethodPost, "/api/v1/authz/evaluate", transportHTTP.EvaluateRequest{PermissionKey: authz.PermReviewRead})
	assert.Equal(t, authz.Denied, decode[authz.Result](t, w).EffectiveFilter)

	w = s.do(&adminUser, http.MethodPatch, "/api/v1/admin/permissions/10000000-0000-0000-0000-0000000000ff", active(false))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAssignRules(t *testing.T) {
	s := newServer(t)

	w := s.do(&adminUser, http.MethodGet, "/api/v1/admin/assign-rules/restricted", nil)
	require.Equal(t, http.StatusOK, w.Code)
	restricted := decode[[]authz.RestrictedPermission](t, w)
	require.Len(t, restricted, 2)
	assert.Equal(t, authz.PermPayoutApprove, restricted[0].PermissionKey)
	assert.Equal(t, []string{authz.RoleAdmin}, restricted[0].AllowedRoles)

	w = s.do(&adminUser, http.MethodPost, "/api/v1/admin/assign-rules",
		transportHTTP.GrantRequest{RoleID: rbac.RoleIDInstructor, PermissionID: rbac.PermissionIDPayoutApprove})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	rule := decode[authz.AssignRule](t, w)

	w = s.do(&adminUser, http.MethodPost, "/api/v1/admin/role-permissions",
		transportHTTP.GrantRequest{RoleID: rbac.RoleIDInstructor, PermissionID: rbac.PermissionIDPayoutApprove})
	assert.Equal(t, http.StatusCreated, w.Code)

	w = s.do(&adminUser, http.MethodPost, "/api/v1/admin/assign-rules",
		transportHTTP.GrantRequest{RoleID: rbac.RoleIDInstructor, PermissionID: rbac.PermissionIDPayoutApprove})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(&adminUser, http.MethodPatch, "/api/v1/admin/assign-rules/"+rule.ID, active(false))
	require.Equal(t, http.StatusOK, w.Code)
	w = s.do(&adminUser, http.MethodPatch, "/api/v1/admin/assign-rules/70000000-0000-0000-0000-0000000000ff", active(false))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListPermissions_Shape(t *testing.T) {
	s := newServer(t)

	w := s.do(&adminUser, http.MethodGet, "/api/v1/admin/permissions", nil)
	require.Equal(t, http.StatusOK, w.Code)
	perms := decode[[]catalog.Permission](t, w)

	keys := map[string]bool{}
	for _, p := range perms {
		keys[p.Key] = true
	}
	assert.True(t, keys[authz.PermPermissionManage])
	assert.True(t, keys[authz.PermPayoutApprove])
}
