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

package rbac

// SeedResource is a resource installed by the seed migration.
type SeedResource struct {
	ID       string
	Key      string
	Name     string
	ParentID string
}

// SeedAction is an action installed by the seed migration.
type SeedAction struct {
	ID   string
	Key  string
	Name string
}

// SeedPermission is a permission installed by the seed migration.
type SeedPermission struct {
	ID         string
	ResourceID string
	ActionID   string
}

// SeedGrant is a role permission link with its filter rule.
type SeedGrant struct {
	RolePermissionID string
	RuleID           string
	RoleID           string
	PermissionID     string
	FilterType       string
}

// SeedAssignRule restricts a permission to a role.
type SeedAssignRule struct {
	ID           string
	RoleID       string
	PermissionID string
}

var Roles = map[string]string{
	RoleIDAdmin:      "ADMIN",
	RoleIDInstructor: "INSTRUCTOR",
	RoleIDStudent:    "STUDENT",
}

var Resources = []SeedResource{
	{ID: ResourceIDCourse, Key: "course", Name: "Course"},
	{ID: ResourceIDReview, Key: "review", Name: "Review", ParentID: ResourceIDCourse},
	{ID: ResourceIDEnrollment, Key: "enrollment", Name: "Enrollment", ParentID: ResourceIDCourse},
	{ID: ResourceIDPayout, Key: "payout", Name: "Payout"},
	{ID: ResourceIDPermission, Key: "permission", Name: "Permission"},
}

var Actions = []SeedAction{
	{ID: ActionIDRead, Key: "READ", Name: "Read"},
	{ID: ActionIDCreate, Key: "CREATE", Name: "Create"},
	{ID: ActionIDUpdate, Key: "UPDATE", Name: "Update"},
	{ID: ActionIDDelete, Key: "DELETE", Name: "Delete"},
	{ID: ActionIDApprove, Key: "APPROVE", Name: "Approve"},
	{ID: ActionIDManage, Key: "MANAGE", Name: "Manage"},
}

var Permissions = []SeedPermission{
	{ID: PermissionIDCourseRead, ResourceID: ResourceIDCourse, ActionID: ActionIDRead},
	{ID: PermissionIDCourseCreate, ResourceID: ResourceIDCourse, ActionID: ActionIDCreate},
	{ID: PermissionIDCourseUpdate, ResourceID: ResourceIDCourse, ActionID: ActionIDUpdate},
	{ID: PermissionIDCourseDelete, ResourceID: ResourceIDCourse, ActionID: ActionIDDelete},
	{ID: PermissionIDReviewRead, ResourceID: ResourceIDReview, ActionID: ActionIDRead},
	{ID: PermissionIDReviewDelete, ResourceID: ResourceIDReview, ActionID: ActionIDDelete},
	{ID: PermissionIDEnrollmentRead, ResourceID: ResourceIDEnrollment, ActionID: ActionIDRead},
	{ID: PermissionIDEnrollmentCreate, ResourceID: ResourceIDEnrollment, ActionID: ActionIDCreate},
	{ID: PermissionIDPayoutRead, ResourceID: ResourceIDPayout, ActionID: ActionIDRead},
	{ID: PermissionIDPayoutApprove, ResourceID: ResourceIDPayout, ActionID: ActionIDApprove},
	{ID: PermissionIDPermissionManage, ResourceID: ResourceIDPermission, ActionID: ActionIDManage},
}

// Grants are the default runtime grants. ADMIN keeps a legacy OWN rule on
// course:READ next to the current ALL rule.
var Grants = []SeedGrant{
	{"50000000-0000-0000-0000-000000000001", "60000000-0000-0000-0000-000000000001", RoleIDAdmin, PermissionIDCourseRead, "OWN"},
	{"50000000-0000-0000-0000-000000000002", "60000000-0000-0000-0000-000000000002", RoleIDAdmin, PermissionIDCourseRead, "ALL"},
	{"50000000-0000-0000-0000-000000000003", "60000000-0000-0000-0000-000000000003", RoleIDAdmin, PermissionIDCourseUpdate, "ALL"},
	{"50000000-0000-0000-0000-000000000004", "60000000-0000-0000-0000-000000000004", RoleIDAdmin, PermissionIDCourseDelete, "ALL"},
	{"50000000-0000-0000-0000-000000000005", "60000000-0000-0000-0000-000000000005", RoleIDAdmin, PermissionIDReviewRead, "ALL"},
	{"50000000-0000-0000-0000-000000000006", "60000000-0000-0000-0000-000000000006", RoleIDAdmin, PermissionIDReviewDelete, "ALL"},
	{"50000000-0000-0000-0000-000000000007", "60000000-0000-0000-0000-000000000007", RoleIDAdmin, PermissionIDEnrollmentRead, "ALL"},
	{"50000000-0000-0000-0000-000000000008", "60000000-0000-0000-0000-000000000008", RoleIDAdmin, PermissionIDPayoutRead, "ALL"},
	{"50000000-0000-0000-0000-000000000009", "60000000-0000-0000-0000-000000000009", RoleIDAdmin, PermissionIDPayoutApprove, "ALL"},
	{"50000000-0000-0000-0000-00000000000a", "60000000-0000-0000-0000-00000000000a", RoleIDAdmin, PermissionIDPermissionManage, "ALL"},
	{"50000000-0000-0000-0000-000000000011", "60000000-0000-0000-0000-000000000011", RoleIDInstructor, PermissionIDCourseRead, "OWN"},
	{"50000000-0000-0000-0000-000000000012", "60000000-0000-0000-0000-000000000012", RoleIDInstructor, PermissionIDCourseCreate, "OWN"},
	{"50000000-0000-0000-0000-000000000013", "60000000-0000-0000-0000-000000000013", RoleIDInstructor, PermissionIDCourseUpdate, "OWN"},
	{"50000000-0000-0000-0000-000000000014", "60000000-0000-0000-0000-000000000014", RoleIDInstructor, PermissionIDReviewRead, "OWN"},
	{"50000000-0000-0000-0000-000000000015", "60000000-0000-0000-0000-000000000015", RoleIDInstructor, PermissionIDEnrollmentRead, "OWN"},
	{"50000000-0000-0000-0000-000000000016", "60000000-0000-0000-0000-000000000016", RoleIDInstructor, PermissionIDPayoutRead, "OWN"},
	{"50000000-0000-0000-0000-000000000021", "60000000-0000-0000-0000-000000000021", RoleIDStudent, PermissionIDCourseRead, "ALL"},
	{"50000000-0000-0000-0000-000000000022", "60000000-0000-0000-0000-000000000022", RoleIDStudent, PermissionIDReviewRead, "ALL"},
	{"50000000-0000-0000-0000-000000000023", "60000000-0000-0000-0000-000000000023", RoleIDStudent, PermissionIDReviewDelete, "OWN"},
	{"50000000-0000-0000-0000-000000000024", "60000000-0000-0000-0000-000000000024", RoleIDStudent, PermissionIDEnrollmentRead, "OWN"},
	{"50000000-0000-0000-0000-000000000025", "60000000-0000-0000-0000-000000000025", RoleIDStudent, PermissionIDEnrollmentCreate, "OWN"},
}

// AssignRules restrict payout approval and permission management to ADMIN.
var AssignRules = []SeedAssignRule{
	{ID: "70000000-0000-0000-0000-000000000001", RoleID: RoleIDAdmin, PermissionID: PermissionIDPayoutApprove},
	{ID: "70000000-0000-0000-0000-000000000002", RoleID: RoleIDAdmin, PermissionID: PermissionIDPermissionManage},
}
