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

// System-defined role IDs from the seed migration (00002_seed.sql).
// These UUIDs must remain stable.
const (
	RoleIDAdmin      = "20000000-0000-0000-0000-000000000001"
	RoleIDInstructor = "20000000-0000-0000-0000-000000000002"
	RoleIDStudent    = "20000000-0000-0000-0000-000000000003"
)

// Seeded resource IDs.
const (
	ResourceIDCourse     = "30000000-0000-0000-0000-000000000001"
	ResourceIDReview     = "30000000-0000-0000-0000-000000000002"
	ResourceIDEnrollment = "30000000-0000-0000-0000-000000000003"
	ResourceIDPayout     = "30000000-0000-0000-0000-000000000004"
	ResourceIDPermission = "30000000-0000-0000-0000-000000000005"
)

// Seeded action IDs.
const (
	ActionIDRead    = "40000000-0000-0000-0000-000000000001"
	ActionIDCreate  = "40000000-0000-0000-0000-000000000002"
	ActionIDUpdate  = "40000000-0000-0000-0000-000000000003"
	ActionIDDelete  = "40000000-0000-0000-0000-000000000004"
	ActionIDApprove = "40000000-0000-0000-0000-000000000005"
	ActionIDManage  = "40000000-0000-0000-0000-000000000006"
)

// Seeded permission IDs.
const (
	PermissionIDCourseRead       = "10000000-0000-0000-0000-000000000001"
	PermissionIDCourseCreate     = "10000000-0000-0000-0000-000000000002"
	PermissionIDCourseUpdate     = "10000000-0000-0000-0000-000000000003"
	PermissionIDCourseDelete     = "10000000-0000-0000-0000-000000000004"
	PermissionIDReviewRead       = "10000000-0000-0000-0000-000000000005"
	PermissionIDReviewDelete     = "10000000-0000-0000-0000-000000000006"
	PermissionIDEnrollmentRead   = "10000000-0000-0000-0000-000000000007"
	PermissionIDEnrollmentCreate = "10000000-0000-0000-0000-000000000008"
	PermissionIDPayoutRead       = "10000000-0000-0000-0000-000000000009"
	PermissionIDPayoutApprove    = "10000000-0000-0000-0000-00000000000a"
	PermissionIDPermissionManage = "10000000-0000-0000-0000-00000000000b"
)
