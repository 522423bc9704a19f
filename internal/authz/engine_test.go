package authz_test

import (
	"context"
	"errors"
	"testing"

	"github.com/lumina-learn/lumina/internal/authz"
	"github.com/lumina-learn/lumina/internal/catalog"
	"github.com/lumina-learn/lumina/internal/identity"
	"github.com/lumina-learn/lumina/internal/query"
	"github.com/lumina-learn/lumina/internal/rbac"
	"github.com/lumina-learn/lumina/internal/store/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

var (
	adminUser      = identity.User{ID: "admin-1", Role: authz.RoleAdmin}
	instructorUser = identity.User{ID: "instructor-1", Role: authz.RoleInstructor}
	studentUser    = identity.User{ID: "student-1", Role: authz.RoleStudent}
)

type fixture struct {
	store   *memory.Store
	engine  *authz.Engine
	rules   *authz.RuleService
	guard   *authz.Guard
	catalog *catalog.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	s := memory.NewSeededStore()
	ruleRepo := memory.NewRuleRepository(s)
	roleRepo := memory.NewRoleRepository(s)
	catalogRepo := memory.NewCatalogRepository(s)

	engine, err := authz.NewEngine(ruleRepo, nil)
	require.NoError(t, err)
	guard := authz.NewGuard(memory.NewAssignRuleRepository(s), roleRepo, catalogRepo, nil)

	return &fixture{
		store:   s,
		engine:  engine,
		rules:   authz.NewRuleService(ruleRepo, roleRepo, catalogRepo, guard, nil),
		guard:   guard,
		catalog: catalog.NewService(catalogRepo, nil),
	}
}

func TestEngine_DefaultDeny(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cases := []struct {
		name string
		user identity.User
		key  string
	}{
		{"no rule for role", instructorUser, authz.PermPayoutApprove},
		{"unknown key", adminUser, "quiz:GRADE"},
		{"malformed key", adminUser, "course"},
		{"empty key", adminUser, ""},
		{"no role", identity.User{ID: "anon"}, authz.PermCourseRead},
		{"unknown role", identity.User{ID: "x", Role: "AUDITOR"}, authz.PermCourseRead},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := f.engine.EvaluatePermission(ctx, tc.user, tc.key)
			require.NoError(t, err)
			assert.False(t, res.HasPermission)
			assert.Equal(t, authz.Denied, res.EffectiveFilter)
		})
	}
}

// TestPurpose: An instructor with a single OWN rule only sees their own courses.
// Expected: OWN, and the course query is constrained by instructor_id.
func TestEngine_InstructorOwnScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	filter, err := f.engine.GetEffectiveFilter(ctx, instructorUser, authz.PermCourseRead)
	require.NoError(t, err)
	assert.Equal(t, authz.Own, filter)

	err = f.engine.Authorize(ctx, instructorUser, authz.PermCourseRead, func(ctx context.Context, d authz.Decision) error {
		sql, args := query.ApplyFilter(ctx, query.From("courses"), query.Ownership{Column: "instructor_id"}).Build()
		assert.Equal(t, "SELECT * FROM courses WHERE instructor_id = $1", sql)
		assert.Equal(t, []any{instructorUser.ID}, args)
		return nil
	})
	require.NoError(t, err)
}

// TestPurpose: A legacy OWN rule next to an ALL rule must not narrow the scope.
// Expected: ALL and an unconstrained query.
func TestEngine_AdminOwnAndAllScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	views, err := f.rules.ListRulesByRole(ctx, rbac.RoleIDAdmin)
	require.NoError(t, err)
	var courseRead []authz.FilterType
	for _, v := range views {
		if v.PermissionKey == authz.PermCourseRead && v.IsActive {
			courseRead = append(courseRead, v.FilterType)
		}
	}
	assert.ElementsMatch(t, []authz.FilterType{authz.FilterTypeOwn, authz.FilterTypeAll}, courseRead)

	err = f.engine.Authorize(ctx, adminUser, authz.PermCourseRead, func(ctx context.Context, d authz.Decision) error {
		assert.Equal(t, authz.All, d.Filter)
		sql, args := query.ApplyFilter(ctx, query.From("courses"), query.Ownership{Column: "instructor_id"}).Build()
		assert.Equal(t, "SELECT * FROM courses", sql)
		assert.Empty(t, args)
		return nil
	})
	require.NoError(t, err)
}

// TestPurpose: Deactivating the student's review:DELETE rule revokes it at once.
// Expected: OWN before, DENIED after.
func TestEngine_StudentReviewDeleteDeactivation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	before, err := f.engine.EvaluatePermission(ctx, studentUser, authz.PermReviewDelete)
	require.NoError(t, err)
	assert.Equal(t, authz.Own, before.EffectiveFilter)

	views, err := f.rules.ListRulesByPermissionKey(ctx, authz.PermReviewDelete)
	require.NoError(t, err)
	var ruleID string
	for _, v := range views {
		if v.RoleName == authz.RoleStudent {
			ruleID = v.ID
		}
	}
	require.NotEmpty(t, ruleID)

	_, err = f.rules.UpdateRuleStatus(ctx, ruleID, false, adminUser.ID)
	require.NoError(t, err)

	after, err := f.engine.EvaluatePermission(ctx, studentUser, authz.PermReviewDelete)
	require.NoError(t, err)
	assert.False(t, after.HasPermission)
	assert.Equal(t, authz.Denied, after.EffectiveFilter)
}

func TestEngine_InactiveCatalogEntriesDeny(t *testing.T) {
	toggles := map[string]func(f *fixture) error{
		"permission": func(f *fixture) error {
			return f.catalog.SetPermissionStatus(context.Background(), rbac.PermissionIDCourseRead, false, "admin-1")
		},
		"resource": func(f *fixture) error {
			return f.catalog.SetResourceStatus(context.Background(), rbac.ResourceIDCourse, false, "admin-1")
		},
		"action": func(f *fixture) error {
			return f.catalog.SetActionStatus(context.Background(), rbac.ActionIDRead, false, "admin-1")
		},
		"role permission link": func(f *fixture) error {
			_, err := f.rules.SetRolePermissionStatus(context.Background(), "50000000-0000-0000-0000-000000000011", false, "admin-1")
			return err
		},
	}
	for name, disable := range toggles {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t)
			require.NoError(t, disable(f))

			res, err := f.engine.EvaluatePermission(context.Background(), instructorUser, authz.PermCourseRead)
			require.NoError(t, err)
			assert.Equal(t, authz.Denied, res.EffectiveFilter)
		})
	}
}

type failingStore struct {
	authz.RuleStore
	mock.Mock
}

func (m *failingStore) FindActiveRulesFor(ctx context.Context, user identity.User, key string) ([]authz.FilterType, error) {
	args := m.Called(ctx, user, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]authz.FilterType), args.Error(1)
}

func TestEngine_StoreFailureIsNotDenial(t *testing.T) {
	store := new(failingStore)
	boom := errors.New("connection refused")
	store.On("FindActiveRulesFor", mock.Anything, adminUser, authz.PermCourseRead).Return(nil, boom)

	engine, err := authz.NewEngine(store, nil)
	require.NoError(t, err)

	_, err = engine.EvaluatePermission(context.Background(), adminUser, authz.PermCourseRead)
	assert.ErrorIs(t, err, authz.ErrStoreUnavailable)
	assert.ErrorIs(t, err, boom)

	called := false
	err = engine.Authorize(context.Background(), adminUser, authz.PermCourseRead, func(context.Context, authz.Decision) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, authz.ErrStoreUnavailable)
	assert.False(t, called)
}

func TestEngine_EmptyRoleSkipsStore(t *testing.T) {
	store := new(failingStore)
	engine, err := authz.NewEngine(store, nil)
	require.NoError(t, err)

	ok, err := engine.HasPermission(context.Background(), identity.User{ID: "anon"}, authz.PermCourseRead)
	require.NoError(t, err)
	assert.False(t, ok)
	store.AssertNotCalled(t, "FindActiveRulesFor", mock.Anything, mock.Anything, mock.Anything)
}

func TestEngine_AuthorizeReleasesOnError(t *testing.T) {
	f := newFixture(t)
	ctx, holder := authz.WithDecisionContext(context.Background())
	sentinel := errors.New("handler failed")

	err := f.engine.Authorize(ctx, adminUser, authz.PermCourseRead, func(ctx context.Context, d authz.Decision) error {
		_, ok := authz.CurrentDecision(ctx)
		assert.True(t, ok)
		return sentinel
	})
	assert.ErrorIs(t, err, sentinel)

	_, ok := holder.Get()
	assert.False(t, ok)
	assert.True(t, query.ApplyFilter(ctx, query.From("courses"), query.Ownership{Column: "instructor_id"}).Denied())
}

func TestEngine_AuthorizeReleasesOnPanic(t *testing.T) {
	f := newFixture(t)
	ctx, holder := authz.WithDecisionContext(context.Background())

	assert.Panics(t, func() {
		_ = f.engine.Authorize(ctx, adminUser, authz.PermCourseRead, func(context.Context, authz.Decision) error {
			panic("boom")
		})
	})

	_, ok := holder.Get()
	assert.False(t, ok)
}

func TestEngine_AuthorizeNestedRestoresOuter(t *testing.T) {
	f := newFixture(t)
	ctx, _ := authz.WithDecisionContext(context.Background())

	err := f.engine.Authorize(ctx, adminUser, authz.PermCourseRead, func(ctx context.Context, outer authz.Decision) error {
		err := f.engine.Authorize(ctx, adminUser, authz.PermReviewRead, func(ctx context.Context, inner authz.Decision) error {
			d, _ := authz.CurrentDecision(ctx)
			assert.Equal(t, authz.PermReviewRead, d.PermissionKey)
			return nil
		})
		require.NoError(t, err)

		d, _ := authz.CurrentDecision(ctx)
		assert.Equal(t, authz.PermCourseRead, d.PermissionKey)
		return nil
	})
	require.NoError(t, err)
}

func TestEngine_DeniedDecisionStillReachesCallback(t *testing.T) {
	f := newFixture(t)
	var got authz.Decision
	err := f.engine.Authorize(context.Background(), studentUser, authz.PermPayoutApprove, func(_ context.Context, d authz.Decision) error {
		got = d
		return nil
	})
	require.NoError(t, err)
	assert.False(t, got.Allowed())
	assert.Equal(t, studentUser, got.User)
}

func TestEngine_RecordsSpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(provider)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	f := newFixture(t)
	_, err := f.engine.EvaluatePermission(context.Background(), instructorUser, authz.PermCourseRead)
	require.NoError(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "authz.EvaluatePermission", spans[0].Name())

	attrs := map[string]string{}
	for _, kv := range spans[0].Attributes() {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}
	assert.Equal(t, "OWN", attrs["authz.effective_filter"])
	assert.Equal(t, authz.PermCourseRead, attrs["authz.permission_key"])
}
