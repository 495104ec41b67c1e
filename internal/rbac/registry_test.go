package rbac

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/workflicks/backoffice/internal/platform/httpx"
	"github.com/workflicks/backoffice/internal/store/storetest"
)

func TestEffectivePermissionsDefaults(t *testing.T) {
	registry := NewRegistry(storetest.New())

	perms, err := registry.EffectivePermissions(context.Background(), RoleRecruiter)
	require.NoError(t, err)
	assert.Equal(t, []Permission{PermManageJobs}, perms)

	perms, err = registry.EffectivePermissions(context.Background(), RoleSuperAdmin)
	require.NoError(t, err)
	assert.Len(t, perms, len(catalogOrder))
}

func TestEffectivePermissionsOverride(t *testing.T) {
	st := storetest.New()
	st.Seed("config", "rbac", map[string]any{
		"recruiter": []any{"manageJobs", "manageContent"},
	})
	registry := NewRegistry(st)

	perms, err := registry.EffectivePermissions(context.Background(), RoleRecruiter)
	require.NoError(t, err)
	assert.Equal(t, []Permission{PermManageJobs, PermManageContent}, perms)

	// Other roles still resolve from defaults.
	perms, err = registry.EffectivePermissions(context.Background(), RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, DefaultPermissions(RoleAdmin), perms)
}

func TestEffectivePermissionsSkipsRetiredNames(t *testing.T) {
	st := storetest.New()
	st.Seed("config", "rbac", map[string]any{
		"recruiter": []any{"manageJobs", "manageTelegrams"},
	})
	registry := NewRegistry(st)

	perms, err := registry.EffectivePermissions(context.Background(), RoleRecruiter)
	require.NoError(t, err)
	assert.Equal(t, []Permission{PermManageJobs}, perms)
}

func TestEffectivePermissionsUnknownRole(t *testing.T) {
	registry := NewRegistry(storetest.New())

	_, err := registry.EffectivePermissions(context.Background(), Role("intern"))
	require.ErrorIs(t, err, httpx.ErrUnknownRole)
}

func TestRoleTable(t *testing.T) {
	st := storetest.New()
	st.Seed("config", "rbac", map[string]any{
		"contentEditor": []any{"manageContent", "viewAnalytics"},
	})
	registry := NewRegistry(st)

	rows, err := registry.RoleTable(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, len(Roles()))

	byRole := map[Role][]Permission{}
	for _, row := range rows {
		byRole[row.Role] = row.Permissions
	}
	assert.Equal(t, []Permission{PermManageContent, PermViewAnalytics}, byRole[RoleContentEditor])
	assert.Equal(t, []Permission{PermManageJobs}, byRole[RoleRecruiter])
}

func TestFromStringsSortsAndDeduplicates(t *testing.T) {
	perms := FromStrings([]string{"viewAnalytics", "manageJobs", "manageJobs", "bogus"})
	assert.Equal(t, []Permission{PermManageJobs, PermViewAnalytics}, perms)
}
