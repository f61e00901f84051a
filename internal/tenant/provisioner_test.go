package tenant_test

import (
	"context"
	"sync"
	"testing"

	"github.com/omnierp/omnicore/internal/model"
	"github.com/omnierp/omnicore/internal/tenant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func countRows(t *testing.T, router *tenant.Router, orgID uint, mdl interface{}) int64 {
	t.Helper()
	db, err := router.Tenant(context.Background(), orgID)
	require.NoError(t, err)
	var count int64
	require.NoError(t, db.Model(mdl).Count(&count).Error)
	return count
}

func TestProvisionCreatesFullSchema(t *testing.T) {
	router := newTestRouter(t)
	p := tenant.NewProvisioner(router, testLogger())

	require.NoError(t, p.Provision(context.Background(), 1))

	db, err := router.Tenant(context.Background(), 1)
	require.NoError(t, err)
	for _, entity := range model.TenantEntities() {
		assert.True(t, db.Migrator().HasTable(entity), "entity %T must be queryable after provisioning", entity)
	}
}

func TestProvisionIsIdempotent(t *testing.T) {
	router := newTestRouter(t)
	p := tenant.NewProvisioner(router, testLogger())
	ctx := context.Background()

	require.NoError(t, p.Provision(ctx, 1))
	perms := countRows(t, router, 1, &model.Permission{})
	roles := countRows(t, router, 1, &model.Role{})
	require.Greater(t, perms, int64(0))
	require.Greater(t, roles, int64(0))

	for i := 0; i < 3; i++ {
		require.NoError(t, p.Provision(ctx, 1))
	}

	assert.Equal(t, perms, countRows(t, router, 1, &model.Permission{}))
	assert.Equal(t, roles, countRows(t, router, 1, &model.Role{}))
}

func TestEnsureBaselineNeverDuplicates(t *testing.T) {
	router := newTestRouter(t)
	p := tenant.NewProvisioner(router, testLogger())
	ctx := context.Background()

	require.NoError(t, p.Provision(ctx, 3))

	// Race several seeders against each other; codes are the stable
	// keys, so the count must not move.
	const seeders = 8
	var wg sync.WaitGroup
	wg.Add(seeders)
	errs := make(chan error, seeders)
	for i := 0; i < seeders; i++ {
		go func() {
			defer wg.Done()
			errs <- p.EnsureBaseline(ctx, 3)
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	assert.Equal(t, int64(len(tenant.BaselinePermissions())), countRows(t, router, 3, &model.Permission{}))
	assert.Equal(t, int64(len(tenant.BaselineRoles())), countRows(t, router, 3, &model.Role{}))
}

func TestAdminRoleCarriesFullCatalog(t *testing.T) {
	router := newTestRouter(t)
	p := tenant.NewProvisioner(router, testLogger())
	ctx := context.Background()

	require.NoError(t, p.Provision(ctx, 1))

	db, err := router.Tenant(ctx, 1)
	require.NoError(t, err)

	var admin model.Role
	require.NoError(t, db.Preload("Permissions").First(&admin, "code = ?", "admin").Error)
	assert.Len(t, admin.Permissions, len(tenant.BaselinePermissions()))
}

func TestReseedRepairsInterruptedLinking(t *testing.T) {
	router := newTestRouter(t)
	p := tenant.NewProvisioner(router, testLogger())
	ctx := context.Background()

	require.NoError(t, p.Provision(ctx, 1))

	db, err := router.Tenant(ctx, 1)
	require.NoError(t, err)

	// Simulate a first run that died after creating the role rows but
	// before linking them to the catalog.
	var admin model.Role
	require.NoError(t, db.First(&admin, "code = ?", "admin").Error)
	require.NoError(t, db.Exec("DELETE FROM role_permissions WHERE role_id = ?", admin.ID).Error)
	require.NoError(t, db.Preload("Permissions").First(&admin, "code = ?", "admin").Error)
	require.Empty(t, admin.Permissions)

	// Re-invoking provisioning must converge on the full baseline.
	require.NoError(t, p.Provision(ctx, 1))

	require.NoError(t, db.Preload("Permissions").First(&admin, "code = ?", "admin").Error)
	assert.Len(t, admin.Permissions, len(tenant.BaselinePermissions()))

	// Roles that were never unlinked are untouched and not duplicated.
	var manager model.Role
	require.NoError(t, db.Preload("Permissions").First(&manager, "code = ?", "manager").Error)
	assert.Len(t, manager.Permissions, 7)
	assert.Equal(t, int64(len(tenant.BaselineRoles())), countRows(t, router, 1, &model.Role{}))
}

func TestProvisionInvalidOrg(t *testing.T) {
	router := newTestRouter(t)
	p := tenant.NewProvisioner(router, testLogger())

	err := p.Provision(context.Background(), 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, tenant.ErrInvalidTenant)
}

// TestTwoTenantLifecycle is the end-to-end scenario: two organizations,
// both provisioned, writes to one invisible to the other, and
// re-provisioning losing nothing.
func TestTwoTenantLifecycle(t *testing.T) {
	router := newTestRouter(t)
	p := tenant.NewProvisioner(router, testLogger())
	sessions := tenant.NewSessionProvider(router, testLogger())
	ctx := context.Background()

	require.NoError(t, p.Provision(ctx, 1))
	require.NoError(t, p.Provision(ctx, 2))

	err := sessions.With(ctx, 1, func(tx *gorm.DB) error {
		return tx.Create(&model.Product{SKU: "W-100", Name: "Widget", Price: 9.95, Stock: 4, IsActive: true}).Error
	})
	require.NoError(t, err)

	var orgTwoProducts int64
	err = sessions.With(ctx, 2, func(tx *gorm.DB) error {
		return tx.Model(&model.Product{}).Count(&orgTwoProducts).Error
	})
	require.NoError(t, err)
	assert.Zero(t, orgTwoProducts, "tenant 2 must not see tenant 1's rows")

	// Re-provisioning tenant 1 must not duplicate schema or drop data
	permsBefore := countRows(t, router, 1, &model.Permission{})
	require.NoError(t, p.Provision(ctx, 1))
	assert.Equal(t, permsBefore, countRows(t, router, 1, &model.Permission{}))
	assert.Equal(t, int64(1), countRows(t, router, 1, &model.Product{}))
}
