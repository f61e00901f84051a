package tenant_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/omnierp/omnicore/internal/model"
	"github.com/omnierp/omnicore/internal/tenant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func provisionedFixture(t *testing.T, orgIDs ...uint) (*tenant.Router, *tenant.SessionProvider) {
	t.Helper()
	router := newTestRouter(t)
	p := tenant.NewProvisioner(router, testLogger())
	for _, id := range orgIDs {
		require.NoError(t, p.Provision(context.Background(), id))
	}
	return router, tenant.NewSessionProvider(router, testLogger())
}

func TestSessionCommitAndRelease(t *testing.T) {
	_, sessions := provisionedFixture(t, 1)
	ctx := context.Background()

	sess, err := sessions.Open(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, tenant.StateOpen, sess.State())
	assert.Equal(t, uint(1), sess.OrgID())

	require.NoError(t, sess.DB().Create(&model.Product{SKU: "A-1", Name: "Uno"}).Error)
	require.NoError(t, sess.Commit())
	require.NoError(t, sess.Release())
	assert.True(t, sess.Released())

	// The committed row is visible to the next session
	var count int64
	require.NoError(t, sessions.With(ctx, 1, func(tx *gorm.DB) error {
		return tx.Model(&model.Product{}).Count(&count).Error
	}))
	assert.Equal(t, int64(1), count)
}

func TestReleaseWithoutCommitRollsBack(t *testing.T) {
	_, sessions := provisionedFixture(t, 1)
	ctx := context.Background()

	sess, err := sessions.Open(ctx, 1)
	require.NoError(t, err)
	require.NoError(t, sess.DB().Create(&model.Product{SKU: "B-1", Name: "Dos"}).Error)
	require.NoError(t, sess.Release())
	assert.True(t, sess.Released())

	var count int64
	require.NoError(t, sessions.With(ctx, 1, func(tx *gorm.DB) error {
		return tx.Model(&model.Product{}).Count(&count).Error
	}))
	assert.Zero(t, count, "uncommitted work must be rolled back on release")
}

func TestDoubleReleaseIsLifecycleError(t *testing.T) {
	_, sessions := provisionedFixture(t, 1)

	sess, err := sessions.Open(context.Background(), 1)
	require.NoError(t, err)
	require.NoError(t, sess.Release())

	err = sess.Release()
	require.Error(t, err)
	assert.ErrorIs(t, err, tenant.ErrSessionLifecycle)
}

func TestUseAfterReleaseIsPoisoned(t *testing.T) {
	_, sessions := provisionedFixture(t, 1)

	sess, err := sessions.Open(context.Background(), 1)
	require.NoError(t, err)
	require.NoError(t, sess.Commit())
	require.NoError(t, sess.Release())

	assert.ErrorIs(t, sess.DB().Error, tenant.ErrSessionLifecycle)
}

func TestCommitAfterReleaseIsLifecycleError(t *testing.T) {
	_, sessions := provisionedFixture(t, 1)

	sess, err := sessions.Open(context.Background(), 1)
	require.NoError(t, err)
	require.NoError(t, sess.Release())

	assert.ErrorIs(t, sess.Commit(), tenant.ErrSessionLifecycle)
	assert.ErrorIs(t, sess.Rollback(), tenant.ErrSessionLifecycle)
}

func TestWithRollsBackOnError(t *testing.T) {
	_, sessions := provisionedFixture(t, 1)
	ctx := context.Background()

	bang := assert.AnError
	err := sessions.With(ctx, 1, func(tx *gorm.DB) error {
		if err := tx.Create(&model.Product{SKU: "C-1", Name: "Tres"}).Error; err != nil {
			return err
		}
		return bang
	})
	assert.ErrorIs(t, err, bang)

	var count int64
	require.NoError(t, sessions.With(ctx, 1, func(tx *gorm.DB) error {
		return tx.Model(&model.Product{}).Count(&count).Error
	}))
	assert.Zero(t, count)
}

func TestWithReleasesOnPanic(t *testing.T) {
	_, sessions := provisionedFixture(t, 1)
	ctx := context.Background()

	assert.Panics(t, func() {
		_ = sessions.With(ctx, 1, func(tx *gorm.DB) error {
			_ = tx.Create(&model.Product{SKU: "D-1", Name: "Cuatro"}).Error
			panic("boom")
		})
	})

	// The panicking scope must not have leaked its connection or its
	// uncommitted write.
	var count int64
	require.NoError(t, sessions.With(ctx, 1, func(tx *gorm.DB) error {
		return tx.Model(&model.Product{}).Count(&count).Error
	}))
	assert.Zero(t, count)
}

func TestOpenPropagatesRouterErrors(t *testing.T) {
	_, sessions := provisionedFixture(t)

	_, err := sessions.Open(context.Background(), 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, tenant.ErrInvalidTenant)
}

func TestMasterSessionIsNotATenantSession(t *testing.T) {
	_, sessions := provisionedFixture(t)

	sess, err := sessions.OpenMaster(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint(0), sess.OrgID())
	require.NoError(t, sess.Rollback())
	require.NoError(t, sess.Release())
}

func TestCrossTenantIsolationUnderInterleaving(t *testing.T) {
	_, sessions := provisionedFixture(t, 1, 2)
	ctx := context.Background()

	const rounds = 10
	var wg sync.WaitGroup
	wg.Add(2)
	errsA := make(chan error, rounds)
	errsB := make(chan error, rounds)

	go func() {
		defer wg.Done()
		for i := 0; i < rounds; i++ {
			errsA <- sessions.With(ctx, 1, func(tx *gorm.DB) error {
				return tx.Create(&model.Product{SKU: skuFor("A", i), Name: "from org 1"}).Error
			})
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < rounds; i++ {
			errsB <- sessions.With(ctx, 2, func(tx *gorm.DB) error {
				return tx.Create(&model.Product{SKU: skuFor("B", i), Name: "from org 2"}).Error
			})
		}
	}()
	wg.Wait()
	close(errsA)
	close(errsB)
	for err := range errsA {
		require.NoError(t, err)
	}
	for err := range errsB {
		require.NoError(t, err)
	}

	for orgID, wantPrefix := range map[uint]string{1: "from org 1", 2: "from org 2"} {
		var products []model.Product
		require.NoError(t, sessions.With(ctx, orgID, func(tx *gorm.DB) error {
			return tx.Find(&products).Error
		}))
		require.Len(t, products, rounds)
		for _, prod := range products {
			assert.Equal(t, wantPrefix, prod.Name, "org %d saw a foreign row", orgID)
		}
	}
}

func skuFor(prefix string, i int) string {
	return fmt.Sprintf("%s-%d", prefix, i)
}
