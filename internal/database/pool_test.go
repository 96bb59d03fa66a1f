package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestPool(t *testing.T) *PoolManager {
	t.Helper()
	pm, err := Open(":memory:", PoolConfig{MaxIdleConns: 1, MaxOpenConns: 1}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pm.Close() })
	return pm
}

type widget struct {
	ID   string `gorm:"primaryKey"`
	Name string
}

func TestWithTransactionCommitsOnSuccess(t *testing.T) {
	pm := newTestPool(t)
	require.NoError(t, AutoMigrate(pm.DB(), &widget{}))

	err := pm.WithTransaction(context.Background(), func(tx *gorm.DB) error {
		return tx.Create(&widget{ID: "1", Name: "a"}).Error
	})
	require.NoError(t, err)

	var count int64
	pm.DB().Model(&widget{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestWithTransactionRollsBackOnError(t *testing.T) {
	pm := newTestPool(t)
	require.NoError(t, AutoMigrate(pm.DB(), &widget{}))

	err := pm.WithTransaction(context.Background(), func(tx *gorm.DB) error {
		if err := tx.Create(&widget{ID: "1", Name: "a"}).Error; err != nil {
			return err
		}
		return assert.AnError
	})
	require.Error(t, err)

	var count int64
	pm.DB().Model(&widget{}).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestWithTransactionRetryGivesUpOnNonRetryableError(t *testing.T) {
	pm := newTestPool(t)
	attempts := 0
	err := pm.WithTransactionRetry(context.Background(), 3, func(tx *gorm.DB) error {
		attempts++
		return assert.AnError
	})
	require.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestPingAndStats(t *testing.T) {
	pm := newTestPool(t)
	require.NoError(t, pm.Ping(context.Background()))
	stats := pm.Stats()
	assert.GreaterOrEqual(t, stats.MaxOpenConnections, 1)
}

func TestCloseIsIdempotent(t *testing.T) {
	pm, err := Open(":memory:", PoolConfig{}, nil)
	require.NoError(t, err)
	require.NoError(t, pm.Close())
	require.NoError(t, pm.Close())
}
