package services

import (
	"testing"
	"time"

	"github.com/kendall-kelly/vendor-performance-api/models"
	"github.com/kendall-kelly/vendor-performance-api/performance"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testNow = time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC)

func fixedClock(t time.Time) performance.Clock {
	return performance.ClockFunc(func() time.Time { return t })
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

func newTestEngine(db *gorm.DB, clock performance.Clock) *performance.Engine {
	return performance.NewEngine(
		performance.NewGormStore(db),
		performance.WithClock(clock),
		performance.WithLocker(performance.NewVendorLocker()),
	)
}

func createTestVendor(t *testing.T, db *gorm.DB, name string) *models.Vendor {
	t.Helper()

	svc := NewVendorService(db, fixedClock(testNow))
	vendor, err := svc.Create(t.Context(), CreateVendorInput{Name: name})
	require.NoError(t, err)
	return vendor
}

func ptr[T any](v T) *T {
	return &v
}
