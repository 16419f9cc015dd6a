package testutil

import (
	"os"
	"testing"
	"time"

	"github.com/kendall-kelly/vendor-performance-api/config"
	"github.com/kendall-kelly/vendor-performance-api/performance"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// RequireTestEnvironment ensures that tests are running in the test environment.
// This prevents accidental execution of tests against production or development databases.
// It will fail the test immediately if GO_ENV is not set to "test".
func RequireTestEnvironment(t *testing.T) {
	t.Helper()

	env := os.Getenv("GO_ENV")
	if env != "test" {
		t.Fatalf("SAFETY CHECK FAILED: Tests must run with GO_ENV=test to prevent data loss. Current GO_ENV=%q. Set GO_ENV=test before running tests.", env)
	}
}

// NewTestDB opens a migrated in-memory SQLite database that is closed when
// the test ends.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Discard})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	// Every connection to :memory: is a separate database
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("Failed to get test database handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := config.MigrateDatabase(db); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	return db
}

// TestConfig returns a configuration suitable for router tests. Auth is
// disabled unless the caller sets Auth0Domain.
func TestConfig() *config.Config {
	return &config.Config{
		DatabaseURL:      "sqlite://memory",
		Port:             "8080",
		GoEnv:            "test",
		ServiceName:      "vendor-performance-api",
		AWSRegion:        "us-east-1",
		ReportsPrefix:    "reports",
		LogLevel:         "debug",
		RecomputeWorkers: 2,
	}
}

// FixedClock always returns t
func FixedClock(t time.Time) performance.Clock {
	return performance.ClockFunc(func() time.Time { return t })
}
