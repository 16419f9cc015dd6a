package performance

import (
	"context"
	"errors"

	"github.com/kendall-kelly/vendor-performance-api/models"
)

// ErrVendorNotFound is returned when the vendor being recomputed does not exist.
var ErrVendorNotFound = errors.New("vendor not found")

// Store is the engine's view of the order store.
type Store interface {
	// WithVendorLock runs fn inside a single transaction holding a row lock on
	// the vendor. fn receives a Store bound to that transaction; if fn returns
	// an error nothing it wrote is committed.
	WithVendorLock(ctx context.Context, vendorID uint, fn func(tx Store) error) error

	LoadVendor(ctx context.Context, vendorID uint) (*models.Vendor, error)
	LoadHistory(ctx context.Context, vendorID uint) (History, error)
	SaveVendorMetrics(ctx context.Context, vendorID uint, m Metrics) error
	AppendPerformanceLog(ctx context.Context, log *models.PerformanceLog) error
	ListVendorIDs(ctx context.Context) ([]uint, error)
}
