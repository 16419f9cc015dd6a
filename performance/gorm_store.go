package performance

import (
	"context"
	"errors"
	"fmt"

	"github.com/kendall-kelly/vendor-performance-api/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore implements Store on top of a GORM connection.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore wraps db.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// WithVendorLock opens a transaction and locks the vendor row before calling fn.
// Row locks are only requested on PostgreSQL; SQLite serializes writers itself.
func (s *GormStore) WithVendorLock(ctx context.Context, vendorID uint, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx
		if tx.Dialector.Name() == "postgres" {
			q = q.Clauses(clause.Locking{Strength: "UPDATE"})
		}

		var vendor models.Vendor
		if err := q.Select("id").First(&vendor, vendorID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrVendorNotFound
			}
			return fmt.Errorf("failed to lock vendor %d: %w", vendorID, err)
		}

		return fn(&GormStore{db: tx})
	})
}

// LoadVendor fetches the full vendor row.
func (s *GormStore) LoadVendor(ctx context.Context, vendorID uint) (*models.Vendor, error) {
	var vendor models.Vendor
	if err := s.db.WithContext(ctx).First(&vendor, vendorID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVendorNotFound
		}
		return nil, fmt.Errorf("failed to load vendor %d: %w", vendorID, err)
	}
	return &vendor, nil
}

// LoadHistory reads every purchase order of the vendor, oldest first.
func (s *GormStore) LoadHistory(ctx context.Context, vendorID uint) (History, error) {
	var history History
	err := s.db.WithContext(ctx).
		Model(&models.PurchaseOrder{}).
		Select("id", "status", "delivery_date", "quality_rating", "issue_date", "acknowledgment_date").
		Where("vendor_id = ?", vendorID).
		Order("id").
		Find(&history).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load order history for vendor %d: %w", vendorID, err)
	}
	return history, nil
}

// SaveVendorMetrics writes the four metric columns and nothing else, so
// concurrent profile edits are not overwritten.
func (s *GormStore) SaveVendorMetrics(ctx context.Context, vendorID uint, m Metrics) error {
	res := s.db.WithContext(ctx).
		Model(&models.Vendor{}).
		Where("id = ?", vendorID).
		Updates(m.Columns())
	if res.Error != nil {
		return fmt.Errorf("failed to save metrics for vendor %d: %w", vendorID, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrVendorNotFound
	}
	return nil
}

// AppendPerformanceLog inserts one snapshot row.
func (s *GormStore) AppendPerformanceLog(ctx context.Context, log *models.PerformanceLog) error {
	if err := s.db.WithContext(ctx).Create(log).Error; err != nil {
		return fmt.Errorf("failed to append performance log for vendor %d: %w", log.VendorID, err)
	}
	return nil
}

// ListVendorIDs returns the IDs of every vendor.
func (s *GormStore) ListVendorIDs(ctx context.Context) ([]uint, error) {
	var ids []uint
	if err := s.db.WithContext(ctx).Model(&models.Vendor{}).Order("id").Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("failed to list vendors: %w", err)
	}
	return ids, nil
}
